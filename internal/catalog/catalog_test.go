package catalog_test

import (
	"encoding/json"
	"testing"

	"github.com/cxd309/minimetro/internal/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrainTypeAttributes(t *testing.T) {
	assert.Equal(t, 5, catalog.Regular.Capacity())
	assert.Equal(t, 4.0, catalog.Regular.Speed())
	assert.Equal(t, 0.0, catalog.Regular.Acceleration())

	assert.Equal(t, 5, catalog.Express.Capacity())
	assert.Equal(t, 6.4, catalog.Express.Speed())

	assert.Equal(t, 8, catalog.HighCapacity.Capacity())
	assert.Equal(t, 3.2, catalog.HighCapacity.Speed())

	for _, tt := range catalog.AllTrainTypes() {
		assert.True(t, tt.Valid())
		assert.Positive(t, tt.Capacity(), tt.String())
		assert.Positive(t, tt.Speed(), tt.String())
	}
}

func TestStationTypeText(t *testing.T) {
	assert.Len(t, catalog.AllStationTypes(), 6)

	for _, st := range catalog.AllStationTypes() {
		text, err := st.MarshalText()
		require.NoError(t, err)
		var back catalog.StationType
		require.NoError(t, back.UnmarshalText(text))
		assert.Equal(t, st, back)
	}

	var st catalog.StationType
	assert.Error(t, st.UnmarshalText([]byte("star")))
	assert.False(t, catalog.StationType(42).Valid())
	assert.Equal(t, "StationType(42)", catalog.StationType(42).String())
}

func TestTrainTypeJSON(t *testing.T) {
	var v struct {
		Type catalog.TrainType `json:"type"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"type":"High_Capacity"}`), &v))
	assert.Equal(t, catalog.HighCapacity, v.Type)

	assert.Error(t, json.Unmarshal([]byte(`{"type":"maglev"}`), &v))
}

func TestPaletteDistinct(t *testing.T) {
	seen := map[catalog.Color]bool{}
	for _, c := range catalog.LinePalette {
		assert.False(t, seen[c], c.String())
		seen[c] = true
	}
	assert.Equal(t, "#ff9696", catalog.LinePalette[0].String())
}
