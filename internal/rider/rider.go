// Package rider defines a single passenger waiting at, or travelling from, a
// station.
package rider

import (
	"github.com/cxd309/minimetro/internal/catalog"
	"github.com/google/uuid"
)

// Rider is a passenger. OriginID refers back to the spawning station; it is
// not an ownership link. A rider is held by exactly one station queue or one
// train at a time.
type Rider struct {
	ID          uuid.UUID           `json:"id"`
	OriginID    uuid.UUID           `json:"origin_id"`
	Destination catalog.StationType `json:"destination"`
	SpawnedAt   float64             `json:"spawned_at"` // simulated seconds
	Patience    float64             `json:"patience"`   // seconds
	abandoned   bool
}

// New creates a rider spawned at now.
func New(originID uuid.UUID, destination catalog.StationType, now, patience float64) *Rider {
	return &Rider{
		ID:          uuid.New(),
		OriginID:    originID,
		Destination: destination,
		SpawnedAt:   now,
		Patience:    patience,
	}
}

// Update marks the rider abandoned once its patience has run out.
// It is only called while the rider is queued at a station.
func (r *Rider) Update(now float64) {
	if r.Waited(now) >= r.Patience {
		r.abandoned = true
	}
}

// Abandoned reports whether the rider has given up waiting.
func (r *Rider) Abandoned() bool { return r.abandoned }

// Waited returns how long the rider has existed at now.
func (r *Rider) Waited(now float64) float64 { return now - r.SpawnedAt }
