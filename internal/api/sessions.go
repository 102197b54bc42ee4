package api

import (
	"context"
	"math/rand/v2"
	"sync/atomic"
	"time"

	"github.com/cxd309/minimetro/internal/network"
	"github.com/google/uuid"
	"github.com/puzpuzpuz/xsync/v3"
	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("module", "api")

// Options configures every session created by a registry.
type Options struct {
	Params        network.Params
	StartStations int
	// TickInterval is the wall-clock period between ticks. Zero disables the
	// background clock; sessions then only advance through explicit ticks.
	TickInterval time.Duration
}

// Session is one live simulation. The network is only touched under mu.
type Session struct {
	ID   uuid.UUID
	Seed uint64

	opts       Options
	mu         *xsync.RBMutex
	net        *network.Network
	cancel     context.CancelFunc
	done       chan struct{} // closed when the clock goroutine exits
	lastAccess atomic.Int64
}

func newSession(seed uint64, opts Options) *Session {
	s := &Session{ID: uuid.New(), Seed: seed, opts: opts, mu: xsync.NewRBMutex()}
	s.net = s.build()
	s.touch()
	return s
}

func (s *Session) build() *network.Network {
	n := network.New(s.opts.Params, rand.New(rand.NewPCG(s.Seed, s.Seed)))
	for range s.opts.StartStations {
		n.CreateStation()
	}
	return n
}

func (s *Session) touch() { s.lastAccess.Store(time.Now().UnixNano()) }

// Idle is the wall-clock time since the session was last used.
func (s *Session) Idle() time.Duration {
	return time.Duration(time.Now().UnixNano() - s.lastAccess.Load())
}

// Update runs fn with exclusive access to the network.
func (s *Session) Update(fn func(n *network.Network)) {
	s.touch()
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.net)
}

// Snapshot reads the network state.
func (s *Session) Snapshot() network.Snapshot {
	s.touch()
	token := s.mu.RLock()
	defer s.mu.RUnlock(token)
	return s.net.Snapshot()
}

// Reset discards the network and rebuilds it from the session seed.
func (s *Session) Reset() {
	s.Update(func(*network.Network) { s.net = s.build() })
	log.Infof("session %s reset", s.ID)
}

// Advance runs n ticks at once.
func (s *Session) Advance(n int) {
	s.Update(func(net *network.Network) {
		for range n {
			net.Tick()
		}
	})
}

func (s *Session) run(ctx context.Context) {
	ticker := time.NewTicker(s.opts.TickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.mu.Lock()
			s.net.Tick()
			s.mu.Unlock()
		}
	}
}

// Sessions is the registry of live sessions.
type Sessions struct {
	opts     Options
	sessions *xsync.MapOf[uuid.UUID, *Session]
}

func NewSessions(opts Options) *Sessions {
	return &Sessions{opts: opts, sessions: xsync.NewMapOf[uuid.UUID, *Session]()}
}

// Create starts a session whose clock runs until ctx is done or the session
// is deleted.
func (r *Sessions) Create(ctx context.Context, seed uint64) *Session {
	s := newSession(seed, r.opts)
	ctx, s.cancel = context.WithCancel(ctx)
	if r.opts.TickInterval > 0 {
		s.done = make(chan struct{})
		go func() {
			defer close(s.done)
			s.run(ctx)
		}()
	}
	r.sessions.Store(s.ID, s)
	log.Infof("session %s created (seed %d)", s.ID, seed)
	return s
}

func (r *Sessions) Get(id uuid.UUID) (*Session, bool) {
	return r.sessions.Load(id)
}

// Delete stops and forgets a session. Once it returns the session clock no
// longer ticks.
func (r *Sessions) Delete(id uuid.UUID) bool {
	s, ok := r.sessions.LoadAndDelete(id)
	if !ok {
		return false
	}
	s.cancel()
	if s.done != nil {
		<-s.done
	}
	log.Infof("session %s deleted", id)
	return true
}

func (r *Sessions) Len() int { return r.sessions.Size() }

// Reap deletes every session idle for longer than ttl and returns how many
// were removed.
func (r *Sessions) Reap(ttl time.Duration) int {
	var stale []uuid.UUID
	r.sessions.Range(func(id uuid.UUID, s *Session) bool {
		if s.Idle() > ttl {
			stale = append(stale, id)
		}
		return true
	})
	for _, id := range stale {
		r.Delete(id)
	}
	return len(stale)
}

// Close stops every session.
func (r *Sessions) Close() {
	r.sessions.Range(func(id uuid.UUID, _ *Session) bool {
		r.Delete(id)
		return true
	})
}
