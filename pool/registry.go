package pool

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/pezkuwichain/pezkuwi-pool-client/era"
	poolerrors "github.com/pezkuwichain/pezkuwi-pool-client/errors"
)

// Registry serves read queries over the latest published snapshot.
//
// The hydrator is the only writer: it publishes complete snapshots through an
// atomic pointer swap, so reads are lock-free and always observe a fully
// consistent snapshot. Until the first publish every query returns empty
// results with ErrNotReady. A failed poll after a success leaves the last
// snapshot in place and flips the stale flag instead.
type Registry struct {
	snapshot atomic.Pointer[Snapshot]
	stale    atomic.Bool
	logger   zerolog.Logger

	subMu     sync.Mutex
	subs      map[int]chan Status
	nextSubID int
}

// Status describes registry availability for health surfaces.
type Status struct {
	Ready       bool      `json:"ready"`
	Stale       bool      `json:"stale"`
	LastFetched time.Time `json:"last_fetched"`
	EraIndex    uint32    `json:"era_index"`
	MemberCount int       `json:"member_count"`
}

// NewRegistry creates an empty, not-ready registry.
func NewRegistry(logger zerolog.Logger) *Registry {
	return &Registry{
		logger: logger.With().Str("component", "pool_registry").Logger(),
	}
}

// Publish swaps in a new snapshot and clears any stale condition.
func (r *Registry) Publish(s *Snapshot) {
	r.snapshot.Store(s)
	r.stale.Store(false)

	r.logger.Info().
		Int("members", len(s.members)).
		Uint32("era_index", s.eraState.EraIndex).
		Int("active_set", s.active.Size()).
		Time("fetched_at", s.fetchedAt).
		Msg("published pool snapshot")

	r.notifySubscribers(r.Status())
}

// Subscribe registers for a status notification after every publish. A slow
// consumer misses intermediate publishes rather than blocking the publisher.
// The returned cancel func removes the subscription and closes the channel.
func (r *Registry) Subscribe() (<-chan Status, func()) {
	r.subMu.Lock()
	defer r.subMu.Unlock()

	if r.subs == nil {
		r.subs = make(map[int]chan Status)
	}
	id := r.nextSubID
	r.nextSubID++
	ch := make(chan Status, 8)
	r.subs[id] = ch

	cancel := func() {
		r.subMu.Lock()
		defer r.subMu.Unlock()
		if sub, ok := r.subs[id]; ok {
			delete(r.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

func (r *Registry) notifySubscribers(st Status) {
	r.subMu.Lock()
	defer r.subMu.Unlock()

	for _, ch := range r.subs {
		select {
		case ch <- st:
		default:
		}
	}
}

// MarkStale records that the most recent hydration failed while a previous
// snapshot is still being served. No-op before the first publish.
func (r *Registry) MarkStale() {
	if r.snapshot.Load() == nil {
		return
	}
	if !r.stale.Swap(true) {
		r.logger.Warn().Msg("hydration failed; serving cached snapshot")
	}
}

// Latest returns the current snapshot, or ErrNotReady before the first
// publish.
func (r *Registry) Latest() (*Snapshot, error) {
	s := r.snapshot.Load()
	if s == nil {
		r.logger.Debug().Msg("query before first hydration")
		return nil, poolerrors.ErrNotReady
	}
	return s, nil
}

// Status reports availability without an error; it is valid in every state.
func (r *Registry) Status() Status {
	s := r.snapshot.Load()
	if s == nil {
		return Status{}
	}
	return Status{
		Ready:       true,
		Stale:       r.stale.Load(),
		LastFetched: s.fetchedAt,
		EraIndex:    s.eraState.EraIndex,
		MemberCount: len(s.members),
	}
}

// Members returns all members of the latest snapshot.
func (r *Registry) Members() ([]Member, error) {
	s, err := r.Latest()
	if err != nil {
		return nil, err
	}
	return s.Members(), nil
}

// MembersByCategory returns the latest snapshot's members of one category,
// preserving the relative order of the full listing.
func (r *Registry) MembersByCategory(c Category) ([]Member, error) {
	s, err := r.Latest()
	if err != nil {
		return nil, err
	}
	return s.MembersByCategory(c), nil
}

// Member looks up a single member by address.
func (r *Registry) Member(addr string) (Member, bool, error) {
	s, err := r.Latest()
	if err != nil {
		return Member{}, false, err
	}
	m, ok := s.Member(addr)
	return m, ok, nil
}

// CategoryOf returns the admission category of addr, ok=false when absent.
func (r *Registry) CategoryOf(addr string) (Category, bool, error) {
	s, err := r.Latest()
	if err != nil {
		return 0, false, err
	}
	c, ok := s.CategoryOf(addr)
	return c, ok, nil
}

// IsMember reports whether addr is registered in any category.
func (r *Registry) IsMember(addr string) (bool, error) {
	s, err := r.Latest()
	if err != nil {
		return false, err
	}
	return s.IsMember(addr), nil
}

// ActiveSet returns the chain's validator selection for the snapshot era.
func (r *Registry) ActiveSet() (ValidatorSet, error) {
	s, err := r.Latest()
	if err != nil {
		return ValidatorSet{}, err
	}
	return s.ActiveSet(), nil
}

// EraState returns the era timing of the latest snapshot.
func (r *Registry) EraState() (era.State, error) {
	s, err := r.Latest()
	if err != nil {
		return era.State{}, err
	}
	return s.EraState(), nil
}

// Stats aggregates the latest snapshot.
func (r *Registry) Stats() (Stats, error) {
	s, err := r.Latest()
	if err != nil {
		return Stats{}, err
	}
	return s.Stats(), nil
}
