package pool

import (
	"time"

	"github.com/pezkuwichain/pezkuwi-pool-client/era"
	"github.com/pezkuwichain/pezkuwi-pool-client/reputation"
)

// activeScoreThreshold gates the IsActive flag recomputed at every snapshot
// build. It coincides with the scorer's Good floor but the two predicates
// are independent.
const activeScoreThreshold uint8 = 70

// Snapshot is an immutable point-in-time materialization of pool state.
// Once built it is never mutated; the registry publishes whole snapshots by
// pointer swap so readers are never exposed to a partial update.
type Snapshot struct {
	members   []Member
	byAddress map[string]int
	eraState  era.State
	active    ValidatorSet
	fetchedAt time.Time
}

// NewSnapshot materializes a snapshot from hydrated members. Member order is
// preserved as given. The derived fields of each member (IsActive and the
// reputation annotation) are recomputed from Performance here; values the
// caller may have set are discarded.
func NewSnapshot(members []Member, eraState era.State, active ValidatorSet, fetchedAt time.Time) *Snapshot {
	s := &Snapshot{
		members:   make([]Member, len(members)),
		byAddress: make(map[string]int, len(members)),
		eraState:  eraState,
		active:    active,
		fetchedAt: fetchedAt,
	}
	for i, m := range members {
		m.Reputation = reputation.Evaluate(
			m.Performance.BlocksProduced,
			m.Performance.BlocksMissed,
			m.Performance.ReputationScore,
		)
		m.IsActive = m.Performance.ReputationScore >= activeScoreThreshold
		s.members[i] = m
		s.byAddress[m.Address] = i
	}
	return s
}

// Members returns all members in hydration order. The slice is a copy;
// callers may not rely on any semantic ordering.
func (s *Snapshot) Members() []Member {
	out := make([]Member, len(s.members))
	copy(out, s.members)
	return out
}

// MembersByCategory returns the members of one category, preserving the
// relative order of the full listing.
func (s *Snapshot) MembersByCategory(c Category) []Member {
	out := make([]Member, 0)
	for _, m := range s.members {
		if m.Category == c {
			out = append(out, m)
		}
	}
	return out
}

// Member looks up a single member by address.
func (s *Snapshot) Member(addr string) (Member, bool) {
	i, ok := s.byAddress[addr]
	if !ok {
		return Member{}, false
	}
	return s.members[i], true
}

// CategoryOf returns the member's admission category, ok=false when addr is
// not a member.
func (s *Snapshot) CategoryOf(addr string) (Category, bool) {
	i, ok := s.byAddress[addr]
	if !ok {
		return 0, false
	}
	return s.members[i].Category, true
}

// IsMember reports whether addr is registered in any category.
func (s *Snapshot) IsMember(addr string) bool {
	_, ok := s.byAddress[addr]
	return ok
}

// EraState returns the era timing observed when the snapshot was built.
func (s *Snapshot) EraState() era.State {
	return s.eraState
}

// ActiveSet returns the chain's validator selection for the snapshot era.
func (s *Snapshot) ActiveSet() ValidatorSet {
	return s.active
}

// FetchedAt returns when the snapshot's hydration completed.
func (s *Snapshot) FetchedAt() time.Time {
	return s.fetchedAt
}

// Stats aggregates the snapshot.
func (s *Snapshot) Stats() Stats {
	stats := Stats{TotalMembers: len(s.members)}
	var scoreSum uint64
	for _, m := range s.members {
		switch m.Category {
		case StakeValidator:
			stats.StakeMembers++
		case ParliamentaryValidator:
			stats.ParliamentaryMembers++
		case MeritValidator:
			stats.MeritMembers++
		}
		if m.IsActive {
			stats.ActiveMembers++
		}
		scoreSum += uint64(m.Performance.ReputationScore)
	}
	if len(s.members) > 0 {
		stats.MeanReputationScore = float64(scoreSum) / float64(len(s.members))
	}
	return stats
}
