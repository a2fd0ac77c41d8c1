package pool

import (
	"github.com/pezkuwichain/pezkuwi-pool-client/reputation"
)

// PerformanceRecord holds the chain-owned counters for one validator. It is
// replaced wholesale on every hydration and never mutated locally.
type PerformanceRecord struct {
	BlocksProduced  uint64 `json:"blocks_produced"`
	BlocksMissed    uint64 `json:"blocks_missed"`
	EraPoints       uint64 `json:"era_points"`
	LastActiveEra   uint32 `json:"last_active_era"`
	ReputationScore uint8  `json:"reputation_score"`
}

// Member is one registered validator as materialized into a snapshot.
// IsActive and Reputation are derived from Performance at snapshot build and
// are never set independently.
type Member struct {
	Address     string                `json:"address"`
	Category    Category              `json:"category"`
	Performance PerformanceRecord     `json:"performance"`
	Reputation  reputation.Assessment `json:"reputation"`
	IsActive    bool                  `json:"is_active"`
}

// ValidatorSet is the chain's active selection for one era, immutable once
// captured. The three slices are pairwise disjoint. An absent remote set
// hydrates as all-empty.
type ValidatorSet struct {
	EraIndex      uint32   `json:"era_index"`
	Stake         []string `json:"stake"`
	Parliamentary []string `json:"parliamentary"`
	Merit         []string `json:"merit"`
}

// All returns every selected address across the three categories.
func (v ValidatorSet) All() []string {
	all := make([]string, 0, len(v.Stake)+len(v.Parliamentary)+len(v.Merit))
	all = append(all, v.Stake...)
	all = append(all, v.Parliamentary...)
	all = append(all, v.Merit...)
	return all
}

// Contains reports whether addr was selected in any category.
func (v ValidatorSet) Contains(addr string) bool {
	for _, set := range [][]string{v.Stake, v.Parliamentary, v.Merit} {
		for _, a := range set {
			if a == addr {
				return true
			}
		}
	}
	return false
}

// Size returns the number of selected validators.
func (v ValidatorSet) Size() int {
	return len(v.Stake) + len(v.Parliamentary) + len(v.Merit)
}

// Stats aggregates a snapshot for the query surface.
type Stats struct {
	TotalMembers         int     `json:"total_members"`
	StakeMembers         int     `json:"stake_members"`
	ParliamentaryMembers int     `json:"parliamentary_members"`
	MeritMembers         int     `json:"merit_members"`
	ActiveMembers        int     `json:"active_members"`
	MeanReputationScore  float64 `json:"mean_reputation_score"`
}
