package api

import (
	"context"

	"github.com/pezkuwichain/pezkuwi-pool-client/era"
	"github.com/pezkuwichain/pezkuwi-pool-client/pool"
)

// PoolReader defines the registry view the query endpoints serve from.
type PoolReader interface {
	Status() pool.Status
	Members() ([]pool.Member, error)
	MembersByCategory(c pool.Category) ([]pool.Member, error)
	Member(addr string) (pool.Member, bool, error)
	ActiveSet() (pool.ValidatorSet, error)
	EraState() (era.State, error)
	Stats() (pool.Stats, error)
	Subscribe() (<-chan pool.Status, func())
}

// HistoryReader defines the selection-audit view behind the history
// endpoints.
type HistoryReader interface {
	HistoryOf(addr string) []uint32
	LastSelected(addr string) (uint32, bool)
	ParticipationRate(addr string, fromEra, toEra uint32) float64
}

// IntentGateway defines the precondition-checked mutation surface behind the
// intent endpoints.
type IntentGateway interface {
	Join(ctx context.Context, addr string, category pool.Category) (string, error)
	Leave(ctx context.Context, addr string) (string, error)
	Recategorize(ctx context.Context, addr string, newCategory pool.Category) (string, error)
}
