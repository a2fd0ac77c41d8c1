// Package chain defines the read and intent contracts the pool client holds
// against the remote chain, plus the raw types crossing that boundary.
//
// The client never interprets chain state beyond these shapes; backends live
// in subpackages (chain/substrate) and fake implementations back the tests.
package chain

import (
	"context"

	"github.com/pezkuwichain/pezkuwi-pool-client/pool"
)

// MemberEntry is one identity-category pair from the chain's pool listing.
type MemberEntry struct {
	Address  string
	Category pool.Category
}

// StateReader supplies point-in-time reads of pool state. Every method takes
// the caller's deadline; implementations do not retry.
type StateReader interface {
	// CurrentEra returns the chain's active era index.
	CurrentEra(ctx context.Context) (uint32, error)
	// EraLength returns the rotation cadence in blocks.
	EraLength(ctx context.Context) (uint32, error)
	// EraStartBlock returns the first block of the active era.
	EraStartBlock(ctx context.Context) (uint64, error)
	// CurrentHeight returns the best known block height.
	CurrentHeight(ctx context.Context) (uint64, error)
	// PoolMembers lists every registered validator with its category.
	PoolMembers(ctx context.Context) ([]MemberEntry, error)
	// PerformanceOf returns addr's counters, found=false when the chain
	// holds no record for it.
	PerformanceOf(ctx context.Context, addr string) (pool.PerformanceRecord, bool, error)
	// CurrentValidatorSet returns the active selection, found=false when the
	// chain has not published one for the current era.
	CurrentValidatorSet(ctx context.Context) (pool.ValidatorSet, bool, error)
	// SelectionHistoryOf returns the eras addr was selected in, ascending.
	SelectionHistoryOf(ctx context.Context, addr string) ([]uint32, error)
}

// IntentSubmitter emits signed write intents. Submission is fire-and-forget:
// the returned reference identifies the extrinsic, confirmation is observed
// by later hydrations.
type IntentSubmitter interface {
	SubmitJoin(ctx context.Context, addr string, category pool.Category) (string, error)
	SubmitLeave(ctx context.Context, addr string) (string, error)
	SubmitRecategorize(ctx context.Context, addr string, category pool.Category) (string, error)
}

// Provider is the full collaborator contract: reads for the hydrator, intent
// submission for the gateway.
type Provider interface {
	StateReader
	IntentSubmitter
}
