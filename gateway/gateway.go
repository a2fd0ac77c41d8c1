// Package gateway validates and emits the three pool-mutating intents.
//
// Preconditions are checked against the registry's latest published snapshot
// at submission time; violations are rejected synchronously before any
// remote call. Emission is fire-and-forget: the gateway returns the
// submitter's intent reference and never touches local state, so the next
// hydration is the only writer of the registry.
package gateway

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/pezkuwichain/pezkuwi-pool-client/chain"
	poolerrors "github.com/pezkuwichain/pezkuwi-pool-client/errors"
	"github.com/pezkuwichain/pezkuwi-pool-client/pool"
)

// Gateway submits membership intents after precondition checks.
type Gateway struct {
	registry  *pool.Registry
	submitter chain.IntentSubmitter
	logger    zerolog.Logger
}

// NewGateway creates a gateway over registry and submitter.
func NewGateway(registry *pool.Registry, submitter chain.IntentSubmitter, logger zerolog.Logger) *Gateway {
	return &Gateway{
		registry:  registry,
		submitter: submitter,
		logger:    logger.With().Str("component", "command_gateway").Logger(),
	}
}

// Join emits a join intent for addr under category. Fails with
// ErrAlreadyMember when addr is registered in any category; fails closed
// with ErrNotReady before the first hydration.
func (g *Gateway) Join(ctx context.Context, addr string, category pool.Category) (string, error) {
	if !category.Valid() {
		return "", poolerrors.ErrInvalidCategory.Wrapf("%d", uint8(category))
	}

	snapshot, err := g.registry.Latest()
	if err != nil {
		return "", err
	}
	if snapshot.IsMember(addr) {
		return "", poolerrors.ErrAlreadyMember.Wrap(addr)
	}

	ref, err := g.submitter.SubmitJoin(ctx, addr, category)
	if err != nil {
		return "", err
	}

	g.logger.Info().
		Str("address", addr).
		Stringer("category", category).
		Str("intent_ref", ref).
		Msg("emitted join intent")
	return ref, nil
}

// Leave emits a leave intent for addr. Fails with ErrNotMember when addr is
// not registered.
func (g *Gateway) Leave(ctx context.Context, addr string) (string, error) {
	snapshot, err := g.registry.Latest()
	if err != nil {
		return "", err
	}
	if !snapshot.IsMember(addr) {
		return "", poolerrors.ErrNotMember.Wrap(addr)
	}

	ref, err := g.submitter.SubmitLeave(ctx, addr)
	if err != nil {
		return "", err
	}

	g.logger.Info().
		Str("address", addr).
		Str("intent_ref", ref).
		Msg("emitted leave intent")
	return ref, nil
}

// Recategorize emits a category change intent for addr. Fails with
// ErrNotMember when addr is not registered and with ErrNoOpCategoryChange
// when newCategory is addr's current category.
func (g *Gateway) Recategorize(ctx context.Context, addr string, newCategory pool.Category) (string, error) {
	if !newCategory.Valid() {
		return "", poolerrors.ErrInvalidCategory.Wrapf("%d", uint8(newCategory))
	}

	snapshot, err := g.registry.Latest()
	if err != nil {
		return "", err
	}
	current, ok := snapshot.CategoryOf(addr)
	if !ok {
		return "", poolerrors.ErrNotMember.Wrap(addr)
	}
	if current == newCategory {
		return "", poolerrors.ErrNoOpCategoryChange.Wrapf("%s already in %s", addr, current)
	}

	ref, err := g.submitter.SubmitRecategorize(ctx, addr, newCategory)
	if err != nil {
		return "", err
	}

	g.logger.Info().
		Str("address", addr).
		Stringer("from", current).
		Stringer("to", newCategory).
		Str("intent_ref", ref).
		Msg("emitted recategorize intent")
	return ref, nil
}
