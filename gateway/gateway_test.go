package gateway

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pezkuwichain/pezkuwi-pool-client/era"
	poolerrors "github.com/pezkuwichain/pezkuwi-pool-client/errors"
	"github.com/pezkuwichain/pezkuwi-pool-client/pool"
)

type submittedIntent struct {
	kind     string
	addr     string
	category pool.Category
}

// fakeSubmitter records submissions and can be forced to fail.
type fakeSubmitter struct {
	submitted []submittedIntent
	err       error
}

func (f *fakeSubmitter) SubmitJoin(_ context.Context, addr string, category pool.Category) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.submitted = append(f.submitted, submittedIntent{kind: "join", addr: addr, category: category})
	return "0xext1", nil
}

func (f *fakeSubmitter) SubmitLeave(_ context.Context, addr string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.submitted = append(f.submitted, submittedIntent{kind: "leave", addr: addr})
	return "0xext2", nil
}

func (f *fakeSubmitter) SubmitRecategorize(_ context.Context, addr string, category pool.Category) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.submitted = append(f.submitted, submittedIntent{kind: "recategorize", addr: addr, category: category})
	return "0xext3", nil
}

func hydratedRegistry(t *testing.T) *pool.Registry {
	t.Helper()

	registry := pool.NewRegistry(zerolog.New(zerolog.NewTestWriter(t)))
	registry.Publish(pool.NewSnapshot(
		[]pool.Member{
			{Address: "0xaaa", Category: pool.StakeValidator, Performance: pool.PerformanceRecord{ReputationScore: 92}},
			{Address: "0xbbb", Category: pool.MeritValidator, Performance: pool.PerformanceRecord{ReputationScore: 77}},
		},
		era.Compute(7, 100, 1000, 1050),
		pool.ValidatorSet{EraIndex: 7},
		time.Now(),
	))
	return registry
}

func TestGatewayFailsClosedBeforeFirstHydration(t *testing.T) {
	registry := pool.NewRegistry(zerolog.New(zerolog.NewTestWriter(t)))
	submitter := &fakeSubmitter{}
	g := NewGateway(registry, submitter, zerolog.New(zerolog.NewTestWriter(t)))

	_, err := g.Join(context.Background(), "0xccc", pool.StakeValidator)
	assert.True(t, errors.Is(err, poolerrors.ErrNotReady))

	_, err = g.Leave(context.Background(), "0xaaa")
	assert.True(t, errors.Is(err, poolerrors.ErrNotReady))

	_, err = g.Recategorize(context.Background(), "0xaaa", pool.MeritValidator)
	assert.True(t, errors.Is(err, poolerrors.ErrNotReady))

	assert.Empty(t, submitter.submitted)
}

func TestJoin(t *testing.T) {
	t.Run("new identity", func(t *testing.T) {
		submitter := &fakeSubmitter{}
		g := NewGateway(hydratedRegistry(t), submitter, zerolog.New(zerolog.NewTestWriter(t)))

		ref, err := g.Join(context.Background(), "0xccc", pool.ParliamentaryValidator)
		require.NoError(t, err)
		assert.Equal(t, "0xext1", ref)

		require.Len(t, submitter.submitted, 1)
		assert.Equal(t, submittedIntent{kind: "join", addr: "0xccc", category: pool.ParliamentaryValidator}, submitter.submitted[0])
	})

	t.Run("already member in any category", func(t *testing.T) {
		submitter := &fakeSubmitter{}
		g := NewGateway(hydratedRegistry(t), submitter, zerolog.New(zerolog.NewTestWriter(t)))

		_, err := g.Join(context.Background(), "0xbbb", pool.StakeValidator)
		assert.True(t, errors.Is(err, poolerrors.ErrAlreadyMember))
		assert.Empty(t, submitter.submitted)
	})

	t.Run("invalid category", func(t *testing.T) {
		submitter := &fakeSubmitter{}
		g := NewGateway(hydratedRegistry(t), submitter, zerolog.New(zerolog.NewTestWriter(t)))

		_, err := g.Join(context.Background(), "0xccc", pool.Category(9))
		assert.True(t, errors.Is(err, poolerrors.ErrInvalidCategory))
		assert.Empty(t, submitter.submitted)
	})
}

func TestLeave(t *testing.T) {
	t.Run("member", func(t *testing.T) {
		submitter := &fakeSubmitter{}
		g := NewGateway(hydratedRegistry(t), submitter, zerolog.New(zerolog.NewTestWriter(t)))

		ref, err := g.Leave(context.Background(), "0xaaa")
		require.NoError(t, err)
		assert.Equal(t, "0xext2", ref)
		require.Len(t, submitter.submitted, 1)
		assert.Equal(t, "leave", submitter.submitted[0].kind)
	})

	t.Run("not a member", func(t *testing.T) {
		submitter := &fakeSubmitter{}
		g := NewGateway(hydratedRegistry(t), submitter, zerolog.New(zerolog.NewTestWriter(t)))

		_, err := g.Leave(context.Background(), "0xzzz")
		assert.True(t, errors.Is(err, poolerrors.ErrNotMember))
		assert.Empty(t, submitter.submitted)
	})
}

func TestRecategorize(t *testing.T) {
	t.Run("changes category", func(t *testing.T) {
		submitter := &fakeSubmitter{}
		g := NewGateway(hydratedRegistry(t), submitter, zerolog.New(zerolog.NewTestWriter(t)))

		ref, err := g.Recategorize(context.Background(), "0xaaa", pool.MeritValidator)
		require.NoError(t, err)
		assert.Equal(t, "0xext3", ref)

		require.Len(t, submitter.submitted, 1)
		assert.Equal(t, submittedIntent{kind: "recategorize", addr: "0xaaa", category: pool.MeritValidator}, submitter.submitted[0])
	})

	t.Run("not a member", func(t *testing.T) {
		submitter := &fakeSubmitter{}
		g := NewGateway(hydratedRegistry(t), submitter, zerolog.New(zerolog.NewTestWriter(t)))

		_, err := g.Recategorize(context.Background(), "0xzzz", pool.MeritValidator)
		assert.True(t, errors.Is(err, poolerrors.ErrNotMember))
		assert.Empty(t, submitter.submitted)
	})

	t.Run("same category is a no-op violation", func(t *testing.T) {
		submitter := &fakeSubmitter{}
		g := NewGateway(hydratedRegistry(t), submitter, zerolog.New(zerolog.NewTestWriter(t)))

		_, err := g.Recategorize(context.Background(), "0xaaa", pool.StakeValidator)
		assert.True(t, errors.Is(err, poolerrors.ErrNoOpCategoryChange))
		assert.Empty(t, submitter.submitted)
	})

	t.Run("invalid category", func(t *testing.T) {
		submitter := &fakeSubmitter{}
		g := NewGateway(hydratedRegistry(t), submitter, zerolog.New(zerolog.NewTestWriter(t)))

		_, err := g.Recategorize(context.Background(), "0xaaa", pool.Category(200))
		assert.True(t, errors.Is(err, poolerrors.ErrInvalidCategory))
		assert.Empty(t, submitter.submitted)
	})
}

func TestSubmitterFailurePropagates(t *testing.T) {
	submitter := &fakeSubmitter{err: poolerrors.ErrProviderUnavailable.Wrap("node down")}
	g := NewGateway(hydratedRegistry(t), submitter, zerolog.New(zerolog.NewTestWriter(t)))

	_, err := g.Join(context.Background(), "0xccc", pool.StakeValidator)
	assert.True(t, errors.Is(err, poolerrors.ErrProviderUnavailable))
}

func TestGatewayNeverMutatesRegistry(t *testing.T) {
	registry := hydratedRegistry(t)
	submitter := &fakeSubmitter{}
	g := NewGateway(registry, submitter, zerolog.New(zerolog.NewTestWriter(t)))

	_, err := g.Join(context.Background(), "0xccc", pool.StakeValidator)
	require.NoError(t, err)
	_, err = g.Leave(context.Background(), "0xaaa")
	require.NoError(t, err)

	// Local view is only ever advanced by hydration.
	isMember, err := registry.IsMember("0xccc")
	require.NoError(t, err)
	assert.False(t, isMember)

	isMember, err = registry.IsMember("0xaaa")
	require.NoError(t, err)
	assert.True(t, isMember)
}
