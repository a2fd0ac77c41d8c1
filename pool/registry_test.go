package pool

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pezkuwichain/pezkuwi-pool-client/era"
	poolerrors "github.com/pezkuwichain/pezkuwi-pool-client/errors"
	"github.com/pezkuwichain/pezkuwi-pool-client/reputation"
)

func testMembers() []Member {
	return []Member{
		{
			Address:  "0xaaa",
			Category: StakeValidator,
			Performance: PerformanceRecord{
				BlocksProduced:  100,
				BlocksMissed:    5,
				EraPoints:       950,
				LastActiveEra:   6,
				ReputationScore: 92,
			},
		},
		{
			Address:  "0xbbb",
			Category: ParliamentaryValidator,
			Performance: PerformanceRecord{
				BlocksProduced:  40,
				BlocksMissed:    40,
				EraPoints:       320,
				LastActiveEra:   6,
				ReputationScore: 55,
			},
		},
		{
			Address:  "0xccc",
			Category: StakeValidator,
			Performance: PerformanceRecord{
				BlocksProduced:  80,
				BlocksMissed:    10,
				EraPoints:       700,
				LastActiveEra:   6,
				ReputationScore: 73,
			},
		},
		{
			Address:  "0xddd",
			Category: MeritValidator,
			Performance: PerformanceRecord{
				ReputationScore: 70,
			},
		},
	}
}

func testSnapshot(t *testing.T) *Snapshot {
	t.Helper()
	return NewSnapshot(
		testMembers(),
		era.Compute(7, 100, 1000, 1050),
		ValidatorSet{EraIndex: 7, Stake: []string{"0xaaa", "0xccc"}, Merit: []string{"0xddd"}},
		time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC),
	)
}

func TestRegistryNotReadyBeforeFirstHydration(t *testing.T) {
	r := NewRegistry(zerolog.New(zerolog.NewTestWriter(t)))

	members, err := r.Members()
	assert.True(t, errors.Is(err, poolerrors.ErrNotReady))
	assert.Empty(t, members)

	byCat, err := r.MembersByCategory(StakeValidator)
	assert.True(t, errors.Is(err, poolerrors.ErrNotReady))
	assert.Empty(t, byCat)

	_, ok, err := r.Member("0xaaa")
	assert.True(t, errors.Is(err, poolerrors.ErrNotReady))
	assert.False(t, ok)

	_, ok, err = r.CategoryOf("0xaaa")
	assert.True(t, errors.Is(err, poolerrors.ErrNotReady))
	assert.False(t, ok)

	isMember, err := r.IsMember("0xaaa")
	assert.True(t, errors.Is(err, poolerrors.ErrNotReady))
	assert.False(t, isMember)

	_, err = r.ActiveSet()
	assert.True(t, errors.Is(err, poolerrors.ErrNotReady))

	_, err = r.EraState()
	assert.True(t, errors.Is(err, poolerrors.ErrNotReady))

	_, err = r.Stats()
	assert.True(t, errors.Is(err, poolerrors.ErrNotReady))

	status := r.Status()
	assert.False(t, status.Ready)
	assert.False(t, status.Stale)
	assert.Zero(t, status.MemberCount)
}

func TestRegistryQueriesAfterPublish(t *testing.T) {
	r := NewRegistry(zerolog.New(zerolog.NewTestWriter(t)))
	r.Publish(testSnapshot(t))

	t.Run("members in hydration order", func(t *testing.T) {
		members, err := r.Members()
		require.NoError(t, err)
		require.Len(t, members, 4)
		assert.Equal(t, "0xaaa", members[0].Address)
		assert.Equal(t, "0xddd", members[3].Address)
	})

	t.Run("category filter is a stable partition", func(t *testing.T) {
		full, err := r.Members()
		require.NoError(t, err)

		seen := make(map[string]int)
		total := 0
		for _, c := range Categories() {
			filtered, err := r.MembersByCategory(c)
			require.NoError(t, err)
			total += len(filtered)

			// Relative order must match the full listing.
			lastIdx := -1
			for _, m := range filtered {
				assert.Equal(t, c, m.Category)
				seen[m.Address]++
				idx := -1
				for i, fm := range full {
					if fm.Address == m.Address {
						idx = i
						break
					}
				}
				require.GreaterOrEqual(t, idx, 0)
				assert.Greater(t, idx, lastIdx, "filtered listing reordered %s", m.Address)
				lastIdx = idx
			}
		}

		assert.Equal(t, len(full), total)
		for addr, count := range seen {
			assert.Equalf(t, 1, count, "%s appeared in more than one category listing", addr)
		}
	})

	t.Run("single member lookup", func(t *testing.T) {
		m, ok, err := r.Member("0xbbb")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, ParliamentaryValidator, m.Category)
		assert.Equal(t, uint64(320), m.Performance.EraPoints)

		_, ok, err = r.Member("0xzzz")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("category of", func(t *testing.T) {
		c, ok, err := r.CategoryOf("0xddd")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, MeritValidator, c)

		_, ok, err = r.CategoryOf("0xzzz")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("membership test", func(t *testing.T) {
		ok, err := r.IsMember("0xccc")
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = r.IsMember("0xzzz")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("era state", func(t *testing.T) {
		s, err := r.EraState()
		require.NoError(t, err)
		assert.Equal(t, uint32(7), s.EraIndex)
		assert.Equal(t, uint64(50), s.BlocksRemaining())
	})

	t.Run("active set", func(t *testing.T) {
		set, err := r.ActiveSet()
		require.NoError(t, err)
		assert.Equal(t, 3, set.Size())
		assert.True(t, set.Contains("0xaaa"))
		assert.False(t, set.Contains("0xbbb"))
		assert.ElementsMatch(t, []string{"0xaaa", "0xccc", "0xddd"}, set.All())
	})

	t.Run("stats", func(t *testing.T) {
		stats, err := r.Stats()
		require.NoError(t, err)
		assert.Equal(t, 4, stats.TotalMembers)
		assert.Equal(t, 2, stats.StakeMembers)
		assert.Equal(t, 1, stats.ParliamentaryMembers)
		assert.Equal(t, 1, stats.MeritMembers)
		assert.Equal(t, 3, stats.ActiveMembers)
		assert.InDelta(t, 72.5, stats.MeanReputationScore, 1e-9)
	})

	t.Run("status", func(t *testing.T) {
		status := r.Status()
		assert.True(t, status.Ready)
		assert.False(t, status.Stale)
		assert.Equal(t, uint32(7), status.EraIndex)
		assert.Equal(t, 4, status.MemberCount)
		assert.False(t, status.LastFetched.IsZero())
	})
}

func TestSnapshotDerivesMemberAnnotations(t *testing.T) {
	members := testMembers()
	// Caller-supplied derived fields must be discarded at build.
	members[1].IsActive = true
	members[1].Reputation = reputation.Assessment{Score: 99, Tier: reputation.TierExcellent, CanValidate: true}

	s := NewSnapshot(members, era.State{}, ValidatorSet{}, time.Now())

	for _, m := range s.Members() {
		assert.Equalf(t, m.Performance.ReputationScore >= 70, m.IsActive,
			"member %s active flag diverged from score %d", m.Address, m.Performance.ReputationScore)
		assert.Equal(t, m.Performance.ReputationScore, m.Reputation.Score)
	}

	a, ok := s.Member("0xaaa")
	require.True(t, ok)
	assert.Equal(t, reputation.TierExcellent, a.Reputation.Tier)
	assert.True(t, a.Reputation.CanValidate)
	assert.True(t, a.IsActive)
	assert.Equal(t, uint8(95), a.Reputation.DerivedScore)

	b, ok := s.Member("0xbbb")
	require.True(t, ok)
	assert.Equal(t, reputation.TierFair, b.Reputation.Tier)
	assert.False(t, b.Reputation.CanValidate)
	assert.False(t, b.IsActive)

	// Score 70 sits exactly on both thresholds.
	d, ok := s.Member("0xddd")
	require.True(t, ok)
	assert.True(t, d.IsActive)
	assert.True(t, d.Reputation.CanValidate)
	assert.Equal(t, reputation.TierGood, d.Reputation.Tier)
	assert.Equal(t, uint8(70), d.Reputation.DerivedScore)
}

func TestRegistryStaleLifecycle(t *testing.T) {
	r := NewRegistry(zerolog.New(zerolog.NewTestWriter(t)))

	// Stale is meaningless before the first publish.
	r.MarkStale()
	assert.False(t, r.Status().Ready)
	assert.False(t, r.Status().Stale)

	r.Publish(testSnapshot(t))
	r.MarkStale()

	status := r.Status()
	assert.True(t, status.Ready)
	assert.True(t, status.Stale)

	// Cached data stays queryable while stale.
	members, err := r.Members()
	require.NoError(t, err)
	assert.Len(t, members, 4)

	// The next successful publish self-heals.
	r.Publish(testSnapshot(t))
	assert.False(t, r.Status().Stale)
}

func TestRegistrySubscribe(t *testing.T) {
	t.Run("notified on every publish", func(t *testing.T) {
		r := NewRegistry(zerolog.New(zerolog.NewTestWriter(t)))
		ch, cancel := r.Subscribe()
		defer cancel()

		r.Publish(testSnapshot(t))

		select {
		case st := <-ch:
			assert.True(t, st.Ready)
			assert.Equal(t, uint32(7), st.EraIndex)
			assert.Equal(t, 4, st.MemberCount)
		case <-time.After(time.Second):
			t.Fatal("no notification after publish")
		}
	})

	t.Run("stale flip does not notify", func(t *testing.T) {
		r := NewRegistry(zerolog.New(zerolog.NewTestWriter(t)))
		r.Publish(testSnapshot(t))

		ch, cancel := r.Subscribe()
		defer cancel()

		r.MarkStale()

		select {
		case <-ch:
			t.Fatal("unexpected notification on MarkStale")
		case <-time.After(50 * time.Millisecond):
		}
	})

	t.Run("cancel closes the channel", func(t *testing.T) {
		r := NewRegistry(zerolog.New(zerolog.NewTestWriter(t)))
		ch, cancel := r.Subscribe()

		cancel()

		_, open := <-ch
		assert.False(t, open)

		// Publishing after cancel must not panic on the closed channel.
		r.Publish(testSnapshot(t))

		// Double cancel is a no-op.
		cancel()
	})

	t.Run("slow consumer drops rather than blocks", func(t *testing.T) {
		r := NewRegistry(zerolog.New(zerolog.NewTestWriter(t)))
		ch, cancel := r.Subscribe()
		defer cancel()

		for i := 0; i < 50; i++ {
			r.Publish(testSnapshot(t))
		}

		// The channel buffers a handful of notifications; the rest are
		// dropped without stalling the publisher.
		assert.NotEmpty(t, ch)
		assert.LessOrEqual(t, len(ch), 8)
	})
}

func TestRegistryConcurrentReadsAndPublishes(t *testing.T) {
	r := NewRegistry(zerolog.New(zerolog.NewTestWriter(t)))
	r.Publish(testSnapshot(t))

	var wg sync.WaitGroup

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				members, err := r.Members()
				assert.NoError(t, err)
				assert.Len(t, members, 4)

				stats, err := r.Stats()
				assert.NoError(t, err)
				assert.Equal(t, 4, stats.TotalMembers)
			}
		}()
	}

	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				r.Publish(testSnapshot(t))
				r.MarkStale()
			}
		}()
	}

	wg.Wait()
}
