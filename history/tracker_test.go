package history

import (
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pezkuwichain/pezkuwi-pool-client/db"
	poolerrors "github.com/pezkuwichain/pezkuwi-pool-client/errors"
)

func newTestTracker(t *testing.T) (*Tracker, *db.DB) {
	t.Helper()

	database, err := db.OpenInMemoryDB(true)
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	return NewTracker(database, zerolog.New(zerolog.NewTestWriter(t))), database
}

func TestRecordSelection(t *testing.T) {
	tracker, _ := newTestTracker(t)

	require.NoError(t, tracker.RecordSelection("0xaaa", 5))
	require.NoError(t, tracker.RecordSelection("0xaaa", 6))
	require.NoError(t, tracker.RecordSelection("0xaaa", 9))

	assert.Equal(t, []uint32{5, 6, 9}, tracker.HistoryOf("0xaaa"))

	last, ok := tracker.LastSelected("0xaaa")
	require.True(t, ok)
	assert.Equal(t, uint32(9), last)
}

func TestRecordSelectionIdempotent(t *testing.T) {
	tracker, _ := newTestTracker(t)

	require.NoError(t, tracker.RecordSelection("0xaaa", 7))
	require.NoError(t, tracker.RecordSelection("0xaaa", 7))

	assert.Equal(t, []uint32{7}, tracker.HistoryOf("0xaaa"))
}

func TestRecordSelectionOutOfOrder(t *testing.T) {
	tracker, _ := newTestTracker(t)

	require.NoError(t, tracker.RecordSelection("0xaaa", 5))
	require.NoError(t, tracker.RecordSelection("0xaaa", 8))

	tests := []struct {
		name string
		era  uint32
	}{
		{name: "below last", era: 7},
		{name: "equal to earlier entry", era: 5},
		{name: "below all entries", era: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tracker.RecordSelection("0xaaa", tt.era)
			require.Error(t, err)
			assert.True(t, errors.Is(err, poolerrors.ErrOutOfOrderEra))
			assert.Equal(t, []uint32{5, 8}, tracker.HistoryOf("0xaaa"))
		})
	}
}

func TestHistoryOfIsReReadableCopy(t *testing.T) {
	tracker, _ := newTestTracker(t)

	require.NoError(t, tracker.RecordSelection("0xaaa", 3))
	require.NoError(t, tracker.RecordSelection("0xaaa", 4))

	first := tracker.HistoryOf("0xaaa")
	first[0] = 999

	second := tracker.HistoryOf("0xaaa")
	assert.Equal(t, []uint32{3, 4}, second)

	assert.Empty(t, tracker.HistoryOf("0xzzz"))

	_, ok := tracker.LastSelected("0xzzz")
	assert.False(t, ok)
}

func TestHistorySurvivesRestart(t *testing.T) {
	database, err := db.OpenInMemoryDB(true)
	require.NoError(t, err)
	defer database.Close()

	logger := zerolog.New(zerolog.NewTestWriter(t))

	tracker := NewTracker(database, logger)
	require.NoError(t, tracker.RecordSelection("0xaaa", 5))
	require.NoError(t, tracker.RecordSelection("0xaaa", 6))
	require.NoError(t, tracker.RecordSelection("0xbbb", 6))

	// Same database, fresh tracker.
	restarted := NewTracker(database, logger)
	require.NoError(t, restarted.Load())

	assert.Equal(t, []uint32{5, 6}, restarted.HistoryOf("0xaaa"))
	assert.Equal(t, []uint32{6}, restarted.HistoryOf("0xbbb"))

	// Monotonic guard still applies over restored history.
	err = restarted.RecordSelection("0xaaa", 4)
	assert.True(t, errors.Is(err, poolerrors.ErrOutOfOrderEra))
}

func TestSeed(t *testing.T) {
	tracker, _ := newTestTracker(t)

	require.NoError(t, tracker.RecordSelection("0xbbb", 9))

	err := tracker.Seed(map[string][]uint32{
		"0xaaa": {4, 2, 3, 3},
		"0xbbb": {1, 2},
		"0xccc": {},
	})
	require.NoError(t, err)

	assert.Equal(t, []uint32{2, 3, 4}, tracker.HistoryOf("0xaaa"))
	// Local history wins over a late seed.
	assert.Equal(t, []uint32{9}, tracker.HistoryOf("0xbbb"))
	assert.Empty(t, tracker.HistoryOf("0xccc"))

	// Appending continues on top of seeded history.
	require.NoError(t, tracker.RecordSelection("0xaaa", 5))
	assert.Equal(t, []uint32{2, 3, 4, 5}, tracker.HistoryOf("0xaaa"))
}

func TestParticipationRate(t *testing.T) {
	tracker, _ := newTestTracker(t)

	for _, era := range []uint32{3, 4, 6, 7} {
		require.NoError(t, tracker.RecordSelection("0xaaa", era))
	}

	tests := []struct {
		name    string
		fromEra uint32
		toEra   uint32
		want    float64
	}{
		{name: "full span", fromEra: 3, toEra: 7, want: 0.8},
		{name: "partial span", fromEra: 5, toEra: 7, want: 2.0 / 3.0},
		{name: "no selections in span", fromEra: 10, toEra: 19, want: 0},
		{name: "single era selected", fromEra: 6, toEra: 6, want: 1},
		{name: "inverted range", fromEra: 7, toEra: 3, want: 0},
		{name: "unknown validator", fromEra: 3, toEra: 7, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			addr := "0xaaa"
			if tt.name == "unknown validator" {
				addr = "0xzzz"
			}
			assert.InDelta(t, tt.want, tracker.ParticipationRate(addr, tt.fromEra, tt.toEra), 1e-9)
		})
	}
}

func TestMemoryOnlyTracker(t *testing.T) {
	tracker := NewTracker(nil, zerolog.New(zerolog.NewTestWriter(t)))

	require.NoError(t, tracker.Load())
	require.NoError(t, tracker.RecordSelection("0xaaa", 1))
	assert.Equal(t, []uint32{1}, tracker.HistoryOf("0xaaa"))
}

func TestTrackerConcurrentAccess(t *testing.T) {
	tracker, _ := newTestTracker(t)

	var wg sync.WaitGroup

	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			addr := []string{"0xaaa", "0xbbb", "0xccc", "0xddd"}[worker]
			for era := uint32(1); era <= 50; era++ {
				assert.NoError(t, tracker.RecordSelection(addr, era))
			}
		}(i)
	}

	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = tracker.HistoryOf("0xaaa")
				_, _ = tracker.LastSelected("0xbbb")
				_ = tracker.ParticipationRate("0xccc", 1, 50)
			}
		}()
	}

	wg.Wait()

	for _, addr := range []string{"0xaaa", "0xbbb", "0xccc", "0xddd"} {
		assert.Len(t, tracker.HistoryOf(addr), 50)
	}
}
