// Package history keeps the append-only record of era selections per
// validator, used for trend and audit queries.
package history

import (
	"sort"
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/pezkuwichain/pezkuwi-pool-client/db"
	poolerrors "github.com/pezkuwichain/pezkuwi-pool-client/errors"
	"github.com/pezkuwichain/pezkuwi-pool-client/store"
)

// Tracker records which eras each validator was selected into the active
// set. Entries are strictly ascending per validator and never rewritten.
// Records are written through to the database before they become visible in
// memory, so a restart never loses acknowledged history.
type Tracker struct {
	mu      sync.RWMutex
	entries map[string][]uint32
	db      *db.DB
	logger  zerolog.Logger
}

// NewTracker creates a tracker backed by database. A nil database keeps
// history in memory only.
func NewTracker(database *db.DB, logger zerolog.Logger) *Tracker {
	return &Tracker{
		entries: make(map[string][]uint32),
		db:      database,
		logger:  logger.With().Str("component", "selection_history").Logger(),
	}
}

// Load restores persisted selection records into memory. Call once before
// the tracker is shared.
func (t *Tracker) Load() error {
	if t.db == nil {
		return nil
	}

	var records []store.SelectionRecord
	if err := t.db.Client().Order("address, era_index asc").Find(&records).Error; err != nil {
		return errors.Wrap(err, "failed to load selection history")
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.entries = make(map[string][]uint32, len(records))
	for _, rec := range records {
		t.entries[rec.Address] = append(t.entries[rec.Address], rec.EraIndex)
	}

	t.logger.Info().
		Int("records", len(records)).
		Int("validators", len(t.entries)).
		Msg("loaded selection history")
	return nil
}

// Seed bulk-imports chain-reported history for validators with no local
// entries yet. Sequences are sorted and deduplicated before storage; local
// recording takes over afterwards. Validators that already have local
// history are left untouched.
func (t *Tracker) Seed(histories map[string][]uint32) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	seeded := 0
	for addr, eras := range histories {
		if len(t.entries[addr]) > 0 || len(eras) == 0 {
			continue
		}

		normalized := normalize(eras)
		if t.db != nil {
			records := make([]store.SelectionRecord, len(normalized))
			for i, era := range normalized {
				records[i] = store.SelectionRecord{Address: addr, EraIndex: era}
			}
			if err := t.db.Client().Create(&records).Error; err != nil {
				return errors.Wrapf(err, "failed to seed selection history for %s", addr)
			}
		}
		t.entries[addr] = normalized
		seeded++
	}

	if seeded > 0 {
		t.logger.Info().Int("validators", seeded).Msg("seeded selection history from chain")
	}
	return nil
}

// RecordSelection appends eraIndex to addr's history. Recording the current
// last entry again is a no-op; anything below the last entry fails with an
// out-of-order error and leaves the history unchanged.
func (t *Tracker) RecordSelection(addr string, eraIndex uint32) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	h := t.entries[addr]
	if len(h) > 0 {
		last := h[len(h)-1]
		if eraIndex == last {
			return nil
		}
		if eraIndex < last {
			return poolerrors.ErrOutOfOrderEra.Wrapf("%s: era %d after era %d", addr, eraIndex, last)
		}
	}

	if t.db != nil {
		rec := store.SelectionRecord{Address: addr, EraIndex: eraIndex}
		if err := t.db.Client().Create(&rec).Error; err != nil {
			return errors.Wrapf(err, "failed to persist selection of %s in era %d", addr, eraIndex)
		}
	}

	t.entries[addr] = append(h, eraIndex)

	t.logger.Debug().
		Str("address", addr).
		Uint32("era_index", eraIndex).
		Msg("recorded era selection")
	return nil
}

// HistoryOf returns addr's selections in ascending era order. The slice is a
// copy and re-readable without side effects; an unknown addr yields an empty
// history.
func (t *Tracker) HistoryOf(addr string) []uint32 {
	t.mu.RLock()
	defer t.mu.RUnlock()

	h := t.entries[addr]
	out := make([]uint32, len(h))
	copy(out, h)
	return out
}

// LastSelected returns the most recent era addr was selected in, ok=false
// when it was never selected.
func (t *Tracker) LastSelected(addr string) (uint32, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	h := t.entries[addr]
	if len(h) == 0 {
		return 0, false
	}
	return h[len(h)-1], true
}

// ParticipationRate reports the fraction of eras in [fromEra, toEra] that
// addr was selected in. An empty range yields zero.
func (t *Tracker) ParticipationRate(addr string, fromEra, toEra uint32) float64 {
	if toEra < fromEra {
		return 0
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	selected := 0
	for _, era := range t.entries[addr] {
		if era >= fromEra && era <= toEra {
			selected++
		}
	}
	return float64(selected) / float64(toEra-fromEra+1)
}

// normalize sorts ascending and drops duplicates.
func normalize(eras []uint32) []uint32 {
	out := make([]uint32, len(eras))
	copy(out, eras)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })

	dedup := out[:0]
	for i, era := range out {
		if i == 0 || era != out[i-1] {
			dedup = append(dedup, era)
		}
	}
	return dedup
}
