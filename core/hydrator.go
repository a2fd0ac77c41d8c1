package core

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/pezkuwichain/pezkuwi-pool-client/chain"
	"github.com/pezkuwichain/pezkuwi-pool-client/db"
	"github.com/pezkuwichain/pezkuwi-pool-client/era"
	poolerrors "github.com/pezkuwichain/pezkuwi-pool-client/errors"
	"github.com/pezkuwichain/pezkuwi-pool-client/history"
	"github.com/pezkuwichain/pezkuwi-pool-client/metrics"
	"github.com/pezkuwichain/pezkuwi-pool-client/pool"
	"github.com/pezkuwichain/pezkuwi-pool-client/store"
)

// Hydrator polls the chain on a fixed cadence and publishes immutable
// snapshots into the registry. It is the registry's only writer.
//
// A failed initial hydration leaves the daemon running: the registry answers
// not-ready until the first poll succeeds. A failed refresh after that marks
// the registry stale and keeps the previous snapshot.
type Hydrator struct {
	provider chain.StateReader
	registry *pool.Registry
	tracker  *history.Tracker
	database *db.DB
	logger   zerolog.Logger

	interval            time.Duration
	pollTimeout         time.Duration
	initialFetchRetries int
	retryBackoff        time.Duration

	// Loop-owned sync bookkeeping; mutated only by run().
	seeded          bool
	hasRecorded     bool
	lastRecordedEra uint32
	syncRowID       uint

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	forceCh chan struct{}
	wg      sync.WaitGroup
}

// NewHydrator wires a hydrator. database may be nil for memory-only
// operation; interval and timeout fall back to sane defaults.
func NewHydrator(
	provider chain.StateReader,
	registry *pool.Registry,
	tracker *history.Tracker,
	database *db.DB,
	interval, pollTimeout time.Duration,
	initialFetchRetries int,
	retryBackoff time.Duration,
	logger zerolog.Logger,
) *Hydrator {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	if pollTimeout <= 0 {
		pollTimeout = 8 * time.Second
	}
	if initialFetchRetries <= 0 {
		initialFetchRetries = 5
	}
	if retryBackoff <= 0 {
		retryBackoff = time.Second
	}
	return &Hydrator{
		provider:            provider,
		registry:            registry,
		tracker:             tracker,
		database:            database,
		interval:            interval,
		pollTimeout:         pollTimeout,
		initialFetchRetries: initialFetchRetries,
		retryBackoff:        retryBackoff,
		logger:              logger.With().Str("component", "pool_hydrator").Logger(),
	}
}

// Start launches the background loop and returns immediately (non-blocking).
// Safe to call multiple times; subsequent calls are no-ops.
func (h *Hydrator) Start(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.running {
		return nil
	}
	if h.provider == nil || h.registry == nil || h.tracker == nil {
		return errors.New("hydrator: provider, registry and tracker must be non-nil")
	}

	if err := h.loadSyncState(); err != nil {
		return err
	}

	h.stopCh = make(chan struct{})
	h.forceCh = make(chan struct{}, 1) // buffered so ForceHydrate won't block
	h.running = true
	h.wg.Add(1)

	go h.run(ctx)
	return nil
}

// Stop signals the loop to exit and waits for it to finish.
// Safe to call multiple times.
func (h *Hydrator) Stop() {
	h.mu.Lock()
	if !h.running {
		h.mu.Unlock()
		return
	}
	close(h.stopCh)
	h.running = false
	h.mu.Unlock()
	h.wg.Wait()
}

// ForceHydrate requests an immediate poll without waiting for the ticker.
func (h *Hydrator) ForceHydrate() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.running {
		return
	}
	select {
	case h.forceCh <- struct{}{}:
	default:
	}
}

func (h *Hydrator) run(parent context.Context) {
	defer h.wg.Done()

	if err := h.initialHydration(parent); err != nil {
		h.logger.Warn().Err(err).Msg("initial hydration failed; serving not-ready until a poll succeeds")
	}

	t := time.NewTicker(h.interval)
	defer t.Stop()

	for {
		select {
		case <-parent.Done():
			h.logger.Info().Msg("pool hydrator: context canceled; stopping")
			return
		case <-h.stopCh:
			h.logger.Info().Msg("pool hydrator: stop requested; stopping")
			return
		case <-t.C:
			if err := h.hydrate(parent); err != nil {
				h.logger.Warn().Err(err).Msg("periodic pool refresh failed; keeping previous snapshot")
			}
		case <-h.forceCh:
			if err := h.hydrate(parent); err != nil {
				h.logger.Warn().Err(err).Msg("forced pool refresh failed; keeping previous snapshot")
			}
		}
	}
}

// initialHydration retries the first poll with exponential backoff.
func (h *Hydrator) initialHydration(ctx context.Context) error {
	return poolerrors.RetryWithConfig(ctx, func() error {
		return h.hydrate(ctx)
	}, &poolerrors.RetryConfig{
		MaxAttempts:  h.initialFetchRetries,
		InitialDelay: h.retryBackoff,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	})
}

// hydrate runs one observed poll cycle.
func (h *Hydrator) hydrate(ctx context.Context) error {
	start := time.Now()
	err := h.hydrateOnce(ctx)
	metrics.HydrationDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.HydrationsTotal.WithLabelValues("failure").Inc()
		if h.registry.Status().Ready {
			h.registry.MarkStale()
			metrics.SnapshotStale.Set(1)
		}
		return err
	}

	metrics.HydrationsTotal.WithLabelValues("success").Inc()
	metrics.SnapshotStale.Set(0)
	return nil
}

// hydrateOnce reads the full pool state and publishes one snapshot. Any
// failure leaves the registry exactly as it was.
func (h *Hydrator) hydrateOnce(parent context.Context) error {
	timeout := h.pollTimeout
	if dl, ok := parent.Deadline(); ok {
		if remain := time.Until(dl); remain > 0 && remain < timeout {
			timeout = remain
		}
	}
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	currentEra, err := h.provider.CurrentEra(ctx)
	if err != nil {
		return err
	}
	eraLength, err := h.provider.EraLength(ctx)
	if err != nil {
		return err
	}
	eraStartBlock, err := h.provider.EraStartBlock(ctx)
	if err != nil {
		return err
	}
	height, err := h.provider.CurrentHeight(ctx)
	if err != nil {
		return err
	}

	entries, err := h.provider.PoolMembers(ctx)
	if err != nil {
		return err
	}

	members := make([]pool.Member, 0, len(entries))
	for _, entry := range entries {
		perf, found, err := h.provider.PerformanceOf(ctx, entry.Address)
		if err != nil {
			return err
		}
		if !found {
			// Missing counters hydrate as all-zero, not an error.
			perf = pool.PerformanceRecord{}
		}
		members = append(members, pool.Member{
			Address:     entry.Address,
			Category:    entry.Category,
			Performance: perf,
		})
	}

	activeSet, found, err := h.provider.CurrentValidatorSet(ctx)
	if err != nil {
		return err
	}
	if !found {
		activeSet = pool.ValidatorSet{EraIndex: currentEra}
	}

	eraState := era.Compute(currentEra, eraLength, eraStartBlock, height)

	if !h.seeded {
		if err := h.seedHistory(ctx, entries); err != nil {
			return err
		}
		h.seeded = true
	}

	snapshot := pool.NewSnapshot(members, eraState, activeSet, time.Now())
	h.registry.Publish(snapshot)

	h.recordSelections(activeSet)
	h.updateGauges(snapshot)
	h.persistSyncState(eraState)
	return nil
}

// seedHistory bulk-imports chain-kept selection history on the first
// successful hydration. Local recording takes over afterwards.
func (h *Hydrator) seedHistory(ctx context.Context, entries []chain.MemberEntry) error {
	histories := make(map[string][]uint32, len(entries))
	for _, entry := range entries {
		eras, err := h.provider.SelectionHistoryOf(ctx, entry.Address)
		if err != nil {
			return err
		}
		histories[entry.Address] = eras
	}
	return h.tracker.Seed(histories)
}

// recordSelections appends the active set's era to each selected validator's
// history when an era boundary was crossed since the last recording.
func (h *Hydrator) recordSelections(activeSet pool.ValidatorSet) {
	if h.hasRecorded && activeSet.EraIndex <= h.lastRecordedEra {
		return
	}

	for _, addr := range activeSet.All() {
		if err := h.tracker.RecordSelection(addr, activeSet.EraIndex); err != nil {
			h.logger.Warn().
				Err(err).
				Str("address", addr).
				Uint32("era_index", activeSet.EraIndex).
				Msg("failed to record era selection")
		}
	}

	h.hasRecorded = true
	h.lastRecordedEra = activeSet.EraIndex
}

func (h *Hydrator) updateGauges(snapshot *pool.Snapshot) {
	stats := snapshot.Stats()
	metrics.PoolMembers.WithLabelValues(pool.StakeValidator.String()).Set(float64(stats.StakeMembers))
	metrics.PoolMembers.WithLabelValues(pool.ParliamentaryValidator.String()).Set(float64(stats.ParliamentaryMembers))
	metrics.PoolMembers.WithLabelValues(pool.MeritValidator.String()).Set(float64(stats.MeritMembers))
	metrics.PoolActiveMembers.Set(float64(stats.ActiveMembers))
	metrics.EraBlocksRemaining.Set(float64(snapshot.EraState().BlocksRemaining()))
}

// loadSyncState restores hydration progress persisted by earlier runs.
func (h *Hydrator) loadSyncState() error {
	if h.database == nil {
		return nil
	}

	var state store.PoolSyncState
	err := h.database.Client().First(&state).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	h.syncRowID = state.ID
	h.seeded = state.HistorySeeded
	h.hasRecorded = true
	h.lastRecordedEra = state.LastEraIndex

	h.logger.Info().
		Uint32("last_era_index", state.LastEraIndex).
		Uint64("last_block", state.LastBlock).
		Bool("history_seeded", state.HistorySeeded).
		Msg("restored hydration sync state")
	return nil
}

// persistSyncState saves hydration progress. Failures degrade restart
// behavior only, so they are logged rather than failing the poll.
func (h *Hydrator) persistSyncState(eraState era.State) {
	if h.database == nil {
		return
	}

	state := store.PoolSyncState{
		LastEraIndex:  eraState.EraIndex,
		LastBlock:     eraState.CurrentBlock,
		HistorySeeded: h.seeded,
	}
	state.ID = h.syncRowID

	if err := h.database.Client().Save(&state).Error; err != nil {
		h.logger.Warn().Err(err).Msg("failed to persist hydration sync state")
		return
	}
	h.syncRowID = state.ID
}
