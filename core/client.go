package core

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/pezkuwichain/pezkuwi-pool-client/api"
	"github.com/pezkuwichain/pezkuwi-pool-client/chain/substrate"
	"github.com/pezkuwichain/pezkuwi-pool-client/config"
	"github.com/pezkuwichain/pezkuwi-pool-client/db"
	"github.com/pezkuwichain/pezkuwi-pool-client/gateway"
	"github.com/pezkuwichain/pezkuwi-pool-client/history"
	"github.com/pezkuwichain/pezkuwi-pool-client/pool"
)

// PoolClient owns every component of the daemon: local state, the chain
// provider, the hydration loop and the query server.
type PoolClient struct {
	ctx context.Context
	log zerolog.Logger
	cfg *config.Config

	db       *db.DB
	registry *pool.Registry
	tracker  *history.Tracker

	hydrator *Hydrator
	server   *api.Server
}

// NewPoolClient validates cfg and opens local state. The chain is not
// touched until Start.
func NewPoolClient(ctx context.Context, log zerolog.Logger, cfg *config.Config) (*PoolClient, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if len(cfg.ChainRPCURLs) == 0 {
		return nil, fmt.Errorf("ChainRPCURLs is required")
	}

	database, err := db.OpenFileDB(cfg.DatabaseDir, cfg.DatabaseFile, true)
	if err != nil {
		return nil, fmt.Errorf("failed to open pool database: %w", err)
	}

	return &PoolClient{
		ctx:      ctx,
		log:      log,
		cfg:      cfg,
		db:       database,
		registry: pool.NewRegistry(log),
		tracker:  history.NewTracker(database, log),
	}, nil
}

// Start wires provider, hydrator, gateway and query server, then blocks
// until the context is canceled.
func (pc *PoolClient) Start() error {
	pc.log.Info().Msg("🚀 Starting pool client...")

	provider, err := substrate.NewClient(pc.cfg.ChainRPCURLs, pc.cfg.SignerURI, pc.log)
	if err != nil {
		pc.db.Close()
		return fmt.Errorf("failed to build chain provider: %w", err)
	}

	if err := pc.tracker.Load(); err != nil {
		pc.db.Close()
		return fmt.Errorf("failed to load selection history: %w", err)
	}

	pc.hydrator = NewHydrator(
		provider,
		pc.registry,
		pc.tracker,
		pc.db,
		pc.cfg.PollInterval(),
		pc.cfg.PollTimeout(),
		pc.cfg.InitialFetchRetries,
		pc.cfg.RetryBackoff(),
		pc.log,
	)
	if err := pc.hydrator.Start(pc.ctx); err != nil {
		pc.db.Close()
		return fmt.Errorf("failed to start hydrator: %w", err)
	}

	gw := gateway.NewGateway(pc.registry, provider, pc.log)

	pc.server = api.NewServer(pc.registry, pc.tracker, gw, pc.log, pc.cfg.QueryServerPort)
	if err := pc.server.Start(); err != nil {
		pc.hydrator.Stop()
		pc.db.Close()
		return fmt.Errorf("failed to start query server: %w", err)
	}

	pc.log.Info().Msg("✅ Initialization complete. Entering main loop...")

	<-pc.ctx.Done()

	pc.log.Info().Msg("🛑 Shutting down pool client...")
	return pc.Stop()
}

// Stop tears the components down in reverse start order.
func (pc *PoolClient) Stop() error {
	if pc.server != nil {
		if err := pc.server.Stop(); err != nil {
			pc.log.Error().Err(err).Msg("failed to stop query server")
		}
	}
	if pc.hydrator != nil {
		pc.hydrator.Stop()
	}
	return pc.db.Close()
}
