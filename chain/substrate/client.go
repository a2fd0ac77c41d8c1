// Package substrate implements the chain provider against a Substrate node's
// RPC surface. Pool state lives in the ValidatorPool pallet; intents are
// signed extrinsics against the same pallet.
package substrate

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"time"

	gsrpc "github.com/centrifuge/go-substrate-rpc-client/v4"
	"github.com/centrifuge/go-substrate-rpc-client/v4/signature"
	"github.com/centrifuge/go-substrate-rpc-client/v4/types"
	"github.com/centrifuge/go-substrate-rpc-client/v4/types/codec"
	"github.com/rs/zerolog"

	poolerrors "github.com/pezkuwichain/pezkuwi-pool-client/errors"
)

// palletName is the runtime module all pool storage and calls live under.
const palletName = "ValidatorPool"

// ss58Network is the generic Substrate network identifier used when deriving
// the signing keypair.
const ss58Network = 42

// connection holds one node endpoint with the metadata fetched from it.
type connection struct {
	url         string
	api         *gsrpc.SubstrateAPI
	meta        *types.Metadata
	genesisHash types.Hash
	healthy     bool
	lastCheck   time.Time
}

// Client talks to one or more Substrate nodes with failover. Reads always go
// to the first healthy endpoint; a failed call marks the endpoint unhealthy
// and rotates to the next one. Unhealthy endpoints are re-dialed after a
// cooldown.
type Client struct {
	connections []*connection
	currentIdx  int
	mu          sync.RWMutex
	logger      zerolog.Logger

	signer    *signature.KeyringPair
	signerHex string

	maxRetries        int
	retryBackoff      time.Duration
	unhealthyCooldown time.Duration
}

// NewClient dials every URL and derives the signing keypair from signerURI.
// An empty signerURI leaves the client read-only. Endpoints that cannot be
// dialed stay registered and are re-dialed on use, so the client constructs
// even when every node is down.
func NewClient(rpcURLs []string, signerURI string, logger zerolog.Logger) (*Client, error) {
	if len(rpcURLs) == 0 {
		return nil, fmt.Errorf("at least one RPC URL must be provided")
	}

	c := &Client{
		connections:       make([]*connection, 0, len(rpcURLs)),
		logger:            logger.With().Str("component", "substrate_client").Logger(),
		maxRetries:        3,
		retryBackoff:      time.Second,
		unhealthyCooldown: time.Minute,
	}

	if signerURI != "" {
		pair, err := signature.KeyringPairFromSecret(signerURI, ss58Network)
		if err != nil {
			return nil, fmt.Errorf("failed to derive signing keypair: %w", err)
		}
		c.signer = &pair
		c.signerHex = codec.HexEncodeToString(pair.PublicKey)
	}

	for _, url := range rpcURLs {
		conn, err := dial(url)
		if err != nil {
			c.logger.Warn().
				Str("url", url).
				Err(err).
				Msg("failed to connect, will retry later")
			// Zero lastCheck lets getHealthyConnection re-dial immediately
			// instead of waiting out the cooldown.
			c.connections = append(c.connections, &connection{
				url:     url,
				healthy: false,
			})
			continue
		}
		c.connections = append(c.connections, conn)
	}

	if c.healthyCount() == 0 {
		c.logger.Warn().
			Int("endpoints", len(c.connections)).
			Msg("no endpoints reachable at startup, will keep retrying")
	}

	return c, nil
}

// SignerAddress returns the 0x-hex account id of the configured signer,
// empty for a read-only client.
func (c *Client) SignerAddress() string {
	return c.signerHex
}

func dial(url string) (*connection, error) {
	api, err := gsrpc.NewSubstrateAPI(url)
	if err != nil {
		return nil, err
	}
	meta, err := api.RPC.State.GetMetadataLatest()
	if err != nil {
		return nil, err
	}
	genesisHash, err := api.RPC.Chain.GetBlockHash(0)
	if err != nil {
		return nil, err
	}
	return &connection{
		url:         url,
		api:         api,
		meta:        meta,
		genesisHash: genesisHash,
		healthy:     true,
		lastCheck:   time.Now(),
	}, nil
}

func (c *Client) healthyCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	n := 0
	for _, conn := range c.connections {
		if conn.healthy {
			n++
		}
	}
	return n
}

// getHealthyConnection returns the current connection, rotating past
// unhealthy ones and re-dialing endpoints whose cooldown expired.
func (c *Client) getHealthyConnection() (*connection, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := 0; i < len(c.connections); i++ {
		idx := (c.currentIdx + i) % len(c.connections)
		conn := c.connections[idx]

		if !conn.healthy && time.Since(conn.lastCheck) >= c.unhealthyCooldown {
			if redialed, err := dial(conn.url); err == nil {
				c.connections[idx] = redialed
				conn = redialed
				c.logger.Info().Str("url", conn.url).Msg("connection recovered")
			} else {
				conn.lastCheck = time.Now()
				c.logger.Debug().Str("url", conn.url).Err(err).Msg("re-dial failed")
			}
		}

		if conn.healthy {
			c.currentIdx = idx
			return conn, nil
		}
	}

	return nil, fmt.Errorf("no healthy connections available")
}

// markUnhealthy flags conn and rotates to the next endpoint.
func (c *Client) markUnhealthy(conn *connection) {
	c.mu.Lock()
	defer c.mu.Unlock()

	conn.healthy = false
	conn.lastCheck = time.Now()
	c.currentIdx = (c.currentIdx + 1) % len(c.connections)

	c.logger.Warn().Str("url", conn.url).Msg("connection marked unhealthy")
}

// call executes fn with retry, failover and ctx enforcement. The node RPC
// bindings take no context, so each attempt runs in its own goroutine and an
// expired ctx abandons the in-flight call.
func (c *Client) call(ctx context.Context, op string, fn func(conn *connection) error) error {
	var lastErr error
	backoff := c.retryBackoff

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			c.logger.Debug().
				Str("op", op).
				Int("attempt", attempt).
				Dur("backoff", backoff).
				Msg("retrying after backoff")

			select {
			case <-ctx.Done():
				return poolerrors.ErrProviderUnavailable.Wrapf("%s: %v", op, ctx.Err())
			case <-time.After(backoff):
			}

			backoff *= 2
			if backoff > 30*time.Second {
				backoff = 30 * time.Second
			}
		}

		conn, err := c.getHealthyConnection()
		if err != nil {
			lastErr = err
			continue
		}

		done := make(chan error, 1)
		go func() {
			done <- fn(conn)
		}()

		select {
		case <-ctx.Done():
			c.markUnhealthy(conn)
			return poolerrors.ErrProviderUnavailable.Wrapf("%s: %v", op, ctx.Err())
		case err = <-done:
		}

		if err == nil {
			return nil
		}

		lastErr = err
		c.markUnhealthy(conn)
		c.logger.Warn().
			Err(err).
			Str("url", conn.url).
			Str("op", op).
			Int("attempt", attempt+1).
			Msg("node call failed")
	}

	return poolerrors.ErrProviderUnavailable.Wrapf("%s: %v", op, lastErr)
}

// accountIDFromHex parses the 0x-hex 32-byte account id form used across the
// client's query and intent surfaces.
func accountIDFromHex(addr string) (*types.AccountID, error) {
	raw, err := codec.HexDecodeString(addr)
	if err != nil {
		return nil, fmt.Errorf("invalid account id %q: %w", addr, err)
	}
	id, err := types.NewAccountID(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid account id %q: %w", addr, err)
	}
	return id, nil
}

// ownsIdentity reports whether the configured signer can sign for addr.
func (c *Client) ownsIdentity(addr string) error {
	if c.signer == nil {
		return poolerrors.ErrForeignSigner.Wrap("no signer configured")
	}
	id, err := accountIDFromHex(addr)
	if err != nil {
		return err
	}
	if !bytes.Equal(id.ToBytes(), c.signer.PublicKey) {
		return poolerrors.ErrForeignSigner.Wrapf("%s is not the configured signer %s", addr, c.signerHex)
	}
	return nil
}
