package core

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pezkuwichain/pezkuwi-pool-client/config"
)

func TestNewPoolClient(t *testing.T) {
	t.Run("fails with nil config", func(t *testing.T) {
		client, err := NewPoolClient(context.Background(), zerolog.Nop(), nil)
		assert.Error(t, err)
		assert.Nil(t, client)
	})

	t.Run("fails with empty ChainRPCURLs", func(t *testing.T) {
		cfg := &config.Config{
			ChainRPCURLs: []string{},
		}

		// This test can run - it should fail before attempting any connections
		client, err := NewPoolClient(context.Background(), zerolog.Nop(), cfg)
		assert.Error(t, err)
		assert.Nil(t, client)
		assert.Contains(t, err.Error(), "ChainRPCURLs is required")
	})

	t.Run("opens local state with valid config", func(t *testing.T) {
		cfg := &config.Config{
			ChainRPCURLs: []string{"ws://127.0.0.1:9944"},
			DatabaseDir:  t.TempDir(),
			DatabaseFile: "pool_data.db",
		}

		client, err := NewPoolClient(context.Background(), zerolog.Nop(), cfg)
		require.NoError(t, err)
		require.NotNil(t, client)
		assert.NotNil(t, client.registry)
		assert.NotNil(t, client.tracker)

		// Stop on a never-started client just releases local state.
		assert.NoError(t, client.Stop())
	})
}
