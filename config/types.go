package config

import "time"

// Config holds every tunable of the pool client daemon.
type Config struct {
	// Log Config
	LogLevel   int    `json:"log_level"`   // e.g., 0 = debug, 1 = info, etc.
	LogFormat  string `json:"log_format"`  // "json" or "console"
	LogSampler bool   `json:"log_sampler"` // if true, samples logs (e.g., 1 in 5)

	// Node Config
	NodeHome string `json:"node_home"` // Node home directory (default: ~/.ppool)

	// Chain configuration
	ChainRPCURLs []string `json:"chain_rpc_urls"` // Substrate node endpoints (default: ["ws://127.0.0.1:9944"])
	SignerURI    string   `json:"signer_uri"`     // Secret URI of the intent signer; empty runs read-only

	// Hydration configuration
	PollIntervalSeconds int `json:"poll_interval_seconds"` // How often to refresh the snapshot (default: 30)
	PollTimeoutSeconds  int `json:"poll_timeout_seconds"`  // Per-poll deadline (default: 8)
	InitialFetchRetries int `json:"initial_fetch_retries"` // Attempts before the first hydration gives up (default: 5)
	RetryBackoffSeconds int `json:"retry_backoff_seconds"` // Starting backoff between attempts (default: 1)

	// Query Server Config
	QueryServerPort int `json:"query_server_port"` // Port for HTTP query server (default: 8080)

	// Database Config
	DatabaseDir  string `json:"database_dir"`  // Directory for SQLite files (default: <NodeHome>/databases)
	DatabaseFile string `json:"database_file"` // SQLite file name (default: pool_data.db)
}

// PollInterval returns the snapshot refresh cadence.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalSeconds) * time.Second
}

// PollTimeout returns the per-poll deadline.
func (c *Config) PollTimeout() time.Duration {
	return time.Duration(c.PollTimeoutSeconds) * time.Second
}

// RetryBackoff returns the starting backoff between initial fetch attempts.
func (c *Config) RetryBackoff() time.Duration {
	return time.Duration(c.RetryBackoffSeconds) * time.Second
}
