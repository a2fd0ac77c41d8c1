package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/pezkuwichain/pezkuwi-pool-client/config"
	"github.com/pezkuwichain/pezkuwi-pool-client/core"
	"github.com/pezkuwichain/pezkuwi-pool-client/logger"
	"github.com/spf13/cast"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Version info, overridden at build time via -ldflags.
var (
	version = "dev"
	commit  = "none"
)

func InitRootCmd(rootCmd *cobra.Command) {
	rootCmd.AddCommand(startCmd())
	rootCmd.AddCommand(initCmd())
	rootCmd.AddCommand(statusCmd())
	rootCmd.AddCommand(queryCmd())
	rootCmd.AddCommand(txCmd())
	rootCmd.AddCommand(versionCmd())
}

func startCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the pool client daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadDaemonConfig(cmd)
			if err != nil {
				return err
			}

			log := logger.New(cfg.LogLevel, cfg.LogFormat, cfg.LogSampler)

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			client, err := core.NewPoolClient(ctx, log, cfg)
			if err != nil {
				return fmt.Errorf("failed to create pool client: %w", err)
			}
			return client.Start()
		},
	}
}

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write a default config file into the node home",
		RunE: func(cmd *cobra.Command, args []string) error {
			home := resolveHome(cmd)

			cfg, err := config.LoadDefaultConfig()
			if err != nil {
				return err
			}
			cfg.NodeHome = home
			cfg.DatabaseDir = filepath.Join(home, config.DatabasesSubdir)

			if err := config.Save(cfg, home); err != nil {
				return err
			}

			fmt.Printf("Config written to %s\n", config.FilePath(home))
			return nil
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print ppoold version info",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("Name:    ppoold\n")
			fmt.Printf("Version: %s\n", version)
			fmt.Printf("Commit:  %s\n", commit)
		},
	}
}

// resolveHome picks the node home from the --home flag, the PPOOL_HOME
// environment variable, or the default, in that order.
func resolveHome(cmd *cobra.Command) string {
	if home, err := cmd.Flags().GetString(flagHome); err == nil && home != "" {
		return home
	}
	if home := os.Getenv("PPOOL_HOME"); home != "" {
		return home
	}
	return config.DefaultNodeHome()
}

// loadDaemonConfig loads the config from the resolved node home, falling back
// to the embedded defaults when no file has been written yet, then overlays
// PPOOL_* environment variables.
func loadDaemonConfig(cmd *cobra.Command) (*config.Config, error) {
	home := resolveHome(cmd)

	var cfg *config.Config
	loaded, err := config.Load(home)
	switch {
	case err == nil:
		cfg = &loaded
	case errors.Is(err, os.ErrNotExist):
		cfg, err = config.LoadDefaultConfig()
		if err != nil {
			return nil, err
		}
	default:
		return nil, err
	}

	// The requested home wins over whatever the file recorded so the
	// database stays under the same directory tree.
	if cfg.NodeHome != home {
		cfg.NodeHome = home
		cfg.DatabaseDir = filepath.Join(home, config.DatabasesSubdir)
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

// applyEnvOverrides overlays PPOOL_* environment variables onto cfg so
// containerized deployments can tune the daemon without editing the file.
func applyEnvOverrides(cfg *config.Config) {
	v := viper.New()
	v.SetEnvPrefix("PPOOL")
	v.AutomaticEnv()

	// Short aliases first; the full names also resolve via AutomaticEnv.
	_ = v.BindEnv("chain_rpc_urls", "PPOOL_RPC_URLS", "PPOOL_CHAIN_RPC_URLS")
	_ = v.BindEnv("signer_uri", "PPOOL_SIGNER_URI")
	_ = v.BindEnv("query_server_port", "PPOOL_QUERY_SERVER_PORT")
	_ = v.BindEnv("log_level", "PPOOL_LOG_LEVEL")
	_ = v.BindEnv("log_format", "PPOOL_LOG_FORMAT")
	_ = v.BindEnv("poll_interval_seconds", "PPOOL_POLL_INTERVAL_SECONDS")

	if raw := v.GetString("chain_rpc_urls"); raw != "" {
		if urls := splitList(raw); len(urls) > 0 {
			cfg.ChainRPCURLs = urls
		}
	}
	if uri := v.GetString("signer_uri"); uri != "" {
		cfg.SignerURI = uri
	}
	if port := cast.ToInt(v.GetString("query_server_port")); port > 0 {
		cfg.QueryServerPort = port
	}
	if lvl := v.GetString("log_level"); lvl != "" {
		cfg.LogLevel = cast.ToInt(lvl)
	}
	if format := v.GetString("log_format"); format != "" {
		cfg.LogFormat = format
	}
	if interval := cast.ToInt(v.GetString("poll_interval_seconds")); interval > 0 {
		cfg.PollIntervalSeconds = interval
	}
}

// splitList parses a comma separated environment value into its entries.
func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
