package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/pezkuwichain/pezkuwi-pool-client/api"
	"github.com/pezkuwichain/pezkuwi-pool-client/pool"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v2"
)

// Output formats
const (
	OutputFormatYAML = "yaml"
	OutputFormatJSON = "json"
)

// StatusOutput is the daemon summary printed by `ppoold status`. Stats is
// omitted while the registry has not completed its first hydration.
type StatusOutput struct {
	Ready       bool        `yaml:"ready" json:"ready"`
	Stale       bool        `yaml:"stale" json:"stale"`
	LastFetched time.Time   `yaml:"last_fetched" json:"last_fetched"`
	Stats       *pool.Stats `yaml:"stats,omitempty" json:"stats,omitempty"`
}

// StatsOutput represents the output format for pool statistics
type StatsOutput struct {
	Stats       *pool.Stats `yaml:"stats" json:"stats"`
	LastFetched time.Time   `yaml:"last_fetched" json:"last_fetched"`
	Stale       bool        `yaml:"stale" json:"stale"`
}

// MemberOutput represents the output format for pool members
type MemberOutput struct {
	Member      *pool.Member  `yaml:"member,omitempty" json:"member,omitempty"`
	Members     []pool.Member `yaml:"members,omitempty" json:"members,omitempty"`
	LastFetched time.Time     `yaml:"last_fetched" json:"last_fetched"`
	Stale       bool          `yaml:"stale" json:"stale"`
}

// EraOutput represents the output format for era timing
type EraOutput struct {
	Era         *api.EraView `yaml:"era" json:"era"`
	LastFetched time.Time    `yaml:"last_fetched" json:"last_fetched"`
	Stale       bool         `yaml:"stale" json:"stale"`
}

// ActiveSetOutput represents the output format for the selected validator set
type ActiveSetOutput struct {
	ActiveSet   *pool.ValidatorSet `yaml:"active_set" json:"active_set"`
	LastFetched time.Time          `yaml:"last_fetched" json:"last_fetched"`
	Stale       bool               `yaml:"stale" json:"stale"`
}

// HistoryOutput represents the output format for selection history
type HistoryOutput struct {
	History *api.HistoryView `yaml:"history" json:"history"`
}

// QueryResponse represents the standard query response format from HTTP API
type QueryResponse struct {
	Data        json.RawMessage `json:"data"`
	LastFetched time.Time       `json:"last_fetched"`
	Stale       bool            `json:"stale"`
	Ready       bool            `json:"ready"`
}

// ErrorResponse represents an error response from HTTP API
type ErrorResponse struct {
	Error string `json:"error"`
}

func queryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "query",
		Aliases: []string{"q"},
		Short:   "Querying commands",
	}

	cmd.AddCommand(poolQueryCmd())
	return cmd
}

func poolQueryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pool",
		Short: "Querying commands for the validator pool",
	}

	cmd.AddCommand(
		statsCmd(),
		membersCmd(),
		memberCmd(),
		eraCmd(),
		activeSetCmd(),
		historyCmd(),
	)

	return cmd
}

func statusCmd() *cobra.Command {
	var outputFormat string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon status and a pool summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			port, err := getQueryServerPort(cmd)
			if err != nil {
				return err
			}

			resp, err := http.Get(fmt.Sprintf("http://localhost:%d/api/v1/pool/stats", port))
			if err != nil {
				return fmt.Errorf("failed to reach the daemon on port %d: %w", port, err)
			}
			defer resp.Body.Close()

			if resp.StatusCode == http.StatusServiceUnavailable {
				// Daemon is up but has not completed its first hydration.
				return printOutput(StatusOutput{Ready: false}, outputFormat)
			}

			if resp.StatusCode != http.StatusOK {
				var errResp ErrorResponse
				if err := json.NewDecoder(resp.Body).Decode(&errResp); err != nil {
					return fmt.Errorf("server returned status %d", resp.StatusCode)
				}
				return fmt.Errorf("server error: %s", errResp.Error)
			}

			var queryResp QueryResponse
			if err := json.NewDecoder(resp.Body).Decode(&queryResp); err != nil {
				return fmt.Errorf("failed to decode response: %w", err)
			}

			var stats pool.Stats
			if err := json.Unmarshal(queryResp.Data, &stats); err != nil {
				return fmt.Errorf("failed to unmarshal pool stats: %w", err)
			}

			output := StatusOutput{
				Ready:       queryResp.Ready,
				Stale:       queryResp.Stale,
				LastFetched: queryResp.LastFetched,
				Stats:       &stats,
			}

			return printOutput(output, outputFormat)
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "output", "o", OutputFormatYAML, "Output format (yaml|json)")
	return cmd
}

func statsCmd() *cobra.Command {
	var outputFormat string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Query aggregate pool statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			port, err := getQueryServerPort(cmd)
			if err != nil {
				return err
			}

			resp, err := http.Get(fmt.Sprintf("http://localhost:%d/api/v1/pool/stats", port))
			if err != nil {
				return fmt.Errorf("failed to query pool stats: %w", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				var errResp ErrorResponse
				if err := json.NewDecoder(resp.Body).Decode(&errResp); err != nil {
					return fmt.Errorf("server returned status %d", resp.StatusCode)
				}
				return fmt.Errorf("server error: %s", errResp.Error)
			}

			var queryResp QueryResponse
			if err := json.NewDecoder(resp.Body).Decode(&queryResp); err != nil {
				return fmt.Errorf("failed to decode response: %w", err)
			}

			var stats pool.Stats
			if err := json.Unmarshal(queryResp.Data, &stats); err != nil {
				return fmt.Errorf("failed to unmarshal pool stats: %w", err)
			}

			output := StatsOutput{
				Stats:       &stats,
				LastFetched: queryResp.LastFetched,
				Stale:       queryResp.Stale,
			}

			return printOutput(output, outputFormat)
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "output", "o", OutputFormatYAML, "Output format (yaml|json)")
	return cmd
}

func membersCmd() *cobra.Command {
	var (
		category     string
		outputFormat string
	)

	cmd := &cobra.Command{
		Use:   "members",
		Short: "Query pool members, optionally filtered by admission category",
		RunE: func(cmd *cobra.Command, args []string) error {
			port, err := getQueryServerPort(cmd)
			if err != nil {
				return err
			}

			url := fmt.Sprintf("http://localhost:%d/api/v1/pool/members", port)
			if category != "" {
				url = fmt.Sprintf("%s?category=%s", url, category)
			}

			resp, err := http.Get(url)
			if err != nil {
				return fmt.Errorf("failed to query pool members: %w", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				var errResp ErrorResponse
				if err := json.NewDecoder(resp.Body).Decode(&errResp); err != nil {
					return fmt.Errorf("server returned status %d", resp.StatusCode)
				}
				return fmt.Errorf("server error: %s", errResp.Error)
			}

			var queryResp QueryResponse
			if err := json.NewDecoder(resp.Body).Decode(&queryResp); err != nil {
				return fmt.Errorf("failed to decode response: %w", err)
			}

			var members []pool.Member
			if err := json.Unmarshal(queryResp.Data, &members); err != nil {
				return fmt.Errorf("failed to unmarshal pool members: %w", err)
			}

			output := MemberOutput{
				Members:     members,
				LastFetched: queryResp.LastFetched,
				Stale:       queryResp.Stale,
			}

			return printOutput(output, outputFormat)
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "Admission category (stake|parliamentary|merit)")
	cmd.Flags().StringVarP(&outputFormat, "output", "o", OutputFormatYAML, "Output format (yaml|json)")
	return cmd
}

func memberCmd() *cobra.Command {
	var (
		address      string
		outputFormat string
	)

	cmd := &cobra.Command{
		Use:   "member",
		Short: "Query a single pool member",
		RunE: func(cmd *cobra.Command, args []string) error {
			if address == "" {
				return fmt.Errorf("address is required")
			}

			port, err := getQueryServerPort(cmd)
			if err != nil {
				return err
			}

			resp, err := http.Get(fmt.Sprintf("http://localhost:%d/api/v1/pool/members/%s", port, address))
			if err != nil {
				return fmt.Errorf("failed to query pool member: %w", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode == http.StatusNotFound {
				var errResp ErrorResponse
				if err := json.NewDecoder(resp.Body).Decode(&errResp); err != nil {
					return fmt.Errorf("member %s not found", address)
				}
				return errors.New(errResp.Error)
			}

			if resp.StatusCode != http.StatusOK {
				var errResp ErrorResponse
				if err := json.NewDecoder(resp.Body).Decode(&errResp); err != nil {
					return fmt.Errorf("server returned status %d", resp.StatusCode)
				}
				return fmt.Errorf("server error: %s", errResp.Error)
			}

			var queryResp QueryResponse
			if err := json.NewDecoder(resp.Body).Decode(&queryResp); err != nil {
				return fmt.Errorf("failed to decode response: %w", err)
			}

			var member *pool.Member
			if err := json.Unmarshal(queryResp.Data, &member); err != nil {
				return fmt.Errorf("failed to unmarshal pool member: %w", err)
			}

			output := MemberOutput{
				Member:      member,
				LastFetched: queryResp.LastFetched,
				Stale:       queryResp.Stale,
			}

			return printOutput(output, outputFormat)
		},
	}

	cmd.Flags().StringVar(&address, "address", "", "Validator address")
	cmd.Flags().StringVarP(&outputFormat, "output", "o", OutputFormatYAML, "Output format (yaml|json)")
	cmd.MarkFlagRequired("address")

	return cmd
}

func eraCmd() *cobra.Command {
	var outputFormat string

	cmd := &cobra.Command{
		Use:   "era",
		Short: "Query the current era timing",
		RunE: func(cmd *cobra.Command, args []string) error {
			port, err := getQueryServerPort(cmd)
			if err != nil {
				return err
			}

			resp, err := http.Get(fmt.Sprintf("http://localhost:%d/api/v1/era", port))
			if err != nil {
				return fmt.Errorf("failed to query era timing: %w", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				var errResp ErrorResponse
				if err := json.NewDecoder(resp.Body).Decode(&errResp); err != nil {
					return fmt.Errorf("server returned status %d", resp.StatusCode)
				}
				return fmt.Errorf("server error: %s", errResp.Error)
			}

			var queryResp QueryResponse
			if err := json.NewDecoder(resp.Body).Decode(&queryResp); err != nil {
				return fmt.Errorf("failed to decode response: %w", err)
			}

			var era *api.EraView
			if err := json.Unmarshal(queryResp.Data, &era); err != nil {
				return fmt.Errorf("failed to unmarshal era timing: %w", err)
			}

			output := EraOutput{
				Era:         era,
				LastFetched: queryResp.LastFetched,
				Stale:       queryResp.Stale,
			}

			return printOutput(output, outputFormat)
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "output", "o", OutputFormatYAML, "Output format (yaml|json)")
	return cmd
}

func activeSetCmd() *cobra.Command {
	var outputFormat string

	cmd := &cobra.Command{
		Use:   "active-set",
		Short: "Query the validators selected for the current era",
		RunE: func(cmd *cobra.Command, args []string) error {
			port, err := getQueryServerPort(cmd)
			if err != nil {
				return err
			}

			resp, err := http.Get(fmt.Sprintf("http://localhost:%d/api/v1/validators/active", port))
			if err != nil {
				return fmt.Errorf("failed to query active set: %w", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				var errResp ErrorResponse
				if err := json.NewDecoder(resp.Body).Decode(&errResp); err != nil {
					return fmt.Errorf("server returned status %d", resp.StatusCode)
				}
				return fmt.Errorf("server error: %s", errResp.Error)
			}

			var queryResp QueryResponse
			if err := json.NewDecoder(resp.Body).Decode(&queryResp); err != nil {
				return fmt.Errorf("failed to decode response: %w", err)
			}

			var set *pool.ValidatorSet
			if err := json.Unmarshal(queryResp.Data, &set); err != nil {
				return fmt.Errorf("failed to unmarshal active set: %w", err)
			}

			output := ActiveSetOutput{
				ActiveSet:   set,
				LastFetched: queryResp.LastFetched,
				Stale:       queryResp.Stale,
			}

			return printOutput(output, outputFormat)
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "output", "o", OutputFormatYAML, "Output format (yaml|json)")
	return cmd
}

func historyCmd() *cobra.Command {
	var (
		address      string
		fromEra      uint32
		toEra        uint32
		outputFormat string
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Query the selection history of a validator",
		RunE: func(cmd *cobra.Command, args []string) error {
			if address == "" {
				return fmt.Errorf("address is required")
			}
			if cmd.Flags().Changed("from") != cmd.Flags().Changed("to") {
				return fmt.Errorf("from and to must be provided together")
			}

			port, err := getQueryServerPort(cmd)
			if err != nil {
				return err
			}

			url := fmt.Sprintf("http://localhost:%d/api/v1/history/%s", port, address)
			if cmd.Flags().Changed("from") {
				url = fmt.Sprintf("%s?from=%d&to=%d", url, fromEra, toEra)
			}

			resp, err := http.Get(url)
			if err != nil {
				return fmt.Errorf("failed to query selection history: %w", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				var errResp ErrorResponse
				if err := json.NewDecoder(resp.Body).Decode(&errResp); err != nil {
					return fmt.Errorf("server returned status %d", resp.StatusCode)
				}
				return fmt.Errorf("server error: %s", errResp.Error)
			}

			var queryResp QueryResponse
			if err := json.NewDecoder(resp.Body).Decode(&queryResp); err != nil {
				return fmt.Errorf("failed to decode response: %w", err)
			}

			var history *api.HistoryView
			if err := json.Unmarshal(queryResp.Data, &history); err != nil {
				return fmt.Errorf("failed to unmarshal selection history: %w", err)
			}

			return printOutput(HistoryOutput{History: history}, outputFormat)
		},
	}

	cmd.Flags().StringVar(&address, "address", "", "Validator address")
	cmd.Flags().Uint32Var(&fromEra, "from", 0, "Start era of a participation range (inclusive)")
	cmd.Flags().Uint32Var(&toEra, "to", 0, "End era of a participation range (inclusive)")
	cmd.Flags().StringVarP(&outputFormat, "output", "o", OutputFormatYAML, "Output format (yaml|json)")
	cmd.MarkFlagRequired("address")

	return cmd
}

// getQueryServerPort loads the config to get the query server port
func getQueryServerPort(cmd *cobra.Command) (int, error) {
	cfg, err := loadDaemonConfig(cmd)
	if err != nil {
		return 0, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg.QueryServerPort, nil
}

// printOutput prints the output in the specified format
func printOutput(data interface{}, format string) error {
	switch format {
	case OutputFormatJSON:
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(data)
	case OutputFormatYAML:
		encoder := yaml.NewEncoder(os.Stdout)
		return encoder.Encode(data)
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}
