package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/pezkuwichain/pezkuwi-pool-client/api"
	"github.com/spf13/cobra"
)

// IntentOutput is printed after the daemon accepts an intent.
type IntentOutput struct {
	IntentRef string `yaml:"intent_ref" json:"intent_ref"`
}

func txCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tx",
		Short: "Intent submission commands",
	}

	cmd.AddCommand(
		joinCmd(),
		leaveCmd(),
		recategorizeCmd(),
	)

	return cmd
}

func joinCmd() *cobra.Command {
	var (
		address      string
		category     string
		outputFormat string
	)

	cmd := &cobra.Command{
		Use:   "join",
		Short: "Submit a join intent for the configured signer",
		RunE: func(cmd *cobra.Command, args []string) error {
			req := api.IntentRequest{Address: address, Category: category}
			return submitIntent(cmd, "join", req, outputFormat)
		},
	}

	cmd.Flags().StringVar(&address, "address", "", "Validator address of the signer")
	cmd.Flags().StringVar(&category, "category", "", "Admission category (stake|parliamentary|merit)")
	cmd.Flags().StringVarP(&outputFormat, "output", "o", OutputFormatYAML, "Output format (yaml|json)")
	cmd.MarkFlagRequired("address")
	cmd.MarkFlagRequired("category")

	return cmd
}

func leaveCmd() *cobra.Command {
	var (
		address      string
		outputFormat string
	)

	cmd := &cobra.Command{
		Use:   "leave",
		Short: "Submit a leave intent for the configured signer",
		RunE: func(cmd *cobra.Command, args []string) error {
			req := api.IntentRequest{Address: address}
			return submitIntent(cmd, "leave", req, outputFormat)
		},
	}

	cmd.Flags().StringVar(&address, "address", "", "Validator address of the signer")
	cmd.Flags().StringVarP(&outputFormat, "output", "o", OutputFormatYAML, "Output format (yaml|json)")
	cmd.MarkFlagRequired("address")

	return cmd
}

func recategorizeCmd() *cobra.Command {
	var (
		address      string
		category     string
		outputFormat string
	)

	cmd := &cobra.Command{
		Use:   "recategorize",
		Short: "Submit a recategorize intent for the configured signer",
		RunE: func(cmd *cobra.Command, args []string) error {
			req := api.IntentRequest{Address: address, Category: category}
			return submitIntent(cmd, "recategorize", req, outputFormat)
		},
	}

	cmd.Flags().StringVar(&address, "address", "", "Validator address of the signer")
	cmd.Flags().StringVar(&category, "category", "", "Target admission category (stake|parliamentary|merit)")
	cmd.Flags().StringVarP(&outputFormat, "output", "o", OutputFormatYAML, "Output format (yaml|json)")
	cmd.MarkFlagRequired("address")
	cmd.MarkFlagRequired("category")

	return cmd
}

// submitIntent posts an intent to the daemon and prints the assigned
// reference. Preconditions are checked daemon side against the current
// snapshot, so a rejection surfaces here as a server error.
func submitIntent(cmd *cobra.Command, kind string, req api.IntentRequest, outputFormat string) error {
	port, err := getQueryServerPort(cmd)
	if err != nil {
		return err
	}

	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal intent request: %w", err)
	}

	resp, err := http.Post(
		fmt.Sprintf("http://localhost:%d/api/v1/intents/%s", port, kind),
		"application/json",
		bytes.NewReader(body),
	)
	if err != nil {
		return fmt.Errorf("failed to submit %s intent: %w", kind, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		var errResp ErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err != nil {
			return fmt.Errorf("server returned status %d", resp.StatusCode)
		}
		return fmt.Errorf("server error: %s", errResp.Error)
	}

	var intentResp api.IntentResponse
	if err := json.NewDecoder(resp.Body).Decode(&intentResp); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return printOutput(IntentOutput{IntentRef: intentResp.IntentRef}, outputFormat)
}
