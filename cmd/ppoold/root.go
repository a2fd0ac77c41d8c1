package main

import (
	"github.com/spf13/cobra"
)

const flagHome = "home"

func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "ppoold",
		Short: "Pezkuwi Validator Pool Client Daemon",
	}

	rootCmd.PersistentFlags().String(flagHome, "", "node home directory (default ~/.ppool, or $PPOOL_HOME)")

	InitRootCmd(rootCmd) // add subcommands like `start` and `version`

	return rootCmd
}
