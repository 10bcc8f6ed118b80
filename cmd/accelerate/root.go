// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Accelerate Contributors

package main

import (
	"github.com/spf13/cobra"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the Accelerate CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "accelerate",
		Short: "Accelerate - AI-assisted business analytics backend",
		Long: `Accelerate is a business analytics backend with session authentication,
workflow and report management, and an AI assistant.`,
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())

	return cmd
}
