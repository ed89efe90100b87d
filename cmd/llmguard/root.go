// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OpenClawd Contributors

package main

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// NewRootCmd creates the root llmguard command with all subcommands
// registered.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "llmguard",
		Short:         "Threat assessment for agent content",
		Long:          "llmguard scans externally-sourced content for prompt injection and data exfiltration before it reaches an autonomous agent.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return initViper(cmd)
		},
	}

	root.PersistentFlags().StringP("config", "c", "", "path to config file")
	root.PersistentFlags().BoolP("verbose", "v", false, "enable verbose output")

	root.AddCommand(
		newServeCmd(),
		newCheckCmd(),
		newScanCmd(),
		newVersionCmd(),
	)

	return root
}

// initViper sets up the global Viper with env bindings and flag bindings so
// the standard precedence (flag > env > file > defaults) is handled
// uniformly. The config file itself is loaded by config.Load in the
// commands that need it.
func initViper(cmd *cobra.Command) error {
	v := viper.GetViper()

	v.SetEnvPrefix("LLMGUARD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v.BindPFlag("verbose", cmd.Flags().Lookup("verbose"))
}
