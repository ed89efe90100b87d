// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OpenClawd Contributors

package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/copperfinio/openclawd-llm-guard/internal/config"
	"github.com/copperfinio/openclawd-llm-guard/internal/scan"
	"github.com/copperfinio/openclawd-llm-guard/internal/service"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the scan service",
		Long:  "Load configuration, construct the scanner sets, and serve the scan API. A scanner construction failure is fatal.",
		RunE:  runServe,
	}

	cmd.Flags().String("listen", "", "override listen address (host:port)")
	_ = viper.BindPFlag("service.listen", cmd.Flags().Lookup("listen"))

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfgPath, _ := cmd.Flags().GetString("config")

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if listen := viper.GetString("service.listen"); listen != "" {
		cfg.Service.Listen = listen
	}

	svc, err := buildService(cfg)
	if err != nil {
		return fmt.Errorf("initializing scanners: %w", err)
	}

	srv, err := service.NewServer(service.Config{
		ListenAddr:  cfg.Service.Listen,
		CORSOrigins: cfg.Service.CORSOrigins,
	}, svc)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(cmd.OutOrStdout(), "llmguard scan service listening on %s\n", cfg.Service.Listen)
	return srv.Start(ctx)
}

// buildService constructs the scanner sets and the service over them. Fail
// fast: any scanner construction error aborts startup rather than serving a
// partial scanner surface.
func buildService(cfg *config.Config) (*service.Service, error) {
	model, err := buildModel(cfg.Scanners.Classifier)
	if err != nil {
		return nil, err
	}

	setCfg := scan.SetConfig{
		InjectionThreshold:  cfg.Scanners.InjectionThreshold,
		BannedTerms:         cfg.Scanners.BannedTerms,
		ExtraSecretPatterns: cfg.Scanners.SecretPatterns,
		Model:               model,
	}

	input, err := scan.NewInputSet(setCfg)
	if err != nil {
		return nil, err
	}
	output, err := scan.NewOutputSet(setCfg)
	if err != nil {
		return nil, err
	}

	return service.New(input, output)
}

// buildModel selects the classifier capability backend.
func buildModel(cfg config.ClassifierConfig) (scan.Model, error) {
	switch cfg.Backend {
	case "anthropic":
		return scan.NewAnthropicModel(scan.AnthropicModelConfig{
			APIKey: cfg.APIKey,
			Model:  cfg.Model,
		})
	default:
		return scan.NewHeuristicModel(), nil
	}
}
