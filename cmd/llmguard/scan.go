// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OpenClawd Contributors

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/copperfinio/openclawd-llm-guard/internal/config"
	"github.com/copperfinio/openclawd-llm-guard/internal/scan"
	guarderr "github.com/copperfinio/openclawd-llm-guard/pkg/errors"
)

func newScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan [file]",
		Short: "Scan a file or stdin once and print the verdict",
		Long:  "Run the configured input scanner set locally over the given file (or stdin when omitted) and print the aggregated verdict as JSON.",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runScan,
	}

	cmd.Flags().Bool("output", false, "use the output (leak-detection) scanner set instead of the input set")

	return cmd
}

func runScan(cmd *cobra.Command, args []string) error {
	cfgPath, _ := cmd.Flags().GetString("config")

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	content, source, err := readScanInput(cmd, args)
	if err != nil {
		return err
	}

	svc, err := buildService(cfg)
	if err != nil {
		return fmt.Errorf("initializing scanners: %w", err)
	}

	useOutput, _ := cmd.Flags().GetBool("output")

	var verdict scan.Verdict
	if useOutput {
		verdict, err = svc.ScanOutput(cmd.Context(), "", content)
	} else {
		verdict, err = svc.ScanInput(cmd.Context(), scan.Request{Content: content, Source: source})
	}
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(verdict)
}

func readScanInput(cmd *cobra.Command, args []string) (content, source string, err error) {
	if len(args) == 1 {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return "", "", guarderr.Wrapf(err, guarderr.CodeCLIInputInvalid, "reading %s", args[0])
		}
		return string(data), args[0], nil
	}

	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", "", guarderr.Wrap(err, guarderr.CodeCLIInputInvalid, "reading stdin")
	}
	return string(data), "stdin", nil
}
