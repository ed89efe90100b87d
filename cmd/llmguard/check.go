// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OpenClawd Contributors

package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/copperfinio/openclawd-llm-guard/internal/client"
	guarderr "github.com/copperfinio/openclawd-llm-guard/pkg/errors"
)

// errUnhealthy makes the check command exit non-zero without printing a
// second error line; the status output already explains the failure.
var errUnhealthy = errors.New("service unhealthy")

func newCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Probe the scan service health endpoint",
		Long:  "Query the running scan service and print its status, scanner counts, and uptime. Exits non-zero when the service is down.",
		RunE:  runCheck,
	}

	cmd.Flags().String("url", "http://127.0.0.1:8765", "scan service URL")

	return cmd
}

func runCheck(cmd *cobra.Command, _ []string) error {
	w := cmd.OutOrStdout()
	serviceURL, _ := cmd.Flags().GetString("url")

	c, err := client.New(serviceURL, client.Options{})
	if err != nil {
		return err
	}

	status, err := c.Health(cmd.Context())
	if err != nil {
		switch {
		case guarderr.IsUnavailable(err):
			fmt.Fprintln(w, "Service not running (connection refused or timeout)")
		case guarderr.IsScanFailure(err):
			fmt.Fprintf(w, "Service returned error status: %v\n", guarderr.FieldsOf(err)["status"])
		default:
			fmt.Fprintf(w, "Error: %v\n", err)
		}
		return errUnhealthy
	}

	fmt.Fprintf(w, "Status: %s\n", status.Status)
	fmt.Fprintf(w, "Input scanners: %d\n", status.InputScannerCount)
	fmt.Fprintf(w, "Output scanners: %d\n", status.OutputScannerCount)
	fmt.Fprintf(w, "Uptime: %.0fs\n", status.UptimeSeconds)
	fmt.Fprintf(w, "Scans completed: input=%d output=%d\n",
		status.ScansCompleted.Input, status.ScansCompleted.Output)
	fmt.Fprintf(w, "Timestamp: %s\n", status.Timestamp)

	if !status.Healthy() {
		return errUnhealthy
	}
	return nil
}
