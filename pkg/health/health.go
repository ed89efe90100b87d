// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OpenClawd Contributors

package health

import "time"

// Counts holds the number of completed scans per kind since process start.
type Counts struct {
	Input  int64 `json:"input"`
	Output int64 `json:"output"`
}

// Status is the liveness snapshot reported by the scan service. All fields
// are point-in-time values safe to serialize to JSON.
type Status struct {
	Status             string  `json:"status"`
	InputScannerCount  int     `json:"input_scanner_count"`
	OutputScannerCount int     `json:"output_scanner_count"`
	UptimeSeconds      float64 `json:"uptime_seconds"`
	ScansCompleted     Counts  `json:"scans_completed"`
	Timestamp          string  `json:"timestamp"`
}

// Healthy reports whether the snapshot indicates a live service.
func (s Status) Healthy() bool {
	return s.Status == "healthy"
}

// Now formats a timestamp the way the service reports it.
func Now() string {
	return time.Now().UTC().Format(time.RFC3339)
}
