// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OpenClawd Contributors

// Package scan implements the scanner capabilities and verdict aggregation
// that turn raw externally-sourced text into a single pass/fail verdict.
package scan

import (
	"context"

	guarderr "github.com/copperfinio/openclawd-llm-guard/pkg/errors"
)

// Request is one piece of content submitted for scanning. Immutable once
// created.
type Request struct {
	Content     string `json:"content"`
	Source      string `json:"source,omitempty"`
	ContentType string `json:"content_type,omitempty"`
}

// PartialVerdict is the outcome of a single scanner over one request.
type PartialVerdict struct {
	ScannerName string
	Passed      bool
	// Score is the scanner's risk estimate in [0,1]. Deterministic scanners
	// report 1 on a match and 0 otherwise; the classifier reports its
	// continuous score.
	Score float64
	// SanitizedText is the rewritten content, meaningful only when Sanitized
	// is true. Only scanners that can rewrite content (redaction) set it.
	SanitizedText string
	Sanitized     bool
}

// Scanner assesses content for a single threat class. Implementations must
// be pure with respect to the request: no mutation of shared state beyond
// read-only rule tables or model weights.
type Scanner interface {
	Name() string
	Assess(ctx context.Context, content string) (PartialVerdict, error)
}

// Set is an ordered collection of scanners. Registration order is the
// aggregation order: threat names, score folding, and sanitization rewrites
// are all deterministic with respect to it.
type Set struct {
	scanners []Scanner
}

// NewSet creates a scanner set. Order of the arguments is the registration
// order.
func NewSet(scanners ...Scanner) (*Set, error) {
	seen := make(map[string]bool, len(scanners))
	for i, s := range scanners {
		if s == nil {
			return nil, guarderr.Errorf(guarderr.CodeScanScannerFailure, "scanner %d is nil", i)
		}
		if s.Name() == "" {
			return nil, guarderr.Errorf(guarderr.CodeScanScannerFailure, "scanner %d has empty name", i)
		}
		if seen[s.Name()] {
			return nil, guarderr.Errorf(guarderr.CodeScanScannerFailure, "duplicate scanner name %q", s.Name())
		}
		seen[s.Name()] = true
	}
	return &Set{scanners: scanners}, nil
}

// Len returns the number of registered scanners.
func (s *Set) Len() int { return len(s.scanners) }

// Run assesses content with every scanner in registration order, threading
// each scanner's sanitized rewrite into the scanners that follow it. A
// scanner evaluation error aborts the run; it is the caller's job to surface
// it as a service failure, never as a clean verdict.
func (s *Set) Run(ctx context.Context, content string) ([]PartialVerdict, error) {
	partials := make([]PartialVerdict, 0, len(s.scanners))
	current := content
	for _, sc := range s.scanners {
		pv, err := sc.Assess(ctx, current)
		if err != nil {
			return nil, guarderr.Wrap(err, guarderr.CodeScanScannerFailure,
				"scanner evaluation failed", guarderr.FieldScanner(sc.Name()))
		}
		pv.ScannerName = sc.Name()
		partials = append(partials, pv)
		if pv.Sanitized {
			current = pv.SanitizedText
		}
	}
	return partials, nil
}

// Scan runs the set and aggregates the partial verdicts into one Verdict.
func (s *Set) Scan(ctx context.Context, content string) (Verdict, error) {
	partials, err := s.Run(ctx, content)
	if err != nil {
		return Verdict{}, err
	}
	return Aggregate(content, partials), nil
}
