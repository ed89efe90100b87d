// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OpenClawd Contributors

package scan

import (
	"context"
	"regexp"
	"slices"
	"strings"

	guarderr "github.com/copperfinio/openclawd-llm-guard/pkg/errors"
)

// MaskToken replaces every secret-shaped substring found by the redaction
// scanner. It is a fixed token so redaction is idempotent: rescanning
// already-sanitized content yields the same text.
const MaskToken = "[REDACTED]"

// RedactRule is a single named secret-detection pattern.
type RedactRule struct {
	Name    string
	Pattern *regexp.Regexp
}

// RedactScanner detects secret-shaped substrings and rewrites the content
// with every match replaced by MaskToken. The verdict fails whenever a match
// was found, regardless of the rewrite.
type RedactScanner struct {
	name  string
	rules []RedactRule
}

// NewRedactScanner creates a redaction scanner from the given rules.
func NewRedactScanner(name string, rules []RedactRule) (*RedactScanner, error) {
	if name == "" {
		return nil, guarderr.New(guarderr.CodeScanPatternsInvalid, "scanner name is required")
	}
	if len(rules) == 0 {
		return nil, guarderr.Errorf(guarderr.CodeScanPatternsInvalid,
			"scanner %s requires at least one redact rule", name)
	}
	for i, r := range rules {
		if r.Pattern == nil {
			return nil, guarderr.Errorf(guarderr.CodeScanPatternsInvalid,
				"redact rule %d (%s) has nil pattern", i, r.Name)
		}
		if r.Name == "" {
			return nil, guarderr.Errorf(guarderr.CodeScanPatternsInvalid,
				"redact rule %d has empty name", i)
		}
	}
	return &RedactScanner{name: name, rules: rules}, nil
}

func (s *RedactScanner) Name() string { return s.name }

// Assess finds all secret-shaped substrings and returns the content with
// matches masked.
func (s *RedactScanner) Assess(_ context.Context, content string) (PartialVerdict, error) {
	type span struct{ start, end int }
	var spans []span

	for _, rule := range s.rules {
		for _, loc := range rule.Pattern.FindAllStringIndex(content, -1) {
			// Patterns like `x*` match empty at every position; an empty
			// match is not a secret.
			if loc[0] == loc[1] {
				continue
			}
			spans = append(spans, span{loc[0], loc[1]})
		}
	}

	if len(spans) == 0 {
		return PartialVerdict{Passed: true}, nil
	}

	// Merge overlapping ranges so stacked matches produce a single mask.
	slices.SortFunc(spans, func(a, b span) int { return a.start - b.start })
	merged := spans[:1]
	for _, sp := range spans[1:] {
		last := &merged[len(merged)-1]
		if sp.start <= last.end {
			if sp.end > last.end {
				last.end = sp.end
			}
		} else {
			merged = append(merged, sp)
		}
	}

	var b strings.Builder
	b.Grow(len(content))
	pos := 0
	for _, sp := range merged {
		b.WriteString(content[pos:sp.start])
		b.WriteString(MaskToken)
		pos = sp.end
	}
	b.WriteString(content[pos:])

	return PartialVerdict{
		Passed:        false,
		Score:         1,
		SanitizedText: b.String(),
		Sanitized:     true,
	}, nil
}
