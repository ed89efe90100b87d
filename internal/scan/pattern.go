// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OpenClawd Contributors

package scan

import (
	"context"
	"regexp"
	"strings"

	guarderr "github.com/copperfinio/openclawd-llm-guard/pkg/errors"
)

// PatternScanner fails when any of a fixed list of regular expressions or
// literal substrings matches. It never rewrites content.
type PatternScanner struct {
	name       string
	patterns   []*regexp.Regexp
	substrings []string
}

// NewPatternScanner compiles the given regex patterns. Substrings are
// matched case-insensitively as literals.
func NewPatternScanner(name string, patterns []string, substrings []string) (*PatternScanner, error) {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, guarderr.Wrapf(err, guarderr.CodeScanPatternsInvalid,
				"compiling pattern %q for scanner %s", p, name)
		}
		compiled = append(compiled, re)
	}
	lowered := make([]string, len(substrings))
	for i, s := range substrings {
		lowered[i] = strings.ToLower(s)
	}
	return &PatternScanner{name: name, patterns: compiled, substrings: lowered}, nil
}

func (s *PatternScanner) Name() string { return s.name }

// Assess fails the verdict when any pattern or substring matches.
func (s *PatternScanner) Assess(_ context.Context, content string) (PartialVerdict, error) {
	matched := false
	for _, re := range s.patterns {
		if re.MatchString(content) {
			matched = true
			break
		}
	}
	if !matched && len(s.substrings) > 0 {
		lowered := strings.ToLower(content)
		for _, sub := range s.substrings {
			if strings.Contains(lowered, sub) {
				matched = true
				break
			}
		}
	}

	if matched {
		return PartialVerdict{Passed: false, Score: 1}, nil
	}
	return PartialVerdict{Passed: true}, nil
}
