// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OpenClawd Contributors

package scan_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/copperfinio/openclawd-llm-guard/internal/scan"
	guarderr "github.com/copperfinio/openclawd-llm-guard/pkg/errors"
)

// stubScanner is a scriptable Scanner for exercising Set behavior.
type stubScanner struct {
	name   string
	assess func(content string) (scan.PartialVerdict, error)
	seen   []string
}

func (s *stubScanner) Name() string { return s.name }

func (s *stubScanner) Assess(_ context.Context, content string) (scan.PartialVerdict, error) {
	s.seen = append(s.seen, content)
	if s.assess == nil {
		return scan.PartialVerdict{Passed: true}, nil
	}
	return s.assess(content)
}

func TestNewSet_RejectsInvalidScanners(t *testing.T) {
	tests := []struct {
		name     string
		scanners []scan.Scanner
	}{
		{"nil scanner", []scan.Scanner{nil}},
		{"empty name", []scan.Scanner{&stubScanner{name: ""}}},
		{"duplicate name", []scan.Scanner{&stubScanner{name: "A"}, &stubScanner{name: "A"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := scan.NewSet(tt.scanners...)
			assert.Error(t, err)
		})
	}
}

func TestSet_RunThreadsSanitizedContent(t *testing.T) {
	first := &stubScanner{
		name: "Secrets",
		assess: func(string) (scan.PartialVerdict, error) {
			return scan.PartialVerdict{
				Passed:        false,
				Score:         1,
				SanitizedText: "masked",
				Sanitized:     true,
			}, nil
		},
	}
	second := &stubScanner{name: "InvisibleText"}

	set, err := scan.NewSet(first, second)
	require.NoError(t, err)

	partials, err := set.Run(context.Background(), "raw secret")
	require.NoError(t, err)

	require.Len(t, partials, 2)
	assert.Equal(t, []string{"raw secret"}, first.seen)
	assert.Equal(t, []string{"masked"}, second.seen,
		"later scanners see the rewritten content")
	assert.Equal(t, "Secrets", partials[0].ScannerName)
	assert.Equal(t, "InvisibleText", partials[1].ScannerName)
}

func TestSet_RunAbortsOnScannerError(t *testing.T) {
	boom := errors.New("model exploded")
	failing := &stubScanner{
		name: "PromptInjection",
		assess: func(string) (scan.PartialVerdict, error) {
			return scan.PartialVerdict{}, boom
		},
	}
	never := &stubScanner{name: "Late"}

	set, err := scan.NewSet(failing, never)
	require.NoError(t, err)

	_, err = set.Run(context.Background(), "anything")
	require.Error(t, err)
	assert.True(t, guarderr.HasCode(err, guarderr.CodeScanScannerFailure))
	assert.Equal(t, "PromptInjection", guarderr.FieldsOf(err)["scanner"])
	assert.Empty(t, never.seen, "an evaluation error aborts the run")
}

func TestSet_ScanAggregates(t *testing.T) {
	set, err := scan.NewSet(
		&stubScanner{name: "A", assess: func(string) (scan.PartialVerdict, error) {
			return scan.PartialVerdict{Passed: false, Score: 0.4}, nil
		}},
		&stubScanner{name: "B", assess: func(string) (scan.PartialVerdict, error) {
			return scan.PartialVerdict{Passed: false, Score: 0.9}, nil
		}},
	)
	require.NoError(t, err)

	v, err := set.Scan(context.Background(), "content")
	require.NoError(t, err)

	assert.False(t, v.IsValid)
	assert.Equal(t, 0.9, v.RiskScore)
	assert.Equal(t, []string{"A", "B"}, v.ThreatsDetected)
}
