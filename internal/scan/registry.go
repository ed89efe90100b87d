// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OpenClawd Contributors

package scan

import (
	"fmt"
	"regexp"

	guarderr "github.com/copperfinio/openclawd-llm-guard/pkg/errors"
)

// Scanner names as they appear in verdicts and warning lines.
const (
	ScannerSecrets         = "Secrets"
	ScannerBannedTerms     = "BannedTerms"
	ScannerInvisibleText   = "InvisibleText"
	ScannerPromptInjection = "PromptInjection"
	ScannerSensitive       = "Sensitive"
	ScannerMaliciousURLs   = "MaliciousURLs"
)

// SetConfig controls scanner set construction.
type SetConfig struct {
	// InjectionThreshold is the classifier cutoff; scores at or above it
	// fail the verdict.
	InjectionThreshold float64
	// BannedTerms are organization-specific sensitive substrings. The
	// BannedTerms scanner is only registered when the list is non-empty.
	BannedTerms []string
	// ExtraSecretPatterns are additional org-specific secret regexes
	// appended to the embedded pattern DB.
	ExtraSecretPatterns []string
	// Model is the classifier capability. Nil selects HeuristicModel.
	Model Model
}

// NewInputSet builds the scanner set applied to untrusted external content
// before it reaches the agent. Registration order is fixed: redaction first
// so every later scanner and the aggregated sanitized content see masked
// secrets, then banned terms, invisible text, and the injection classifier.
func NewInputSet(cfg SetConfig) (*Set, error) {
	secrets, err := secretScanner(cfg.ExtraSecretPatterns)
	if err != nil {
		return nil, err
	}

	scanners := []Scanner{secrets}

	if len(cfg.BannedTerms) > 0 {
		banned, err := NewPatternScanner(ScannerBannedTerms, nil, cfg.BannedTerms)
		if err != nil {
			return nil, err
		}
		scanners = append(scanners, banned)
	}

	scanners = append(scanners, NewStructuralScanner(ScannerInvisibleText))

	model := cfg.Model
	if model == nil {
		model = NewHeuristicModel()
	}
	threshold := cfg.InjectionThreshold
	if threshold == 0 {
		threshold = 0.8
	}
	injection, err := NewClassifierScanner(ScannerPromptInjection, model, threshold)
	if err != nil {
		return nil, err
	}
	scanners = append(scanners, injection)

	return NewSet(scanners...)
}

// NewOutputSet builds the scanner set applied to agent-authored text before
// it leaves the system. Oriented toward leak detection: secrets and personal
// data are redacted, malicious URLs flagged.
func NewOutputSet(cfg SetConfig) (*Set, error) {
	secrets, err := secretScanner(cfg.ExtraSecretPatterns)
	if err != nil {
		return nil, err
	}

	sensitive, err := NewRedactScanner(ScannerSensitive, sensitiveRules())
	if err != nil {
		return nil, err
	}

	urls, err := NewPatternScanner(ScannerMaliciousURLs, maliciousURLPatterns(), nil)
	if err != nil {
		return nil, err
	}

	scanners := []Scanner{secrets, sensitive, urls}

	if len(cfg.BannedTerms) > 0 {
		banned, err := NewPatternScanner(ScannerBannedTerms, nil, cfg.BannedTerms)
		if err != nil {
			return nil, err
		}
		scanners = append(scanners, banned)
	}

	return NewSet(scanners...)
}

// secretScanner builds the Secrets redaction scanner from the embedded
// pattern DB plus any org-specific additions.
func secretScanner(extra []string) (*RedactScanner, error) {
	rules, err := SecretRules()
	if err != nil {
		return nil, err
	}

	if len(extra) > 0 {
		more, err := compileExtra(extra)
		if err != nil {
			return nil, err
		}
		rules = append(rules[:len(rules):len(rules)], more...)
	}

	return NewRedactScanner(ScannerSecrets, rules)
}

func compileExtra(patterns []string) ([]RedactRule, error) {
	rules := make([]RedactRule, 0, len(patterns))
	for i, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, guarderr.Wrapf(err, guarderr.CodeScanPatternsInvalid,
				"compiling extra secret pattern %d (%q)", i, p)
		}
		rules = append(rules, RedactRule{Name: fmt.Sprintf("org_pattern_%d", i+1), Pattern: re})
	}
	return rules, nil
}
