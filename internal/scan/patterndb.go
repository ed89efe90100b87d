// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OpenClawd Contributors

package scan

import (
	_ "embed"
	"log/slog"
	"regexp"
	"strings"
	"sync"
	"unicode"

	"gopkg.in/yaml.v3"

	guarderr "github.com/copperfinio/openclawd-llm-guard/pkg/errors"
)

//go:embed db/secret-patterns.yml
var secretPatternsYAML []byte

// dbFile is the top-level structure of secret-patterns.yml.
type dbFile struct {
	Patterns []dbEntry `yaml:"patterns"`
}

// dbEntry is a single pattern entry in the YAML.
type dbEntry struct {
	Pattern dbPattern `yaml:"pattern"`
}

// dbPattern holds the name, regex, and confidence level.
type dbPattern struct {
	Name       string `yaml:"name"`
	Regex      string `yaml:"regex"`
	Confidence string `yaml:"confidence"`
}

var (
	dbOnce  sync.Once
	dbRules []RedactRule
	dbErr   error
)

// SecretRules parses the embedded pattern DB and returns the compiled
// high-confidence redaction rules. Parsing happens once per process.
//
// Fail-closed: any compile failure in a high-confidence pattern means the
// scanner cannot guarantee full coverage and must refuse to start.
func SecretRules() ([]RedactRule, error) {
	dbOnce.Do(func() {
		var f dbFile
		if err := yaml.Unmarshal(secretPatternsYAML, &f); err != nil {
			dbErr = guarderr.Wrapf(err, guarderr.CodeScanPatternsInvalid,
				"parsing embedded secret-patterns YAML")
			return
		}

		seen := make(map[string]bool, len(f.Patterns))
		var failedNames []string
		for _, entry := range f.Patterns {
			p := entry.Pattern
			if p.Confidence != "high" {
				continue
			}

			name := toSnakeCase(p.Name)

			// Deduplicate: first occurrence wins.
			if seen[name] {
				slog.Warn("duplicate secret pattern name, skipping", "name", name, "original", p.Name)
				continue
			}
			seen[name] = true

			re, err := regexp.Compile(p.Regex)
			if err != nil {
				slog.Error("high-confidence secret pattern failed to compile",
					"name", name, "regex", p.Regex, "error", err)
				failedNames = append(failedNames, name)
				continue
			}

			dbRules = append(dbRules, RedactRule{Name: name, Pattern: re})
		}

		if len(failedNames) > 0 {
			dbErr = guarderr.Errorf(guarderr.CodeScanPatternsInvalid,
				"scanner startup aborted: %d high-confidence pattern(s) failed to compile: %v",
				len(failedNames), failedNames)
			return
		}

		if len(dbRules) == 0 {
			dbErr = guarderr.Errorf(guarderr.CodeScanPatternsInvalid,
				"zero high-confidence patterns loaded from embedded DB")
		}
	})

	if dbErr != nil {
		return nil, dbErr
	}
	return dbRules, nil
}

// toSnakeCase converts a display name like "AWS Access Key" to "aws_access_key".
func toSnakeCase(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	prevWasUnderscore := false
	for _, r := range name {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(unicode.ToLower(r))
			prevWasUnderscore = false
		default:
			// Collapse consecutive non-alnum chars into one underscore.
			if !prevWasUnderscore && b.Len() > 0 {
				b.WriteByte('_')
				prevWasUnderscore = true
			}
		}
	}
	return strings.TrimRight(b.String(), "_")
}
