// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OpenClawd Contributors

// Package mediate decides, from a scan verdict and a per-tool policy, what
// content (if any) reaches the caller.
package mediate

import (
	"path"
	"strings"
	"time"

	guarderr "github.com/copperfinio/openclawd-llm-guard/pkg/errors"
	"github.com/copperfinio/openclawd-llm-guard/pkg/types"
)

// Policy is the per-tool mediation configuration. Configured once at
// startup, immutable thereafter; re-read, not mutated, per request.
type Policy struct {
	Mode types.Mode
	// TrustedPaths exempts matching content sources from scanning entirely.
	// Entries are path globs; an entry ending in "/" matches as a prefix.
	// Only meaningful for the file-read tool.
	TrustedPaths []string
	// FallbackOnError selects the posture when the scan service cannot be
	// consulted: true returns unscanned content with an advisory, false
	// returns a hard error and no content.
	FallbackOnError bool
	// Timeout bounds the upstream tool call, not the scan call (the client
	// carries its own scan timeout).
	Timeout time.Duration
}

// Validate rejects malformed policies at startup rather than silently
// defaulting.
func (p Policy) Validate() error {
	if !p.Mode.Valid() {
		return guarderr.Errorf(guarderr.CodeMediatePolicyInvalid,
			"invalid mediation mode %q", p.Mode)
	}
	for _, pattern := range p.TrustedPaths {
		if pattern == "" {
			return guarderr.New(guarderr.CodeMediatePolicyInvalid, "empty trusted path pattern")
		}
		if _, err := path.Match(strings.TrimSuffix(pattern, "/"), "probe"); err != nil {
			return guarderr.Wrapf(err, guarderr.CodeMediatePolicyInvalid,
				"invalid trusted path pattern %q", pattern)
		}
	}
	if p.Timeout < 0 {
		return guarderr.Errorf(guarderr.CodeMediatePolicyInvalid,
			"negative timeout %s", p.Timeout)
	}
	return nil
}

// Trusted reports whether source matches any trusted path pattern.
func (p Policy) Trusted(source string) bool {
	for _, pattern := range p.TrustedPaths {
		if strings.HasSuffix(pattern, "/") {
			if strings.HasPrefix(source, pattern) {
				return true
			}
			continue
		}
		if ok, err := path.Match(pattern, source); err == nil && ok {
			return true
		}
	}
	return false
}
