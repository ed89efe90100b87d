// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OpenClawd Contributors

package types

import (
	"strings"

	guarderr "github.com/copperfinio/openclawd-llm-guard/pkg/errors"
)

// Mode defines how a protected tool surfaces a failing scan verdict.
type Mode string

const (
	// ModeBlock withholds the content entirely when a threat is detected.
	ModeBlock Mode = "block"
	// ModeWarn returns sanitized content prefixed with a warning line.
	ModeWarn Mode = "warn"
)

// Valid reports whether m is a recognized mediation mode.
func (m Mode) Valid() bool {
	switch m {
	case ModeBlock, ModeWarn:
		return true
	default:
		return false
	}
}

// ParseMode parses a case-insensitive string into a Mode.
func ParseMode(s string) (Mode, error) {
	m := Mode(strings.ToLower(s))
	if !m.Valid() {
		return "", guarderr.Errorf(guarderr.CodeConfigValidateInvalidValue,
			"invalid mediation mode: %q", s)
	}
	return m, nil
}
