// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OpenClawd Contributors

package scan

import (
	"context"
	"strings"
)

// invisibleRunes are zero-width and other invisible Unicode code points used
// to smuggle hidden instructions past human review. Written as escapes: the
// raw characters would be invisible in source too.
var invisibleRunes = []rune{
	'\u200b', // zero-width space
	'\u200c', // zero-width non-joiner
	'\u200d', // zero-width joiner
	'\ufeff', // zero-width no-break space / BOM
	'\u00ad', // soft hyphen
	'\u034f', // combining grapheme joiner
	'\u061c', // Arabic letter mark
	'\u180e', // Mongolian vowel separator
	'\u2060', // word joiner
	'\u2061', // invisible function application
	'\u2062', // invisible times
	'\u2063', // invisible separator
	'\u2064', // invisible plus
	'\u206a', // inhibit symmetric swapping
	'\u206b', // activate symmetric swapping
	'\u206c', // inhibit Arabic form shaping
	'\u206d', // activate Arabic form shaping
	'\u206e', // national digit shapes
	'\u206f', // nominal digit shapes
	'\ufff9', // interlinear annotation anchor
	'\ufffa', // interlinear annotation separator
	'\ufffb', // interlinear annotation terminator
}

// StructuralScanner detects invisible Unicode code points in content. It
// fails whenever any are present and never rewrites.
type StructuralScanner struct {
	name string
}

// NewStructuralScanner creates an invisible-text scanner.
func NewStructuralScanner(name string) *StructuralScanner {
	return &StructuralScanner{name: name}
}

func (s *StructuralScanner) Name() string { return s.name }

// Assess fails when the content contains any invisible code point.
func (s *StructuralScanner) Assess(_ context.Context, content string) (PartialVerdict, error) {
	if strings.ContainsAny(content, string(invisibleRunes)) {
		return PartialVerdict{Passed: false, Score: 1}, nil
	}
	return PartialVerdict{Passed: true}, nil
}
