// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OpenClawd Contributors

package scan

import (
	"context"
	"regexp"

	"golang.org/x/text/unicode/norm"
)

// injectionCue is a weighted lexical marker of prompt injection.
type injectionCue struct {
	pattern *regexp.Regexp
	weight  float64
}

// injectionCues are the built-in markers for the heuristic model. Weights
// reflect how strongly the phrase correlates with injection attempts.
var injectionCues = []injectionCue{
	{regexp.MustCompile(`(?i)(ignore|disregard|override|forget|do\s+not\s+follow)\s+(all\s+)?(previous|prior|above)\s+(instructions|prompts|rules)`), 0.95},
	{regexp.MustCompile(`(?i)you\s+are\s+now\s+(in\s+)?\w+[\s,.]*(mode|do|ignore|forget|disregard)`), 0.85},
	{regexp.MustCompile(`(?i)(?:<\|?system\|?>|\[system\]|<<SYS>>)`), 0.9},
	{regexp.MustCompile("(?i)```system\\b"), 0.7},
	{regexp.MustCompile(`(?i)(new\s+task|from\s+now\s+on)[:,]?\s`), 0.6},
	{regexp.MustCompile(`(?i)pretend\s+(?:the\s+)?(?:above|previous)\s+(?:rules?|instructions?)\s+(?:do\s+not|don'?t)\s+exist`), 0.85},
	{regexp.MustCompile(`(?i)(print|reveal|show|repeat)\s+(your|the)\s+system\s+prompt`), 0.9},
	{regexp.MustCompile(`(?im)^SYSTEM:\s`), 0.8},
	{regexp.MustCompile(`(?is)\[INST\].{0,1000}?\[/INST\]`), 0.85},
}

// HeuristicModel scores text against weighted injection cues. It is the
// default stand-in for the classifier capability: deterministic, dependency
// free, and fast enough to run on every request.
type HeuristicModel struct{}

// NewHeuristicModel creates the lexical injection model.
func NewHeuristicModel() *HeuristicModel { return &HeuristicModel{} }

// Classify returns the maximum matched cue weight, with a small bump per
// additional distinct cue, capped at 1. Text is NFKC-normalized first so
// compatibility characters cannot dodge the cues.
func (m *HeuristicModel) Classify(_ context.Context, text string) (float64, error) {
	text = norm.NFKC.String(text)

	var score float64
	hits := 0
	for _, cue := range injectionCues {
		if cue.pattern.MatchString(text) {
			hits++
			if cue.weight > score {
				score = cue.weight
			}
		}
	}
	if hits > 1 {
		score += 0.05 * float64(hits-1)
	}
	if score > 1 {
		score = 1
	}
	return score, nil
}
