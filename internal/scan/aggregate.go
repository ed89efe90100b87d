// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OpenClawd Contributors

package scan

// Verdict is the aggregated outcome of running all scanners over one piece
// of content.
//
// Invariants: IsValid holds exactly when ThreatsDetected is empty; RiskScore
// is the maximum of the failing scanners' scores so a single severe detector
// dominates rather than being diluted by an average.
type Verdict struct {
	IsValid          bool     `json:"is_valid"`
	RiskScore        float64  `json:"risk_score"`
	ThreatsDetected  []string `json:"threats_detected"`
	SanitizedContent string   `json:"sanitized_content"`
}

// Aggregate merges partial verdicts into a single Verdict. ThreatsDetected
// lists failing scanner names in registration order. SanitizedContent is a
// fold over the partials in registration order, applying each scanner's
// rewrite to the running text; when no scanner rewrote, it is the original
// content byte-for-byte.
func Aggregate(content string, partials []PartialVerdict) Verdict {
	v := Verdict{
		IsValid:          true,
		ThreatsDetected:  []string{},
		SanitizedContent: content,
	}

	for _, p := range partials {
		if !p.Passed {
			v.IsValid = false
			v.ThreatsDetected = append(v.ThreatsDetected, p.ScannerName)
			if p.Score > v.RiskScore {
				v.RiskScore = p.Score
			}
		}
		if p.Sanitized {
			v.SanitizedContent = p.SanitizedText
		}
	}

	return v
}
