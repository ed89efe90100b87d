// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OpenClawd Contributors

package scan

import (
	"context"

	guarderr "github.com/copperfinio/openclawd-llm-guard/pkg/errors"
)

// Model is the classification capability consumed by the classifier scanner:
// a continuous risk score in [0,1] for a piece of text. The scanner treats
// it as opaque; implementations range from lexical heuristics to remote LLMs.
type Model interface {
	Classify(ctx context.Context, text string) (float64, error)
}

// ClassifierScanner scores content with a Model and fails when the score
// reaches its threshold. A higher threshold means fewer false positives and
// fewer true positives.
type ClassifierScanner struct {
	name      string
	model     Model
	threshold float64
}

// NewClassifierScanner creates a classifier scanner. The threshold must be
// in (0, 1].
func NewClassifierScanner(name string, model Model, threshold float64) (*ClassifierScanner, error) {
	if model == nil {
		return nil, guarderr.Errorf(guarderr.CodeScanScannerFailure,
			"classifier scanner %s has nil model", name)
	}
	if threshold <= 0 || threshold > 1 {
		return nil, guarderr.Errorf(guarderr.CodeConfigValidateInvalidValue,
			"classifier scanner %s threshold must be in (0, 1], got %g", name, threshold)
	}
	return &ClassifierScanner{name: name, model: model, threshold: threshold}, nil
}

func (s *ClassifierScanner) Name() string { return s.name }

// Assess scores the content. A model evaluation error is propagated, never
// converted into a clean verdict.
func (s *ClassifierScanner) Assess(ctx context.Context, content string) (PartialVerdict, error) {
	score, err := s.model.Classify(ctx, content)
	if err != nil {
		return PartialVerdict{}, guarderr.Wrap(err, guarderr.CodeScanModelFailure,
			"classifying content", guarderr.FieldScanner(s.name))
	}
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}

	if score >= s.threshold {
		return PartialVerdict{Passed: false, Score: score}, nil
	}
	return PartialVerdict{Passed: true, Score: 0}, nil
}
