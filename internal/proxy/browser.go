// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OpenClawd Contributors

package proxy

import (
	"context"

	"github.com/copperfinio/openclawd-llm-guard/internal/mediate"
	guarderr "github.com/copperfinio/openclawd-llm-guard/pkg/errors"
)

// BrowserAction identifies one action of the browser-control surface.
type BrowserAction string

const (
	ActionNavigate   BrowserAction = "navigate"
	ActionSnapshot   BrowserAction = "snapshot"
	ActionGetText    BrowserAction = "get_text"
	ActionEvaluate   BrowserAction = "evaluate"
	ActionClick      BrowserAction = "click"
	ActionType       BrowserAction = "type"
	ActionScreenshot BrowserAction = "screenshot"
)

// Valid reports whether the action is part of the control surface.
func (a BrowserAction) Valid() bool {
	switch a {
	case ActionNavigate, ActionSnapshot, ActionGetText, ActionEvaluate,
		ActionClick, ActionType, ActionScreenshot:
		return true
	default:
		return false
	}
}

// BrowserRequest is the pass-through request for one browser action.
type BrowserRequest struct {
	Action   BrowserAction `json:"action"`
	URL      string        `json:"url,omitempty"`
	Selector string        `json:"selector,omitempty"`
	Script   string        `json:"script,omitempty"`
	Text     string        `json:"text,omitempty"`
}

// BrowserActionResult is the upstream tool's heterogeneous response, keyed
// by action kind.
type BrowserActionResult struct {
	Action BrowserAction
	// Text is the free-form page text for text-bearing actions.
	Text string
	// Image holds binary screenshot data; exempt from scanning.
	Image []byte
	// URL is the page URL after the action (navigation acks).
	URL string
}

// scannableText extracts the part of the response worth scanning. Only
// snapshot, get_text, and evaluate yield free-form untrusted text;
// navigation acks, input acks, and binary blobs pass straight through.
func (r BrowserActionResult) scannableText() (string, bool) {
	switch r.Action {
	case ActionSnapshot, ActionGetText, ActionEvaluate:
		return r.Text, true
	default:
		return "", false
	}
}

// BrowserController is the opaque upstream browser-automation tool.
type BrowserController interface {
	Perform(ctx context.Context, req BrowserRequest) (BrowserActionResult, error)
}

// BrowserResponse is the mediated browser response with the original shape
// preserved and the mediated text substituted in.
type BrowserResponse struct {
	Action   BrowserAction    `json:"action"`
	Text     *string          `json:"text,omitempty"`
	Image    []byte           `json:"image,omitempty"`
	URL      string           `json:"url,omitempty"`
	Blocked  bool             `json:"blocked"`
	Error    string           `json:"error,omitempty"`
	Security mediate.Security `json:"security"`
}

// BrowserProxy mediates the browser-control tool. Runs in WARN mode by
// configuration: detected threats annotate the text rather than withhold it.
type BrowserProxy struct {
	upstream BrowserController
	mediator *mediate.Mediator
}

// NewBrowserProxy wraps the upstream controller with the given mediator.
func NewBrowserProxy(upstream BrowserController, mediator *mediate.Mediator) (*BrowserProxy, error) {
	if upstream == nil {
		return nil, guarderr.New(guarderr.CodeToolRequestInvalid, "upstream browser controller is required")
	}
	if mediator == nil {
		return nil, guarderr.New(guarderr.CodeToolRequestInvalid, "mediator is required")
	}
	return &BrowserProxy{upstream: upstream, mediator: mediator}, nil
}

// Perform invokes one browser action and mediates its text, if any.
func (p *BrowserProxy) Perform(ctx context.Context, req BrowserRequest) (BrowserResponse, error) {
	if !req.Action.Valid() {
		return BrowserResponse{}, guarderr.Errorf(guarderr.CodeToolRequestInvalid,
			"unknown browser action %q", req.Action)
	}

	ctx, cancel := p.withPolicyTimeout(ctx)
	defer cancel()

	raw, err := p.upstream.Perform(ctx, req)
	if err != nil {
		return BrowserResponse{}, guarderr.Wrap(err, guarderr.CodeToolUpstreamFailure,
			"browser tool failed", guarderr.Field("action", string(req.Action)))
	}

	resp := BrowserResponse{
		Action: raw.Action,
		Image:  raw.Image,
		URL:    raw.URL,
	}

	text, ok := raw.scannableText()
	if !ok {
		if raw.Text != "" {
			resp.Text = &raw.Text
		}
		resp.Security = mediate.Security{
			IsValid:         true,
			ThreatsDetected: []string{},
			Notice:          "not scanned: no text content",
		}
		return resp, nil
	}

	result, err := p.mediator.Mediate(ctx, text, raw.URL, "text/html")
	if err != nil {
		return BrowserResponse{}, err
	}

	resp.Text = result.Content
	resp.Blocked = result.Blocked
	resp.Security = result.Security
	return resp, nil
}

func (p *BrowserProxy) withPolicyTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if t := p.mediator.Policy().Timeout; t > 0 {
		return context.WithTimeout(ctx, t)
	}
	return context.WithCancel(ctx)
}
