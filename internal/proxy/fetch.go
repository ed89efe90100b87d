// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OpenClawd Contributors

// Package proxy wraps the original content tools, extracting the scannable
// text from each tool's response shape, applying the mediation policy, and
// reassembling the response with a security metadata block attached.
package proxy

import (
	"context"
	"strings"

	"github.com/copperfinio/openclawd-llm-guard/internal/mediate"
	guarderr "github.com/copperfinio/openclawd-llm-guard/pkg/errors"
)

// Wrapper markers the upstream fetch tool places around untrusted page
// text. They are transport-level framing, not content: strip them before
// scanning so patterns cannot hide across the boundary.
const (
	fetchWrapperOpen  = "<untrusted-content>"
	fetchWrapperClose = "</untrusted-content>"
)

// FetchResult is the raw response of the upstream URL-fetch tool.
type FetchResult struct {
	Text        string
	StatusCode  int
	ContentType string
}

// Fetcher is the opaque upstream URL-fetch tool.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (FetchResult, error)
}

// FetchResponse is the mediated fetch response. Text is null when blocked.
type FetchResponse struct {
	Text        *string          `json:"text"`
	Blocked     bool             `json:"blocked"`
	Error       string           `json:"error,omitempty"`
	StatusCode  int              `json:"code,omitempty"`
	ContentType string           `json:"content_type,omitempty"`
	Security    mediate.Security `json:"security"`
}

// FetchProxy mediates the URL-fetch tool. Runs in BLOCK mode by
// configuration: a failing verdict withholds the page entirely.
type FetchProxy struct {
	upstream Fetcher
	mediator *mediate.Mediator
}

// NewFetchProxy wraps the upstream fetcher with the given mediator.
func NewFetchProxy(upstream Fetcher, mediator *mediate.Mediator) (*FetchProxy, error) {
	if upstream == nil {
		return nil, guarderr.New(guarderr.CodeToolRequestInvalid, "upstream fetcher is required")
	}
	if mediator == nil {
		return nil, guarderr.New(guarderr.CodeToolRequestInvalid, "mediator is required")
	}
	return &FetchProxy{upstream: upstream, mediator: mediator}, nil
}

// Fetch invokes the upstream tool and mediates its page text. An upstream
// failure propagates unchanged; there is nothing valid to scan.
func (p *FetchProxy) Fetch(ctx context.Context, url string) (FetchResponse, error) {
	if url == "" {
		return FetchResponse{}, guarderr.New(guarderr.CodeToolRequestInvalid, "url is required")
	}

	ctx, cancel := p.withPolicyTimeout(ctx)
	defer cancel()

	raw, err := p.upstream.Fetch(ctx, url)
	if err != nil {
		return FetchResponse{}, guarderr.Wrap(err, guarderr.CodeToolUpstreamFailure,
			"fetch tool failed", guarderr.FieldSource(url))
	}

	text := stripFetchWrapper(raw.Text)

	result, err := p.mediator.Mediate(ctx, text, url, raw.ContentType)
	if err != nil {
		return FetchResponse{}, err
	}

	resp := FetchResponse{
		Text:        result.Content,
		Blocked:     result.Blocked,
		StatusCode:  raw.StatusCode,
		ContentType: raw.ContentType,
		Security:    result.Security,
	}
	if result.Blocked {
		resp.Error = "content blocked: threats detected (" +
			strings.Join(result.Security.ThreatsDetected, ", ") + ")"
	}
	return resp, nil
}

func (p *FetchProxy) withPolicyTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if t := p.mediator.Policy().Timeout; t > 0 {
		return context.WithTimeout(ctx, t)
	}
	return context.WithCancel(ctx)
}

// stripFetchWrapper removes the upstream tool's untrusted-content framing.
// Content without the framing passes through unchanged.
func stripFetchWrapper(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, fetchWrapperOpen) || !strings.HasSuffix(trimmed, fetchWrapperClose) {
		return text
	}
	inner := strings.TrimPrefix(trimmed, fetchWrapperOpen)
	inner = strings.TrimSuffix(inner, fetchWrapperClose)
	return strings.TrimSpace(inner)
}
