// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OpenClawd Contributors

package proxy

import (
	"context"
	"strings"

	"github.com/copperfinio/openclawd-llm-guard/internal/mediate"
	guarderr "github.com/copperfinio/openclawd-llm-guard/pkg/errors"
)

// ReadRequest selects a file and an optional line window. Offset and Limit
// are line-based; zero Limit means the rest of the file.
type ReadRequest struct {
	Path   string `json:"path"`
	Offset int    `json:"offset,omitempty"`
	Limit  int    `json:"limit,omitempty"`
}

// ReadResult is the raw response of the upstream file-read tool.
type ReadResult struct {
	Content string
}

// FileReader is the opaque upstream filesystem tool.
type FileReader interface {
	Read(ctx context.Context, path string) (ReadResult, error)
}

// ReadResponse is the mediated read response. Content is null when blocked.
type ReadResponse struct {
	Content  *string          `json:"content"`
	Path     string           `json:"path"`
	Blocked  bool             `json:"blocked"`
	Error    string           `json:"error,omitempty"`
	Security mediate.Security `json:"security"`
}

// ReadProxy mediates the file-read tool. Runs in WARN mode by configuration
// and honors the policy's trusted-path bypass: workspace files the agent
// owns skip scanning entirely.
type ReadProxy struct {
	upstream FileReader
	mediator *mediate.Mediator
}

// NewReadProxy wraps the upstream reader with the given mediator.
func NewReadProxy(upstream FileReader, mediator *mediate.Mediator) (*ReadProxy, error) {
	if upstream == nil {
		return nil, guarderr.New(guarderr.CodeToolRequestInvalid, "upstream file reader is required")
	}
	if mediator == nil {
		return nil, guarderr.New(guarderr.CodeToolRequestInvalid, "mediator is required")
	}
	return &ReadProxy{upstream: upstream, mediator: mediator}, nil
}

// Read invokes the upstream tool, applies offset/limit slicing, and
// mediates the result. Slicing happens before scanning so the verdict
// covers exactly the text the caller receives.
func (p *ReadProxy) Read(ctx context.Context, req ReadRequest) (ReadResponse, error) {
	if req.Path == "" {
		return ReadResponse{}, guarderr.New(guarderr.CodeToolRequestInvalid, "path is required")
	}
	if req.Offset < 0 || req.Limit < 0 {
		return ReadResponse{}, guarderr.New(guarderr.CodeToolRequestInvalid,
			"offset and limit must be non-negative", guarderr.FieldSource(req.Path))
	}

	ctx, cancel := p.withPolicyTimeout(ctx)
	defer cancel()

	raw, err := p.upstream.Read(ctx, req.Path)
	if err != nil {
		return ReadResponse{}, guarderr.Wrap(err, guarderr.CodeToolUpstreamFailure,
			"read tool failed", guarderr.FieldSource(req.Path))
	}

	content := sliceLines(raw.Content, req.Offset, req.Limit)

	result, err := p.mediator.Mediate(ctx, content, req.Path, "text/plain")
	if err != nil {
		return ReadResponse{}, err
	}

	resp := ReadResponse{
		Content:  result.Content,
		Path:     req.Path,
		Blocked:  result.Blocked,
		Security: result.Security,
	}
	if result.Blocked {
		resp.Error = "content blocked: threats detected (" +
			strings.Join(result.Security.ThreatsDetected, ", ") + ")"
	}
	return resp, nil
}

func (p *ReadProxy) withPolicyTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if t := p.mediator.Policy().Timeout; t > 0 {
		return context.WithTimeout(ctx, t)
	}
	return context.WithCancel(ctx)
}

// sliceLines returns the [offset, offset+limit) line window of content.
// An offset past the end yields the empty string; zero limit means all
// remaining lines.
func sliceLines(content string, offset, limit int) string {
	if offset == 0 && limit == 0 {
		return content
	}
	lines := strings.Split(content, "\n")
	if offset >= len(lines) {
		return ""
	}
	lines = lines[offset:]
	if limit > 0 && limit < len(lines) {
		lines = lines[:limit]
	}
	return strings.Join(lines, "\n")
}
