// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OpenClawd Contributors

package mediate

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/copperfinio/openclawd-llm-guard/internal/scan"
	guarderr "github.com/copperfinio/openclawd-llm-guard/pkg/errors"
	"github.com/copperfinio/openclawd-llm-guard/pkg/types"
)

// WarningPrefix opens every WARN-mode annotation so downstream consumers can
// recognize mediated content mechanically.
const WarningPrefix = "[SECURITY WARNING]"

// ScanClient is the slice of the resilient client the mediator consumes.
type ScanClient interface {
	IsHealthy(ctx context.Context) bool
	ScanInput(ctx context.Context, content, source, contentType string) (scan.Verdict, error)
}

// Security is the metadata block adapters attach to every mediated response.
type Security struct {
	Scanned         bool     `json:"scanned"`
	Blocked         bool     `json:"blocked"`
	IsValid         bool     `json:"is_valid"`
	RiskScore       float64  `json:"risk_score"`
	ThreatsDetected []string `json:"threats_detected"`
	Notice          string   `json:"notice,omitempty"`
}

// Result is the mediated value returned to the caller. Content is nil only
// when the request was blocked.
type Result struct {
	Content  *string
	Blocked  bool
	Security Security
}

// Mediator applies one tool's policy to scanned content. Shared safely
// across requests; all per-request state stays on the stack.
type Mediator struct {
	tool   string
	client ScanClient
	policy Policy
}

// New creates a Mediator for the named tool. The policy is validated here:
// a malformed policy is fatal at startup, never defaulted.
func New(tool string, client ScanClient, policy Policy) (*Mediator, error) {
	if tool == "" {
		return nil, guarderr.New(guarderr.CodeMediatePolicyInvalid, "tool name is required")
	}
	if client == nil {
		return nil, guarderr.New(guarderr.CodeMediatePolicyInvalid, "scan client is required",
			guarderr.FieldTool(tool))
	}
	if err := policy.Validate(); err != nil {
		return nil, guarderr.With(err, guarderr.FieldTool(tool))
	}
	return &Mediator{tool: tool, client: client, policy: policy}, nil
}

// Policy returns the mediator's immutable policy.
func (m *Mediator) Policy() Policy { return m.policy }

// Mediate runs the per-request state machine:
//
//	Received → (TrustedBypass | Unreachable→Fallback/Error | Scanned→{Pass,Fail}→{Return,Block,Warn})
//
// The returned error is non-nil only on the strict-fallback branch (scan
// impossible and FallbackOnError disabled). A blocked verdict is normal
// control flow, reported through Result.
func (m *Mediator) Mediate(ctx context.Context, content, source, contentType string) (Result, error) {
	if m.policy.Trusted(source) {
		return m.bypass(content, "not scanned: trusted path"), nil
	}

	if !m.client.IsHealthy(ctx) {
		return m.unavailable(content, "scan service unavailable")
	}

	verdict, err := m.client.ScanInput(ctx, content, source, contentType)
	if err != nil {
		reason := "scan service unavailable"
		if guarderr.IsScanFailure(err) {
			reason = "scan failed"
		}
		slog.Warn("scan attempt failed during mediation",
			"tool", m.tool, "source", source, "error", err)
		return m.unavailable(content, reason)
	}

	return m.resolve(content, verdict), nil
}

// bypass returns content unmodified with an advisory, skipping scanning.
func (m *Mediator) bypass(content, notice string) Result {
	return Result{
		Content: &content,
		Security: Security{
			Scanned:         false,
			IsValid:         true,
			ThreatsDetected: []string{},
			Notice:          notice,
		},
	}
}

// unavailable applies the fallback posture when no verdict could be
// obtained. An aborted scan never defaults to allow silently: permissive
// fallback still annotates the content as unscanned.
func (m *Mediator) unavailable(content, reason string) (Result, error) {
	if m.policy.FallbackOnError {
		return m.bypass(content, "unscanned: "+reason), nil
	}
	return Result{}, guarderr.New(guarderr.CodeMediateScanUnavailable,
		"content withheld: "+reason, guarderr.FieldTool(m.tool))
}

// resolve turns a verdict into the mediated result per the configured mode.
func (m *Mediator) resolve(content string, verdict scan.Verdict) Result {
	sec := Security{
		Scanned:         true,
		IsValid:         verdict.IsValid,
		RiskScore:       verdict.RiskScore,
		ThreatsDetected: verdict.ThreatsDetected,
	}
	if sec.ThreatsDetected == nil {
		sec.ThreatsDetected = []string{}
	}

	if verdict.IsValid {
		// Clean content passes through byte-identical; the sanitized copy is
		// only consulted when a scanner actually failed.
		return Result{Content: &content, Security: sec}
	}

	switch m.policy.Mode {
	case types.ModeBlock:
		sec.Blocked = true
		return Result{Blocked: true, Security: sec}
	default: // types.ModeWarn
		warned := fmt.Sprintf("%s Threats detected: %s\n\n%s",
			WarningPrefix,
			strings.Join(verdict.ThreatsDetected, ", "),
			verdict.SanitizedContent,
		)
		return Result{Content: &warned, Security: sec}
	}
}
