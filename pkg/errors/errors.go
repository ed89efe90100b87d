// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OpenClawd Contributors

package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/samber/oops"
)

// Code is the machine-readable identifier for an error.
type Code string

const (
	CodeScanScannerFailure  Code = "scan.scanner.failure"
	CodeScanModelFailure    Code = "scan.model.failure"
	CodeScanPatternsInvalid Code = "scan.patterns.invalid"

	CodeServiceRequestInvalid  Code = "service.request.invalid"
	CodeServiceInternalFailure Code = "service.internal.failure"
	CodeServiceStartFailure    Code = "service.start.failure"
	CodeServiceShutdownFailure Code = "service.shutdown.failure"
	CodeServiceConfigInvalid   Code = "service.config.invalid"

	CodeClientScanUnavailable Code = "client.scan.unavailable"
	CodeClientScanFailure     Code = "client.scan.failure"
	CodeClientResponseInvalid Code = "client.response.invalid"

	CodeMediateContentBlocked  Code = "mediate.content.blocked"
	CodeMediateScanUnavailable Code = "mediate.scan.unavailable"
	CodeMediatePolicyInvalid   Code = "mediate.policy.invalid"

	CodeToolUpstreamFailure Code = "tool.upstream.failure"
	CodeToolRequestInvalid  Code = "tool.request.invalid"

	CodeConfigLoadReadFailure      Code = "config.load.read.failure"
	CodeConfigValidateInvalidValue Code = "config.validate.invalid_value"

	CodeCLIInputInvalid   Code = "cli.input.invalid"
	CodeCLIRequestFailure Code = "cli.request.failure"
)

// Attr is a structured key/value context attached to an error.
type Attr struct {
	Key   string
	Value any
}

// Field creates a structured error field.
func Field(key string, value any) Attr {
	return Attr{Key: key, Value: value}
}

func FieldSource(value string) Attr {
	return Field("source", value)
}

func FieldScanner(value string) Attr {
	return Field("scanner", value)
}

func FieldTool(value string) Attr {
	return Field("tool", value)
}

func FieldStatus(value int) Attr {
	return Field("status", value)
}

func New(code Code, msg string, fields ...Attr) error {
	return oops.Code(code).With(flatten(fields)...).New(msg)
}

func Errorf(code Code, format string, args ...any) error {
	return oops.Code(code).Errorf(format, args...)
}

func Wrap(err error, code Code, msg string, fields ...Attr) error {
	if err == nil {
		return nil
	}

	return oops.Code(code).With(flatten(fields)...).Wrapf(err, "%s", msg)
}

func Wrapf(err error, code Code, format string, args ...any) error {
	if err == nil {
		return nil
	}

	return oops.Code(code).Wrapf(err, format, args...)
}

// With adds structured fields to an existing error chain.
func With(err error, fields ...Attr) error {
	if err == nil {
		return nil
	}

	code := CodeOf(err)
	if code == "" {
		code = CodeServiceInternalFailure
	}

	return oops.Code(code).With(flatten(fields)...).Wrap(err)
}

func CodeOf(err error) Code {
	if err == nil {
		return ""
	}

	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return ""
	}

	if code, ok := oopsErr.Code().(Code); ok {
		return code
	}

	if code, ok := oopsErr.Code().(string); ok {
		return Code(code)
	}

	return Code(fmt.Sprintf("%v", oopsErr.Code()))
}

func FieldsOf(err error) map[string]any {
	if err == nil {
		return nil
	}

	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return nil
	}

	return oopsErr.Context()
}

func HasCode(err error, code Code) bool {
	if err == nil {
		return false
	}
	return CodeOf(err) == code
}

// IsUnavailable reports whether the error indicates the scan service could
// not be reached (timeout, refused connection, cached unhealthy state).
func IsUnavailable(err error) bool {
	return reason(CodeOf(err)) == "unavailable"
}

// IsScanFailure reports whether the scan service was reachable but returned
// an error status.
func IsScanFailure(err error) bool {
	code := CodeOf(err)
	return strings.HasPrefix(string(code), "client.") && reason(code) == "failure"
}

func IsBlocked(err error) bool {
	return reason(CodeOf(err)) == "blocked"
}

func IsInvalidInput(err error) bool {
	r := reason(CodeOf(err))
	return r == "invalid" || r == "invalid_input" || r == "invalid_value" || r == "invalid_format"
}

func IsUpstreamFailure(err error) bool {
	code := CodeOf(err)
	return strings.Contains(string(code), "upstream") && reason(code) == "failure"
}

func HTTPStatus(err error) int {
	switch {
	case IsInvalidInput(err):
		return http.StatusBadRequest
	case IsBlocked(err):
		return http.StatusForbidden
	case IsUnavailable(err):
		return http.StatusServiceUnavailable
	case IsUpstreamFailure(err):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func Join(errs ...error) error {
	return oops.Code(CodeServiceInternalFailure).Wrap(stderrors.Join(errs...))
}

func flatten(fields []Attr) []any {
	pairs := make([]any, 0, len(fields)*2)
	for _, field := range fields {
		if field.Key == "" {
			continue
		}
		pairs = append(pairs, field.Key, field.Value)
	}
	return pairs
}

func reason(code Code) string {
	if code == "" {
		return ""
	}

	raw := string(code)
	idx := strings.LastIndex(raw, ".")
	if idx == -1 || idx == len(raw)-1 {
		return raw
	}
	return raw[idx+1:]
}
