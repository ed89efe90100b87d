// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OpenClawd Contributors

package proxy_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/copperfinio/openclawd-llm-guard/internal/mediate"
	"github.com/copperfinio/openclawd-llm-guard/internal/proxy"
	"github.com/copperfinio/openclawd-llm-guard/internal/scan"
	guarderr "github.com/copperfinio/openclawd-llm-guard/pkg/errors"
	"github.com/copperfinio/openclawd-llm-guard/pkg/types"
)

// fakeReader returns scripted file content.
type fakeReader struct {
	content string
	err     error
}

func (f *fakeReader) Read(context.Context, string) (proxy.ReadResult, error) {
	if f.err != nil {
		return proxy.ReadResult{}, f.err
	}
	return proxy.ReadResult{Content: f.content}, nil
}

func newReadProxy(t *testing.T, fc mediate.ScanClient, policy mediate.Policy, upstream proxy.FileReader) *proxy.ReadProxy {
	t.Helper()
	m, err := mediate.New("read", fc, policy)
	require.NoError(t, err)
	p, err := proxy.NewReadProxy(upstream, m)
	require.NoError(t, err)
	return p
}

func TestReadProxy_CleanFile(t *testing.T) {
	content := "line one\nline two\n"
	fc := cleanClient(content)
	p := newReadProxy(t, fc, mediate.Policy{Mode: types.ModeWarn}, &fakeReader{content: content})

	resp, err := p.Read(context.Background(), proxy.ReadRequest{Path: "/tmp/notes.txt"})
	require.NoError(t, err)

	require.NotNil(t, resp.Content)
	assert.Equal(t, content, *resp.Content)
	assert.Equal(t, "/tmp/notes.txt", resp.Path)
	assert.False(t, resp.Blocked)
}

func TestReadProxy_Validation(t *testing.T) {
	p := newReadProxy(t, cleanClient(""), mediate.Policy{Mode: types.ModeWarn}, &fakeReader{})

	_, err := p.Read(context.Background(), proxy.ReadRequest{})
	require.Error(t, err, "empty path")
	assert.True(t, guarderr.IsInvalidInput(err))

	_, err = p.Read(context.Background(), proxy.ReadRequest{Path: "/x", Offset: -1})
	require.Error(t, err, "negative offset")

	_, err = p.Read(context.Background(), proxy.ReadRequest{Path: "/x", Limit: -5})
	require.Error(t, err, "negative limit")
}

func TestReadProxy_SlicesBeforeScanning(t *testing.T) {
	fc := cleanClient("")
	fc.verdict = scan.Verdict{IsValid: true, ThreatsDetected: []string{}, SanitizedContent: "c\nd"}
	p := newReadProxy(t, fc, mediate.Policy{Mode: types.ModeWarn},
		&fakeReader{content: "a\nb\nc\nd\ne"})

	resp, err := p.Read(context.Background(), proxy.ReadRequest{Path: "/tmp/big.txt", Offset: 2, Limit: 2})
	require.NoError(t, err)

	require.Len(t, fc.scanned, 1)
	assert.Equal(t, "c\nd", fc.scanned[0], "the verdict covers exactly the window the caller receives")
	require.NotNil(t, resp.Content)
	assert.Equal(t, "c\nd", *resp.Content)
}

func TestReadProxy_SliceEdgeCases(t *testing.T) {
	tests := []struct {
		name    string
		offset  int
		limit   int
		content string
		want    string
	}{
		{"whole file", 0, 0, "a\nb\nc", "a\nb\nc"},
		{"offset only", 1, 0, "a\nb\nc", "b\nc"},
		{"offset past end", 10, 0, "a\nb", ""},
		{"limit past end", 1, 99, "a\nb\nc", "b\nc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fc := cleanClient("")
			fc.verdict = scan.Verdict{IsValid: true, ThreatsDetected: []string{}, SanitizedContent: tt.want}
			p := newReadProxy(t, fc, mediate.Policy{Mode: types.ModeWarn},
				&fakeReader{content: tt.content})

			_, err := p.Read(context.Background(), proxy.ReadRequest{
				Path: "/tmp/f.txt", Offset: tt.offset, Limit: tt.limit,
			})
			require.NoError(t, err)
			require.Len(t, fc.scanned, 1)
			assert.Equal(t, tt.want, fc.scanned[0])
		})
	}
}

func TestReadProxy_TrustedPathSkipsScanning(t *testing.T) {
	content := "workspace file, agent-owned"
	fc := &fakeScanClient{healthy: false} // would fail the run if consulted
	p := newReadProxy(t, fc, mediate.Policy{
		Mode:         types.ModeWarn,
		TrustedPaths: []string{"/workspace/"},
	}, &fakeReader{content: content})

	resp, err := p.Read(context.Background(), proxy.ReadRequest{Path: "/workspace/main.go"})
	require.NoError(t, err)

	assert.Empty(t, fc.scanned)
	require.NotNil(t, resp.Content)
	assert.Equal(t, content, *resp.Content)
	assert.False(t, resp.Security.Scanned)
	assert.Equal(t, "not scanned: trusted path", resp.Security.Notice)
}

func TestReadProxy_UntrustedPathIsScanned(t *testing.T) {
	fc := cleanClient("downloaded text")
	p := newReadProxy(t, fc, mediate.Policy{
		Mode:         types.ModeWarn,
		TrustedPaths: []string{"/workspace/"},
	}, &fakeReader{content: "downloaded text"})

	_, err := p.Read(context.Background(), proxy.ReadRequest{Path: "/downloads/readme.md"})
	require.NoError(t, err)
	assert.Len(t, fc.scanned, 1)
}

func TestReadProxy_BlockedFile(t *testing.T) {
	fc := &fakeScanClient{
		healthy: true,
		verdict: scan.Verdict{
			IsValid:          false,
			RiskScore:        1,
			ThreatsDetected:  []string{"InvisibleText"},
			SanitizedContent: "hidden payload",
		},
	}
	p := newReadProxy(t, fc, mediate.Policy{Mode: types.ModeBlock},
		&fakeReader{content: "hidden payload"})

	resp, err := p.Read(context.Background(), proxy.ReadRequest{Path: "/downloads/sneaky.txt"})
	require.NoError(t, err)

	assert.Nil(t, resp.Content)
	assert.True(t, resp.Blocked)
	assert.Equal(t, "content blocked: threats detected (InvisibleText)", resp.Error)
}

func TestReadProxy_UpstreamFailure(t *testing.T) {
	p := newReadProxy(t, cleanClient(""), mediate.Policy{Mode: types.ModeWarn},
		&fakeReader{err: errors.New("permission denied")})

	_, err := p.Read(context.Background(), proxy.ReadRequest{Path: "/etc/shadow"})
	require.Error(t, err)
	assert.True(t, guarderr.IsUpstreamFailure(err))
}
