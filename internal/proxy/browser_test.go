// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OpenClawd Contributors

package proxy_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/copperfinio/openclawd-llm-guard/internal/mediate"
	"github.com/copperfinio/openclawd-llm-guard/internal/proxy"
	"github.com/copperfinio/openclawd-llm-guard/internal/scan"
	guarderr "github.com/copperfinio/openclawd-llm-guard/pkg/errors"
	"github.com/copperfinio/openclawd-llm-guard/pkg/types"
)

// fakeBrowser returns a scripted action result.
type fakeBrowser struct {
	result proxy.BrowserActionResult
	err    error
}

func (f *fakeBrowser) Perform(context.Context, proxy.BrowserRequest) (proxy.BrowserActionResult, error) {
	return f.result, f.err
}

func newBrowserProxy(t *testing.T, fc mediate.ScanClient, policy mediate.Policy, upstream proxy.BrowserController) *proxy.BrowserProxy {
	t.Helper()
	m, err := mediate.New("browser", fc, policy)
	require.NoError(t, err)
	p, err := proxy.NewBrowserProxy(upstream, m)
	require.NoError(t, err)
	return p
}

func TestBrowserProxy_RejectsUnknownAction(t *testing.T) {
	p := newBrowserProxy(t, cleanClient(""), mediate.Policy{Mode: types.ModeWarn}, &fakeBrowser{})

	_, err := p.Perform(context.Background(), proxy.BrowserRequest{Action: "teleport"})
	require.Error(t, err)
	assert.True(t, guarderr.IsInvalidInput(err))
}

func TestBrowserProxy_TextActionsAreScanned(t *testing.T) {
	for _, action := range []proxy.BrowserAction{
		proxy.ActionSnapshot, proxy.ActionGetText, proxy.ActionEvaluate,
	} {
		t.Run(string(action), func(t *testing.T) {
			text := "page body text"
			fc := cleanClient(text)
			p := newBrowserProxy(t, fc, mediate.Policy{Mode: types.ModeWarn},
				&fakeBrowser{result: proxy.BrowserActionResult{
					Action: action,
					Text:   text,
					URL:    "https://example.com",
				}})

			resp, err := p.Perform(context.Background(), proxy.BrowserRequest{Action: action})
			require.NoError(t, err)

			require.Len(t, fc.scanned, 1)
			require.NotNil(t, resp.Text)
			assert.Equal(t, text, *resp.Text)
			assert.True(t, resp.Security.Scanned)
		})
	}
}

func TestBrowserProxy_NonTextActionsSkipScanning(t *testing.T) {
	fc := cleanClient("")
	p := newBrowserProxy(t, fc, mediate.Policy{Mode: types.ModeWarn},
		&fakeBrowser{result: proxy.BrowserActionResult{
			Action: proxy.ActionScreenshot,
			Image:  []byte{0x89, 'P', 'N', 'G'},
		}})

	resp, err := p.Perform(context.Background(), proxy.BrowserRequest{Action: proxy.ActionScreenshot})
	require.NoError(t, err)

	assert.Empty(t, fc.scanned, "binary responses never reach the scan client")
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, resp.Image)
	assert.False(t, resp.Security.Scanned)
	assert.True(t, resp.Security.IsValid)
	assert.Equal(t, "not scanned: no text content", resp.Security.Notice)
}

func TestBrowserProxy_NavigationAckSkipsScanning(t *testing.T) {
	fc := cleanClient("")
	p := newBrowserProxy(t, fc, mediate.Policy{Mode: types.ModeWarn},
		&fakeBrowser{result: proxy.BrowserActionResult{
			Action: proxy.ActionNavigate,
			URL:    "https://example.com/landing",
		}})

	resp, err := p.Perform(context.Background(), proxy.BrowserRequest{
		Action: proxy.ActionNavigate,
		URL:    "https://example.com",
	})
	require.NoError(t, err)

	assert.Empty(t, fc.scanned)
	assert.Equal(t, "https://example.com/landing", resp.URL)
	assert.Equal(t, "not scanned: no text content", resp.Security.Notice)
}

func TestBrowserProxy_WarnModeAnnotates(t *testing.T) {
	fc := &fakeScanClient{
		healthy: true,
		verdict: scan.Verdict{
			IsValid:          false,
			RiskScore:        1,
			ThreatsDetected:  []string{"Secrets"},
			SanitizedContent: "token: [REDACTED]",
		},
	}
	p := newBrowserProxy(t, fc, mediate.Policy{Mode: types.ModeWarn},
		&fakeBrowser{result: proxy.BrowserActionResult{
			Action: proxy.ActionGetText,
			Text:   "token: xoxb-secret",
		}})

	resp, err := p.Perform(context.Background(), proxy.BrowserRequest{Action: proxy.ActionGetText})
	require.NoError(t, err)

	require.NotNil(t, resp.Text)
	assert.True(t, strings.HasPrefix(*resp.Text, mediate.WarningPrefix))
	assert.Contains(t, *resp.Text, "Secrets")
	assert.Contains(t, *resp.Text, "token: [REDACTED]")
	assert.NotContains(t, *resp.Text, "xoxb-secret")
	assert.False(t, resp.Blocked)
}
