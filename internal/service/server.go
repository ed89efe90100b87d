// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OpenClawd Contributors

package service

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/copperfinio/openclawd-llm-guard/internal/scan"
	guarderr "github.com/copperfinio/openclawd-llm-guard/pkg/errors"
	"github.com/copperfinio/openclawd-llm-guard/pkg/health"
)

// Config holds HTTP server configuration.
type Config struct {
	ListenAddr   string
	CORSOrigins  []string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Server wraps a chi router with a huma API over the Service.
type Server struct {
	router chi.Router
	api    huma.API
	cfg    Config
	svc    *Service
}

// NewServer creates a Server with chi router, huma API, and the three
// boundary operations registered.
func NewServer(cfg Config, svc *Service) (*Server, error) {
	if cfg.ListenAddr == "" {
		return nil, guarderr.New(guarderr.CodeServiceConfigInvalid, "listen address is required")
	}
	if svc == nil {
		return nil, guarderr.New(guarderr.CodeServiceConfigInvalid, "service is required")
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 30 * time.Second
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 60 * time.Second
	}

	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	if len(cfg.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: cfg.CORSOrigins,
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type"},
			MaxAge:         300,
		}))
	}

	humaConfig := huma.DefaultConfig("OpenClawd LLM Guard", "1.0.0")
	humaConfig.Info.Description = "Threat assessment service for externally-sourced agent content"
	api := humachi.New(r, humaConfig)

	srv := &Server{router: r, api: api, cfg: cfg, svc: svc}
	srv.registerRoutes()

	return srv, nil
}

// Handler returns the underlying http.Handler for testing.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start runs the HTTP server and blocks until the context is cancelled,
// then performs graceful shutdown.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.ListenAddr)
	if err != nil {
		return guarderr.Wrapf(err, guarderr.CodeServiceStartFailure, "listening on %s", s.cfg.ListenAddr)
	}

	srv := &http.Server{
		Handler:      s.router,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return guarderr.Wrap(err, guarderr.CodeServiceShutdownFailure, "shutting down")
	}

	return <-errCh
}

// --- Request/Response types ---

type scanInputRequest struct {
	Body struct {
		Content     string `json:"content" doc:"Raw content to scan" required:"true"`
		Source      string `json:"source,omitempty" doc:"URL, file path, or label identifying the content origin"`
		ContentType string `json:"content_type,omitempty" doc:"Media-type hint"`
	}
}

type scanOutputRequest struct {
	Body struct {
		Prompt string `json:"prompt" doc:"Prompt that produced the output" required:"true"`
		Output string `json:"output" doc:"Agent-authored text to scan" required:"true"`
	}
}

type scanResponse struct {
	Body scan.Verdict
}

type healthResponse struct {
	Body health.Status
}

func (s *Server) registerRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "scan-input",
		Method:      http.MethodPost,
		Path:        "/scan/input",
		Summary:     "Scan external content for prompt injection and sensitive data",
		Tags:        []string{"scan"},
		Errors:      []int{http.StatusInternalServerError},
	}, s.handleScanInput)

	huma.Register(s.api, huma.Operation{
		OperationID: "scan-output",
		Method:      http.MethodPost,
		Path:        "/scan/output",
		Summary:     "Scan agent output for sensitive data leakage",
		Tags:        []string{"scan"},
		Errors:      []int{http.StatusInternalServerError},
	}, s.handleScanOutput)

	huma.Register(s.api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Liveness probe with scanner counts and uptime",
		Tags:        []string{"system"},
	}, s.handleHealth)
}

func (s *Server) handleScanInput(ctx context.Context, input *scanInputRequest) (*scanResponse, error) {
	verdict, err := s.svc.ScanInput(ctx, scan.Request{
		Content:     input.Body.Content,
		Source:      input.Body.Source,
		ContentType: input.Body.ContentType,
	})
	if err != nil {
		return nil, huma.Error500InternalServerError("scan failed", err)
	}
	return &scanResponse{Body: verdict}, nil
}

func (s *Server) handleScanOutput(ctx context.Context, input *scanOutputRequest) (*scanResponse, error) {
	verdict, err := s.svc.ScanOutput(ctx, input.Body.Prompt, input.Body.Output)
	if err != nil {
		return nil, huma.Error500InternalServerError("scan failed", err)
	}
	return &scanResponse{Body: verdict}, nil
}

func (s *Server) handleHealth(_ context.Context, _ *struct{}) (*healthResponse, error) {
	return &healthResponse{Body: s.svc.Health()}, nil
}
