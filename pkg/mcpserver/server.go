// Package mcpserver exposes the tool catalog over MCP and hosts the DrawDB
// remote-control endpoint next to it.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"
	contractx "github.com/tanpawarit/drawdb-mcp/agent/contract"
	progressx "github.com/tanpawarit/drawdb-mcp/agent/progress"
	toolx "github.com/tanpawarit/drawdb-mcp/agent/tool"
	"golang.org/x/sync/errgroup"
)

// RemoteControl is the WebSocket endpoint the DrawDB frontend attaches to.
type RemoteControl interface {
	http.Handler
	contractx.StatusProvider
}

type Server struct {
	cfg     Config
	mcp     *server.MCPServer
	catalog *toolx.Catalog
	remote  RemoteControl
	logger  zerolog.Logger
}

func New(cfg Config, catalog *toolx.Catalog, remote RemoteControl, logger zerolog.Logger) (*Server, error) {
	if catalog == nil {
		return nil, errors.New("tool catalog is required")
	}
	if remote == nil {
		return nil, errors.New("remote control handler is required")
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}
	if cfg.RemoteControlPath == "" {
		cfg.RemoteControlPath = "/remote-control"
	}

	s := &Server{
		cfg: cfg,
		mcp: server.NewMCPServer(
			cfg.Name,
			cfg.Version,
			server.WithToolCapabilities(false),
			server.WithRecovery(),
		),
		catalog: catalog,
		remote:  remote,
		logger:  logger.With().Str("component", "mcpserver").Logger(),
	}

	for _, t := range catalog.Tools() {
		s.mcp.AddTool(mcp.NewToolWithRawSchema(t.Name(), t.Description(), t.InputSchema()), s.handle(t.Name()))
		s.logger.Debug().Str("tool", t.Name()).Msg("registered tool")
	}
	return s, nil
}

func (s *Server) handle(name string) server.ToolHandlerFunc {
	exec := s.catalog.Executor()
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ctx = progressx.WithReporter(ctx, progressx.FromRequest(ctx, req, s.logger))

		out, err := exec(ctx, name, req.GetArguments())
		if err != nil {
			return mcp.NewToolResultError(out.Error), nil
		}

		body, err := json.Marshal(out.Result)
		if err != nil {
			return nil, fmt.Errorf("encode %s result: %w", name, err)
		}
		return mcp.NewToolResultText(string(body)), nil
	}
}

// Run serves until ctx ends (or stdin closes in stdio mode).
func (s *Server) Run(ctx context.Context) error {
	switch s.cfg.Transport {
	case TransportHTTP:
		s.logger.Info().Str("addr", s.cfg.HTTPAddr).Msg("serving MCP over streamable HTTP")
		return s.serveHTTP(ctx, s.cfg.HTTPAddr, s.HTTPHandler())
	default:
		return s.serveStdio(ctx)
	}
}

func (s *Server) serveStdio(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info().Str("addr", s.cfg.RemoteControlAddr).Msg("serving remote control")
		return s.serveHTTP(gctx, s.cfg.RemoteControlAddr, s.RemoteControlHandler())
	})
	g.Go(func() error {
		defer cancel()
		s.logger.Info().Msg("serving MCP over stdio")
		err := server.NewStdioServer(s.mcp).Listen(gctx, os.Stdin, os.Stdout)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	return g.Wait()
}

func (s *Server) serveHTTP(ctx context.Context, addr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// HTTPHandler serves MCP, the remote-control endpoint and health on one mux.
func (s *Server) HTTPHandler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/mcp", server.NewStreamableHTTPServer(s.mcp))
	mux.Handle(s.cfg.RemoteControlPath, s.remote)
	mux.HandleFunc("/healthz", s.health)
	return mux
}

// RemoteControlHandler is the HTTP surface used alongside the stdio transport.
func (s *Server) RemoteControlHandler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle(s.cfg.RemoteControlPath, s.remote)
	mux.HandleFunc("/healthz", s.health)
	return mux
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(struct {
		Status string                     `json:"status"`
		Name   string                     `json:"name"`
		DrawDB contractx.ConnectionStatus `json:"drawdb"`
	}{
		Status: "ok",
		Name:   s.cfg.Name,
		DrawDB: s.remote.Status(),
	})
}

// MCP returns the underlying server, mainly for in-process clients.
func (s *Server) MCP() *server.MCPServer {
	return s.mcp
}
