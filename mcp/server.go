// Package mcp serves the Velixar memory tools over the Model Context Protocol.
package mcp

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog/log"

	"github.com/VelixarAi/velixar-client/client"
	"github.com/VelixarAi/velixar-client/internal/app"
	"github.com/VelixarAi/velixar-client/internal/config"
	"github.com/VelixarAi/velixar-client/mcp/internal/handlers"
)

// serverConfig holds the transport settings, parsed with the VELIXAR_MCP_ prefix.
type serverConfig struct {
	Name            string        `envconfig:"SERVER_NAME" default:"velixar-mcp-server"`
	Version         string        `envconfig:"SERVER_VERSION" default:"0.1.0"`
	Addr            string        `envconfig:"ADDR" default:"127.0.0.1:11546"`
	Stdio           string        `envconfig:"STDIO"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
	HTTPReadTimeout time.Duration `envconfig:"HTTP_READ_TIMEOUT" default:"5s"`
	HTTPIdleTimeout time.Duration `envconfig:"HTTP_IDLE_TIMEOUT" default:"120s"`
}

func loadServerConfig() (*serverConfig, error) {
	var sc serverConfig
	if err := envconfig.Process("VELIXAR_MCP", &sc); err != nil {
		return nil, fmt.Errorf("failed to process MCP environment variables: %w", err)
	}
	return &sc, nil
}

type toolRegisterer interface {
	RegisterTools(s *server.MCPServer) error
}

// NewServer builds an MCP server exposing the memory tools backed by a.
func NewServer(a *app.App, name, version string) (*server.MCPServer, error) {
	s := server.NewMCPServer(name, version, server.WithToolCapabilities(true))

	regs := []struct {
		name string
		h    toolRegisterer
	}{
		{"memory", handlers.NewMemoryHandler(a.Client, a.Refresh, a.Index.Groups, client.Tier(a.Config.DefaultTier))},
		{"search", handlers.NewSearchHandler(a.Client, a.Config.QuickSearchLimit)},
		{"status", handlers.NewStatusHandler(a.Monitor)},
	}
	for _, r := range regs {
		if err := r.h.RegisterTools(s); err != nil {
			return nil, fmt.Errorf("register %s tools: %w", r.name, err)
		}
	}
	return s, nil
}

// RunMCPServer loads configuration and serves until interrupted.
func RunMCPServer() error {
	cfg, err := config.New()
	if err != nil {
		return err
	}
	sc, err := loadServerConfig()
	if err != nil {
		return err
	}
	// stdout carries the stdio protocol.
	config.InitLoggerTo(os.Stderr)
	config.SetLogLevel(cfg.Level())
	cfg.Log()

	a, err := app.New(cfg, app.Options{})
	if err != nil {
		log.Error().Stack().Err(err).Msg("Failed to create app")
		return err
	}
	defer a.Close()

	s, err := NewServer(a, sc.Name, sc.Version)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if shouldUseStdio(sc.Stdio) {
		log.Info().Msg("Starting Velixar MCP server (stdio transport)")
		return server.ServeStdio(s)
	}
	return serveHTTP(ctx, s, sc)
}

func serveHTTP(ctx context.Context, s *server.MCPServer, sc *serverConfig) error {
	log.Info().Str("addr", sc.Addr).Msg("Starting Velixar MCP server (Streamable HTTP)")

	streamSrv := server.NewStreamableHTTPServer(
		s,
		server.WithEndpointPath("/mcp"),
		server.WithHeartbeatInterval(30*time.Second),
	)
	// No write deadline: responses may stream.
	srv := &http.Server{
		Addr:        sc.Addr,
		Handler:     streamSrv,
		ReadTimeout: sc.HTTPReadTimeout,
		IdleTimeout: sc.HTTPIdleTimeout,
	}

	shutdownComplete := make(chan struct{})
	go func() {
		defer close(shutdownComplete)
		<-ctx.Done()
		log.Info().Msg("Received shutdown signal")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), sc.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Error during HTTP server shutdown")
		}
		if err := streamSrv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Error during MCP server shutdown")
		}
	}()

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	<-shutdownComplete
	log.Info().Msg("MCP server shutdown complete")
	return nil
}

// shouldUseStdio reports whether to serve over stdio. An explicit
// VELIXAR_MCP_STDIO wins; otherwise stdio is used when stdin is not a terminal.
func shouldUseStdio(force string) bool {
	switch force {
	case "true":
		return true
	case "false":
		return false
	}
	if fi, err := os.Stdin.Stat(); err == nil {
		return (fi.Mode() & os.ModeCharDevice) == 0
	}
	return false
}
