package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	httpadapter "github.com/aretw0/vaudio/pkg/adapters/http"
	"github.com/aretw0/vaudio/pkg/adapters/mcp"
	"github.com/aretw0/vaudio/pkg/observability"
	"github.com/aretw0/vaudio/pkg/runner"
)

// shutdownTimeout bounds graceful shutdown of the HTTP listeners.
const shutdownTimeout = 5 * time.Second

// ServeOptions configures the 'serve' command.
type ServeOptions struct {
	Options
	Addr string
	// Ready, when set, receives the bound address once the listener is up.
	Ready func(addr string)
}

// Serve runs the engine behind the HTTP control surface until exit or ctx is done.
// Prometheus metrics are served on /metrics.
func Serve(ctx context.Context, opts ServeOptions) error {
	p, err := OpenProject(ctx, opts.Options)
	if err != nil {
		return err
	}
	defer p.Close()

	metrics := observability.NewMetrics()
	detach := metrics.Attach(p.Engine.Bus())
	defer detach()

	handler, err := httpadapter.NewHandler(p.Engine,
		httpadapter.WithLogger(p.Logger),
		httpadapter.WithMetrics(metrics.Handler()),
	)
	if err != nil {
		return err
	}

	ln, err := net.Listen("tcp", opts.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", opts.Addr, err)
	}
	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		p.Logger.Info("http server listening", "address", ln.Addr().String())
		serverErrors <- srv.Serve(ln)
	}()
	if opts.Ready != nil {
		opts.Ready(ln.Addr().String())
	}

	runnerOpts := []runner.Option{runner.WithLogger(p.Logger)}
	bridge, err := connectMQTT(p, opts.Options)
	if err != nil {
		_ = srv.Close()
		return err
	}
	if bridge != nil {
		defer bridge.Close()
		runnerOpts = append(runnerOpts, runner.WithSource(bridge.Source))
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	runErr := make(chan error, 1)
	go func() {
		runErr <- runner.NewRunner(runnerOpts...).Run(ctx, p.Engine)
	}()

	var result error
	select {
	case err := <-serverErrors:
		cancel()
		<-runErr
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case result = <-runErr:
	}

	shutdownCtx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		p.Logger.Warn("graceful shutdown did not complete", "timeout", shutdownTimeout, "error", err)
		_ = srv.Close()
	}
	p.Logger.Info("http server stopped")
	return result
}

// Transports accepted by the 'mcp' command.
const (
	TransportStdio = "stdio"
	TransportSSE   = "sse"
)

// MCPOptions configures the 'mcp' command.
type MCPOptions struct {
	Options
	Transport string
	Port      int
}

// ServeMCP exposes the engine as an MCP server until the client disconnects or ctx is done.
func ServeMCP(ctx context.Context, opts MCPOptions) error {
	p, err := OpenProject(ctx, opts.Options)
	if err != nil {
		return err
	}
	defer p.Close()

	if err := p.Engine.Start(ctx); err != nil {
		return err
	}
	defer p.Engine.Stop()

	srv := mcp.NewServer(p.Engine, mcp.WithLogger(p.Logger))
	switch opts.Transport {
	case "", TransportStdio:
		p.Logger.Info("starting MCP server (stdio)")
		return srv.ServeStdio()
	case TransportSSE:
		p.Logger.Info("starting MCP server (SSE)", "port", opts.Port)
		if err := srv.ServeSSE(ctx, opts.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
	return fmt.Errorf("unknown transport: %s. Supported: stdio, sse", opts.Transport)
}
