package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/universal-tool-calling-protocol/go-utcp-adapters/src/mcpserver"
)

// Version is reported to MCP clients.
var Version = "dev"

// ServeCmd exposes the loaded tools as an MCP server over stdio, or over
// streamable HTTP when --http is set.
type ServeCmd struct {
	HTTP string `long:"http" description:"Listen address for streamable HTTP instead of stdio, e.g. :8080"`
}

func (c *ServeCmd) Execute(_ []string) error {
	svc, err := serviceSingleton()
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(commandContext(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ts, err := svc.GetTools(ctx, "")
	if err != nil && len(ts) == 0 {
		return err
	}
	if err != nil {
		logger.Error(err, "some tools could not be loaded")
	}
	srv, err := mcpserver.NewServer("utcp-adapters", Version, ts...)
	if err != nil {
		return err
	}
	logger.Info("serving tools", "tools", len(ts), "http", c.HTTP)

	if c.HTTP == "" {
		return srv.ServeStdio(ctx, os.Stdin, stdout)
	}
	httpSrv := &http.Server{Addr: c.HTTP, Handler: srv.HTTPHandler(), ReadHeaderTimeout: 10 * time.Second}
	errCh := make(chan error, 1)
	go func() { errCh <- httpSrv.ListenAndServe() }()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
