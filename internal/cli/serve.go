package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/runnerr0/archistory/internal/server"
)

// Execute implements the go-flags Commander interface for ServeCommand.
func (c *ServeCommand) Execute(args []string) error {
	a, err := openApp(c.globals)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return c.newServer(ctx, a).Start(ctx)
}

// newServer applies flag overrides, performs the startup refresh and returns
// the configured server.
func (c *ServeCommand) newServer(ctx context.Context, a *app) *server.Server {
	if c.Host != "" {
		a.cfg.Server.Host = c.Host
	}
	if c.Port != 0 {
		a.cfg.Server.Port = c.Port
	}

	if !c.NoRefresh {
		fmt.Println("Copying browser history files...")
		printOutcomes(a.snapshots.Refresh(ctx))
		fmt.Println()
	}
	fmt.Printf("Starting server at http://%s\n", a.cfg.Addr())

	return server.New(server.Options{
		Addr:         a.cfg.Addr(),
		Version:      c.version,
		PerPage:      a.cfg.Search.PerPage,
		ReadTimeout:  time.Duration(a.cfg.Server.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(a.cfg.Server.WriteTimeoutSeconds) * time.Second,
		Snapshots:    a.snapshots,
		Searcher:     a.searcher,
		Logger:       a.logger,
	})
}
