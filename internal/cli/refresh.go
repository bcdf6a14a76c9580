package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/runnerr0/archistory/internal/server"
	"github.com/runnerr0/archistory/internal/snapshot"
)

// Execute implements the go-flags Commander interface for RefreshCommand.
func (c *RefreshCommand) Execute(args []string) error {
	a, err := openApp(c.globals)
	if err != nil {
		return err
	}
	return c.executeWithApp(context.Background(), a)
}

// executeWithApp runs the refresh against a provided app (for testing).
func (c *RefreshCommand) executeWithApp(ctx context.Context, a *app) error {
	outcomes := a.snapshots.Refresh(ctx)

	if c.globals != nil && c.globals.JSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(server.NewRefreshResponse(outcomes))
	}

	printOutcomes(outcomes)
	return nil
}

// printOutcomes prints one line per profile.
func printOutcomes(outcomes []snapshot.Outcome) {
	for _, o := range outcomes {
		if o.OK() {
			fmt.Printf("  ✓ %s: %s\n", o.Profile, o.Path)
		} else {
			fmt.Printf("  ✗ %s: not found or could not copy\n", o.Profile)
		}
	}
}
