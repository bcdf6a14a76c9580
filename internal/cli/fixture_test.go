package cli

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/runnerr0/archistory/internal/config"
	"github.com/runnerr0/archistory/internal/storage/historytest"
)

func at(year int, month time.Month, day, hour int) time.Time {
	return time.Date(year, month, day, hour, 0, 0, 0, time.Local)
}

// newTestApp writes live history for profiles "work" and "home" into a temp
// directory and returns an app configured against them. Snapshots are not
// refreshed.
func newTestApp(t *testing.T) *app {
	t.Helper()
	dir := t.TempDir()

	workHistory := historytest.MustWrite(t, filepath.Join(dir, "work", "History"),
		historytest.Visit{URL: "https://go.dev/doc", Title: historytest.Title("Go docs"), Time: at(2024, 3, 1, 9)},
		historytest.Visit{URL: "https://pkg.go.dev/net/http", Title: historytest.Title("net/http"), Time: at(2024, 3, 5, 11)},
	)
	homeHistory := historytest.MustWrite(t, filepath.Join(dir, "home", "History"),
		historytest.Visit{URL: "https://example.com/recipes", Title: historytest.Title("Recipes"), Time: at(2024, 3, 3, 18)},
	)

	cfg := config.DefaultConfig()
	cfg.Profiles = []config.ProfileConfig{
		{Name: "work", History: workHistory},
		{Name: "home", History: homeHistory},
	}
	cfg.Snapshot.Dir = filepath.Join(dir, "snapshots")

	a, err := newApp(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	return a
}
