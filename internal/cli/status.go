package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/runnerr0/archistory/internal/storage"
)

// statusJSON is the JSON output structure for the status command.
type statusJSON struct {
	Version     string              `json:"version"`
	SnapshotDir string              `json:"snapshot_dir"`
	Profiles    []profileStatusJSON `json:"profiles"`
}

type profileStatusJSON struct {
	Profile        string `json:"profile"`
	Source         string `json:"source"`
	SourceExists   bool   `json:"source_exists"`
	Snapshot       string `json:"snapshot"`
	SnapshotExists bool   `json:"snapshot_exists"`
	SizeBytes      int64  `json:"size_bytes"`
	Modified       string `json:"modified,omitempty"`
	Visits         int    `json:"visits"`
	Error          string `json:"error,omitempty"`
}

// Execute implements the go-flags Commander interface for StatusCommand.
func (c *StatusCommand) Execute(args []string) error {
	a, err := openApp(c.globals)
	if err != nil {
		return err
	}
	return c.executeWithApp(context.Background(), a)
}

// executeWithApp runs status against a provided app (for testing).
func (c *StatusCommand) executeWithApp(ctx context.Context, a *app) error {
	out := statusJSON{
		Version:     c.version,
		SnapshotDir: a.snapshots.Dir(),
		Profiles:    []profileStatusJSON{},
	}

	for _, src := range a.snapshots.Sources() {
		ps := profileStatusJSON{Profile: src.Profile, Source: src.HistoryPath}
		if _, err := os.Stat(src.HistoryPath); err == nil {
			ps.SourceExists = true
		}

		snap := a.snapshots.Lookup(src.Profile)
		ps.Snapshot = snap.Path
		ps.SnapshotExists = snap.Exists
		if snap.Exists {
			if info, err := os.Stat(snap.Path); err == nil {
				ps.SizeBytes = info.Size()
				ps.Modified = info.ModTime().UTC().Format(time.RFC3339)
			}

			count := a.executor.Count(ctx, snap, storage.MatchAll)
			ps.Visits = count.Count
			if count.Err != nil {
				ps.Error = count.Err.Error()
			}
		}

		out.Profiles = append(out.Profiles, ps)
	}

	if c.globals != nil && c.globals.JSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}
	return c.printStatusHuman(out)
}

func (c *StatusCommand) printStatusHuman(out statusJSON) error {
	fmt.Println("archistory Status")
	fmt.Println("=================")
	fmt.Printf("Version:       %s\n", out.Version)
	fmt.Printf("Snapshots:     %s\n", out.SnapshotDir)

	for _, p := range out.Profiles {
		fmt.Println()
		fmt.Printf("Profile:       %s\n", p.Profile)
		if p.SourceExists {
			fmt.Printf("  Source:      %s\n", p.Source)
		} else {
			fmt.Printf("  Source:      %s (missing)\n", p.Source)
		}

		if !p.SnapshotExists {
			fmt.Println("  Snapshot:    none (run refresh)")
			continue
		}

		age := "unknown"
		if t, err := time.Parse(time.RFC3339, p.Modified); err == nil {
			age = humanize.Time(t)
		}
		fmt.Printf("  Snapshot:    %s (%s, source modified %s)\n", p.Snapshot, humanize.Bytes(uint64(p.SizeBytes)), age)
		if p.Error != "" {
			fmt.Printf("  Visits:      unreadable (%s)\n", p.Error)
		} else {
			fmt.Printf("  Visits:      %s\n", humanize.Comma(int64(p.Visits)))
		}
	}

	return nil
}
