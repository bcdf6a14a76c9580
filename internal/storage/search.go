package storage

import (
	"context"
	"log/slog"
	"math"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/runnerr0/archistory/internal/snapshot"
)

// DefaultParallelism bounds how many profiles are queried at once.
const DefaultParallelism = 4

// SnapshotResolver maps a profile id to its current snapshot.
type SnapshotResolver interface {
	Lookup(profile string) snapshot.Snapshot
}

// SearcherOptions configures a Searcher.
type SearcherOptions struct {
	Parallelism int
	Logger      *slog.Logger
}

// Searcher merges per-profile results into a single time-ordered page.
type Searcher struct {
	resolver    SnapshotResolver
	exec        *Executor
	parallelism int
	logger      *slog.Logger
}

// NewSearcher creates a Searcher.
func NewSearcher(resolver SnapshotResolver, exec *Executor, opts SearcherOptions) *Searcher {
	if opts.Parallelism < 1 {
		opts.Parallelism = DefaultParallelism
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Searcher{
		resolver:    resolver,
		exec:        exec,
		parallelism: opts.Parallelism,
		logger:      opts.Logger,
	}
}

// Search returns one page of visits matching f across f.Profiles.
//
// Profiles without a snapshot are skipped. With a single profile the page is
// fetched directly with LIMIT/OFFSET. With several, each profile supplies its
// newest Page*PerPage matches, which are merged, re-sorted and windowed; the
// per-profile fetch grows with page depth. A page too deep to address
// returns no records with the real total.
//
// Per-profile failures are logged and treated as empty; they never fail the
// search.
func (s *Searcher) Search(ctx context.Context, f Filter) SearchPage {
	f = f.normalized()

	snaps := s.resolve(f.Profiles)
	if len(snaps) == 0 {
		return newPage(f, nil, 0)
	}

	p := BuildPredicate(f)
	if f.Page > math.MaxInt/f.PerPage {
		return newPage(f, nil, s.countAll(ctx, snaps, p))
	}
	offset := (f.Page - 1) * f.PerPage

	if len(snaps) == 1 {
		count := s.exec.Count(ctx, snaps[0], p)
		s.report(count.Profile, "count", count.Err)

		fetch := s.exec.Fetch(ctx, snaps[0], p, f.PerPage, offset)
		s.report(fetch.Profile, "fetch", fetch.Err)

		return newPage(f, fetch.Records, count.Count)
	}

	counts := make([]CountResult, len(snaps))
	fetches := make([]FetchResult, len(snaps))
	limit := f.Page * f.PerPage

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.parallelism)
	for i, snap := range snaps {
		g.Go(func() error {
			counts[i] = s.exec.Count(gctx, snap, p)
			return nil
		})
		g.Go(func() error {
			fetches[i] = s.exec.Fetch(gctx, snap, p, limit, 0)
			return nil
		})
	}
	g.Wait() //nolint:errcheck

	total := 0
	var merged []VisitRecord
	for i := range snaps {
		s.report(counts[i].Profile, "count", counts[i].Err)
		s.report(fetches[i].Profile, "fetch", fetches[i].Err)
		total += counts[i].Count
		merged = append(merged, fetches[i].Records...)
	}

	sort.SliceStable(merged, func(a, b int) bool {
		return merged[a].VisitTime.After(merged[b].VisitTime)
	})

	return newPage(f, window(merged, offset, f.PerPage), total)
}

func (s *Searcher) countAll(ctx context.Context, snaps []snapshot.Snapshot, p Predicate) int {
	total := 0
	for _, snap := range snaps {
		count := s.exec.Count(ctx, snap, p)
		s.report(count.Profile, "count", count.Err)
		total += count.Count
	}
	return total
}

// resolve keeps the profiles that currently have a snapshot, in order.
func (s *Searcher) resolve(profiles []string) []snapshot.Snapshot {
	snaps := make([]snapshot.Snapshot, 0, len(profiles))
	for _, profile := range profiles {
		snap := s.resolver.Lookup(profile)
		if !snap.Exists {
			s.logger.Debug("profile has no snapshot, skipping", "profile", profile)
			continue
		}
		snaps = append(snaps, snap)
	}
	return snaps
}

func (s *Searcher) report(profile, op string, err error) {
	if err != nil {
		s.logger.Warn("profile query failed", "profile", profile, "op", op, "error", err)
	}
}

func window(records []VisitRecord, offset, size int) []VisitRecord {
	if offset < 0 || offset >= len(records) {
		return []VisitRecord{}
	}
	end := offset + size
	if end > len(records) {
		end = len(records)
	}
	return records[offset:end]
}
