// Package snapshot copies each profile's live history database into a private
// working directory so readers never touch the file the browser is writing.
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// FileSuffix is appended to the profile id to name its snapshot file.
const FileSuffix = "_History"

// ErrSourceMissing is reported when a profile's live history file does not exist.
var ErrSourceMissing = errors.New("history source missing")

// Source names a profile and the live history file it is copied from.
type Source struct {
	Profile     string
	HistoryPath string
}

// Snapshot is the current copy of a profile's history database.
type Snapshot struct {
	Profile string
	Path    string
	Exists  bool
}

// Outcome is the per-profile result of a refresh. Path is set only when the
// copy succeeded.
type Outcome struct {
	Profile string
	Path    string
	Err     error
}

// OK reports whether the snapshot was written.
func (o Outcome) OK() bool {
	return o.Err == nil && o.Path != ""
}

// Manager owns the snapshot working directory.
type Manager struct {
	dir     string
	sources []Source
	logger  *slog.Logger
}

// New creates a Manager writing into dir. The directory is created on the
// first refresh, not here.
func New(dir string, sources []Source, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		dir:     dir,
		sources: append([]Source(nil), sources...),
		logger:  logger,
	}
}

// Dir returns the working directory.
func (m *Manager) Dir() string {
	return m.dir
}

// Profiles returns the configured profile ids in configuration order.
func (m *Manager) Profiles() []string {
	names := make([]string, len(m.sources))
	for i, s := range m.sources {
		names[i] = s.Profile
	}
	return names
}

// Sources returns a copy of the configured sources.
func (m *Manager) Sources() []Source {
	return append([]Source(nil), m.sources...)
}

// Path returns the deterministic snapshot path for profile.
func (m *Manager) Path(profile string) string {
	return filepath.Join(m.dir, profile+FileSuffix)
}

// Lookup resolves profile to its snapshot. Ids that could escape the working
// directory never resolve.
func (m *Manager) Lookup(profile string) Snapshot {
	snap := Snapshot{Profile: profile}
	if !validProfile(profile) {
		return snap
	}

	snap.Path = m.Path(profile)
	info, err := os.Stat(snap.Path)
	snap.Exists = err == nil && info.Mode().IsRegular()
	return snap
}

// Refresh copies every configured source into the working directory. Failures
// are per profile: they are logged and reported in the outcome, and the
// remaining profiles are still attempted.
func (m *Manager) Refresh(ctx context.Context) []Outcome {
	outcomes := make([]Outcome, 0, len(m.sources))

	if err := os.MkdirAll(m.dir, 0o755); err != nil {
		err = fmt.Errorf("create snapshot directory: %w", err)
		m.logger.Warn("snapshot directory unavailable", "dir", m.dir, "error", err)
		for _, s := range m.sources {
			outcomes = append(outcomes, Outcome{Profile: s.Profile, Err: err})
		}
		return outcomes
	}

	for _, s := range m.sources {
		if err := ctx.Err(); err != nil {
			outcomes = append(outcomes, Outcome{Profile: s.Profile, Err: err})
			continue
		}

		out := m.refreshOne(s)
		switch {
		case out.OK():
			m.logger.Debug("snapshot refreshed", "profile", s.Profile, "path", out.Path)
		case errors.Is(out.Err, ErrSourceMissing):
			m.logger.Info("history source not found", "profile", s.Profile, "source", s.HistoryPath)
		default:
			m.logger.Warn("could not copy history", "profile", s.Profile, "error", out.Err)
		}
		outcomes = append(outcomes, out)
	}

	return outcomes
}

func (m *Manager) refreshOne(s Source) Outcome {
	out := Outcome{Profile: s.Profile}

	if !validProfile(s.Profile) {
		out.Err = fmt.Errorf("invalid profile id %q", s.Profile)
		return out
	}

	info, err := os.Stat(s.HistoryPath)
	if err != nil {
		if os.IsNotExist(err) {
			out.Err = fmt.Errorf("%w: %s", ErrSourceMissing, s.HistoryPath)
		} else {
			out.Err = fmt.Errorf("stat %s history: %w", s.Profile, err)
		}
		return out
	}
	if !info.Mode().IsRegular() {
		out.Err = fmt.Errorf("%w: %s is not a regular file", ErrSourceMissing, s.HistoryPath)
		return out
	}

	dest := m.Path(s.Profile)
	if err := copyReplace(s.HistoryPath, dest, info); err != nil {
		out.Err = fmt.Errorf("copy %s history: %w", s.Profile, err)
		return out
	}

	out.Path = dest
	return out
}

// copyReplace copies src next to dst under a temporary name and renames it
// into place, so a concurrent reader sees either the old or the new file.
func copyReplace(src, dst string, info os.FileInfo) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	tmp, err := os.CreateTemp(filepath.Dir(dst), filepath.Base(dst)+".*.tmp")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if _, err = io.Copy(tmp, in); err != nil {
		return err
	}
	if err = tmp.Sync(); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	if err = os.Chtimes(tmp.Name(), info.ModTime(), info.ModTime()); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), dst)
}

// Available returns the profiles whose snapshot was written, in order.
func Available(outcomes []Outcome) []string {
	available := []string{}
	for _, o := range outcomes {
		if o.OK() {
			available = append(available, o.Profile)
		}
	}
	return available
}

func validProfile(profile string) bool {
	if profile == "" || profile == "." || profile == ".." {
		return false
	}
	return !strings.ContainsAny(profile, `/\`) && !strings.Contains(profile, "..")
}
