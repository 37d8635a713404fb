package snapshot

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/lorrc/sla-notifier/internal/core/domain"
	apperrors "github.com/lorrc/sla-notifier/internal/core/errors"
	"github.com/lorrc/sla-notifier/internal/core/ports"
)

// DirectorySource reads snapshots from the local filesystem: either a fixed
// file or the most recently modified export in a directory.
type DirectorySource struct {
	dir    string
	path   string
	clock  ports.Clock
	logger *slog.Logger
}

var _ ports.SnapshotSource = (*DirectorySource)(nil)

// NewDirectorySource watches dir for the newest .csv or .xlsx export.
func NewDirectorySource(dir string, clock ports.Clock, logger *slog.Logger) *DirectorySource {
	return &DirectorySource{dir: dir, clock: clock, logger: logger.With("component", "snapshot_source")}
}

// NewFileSource always reads path.
func NewFileSource(path string, clock ports.Clock, logger *slog.Logger) *DirectorySource {
	return &DirectorySource{path: path, clock: clock, logger: logger.With("component", "snapshot_source")}
}

// Fetch loads the snapshot.
func (s *DirectorySource) Fetch(ctx context.Context) (*domain.Snapshot, error) {
	path := s.path
	if path == "" {
		newest, err := s.newest()
		if err != nil {
			return nil, err
		}
		path = newest
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", apperrors.ErrSnapshotNotFound, path)
		}
		return nil, fmt.Errorf("open snapshot: %w", err)
	}
	defer f.Close()

	records, err := Read(path, f)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "snapshot loaded", "path", path, "rows", len(records.Rows))
	return &domain.Snapshot{
		Name:      filepath.Base(path),
		FetchedAt: s.clock.Now(),
		Records:   records,
	}, nil
}

func (s *DirectorySource) newest() (string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return "", fmt.Errorf("%w: %v", apperrors.ErrSnapshotNotFound, err)
	}

	var (
		best     string
		bestInfo os.FileInfo
	)
	for _, e := range entries {
		name := e.Name()
		// Office keeps "~$name.xlsx" lock files next to open workbooks.
		if e.IsDir() || strings.HasPrefix(name, "~$") || !IsSupported(name) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if bestInfo == nil || info.ModTime().After(bestInfo.ModTime()) ||
			(info.ModTime().Equal(bestInfo.ModTime()) && name > best) {
			best, bestInfo = name, info
		}
	}

	if bestInfo == nil {
		return "", fmt.Errorf("%w: no .csv or .xlsx file in %s", apperrors.ErrSnapshotNotFound, s.dir)
	}
	return filepath.Join(s.dir, best), nil
}
