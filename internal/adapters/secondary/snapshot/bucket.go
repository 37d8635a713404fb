package snapshot

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"

	"github.com/lorrc/sla-notifier/internal/adapters/secondary/storage"
	"github.com/lorrc/sla-notifier/internal/core/domain"
	apperrors "github.com/lorrc/sla-notifier/internal/core/errors"
	"github.com/lorrc/sla-notifier/internal/core/ports"
)

// ObjectReader lists and opens stored objects.
type ObjectReader interface {
	List(ctx context.Context, prefix string) ([]storage.ObjectInfo, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// BucketSource reads the newest export stored under a prefix.
type BucketSource struct {
	objects ObjectReader
	prefix  string
	clock   ports.Clock
	logger  *slog.Logger
}

var _ ports.SnapshotSource = (*BucketSource)(nil)

// NewBucketSource creates a source over objects under prefix.
func NewBucketSource(objects ObjectReader, prefix string, clock ports.Clock, logger *slog.Logger) *BucketSource {
	return &BucketSource{
		objects: objects,
		prefix:  prefix,
		clock:   clock,
		logger:  logger.With("component", "bucket_snapshot_source"),
	}
}

// Fetch downloads and decodes the newest supported object.
func (s *BucketSource) Fetch(ctx context.Context) (*domain.Snapshot, error) {
	objects, err := s.objects.List(ctx, s.prefix)
	if err != nil {
		return nil, err
	}

	var newest *storage.ObjectInfo
	for i := range objects {
		obj := &objects[i]
		if !IsSupported(obj.Key) {
			continue
		}
		if newest == nil || obj.LastModified.After(newest.LastModified) {
			newest = obj
		}
	}
	if newest == nil {
		return nil, fmt.Errorf("%w: no export under %q", apperrors.ErrSnapshotNotFound, s.prefix)
	}

	rc, err := s.objects.Open(ctx, newest.Key)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	records, err := Read(newest.Key, rc)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "snapshot downloaded", "key", newest.Key, "rows", len(records.Rows))
	return &domain.Snapshot{
		Name:      path.Base(newest.Key),
		FetchedAt: s.clock.Now(),
		Records:   records,
	}, nil
}
