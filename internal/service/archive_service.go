package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/Yashwanthh933/chainlink-price-feed-integration/internal/domain"
)

// ArchiveService snapshots aged ledger history to object storage and serves
// the archived files back out.
type ArchiveService struct {
	archiver domain.Archiver
	reader   domain.BlobReader
	journal  domain.EventJournal
	logger   *slog.Logger
}

// NewArchiveService creates an ArchiveService with all required dependencies.
func NewArchiveService(
	archiver domain.Archiver,
	reader domain.BlobReader,
	journal domain.EventJournal,
	logger *slog.Logger,
) *ArchiveService {
	return &ArchiveService{
		archiver: archiver,
		reader:   reader,
		journal:  journal,
		logger:   logger.With(slog.String("component", "archive_service")),
	}
}

// Archive snapshots all history older than the cutoff. It returns the
// archive prefix, empty when nothing qualified.
func (s *ArchiveService) Archive(ctx context.Context, before time.Time) (string, error) {
	prefix, err := s.archiver.Archive(ctx, before)
	if err != nil {
		return "", fmt.Errorf("archive_service: archive before %s: %w", before.Format(time.RFC3339), err)
	}
	return prefix, nil
}

// ListArchives returns metadata for all archived files.
func (s *ArchiveService) ListArchives(ctx context.Context) ([]domain.BlobInfo, error) {
	infos, err := s.reader.List(ctx, "archive/")
	if err != nil {
		return nil, fmt.Errorf("archive_service: list archives: %w", err)
	}
	return infos, nil
}

// OpenArchive streams one archived file. The caller must close the reader.
func (s *ArchiveService) OpenArchive(ctx context.Context, path string) (io.ReadCloser, error) {
	rc, err := s.reader.Get(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("archive_service: open %s: %w", path, err)
	}
	return rc, nil
}

// ListEvents returns journaled ledger events, newest first.
func (s *ArchiveService) ListEvents(ctx context.Context, opts domain.ListOpts) ([]domain.Event, error) {
	evs, err := s.journal.List(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("archive_service: list events: %w", err)
	}
	return evs, nil
}

// RunPeriodic archives history older than retention on every tick of
// interval until the context is cancelled. Intended to be launched from the
// application's errgroup.
func (s *ArchiveService) RunPeriodic(ctx context.Context, interval, retention time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			prefix, err := s.Archive(ctx, time.Now().Add(-retention))
			if err != nil {
				s.logger.ErrorContext(ctx, "periodic archive failed",
					slog.String("error", err.Error()),
				)
				continue
			}
			if prefix != "" {
				s.logger.InfoContext(ctx, "periodic archive complete",
					slog.String("prefix", prefix),
				)
			}
		}
	}
}
