package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Yashwanthh933/chainlink-price-feed-integration/internal/domain"
)

// multipartThreshold is the payload size above which uploads switch to the
// multipart manager.
const multipartThreshold = 5 * 1024 * 1024

// archiveWriter is the slice of Writer the archiver needs. Split out so the
// upload path can be exercised without object storage.
type archiveWriter interface {
	Put(ctx context.Context, path string, data io.Reader, contentType string) error
	PutMultipart(ctx context.Context, path string, data io.Reader, partSize int64) error
}

// PurchaseArchiveStore provides the read access the archiver needs from the
// purchase store. The Postgres store satisfies it implicitly.
type PurchaseArchiveStore interface {
	ListBefore(ctx context.Context, before time.Time) ([]domain.PurchaseRecord, error)
}

// EventArchiveStore provides read access to journaled events for archival.
type EventArchiveStore interface {
	ListBefore(ctx context.Context, before time.Time) ([]domain.Event, error)
}

// ArchiveImpl implements domain.Archiver by querying the primary stores for
// aged records, serializing them to JSONL, and uploading the result to the
// configured bucket.
//
// Deletion of the archived records from the primary store is intentionally
// NOT performed here. That is a separate, explicit step to be executed after
// the archive has been verified.
type ArchiveImpl struct {
	writer    archiveWriter
	purchases PurchaseArchiveStore
	events    EventArchiveStore
	journal   domain.EventJournal
	logger    *slog.Logger
}

// NewArchiver creates a new ArchiveImpl.
func NewArchiver(
	writer archiveWriter,
	purchases PurchaseArchiveStore,
	events EventArchiveStore,
	journal domain.EventJournal,
	logger *slog.Logger,
) *ArchiveImpl {
	return &ArchiveImpl{
		writer:    writer,
		purchases: purchases,
		events:    events,
		journal:   journal,
		logger:    logger.With("component", "archiver"),
	}
}

// Archive snapshots all purchases and journaled events recorded strictly
// before the cutoff into JSONL files under archive/<YYYY-MM>/ and records
// the archival in the event journal. It returns the archive prefix, or an
// empty string when there was nothing to archive.
func (a *ArchiveImpl) Archive(ctx context.Context, before time.Time) (string, error) {
	purchases, err := a.purchases.ListBefore(ctx, before)
	if err != nil {
		return "", fmt.Errorf("s3blob: archive purchases query: %w", err)
	}
	events, err := a.events.ListBefore(ctx, before)
	if err != nil {
		return "", fmt.Errorf("s3blob: archive events query: %w", err)
	}
	if len(purchases) == 0 && len(events) == 0 {
		return "", nil
	}

	prefix := fmt.Sprintf("archive/%s", before.Format("2006-01"))

	if len(purchases) > 0 {
		if err := uploadJSONL(ctx, a.writer, prefix+"/purchases.jsonl", purchases); err != nil {
			return "", err
		}
	}
	if len(events) > 0 {
		if err := uploadJSONL(ctx, a.writer, prefix+"/events.jsonl", events); err != nil {
			return "", err
		}
	}

	ev := domain.Event{
		ID:   uuid.New(),
		Type: domain.EventHistoryArchived,
		Detail: map[string]any{
			"prefix":    prefix,
			"purchases": len(purchases),
			"events":    len(events),
			"before":    before.Format(time.RFC3339),
		},
		CreatedAt: time.Now().UTC(),
	}
	if err := a.journal.Append(ctx, ev); err != nil {
		return prefix, fmt.Errorf("s3blob: archive journal append: %w", err)
	}

	a.logger.Info("history archived",
		"prefix", prefix,
		"purchases", len(purchases),
		"events", len(events),
	)
	return prefix, nil
}

func uploadJSONL[T any](ctx context.Context, w archiveWriter, path string, records []T) error {
	buf, err := marshalJSONL(records)
	if err != nil {
		return fmt.Errorf("s3blob: archive marshal %s: %w", path, err)
	}

	if int64(len(buf)) > multipartThreshold {
		if err := w.PutMultipart(ctx, path, bytes.NewReader(buf), multipartThreshold); err != nil {
			return fmt.Errorf("s3blob: archive upload %s: %w", path, err)
		}
		return nil
	}
	if err := w.Put(ctx, path, bytes.NewReader(buf), "application/x-ndjson"); err != nil {
		return fmt.Errorf("s3blob: archive upload %s: %w", path, err)
	}
	return nil
}

// marshalJSONL serialises a slice of values as newline-delimited JSON, one
// compact JSON document per line.
func marshalJSONL[T any](records []T) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	for i, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return nil, fmt.Errorf("jsonl encode record %d: %w", i, err)
		}
	}
	return buf.Bytes(), nil
}

// Compile-time interface check.
var _ domain.Archiver = (*ArchiveImpl)(nil)
