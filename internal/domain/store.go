package domain

import (
	"context"
	"io"
	"time"
)

// ListOpts provides pagination for list queries.
type ListOpts struct {
	Limit  int
	Offset int
}

// PurchaseStore persists settled purchase records.
type PurchaseStore interface {
	Insert(ctx context.Context, rec PurchaseRecord) error
	GetByID(ctx context.Context, id string) (PurchaseRecord, error)
	ListByItem(ctx context.Context, itemID uint64, opts ListOpts) ([]PurchaseRecord, error)
	List(ctx context.Context, opts ListOpts) ([]PurchaseRecord, error)
	ListBefore(ctx context.Context, before time.Time) ([]PurchaseRecord, error)
	Count(ctx context.Context) (int64, error)
}

// EventJournal persists the append-only ledger notification history.
type EventJournal interface {
	Append(ctx context.Context, ev Event) error
	List(ctx context.Context, opts ListOpts) ([]Event, error)
	ListBefore(ctx context.Context, before time.Time) ([]Event, error)
}

// EventBus fans ledger notifications out to live subscribers.
type EventBus interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
	StreamAppend(ctx context.Context, stream string, payload []byte) error
}

// RateLimiter provides distributed rate limiting for the API surface.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// BlobWriter uploads archived history to object storage.
type BlobWriter interface {
	Put(ctx context.Context, path string, data io.Reader, contentType string) error
}

// BlobInfo describes an object held in blob storage.
type BlobInfo struct {
	Path         string
	Size         int64
	LastModified time.Time
}

// BlobReader retrieves archived history back out of object storage.
type BlobReader interface {
	Get(ctx context.Context, path string) (io.ReadCloser, error)
	List(ctx context.Context, prefix string) ([]BlobInfo, error)
}

// Archiver snapshots aged ledger history out of the primary store.
type Archiver interface {
	Archive(ctx context.Context, before time.Time) (string, error)
}
