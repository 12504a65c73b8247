package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Yashwanthh933/chainlink-price-feed-integration/internal/domain"
)

// JournalStore implements domain.EventJournal on the ledger_events table.
// The journal is append-only; events are never updated or deleted except
// by the archiver.
type JournalStore struct {
	pool *pgxpool.Pool
}

// NewJournalStore creates a JournalStore backed by the given connection pool.
func NewJournalStore(pool *pgxpool.Pool) *JournalStore {
	return &JournalStore{pool: pool}
}

const eventSelectCols = `id, event_type, detail, created_at`

func scanEventRows(rows pgx.Rows) ([]domain.Event, error) {
	var evs []domain.Event
	for rows.Next() {
		var (
			ev     domain.Event
			typ    string
			detail []byte
		)
		if err := rows.Scan(&ev.ID, &typ, &detail, &ev.CreatedAt); err != nil {
			return nil, err
		}
		ev.Type = domain.EventType(typ)
		if len(detail) > 0 {
			if err := json.Unmarshal(detail, &ev.Detail); err != nil {
				return nil, fmt.Errorf("decode event %s detail: %w", ev.ID, err)
			}
		}
		evs = append(evs, ev)
	}
	return evs, rows.Err()
}

// Append writes one event to the journal.
func (s *JournalStore) Append(ctx context.Context, ev domain.Event) error {
	detail, err := json.Marshal(ev.Detail)
	if err != nil {
		return fmt.Errorf("postgres: encode event %s detail: %w", ev.ID, err)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO ledger_events (id, event_type, detail, created_at)
		 VALUES ($1, $2, $3, $4)`,
		ev.ID, string(ev.Type), detail, ev.CreatedAt)
	if err != nil {
		return fmt.Errorf("postgres: append event %s: %w", ev.ID, err)
	}
	return nil
}

// List returns journaled events, newest first.
func (s *JournalStore) List(ctx context.Context, opts domain.ListOpts) ([]domain.Event, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+eventSelectCols+` FROM ledger_events
		 ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		opts.Limit, opts.Offset)
	if err != nil {
		return nil, fmt.Errorf("postgres: list events: %w", err)
	}
	defer rows.Close()

	return scanEventRows(rows)
}

// ListBefore returns all events journaled strictly before the cutoff,
// oldest first.
func (s *JournalStore) ListBefore(ctx context.Context, before time.Time) ([]domain.Event, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+eventSelectCols+` FROM ledger_events
		 WHERE created_at < $1 ORDER BY created_at ASC`,
		before)
	if err != nil {
		return nil, fmt.Errorf("postgres: list events before %s: %w", before, err)
	}
	defer rows.Close()

	return scanEventRows(rows)
}

var _ domain.EventJournal = (*JournalStore)(nil)
