package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/holiman/uint256"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Yashwanthh933/chainlink-price-feed-integration/internal/domain"
)

// PurchaseStore implements domain.PurchaseStore using PostgreSQL. Amounts
// are stored as NUMERIC(78,0) and moved across the wire as decimal strings
// so no precision is lost.
type PurchaseStore struct {
	pool *pgxpool.Pool
}

// NewPurchaseStore creates a PurchaseStore backed by the given connection
// pool.
func NewPurchaseStore(pool *pgxpool.Pool) *PurchaseStore {
	return &PurchaseStore{pool: pool}
}

const purchaseSelectCols = `id, item_id, payer, paid::text, owed::text, refund::text, rate::text, created_at`

func scanPurchaseRow(row pgx.Row) (domain.PurchaseRecord, error) {
	var (
		rec                      domain.PurchaseRecord
		payer                    string
		paid, owed, refund, rate string
	)
	if err := row.Scan(&rec.ID, &rec.ItemID, &payer, &paid, &owed, &refund, &rate, &rec.CreatedAt); err != nil {
		return domain.PurchaseRecord{}, err
	}

	rec.Payer = common.HexToAddress(payer)
	var err error
	if rec.Paid, err = uint256.FromDecimal(paid); err != nil {
		return domain.PurchaseRecord{}, fmt.Errorf("parse paid %q: %w", paid, err)
	}
	if rec.Owed, err = uint256.FromDecimal(owed); err != nil {
		return domain.PurchaseRecord{}, fmt.Errorf("parse owed %q: %w", owed, err)
	}
	if rec.Refund, err = uint256.FromDecimal(refund); err != nil {
		return domain.PurchaseRecord{}, fmt.Errorf("parse refund %q: %w", refund, err)
	}
	if rec.Rate, err = uint256.FromDecimal(rate); err != nil {
		return domain.PurchaseRecord{}, fmt.Errorf("parse rate %q: %w", rate, err)
	}
	return rec, nil
}

func scanPurchaseRows(rows pgx.Rows) ([]domain.PurchaseRecord, error) {
	var recs []domain.PurchaseRecord
	for rows.Next() {
		rec, err := scanPurchaseRow(rows)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

// Insert persists a settled purchase record.
func (s *PurchaseStore) Insert(ctx context.Context, rec domain.PurchaseRecord) error {
	const query = `
		INSERT INTO purchases (id, item_id, payer, paid, owed, refund, rate, created_at)
		VALUES ($1, $2, $3, $4::numeric, $5::numeric, $6::numeric, $7::numeric, $8)`

	_, err := s.pool.Exec(ctx, query,
		rec.ID, rec.ItemID, rec.Payer.Hex(),
		rec.Paid.Dec(), rec.Owed.Dec(), rec.Refund.Dec(), rec.Rate.Dec(),
		rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: insert purchase %s: %w", rec.ID, err)
	}
	return nil
}

// GetByID returns a purchase record by its id.
func (s *PurchaseStore) GetByID(ctx context.Context, id string) (domain.PurchaseRecord, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return domain.PurchaseRecord{}, fmt.Errorf("postgres: purchase id %q: %w", id, domain.ErrNotFound)
	}

	row := s.pool.QueryRow(ctx,
		`SELECT `+purchaseSelectCols+` FROM purchases WHERE id = $1`, uid)

	rec, err := scanPurchaseRow(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.PurchaseRecord{}, fmt.Errorf("postgres: purchase %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return domain.PurchaseRecord{}, fmt.Errorf("postgres: get purchase %s: %w", id, err)
	}
	return rec, nil
}

// ListByItem returns purchases of one item, newest first.
func (s *PurchaseStore) ListByItem(ctx context.Context, itemID uint64, opts domain.ListOpts) ([]domain.PurchaseRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+purchaseSelectCols+` FROM purchases
		 WHERE item_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		itemID, opts.Limit, opts.Offset)
	if err != nil {
		return nil, fmt.Errorf("postgres: list purchases for item %d: %w", itemID, err)
	}
	defer rows.Close()

	return scanPurchaseRows(rows)
}

// List returns purchases across all items, newest first.
func (s *PurchaseStore) List(ctx context.Context, opts domain.ListOpts) ([]domain.PurchaseRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+purchaseSelectCols+` FROM purchases
		 ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		opts.Limit, opts.Offset)
	if err != nil {
		return nil, fmt.Errorf("postgres: list purchases: %w", err)
	}
	defer rows.Close()

	return scanPurchaseRows(rows)
}

// ListBefore returns all purchases settled strictly before the given cutoff,
// oldest first. Used by the archiver.
func (s *PurchaseStore) ListBefore(ctx context.Context, before time.Time) ([]domain.PurchaseRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+purchaseSelectCols+` FROM purchases
		 WHERE created_at < $1 ORDER BY created_at ASC`,
		before)
	if err != nil {
		return nil, fmt.Errorf("postgres: list purchases before %s: %w", before, err)
	}
	defer rows.Close()

	return scanPurchaseRows(rows)
}

// Count returns the total number of purchase records.
func (s *PurchaseStore) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM purchases`).Scan(&n); err != nil {
		return 0, fmt.Errorf("postgres: count purchases: %w", err)
	}
	return n, nil
}

// Compile-time interface check.
var _ domain.PurchaseStore = (*PurchaseStore)(nil)
