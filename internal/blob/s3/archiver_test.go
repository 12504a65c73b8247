package s3blob

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Yashwanthh933/chainlink-price-feed-integration/internal/domain"
)

type fakeWriter struct {
	puts map[string][]byte
}

func (f *fakeWriter) Put(_ context.Context, path string, data io.Reader, _ string) error {
	buf, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	f.puts[path] = buf
	return nil
}

func (f *fakeWriter) PutMultipart(ctx context.Context, path string, data io.Reader, _ int64) error {
	return f.Put(ctx, path, data, "")
}

type fakePurchases struct {
	recs []domain.PurchaseRecord
}

func (f *fakePurchases) ListBefore(_ context.Context, before time.Time) ([]domain.PurchaseRecord, error) {
	var out []domain.PurchaseRecord
	for _, r := range f.recs {
		if r.CreatedAt.Before(before) {
			out = append(out, r)
		}
	}
	return out, nil
}

type fakeJournal struct {
	appended []domain.Event
	events   []domain.Event
}

func (f *fakeJournal) Append(_ context.Context, ev domain.Event) error {
	f.appended = append(f.appended, ev)
	return nil
}

func (f *fakeJournal) List(context.Context, domain.ListOpts) ([]domain.Event, error) {
	return f.events, nil
}

func (f *fakeJournal) ListBefore(_ context.Context, before time.Time) ([]domain.Event, error) {
	var out []domain.Event
	for _, ev := range f.events {
		if ev.CreatedAt.Before(before) {
			out = append(out, ev)
		}
	}
	return out, nil
}

func testRecord(created time.Time) domain.PurchaseRecord {
	return domain.PurchaseRecord{
		ID:        uuid.New(),
		ItemID:    1,
		Payer:     common.HexToAddress("0x00000000000000000000000000000000000000aa"),
		Paid:      uint256.NewInt(500),
		Owed:      uint256.NewInt(500),
		Refund:    uint256.NewInt(0),
		Rate:      uint256.NewInt(2000),
		CreatedAt: created,
	}
}

func TestArchiveUploadsJSONLAndJournals(t *testing.T) {
	cutoff := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	w := &fakeWriter{puts: make(map[string][]byte)}
	purchases := &fakePurchases{recs: []domain.PurchaseRecord{
		testRecord(cutoff.Add(-time.Hour)),
		testRecord(cutoff.Add(time.Hour)), // too new, stays
	}}
	journal := &fakeJournal{events: []domain.Event{
		{ID: uuid.New(), Type: domain.EventItemAdded, CreatedAt: cutoff.Add(-2 * time.Hour)},
	}}

	a := NewArchiver(w, purchases, journal, journal, slog.New(slog.NewTextHandler(io.Discard, nil)))

	prefix, err := a.Archive(context.Background(), cutoff)
	require.NoError(t, err)
	assert.Equal(t, "archive/2026-06", prefix)

	require.Contains(t, w.puts, "archive/2026-06/purchases.jsonl")
	require.Contains(t, w.puts, "archive/2026-06/events.jsonl")

	// One record qualified, so one JSONL line.
	lines := bytes.Split(bytes.TrimSpace(w.puts["archive/2026-06/purchases.jsonl"]), []byte("\n"))
	assert.Len(t, lines, 1)

	// The archival itself is journaled.
	require.Len(t, journal.appended, 1)
	assert.Equal(t, domain.EventHistoryArchived, journal.appended[0].Type)
	assert.Equal(t, prefix, journal.appended[0].Detail["prefix"])
}

func TestArchiveNothingToDo(t *testing.T) {
	w := &fakeWriter{puts: make(map[string][]byte)}
	a := NewArchiver(w, &fakePurchases{}, &fakeJournal{}, &fakeJournal{},
		slog.New(slog.NewTextHandler(io.Discard, nil)))

	prefix, err := a.Archive(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Empty(t, prefix)
	assert.Empty(t, w.puts)
}

func TestMarshalJSONLOneDocPerLine(t *testing.T) {
	recs := []domain.Event{
		{ID: uuid.New(), Type: domain.EventItemAdded},
		{ID: uuid.New(), Type: domain.EventItemDeleted},
	}
	buf, err := marshalJSONL(recs)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(buf)), "\n")
	assert.Len(t, lines, 2)
	for _, line := range lines {
		assert.True(t, strings.HasPrefix(line, "{"))
		assert.True(t, strings.HasSuffix(line, "}"))
	}
}
