// Package importer converts an uploaded CSV file into user records and
// inserts them as one atomic batch.
package importer

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/userdesk/userdesk/internal/users"
)

// Rejection errors reported to the user before or instead of any write.
var (
	ErrNoFile      = errors.New("no file provided")
	ErrNotCSV      = errors.New("wrong file type")
	ErrNoValidRows = errors.New("no valid rows")
)

// Columns are the recognized CSV header names, matched exactly (case-sensitive).
var Columns = []string{"Name", "Email", "Address", "About", "Number"}

// BulkStore is the persistence dependency of the pipeline.
type BulkStore interface {
	BulkCreate(ctx context.Context, batch []users.User) (int64, error)
}

// Result summarizes one completed import batch.
type Result struct {
	BatchID  string
	Inserted int64
	Skipped  int
}

// Importer runs the CSV import pipeline.
type Importer struct {
	store BulkStore
}

// New constructs an Importer backed by the given store.
func New(store BulkStore) *Importer {
	return &Importer{store: store}
}

// Import parses the uploaded file and bulk-inserts every accepted row.
//
// The first record is the header; recognized columns may appear in any
// order, extras are ignored and duplicates resolve to the last occurrence.
// A row is accepted iff its trimmed Name is non-empty; everything else is
// skipped silently. All accepted rows share one batch timestamp and are
// written in a single all-or-nothing transaction.
func (imp *Importer) Import(ctx context.Context, fileName string, size int64, r io.Reader) (*Result, error) {
	if r == nil || size == 0 {
		return nil, ErrNoFile
	}
	if !strings.EqualFold(filepath.Ext(fileName), ".csv") {
		return nil, ErrNotCSV
	}

	batch, skipped, err := parse(r)
	if err != nil {
		return nil, err
	}
	if len(batch) == 0 {
		return nil, ErrNoValidRows
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	batchID := uuid.New().String()
	logger := slog.Default().With("batch_id", batchID, "file", fileName)

	inserted, err := imp.store.BulkCreate(ctx, batch)
	if err != nil {
		logger.Error("bulk insert failed", "error", err)
		return nil, fmt.Errorf("bulk insert: %w", err)
	}

	logger.Info("import complete", "inserted", inserted, "skipped", skipped)
	return &Result{BatchID: batchID, Inserted: inserted, Skipped: skipped}, nil
}

// parse reads the whole stream and returns accepted records plus the count
// of rows that were skipped (blank name or malformed).
func parse(r io.Reader) ([]users.User, int, error) {
	cr := csv.NewReader(newBOMReader(r))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, 0, nil
	}
	if err != nil {
		return nil, 0, fmt.Errorf("read header: %w", err)
	}

	idx := headerIndex(header)
	createdAt := time.Now().UTC()

	var (
		batch   []users.User
		skipped int
	)
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			// Malformed row: skip, do not abort the import.
			skipped++
			continue
		}
		if err != nil {
			return nil, 0, fmt.Errorf("read row: %w", err)
		}

		name := fieldAt(row, idx, "Name")
		if name == "" {
			skipped++
			continue
		}

		batch = append(batch, users.User{
			Name:      name,
			Email:     fieldAt(row, idx, "Email"),
			Address:   fieldAt(row, idx, "Address"),
			About:     fieldAt(row, idx, "About"),
			Number:    fieldAt(row, idx, "Number"),
			CreatedAt: createdAt,
		})
	}

	return batch, skipped, nil
}

// headerIndex maps recognized column names to their position in the header.
// Matching is exact; on duplicate headers the last occurrence wins.
func headerIndex(header []string) map[string]int {
	recognized := make(map[string]bool, len(Columns))
	for _, c := range Columns {
		recognized[c] = true
	}

	idx := make(map[string]int, len(Columns))
	for i, h := range header {
		h = strings.TrimSpace(h)
		if recognized[h] {
			idx[h] = i
		}
	}
	return idx
}

// fieldAt returns the trimmed cell for a mapped column, or "" when the
// column is absent or the row is too short.
func fieldAt(row []string, idx map[string]int, col string) string {
	pos, ok := idx[col]
	if !ok || pos >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[pos])
}

// newBOMReader skips a UTF-8 byte order mark if present. Windows tools
// commonly prepend one, which would otherwise corrupt the first header name.
func newBOMReader(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	head, err := br.Peek(3)
	if err == nil && head[0] == 0xEF && head[1] == 0xBB && head[2] == 0xBF {
		br.Discard(3)
	}
	return br
}
