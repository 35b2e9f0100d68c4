package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/farxc/contaazul-sync/internal/db"
	"github.com/farxc/contaazul-sync/internal/ingest"
	"github.com/farxc/contaazul-sync/internal/metrics"
)

// PostgreSQL accepts at most 65535 bind parameters per statement.
const maxBindParams = 65535

// WriteError reports a batch that was rolled back.
type WriteError struct {
	Table   string
	FirstID any
	Err     error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("failed to upsert into %s (first id %v): %v", e.Table, e.FirstID, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// UpsertStore writes ingest batches with INSERT ... ON CONFLICT DO UPDATE.
// It implements ingest.Writer.
type UpsertStore struct {
	db        *sqlx.DB
	maxParams int
	now       func() time.Time
}

func NewUpsertStore(db *sqlx.DB) *UpsertStore {
	return &UpsertStore{db: db, maxParams: maxBindParams, now: time.Now}
}

func (s *UpsertStore) EnsureSchema(ctx context.Context, ddl string) error {
	if strings.TrimSpace(ddl) == "" {
		return nil
	}
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// Write stores the batch in a single transaction, parents before children.
// Rows sharing a key within one table collapse to the last occurrence.
// created_at is only set on insert; updated_at is refreshed on every write.
// It returns the number of parent rows written.
func (s *UpsertStore) Write(ctx context.Context, b *ingest.Batch) (int64, error) {
	if b == nil || b.Len() == 0 {
		return 0, nil
	}

	sets := b.Sets()
	for i := range sets {
		sets[i].Rows = dedupeRows(sets[i].Rows)
	}

	now := s.now()
	current := sets[0]
	err := db.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		for _, set := range sets {
			current = set
			if len(set.Rows) == 0 {
				continue
			}
			if err := s.upsertSet(ctx, tx, set, now); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		metrics.BatchFailures.WithLabelValues(current.Table).Inc()
		var first any
		if len(current.Rows) > 0 {
			first = current.Rows[0][0]
		}
		return 0, &WriteError{Table: current.Table, FirstID: first, Err: err}
	}

	for _, set := range sets {
		metrics.RowsUpserted.WithLabelValues(set.Table).Add(float64(len(set.Rows)))
	}
	return int64(len(sets[0].Rows)), nil
}

func (s *UpsertStore) upsertSet(ctx context.Context, tx *sqlx.Tx, set ingest.RowSet, now time.Time) error {
	perRow := len(set.Columns) + 2
	chunk := s.maxParams / perRow
	if chunk < 1 {
		chunk = 1
	}

	for start := 0; start < len(set.Rows); start += chunk {
		end := min(start+chunk, len(set.Rows))
		rows := set.Rows[start:end]

		query := tx.Rebind(upsertQuery(set, len(rows)))
		args := make([]any, 0, len(rows)*perRow)
		for _, r := range rows {
			args = append(args, r...)
			args = append(args, now, now)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return err
		}
	}
	return nil
}

// upsertQuery builds the statement for n rows with '?' placeholders.
func upsertQuery(set ingest.RowSet, n int) string {
	cols := append(append([]string{}, set.Columns...), "created_at", "updated_at")

	placeholder := "(" + strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ") + ")"
	values := make([]string, n)
	for i := range values {
		values[i] = placeholder
	}

	updates := make([]string, 0, len(cols))
	for _, c := range set.Columns {
		if c == set.Key {
			continue
		}
		updates = append(updates, fmt.Sprintf("%s = EXCLUDED.%s", c, c))
	}
	updates = append(updates, "updated_at = EXCLUDED.updated_at")

	return fmt.Sprintf("INSERT INTO %s (%s) VALUES %s ON CONFLICT (%s) DO UPDATE SET %s",
		set.Table,
		strings.Join(cols, ", "),
		strings.Join(values, ", "),
		set.Key,
		strings.Join(updates, ", "),
	)
}

// dedupeRows keeps the last row per key, in order of that last occurrence.
// The key is always the first column.
func dedupeRows(rows []ingest.Row) []ingest.Row {
	last := make(map[string]int, len(rows))
	for i, r := range rows {
		last[fmt.Sprint(r[0])] = i
	}
	if len(last) == len(rows) {
		return rows
	}
	out := make([]ingest.Row, 0, len(last))
	for i, r := range rows {
		if last[fmt.Sprint(r[0])] == i {
			out = append(out, r)
		}
	}
	return out
}
