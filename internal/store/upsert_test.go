package store

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"

	"github.com/farxc/contaazul-sync/internal/ingest"
)

var fixedNow = time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)

func newMockStore(t *testing.T) (*UpsertStore, sqlmock.Sqlmock) {
	t.Helper()
	raw, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { raw.Close() })

	s := NewUpsertStore(sqlx.NewDb(raw, "postgres"))
	s.now = func() time.Time { return fixedNow }
	return s, mock
}

func parentChildBatch() *ingest.Batch {
	return &ingest.Batch{
		Parent: ingest.RowSet{
			Table:   "notas",
			Key:     "id",
			Columns: []string{"id", "numero"},
			Rows:    []ingest.Row{{"n1", "10"}, {"n2", "11"}},
		},
		Children: []ingest.RowSet{{
			Table:   "notas_itens",
			Key:     "id",
			Columns: []string{"id", "nota_id", "codigo"},
			Rows:    []ingest.Row{{"n1_1", "n1", "A"}},
		}},
	}
}

func TestWriteParentsBeforeChildrenInOneTx(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(
		`INSERT INTO notas (id, numero, created_at, updated_at) VALUES ($1, $2, $3, $4), ($5, $6, $7, $8) `+
			`ON CONFLICT (id) DO UPDATE SET numero = EXCLUDED.numero, updated_at = EXCLUDED.updated_at`)).
		WithArgs("n1", "10", fixedNow, fixedNow, "n2", "11", fixedNow, fixedNow).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta(
		`INSERT INTO notas_itens (id, nota_id, codigo, created_at, updated_at) VALUES ($1, $2, $3, $4, $5) `+
			`ON CONFLICT (id) DO UPDATE SET nota_id = EXCLUDED.nota_id, codigo = EXCLUDED.codigo, updated_at = EXCLUDED.updated_at`)).
		WithArgs("n1_1", "n1", "A", fixedNow, fixedNow).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	n, err := s.Write(context.Background(), parentChildBatch())
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if n != 2 {
		t.Errorf("written = %d, want 2", n)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestWriteRollsBackWholeBatch(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO notas ").WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("INSERT INTO notas_itens ").WillReturnError(errors.New("value too long"))
	mock.ExpectRollback()

	n, err := s.Write(context.Background(), parentChildBatch())
	var werr *WriteError
	if !errors.As(err, &werr) {
		t.Fatalf("err = %v, want *WriteError", err)
	}
	if werr.Table != "notas_itens" || werr.FirstID != "n1_1" {
		t.Errorf("WriteError = %+v", werr)
	}
	if n != 0 {
		t.Errorf("written = %d, want 0", n)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestWriteCollapsesDuplicateKeys(t *testing.T) {
	s, mock := newMockStore(t)
	b := &ingest.Batch{Parent: ingest.RowSet{
		Table:   "things",
		Key:     "id",
		Columns: []string{"id", "nome"},
		Rows:    []ingest.Row{{"1", "old"}, {"2", "b"}, {"1", "new"}},
	}}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO things ").
		WithArgs("2", "b", fixedNow, fixedNow, "1", "new", fixedNow, fixedNow).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	n, err := s.Write(context.Background(), b)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if n != 2 {
		t.Errorf("written = %d, want 2", n)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestWriteChunksBelowParameterLimit(t *testing.T) {
	s, mock := newMockStore(t)
	s.maxParams = 8 // two rows of id, nome, created_at, updated_at

	b := &ingest.Batch{Parent: ingest.RowSet{
		Table:   "things",
		Key:     "id",
		Columns: []string{"id", "nome"},
		Rows:    []ingest.Row{{"1", "a"}, {"2", "b"}, {"3", "c"}},
	}}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO things ").WithArgs("1", "a", fixedNow, fixedNow, "2", "b", fixedNow, fixedNow).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("INSERT INTO things ").WithArgs("3", "c", fixedNow, fixedNow).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if _, err := s.Write(context.Background(), b); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestWriteEmptyBatchIsNoop(t *testing.T) {
	s, mock := newMockStore(t)

	n, err := s.Write(context.Background(), &ingest.Batch{})
	if err != nil || n != 0 {
		t.Errorf("Write = %d, %v", n, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestUpsertQueryNeverUpdatesCreatedAt(t *testing.T) {
	set := ingest.RowSet{Table: "t", Key: "id", Columns: []string{"id", "a", "b"}}
	q := upsertQuery(set, 1)

	if strings.Contains(q, "created_at = EXCLUDED") {
		t.Errorf("created_at must be preserved on conflict: %s", q)
	}
	if strings.Contains(q, "id = EXCLUDED.id") {
		t.Errorf("key must not be updated: %s", q)
	}
	if !strings.Contains(q, "updated_at = EXCLUDED.updated_at") {
		t.Errorf("updated_at must be refreshed: %s", q)
	}
}

func TestEnsureSchema(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS t").WillReturnResult(sqlmock.NewResult(0, 0))

	if err := s.EnsureSchema(context.Background(), "CREATE TABLE IF NOT EXISTS t (id text)"); err != nil {
		t.Fatalf("EnsureSchema: %v", err)
	}
	if err := s.EnsureSchema(context.Background(), "  "); err != nil {
		t.Fatalf("blank schema: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}
