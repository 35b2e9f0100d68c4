package store

import (
	"context"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/farxc/contaazul-sync/internal/ingest"
)

var ErrNotFound = errors.New("resource not found")

type Storage struct {
	Upserts interface {
		EnsureSchema(ctx context.Context, ddl string) error
		Write(ctx context.Context, b *ingest.Batch) (int64, error)
	}

	SyncRuns interface {
		StartRun(ctx context.Context, start ingest.RunStart) (int64, error)
		FinishRun(ctx context.Context, id int64, out ingest.Outcome) error
		GetLatest(ctx context.Context, limit int) ([]SyncRun, error)
	}

	Customers interface {
		GetSummaryByCNPJ(ctx context.Context, cnpj string) (*CustomerSummary, error)
		List(ctx context.Context) ([]CustomerListing, error)
		TopDelinquent(ctx context.Context, limit int) ([]DelinquentCustomer, error)
	}

	Receivables interface {
		GetByID(ctx context.Context, id string) (*Receivable, error)
		ListByCNPJ(ctx context.Context, cnpj string) ([]Receivable, error)
		SearchOverdueByName(ctx context.Context, name string) ([]ReceivableDetail, error)
	}

	CRM interface {
		UpsertAccounts(ctx context.Context, accounts []CRMAccount) (int64, error)
	}

	Delinquents interface {
		Refresh(ctx context.Context, from, to time.Time) (int64, error)
	}

	db *sqlx.DB
}

func NewStorage(db *sqlx.DB) *Storage {
	upserts := NewUpsertStore(db)
	return &Storage{
		Upserts:     upserts,
		SyncRuns:    &SyncRunStore{db: db},
		Customers:   &CustomerStore{db: db},
		Receivables: &ReceivableStore{db: db},
		CRM:         &CRMStore{upserts: upserts},
		Delinquents: &DelinquentStore{db: db},
		db:          db,
	}
}
