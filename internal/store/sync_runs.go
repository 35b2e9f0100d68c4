package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/farxc/contaazul-sync/internal/ingest"
)

type SyncRunStore struct {
	db *sqlx.DB
}

var (
	TriggerTypeManual    = "manual"
	TriggerTypeScheduled = "scheduled"
	TriggerTypeAPI       = "api"
)

// StatusInProgress marks a run that has not finished yet. Finished runs carry
// an ingest.Status.
var StatusInProgress = "in_progress"

// SyncRun represents the 'sync_runs' table.
type SyncRun struct {
	ID            int64      `db:"id" json:"id"`
	Entity        string     `db:"entity" json:"entity"`
	TriggerType   string     `db:"trigger_type" json:"trigger_type"`
	Status        string     `db:"status" json:"status"`
	WindowFrom    *time.Time `db:"window_from" json:"window_from,omitempty"`
	WindowTo      *time.Time `db:"window_to" json:"window_to,omitempty"`
	Pages         int        `db:"pages" json:"pages"`
	Fetched       int        `db:"fetched" json:"fetched"`
	Duplicates    int        `db:"duplicates" json:"duplicates"`
	Written       int64      `db:"written" json:"written"`
	WriteErrors   int        `db:"write_errors" json:"write_errors"`
	AbortedScopes int        `db:"aborted_scopes" json:"aborted_scopes"`
	ErrorMessage  *string    `db:"error_message" json:"error_message,omitempty"`
	StartedAt     time.Time  `db:"started_at" json:"started_at"`
	FinishedAt    *time.Time `db:"finished_at" json:"finished_at,omitempty"`
}

func (s *SyncRunStore) InsertSyncRun(ctx context.Context, run *SyncRun) error {
	query := `INSERT INTO sync_runs (
		entity,
		trigger_type,
		status,
		window_from,
		window_to
	) VALUES (
		:entity,
		:trigger_type,
		:status,
		:window_from,
		:window_to
	) RETURNING id, started_at`

	rows, err := sqlx.NamedQueryContext(ctx, s.db, query, run)
	if err != nil {
		return fmt.Errorf("failed to insert sync run: %w", err)
	}
	defer rows.Close()

	if rows.Next() {
		if err := rows.Scan(&run.ID, &run.StartedAt); err != nil {
			return fmt.Errorf("failed to scan sync run: %w", err)
		}
	}
	return rows.Err()
}

func (s *SyncRunStore) GetLatest(ctx context.Context, limit int) ([]SyncRun, error) {
	query := `SELECT id, entity, trigger_type, status, window_from, window_to, pages, fetched,
		duplicates, written, write_errors, aborted_scopes, error_message, started_at, finished_at
		FROM sync_runs
		ORDER BY started_at DESC, id DESC
		LIMIT $1`

	runs := []SyncRun{}
	if err := s.db.SelectContext(ctx, &runs, query, limit); err != nil {
		return nil, fmt.Errorf("failed to query sync runs: %w", err)
	}
	return runs, nil
}

// StartRun opens an in-progress history row. It implements
// ingest.RunRecorder together with FinishRun.
func (s *SyncRunStore) StartRun(ctx context.Context, start ingest.RunStart) (int64, error) {
	run := &SyncRun{
		Entity:      start.Entity,
		TriggerType: start.Trigger,
		Status:      StatusInProgress,
	}
	if start.Window != nil {
		from, to := start.Window.From, start.Window.To
		run.WindowFrom, run.WindowTo = &from, &to
	}
	if err := s.InsertSyncRun(ctx, run); err != nil {
		return 0, err
	}
	return run.ID, nil
}

func (s *SyncRunStore) FinishRun(ctx context.Context, id int64, out ingest.Outcome) error {
	query := `UPDATE sync_runs SET
		status = $1,
		pages = $2,
		fetched = $3,
		duplicates = $4,
		written = $5,
		write_errors = $6,
		aborted_scopes = $7,
		error_message = $8,
		finished_at = $9
		WHERE id = $10`

	var errMsg *string
	if out.Error != "" {
		errMsg = &out.Error
	}
	_, err := s.db.ExecContext(ctx, query,
		string(out.Status), out.Pages, out.Fetched, out.Duplicates, out.Written,
		out.WriteErrors, out.AbortedScopes, errMsg, out.FinishedAt, id)
	if err != nil {
		return fmt.Errorf("failed to finish sync run %d: %w", id, err)
	}
	return nil
}
