package ingest

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/farxc/contaazul-sync/internal/logger"
	"github.com/farxc/contaazul-sync/internal/metrics"
)

// StopReason explains why a fetch stopped paging.
type StopReason string

const (
	StopEmptyPage     StopReason = "empty_page"
	StopShortPage     StopReason = "short_page"
	StopLastPage      StopReason = "last_page"
	StopExhausted     StopReason = "exhausted"
	StopPageCeiling   StopReason = "page_ceiling"
	StopRateLimited   StopReason = "rate_limited"
	StopUpstreamError StopReason = "upstream_error"
	StopCanceled      StopReason = "canceled"
)

// FetchResult summarizes one paged fetch.
type FetchResult struct {
	Pages   int
	Items   int
	Retries int
	Stop    StopReason
}

// PageSource pages through one upstream resource, handing each page to fn
// in order. A non-nil error means the scope was cut short; pages already
// handed to fn stay delivered.
type PageSource interface {
	Fetch(ctx context.Context, res Resource, scope Scope, fn func(items []Record) error) (FetchResult, error)
}

// Writer persists batches.
type Writer interface {
	EnsureSchema(ctx context.Context, ddl string) error
	Write(ctx context.Context, b *Batch) (int64, error)
}

// RunStart describes a sync run about to begin.
type RunStart struct {
	Entity  string
	Trigger string
	Window  *Window
}

// RunRecorder keeps a history of sync runs.
type RunRecorder interface {
	StartRun(ctx context.Context, run RunStart) (int64, error)
	FinishRun(ctx context.Context, id int64, out Outcome) error
}

type Status string

const (
	StatusSuccess Status = "success"
	StatusPartial Status = "partial"
	StatusFailure Status = "failure"
)

type State string

const (
	StateInit         State = "init"
	StateEnsureSchema State = "ensure_schema"
	StateFetchPage    State = "fetch_page"
	StateFlatten      State = "flatten"
	StateWrite        State = "write"
	StateDone         State = "done"
	StateFailed       State = "failed"
)

// Outcome is the result of syncing one entity.
type Outcome struct {
	RunID         int64     `json:"run_id,omitempty"`
	Entity        string    `json:"entity"`
	Status        Status    `json:"status"`
	State         State     `json:"state"`
	Pages         int       `json:"pages"`
	Fetched       int       `json:"fetched"`
	Duplicates    int       `json:"duplicates"`
	Written       int64     `json:"written"`
	WriteErrors   int       `json:"write_errors"`
	AbortedScopes int       `json:"aborted_scopes"`
	Err           error     `json:"-"`
	Error         string    `json:"error,omitempty"`
	StartedAt     time.Time `json:"started_at"`
	FinishedAt    time.Time `json:"finished_at"`
}

// Succeeded is false only for failed runs. Partial runs count as success.
func (o Outcome) Succeeded() bool {
	return o.Status != StatusFailure
}

// Syncer drives one entity at a time through
// init → ensure_schema → (fetch_page → flatten → write)* → done | failed.
type Syncer struct {
	source   PageSource
	writer   Writer
	recorder RunRecorder
	log      *logger.Logger

	// Trigger is stored with every recorded run.
	Trigger string

	pause func(ctx context.Context, d time.Duration) error
}

func NewSyncer(source PageSource, writer Writer, recorder RunRecorder, log *logger.Logger) *Syncer {
	return &Syncer{
		source:   source,
		writer:   writer,
		recorder: recorder,
		log:      log,
		Trigger:  "manual",
		pause:    Sleep,
	}
}

type run struct {
	entity Entity
	out    Outcome
	dedup  *Deduplicator
	log    *logger.Logger
}

func (r *run) transition(to State) {
	if r.out.State == to {
		return
	}
	r.log.Debug("Sync", "state transition: entity=%s from=%s to=%s", r.entity.Name, r.out.State, to)
	r.out.State = to
}

// Sync runs one entity. Upstream aborts and write errors are logged and
// leave a partial outcome; schema errors, cancellation and panics fail it.
func (s *Syncer) Sync(ctx context.Context, e Entity, w Window) (out Outcome) {
	const component = "Sync"

	r := &run{
		entity: e,
		out:    Outcome{Entity: e.Name, State: StateInit, StartedAt: time.Now()},
		dedup:  NewDeduplicator(),
		log:    s.log,
	}

	var window *Window
	if e.Resource.DateScoped() {
		window = &w
	}
	if s.recorder != nil {
		id, err := s.recorder.StartRun(ctx, RunStart{Entity: e.Name, Trigger: s.Trigger, Window: window})
		if err != nil {
			s.log.Warn(component, "Failed to record run start: entity=%s error=%v", e.Name, err)
		}
		r.out.RunID = id
	}

	defer func() {
		if p := recover(); p != nil {
			s.log.Error(component, "Sync panicked: entity=%s panic=%v\n%s", e.Name, p, debug.Stack())
			r.fail(fmt.Errorf("panic: %v", p))
		}
		out = s.finish(r)
	}()

	s.log.Info(component, "Sync started: entity=%s table=%s", e.Name, e.Table.Name)

	r.transition(StateEnsureSchema)
	if err := s.writer.EnsureSchema(ctx, e.Schema); err != nil {
		r.fail(fmt.Errorf("failed to ensure schema for %s: %w", e.Table.Name, err))
		return
	}

	scopes := []Scope{{}}
	if e.Resource.DateScoped() {
		scopes = scopes[:0]
		for _, day := range w.Days() {
			scopes = append(scopes, Scope{Day: day})
		}
	}

	for i, scope := range scopes {
		if i > 0 && e.DayPause > 0 {
			if err := s.pause(ctx, e.DayPause); err != nil {
				r.fail(err)
				return
			}
		}

		r.transition(StateFetchPage)
		res, err := s.source.Fetch(ctx, e.Resource, scope, func(items []Record) error {
			return s.handlePage(ctx, r, items)
		})
		r.out.Pages += res.Pages

		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
				r.fail(err)
				return
			}
			r.out.AbortedScopes++
			s.log.Warn(component, "Scope abandoned: entity=%s scope=%s pages=%d reason=%s error=%v", e.Name, scope, res.Pages, res.Stop, err)
			continue
		}
		s.log.Debug(component, "Scope complete: entity=%s scope=%s pages=%d items=%d stop=%s", e.Name, scope, res.Pages, res.Items, res.Stop)
	}

	r.transition(StateDone)
	return
}

func (s *Syncer) handlePage(ctx context.Context, r *run, items []Record) error {
	const component = "Sync"

	if err := ctx.Err(); err != nil {
		return err
	}

	r.transition(StateFlatten)
	r.out.Fetched += len(items)
	batch := r.entity.NewBatch()
	for _, item := range items {
		if !r.dedup.Offer(item.ID()) {
			r.out.Duplicates++
			continue
		}
		batch.Add(Flatten(item, r.entity))
	}
	if batch.Len() == 0 {
		r.transition(StateFetchPage)
		return nil
	}

	r.transition(StateWrite)
	n, err := s.writer.Write(ctx, batch)
	r.transition(StateFetchPage)
	if err != nil {
		r.out.WriteErrors++
		s.log.Error(component, "Batch write failed, continuing: entity=%s rows=%d error=%v", r.entity.Name, batch.Len(), err)
		return nil
	}
	r.out.Written += n
	return nil
}

func (r *run) fail(err error) {
	r.out.Err = err
	r.transition(StateFailed)
}

func (s *Syncer) finish(r *run) Outcome {
	const component = "Sync"
	out := r.out
	out.FinishedAt = time.Now()

	switch {
	case out.Err != nil:
		out.Status = StatusFailure
		out.Error = out.Err.Error()
		if out.State != StateFailed {
			out.State = StateFailed
		}
	case out.WriteErrors > 0 || out.AbortedScopes > 0:
		out.Status = StatusPartial
	default:
		out.Status = StatusSuccess
	}

	if s.recorder != nil && out.RunID != 0 {
		// Detached so a canceled run still closes its history row.
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.recorder.FinishRun(ctx, out.RunID, out); err != nil {
			s.log.Warn(component, "Failed to record run finish: entity=%s id=%d error=%v", out.Entity, out.RunID, err)
		}
	}
	metrics.SyncRuns.WithLabelValues(out.Entity, string(out.Status)).Inc()

	s.log.Info(component, "Sync finished: entity=%s status=%s pages=%d fetched=%d written=%d duplicates=%d writeErrors=%d abortedScopes=%d duration=%s",
		out.Entity, out.Status, out.Pages, out.Fetched, out.Written, out.Duplicates, out.WriteErrors, out.AbortedScopes, out.FinishedAt.Sub(out.StartedAt).Round(time.Millisecond))
	return out
}

// Sleep waits for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
