package ingest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/farxc/contaazul-sync/internal/logger"
)

type fakeSource struct {
	pages map[string][][]Record
	errs  map[string]error
	calls []string
}

func (f *fakeSource) Fetch(ctx context.Context, res Resource, scope Scope, fn func([]Record) error) (FetchResult, error) {
	key := scope.String()
	f.calls = append(f.calls, key)
	var result FetchResult
	for _, p := range f.pages[key] {
		result.Pages++
		result.Items += len(p)
		if err := fn(p); err != nil {
			return result, err
		}
	}
	if err := f.errs[key]; err != nil {
		result.Stop = StopUpstreamError
		return result, err
	}
	result.Stop = StopEmptyPage
	return result, nil
}

type fakeWriter struct {
	schemaErr error
	failCalls map[int]error
	panicOn   int
	batches   []*Batch
	calls     int
}

func (w *fakeWriter) EnsureSchema(context.Context, string) error { return w.schemaErr }

func (w *fakeWriter) Write(_ context.Context, b *Batch) (int64, error) {
	w.calls++
	if w.panicOn == w.calls {
		panic("driver exploded")
	}
	if err := w.failCalls[w.calls]; err != nil {
		return 0, err
	}
	w.batches = append(w.batches, b)
	return int64(b.Len()), nil
}

func (w *fakeWriter) ids() []string {
	var ids []string
	for _, b := range w.batches {
		for _, r := range b.Parent.Rows {
			ids = append(ids, r[0].(string))
		}
	}
	return ids
}

type fakeRecorder struct {
	started  []RunStart
	finished []Outcome
}

func (r *fakeRecorder) StartRun(_ context.Context, run RunStart) (int64, error) {
	r.started = append(r.started, run)
	return int64(len(r.started)), nil
}

func (r *fakeRecorder) FinishRun(_ context.Context, id int64, out Outcome) error {
	r.finished = append(r.finished, out)
	return nil
}

func recs(ids ...string) []Record {
	out := make([]Record, len(ids))
	for i, id := range ids {
		out[i] = Record{"id": id, "nome": "n" + id}
	}
	return out
}

func testEntity(dateScoped bool) Entity {
	e := Entity{
		Name:     "things",
		Resource: Resource{Name: "things", Path: "/things", PageParam: "p", PageSize: 2},
		Table:    Table{Name: "things", Key: "id", Columns: []Column{Col("id"), Col("nome")}},
		Schema:   "CREATE TABLE IF NOT EXISTS things (id text primary key)",
	}
	if dateScoped {
		e.Resource.DateFromParam = "de"
		e.Resource.DateToParam = "ate"
		e.DayPause = time.Millisecond
	}
	return e
}

func newTestSyncer(src PageSource, w Writer, rec RunRecorder) *Syncer {
	s := NewSyncer(src, w, rec, logger.Discard())
	s.pause = func(context.Context, time.Duration) error { return nil }
	return s
}

func TestSyncWritesEveryPage(t *testing.T) {
	src := &fakeSource{pages: map[string][][]Record{"all": {recs("1", "2"), recs("3")}}}
	w := &fakeWriter{}
	rec := &fakeRecorder{}

	out := newTestSyncer(src, w, rec).Sync(context.Background(), testEntity(false), Window{})

	if out.Status != StatusSuccess || out.State != StateDone {
		t.Fatalf("outcome = %+v", out)
	}
	if out.Written != 3 || out.Pages != 2 || out.Fetched != 3 {
		t.Errorf("counts = %+v", out)
	}
	if len(rec.started) != 1 || len(rec.finished) != 1 || rec.finished[0].Status != StatusSuccess {
		t.Errorf("recorder = %+v / %+v", rec.started, rec.finished)
	}
	if rec.started[0].Window != nil {
		t.Error("non date-scoped runs should not record a window")
	}
}

func TestSyncDeduplicatesAcrossDays(t *testing.T) {
	day1 := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	src := &fakeSource{pages: map[string][][]Record{
		"2025-01-01": {recs("a", "b")},
		"2025-01-02": {recs("b", "c")},
		"2025-01-03": {recs("a")},
	}}
	w := &fakeWriter{}

	out := newTestSyncer(src, w, nil).Sync(context.Background(), testEntity(true), Window{From: day1, To: day1.AddDate(0, 0, 2)})

	if got := fmt.Sprint(src.calls); got != "[2025-01-01 2025-01-02 2025-01-03]" {
		t.Errorf("scopes = %s", got)
	}
	if got := fmt.Sprint(w.ids()); got != "[a b c]" {
		t.Errorf("written ids = %s", got)
	}
	if out.Duplicates != 2 || out.Written != 3 || out.Status != StatusSuccess {
		t.Errorf("outcome = %+v", out)
	}
}

func TestSyncUpstreamAbortKeepsGoing(t *testing.T) {
	day1 := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	src := &fakeSource{
		pages: map[string][][]Record{
			"2025-01-01": {recs("a")},
			"2025-01-02": {recs("b")},
		},
		errs: map[string]error{"2025-01-01": errors.New("status 500")},
	}
	w := &fakeWriter{}

	out := newTestSyncer(src, w, nil).Sync(context.Background(), testEntity(true), Window{From: day1, To: day1.AddDate(0, 0, 1)})

	if out.Status != StatusPartial || !out.Succeeded() {
		t.Errorf("status = %s, want partial success", out.Status)
	}
	if out.AbortedScopes != 1 {
		t.Errorf("aborted = %d", out.AbortedScopes)
	}
	if got := fmt.Sprint(w.ids()); got != "[a b]" {
		t.Errorf("partial results must be kept, got %s", got)
	}
}

func TestSyncWriteErrorIsolatedToBatch(t *testing.T) {
	src := &fakeSource{pages: map[string][][]Record{"all": {recs("1", "2"), recs("3", "4"), recs("5")}}}
	w := &fakeWriter{failCalls: map[int]error{2: errors.New("constraint violation")}}

	out := newTestSyncer(src, w, nil).Sync(context.Background(), testEntity(false), Window{})

	if out.Status != StatusPartial || out.WriteErrors != 1 {
		t.Errorf("outcome = %+v", out)
	}
	if got := fmt.Sprint(w.ids()); got != "[1 2 5]" {
		t.Errorf("written = %s", got)
	}
	if out.Written != 3 {
		t.Errorf("written count = %d", out.Written)
	}
}

func TestSyncReturnsToFetchAfterFailedWrite(t *testing.T) {
	src := &fakeSource{pages: map[string][][]Record{"all": {recs("1", "2"), recs("3", "4"), recs("5")}}}
	w := &fakeWriter{failCalls: map[int]error{2: errors.New("constraint violation")}}

	var buf bytes.Buffer
	s := NewSyncer(src, w, nil, logger.NewWithWriter(logger.Config{Level: "debug", Format: "json"}, &buf))
	out := s.Sync(context.Background(), testEntity(false), Window{})

	if out.Status != StatusPartial || out.State != StateDone {
		t.Fatalf("outcome = %+v", out)
	}
	trace := buf.String()
	if n := strings.Count(trace, "from=write to=fetch_page"); n != 3 {
		t.Errorf("write -> fetch_page transitions = %d, want 3\n%s", n, trace)
	}
	if strings.Contains(trace, "from=write to=flatten") {
		t.Errorf("next page flattened straight from write state\n%s", trace)
	}
}

func TestSyncSchemaErrorFails(t *testing.T) {
	src := &fakeSource{}
	w := &fakeWriter{schemaErr: errors.New("permission denied")}
	rec := &fakeRecorder{}

	out := newTestSyncer(src, w, rec).Sync(context.Background(), testEntity(false), Window{})

	if out.Status != StatusFailure || out.State != StateFailed || out.Err == nil {
		t.Errorf("outcome = %+v", out)
	}
	if len(src.calls) != 0 {
		t.Error("nothing should be fetched after a schema error")
	}
	if len(rec.finished) != 1 || rec.finished[0].Status != StatusFailure {
		t.Errorf("finished = %+v", rec.finished)
	}
}

func TestSyncRecoversPanic(t *testing.T) {
	src := &fakeSource{pages: map[string][][]Record{"all": {recs("1")}}}
	w := &fakeWriter{panicOn: 1}

	out := newTestSyncer(src, w, nil).Sync(context.Background(), testEntity(false), Window{})

	if out.Status != StatusFailure || out.Err == nil {
		t.Errorf("outcome = %+v", out)
	}
}

func TestSyncCanceledContextFails(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	src := &fakeSource{pages: map[string][][]Record{"all": {recs("1")}}}

	out := newTestSyncer(src, &fakeWriter{}, nil).Sync(ctx, testEntity(false), Window{})

	if out.Status != StatusFailure || !errors.Is(out.Err, context.Canceled) {
		t.Errorf("outcome = %+v", out)
	}
}
