package ingest

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/farxc/contaazul-sync/internal/logger"
)

// EntitySyncer syncs a single entity. *Syncer implements it.
type EntitySyncer interface {
	Sync(ctx context.Context, e Entity, w Window) Outcome
}

// Runner executes several entity syncs in order, isolating failures.
type Runner struct {
	syncer EntitySyncer
	log    *logger.Logger
	lookup func(name string) (Entity, bool)
}

func NewRunner(syncer EntitySyncer, log *logger.Logger) *Runner {
	return &Runner{syncer: syncer, log: log, lookup: Lookup}
}

// Summary counts entity results.
type Summary struct {
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

// Report collects one outcome per requested entity, in run order.
type Report struct {
	Outcomes []Outcome `json:"outcomes"`
	Summary  Summary   `json:"summary"`
}

// OK is true when every entity succeeded.
func (r Report) OK() bool {
	return r.Summary.Failed == 0
}

// ResolveSequence expands a sequence name into entity names.
func ResolveSequence(name string) ([]string, error) {
	names, ok := Sequences[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("unknown sequence %q", name)
	}
	return names, nil
}

// Run syncs each named entity. A failure, unknown name or panic in one
// entity never prevents the next one from running.
func (r *Runner) Run(ctx context.Context, names []string, w Window) Report {
	const component = "Runner"
	var rep Report

	r.log.Info(component, "Run started: entities=%s", strings.Join(names, ","))
	for _, name := range names {
		out := r.runOne(ctx, name, w)
		rep.Outcomes = append(rep.Outcomes, out)
		if out.Succeeded() {
			rep.Summary.Succeeded++
		} else {
			rep.Summary.Failed++
		}
	}

	for _, out := range rep.Outcomes {
		mark := "ok"
		if !out.Succeeded() {
			mark = "FAILED"
		}
		r.log.Info(component, "  %-12s %-6s status=%s written=%d error=%s", out.Entity, mark, out.Status, out.Written, out.Error)
	}
	r.log.Info(component, "Run finished: succeeded=%d failed=%d", rep.Summary.Succeeded, rep.Summary.Failed)
	return rep
}

func (r *Runner) runOne(ctx context.Context, name string, w Window) (out Outcome) {
	const component = "Runner"
	started := time.Now()

	e, ok := r.lookup(name)
	if !ok {
		err := fmt.Errorf("unknown entity %q", name)
		r.log.Error(component, "Skipping entity: %v", err)
		return Outcome{Entity: name, Status: StatusFailure, State: StateFailed, Err: err, Error: err.Error(), StartedAt: started, FinishedAt: time.Now()}
	}

	defer func() {
		if p := recover(); p != nil {
			err := fmt.Errorf("panic: %v", p)
			r.log.Error(component, "Entity sync panicked: entity=%s error=%v", name, err)
			out = Outcome{Entity: e.Name, Status: StatusFailure, State: StateFailed, Err: err, Error: err.Error(), StartedAt: started, FinishedAt: time.Now()}
		}
	}()

	return r.syncer.Sync(ctx, e, w)
}
