package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/farxc/contaazul-sync/internal/app"
	"github.com/farxc/contaazul-sync/internal/ingest"
	"github.com/farxc/contaazul-sync/internal/store"
)

type runFlags struct {
	from    string
	to      string
	trigger string
	json    bool
}

var validate = validator.New()

// The API records its own trigger; the CLI only starts manual or scheduled runs.
type triggerInput struct {
	Trigger string `validate:"required,oneof=manual scheduled"`
}

func (f runFlags) check() error {
	if err := validate.Struct(triggerInput{Trigger: f.trigger}); err != nil {
		return fmt.Errorf("invalid --trigger %q: must be %s or %s", f.trigger, store.TriggerTypeManual, store.TriggerTypeScheduled)
	}
	return nil
}

func (f *runFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.from, "from", "", "First day of the date window (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.to, "to", "", "Last day of the date window (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.trigger, "trigger", store.TriggerTypeManual, "Trigger source: "+store.TriggerTypeManual+", "+store.TriggerTypeScheduled)
	cmd.Flags().BoolVar(&f.json, "json", false, "Print the run report as JSON")
}

func syncCmd() *cobra.Command {
	var flags runFlags
	cmd := &cobra.Command{
		Use:       "sync [entity...]",
		Short:     "Sync one or more entities",
		Long:      "Sync the named entities in order. Known entities: " + strings.Join(ingest.Names(), ", "),
		Args:      cobra.MinimumNArgs(1),
		ValidArgs: ingest.Names(),
		RunE: func(cmd *cobra.Command, args []string) error {
			return execute(cmd, flags, args)
		},
	}
	flags.register(cmd)
	return cmd
}

func runCmd() *cobra.Command {
	var flags runFlags
	var sequence string
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a named entity sequence (finance, catalog, all)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			names, err := ingest.ResolveSequence(sequence)
			if err != nil {
				return err
			}
			return execute(cmd, flags, names)
		},
	}
	cmd.Flags().StringVarP(&sequence, "sequence", "s", "all", "Sequence to run: finance, catalog, all")
	flags.register(cmd)
	return cmd
}

func execute(cmd *cobra.Command, flags runFlags, names []string) error {
	const component = "Main"
	started := time.Now()

	if err := flags.check(); err != nil {
		return err
	}
	a := setup(cmd)
	defer a.Close()

	w, err := parseWindow(a.DefaultWindow(started), flags.from, flags.to)
	if err != nil {
		return err
	}
	a.Log.Info(component, "Application started: entities=%s window=%s..%s trigger=%s",
		strings.Join(names, ","), w.From.Format(time.DateOnly), w.To.Format(time.DateOnly), flags.trigger)

	rep := runMonitored(cmd.Context(), a, flags.trigger, names, w)
	logReport(a.Log, rep, started)

	if flags.json {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(rep); err != nil {
			return err
		}
	}
	if !rep.OK() {
		return fmt.Errorf("%d of %d entities failed", rep.Summary.Failed, len(rep.Outcomes))
	}
	return nil
}

func runMonitored(ctx context.Context, a *app.App, trigger string, names []string, w ingest.Window) ingest.Report {
	const component = "Main"

	monitor := NewMonitor()
	monitor.Start(400*time.Millisecond, a.Log)
	rep := a.NewRunner(trigger).Run(ctx, names, w)
	stats := monitor.Stop()

	a.Log.Info(component, "Resource usage: peakGoroutines=%d peakMemoryMB=%d", stats.PeakGoroutines, stats.PeakMemoryMB)
	return rep
}
