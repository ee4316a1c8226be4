// Package worker drives a cleaning pass: it pulls commands from the selected
// cleaner options one at a time, executes or previews them, and keeps
// running totals.
package worker

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"slices"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/lakshaymaurya-felt/cleanml/internal/action"
	"github.com/lakshaymaurya-felt/cleanml/internal/cleaner"
	"github.com/lakshaymaurya-felt/cleanml/internal/command"
	"github.com/lakshaymaurya-felt/cleanml/internal/deepscan"
	"github.com/lakshaymaurya-felt/cleanml/internal/logging"
)

// ErrStopped is returned by Run after Stop.
var ErrStopped = errors.New("worker stopped")

// Options run after the deep scan regardless of their position.
var lastOptions = map[string]bool{
	"free_disk_space": true,
}

// Phase identifies the part of the pass an event belongs to.
type Phase int

const (
	PhaseCommands Phase = iota
	PhaseDeepScan
	PhaseFinal
)

func (p Phase) String() string {
	switch p {
	case PhaseCommands:
		return "commands"
	case PhaseDeepScan:
		return "deep scan"
	case PhaseFinal:
		return "final"
	}
	return "unknown"
}

// Operation selects options of one cleaner.
type Operation struct {
	Cleaner *cleaner.Cleaner
	Options []string
}

// Totals accumulates the results of a pass.
type Totals struct {
	Size    int64
	Deleted int
	Special int
	Errors  int
}

func (t *Totals) add(r command.Result) {
	t.Size += r.Size
	t.Deleted += r.Deleted
	t.Special += r.Special
}

// Event reports one result or failure. Partial results only carry progress
// and are not counted.
type Event struct {
	Phase   Phase
	Cleaner string
	Option  string
	Result  command.Result
	Err     error
	Totals  Totals
}

// Worker executes operations. Really selects a real run instead of a
// preview.
type Worker struct {
	Really     bool
	Operations []Operation
	Scanner    *deepscan.Scanner
	OnEvent    func(Event)

	totals  Totals
	stopped atomic.Bool
	logger  zerolog.Logger
}

// New creates a worker for ops.
func New(really bool, ops ...Operation) *Worker {
	return &Worker{Really: really, Operations: ops}
}

// Stop asks a running pass to end after the current item.
func (w *Worker) Stop() {
	w.stopped.Store(true)
}

// Totals returns the totals so far.
func (w *Worker) Totals() Totals {
	return w.totals
}

type task struct {
	cleaner *cleaner.Cleaner
	option  string
}

// Run performs the pass. Per-item failures are logged, counted and
// reported through OnEvent; they never end the pass. An unknown option ends
// it before anything runs.
func (w *Worker) Run(ctx context.Context) (Totals, error) {
	w.logger = logging.GetLogger("worker")
	w.totals = Totals{}
	mode := "preview"
	if w.Really {
		mode = "clean"
	}
	done := logging.LogOperationStart(w.logger, mode)
	defer done()

	var first, last []task
	for _, op := range w.Operations {
		for _, opt := range op.Options {
			if !op.Cleaner.HasOption(opt) {
				return w.totals, fmt.Errorf("%s.%s: %w", op.Cleaner.ID, opt, cleaner.ErrUnknownOption)
			}
			t := task{cleaner: op.Cleaner, option: opt}
			if lastOptions[opt] {
				last = append(last, t)
			} else {
				first = append(first, t)
			}
		}
	}

	var deep []action.DeepScanEntry
	for _, t := range first {
		if err := w.runTask(ctx, PhaseCommands, t); err != nil {
			return w.totals, err
		}
		entries, _ := t.cleaner.DeepScan(t.option)
		for e := range entries {
			deep = append(deep, e)
		}
	}

	if len(deep) > 0 {
		scanner := w.Scanner
		if scanner == nil {
			scanner = deepscan.NewScanner(0, nil)
		}
		cmds := scanner.Scan(ctx, slices.Values(deep))
		if err := w.drain(ctx, PhaseDeepScan, task{option: "deep_scan"}, cmds); err != nil {
			return w.totals, err
		}
	}

	for _, t := range last {
		if err := w.runTask(ctx, PhaseFinal, t); err != nil {
			return w.totals, err
		}
	}

	w.logger.Info().
		Str("mode", mode).
		Int64("size", w.totals.Size).
		Int("deleted", w.totals.Deleted).
		Int("special", w.totals.Special).
		Int("errors", w.totals.Errors).
		Msg("Pass finished")
	return w.totals, nil
}

func (w *Worker) runTask(ctx context.Context, phase Phase, t task) error {
	cmds, err := t.cleaner.Commands(t.option)
	if err != nil {
		return err
	}
	return w.drain(ctx, phase, t, cmds)
}

// drain pulls commands one at a time and checks for cancellation between
// items and between results of long commands.
func (w *Worker) drain(ctx context.Context, phase Phase, t task, cmds iter.Seq2[command.Command, error]) error {
	ev := Event{Phase: phase, Option: t.option}
	if t.cleaner != nil {
		ev.Cleaner = t.cleaner.ID
	}
	for cmd, err := range cmds {
		if stopErr := w.interrupted(ctx); stopErr != nil {
			return stopErr
		}
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			w.fail(ev, err)
			continue
		}
		for res, err := range cmd.Execute(w.Really) {
			if err != nil {
				w.fail(ev, err)
				continue
			}
			if !res.Partial {
				w.totals.add(res)
			}
			w.emit(ev, res, nil)
			if stopErr := w.interrupted(ctx); stopErr != nil {
				return stopErr
			}
		}
	}
	return nil
}

func (w *Worker) interrupted(ctx context.Context) error {
	if w.stopped.Load() {
		return ErrStopped
	}
	return ctx.Err()
}

func (w *Worker) fail(ev Event, err error) {
	w.totals.Errors++
	w.logger.Error().Err(err).Str("cleaner", ev.Cleaner).Str("option", ev.Option).Msg("Command failed")
	w.emit(ev, command.Result{}, err)
}

func (w *Worker) emit(ev Event, res command.Result, err error) {
	if w.OnEvent == nil {
		return
	}
	ev.Result = res
	ev.Err = err
	ev.Totals = w.totals
	w.OnEvent(ev)
}
