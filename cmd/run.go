package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"

	"github.com/lakshaymaurya-felt/cleanml/internal/deepscan"
	"github.com/lakshaymaurya-felt/cleanml/internal/registry"
	"github.com/lakshaymaurya-felt/cleanml/internal/ui"
	"github.com/lakshaymaurya-felt/cleanml/internal/worker"
)

// parseSelection turns "cleaner.option" arguments into operations, keeping
// first-appearance order. "cleaner.*" selects every option of a cleaner.
func parseSelection(reg *registry.Registry, args []string) ([]worker.Operation, error) {
	var ops []worker.Operation
	index := make(map[string]int)
	seen := make(map[string]bool)
	for _, arg := range args {
		id, opt, ok := strings.Cut(arg, ".")
		if !ok || id == "" || opt == "" {
			return nil, fmt.Errorf("invalid selection %q: want cleaner.option", arg)
		}
		c, found := reg.Lookup(id)
		if !found {
			return nil, fmt.Errorf("unknown cleaner %q", id)
		}
		var opts []string
		if opt == "*" {
			for _, o := range c.Options() {
				opts = append(opts, o.ID)
			}
		} else {
			opts = []string{opt}
		}
		i, exists := index[id]
		if !exists {
			i = len(ops)
			index[id] = i
			ops = append(ops, worker.Operation{Cleaner: c})
		}
		for _, o := range opts {
			if seen[id+"."+o] {
				continue
			}
			seen[id+"."+o] = true
			ops[i].Options = append(ops[i].Options, o)
		}
	}
	return ops, nil
}

func isTerminal() bool {
	fd := os.Stdout.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// newWorker builds the worker for one pass. Deep-scan targets come from the
// definitions themselves, so the scanner runs without the sweep whitelist.
func newWorker(really bool, ops []worker.Operation) *worker.Worker {
	w := worker.New(really, ops...)
	w.Scanner = deepscan.NewScanner(cfg.DeepScanWorkers, nil)
	return w
}

// runPass executes ops with a progress TUI on terminals and plain lines
// otherwise, then prints the totals.
func runPass(ctx context.Context, really bool, ops []worker.Operation) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt)
	defer cancel()

	w := newWorker(really, ops)

	var (
		totals worker.Totals
		err    error
	)
	if isTerminal() {
		totals, err = runTUI(ctx, w)
	} else {
		w.OnEvent = printEvent
		totals, err = w.Run(ctx)
	}

	fmt.Print(ui.RenderSummary(really, totals))
	if errors.Is(err, worker.ErrStopped) || errors.Is(err, context.Canceled) {
		fmt.Println(ui.WarningStyle().Render(ui.IconWarning + " Stopped before finishing"))
		return nil
	}
	return err
}

func runTUI(ctx context.Context, w *worker.Worker) (worker.Totals, error) {
	p := tea.NewProgram(ui.NewProgressModel(w.Really, w.Stop))
	w.OnEvent = func(ev worker.Event) { p.Send(ui.EventMsg(ev)) }
	go func() {
		totals, err := w.Run(ctx)
		p.Send(ui.DoneMsg{Totals: totals, Err: err})
	}()

	final, err := p.Run()
	if err != nil {
		return worker.Totals{}, fmt.Errorf("progress display: %w", err)
	}
	result := final.(ui.ProgressModel).Result
	return result.Totals, result.Err
}

func printEvent(ev worker.Event) {
	switch {
	case ev.Err != nil:
		stderr("%s %s\n", ui.IconError, ev.Err)
	case ev.Result.Partial:
	default:
		line := strings.TrimSpace(ev.Result.Label + " " + ev.Result.Path)
		if ev.Result.Size > 0 {
			line += " (" + ui.FormatSize(ev.Result.Size) + ")"
		}
		fmt.Println(line)
	}
}
