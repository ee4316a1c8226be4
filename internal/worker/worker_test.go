package worker_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lakshaymaurya-felt/cleanml/internal/action"
	"github.com/lakshaymaurya-felt/cleanml/internal/cleaner"
	"github.com/lakshaymaurya-felt/cleanml/internal/command"
	"github.com/lakshaymaurya-felt/cleanml/internal/worker"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func fixture(t *testing.T) (*cleaner.Cleaner, string) {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "cache", "a"), "12345")
	writeFile(t, filepath.Join(dir, "cache", "b"), "123")
	writeFile(t, filepath.Join(dir, "deep", "x", "Thumbs.db"), "1234567890")

	c := cleaner.New("app", "App", "")
	c.AddOption("cache", "Cache", "")
	p, err := action.Default().Build("delete", action.Attributes{
		"search": "walk.files", "path": filepath.Join(dir, "cache"),
	}, nil)
	require.NoError(t, err)
	c.AddAction("cache", p)

	c.AddOption("thumbs", "Thumbnails", "")
	p, err = action.Default().Build("delete", action.Attributes{
		"search": "deep", "path": filepath.Join(dir, "deep"), "regex": `^Thumbs\.db$`,
	}, nil)
	require.NoError(t, err)
	c.AddAction("thumbs", p)
	return c, dir
}

func TestPreviewMatchesRealRun(t *testing.T) {
	c, dir := fixture(t)
	op := worker.Operation{Cleaner: c, Options: []string{"cache", "thumbs"}}

	preview, err := worker.New(false, op).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, worker.Totals{Size: 18, Deleted: 3}, preview)
	assert.FileExists(t, filepath.Join(dir, "cache", "a"))

	var phases []worker.Phase
	w := worker.New(true, op)
	w.OnEvent = func(ev worker.Event) { phases = append(phases, ev.Phase) }
	real, err := w.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, preview, real)
	assert.Equal(t, real, w.Totals())
	assert.NoFileExists(t, filepath.Join(dir, "cache", "a"))
	assert.NoFileExists(t, filepath.Join(dir, "deep", "x", "Thumbs.db"))
	assert.Equal(t, []worker.Phase{worker.PhaseCommands, worker.PhaseCommands, worker.PhaseDeepScan}, phases)
}

func TestUnknownOption(t *testing.T) {
	c, _ := fixture(t)
	_, err := worker.New(false, worker.Operation{Cleaner: c, Options: []string{"nope"}}).Run(context.Background())
	assert.ErrorIs(t, err, cleaner.ErrUnknownOption)
}

func TestErrorsAreCountedAndSkipped(t *testing.T) {
	c := cleaner.New("app", "App", "")
	c.AddOption("mixed", "Mixed", "")
	c.AddAction("mixed", action.Func(func(yield func(command.Command, error) bool) {
		if !yield(nil, errors.New("unreadable")) {
			return
		}
		yield(command.Delete{Path: filepath.Join(t.TempDir(), "missing"), Explicit: true}, nil)
	}))
	c.AddAction("mixed", action.Static(command.Noop("Ran")))

	var failures int
	w := worker.New(true, worker.Operation{Cleaner: c, Options: []string{"mixed"}})
	w.OnEvent = func(ev worker.Event) {
		if ev.Err != nil {
			failures++
		}
	}
	totals, err := w.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, totals.Errors)
	assert.Equal(t, 1, totals.Special)
	assert.Equal(t, 2, failures)
}

func TestFreeSpaceRunsLast(t *testing.T) {
	var order []string
	record := func(name string) action.Provider {
		return action.Static(command.Function{Label: name, Effect: func(string, func(float64) bool) (int64, error) {
			order = append(order, name)
			return 0, nil
		}})
	}
	c := cleaner.New("system", "System", "")
	c.AddOption("free_disk_space", "Free disk space", "")
	c.AddAction("free_disk_space", record("wipe"))
	c.AddOption("tmp", "Temporary files", "")
	c.AddAction("tmp", record("tmp"))

	_, err := worker.New(true, worker.Operation{Cleaner: c, Options: []string{"free_disk_space", "tmp"}}).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"tmp", "wipe"}, order)
}

func TestStop(t *testing.T) {
	c, dir := fixture(t)
	w := worker.New(true, worker.Operation{Cleaner: c, Options: []string{"cache", "thumbs"}})
	w.OnEvent = func(worker.Event) { w.Stop() }

	totals, err := w.Run(context.Background())
	assert.ErrorIs(t, err, worker.ErrStopped)
	assert.Equal(t, 1, totals.Deleted)
	assert.FileExists(t, filepath.Join(dir, "deep", "x", "Thumbs.db"))
}

func TestStopInterruptsLongFunction(t *testing.T) {
	steps := 0
	c := cleaner.New("system", "System", "")
	c.AddOption("free_disk_space", "Free disk space", "")
	c.AddAction("free_disk_space", action.Static(command.Function{Label: "Wipe", Effect: func(_ string, progress func(float64) bool) (int64, error) {
		for i := 1; i <= 100; i++ {
			steps++
			if !progress(float64(i) / 100) {
				return 0, nil
			}
		}
		return 0, nil
	}}))

	w := worker.New(true, worker.Operation{Cleaner: c, Options: []string{"free_disk_space"}})
	w.OnEvent = func(ev worker.Event) {
		if ev.Result.Partial && ev.Result.Progress >= 0.05 {
			w.Stop()
		}
	}
	_, err := w.Run(context.Background())
	assert.ErrorIs(t, err, worker.ErrStopped)
	assert.Less(t, steps, 10)
}

func TestCancelledContext(t *testing.T) {
	c, dir := fixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := worker.New(true, worker.Operation{Cleaner: c, Options: []string{"cache"}}).Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.FileExists(t, filepath.Join(dir, "cache", "a"))
}

func TestDeepScanRunsActionCommand(t *testing.T) {
	dir := t.TempDir()
	logFile := filepath.Join(dir, "sub", "app.log")
	writeFile(t, logFile, "lots of log lines")

	c := cleaner.New("app", "App", "")
	c.AddOption("logs", "Logs", "")
	p, err := action.Default().Build("truncate", action.Attributes{
		"search": "deep", "path": dir, "regex": `\.log$`,
	}, nil)
	require.NoError(t, err)
	c.AddAction("logs", p)

	totals, err := worker.New(true, worker.Operation{Cleaner: c, Options: []string{"logs"}}).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, totals.Special)
	assert.Zero(t, totals.Deleted)

	info, err := os.Stat(logFile)
	require.NoError(t, err)
	assert.Zero(t, info.Size())
}
