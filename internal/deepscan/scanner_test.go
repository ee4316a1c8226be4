package deepscan_test

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lakshaymaurya-felt/cleanml/internal/action"
	"github.com/lakshaymaurya-felt/cleanml/internal/command"
	"github.com/lakshaymaurya-felt/cleanml/internal/deepscan"
	"github.com/lakshaymaurya-felt/cleanml/pkg/whitelist"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
}

func collect(t *testing.T, s *deepscan.Scanner, entries ...action.DeepScanEntry) ([]string, []error) {
	t.Helper()
	var (
		cmds []string
		errs []error
	)
	for cmd, err := range s.Scan(context.Background(), slices.Values(entries)) {
		if err != nil {
			errs = append(errs, err)
			continue
		}
		cmds = append(cmds, cmd.String())
	}
	return cmds, errs
}

func TestScanGroupsByRoot(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "a", "Thumbs.db"))
	touch(t, filepath.Join(root, "b", "c", ".DS_Store"))
	touch(t, filepath.Join(root, "b", "keep.txt"))

	s := deepscan.NewScanner(2, nil)
	cmds, errs := collect(t, s,
		action.DeepScanEntry{Path: root, Regex: `^Thumbs\.db$`, Command: "delete"},
		action.DeepScanEntry{Path: root + string(filepath.Separator), Regex: `^\.DS_Store$`, Command: "shred"},
	)
	require.Empty(t, errs)
	assert.ElementsMatch(t, []string{
		"Delete " + filepath.Join(root, "a", "Thumbs.db"),
		"Shred " + filepath.Join(root, "b", "c", ".DS_Store"),
	}, cmds)
	// One walk: three files examined, not six.
	assert.EqualValues(t, 3, s.ScannedCount())
}

func TestScanFirstEntryWinsPerFile(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "x.tmp"))

	cmds, errs := collect(t, deepscan.NewScanner(0, nil),
		action.DeepScanEntry{Path: root, Regex: `\.tmp$`, Command: "shred"},
		action.DeepScanEntry{Path: root, Regex: `^x`, Command: "delete"},
	)
	require.Empty(t, errs)
	assert.Equal(t, []string{"Shred " + filepath.Join(root, "x.tmp")}, cmds)
}

func TestScanFilters(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "cache", "a.log"))
	touch(t, filepath.Join(root, "keep", "b.log"))
	touch(t, filepath.Join(root, "cache", "c.txt"))

	cmds, errs := collect(t, deepscan.NewScanner(1, nil), action.DeepScanEntry{
		Path:        root,
		Regex:       `\.log$`,
		NWholeRegex: `keep`,
	})
	require.Empty(t, errs)
	assert.Equal(t, []string{"Delete " + filepath.Join(root, "cache", "a.log")}, cmds)
}

func TestScanSkipsWhitelisted(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "a.log"))
	touch(t, filepath.Join(root, "b.log"))

	wl := whitelist.New(regexp.QuoteMeta(filepath.Join(root, "a.log")))
	cmds, errs := collect(t, deepscan.NewScanner(1, wl), action.DeepScanEntry{Path: root, Regex: `\.log$`})
	require.Empty(t, errs)
	assert.Equal(t, []string{"Delete " + filepath.Join(root, "b.log")}, cmds)
}

func TestScanInvalidEntries(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "a.log"))

	cmds, errs := collect(t, deepscan.NewScanner(1, nil),
		action.DeepScanEntry{Path: root, Regex: `(`},
		action.DeepScanEntry{Path: root, Command: "truncate"},
		action.DeepScanEntry{Path: root, Regex: `\.log$`},
	)
	assert.Len(t, errs, 2)
	assert.Equal(t, []string{"Delete " + filepath.Join(root, "a.log")}, cmds)
}

func TestScanStopEarly(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"1", "2", "3", "4", "5"} {
		touch(t, filepath.Join(root, name+".tmp"))
	}
	other := t.TempDir()
	touch(t, filepath.Join(other, "z.tmp"))

	s := deepscan.NewScanner(1, nil)
	entries := []action.DeepScanEntry{{Path: root, Regex: `\.tmp$`}, {Path: other, Regex: `\.tmp$`}}
	var got []command.Command
	for cmd, err := range s.Scan(context.Background(), slices.Values(entries)) {
		require.NoError(t, err)
		got = append(got, cmd)
		if len(got) == 2 {
			break
		}
	}
	assert.Len(t, got, 2)
}

func TestScanCancelled(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "a.tmp"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var errs []error
	for _, err := range deepscan.NewScanner(1, nil).Scan(ctx, slices.Values([]action.DeepScanEntry{{Path: root}})) {
		if err != nil {
			errs = append(errs, err)
		}
	}
	require.NotEmpty(t, errs)
	assert.ErrorIs(t, errs[len(errs)-1], context.Canceled)
}
