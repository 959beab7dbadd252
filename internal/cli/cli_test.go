package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"iter"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcliao/xhist/internal/model"
)

// resetFlags restores every flag in the tree to its default so values and
// Changed state from one Execute do not leak into the next.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			sv.Replace(nil)
		} else {
			f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.PersistentFlags().VisitAll(reset)
	cmd.Flags().VisitAll(reset)
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}

// execute runs RootCmd with default flags and returns stdout.
func execute(t *testing.T, args ...string) string {
	t.Helper()
	resetFlags(RootCmd)

	var out bytes.Buffer
	RootCmd.SetOut(&out)
	RootCmd.SetArgs(args)
	require.NoError(t, RootCmd.Execute(), "xhist %s", strings.Join(args, " "))
	return out.String()
}

func isolateEnv(t *testing.T) string {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("XONSH_DATA_DIR", "")
	t.Setenv("HISTCONTROL", "")
	t.Setenv("XHIST_LOG_LEVEL", "")
	return filepath.Join(t.TempDir(), "data")
}

func TestAppendItems(t *testing.T) {
	dir := isolateEnv(t)

	assert.Equal(t, "stored\n", execute(t, "append", "-d", dir, "--histcontrol", "ignoredups", "--rtn", "0", "--start", "3", "--", "echo", "three"))
	assert.Equal(t, "stored\n", execute(t, "append", "-d", dir, "--histcontrol", "ignoredups", "--rtn", "0", "--start", "1", "ls -la"))
	assert.Equal(t, "stored\n", execute(t, "append", "-d", dir, "--rtn", "1", "--start", "2", "false"))

	// The data dir is created by the CLI, not the store.
	_, err := os.Stat(filepath.Join(dir, "xonsh-history.sqlite"))
	require.NoError(t, err)

	assert.Equal(t, "ls -la\nfalse\necho three\n", execute(t, "items", "-d", dir))

	out := execute(t, "items", "-d", dir, "-f", "json")
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	var item model.Item
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &item))
	assert.Equal(t, "ls -la", item.Input)
}

func TestAppendIgnoreErrFromEnv(t *testing.T) {
	dir := isolateEnv(t)
	t.Setenv("XONSH_DATA_DIR", dir)
	t.Setenv("HISTCONTROL", "ignoreerr")

	assert.Equal(t, "skipped\n", execute(t, "append", "--rtn", "1", "--start", "1", "false"))
	assert.Equal(t, "", execute(t, "items"))
}

func TestExportImport(t *testing.T) {
	src := isolateEnv(t)
	execute(t, "append", "-d", src, "--rtn", "0", "--start", "10", "--end", "12", "make")
	execute(t, "append", "-d", src, "--rtn", "2", "--start", "20", "--end", "21", "make test")

	var records []model.CommandRecord
	require.NoError(t, json.Unmarshal([]byte(execute(t, "export", "-d", src)), &records))
	assert.Equal(t, []model.CommandRecord{
		{Input: "make", ReturnCode: 0, StartTime: 10, EndTime: 12},
		{Input: "make test", ReturnCode: 2, StartTime: 20, EndTime: 21},
	}, records)

	file := filepath.Join(t.TempDir(), "export.json")
	b, err := json.Marshal(records)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(file, b, 0o644))

	dst := filepath.Join(t.TempDir(), "dst")
	out := execute(t, "import", "-d", dst, "--histcontrol", "ignoreerr", file)
	assert.JSONEq(t, `{"ok":true,"imported":1,"skipped":1}`, out)
	assert.Equal(t, "make\n", execute(t, "items", "-d", dst))
}

func TestStatsAndFlush(t *testing.T) {
	dir := isolateEnv(t)
	execute(t, "append", "-d", dir, "--rtn", "0", "--start", "1700000000", "ls")

	out := execute(t, "stats", "-d", dir)
	assert.Contains(t, out, "commands: 1 (0 failed)")
	assert.Contains(t, out, "xonsh-history.sqlite")

	assert.JSONEq(t, `{"ok":true}`, execute(t, "flush", "-d", dir, "--at-exit"))
}

func TestInvalidFormat(t *testing.T) {
	isolateEnv(t)
	resetFlags(RootCmd)
	RootCmd.SetArgs([]string{"items", "-f", "yaml"})
	RootCmd.SetOut(&bytes.Buffer{})
	RootCmd.SetErr(&bytes.Buffer{})
	assert.ErrorContains(t, RootCmd.Execute(), "invalid format")
}

func TestAppendFlagsDoNotCarryOver(t *testing.T) {
	dir := isolateEnv(t)
	execute(t, "append", "-d", dir, "--rtn", "3", "--start", "5", "--end", "9", "first")
	execute(t, "append", "-d", dir, "--start", "7", "second")

	var records []model.CommandRecord
	require.NoError(t, json.Unmarshal([]byte(execute(t, "export", "-d", dir)), &records))
	assert.Equal(t, []model.CommandRecord{
		{Input: "first", ReturnCode: 3, StartTime: 5, EndTime: 9},
		{Input: "second", ReturnCode: 0, StartTime: 7, EndTime: 7},
	}, records)
}

func TestReadInput(t *testing.T) {
	t.Run("args win", func(t *testing.T) {
		got, err := readInput([]string{"git", "log"}, nil)
		require.NoError(t, err)
		assert.Equal(t, "git log", got)
	})

	t.Run("piped file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "in")
		require.NoError(t, os.WriteFile(path, []byte("make test\n"), 0o644))
		f, err := os.Open(path)
		require.NoError(t, err)
		defer f.Close()

		got, err := readInput(nil, f)
		require.NoError(t, err)
		assert.Equal(t, "make test\n", got)
	})

	t.Run("unusable stdin", func(t *testing.T) {
		f, err := os.Create(filepath.Join(t.TempDir(), "closed"))
		require.NoError(t, err)
		require.NoError(t, f.Close())

		got, err := readInput(nil, f)
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}

type failingWriter struct{ writes int }

func (w *failingWriter) Write(p []byte) (int, error) {
	w.writes++
	return 0, errors.New("broken pipe")
}

func itemSeq(pulled *int, inputs ...string) iter.Seq2[model.Item, error] {
	return func(yield func(model.Item, error) bool) {
		for _, in := range inputs {
			*pulled++
			if !yield(model.Item{Input: in}, nil) {
				return
			}
		}
	}
}

func TestWriteItems(t *testing.T) {
	var out bytes.Buffer
	var pulled int
	require.NoError(t, writeItems(&out, itemSeq(&pulled, "a", "b"), false))
	assert.Equal(t, "a\nb\n", out.String())

	out.Reset()
	require.NoError(t, writeItems(&out, itemSeq(&pulled, "a"), true))
	assert.JSONEq(t, `{"inp":"a"}`, out.String())

	for _, asJSON := range []bool{false, true} {
		w := &failingWriter{}
		pulled = 0
		err := writeItems(w, itemSeq(&pulled, "a", "b", "c"), asJSON)
		assert.ErrorContains(t, err, "broken pipe")
		assert.Equal(t, 1, pulled, "iteration stops at the first write error")
		assert.Equal(t, 1, w.writes)
	}

	readErr := errors.New("read failed")
	err := writeItems(&out, func(yield func(model.Item, error) bool) {
		yield(model.Item{}, readErr)
	}, false)
	assert.ErrorIs(t, err, readErr)
}
