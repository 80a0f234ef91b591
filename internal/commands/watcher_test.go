package commands

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/freddy/internal/goals"
)

func TestNewFileWatcher(t *testing.T) {
	_, err := NewFileWatcher(zaptest.NewLogger(t), "", &recordingDispatcher{})
	assert.Error(t, err)

	w, err := NewFileWatcher(zaptest.NewLogger(t), "/tmp/freddy/directives.txt", &recordingDispatcher{})
	require.NoError(t, err)
	assert.Equal(t, "/tmp/freddy/directives.txt", w.Path())
}

func TestFileWatcher_DispatchesAppendedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "directives.txt")
	require.NoError(t, os.WriteFile(path, []byte("GOAL:OLD_NEWS\n"), 0o600))

	d := &recordingDispatcher{}
	w, err := NewFileWatcher(zaptest.NewLogger(t), path, d)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	defer func() {
		cancel()
		require.NoError(t, <-done)
	}()

	// Keep appending until the tailer has picked up the file; only the
	// appended lines count.
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o600)
	require.NoError(t, err)
	defer f.Close()

	require.Eventually(t, func() bool {
		_, _ = f.WriteString("GOAL:mine diamonds\nnonsense\n\n")
		return len(d.received()) > 0
	}, 5*time.Second, 100*time.Millisecond)

	for _, cmd := range d.received() {
		assert.Equal(t, goals.MineDiamonds, cmd.Goal, "existing lines are not replayed")
	}
}

func TestFileWatcher_Apply(t *testing.T) {
	d := &recordingDispatcher{status: "EXPLORING"}
	w, err := NewFileWatcher(zaptest.NewLogger(t), "directives.txt", d)
	require.NoError(t, err)

	w.apply("STATUS")
	w.apply("CLEAR")
	w.apply("")
	w.apply("bogus")

	got := d.received()
	require.Len(t, got, 1)
	assert.Equal(t, KindClear, got[0].Kind)
}
