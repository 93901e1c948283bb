package input

import (
	"bufio"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/ringkit/errors"
	"github.com/c360/ringkit/metric"
)

func stringsReader(s string) io.Reader { return strings.NewReader(s) }

func appendFile(t *testing.T, path, data string) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o600)
	require.NoError(t, err)
	_, err = f.WriteString(data)
	require.NoError(t, err)
	require.NoError(t, f.Close())
}

func TestFileSource_ReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	require.NoError(t, os.WriteFile(path, []byte("first\nsecond\r\nthird"), 0o600))

	registry := metric.NewMetricsRegistry()
	src := NewFileSource(path, false, WithMetrics(registry.CoreMetrics()))

	var c collector
	require.NoError(t, src.Run(context.Background(), c.emit))

	assert.Equal(t, []string{"first", "second", "third"}, c.get())
	assert.Equal(t, 3.0, testutil.ToFloat64(registry.CoreMetrics().LinesReceived.WithLabelValues("file")))
}

func TestFileSource_Stdin(t *testing.T) {
	for _, path := range []string{"", "-"} {
		src := NewFileSource(path, false, WithStdin(stringsReader("x\ny\n")))

		var c collector
		require.NoError(t, src.Run(context.Background(), c.emit))
		assert.Equal(t, []string{"x", "y"}, c.get())
	}
}

func TestFileSource_MissingFile(t *testing.T) {
	registry := metric.NewMetricsRegistry()
	src := NewFileSource(filepath.Join(t.TempDir(), "missing.log"), false, WithMetrics(registry.CoreMetrics()))

	err := src.Run(context.Background(), (&collector{}).emit)
	require.Error(t, err)
	assert.True(t, errors.IsInvalid(err))
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Equal(t, 1.0, testutil.ToFloat64(registry.CoreMetrics().SourceErrors.WithLabelValues("file", "open")))
}

func TestFileSource_LineTooLong(t *testing.T) {
	registry := metric.NewMetricsRegistry()
	src := NewFileSource("-", false,
		WithStdin(stringsReader(strings.Repeat("x", maxLineSize+1))),
		WithMetrics(registry.CoreMetrics()),
	)

	err := src.Run(context.Background(), (&collector{}).emit)
	require.Error(t, err)
	assert.True(t, errors.IsInvalid(err))
	assert.ErrorIs(t, err, bufio.ErrTooLong)
	assert.ErrorIs(t, err, errors.ErrInvalidData)
	assert.Equal(t, 1.0, testutil.ToFloat64(registry.CoreMetrics().SourceErrors.WithLabelValues("file", "line_too_long")))
}

func TestFileSource_CancelUnblocksStdin(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c := &collector{}
	done := make(chan error, 1)
	go func() { done <- NewFileSource("-", false, WithStdin(pr)).Run(ctx, c.emit) }()

	_, err := pw.Write([]byte("first\n"))
	require.NoError(t, err)
	require.Eventually(t, func() bool { return c.count() == 1 }, 5*time.Second, 10*time.Millisecond)

	// The scanner is now blocked in Read with nothing more to come.
	cancel()
	waitDone(t, done)
	assert.Equal(t, []string{"first"}, c.get())
}

func TestFileSource_CancelledBeforeRead(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	src := NewFileSource("-", false, WithStdin(stringsReader("a\nb\n")))
	var c collector
	require.NoError(t, src.Run(ctx, c.emit))
	assert.Empty(t, c.get())
}

func runFollow(t *testing.T, path string) (*collector, context.CancelFunc, <-chan error) {
	t.Helper()
	src := NewFileSource(path, true)

	ctx, cancel := context.WithCancel(context.Background())
	c := &collector{}
	done := make(chan error, 1)
	go func() { done <- src.Run(ctx, c.emit) }()
	t.Cleanup(cancel)
	return c, cancel, done
}

func waitDone(t *testing.T, done <-chan error) {
	t.Helper()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("follow did not stop after cancel")
	}
}

func TestFileSource_FollowAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	require.NoError(t, os.WriteFile(path, []byte("existing\n"), 0o600))

	c, cancel, done := runFollow(t, path)
	require.Eventually(t, func() bool { return c.count() == 1 }, 5*time.Second, 10*time.Millisecond)

	appendFile(t, path, "new 1\nnew ")
	require.Eventually(t, func() bool { return c.count() == 2 }, 5*time.Second, 10*time.Millisecond)

	// The partial line is only emitted once its newline arrives.
	appendFile(t, path, "2\n")
	require.Eventually(t, func() bool { return c.count() == 3 }, 5*time.Second, 10*time.Millisecond)

	cancel()
	waitDone(t, done)
	assert.Equal(t, []string{"existing", "new 1", "new 2"}, c.get())
}

func TestFileSource_FollowTruncate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	require.NoError(t, os.WriteFile(path, []byte("one long line before truncation\n"), 0o600))

	c, cancel, done := runFollow(t, path)
	require.Eventually(t, func() bool { return c.count() == 1 }, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, os.Truncate(path, 0))
	appendFile(t, path, "after\n")
	require.Eventually(t, func() bool { return c.count() == 2 }, 5*time.Second, 10*time.Millisecond)

	cancel()
	waitDone(t, done)
	assert.Equal(t, "after", c.get()[1])
}

func TestFileSource_FollowRecreate(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.log")
	require.NoError(t, os.WriteFile(path, []byte("old\n"), 0o600))

	c, cancel, done := runFollow(t, path)
	require.Eventually(t, func() bool { return c.count() == 1 }, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, os.Rename(path, filepath.Join(dir, "app.log.1")))
	require.NoError(t, os.WriteFile(path, []byte("fresh\n"), 0o600))
	require.Eventually(t, func() bool { return c.count() == 2 }, 5*time.Second, 10*time.Millisecond)

	cancel()
	waitDone(t, done)
	assert.Equal(t, []string{"old", "fresh"}, c.get())
}

func TestFileSource_FollowLineTooLong(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	require.NoError(t, os.WriteFile(path, []byte("ok\n"), 0o600))

	c, _, done := runFollow(t, path)
	require.Eventually(t, func() bool { return c.count() == 1 }, 5*time.Second, 10*time.Millisecond)

	// No newline ever arrives, so the partial line must not grow without bound.
	appendFile(t, path, strings.Repeat("x", maxLineSize+1))

	select {
	case err := <-done:
		require.Error(t, err)
		assert.True(t, errors.IsInvalid(err))
		assert.ErrorIs(t, err, bufio.ErrTooLong)
	case <-time.After(5 * time.Second):
		t.Fatal("follow kept buffering an unterminated line")
	}
	assert.Equal(t, []string{"ok"}, c.get())
}

func TestFileSource_FollowLongLineWithinLimit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	require.NoError(t, os.WriteFile(path, []byte("start\n"), 0o600))

	c, cancel, done := runFollow(t, path)
	require.Eventually(t, func() bool { return c.count() == 1 }, 5*time.Second, 10*time.Millisecond)

	// Longer than the reader's buffer, so it arrives in several slices.
	long := strings.Repeat("y", 64*1024)
	appendFile(t, path, long[:1000])
	appendFile(t, path, long[1000:]+"\nshort\n")

	require.Eventually(t, func() bool { return c.count() == 3 }, 5*time.Second, 10*time.Millisecond)
	cancel()
	waitDone(t, done)
	assert.Equal(t, []string{"start", long, "short"}, c.get())
}
