package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/ringkit/config"
	"github.com/c360/ringkit/health"
	"github.com/c360/ringkit/input"
	"github.com/c360/ringkit/metric"
	"github.com/c360/ringkit/pkg/ringsync"
)

// scriptedSource emits its lines, then blocks until release is closed or ctx ends.
type scriptedSource struct {
	lines   []string
	release chan struct{}
	err     error
}

func (s *scriptedSource) Name() string { return "scripted" }

func (s *scriptedSource) Run(ctx context.Context, emit input.Emit) error {
	for _, line := range s.lines {
		if err := emit(line); err != nil {
			return err
		}
	}
	select {
	case <-s.release:
	case <-ctx.Done():
	}
	return s.err
}

func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := l.Addr().(*net.TCPAddr).Port
	require.NoError(t, l.Close())
	return port
}

func getJSON(url string, v any) (int, error) {
	resp, err := http.Get(url)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	return resp.StatusCode, json.NewDecoder(resp.Body).Decode(v)
}

func startServe(t *testing.T, src input.Source, capacity int) (base string, done <-chan error) {
	t.Helper()
	cfg := config.Defaults()
	cfg.Buffer.Capacity = capacity
	cfg.HTTP.Port = freePort(t)

	buf, err := ringsync.New[string](capacity)
	require.NoError(t, err)

	ch := make(chan error, 1)
	go func() {
		ch <- serve(context.Background(), cfg, src, buf, metric.NewMetricsRegistry(), discardLogger(), time.Second)
	}()

	base = fmt.Sprintf("http://127.0.0.1:%d", cfg.HTTP.Port)
	require.Eventually(t, func() bool {
		var lines LinesResponse
		code, err := getJSON(base+"/lines", &lines)
		return err == nil && code == http.StatusOK && lines.Size == min(capacity, 3)
	}, 5*time.Second, 20*time.Millisecond)
	return base, ch
}

func TestServe_HTTPWhileSourceRuns(t *testing.T) {
	src := &scriptedSource{lines: []string{"a", "b", "c"}, release: make(chan struct{})}
	base, done := startServe(t, src, 2)

	var lines LinesResponse
	_, err := getJSON(base+"/lines", &lines)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c"}, lines.Lines)

	var stats StatsResponse
	_, err = getJSON(base+"/stats", &stats)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.Pushes)
	assert.Equal(t, int64(1), stats.Evictions)

	var status health.Status
	code, err := getJSON(base+"/health", &status)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, health.StateHealthy, status.State)

	resp, err := http.Get(base + "/metrics")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	close(src.release)
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not return after the source ended")
	}
}

func TestServe_SourceErrorStopsServer(t *testing.T) {
	src := &scriptedSource{lines: []string{"a", "b", "c"}, release: make(chan struct{}), err: assert.AnError}
	_, done := startServe(t, src, 5)

	close(src.release)
	select {
	case err := <-done:
		assert.ErrorIs(t, err, assert.AnError)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not return after the source failed")
	}
}
