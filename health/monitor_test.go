package health

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonitor_UpdateAndGet(t *testing.T) {
	m := NewMonitor("ringtail")

	_, ok := m.Get("source")
	assert.False(t, ok)

	m.Update("source", Status{State: StateDegraded, Message: "reconnecting"})
	got, ok := m.Get("source")
	require.True(t, ok)
	assert.Equal(t, "source", got.Component)
	assert.Equal(t, StateDegraded, got.State)
	assert.False(t, got.Timestamp.IsZero())
}

func TestMonitor_ChecksRunOnRead(t *testing.T) {
	m := NewMonitor("ringtail")

	state := StateHealthy
	m.AddCheck("buffer", func() Status { return New("", state, "checked") })

	got, ok := m.Get("buffer")
	require.True(t, ok)
	assert.Equal(t, StateHealthy, got.State)
	assert.Equal(t, "buffer", got.Component)

	state = StateDegraded
	assert.Equal(t, StateDegraded, m.Aggregate().State)
}

func TestMonitor_CheckOverridesUpdate(t *testing.T) {
	m := NewMonitor("ringtail")
	m.Update("buffer", Unhealthy("buffer", "stale"))
	m.AddCheck("buffer", func() Status { return Healthy("buffer", "fresh") })

	agg := m.Aggregate()
	require.Len(t, agg.SubStatuses, 1)
	assert.Equal(t, "fresh", agg.SubStatuses[0].Message)
	assert.Equal(t, StateHealthy, agg.State)
}

func TestMonitor_AggregateSorted(t *testing.T) {
	m := NewMonitor("ringtail")
	m.Update("source", Healthy("", ""))
	m.AddCheck("buffer", func() Status { return Healthy("", "") })
	m.Update("http", Healthy("", ""))

	agg := m.Aggregate()
	require.Len(t, agg.SubStatuses, 3)
	assert.Equal(t, "buffer", agg.SubStatuses[0].Component)
	assert.Equal(t, "http", agg.SubStatuses[1].Component)
	assert.Equal(t, "source", agg.SubStatuses[2].Component)
}

func TestMonitor_Handler(t *testing.T) {
	m := NewMonitor("ringtail")
	m.Update("source", Healthy("source", "reading"))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body Status
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ringtail", body.Component)
	assert.True(t, body.Healthy)

	m.Update("buffer", Degraded("buffer", "full"))
	rec = httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	m.Update("source", Unhealthy("source", "connection lost"))
	rec = httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMonitor_Concurrent(t *testing.T) {
	m := NewMonitor("ringtail")
	m.AddCheck("buffer", func() Status { return Healthy("", "") })

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				m.Update("source", Healthy("", "reading"))
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = m.Aggregate()
			}
		}()
	}
	wg.Wait()

	assert.Len(t, m.Aggregate().SubStatuses, 2)
}
