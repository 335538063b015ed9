package observability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsSnapshot(t *testing.T) {
	metrics := NewMetrics()

	metrics.RecordRequest("/tickets", "POST", 201, 5*time.Millisecond)
	metrics.RecordRequest("/tickets", "POST", 201, 7*time.Millisecond)
	metrics.RecordRequest("/tickets/:id", "GET", 200, time.Millisecond)
	metrics.RecordError("/tickets/:id", "GET", "NOT_FOUND")

	snap := metrics.Snapshot()
	require.Len(t, snap.Requests, 2)
	require.Len(t, snap.Errors, 1)

	byPath := map[string]RequestSample{}
	for _, sample := range snap.Requests {
		byPath[sample.Method+" "+sample.Path] = sample
	}
	assert.Equal(t, int64(2), byPath["POST /tickets"].Count)
	assert.Equal(t, int64(6), byPath["POST /tickets"].AvgMillis, "latency averaged across samples")
	assert.Equal(t, int64(1), byPath["GET /tickets/:id"].Count)
	assert.Equal(t, "NOT_FOUND", snap.Errors[0].Code)
}

func TestMetricsNilReceiver(t *testing.T) {
	var metrics *Metrics
	metrics.RecordRequest("/x", "GET", 200, 0)
	metrics.RecordError("/x", "GET", "INTERNAL_ERROR")
	assert.Empty(t, metrics.Snapshot().Requests)
}
