package standard

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectivityTracker_Summaries(t *testing.T) {
	tracker := NewConnectivityTracker()

	for i := 0; i < 9; i++ {
		tracker.TrackSuccess("GET", "items", "https://example.org/api/items", 200, time.Duration(i+1)*time.Millisecond)
	}
	tracker.TrackSuccess("GET", "items", "https://example.org/api/items", 404, 50*time.Millisecond)
	tracker.TrackFailure("PATCH", "items", "https://example.org/api/items/1", time.Millisecond, "connection refused")

	summaries := tracker.Summaries()
	require.Len(t, summaries, 2)

	get := summaries[0]
	assert.Equal(t, "GET", get.Verb)
	assert.Equal(t, "items", get.Resource)
	assert.Equal(t, 10, get.TotalCalls)
	assert.InDelta(t, 0.9, get.SuccessRate, 0.0001)
	assert.Equal(t, "degraded", get.Status)
	assert.Equal(t, []string{"HTTP 404"}, get.RecentErrors)
	assert.Equal(t, int64(5), get.LatencyP50)
	assert.Equal(t, int64(9), get.LatencyP95)

	patch := summaries[1]
	assert.Equal(t, "PATCH", patch.Verb)
	assert.Equal(t, "unhealthy", patch.Status)
	assert.Equal(t, []string{"connection refused"}, patch.RecentErrors)
}

func TestConnectivityTracker_PrunesOutsideWindow(t *testing.T) {
	tracker := NewConnectivityTracker()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	tracker.now = func() time.Time { return now }

	tracker.TrackSuccess("GET", "vocabularies", "https://example.org/api/vocabularies", 200, time.Millisecond)

	now = now.Add(Window + time.Minute)
	assert.Empty(t, tracker.Summaries())
}

func TestPercentile_Empty(t *testing.T) {
	assert.Equal(t, float64(0), percentile(nil, 0.5))
}
