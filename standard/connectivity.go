// Package standard provides the connectivity tracker the API client reports every call to.
package standard

import (
	"sort"
	"strconv"
	"sync"
	"time"
)

// Window is how long calls are kept for the summary.
const Window = time.Hour

// Call represents a single request to the repository API.
type Call struct {
	Timestamp  time.Time
	Success    bool
	StatusCode int // 0 when the transport failed
	Latency    time.Duration
	Error      string
}

// Route tracks the calls made for one verb + resource collection (e.g. "GET items").
type Route struct {
	Verb     string
	Resource string
	URL      string
	calls    []Call
}

// Summary is the aggregated view of a Route over the last Window.
type Summary struct {
	Verb         string    `json:"verb"`
	Resource     string    `json:"resource"`
	URL          string    `json:"url"`
	Status       string    `json:"status"`
	LastCall     time.Time `json:"last_call"`
	TotalCalls   int       `json:"total_calls_1h"`
	SuccessRate  float64   `json:"success_rate_1h"`
	LatencyP50   int64     `json:"latency_p50_ms"`
	LatencyP95   int64     `json:"latency_p95_ms"`
	LatencyP99   int64     `json:"latency_p99_ms"`
	RecentErrors []string  `json:"recent_errors"`
}

// ConnectivityTracker tracks calls per route.
type ConnectivityTracker struct {
	mu     sync.Mutex
	routes map[string]*Route
	now    func() time.Time
}

// NewConnectivityTracker creates a new connectivity tracker.
func NewConnectivityTracker() *ConnectivityTracker {
	return &ConnectivityTracker{
		routes: make(map[string]*Route),
		now:    time.Now,
	}
}

// TrackSuccess records a call that produced an HTTP response. Any status
// other than 2xx counts as a failed call in the success rate.
func (t *ConnectivityTracker) TrackSuccess(verb, resource, url string, statusCode int, latency time.Duration) {
	call := Call{
		Success:    statusCode >= 200 && statusCode < 300,
		StatusCode: statusCode,
		Latency:    latency,
	}
	if !call.Success {
		call.Error = "HTTP " + strconv.Itoa(statusCode)
	}
	t.track(verb, resource, url, call)
}

// TrackFailure records a call that failed at the transport level.
func (t *ConnectivityTracker) TrackFailure(verb, resource, url string, latency time.Duration, errorMsg string) {
	t.track(verb, resource, url, Call{
		Success: false,
		Latency: latency,
		Error:   errorMsg,
	})
}

func (t *ConnectivityTracker) track(verb, resource, url string, call Call) {
	t.mu.Lock()
	defer t.mu.Unlock()

	call.Timestamp = t.now().UTC()
	route := t.getOrCreateRoute(verb, resource, url)
	route.calls = append(route.calls, call)

	t.pruneOldCalls(route)
}

// getOrCreateRoute returns the existing route or creates a new one.
func (t *ConnectivityTracker) getOrCreateRoute(verb, resource, url string) *Route {
	key := verb + " " + resource
	if route, exists := t.routes[key]; exists {
		return route
	}

	route := &Route{
		Verb:     verb,
		Resource: resource,
		URL:      url,
		calls:    make([]Call, 0),
	}
	t.routes[key] = route
	return route
}

// pruneOldCalls removes calls older than Window.
func (t *ConnectivityTracker) pruneOldCalls(route *Route) {
	cutoff := t.now().Add(-Window)
	for i, call := range route.calls {
		if call.Timestamp.After(cutoff) {
			route.calls = route.calls[i:]
			return
		}
	}
	route.calls = []Call{}
}

// Summaries returns one Summary per route with calls in the window, sorted by verb and resource.
func (t *ConnectivityTracker) Summaries() []Summary {
	t.mu.Lock()
	defer t.mu.Unlock()

	summaries := make([]Summary, 0, len(t.routes))

	for _, route := range t.routes {
		t.pruneOldCalls(route)
		if len(route.calls) == 0 {
			continue
		}

		var successCount int
		var lastCall time.Time
		latencies := make([]float64, 0, len(route.calls))
		recentErrors := make([]string, 0)

		for _, call := range route.calls {
			if call.Success {
				successCount++
			} else if len(recentErrors) < 5 {
				recentErrors = append(recentErrors, call.Error)
			}

			latencies = append(latencies, float64(call.Latency.Milliseconds()))

			if call.Timestamp.After(lastCall) {
				lastCall = call.Timestamp
			}
		}

		successRate := float64(successCount) / float64(len(route.calls))

		sort.Float64s(latencies)

		status := "healthy"
		if successRate < 0.9 {
			status = "unhealthy"
		} else if successRate < 0.95 {
			status = "degraded"
		}

		summaries = append(summaries, Summary{
			Verb:         route.Verb,
			Resource:     route.Resource,
			URL:          route.URL,
			Status:       status,
			LastCall:     lastCall,
			TotalCalls:   len(route.calls),
			SuccessRate:  successRate,
			LatencyP50:   int64(percentile(latencies, 0.50)),
			LatencyP95:   int64(percentile(latencies, 0.95)),
			LatencyP99:   int64(percentile(latencies, 0.99)),
			RecentErrors: recentErrors,
		})
	}

	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].Verb != summaries[j].Verb {
			return summaries[i].Verb < summaries[j].Verb
		}
		return summaries[i].Resource < summaries[j].Resource
	})

	return summaries
}

// percentile calculates the percentile of a sorted slice.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	index := int(float64(len(sorted)-1) * p)
	return sorted[index]
}
