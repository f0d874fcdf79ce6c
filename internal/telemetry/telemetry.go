// Package telemetry registers the service's Prometheus collectors.
package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	APIRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "nichefinder_reddit_requests_total",
		Help: "Reddit API requests by endpoint and outcome",
	}, []string{"endpoint", "status"})
	APIRetries = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "nichefinder_reddit_retries_total",
		Help: "Reddit API retry attempts by reason",
	}, []string{"reason"})
	SearchRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "nichefinder_search_requests_total",
		Help: "Subreddit searches by result source",
	}, []string{"source"})
	JobRuns = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "nichefinder_fetch_jobs_total",
		Help: "Bulk post fetch job attempts by result",
	}, []string{"result"})
	JobDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "nichefinder_fetch_job_duration_seconds",
		Help:    "Bulk post fetch job duration",
		Buckets: prometheus.DefBuckets,
	})
)

func init() {
	prometheus.MustRegister(APIRequests, APIRetries, SearchRequests, JobRuns, JobDuration)
}

// Handler serves the /metrics endpoint.
func Handler() http.Handler { return promhttp.Handler() }
