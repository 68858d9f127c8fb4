package plet

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TotalRequests tracks HTTP attempts dispatched against the PLET endpoint.
	TotalRequests = promauto.NewCounter(prometheus.CounterOpts{
		Name: "plet_requests_total",
		Help: "The total number of HTTP requests sent to the PLET endpoint.",
	})
	// TotalRequestErrors tracks attempts that failed at the transport level.
	TotalRequestErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "plet_request_errors_total",
		Help: "The total number of failed HTTP requests.",
	})
	// TotalRetries tracks backoff sleeps taken between attempts.
	TotalRetries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "plet_retries_total",
		Help: "The total number of retry sleeps between attempts.",
	})
	// TotalEmptyResults tracks 200 responses carrying an embedded error page.
	TotalEmptyResults = promauto.NewCounter(prometheus.CounterOpts{
		Name: "plet_empty_results_total",
		Help: "The total number of responses flagged as embedded error pages.",
	})
	// TotalCacheHits tracks tasks skipped because their output already exists.
	TotalCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "plet_cache_hits_total",
		Help: "The total number of tasks satisfied by the on-disk cache.",
	})
	// TotalHarvested tracks tasks that produced a newly written file.
	TotalHarvested = promauto.NewCounter(prometheus.CounterOpts{
		Name: "plet_harvested_total",
		Help: "The total number of harvest tasks written to disk.",
	})
	// TotalTaskFailures tracks tasks that ended in a failed outcome.
	TotalTaskFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "plet_task_failures_total",
		Help: "The total number of harvest tasks that failed.",
	})
)
