package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var PagesFetched = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "contaazul_pages_fetched_total",
		Help: "Pages successfully fetched from the Conta Azul API",
	},
	[]string{"resource"},
)

var RateLimited = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "contaazul_rate_limited_total",
		Help: "HTTP 429 responses received from the Conta Azul API",
	},
	[]string{"resource"},
)

var UpstreamErrors = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "contaazul_upstream_errors_total",
		Help: "Fetch scopes aborted by a non-2xx response, transport error or exhausted retries",
	},
	[]string{"resource"},
)

var RowsUpserted = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "contaazul_rows_upserted_total",
		Help: "Rows inserted or updated per destination table",
	},
	[]string{"table"},
)

var BatchFailures = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "contaazul_batch_failures_total",
		Help: "Batches rolled back per destination table",
	},
	[]string{"table"},
)

var SyncRuns = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "contaazul_sync_runs_total",
		Help: "Entity sync runs by final status",
	},
	[]string{"entity", "status"},
)

var registerOnce sync.Once

// Register adds every collector to the default registry. Safe to call more
// than once.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(PagesFetched, RateLimited, UpstreamErrors, RowsUpserted, BatchFailures, SyncRuns)
	})
}

// Handler serves the default registry.
func Handler() http.Handler {
	Register()
	return promhttp.Handler()
}
