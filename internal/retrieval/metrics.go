package retrieval

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "kouki",
		Subsystem: "document_cache",
		Name:      "hits_total",
		Help:      "Lookups served from a fresh snapshot without contacting the store.",
	})
	metricCacheRefreshes = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "kouki",
		Subsystem: "document_cache",
		Name:      "refreshes_total",
		Help:      "Successful snapshot refreshes from the document store.",
	})
	metricCacheRefreshFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "kouki",
		Subsystem: "document_cache",
		Name:      "refresh_failures_total",
		Help:      "Document store fetches that failed; the previous snapshot was kept.",
	})
	metricCacheDocuments = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "kouki",
		Subsystem: "document_cache",
		Name:      "documents",
		Help:      "Number of documents in the current snapshot.",
	})
	metricCandidates = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "kouki",
		Subsystem: "retrieval",
		Name:      "candidates_total",
		Help:      "Documents contributed to merged context, by retrieval strategy.",
	}, []string{"source"})
)

func recordCandidates(cands []Candidate) {
	for _, c := range cands {
		metricCandidates.WithLabelValues(string(c.Source)).Inc()
	}
}
