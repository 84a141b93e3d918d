package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	namespace = "confessionserver"

	metricLabelRoute  = "route"
	metricLabelStatus = "status"
)

// Metrics is the structure that holds all prometheus metrics
var (
	// ServiceRequestCounter count the number of requests for each route
	ServiceRequestCounter = newCounterVec(
		"service_request_count",
		"Count of requests for each route",
		metricLabelRoute, metricLabelStatus,
	)
	// ServiceRequestDuration observe the duration of requests for each route
	ServiceRequestDuration = newSummaryVec(
		"service_request_duration_seconds",
		"Seconds to decode a request, execute a service call and encode its response",
		metricLabelRoute, metricLabelStatus,
	)
	// OrphanedBlobCounter count audio blobs left behind by failed record inserts
	OrphanedBlobCounter = newCounterVec(
		"orphaned_blob_count",
		"Number of audio blobs orphaned because the record insert failed after the blob write",
	)
	// OrphanedRecordCounter count records left behind by failed record deletes
	OrphanedRecordCounter = newCounterVec(
		"orphaned_record_count",
		"Number of records orphaned because the record delete failed after the blob delete",
	)
)

func newSummaryVec(name, help string, labels ...string) *prometheus.SummaryVec {
	vec := prometheus.NewSummaryVec(
		prometheus.SummaryOpts{
			Namespace: namespace,
			Name:      name,
			Help:      help,
		}, labels)
	prometheus.MustRegister(vec)
	return vec
}

func newCounterVec(name, help string, labels ...string) *prometheus.CounterVec {
	vec := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      name,
			Help:      help,
		}, labels)
	prometheus.MustRegister(vec)
	return vec
}
