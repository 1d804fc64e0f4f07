// Package metrics exposes Prometheus counters for csi-ingestd's receive
// and flush paths. This is not part of spec.md — it is a supplemented
// ambient-observability surface (see SPEC_FULL.md, "Supplemented
// features"), wired the way runZeroInc-sockstats' exporter commands wire
// prometheus/client_golang + promhttp.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Gi-z/csi-ingestd/pkg/log"
)

var (
	DatagramsReceived = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "csi_ingestd_datagrams_received_total",
		Help: "UDP datagrams received, labeled by format byte.",
	}, []string{"format"})

	DatagramsDropped = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "csi_ingestd_datagrams_dropped_total",
		Help: "UDP datagrams dropped due to decode/decompression/framing failures.",
	}, []string{"reason"})

	RecordsEmitted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "csi_ingestd_records_emitted_total",
		Help: "DerivedRecords produced and appended to the batch buffer.",
	})

	SinkFlushes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "csi_ingestd_sink_flushes_total",
		Help: "Sink flush attempts, labeled by outcome.",
	}, []string{"outcome"})

	// OutOfOrder counts CSI frames flagged by the State Map as arriving
	// with a lower sequence number than the last-seen one for their key.
	// These are not dropped (a DerivedRecord is still emitted, per
	// spec.md §4.5) — this counter is how the condition is surfaced
	// without changing the record shape.
	OutOfOrder = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "csi_ingestd_out_of_order_total",
		Help: "CSI frames whose sequence_identifier preceded the sender's last-seen value.",
	})
)

func init() {
	prometheus.MustRegister(DatagramsReceived, DatagramsDropped, RecordsEmitted, SinkFlushes, OutOfOrder)
}

// Serve starts the /metrics HTTP endpoint on addr. It blocks; callers run
// it in its own goroutine. Disabled entirely when addr is empty.
func Serve(addr string) {
	if addr == "" {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	log.Info("[METRICS]> listening on ", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Error("[METRICS]> server exited: ", err)
	}
}
