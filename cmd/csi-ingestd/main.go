// Command csi-ingestd is the UDP ingestion daemon for Wi-Fi
// Channel-State-Information frames: it decodes CsiFrame/TelemetryFrame
// datagrams, derives per-link signal metrics, and batches the results to
// an InfluxDB sink.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Gi-z/csi-ingestd/internal/batch"
	"github.com/Gi-z/csi-ingestd/internal/config"
	"github.com/Gi-z/csi-ingestd/internal/dispatch"
	"github.com/Gi-z/csi-ingestd/internal/ingest"
	"github.com/Gi-z/csi-ingestd/internal/metrics"
	"github.com/Gi-z/csi-ingestd/internal/sink"
	"github.com/Gi-z/csi-ingestd/internal/statemap"
	"github.com/Gi-z/csi-ingestd/pkg/log"
)

func main() {
	configPath := flag.String("config", "config.toml", "path to the TOML configuration file")
	logLevel := flag.String("loglevel", "info", "log level: crit, err, warn, info, debug")
	logDate := flag.Bool("logdate", false, "prefix log lines with a timestamp")
	flag.Parse()

	log.SetLevel(*logLevel)
	log.SetLogDateTime(*logDate)

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal("[MAIN]> startup: ", err)
	}

	states := statemap.New(cfg.Buffer.WindowSize, func(key statemap.Key) {
		log.Debug("[STATEMAP]> new sender ", key.Mac, " antenna ", key.Antenna)
	})
	d := dispatch.New(states, cfg.Message.CsiFrameSize, cfg.Influx.CsiMetricsMeasurement, cfg.Influx.SensorTelemetryMeasurement)
	coord := batch.New(cfg.Influx.WriteBatchSize)
	flusher := sink.New(cfg)
	defer flusher.Close()

	log.Info(fmt.Sprintf(
		"starting csi-ingestd: %d workers, listening on %s:%d, flushing to %s (batch threshold %d)",
		ingest.NumWorkers(), cfg.Message.Address, cfg.Message.Port, cfg.URL(), cfg.Influx.WriteBatchSize,
	))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go metrics.Serve(cfg.Metrics.ListenAddress)
	go runFlusher(ctx, coord, flusher)

	addr := net.JoinHostPort(cfg.Message.Address, fmt.Sprintf("%d", cfg.Message.Port))
	if err := ingest.Run(ctx, addr, d, coord); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal("[MAIN]> ", err)
	}
}

// runFlusher is the Sink Flusher (spec.md §4.8): it waits for the
// coalescing flush signal, drains the buffer, and issues one bulk write.
// Shutdown is abrupt — a flush in flight is not awaited, and the buffer is
// not drained a final time on exit (spec.md §5, "Cancellation and
// timeouts: None internal").
func runFlusher(ctx context.Context, coord *batch.Coordinator, flusher *sink.Sink) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-coord.Signal():
		}

		recs := coord.Drain()
		if len(recs) == 0 {
			continue
		}

		writeCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		err := flusher.Flush(writeCtx, recs)
		cancel()

		if err != nil {
			metrics.SinkFlushes.WithLabelValues("error").Inc()
			log.Error("[SINK]> flush of ", len(recs), " records failed: ", err)
			continue
		}
		metrics.SinkFlushes.WithLabelValues("ok").Inc()
	}
}
