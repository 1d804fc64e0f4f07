// Package dispatch implements the Packet Dispatcher (spec.md §4.4): it
// branches on a UDP datagram's format byte, decodes the payload, and runs
// the per-frame State Map processing (spec.md §4.5) to produce
// DerivedRecords for the Batch Coordinator.
package dispatch

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"

	"github.com/Gi-z/csi-ingestd/internal/csi"
	"github.com/Gi-z/csi-ingestd/internal/metrics"
	"github.com/Gi-z/csi-ingestd/internal/record"
	"github.com/Gi-z/csi-ingestd/internal/statemap"
	"github.com/Gi-z/csi-ingestd/internal/telemetry"
	"github.com/Gi-z/csi-ingestd/internal/wire"
	"github.com/Gi-z/csi-ingestd/pkg/log"
)

// Format bytes recognized at the head of an inbound datagram (spec.md §4.4).
const (
	FormatTelemetry       byte = 0x01
	FormatSingleCSI       byte = 0x02
	FormatCompressedBatch byte = 0x03
)

// ErrUnknownFormat is returned for any format byte outside {0x01, 0x02,
// 0x03} (spec.md §7, UnknownFormat).
var ErrUnknownFormat = errors.New("[DISPATCH]> unknown format byte")

// Dispatcher holds the shared state needed to turn a datagram into
// DerivedRecords: the State Map, the configured CSI frame size (used to
// frame compressed batches), and the two sink measurement names.
type Dispatcher struct {
	states               *statemap.Map
	frameSize            int
	csiMeasurement       string
	telemetryMeasurement string
}

// New returns a Dispatcher. frameSize is config's message.csi_frame_size
// (F in spec.md §4.4's slot framing).
func New(states *statemap.Map, frameSize int16, csiMeasurement, telemetryMeasurement string) *Dispatcher {
	return &Dispatcher{
		states:               states,
		frameSize:            int(frameSize),
		csiMeasurement:       csiMeasurement,
		telemetryMeasurement: telemetryMeasurement,
	}
}

// Dispatch decodes one UDP datagram's payload (format byte included) and
// returns the DerivedRecords it produced. A non-nil error means the whole
// packet was dropped; per-slot failures inside a compressed batch are
// logged and skipped without failing the batch (spec.md §4.4 step 3).
func (d *Dispatcher) Dispatch(datagram []byte) ([]record.Derived, error) {
	if len(datagram) == 0 {
		return nil, ErrUnknownFormat
	}
	format, body := datagram[0], datagram[1:]

	var (
		recs []record.Derived
		err  error
	)
	switch format {
	case FormatTelemetry:
		recs, err = d.dispatchTelemetry(body)
	case FormatSingleCSI:
		recs, err = d.dispatchSingleCSI(body)
	case FormatCompressedBatch:
		recs, err = d.dispatchCompressedBatch(body)
	default:
		err = fmt.Errorf("%w: 0x%02x", ErrUnknownFormat, format)
	}

	metrics.DatagramsReceived.WithLabelValues(fmt.Sprintf("0x%02x", format)).Inc()
	if err != nil {
		metrics.DatagramsDropped.WithLabelValues(dropReason(err)).Inc()
	} else {
		metrics.RecordsEmitted.Add(float64(len(recs)))
	}
	return recs, err
}

func dropReason(err error) string {
	switch {
	case errors.Is(err, ErrUnknownFormat):
		return "unknown_format"
	default:
		return "decode_error"
	}
}

func (d *Dispatcher) dispatchTelemetry(body []byte) ([]record.Derived, error) {
	f, err := wire.DecodeTelemetryMessage(body)
	if err != nil {
		return nil, fmt.Errorf("[DISPATCH]> telemetry protobuf decode: %w", err)
	}
	return []record.Derived{telemetry.NewRecord(f, d.telemetryMeasurement)}, nil
}

func (d *Dispatcher) dispatchSingleCSI(body []byte) ([]record.Derived, error) {
	rec, err := d.processCsiFrame(body)
	if err != nil {
		return nil, err
	}
	return []record.Derived{rec}, nil
}

// dispatchCompressedBatch implements spec.md §4.4's compressed-batch
// framing: F+1-byte slots, each [n byte][protobuf of length n][padding].
func (d *Dispatcher) dispatchCompressedBatch(body []byte) ([]record.Derived, error) {
	zr, err := zlib.NewReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("[DISPATCH]> decompression: %w", err)
	}
	defer zr.Close()

	decompressed, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("[DISPATCH]> decompression: %w", err)
	}

	slotSize := d.frameSize + 1
	if slotSize <= 0 || len(decompressed)%slotSize != 0 {
		return nil, fmt.Errorf("[DISPATCH]> framing: decompressed length %d is not a multiple of slot size %d", len(decompressed), slotSize)
	}

	frameCount := len(decompressed) / slotSize
	records := make([]record.Derived, 0, frameCount)

	for i := 0; i < frameCount; i++ {
		slot := decompressed[i*slotSize : (i+1)*slotSize]
		n := int(slot[0])
		if n > d.frameSize {
			log.Warn("[DISPATCH]> batch slot ", i, " declares length ", n, " exceeding frame size ", d.frameSize, ", skipping")
			continue
		}
		protobuf := slot[1 : 1+n]

		rec, err := d.processCsiFrame(protobuf)
		if err != nil {
			log.Warn("[DISPATCH]> batch slot ", i, " dropped: ", err)
			continue
		}
		records = append(records, rec)
	}

	return records, nil
}

// processCsiFrame runs the decode -> amplitude-scale -> State Map path
// shared by the single-CSI and compressed-batch formats (spec.md §4.5).
func (d *Dispatcher) processCsiFrame(protobuf []byte) (record.Derived, error) {
	f, err := wire.DecodeCsiMessage(protobuf)
	if err != nil {
		return record.Derived{}, fmt.Errorf("[DISPATCH]> csi protobuf decode: %w", err)
	}

	matrix, err := csi.Matrix(f)
	if err != nil {
		return record.Derived{}, fmt.Errorf("[DISPATCH]> csi matrix build: %w", err)
	}

	obs := csi.NewObservation(f, matrix)
	key := statemap.Key{Mac: obs.Mac, Antenna: obs.Antenna}

	var outOfOrder bool
	obs, outOfOrder = d.states.Upsert(key, obs)
	if outOfOrder {
		metrics.OutOfOrder.Inc()
	}

	return record.Derived{
		Kind:        record.KindCSIMetrics,
		Measurement: d.csiMeasurement,
		Tags: map[string]string{
			"mac":     obs.Mac,
			"antenna": fmt.Sprintf("%d", obs.Antenna),
		},
		Fields: map[string]any{
			"rssi":                   obs.RSSI,
			"noise_floor":            obs.NoiseFloor,
			"correlation_coefficient": obs.CorrelationCoefficient,
			"sequence_identifier":    int32(obs.SequenceIdentifier),
			"interval":               obs.Interval,
		},
		TimestampUs: int64(obs.TimestampUs),
	}, nil
}
