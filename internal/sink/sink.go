// Package sink implements the Sink Flusher (spec.md §4.8): it renders
// DerivedRecords as InfluxDB line protocol and issues a single blocking
// bulk write per flush.
package sink

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/line-protocol/v2/lineprotocol"

	"github.com/Gi-z/csi-ingestd/internal/config"
	"github.com/Gi-z/csi-ingestd/internal/record"
)

// writeAPI is the subset of api.WriteAPIBlocking the Sink depends on,
// letting tests substitute a fake without standing up a real server.
type writeAPI interface {
	WriteRecord(ctx context.Context, line ...string) error
}

// Sink issues bulk writes of DerivedRecords to the time-series database
// (spec.md §4.8 step 4).
type Sink struct {
	client influxdb2.Client
	api    writeAPI
}

// New builds a Sink from configuration (spec.md §6: influx.protocol,
// influx.address, influx.port, influx.database; org/token are carried as
// additional configuration the distilled spec left implicit).
func New(cfg *config.Config) *Sink {
	client := influxdb2.NewClient(cfg.URL(), cfg.Influx.Token)
	return &Sink{
		client: client,
		api:    client.WriteAPIBlocking(cfg.Influx.Org, cfg.Influx.Database),
	}
}

// Close releases the underlying HTTP client's resources.
func (s *Sink) Close() {
	s.client.Close()
}

// Flush renders recs as line protocol and issues one blocking write.
// Write failures are the caller's to log and discard — spec.md §4.8 step 5
// mandates no retry.
func (s *Sink) Flush(ctx context.Context, recs []record.Derived) error {
	if len(recs) == 0 {
		return nil
	}

	lines := make([]string, 0, len(recs))
	for _, rec := range recs {
		line, err := encodeLine(rec)
		if err != nil {
			return fmt.Errorf("[SINK]> encode record: %w", err)
		}
		lines = append(lines, line)
	}

	if err := s.api.WriteRecord(ctx, lines...); err != nil {
		return fmt.Errorf("[SINK]> write: %w", err)
	}
	return nil
}

// encodeLine renders a single DerivedRecord as one line-protocol line
// (spec.md §6's outbound field/tag lists).
func encodeLine(rec record.Derived) (string, error) {
	var enc lineprotocol.Encoder
	enc.SetPrecision(lineprotocol.Microsecond)

	enc.StartLine(rec.Measurement)

	tagKeys := make([]string, 0, len(rec.Tags))
	for k := range rec.Tags {
		tagKeys = append(tagKeys, k)
	}
	sort.Strings(tagKeys)
	for _, k := range tagKeys {
		enc.AddTag(k, rec.Tags[k])
	}

	fieldKeys := make([]string, 0, len(rec.Fields))
	for k := range rec.Fields {
		fieldKeys = append(fieldKeys, k)
	}
	sort.Strings(fieldKeys)
	for _, k := range fieldKeys {
		v, err := fieldValue(rec.Fields[k])
		if err != nil {
			return "", fmt.Errorf("field %q: %w", k, err)
		}
		enc.AddField(k, v)
	}

	enc.EndLine(time.UnixMicro(rec.TimestampUs))

	if err := enc.Err(); err != nil {
		return "", err
	}
	return strings.TrimSuffix(string(enc.Bytes()), "\n"), nil
}

func fieldValue(v any) (lineprotocol.Value, error) {
	switch x := v.(type) {
	case int32:
		return lineprotocol.IntValue(int64(x)), nil
	case int64:
		return lineprotocol.IntValue(x), nil
	case uint16:
		return lineprotocol.UintValue(uint64(x)), nil
	case float32:
		if fv, ok := lineprotocol.FloatValue(float64(x)); ok {
			return fv, nil
		}
		return lineprotocol.Value{}, fmt.Errorf("non-finite float value %v", x)
	case float64:
		if fv, ok := lineprotocol.FloatValue(x); ok {
			return fv, nil
		}
		return lineprotocol.Value{}, fmt.Errorf("non-finite float value %v", x)
	case bool:
		return lineprotocol.BoolValue(x), nil
	case string:
		if sv, ok := lineprotocol.StringValue(x); ok {
			return sv, nil
		}
		return lineprotocol.Value{}, fmt.Errorf("string value %q is not valid UTF-8", x)
	default:
		return lineprotocol.Value{}, fmt.Errorf("unsupported field value type %T", v)
	}
}
