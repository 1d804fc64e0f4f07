// Package telemetry turns a decoded TelemetryFrame into the
// sensor-telemetry DerivedRecord spec.md §3/§9 describes: tags
// device_mac, version, device_type, message_type, is_eth and fields
// current_sequence_identifier, uptime_ms.
package telemetry

import (
	"strconv"

	"github.com/Gi-z/csi-ingestd/internal/record"
	"github.com/Gi-z/csi-ingestd/internal/wire"
)

const hexDigitsUpper = "0123456789ABCDEF"

// macTag renders the least-significant byte of a 6-byte device MAC as
// "0x"-prefixed uppercase hex (spec.md §8 scenario 1: device_mac=0x00…0xAB
// -> tag device_mac="0xAB").
func macTag(mac []byte) string {
	if len(mac) != 6 {
		return ""
	}
	b := mac[5]
	return "0x" + string([]byte{hexDigitsUpper[b>>4], hexDigitsUpper[b&0x0f]})
}

// NewRecord builds the sensor-telemetry DerivedRecord for f. measurement is
// the configured sensor_telemetry_measurement name (spec.md §6).
func NewRecord(f wire.TelemetryFields, measurement string) record.Derived {
	return record.Derived{
		Kind:        record.KindTelemetry,
		Measurement: measurement,
		Tags: map[string]string{
			"device_mac":   macTag(f.DeviceMac),
			"version":      f.Version,
			"device_type":  strconv.FormatInt(int64(f.DeviceType), 10),
			"message_type": strconv.FormatInt(int64(f.MessageType), 10),
			"is_eth":       strconv.FormatBool(f.IsEth),
		},
		Fields: map[string]any{
			"current_sequence_identifier": int64(f.CurrentSequenceIdentifier),
			"uptime_ms":                   f.UptimeMs,
		},
		TimestampUs: int64(f.TimestampUs),
	}
}
