package wire

import "google.golang.org/protobuf/encoding/protowire"

// Field numbers for TelemetryMessage. See SPEC_FULL.md §6.
const (
	telemetryFieldTimestampUs                = 1
	telemetryFieldDeviceMac                  = 2
	telemetryFieldVersion                    = 3
	telemetryFieldDeviceType                 = 4
	telemetryFieldMessageType                = 5
	telemetryFieldCurrentSequenceIdentifier  = 6
	telemetryFieldUptimeMs                   = 7
	telemetryFieldIsEth                      = 8
)

// TelemetryFields holds exactly the fields of TelemetryFrame that
// spec.md §3 lists. DeviceType/MessageType are left as raw enum wire
// values (int32) since the enum's symbolic names are part of the IDL,
// which is out of scope (spec.md §1).
type TelemetryFields struct {
	TimestampUs               uint64
	DeviceMac                 []byte
	Version                   string
	DeviceType                int32
	MessageType               int32
	CurrentSequenceIdentifier uint16
	UptimeMs                  int64
	IsEth                     bool
}

// DecodeTelemetryMessage parses the documented fields of a
// TelemetryMessage protobuf out of buf.
func DecodeTelemetryMessage(buf []byte) (TelemetryFields, error) {
	var f TelemetryFields
	for len(buf) > 0 {
		num, typ, n := protowire.ConsumeTag(buf)
		if n < 0 {
			return TelemetryFields{}, ErrTruncated
		}
		buf = buf[n:]

		switch num {
		case telemetryFieldTimestampUs:
			v, n := protowire.ConsumeVarint(buf)
			if n < 0 {
				return TelemetryFields{}, ErrTruncated
			}
			f.TimestampUs = v
			buf = buf[n:]
		case telemetryFieldDeviceMac:
			v, n := protowire.ConsumeBytes(buf)
			if n < 0 {
				return TelemetryFields{}, ErrTruncated
			}
			f.DeviceMac = append([]byte(nil), v...)
			buf = buf[n:]
		case telemetryFieldVersion:
			v, n := protowire.ConsumeBytes(buf)
			if n < 0 {
				return TelemetryFields{}, ErrTruncated
			}
			f.Version = string(v)
			buf = buf[n:]
		case telemetryFieldDeviceType:
			v, n := protowire.ConsumeVarint(buf)
			if n < 0 {
				return TelemetryFields{}, ErrTruncated
			}
			f.DeviceType = int32(int64(v))
			buf = buf[n:]
		case telemetryFieldMessageType:
			v, n := protowire.ConsumeVarint(buf)
			if n < 0 {
				return TelemetryFields{}, ErrTruncated
			}
			f.MessageType = int32(int64(v))
			buf = buf[n:]
		case telemetryFieldCurrentSequenceIdentifier:
			v, n := protowire.ConsumeVarint(buf)
			if n < 0 {
				return TelemetryFields{}, ErrTruncated
			}
			f.CurrentSequenceIdentifier = uint16(v)
			buf = buf[n:]
		case telemetryFieldUptimeMs:
			v, n := protowire.ConsumeVarint(buf)
			if n < 0 {
				return TelemetryFields{}, ErrTruncated
			}
			f.UptimeMs = int64(v)
			buf = buf[n:]
		case telemetryFieldIsEth:
			v, n := protowire.ConsumeVarint(buf)
			if n < 0 {
				return TelemetryFields{}, ErrTruncated
			}
			f.IsEth = v != 0
			buf = buf[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, buf)
			if n < 0 {
				return TelemetryFields{}, ErrTruncated
			}
			buf = buf[n:]
		}
	}
	return f, nil
}

// EncodeTelemetryMessage is the inverse of DecodeTelemetryMessage, used by
// tests to build fixtures (see EncodeCsiMessage doc comment).
func EncodeTelemetryMessage(f TelemetryFields) []byte {
	var buf []byte
	buf = protowire.AppendTag(buf, telemetryFieldTimestampUs, protowire.VarintType)
	buf = protowire.AppendVarint(buf, f.TimestampUs)
	buf = protowire.AppendTag(buf, telemetryFieldDeviceMac, protowire.BytesType)
	buf = protowire.AppendBytes(buf, f.DeviceMac)
	buf = protowire.AppendTag(buf, telemetryFieldVersion, protowire.BytesType)
	buf = protowire.AppendBytes(buf, []byte(f.Version))
	buf = protowire.AppendTag(buf, telemetryFieldDeviceType, protowire.VarintType)
	buf = protowire.AppendVarint(buf, uint64(int64(f.DeviceType)))
	buf = protowire.AppendTag(buf, telemetryFieldMessageType, protowire.VarintType)
	buf = protowire.AppendVarint(buf, uint64(int64(f.MessageType)))
	buf = protowire.AppendTag(buf, telemetryFieldCurrentSequenceIdentifier, protowire.VarintType)
	buf = protowire.AppendVarint(buf, uint64(f.CurrentSequenceIdentifier))
	buf = protowire.AppendTag(buf, telemetryFieldUptimeMs, protowire.VarintType)
	buf = protowire.AppendVarint(buf, uint64(f.UptimeMs))
	buf = protowire.AppendTag(buf, telemetryFieldIsEth, protowire.VarintType)
	var b uint64
	if f.IsEth {
		b = 1
	}
	buf = protowire.AppendVarint(buf, b)
	return buf
}
