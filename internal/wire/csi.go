package wire

import "google.golang.org/protobuf/encoding/protowire"

// Field numbers for CsiMessage. The IDL itself lives outside this spec
// (spec.md §9); these are fixed here so encoder and decoder agree — see
// SPEC_FULL.md §6.
const (
	csiFieldTimestampUs         = 1
	csiFieldSequenceIdentifier  = 2
	csiFieldAntenna             = 3
	csiFieldRSSI                = 4
	csiFieldNoiseFloor          = 5
	csiFieldSrcMac              = 6
	csiFieldCsiData             = 7
)

// CsiFields holds exactly the fields of CsiFrame that spec.md §3 lists.
// SrcMac is copied as received and its length is not checked here;
// callers must check it.
type CsiFields struct {
	TimestampUs        uint64
	SequenceIdentifier uint16
	Antenna            uint8
	RSSI               int32
	NoiseFloor         int32
	SrcMac             []byte
	CsiData            []byte
}

// DecodeCsiMessage parses the documented fields of a CsiMessage protobuf
// out of buf, skipping any field number it does not recognize (standard
// protobuf forward-compatibility). Unknown wire types or a buffer that
// truncates mid-field yield ErrTruncated.
func DecodeCsiMessage(buf []byte) (CsiFields, error) {
	var f CsiFields
	for len(buf) > 0 {
		num, typ, n := protowire.ConsumeTag(buf)
		if n < 0 {
			return CsiFields{}, ErrTruncated
		}
		buf = buf[n:]

		switch num {
		case csiFieldTimestampUs:
			v, n := protowire.ConsumeVarint(buf)
			if n < 0 {
				return CsiFields{}, ErrTruncated
			}
			f.TimestampUs = v
			buf = buf[n:]
		case csiFieldSequenceIdentifier:
			v, n := protowire.ConsumeVarint(buf)
			if n < 0 {
				return CsiFields{}, ErrTruncated
			}
			f.SequenceIdentifier = uint16(v)
			buf = buf[n:]
		case csiFieldAntenna:
			v, n := protowire.ConsumeVarint(buf)
			if n < 0 {
				return CsiFields{}, ErrTruncated
			}
			f.Antenna = uint8(v)
			buf = buf[n:]
		case csiFieldRSSI:
			v, n := protowire.ConsumeVarint(buf)
			if n < 0 {
				return CsiFields{}, ErrTruncated
			}
			f.RSSI = int32(int64(v))
			buf = buf[n:]
		case csiFieldNoiseFloor:
			v, n := protowire.ConsumeVarint(buf)
			if n < 0 {
				return CsiFields{}, ErrTruncated
			}
			f.NoiseFloor = int32(int64(v))
			buf = buf[n:]
		case csiFieldSrcMac:
			v, n := protowire.ConsumeBytes(buf)
			if n < 0 {
				return CsiFields{}, ErrTruncated
			}
			f.SrcMac = append([]byte(nil), v...)
			buf = buf[n:]
		case csiFieldCsiData:
			v, n := protowire.ConsumeBytes(buf)
			if n < 0 {
				return CsiFields{}, ErrTruncated
			}
			f.CsiData = append([]byte(nil), v...)
			buf = buf[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, buf)
			if n < 0 {
				return CsiFields{}, ErrTruncated
			}
			buf = buf[n:]
		}
	}
	return f, nil
}

// EncodeCsiMessage is the inverse of DecodeCsiMessage. Production code never
// calls it — CsiMessage is produced by sensors, not by this service — but
// it is exercised heavily by tests to build fixtures without depending on a
// real protoc toolchain, which spec.md §1 explicitly puts out of scope.
func EncodeCsiMessage(f CsiFields) []byte {
	var buf []byte
	buf = protowire.AppendTag(buf, csiFieldTimestampUs, protowire.VarintType)
	buf = protowire.AppendVarint(buf, f.TimestampUs)
	buf = protowire.AppendTag(buf, csiFieldSequenceIdentifier, protowire.VarintType)
	buf = protowire.AppendVarint(buf, uint64(f.SequenceIdentifier))
	buf = protowire.AppendTag(buf, csiFieldAntenna, protowire.VarintType)
	buf = protowire.AppendVarint(buf, uint64(f.Antenna))
	buf = protowire.AppendTag(buf, csiFieldRSSI, protowire.VarintType)
	buf = protowire.AppendVarint(buf, uint64(int64(f.RSSI)))
	buf = protowire.AppendTag(buf, csiFieldNoiseFloor, protowire.VarintType)
	buf = protowire.AppendVarint(buf, uint64(int64(f.NoiseFloor)))
	buf = protowire.AppendTag(buf, csiFieldSrcMac, protowire.BytesType)
	buf = protowire.AppendBytes(buf, f.SrcMac)
	buf = protowire.AppendTag(buf, csiFieldCsiData, protowire.BytesType)
	buf = protowire.AppendBytes(buf, f.CsiData)
	return buf
}
