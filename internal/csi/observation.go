package csi

import "github.com/Gi-z/csi-ingestd/internal/wire"

// Observation is one decoded, amplitude-scaled CSI reading plus the
// per-frame metrics the State Map derives against the previous observation
// for the same sender/antenna (spec.md §3, "CsiObservation").
type Observation struct {
	TimestampUs           uint64
	RSSI                  int32
	NoiseFloor            int32
	SequenceIdentifier    uint16
	Antenna               uint8
	Mac                   string // hex of src_mac[3:6], no separators
	CorrelationCoefficient float32
	Interval              int32
	Matrix                AmplitudeVector
}

const hexDigits = "0123456789abcdef"

// macTag renders the least-significant three bytes of a 6-byte MAC as
// lowercase hex with no separators (spec.md §4.5: "concatenated hex of
// src_mac[3..6]").
func macTag(mac []byte) string {
	if len(mac) != 6 {
		return ""
	}
	tail := mac[3:6]
	buf := make([]byte, 0, 6)
	for _, b := range tail {
		buf = append(buf, hexDigits[b>>4], hexDigits[b&0x0f])
	}
	return string(buf)
}

// NewObservation builds an Observation from decoded CsiFrame fields and its
// amplitude-scaled matrix. CorrelationCoefficient and Interval are left at
// their zero values; the State Map fills them in during upsert (spec.md
// §4.5).
func NewObservation(f wire.CsiFields, matrix AmplitudeVector) Observation {
	return Observation{
		TimestampUs:        f.TimestampUs,
		RSSI:               f.RSSI,
		NoiseFloor:         f.NoiseFloor,
		SequenceIdentifier: f.SequenceIdentifier,
		Antenna:            f.Antenna,
		Mac:                macTag(f.SrcMac),
		Matrix:             matrix,
	}
}
