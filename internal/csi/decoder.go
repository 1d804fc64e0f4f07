// Package csi implements the Frame Decoder and Correlator components
// (spec.md §4.1, §4.2): turning a raw CsiFrame into an amplitude vector
// scaled against reported link power, and computing Pearson correlation
// between successive vectors.
package csi

import (
	"errors"
	"math"

	"github.com/Gi-z/csi-ingestd/internal/wire"
)

// ActiveSubcarriers is the length of every AmplitudeVector (spec.md §3).
const ActiveSubcarriers = 53

// expectedCsiDataLen is the only csi_data length the decoder accepts
// (spec.md §4.1: "standard mode", 64 complex pairs).
const expectedCsiDataLen = 128

// ErrBadFrameLength is returned when csi_data is not exactly 128 bytes
// (spec.md §7: CsiMatrixBuildFailure).
var ErrBadFrameLength = errors.New("[CSI]> csi_data must be 128 bytes")

// requiredSubcarriers is S from spec.md §4.1: {2..=27} ∪ {37..=63}, in
// ascending order. Its index in this slice is dest_index(k).
var requiredSubcarriers = buildRequiredSubcarriers()

func buildRequiredSubcarriers() [ActiveSubcarriers]int {
	var s [ActiveSubcarriers]int
	i := 0
	for k := 2; k <= 27; k++ {
		s[i] = k
		i++
	}
	for k := 37; k <= 63; k++ {
		s[i] = k
		i++
	}
	if i != ActiveSubcarriers {
		panic("[CSI]> required subcarrier set is not 53 elements")
	}
	return s
}

// AmplitudeVector is a fixed-length, ordered per-subcarrier amplitude
// vector (spec.md §3).
type AmplitudeVector [ActiveSubcarriers]float32

// amplitudeVector extracts the unscaled, dB-valued AmplitudeVector from
// csi_data (spec.md §4.1 step 1).
func amplitudeVector(csiData []byte) (AmplitudeVector, error) {
	if len(csiData) != expectedCsiDataLen {
		return AmplitudeVector{}, ErrBadFrameLength
	}

	var v AmplitudeVector
	for dest, k := range requiredSubcarriers {
		idx := 2 * k
		if idx+1 >= len(csiData) {
			return AmplitudeVector{}, ErrBadFrameLength
		}
		imag := float64(int8(csiData[idx]))
		real := float64(int8(csiData[idx+1]))
		mag := math.Sqrt(imag*imag + real*real)

		var db float64
		if mag > 0 {
			db = 20 * math.Log10(mag)
		}
		v[dest] = float32(db)
	}
	return v, nil
}

// scalingFactor computes σ from spec.md §4.1 step 2. Per spec.md §9's
// Open Question, the sum of squares is normalized against a fixed 64
// regardless of ActiveSubcarriers — kept verbatim.
func scalingFactor(v AmplitudeVector, rssi int32) float64 {
	sumSquares := 0.0
	for _, x := range v {
		fx := float64(x)
		sumSquares += fx * fx
	}
	rssiPower := math.Pow(10, float64(rssi)/10)
	return rssiPower / (sumSquares / 64)
}

// ScaledAmplitudeVector scales elements 1..52 of v by sqrt(scalingFactor)
// and sets element 0 of the result to zero (spec.md §4.1 step 3).
func ScaledAmplitudeVector(v AmplitudeVector, rssi int32) AmplitudeVector {
	sigma := scalingFactor(v, rssi)
	scale := float32(math.Sqrt(sigma))

	var out AmplitudeVector
	out[0] = 0
	for i := 1; i < ActiveSubcarriers; i++ {
		out[i] = v[i] * scale
	}
	return out
}

// Matrix runs the full Frame Decoder pipeline on a decoded CsiFrame's
// fields, producing the amplitude-scaled matrix that feeds the
// Correlator and the State Map.
func Matrix(f wire.CsiFields) (AmplitudeVector, error) {
	raw, err := amplitudeVector(f.CsiData)
	if err != nil {
		return AmplitudeVector{}, err
	}
	return ScaledAmplitudeVector(raw, f.RSSI), nil
}
