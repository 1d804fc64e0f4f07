package csi

import (
	"math"
	"testing"

	"github.com/Gi-z/csi-ingestd/internal/wire"
)

func makeCsiData(fill func(idx int) byte) []byte {
	data := make([]byte, expectedCsiDataLen)
	for i := range data {
		data[i] = fill(i)
	}
	return data
}

func TestAmplitudeVectorElementZero(t *testing.T) {
	data := makeCsiData(func(i int) byte { return byte(3 + i%5) })
	v, err := amplitudeVector(data)
	if err != nil {
		t.Fatalf("amplitudeVector: %v", err)
	}
	scaled := ScaledAmplitudeVector(v, -40)
	if scaled[0] != 0 {
		t.Fatalf("AmplitudeVector[0] = %v, want 0", scaled[0])
	}
}

func TestAmplitudeVectorBadLength(t *testing.T) {
	if _, err := amplitudeVector(make([]byte, 127)); err != ErrBadFrameLength {
		t.Fatalf("expected ErrBadFrameLength, got %v", err)
	}
}

func TestAmplitudeVectorZeroMagnitudeIsZeroDB(t *testing.T) {
	data := make([]byte, expectedCsiDataLen) // all zero -> mag == 0 everywhere
	v, err := amplitudeVector(data)
	if err != nil {
		t.Fatalf("amplitudeVector: %v", err)
	}
	for i, x := range v {
		if x != 0 {
			t.Fatalf("element %d = %v, want 0 (log10(0) replaced by 0)", i, x)
		}
	}
}

func TestMatrixRequiresExactLength(t *testing.T) {
	f := wire.CsiFields{CsiData: make([]byte, 127), RSSI: -40}
	if _, err := Matrix(f); err != ErrBadFrameLength {
		t.Fatalf("expected ErrBadFrameLength, got %v", err)
	}
}

func TestRequiredSubcarrierSetSize(t *testing.T) {
	seen := make(map[int]bool)
	for _, k := range requiredSubcarriers {
		seen[k] = true
	}
	if len(seen) != ActiveSubcarriers {
		t.Fatalf("required subcarrier set has %d unique members, want %d", len(seen), ActiveSubcarriers)
	}
	for k := range seen {
		inGuard := k < 2 || (k > 27 && k < 37) || k > 63
		if inGuard {
			t.Fatalf("subcarrier %d should have been filtered as a guard carrier", k)
		}
	}
}

func TestScalingFactorDividesByFixedSixtyFour(t *testing.T) {
	// Regression for the documented Open Question: the divisor is a fixed
	// 64, not len(v) (53), even though v only has 53 active elements.
	var v AmplitudeVector
	for i := range v {
		v[i] = 2
	}
	got := scalingFactor(v, 0) // rssi=0 -> rssiPower=1
	want := 1 / (float64(ActiveSubcarriers) * 4 / 64)
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("scalingFactor = %v, want %v", got, want)
	}
}
