package csi

import (
	"math"
	"testing"
)

const tolerance = 1e-5

func TestPearsonIdenticalVectorsIsOne(t *testing.T) {
	var v AmplitudeVector
	for i := range v {
		v[i] = float32(i) + 1
	}
	got := Pearson(v, v)
	if math.Abs(float64(got)-1) > tolerance {
		t.Fatalf("Pearson(v, v) = %v, want ~1", got)
	}
}

func TestPearsonInverseVectorsIsNegativeOne(t *testing.T) {
	var a, b AmplitudeVector
	for i := range a {
		a[i] = float32(i) + 1
		b[i] = -float32(i) - 1
	}
	got := Pearson(a, b)
	if math.Abs(float64(got)+1) > tolerance {
		t.Fatalf("Pearson(a, b) = %v, want ~-1", got)
	}
}

func TestPearsonBounded(t *testing.T) {
	a := AmplitudeVector{1, 5, 2, 9, 3, 7}
	b := AmplitudeVector{4, 2, 8, 1, 6, 3}
	got := Pearson(a, b)
	if math.Abs(float64(got)) > 1+tolerance {
		t.Fatalf("|Pearson| = %v, want <= 1+eps", got)
	}
}

func TestPearsonConstantVectorIsNaN(t *testing.T) {
	var a, b AmplitudeVector
	for i := range a {
		a[i] = 5
		b[i] = 1
	}
	got := Pearson(a, b)
	if !math.IsNaN(float64(got)) {
		t.Fatalf("Pearson of constant vector = %v, want NaN", got)
	}
}

func TestWindowPearsonFirstAndLast(t *testing.T) {
	mk := func(ts uint64, val float32) Observation {
		var m AmplitudeVector
		for i := range m {
			m[i] = val + float32(i)
		}
		return Observation{TimestampUs: ts, Matrix: m}
	}

	window := []Observation{
		mk(0, 1),
		mk(100_000, 2),
		mk(900_000, 3),
	}

	got := WindowPearson(window)
	want := Pearson(window[0].Matrix, window[2].Matrix)
	if got != want {
		t.Fatalf("WindowPearson = %v, want %v (pearson of first/last in-window observation)", got, want)
	}
}

func TestWindowPearsonDropsEntriesPastOneSecond(t *testing.T) {
	mk := func(ts uint64, val float32) Observation {
		var m AmplitudeVector
		for i := range m {
			m[i] = val + float32(i)
		}
		return Observation{TimestampUs: ts, Matrix: m}
	}

	window := []Observation{
		mk(0, 1),
		mk(500_000, 2),
		mk(1_500_000, 99), // past first+1s, must be excluded
	}

	got := WindowPearson(window)
	want := Pearson(window[0].Matrix, window[1].Matrix)
	if got != want {
		t.Fatalf("WindowPearson = %v, want %v (last in-window observation, not the late one)", got, want)
	}
}

func TestWindowPearsonSkipsOutOfOrder(t *testing.T) {
	mk := func(ts uint64, val float32) Observation {
		var m AmplitudeVector
		for i := range m {
			m[i] = val + float32(i)
		}
		return Observation{TimestampUs: ts, Matrix: m}
	}

	window := []Observation{
		mk(0, 1),
		mk(200_000, 2),
		mk(100_000, 77), // arrives "before" the previous timestamp, skipped
		mk(300_000, 3),
	}

	got := WindowPearson(window)
	want := Pearson(window[0].Matrix, window[3].Matrix)
	if got != want {
		t.Fatalf("WindowPearson = %v, want %v", got, want)
	}
}
