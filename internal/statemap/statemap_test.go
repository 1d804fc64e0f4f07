package statemap

import (
	"math"
	"testing"

	"github.com/Gi-z/csi-ingestd/internal/csi"
)

func mkObs(seq uint16, val float32) csi.Observation {
	var m csi.AmplitudeVector
	for i := range m {
		m[i] = val + float32(i)
	}
	return csi.Observation{
		Mac:                "aabbcc",
		SequenceIdentifier: seq,
		Matrix:             m,
	}
}

func TestUpsertFirstObservation(t *testing.T) {
	m := New(0, nil)
	key := Key{Mac: "aabbcc", Antenna: 0}

	got, outOfOrder := m.Upsert(key, mkObs(1, 1))
	if got.Interval != 1 {
		t.Fatalf("Interval = %d, want 1", got.Interval)
	}
	if got.CorrelationCoefficient != 0 {
		t.Fatalf("CorrelationCoefficient = %v, want 0", got.CorrelationCoefficient)
	}
	if outOfOrder {
		t.Fatal("first sighting must never be flagged out-of-order")
	}
}

func TestUpsertIdenticalFrameCorrelationIsOne(t *testing.T) {
	m := New(0, nil)
	key := Key{Mac: "aabbcc", Antenna: 0}

	m.Upsert(key, mkObs(1, 1))
	got, outOfOrder := m.Upsert(key, mkObs(2, 1))

	if got.Interval != 1 {
		t.Fatalf("Interval = %d, want 1", got.Interval)
	}
	if math.Abs(float64(got.CorrelationCoefficient)-1) > 1e-5 {
		t.Fatalf("CorrelationCoefficient = %v, want ~1", got.CorrelationCoefficient)
	}
	if outOfOrder {
		t.Fatal("in-order arrival must not be flagged out-of-order")
	}
}

func TestUpsertOutOfOrderSkipsCorrelation(t *testing.T) {
	m := New(0, nil)
	key := Key{Mac: "aabbcc", Antenna: 0}

	m.Upsert(key, mkObs(100, 1))
	got, outOfOrder := m.Upsert(key, mkObs(99, 5))

	if got.CorrelationCoefficient != 0 {
		t.Fatalf("CorrelationCoefficient = %v, want 0 for out-of-order frame", got.CorrelationCoefficient)
	}
	if got.Interval != 100 {
		t.Fatalf("Interval = %d, want 100 (previous sequence number)", got.Interval)
	}
	if !outOfOrder {
		t.Fatal("expected the out-of-order flag to be set")
	}
}

func TestUpsertSequenceWraparound(t *testing.T) {
	m := New(0, nil)
	key := Key{Mac: "aabbcc", Antenna: 0}

	m.Upsert(key, mkObs(65500, 1))
	got, _ := m.Upsert(key, mkObs(10, 2))

	if got.Interval != 45 {
		t.Fatalf("Interval = %d, want 45 after 16-bit wraparound correction", got.Interval)
	}
}

func TestUpsertWindowThresholdTriggersRecompute(t *testing.T) {
	const windowSize = 3
	m := New(windowSize, nil)
	key := Key{Mac: "aabbcc", Antenna: 0}

	// The first upsert inserts the key; each later in-order upsert bumps the
	// counter, so windowSize+2 upserts take it past windowSize.
	var last csi.Observation
	for i := uint16(1); i <= windowSize+2; i++ {
		last, _ = m.Upsert(key, mkObs(i, float32(i)))
	}

	if c := m.shardFor(key).m[key].Counter; c != 0 {
		t.Fatalf("Counter = %d, want 0 (reset by the windowed recompute)", c)
	}
	if last.CorrelationCoefficient == 0 {
		t.Fatalf("expected a non-zero windowed correlation coefficient after crossing the threshold")
	}
}

func TestUpsertZeroWindowNeverRecomputes(t *testing.T) {
	m := New(0, nil)
	key := Key{Mac: "aabbcc", Antenna: 0}

	m.Upsert(key, mkObs(1, 1))
	for i := uint16(2); i <= 10; i++ {
		got, _ := m.Upsert(key, mkObs(i, float32(i)))
		if math.IsNaN(float64(got.CorrelationCoefficient)) {
			t.Fatalf("seq %d: CorrelationCoefficient is NaN; W==0 must never trigger the windowed path", i)
		}
	}
}

func TestUpsertCallsOnNewKeyOnceOnFirstSight(t *testing.T) {
	var seen []Key
	m := New(0, func(k Key) { seen = append(seen, k) })
	key := Key{Mac: "aabbcc", Antenna: 0}

	m.Upsert(key, mkObs(1, 1))
	m.Upsert(key, mkObs(2, 2))

	if len(seen) != 1 {
		t.Fatalf("onNewKey called %d times, want 1", len(seen))
	}
}

func TestLenCountsDistinctKeys(t *testing.T) {
	m := New(0, nil)
	m.Upsert(Key{Mac: "aabbcc", Antenna: 0}, mkObs(1, 1))
	m.Upsert(Key{Mac: "aabbcc", Antenna: 1}, mkObs(1, 1))
	m.Upsert(Key{Mac: "ddeeff", Antenna: 0}, mkObs(1, 1))

	if got := m.Len(); got != 3 {
		t.Fatalf("Len() = %d, want 3", got)
	}
}
