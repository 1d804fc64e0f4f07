package batch

import (
	"testing"
	"time"

	"github.com/Gi-z/csi-ingestd/internal/record"
)

func mkRecs(n int) []record.Derived {
	out := make([]record.Derived, n)
	for i := range out {
		out[i] = record.Derived{Measurement: "m"}
	}
	return out
}

func TestAppendBelowThresholdDoesNotSignal(t *testing.T) {
	c := New(10)
	c.Append(mkRecs(5))

	select {
	case <-c.Signal():
		t.Fatal("unexpected flush signal below threshold")
	case <-time.After(10 * time.Millisecond):
	}
	if c.Len() != 5 {
		t.Fatalf("Len() = %d, want 5", c.Len())
	}
}

func TestAppendAboveThresholdSignals(t *testing.T) {
	c := New(3)
	c.Append(mkRecs(4))

	select {
	case <-c.Signal():
	case <-time.After(time.Second):
		t.Fatal("expected a flush signal above threshold")
	}
}

func TestSignalCoalesces(t *testing.T) {
	c := New(1)
	c.Append(mkRecs(5))
	c.Append(mkRecs(5))
	c.Append(mkRecs(5))

	select {
	case <-c.Signal():
	case <-time.After(time.Second):
		t.Fatal("expected at least one flush signal")
	}

	select {
	case <-c.Signal():
		t.Fatal("expected repeated Append calls to coalesce into a single pending signal")
	default:
	}
}

func TestDrainEmptiesBuffer(t *testing.T) {
	c := New(10)
	c.Append(mkRecs(3))

	drained := c.Drain()
	if len(drained) != 3 {
		t.Fatalf("Drain() returned %d records, want 3", len(drained))
	}
	if c.Len() != 0 {
		t.Fatalf("Len() after Drain = %d, want 0", c.Len())
	}
	if got := c.Drain(); got != nil {
		t.Fatalf("second Drain() = %v, want nil", got)
	}
}
