package statemap

import "github.com/Gi-z/csi-ingestd/internal/csi"

// window is a fixed-capacity ring buffer of observations, used to compute
// long-baseline correlation every W+1 in-order frames (spec.md §3,
// "window").
//
// No ecosystem ring-buffer library appeared anywhere in the retrieval pack
// (the closest precedent, `container/ring`, is circular-list based and
// awkward for an append-then-overwrite access pattern); a small
// slice-backed ring is the idiomatic, dependency-free way to express this
// in Go and is what the stdlib's own container packages model.
type window struct {
	data []csi.Observation
	cap  int
	head int
	len  int
}

// newWindow returns a window with the given capacity. Capacity 0 is valid
// and always holds zero elements (spec.md §9: implementations "may elide
// the ring buffer entirely when W == 0").
func newWindow(capacity int) *window {
	return &window{cap: capacity}
}

func (w *window) push(o csi.Observation) {
	if w.cap == 0 {
		return
	}
	if w.len < w.cap {
		w.data = append(w.data, o)
		w.len++
		return
	}
	w.data[w.head] = o
	w.head = (w.head + 1) % w.cap
}

// snapshot returns the window's contents ordered oldest-first.
func (w *window) snapshot() []csi.Observation {
	if w.len < w.cap {
		out := make([]csi.Observation, w.len)
		copy(out, w.data)
		return out
	}
	out := make([]csi.Observation, 0, w.len)
	out = append(out, w.data[w.head:]...)
	out = append(out, w.data[:w.head]...)
	return out
}
