// Package statemap implements the State Map (spec.md §4.3): a
// concurrent mapping of (sender MAC, antenna) to the sender's last
// observation and correlation window, with no global lock.
//
// It is the Go rendering of the original's `dashmap::DashMap` and mirrors
// the per-node `sync.RWMutex` striping used by
// ClusterCockpit-cc-backend's `internal/memorystore.Level` tree, flattened
// to a single fixed-size shard array since this keyspace has no
// hierarchy (see SPEC_FULL.md §4.3a).
package statemap

import (
	"hash/fnv"
	"sync"

	"github.com/Gi-z/csi-ingestd/internal/csi"
)

// ShardCount is the number of independent locking buckets the map is
// striped into.
const ShardCount = 64

// Key identifies one sender's antenna.
type Key struct {
	Mac     string
	Antenna uint8
}

// wraparoundThreshold and seqMax implement spec.md §4.5's 16-bit sequence
// wraparound correction.
const (
	wraparoundThreshold = 65000
	seqMax              = 65535
)

// SenderState is one entry of the State Map (spec.md §3).
type SenderState struct {
	Last    csi.Observation
	window  *window
	Counter int
}

type shard struct {
	mu sync.RWMutex
	m  map[Key]*SenderState
}

// Map is the concurrent State Map. The zero value is not usable; use New.
type Map struct {
	shards     [ShardCount]*shard
	windowSize int
	onNewKey   func(Key)
}

// New returns a Map whose per-sender windows hold up to windowSize
// observations. onNewKey, if non-nil, is called (outside any lock) the
// first time a key is seen — used to log "new sender" per spec.md §4.3.
func New(windowSize int, onNewKey func(Key)) *Map {
	m := &Map{windowSize: windowSize, onNewKey: onNewKey}
	for i := range m.shards {
		m.shards[i] = &shard{m: make(map[Key]*SenderState)}
	}
	return m
}

func (m *Map) shardFor(key Key) *shard {
	h := fnv.New32a()
	h.Write([]byte(key.Mac))
	h.Write([]byte{key.Antenna})
	return m.shards[h.Sum32()%ShardCount]
}

// Upsert applies the per-frame processing in spec.md §4.5 to obs for key,
// mutating the stored state and returning the Observation as it should be
// emitted (with CorrelationCoefficient and Interval filled in) plus
// whether this arrival was flagged out-of-order — SPEC_FULL.md's
// resolution of the "flagging in telemetry" Open Question: the record
// shape doesn't change, but callers can surface it separately (e.g. as a
// metrics counter) without re-deriving it from Interval.
func (m *Map) Upsert(key Key, obs csi.Observation) (csi.Observation, bool) {
	sh := m.shardFor(key)

	sh.mu.Lock()
	state, ok := sh.m[key]
	if !ok {
		obs.CorrelationCoefficient = 0
		obs.Interval = 1
		sh.m[key] = &SenderState{
			Last:   obs,
			window: newWindow(m.windowSize),
		}
		sh.mu.Unlock()
		if m.onNewKey != nil {
			m.onNewKey(key)
		}
		return obs, false
	}

	prevSeq := state.Last.SequenceIdentifier
	newInterval := int32(obs.SequenceIdentifier) - int32(prevSeq)

	outOfOrder := obs.SequenceIdentifier < prevSeq
	if outOfOrder {
		// Out-of-order arrival: encode the previous sequence number into
		// Interval (spec.md §4.5, §9 Open Question) and skip correlation.
		obs.Interval = int32(prevSeq)
		obs.CorrelationCoefficient = 0
	} else {
		obs.CorrelationCoefficient = csi.Pearson(obs.Matrix, state.Last.Matrix)
		obs.Interval = newInterval

		state.window.push(obs)
		state.Counter++

		if m.windowSize > 0 && state.Counter > m.windowSize {
			state.Counter = 0
			obs.CorrelationCoefficient = csi.WindowPearson(state.window.snapshot())
		}
	}

	if obs.Interval > wraparoundThreshold {
		obs.Interval = int32(obs.SequenceIdentifier) + (seqMax - int32(prevSeq))
	}

	state.Last = obs
	sh.mu.Unlock()

	return obs, outOfOrder
}

// Len returns the total number of distinct (mac, antenna) keys tracked,
// across all shards. Intended for tests and diagnostics only.
func (m *Map) Len() int {
	n := 0
	for _, sh := range m.shards {
		sh.mu.RLock()
		n += len(sh.m)
		sh.mu.RUnlock()
	}
	return n
}
