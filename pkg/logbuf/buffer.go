// Package logbuf keeps a bounded, in-memory tail of recent log lines so the
// moments before a failure can be attached to a bug report after the fact.
package logbuf

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/modoterra/bugreport/pkg/core"
)

// DefaultCapacity is used when a buffer is created with a non-positive capacity.
const DefaultCapacity = 1000

// subscriberQueue is the channel depth of each live subscriber.
const subscriberQueue = 100

// Buffer is a fixed-capacity ring of log lines. Once full, recording a new
// line evicts the oldest one. A nil *Buffer records nothing and reports empty.
//
// Record may be called from any number of goroutines. Each call holds the
// mutex only long enough to place one line, so a Snapshot either sees a line
// completely or not at all.
type Buffer struct {
	mu    sync.Mutex
	lines []core.LogLine
	head  int
	count int
	subs  []chan core.LogLine

	seq     atomic.Uint64
	evicted atomic.Uint64
	now     func() time.Time
}

// New allocates a buffer that retains at most capacity lines.
func New(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Buffer{
		lines: make([]core.LogLine, capacity),
		now:   time.Now,
	}
}

// Record appends a line at the tail, evicting from the head when the buffer is
// full. The line's Seq is always assigned by the buffer; its Time is filled in
// when zero. Record never fails and never blocks on subscribers.
func (b *Buffer) Record(line core.LogLine) {
	if b == nil {
		return
	}
	if line.Time.IsZero() {
		line.Time = b.now()
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	// Seq is taken inside the lock so sequence order matches ring order.
	line.Seq = b.seq.Add(1)

	if b.count == len(b.lines) {
		b.lines[b.head] = line
		b.head = (b.head + 1) % len(b.lines)
		b.evicted.Add(1)
	} else {
		b.lines[(b.head+b.count)%len(b.lines)] = line
		b.count++
	}

	for _, ch := range b.subs {
		select {
		case ch <- line:
		default:
		}
	}
}

// Snapshot returns a copy of the buffered lines, oldest first.
func (b *Buffer) Snapshot() []core.LogLine {
	if b == nil {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]core.LogLine, b.count)
	for i := 0; i < b.count; i++ {
		out[i] = b.lines[(b.head+i)%len(b.lines)]
	}
	return out
}

// Len returns the number of lines currently held.
func (b *Buffer) Len() int {
	if b == nil {
		return 0
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.count
}

// Cap returns the maximum number of lines the buffer retains.
func (b *Buffer) Cap() int {
	if b == nil {
		return 0
	}
	return len(b.lines)
}

// Total returns the number of lines ever recorded, including evicted ones.
func (b *Buffer) Total() uint64 {
	if b == nil {
		return 0
	}
	return b.seq.Load()
}

// Evicted returns the number of lines dropped from the head because the
// buffer was full.
func (b *Buffer) Evicted() uint64 {
	if b == nil {
		return 0
	}
	return b.evicted.Load()
}

// Reset discards all buffered lines. Sequence numbers keep increasing.
func (b *Buffer) Reset() {
	if b == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	clear(b.lines)
	b.head = 0
	b.count = 0
}

// Subscribe returns a channel that receives every line recorded after the
// call. Slow subscribers miss lines rather than stall writers. A nil buffer
// returns a closed channel.
func (b *Buffer) Subscribe() <-chan core.LogLine {
	ch := make(chan core.LogLine, subscriberQueue)
	if b == nil {
		close(ch)
		return ch
	}
	b.mu.Lock()
	b.subs = append(b.subs, ch)
	b.mu.Unlock()
	return ch
}

// Unsubscribe stops delivery to ch and closes it.
func (b *Buffer) Unsubscribe(ch <-chan core.LogLine) {
	if b == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, s := range b.subs {
		if s == ch {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			close(s)
			return
		}
	}
}
