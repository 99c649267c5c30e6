package edr

import (
	"errors"
	"fmt"
)

// Malformed-sample rejection reasons. Both leave the buffer untouched.
var (
	ErrEmptyPayload = errors.New("missing or empty payload")
	ErrOutOfOrder   = errors.New("sample timestamp out of order")
)

// Sample is one timestamped unit of channel data. Immutable once created.
type Sample struct {
	Timestamp float64 // simulation seconds
	Channel   string
	Payload   Payload
}

// RingBuffer holds a bounded, time-windowed ordered sequence of samples for
// one channel.
//
// While eviction is enabled (the armed state), every accepted push evicts
// samples strictly older than latest − preEventTime, so the retained window
// never exceeds the pre-event horizon. Once frozen by a trigger, eviction is
// suspended and the buffer grows until the post-event horizon, after which
// further pushes are dropped. Total depth is therefore bounded by
// (preEventTime + postEventTime) × sample rate.
type RingBuffer struct {
	channel       string
	preEventTime  float64
	postEventTime float64

	// Minimum spacing between accepted samples; 0 disables throttling.
	sampleInterval float64

	samples []Sample

	frozen  bool
	eventAt float64 // trigger timestamp, valid when frozen
	endAt   float64 // eventAt + postEventTime, valid when frozen

	last    float64 // timestamp of the last accepted sample
	hasLast bool
	next    float64 // earliest timestamp the throttle will accept
	hasNext bool
}

// NewRingBuffer creates a buffer for one channel. maxRate bounds the
// channel's sampling cadence in Hz; zero or negative disables throttling.
func NewRingBuffer(channel string, preEventTime, postEventTime, maxRate float64) *RingBuffer {
	interval := 0.0
	if maxRate > 0 {
		interval = 1.0 / maxRate
	}
	return &RingBuffer{
		channel:        channel,
		preEventTime:   preEventTime,
		postEventTime:  postEventTime,
		sampleInterval: interval,
	}
}

// Push appends a sample. Malformed samples (absent payload, timestamp
// earlier than the last accepted sample) are rejected with an error and the
// buffer is untouched. Samples arriving faster than the channel's rate, or
// after the post-event horizon while frozen, are silently skipped.
func (b *RingBuffer) Push(s Sample) error {
	if s.Payload == nil || s.Payload.Empty() {
		return fmt.Errorf("channel %s at t=%.6f: %w", b.channel, s.Timestamp, ErrEmptyPayload)
	}
	if b.hasLast && s.Timestamp < b.last {
		return fmt.Errorf("channel %s: t=%.6f precedes t=%.6f: %w",
			b.channel, s.Timestamp, b.last, ErrOutOfOrder)
	}

	// Too soon: exceeding the channel's maximum sample rate.
	if b.hasNext && s.Timestamp < b.next {
		return nil
	}

	// Event storage has finished; the window is complete.
	if b.frozen && s.Timestamp > b.endAt {
		return nil
	}

	b.samples = append(b.samples, s)
	b.last = s.Timestamp
	b.hasLast = true
	b.next = s.Timestamp + b.sampleInterval
	b.hasNext = true

	if !b.frozen {
		b.evictBefore(s.Timestamp - b.preEventTime)
	}
	return nil
}

// evictBefore drops samples strictly older than cutoff. Only meaningful in
// the eviction-enabled (pre-event) mode.
func (b *RingBuffer) evictBefore(cutoff float64) {
	i := 0
	for i < len(b.samples) && b.samples[i].Timestamp < cutoff {
		i++
	}
	if i > 0 {
		b.samples = append(b.samples[:0], b.samples[i:]...)
	}
}

// Freeze suspends eviction from the trigger timestamp onward. The buffer
// keeps growing until eventTimestamp + postEventTime.
func (b *RingBuffer) Freeze(eventTimestamp float64) {
	b.frozen = true
	b.eventAt = eventTimestamp
	b.endAt = eventTimestamp + b.postEventTime
}

// Clear discards all samples and re-enables eviction for a new window.
func (b *RingBuffer) Clear() {
	b.samples = nil
	b.frozen = false
	b.eventAt = 0
	b.endAt = 0
	b.hasLast = false
	b.hasNext = false
}

// Snapshot returns the ordered samples without clearing them. The returned
// slice is a copy; the caller may hold it across a Clear.
func (b *RingBuffer) Snapshot() []Sample {
	out := make([]Sample, len(b.samples))
	copy(out, b.samples)
	return out
}

// Len returns the number of retained samples.
func (b *RingBuffer) Len() int { return len(b.samples) }

// OldestTimestamp returns the timestamp of the oldest retained sample.
// The second return is false when the buffer is empty.
func (b *RingBuffer) OldestTimestamp() (float64, bool) {
	if len(b.samples) == 0 {
		return 0, false
	}
	return b.samples[0].Timestamp, true
}

// LatestTimestamp returns the timestamp of the newest retained sample.
func (b *RingBuffer) LatestTimestamp() (float64, bool) {
	if len(b.samples) == 0 {
		return 0, false
	}
	return b.samples[len(b.samples)-1].Timestamp, true
}

// Frozen reports whether eviction is currently suspended.
func (b *RingBuffer) Frozen() bool { return b.frozen }
