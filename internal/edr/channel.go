package edr

import (
	"errors"
	"fmt"
)

// ErrKindMismatch marks a payload delivered to a channel of another kind.
// Treated as a malformed sample: rejected at push, buffer untouched.
var ErrKindMismatch = errors.New("payload kind does not match channel kind")

// SensorChannel is a single named data source: one camera, one lidar, the
// aggregate perception log, or vehicle telemetry. Each channel owns its own
// ring buffer; membership is fixed for the lifetime of a session.
type SensorChannel struct {
	Label string
	Kind  ChannelKind
	Rate  float64 // sampling cadence in Hz

	buf *RingBuffer
}

// NewSensorChannel creates a channel and its buffer.
func NewSensorChannel(label string, kind ChannelKind, rate, preEventTime, postEventTime float64) *SensorChannel {
	return &SensorChannel{
		Label: label,
		Kind:  kind,
		Rate:  rate,
		buf:   NewRingBuffer(label, preEventTime, postEventTime, rate),
	}
}

// Push accepts one timestamped sample. A payload of the wrong kind for this
// channel is rejected as malformed, the same as an absent payload.
func (c *SensorChannel) Push(timestamp float64, p Payload) error {
	if p != nil && p.Kind() != c.Kind {
		return fmt.Errorf("channel %s: got %s payload: %w", c.Label, p.Kind(), ErrKindMismatch)
	}
	return c.buf.Push(Sample{Timestamp: timestamp, Channel: c.Label, Payload: p})
}

// Freeze suspends eviction from the trigger timestamp onward.
func (c *SensorChannel) Freeze(eventTimestamp float64) { c.buf.Freeze(eventTimestamp) }

// Clear discards buffered samples and re-enables eviction.
func (c *SensorChannel) Clear() { c.buf.Clear() }

// Snapshot returns the buffered samples in time order without clearing.
func (c *SensorChannel) Snapshot() []Sample { return c.buf.Snapshot() }

// Buffer exposes the underlying ring buffer for invariant checks.
func (c *SensorChannel) Buffer() *RingBuffer { return c.buf }
