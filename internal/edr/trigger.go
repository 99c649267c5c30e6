package edr

import "fmt"

// TriggerCause identifies what set off an event.
type TriggerCause string

const (
	CauseCollision     TriggerCause = "collision"
	CauseCloseApproach TriggerCause = "close-approach-vru"
	CauseManual        TriggerCause = "manual"
)

// TriggerEvent records the single event active for a session. Immutable
// once set; at most one per session (first cause wins).
type TriggerEvent struct {
	Cause     TriggerCause
	Timestamp float64

	// Contextual metadata, populated where the cause provides it.
	ActorKind  string
	Distance   float64
	EgoSpeed   float64
	ActorSpeed float64
}

// Description returns the operator-facing summary written to reason.txt and
// surfaced in status notifications.
func (e *TriggerEvent) Description() string {
	switch e.Cause {
	case CauseCollision:
		if e.ActorKind != "" {
			return fmt.Sprintf("Collision with %s", e.ActorKind)
		}
		return "Collision"
	case CauseCloseApproach:
		return fmt.Sprintf("Too close to Vulnerable Road User (%s, %.2fm)", e.ActorKind, e.Distance)
	case CauseManual:
		return "Manual trigger"
	}
	return string(e.Cause)
}

// TriggerDetector evaluates the per-tick trigger conditions. Both
// evaluators are pure functions of the current frame; the only
// configuration is the minimum ego speed for the close-approach check.
type TriggerDetector struct {
	// MinCloseApproachSpeed gates the close-approach trigger (m/s).
	MinCloseApproachSpeed float64
}

// DetectCollision returns a trigger signal when the environment reported a
// physical contact this tick, nil otherwise.
func (d *TriggerDetector) DetectCollision(f *Frame) *TriggerEvent {
	if len(f.Collisions) == 0 {
		return nil
	}
	return &TriggerEvent{
		Cause:     CauseCollision,
		Timestamp: f.Timestamp,
		ActorKind: f.Collisions[0].OtherKind,
		EgoSpeed:  f.Ego.Speed,
	}
}

// DetectCloseApproach returns a trigger signal when some VRU is inside its
// proximity threshold and the ego is at or above the minimum trigger speed.
func (d *TriggerDetector) DetectCloseApproach(f *Frame) *TriggerEvent {
	hits := CloseApproaches(f, d.MinCloseApproachSpeed)
	if len(hits) == 0 {
		return nil
	}
	hit := hits[0]
	return &TriggerEvent{
		Cause:      CauseCloseApproach,
		Timestamp:  f.Timestamp,
		ActorKind:  hit.Actor.Kind,
		Distance:   hit.Distance,
		EgoSpeed:   f.Ego.Speed,
		ActorSpeed: hit.Actor.Speed,
	}
}

// Evaluate runs both detectors and returns at most one signal. Collision
// wins when both conditions hold on the same tick.
func (d *TriggerDetector) Evaluate(f *Frame) *TriggerEvent {
	if ev := d.DetectCollision(f); ev != nil {
		return ev
	}
	return d.DetectCloseApproach(f)
}
