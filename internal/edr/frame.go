package edr

import "github.com/road-data/edr/internal/geom"

// Actor kinds as classified by the environment.
const (
	ActorPedestrian = "pedestrian"
	ActorBicycle    = "bicycle"
	ActorMotorbike  = "motorbike"
	ActorVehicle    = "vehicle"
)

// IsVRU reports whether an actor kind counts as a Vulnerable Road User.
func IsVRU(kind string) bool {
	return kind == ActorPedestrian || kind == ActorBicycle
}

// ProximityThreshold returns the close-approach distance (metres) for a VRU
// kind, or zero for kinds that do not trigger proximity checks.
func ProximityThreshold(kind string) float64 {
	switch kind {
	case ActorPedestrian:
		return 0.75
	case ActorBicycle:
		return 1.0
	}
	return 0
}

// EgoState is the ego vehicle's kinematics for one tick.
type EgoState struct {
	X, Y, Z    float64
	Yaw        float64 // radians
	Speed      float64 // m/s
	HalfLength float64
	HalfWidth  float64

	// Control inputs, fractions in [0, 1] except Steer in [-1, 1].
	Throttle  float64
	Brake     float64
	Steer     float64
	HandBrake bool

	// Body-frame velocity and acceleration components.
	LongitudinalVel   float64
	LateralVel        float64
	NormalVel         float64
	LongitudinalAccel float64
	LateralAccel      float64
	NormalAccel       float64

	// GNSS fix.
	Latitude  float64
	Longitude float64
	Altitude  float64
}

// Footprint returns the ego's 2-D bounding polygon.
func (e EgoState) Footprint() geom.Polygon {
	return geom.RectFootprint(e.X, e.Y, e.Yaw, e.HalfLength, e.HalfWidth, 0)
}

// ActorState is one non-ego actor's kinematics for one tick.
type ActorState struct {
	ID         int
	Kind       string
	X, Y, Z    float64
	Yaw        float64
	Speed      float64
	HalfLength float64
	HalfWidth  float64
}

// InflatedFootprint returns the actor's bounding polygon grown by margin on
// every side, the shape used for close-approach tests.
func (a ActorState) InflatedFootprint(margin float64) geom.Polygon {
	return geom.RectFootprint(a.X, a.Y, a.Yaw, a.HalfLength, a.HalfWidth, margin)
}

// Collision is a physical contact reported by the environment for one tick.
type Collision struct {
	OtherKind string
	Impulse   float64
}

// Reading is one channel's raw data delivered with a frame.
type Reading struct {
	Channel string
	Payload Payload
}

// Frame is everything the environment collaborator supplies for one
// simulation tick: current kinematics, contact events, and one reading per
// configured channel.
type Frame struct {
	Timestamp  float64
	Ego        EgoState
	Actors     []ActorState
	Collisions []Collision
	Readings   []Reading
}

// CloseApproach describes one VRU inside its proximity threshold this tick.
type CloseApproach struct {
	Actor     ActorState
	Threshold float64
	Distance  float64 // ego-to-actor centre distance
}

// CloseApproaches returns every VRU whose threshold-inflated footprint
// overlaps the ego footprint, provided the ego is moving at or above
// minEgoSpeed. The same test feeds both the EDR trigger and the independent
// proximity logger. A cheap centre-distance prefilter skips the polygon
// test for actors well outside the threshold.
func CloseApproaches(f *Frame, minEgoSpeed float64) []CloseApproach {
	if f.Ego.Speed < minEgoSpeed {
		return nil
	}

	egoPoly := f.Ego.Footprint()
	egoCentre := geom.Vec{X: f.Ego.X, Y: f.Ego.Y}

	var hits []CloseApproach
	for _, actor := range f.Actors {
		if !IsVRU(actor.Kind) {
			continue
		}
		threshold := ProximityThreshold(actor.Kind)
		if threshold <= 0 {
			continue
		}

		centre := geom.Vec{X: actor.X, Y: actor.Y}
		distance := centre.Sub(egoCentre).Norm()
		rough := (actor.HalfLength + f.Ego.HalfLength + threshold) * 8
		if distance > rough {
			continue
		}

		if geom.Overlap(egoPoly, actor.InflatedFootprint(threshold)) {
			hits = append(hits, CloseApproach{
				Actor:     actor,
				Threshold: threshold,
				Distance:  distance,
			})
		}
	}
	return hits
}
