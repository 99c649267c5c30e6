package sim

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"math"

	"github.com/road-data/edr/internal/edr"
	"github.com/road-data/edr/internal/units"
)

// perceptionRange is the synthetic perception stack's detection radius in
// metres.
const perceptionRange = 50.0

// degreesPerMetre converts the flat scenario plane to a synthetic GNSS fix
// around the scripted origin.
const degreesPerMetre = 1e-5

// World advances a scripted scenario tick by tick, producing one frame per
// step with sensor readings synthesized at each channel's cadence.
type World struct {
	sc       *Scenario
	channels []edr.ChannelSpec
	dt       float64
	tick     int

	lastEmit map[string]float64
}

// NewWorld creates a world for the scenario, generating readings for the
// given channels.
func NewWorld(sc *Scenario, channels []edr.ChannelSpec) *World {
	return &World{
		sc:       sc,
		channels: channels,
		dt:       1.0 / sc.TickRate,
		lastEmit: make(map[string]float64, len(channels)),
	}
}

// Done reports whether the scenario duration has elapsed.
func (w *World) Done() bool {
	return float64(w.tick)*w.dt > w.sc.Duration
}

// Step advances one tick and returns the resulting frame.
func (w *World) Step() *edr.Frame {
	ts := float64(w.tick) * w.dt
	w.tick++

	ego := w.egoAt(ts)
	f := &edr.Frame{
		Timestamp: ts,
		Ego:       ego,
		Actors:    w.actorsAt(ts),
	}
	for _, c := range w.sc.Collisions {
		if c.Time > ts-w.dt && c.Time <= ts {
			f.Collisions = append(f.Collisions, edr.Collision{OtherKind: c.OtherKind, Impulse: c.Impulse})
		}
	}
	for _, ch := range w.channels {
		if !w.due(ch, ts) {
			continue
		}
		f.Readings = append(f.Readings, edr.Reading{
			Channel: ch.Label,
			Payload: w.synthesize(ch, ts, f),
		})
	}
	return f
}

// due tracks per-channel emission cadence. A small epsilon absorbs the
// accumulated float error of repeated tick sums.
func (w *World) due(ch edr.ChannelSpec, ts float64) bool {
	if ch.Rate <= 0 {
		return true
	}
	last, seen := w.lastEmit[ch.Label]
	if seen && ts-last < 1.0/ch.Rate-1e-9 {
		return false
	}
	w.lastEmit[ch.Label] = ts
	return true
}

func (w *World) egoAt(ts float64) edr.EgoState {
	s := w.sc.Ego
	x := s.X + math.Cos(s.Yaw)*s.Speed*ts
	y := s.Y + math.Sin(s.Yaw)*s.Speed*ts
	return edr.EgoState{
		X: x, Y: y,
		Yaw:        s.Yaw,
		Speed:      s.Speed,
		HalfLength: s.HalfLength,
		HalfWidth:  s.HalfWidth,
		Throttle:   s.Throttle,

		LongitudinalVel: s.Speed,

		Latitude:  s.Latitude + y*degreesPerMetre,
		Longitude: s.Longitude + x*degreesPerMetre,
		Altitude:  s.Altitude,
	}
}

func (w *World) actorsAt(ts float64) []edr.ActorState {
	if len(w.sc.Actors) == 0 {
		return nil
	}
	actors := make([]edr.ActorState, len(w.sc.Actors))
	for i, a := range w.sc.Actors {
		actors[i] = edr.ActorState{
			ID:   i + 1,
			Kind: a.Kind,
			X:    a.X + math.Cos(a.Yaw)*a.Speed*ts,
			Y:    a.Y + math.Sin(a.Yaw)*a.Speed*ts,
			Yaw:  a.Yaw, Speed: a.Speed,
			HalfLength: a.HalfLength,
			HalfWidth:  a.HalfWidth,
		}
	}
	return actors
}

func (w *World) synthesize(ch edr.ChannelSpec, ts float64, f *edr.Frame) edr.Payload {
	switch ch.Kind {
	case edr.KindCamera:
		return &edr.ImagePayload{PNG: synthPNG(w.tick)}
	case edr.KindLidar3D:
		return &edr.PointCloudPayload{Points: ringCloud(ts)}
	case edr.KindPerception:
		return &edr.PerceptionPayload{Record: perceptionRecord(ts, f)}
	case edr.KindVehicleState:
		return &edr.VehicleStatePayload{States: telemetry(f.Ego)}
	}
	return nil
}

// synthPNG encodes a small gradient test card that shifts with the tick
// counter, so consecutive frames differ.
func synthPNG(tick int) []byte {
	img := image.NewRGBA(image.Rect(0, 0, 32, 24))
	for y := 0; y < 24; y++ {
		for x := 0; x < 32; x++ {
			img.SetRGBA(x, y, color.RGBA{
				R: uint8((x*8 + tick) % 256),
				G: uint8((y*10 + tick) % 256),
				B: uint8(tick % 256),
				A: 255,
			})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		// Encoding a fully in-memory RGBA image cannot fail.
		panic(err)
	}
	return buf.Bytes()
}

// ringCloud generates concentric rings of returns around the sensor, the
// way a spinning lidar sees open ground, with intensity falling off with
// range. The phase shifts with time so sweeps differ.
func ringCloud(ts float64) []edr.LidarPoint {
	radii := []float64{2, 4, 8, 16}
	points := make([]edr.LidarPoint, 0, len(radii)*36)
	for ring, r := range radii {
		for i := 0; i < 36; i++ {
			angle := float64(i)*(2*math.Pi/36) + ts*0.1
			points = append(points, edr.LidarPoint{
				X:         r * math.Cos(angle),
				Y:         r * math.Sin(angle),
				Z:         -1.6,
				Intensity: 1.0 / float64(ring+1),
			})
		}
	}
	return points
}

// perceptionRecord lists every actor within detection range of the ego.
func perceptionRecord(ts float64, f *edr.Frame) edr.PerceptionRecord {
	rec := edr.PerceptionRecord{
		Timestamp: ts,
		Ego: edr.EgoSummary{
			Location: edr.Vec3{X: f.Ego.X, Y: f.Ego.Y, Z: f.Ego.Z},
			Velocity: edr.Vec3{
				X: math.Cos(f.Ego.Yaw) * f.Ego.Speed,
				Y: math.Sin(f.Ego.Yaw) * f.Ego.Speed,
			},
			Yaw:   f.Ego.Yaw,
			Speed: f.Ego.Speed,
		},
	}
	for _, a := range f.Actors {
		dx, dy := a.X-f.Ego.X, a.Y-f.Ego.Y
		if math.Hypot(dx, dy) > perceptionRange {
			continue
		}
		rec.Detections = append(rec.Detections, edr.Detection{
			ID:       a.ID,
			Type:     a.Kind,
			Location: edr.Vec3{X: a.X, Y: a.Y, Z: a.Z},
			Velocity: edr.Vec3{
				X: math.Cos(a.Yaw) * a.Speed,
				Y: math.Sin(a.Yaw) * a.Speed,
			},
			Extent: edr.Vec3{X: a.HalfLength, Y: a.HalfWidth, Z: 0.9},
			Yaw:    a.Yaw,
		})
	}
	return rec
}

// telemetry flattens the ego state into the named vehicle-state fields.
func telemetry(e edr.EgoState) map[string]float64 {
	brake := 0.0
	if e.HandBrake {
		brake = 1.0
	}
	return map[string]float64{
		edr.StateSpeed:              units.MPSToKMH(e.Speed),
		edr.StateAcceleratorPercent: e.Throttle * 100,
		edr.StateBrakePercent:       e.Brake * 100,
		edr.StateSteeringInput:      e.Steer * 100,
		edr.StateServiceBrake:       brake,
		edr.StateEngineRPM:          800 + e.Throttle*5200,
		edr.StateLongitudinalVel:    units.MPSToKMH(e.LongitudinalVel),
		edr.StateLateralVelocity:    units.MPSToKMH(e.LateralVel),
		edr.StateNormalVelocity:     units.MPSToKMH(e.NormalVel),
		edr.StateLongitudinalAccel:  e.LongitudinalAccel,
		edr.StateLateralAccel:       e.LateralAccel,
		edr.StateNormalAccel:        e.NormalAccel,
		edr.StateDeltaVLongitudinal: 0,
		edr.StateDeltaVLateral:      0,
		edr.StateGNSSLatitude:       e.Latitude,
		edr.StateGNSSLongitude:      e.Longitude,
		edr.StateGNSSAltitude:       e.Altitude,
	}
}
