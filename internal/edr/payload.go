package edr

// ChannelKind identifies how a channel's samples are produced and
// serialized. The set is closed: the persister dispatches on it at drain
// time and rejects anything else at configuration time.
type ChannelKind string

const (
	KindCamera       ChannelKind = "camera"
	KindLidar3D      ChannelKind = "lidar3d"
	KindPerception   ChannelKind = "perception"
	KindVehicleState ChannelKind = "vehicle-state"
)

// KnownKind reports whether k is one of the supported channel kinds.
func KnownKind(k ChannelKind) bool {
	switch k {
	case KindCamera, KindLidar3D, KindPerception, KindVehicleState:
		return true
	}
	return false
}

// Payload is one channel's data for a single sample. Implementations form a
// closed variant set, one per ChannelKind.
type Payload interface {
	// Kind returns the channel kind this payload belongs to.
	Kind() ChannelKind

	// Empty reports whether the payload carries no data. Empty payloads are
	// rejected at push as malformed samples.
	Empty() bool
}

// ImagePayload is a PNG-encoded camera frame.
type ImagePayload struct {
	PNG []byte
}

func (p *ImagePayload) Kind() ChannelKind { return KindCamera }
func (p *ImagePayload) Empty() bool       { return p == nil || len(p.PNG) == 0 }

// LidarPoint is one return in a captured point cloud, in the sensor frame.
type LidarPoint struct {
	X, Y, Z   float64
	Intensity float64
}

// PointCloudPayload is one 3-D lidar sweep.
type PointCloudPayload struct {
	Points []LidarPoint
}

func (p *PointCloudPayload) Kind() ChannelKind { return KindLidar3D }
func (p *PointCloudPayload) Empty() bool       { return p == nil || len(p.Points) == 0 }

// Vec3 is a JSON-serializable 3-D vector used in perception records.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Detection is one perceived actor in a perception record.
type Detection struct {
	ID       int     `json:"id"`
	Type     string  `json:"type"`
	Location Vec3    `json:"location"`
	Velocity Vec3    `json:"velocity"`
	Extent   Vec3    `json:"extent"`
	Yaw      float64 `json:"yaw"`
}

// PerceptionRecord is the structured log of everything the perception stack
// saw in one tick, written to disk as one JSON file per sample.
type PerceptionRecord struct {
	Timestamp  float64     `json:"timestamp"`
	Ego        EgoSummary  `json:"ego_vehicle"`
	Detections []Detection `json:"detections"`
}

// EgoSummary is the ego vehicle's kinematic summary inside a perception
// record.
type EgoSummary struct {
	Location Vec3    `json:"location"`
	Velocity Vec3    `json:"velocity"`
	Yaw      float64 `json:"yaw"`
	Speed    float64 `json:"speed"`
}

// PerceptionPayload wraps one PerceptionRecord.
type PerceptionPayload struct {
	Record PerceptionRecord
}

func (p *PerceptionPayload) Kind() ChannelKind { return KindPerception }
func (p *PerceptionPayload) Empty() bool       { return p == nil }

// VehicleStatePayload is one telemetry row: named scalar states keyed by the
// field constants in states.go. Vehicle-state samples persist as rows of a
// single CSV rather than one file each.
type VehicleStatePayload struct {
	States map[string]float64
}

func (p *VehicleStatePayload) Kind() ChannelKind { return KindVehicleState }
func (p *VehicleStatePayload) Empty() bool       { return p == nil || len(p.States) == 0 }
