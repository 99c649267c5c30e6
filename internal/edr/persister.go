package edr

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/road-data/edr/internal/fsutil"
	"github.com/road-data/edr/internal/monitoring"
)

// Persister writes a completed capture window to stable storage in the
// canonical session layout:
//
//	<root>/<session-id>/
//	  reason.txt
//	  images/<label>-camera/<label>-camera_<timestamp>_<offset>.png
//	  lidar3d/<label>/<label>_<timestamp>_<offset>.ply
//	  perception/logs/logs_<timestamp>_<offset>.json
//	  vehicle-state/vehicle_state.csv
//
// <timestamp> is the sample's absolute simulation time and <offset> its
// signed offset from the trigger timestamp, both at fixed 6-decimal
// precision. A failure partway through is fatal for the attempt: the error
// is returned and files already written are left in place.
type Persister struct {
	fs   fsutil.FileSystem
	root string
}

// NewPersister creates a persister writing session trees under root.
func NewPersister(fs fsutil.FileSystem, root string) *Persister {
	return &Persister{fs: fs, root: root}
}

// Root returns the base directory session trees are written under.
func (p *Persister) Root() string { return p.root }

// Save drains every channel of the session to disk. The session is
// borrowed read-only; buffers are never mutated here. Save requires an
// active trigger event because all file offsets are trigger-relative.
func (p *Persister) Save(s *RecordingSession) error {
	if s == nil || s.Event == nil {
		return fmt.Errorf("nothing to save: no trigger event recorded")
	}

	dir := filepath.Join(p.root, s.ID)
	if err := p.fs.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create session directory %s: %w", dir, err)
	}
	monitoring.Logf("EDR: saving session data to %s", dir)

	reason := filepath.Join(dir, "reason.txt")
	if err := p.fs.WriteFile(reason, []byte(s.Event.Description()+"\n"), 0644); err != nil {
		return fmt.Errorf("write %s: %w", reason, err)
	}

	for _, ch := range s.Channels {
		samples := ch.Snapshot()
		if len(samples) == 0 {
			continue
		}

		var err error
		switch ch.Kind {
		case KindCamera:
			label := ch.Label + "-camera"
			err = p.saveSampleFiles(filepath.Join(dir, "images", label), label, ".png", s.Event, samples)
		case KindLidar3D:
			err = p.saveSampleFiles(filepath.Join(dir, "lidar3d", ch.Label), ch.Label, ".ply", s.Event, samples)
		case KindPerception:
			err = p.saveSampleFiles(filepath.Join(dir, "perception", "logs"), "logs", ".json", s.Event, samples)
		case KindVehicleState:
			err = p.saveVehicleState(filepath.Join(dir, "vehicle-state"), s, samples)
		default:
			err = fmt.Errorf("channel %s: unhandled kind %q", ch.Label, ch.Kind)
		}
		if err != nil {
			return fmt.Errorf("channel %s: %w", ch.Label, err)
		}
	}
	return nil
}

// sampleFilename renders "<prefix>_<timestamp>_<offset><ext>".
func sampleFilename(prefix string, s Sample, event *TriggerEvent, ext string) string {
	offset := s.Timestamp - event.Timestamp
	return fmt.Sprintf("%s_%.6f_%+.6f%s", prefix, s.Timestamp, offset, ext)
}

// saveSampleFiles writes one file per sample, serialized by payload kind.
func (p *Persister) saveSampleFiles(dir, prefix, ext string, event *TriggerEvent, samples []Sample) error {
	if err := p.fs.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	for _, s := range samples {
		data, err := encodePayload(s.Payload)
		if err != nil {
			return fmt.Errorf("encode sample at t=%.6f: %w", s.Timestamp, err)
		}
		path := filepath.Join(dir, sampleFilename(prefix, s, event, ext))
		if err := p.fs.WriteFile(path, data, 0644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
	}
	return nil
}

// encodePayload dispatches over the closed payload variant set once, at
// drain time.
func encodePayload(payload Payload) ([]byte, error) {
	switch v := payload.(type) {
	case *ImagePayload:
		return v.PNG, nil
	case *PointCloudPayload:
		return encodePLY(v.Points), nil
	case *PerceptionPayload:
		return json.MarshalIndent(v.Record, "", "    ")
	}
	return nil, fmt.Errorf("no file serialization for payload kind %q", payload.Kind())
}

// encodePLY renders a point cloud as ASCII PLY with x/y/z/intensity
// properties, the format downstream reconstruction tools consume.
func encodePLY(points []LidarPoint) []byte {
	var sb strings.Builder
	sb.WriteString("ply\n")
	sb.WriteString("format ascii 1.0\n")
	fmt.Fprintf(&sb, "element vertex %d\n", len(points))
	sb.WriteString("property float32 x\n")
	sb.WriteString("property float32 y\n")
	sb.WriteString("property float32 z\n")
	sb.WriteString("property float32 I\n")
	sb.WriteString("end_header\n")
	for _, pt := range points {
		fmt.Fprintf(&sb, "%.4f %.4f %.4f %.4f\n", pt.X, pt.Y, pt.Z, pt.Intensity)
	}
	return []byte(sb.String())
}

// saveVehicleState appends every telemetry sample as one row of a single
// CSV: this stream is one logical time series, not independent media. The
// Event Trigger column is 0 before the trigger and 100 from it onward.
func (p *Persister) saveVehicleState(dir string, s *RecordingSession, samples []Sample) error {
	if err := p.fs.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	path := filepath.Join(dir, "vehicle_state.csv")
	f, err := p.fs.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := []string{"Date-Time", "Timestamp", "Offset", "Event Trigger"}
	for _, field := range AllStates {
		if units := StateUnits[field]; units != "" {
			field = fmt.Sprintf("%s (%s)", field, units)
		}
		header = append(header, field)
	}
	if err := w.Write(header); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}

	for _, sample := range samples {
		payload, ok := sample.Payload.(*VehicleStatePayload)
		if !ok {
			return fmt.Errorf("vehicle-state sample at t=%.6f has %q payload",
				sample.Timestamp, sample.Payload.Kind())
		}

		offset := sample.Timestamp - s.Event.Timestamp
		trigger := "0"
		if offset >= 0 {
			trigger = "100"
		}
		row := []string{
			wallClock(s, sample.Timestamp).Format("2006-01-02-15-04-05.000000"),
			fmt.Sprintf("%.6f", sample.Timestamp),
			fmt.Sprintf("%+.6f", offset),
			trigger,
		}
		for _, field := range AllStates {
			value, present := payload.States[field]
			if !present {
				row = append(row, "")
				continue
			}
			row = append(row, strconv.FormatFloat(value, 'g', -1, 64))
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}

// wallClock maps a simulation timestamp onto the wall clock using the
// session start as the common origin.
func wallClock(s *RecordingSession, timestamp float64) time.Time {
	delta := timestamp - s.SimStart
	return s.WallStart.Add(time.Duration(delta * float64(time.Second)))
}
