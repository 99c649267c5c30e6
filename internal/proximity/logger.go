// Package proximity keeps a running log of close approaches to Vulnerable
// Road Users, independent of the event recorder. One log file can span many
// simulator runs on the same map, building a broader picture of hotspots
// than a single run could capture.
package proximity

import (
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/road-data/edr/internal/edr"
	"github.com/road-data/edr/internal/fsutil"
	"github.com/road-data/edr/internal/monitoring"
)

// header is the field list written as the second line of every new log.
const header = "# VRU Type, Threshold, Distance, VRU Speed, VRU X, VRU Y, VRU Z, EGO Speed, EGO X, EGO Y, EGO Z"

// Logger appends one row per close approach per tick to a shared CSV log.
// It evaluates the same footprint-overlap geometry as the recorder's
// close-approach trigger but never interacts with recorder state: rows are
// written whether the recorder is disabled, armed, or mid-save.
type Logger struct {
	w        io.WriteCloser
	minSpeed float64
}

// baseMapName strips a trailing layer-optimization suffix ("_Opt") from a
// map name. The variants share a road layout, so their logs are
// interchangeable.
func baseMapName(mapName string) string {
	return strings.SplitN(mapName, "_", 2)[0]
}

// NewLogger opens (or creates) the log at path for the given map. Reusing a
// log recorded on a different map is an error: positions only make sense on
// the map they were captured on. Each open appends a run marker so rows can
// be attributed to a simulator run afterwards.
func NewLogger(fs fsutil.FileSystem, path, mapName string, minEgoSpeed float64) (*Logger, error) {
	base := baseMapName(mapName)

	if !fs.Exists(path) {
		if dir := filepath.Dir(path); dir != "." {
			if err := fs.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("create log directory %s: %w", dir, err)
			}
		}
		content := base + "\n" + header + "\n"
		if err := fs.WriteFile(path, []byte(content), 0644); err != nil {
			return nil, fmt.Errorf("create proximity log %s: %w", path, err)
		}
		monitoring.Logf("proximity: created log %s for map %s", path, base)
	} else {
		data, err := fs.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("open proximity log %s: %w", path, err)
		}
		existing := firstLine(string(data))
		if existing != base {
			return nil, fmt.Errorf("proximity log %s was recorded on map %q, not %q", path, existing, base)
		}
	}

	w, err := fs.OpenAppend(path)
	if err != nil {
		return nil, fmt.Errorf("open proximity log %s: %w", path, err)
	}
	if _, err := fmt.Fprintf(w, "# run %s\n", uuid.NewString()); err != nil {
		w.Close()
		return nil, fmt.Errorf("write run marker: %w", err)
	}
	return &Logger{w: w, minSpeed: minEgoSpeed}, nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

// Observe checks one frame for close approaches and appends a row for every
// hit. A VRU that stays inside its threshold produces one row per tick; the
// log is a raw event stream and dedup is left to consumers.
func (l *Logger) Observe(f *edr.Frame) error {
	for _, hit := range edr.CloseApproaches(f, l.minSpeed) {
		fields := []string{
			hit.Actor.Kind,
			num(hit.Threshold),
			num(hit.Distance),
			num(hit.Actor.Speed),
			num(hit.Actor.X), num(hit.Actor.Y), num(hit.Actor.Z),
			num(f.Ego.Speed),
			num(f.Ego.X), num(f.Ego.Y), num(f.Ego.Z),
		}
		if _, err := fmt.Fprintln(l.w, strings.Join(fields, ", ")); err != nil {
			return fmt.Errorf("append proximity entry: %w", err)
		}
	}
	return nil
}

// Close flushes and closes the underlying log file.
func (l *Logger) Close() error {
	return l.w.Close()
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
