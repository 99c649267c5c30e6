package proximity

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/road-data/edr/internal/fsutil"
)

// Entry is one parsed close-approach row.
type Entry struct {
	VRUType   string
	Threshold float64
	Distance  float64
	VRUSpeed  float64
	VRUX      float64
	VRUY      float64
	VRUZ      float64
	EgoSpeed  float64
	EgoX      float64
	EgoY      float64
	EgoZ      float64
}

// ReadLog parses a proximity log, returning the map name from the first
// line and every data row. Comment lines (header, run markers) are skipped.
func ReadLog(fs fsutil.FileSystem, path string) (string, []Entry, error) {
	data, err := fs.ReadFile(path)
	if err != nil {
		return "", nil, fmt.Errorf("read proximity log %s: %w", path, err)
	}

	lines := strings.Split(string(data), "\n")
	if len(lines) == 0 || strings.TrimSpace(lines[0]) == "" {
		return "", nil, fmt.Errorf("proximity log %s: missing map name line", path)
	}
	mapName := strings.TrimSpace(lines[0])

	var entries []Entry
	for i, line := range lines[1:] {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		entry, err := parseEntry(line)
		if err != nil {
			return "", nil, fmt.Errorf("proximity log %s line %d: %w", path, i+2, err)
		}
		entries = append(entries, entry)
	}
	return mapName, entries, nil
}

func parseEntry(line string) (Entry, error) {
	fields := strings.Split(line, ",")
	if len(fields) != 11 {
		return Entry{}, fmt.Errorf("expected 11 fields, got %d", len(fields))
	}

	values := make([]float64, 10)
	for i, f := range fields[1:] {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return Entry{}, fmt.Errorf("field %d: %w", i+2, err)
		}
		values[i] = v
	}

	return Entry{
		VRUType:   strings.TrimSpace(fields[0]),
		Threshold: values[0],
		Distance:  values[1],
		VRUSpeed:  values[2],
		VRUX:      values[3],
		VRUY:      values[4],
		VRUZ:      values[5],
		EgoSpeed:  values[6],
		EgoX:      values[7],
		EgoY:      values[8],
		EgoZ:      values[9],
	}, nil
}
