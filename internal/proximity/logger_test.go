package proximity

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/road-data/edr/internal/edr"
	"github.com/road-data/edr/internal/fsutil"
	"github.com/road-data/edr/internal/monitoring"
)

func init() {
	monitoring.SetLogger(nil)
}

// nearMissFrame has a pedestrian 3.0m ahead of a moving ego: a 0.2m gap,
// well inside the 0.75m pedestrian threshold.
func nearMissFrame(ts float64) *edr.Frame {
	return &edr.Frame{
		Timestamp: ts,
		Ego:       edr.EgoState{X: 10, Y: 20, Z: 0.1, Speed: 5.0, HalfLength: 2.4, HalfWidth: 1.1},
		Actors: []edr.ActorState{
			{ID: 42, Kind: edr.ActorPedestrian, X: 13, Y: 20, Z: 0.9, Speed: 1.2, HalfLength: 0.4, HalfWidth: 0.4},
		},
	}
}

func TestNewLogFileLayout(t *testing.T) {
	t.Parallel()
	mem := fsutil.NewMemoryFileSystem()

	l, err := NewLogger(mem, "logs/near_miss.csv", "Town03", 1.0)
	require.NoError(t, err)
	require.NoError(t, l.Close())

	data, err := mem.ReadFile("logs/near_miss.csv")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Town03", lines[0])
	assert.Equal(t, header, lines[1])
	assert.True(t, strings.HasPrefix(lines[2], "# run "), "expected a run marker, got %q", lines[2])
}

func TestMapNameNormalizationAndMismatch(t *testing.T) {
	t.Parallel()
	mem := fsutil.NewMemoryFileSystem()

	// The layer-optimized variant shares the base map's layout.
	l, err := NewLogger(mem, "near_miss.csv", "Town10HD_Opt", 1.0)
	require.NoError(t, err)
	require.NoError(t, l.Close())

	data, err := mem.ReadFile("near_miss.csv")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "Town10HD\n"))

	l, err = NewLogger(mem, "near_miss.csv", "Town10HD", 1.0)
	require.NoError(t, err)
	require.NoError(t, l.Close())

	// A different town is a hard error: positions are map-relative.
	_, err = NewLogger(mem, "near_miss.csv", "Town03", 1.0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Town10HD")
}

func TestObserveAppendsOneRowPerTick(t *testing.T) {
	t.Parallel()
	mem := fsutil.NewMemoryFileSystem()

	l, err := NewLogger(mem, "near_miss.csv", "Town03", 1.0)
	require.NoError(t, err)

	// The same pedestrian stays inside the threshold for three ticks: the
	// log records all three, no dedup.
	for _, ts := range []float64{1.0, 1.05, 1.1} {
		require.NoError(t, l.Observe(nearMissFrame(ts)))
	}
	require.NoError(t, l.Close())

	mapName, entries, err := ReadLog(mem, "near_miss.csv")
	require.NoError(t, err)
	assert.Equal(t, "Town03", mapName)
	require.Len(t, entries, 3)

	e := entries[0]
	assert.Equal(t, edr.ActorPedestrian, e.VRUType)
	assert.Equal(t, 0.75, e.Threshold)
	assert.Equal(t, 3.0, e.Distance)
	assert.Equal(t, 1.2, e.VRUSpeed)
	assert.Equal(t, 13.0, e.VRUX)
	assert.Equal(t, 20.0, e.VRUY)
	assert.Equal(t, 0.9, e.VRUZ)
	assert.Equal(t, 5.0, e.EgoSpeed)
	assert.Equal(t, 10.0, e.EgoX)
}

func TestObserveRespectsSpeedGate(t *testing.T) {
	t.Parallel()
	mem := fsutil.NewMemoryFileSystem()

	l, err := NewLogger(mem, "near_miss.csv", "Town03", 1.0)
	require.NoError(t, err)

	f := nearMissFrame(1.0)
	f.Ego.Speed = 0.5
	require.NoError(t, l.Observe(f))
	require.NoError(t, l.Close())

	_, entries, err := ReadLog(mem, "near_miss.csv")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestLogSharedAcrossRuns(t *testing.T) {
	t.Parallel()
	mem := fsutil.NewMemoryFileSystem()

	for run := 0; run < 2; run++ {
		l, err := NewLogger(mem, "near_miss.csv", "Town03", 1.0)
		require.NoError(t, err)
		require.NoError(t, l.Observe(nearMissFrame(float64(run))))
		require.NoError(t, l.Close())
	}

	_, entries, err := ReadLog(mem, "near_miss.csv")
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	data, err := mem.ReadFile("near_miss.csv")
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(string(data), "# run "))
}

func TestReadLogRejectsMalformedRows(t *testing.T) {
	t.Parallel()
	mem := fsutil.NewMemoryFileSystem()

	content := "Town03\n" + header + "\npedestrian, 0.75, not-a-number\n"
	require.NoError(t, mem.WriteFile("bad.csv", []byte(content), 0644))

	_, _, err := ReadLog(mem, "bad.csv")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 3")
}
