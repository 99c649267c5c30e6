package sim

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/road-data/edr/internal/edr"
)

func writeScenario(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

const validScenario = `
map: Town03
tick_rate: 20
duration: 10
ego:
  x: 0
  y: 0
  speed: 5
  throttle: 0.4
actors:
  - kind: pedestrian
    x: 30
    y: 1
  - kind: bicycle
    x: 10
    y: -40
    yaw: 1.5708
    speed: 4
    half_length: 0.9
collisions:
  - time: 6.0
    other_kind: pedestrian
    impulse: 420
commands:
  - time: 9.0
    command: save
`

func TestLoadScenario(t *testing.T) {
	t.Parallel()
	sc, err := LoadScenario(writeScenario(t, validScenario))
	require.NoError(t, err)

	assert.Equal(t, "Town03", sc.Map)
	assert.Equal(t, 20.0, sc.TickRate)
	require.Len(t, sc.Actors, 2)

	// Unset footprints take the per-kind defaults; explicit values win.
	assert.Equal(t, 0.4, sc.Actors[0].HalfLength)
	assert.Equal(t, 0.9, sc.Actors[1].HalfLength)
	assert.Equal(t, 0.3, sc.Actors[1].HalfWidth)
	assert.Equal(t, 2.4, sc.Ego.HalfLength)
	assert.Equal(t, 1.1, sc.Ego.HalfWidth)
}

func TestLoadScenarioValidation(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		content string
		errText string
	}{
		{"missing map", "tick_rate: 20\nduration: 10\n", "map name"},
		{"zero tick rate", "map: Town03\nduration: 10\n", "tick_rate"},
		{"negative duration", "map: Town03\ntick_rate: 20\nduration: -1\n", "duration"},
		{
			"unknown actor kind",
			"map: Town03\ntick_rate: 20\nduration: 10\nactors:\n  - kind: tram\n",
			"unknown kind",
		},
		{
			"unknown command",
			"map: Town03\ntick_rate: 20\nduration: 10\ncommands:\n  - {time: 1, command: reboot}\n",
			"unknown command",
		},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := LoadScenario(writeScenario(t, tc.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.errText)
		})
	}
}

func TestLoadScenarioRejectsWrongExtension(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "scenario.json")
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0644))
	_, err := LoadScenario(path)
	require.Error(t, err)
}

func TestCommandsBetween(t *testing.T) {
	t.Parallel()
	sc := &Scenario{Commands: []CommandScript{
		{Time: 1.0, Command: CommandTrigger},
		{Time: 1.0, Command: CommandSave},
		{Time: 2.5, Command: CommandReset},
	}}

	// Boundaries are half-open: a command fires on the first tick at or
	// after its scheduled time, exactly once.
	due := sc.CommandsBetween(0.95, 1.0)
	require.Len(t, due, 2)
	assert.Equal(t, CommandTrigger, due[0].Command)

	assert.Empty(t, sc.CommandsBetween(1.0, 1.05))
	assert.Len(t, sc.CommandsBetween(2.45, 2.5), 1)
	assert.Empty(t, sc.CommandsBetween(2.5, 2.55))
}

func TestActorKindsMatchRecorderKinds(t *testing.T) {
	t.Parallel()
	for kind := range defaultHalfExtents {
		if kind == edr.ActorVehicle || kind == edr.ActorMotorbike {
			continue
		}
		assert.True(t, edr.IsVRU(kind), "kind %s should be a VRU", kind)
	}
}
