// Package sim provides a deterministic scripted environment for exercising
// the recorder: actors follow constant-velocity scripts from a YAML
// scenario, collisions and operator commands fire at scripted times, and
// sensor readings are synthesized at each channel's cadence.
package sim

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/road-data/edr/internal/edr"
)

// Default footprint half-extents per actor kind, applied when a script
// leaves them unset.
var defaultHalfExtents = map[string][2]float64{
	edr.ActorPedestrian: {0.4, 0.4},
	edr.ActorBicycle:    {0.7, 0.3},
	edr.ActorMotorbike:  {1.1, 0.4},
	edr.ActorVehicle:    {2.4, 1.1},
}

// EgoScript is the ego vehicle's constant-velocity script.
type EgoScript struct {
	X          float64 `yaml:"x"`
	Y          float64 `yaml:"y"`
	Yaw        float64 `yaml:"yaw"`
	Speed      float64 `yaml:"speed"`
	HalfLength float64 `yaml:"half_length"`
	HalfWidth  float64 `yaml:"half_width"`
	Throttle   float64 `yaml:"throttle"`

	// GNSS origin for the synthetic fix.
	Latitude  float64 `yaml:"latitude"`
	Longitude float64 `yaml:"longitude"`
	Altitude  float64 `yaml:"altitude"`
}

// ActorScript is one scripted non-ego actor.
type ActorScript struct {
	Kind       string  `yaml:"kind"`
	X          float64 `yaml:"x"`
	Y          float64 `yaml:"y"`
	Yaw        float64 `yaml:"yaw"`
	Speed      float64 `yaml:"speed"`
	HalfLength float64 `yaml:"half_length"`
	HalfWidth  float64 `yaml:"half_width"`
}

// CollisionScript reports a physical contact at a scripted time.
type CollisionScript struct {
	Time      float64 `yaml:"time"`
	OtherKind string  `yaml:"other_kind"`
	Impulse   float64 `yaml:"impulse"`
}

// Operator commands a scenario may schedule.
const (
	CommandSave       = "save"
	CommandReset      = "reset"
	CommandTrigger    = "trigger"
	CommandDeactivate = "deactivate"
)

// CommandScript schedules one operator command at a scripted time.
type CommandScript struct {
	Time    float64 `yaml:"time"`
	Command string  `yaml:"command"`
}

// Scenario is a complete scripted run.
type Scenario struct {
	Map      string  `yaml:"map"`
	TickRate float64 `yaml:"tick_rate"`
	Duration float64 `yaml:"duration"`

	Ego        EgoScript         `yaml:"ego"`
	Actors     []ActorScript     `yaml:"actors"`
	Collisions []CollisionScript `yaml:"collisions"`
	Commands   []CommandScript   `yaml:"commands"`
}

// LoadScenario reads and validates a YAML scenario file.
func LoadScenario(path string) (*Scenario, error) {
	if ext := filepath.Ext(path); ext != ".yaml" && ext != ".yml" {
		return nil, fmt.Errorf("scenario %s: expected a .yaml file, got %q", path, ext)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}

	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("parse scenario %s: %w", path, err)
	}
	if err := sc.validate(); err != nil {
		return nil, fmt.Errorf("scenario %s: %w", path, err)
	}
	sc.applyDefaults()
	return &sc, nil
}

func (sc *Scenario) validate() error {
	if strings.TrimSpace(sc.Map) == "" {
		return fmt.Errorf("map name is required")
	}
	if sc.TickRate <= 0 {
		return fmt.Errorf("tick_rate %.3f must be positive", sc.TickRate)
	}
	if sc.Duration <= 0 {
		return fmt.Errorf("duration %.3f must be positive", sc.Duration)
	}
	for i, a := range sc.Actors {
		if _, ok := defaultHalfExtents[a.Kind]; !ok {
			return fmt.Errorf("actor %d: unknown kind %q", i, a.Kind)
		}
	}
	for i, c := range sc.Commands {
		switch c.Command {
		case CommandSave, CommandReset, CommandTrigger, CommandDeactivate:
		default:
			return fmt.Errorf("command %d: unknown command %q", i, c.Command)
		}
	}
	return nil
}

func (sc *Scenario) applyDefaults() {
	if sc.Ego.HalfLength == 0 {
		sc.Ego.HalfLength = defaultHalfExtents[edr.ActorVehicle][0]
	}
	if sc.Ego.HalfWidth == 0 {
		sc.Ego.HalfWidth = defaultHalfExtents[edr.ActorVehicle][1]
	}
	for i := range sc.Actors {
		a := &sc.Actors[i]
		ext := defaultHalfExtents[a.Kind]
		if a.HalfLength == 0 {
			a.HalfLength = ext[0]
		}
		if a.HalfWidth == 0 {
			a.HalfWidth = ext[1]
		}
	}
}

// CommandsBetween returns the commands scheduled in (prev, now], in schedule
// order. The tick loop calls this once per step with the previous and
// current frame timestamps.
func (sc *Scenario) CommandsBetween(prev, now float64) []CommandScript {
	var due []CommandScript
	for _, c := range sc.Commands {
		if c.Time > prev && c.Time <= now {
			due = append(due, c)
		}
	}
	return due
}
