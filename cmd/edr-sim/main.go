// Command edr-sim runs a scripted driving scenario through the event data
// recorder and the near-miss logger, writing any captured sessions to disk.
package main

import (
	"flag"
	"log"
	"math"

	"github.com/road-data/edr/internal/config"
	"github.com/road-data/edr/internal/edr"
	"github.com/road-data/edr/internal/fsutil"
	"github.com/road-data/edr/internal/proximity"
	"github.com/road-data/edr/internal/sim"
	"github.com/road-data/edr/internal/version"
)

func main() {
	scenarioPath := flag.String("scenario", "", "YAML scenario file (required)")
	sensorsPath := flag.String("sensors", "", "JSON sensor suite description")
	out := flag.String("out", "edr_out", "directory for saved sessions")
	edrOn := flag.Bool("edr", false, "activate the event data recorder")
	autosave := flag.Bool("edr-autosave", false, "save automatically when data is ready")
	preTime := flag.Float64("edr-pretime", 5.0, "seconds retained before a trigger")
	postTime := flag.Float64("edr-posttime", 2.0, "seconds recorded after a trigger")
	nearMissLog := flag.String("near-miss-log", "", "append near misses to this CSV log")
	nearMissSpeed := flag.Float64("near-miss-speed", 1.0, "minimum ego speed for near-miss checks (m/s)")
	flag.Parse()

	if *scenarioPath == "" {
		log.Fatal("-scenario is required")
	}
	log.Printf("edr-sim %s", version.String())
	scenario, err := sim.LoadScenario(*scenarioPath)
	if err != nil {
		log.Fatalf("load scenario: %v", err)
	}

	suite := &config.SensorSuite{}
	if *sensorsPath != "" {
		suite, err = config.LoadSensorSuite(*sensorsPath)
		if err != nil {
			log.Fatalf("load sensor suite: %v", err)
		}
	}
	specs := channelSpecs(suite)

	fs := fsutil.OSFileSystem{}

	var recorder *edr.Controller
	if *edrOn {
		recorder = edr.NewController(edr.NewPersister(fs, *out))
		cfg := edr.Config{
			PreEventTime:          *preTime,
			PostEventTime:         *postTime,
			Autosave:              *autosave,
			MinCloseApproachSpeed: *nearMissSpeed,
		}
		if err := recorder.Activate(cfg, specs); err != nil {
			log.Fatalf("activate recorder: %v", err)
		}
	}

	var nearMiss *proximity.Logger
	if *nearMissLog != "" {
		nearMiss, err = proximity.NewLogger(fs, *nearMissLog, scenario.Map, *nearMissSpeed)
		if err != nil {
			log.Fatalf("open near-miss log: %v", err)
		}
		defer nearMiss.Close()
	}

	world := sim.NewWorld(scenario, specs)
	prev := math.Inf(-1)
	ticks := 0
	for !world.Done() {
		f := world.Step()
		ticks++

		if recorder != nil {
			if err := recorder.Tick(f); err != nil {
				log.Printf("tick %d: %v", ticks, err)
			}
			runCommands(recorder, scenario.CommandsBetween(prev, f.Timestamp), f.Timestamp)
		}
		if nearMiss != nil {
			if err := nearMiss.Observe(f); err != nil {
				log.Fatalf("near-miss log: %v", err)
			}
		}
		prev = f.Timestamp
	}

	if recorder != nil && recorder.DataReady() {
		log.Printf("scenario ended with unsaved data (state %s); discarding", recorder.State())
	}
	log.Printf("✓ Scenario complete: %d ticks", ticks)
}

// runCommands applies scheduled operator commands. Rejected commands are
// already logged by the recorder; the schedule keeps going.
func runCommands(recorder *edr.Controller, due []sim.CommandScript, ts float64) {
	for _, c := range due {
		var err error
		switch c.Command {
		case sim.CommandTrigger:
			err = recorder.TriggerManual(ts)
		case sim.CommandSave:
			err = recorder.Save()
		case sim.CommandReset:
			err = recorder.Reset()
		case sim.CommandDeactivate:
			recorder.Deactivate()
		}
		if err != nil {
			log.Printf("scheduled %s at t=%.2f: %v", c.Command, c.Time, err)
		}
	}
}

// channelSpecs derives the recorded channel set from the sensor suite, plus
// the two channels every run records: the perception log and vehicle
// telemetry.
func channelSpecs(suite *config.SensorSuite) []edr.ChannelSpec {
	var specs []edr.ChannelSpec
	for _, cam := range suite.Cameras {
		specs = append(specs, edr.ChannelSpec{Label: cam.Label, Kind: edr.KindCamera, Rate: cam.GetRate()})
	}
	for _, lidar := range suite.Lidars3D {
		specs = append(specs, edr.ChannelSpec{Label: lidar.Label, Kind: edr.KindLidar3D, Rate: config.DefaultLidarRate})
	}
	specs = append(specs,
		edr.ChannelSpec{Label: "logs", Kind: edr.KindPerception, Rate: 20.0},
		edr.ChannelSpec{Label: "vehicle-state", Kind: edr.KindVehicleState, Rate: 100.0},
	)
	return specs
}
