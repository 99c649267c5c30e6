// Package config loads the sensor-suite description consumed at session
// configuration time.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Camera imaging defaults applied when a field is omitted from the suite file.
const (
	DefaultCameraWidth  = 720
	DefaultCameraHeight = 480
	DefaultCameraFOV    = 110.0
	DefaultCameraRate   = 10.0
	DefaultLidarRate    = 10.0
)

// MountPose is a sensor mounting transform relative to the vehicle-body
// origin (+x forward, +y right, +z up; angles in degrees). Omitted fields
// default to zero.
type MountPose struct {
	X     *float64 `json:"x,omitempty"`
	Y     *float64 `json:"y,omitempty"`
	Z     *float64 `json:"z,omitempty"`
	Roll  *float64 `json:"roll,omitempty"`
	Pitch *float64 `json:"pitch,omitempty"`
	Yaw   *float64 `json:"yaw,omitempty"`
}

func deref(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}

// GetX returns the x offset or zero.
func (p MountPose) GetX() float64 { return deref(p.X) }

// GetY returns the y offset or zero.
func (p MountPose) GetY() float64 { return deref(p.Y) }

// GetZ returns the z offset or zero.
func (p MountPose) GetZ() float64 { return deref(p.Z) }

// GetRoll returns the roll angle or zero.
func (p MountPose) GetRoll() float64 { return deref(p.Roll) }

// GetPitch returns the pitch angle or zero.
func (p MountPose) GetPitch() float64 { return deref(p.Pitch) }

// GetYaw returns the yaw angle or zero.
func (p MountPose) GetYaw() float64 { return deref(p.Yaw) }

// CameraConfig describes one camera channel: its label, mount pose and
// imaging parameters. Fields omitted from the JSON keep their defaults.
type CameraConfig struct {
	Label string `json:"label"`
	MountPose
	Width  *int     `json:"width,omitempty"`
	Height *int     `json:"height,omitempty"`
	FOV    *float64 `json:"fov,omitempty"`
	Rate   *float64 `json:"rate,omitempty"`
}

// GetWidth returns the image width or the default.
func (c CameraConfig) GetWidth() int {
	if c.Width == nil {
		return DefaultCameraWidth
	}
	return *c.Width
}

// GetHeight returns the image height or the default.
func (c CameraConfig) GetHeight() int {
	if c.Height == nil {
		return DefaultCameraHeight
	}
	return *c.Height
}

// GetFOV returns the horizontal field of view in degrees or the default.
func (c CameraConfig) GetFOV() float64 {
	if c.FOV == nil {
		return DefaultCameraFOV
	}
	return *c.FOV
}

// GetRate returns the sample rate in Hz or the default.
func (c CameraConfig) GetRate() float64 {
	if c.Rate == nil {
		return DefaultCameraRate
	}
	return *c.Rate
}

// LidarConfig describes one 3-D lidar channel: label and mount pose only.
type LidarConfig struct {
	Label string `json:"label"`
	MountPose
}

// SensorSuite is the set of externally configured sensor channels. Channel
// membership is fixed for the lifetime of a session.
type SensorSuite struct {
	Cameras  []CameraConfig `json:"cameras"`
	Lidars3D []LidarConfig  `json:"lidars3d"`
}

// LoadSensorSuite loads a SensorSuite from a JSON file. Entries with an
// empty label are dropped, matching the loader this format comes from.
func LoadSensorSuite(path string) (*SensorSuite, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("sensor suite file must have .json extension, got %q", ext)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read sensor suite: %w", err)
	}

	var suite SensorSuite
	if err := json.Unmarshal(data, &suite); err != nil {
		return nil, fmt.Errorf("failed to parse sensor suite JSON: %w", err)
	}

	suite.Cameras = dropUnlabelledCameras(suite.Cameras)
	suite.Lidars3D = dropUnlabelledLidars(suite.Lidars3D)
	return &suite, nil
}

func dropUnlabelledCameras(in []CameraConfig) []CameraConfig {
	out := in[:0]
	for _, c := range in {
		if c.Label != "" {
			out = append(out, c)
		}
	}
	return out
}

func dropUnlabelledLidars(in []LidarConfig) []LidarConfig {
	out := in[:0]
	for _, l := range in {
		if l.Label != "" {
			out = append(out, l)
		}
	}
	return out
}
