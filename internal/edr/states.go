package edr

// Vehicle-state field names. The CSV column order follows AllStates.
const (
	StateAcceleratorPercent = "Accelerator Pedal"
	StateBrakePercent       = "Brake Pedal"
	StateDeltaVLateral      = "Delta-V Lateral"
	StateDeltaVLongitudinal = "Delta-V Longitudinal"
	StateEngineRPM          = "Engine RPM"
	StateGNSSAltitude       = "Altitude"
	StateGNSSLatitude       = "Latitude"
	StateGNSSLongitude      = "Longitude"
	StateLateralAccel       = "Lateral Acceleration"
	StateLateralVelocity    = "Lateral Velocity"
	StateLongitudinalAccel  = "Longitudinal Acceleration"
	StateLongitudinalVel    = "Longitudinal Velocity"
	StateNormalAccel        = "Normal Acceleration"
	StateNormalVelocity     = "Normal Velocity"
	StateServiceBrake       = "Service Brake"
	StateSpeed              = "Speed"
	StateSteeringInput      = "Steering Input"
)

// StateUnits maps each field to the units shown in the CSV header.
var StateUnits = map[string]string{
	StateAcceleratorPercent: "%",
	StateBrakePercent:       "%",
	StateDeltaVLateral:      "m/s",
	StateDeltaVLongitudinal: "m/s",
	StateEngineRPM:          "rpm",
	StateGNSSAltitude:       "m",
	StateGNSSLatitude:       "",
	StateGNSSLongitude:      "",
	StateLateralAccel:       "m/s^2",
	StateLateralVelocity:    "km/h",
	StateLongitudinalAccel:  "m/s^2",
	StateLongitudinalVel:    "km/h",
	StateNormalAccel:        "m/s^2",
	StateNormalVelocity:     "km/h",
	StateServiceBrake:       "",
	StateSpeed:              "km/h",
	StateSteeringInput:      "%",
}

// AllStates is the CSV column order for vehicle-state rows.
var AllStates = []string{
	StateAcceleratorPercent,
	StateBrakePercent,
	StateDeltaVLateral,
	StateDeltaVLongitudinal,
	StateEngineRPM,
	StateGNSSAltitude,
	StateGNSSLatitude,
	StateGNSSLongitude,
	StateLateralAccel,
	StateLateralVelocity,
	StateLongitudinalAccel,
	StateLongitudinalVel,
	StateNormalAccel,
	StateNormalVelocity,
	StateServiceBrake,
	StateSpeed,
	StateSteeringInput,
}
