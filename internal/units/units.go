// Package units provides the speed conversions used across the recorder:
// kinematics are computed in m/s, while the recorded telemetry fields and
// operator-facing output use km/h.
package units

// Unit names accepted in configuration and display contexts.
const (
	MPS  = "mps"
	KMPH = "kmph"
	KPH  = "kph"
)

const kmhPerMps = 3.6

// MPSToKMH converts a speed in metres per second to kilometres per hour.
func MPSToKMH(v float64) float64 { return v * kmhPerMps }

// KMHToMPS converts a speed in kilometres per hour to metres per second.
func KMHToMPS(v float64) float64 { return v / kmhPerMps }

// Convert converts a speed in m/s to the named target unit. Unknown units
// pass the value through unchanged.
func Convert(speedMPS float64, targetUnits string) float64 {
	switch targetUnits {
	case KMPH, KPH:
		return MPSToKMH(speedMPS)
	}
	return speedMPS
}
