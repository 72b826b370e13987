// Package input normalizes raw joystick axis readings.
package input

// Raw axis readings come from the Linux joystick driver as signed 16-bit
// counts. MaxMagnitude is treated as 32768 so a full-deflection negative
// reading maps exactly to -1.
const (
	MaxMagnitude = 32768

	// DeadZone is the magnitude below which a reading is treated as zero,
	// suppressing stick noise and drift around center.
	DeadZone = 3000
)

// Adapt converts one raw axis reading into a signed unit-interval value.
// Readings within the dead zone map to exactly 0; the domain extreme maps to
// exactly +/-1; magnitudes in between interpolate linearly. Out-of-range
// input is clamped, never rejected.
func Adapt(raw int) float64 {
	mag := raw
	if mag < 0 {
		mag = -mag
	}
	if mag <= DeadZone {
		return 0
	}

	scaled := float64(mag-DeadZone) / float64(MaxMagnitude-DeadZone)
	if scaled > 1 {
		scaled = 1
	}
	if raw < 0 {
		return -scaled
	}
	return scaled
}
