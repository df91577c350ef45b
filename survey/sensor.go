package survey

import "fmt"

// DefaultSensorRange is how far (along each of the sensor's own axes) a
// scanner detects beacons.
const DefaultSensorRange = 1000

// Sensor is the resolved placement of one physical scanner in the global
// frame: where it sits, how its local axes map onto the global axes, and
// how far it senses. A Sensor is created once, when its reading is
// successfully registered, and never mutated.
type Sensor struct {
	Position    Vector3
	Orientation Orientation
	Range       int
}

// NewSensor creates a sensor pose. A non-positive rng falls back to
// DefaultSensorRange.
func NewSensor(pos Vector3, o Orientation, rng int) Sensor {
	if rng <= 0 {
		rng = DefaultSensorRange
	}
	return Sensor{Position: pos, Orientation: o, Range: rng}
}

// Sees reports whether a beacon at the given global position lies inside
// the sensor's detection volume: the axis-aligned cube of half-width Range
// in the sensor's own rotated axes. The beacon's offset from the sensor is
// mapped back into the local frame and checked componentwise.
func (s Sensor) Sees(beacon Vector3) bool {
	d := s.Orientation.Inverse().Apply(beacon.Sub(s.Position))
	return absInt(d.X) <= s.Range && absInt(d.Y) <= s.Range && absInt(d.Z) <= s.Range
}

// Scan produces the reading this sensor would report for the given global
// beacons: the visible subset, expressed in the sensor's local frame.
// Placing the result with the sensor's own orientation and position
// reproduces the visible global beacons exactly.
//
// Returns ErrEmptyReading when no beacon is in range.
func (s Sensor) Scan(beacons []Vector3) (*Reading, error) {
	inv := s.Orientation.Inverse()
	var local []Vector3
	for _, b := range beacons {
		if s.Sees(b) {
			local = append(local, inv.Apply(b.Sub(s.Position)))
		}
	}
	return NewReading(local)
}

// String implements fmt.Stringer for log output.
func (s Sensor) String() string {
	if s.Orientation.IsIdentity() {
		return fmt.Sprintf("Sensor(%s)", s.Position)
	}
	return fmt.Sprintf("Sensor(%s, %s)", s.Position, s.Orientation)
}
