package survey

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// FeatureCollection converts the assembled map into a GeoJSON
// FeatureCollection in plan view: every beacon and sensor is projected onto
// the global XY plane, with the Z coordinate preserved as a property.
// Sensors additionally carry their recovered orientation and range, plus
// their detection footprint as a Polygon ring. Orientations are signed axis
// permutations, so the footprint square is exact, not an approximation.
func FeatureCollection(m *WorldMap) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()

	for _, b := range m.AllBeacons() {
		f := geojson.NewFeature(orb.Point{float64(b.X), float64(b.Y)})
		f.Properties["kind"] = "beacon"
		f.Properties["z"] = b.Z
		fc.Append(f)
	}

	for i, s := range m.Sensors() {
		appendSensorFeatures(fc, i, s)
	}

	return fc
}

// SliceFeatureCollection is like FeatureCollection but restricted to the
// given Z plane: only beacons and sensor positions with that exact Z
// coordinate are included. This mirrors how survey slices are inspected
// layer by layer.
func SliceFeatureCollection(m *WorldMap, z int) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()

	for _, b := range m.AllBeacons() {
		if b.Z != z {
			continue
		}
		f := geojson.NewFeature(orb.Point{float64(b.X), float64(b.Y)})
		f.Properties["kind"] = "beacon"
		f.Properties["z"] = b.Z
		fc.Append(f)
	}

	for i, s := range m.Sensors() {
		if s.Position.Z != z {
			continue
		}
		appendSensorFeatures(fc, i, s)
	}

	return fc
}

// appendSensorFeatures adds a sensor's position point and detection
// footprint polygon to the collection.
func appendSensorFeatures(fc *geojson.FeatureCollection, index int, s Sensor) {
	id := fmt.Sprintf("S%d", index)

	pos := geojson.NewFeature(orb.Point{float64(s.Position.X), float64(s.Position.Y)})
	pos.Properties["kind"] = "sensor"
	pos.Properties["id"] = id
	pos.Properties["z"] = s.Position.Z
	pos.Properties["orientation"] = s.Orientation.String()
	pos.Properties["range"] = s.Range
	fc.Append(pos)

	footprint := geojson.NewFeature(sensorFootprint(s))
	footprint.Properties["kind"] = "detection-footprint"
	footprint.Properties["id"] = id
	fc.Append(footprint)
}

// sensorFootprint returns the XY projection of the sensor's detection cube
// as a closed polygon ring.
func sensorFootprint(s Sensor) orb.Polygon {
	x := float64(s.Position.X)
	y := float64(s.Position.Y)
	r := float64(s.Range)
	ring := orb.Ring{
		{x - r, y - r},
		{x + r, y - r},
		{x + r, y + r},
		{x - r, y + r},
		{x - r, y - r},
	}
	return orb.Polygon{ring}
}
