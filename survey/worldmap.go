package survey

import (
	"fmt"
	"log"
	"runtime"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"
)

// BuildConfig holds tunables for the incremental registration loop.
type BuildConfig struct {
	MinOverlap  int // Beacons two readings must share to count as a match
	SensorRange int // Detection range recorded on placed sensors
	Workers     int // Parallel placement attempts per scan round
}

// DefaultBuildConfig returns the standard scanner parameters: the 12-beacon
// overlap threshold and the 1000-unit detection cube.
func DefaultBuildConfig() BuildConfig {
	return BuildConfig{
		MinOverlap:  DefaultMinOverlap,
		SensorRange: DefaultSensorRange,
		Workers:     runtime.NumCPU(),
	}
}

// Placement pairs a resolved sensor pose with its reading re-expressed in
// the global frame.
type Placement struct {
	Sensor  Sensor
	Reading *Reading
}

// BuildError reports that registration could not complete: a full pass over
// the remaining readings found no overlap with any placed reading, meaning
// the scanner layout's overlap graph is disconnected as given. No partial
// results are exposed as final ones: a truncated map would silently
// under-report beacon counts and distances.
type BuildError struct {
	Placed   int
	Unplaced int
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("registration incomplete: %d readings placed, %d readings have no overlap with the assembled map", e.Placed, e.Unplaced)
}

// WorldMap incrementally registers scanner readings into a single global
// frame. The first reading anchors the frame (origin, identity orientation;
// global coordinates are only ever relative to this arbitrary choice); each
// further reading is placed the moment it matches any already-placed one.
//
// Every stored reading has already been rotated and translated into the
// global frame, so beacons from different sensors compare with plain
// Vector3 equality.
type WorldMap struct {
	cfg BuildConfig

	placements []Placement

	// Caches live for the lifetime of the map: at most 24 rotated copies
	// per reading and one match result (including misses) per ordered
	// reading pair. Guarded for the parallel scan in Build.
	rot       *rotationCache
	matchesMu sync.Mutex
	matches   map[matchKey]*MatchResult // nil value = tried, no overlap
}

type matchKey struct {
	fixed     *Reading
	candidate *Reading
}

// NewWorldMap creates an empty map. Zero-valued config fields fall back to
// DefaultBuildConfig values.
func NewWorldMap(cfg BuildConfig) *WorldMap {
	def := DefaultBuildConfig()
	if cfg.MinOverlap <= 0 {
		cfg.MinOverlap = def.MinOverlap
	}
	if cfg.SensorRange <= 0 {
		cfg.SensorRange = def.SensorRange
	}
	if cfg.Workers <= 0 {
		cfg.Workers = def.Workers
	}
	return &WorldMap{
		cfg:     cfg,
		rot:     newRotationCache(),
		matches: make(map[matchKey]*MatchResult),
	}
}

// cachedMatch runs fixed.match(candidate) through the map's match cache.
// Misses are cached too: the build loop re-scans unplaced readings after
// every placement, and only newly placed readings warrant fresh attempts.
func (m *WorldMap) cachedMatch(fixed, candidate *Reading) *MatchResult {
	key := matchKey{fixed: fixed, candidate: candidate}

	m.matchesMu.Lock()
	res, ok := m.matches[key]
	m.matchesMu.Unlock()
	if ok {
		return res
	}

	res = fixed.match(candidate, m.cfg.MinOverlap, m.rot)

	m.matchesMu.Lock()
	m.matches[key] = res
	m.matchesMu.Unlock()
	return res
}

// findPlacement searches the given placements for one the candidate
// matches. First success wins; there is no preference among placed
// readings.
func (m *WorldMap) findPlacement(placed []Placement, candidate *Reading) *MatchResult {
	for _, p := range placed {
		if res := m.cachedMatch(p.Reading, candidate); res != nil {
			return res
		}
	}
	return nil
}

// Place attempts to register a single reading against the current map.
// An empty map anchors the reading at the origin with identity orientation.
// Returns the created sensor and true on success; false when the reading
// overlaps no placed reading (an ordinary outcome, not an error).
func (m *WorldMap) Place(r *Reading) (Sensor, bool) {
	if len(m.placements) == 0 {
		anchor := NewSensor(Vector3{}, Identity(), m.cfg.SensorRange)
		m.placements = append(m.placements, Placement{Sensor: anchor, Reading: r})
		return anchor, true
	}

	res := m.findPlacement(m.placements, r)
	if res == nil {
		return Sensor{}, false
	}

	sensor := NewSensor(res.Translation, res.Orientation, m.cfg.SensorRange)
	m.placements = append(m.placements, Placement{Sensor: sensor, Reading: res.Placed})
	return sensor, true
}

// Build registers all readings, repeatedly scanning the unplaced set until
// it is empty or a full scan makes no progress (*BuildError). Placement
// order is discovered, not given: a reading may only become placeable once
// some other reading has been placed, so the loop is a fixed-point
// iteration rather than a single pass.
//
// Within one scan, attempts to place different readings are independent and
// run in parallel (bounded by Workers); successes are committed one at a
// time by the driver. Each success was matched against an already-placed
// reading, so it stays valid no matter how many other commits precede it.
func (m *WorldMap) Build(readings []*Reading) error {
	remaining := make([]*Reading, len(readings))
	copy(remaining, readings)

	if len(m.placements) == 0 && len(remaining) > 0 {
		m.Place(remaining[0])
		log.Printf("anchored %d-beacon reading at origin, %d readings remaining",
			m.placements[0].Reading.Len(), len(remaining)-1)
		remaining = remaining[1:]
	}

	for round := 1; len(remaining) > 0; round++ {
		snapshot := make([]Placement, len(m.placements))
		copy(snapshot, m.placements)

		results := make([]*MatchResult, len(remaining))
		var g errgroup.Group
		g.SetLimit(m.cfg.Workers)
		for i, candidate := range remaining {
			g.Go(func() error {
				results[i] = m.findPlacement(snapshot, candidate)
				return nil
			})
		}
		g.Wait()

		var next []*Reading
		placedThisRound := 0
		for i, candidate := range remaining {
			res := results[i]
			if res == nil {
				next = append(next, candidate)
				continue
			}
			sensor := NewSensor(res.Translation, res.Orientation, m.cfg.SensorRange)
			m.placements = append(m.placements, Placement{Sensor: sensor, Reading: res.Placed})
			placedThisRound++
			log.Printf("placed %s (%d beacons) in round %d", sensor, candidate.Len(), round)
		}

		if placedThisRound == 0 {
			return &BuildError{Placed: len(m.placements), Unplaced: len(remaining)}
		}
		remaining = next
	}

	return nil
}

// Sensors returns the pose of every placed scanner, in placement order.
func (m *WorldMap) Sensors() []Sensor {
	out := make([]Sensor, len(m.placements))
	for i, p := range m.placements {
		out[i] = p.Sensor
	}
	return out
}

// Placements returns a copy of the placement list.
func (m *WorldMap) Placements() []Placement {
	out := make([]Placement, len(m.placements))
	copy(out, m.placements)
	return out
}

// AllBeacons returns the union of every placed reading's beacons in the
// global frame, sorted lexicographically. Beacons seen by several sensors
// coalesce to a single entry.
func (m *WorldMap) AllBeacons() []Vector3 {
	set := make(map[Vector3]struct{})
	for _, p := range m.placements {
		for _, b := range p.Reading.beacons {
			set[b] = struct{}{}
		}
	}
	out := make([]Vector3, 0, len(set))
	for b := range set {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}

// BeaconCount returns the number of distinct beacons in the global frame.
func (m *WorldMap) BeaconCount() int {
	set := make(map[Vector3]struct{})
	for _, p := range m.placements {
		for _, b := range p.Reading.beacons {
			set[b] = struct{}{}
		}
	}
	return len(set)
}

// FullReading returns the assembled map as a single reading in the global
// frame. Returns ErrEmptyReading for an empty map.
func (m *WorldMap) FullReading() (*Reading, error) {
	return NewReading(m.AllBeacons())
}

// MostDistantSensors returns the pair of sensors with the largest Manhattan
// distance between their positions, and that distance. With fewer than two
// sensors it returns zero values and ok=false.
func (m *WorldMap) MostDistantSensors() (a, b Sensor, dist int, ok bool) {
	if len(m.placements) < 2 {
		return Sensor{}, Sensor{}, 0, false
	}
	for i := 0; i < len(m.placements); i++ {
		for j := i + 1; j < len(m.placements); j++ {
			si, sj := m.placements[i].Sensor, m.placements[j].Sensor
			if d := si.Position.Manhattan(sj.Position); d >= dist {
				a, b, dist = si, sj, d
			}
		}
	}
	return a, b, dist, true
}

// MaxPairwiseDistance returns the largest Manhattan distance between any
// two sensor positions, or 0 with fewer than two sensors.
func (m *WorldMap) MaxPairwiseDistance() int {
	_, _, dist, _ := m.MostDistantSensors()
	return dist
}
