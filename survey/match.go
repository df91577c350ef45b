package survey

import "sync"

// DefaultMinOverlap is the number of beacons two readings must share, under
// some rotation and translation, before the overlap counts as a match
// rather than coincidence.
const DefaultMinOverlap = 12

// MatchResult describes a successful registration of one reading against
// another: the rotation and translation that move the candidate into the
// frame of the reference, and the candidate re-expressed in that frame.
type MatchResult struct {
	Orientation Orientation
	Translation Vector3
	Placed      *Reading
}

// Match attempts to register other against r. r is treated as the reference
// frame (typically already global); other is in an unknown local frame.
// On success it returns the orientation and translation placing other into
// r's frame, plus the transformed reading. A nil result is the ordinary
// outcome for readings whose scanners never overlapped, not an error.
//
// The input is assumed to admit at most one consistent placement per
// overlapping pair (true for real scanner layouts with the 12-beacon
// threshold); the first satisfying combination is returned without
// verifying uniqueness.
//
// minOverlap <= 0 falls back to DefaultMinOverlap.
func (r *Reading) Match(other *Reading, minOverlap int) *MatchResult {
	return r.match(other, minOverlap, newRotationCache())
}

// match is Match with an explicit rotated-reading cache, shared across many
// match attempts by the world map build loop.
func (r *Reading) match(other *Reading, minOverlap int, rot *rotationCache) *MatchResult {
	if minOverlap <= 0 {
		minOverlap = DefaultMinOverlap
	}

	// If minOverlap beacons coincide, every pair among them coincides too,
	// so the offset indexes must share at least C(minOverlap, 2) keys. This
	// pigeonhole bound rejects most orientations without trying a single
	// translation.
	minPairsOverlap := minOverlap * (minOverlap - 1) / 2

	for _, o := range orientations {
		otherRotated := rot.rotated(other, o)

		shared := sharedOffsets(r.pairs, otherRotated.pairs)
		if len(shared) < minPairsOverlap {
			continue
		}

		// Each shared offset proposes translations aligning one of r's
		// pairs with one of the rotated reading's pairs. Several physical
		// pairs can share an offset, so all combinations are candidates.
		tried := make(map[Vector3]struct{})
		for _, off := range shared {
			for _, ps := range r.pairs[off] {
				for _, po := range otherRotated.pairs[off] {
					t := ps[0].Sub(po[0])
					if _, done := tried[t]; done {
						continue
					}
					tried[t] = struct{}{}

					if r.overlap(otherRotated, t) >= minOverlap {
						return &MatchResult{
							Orientation: o,
							Translation: t,
							Placed:      otherRotated.Translated(t),
						}
					}
				}
			}
		}
	}

	return nil
}

// sharedOffsets intersects the key sets of two offset indexes, iterating
// the smaller one.
func sharedOffsets(a, b map[Vector3][]beaconPair) []Vector3 {
	if len(b) < len(a) {
		a, b = b, a
	}
	var shared []Vector3
	for off := range a {
		if _, ok := b[off]; ok {
			shared = append(shared, off)
		}
	}
	return shared
}

// rotationCache memoizes rotated copies of readings. The same rotation of
// the same reading is requested repeatedly while matching it against
// multiple placed readings, and rebuilding the offset index each time would
// dominate the match cost. Safe for concurrent use: the world map build
// loop shares one cache across parallel placement attempts.
type rotationCache struct {
	mu      sync.Mutex
	entries map[rotationKey]*Reading
}

type rotationKey struct {
	reading *Reading
	o       Orientation
}

func newRotationCache() *rotationCache {
	return &rotationCache{entries: make(map[rotationKey]*Reading)}
}

func (c *rotationCache) rotated(r *Reading, o Orientation) *Reading {
	key := rotationKey{reading: r, o: o}

	c.mu.Lock()
	cached, ok := c.entries[key]
	c.mu.Unlock()
	if ok {
		return cached
	}

	rotated := r.Rotated(o)
	c.mu.Lock()
	c.entries[key] = rotated
	c.mu.Unlock()
	return rotated
}
