package survey

import (
	"errors"
	"sort"
	"strings"
)

// ErrEmptyReading is returned when a Reading would contain no beacons.
// An empty reading is a programming error, not an input-data condition:
// the parser never emits one.
var ErrEmptyReading = errors.New("reading must contain at least one beacon")

// beaconPair is an unordered beacon pair stored in lexicographic order:
// pair[0].Less(pair[1]) always holds.
type beaconPair [2]Vector3

// Reading is the immutable set of beacon positions seen by one scanner, in
// some frame: either the scanner's own local frame, or a frame already
// rotated and translated into the shared global frame.
//
// Alongside the point set, a Reading carries a precomputed index from the
// relative offset of every unordered beacon pair to the pairs producing that
// offset. Offsets are translation-invariant (differences within the same
// reading), so two readings that observe the same physical pair share an
// offset key once one of them is rotated into the other's axes. This index
// is what makes overlap detection cheap (see Match).
//
// Readings are never mutated: Rotated and Translated derive new readings,
// recomputing the index for the transformed points.
type Reading struct {
	beacons []Vector3 // sorted lexicographically, no duplicates
	set     map[Vector3]struct{}
	pairs   map[Vector3][]beaconPair // offset (smaller -> larger) -> pairs
}

// NewReading builds a Reading from beacon positions. Duplicates coalesce.
// Returns ErrEmptyReading if no beacons are given.
func NewReading(beacons []Vector3) (*Reading, error) {
	if len(beacons) == 0 {
		return nil, ErrEmptyReading
	}

	set := make(map[Vector3]struct{}, len(beacons))
	for _, b := range beacons {
		set[b] = struct{}{}
	}

	sorted := make([]Vector3, 0, len(set))
	for b := range set {
		sorted = append(sorted, b)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Less(sorted[j]) })

	return &Reading{
		beacons: sorted,
		set:     set,
		pairs:   indexPairs(sorted),
	}, nil
}

// indexPairs builds the pairwise-offset index over a lexicographically
// sorted beacon slice. O(n²) in the beacon count; readings are small
// (~25-30 beacons), and the index is built once per derived reading.
func indexPairs(sorted []Vector3) map[Vector3][]beaconPair {
	pairs := make(map[Vector3][]beaconPair)
	for i := 0; i < len(sorted); i++ {
		for j := i + 1; j < len(sorted); j++ {
			// Offsets always run from the lexicographically smaller beacon
			// to the larger one, so the key is stable across readings.
			off := sorted[j].Sub(sorted[i])
			pairs[off] = append(pairs[off], beaconPair{sorted[i], sorted[j]})
		}
	}
	return pairs
}

// derive builds a Reading from beacons known to be non-empty.
func derive(beacons []Vector3) *Reading {
	r, err := NewReading(beacons)
	if err != nil {
		panic(err) // unreachable: derive is only called with non-empty input
	}
	return r
}

// Len returns the number of distinct beacons.
func (r *Reading) Len() int {
	return len(r.beacons)
}

// Contains reports whether the beacon is part of the reading.
func (r *Reading) Contains(b Vector3) bool {
	_, ok := r.set[b]
	return ok
}

// Beacons returns the beacons in lexicographic order. The slice is a copy.
func (r *Reading) Beacons() []Vector3 {
	out := make([]Vector3, len(r.beacons))
	copy(out, r.beacons)
	return out
}

// Rotated returns a new Reading with every beacon rotated by o.
func (r *Reading) Rotated(o Orientation) *Reading {
	rotated := make([]Vector3, len(r.beacons))
	for i, b := range r.beacons {
		rotated[i] = o.Apply(b)
	}
	return derive(rotated)
}

// Translated returns a new Reading with every beacon shifted by delta.
func (r *Reading) Translated(delta Vector3) *Reading {
	shifted := make([]Vector3, len(r.beacons))
	for i, b := range r.beacons {
		shifted[i] = b.Add(delta)
	}
	return derive(shifted)
}

// overlap counts how many beacons of other, shifted by delta, coincide with
// beacons of r. It avoids building the shifted reading until a caller knows
// the overlap suffices.
func (r *Reading) overlap(other *Reading, delta Vector3) int {
	n := 0
	for _, b := range other.beacons {
		if _, ok := r.set[b.Add(delta)]; ok {
			n++
		}
	}
	return n
}

// String renders the beacons one per line in report format, in
// lexicographic order.
func (r *Reading) String() string {
	var sb strings.Builder
	for i, b := range r.beacons {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(b.String())
	}
	return sb.String()
}
