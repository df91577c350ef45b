package survey

import (
	"fmt"
	"strings"
)

// Orientation is one of the 24 proper (handedness-preserving) axis-aligned
// rotations a scanner may be mounted in. It is defined by a signed axis
// permutation: for each input axis, the signed output axis it maps to,
// encoded as ±1 (x), ±2 (y), ±3 (z).
//
// Orientations are immutable values. The full set is precomputed once at
// package init; use Orientations, Identity or ParseOrientation rather than
// constructing literals.
type Orientation struct {
	xTo, yTo, zTo int

	// Derived lookup for Apply: output axis i reads input component from[i]
	// with sign sign[i].
	from [3]int
	sign [3]int
}

// orientations is the immutable table of all 24 proper rotations, built once
// at package init. Enumeration order is an implementation detail; callers
// must not rely on it.
var orientations = enumerateProper()

// identity is the neutral orientation (x->x, y->y, z->z).
var identity = mustOrientation(1, 2, 3)

// NewOrientation builds an Orientation from the signed destination axes of
// the input x, y and z axes. It fails on anything that is not a valid signed
// permutation (axis out of range, duplicate axis) and on reflections
// (determinant -1): scanners rotate but are never mirrored.
func NewOrientation(xTo, yTo, zTo int) (Orientation, error) {
	o, mirrored, err := newSignedPermutation(xTo, yTo, zTo)
	if err != nil {
		return Orientation{}, err
	}
	if mirrored {
		return Orientation{}, fmt.Errorf("orientation %s is a reflection, not a proper rotation", o)
	}
	return o, nil
}

// newSignedPermutation validates and builds the transform without the
// handedness restriction, reporting whether it mirrors.
func newSignedPermutation(xTo, yTo, zTo int) (Orientation, bool, error) {
	to := [3]int{xTo, yTo, zTo}
	var seen [3]bool
	for _, t := range to {
		a := absInt(t)
		if a < 1 || a > 3 {
			return Orientation{}, false, fmt.Errorf("invalid axis %d: want ±1, ±2 or ±3", t)
		}
		if seen[a-1] {
			return Orientation{}, false, fmt.Errorf("duplicate destination axis %d", a)
		}
		seen[a-1] = true
	}

	o := Orientation{xTo: xTo, yTo: yTo, zTo: zTo}
	for in, t := range to {
		out := absInt(t) - 1
		o.from[out] = in
		o.sign[out] = sgn(t)
	}

	// Parity: each swapped axis pair and each sign flip mirrors the cube.
	// 0 moved axes -> 0 swaps, 2 moved -> 1 swap, 3 moved -> 2 swaps.
	moved := 0
	for in, t := range to {
		if absInt(t) != in+1 {
			moved++
		}
	}
	swaps := map[int]int{0: 0, 2: 1, 3: 2}[moved]
	flips := 0
	for _, t := range to {
		if t < 0 {
			flips++
		}
	}
	mirrored := (swaps+flips)%2 == 1

	return o, mirrored, nil
}

func mustOrientation(xTo, yTo, zTo int) Orientation {
	o, err := NewOrientation(xTo, yTo, zTo)
	if err != nil {
		panic(err)
	}
	return o
}

// enumerateProper generates every proper rotation exactly once: all 3!
// permutations with all 2³ sign choices (48 candidates), keeping the 24
// whose swap+flip parity is even.
func enumerateProper() []Orientation {
	perms := [][3]int{
		{1, 2, 3}, {1, 3, 2}, {2, 1, 3}, {2, 3, 1}, {3, 1, 2}, {3, 2, 1},
	}
	signs := [2]int{1, -1}

	var all []Orientation
	for _, p := range perms {
		for _, sx := range signs {
			for _, sy := range signs {
				for _, sz := range signs {
					o, mirrored, err := newSignedPermutation(p[0]*sx, p[1]*sy, p[2]*sz)
					if err != nil {
						panic(err)
					}
					if !mirrored {
						all = append(all, o)
					}
				}
			}
		}
	}
	if len(all) != 24 {
		panic(fmt.Sprintf("expected 24 proper rotations, got %d", len(all)))
	}
	return all
}

// Orientations returns all 24 proper rotations. The returned slice is a
// fresh copy; enumeration order carries no meaning.
func Orientations() []Orientation {
	out := make([]Orientation, len(orientations))
	copy(out, orientations)
	return out
}

// Identity returns the neutral orientation.
func Identity() Orientation {
	return identity
}

// IsIdentity reports whether o is the neutral orientation.
func (o Orientation) IsIdentity() bool {
	return o == identity
}

// Apply rotates v. Pure O(1) function.
func (o Orientation) Apply(v Vector3) Vector3 {
	c := [3]int{v.X, v.Y, v.Z}
	return Vector3{
		X: c[o.from[0]] * o.sign[0],
		Y: c[o.from[1]] * o.sign[1],
		Z: c[o.from[2]] * o.sign[2],
	}
}

// Compose returns the orientation equivalent to applying other first and
// then o. The 24-element set is closed under composition.
func (o Orientation) Compose(other Orientation) Orientation {
	route := func(to int) int {
		var next int
		switch absInt(to) {
		case 1:
			next = o.xTo
		case 2:
			next = o.yTo
		case 3:
			next = o.zTo
		}
		if to < 0 {
			next = -next
		}
		return next
	}
	return mustOrientation(route(other.xTo), route(other.yTo), route(other.zTo))
}

// Inverse returns the orientation that undoes o.
func (o Orientation) Inverse() Orientation {
	var to [3]int
	for in, t := range [3]int{o.xTo, o.yTo, o.zTo} {
		to[absInt(t)-1] = sgn(t) * (in + 1)
	}
	return mustOrientation(to[0], to[1], to[2])
}

// String renders the mapping in the "x->y, y->z, z->-x" notation used by
// scanner mount descriptions in config files.
func (o Orientation) String() string {
	return fmt.Sprintf("x->%s, y->%s, z->%s",
		axisString(o.xTo), axisString(o.yTo), axisString(o.zTo))
}

// ParseOrientation parses the String notation back into an Orientation.
func ParseOrientation(s string) (Orientation, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return Orientation{}, fmt.Errorf("invalid orientation %q: want three axis mappings", s)
	}

	var to [3]int
	for i, want := range []string{"x", "y", "z"} {
		part := strings.TrimSpace(parts[i])
		prefix := want + "->"
		if !strings.HasPrefix(part, prefix) {
			return Orientation{}, fmt.Errorf("invalid orientation %q: segment %q must start with %q", s, part, prefix)
		}
		axis, err := parseAxis(strings.TrimPrefix(part, prefix))
		if err != nil {
			return Orientation{}, fmt.Errorf("invalid orientation %q: %w", s, err)
		}
		to[i] = axis
	}

	return NewOrientation(to[0], to[1], to[2])
}

func axisString(n int) string {
	names := [3]string{"x", "y", "z"}
	s := names[absInt(n)-1]
	if n < 0 {
		return "-" + s
	}
	return s
}

func parseAxis(s string) (int, error) {
	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}
	var axis int
	switch s {
	case "x":
		axis = 1
	case "y":
		axis = 2
	case "z":
		axis = 3
	default:
		return 0, fmt.Errorf("unknown axis %q", s)
	}
	if neg {
		axis = -axis
	}
	return axis, nil
}

func sgn(n int) int {
	if n < 0 {
		return -1
	}
	return 1
}
