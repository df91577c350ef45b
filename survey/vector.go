package survey

import "fmt"

// Vector3 is an integer 3D coordinate. All scanner geometry is exact integer
// arithmetic, so Vector3 is comparable and usable as a map key.
type Vector3 struct {
	X int `json:"x"`
	Y int `json:"y"`
	Z int `json:"z"`
}

// Add returns the componentwise sum v + w.
func (v Vector3) Add(w Vector3) Vector3 {
	return Vector3{v.X + w.X, v.Y + w.Y, v.Z + w.Z}
}

// Sub returns the componentwise difference v - w.
func (v Vector3) Sub(w Vector3) Vector3 {
	return Vector3{v.X - w.X, v.Y - w.Y, v.Z - w.Z}
}

// Neg returns the componentwise negation of v.
func (v Vector3) Neg() Vector3 {
	return Vector3{-v.X, -v.Y, -v.Z}
}

// Manhattan returns the L1 distance between v and w.
func (v Vector3) Manhattan(w Vector3) int {
	return absInt(v.X-w.X) + absInt(v.Y-w.Y) + absInt(v.Z-w.Z)
}

// Chebyshev returns the L∞ distance between v and w. A scanner's detection
// volume is a Chebyshev ball in its own axes.
func (v Vector3) Chebyshev(w Vector3) int {
	return maxInt(absInt(v.X-w.X), maxInt(absInt(v.Y-w.Y), absInt(v.Z-w.Z)))
}

// Less reports whether v orders before w lexicographically by (X, Y, Z).
// The pairwise-offset index relies on this ordering so that the same
// physical pair produces the same offset in differently-rotated readings.
func (v Vector3) Less(w Vector3) bool {
	if v.X != w.X {
		return v.X < w.X
	}
	if v.Y != w.Y {
		return v.Y < w.Y
	}
	return v.Z < w.Z
}

// String formats v as "x,y,z", matching the report line format.
func (v Vector3) String() string {
	return fmt.Sprintf("%d,%d,%d", v.X, v.Y, v.Z)
}

func absInt(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
