package geom

import "math"

// Vec3 is a float64 3D vector. Y is up.
type Vec3 struct {
	X, Y, Z float64
}

var (
	Zero = Vec3{}
	Up   = Vec3{0, 1, 0}
	// Forward is the look direction of an unrotated node.
	Forward = Vec3{0, 0, 1}
)

func V(x, y, z float64) Vec3 { return Vec3{x, y, z} }

func (a Vec3) Add(b Vec3) Vec3 { return Vec3{a.X + b.X, a.Y + b.Y, a.Z + b.Z} }
func (a Vec3) Sub(b Vec3) Vec3 { return Vec3{a.X - b.X, a.Y - b.Y, a.Z - b.Z} }

func (a Vec3) Scale(s float64) Vec3 { return Vec3{a.X * s, a.Y * s, a.Z * s} }

func (a Vec3) Dot(b Vec3) float64 { return a.X*b.X + a.Y*b.Y + a.Z*b.Z }

func (a Vec3) Cross(b Vec3) Vec3 {
	return Vec3{
		a.Y*b.Z - a.Z*b.Y,
		a.Z*b.X - a.X*b.Z,
		a.X*b.Y - a.Y*b.X,
	}
}

func (a Vec3) LenSq() float64 { return a.Dot(a) }
func (a Vec3) Len() float64   { return math.Sqrt(a.LenSq()) }

func (a Vec3) Dist(b Vec3) float64 { return a.Sub(b).Len() }

// Normalize returns the unit vector of a, or ok=false when a is (nearly) zero.
func (a Vec3) Normalize() (Vec3, bool) {
	l := a.Len()
	if l <= 1e-9 {
		return Vec3{}, false
	}
	return a.Scale(1 / l), true
}

// NormalizeOr returns the unit vector of a, or fallback when a has no direction.
func (a Vec3) NormalizeOr(fallback Vec3) Vec3 {
	if n, ok := a.Normalize(); ok {
		return n
	}
	return fallback
}

// Follow moves a toward dest by fraction k of the remaining distance.
// Applied once per tick this gives an exponential approach.
func (a Vec3) Follow(dest Vec3, k float64) Vec3 {
	return a.Add(dest.Sub(a).Scale(k))
}

func (a Vec3) IsZero() bool { return a == Vec3{} }

// Lerp interpolates between a and b.
func Lerp(a, b Vec3, t float64) Vec3 {
	return a.Add(b.Sub(a).Scale(t))
}
