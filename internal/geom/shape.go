package geom

import "math"

// AABB is an axis aligned bounding box.
type AABB struct {
	Min, Max Vec3
}

// BoxAround returns the box of the given half extents centred on c.
func BoxAround(c, half Vec3) AABB {
	return AABB{Min: c.Sub(half), Max: c.Add(half)}
}

// FromPoints returns the smallest box containing every point.
func FromPoints(pts ...Vec3) AABB {
	if len(pts) == 0 {
		return AABB{}
	}
	b := AABB{Min: pts[0], Max: pts[0]}
	for _, p := range pts[1:] {
		b.Min = Vec3{math.Min(b.Min.X, p.X), math.Min(b.Min.Y, p.Y), math.Min(b.Min.Z, p.Z)}
		b.Max = Vec3{math.Max(b.Max.X, p.X), math.Max(b.Max.Y, p.Y), math.Max(b.Max.Z, p.Z)}
	}
	return b
}

func (b AABB) Contains(p Vec3) bool {
	return p.X >= b.Min.X && p.X <= b.Max.X &&
		p.Y >= b.Min.Y && p.Y <= b.Max.Y &&
		p.Z >= b.Min.Z && p.Z <= b.Max.Z
}

func (b AABB) Center() Vec3 { return Lerp(b.Min, b.Max, 0.5) }

func (b AABB) HalfExtents() Vec3 { return b.Max.Sub(b.Min).Scale(0.5) }

// Intersects reports whether two boxes overlap.
func (b AABB) Intersects(o AABB) bool {
	return b.Min.X <= o.Max.X && b.Max.X >= o.Min.X &&
		b.Min.Y <= o.Max.Y && b.Max.Y >= o.Min.Y &&
		b.Min.Z <= o.Max.Z && b.Max.Z >= o.Min.Z
}

// ClosestPoint returns the point of b nearest to p.
func (b AABB) ClosestPoint(p Vec3) Vec3 {
	return Vec3{
		math.Max(b.Min.X, math.Min(p.X, b.Max.X)),
		math.Max(b.Min.Y, math.Min(p.Y, b.Max.Y)),
		math.Max(b.Min.Z, math.Min(p.Z, b.Max.Z)),
	}
}

// Ray is a half line. Dir is not required to be normalized; hits are
// reported in units of |Dir|, so a ray built from two points covers
// exactly the segment between them for t in [0, 1].
type Ray struct {
	Origin Vec3
	Dir    Vec3
}

// RayFromTwoPoints returns the segment ray from a to b, or ok=false when a == b.
func RayFromTwoPoints(a, b Vec3) (Ray, bool) {
	d := b.Sub(a)
	if d.LenSq() <= 1e-12 {
		return Ray{}, false
	}
	return Ray{Origin: a, Dir: d}, true
}

func (r Ray) At(t float64) Vec3 { return r.Origin.Add(r.Dir.Scale(t)) }

// IntersectSphere returns the smallest non-negative t at which r enters the sphere.
func (r Ray) IntersectSphere(center Vec3, radius float64) (float64, bool) {
	oc := r.Origin.Sub(center)
	a := r.Dir.Dot(r.Dir)
	if a == 0 {
		return 0, false
	}
	b := 2 * oc.Dot(r.Dir)
	c := oc.Dot(oc) - radius*radius
	disc := b*b - 4*a*c
	if disc < 0 {
		return 0, false
	}
	sq := math.Sqrt(disc)
	t0 := (-b - sq) / (2 * a)
	t1 := (-b + sq) / (2 * a)
	if t0 >= 0 {
		return t0, true
	}
	if t1 >= 0 {
		// Origin inside the sphere.
		return 0, true
	}
	return 0, false
}

// IntersectAABB is the slab test. It returns the entry t and the face normal.
func (r Ray) IntersectAABB(b AABB) (float64, Vec3, bool) {
	tmin, tmax := math.Inf(-1), math.Inf(1)
	var normal Vec3
	axes := [3]struct{ o, d, lo, hi float64 }{
		{r.Origin.X, r.Dir.X, b.Min.X, b.Max.X},
		{r.Origin.Y, r.Dir.Y, b.Min.Y, b.Max.Y},
		{r.Origin.Z, r.Dir.Z, b.Min.Z, b.Max.Z},
	}
	for i, ax := range axes {
		if math.Abs(ax.d) < 1e-12 {
			if ax.o < ax.lo || ax.o > ax.hi {
				return 0, Vec3{}, false
			}
			continue
		}
		t1 := (ax.lo - ax.o) / ax.d
		t2 := (ax.hi - ax.o) / ax.d
		sign := -1.0
		if t1 > t2 {
			t1, t2 = t2, t1
			sign = 1.0
		}
		if t1 > tmin {
			tmin = t1
			normal = Vec3{}
			switch i {
			case 0:
				normal.X = sign
			case 1:
				normal.Y = sign
			case 2:
				normal.Z = sign
			}
		}
		tmax = math.Min(tmax, t2)
		if tmin > tmax {
			return 0, Vec3{}, false
		}
	}
	if tmax < 0 {
		return 0, Vec3{}, false
	}
	if tmin < 0 {
		return 0, normal, true
	}
	return tmin, normal, true
}
