// Package geom provides the 2-D convex polygon tests used for vehicle
// footprint overlap checks.
package geom

import "math"

// Vec is a point or direction in the X-Y ground plane.
type Vec struct {
	X, Y float64
}

// Sub returns v - u.
func (v Vec) Sub(u Vec) Vec { return Vec{v.X - u.X, v.Y - u.Y} }

// Dot returns the scalar product of v and u.
func (v Vec) Dot(u Vec) float64 { return v.X*u.X + v.Y*u.Y }

// Norm returns the Euclidean length of v.
func (v Vec) Norm() float64 { return math.Hypot(v.X, v.Y) }

// Polygon is a convex polygon with vertices in sequence around the hull.
type Polygon []Vec

// RectFootprint returns the four corners of an oriented rectangle centred at
// (cx, cy) with the given yaw (radians), half-length along the heading and
// half-width perpendicular to it. The margin inflates both extents, which is
// how a proximity threshold is applied around an actor's bounding box.
func RectFootprint(cx, cy, yaw, halfLength, halfWidth, margin float64) Polygon {
	hl := halfLength + margin
	hw := halfWidth + margin
	cos := math.Cos(yaw)
	sin := math.Sin(yaw)

	// Heading axis (cos, sin); perpendicular axis (-sin, cos).
	return Polygon{
		{cx + hl*cos - hw*sin, cy + hl*sin + hw*cos},
		{cx + hl*cos + hw*sin, cy + hl*sin - hw*cos},
		{cx - hl*cos + hw*sin, cy - hl*sin - hw*cos},
		{cx - hl*cos - hw*sin, cy - hl*sin + hw*cos},
	}
}

// Overlap reports whether two convex polygons touch or intersect, using the
// separating axis theorem: project both polygons onto the normal of every
// edge; if any projection pair is disjoint the polygons cannot touch.
func Overlap(a, b Polygon) bool {
	if len(a) == 0 || len(b) == 0 {
		return false
	}
	return !hasSeparatingAxis(a, b) && !hasSeparatingAxis(b, a)
}

// hasSeparatingAxis checks the edge normals of poly for an axis on which the
// projections of poly and other do not overlap.
func hasSeparatingAxis(poly, other Polygon) bool {
	n := len(poly)
	for i := 0; i < n; i++ {
		edge := poly[(i+1)%n].Sub(poly[i])
		axis := Vec{edge.Y, -edge.X}

		minA, maxA := project(poly, axis)
		minB, maxB := project(other, axis)
		if maxA < minB || maxB < minA {
			return true
		}
	}
	return false
}

// project returns the interval covered by the polygon's vertices along axis.
func project(poly Polygon, axis Vec) (min, max float64) {
	min = math.MaxFloat64
	max = -math.MaxFloat64
	for _, p := range poly {
		d := p.Dot(axis)
		if d < min {
			min = d
		}
		if d > max {
			max = d
		}
	}
	return min, max
}
