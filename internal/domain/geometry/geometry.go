// Package geometry holds the pure 2D measurements used by posture rules.
//
// All functions are total over finite inputs: none of them divides, so a
// degenerate configuration yields a defined value instead of NaN.
package geometry

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/okian/posturai/internal/domain/model"
)

const (
	radToDeg    = 180.0 / math.Pi
	halfTurn    = 180.0
	fullTurnDeg = 360.0
)

// Point is a 2D position in normalized frame units, y growing downward.
type Point = r2.Vec

// FromLandmark projects a landmark onto the image plane.
func FromLandmark(l model.Landmark) Point {
	return Point{X: l.X, Y: l.Y}
}

// heading returns the direction of v in radians.
func heading(v Point) float64 {
	return math.Atan2(v.Y, v.X)
}

// AngleAt returns the unsigned interior angle at vertex b formed by the rays
// b→a and b→c, in degrees within [0,180].
func AngleAt(a, b, c Point) float64 {
	diff := heading(r2.Sub(c, b)) - heading(r2.Sub(a, b))
	angle := math.Abs(diff * radToDeg)
	if angle > halfTurn {
		angle = fullTurnDeg - angle
	}
	return angle
}

// Midpoint returns the componentwise average of p and q.
func Midpoint(p, q Point) Point {
	return r2.Scale(0.5, r2.Add(p, q))
}

// SignedTilt returns atan2(p.y−q.y, p.x−q.x) in degrees. The sign tells on
// which side of q the point p lies.
func SignedTilt(p, q Point) float64 {
	return heading(r2.Sub(p, q)) * radToDeg
}

// HorizontalOffset returns p.x − q.x.
func HorizontalOffset(p, q Point) float64 {
	return p.X - q.X
}

// VerticalOffset returns p.y − q.y. Positive means p is below q.
func VerticalOffset(p, q Point) float64 {
	return p.Y - q.Y
}

// Finite reports whether every value is a finite number.
func Finite(vals ...float64) bool {
	for _, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
