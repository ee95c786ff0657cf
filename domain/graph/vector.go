package graph

import (
	"math"

	pkgerrors "coursegraph/pkg/errors"
)

// Vec3 is a point or direction in the renderer's 3D scene
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Origin is the scene origin the default camera looks at
var Origin = Vec3{}

// NewVec3 creates a vector with validation
func NewVec3(x, y, z float64) (Vec3, error) {
	if !isFinite(x) || !isFinite(y) || !isFinite(z) {
		return Vec3{}, pkgerrors.NewValidationError("invalid coordinates: must be finite numbers")
	}
	return Vec3{X: x, Y: y, Z: z}, nil
}

// Length returns the Euclidean distance from the origin
func (v Vec3) Length() float64 {
	return math.Hypot(math.Hypot(v.X, v.Y), v.Z)
}

// Scale multiplies every component by f
func (v Vec3) Scale(f float64) Vec3 {
	return Vec3{X: v.X * f, Y: v.Y * f, Z: v.Z * f}
}

// Add returns the component-wise sum
func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{X: v.X + o.X, Y: v.Y + o.Y, Z: v.Z + o.Z}
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
