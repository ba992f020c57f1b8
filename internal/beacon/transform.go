package beacon

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"uwb-nav-bridge/internal/models"
)

// nwuToNED converts north-west-up into north-east-down: a half turn about
// the forward (X) axis.
var nwuToNED = r3.NewRotation(math.Pi, r3.Vec{X: 1})

// NavPosition converts a beacon-frame position into the navigation (NED)
// frame. The beacon's frame is NWU rotated about the vertical axis by the
// yaw offset carried in each ranging message, so the conversion first
// undoes that yaw, then applies the fixed NWU-to-NED rotation. The order
// matters; the two rotations do not commute for general positions.
func NavPosition(x, y, z, yawOffsetDeg float32) models.Position {
	yawUndo := r3.NewRotation(-float64(yawOffsetDeg)*math.Pi/180, r3.Vec{Z: 1})

	v := yawUndo.Rotate(r3.Vec{X: float64(x), Y: float64(y), Z: float64(z)})
	v = nwuToNED.Rotate(v)

	return models.Position{
		X: float32(v.X),
		Y: float32(v.Y),
		Z: float32(v.Z),
	}
}
