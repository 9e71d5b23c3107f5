package scene

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func TestCameraMovesAlongVelocity(t *testing.T) {
	c := NewCamera()
	c.Speed = 2
	c.Velocity = mgl32.Vec3{0, 0, -1}

	c.Update(0.5)

	assert.InDelta(t, 0, c.Position.X(), 1e-5)
	assert.InDelta(t, 0, c.Position.Y(), 1e-5)
	assert.InDelta(t, -1, c.Position.Z(), 1e-5)
}

func TestCameraVelocityFollowsYaw(t *testing.T) {
	c := NewCamera()
	c.Speed = 1
	c.Yaw = math32.Pi / 2
	c.Velocity = mgl32.Vec3{0, 0, -1}

	c.Update(1)

	// Turned a quarter to the side, "forward" moves along X.
	assert.InDelta(t, 1, math32.Abs(c.Position.X()), 1e-4)
	assert.InDelta(t, 0, c.Position.Z(), 1e-4)
}

func TestCameraPitchClamped(t *testing.T) {
	c := NewCamera()
	c.ProcessMouseDelta(0, -10000)
	assert.LessOrEqual(t, c.Pitch, float32(1.55))

	c.ProcessMouseDelta(0, 10000)
	assert.GreaterOrEqual(t, c.Pitch, float32(-1.55))
}

func TestCameraViewMatrixInvertsWorld(t *testing.T) {
	c := NewCamera()
	c.Position = mgl32.Vec3{3, 4, 5}

	view := c.ViewMatrix()
	origin := view.Mul4x1(mgl32.Vec4{3, 4, 5, 1})

	assert.InDelta(t, 0, origin.X(), 1e-5)
	assert.InDelta(t, 0, origin.Y(), 1e-5)
	assert.InDelta(t, 0, origin.Z(), 1e-5)
}
