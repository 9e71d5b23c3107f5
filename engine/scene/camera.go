package scene

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Camera is a free-flying first person camera. Velocity is expressed in
// camera space and rotated into the world on update, so holding "left"
// always strafes regardless of where the camera points.
type Camera struct {
	Position mgl32.Vec3
	Velocity mgl32.Vec3

	Pitch float32
	Yaw   float32

	Speed float32
}

func NewCamera() *Camera {
	return &Camera{
		Speed: 5.0,
	}
}

// RotationMatrix combines yaw around the world up axis with pitch
// around the camera's right axis.
func (c *Camera) RotationMatrix() mgl32.Mat4 {
	pitchRotation := mgl32.QuatRotate(c.Pitch, mgl32.Vec3{1, 0, 0})
	yawRotation := mgl32.QuatRotate(c.Yaw, mgl32.Vec3{0, -1, 0})
	return yawRotation.Mat4().Mul4(pitchRotation.Mat4())
}

// ViewMatrix is the inverse of the camera's world transform.
func (c *Camera) ViewMatrix() mgl32.Mat4 {
	translation := mgl32.Translate3D(c.Position.X(), c.Position.Y(), c.Position.Z())
	world := translation.Mul4(c.RotationMatrix())
	return world.Inv()
}

// Update advances the position along the rotated velocity.
func (c *Camera) Update(deltaTime float32) {
	rotation := c.RotationMatrix()
	v := rotation.Mul4x1(mgl32.Vec4{c.Velocity.X(), c.Velocity.Y(), c.Velocity.Z(), 0})
	c.Position = c.Position.Add(mgl32.Vec3{v.X(), v.Y(), v.Z()}.Mul(c.Speed * deltaTime))
}

// ProcessMouseDelta applies a relative mouse movement, clamping pitch
// short of straight up and down.
func (c *Camera) ProcessMouseDelta(dx, dy float32) {
	c.Yaw += dx / 200.0
	c.Pitch -= dy / 200.0

	const limit = 1.55
	if c.Pitch > limit {
		c.Pitch = limit
	}
	if c.Pitch < -limit {
		c.Pitch = -limit
	}
}
