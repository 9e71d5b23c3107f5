package scene

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func testObject(position mgl32.Vec3, extents mgl32.Vec3) RenderObject {
	return RenderObject{
		Bounds:    Bounds{Extents: extents},
		Transform: mgl32.Translate3D(position.X(), position.Y(), position.Z()),
	}
}

func TestFrustumKeepsObjectInFront(t *testing.T) {
	proj := mgl32.Perspective(mgl32.DegToRad(70), 16.0/9.0, 0.1, 100)
	planes := ExtractFrustumPlanes(proj)
	view := mgl32.Ident4()

	obj := testObject(mgl32.Vec3{0, 0, -10}, mgl32.Vec3{1, 1, 1})
	assert.True(t, InFrustum(&planes, view, &obj))
}

func TestFrustumCullsObjectBehindCamera(t *testing.T) {
	proj := mgl32.Perspective(mgl32.DegToRad(70), 16.0/9.0, 0.1, 100)
	planes := ExtractFrustumPlanes(proj)
	view := mgl32.Ident4()

	obj := testObject(mgl32.Vec3{0, 0, 10}, mgl32.Vec3{1, 1, 1})
	assert.False(t, InFrustum(&planes, view, &obj))
}

func TestFrustumCullsObjectFarToTheSide(t *testing.T) {
	proj := mgl32.Perspective(mgl32.DegToRad(70), 1, 0.1, 100)
	planes := ExtractFrustumPlanes(proj)
	view := mgl32.Ident4()

	obj := testObject(mgl32.Vec3{-100, 0, -10}, mgl32.Vec3{1, 1, 1})
	assert.False(t, InFrustum(&planes, view, &obj))
}

func TestFrustumCullsBeyondFarPlane(t *testing.T) {
	proj := mgl32.Perspective(mgl32.DegToRad(70), 1, 0.1, 100)
	planes := ExtractFrustumPlanes(proj)
	view := mgl32.Ident4()

	obj := testObject(mgl32.Vec3{0, 0, -500}, mgl32.Vec3{1, 1, 1})
	assert.False(t, InFrustum(&planes, view, &obj))
}

func TestFrustumRespectsViewMatrix(t *testing.T) {
	proj := mgl32.Perspective(mgl32.DegToRad(70), 1, 0.1, 100)
	planes := ExtractFrustumPlanes(proj)

	// The camera sits at z=50 looking down -Z, so an object at the
	// world origin is 50 units ahead and visible; one at z=60 is behind.
	view := mgl32.Translate3D(0, 0, -50)

	visible := testObject(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{1, 1, 1})
	assert.True(t, InFrustum(&planes, view, &visible))

	behind := testObject(mgl32.Vec3{0, 0, 60}, mgl32.Vec3{1, 1, 1})
	assert.False(t, InFrustum(&planes, view, &behind))
}

func TestFrustumGrowsWithScaledBounds(t *testing.T) {
	proj := mgl32.Perspective(mgl32.DegToRad(70), 1, 0.1, 100)
	planes := ExtractFrustumPlanes(proj)
	view := mgl32.Ident4()

	// Center far off to the left; only a huge scale reaches back into
	// the frustum.
	small := RenderObject{
		Bounds:    Bounds{Extents: mgl32.Vec3{1, 1, 1}},
		Transform: mgl32.Translate3D(-40, 0, -10),
	}
	assert.False(t, InFrustum(&planes, view, &small))

	big := RenderObject{
		Bounds:    Bounds{Extents: mgl32.Vec3{1, 1, 1}},
		Transform: mgl32.Translate3D(-40, 0, -10).Mul4(mgl32.Scale3D(50, 50, 50)),
	}
	assert.True(t, InFrustum(&planes, view, &big))
}

func TestFrustumExcludesTangentObject(t *testing.T) {
	// All planes comfortably satisfied except the first, against which
	// the box sits exactly tangent: signed distance -1 plus projected
	// radius 1 is zero, and the test treats touching as outside.
	var planes [6]Plane
	for i := range planes {
		planes[i] = Plane{Normal: mgl32.Vec3{1, 0, 0}, D: 1000}
	}
	planes[0] = Plane{Normal: mgl32.Vec3{1, 0, 0}, D: -1}
	view := mgl32.Ident4()

	tangent := testObject(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{1, 1, 1})
	assert.False(t, InFrustum(&planes, view, &tangent))

	// Nudged past the plane the same box is kept again.
	inside := testObject(mgl32.Vec3{0.5, 0, 0}, mgl32.Vec3{1, 1, 1})
	assert.True(t, InFrustum(&planes, view, &inside))
}

func TestFrustumCacheTracksProjection(t *testing.T) {
	var f Frustum
	projA := mgl32.Perspective(mgl32.DegToRad(70), 1, 0.1, 100)
	projB := mgl32.Perspective(mgl32.DegToRad(90), 2, 0.1, 200)

	planesA := f.Planes(projA)
	assert.Same(t, planesA, f.Planes(projA))

	first := *planesA
	f.Planes(projB)
	assert.NotEqual(t, first, f.planes)
}
