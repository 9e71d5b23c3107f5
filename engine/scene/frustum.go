package scene

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Plane is Normal·p + D = 0 with the normal pointing into the visible
// half-space.
type Plane struct {
	Normal mgl32.Vec3
	D      float32
}

// ExtractFrustumPlanes pulls the six clip planes out of a projection
// matrix (Gribb-Hartmann). Because only the projection goes in, the
// planes live in view space; objects must be tested in view space too.
func ExtractFrustumPlanes(proj mgl32.Mat4) [6]Plane {
	row := func(i int) mgl32.Vec4 {
		return mgl32.Vec4{proj.At(i, 0), proj.At(i, 1), proj.At(i, 2), proj.At(i, 3)}
	}
	r0, r1, r2, r3 := row(0), row(1), row(2), row(3)

	raw := [6]mgl32.Vec4{
		r3.Add(r0), // left
		r3.Sub(r0), // right
		r3.Add(r1), // bottom
		r3.Sub(r1), // top
		r3.Add(r2), // near
		r3.Sub(r2), // far
	}

	var planes [6]Plane
	for i, p := range raw {
		n := mgl32.Vec3{p.X(), p.Y(), p.Z()}
		length := n.Len()
		if length > 0 {
			n = n.Mul(1.0 / length)
			planes[i] = Plane{Normal: n, D: p.W() / length}
		}
	}
	return planes
}

// InFrustum tests a render object's bounds against the view frustum.
// The object-space box is carried into view space conservatively: the
// center goes through view*model, the half-extents through the absolute
// values of the upper 3x3, which keeps the box axis-aligned and never
// smaller than the true footprint. Objects only tangent to a plane are
// rejected.
func InFrustum(planes *[6]Plane, view mgl32.Mat4, obj *RenderObject) bool {
	m := view.Mul4(obj.Transform)

	origin := obj.Bounds.Origin
	center4 := m.Mul4x1(mgl32.Vec4{origin.X(), origin.Y(), origin.Z(), 1})
	center := mgl32.Vec3{center4.X(), center4.Y(), center4.Z()}

	extents := obj.Bounds.Extents
	var absExtents mgl32.Vec3
	for i := 0; i < 3; i++ {
		absExtents[i] = math32.Abs(m.At(i, 0))*extents.X() +
			math32.Abs(m.At(i, 1))*extents.Y() +
			math32.Abs(m.At(i, 2))*extents.Z()
	}

	for _, p := range planes {
		dist := p.Normal.Dot(center) + p.D
		radius := math32.Abs(p.Normal.X())*absExtents.X() +
			math32.Abs(p.Normal.Y())*absExtents.Y() +
			math32.Abs(p.Normal.Z())*absExtents.Z()
		if dist+radius <= 0 {
			return false
		}
	}
	return true
}

// Frustum caches extracted planes keyed by the projection matrix, so
// the extraction only reruns when the projection actually changes
// (resize, FOV change).
type Frustum struct {
	planes [6]Plane
	proj   mgl32.Mat4
	valid  bool
}

func (f *Frustum) Planes(proj mgl32.Mat4) *[6]Plane {
	if !f.valid || proj != f.proj {
		f.planes = ExtractFrustumPlanes(proj)
		f.proj = proj
		f.valid = true
	}
	return &f.planes
}
