// Package affine implements the 2D affine transform shared by every batch.
//
// A Transform holds six scalars (a, b, c, d, tx, ty) describing the matrix
//
//	| a  c  tx |
//	| b  d  ty |
//	| 0  0  1  |
//
// applied to column vectors:
//
//	x' = a*x + c*y + tx
//	y' = b*x + d*y + ty
//
// Mutating methods work in place and return the receiver so that a single
// scratch Transform can be reused for every primitive in a frame.
package affine

import (
	"fmt"
	"math"
)

// singularEpsilon is the determinant magnitude below which a transform is
// treated as non-invertible.
const singularEpsilon = 1e-12

// Transform is a 2D affine map stored as six float64 values.
type Transform struct {
	A, B, C, D float64
	TX, TY     float64
}

// Decomposition is the translate/scale/rotation split of a Transform.
type Decomposition struct {
	TranslateX, TranslateY float64
	ScaleX, ScaleY         float64
	Rotation               float64
}

// Identity returns the identity transform.
func Identity() Transform {
	return Transform{A: 1, D: 1}
}

// New returns a transform with the given components.
func New(a, b, c, d, tx, ty float64) Transform {
	return Transform{A: a, B: b, C: c, D: d, TX: tx, TY: ty}
}

// LoadIdentity resets m to the identity.
func (m *Transform) LoadIdentity() *Transform {
	*m = Transform{A: 1, D: 1}
	return m
}

// Set overwrites all six components.
func (m *Transform) Set(a, b, c, d, tx, ty float64) *Transform {
	m.A, m.B, m.C, m.D, m.TX, m.TY = a, b, c, d, tx, ty
	return m
}

// CopyFrom copies o into m.
func (m *Transform) CopyFrom(o Transform) *Transform {
	*m = o
	return m
}

// Translate post-multiplies m by a translation, so the offset is applied in
// m's local space.
func (m *Transform) Translate(x, y float64) *Transform {
	m.TX = m.A*x + m.C*y + m.TX
	m.TY = m.B*x + m.D*y + m.TY
	return m
}

// Scale post-multiplies m by a scale.
func (m *Transform) Scale(sx, sy float64) *Transform {
	m.A *= sx
	m.B *= sx
	m.C *= sy
	m.D *= sy
	return m
}

// Rotate post-multiplies m by a rotation of rad radians. With a y-down
// coordinate system positive angles turn clockwise on screen.
func (m *Transform) Rotate(rad float64) *Transform {
	sin, cos := math.Sincos(rad)
	a, b, c, d := m.A, m.B, m.C, m.D
	m.A = a*cos + c*sin
	m.B = b*cos + d*sin
	m.C = c*cos - a*sin
	m.D = d*cos - b*sin
	return m
}

// ApplyITRS rebuilds m as Identity, then Translate(x, y), then
// Rotate(rotation), then Scale(scaleX, scaleY): M = T * R * S.
func (m *Transform) ApplyITRS(x, y, rotation, scaleX, scaleY float64) *Transform {
	sin, cos := math.Sincos(rotation)
	m.A = cos * scaleX
	m.B = sin * scaleX
	m.C = -sin * scaleY
	m.D = cos * scaleY
	m.TX = x
	m.TY = y
	return m
}

// Multiply sets m = m * o. Points are transformed by o first, then by the
// previous m.
func (m *Transform) Multiply(o Transform) *Transform {
	a, b, c, d, tx, ty := m.A, m.B, m.C, m.D, m.TX, m.TY
	m.A = a*o.A + c*o.B
	m.B = b*o.A + d*o.B
	m.C = a*o.C + c*o.D
	m.D = b*o.C + d*o.D
	m.TX = a*o.TX + c*o.TY + tx
	m.TY = b*o.TX + d*o.TY + ty
	return m
}

// Compose sets m = o * m: the result first applies m, then o. Object
// transforms are composed with the camera this way:
//
//	world.ApplyITRS(x, y, rot, sx, sy).Compose(camera)
func (m *Transform) Compose(o Transform) *Transform {
	a, b, c, d, tx, ty := m.A, m.B, m.C, m.D, m.TX, m.TY
	m.A = o.A*a + o.C*b
	m.B = o.B*a + o.D*b
	m.C = o.A*c + o.C*d
	m.D = o.B*c + o.D*d
	m.TX = o.A*tx + o.C*ty + o.TX
	m.TY = o.B*tx + o.D*ty + o.TY
	return m
}

// Determinant returns a*d - b*c.
func (m Transform) Determinant() float64 {
	return m.A*m.D - m.B*m.C
}

// Invert replaces m with its inverse. It reports false and leaves m
// untouched when the transform is singular.
func (m *Transform) Invert() bool {
	det := m.Determinant()
	if math.Abs(det) < singularEpsilon {
		return false
	}
	inv := 1 / det
	a, b, c, d, tx, ty := m.A, m.B, m.C, m.D, m.TX, m.TY
	m.A = d * inv
	m.B = -b * inv
	m.C = -c * inv
	m.D = a * inv
	m.TX = (c*ty - d*tx) * inv
	m.TY = (b*tx - a*ty) * inv
	return true
}

// IsIdentity reports whether m is exactly the identity.
func (m Transform) IsIdentity() bool {
	return m.A == 1 && m.B == 0 && m.C == 0 && m.D == 1 && m.TX == 0 && m.TY == 0
}

// TransformPoint maps (x, y) through m.
func (m Transform) TransformPoint(x, y float64) (float64, float64) {
	return m.A*x + m.C*y + m.TX, m.B*x + m.D*y + m.TY
}

// TransformQuad maps the rectangle (x0, y0)-(x1, y1) through m and returns
// the corners in quad order: (x0,y0), (x0,y1), (x1,y1), (x1,y0).
func (m Transform) TransformQuad(x0, y0, x1, y1 float64) [8]float64 {
	return [8]float64{
		m.A*x0 + m.C*y0 + m.TX, m.B*x0 + m.D*y0 + m.TY,
		m.A*x0 + m.C*y1 + m.TX, m.B*x0 + m.D*y1 + m.TY,
		m.A*x1 + m.C*y1 + m.TX, m.B*x1 + m.D*y1 + m.TY,
		m.A*x1 + m.C*y0 + m.TX, m.B*x1 + m.D*y0 + m.TY,
	}
}

// Decompose splits m into translation, scale and rotation.
//
// Only transforms built from translate, rotate and scale round-trip. Skewed
// transforms, and non-uniform scales combined with rotation, produce an
// approximation; this is a limitation of the formula, not something callers
// should correct for.
func (m Transform) Decompose() Decomposition {
	sx := math.Sqrt(m.A*m.A + m.C*m.C)
	sy := math.Sqrt(m.B*m.B + m.D*m.D)
	var rot float64
	if sx != 0 {
		cosv := m.A / sx
		if cosv > 1 {
			cosv = 1
		} else if cosv < -1 {
			cosv = -1
		}
		rot = math.Acos(cosv)
		if math.Atan(-m.C/m.A) < 0 {
			rot = -rot
		}
	}
	return Decomposition{
		TranslateX: m.TX,
		TranslateY: m.TY,
		ScaleX:     sx,
		ScaleY:     sy,
		Rotation:   rot,
	}
}

// String returns the components in (a, b, c, d, tx, ty) order.
func (m Transform) String() string {
	return fmt.Sprintf("affine.Transform(%g, %g, %g, %g, %g, %g)", m.A, m.B, m.C, m.D, m.TX, m.TY)
}
