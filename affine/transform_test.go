package affine

import (
	"math"
	"testing"
)

const eps = 1e-9

func near(a, b float64) bool { return math.Abs(a-b) < eps }

func TestIdentityDecompose(t *testing.T) {
	var m Transform
	m.ApplyITRS(0, 0, 0, 1, 1)
	if !m.IsIdentity() {
		t.Fatalf("ApplyITRS(0,0,0,1,1) = %v, want identity", m)
	}
	d := m.Decompose()
	want := Decomposition{ScaleX: 1, ScaleY: 1}
	if d != want {
		t.Errorf("Decompose() = %+v, want %+v", d, want)
	}
}

func TestApplyITRSGoldenQuad(t *testing.T) {
	var m Transform
	m.ApplyITRS(100, 50, 0, 2, 2).Compose(Identity())

	corners := m.TransformQuad(0, 0, 10, 10)
	want := [8]float64{100, 50, 100, 70, 120, 70, 120, 50}
	for i := range corners {
		if !near(corners[i], want[i]) {
			t.Errorf("corner[%d] = %g, want %g", i, corners[i], want[i])
		}
	}
}

func TestApplyITRSMatchesManualProduct(t *testing.T) {
	x, y, rot, sx, sy := 30.0, -12.0, 0.7, 1.5, 0.25

	var got Transform
	got.ApplyITRS(x, y, rot, sx, sy)

	manual := Identity()
	manual.Translate(x, y).Rotate(rot).Scale(sx, sy)

	for _, c := range [][2]float64{{0, 0}, {0, 8}, {5, 8}, {5, 0}} {
		gx, gy := got.TransformPoint(c[0], c[1])
		mx, my := manual.TransformPoint(c[0], c[1])
		if !near(gx, mx) || !near(gy, my) {
			t.Errorf("point %v: ApplyITRS -> (%g,%g), manual T*R*S -> (%g,%g)", c, gx, gy, mx, my)
		}
	}
}

func TestComposeAppliesSelfThenOther(t *testing.T) {
	var obj Transform
	obj.ApplyITRS(10, 0, math.Pi/2, 1, 1)

	camera := Identity()
	camera.Translate(-5, 3).Scale(2, 2)

	m := obj
	m.Compose(camera)

	ox, oy := obj.TransformPoint(1, 0)
	wantX, wantY := camera.TransformPoint(ox, oy)
	gotX, gotY := m.TransformPoint(1, 0)
	if !near(gotX, wantX) || !near(gotY, wantY) {
		t.Errorf("Compose point = (%g,%g), want (%g,%g)", gotX, gotY, wantX, wantY)
	}
}

func TestMultiplyTranslationRule(t *testing.T) {
	m := New(2, 0, 0, 3, 7, 9)
	o := New(1, 0, 0, 1, 4, 5)
	m.Multiply(o)

	// translation = self.linear * other.translation + self.translation
	if !near(m.TX, 2*4+7) || !near(m.TY, 3*5+9) {
		t.Errorf("Multiply translation = (%g,%g), want (15,24)", m.TX, m.TY)
	}
}

func TestMultiplyAndComposeAreMirrored(t *testing.T) {
	a := New(1, 0.5, -0.25, 2, 3, 4)
	b := New(0.5, 0, 0, 0.5, -1, 6)

	m1 := a
	m1.Multiply(b)
	m2 := b
	m2.Compose(a)
	if m1 != m2 {
		t.Errorf("a.Multiply(b) = %v, b.Compose(a) = %v, want equal", m1, m2)
	}
}

func TestInvert(t *testing.T) {
	var m Transform
	m.ApplyITRS(12, -4, 0.3, 2, 0.5)
	inv := m
	if !inv.Invert() {
		t.Fatal("Invert() = false, want true")
	}
	x, y := m.TransformPoint(3, 7)
	bx, by := inv.TransformPoint(x, y)
	if !near(bx, 3) || !near(by, 7) {
		t.Errorf("round trip = (%g,%g), want (3,7)", bx, by)
	}

	singular := New(1, 2, 2, 4, 0, 0)
	before := singular
	if singular.Invert() {
		t.Error("Invert() of singular matrix = true, want false")
	}
	if singular != before {
		t.Errorf("singular matrix modified: %v", singular)
	}
}

func TestDecomposeRoundTrip(t *testing.T) {
	tests := []struct {
		name            string
		x, y, rot, s    float64
		wantRot, wantSc float64
	}{
		{"translate only", 5, 6, 0, 1, 0, 1},
		{"uniform scale", 0, 0, 0, 3, 0, 3},
		{"rotate positive", 1, 2, 0.5, 1, 0.5, 1},
		{"rotate negative", 1, 2, -0.5, 2, -0.5, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var m Transform
			m.ApplyITRS(tt.x, tt.y, tt.rot, tt.s, tt.s)
			d := m.Decompose()
			if !near(d.TranslateX, tt.x) || !near(d.TranslateY, tt.y) {
				t.Errorf("translate = (%g,%g), want (%g,%g)", d.TranslateX, d.TranslateY, tt.x, tt.y)
			}
			if !near(d.ScaleX, tt.wantSc) || !near(d.ScaleY, tt.wantSc) {
				t.Errorf("scale = (%g,%g), want %g", d.ScaleX, d.ScaleY, tt.wantSc)
			}
			if !near(d.Rotation, tt.wantRot) {
				t.Errorf("rotation = %g, want %g", d.Rotation, tt.wantRot)
			}
		})
	}
}

func TestDecomposeDegenerate(t *testing.T) {
	d := Transform{}.Decompose()
	if d.ScaleX != 0 || d.ScaleY != 0 || d.Rotation != 0 {
		t.Errorf("Decompose(zero) = %+v, want zero scale and rotation", d)
	}
}

func TestChainingReturnsReceiver(t *testing.T) {
	var m Transform
	p := m.LoadIdentity().Translate(1, 1).Scale(2, 2).Rotate(0)
	if p != &m {
		t.Error("mutators should return the receiver")
	}
}

func BenchmarkApplyITRSCompose(b *testing.B) {
	cam := Identity()
	cam.Translate(-10, -20)
	var m Transform
	for i := 0; i < b.N; i++ {
		m.ApplyITRS(float64(i), 5, 0.25, 2, 2).Compose(cam)
	}
}
