package earcut

import (
	"math"
	"testing"
)

func TestTriangulate(t *testing.T) {
	tests := []struct {
		name      string
		data      []float64
		holes     []int
		triangles int
	}{
		{"triangle", []float64{0, 0, 10, 0, 0, 10}, nil, 1},
		{"square", []float64{0, 0, 10, 0, 10, 10, 0, 10}, nil, 2},
		{"square reversed", []float64{0, 10, 10, 10, 10, 0, 0, 0}, nil, 2},
		{"concave L", []float64{0, 0, 20, 0, 20, 10, 10, 10, 10, 20, 0, 20}, nil, 4},
		{"star", []float64{50, 0, 61, 35, 98, 35, 68, 57, 79, 91, 50, 70, 21, 91, 32, 57, 2, 35, 39, 35}, nil, 8},
		{
			"square with hole",
			[]float64{0, 0, 30, 0, 30, 30, 0, 30, 10, 10, 10, 20, 20, 20, 20, 10},
			[]int{4},
			8,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tris := Triangulate(tt.data, tt.holes, 2)
			if got := len(tris) / 3; got != tt.triangles {
				t.Errorf("got %d triangles, want %d", got, tt.triangles)
			}
			if d := Deviation(tt.data, tt.holes, 2, tris); d > 1e-9 {
				t.Errorf("Deviation = %v, want 0", d)
			}
			n := len(tt.data) / 2
			for _, i := range tris {
				if i < 0 || i >= n {
					t.Fatalf("index %d out of range [0,%d)", i, n)
				}
			}
		})
	}
}

func TestTriangulateDegenerate(t *testing.T) {
	tests := []struct {
		name string
		data []float64
	}{
		{"empty", nil},
		{"single point", []float64{1, 1}},
		{"two points", []float64{0, 0, 5, 5}},
		{"collinear", []float64{0, 0, 1, 0, 2, 0}},
		{"duplicates", []float64{3, 3, 3, 3, 3, 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tris := Triangulate(tt.data, nil, 2); len(tris) != 0 {
				t.Errorf("Triangulate = %v, want no triangles", tris)
			}
		})
	}
}

func TestTriangulateStride(t *testing.T) {
	// x, y, and an ignored third coordinate.
	data := []float64{0, 0, 9, 10, 0, 9, 10, 10, 9, 0, 10, 9}
	tris := Triangulate(data, nil, 3)
	if len(tris) != 6 {
		t.Fatalf("got %d indices, want 6", len(tris))
	}
	if d := Deviation(data, nil, 3, tris); d > 1e-9 {
		t.Errorf("Deviation = %v, want 0", d)
	}
}

func BenchmarkTriangulateCircle(b *testing.B) {
	data := make([]float64, 0, 200)
	for i := 0; i < 100; i++ {
		a := 2 * math.Pi * float64(i) / 100
		data = append(data, 100*math.Cos(a), 100*math.Sin(a))
	}
	b.ReportAllocs()
	for b.Loop() {
		Triangulate(data, nil, 2)
	}
}
