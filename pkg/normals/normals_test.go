package normals

import (
	"errors"
	"math"
	"testing"
)

func vecLen(n []float32, v int) float64 {
	x, y, z := float64(n[3*v]), float64(n[3*v+1]), float64(n[3*v+2])
	return math.Sqrt(x*x + y*y + z*z)
}

func approx(a, b, tol float32) bool {
	d := a - b
	return d <= tol && d >= -tol
}

func TestComputeSingleTriangle(t *testing.T) {
	positions := []float32{
		0, 0, 0,
		1, 0, 0,
		0, 1, 0,
	}
	indices := []uint32{0, 1, 2}
	normals := make([]float32, len(positions))

	if err := Compute(positions, indices, normals); err != nil {
		t.Fatalf("Compute failed: %v", err)
	}

	// (p1-p2) x (p3-p2) = (-1,0,0) x (-1,1,0) = (0,0,-1)
	for v := 0; v < 3; v++ {
		got := [3]float32{normals[3*v], normals[3*v+1], normals[3*v+2]}
		want := [3]float32{0, 0, -1}
		if got != want {
			t.Errorf("vertex %d: expected %v, got %v", v, want, got)
		}
	}
}

func TestComputeReversedWinding(t *testing.T) {
	positions := []float32{
		0, 0, 0,
		1, 0, 0,
		0, 1, 0,
	}
	normals := make([]float32, len(positions))

	if err := Compute(positions, []uint32{0, 2, 1}, normals); err != nil {
		t.Fatalf("Compute failed: %v", err)
	}
	if normals[2] != 1 || normals[5] != 1 || normals[8] != 1 {
		t.Errorf("expected +Z normals for reversed winding, got %v", normals)
	}
}

func TestComputeUnitLength(t *testing.T) {
	// Tetrahedron, every vertex shared by three facets.
	positions := []float32{
		0, 0, 0,
		2, 0, 0,
		0, 3, 0,
		0, 0, 5,
	}
	indices := []uint32{
		0, 1, 2,
		0, 3, 1,
		0, 2, 3,
		1, 3, 2,
	}
	normals := make([]float32, len(positions))

	if err := Compute(positions, indices, normals); err != nil {
		t.Fatalf("Compute failed: %v", err)
	}
	for v := 0; v < 4; v++ {
		if l := vecLen(normals, v); math.Abs(l-1) > 1e-5 {
			t.Errorf("vertex %d: expected unit length, got %v", v, l)
		}
	}
}

func TestComputeUntouchedVertexIsZero(t *testing.T) {
	positions := []float32{
		0, 0, 0,
		1, 0, 0,
		0, 1, 0,
		5, 5, 5, // referenced by no facet
	}
	normals := []float32{9, 9, 9, 9, 9, 9, 9, 9, 9, 9, 9, 9}

	if err := Compute(positions, []uint32{0, 1, 2}, normals); err != nil {
		t.Fatalf("Compute failed: %v", err)
	}
	if normals[9] != 0 || normals[10] != 0 || normals[11] != 0 {
		t.Errorf("expected zero normal for isolated vertex, got %v", normals[9:])
	}
}

func TestComputeIdempotentWithGarbage(t *testing.T) {
	positions := []float32{
		0, 0, 0,
		1, 0, 0,
		1, 1, 0.5,
		0, 1, 0,
	}
	indices := []uint32{0, 1, 2, 0, 2, 3}

	first := make([]float32, len(positions))
	if err := Compute(positions, indices, first); err != nil {
		t.Fatalf("Compute failed: %v", err)
	}

	second := make([]float32, len(positions))
	for i := range second {
		second[i] = float32(math.NaN())
	}
	if err := Compute(positions, indices, second); err != nil {
		t.Fatalf("Compute failed: %v", err)
	}

	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("value %d differs: %v vs %v", i, first[i], second[i])
		}
	}
}

func TestComputeSharedVertexAveraging(t *testing.T) {
	// Two nearly coplanar facets sharing the edge 0-2, wound to face +Y.
	positions := []float32{
		0, 0, 0,
		1, 0, 0,
		1, 0.01, 1,
		0, 0, 1,
	}
	indices := []uint32{
		0, 1, 2,
		0, 2, 3,
	}
	normals := make([]float32, len(positions))

	if err := Compute(positions, indices, normals); err != nil {
		t.Fatalf("Compute failed: %v", err)
	}

	f0x, f0y, f0z := FaceNormal(positions, indices, 0)
	f1x, f1y, f1z := FaceNormal(positions, indices, 1)
	if f0y < 0.99 || f1y < 0.99 {
		t.Fatalf("expected facets facing +Y, got (%v,%v,%v) and (%v,%v,%v)", f0x, f0y, f0z, f1x, f1y, f1z)
	}

	// Shared vertices carry the normalized mean of both facets.
	sx, sy, sz := f0x+f1x, f0y+f1y, f0z+f1z
	l := float32(math.Sqrt(float64(sx*sx + sy*sy + sz*sz)))
	for _, v := range []int{0, 2} {
		if !approx(normals[3*v], sx/l, 1e-6) || !approx(normals[3*v+1], sy/l, 1e-6) || !approx(normals[3*v+2], sz/l, 1e-6) {
			t.Errorf("vertex %d: expected (%v,%v,%v), got %v", v, sx/l, sy/l, sz/l, normals[3*v:3*v+3])
		}
	}
	// Unshared vertices carry their own facet normal.
	if !approx(normals[3], f0x, 1e-6) || !approx(normals[4], f0y, 1e-6) || !approx(normals[5], f0z, 1e-6) {
		t.Errorf("vertex 1: expected facet 0 normal, got %v", normals[3:6])
	}
	if !approx(normals[9], f1x, 1e-6) || !approx(normals[10], f1y, 1e-6) || !approx(normals[11], f1z, 1e-6) {
		t.Errorf("vertex 3: expected facet 1 normal, got %v", normals[9:12])
	}
}

func TestComputeDegenerateFacet(t *testing.T) {
	positions := []float32{
		0, 0, 0,
		1, 1, 1,
		2, 2, 2,
	}
	normals := []float32{1, 2, 3, 4, 5, 6, 7, 8, 9}

	if err := Compute(positions, []uint32{0, 1, 2}, normals); err != nil {
		t.Fatalf("expected no error for degenerate facet, got %v", err)
	}
	for i, n := range normals {
		if n != 0 {
			t.Errorf("normals[%d]: expected 0, got %v", i, n)
		}
		if math.IsNaN(float64(n)) {
			t.Errorf("normals[%d] is NaN", i)
		}
	}
}

func TestComputeOppositeFacetsCancel(t *testing.T) {
	// Same triangle listed with both windings: contributions sum to zero.
	positions := []float32{
		0, 0, 0,
		1, 0, 0,
		0, 1, 0,
	}
	normals := make([]float32, len(positions))

	if err := Compute(positions, []uint32{0, 1, 2, 0, 2, 1}, normals); err != nil {
		t.Fatalf("Compute failed: %v", err)
	}
	for i, n := range normals {
		if n != 0 {
			t.Errorf("normals[%d]: expected 0, got %v", i, n)
		}
	}
}

func TestComputeEmpty(t *testing.T) {
	if err := Compute(nil, nil, nil); err != nil {
		t.Errorf("expected nil error for empty buffers, got %v", err)
	}

	normals := []float32{3, 3, 3}
	if err := Compute([]float32{1, 2, 3}, nil, normals); err != nil {
		t.Fatalf("Compute failed: %v", err)
	}
	if normals[0] != 0 || normals[1] != 0 || normals[2] != 0 {
		t.Errorf("expected zero normal without facets, got %v", normals)
	}
}

func TestComputeIndexOutOfRange(t *testing.T) {
	positions := []float32{
		0, 0, 0,
		1, 0, 0,
		0, 1, 0,
	}
	normals := []float32{1, 2, 3, 4, 5, 6, 7, 8, 9}
	before := append([]float32(nil), normals...)

	err := Compute(positions, []uint32{0, 1, 2, 2, 1, 3}, normals)
	if !errors.Is(err, ErrIndexOutOfRange) {
		t.Fatalf("expected ErrIndexOutOfRange, got %v", err)
	}

	var idxErr *IndexError
	if !errors.As(err, &idxErr) {
		t.Fatalf("expected *IndexError, got %T", err)
	}
	if idxErr.Facet != 1 || idxErr.Corner != 2 || idxErr.Index != 3 || idxErr.VertexCount != 3 {
		t.Errorf("unexpected error details: %+v", idxErr)
	}

	for i := range normals {
		if normals[i] != before[i] {
			t.Errorf("normals[%d] modified: %v -> %v", i, before[i], normals[i])
		}
	}
}

func TestComputeMaxIndex(t *testing.T) {
	positions := []float32{0, 0, 0, 1, 0, 0, 0, 1, 0}
	normals := make([]float32, len(positions))

	err := Compute(positions, []uint32{0, 1, math.MaxUint32}, normals)
	if !errors.Is(err, ErrIndexOutOfRange) {
		t.Fatalf("expected ErrIndexOutOfRange, got %v", err)
	}
}

func TestComputeSizeMismatch(t *testing.T) {
	tests := []struct {
		name      string
		positions []float32
		indices   []uint32
		normals   []float32
		buffer    string
	}{
		{
			name:      "positions not triples",
			positions: []float32{0, 0, 0, 1},
			normals:   []float32{0, 0, 0, 0},
			buffer:    "positions",
		},
		{
			name:      "indices not triples",
			positions: []float32{0, 0, 0, 1, 0, 0, 0, 1, 0},
			indices:   []uint32{0, 1},
			normals:   make([]float32, 9),
			buffer:    "indices",
		},
		{
			name:      "normals shorter",
			positions: []float32{0, 0, 0, 1, 0, 0, 0, 1, 0},
			indices:   []uint32{0, 1, 2},
			normals:   make([]float32, 6),
			buffer:    "normals",
		},
		{
			name:      "normals longer",
			positions: []float32{0, 0, 0, 1, 0, 0, 0, 1, 0},
			indices:   []uint32{0, 1, 2},
			normals:   make([]float32, 12),
			buffer:    "normals",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Compute(tt.positions, tt.indices, tt.normals)
			if !errors.Is(err, ErrSizeMismatch) {
				t.Fatalf("expected ErrSizeMismatch, got %v", err)
			}
			var sizeErr *SizeError
			if !errors.As(err, &sizeErr) {
				t.Fatalf("expected *SizeError, got %T", err)
			}
			if sizeErr.Buffer != tt.buffer {
				t.Errorf("expected buffer %q, got %q", tt.buffer, sizeErr.Buffer)
			}
			for i, n := range tt.normals {
				if n != 0 {
					t.Errorf("normals[%d] modified to %v", i, n)
				}
			}
		})
	}
}

func TestComputeDoesNotMutateInputs(t *testing.T) {
	positions := []float32{0, 0, 0, 1, 0, 0, 0, 1, 0, 1, 1, 0}
	indices := []uint32{0, 1, 2, 1, 3, 2}
	p := append([]float32(nil), positions...)
	idx := append([]uint32(nil), indices...)

	if err := Compute(positions, indices, make([]float32, len(positions))); err != nil {
		t.Fatalf("Compute failed: %v", err)
	}
	for i := range p {
		if p[i] != positions[i] {
			t.Fatalf("positions[%d] changed", i)
		}
	}
	for i := range idx {
		if idx[i] != indices[i] {
			t.Fatalf("indices[%d] changed", i)
		}
	}
}

func TestSizeErrorMessage(t *testing.T) {
	err := &SizeError{Buffer: "normals", Len: 6, Want: 9}
	want := "buffer size mismatch: normals length 6, want 9"
	if err.Error() != want {
		t.Errorf("expected %q, got %q", want, err.Error())
	}

	err = &SizeError{Buffer: "indices", Len: 4, Want: -1}
	want = "buffer size mismatch: indices length 4 is not a multiple of 3"
	if err.Error() != want {
		t.Errorf("expected %q, got %q", want, err.Error())
	}
}

func BenchmarkCompute(b *testing.B) {
	// 256x256 grid of quads.
	const n = 257
	positions := make([]float32, 0, 3*n*n)
	for z := 0; z < n; z++ {
		for x := 0; x < n; x++ {
			positions = append(positions, float32(x), float32((x*z)%7)*0.1, float32(z))
		}
	}
	var indices []uint32
	for z := 0; z < n-1; z++ {
		for x := 0; x < n-1; x++ {
			a := uint32(z*n + x)
			indices = append(indices, a, a+1, a+n, a+1, a+n+1, a+n)
		}
	}
	normals := make([]float32, len(positions))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := Compute(positions, indices, normals); err != nil {
			b.Fatal(err)
		}
	}
}
