package reference

import (
	"errors"
	"math"
	"testing"

	"github.com/Faultbox/vertexnormals/internal/meshgen"
	"github.com/Faultbox/vertexnormals/pkg/normals"
)

func TestComputeMatchesKernel(t *testing.T) {
	meshes := map[string]*normals.Mesh{
		"plane":      meshgen.Plane(8, 8, 4),
		"terrain":    meshgen.Terrain(32, 32, 100, 15, 9),
		"sphere":     meshgen.Sphere(12, 24, 3),
		"degenerate": meshgen.Degenerate(),
	}

	for name, m := range meshes {
		t.Run(name, func(t *testing.T) {
			r, err := Check(m, 1e-4)
			if err != nil {
				t.Fatalf("Check failed: %v", err)
			}
			if !r.OK() {
				t.Errorf("kernel disagrees with reference: %v", r)
			}
			if r.Total != len(m.Positions) {
				t.Errorf("expected %d compared values, got %d", len(m.Positions), r.Total)
			}
		})
	}
}

func TestComputeSingleTriangle(t *testing.T) {
	got, err := Compute([]float32{0, 0, 0, 1, 0, 0, 0, 1, 0}, []uint32{0, 1, 2})
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}
	want := []float32{0, 0, -1, 0, 0, -1, 0, 0, -1}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("value %d: expected %v, got %v", i, want[i], got[i])
		}
	}
}

func TestComputeErrors(t *testing.T) {
	if _, err := Compute([]float32{0, 0, 0}, []uint32{0, 0, 1}); !errors.Is(err, normals.ErrIndexOutOfRange) {
		t.Errorf("expected ErrIndexOutOfRange, got %v", err)
	}
	if _, err := Compute([]float32{0, 0}, nil); !errors.Is(err, normals.ErrSizeMismatch) {
		t.Errorf("expected ErrSizeMismatch, got %v", err)
	}
}

func TestCompare(t *testing.T) {
	tests := []struct {
		name        string
		got, want   []float32
		failed      int
		firstFailed int
	}{
		{"equal", []float32{1, 2, 3}, []float32{1, 2, 3}, 0, -1},
		{"within tolerance", []float32{1, 2, 3}, []float32{1.00005, 2, 3}, 0, -1},
		{"one off", []float32{1, 2, 3}, []float32{1, 2.5, 3}, 1, 1},
		{"two off", []float32{0, 2, 3}, []float32{1, 2, 4}, 2, 0},
		{"nan", []float32{float32(math.NaN()), 0}, []float32{0, 0}, 1, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := Compare(tt.got, tt.want, 1e-4)
			if err != nil {
				t.Fatalf("Compare failed: %v", err)
			}
			if r.Failed != tt.failed {
				t.Errorf("expected %d failures, got %d", tt.failed, r.Failed)
			}
			if r.FirstFailed != tt.firstFailed {
				t.Errorf("expected first failure at %d, got %d", tt.firstFailed, r.FirstFailed)
			}
			if r.OK() != (tt.failed == 0) {
				t.Errorf("OK() = %v with %d failures", r.OK(), r.Failed)
			}
		})
	}
}

func TestCompareMaxDiff(t *testing.T) {
	r, err := Compare([]float32{0, 0.5, 0}, []float32{0.25, 0, 0}, 1)
	if err != nil {
		t.Fatalf("Compare failed: %v", err)
	}
	if r.MaxDiff != 0.5 {
		t.Errorf("expected max diff 0.5, got %v", r.MaxDiff)
	}
	if !r.OK() {
		t.Errorf("expected OK with tolerance 1, got %v", r)
	}
}

func TestCompareLengthMismatch(t *testing.T) {
	if _, err := Compare([]float32{1}, []float32{1, 2}, 1e-4); !errors.Is(err, ErrLengthMismatch) {
		t.Errorf("expected ErrLengthMismatch, got %v", err)
	}
}

func TestBench(t *testing.T) {
	m := meshgen.Plane(16, 16, 1)

	res, err := Bench(m, 5, true)
	if err != nil {
		t.Fatalf("Bench failed: %v", err)
	}
	if res.Attempts != 5 {
		t.Errorf("expected 5 attempts, got %d", res.Attempts)
	}
	if res.Kernel <= 0 || res.Reference <= 0 {
		t.Errorf("expected positive timings, got %v and %v", res.Kernel, res.Reference)
	}
	if res.SpeedUp() <= 0 {
		t.Errorf("expected positive speed up, got %v", res.SpeedUp())
	}
	if res.PerCall() > res.Kernel {
		t.Errorf("per call time %v exceeds total %v", res.PerCall(), res.Kernel)
	}
}

func TestBenchInvalidMesh(t *testing.T) {
	m := &normals.Mesh{Positions: []float32{0, 0, 0}, Indices: []uint32{0, 0, 4}}
	if _, err := Bench(m, 3, false); !errors.Is(err, normals.ErrIndexOutOfRange) {
		t.Errorf("expected ErrIndexOutOfRange, got %v", err)
	}
}

func TestBenchResultZero(t *testing.T) {
	var r BenchResult
	if r.SpeedUp() != 0 || r.PerCall() != 0 {
		t.Errorf("expected zero values for empty result, got %v %v", r.SpeedUp(), r.PerCall())
	}
}
