package reference

import (
	"time"

	"github.com/Faultbox/vertexnormals/pkg/normals"
)

// BenchResult holds total wall time for repeated runs of both implementations.
type BenchResult struct {
	Attempts  int
	Kernel    time.Duration
	Reference time.Duration
}

// SpeedUp returns how many times faster the kernel ran than the reference.
func (r BenchResult) SpeedUp() float64 {
	if r.Kernel <= 0 {
		return 0
	}
	return float64(r.Reference) / float64(r.Kernel)
}

// PerCall returns the mean kernel time per call.
func (r BenchResult) PerCall() time.Duration {
	if r.Attempts <= 0 {
		return 0
	}
	return r.Kernel / time.Duration(r.Attempts)
}

// Bench runs each implementation attempts times over the mesh. With warmup set
// each implementation runs once off the clock first.
func Bench(m *normals.Mesh, attempts int, warmup bool) (BenchResult, error) {
	res := BenchResult{Attempts: attempts}
	out := make([]float32, len(m.Positions))

	if warmup {
		if err := normals.Compute(m.Positions, m.Indices, out); err != nil {
			return res, err
		}
	}
	start := time.Now()
	for i := 0; i < attempts; i++ {
		if err := normals.Compute(m.Positions, m.Indices, out); err != nil {
			return res, err
		}
	}
	res.Kernel = time.Since(start)

	if warmup {
		if _, err := Compute(m.Positions, m.Indices); err != nil {
			return res, err
		}
	}
	start = time.Now()
	for i := 0; i < attempts; i++ {
		if _, err := Compute(m.Positions, m.Indices); err != nil {
			return res, err
		}
	}
	res.Reference = time.Since(start)

	return res, nil
}
