// Package reference checks the float32 normal kernel against an independent
// double precision implementation and measures how the two compare in speed.
package reference

import (
	"errors"
	"fmt"
	"math"

	"github.com/chewxy/math32"

	"github.com/Faultbox/vertexnormals/pkg/normals"
)

// ErrLengthMismatch is returned by Compare for buffers of different length.
var ErrLengthMismatch = errors.New("compared buffers differ in length")

// Compute returns vertex normals computed with float64 accumulation.
// It follows the same facet convention as normals.Compute: the face normal of
// (p1, p2, p3) is (p1-p2) × (p3-p2), zero lengths are left unscaled.
func Compute(positions []float32, indices []uint32) ([]float32, error) {
	out := make([]float32, len(positions))
	if err := normals.Validate(positions, indices, out); err != nil {
		return nil, err
	}

	acc := make([]float64, len(positions))
	p := func(i int) float64 { return float64(positions[i]) }

	for f := 0; f+2 < len(indices); f += 3 {
		a := int(indices[f]) * 3
		b := int(indices[f+1]) * 3
		c := int(indices[f+2]) * 3

		ux, uy, uz := p(a)-p(b), p(a+1)-p(b+1), p(a+2)-p(b+2)
		vx, vy, vz := p(c)-p(b), p(c+1)-p(b+1), p(c+2)-p(b+2)

		nx := uy*vz - uz*vy
		ny := uz*vx - ux*vz
		nz := ux*vy - uy*vx
		l := math.Sqrt(nx*nx + ny*ny + nz*nz)
		if l == 0 {
			l = 1
		}
		for _, v := range [3]int{a, b, c} {
			acc[v] += nx / l
			acc[v+1] += ny / l
			acc[v+2] += nz / l
		}
	}

	for v := 0; v < len(acc); v += 3 {
		l := math.Sqrt(acc[v]*acc[v] + acc[v+1]*acc[v+1] + acc[v+2]*acc[v+2])
		if l == 0 {
			l = 1
		}
		out[v] = float32(acc[v] / l)
		out[v+1] = float32(acc[v+1] / l)
		out[v+2] = float32(acc[v+2] / l)
	}
	return out, nil
}

// Report summarizes a component-wise comparison.
type Report struct {
	Total       int     // compared components
	Failed      int     // components with |got-want| > tolerance
	MaxDiff     float32 // largest absolute difference seen
	FirstFailed int     // index of the first failing component, -1 if none
}

// OK reports whether every component was within tolerance.
func (r Report) OK() bool {
	return r.Failed == 0
}

func (r Report) String() string {
	if r.OK() {
		return fmt.Sprintf("%d values within tolerance (max diff %g)", r.Total, r.MaxDiff)
	}
	return fmt.Sprintf("%d of %d values out of tolerance (max diff %g, first at %d)",
		r.Failed, r.Total, r.MaxDiff, r.FirstFailed)
}

// Compare counts the components of got that differ from want by more than tol.
// NaN never compares within tolerance.
func Compare(got, want []float32, tol float32) (Report, error) {
	if len(got) != len(want) {
		return Report{}, fmt.Errorf("%w: %d vs %d", ErrLengthMismatch, len(got), len(want))
	}
	r := Report{Total: len(got), FirstFailed: -1}
	for i := range got {
		d := math32.Abs(got[i] - want[i])
		if d > r.MaxDiff {
			r.MaxDiff = d
		}
		if d > tol || math32.IsNaN(d) {
			r.Failed++
			if r.FirstFailed < 0 {
				r.FirstFailed = i
			}
		}
	}
	return r, nil
}

// Check computes the mesh normals with both implementations and compares them.
// The mesh itself is not modified.
func Check(m *normals.Mesh, tol float32) (Report, error) {
	got := make([]float32, len(m.Positions))
	if err := normals.Compute(m.Positions, m.Indices, got); err != nil {
		return Report{}, err
	}
	want, err := Compute(m.Positions, m.Indices)
	if err != nil {
		return Report{}, err
	}
	return Compare(got, want, tol)
}
