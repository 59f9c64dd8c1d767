// Package normals computes smooth per-vertex normals for indexed triangle meshes.
//
// Buffers are flat: positions and normals hold one (x, y, z) triple per vertex,
// indices hold one (i, j, k) triple per triangular facet.
package normals

import (
	"errors"
	"fmt"

	"github.com/chewxy/math32"
)

// Buffer errors.
var (
	ErrSizeMismatch    = errors.New("buffer size mismatch")
	ErrIndexOutOfRange = errors.New("vertex index out of range")
)

// SizeError reports a buffer whose length breaks the size contract.
type SizeError struct {
	Buffer string // "positions", "indices" or "normals"
	Len    int
	Want   int // required length, or -1 when the length only has to be a multiple of 3
}

func (e *SizeError) Error() string {
	if e.Want < 0 {
		return fmt.Sprintf("%v: %s length %d is not a multiple of 3", ErrSizeMismatch, e.Buffer, e.Len)
	}
	return fmt.Sprintf("%v: %s length %d, want %d", ErrSizeMismatch, e.Buffer, e.Len, e.Want)
}

// Unwrap returns ErrSizeMismatch.
func (e *SizeError) Unwrap() error {
	return ErrSizeMismatch
}

// IndexError reports a facet that references a vertex past the end of the position buffer.
type IndexError struct {
	Facet       int    // facet number
	Corner      int    // 0, 1 or 2
	Index       uint32 // offending vertex id
	VertexCount int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("%v: facet %d corner %d references vertex %d of %d",
		ErrIndexOutOfRange, e.Facet, e.Corner, e.Index, e.VertexCount)
}

// Unwrap returns ErrIndexOutOfRange.
func (e *IndexError) Unwrap() error {
	return ErrIndexOutOfRange
}

// Validate checks the buffer size contract and every index against the vertex count.
// It returns a *SizeError or *IndexError, nil if Compute would succeed.
func Validate(positions []float32, indices []uint32, normals []float32) error {
	if err := validateInput(positions, indices); err != nil {
		return err
	}
	if len(normals) != len(positions) {
		return &SizeError{Buffer: "normals", Len: len(normals), Want: len(positions)}
	}
	return nil
}

func validateInput(positions []float32, indices []uint32) error {
	if len(positions)%3 != 0 {
		return &SizeError{Buffer: "positions", Len: len(positions), Want: -1}
	}
	if len(indices)%3 != 0 {
		return &SizeError{Buffer: "indices", Len: len(indices), Want: -1}
	}
	vertexCount := uint64(len(positions) / 3)
	for i, idx := range indices {
		if uint64(idx) >= vertexCount {
			return &IndexError{Facet: i / 3, Corner: i % 3, Index: idx, VertexCount: int(vertexCount)}
		}
	}
	return nil
}

// Compute overwrites normals with the normalized sum of the unit face normals
// adjacent to each vertex. Every facet contributes with equal weight.
//
// The face normal of facet (p1, p2, p3) is (p1-p2) × (p3-p2). Facets with zero
// area contribute nothing and vertices touched by no facet end up as (0, 0, 0).
//
// Buffers are validated before normals is touched: on error normals keeps its
// previous contents.
func Compute(positions []float32, indices []uint32, normals []float32) error {
	if err := Validate(positions, indices, normals); err != nil {
		return err
	}

	clear(normals)

	facets := len(indices) / 3
	for f := 0; f < facets; f++ {
		v1 := int(indices[3*f]) * 3
		v2 := int(indices[3*f+1]) * 3
		v3 := int(indices[3*f+2]) * 3

		nx, ny, nz := faceNormal(positions, v1, v2, v3)

		normals[v1] += nx
		normals[v1+1] += ny
		normals[v1+2] += nz
		normals[v2] += nx
		normals[v2+1] += ny
		normals[v2+2] += nz
		normals[v3] += nx
		normals[v3+1] += ny
		normals[v3+2] += nz
	}

	for v := 0; v < len(normals); v += 3 {
		x, y, z := normals[v], normals[v+1], normals[v+2]
		length := math32.Sqrt(float32(x*x) + float32(y*y) + float32(z*z))
		if length == 0 {
			length = 1
		}
		normals[v] = x / length
		normals[v+1] = y / length
		normals[v+2] = z / length
	}
	return nil
}

// FaceNormal returns the unit normal of facet f, or (0, 0, 0) for a degenerate facet.
// It panics if f or its vertex ids are out of range; use Validate first.
func FaceNormal(positions []float32, indices []uint32, f int) (x, y, z float32) {
	return faceNormal(positions, int(indices[3*f])*3, int(indices[3*f+1])*3, int(indices[3*f+2])*3)
}

// faceNormal takes the offsets of the three corners in positions.
// The float32 conversions keep each product rounded on its own so no
// fused multiply-add changes the result between architectures.
func faceNormal(positions []float32, v1, v2, v3 int) (x, y, z float32) {
	e1x := positions[v1] - positions[v2]
	e1y := positions[v1+1] - positions[v2+1]
	e1z := positions[v1+2] - positions[v2+2]

	e2x := positions[v3] - positions[v2]
	e2y := positions[v3+1] - positions[v2+1]
	e2z := positions[v3+2] - positions[v2+2]

	x = float32(e1y*e2z) - float32(e1z*e2y)
	y = float32(e1z*e2x) - float32(e1x*e2z)
	z = float32(e1x*e2y) - float32(e1y*e2x)

	length := math32.Sqrt(float32(x*x) + float32(y*y) + float32(z*z))
	if length == 0 {
		length = 1
	}
	return x / length, y / length, z / length
}
