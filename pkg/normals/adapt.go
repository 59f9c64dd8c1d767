package normals

import (
	"unsafe"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/soypat/geometry/ms3"
)

// ComputeVec3 is Compute for positions and normals held as mgl32 vectors.
// The vectors are viewed in place, nothing is copied.
func ComputeVec3(positions []mgl32.Vec3, indices []uint32, normals []mgl32.Vec3) error {
	return Compute(flatVec3(positions), indices, flatVec3(normals))
}

// ComputeMS3 is Compute for positions and normals held as ms3 vectors.
// ms3.Vec carries a padding word, so the coordinates are gathered into flat
// buffers and the result is scattered back. normals is only written on success.
func ComputeMS3(positions []ms3.Vec, indices []uint32, normals []ms3.Vec) error {
	flat := make([]float32, 3*len(positions))
	for i, p := range positions {
		flat[3*i], flat[3*i+1], flat[3*i+2] = p.X, p.Y, p.Z
	}
	out := make([]float32, 3*len(normals))
	if err := Compute(flat, indices, out); err != nil {
		return err
	}
	for i := range normals {
		normals[i] = ms3.Vec{X: out[3*i], Y: out[3*i+1], Z: out[3*i+2]}
	}
	return nil
}

func flatVec3(v []mgl32.Vec3) []float32 {
	if len(v) == 0 {
		return nil
	}
	return unsafe.Slice(&v[0][0], 3*len(v))
}

// WeldTriangles builds an indexed mesh from a triangle soup, merging corners
// with bit-identical positions into one vertex. Vertex order follows first use.
func WeldTriangles(tris []ms3.Triangle) *Mesh {
	m := &Mesh{
		Positions: make([]float32, 0, 3*len(tris)),
		Indices:   make([]uint32, 0, 3*len(tris)),
	}
	seen := make(map[[3]uint32]uint32, len(tris))
	for _, tri := range tris {
		for _, p := range tri {
			key := [3]uint32{
				math32.Float32bits(p.X),
				math32.Float32bits(p.Y),
				math32.Float32bits(p.Z),
			}
			id, ok := seen[key]
			if !ok {
				id = uint32(len(m.Positions) / 3)
				seen[key] = id
				m.Positions = append(m.Positions, p.X, p.Y, p.Z)
			}
			m.Indices = append(m.Indices, id)
		}
	}
	return m
}
