package normals

import (
	"github.com/soypat/geometry/ms3"
)

// Mesh is an indexed triangle mesh with flat buffers.
type Mesh struct {
	Positions []float32 `json:"positions"`         // [x0,y0,z0, x1,y1,z1, ...]
	Indices   []uint32  `json:"indices"`           // [i0,i1,i2, ...] one triple per facet
	Normals   []float32 `json:"normals,omitempty"` // same layout as Positions
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Positions) / 3
}

// FacetCount returns the number of triangular facets.
func (m *Mesh) FacetCount() int {
	return len(m.Indices) / 3
}

// HasNormals reports whether Normals holds one triple per vertex.
func (m *Mesh) HasNormals() bool {
	return len(m.Normals) > 0 && len(m.Normals) == len(m.Positions)
}

// Vertex returns the position of vertex v.
func (m *Mesh) Vertex(v int) ms3.Vec {
	return ms3.Vec{X: m.Positions[3*v], Y: m.Positions[3*v+1], Z: m.Positions[3*v+2]}
}

// Normal returns the normal of vertex v. Call after ComputeNormals.
func (m *Mesh) Normal(v int) ms3.Vec {
	return ms3.Vec{X: m.Normals[3*v], Y: m.Normals[3*v+1], Z: m.Normals[3*v+2]}
}

// ComputeNormals (re)computes Normals, reusing its storage when large enough.
// On error Normals is left as it was.
func (m *Mesh) ComputeNormals() error {
	if err := validateInput(m.Positions, m.Indices); err != nil {
		return err
	}
	n := len(m.Positions)
	if cap(m.Normals) >= n {
		m.Normals = m.Normals[:n]
	} else {
		m.Normals = make([]float32, n)
	}
	return Compute(m.Positions, m.Indices, m.Normals)
}

// Bounds returns the axis aligned bounding box of the vertex positions.
// An empty mesh returns zero vectors.
func (m *Mesh) Bounds() (min, max ms3.Vec) {
	if m.VertexCount() == 0 {
		return ms3.Vec{}, ms3.Vec{}
	}
	min = m.Vertex(0)
	max = min
	for v := 1; v < m.VertexCount(); v++ {
		p := m.Vertex(v)
		if p.X < min.X {
			min.X = p.X
		}
		if p.Y < min.Y {
			min.Y = p.Y
		}
		if p.Z < min.Z {
			min.Z = p.Z
		}
		if p.X > max.X {
			max.X = p.X
		}
		if p.Y > max.Y {
			max.Y = p.Y
		}
		if p.Z > max.Z {
			max.Z = p.Z
		}
	}
	return min, max
}

// Triangles expands the mesh into a triangle soup.
func (m *Mesh) Triangles() []ms3.Triangle {
	tris := make([]ms3.Triangle, m.FacetCount())
	for f := range tris {
		tris[f] = ms3.Triangle{
			m.Vertex(int(m.Indices[3*f])),
			m.Vertex(int(m.Indices[3*f+1])),
			m.Vertex(int(m.Indices[3*f+2])),
		}
	}
	return tris
}
