// Package meshgen builds procedural test meshes.
//
// Facets are wound so that normals.Compute yields up-facing (grids) or
// outward-facing (sphere) normals.
package meshgen

import (
	"errors"
	"fmt"

	"github.com/aquilax/go-perlin"
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/vertexnormals/pkg/normals"
)

// ErrUnknownKind is returned by Generate for an unsupported mesh kind.
var ErrUnknownKind = errors.New("unknown mesh kind")

// Kinds lists the names accepted by Generate.
var Kinds = []string{"plane", "terrain", "sphere", "degenerate"}

// Params controls Generate.
type Params struct {
	Resolution int     // grid cells per side, or sphere latitude bands
	Size       float32 // grid extent, or sphere radius
	Amplitude  float32 // terrain height scale
	Seed       int64   // terrain noise seed
}

// Generate builds a mesh by kind name.
func Generate(kind string, p Params) (*normals.Mesh, error) {
	if p.Resolution < 1 {
		return nil, fmt.Errorf("resolution must be at least 1, got %d", p.Resolution)
	}
	switch kind {
	case "plane":
		return Plane(p.Resolution, p.Resolution, p.Size), nil
	case "terrain":
		return Terrain(p.Resolution, p.Resolution, p.Size, p.Amplitude, p.Seed), nil
	case "sphere":
		rings := max(p.Resolution, 2)
		return Sphere(rings, 2*rings, p.Size), nil
	case "degenerate":
		return Degenerate(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}

// Plane returns a flat nx by nz grid of quads in the XZ plane centered on the origin.
func Plane(nx, nz int, size float32) *normals.Mesh {
	return heightGrid(nx, nz, size, func(x, z float32) float32 { return 0 })
}

// Terrain returns a grid like Plane with perlin noise heights scaled by amplitude.
func Terrain(nx, nz int, size, amplitude float32, seed int64) *normals.Mesh {
	noise := perlin.NewPerlin(2, 2, 3, seed)
	const frequency = 4
	return heightGrid(nx, nz, size, func(x, z float32) float32 {
		h := noise.Noise2D(float64(x/size*frequency)+0.5, float64(z/size*frequency)+0.5)
		return amplitude * float32(h)
	})
}

// heightGrid builds (nx+1)*(nz+1) vertices, two facets per cell.
func heightGrid(nx, nz int, size float32, height func(x, z float32) float32) *normals.Mesh {
	nx, nz = max(nx, 1), max(nz, 1)
	cols := nx + 1
	m := &normals.Mesh{
		Positions: make([]float32, 0, 3*cols*(nz+1)),
		Indices:   make([]uint32, 0, 6*nx*nz),
	}

	step := size / float32(max(nx, nz))
	originX := -step * float32(nx) / 2
	originZ := -step * float32(nz) / 2
	for j := 0; j <= nz; j++ {
		for i := 0; i <= nx; i++ {
			x := originX + step*float32(i)
			z := originZ + step*float32(j)
			m.Positions = append(m.Positions, x, height(x, z), z)
		}
	}

	for j := 0; j < nz; j++ {
		for i := 0; i < nx; i++ {
			a := uint32(j*cols + i)
			b := a + 1
			c := a + uint32(cols)
			d := c + 1
			m.Indices = append(m.Indices, a, b, c, b, d, c)
		}
	}
	return m
}

// Sphere returns a UV sphere with single pole vertices and no seam duplicates.
// rings is the number of latitude bands (>= 2), segments the number of
// longitude steps (>= 3).
func Sphere(rings, segments int, radius float32) *normals.Mesh {
	rings, segments = max(rings, 2), max(segments, 3)
	m := &normals.Mesh{
		Positions: make([]float32, 0, 3*(2+(rings-1)*segments)),
		Indices:   make([]uint32, 0, 6*segments*(rings-1)),
	}
	add := func(v mgl32.Vec3) {
		v = v.Mul(radius)
		m.Positions = append(m.Positions, v[0], v[1], v[2])
	}

	add(mgl32.Vec3{0, 1, 0})
	for k := 1; k < rings; k++ {
		theta := math32.Pi * float32(k) / float32(rings)
		st, ct := math32.Sincos(theta)
		for s := 0; s < segments; s++ {
			phi := 2 * math32.Pi * float32(s) / float32(segments)
			sp, cp := math32.Sincos(phi)
			add(mgl32.Vec3{st * cp, ct, st * sp})
		}
	}
	add(mgl32.Vec3{0, -1, 0})

	north := uint32(0)
	south := uint32(1 + (rings-1)*segments)
	ring := func(k, s int) uint32 {
		return uint32(1 + (k-1)*segments + s%segments)
	}

	for s := 0; s < segments; s++ {
		m.Indices = append(m.Indices, north, ring(1, s), ring(1, s+1))
	}
	for k := 1; k < rings-1; k++ {
		for s := 0; s < segments; s++ {
			a, b := ring(k, s), ring(k, s+1)
			c, d := ring(k+1, s), ring(k+1, s+1)
			m.Indices = append(m.Indices, a, c, b, b, c, d)
		}
	}
	for s := 0; s < segments; s++ {
		m.Indices = append(m.Indices, ring(rings-1, s), south, ring(rings-1, s+1))
	}
	return m
}

// Degenerate returns a small mesh exercising the zero-length policies:
// vertices 0-2 form a regular facet, 3-5 a collinear facet, and 6 is unused.
func Degenerate() *normals.Mesh {
	return &normals.Mesh{
		Positions: []float32{
			0, 0, 0,
			1, 0, 0,
			0, 0, 1,
			2, 2, 2,
			3, 3, 3,
			4, 4, 4,
			9, 9, 9,
		},
		Indices: []uint32{
			0, 1, 2,
			3, 4, 5,
		},
	}
}
