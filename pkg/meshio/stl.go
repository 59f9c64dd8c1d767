package meshio

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/chewxy/math32"
	"github.com/soypat/geometry/ms3"

	"github.com/Faultbox/vertexnormals/pkg/normals"
)

// STL format errors.
var (
	ErrTruncatedSTLData = errors.New("truncated STL data")
	ErrInvalidSTL       = errors.New("invalid STL data")
)

const (
	stlHeaderSize = 80
	stlFacetSize  = 50 // normal, three vertices, attribute byte count
)

// ParseSTL parses binary or ASCII STL data into an indexed mesh. Corners with
// identical coordinates are welded into one vertex. Stored facet normals are
// ignored.
//
// STL facets are counter-clockwise under the right-hand rule while
// normals.Compute takes (p1-p2) × (p3-p2), so the second and third corner of
// every facet are swapped on read and on write.
func ParseSTL(data []byte) (*normals.Mesh, error) {
	tris, err := parseSTLTriangles(data)
	if err != nil {
		return nil, err
	}
	for i := range tris {
		tris[i][1], tris[i][2] = tris[i][2], tris[i][1]
	}
	return normals.WeldTriangles(tris), nil
}

func parseSTLTriangles(data []byte) ([]ms3.Triangle, error) {
	if len(data) >= stlHeaderSize+4 {
		count := binary.LittleEndian.Uint32(data[stlHeaderSize:])
		if uint64(len(data)) == stlHeaderSize+4+stlFacetSize*uint64(count) {
			return parseBinarySTL(data[stlHeaderSize+4:], int(count)), nil
		}
	}
	// Binary files may also start with "solid", so the size check comes first.
	if bytes.HasPrefix(bytes.TrimLeft(data, " \t\r\n"), []byte("solid")) {
		return parseASCIISTL(data)
	}
	if len(data) < stlHeaderSize+4 {
		return nil, fmt.Errorf("%w: %d bytes", ErrTruncatedSTLData, len(data))
	}
	return nil, fmt.Errorf("%w: size does not match facet count", ErrTruncatedSTLData)
}

func parseBinarySTL(b []byte, count int) []ms3.Triangle {
	tris := make([]ms3.Triangle, count)
	for i := range tris {
		facet := b[i*stlFacetSize:]
		for c := 0; c < 3; c++ {
			off := 12 + 12*c // skip the stored normal
			tris[i][c] = ms3.Vec{
				X: math32.Float32frombits(binary.LittleEndian.Uint32(facet[off:])),
				Y: math32.Float32frombits(binary.LittleEndian.Uint32(facet[off+4:])),
				Z: math32.Float32frombits(binary.LittleEndian.Uint32(facet[off+8:])),
			}
		}
	}
	return tris
}

func parseASCIISTL(data []byte) ([]ms3.Triangle, error) {
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Split(bufio.ScanWords)

	var tris []ms3.Triangle
	var tri ms3.Triangle
	corner := 0
	for sc.Scan() {
		if sc.Text() != "vertex" {
			continue
		}
		var xyz [3]float32
		for i := range xyz {
			if !sc.Scan() {
				return nil, fmt.Errorf("%w: vertex %d", ErrTruncatedSTLData, 3*len(tris)+corner)
			}
			f, err := strconv.ParseFloat(sc.Text(), 32)
			if err != nil {
				return nil, fmt.Errorf("%w: vertex %d: %v", ErrInvalidSTL, 3*len(tris)+corner, err)
			}
			xyz[i] = float32(f)
		}
		tri[corner] = ms3.Vec{X: xyz[0], Y: xyz[1], Z: xyz[2]}
		corner++
		if corner == 3 {
			tris = append(tris, tri)
			corner = 0
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if corner != 0 {
		return nil, fmt.Errorf("%w: facet %d has %d vertices", ErrInvalidSTL, len(tris), corner)
	}
	return tris, nil
}

// WriteSTL writes m as binary STL, each facet carrying its face normal.
func WriteSTL(w io.Writer, m *normals.Mesh) error {
	if err := normals.Validate(m.Positions, m.Indices, m.Positions); err != nil {
		return err
	}

	buf := make([]byte, stlHeaderSize, stlHeaderSize+4+stlFacetSize*m.FacetCount())
	copy(buf, "binary STL written by vertexnormals")
	buf = binary.LittleEndian.AppendUint32(buf, uint32(m.FacetCount()))

	for f, tri := range m.Triangles() {
		nx, ny, nz := normals.FaceNormal(m.Positions, m.Indices, f)
		buf = appendFloats(buf, []float32{nx, ny, nz})
		for _, p := range [3]ms3.Vec{tri[0], tri[2], tri[1]} {
			buf = appendFloats(buf, []float32{p.X, p.Y, p.Z})
		}
		buf = binary.LittleEndian.AppendUint16(buf, 0)
	}

	_, err := w.Write(buf)
	return err
}
