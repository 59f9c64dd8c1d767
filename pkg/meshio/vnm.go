package meshio

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/chewxy/math32"

	"github.com/Faultbox/vertexnormals/pkg/normals"
)

// VNM format errors.
var (
	ErrInvalidVNMMagic       = errors.New("invalid VNM magic: expected 'VNRM'")
	ErrUnsupportedVNMVersion = errors.New("unsupported VNM version")
	ErrTruncatedVNMData      = errors.New("truncated VNM data")
	ErrTrailingVNMData       = errors.New("trailing bytes after VNM payload")
)

// VNM layout, all values little-endian:
//
//	magic       [4]byte "VNRM"
//	version     uint16
//	flags       uint16
//	vertexCount uint32
//	indexCount  uint32
//	positions   [3*vertexCount]float32
//	indices     [indexCount]uint32
//	normals     [3*vertexCount]float32, present when flags&VNMHasNormals != 0
const (
	vnmMagic      = "VNRM"
	VNMVersion    = 1
	VNMHeaderSize = 16

	// VNMHasNormals marks a payload that carries a normal buffer.
	VNMHasNormals uint16 = 1 << 0
)

// VNMHeader is the fixed-size prefix of a VNM payload.
type VNMHeader struct {
	Version     uint16
	Flags       uint16
	VertexCount uint32
	IndexCount  uint32
}

// PayloadSize returns the total encoded size described by the header.
func (h VNMHeader) PayloadSize() uint64 {
	size := uint64(VNMHeaderSize) + 12*uint64(h.VertexCount) + 4*uint64(h.IndexCount)
	if h.Flags&VNMHasNormals != 0 {
		size += 12 * uint64(h.VertexCount)
	}
	return size
}

// ParseVNMHeader parses and checks the header of a VNM payload.
func ParseVNMHeader(data []byte) (VNMHeader, error) {
	if len(data) < VNMHeaderSize {
		return VNMHeader{}, fmt.Errorf("%w: %d byte header", ErrTruncatedVNMData, len(data))
	}
	if string(data[0:4]) != vnmMagic {
		return VNMHeader{}, ErrInvalidVNMMagic
	}
	h := VNMHeader{
		Version:     binary.LittleEndian.Uint16(data[4:6]),
		Flags:       binary.LittleEndian.Uint16(data[6:8]),
		VertexCount: binary.LittleEndian.Uint32(data[8:12]),
		IndexCount:  binary.LittleEndian.Uint32(data[12:16]),
	}
	if h.Version != VNMVersion {
		return VNMHeader{}, fmt.Errorf("%w: %d", ErrUnsupportedVNMVersion, h.Version)
	}
	return h, nil
}

// DecodeVNM parses a VNM payload. Index values are not checked against the
// vertex count; normals.Compute does that.
func DecodeVNM(data []byte) (*normals.Mesh, error) {
	h, err := ParseVNMHeader(data)
	if err != nil {
		return nil, err
	}
	size := h.PayloadSize()
	if uint64(len(data)) < size {
		return nil, fmt.Errorf("%w: have %d bytes, header describes %d", ErrTruncatedVNMData, len(data), size)
	}
	if uint64(len(data)) > size {
		return nil, fmt.Errorf("%w: %d", ErrTrailingVNMData, uint64(len(data))-size)
	}

	r := data[VNMHeaderSize:]
	m := &normals.Mesh{}
	m.Positions, r = readFloats(r, 3*int(h.VertexCount))
	m.Indices = make([]uint32, h.IndexCount)
	for i := range m.Indices {
		m.Indices[i] = binary.LittleEndian.Uint32(r[4*i:])
	}
	r = r[4*len(m.Indices):]
	if h.Flags&VNMHasNormals != 0 {
		m.Normals, _ = readFloats(r, 3*int(h.VertexCount))
	}
	return m, nil
}

// EncodeVNM serializes a mesh. Normals are written when the mesh has them.
func EncodeVNM(m *normals.Mesh) ([]byte, error) {
	return AppendVNM(nil, m)
}

// AppendVNM appends the VNM encoding of m to dst. A position buffer that is
// not a whole number of vertices is refused with a *normals.SizeError and dst
// is returned unchanged.
func AppendVNM(dst []byte, m *normals.Mesh) ([]byte, error) {
	if len(m.Positions)%3 != 0 {
		return dst, &normals.SizeError{Buffer: "positions", Len: len(m.Positions), Want: -1}
	}

	var flags uint16
	if m.HasNormals() {
		flags |= VNMHasNormals
	}
	h := VNMHeader{
		Version:     VNMVersion,
		Flags:       flags,
		VertexCount: uint32(m.VertexCount()),
		IndexCount:  uint32(len(m.Indices)),
	}

	dst = append(dst, vnmMagic...)
	dst = binary.LittleEndian.AppendUint16(dst, h.Version)
	dst = binary.LittleEndian.AppendUint16(dst, h.Flags)
	dst = binary.LittleEndian.AppendUint32(dst, h.VertexCount)
	dst = binary.LittleEndian.AppendUint32(dst, h.IndexCount)

	dst = appendFloats(dst, m.Positions)
	for _, idx := range m.Indices {
		dst = binary.LittleEndian.AppendUint32(dst, idx)
	}
	if flags&VNMHasNormals != 0 {
		dst = appendFloats(dst, m.Normals)
	}
	return dst, nil
}

func readFloats(b []byte, n int) ([]float32, []byte) {
	out := make([]float32, n)
	for i := range out {
		out[i] = math32.Float32frombits(binary.LittleEndian.Uint32(b[4*i:]))
	}
	return out, b[4*n:]
}

func appendFloats(dst []byte, v []float32) []byte {
	for _, f := range v {
		dst = binary.LittleEndian.AppendUint32(dst, math32.Float32bits(f))
	}
	return dst
}
