// Package meshio reads and writes meshes as VNM, STL and JSON files.
package meshio

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Faultbox/vertexnormals/pkg/normals"
)

// ErrUnknownFormat is returned for file extensions without a codec.
var ErrUnknownFormat = errors.New("unknown mesh format")

// Format identifies a mesh file encoding.
type Format int

// Supported formats.
const (
	FormatVNM Format = iota
	FormatSTL
	FormatJSON
)

func (f Format) String() string {
	switch f {
	case FormatVNM:
		return "vnm"
	case FormatSTL:
		return "stl"
	case FormatJSON:
		return "json"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

// FormatFromPath picks the format from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".vnm":
		return FormatVNM, nil
	case ".stl":
		return FormatSTL, nil
	case ".json":
		return FormatJSON, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownFormat, path)
	}
}

// Parse decodes data in the given format.
func Parse(format Format, data []byte) (*normals.Mesh, error) {
	switch format {
	case FormatVNM:
		return DecodeVNM(data)
	case FormatSTL:
		return ParseSTL(data)
	case FormatJSON:
		return ParseJSON(data)
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnknownFormat, format)
	}
}

// Encode serializes m in the given format.
func Encode(format Format, m *normals.Mesh) ([]byte, error) {
	switch format {
	case FormatVNM:
		return EncodeVNM(m)
	case FormatSTL:
		var buf bytes.Buffer
		if err := WriteSTL(&buf, m); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case FormatJSON:
		var buf bytes.Buffer
		if err := WriteJSON(&buf, m); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnknownFormat, format)
	}
}

// Load reads a mesh file, choosing the codec from its extension.
func Load(path string) (*normals.Mesh, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading mesh file: %w", err)
	}
	m, err := Parse(format, data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return m, nil
}

// Save writes a mesh file, choosing the codec from its extension.
func Save(path string, m *normals.Mesh) error {
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}
	data, err := Encode(format, m)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
