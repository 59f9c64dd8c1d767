package meshio

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/Faultbox/vertexnormals/pkg/normals"
)

// ParseJSON parses a mesh object with flat "positions", "indices" and
// optional "normals" arrays.
func ParseJSON(data []byte) (*normals.Mesh, error) {
	var m normals.Mesh
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing mesh JSON: %w", err)
	}
	return &m, nil
}

// WriteJSON writes m as a single JSON object followed by a newline.
func WriteJSON(w io.Writer, m *normals.Mesh) error {
	return json.NewEncoder(w).Encode(m)
}
