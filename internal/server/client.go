package server

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Faultbox/vertexnormals/pkg/meshio"
	"github.com/Faultbox/vertexnormals/pkg/normals"
)

// RemoteError is a failure reported by the server. It unwraps to the matching
// normals error so errors.Is works across the connection.
type RemoteError struct {
	Kind    string
	Message string
}

func (e *RemoteError) Error() string {
	return "remote: " + e.Message
}

// Unwrap maps the error kind back to a sentinel.
func (e *RemoteError) Unwrap() error {
	switch e.Kind {
	case KindSizeMismatch:
		return normals.ErrSizeMismatch
	case KindIndexOutOfRange:
		return normals.ErrIndexOutOfRange
	default:
		return nil
	}
}

// Client sends meshes to a server. It is not safe for concurrent use.
type Client struct {
	conn    *websocket.Conn
	Timeout time.Duration // per request, zero means none
}

// Dial connects to a server websocket URL such as ws://host:port/ws.
func Dial(ctx context.Context, url string) (*Client, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dialing %s: %w", url, err)
	}
	return &Client{conn: conn}, nil
}

// Compute sends the positions and indices of m and returns the mesh the
// server sent back, normals included. A position buffer that is not a whole
// number of vertices is rejected before anything is sent.
func (c *Client) Compute(m *normals.Mesh) (*normals.Mesh, error) {
	req, err := meshio.EncodeVNM(&normals.Mesh{Positions: m.Positions, Indices: m.Indices})
	if err != nil {
		return nil, err
	}

	var deadline time.Time
	if c.Timeout > 0 {
		deadline = time.Now().Add(c.Timeout)
	}
	c.conn.SetWriteDeadline(deadline)
	c.conn.SetReadDeadline(deadline)

	if err := c.conn.WriteMessage(websocket.BinaryMessage, req); err != nil {
		return nil, fmt.Errorf("sending mesh: %w", err)
	}

	mt, data, err := c.conn.ReadMessage()
	if err != nil {
		return nil, fmt.Errorf("reading reply: %w", err)
	}
	if mt == websocket.TextMessage {
		var frame ErrorFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			return nil, fmt.Errorf("decoding error frame: %w", err)
		}
		return nil, &RemoteError{Kind: frame.Kind, Message: frame.Error}
	}
	return meshio.DecodeVNM(data)
}

// Close sends a close frame and closes the connection.
func (c *Client) Close() error {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	return c.conn.Close()
}
