// Package server hosts the normal kernel behind a websocket endpoint.
//
// Each binary message is a VNM mesh (normals ignored); the reply is the same
// mesh with normals, or a text message carrying an ErrorFrame.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/Faultbox/vertexnormals/internal/config"
	"github.com/Faultbox/vertexnormals/pkg/meshio"
	"github.com/Faultbox/vertexnormals/pkg/normals"
)

// Error kinds reported in ErrorFrame.Kind.
const (
	KindSizeMismatch    = "size_mismatch"
	KindIndexOutOfRange = "index_out_of_range"
	KindDecode          = "decode"
)

// ErrorFrame is sent as a JSON text message when a request fails.
type ErrorFrame struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

// Stats counts served requests.
type Stats struct {
	Connections int64  `json:"connections"`
	Requests    uint64 `json:"requests"`
	Failures    uint64 `json:"failures"`
	Facets      uint64 `json:"facets"`
}

// Server serves normal computations over websocket.
type Server struct {
	cfg      config.ServerConfig
	log      *zap.Logger
	upgrader websocket.Upgrader

	connsMu sync.Mutex
	conns   map[*websocket.Conn]struct{}

	requests atomic.Uint64
	failures atomic.Uint64
	facets   atomic.Uint64
}

// New creates a server. A nil logger discards output.
func New(cfg config.ServerConfig, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{
		cfg: cfg,
		log: log.Named("server"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  64 << 10,
			WriteBufferSize: 64 << 10,
			CheckOrigin: func(r *http.Request) bool {
				return true // browser hosts may be served from anywhere
			},
		},
		conns: make(map[*websocket.Conn]struct{}),
	}
}

// Handler returns the HTTP routes: /ws for computations, /healthz for stats.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/healthz", s.handleHealth)
	return mux
}

// Stats returns a snapshot of the request counters.
func (s *Server) Stats() Stats {
	s.connsMu.Lock()
	n := len(s.conns)
	s.connsMu.Unlock()
	return Stats{
		Connections: int64(n),
		Requests:    s.requests.Load(),
		Failures:    s.failures.Load(),
		Facets:      s.facets.Load(),
	}
}

// ListenAndServe serves on cfg.Addr until ctx is cancelled, then closes open
// websocket connections and shuts the HTTP server down.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.log.Info("listening", zap.String("addr", s.cfg.Addr))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	s.closeAll()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) closeAll() {
	s.connsMu.Lock()
	defer s.connsMu.Unlock()
	for conn := range s.conns {
		conn.Close()
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(s.Stats())
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	s.connsMu.Lock()
	s.conns[conn] = struct{}{}
	s.connsMu.Unlock()
	defer func() {
		s.connsMu.Lock()
		delete(s.conns, conn)
		s.connsMu.Unlock()
	}()

	log := s.log.With(zap.String("remote", conn.RemoteAddr().String()))
	log.Debug("client connected")

	conn.SetReadLimit(s.cfg.MaxMessageBytes)
	for {
		if s.cfg.ReadTimeout > 0 {
			conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))
		}
		mt, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Warn("websocket read failed", zap.Error(err))
			} else {
				log.Debug("client disconnected")
			}
			return
		}

		if s.cfg.WriteTimeout > 0 {
			conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
		}
		if mt != websocket.BinaryMessage {
			s.failures.Add(1)
			err = conn.WriteJSON(ErrorFrame{Error: "expected a binary VNM message", Kind: KindDecode})
		} else {
			err = s.reply(conn, data, log)
		}
		if err != nil {
			log.Warn("websocket write failed", zap.Error(err))
			return
		}
	}
}

func (s *Server) reply(conn *websocket.Conn, data []byte, log *zap.Logger) error {
	s.requests.Add(1)
	start := time.Now()

	out, m, err := process(data)
	if err != nil {
		s.failures.Add(1)
		log.Debug("request rejected", zap.Error(err))
		return conn.WriteJSON(ErrorFrame{Error: err.Error(), Kind: errorKind(err)})
	}

	s.facets.Add(uint64(m.FacetCount()))
	log.Debug("computed normals",
		zap.Int("vertices", m.VertexCount()),
		zap.Int("facets", m.FacetCount()),
		zap.Duration("took", time.Since(start)))
	return conn.WriteMessage(websocket.BinaryMessage, out)
}

// process decodes a request, computes its normals and encodes the reply.
func process(data []byte) ([]byte, *normals.Mesh, error) {
	m, err := meshio.DecodeVNM(data)
	if err != nil {
		return nil, nil, err
	}
	if err := m.ComputeNormals(); err != nil {
		return nil, nil, err
	}
	out, err := meshio.EncodeVNM(m)
	if err != nil {
		return nil, nil, err
	}
	return out, m, nil
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, normals.ErrSizeMismatch):
		return KindSizeMismatch
	case errors.Is(err, normals.ErrIndexOutOfRange):
		return KindIndexOutOfRange
	default:
		return KindDecode
	}
}
