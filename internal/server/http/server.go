package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/rzbill/causeway/internal/graph"
	"github.com/rzbill/causeway/internal/ingest"
	"github.com/rzbill/causeway/internal/naming"
	"github.com/rzbill/causeway/internal/runtime"
	"github.com/rzbill/causeway/internal/wire"
	"github.com/rzbill/causeway/pkg/log"
)

// maxReportBytes bounds POST /v1/ingest bodies. Probe reports are small;
// anything past this is not a report.
const maxReportBytes = 1 << 20

type Server struct {
	rt     *runtime.Runtime
	svc    *ingest.Service
	names  *naming.Registry
	logger log.Logger
	srv    *http.Server

	mu  sync.Mutex
	lis net.Listener
}

// New builds the HTTP server around an ingest service. names may be nil;
// graph rendering then uses numeric labels.
func New(rt *runtime.Runtime, svc *ingest.Service, names *naming.Registry, logger log.Logger) *Server {
	mux := http.NewServeMux()
	s := &Server{
		rt:     rt,
		svc:    svc,
		names:  names,
		logger: logger.WithComponent("http"),
		srv:    &http.Server{Handler: cors(mux)},
	}
	mux.HandleFunc("/v1/healthz", s.handleHealth)
	mux.HandleFunc("/v1/ingest", s.handleIngest)
	mux.HandleFunc("/v1/probes", s.handleProbes)
	mux.HandleFunc("/v1/graph/nodes", s.handleNodes)
	mux.HandleFunc("/v1/graph/edges", s.handleEdges)
	mux.HandleFunc("/v1/graph/pending", s.handlePending)
	mux.HandleFunc("/v1/graph/dot", s.handleDOT)
	return s
}

// Handler returns the root handler; used directly by tests.
func (s *Server) Handler() http.Handler { return s.srv.Handler }

func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.lis = l
	s.mu.Unlock()
	s.logger.Info("http listening", log.Str("addr", l.Addr().String()))
	errCh := make(chan error, 1)
	go func() { errCh <- s.srv.Serve(l) }()
	select {
	case <-ctx.Done():
		cctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.srv.Shutdown(cctx)
		return nil
	case err := <-errCh:
		return err
	}
}

// Addr returns the bound listen address, empty before ListenAndServe.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lis == nil {
		return ""
	}
	return s.lis.Addr().String()
}

func (s *Server) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lis != nil {
		_ = s.lis.Close()
	}
}

func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.rt.CheckHealth(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not_serving"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleIngest accepts one binary report per POST.
func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxReportBytes+1))
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	if len(body) > maxReportBytes {
		w.WriteHeader(http.StatusRequestEntityTooLarge)
		return
	}
	if err := s.svc.Ingest(r.Context(), body); err != nil {
		switch {
		case errors.Is(err, wire.ErrMalformedReport), errors.Is(err, wire.ErrUnsupportedVersion):
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		default:
			s.logger.Error("ingest failed", log.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
		}
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) handleProbes(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	infos := s.svc.Probes()
	type probeResp struct {
		ingest.ProbeInfo
		Name string `json:"name"`
	}
	out := make([]probeResp, 0, len(infos))
	for _, info := range infos {
		out = append(out, probeResp{ProbeInfo: info, Name: s.names.ProbeName(info.ID)})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"session": s.svc.Session(),
		"probes":  out,
	})
}

func (s *Server) handleNodes(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	nodes, err := s.svc.Nodes(r.URL.Query().Get("filter"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if nodes == nil {
		nodes = []graph.Node{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"nodes": nodes})
}

func (s *Server) handleEdges(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	edges := s.svc.Edges()
	if edges == nil {
		edges = []graph.Edge{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"edges": edges})
}

func (s *Server) handlePending(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	pending := s.svc.Pending()
	if pending == nil {
		pending = []graph.PendingEdge{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"pending": pending})
}

func (s *Server) handleDOT(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	out, err := s.svc.DOT(s.names)
	if err != nil {
		s.logger.Error("dot render failed", log.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/vnd.graphviz")
	_, _ = w.Write([]byte(out))
}
