// Package udpserver receives probe reports as UDP datagrams, one report per
// packet. This is the transport embedded probes typically use: fire and
// forget, no backpressure into the instrumented program.
package udpserver

import (
	"context"
	"errors"
	"net"
	"sync"

	"github.com/rzbill/causeway/internal/ingest"
	"github.com/rzbill/causeway/pkg/log"
)

// maxDatagramBytes is the largest report a single datagram may carry.
const maxDatagramBytes = 64 * 1024

type Server struct {
	svc    *ingest.Service
	logger log.Logger

	mu   sync.Mutex
	conn net.PacketConn
}

func New(svc *ingest.Service, logger log.Logger) *Server {
	return &Server{svc: svc, logger: logger.WithComponent("udp")}
}

// ListenAndServe reads datagrams until ctx is canceled. Malformed reports
// are logged and dropped; the loop never stops for bad input.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	conn, err := net.ListenPacket("udp", addr)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.conn = conn
	s.mu.Unlock()
	s.logger.Info("udp listening", log.Str("addr", conn.LocalAddr().String()))

	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()

	buf := make([]byte, maxDatagramBytes)
	for {
		n, from, err := conn.ReadFrom(buf)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}
		report := make([]byte, n)
		copy(report, buf[:n])
		if err := s.svc.Ingest(ctx, report); err != nil {
			s.logger.Warn("dropped datagram",
				log.Str("from", from.String()), log.Err(err))
		}
	}
}

// Addr returns the bound listen address, empty before ListenAndServe.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return ""
	}
	return s.conn.LocalAddr().String()
}
