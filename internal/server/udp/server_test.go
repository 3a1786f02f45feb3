package udpserver

import (
	"context"
	"net"
	"testing"
	"time"

	cfgpkg "github.com/rzbill/causeway/internal/config"
	"github.com/rzbill/causeway/internal/ingest"
	"github.com/rzbill/causeway/internal/runtime"
	pebblestore "github.com/rzbill/causeway/internal/storage/pebble"
	"github.com/rzbill/causeway/internal/wire"
	"github.com/rzbill/causeway/pkg/log"
)

func newTestService(t *testing.T) *ingest.Service {
	t.Helper()
	rt, err := runtime.Open(runtime.Options{
		DataDir: t.TempDir(),
		Fsync:   pebblestore.FsyncModeAlways,
		Config:  cfgpkg.Default(),
	})
	if err != nil {
		t.Fatalf("open runtime: %v", err)
	}
	t.Cleanup(func() { _ = rt.Close() })
	svc, err := ingest.Open(rt, log.NewTestLogger(), "default")
	if err != nil {
		t.Fatalf("open ingest: %v", err)
	}
	return svc
}

func TestDatagramIngest(t *testing.T) {
	svc := newTestService(t)
	s := New(svc, log.NewTestLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- s.ListenAndServe(ctx, "127.0.0.1:0") }()

	var addr string
	for i := 0; i < 100; i++ {
		if addr = s.Addr(); addr != "" {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if addr == "" {
		t.Fatalf("listener never came up")
	}

	conn, err := net.Dial("udp", addr)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	entries := []wire.Entry{wire.Event(100), wire.Event(101)}
	buf := make([]byte, wire.EncodedReportSize(entries))
	if _, err := wire.EncodeReport(buf, 1, 1, false, entries); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if _, err := conn.Write(buf); err != nil {
		t.Fatalf("send: %v", err)
	}
	// A malformed datagram must not kill the loop.
	if _, err := conn.Write([]byte{0xba, 0xad}); err != nil {
		t.Fatalf("send bad: %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for {
		nodes, err := svc.Nodes("")
		if err != nil {
			t.Fatalf("nodes: %v", err)
		}
		if len(nodes) == 2 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("report never ingested; have %d nodes", len(nodes))
		}
		time.Sleep(10 * time.Millisecond)
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("serve returned: %v", err)
	}
}
