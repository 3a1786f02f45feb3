package runtime

import (
	"context"
	"testing"

	cfgpkg "github.com/rzbill/causeway/internal/config"
	pebblestore "github.com/rzbill/causeway/internal/storage/pebble"
	"github.com/rzbill/causeway/internal/wire"
)

func openTestRuntime(t *testing.T) *Runtime {
	t.Helper()
	rt, err := Open(Options{
		DataDir: t.TempDir(),
		Fsync:   pebblestore.FsyncModeAlways,
		Config:  cfgpkg.Default(),
	})
	if err != nil {
		t.Fatalf("open runtime: %v", err)
	}
	t.Cleanup(func() { _ = rt.Close() })
	return rt
}

func TestOpenAndHealth(t *testing.T) {
	rt := openTestRuntime(t)
	if err := rt.CheckHealth(context.Background()); err != nil {
		t.Fatalf("health: %v", err)
	}
}

func TestEnsureSessionAndProbeLog(t *testing.T) {
	rt := openTestRuntime(t)
	meta, err := rt.EnsureSession("default")
	if err != nil {
		t.Fatalf("ensure session: %v", err)
	}
	if meta.Name != "default" {
		t.Fatalf("session name = %q", meta.Name)
	}

	l, err := rt.OpenProbeLog("default", 42)
	if err != nil {
		t.Fatalf("open probe log: %v", err)
	}
	if err := l.AppendReport(context.Background(), 1, []wire.Entry{wire.Event(5)}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if got := l.LastSeq(); got != 1 {
		t.Fatalf("lastSeq = %d", got)
	}
}
