package runtime

import (
	"context"
	"errors"
	"time"

	cfgpkg "github.com/rzbill/causeway/internal/config"
	"github.com/rzbill/causeway/internal/reportlog"
	"github.com/rzbill/causeway/internal/session"
	pebblestore "github.com/rzbill/causeway/internal/storage/pebble"
)

// Options for building the Runtime.
type Options struct {
	DataDir       string
	Fsync         pebblestore.FsyncMode
	FsyncInterval time.Duration
	Config        cfgpkg.Config
}

// Runtime owns the collector's storage and configuration.
type Runtime struct {
	db     *pebblestore.DB
	config cfgpkg.Config
}

// Open initializes the underlying storage and returns a Runtime.
func Open(opts Options) (*Runtime, error) {
	db, err := pebblestore.Open(pebblestore.Options{
		DataDir:       opts.DataDir,
		Fsync:         opts.Fsync,
		FsyncInterval: opts.FsyncInterval,
	})
	if err != nil {
		return nil, err
	}
	return &Runtime{db: db, config: opts.Config}, nil
}

// Close closes underlying resources.
func (r *Runtime) Close() error {
	if r.db == nil {
		return nil
	}
	return r.db.Close()
}

// CheckHealth performs a simple health check.
func (r *Runtime) CheckHealth(ctx context.Context) error {
	if r.db == nil {
		return errors.New("db not open")
	}
	it, err := r.db.NewIter(nil)
	if err != nil {
		return err
	}
	it.Close()
	return nil
}

// EnsureSession creates a session record if absent.
func (r *Runtime) EnsureSession(name string) (session.Meta, error) {
	return session.EnsureSession(r.db, name)
}

// OpenProbeLog opens the durable report log for one probe in a session.
func (r *Runtime) OpenProbeLog(sess string, probe uint32) (*reportlog.Log, error) {
	return reportlog.Open(r.db, sess, probe)
}

// DB exposes the underlying DB for advanced operations (internal use only).
func (r *Runtime) DB() *pebblestore.DB { return r.db }

// Config returns the runtime configuration.
func (r *Runtime) Config() cfgpkg.Config { return r.config }
