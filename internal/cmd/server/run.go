package serverrun

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	cfgpkg "github.com/rzbill/causeway/internal/config"
	"github.com/rzbill/causeway/internal/ingest"
	"github.com/rzbill/causeway/internal/naming"
	"github.com/rzbill/causeway/internal/runtime"
	httpserver "github.com/rzbill/causeway/internal/server/http"
	udpserver "github.com/rzbill/causeway/internal/server/udp"
	pebblestore "github.com/rzbill/causeway/internal/storage/pebble"
	logpkg "github.com/rzbill/causeway/pkg/log"
)

func getenvDefault(key, def string) string {
	if v := getenv(key); v != "" {
		return v
	}
	return def
}

// small wrapper to allow testing
var getenv = func(key string) string { return os.Getenv(key) }

type Options struct {
	DataDir       string
	HTTPAddr      string
	UDPAddr       string
	Session       string
	ProbesCSV     string
	EventsCSV     string
	Fsync         pebblestore.FsyncMode
	FsyncInterval time.Duration
	Config        cfgpkg.Config
}

// Run starts the HTTP and UDP servers and blocks until ctx is cancelled.
func Run(ctx context.Context, opts Options) error {
	// Layer a local signal context over the provided one so callers
	// without signal handling still shut down cleanly.
	sctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if opts.DataDir == "" {
		opts.DataDir = cfgpkg.DefaultDataDir()
	}
	if opts.Session == "" {
		opts.Session = opts.Config.DefaultSessionName
	}
	if opts.Session == "" {
		opts.Session = "default"
	}

	logCfg := logpkg.Config{
		Level:  getenvDefault("CAUSEWAY_LOG_LEVEL", "info"),
		Format: getenvDefault("CAUSEWAY_LOG_FORMAT", "text"),
	}
	procLogger, err := logpkg.ApplyConfig(logCfg)
	if err != nil {
		procLogger = logpkg.NewLogger(logpkg.WithFormatter(&logpkg.TextFormatter{}))
	}
	// Route stdlib logs (e.g. Pebble) through the structured logger.
	logpkg.RedirectStdLog(procLogger, logpkg.InfoLevel)

	storeDir := filepath.Join(opts.DataDir, "store")
	rt, err := runtime.Open(runtime.Options{
		DataDir:       storeDir,
		Fsync:         opts.Fsync,
		FsyncInterval: opts.FsyncInterval,
		Config:        opts.Config,
	})
	if err != nil {
		return err
	}
	defer rt.Close()

	var names *naming.Registry
	if opts.ProbesCSV != "" || opts.EventsCSV != "" {
		names, err = naming.Load(opts.ProbesCSV, opts.EventsCSV)
		if err != nil {
			return err
		}
	}

	svc, err := ingest.Open(rt, procLogger, opts.Session)
	if err != nil {
		return err
	}

	procLogger.Info("starting causeway collector",
		logpkg.Str("http", opts.HTTPAddr),
		logpkg.Str("udp", opts.UDPAddr),
		logpkg.Str("session", opts.Session),
		logpkg.Str("data_dir", opts.DataDir),
		logpkg.Str("level", logCfg.Level),
		logpkg.Str("format", logCfg.Format),
	)

	hsrv := httpserver.New(rt, svc, names, procLogger)
	usrv := udpserver.New(svc, procLogger)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := hsrv.ListenAndServe(sctx, opts.HTTPAddr); err != nil && sctx.Err() == nil {
			procLogger.Error("http server failed", logpkg.Err(err))
		}
	}()

	if opts.UDPAddr != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := usrv.ListenAndServe(sctx, opts.UDPAddr); err != nil && sctx.Err() == nil {
				procLogger.Error("udp server failed", logpkg.Err(err))
			}
		}()
	}

	<-sctx.Done()
	// Shut servers down before closing the runtime/DB to avoid races.
	hsrv.Close()
	wg.Wait()
	return nil
}
