// Command tubular runs a single Tubular program to completion (or
// truncation) against stdio, optionally mirroring ticks to a compressed
// log, a SQLite run index, and a live websocket observer.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/dustin/go-humanize"

	"tubular.dev/tubular/internal/tubular/config"
	"tubular.dev/tubular/internal/tubular/engine"
	"tubular.dev/tubular/internal/tubular/ioadapter"
	"tubular.dev/tubular/internal/tubular/loader"
	"tubular.dev/tubular/internal/tubular/manifest"
	"tubular.dev/tubular/internal/tubular/observelog"
	"tubular.dev/tubular/internal/tubular/observer"
	"tubular.dev/tubular/internal/tubular/runindex"
)

func main() {
	var (
		programPath  = flag.String("program", "", "path to the program source (required)")
		configPath   = flag.String("config", "", "path to the run config YAML (optional)")
		manifestPath = flag.String("manifest", "", "path to the program manifest JSON (optional)")
		tickLimit    = flag.Uint64("tick-limit", 0, "override the config's tick limit (0 keeps the config value)")
		logDir       = flag.String("log-dir", "", "directory for the compressed tick log (overrides config)")
		indexDB      = flag.String("index-db", "", "path to the SQLite run index (overrides config)")
		observeAddr  = flag.String("observe-addr", "", "listen address for the live websocket observer (overrides config)")
	)
	flag.Parse()

	logger := log.New(os.Stderr, "[tubular] ", log.LstdFlags)

	if *programPath == "" {
		logger.Fatal("-program is required")
	}

	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			logger.Fatalf("load config: %v", err)
		}
	}
	if *tickLimit > 0 {
		cfg.TickLimit = *tickLimit
	}
	if *logDir != "" {
		cfg.Log.Enabled = true
		cfg.Log.Dir = *logDir
	}
	if *indexDB != "" {
		cfg.Index.Enabled = true
		cfg.Index.Path = *indexDB
	}
	if *observeAddr != "" {
		cfg.Observe.Enabled = true
		cfg.Observe.Addr = *observeAddr
	}

	if *manifestPath != "" {
		raw, err := os.ReadFile(*manifestPath)
		if err != nil {
			logger.Fatalf("read manifest: %v", err)
		}
		m, err := manifest.Parse(raw)
		if err != nil {
			logger.Fatalf("manifest: %v", err)
		}
		logger.Printf("running %q (author=%q)", m.Name, m.Author)
	}

	src, err := os.Open(*programPath)
	if err != nil {
		logger.Fatalf("open program: %v", err)
	}
	defer src.Close()

	program, err := loader.Load(src)
	if err != nil {
		logger.Fatalf("load program: %v", err)
	}

	e := engine.New(program, ioadapter.NewStdIO(os.Stdin, os.Stdout))

	var tickLog *observelog.Writer
	if cfg.Log.Enabled {
		tickLog = observelog.New(cfg.Log.Dir)
		defer tickLog.Close()
		e.Observe(func(snap engine.TickSnapshot) {
			_ = tickLog.Write(observelog.Entry{
				Tick:         snap.Tick,
				LiveDroplets: snap.LiveDroplets,
				Collisions:   snap.Collisions,
				BytesWritten: snap.BytesWritten,
			})
		})
	}

	var idx *runindex.Index
	if cfg.Index.Enabled {
		idx, err = runindex.Open(cfg.Index.Path, *programPath)
		if err != nil {
			logger.Fatalf("open run index: %v", err)
		}
		e.Observe(func(snap engine.TickSnapshot) {
			idx.WriteTick(runindex.TickRow{
				Tick:         snap.Tick,
				LiveDroplets: snap.LiveDroplets,
				Collisions:   snap.Collisions,
				BytesWritten: snap.BytesWritten,
			})
		})
	}

	if cfg.Observe.Enabled {
		hub := observer.NewHub(logger)
		e.Observe(func(snap engine.TickSnapshot) {
			hub.Broadcast(observer.Snapshot{
				Tick:         snap.Tick,
				LiveDroplets: snap.LiveDroplets,
				Collisions:   snap.Collisions,
				BytesWritten: snap.BytesWritten,
			})
		})
		mux := http.NewServeMux()
		mux.HandleFunc("/observe", hub.Handler())
		srv := &http.Server{Addr: cfg.Observe.Addr, Handler: mux}
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Printf("observer server: %v", err)
			}
		}()
		defer srv.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reason, err := e.Run(ctx, engine.RunOptions{TickLimit: cfg.TickLimit})
	if err != nil {
		logger.Fatalf("run: %v", err)
	}
	if err := e.IO().Flush(); err != nil {
		logger.Printf("flush output: %v", err)
	}

	if idx != nil {
		_ = idx.Finish(reason.String())
	}

	fmt.Fprintf(os.Stderr, "[tubular] stopped after %s ticks: %s\n", humanize.Comma(int64(e.Tick())), reason)
}
