package main

import (
	"log"
	"net/http"
	"os"

	"github.com/vthunder/chronos/internal/activity"
	"github.com/vthunder/chronos/internal/config"
	"github.com/vthunder/chronos/internal/ids"
	"github.com/vthunder/chronos/internal/journal"
	"github.com/vthunder/chronos/internal/logging"
	"github.com/vthunder/chronos/internal/mcp"
	"github.com/vthunder/chronos/internal/mcp/tools"
	"github.com/vthunder/chronos/internal/observability"
	"github.com/vthunder/chronos/internal/store"
	"github.com/vthunder/chronos/internal/timemath"
)

const (
	serverName    = "chronos-protocol"
	serverVersion = "0.1.0"
)

func main() {
	// Log to stderr so stdout is clean for JSON-RPC
	log.SetOutput(os.Stderr)
	log.SetPrefix("[chronos-mcp] ")

	cfg, err := config.Load("chronos-mcp", os.Args[1:])
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Configuration error: %v", err)
	}
	if logging.DebugEnabled() {
		log.Println("Debug logging enabled")
	}
	if cfg.File != "" {
		log.Printf("Loaded config file %s", cfg.File)
	}

	dataDir, err := cfg.ResolveDataDir()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}
	if err := config.PrepareDataDir(dataDir); err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	st, err := store.Open(dataDir, cfg.StorageBackend)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer st.Close()
	log.Printf("Store: %s at %s", st.Backend().Name(), st.Backend().Location())

	clock := timemath.New(cfg.LocalTimezone)
	localZone, _, err := clock.LocalZone()
	if err != nil {
		// "system" and "local" arguments will fail; explicit zones still work
		log.Printf("Warning: %v", err)
		localZone = "UTC"
	}
	log.Printf("Local timezone: %s", localZone)

	format, err := ids.ParseFormat(cfg.IDFormat)
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}
	gen, err := ids.NewGenerator(format, cfg.CustomIDLength)
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	opts := []mcp.Option{mcp.WithTimeout(cfg.Timeout())}
	if cfg.CallJournal {
		j := journal.New(dataDir)
		opts = append(opts, mcp.WithJournal(j))
		log.Printf("Call journal: %s", j.Path())
	}

	server := mcp.NewServer(serverName, serverVersion, opts...)
	tools.RegisterAll(server, &tools.Dependencies{
		Clock:     clock,
		Activity:  activity.NewService(st, gen),
		LocalZone: localZone,
	})

	if cfg.MetricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", observability.Handler())
			log.Printf("Metrics listening on %s/metrics", cfg.MetricsAddr)
			if err := http.ListenAndServe(cfg.MetricsAddr, mux); err != nil {
				log.Printf("Metrics server stopped: %v", err)
			}
		}()
	}

	log.Printf("Starting %s %s with %d tools (timeout %s)", serverName, serverVersion, len(server.Tools()), server.Timeout())
	if err := server.Run(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
