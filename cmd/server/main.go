package main

import (
	"log"
	"net/http"

	"github.com/kdimtricp/vidagent/internal/api"
	"github.com/kdimtricp/vidagent/internal/backend"
	"github.com/kdimtricp/vidagent/internal/client"
	"github.com/kdimtricp/vidagent/internal/config"
	"github.com/kdimtricp/vidagent/internal/database"
	"github.com/kdimtricp/vidagent/internal/display"
	"github.com/kdimtricp/vidagent/internal/tools"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Invalid configuration:", err)
	}

	deps := api.Deps{
		Backend: backend.NewClient(cfg.BackendURL, cfg.HTTPTimeout),
	}

	ledger, db, err := database.OpenLedger(cfg.Database)
	if err != nil {
		log.Printf("Warning: session ledger unavailable: %v", err)
	}
	if db != nil {
		defer db.Close()
	}
	if ledger != nil {
		deps.Ledger = ledger
	}

	// Tools and the display go through the proxy route like any other client.
	proxyClient := client.New(cfg.ProxyURL, cfg.HTTPTimeout)
	deps.Registry = tools.NewRegistry(tools.New(proxyClient, cfg.ToolsConfig()))
	deps.Watcher = display.NewWatcher(proxyClient, cfg.DisplayInterval)

	router := api.NewRouter(deps)

	log.Printf("Server starting on port %s", cfg.Port)
	log.Printf("Analysis backend: %s", cfg.BackendURL)
	log.Printf("Proxy URL for tools: %s", cfg.ProxyURL)
	log.Printf("Polling: every %v, %d attempts, backoff x%.1f", cfg.PollInterval, cfg.PollMaxAttempts, cfg.PollBackoff)

	if err := http.ListenAndServe(":"+cfg.Port, router); err != nil {
		log.Fatal(err)
	}
}
