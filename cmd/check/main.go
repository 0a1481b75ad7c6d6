package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/kdimtricp/vidagent/internal/backend"
	"github.com/kdimtricp/vidagent/internal/config"
	"github.com/kdimtricp/vidagent/internal/database"
	"github.com/kdimtricp/vidagent/internal/models"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Invalid configuration:", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	fmt.Println("🔍 Checking video agent setup")
	fmt.Println("==============================")

	healthy := true

	if err := backend.NewClient(cfg.BackendURL, 5*time.Second).Ping(ctx); err != nil {
		fmt.Printf("❌ Analysis backend %s unreachable: %v\n", cfg.BackendURL, err)
		healthy = false
	} else {
		fmt.Printf("✅ Analysis backend: %s\n", cfg.BackendURL)
	}

	if err := pingProxy(ctx, cfg.ProxyURL); err != nil {
		fmt.Printf("❌ Proxy %s unreachable: %v\n", cfg.ProxyURL, err)
		healthy = false
	} else {
		fmt.Printf("✅ Proxy: %s\n", cfg.ProxyURL)
	}

	if cfg.OpenAIAPIKey == "" {
		fmt.Println("⚠️  OPENAI_API_KEY not set: chat is disabled")
	} else {
		fmt.Printf("✅ Chat model: %s via %s\n", cfg.OpenAIModel, cfg.OpenAIBaseURL)
	}

	fmt.Printf("⏱️  Polling every %v, up to %d attempts (backoff x%.1f, cap %v)\n",
		cfg.PollInterval, cfg.PollMaxAttempts, cfg.PollBackoff, cfg.PollMaxInterval)
	fmt.Println()

	ledger, db, err := database.OpenLedger(cfg.Database)
	switch {
	case err != nil:
		fmt.Printf("❌ Session ledger: %v\n", err)
		healthy = false
	case ledger == nil:
		fmt.Println("📒 Session ledger disabled")
	default:
		defer db.Close()
		printLedger(ctx, ledger)
	}

	if !healthy {
		os.Exit(1)
	}
}

func pingProxy(ctx context.Context, proxyURL string) error {
	req, err := http.NewRequestWithContext(ctx, "GET", proxyURL+"/ping", nil)
	if err != nil {
		return err
	}
	resp, err := (&http.Client{Timeout: 5 * time.Second}).Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	return nil
}

func printLedger(ctx context.Context, ledger *database.SessionLedger) {
	counts, err := ledger.CountByStatus(ctx)
	if err != nil {
		fmt.Printf("❌ Failed to count sessions: %v\n", err)
		return
	}

	total := 0
	for _, n := range counts {
		total += n
	}
	fmt.Printf("📒 Sessions recorded: %d (pending %d, completed %d, error %d)\n\n",
		total, counts[models.StatusPending], counts[models.StatusCompleted], counts[models.StatusError])

	records, err := ledger.ListRecent(ctx, 5)
	if err != nil {
		fmt.Printf("❌ Failed to list sessions: %v\n", err)
		return
	}
	if len(records) == 0 {
		return
	}

	fmt.Println("📋 Recent sessions:")
	fmt.Println("-------------------")
	for _, r := range records {
		fmt.Printf("%s  %-9s  %s\n", r.CreatedAt.Local().Format("Jan 2 15:04"), r.Status, r.VideoInput)
		if r.Error != "" {
			fmt.Printf("    ⚠️  %s\n", r.Error)
		}
	}
}
