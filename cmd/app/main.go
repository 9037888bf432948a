package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"FinResearch/internal/di"
	"FinResearch/internal/repository"
	"FinResearch/pkg/config"
	"FinResearch/pkg/util"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "config file path")
	query := flag.String("token", "", "research one token (e.g. BTC or \"research bitcoin\"), print the report and exit")
	flag.Parse()

	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	if *query != "" {
		os.Exit(runOnce(cfg, *query))
	}

	log.Printf("env=%s port=%d kafka=%t redis=%t clickhouse=%t notion=%t",
		cfg.Environment, cfg.Server.Port, cfg.Kafka.Enabled, cfg.Redis.Enabled, cfg.ClickHouse.Enabled, cfg.Notion.Enabled)

	app, err := di.InitializeApp(cfg)
	if err != nil {
		log.Fatalf("app initialization failed: %v", err)
	}

	// Run application (blocks until signal)
	if err := app.Run(context.Background()); err != nil {
		log.Printf("app error: %v", err)
		os.Exit(1)
	}
}

// runOnce researches a single token and writes the markdown report to stdout.
// Logs go to stderr so the report can be piped.
func runOnce(cfg *config.Config, query string) int {
	token := strings.ToUpper(util.ExtractToken(query))
	if token == "" {
		fmt.Fprintf(os.Stderr, "could not find a token in %q\n", query)
		return 2
	}
	cfg.Log.Format = "console"
	cfg.Log.Output = "stderr"
	cfg.Log.Collect.Enabled = false
	cfg.Kafka.Consumer.Enabled = false

	app, err := di.InitializeApp(cfg)
	if err != nil {
		log.Printf("app initialization failed: %v", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	report := app.RunOnce(ctx, token)
	fmt.Print(repository.RenderMarkdown(report))

	if err := app.Shutdown(context.Background()); err != nil {
		log.Printf("shutdown: %v", err)
	}
	if len(report.Result.Failed()) == len(report.Result.Sections) {
		return 1
	}
	return 0
}
