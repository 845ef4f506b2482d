package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"stock-backtest-lab/internal/backtest"
	"stock-backtest-lab/internal/config"
	"stock-backtest-lab/internal/domain"
	"stock-backtest-lab/internal/reporting"
	"stock-backtest-lab/internal/snapshot"
	"stock-backtest-lab/internal/storage/migrations"
	pgstore "stock-backtest-lab/internal/storage/postgres"
)

func main() {
	// Parse flags
	configPath := flag.String("config", os.Getenv("CONFIG_PATH"), "Path to YAML config file")
	startDate := flag.String("start", "", "Start date YYYY-MM-DD")
	endDate := flag.String("end", "", "End date YYYY-MM-DD")
	period := flag.String("period", "", "Quick period: year, month, week, 7days, 30days (overrides start/end)")
	initialCapital := flag.Float64("initial-capital", 0, "Initial capital in KRW (default from config)")
	maxPerStock := flag.Float64("max-per-stock", 0, "Max investment per stock in KRW (default from config)")
	buyExpensive := flag.Bool("buy-expensive", false, "Buy one share of stocks priced above the per-stock cap")
	dataDir := flag.String("data-dir", "", "Directory of intraday_YYYYMMDD.json files")
	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL connection string (overrides data-dir)")
	outputDir := flag.String("output-dir", "reports", "Directory for generated report files")
	flag.Parse()

	// Setup logger
	logger := log.New(os.Stderr, "[report] ", log.LstdFlags)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	if *initialCapital == 0 {
		*initialCapital = cfg.Backtest.InitialCapital
	}
	if *maxPerStock == 0 {
		*maxPerStock = cfg.Backtest.MaxPerStock
	}
	if *dataDir == "" {
		*dataDir = cfg.Storage.DataDir
	}
	if *postgresDSN == "" {
		*postgresDSN = cfg.Storage.PostgresDSN
	}

	var start, end time.Time
	if *period != "" {
		start, end = backtest.QuickRange(time.Now(), backtest.Period(*period))
	} else {
		if *startDate == "" || *endDate == "" {
			logger.Fatal("--start and --end (or --period) are required")
		}
		start, err = time.Parse(domain.DateLayout, *startDate)
		if err != nil {
			logger.Fatalf("invalid --start: %v", err)
		}
		end, err = time.Parse(domain.DateLayout, *endDate)
		if err != nil {
			logger.Fatalf("invalid --end: %v", err)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, shutting down...", sig)
		cancel()
	}()

	var provider snapshot.Provider
	if *postgresDSN != "" {
		pool, err := pgstore.NewPool(ctx, *postgresDSN)
		if err != nil {
			logger.Fatalf("connect to postgres: %v", err)
		}
		defer pool.Close()

		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			logger.Fatalf("run postgres migrations: %v", err)
		}
		provider = snapshot.NewStoreProvider(pgstore.NewSnapshotStore(pool))
	} else {
		provider = snapshot.NewFileProvider(*dataDir)
	}

	result, err := backtest.NewEngine(provider).WithLogger(logger).Run(ctx, backtest.Config{
		StartDate:      start,
		EndDate:        end,
		InitialCapital: *initialCapital,
		MaxPerStock:    *maxPerStock,
		BuyExpensive:   *buyExpensive,
	})
	if err != nil {
		logger.Fatalf("backtest failed: %v", err)
	}

	report := reporting.NewGenerator().Generate(result)

	if err := os.MkdirAll(*outputDir, 0o755); err != nil {
		logger.Fatalf("create output dir: %v", err)
	}

	// TRADES.csv
	csvPath := filepath.Join(*outputDir, "TRADES.csv")
	if err := os.WriteFile(csvPath, []byte(reporting.RenderTradesCSV(result.Trades)), 0o644); err != nil {
		logger.Fatalf("write %s: %v", csvPath, err)
	}

	// BACKTEST_REPORT.md
	mdPath := filepath.Join(*outputDir, "BACKTEST_REPORT.md")
	if err := os.WriteFile(mdPath, []byte(reporting.RenderMarkdown(report)), 0o644); err != nil {
		logger.Fatalf("write %s: %v", mdPath, err)
	}

	// report.json
	jsonPath := filepath.Join(*outputDir, "report.json")
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		logger.Fatalf("marshal report: %v", err)
	}
	if err := os.WriteFile(jsonPath, data, 0o644); err != nil {
		logger.Fatalf("write %s: %v", jsonPath, err)
	}

	logger.Printf("Reports written to %s/", *outputDir)
	fmt.Printf("Trades: %d | Final capital: %.0f | Days: %d processed, %d missing\n",
		len(result.Trades), result.FinalCapital, result.DaysProcessed, result.DaysMissing)
}
