package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
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

	// Storage
	dataDir := flag.String("data-dir", "", "Directory of intraday_YYYYMMDD.json files (default from config)")
	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL connection string (overrides data-dir)")

	// Output
	outputJSON := flag.Bool("json", false, "Output full result as JSON")
	csvPath := flag.String("csv", "", "Also write the trade list as CSV to this path")
	verbose := flag.Bool("verbose", false, "Log per-day diagnostics")

	flag.Parse()

	// Setup logger
	logger := log.New(os.Stderr, "[backtest] ", log.LstdFlags)

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
	if !*buyExpensive {
		*buyExpensive = cfg.Backtest.BuyExpensive
	}
	if *dataDir == "" {
		*dataDir = cfg.Storage.DataDir
	}
	if *postgresDSN == "" {
		*postgresDSN = cfg.Storage.PostgresDSN
	}

	// Resolve the date range
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

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, shutting down...", sig)
		cancel()
	}()

	// Select the snapshot provider
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

	engine := backtest.NewEngine(provider)
	if *verbose {
		engine = engine.WithLogger(logger)
	}

	runCfg := backtest.Config{
		StartDate:      start,
		EndDate:        end,
		InitialCapital: *initialCapital,
		MaxPerStock:    *maxPerStock,
		BuyExpensive:   *buyExpensive,
	}

	logger.Printf("Running backtest: %s ~ %s capital=%.0f maxPerStock=%.0f",
		start.Format(domain.DateLayout), end.Format(domain.DateLayout),
		*initialCapital, *maxPerStock)

	result, err := engine.Run(ctx, runCfg)
	if err != nil {
		logger.Fatalf("backtest failed: %v", err)
	}

	// Output result
	if *outputJSON {
		output, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(output))
	} else {
		printResult(result)
	}

	if *csvPath != "" {
		if err := os.WriteFile(*csvPath, []byte(reporting.RenderTradesCSV(result.Trades)), 0o644); err != nil {
			logger.Fatalf("write csv: %v", err)
		}
		logger.Printf("Wrote %s", *csvPath)
	}
}

// printResult outputs a human-readable run summary.
func printResult(r *backtest.Result) {
	fmt.Println()
	fmt.Println("=== Backtest Result ===")
	fmt.Printf("Days Processed:     %d\n", r.DaysProcessed)
	fmt.Printf("Days Missing:       %d\n", r.DaysMissing)
	fmt.Printf("Trades:             %d\n", len(r.Trades))
	fmt.Printf("Initial Capital:    %.0f\n", r.Config.InitialCapital)
	fmt.Printf("Final Capital:      %.0f\n", r.FinalCapital)
	if r.Config.InitialCapital > 0 {
		fmt.Printf("Total Return:       %.2f%%\n",
			(r.FinalCapital-r.Config.InitialCapital)/r.Config.InitialCapital*100)
	}

	var wins, losses, none int
	for _, t := range r.Trades {
		switch t.Result {
		case domain.ResultProfit:
			wins++
		case domain.ResultLoss:
			losses++
		default:
			none++
		}
	}
	fmt.Printf("Profit/Loss/None:   %d / %d / %d\n", wins, losses, none)
	if len(r.Trades) > 0 {
		fmt.Printf("Win Rate:           %.2f%%\n", float64(wins)/float64(len(r.Trades))*100)
	}
}
