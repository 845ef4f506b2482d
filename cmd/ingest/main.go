package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"stock-backtest-lab/internal/config"
	"stock-backtest-lab/internal/domain"
	"stock-backtest-lab/internal/intraday"
	"stock-backtest-lab/internal/observability"
	"stock-backtest-lab/internal/snapshot"
	"stock-backtest-lab/internal/storage"
	chstore "stock-backtest-lab/internal/storage/clickhouse"
	"stock-backtest-lab/internal/storage/migrations"
	pgstore "stock-backtest-lab/internal/storage/postgres"
)

func main() {
	// Parse flags
	mode := flag.String("mode", "snapshots", "Ingestion mode: snapshots, bars, collect, or candidates")
	configPath := flag.String("config", os.Getenv("CONFIG_PATH"), "Path to YAML config file")
	dataDir := flag.String("data-dir", "", "Directory of intraday_YYYYMMDD.json files (snapshots mode)")
	barsFile := flag.String("bars-file", "", "JSON file of minute bars (bars mode)")
	candidatesFile := flag.String("candidates-file", "", "JSON file with a morning candidate list (candidates mode)")
	date := flag.String("date", "", "Compact YYYYMMDD date (collect mode)")
	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", "", "ClickHouse connection string")
	metricsAddr := flag.String("metrics-addr", "", "Prometheus metrics HTTP address (empty to disable)")
	flag.Parse()

	// Setup logger
	logger := log.New(os.Stdout, "[ingest] ", log.LstdFlags|log.Lshortfile)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	if *dataDir == "" {
		*dataDir = cfg.Storage.DataDir
	}
	if *postgresDSN == "" {
		*postgresDSN = cfg.Storage.PostgresDSN
	}
	if *clickhouseDSN == "" {
		*clickhouseDSN = cfg.Storage.ClickhouseDSN
	}

	// Start metrics server if enabled
	if *metricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", observability.Handler())
			mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
				w.Write([]byte("ok"))
			})
			logger.Printf("Starting metrics server on %s", *metricsAddr)
			if err := http.ListenAndServe(*metricsAddr, mux); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Printf("Metrics server error: %v", err)
			}
		}()
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, shutting down...", sig)
		cancel()
	}()

	switch *mode {
	case "snapshots":
		err = runSnapshots(ctx, logger, *dataDir, *postgresDSN)
	case "bars":
		err = runBars(ctx, logger, *barsFile, *clickhouseDSN)
	case "collect":
		err = runCollect(ctx, logger, cfg, *date, *postgresDSN, *clickhouseDSN)
	case "candidates":
		err = runCandidates(ctx, logger, *candidatesFile, *postgresDSN)
	default:
		logger.Fatalf("Unknown mode: %s", *mode)
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatalf("ingest failed: %v", err)
	}
	logger.Println("Done")
}

// runSnapshots loads every intraday_YYYYMMDD.json file under dataDir into
// the Postgres snapshot store. Already-stored days are skipped.
func runSnapshots(ctx context.Context, logger *log.Logger, dataDir, postgresDSN string) error {
	if postgresDSN == "" {
		return errors.New("--postgres-dsn is required for snapshots mode")
	}

	pool, err := pgstore.NewPool(ctx, postgresDSN)
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer pool.Close()

	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		return fmt.Errorf("run postgres migrations: %w", err)
	}
	store := pgstore.NewSnapshotStore(pool)

	matches, err := filepath.Glob(filepath.Join(dataDir, "intraday_*.json"))
	if err != nil {
		return fmt.Errorf("scan data dir: %w", err)
	}
	sort.Strings(matches)

	loaded, skipped := 0, 0
	for _, path := range matches {
		if err := ctx.Err(); err != nil {
			return err
		}

		snap, err := loadSnapshotFile(path)
		if err != nil {
			logger.Printf("skipping %s: %v", filepath.Base(path), err)
			skipped++
			continue
		}

		if err := store.Insert(ctx, snap); err != nil {
			if errors.Is(err, storage.ErrDuplicateKey) {
				skipped++
				continue
			}
			return fmt.Errorf("insert %s: %w", snap.Date, err)
		}
		observability.RecordSnapshotIngested()
		loaded++
	}

	logger.Printf("Snapshots: %d loaded, %d skipped", loaded, skipped)
	return nil
}

func loadSnapshotFile(path string) (*domain.DaySnapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	snap, err := snapshot.DecodeDaySnapshot(f)
	if err != nil {
		return nil, err
	}
	if snap.Date == "" {
		name := filepath.Base(path)
		snap.Date = strings.TrimSuffix(strings.TrimPrefix(name, "intraday_"), ".json")
	}
	return snap, nil
}

// runBars loads a JSON array of minute bars into ClickHouse.
func runBars(ctx context.Context, logger *log.Logger, barsFile, clickhouseDSN string) error {
	if barsFile == "" {
		return errors.New("--bars-file is required for bars mode")
	}
	if clickhouseDSN == "" {
		return errors.New("--clickhouse-dsn is required for bars mode")
	}

	data, err := os.ReadFile(barsFile)
	if err != nil {
		return fmt.Errorf("read bars file: %w", err)
	}
	var bars []*domain.MinuteBar
	if err := json.Unmarshal(data, &bars); err != nil {
		return fmt.Errorf("decode bars file: %w", err)
	}

	conn, err := migrations.RunClickhouseMigrations(ctx, clickhouseDSN)
	if err != nil {
		return fmt.Errorf("run clickhouse migrations: %w", err)
	}
	defer conn.Close()

	store := chstore.NewMinuteBarStore(conn)
	if err := store.InsertBulk(ctx, bars); err != nil {
		return fmt.Errorf("insert bars: %w", err)
	}

	logger.Printf("Bars: %d stored", len(bars))
	return nil
}

// runCollect builds one day's snapshot from stored minute bars and
// persists it to Postgres.
func runCollect(ctx context.Context, logger *log.Logger, cfg *config.Config, date, postgresDSN, clickhouseDSN string) error {
	if date == "" {
		return errors.New("--date is required for collect mode")
	}
	if postgresDSN == "" || clickhouseDSN == "" {
		return errors.New("--postgres-dsn and --clickhouse-dsn are required for collect mode")
	}

	pool, err := pgstore.NewPool(ctx, postgresDSN)
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer pool.Close()

	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		return fmt.Errorf("run postgres migrations: %w", err)
	}

	conn, err := migrations.RunClickhouseMigrations(ctx, clickhouseDSN)
	if err != nil {
		return fmt.Errorf("run clickhouse migrations: %w", err)
	}
	defer conn.Close()

	collector := intraday.NewCollector(
		chstore.NewMinuteBarStore(conn),
		pgstore.NewSnapshotStore(pool),
		pgstore.NewMorningCandidateStore(pool),
	).WithTargets(cfg.Intraday.ProfitTargetPercent, cfg.Intraday.LossTargetPercent).
		WithLogger(logger)

	snap, err := collector.CollectDay(ctx, date)
	if err != nil {
		return err
	}

	logger.Printf("Collected %s: %d stocks", snap.Date, len(snap.Stocks))
	return nil
}

// runCandidates loads a morning candidate list JSON file into Postgres.
func runCandidates(ctx context.Context, logger *log.Logger, candidatesFile, postgresDSN string) error {
	if candidatesFile == "" {
		return errors.New("--candidates-file is required for candidates mode")
	}
	if postgresDSN == "" {
		return errors.New("--postgres-dsn is required for candidates mode")
	}

	data, err := os.ReadFile(candidatesFile)
	if err != nil {
		return fmt.Errorf("read candidates file: %w", err)
	}
	var list domain.MorningCandidateList
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("decode candidates file: %w", err)
	}
	if list.Date == "" {
		return errors.New("candidate list has no date")
	}

	pool, err := pgstore.NewPool(ctx, postgresDSN)
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer pool.Close()

	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		return fmt.Errorf("run postgres migrations: %w", err)
	}

	if err := pgstore.NewMorningCandidateStore(pool).Put(ctx, &list); err != nil {
		return fmt.Errorf("store candidates: %w", err)
	}

	logger.Printf("Candidates: %d stored for %s", len(list.Candidates), list.Date)
	return nil
}
