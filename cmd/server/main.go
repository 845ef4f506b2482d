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
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/websocket"

	"stock-backtest-lab/internal/backtest"
	"stock-backtest-lab/internal/config"
	"stock-backtest-lab/internal/domain"
	"stock-backtest-lab/internal/observability"
	"stock-backtest-lab/internal/reporting"
	"stock-backtest-lab/internal/snapshot"
	"stock-backtest-lab/internal/storage"
	"stock-backtest-lab/internal/storage/memory"
	"stock-backtest-lab/internal/storage/migrations"
	pgstore "stock-backtest-lab/internal/storage/postgres"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Server exposes backtests and snapshot data over HTTP.
type Server struct {
	cfg    *config.Config
	logger *log.Logger

	provider   snapshot.Provider
	snapshots  storage.SnapshotStore // nil when serving from files only
	candidates storage.MorningCandidateStore

	started time.Time
}

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_PATH"), "Path to YAML config file")
	addr := flag.String("addr", "", "HTTP listen address (default from config)")
	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL connection string")
	dataDir := flag.String("data-dir", "", "Directory of intraday_YYYYMMDD.json files")
	useMemory := flag.Bool("use-memory", false, "Use in-memory stores (testing)")
	flag.Parse()

	logger := log.New(os.Stderr, "[server] ", log.LstdFlags)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	if *addr == "" {
		*addr = cfg.Server.Addr
	}
	if *postgresDSN == "" {
		*postgresDSN = cfg.Storage.PostgresDSN
	}
	if *dataDir == "" {
		*dataDir = cfg.Storage.DataDir
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	srv := &Server{cfg: cfg, logger: logger, started: time.Now()}

	switch {
	case *useMemory:
		snapStore := memory.NewSnapshotStore()
		srv.snapshots = snapStore
		srv.candidates = memory.NewMorningCandidateStore()
		srv.provider = snapshot.NewStoreProvider(snapStore)
	case *postgresDSN != "":
		pool, err := pgstore.NewPool(ctx, *postgresDSN)
		if err != nil {
			logger.Fatalf("connect to postgres: %v", err)
		}
		defer pool.Close()

		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			logger.Fatalf("run postgres migrations: %v", err)
		}
		srv.snapshots = pgstore.NewSnapshotStore(pool)
		srv.candidates = pgstore.NewMorningCandidateStore(pool)
		srv.provider = snapshot.NewStoreProvider(srv.snapshots)
	default:
		srv.provider = snapshot.NewFileProvider(*dataDir)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", observability.Handler())
	mux.HandleFunc("/api/backtest", srv.handleBacktest)
	mux.HandleFunc("/api/snapshots/", srv.handleSnapshot)
	mux.HandleFunc("/api/today", srv.handleToday)
	mux.HandleFunc("/ws/backtest", srv.handleBacktestWS)

	httpSrv := &http.Server{Addr: *addr, Handler: mux}

	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, shutting down...", sig)
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpSrv.Shutdown(shutdownCtx)
		cancel()
	}()

	logger.Printf("Starting HTTP server on %s", *addr)
	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatalf("HTTP server error: %v", err)
	}
}

// backtestParams resolves a run configuration from query parameters,
// falling back to the configured defaults.
func (s *Server) backtestParams(r *http.Request) (backtest.Config, error) {
	q := r.URL.Query()

	cfg := backtest.Config{
		InitialCapital: s.cfg.Backtest.InitialCapital,
		MaxPerStock:    s.cfg.Backtest.MaxPerStock,
		BuyExpensive:   s.cfg.Backtest.BuyExpensive,
	}

	if v := q.Get("initial_capital"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return cfg, fmt.Errorf("invalid initial_capital: %w", err)
		}
		cfg.InitialCapital = f
	}
	if v := q.Get("max_per_stock"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return cfg, fmt.Errorf("invalid max_per_stock: %w", err)
		}
		cfg.MaxPerStock = f
	}
	if v := q.Get("buy_expensive"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return cfg, fmt.Errorf("invalid buy_expensive: %w", err)
		}
		cfg.BuyExpensive = b
	}

	if period := q.Get("period"); period != "" {
		cfg.StartDate, cfg.EndDate = backtest.QuickRange(time.Now(), backtest.Period(period))
		return cfg, nil
	}

	start, err := time.Parse(domain.DateLayout, q.Get("start"))
	if err != nil {
		return cfg, fmt.Errorf("invalid start: %w", err)
	}
	end, err := time.Parse(domain.DateLayout, q.Get("end"))
	if err != nil {
		return cfg, fmt.Errorf("invalid end: %w", err)
	}
	cfg.StartDate, cfg.EndDate = start, end
	return cfg, nil
}

// handleBacktest runs a backtest synchronously and returns the full report.
func (s *Server) handleBacktest(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.backtestParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	engine := backtest.NewEngine(s.provider).WithLogger(s.logger)
	result, err := engine.Run(r.Context(), cfg)
	if err != nil {
		if errors.Is(err, backtest.ErrInvalidConfig) {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	report := reporting.NewGenerator().Generate(result)
	writeJSON(w, report)
}

// handleSnapshot serves one day's raw snapshot: /api/snapshots/{date}.
// Accepts compact YYYYMMDD or dashed YYYY-MM-DD dates.
func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	date := strings.TrimPrefix(r.URL.Path, "/api/snapshots/")
	date = strings.ReplaceAll(date, "-", "")
	if len(date) != 8 {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid date %q", date))
		return
	}

	day, err := time.Parse(domain.CompactDateLayout, date)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid date %q", date))
		return
	}

	snap, err := s.provider.GetByDate(r.Context(), day)
	if err != nil {
		if errors.Is(err, snapshot.ErrNoData) {
			writeError(w, http.StatusNotFound, fmt.Errorf("no snapshot for %s", date))
			return
		}
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, snap)
}

// handleToday serves today's picks. The morning candidate list wins when it
// is newer than the latest stored snapshot; otherwise picks are derived
// from the latest snapshot's entry checks.
func (s *Server) handleToday(w http.ResponseWriter, r *http.Request) {
	morning := s.latestMorningList(r.Context())
	latestDate, snap := s.latestSnapshot(r.Context())

	if morning != nil {
		morningCompact := strings.ReplaceAll(morning.Date, "-", "")
		if latestDate == "" || morningCompact > latestDate {
			writeJSON(w, morningPicks(morning))
			return
		}
	}

	if snap == nil {
		writeError(w, http.StatusNotFound, errors.New("no snapshot or candidate data"))
		return
	}
	writeJSON(w, snapshotPicks(latestDate, snap))
}

func (s *Server) latestMorningList(ctx context.Context) *domain.MorningCandidateList {
	if s.candidates == nil {
		return nil
	}
	list, err := s.candidates.GetLatest(ctx)
	if err != nil {
		return nil
	}
	return list
}

func (s *Server) latestSnapshot(ctx context.Context) (string, *domain.DaySnapshot) {
	if s.snapshots == nil {
		return "", nil
	}
	dates, err := s.snapshots.ListDates(ctx)
	if err != nil || len(dates) == 0 {
		return "", nil
	}
	latest := dates[len(dates)-1]
	snap, err := s.snapshots.GetByDate(ctx, latest)
	if err != nil {
		return "", nil
	}
	return latest, snap
}

func morningPicks(list *domain.MorningCandidateList) []domain.TodayPick {
	picks := make([]domain.TodayPick, 0, len(list.Candidates))
	for _, c := range list.Candidates {
		picks = append(picks, domain.TodayPick{
			Date:       list.Date,
			Code:       c.Code,
			Name:       c.Name,
			Score:      c.TotalScore,
			Reason:     c.SelectionReason,
			ShouldBuy:  true,
			EntryPrice: c.CurrentPrice,
		})
	}
	return picks
}

func snapshotPicks(compactDate string, snap *domain.DaySnapshot) []domain.TodayPick {
	date := compactDate
	if day, err := time.Parse(domain.CompactDateLayout, compactDate); err == nil {
		date = day.Format(domain.DateLayout)
	}

	picks := make([]domain.TodayPick, 0, len(snap.Stocks))
	for _, obs := range snap.Stocks {
		pick := domain.TodayPick{
			Date:   date,
			Code:   obs.Code,
			Name:   obs.Name,
			Score:  obs.SelectionScore,
			Reason: obs.SelectionReason,
		}
		if pl := obs.Analysis; pl != nil {
			pick.ShouldBuy = pl.Buyable()
			pick.SkipReason = pl.EffectiveSkipReason()
			pick.Actual = pl.ActualResult
			pick.Virtual = pl.VirtualResult
			if pl.EntryCheck != nil {
				pick.EntryPrice = pl.EntryCheck.EntryPrice
				pick.EntryTime = pl.EntryCheck.EntryTime
			}
		}
		picks = append(picks, pick)
	}
	return picks
}

// wsMessage is one frame pushed over the backtest websocket.
type wsMessage struct {
	Type     string                `json:"type"` // "progress" | "done" | "error"
	Progress *backtest.DayProgress `json:"progress,omitempty"`
	Report   *reporting.Report     `json:"report,omitempty"`
	Error    string                `json:"error,omitempty"`
}

// handleBacktestWS streams per-day progress over a websocket, then the
// final report. The client sends one JSON config frame to start the run.
func (s *Server) handleBacktestWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Printf("websocket upgrade: %v", err)
		return
	}
	defer conn.Close()

	var req struct {
		Start          string  `json:"start"`
		End            string  `json:"end"`
		Period         string  `json:"period,omitempty"`
		InitialCapital float64 `json:"initial_capital"`
		MaxPerStock    float64 `json:"max_per_stock"`
		BuyExpensive   bool    `json:"buy_expensive"`
	}
	if err := conn.ReadJSON(&req); err != nil {
		conn.WriteJSON(wsMessage{Type: "error", Error: fmt.Sprintf("read config: %v", err)})
		return
	}

	cfg := backtest.Config{
		InitialCapital: req.InitialCapital,
		MaxPerStock:    req.MaxPerStock,
		BuyExpensive:   req.BuyExpensive,
	}
	if cfg.InitialCapital == 0 {
		cfg.InitialCapital = s.cfg.Backtest.InitialCapital
	}
	if cfg.MaxPerStock == 0 {
		cfg.MaxPerStock = s.cfg.Backtest.MaxPerStock
	}

	if req.Period != "" {
		cfg.StartDate, cfg.EndDate = backtest.QuickRange(time.Now(), backtest.Period(req.Period))
	} else {
		cfg.StartDate, err = time.Parse(domain.DateLayout, req.Start)
		if err != nil {
			conn.WriteJSON(wsMessage{Type: "error", Error: fmt.Sprintf("invalid start: %v", err)})
			return
		}
		cfg.EndDate, err = time.Parse(domain.DateLayout, req.End)
		if err != nil {
			conn.WriteJSON(wsMessage{Type: "error", Error: fmt.Sprintf("invalid end: %v", err)})
			return
		}
	}

	engine := backtest.NewEngine(s.provider).
		WithLogger(s.logger).
		WithProgress(func(p backtest.DayProgress) {
			conn.WriteJSON(wsMessage{Type: "progress", Progress: &p})
		})

	result, err := engine.Run(r.Context(), cfg)
	if err != nil {
		conn.WriteJSON(wsMessage{Type: "error", Error: err.Error()})
		return
	}

	report := reporting.NewGenerator().Generate(result)
	conn.WriteJSON(wsMessage{Type: "done", Report: report})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
