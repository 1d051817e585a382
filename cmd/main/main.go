package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"orb-scanner/src/analysis"
	"orb-scanner/src/config"
	"orb-scanner/src/data_source/smartstream"
	"orb-scanner/src/engine"
	"orb-scanner/src/history"
	"orb-scanner/src/logger"
	"orb-scanner/src/network"
	"orb-scanner/src/server"
	"orb-scanner/src/storage"
	"orb-scanner/src/universe"
	"orb-scanner/src/utils"
)

// -----------------------------------------------------------------------------

func main() {

	// Parse command line flags
	configPath := flag.String("config", "../../config/default.yaml", "path to config file")
	flag.Parse()

	// Load config from YAML file
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	// Setup logger
	appLogger := logger.NewLogger(cfg.LogLevel, cfg.LogFile)
	defer appLogger.Sync()

	loc, err := time.LoadLocation(cfg.Scanner.Timezone)
	if err != nil {
		appLogger.Critical("Failed to load timezone %s: %v", cfg.Scanner.Timezone, err)
	}

	// 2. Session check: nothing to scan on a holiday
	cal := utils.NewTradingCalendar(loc)
	if !cal.IsTradingDay(time.Now()) {
		appLogger.Warning("Not a trading day, scanner will idle until ticks arrive")
	}

	// 3. Storage
	db, err := storage.NewDatabase(&cfg.Storage, appLogger)
	if err != nil {
		appLogger.Critical("Failed to init db: %v", err)
	}
	if err := db.Initialize(); err != nil {
		appLogger.Critical("Failed to migrate db: %v", err)
	}
	defer db.Close()
	if err := db.CleanupOldData(cfg.Storage.RetentionDays); err != nil {
		appLogger.Warning("Retention cleanup failed: %v", err)
	}

	// 4. Network + broker session
	nm := network.NewNetworkManager(&cfg.Network, appLogger)

	creds, err := config.LoadCredentials()
	if err != nil {
		appLogger.Critical("Failed to load credentials: %v", err)
	}
	session := smartstream.NewSession(creds, nm, appLogger)

	loginCtx, loginCancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := session.Login(loginCtx); err != nil {
		loginCancel()
		appLogger.Critical("Broker login failed: %v", err)
	}
	loginCancel()

	// 5. Universe
	watchlist := universe.LoadWatchlist(cfg.Universe.WatchlistPath, cfg.Universe.FullListPath,
		cfg.Universe.FallbackSampleSize, appLogger)

	tokens := make([]string, 0, len(watchlist)+len(universe.IndexTokens))
	for token := range watchlist {
		tokens = append(tokens, token)
	}
	for token := range universe.IndexTokens {
		tokens = append(tokens, token)
	}

	// 6. Pipeline
	histClient := history.NewClient(cfg.History.BaseURL, nm, session, appLogger)

	queue := engine.NewTickQueue(cfg.Scanner.QueueSize)
	bars := engine.NewBarStore(loc)
	ranges, err := engine.NewRangeTracker(loc, cfg.Scanner.OpeningRangeStart, cfg.Scanner.OpeningRangeEnd,
		cfg.Scanner.SyntheticBandPct, histClient, appLogger)
	if err != nil {
		appLogger.Critical("Failed to build range tracker: %v", err)
	}
	book := engine.NewSignalBook(cfg.Scanner.TopN)
	scorer := analysis.NewScorer(cfg.Scanner.MinBarsForScore)
	metrics := engine.NewMetrics()

	scanner := engine.NewScannerEngine(cfg.Scanner, loc, queue, bars, ranges, book, scorer,
		metrics, watchlist, universe.IndexTokens, appLogger)

	// 7. Server
	srv := server.NewScannerServer(cfg, scanner, appLogger)
	go func() {
		if err := srv.Start(); err != nil {
			appLogger.Error("Server failed: %v", err)
		}
	}()

	// 8. Start everything under one context
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	wg := &sync.WaitGroup{}

	wg.Add(1)
	go scanner.Run(ctx, wg)

	broadcaster := engine.NewBroadcaster(scanner, srv, db,
		time.Duration(cfg.Scanner.BroadcastSeconds)*time.Second, appLogger)
	wg.Add(1)
	go broadcaster.Run(ctx, wg)

	stream := smartstream.NewStream(cfg.Feed, session, tokens, appLogger)
	if err := stream.Start(ctx, queue, wg); err != nil {
		appLogger.Critical("Failed to start feed: %v", err)
	}

	appLogger.Info("%s running with %d instruments", cfg.Name, len(watchlist))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down...")
	stream.Stop()
	cancel()
	wg.Wait()
	appLogger.Info("Shutdown complete")
}
