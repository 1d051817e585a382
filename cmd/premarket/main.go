package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"orb-scanner/src/config"
	"orb-scanner/src/data_source/smartstream"
	"orb-scanner/src/history"
	"orb-scanner/src/logger"
	"orb-scanner/src/network"
	"orb-scanner/src/universe"
	"orb-scanner/src/utils"
)

// -----------------------------------------------------------------------------
// Pre-market watchlist builder. Run once before the open; writes the
// token -> {symbol, bias} map the scanner reads at startup.
// -----------------------------------------------------------------------------

func main() {
	configPath := flag.String("config", "../../config/default.yaml", "path to config file")
	minATR := flag.Float64("min-atr", 1.5, "minimum daily ATR percent of close")
	topPerSide := flag.Int("top", 50, "maximum instruments per bias side")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	appLogger := logger.NewLogger(cfg.LogLevel, "")
	defer appLogger.Sync()

	loc, err := time.LoadLocation(cfg.Scanner.Timezone)
	if err != nil {
		appLogger.Critical("Failed to load timezone: %v", err)
	}

	nm := network.NewNetworkManager(&cfg.Network, appLogger)

	creds, err := config.LoadCredentials()
	if err != nil {
		appLogger.Critical("Failed to load credentials: %v", err)
	}
	session := smartstream.NewSession(creds, nm, appLogger)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Minute)
	defer cancel()

	if err := session.Login(ctx); err != nil {
		appLogger.Critical("Broker login failed: %v", err)
	}

	instruments, err := universe.LoadEquityList(cfg.Universe.FullListPath)
	if err != nil {
		appLogger.Critical("Failed to load equity list %s (run the instruments downloader first): %v",
			cfg.Universe.FullListPath, err)
	}

	builder := &universe.Builder{
		History:    history.NewClient(cfg.History.BaseURL, nm, session, appLogger),
		Calendar:   utils.NewTradingCalendar(loc),
		Logger:     appLogger,
		MinATRPct:  *minATR,
		TopPerSide: *topPerSide,
	}

	watchlist := builder.Build(ctx, instruments, time.Now().In(loc))
	if len(watchlist) == 0 {
		appLogger.Critical("Pre-market build produced an empty watchlist")
	}

	if err := universe.SaveWatchlist(cfg.Universe.WatchlistPath, watchlist); err != nil {
		appLogger.Critical("Failed to write watchlist: %v", err)
	}
	appLogger.Info("Wrote %d instruments to %s", len(watchlist), cfg.Universe.WatchlistPath)
}
