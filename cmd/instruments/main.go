package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"orb-scanner/src/config"
	"orb-scanner/src/logger"
	"orb-scanner/src/network"
	"orb-scanner/src/universe"
)

// -----------------------------------------------------------------------------
// Instrument master downloader. Fetches the broker's scrip master and writes
// the filtered NSE equity list used by the pre-market builder and the
// watchlist fallback.
// -----------------------------------------------------------------------------

func main() {
	configPath := flag.String("config", "../../config/default.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	appLogger := logger.NewLogger(cfg.LogLevel, "")
	defer appLogger.Sync()

	if cfg.Universe.InstrumentMasterURL == "" {
		appLogger.Critical("universe.instrument_master_url is not configured")
	}
	if cfg.Universe.FullListPath == "" {
		appLogger.Critical("universe.full_list_path is not configured")
	}

	nm := network.NewNetworkManager(&cfg.Network, appLogger)
	downloader := &universe.Downloader{Network: nm, Logger: appLogger}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	count, err := downloader.DownloadEquityList(ctx, cfg.Universe.InstrumentMasterURL, cfg.Universe.IndexListURL, cfg.Universe.FullListPath)
	if err != nil {
		appLogger.Critical("Download failed: %v", err)
	}
	appLogger.Info("Wrote %d instruments to %s", count, cfg.Universe.FullListPath)
}
