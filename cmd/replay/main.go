package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"time"

	"orb-scanner/src/analysis"
	"orb-scanner/src/config"
	"orb-scanner/src/engine"
	"orb-scanner/src/logger"
	"orb-scanner/src/models"
)

// -----------------------------------------------------------------------------
// Synthetic feed replay. Drives the full pipeline with generated ticks for a
// compressed session, then prints the resulting snapshot. Useful for eyeball
// checks without broker credentials or market hours.
// -----------------------------------------------------------------------------

func main() {
	configPath := flag.String("config", "../../config/default.yaml", "path to config file")
	seed := flag.Int64("seed", 42, "rng seed")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	appLogger := logger.NewLogger("debug", "")
	defer appLogger.Sync()

	loc, _ := time.LoadLocation(cfg.Scanner.Timezone)
	rng := rand.New(rand.NewSource(*seed))

	watchlist := map[string]models.MInstrument{
		"2885":  {Symbol: "RELIANCE-EQ", Bias: models.BiasBullish},
		"11536": {Symbol: "TCS-EQ", Bias: models.BiasBearish},
	}
	indexNames := map[string]string{"26000": "NIFTY 50"}

	queue := engine.NewTickQueue(cfg.Scanner.QueueSize)
	bars := engine.NewBarStore(loc)
	ranges, err := engine.NewRangeTracker(loc, cfg.Scanner.OpeningRangeStart, cfg.Scanner.OpeningRangeEnd,
		cfg.Scanner.SyntheticBandPct, nil, appLogger)
	if err != nil {
		appLogger.Critical("range tracker: %v", err)
	}
	book := engine.NewSignalBook(cfg.Scanner.TopN)
	scorer := analysis.NewScorer(cfg.Scanner.MinBarsForScore)
	scanner := engine.NewScannerEngine(cfg.Scanner, loc, queue, bars, ranges, book, scorer,
		engine.NewMetrics(), watchlist, indexNames, appLogger)

	// One synthetic session: open through 11:00, one tick per instrument per
	// 10 simulated seconds, with a drift that forces a breakout on both names.
	now := time.Now().In(loc)
	start := time.Date(now.Year(), now.Month(), now.Day(), 9, 15, 0, 0, loc)
	base := map[string]float64{"2885": 2500.00, "11536": 4100.00, "26000": 24500.00}

	for elapsed := time.Duration(0); elapsed < 105*time.Minute; elapsed += 10 * time.Second {
		ts := start.Add(elapsed)
		for token, px := range base {
			drift := elapsed.Minutes() * 0.05
			if watchlist[token].Bias == models.BiasBearish {
				drift = -drift
			}
			noise := (rng.Float64() - 0.5) * 0.2
			price := int64((px + drift + noise) * 100)

			scanner.ProcessRaw(models.MRawTick{
				Token:             token,
				LastTradedPrice:   price,
				OpenPrice:         int64(px * 100),
				VolumeTradedToday: int64(1000 * (elapsed.Seconds()/10 + 1)),
				BestBidPrice:      price - 5,
				BestAskPrice:      price + 5,
				HasDepth:          true,
				EventTime:         ts,
			})
		}
	}

	bullish, bearish, indices := book.Snapshot()
	fmt.Printf("\nbullish: %+v\nbearish: %+v\nindices: %+v\n", bullish, bearish, indices)
	fmt.Printf("metrics: %+v\n", scanner.MetricsSnapshot())
}
