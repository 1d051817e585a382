package universe

import (
	"encoding/json"
	"fmt"
	"os"

	"orb-scanner/src/logger"
	"orb-scanner/src/models"
)

// ----------------------------------------------------------------------------------
// Watchlist loading. The pre-market job writes watchlist.json daily; if it is
// missing the scanner falls back to a sample of the full instrument list, and
// as a last resort to a single hardcoded liquid name so the pipeline always
// has something to track.
// ----------------------------------------------------------------------------------

// IndexTokens maps feed tokens to the display names of tracked indices.
var IndexTokens = map[string]string{
	"26000": "NIFTY 50",
	"26009": "BANK NIFTY",
}

// LoadWatchlist reads the token -> instrument map from path, falling back to
// a sample of the full list file when absent.
func LoadWatchlist(path, fullListPath string, sampleSize int, log *logger.Logger) map[string]models.MInstrument {
	if wl, err := readWatchlistFile(path); err == nil && len(wl) > 0 {
		log.Info("loaded %d instruments from %s", len(wl), path)
		return wl
	} else if err != nil && !os.IsNotExist(err) {
		log.Warning("watchlist %s unreadable: %v", path, err)
	}

	if fullListPath != "" {
		if wl, err := sampleFullList(fullListPath, sampleSize); err == nil && len(wl) > 0 {
			log.Warning("watchlist missing, sampled %d instruments from %s", len(wl), fullListPath)
			return wl
		}
	}

	log.Warning("no watchlist available, tracking default instrument only")
	return map[string]models.MInstrument{
		"2885": {Symbol: "RELIANCE-EQ", Bias: models.BiasBullish},
	}
}

func readWatchlistFile(path string) (map[string]models.MInstrument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var wl map[string]models.MInstrument
	if err := json.Unmarshal(data, &wl); err != nil {
		return nil, fmt.Errorf("parse watchlist %s: %w", path, err)
	}
	for token, inst := range wl {
		if inst.Symbol == "" || (inst.Bias != models.BiasBullish && inst.Bias != models.BiasBearish) {
			delete(wl, token)
		}
	}
	return wl, nil
}

// sampleFullList takes the first sampleSize entries of the full instrument
// list and marks them Bullish; a crude stand-in until the pre-market job has
// run.
func sampleFullList(path string, sampleSize int) (map[string]models.MInstrument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var entries []MInstrumentRecord
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse full list %s: %w", path, err)
	}

	if sampleSize <= 0 {
		sampleSize = 25
	}
	wl := make(map[string]models.MInstrument, sampleSize)
	for _, e := range entries {
		if len(wl) >= sampleSize {
			break
		}
		if e.Token == "" || e.Symbol == "" {
			continue
		}
		wl[e.Token] = models.MInstrument{Symbol: e.Symbol, Bias: models.BiasBullish}
	}
	return wl, nil
}

// SaveWatchlist writes the map out for the scanner to pick up.
func SaveWatchlist(path string, wl map[string]models.MInstrument) error {
	data, err := json.MarshalIndent(wl, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal watchlist: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
