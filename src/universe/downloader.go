package universe

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"orb-scanner/src/interfaces"
	"orb-scanner/src/logger"
)

// ----------------------------------------------------------------------------------
// Instrument master download. The broker publishes the full scrip master as
// one large JSON array; we keep only NSE cash equities, optionally intersect
// them with an exchange index membership CSV, and write a compact local list
// the watchlist fallback and the pre-market job read.
// ----------------------------------------------------------------------------------

// MInstrumentRecord is one entry of the broker's scrip master.
type MInstrumentRecord struct {
	Token    string `json:"token"`
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	ExchSeg  string `json:"exch_seg"`
	InstType string `json:"instrumenttype"`
	TickSize string `json:"tick_size"`
	LotSize  string `json:"lotsize"`
}

type Downloader struct {
	Network interfaces.INetworkManager
	Logger  *logger.Logger
}

// DownloadEquityList fetches the scrip master from url, filters it to NSE
// cash equities and writes the result to outPath. When indexURL is set the
// list is further intersected with that index's membership CSV, so only
// constituents survive. Returns the kept count.
func (d *Downloader) DownloadEquityList(ctx context.Context, url, indexURL, outPath string) (int, error) {
	body, err := d.Network.Get(ctx, url)
	if err != nil {
		return 0, err
	}

	var all []MInstrumentRecord
	if err := json.Unmarshal(body, &all); err != nil {
		return 0, fmt.Errorf("universe: parse scrip master: %w", err)
	}

	var members map[string]bool
	if indexURL != "" {
		members, err = d.fetchIndexMembers(ctx, indexURL)
		if err != nil {
			return 0, err
		}
	}

	kept := make([]MInstrumentRecord, 0, 2048)
	for _, rec := range all {
		if rec.ExchSeg != "NSE" || rec.Token == "" || rec.Symbol == "" {
			continue
		}
		// Cash equities carry an empty instrument type in the master.
		if rec.InstType != "" {
			continue
		}
		if members != nil && !members[baseSymbol(rec.Symbol)] {
			continue
		}
		kept = append(kept, rec)
	}

	data, err := json.Marshal(kept)
	if err != nil {
		return 0, fmt.Errorf("universe: marshal equity list: %w", err)
	}
	if err := os.WriteFile(outPath, data, 0o644); err != nil {
		return 0, fmt.Errorf("universe: write %s: %w", outPath, err)
	}

	d.Logger.Info("instrument master: kept %d of %d entries", len(kept), len(all))
	return len(kept), nil
}

// fetchIndexMembers parses an index membership CSV (header row with a
// "Symbol" column, as the exchange publishes them) into a symbol set.
func (d *Downloader) fetchIndexMembers(ctx context.Context, url string) (map[string]bool, error) {
	body, err := d.Network.Get(ctx, url)
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(bytes.NewReader(body))
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("universe: read index CSV header: %w", err)
	}
	symbolCol := -1
	for i, name := range header {
		if strings.EqualFold(strings.TrimSpace(name), "Symbol") {
			symbolCol = i
			break
		}
	}
	if symbolCol < 0 {
		return nil, fmt.Errorf("universe: index CSV has no Symbol column")
	}

	members := make(map[string]bool, 256)
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("universe: read index CSV: %w", err)
		}
		if symbolCol >= len(row) {
			continue
		}
		if sym := strings.TrimSpace(row[symbolCol]); sym != "" {
			members[sym] = true
		}
	}
	d.Logger.Info("index membership: %d constituents", len(members))
	return members, nil
}

// baseSymbol strips the series suffix ("RELIANCE-EQ" -> "RELIANCE") so the
// scrip master symbol can be matched against the index CSV.
func baseSymbol(symbol string) string {
	if i := strings.IndexByte(symbol, '-'); i > 0 {
		return symbol[:i]
	}
	return symbol
}

// LoadEquityList reads a previously downloaded list.
func LoadEquityList(path string) ([]MInstrumentRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var entries []MInstrumentRecord
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("universe: parse %s: %w", path, err)
	}
	return entries, nil
}
