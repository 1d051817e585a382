package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"orb-scanner/src/models"
)

// ----------------------------------------------------------------------------------
// YAML configuration loading / validation
// ----------------------------------------------------------------------------------

// LoadConfig reads the YAML config file, applies defaults and validates it.
func LoadConfig(path string) (*models.MConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg := defaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaultConfig() *models.MConfig {
	return &models.MConfig{
		Name:     "orb-scanner",
		Host:     "0.0.0.0",
		Port:     8080,
		LogLevel: "info",
		Storage: models.MStorageConfig{
			DBType:        "sqlite",
			DBPath:        "orb_scanner.db",
			RetentionDays: 30,
		},
		Network: models.MNetworkConfig{
			RequestTimeout: 15,
			MaxRetries:     3,
			UserAgent:      "orb-scanner/1.0",
		},
		Feed: models.MFeedConfig{
			ExchangeType:     1,
			HeartbeatSeconds: 25,
			ReconnectRetries: 5,
		},
		History: models.MHistoryConfig{
			MaxRetries:       3,
			BaseDelaySeconds: 1,
		},
		Scanner: models.MScannerConfig{
			Timezone:           "Asia/Kolkata",
			OpeningRangeStart:  "09:15",
			OpeningRangeEnd:    "09:30",
			SpreadThresholdPct: 0.5,
			SyntheticBandPct:   0.2,
			MinBarsForScore:    30,
			TopN:               20,
			BroadcastSeconds:   2,
			QueueSize:          10000,
		},
		Universe: models.MUniverseConfig{
			WatchlistPath:      "watchlist.json",
			FallbackSampleSize: 25,
		},
	}
}

// Validate checks the fields an operator is most likely to get wrong.
func Validate(cfg *models.MConfig) error {
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return fmt.Errorf("config: invalid port %d", cfg.Port)
	}
	if _, err := time.LoadLocation(cfg.Scanner.Timezone); err != nil {
		return fmt.Errorf("config: invalid timezone %q: %w", cfg.Scanner.Timezone, err)
	}
	if _, err := time.Parse("15:04", cfg.Scanner.OpeningRangeStart); err != nil {
		return fmt.Errorf("config: invalid opening_range_start %q", cfg.Scanner.OpeningRangeStart)
	}
	if _, err := time.Parse("15:04", cfg.Scanner.OpeningRangeEnd); err != nil {
		return fmt.Errorf("config: invalid opening_range_end %q", cfg.Scanner.OpeningRangeEnd)
	}
	if cfg.Scanner.OpeningRangeEnd <= cfg.Scanner.OpeningRangeStart {
		return fmt.Errorf("config: opening_range_end %q must be after opening_range_start %q",
			cfg.Scanner.OpeningRangeEnd, cfg.Scanner.OpeningRangeStart)
	}
	if cfg.Scanner.SpreadThresholdPct <= 0 {
		return fmt.Errorf("config: spread_threshold_pct must be positive")
	}
	if cfg.Scanner.MinBarsForScore < 2 {
		return fmt.Errorf("config: min_bars_for_score must be at least 2")
	}
	if cfg.Scanner.QueueSize <= 0 {
		return fmt.Errorf("config: queue_size must be positive")
	}
	if cfg.Scanner.BroadcastSeconds <= 0 {
		return fmt.Errorf("config: broadcast_seconds must be positive")
	}
	switch cfg.Storage.DBType {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("config: unsupported db_type %q", cfg.Storage.DBType)
	}
	return nil
}

// Save writes the config back out, preserving struct order.
func Save(cfg *models.MConfig, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
