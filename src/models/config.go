package models

// MConfig Structure
type MConfig struct {
	Name     string          `yaml:"name"`
	Host     string          `yaml:"host"`
	Port     int             `yaml:"port"`
	LogLevel string          `yaml:"log_level"`
	LogFile  string          `yaml:"log_file"`
	Storage  MStorageConfig  `yaml:"storage"`
	Network  MNetworkConfig  `yaml:"network"`
	Feed     MFeedConfig     `yaml:"feed"`
	History  MHistoryConfig  `yaml:"history"`
	Scanner  MScannerConfig  `yaml:"scanner"`
	Universe MUniverseConfig `yaml:"universe"`
}

type MStorageConfig struct {
	DBType             string `yaml:"db_type"`
	DBPath             string `yaml:"db_path"`
	DBConnectionString string `yaml:"db_connection_string"`
	RetentionDays      int    `yaml:"retention_days"`
}

type MNetworkConfig struct {
	RequestTimeout int    `yaml:"timeout"`
	MaxRetries     int    `yaml:"retries"`
	UserAgent      string `yaml:"user_agent"`
}

type MFeedConfig struct {
	WSURL            string `yaml:"ws_url"`
	ExchangeType     int    `yaml:"exchange_type"`
	HeartbeatSeconds int    `yaml:"heartbeat_seconds"`
	ReconnectRetries int    `yaml:"reconnect_retries"`
}

type MHistoryConfig struct {
	BaseURL          string `yaml:"base_url"`
	MaxRetries       int    `yaml:"retries"`
	BaseDelaySeconds int    `yaml:"base_delay_seconds"`
}

type MScannerConfig struct {
	Timezone           string  `yaml:"timezone"`             // e.g. "Asia/Kolkata"
	OpeningRangeStart  string  `yaml:"opening_range_start"`  // "09:15"
	OpeningRangeEnd    string  `yaml:"opening_range_end"`    // "09:30"
	SpreadThresholdPct float64 `yaml:"spread_threshold_pct"` // default 0.5
	SyntheticBandPct   float64 `yaml:"synthetic_band_pct"`   // default 0.2
	MinBarsForScore    int     `yaml:"min_bars_for_score"`   // default 30
	TopN               int     `yaml:"top_n"`                // signals per side in a snapshot
	BroadcastSeconds   int     `yaml:"broadcast_seconds"`    // publish cadence
	QueueSize          int     `yaml:"queue_size"`           // tick queue capacity
}

type MUniverseConfig struct {
	WatchlistPath       string `yaml:"watchlist_path"`
	FullListPath        string `yaml:"full_list_path"`
	FallbackSampleSize  int    `yaml:"fallback_sample_size"`
	InstrumentMasterURL string `yaml:"instrument_master_url"`
	IndexListURL        string `yaml:"index_list_url"`
}
