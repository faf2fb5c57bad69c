package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v2"
)

const (
	configFilePathENV = "CONFIG_FILE"
	tokenTelegramENV  = "TELEGRAM_TOKEN"
	databaseDSN       = "DATABASE_DSN"
)

type Config struct {
	DB string `yaml:"db_dsn"`

	Venue struct {
		BaseURL     string        `yaml:"base_url"`
		WSURL       string        `yaml:"ws_url"`
		HTTPTimeout time.Duration
		QuoteAsset  string        `yaml:"quote_asset"`
	} `yaml:"venue"`

	// Seed instruments; also the first-run fallback for the universe cache.
	Symbols    []string `yaml:"symbols"`
	Timeframes []string `yaml:"timeframes"`

	// Monitor caches
	UniverseTTL time.Duration
	StatsTTL    time.Duration
	TopN        int           `yaml:"top_n"`
	PriceFloor  float64       `yaml:"price_floor"`

	// Session trending
	TrendingTTL      time.Duration
	LossThresholdPct float64       `yaml:"loss_threshold_pct"`
	RecoveryPct      float64       `yaml:"recovery_pct"`

	// Ingestion cadences
	CandlePollInterval    time.Duration
	OrderBookPollInterval time.Duration
	TickPollInterval      time.Duration
	CandleLookback        int           `yaml:"candle_lookback"`
	OrderBookLevels       int           `yaml:"orderbook_levels"`

	// Candle features
	FeatureFastPeriod int `yaml:"feature_fast_period"`
	FeatureSlowPeriod int `yaml:"feature_slow_period"`

	Telegram struct {
		Token  string `yaml:"token"`
		ChatID int64  `yaml:"chat_id"`
	} `yaml:"telegram"`

	Jaeger struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
	} `yaml:"jaeger"`

	HealthAddr string `yaml:"health_addr"`
}

func NewConfig() (*Config, error) {

	configFileName := os.Getenv(configFilePathENV)
	if configFileName == "" {
		configFileName = "values_local.yaml"
	}
	file, err := os.Open("configs/" + configFileName)
	if err != nil {
		log.Fatalf("Failed to open config file: %v", err)
	}

	defer func() {
		_ = file.Close()
	}()

	decoder := yaml.NewDecoder(file)
	config := Config{
		Symbols:    []string{"BTCUSDT", "ETHUSDT"},
		Timeframes: []string{"1m", "5m", "15m", "1h", "1d"},

		UniverseTTL: durationFromEnv("USDT_UNIVERSE_REFRESH", "30m"),
		StatsTTL:    durationFromEnv("TOP24H_REFRESH", "20s"),
		TopN:        intFromEnv("TOP24H_TOPN", 200),
		PriceFloor:  floatFromEnv("TOP24H_PRICE_FLOOR", 0.0001),

		TrendingTTL:      durationFromEnv("TRENDING_REFRESH", "10s"),
		LossThresholdPct: floatFromEnv("MONITOR_LOSS_THRESHOLD_PCT", 2.0),
		RecoveryPct:      floatFromEnv("MONITOR_RECOVERY_PCT", 0.5),

		CandlePollInterval:    durationFromEnv("CANDLE_POLL_INTERVAL", "60s"),
		OrderBookPollInterval: durationFromEnv("ORDERBOOK_POLL_INTERVAL", "2s"),
		TickPollInterval:      durationFromEnv("TICK_POLL_INTERVAL", "5s"),
		CandleLookback:        intFromEnv("CANDLE_LOOKBACK", 200),
		OrderBookLevels:       intFromEnv("ORDERBOOK_LEVELS", 20),

		FeatureFastPeriod: intFromEnv("FEATURE_FAST_PERIOD", 9),
		FeatureSlowPeriod: intFromEnv("FEATURE_SLOW_PERIOD", 21),

		HealthAddr: getenvDefault("HEALTH_ADDR", ":8080"),
	}
	err = decoder.Decode(&config)
	if err != nil {
		log.Fatalf("Failed to decode config file: %v", err)
	}

	config.Venue.HTTPTimeout = durationFromEnv("VENUE_HTTP_TIMEOUT", "10s")

	token := os.Getenv(tokenTelegramENV)
	if token != "" {
		config.Telegram.Token = token
	}

	dsn := os.Getenv(databaseDSN)
	if dsn != "" {
		config.DB = dsn
	}

	return &config, nil
}

func intFromEnv(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func floatFromEnv(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func durationFromEnv(key, def string) time.Duration {
	val := getenvDefault(key, def)
	d, err := time.ParseDuration(val)
	if err != nil {
		d, _ = time.ParseDuration(def)
	}
	return d
}
