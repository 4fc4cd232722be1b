package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

const (
	configFilePathENV = "CONFIG_FILE"
	tokenTelegramENV  = "TELEGRAM_TOKEN"
	chatTelegramENV   = "TELEGRAM_CHAT_ID"
	databaseDSN       = "DATABASE_DSN"
	symbolsENV        = "SYMBOLS"
)

// Config ...
type Config struct {
	Telegram struct {
		Token  string `yaml:"token"`
		ChatID int64  `yaml:"chat_id"`
	} `yaml:"telegram"`
	DB     string `yaml:"db_dsn"`
	DBPool struct {
		MaxConns        int32         `yaml:"max_conns"`
		MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time"`
	} `yaml:"db_pool"`
	Service struct {
		Name       string `yaml:"name"`
		Host       string `yaml:"host"`
		PublicPort int    `yaml:"public_port"`
		AdminPort  int    `yaml:"admin_port"`
	} `yaml:"service"`

	// Trading session of the exchange. Evaluation runs only inside [Open, Close].
	Market struct {
		Timezone string `yaml:"timezone"`
		Open     string `yaml:"open"`
		Close    string `yaml:"close"`
		Schedule string `yaml:"schedule"` // cron with seconds field
	} `yaml:"market"`

	MarketData struct {
		BaseURL   string        `yaml:"base_url"`
		Countback int           `yaml:"countback"`
		Timeout   time.Duration `yaml:"timeout"`
		Parallel  int           `yaml:"parallel"`
	} `yaml:"market_data"`

	Symbols     []string `yaml:"symbols"`
	PresetsFile string   `yaml:"presets_file"`

	Strategy struct {
		EventBuffer   int           `yaml:"event_buffer"`
		ProgressEvery time.Duration `yaml:"progress_every"`
	} `yaml:"strategy"`

	// empty path disables the local trade journal
	Recorder struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"recorder"`

	Tracing struct {
		Enabled bool   `yaml:"enabled"`
		Host    string `yaml:"host"`
		Port    int    `yaml:"port"`
	} `yaml:"tracing"`

	LogLevel string `yaml:"log_level"`
}

func defaults() Config {
	var c Config
	c.Service.Name = "trade_engine"
	c.Service.Host = getenvDefault("SERVICE_HOST", "0.0.0.0")
	c.Service.PublicPort = intFromEnv("PUBLIC_PORT", 5000)
	c.Service.AdminPort = intFromEnv("ADMIN_PORT", 8080)

	c.DBPool.MaxConns = int32(intFromEnv("DB_MAX_CONNS", 8))
	c.DBPool.MaxConnIdleTime = durationFromEnv("DB_MAX_CONN_IDLE", "5m")

	c.Market.Timezone = getenvDefault("MARKET_TZ", "Asia/Kolkata")
	c.Market.Open = getenvDefault("MARKET_OPEN", "09:15")
	c.Market.Close = getenvDefault("MARKET_CLOSE", "15:28")
	c.Market.Schedule = getenvDefault("MARKET_SCHEDULE", "0 */5 * * * 1-5")

	c.MarketData.BaseURL = getenvDefault("MARKET_DATA_URL", "https://priceapi.moneycontrol.com/techCharts/indianMarket/stock/history")
	c.MarketData.Countback = intFromEnv("MARKET_DATA_COUNTBACK", 4000)
	c.MarketData.Timeout = durationFromEnv("MARKET_DATA_TIMEOUT", "15s")
	c.MarketData.Parallel = intFromEnv("MARKET_DATA_PARALLEL", 8)

	c.Symbols = []string{"TATAMOTORS", "TATASTEEL"}
	c.PresetsFile = getenvDefault("PRESETS_FILE", "configs/presets.yaml")

	c.Strategy.EventBuffer = intFromEnv("EVENT_BUFFER", 4096)
	c.Strategy.ProgressEvery = durationFromEnv("WARMUP_PROGRESS_EVERY", "30s")

	c.Recorder.SQLitePath = os.Getenv("RECORDER_SQLITE")

	c.Tracing.Enabled = boolFromEnv("TRACING_ENABLED", false)
	c.Tracing.Host = getenvDefault("JAEGER_HOST", "localhost")
	c.Tracing.Port = intFromEnv("JAEGER_PORT", 6831)

	c.LogLevel = getenvDefault("LOG_LEVEL", "info")
	return c
}

func NewConfig() (*Config, error) {
	_ = godotenv.Load()

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

	config := defaults()
	if err = yaml.NewDecoder(file).Decode(&config); err != nil {
		log.Fatalf("Failed to decode config file: %v", err)
	}
	config.applyEnv()
	return &config, nil
}

func (c *Config) applyEnv() {
	if token := os.Getenv(tokenTelegramENV); token != "" {
		c.Telegram.Token = token
	}
	if v := os.Getenv(chatTelegramENV); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.Telegram.ChatID = id
		}
	}
	if dsn := os.Getenv(databaseDSN); dsn != "" {
		c.DB = dsn
	}
	if v := os.Getenv(symbolsENV); v != "" {
		c.Symbols = splitSymbols(v)
	}
}

// Location of the market clock; UTC when the zone is unknown.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Market.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func splitSymbols(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.ToUpper(strings.TrimSpace(s)); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func intFromEnv(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func boolFromEnv(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if v == "1" || v == "true" || v == "TRUE" {
			return true
		}
		if v == "0" || v == "false" || v == "FALSE" {
			return false
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
