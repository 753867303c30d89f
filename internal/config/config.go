package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	DB        DBConfig        `mapstructure:"db"`
	Provider  ProviderConfig  `mapstructure:"provider"`
	Fetch     FetchConfig     `mapstructure:"fetch"`
	Analytics AnalyticsConfig `mapstructure:"analytics"`
	Scanner   ScannerConfig   `mapstructure:"scanner"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
}

type AppConfig struct {
	Env string `mapstructure:"env"`
}

type ServerConfig struct {
	HTTPAddr string `mapstructure:"http_addr"`
}

type LogConfig struct {
	Level             string `mapstructure:"level"`
	Encoding          string `mapstructure:"encoding"`
	Development       bool   `mapstructure:"development"`
	Sampling          bool   `mapstructure:"sampling"`
	DisableCaller     bool   `mapstructure:"disable_caller"`
	DisableStacktrace bool   `mapstructure:"disable_stacktrace"`
}

type DBConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	Timezone        string        `mapstructure:"timezone"`
}

type ProviderConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	Timeout        time.Duration `mapstructure:"timeout"`
	APIKeyEnv      string        `mapstructure:"api_key_env"`
	CallsPerMinute int           `mapstructure:"calls_per_minute"`
}

type FetchConfig struct {
	MaxRetries       int           `mapstructure:"max_retries"`
	BackoffBase      time.Duration `mapstructure:"backoff_base"`
	BackoffMax       time.Duration `mapstructure:"backoff_max"`
	BarsLookbackDays int           `mapstructure:"bars_lookback_days"`
}

type AnalyticsConfig struct {
	RiskFreeRate  float64 `mapstructure:"risk_free_rate"`
	DividendYield float64 `mapstructure:"dividend_yield"`
	// IVPercentileInclusive counts observations equal to the current IV as
	// below it. Default false: strictly-below.
	IVPercentileInclusive bool `mapstructure:"iv_percentile_inclusive"`
	IVHistoryDays         int  `mapstructure:"iv_history_days"`
}

type ScannerConfig struct {
	MinScore        float64 `mapstructure:"min_score"`
	MinVolume       int64   `mapstructure:"min_volume"`
	MinOpenInterest int64   `mapstructure:"min_open_interest"`
}

type SchedulerConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Timezone string `mapstructure:"timezone"`

	SessionOpen  string   `mapstructure:"session_open"`
	SessionClose string   `mapstructure:"session_close"`
	Holidays     []string `mapstructure:"holidays"`

	QuickUpdate        string        `mapstructure:"quick_update"`
	EndOfDayUpdate     string        `mapstructure:"end_of_day_update"`
	WeekendAnalysis    string        `mapstructure:"weekend_analysis"`
	ContinuousInterval time.Duration `mapstructure:"continuous_interval"`

	ShutdownGrace time.Duration `mapstructure:"shutdown_grace"`
}

func Load(path string, envOnly bool) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("OT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.AutomaticEnv()

	v.SetDefault("app.env", "dev")
	v.SetDefault("server.http_addr", ":8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "console")
	v.SetDefault("log.development", true)
	v.SetDefault("log.sampling", false)
	v.SetDefault("log.disable_caller", false)
	v.SetDefault("log.disable_stacktrace", false)
	v.SetDefault("db.max_open_conns", 20)
	v.SetDefault("db.max_idle_conns", 5)
	v.SetDefault("db.conn_max_lifetime", "30m")
	v.SetDefault("db.conn_max_idle_time", "5m")
	v.SetDefault("db.timezone", "UTC")

	v.SetDefault("provider.base_url", "https://restapi.ivolatility.com")
	v.SetDefault("provider.timeout", "15s")
	v.SetDefault("provider.api_key_env", "IVOL_API_KEY")
	v.SetDefault("provider.calls_per_minute", 60)

	v.SetDefault("fetch.max_retries", 3)
	v.SetDefault("fetch.backoff_base", "500ms")
	v.SetDefault("fetch.backoff_max", "8s")
	v.SetDefault("fetch.bars_lookback_days", 60)

	v.SetDefault("analytics.risk_free_rate", 0.05)
	v.SetDefault("analytics.dividend_yield", 0.0)
	v.SetDefault("analytics.iv_percentile_inclusive", false)
	v.SetDefault("analytics.iv_history_days", 365)

	v.SetDefault("scanner.min_score", 50.0)
	v.SetDefault("scanner.min_volume", 10)
	v.SetDefault("scanner.min_open_interest", 50)

	v.SetDefault("scheduler.enabled", true)
	v.SetDefault("scheduler.timezone", "America/New_York")
	v.SetDefault("scheduler.session_open", "09:30")
	v.SetDefault("scheduler.session_close", "16:00")
	v.SetDefault("scheduler.quick_update", "*/15 9-16 * * 1-5")
	v.SetDefault("scheduler.end_of_day_update", "30 16 * * 1-5")
	v.SetDefault("scheduler.weekend_analysis", "0 10 * * 6")
	v.SetDefault("scheduler.continuous_interval", "20m")
	v.SetDefault("scheduler.shutdown_grace", "30s")

	if !envOnly {
		if err := v.ReadInConfig(); err != nil {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}
