package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App     AppConfig     `mapstructure:"app"`
	Server  ServerConfig  `mapstructure:"server"`
	Log     LogConfig     `mapstructure:"log"`
	DB      DBConfig      `mapstructure:"db"`
	Cron    CronConfig    `mapstructure:"cron"`
	Fanbox  FanboxConfig  `mapstructure:"fanbox"`
	Browser BrowserConfig `mapstructure:"browser"`
	Cookies CookiesConfig `mapstructure:"cookies"`
	Cache   CacheConfig   `mapstructure:"cache"`
	Tracing TracingConfig `mapstructure:"tracing"`
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

type CronConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	CreatorSync string `mapstructure:"creator_sync"`
}

// FanboxConfig describes the upstream site and the sync budgets.
type FanboxConfig struct {
	APIBaseURL      string        `mapstructure:"api_base_url"`
	WWWBaseURL      string        `mapstructure:"www_base_url"`
	UserAgent       string        `mapstructure:"user_agent"`
	Timeout         time.Duration `mapstructure:"timeout"`
	RatePerSecond   float64       `mapstructure:"rate_per_second"`
	Burst           int           `mapstructure:"burst"`
	PageSize        int           `mapstructure:"page_size"`
	PostLimit       int           `mapstructure:"post_limit"`
	CreatorDeadline time.Duration `mapstructure:"creator_deadline"`
	PostDeadline    time.Duration `mapstructure:"post_deadline"`
	CursorTimezone  string        `mapstructure:"cursor_timezone"`
}

type BrowserConfig struct {
	Enabled           bool          `mapstructure:"enabled"`
	Bin               string        `mapstructure:"bin"`
	ControlURL        string        `mapstructure:"control_url"`
	Headless          bool          `mapstructure:"headless"`
	UserDataDir       string        `mapstructure:"user_data_dir"`
	NavigationTimeout time.Duration `mapstructure:"navigation_timeout"`
	PollAttempts      int           `mapstructure:"poll_attempts"`
	PollInterval      time.Duration `mapstructure:"poll_interval"`
}

type CookiesConfig struct {
	File  string `mapstructure:"file"`
	Watch bool   `mapstructure:"watch"`
}

type CacheConfig struct {
	RedisAddr   string        `mapstructure:"redis_addr"`
	RedisDB     int           `mapstructure:"redis_db"`
	ResolverTTL time.Duration `mapstructure:"resolver_ttl"`
}

type TracingConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Endpoint    string `mapstructure:"endpoint"`
	ServiceName string `mapstructure:"service_name"`
}

func Load(path string, envOnly bool) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("FV")
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
	v.SetDefault("db.dsn", "fanboxviewer.db")
	v.SetDefault("db.max_open_conns", 1)
	v.SetDefault("db.max_idle_conns", 1)
	v.SetDefault("db.conn_max_lifetime", "30m")
	v.SetDefault("db.conn_max_idle_time", "5m")
	v.SetDefault("db.timezone", "")
	v.SetDefault("cron.enabled", false)
	v.SetDefault("cron.creator_sync", "0 0 */6 * * *")

	v.SetDefault("fanbox.api_base_url", "https://api.fanbox.cc")
	v.SetDefault("fanbox.www_base_url", "https://www.fanbox.cc")
	v.SetDefault("fanbox.user_agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36")
	v.SetDefault("fanbox.timeout", "30s")
	v.SetDefault("fanbox.rate_per_second", 2.0)
	v.SetDefault("fanbox.burst", 4)
	v.SetDefault("fanbox.page_size", 50)
	v.SetDefault("fanbox.post_limit", 5000)
	v.SetDefault("fanbox.creator_deadline", "20s")
	v.SetDefault("fanbox.post_deadline", "60s")
	v.SetDefault("fanbox.cursor_timezone", "Local")

	v.SetDefault("browser.enabled", true)
	v.SetDefault("browser.bin", "")
	v.SetDefault("browser.control_url", "")
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.user_data_dir", "")
	v.SetDefault("browser.navigation_timeout", "30s")
	v.SetDefault("browser.poll_attempts", 40)
	v.SetDefault("browser.poll_interval", "500ms")

	v.SetDefault("cookies.file", "")
	v.SetDefault("cookies.watch", true)

	v.SetDefault("cache.redis_addr", "")
	v.SetDefault("cache.redis_db", 0)
	v.SetDefault("cache.resolver_ttl", "24h")

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.endpoint", "")
	v.SetDefault("tracing.service_name", "fanboxviewer")

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

// CursorLocation returns the zone used to format pagination timestamps.
func (c FanboxConfig) CursorLocation() *time.Location {
	name := strings.TrimSpace(c.CursorTimezone)
	if name == "" || strings.EqualFold(name, "local") {
		return time.Local
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.Local
	}
	return loc
}
