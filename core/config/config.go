package config

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"schedule-agent/core/constants"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	Config struct {
		Server    ServerConfig    `mapstructure:"server"`
		Log       LogConfig       `mapstructure:"log"`
		Database  DatabaseConfig  `mapstructure:"database"`
		Redis     RedisConfig     `mapstructure:"redis"`
		Queue     QueueConfig     `mapstructure:"queue"`
		Schedule  ScheduleConfig  `mapstructure:"schedule"`
		GoogleAPI GoogleAPIConfig `mapstructure:"google_api"`
		Email     EmailConfig     `mapstructure:"email"`
		LLM       LLMConfig       `mapstructure:"llm"`
		Storage   StorageConfig   `mapstructure:"storage"`
		Security  SecurityConfig  `mapstructure:"security"`
	}

	ServerConfig struct {
		Host           string   `mapstructure:"host"`
		Port           int      `mapstructure:"port"`
		Env            string   `mapstructure:"env"`
		BaseURL        string   `mapstructure:"base_url"`
		AutoTLSDomains []string `mapstructure:"auto_tls_domains"`
		AutoTLSCache   string   `mapstructure:"auto_tls_cache"`
		BodyLimit      string   `mapstructure:"body_limit"`
	}

	LogConfig struct {
		Level string `mapstructure:"level"`
	}

	DatabaseConfig struct {
		Driver          string `mapstructure:"driver"` // postgres | sqlite
		DSN             string `mapstructure:"dsn"`
		Host            string `mapstructure:"host"`
		Port            int    `mapstructure:"port"`
		User            string `mapstructure:"user"`
		Password        string `mapstructure:"password"`
		DBName          string `mapstructure:"dbname"`
		SSLMode         string `mapstructure:"sslmode"`
		MaxOpenConns    int    `mapstructure:"max_open_conns"`
		MaxIdleConns    int    `mapstructure:"max_idle_conns"`
		ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"` // in minutes
	}

	RedisConfig struct {
		Enabled  bool   `mapstructure:"enabled"`
		Addr     string `mapstructure:"addr"`
		Password string `mapstructure:"password"`
		DB       int    `mapstructure:"db"`
	}

	QueueConfig struct {
		Enabled     bool `mapstructure:"enabled"`
		Concurrency int  `mapstructure:"concurrency"`
	}

	ScheduleConfig struct {
		Timezone    string `mapstructure:"timezone"`
		HorizonDays int    `mapstructure:"horizon_days"`
	}

	GoogleAPIConfig struct {
		ClientID          string        `mapstructure:"client_id"`
		ClientSecret      string        `mapstructure:"client_secret"`
		RefreshToken      string        `mapstructure:"refresh_token"`
		CalendarID        string        `mapstructure:"calendar_id"`
		Timeout           time.Duration `mapstructure:"timeout"`
		RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	}

	EmailConfig struct {
		Host     string `mapstructure:"host"`
		Port     int    `mapstructure:"port"`
		Username string `mapstructure:"username"`
		Password string `mapstructure:"password"`
		From     string `mapstructure:"from"`
		UseTLS   bool   `mapstructure:"use_tls"`
	}

	LLMConfig struct {
		BaseURL string        `mapstructure:"base_url"`
		APIKey  string        `mapstructure:"api_key"`
		Model   string        `mapstructure:"model"`
		Timeout time.Duration `mapstructure:"timeout"`
	}

	StorageConfig struct {
		Bucket          string `mapstructure:"bucket"`
		Region          string `mapstructure:"region"`
		Endpoint        string `mapstructure:"endpoint"`
		AccessKeyID     string `mapstructure:"access_key_id"`
		SecretAccessKey string `mapstructure:"secret_access_key"`
		PublicBaseURL   string `mapstructure:"public_base_url"`
	}

	SecurityConfig struct {
		JWTSecret string `mapstructure:"jwt_secret"`
	}
)

var (
	mu       sync.RWMutex
	instance *Config
)

// Options control where Load looks for configuration.
type Options struct {
	ConfigFile string
	EnvFile    string
}

// Load reads .env (if present), the optional config file and SCHEDULE_*
// environment variables, and installs the result as the process config.
func Load(opts Options) (*Config, error) {
	envFile := opts.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	// .env is optional; a missing file is not an error.
	_ = godotenv.Load(envFile)

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("SCHEDULE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", opts.ConfigFile, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	Set(&cfg)
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 7070)
	v.SetDefault("server.env", constants.EnvDevelopment)
	v.SetDefault("server.auto_tls_cache", ".cache/autocert")
	v.SetDefault("server.body_limit", "20M")

	v.SetDefault("log.level", "info")

	v.SetDefault("database.driver", constants.DatabaseDriverPostgres)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.dbname", "schedule")
	v.SetDefault("database.sslmode", constants.DatabaseSSLMode)
	v.SetDefault("database.max_open_conns", constants.DatabaseMaxOpenConns)
	v.SetDefault("database.max_idle_conns", constants.DatabaseMaxIdleConns)
	v.SetDefault("database.conn_max_lifetime", constants.DatabaseConnMaxLifetime)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")

	v.SetDefault("queue.enabled", false)
	v.SetDefault("queue.concurrency", 5)

	v.SetDefault("schedule.timezone", constants.DefaultTimezone)
	v.SetDefault("schedule.horizon_days", constants.DefaultHorizonDays)

	v.SetDefault("google_api.calendar_id", "primary")
	v.SetDefault("google_api.timeout", constants.ExternalCallTimeout)
	v.SetDefault("google_api.requests_per_second", 5.0)

	v.SetDefault("email.port", 587)
	v.SetDefault("email.use_tls", true)

	v.SetDefault("llm.base_url", constants.DefaultLLMBaseURL)
	v.SetDefault("llm.model", constants.DefaultLLMModel)
	v.SetDefault("llm.timeout", 60*time.Second)

	v.SetDefault("storage.region", "us-east-1")

	// AutomaticEnv only resolves keys viper already knows about; bind the
	// ones that have no default so SCHEDULE_* overrides still reach them.
	for _, key := range []string{
		"server.base_url", "server.auto_tls_domains",
		"database.dsn", "database.password",
		"redis.password", "redis.db",
		"google_api.client_id", "google_api.client_secret", "google_api.refresh_token",
		"email.host", "email.username", "email.password", "email.from",
		"llm.api_key",
		"storage.bucket", "storage.endpoint", "storage.access_key_id", "storage.secret_access_key", "storage.public_base_url",
		"security.jwt_secret",
	} {
		_ = v.BindEnv(key)
	}
}

// Validate reports missing or invalid values.
func (c *Config) Validate() error {
	missing := make([]string, 0, 2)
	invalid := make([]string, 0, 2)

	switch c.Database.Driver {
	case constants.DatabaseDriverPostgres:
		if c.Database.DSN == "" && c.Database.Host == "" {
			missing = append(missing, "database.host")
		}
	case constants.DatabaseDriverSQLite:
		if c.Database.DSN == "" {
			missing = append(missing, "database.dsn")
		}
	default:
		invalid = append(invalid, "database.driver")
	}

	if c.Server.Port <= 0 {
		invalid = append(invalid, "server.port")
	}
	if c.Schedule.HorizonDays < 0 {
		invalid = append(invalid, "schedule.horizon_days")
	}
	if _, err := time.LoadLocation(c.Schedule.Timezone); err != nil {
		invalid = append(invalid, "schedule.timezone")
	}
	if c.Queue.Enabled && !c.Redis.Enabled {
		invalid = append(invalid, "queue.enabled (requires redis.enabled)")
	}
	if c.Security.JWTSecret == "" && c.Server.Env == constants.EnvProduction {
		missing = append(missing, "security.jwt_secret")
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required config values: %s", strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return fmt.Errorf("invalid config values: %s", strings.Join(invalid, ", "))
	}
	return nil
}

// Location returns the single time zone every schedule date and slot time
// is interpreted in.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Schedule.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c *Config) IsProduction() bool {
	return c.Server.Env == constants.EnvProduction
}

func (c *Config) CalendarEnabled() bool {
	return c.GoogleAPI.ClientID != "" && c.GoogleAPI.RefreshToken != ""
}

// LLMEnabled is true for an API key or a self-hosted endpoint that needs none.
func (c *Config) LLMEnabled() bool {
	return c.LLM.APIKey != "" || (c.LLM.BaseURL != "" && c.LLM.BaseURL != constants.DefaultLLMBaseURL)
}

func (c *Config) EmailEnabled() bool {
	return c.Email.Host != "" && c.Email.From != ""
}

func Set(cfg *Config) {
	mu.Lock()
	defer mu.Unlock()
	instance = cfg
}

// Get returns the loaded config and panics if Load has not run.
func Get() *Config {
	cfg, ok := GetSafe()
	if !ok {
		panic("config: not initialized")
	}
	return cfg
}

func GetSafe() (*Config, bool) {
	mu.RLock()
	defer mu.RUnlock()
	return instance, instance != nil
}
