package constants

import "time"

// Server
const (
	ContextRequestID = "request_id"
	EnvProduction    = "production"
	EnvDevelopment   = "development"
)

// Database
const (
	DatabaseDriverPostgres  = "postgres"
	DatabaseDriverSQLite    = "sqlite"
	DatabaseSSLMode         = "disable"
	DatabaseMaxOpenConns    = 25
	DatabaseMaxIdleConns    = 5
	DatabaseConnMaxLifetime = 30 // minutes
)

// Timeouts
const (
	DefaultTimeout         = 15 * time.Second
	ExternalCallTimeout    = 10 * time.Second
	NotificationTimeout    = 10 * time.Second
	ShutdownTimeout        = 10 * time.Second
	ProposalTokenTTL       = 15 * time.Minute
	CalendarEventsCacheTTL = 30 * time.Second
)

// Redis keys
const (
	RedisKeyCalendarEvents = "calendar:events:"
)

// Formats
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// Defaults
const (
	DefaultTimezone    = "Asia/Ho_Chi_Minh"
	DefaultHorizonDays = 30
	DefaultLLMModel    = "gpt-4o-mini"
	DefaultLLMBaseURL  = "https://api.openai.com/v1"
)
