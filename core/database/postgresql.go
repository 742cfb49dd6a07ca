package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"schedule-agent/core/constants"
	"schedule-agent/core/logger"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

func init() {
	// modernc registers as "sqlite", which sqlx does not know by default.
	sqlx.BindDriver(constants.DatabaseDriverSQLite, sqlx.QUESTION)
}

type Database interface {
	ExecContext(ctx context.Context, query string, args ...any) error
	GetContext(ctx context.Context, dest any, query string, args ...any) error
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	NamedExecContext(ctx context.Context, query string, arg any) (sql.Result, error)
	WithTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error
	Rebind(query string) string
	SQLx() *sqlx.DB
	Close() error
}

type sqlDatabase struct {
	db   *sql.DB
	sqlx *sqlx.DB
}

type DatabaseConfig struct {
	Driver          string
	DSN             string
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
}

func (c DatabaseConfig) dataSourceName() string {
	if c.DSN != "" {
		return c.DSN
	}
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = constants.DatabaseSSLMode
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, sslMode)
}

func InitDB(config DatabaseConfig) (Database, error) {
	logger.Info("Initializing database...", "driver", config.Driver)

	driver := config.Driver
	if driver == "" {
		driver = constants.DatabaseDriverPostgres
	}

	sqlxDB, err := sqlx.Connect(driver, config.dataSourceName())
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	maxOpen := config.MaxOpenConns
	if maxOpen <= 0 {
		maxOpen = constants.DatabaseMaxOpenConns
	}
	maxIdle := config.MaxIdleConns
	if maxIdle <= 0 {
		maxIdle = constants.DatabaseMaxIdleConns
	}
	lifetime := config.ConnMaxLifetime
	if lifetime <= 0 {
		lifetime = constants.DatabaseConnMaxLifetime
	}
	if driver == constants.DatabaseDriverSQLite {
		// SQLite allows a single writer; serialize through one connection.
		maxOpen, maxIdle = 1, 1
	}

	sqlDB := sqlxDB.DB
	sqlDB.SetMaxOpenConns(maxOpen)
	sqlDB.SetMaxIdleConns(maxIdle)
	sqlDB.SetConnMaxLifetime(time.Duration(lifetime) * time.Minute)

	if err = sqlDB.Ping(); err != nil {
		logger.Error("Failed to ping database", "error", err)
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("Database initialized successfully",
		"driver", driver,
		"host", config.Host,
		"port", config.Port,
		"database", config.DBName,
		"maxOpenConns", maxOpen,
		"maxIdleConns", maxIdle,
		"connMaxLifetime", lifetime,
	)

	return New(sqlxDB), nil
}

// New wraps an already opened connection.
func New(sqlxDB *sqlx.DB) Database {
	return &sqlDatabase{
		db:   sqlxDB.DB,
		sqlx: sqlxDB,
	}
}

func (d *sqlDatabase) Close() error {
	return d.sqlx.Close()
}

func (d *sqlDatabase) ExecContext(ctx context.Context, query string, args ...any) error {
	_, err := d.sqlx.ExecContext(ctx, query, args...)
	return err
}

func (d *sqlDatabase) GetContext(ctx context.Context, dest any, query string, args ...any) error {
	return d.sqlx.GetContext(ctx, dest, query, args...)
}

func (d *sqlDatabase) SelectContext(ctx context.Context, dest any, query string, args ...any) error {
	return d.sqlx.SelectContext(ctx, dest, query, args...)
}

func (d *sqlDatabase) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return d.db.QueryRowContext(ctx, query, args...)
}

func (d *sqlDatabase) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return d.db.QueryContext(ctx, query, args...)
}

func (d *sqlDatabase) NamedExecContext(ctx context.Context, query string, arg any) (sql.Result, error) {
	return d.sqlx.NamedExecContext(ctx, query, arg)
}

// WithTx runs fn inside a read-committed transaction, rolling back when fn
// returns an error.
func (d *sqlDatabase) WithTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := d.sqlx.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		// SQLite rejects explicit isolation levels other than serializable.
		tx, err = d.sqlx.BeginTxx(ctx, nil)
		if err != nil {
			return err
		}
	}

	if err := fn(tx); err != nil {
		if rollbackErr := tx.Rollback(); rollbackErr != nil {
			logger.Error("Database:WithTx:Rollback:Error", "error", rollbackErr)
		}
		return err
	}

	return tx.Commit()
}

// Rebind converts '?' placeholders to the driver's bind style.
func (d *sqlDatabase) Rebind(query string) string {
	return d.sqlx.Rebind(query)
}

func (d *sqlDatabase) SQLx() *sqlx.DB {
	return d.sqlx
}
