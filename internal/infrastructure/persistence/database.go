package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/dealership/backend/internal/infrastructure/config"
	"github.com/dealership/backend/internal/infrastructure/logger"
	"github.com/dealership/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Database holds the database connection and provides methods for database operations
type Database struct {
	DB *gorm.DB
}

type databaseOptions struct {
	logger    *zap.Logger
	logLevel  gormlogger.LogLevel
	slowQuery time.Duration
	tracing   *telemetry.DBTracingPlugin
}

// Option configures NewDatabase
type Option func(*databaseOptions)

// WithLogger routes GORM logs through zap at the given level
func WithLogger(l *zap.Logger, level gormlogger.LogLevel) Option {
	return func(o *databaseOptions) {
		o.logger = l
		o.logLevel = level
	}
}

// WithSlowQueryThreshold sets the duration above which queries are logged as slow
func WithSlowQueryThreshold(d time.Duration) Option {
	return func(o *databaseOptions) {
		o.slowQuery = d
	}
}

// WithTracing registers the OpenTelemetry GORM plugin on the connection
func WithTracing(plugin *telemetry.DBTracingPlugin) Option {
	return func(o *databaseOptions) {
		o.tracing = plugin
	}
}

// NewDatabase opens the postgres connection pool described by cfg
func NewDatabase(cfg *config.DatabaseConfig, opts ...Option) (*Database, error) {
	o := &databaseOptions{logger: zap.NewNop(), logLevel: gormlogger.Silent}
	for _, opt := range opts {
		opt(o)
	}

	var gormLogOpts []logger.GormLoggerOption
	if o.slowQuery > 0 {
		gormLogOpts = append(gormLogOpts, logger.WithSlowThreshold(o.slowQuery))
	}

	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger:                 logger.NewGormLogger(o.logger, o.logLevel, gormLogOpts...),
		SkipDefaultTransaction: true,
		PrepareStmt:            true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if o.tracing != nil {
		if err := o.tracing.Register(db); err != nil {
			return nil, fmt.Errorf("failed to register db tracing: %w", err)
		}
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Minute)
	sqlDB.SetConnMaxIdleTime(time.Duration(cfg.ConnMaxIdleTime) * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Database{DB: db}, nil
}

// Close closes the database connection
func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.Close()
}

// Ping checks if the database connection is alive
func (d *Database) Ping(ctx context.Context) error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

// Stats returns database connection pool statistics
func (d *Database) Stats() (ConnectionStats, error) {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return ConnectionStats{}, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	stats := sqlDB.Stats()
	return ConnectionStats{
		MaxOpenConnections: stats.MaxOpenConnections,
		OpenConnections:    stats.OpenConnections,
		InUse:              stats.InUse,
		Idle:               stats.Idle,
		WaitCount:          stats.WaitCount,
		WaitDuration:       stats.WaitDuration,
	}, nil
}

// ConnectionStats holds database connection pool statistics
type ConnectionStats struct {
	MaxOpenConnections int
	OpenConnections    int
	InUse              int
	Idle               int
	WaitCount          int64
	WaitDuration       time.Duration
}
