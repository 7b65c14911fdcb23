package database

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/AzielCF/az-pricing/core/config"
	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase initializes a database connection based on the provided configuration.
// The connection is pinged until it answers or cfg.Database.ConnectRetry elapses.
func NewDatabase(ctx context.Context, cfg *config.Config) (*gorm.DB, error) {
	dialector, err := dialectorFor(cfg)
	if err != nil {
		return nil, err
	}

	logLevel := logger.Warn
	if cfg.App.Debug {
		logLevel = logger.Info
	}

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}

	db, err := gorm.Open(dialector, gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database (%s): %w", cfg.Database.Name, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB instance: %w", err)
	}

	if isSQLite(cfg.Database.Driver) {
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetMaxIdleConns(1)
	} else {
		// The pricing accessor bounds in-flight work itself; leave headroom for migrations.
		sqlDB.SetMaxOpenConns(cfg.Pool.MaxConnections + 2)
		sqlDB.SetMaxIdleConns(cfg.Pool.MaxConnections)
	}
	sqlDB.SetConnMaxLifetime(time.Hour)

	policy := connectPolicy(cfg.Database.ConnectRetry)

	attempt := 0
	ping := func() error {
		attempt++
		return sqlDB.PingContext(ctx)
	}
	notify := func(err error, next time.Duration) {
		logrus.WithError(err).Warnf("[DATABASE] Ping attempt %d failed, retrying in %s", attempt, next)
	}
	if err := backoff.RetryNotify(ping, backoff.WithContext(policy, ctx), notify); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("database did not become ready: %w", err)
	}

	logrus.Infof("[DATABASE] Connected (%s)", cfg.Database.Driver)
	return db, nil
}

// connectPolicy retries pings for up to retry. A non-positive retry pings
// once; backoff treats a zero MaxElapsedTime as unbounded.
func connectPolicy(retry time.Duration) backoff.BackOff {
	if retry <= 0 {
		return &backoff.StopBackOff{}
	}
	policy := backoff.NewExponentialBackOff()
	policy.MaxElapsedTime = retry
	return policy
}

func dialectorFor(cfg *config.Config) (gorm.Dialector, error) {
	switch cfg.Database.Driver {
	case "postgres":
		dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=disable TimeZone=UTC",
			cfg.Database.Host,
			cfg.Database.User,
			cfg.Database.Password,
			cfg.Database.Name,
			cfg.Database.Port,
		)
		return postgres.Open(dsn), nil
	case "sqlite", "":
		if dir := filepath.Dir(cfg.Database.Name); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create database directory %s: %w", dir, err)
			}
		}
		dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_foreign_keys=on", cfg.Database.Name)
		return sqlite.Open(dsn), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Database.Driver)
	}
}

func isSQLite(driver string) bool {
	return driver == "sqlite" || driver == ""
}
