// Package store keeps an audit trail of generation runs in a SQL database through gorm.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/multierr"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/yungbote/pagegen-backend/internal/pagegen/config"
	"github.com/yungbote/pagegen-backend/internal/platform/logger"
)

const (
	DefaultRecentLimit = 20
	MaxRecentLimit     = 200
)

var ErrNilRun = errors.New("generation run cannot be nil")

type Store interface {
	Record(ctx context.Context, run *GenerationRun) error
	// Recent lists the newest runs first; an empty kind matches every kind.
	Recent(ctx context.Context, kind string, limit int) ([]*GenerationRun, error)
	Ping(ctx context.Context) error
	Close() error
}

// Open connects to the configured driver and migrates the schema. Driver "none" returns a store
// that discards every run.
func Open(cfg config.StoreConfig, baseLog *logger.Logger) (Store, error) {
	if baseLog == nil {
		baseLog = logger.Nop()
	}
	log := baseLog.With("component", "GenerationRunStore", "driver", cfg.Driver)

	var dialector gorm.Dialector
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "", "none":
		return Noop{}, nil
	case "sqlite":
		dialector = sqlite.Open(cfg.DSN)
	case "postgres":
		dialector = postgres.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported store driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormLogLevel(cfg.LogLevel)),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	st := &gormStore{db: db, log: log}
	if dialector.Name() == "sqlite" {
		// :memory: databases exist per connection.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get underlying SQL DB: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}

	if err := migrate(db); err != nil {
		return nil, multierr.Append(fmt.Errorf("failed to migrate schema: %w", err), st.Close())
	}
	log.Info("generation run store ready")
	return st, nil
}

// migrate is swapped in tests to exercise the failure path.
var migrate = func(db *gorm.DB) error {
	return db.AutoMigrate(&GenerationRun{})
}

func gormLogLevel(level string) gormlogger.LogLevel {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "error":
		return gormlogger.Error
	case "warn":
		return gormlogger.Warn
	case "info":
		return gormlogger.Info
	default:
		return gormlogger.Silent
	}
}

type gormStore struct {
	db  *gorm.DB
	log *logger.Logger
}

func (s *gormStore) Record(ctx context.Context, run *GenerationRun) error {
	if run == nil {
		return ErrNilRun
	}
	if err := s.db.WithContext(ctx).Create(run).Error; err != nil {
		return fmt.Errorf("failed to record generation run: %w", err)
	}
	return nil
}

func (s *gormStore) Recent(ctx context.Context, kind string, limit int) ([]*GenerationRun, error) {
	limit = clampLimit(limit)
	q := s.db.WithContext(ctx).Order("created_at DESC").Limit(limit)
	if kind = strings.TrimSpace(kind); kind != "" {
		q = q.Where("kind = ?", kind)
	}
	var runs []*GenerationRun
	if err := q.Find(&runs).Error; err != nil {
		return nil, fmt.Errorf("failed to list generation runs: %w", err)
	}
	return runs, nil
}

func (s *gormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *gormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying SQL DB: %w", err)
	}
	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("failed to close database connection: %w", err)
	}
	return nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultRecentLimit
	}
	if limit > MaxRecentLimit {
		return MaxRecentLimit
	}
	return limit
}

// Noop is used when no database is configured.
type Noop struct{}

func (Noop) Record(context.Context, *GenerationRun) error { return nil }
func (Noop) Recent(context.Context, string, int) ([]*GenerationRun, error) {
	return []*GenerationRun{}, nil
}
func (Noop) Ping(context.Context) error { return nil }
func (Noop) Close() error { return nil }
