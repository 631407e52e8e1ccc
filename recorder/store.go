// Package recorder persists vehicle updates: per tick samples are buffered by
// a Recording, written to a SQL database with gorm and optionally streamed
// to InfluxDB.
package recorder

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	DEFAULT_BATCH_SIZE = 500
)

var ErrUnknownDriver = errors.New("recorder: unknown database driver")

type Config struct {
	// Driver is DriverSQLite or DriverPostgres
	Driver string
	// DSN is a file path for SQLite (empty for in memory), a connection string for Postgres
	DSN       string
	BatchSize int
}

// Store is a database of runs and samples.
type Store struct {
	db        *gorm.DB
	batchSize int
	logger    zerolog.Logger
}

func Open(cfg Config, log zerolog.Logger) (*Store, error) {
	gormConfig := &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	}

	var dialector gorm.Dialector
	memory := false
	switch cfg.Driver {
	case DriverSQLite, "":
		dsn := cfg.DSN
		if dsn == "" || strings.Contains(dsn, ":memory:") {
			dsn = "file::memory:"
			memory = true
		}
		dialector = sqlite.Open(dsn)
	case DriverPostgres:
		dialector = postgres.New(postgres.Config{
			DSN:                  cfg.DSN,
			PreferSimpleProtocol: true,
		})
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
	}

	db, err := gorm.Open(dialector, gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", dialector.Name(), err)
	}

	// every connection to an in memory database opens a new database
	if memory {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to access sql interface: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}

	if err := db.AutoMigrate(&Run{}, &Sample{}); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = DEFAULT_BATCH_SIZE
	}
	log.Info().Str("driver", dialector.Name()).Msg("recorder database ready")

	return &Store{db: db, batchSize: batchSize, logger: log}, nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// StartRun creates a run and returns the recording feeding it.
// dt is the timestep the world will be stepped with.
func (s *Store) StartRun(ctx context.Context, name string, dt float64, sinks ...Sink) (*Recording, error) {
	run := &Run{Name: name, Dt: dt}
	if err := s.db.WithContext(ctx).Create(run).Error; err != nil {
		return nil, fmt.Errorf("failed to create run %s: %w", name, err)
	}
	s.logger.Debug().Str("run", name).Uint("id", run.ID).Msg("run started")

	return newRecording(s, run, sinks), nil
}

func (s *Store) Runs(ctx context.Context) ([]Run, error) {
	var runs []Run
	err := s.db.WithContext(ctx).Order("id").Find(&runs).Error
	return runs, err
}

// Samples returns the samples of a vehicle during a run, in tick order.
func (s *Store) Samples(ctx context.Context, runID uint, vehicle string) ([]Sample, error) {
	var samples []Sample
	err := s.db.WithContext(ctx).
		Where("run_id = ? AND vehicle = ?", runID, vehicle).
		Order("tick").
		Find(&samples).Error
	return samples, err
}

func (s *Store) insert(ctx context.Context, samples []Sample) error {
	if len(samples) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).CreateInBatches(samples, s.batchSize).Error
}
