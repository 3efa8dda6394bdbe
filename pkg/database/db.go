package database

import (
	"context"
	"fmt"

	"github.com/arnavshah/alterations-api/pkg/config"
	"github.com/arnavshah/alterations-api/pkg/models"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open connects to the configured database and migrates the schema.
func Open(cfg config.Database) (*gorm.DB, error) {
	const op = "database.Open"

	gormCfg := &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	}

	var db *gorm.DB
	var err error
	switch cfg.Driver {
	case "postgres":
		db, err = gorm.Open(postgres.New(postgres.Config{
			DSN:                  cfg.DSN,
			PreferSimpleProtocol: true,
		}), gormCfg)
	case "mysql":
		db, err = gorm.Open(mysql.Open(cfg.DSN), gormCfg)
	case "sqlite", "":
		dsn := cfg.DSN
		if dsn == "" {
			dsn = "alterations.db"
		}
		db, err = gorm.Open(sqlite.Open(dsn), gormCfg)
	default:
		return nil, fmt.Errorf("%s: unsupported driver %q", op, cfg.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if cfg.Driver == "sqlite" || cfg.Driver == "" {
		// One writer at a time; also keeps a :memory: database alive on
		// a single connection.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		sqlDB.SetMaxOpenConns(1)
	}

	if err := Migrate(db); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return db, nil
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.WorkDayPlan{},
		&models.Closure{},
		&models.AlterationJob{},
		&models.AlterationJobPart{},
		&models.QRScanLog{},
		&models.Staff{},
		&models.AvailabilityBlock{},
		&models.StaffSkill{},
	)
}

// Store is the repository over every scheduling and lifecycle table.
type Store struct {
	db *gorm.DB

	jacketCapacity int
	pantsCapacity  int
}

type Option func(*Store)

// WithDefaultCapacity sets the capacities given to lazily created day plans.
func WithDefaultCapacity(jackets, pants int) Option {
	return func(s *Store) {
		s.jacketCapacity = jackets
		s.pantsCapacity = pants
	}
}

func NewStore(db *gorm.DB, opts ...Option) *Store {
	s := &Store{db: db, jacketCapacity: 5, pantsCapacity: 5}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Transaction runs fn with a Store bound to a single database transaction.
// Any error returned by fn rolls everything back.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx, jacketCapacity: s.jacketCapacity, pantsCapacity: s.pantsCapacity})
	})
}

func (s *Store) conn(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx)
}
