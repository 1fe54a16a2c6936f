package db

import (
	"github.com/stocktake-io/stocktake/internal/config"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// New opens the postgres connection pool. TranslateError is enabled so
// uniqueness violations surface as gorm.ErrDuplicatedKey, which the code
// allocator relies on to retry generation.
func New(cfg *config.Config) (*gorm.DB, error) {
	d, err := gorm.Open(postgres.Open(cfg.Database.DSN), &gorm.Config{
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := d.DB()
	if err != nil {
		return nil, err
	}
	if cfg.Database.MaxOpen > 0 {
		sqlDB.SetMaxOpenConns(cfg.Database.MaxOpen)
	}
	if cfg.Database.MaxIdle > 0 {
		sqlDB.SetMaxIdleConns(cfg.Database.MaxIdle)
	}

	return d, nil
}
