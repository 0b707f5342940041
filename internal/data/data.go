// Package data wires up the shared infrastructure: the database
// connection and the blob stores for originals and thumbnails.
package data

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/damianb/minori/internal/conf"
	librarydata "github.com/damianb/minori/internal/library/data"
	"github.com/damianb/minori/internal/pkg/storage"
)

type Data struct {
	DB      *gorm.DB
	Uploads storage.Store
	Thumbs  storage.Store
	Logger  *zap.Logger
}

func NewData(config *conf.Config, log *zap.Logger) (*Data, func(), error) {
	db, err := initDB(config, log)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to init database: %w", err)
	}

	uploads, thumbs, err := storage.NewStores(&config.Storage, log)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to init storage: %w", err)
	}

	d := &Data{
		DB:      db,
		Uploads: uploads,
		Thumbs:  thumbs,
		Logger:  log,
	}

	cleanup := func() {
		log.Info("cleaning up data resources")

		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	}

	return d, cleanup, nil
}

func initDB(config *conf.Config, log *zap.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(config.Database.DSN()), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(librarydata.Models()...); err != nil {
		return nil, fmt.Errorf("failed to auto migrate: %w", err)
	}

	log.Info("database initialized successfully")
	return db, nil
}
