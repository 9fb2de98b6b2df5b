package cmd

import (
	"github.com/jmoiron/sqlx"

	"github.com/resto-rate/api/internal/config"
	"github.com/resto-rate/api/internal/db"
	"github.com/resto-rate/api/internal/logger"
)

// open loads the configuration and connects to the configured database.
func open() (*config.Config, *sqlx.DB, error) {
	cfg := config.Load()
	logger.Init(logger.Options{Development: true, Level: cfg.LogLevel})

	database, err := db.Init(cfg.DBDriver, cfg.DBConnection, db.Pool{MaxOpenConns: 1})
	if err != nil {
		return nil, nil, err
	}
	return cfg, database, nil
}
