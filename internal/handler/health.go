package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/resto-rate/api/internal/db"
	"github.com/resto-rate/api/internal/wire"
)

type healthHandler struct {
	db          *sqlx.DB
	driver      string
	environment string
	now         func() time.Time
}

func NewHealthHandler(database *sqlx.DB, driver, environment string) *healthHandler {
	return &healthHandler{
		db:          database,
		driver:      driver,
		environment: environment,
		now:         time.Now,
	}
}

type healthDatabase struct {
	Connected bool   `json:"connected"`
	Driver    string `json:"driver"`
}

type healthResponse struct {
	Status      string         `json:"status"`
	Timestamp   time.Time      `json:"timestamp"`
	Environment string         `json:"environment"`
	Database    healthDatabase `json:"database"`
}

// Health always answers in JSON so monitoring tools can read it.
func (h *healthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	resp := healthResponse{
		Status:      "ok",
		Timestamp:   h.now().UTC(),
		Environment: h.environment,
		Database:    healthDatabase{Connected: true, Driver: h.driver},
	}
	status := http.StatusOK

	if err := db.Ping(ctx, h.db); err != nil {
		slog.Error("health check database ping failed", "error", err)
		resp.Status = "degraded"
		resp.Database.Connected = false
		status = http.StatusServiceUnavailable
	}

	wire.WriteJSON(w, status, resp)
}
