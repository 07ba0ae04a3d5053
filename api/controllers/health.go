package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/dmercado-dev/shopforge-backend/api/responses"
	"github.com/dmercado-dev/shopforge-backend/pkg/logger"
)

// Pinger is the reachability check both the database and Redis clients
// satisfy.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthController reports process and dependency health.
type HealthController struct {
	db    Pinger
	redis Pinger
	logg  *logger.Logger
}

// NewHealthController wires the health controller. Either dependency may be
// nil in stripped-down deployments.
func NewHealthController(db, redis Pinger, logg *logger.Logger) *HealthController {
	return &HealthController{db: db, redis: redis, logg: logg}
}

// Ping is the trivial liveness probe.
func (c *HealthController) Ping(w http.ResponseWriter, r *http.Request) {
	responses.WriteSuccess(w, http.StatusOK, map[string]string{"message": "pong"})
}

// Health checks the database and Redis with a short deadline.
func (c *HealthController) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	checks := map[string]string{}

	if c.db != nil {
		if err := c.db.Ping(ctx); err != nil {
			checks["database"] = "down"
			status = http.StatusServiceUnavailable
		} else {
			checks["database"] = "up"
		}
	}
	if c.redis != nil {
		if err := c.redis.Ping(ctx); err != nil {
			checks["redis"] = "down"
			status = http.StatusServiceUnavailable
		} else {
			checks["redis"] = "up"
		}
	}

	responses.WriteSuccess(w, status, checks)
}
