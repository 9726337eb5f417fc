package api

import (
	"context"
	"time"

	"github.com/vytor/pgnbase/internal/jobs"
	"github.com/vytor/pgnbase/internal/services"
)

// Pinger reports whether the game store is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type Server struct {
	GameService    services.GameService
	ImportService  services.ImportService
	OpeningService services.OpeningService
	PGNService     services.PGNService
	JobQueue       jobs.JobQueue

	// DB is checked by the readiness probe. nil skips the check.
	DB Pinger
	// APIToken, when set, must be sent as a bearer token on /api routes.
	APIToken       string
	RequestTimeout time.Duration
}
