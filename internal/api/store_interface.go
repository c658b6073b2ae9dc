package api

import (
	"context"

	"github.com/acbay/co2survey/internal/services"
)

// Store is everything the HTTP layer and the CLI need from persistence. Both
// the in-memory store and db.SQLStore satisfy it.
type Store interface {
	services.UserStore
	services.FactorStore
	services.SurveyStore
	services.AuditStore

	Ping(ctx context.Context) error
	Close() error
}
