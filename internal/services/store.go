package services

import (
	"context"

	"github.com/acbay/co2survey/internal/models"
)

// Lookups return (nil, nil) when the record does not exist.

type UserStore interface {
	AddUser(ctx context.Context, u *models.User) error
	GetUser(ctx context.Context, id string) (*models.User, error)
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	ListUsers(ctx context.Context) ([]*models.User, error)
	UpdateUser(ctx context.Context, u *models.User) error
	CountUsersByRole(ctx context.Context, roles ...models.Role) (int, error)
}

type FactorStore interface {
	// ReplaceFactors deletes every stored factor and inserts rows atomically.
	ReplaceFactors(ctx context.Context, rows []*models.EmissionFactor) error
	// ListFactors returns factors in insertion order.
	ListFactors(ctx context.Context) ([]*models.EmissionFactor, error)
}

type SurveyStore interface {
	AddSurvey(ctx context.Context, s *models.Survey) error
	// ReplaceSurveys deletes the owner's surveys and inserts rows atomically.
	ReplaceSurveys(ctx context.Context, ownerID string, rows []*models.Survey) error
	// ListSurveys and ListSurveysByOwner return newest first.
	ListSurveys(ctx context.Context) ([]*models.Survey, error)
	ListSurveysByOwner(ctx context.Context, ownerID string) ([]*models.Survey, error)
	UpdateSurveyTotals(ctx context.Context, totals map[string]float64) error
}

type AuditStore interface {
	AddAudit(ctx context.Context, e models.AuditEntry) error
	ListAudit(ctx context.Context) ([]models.AuditEntry, error)
}
