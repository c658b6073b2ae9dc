package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/acbay/co2survey/internal/models"
)

type UserAdminStore interface {
	GetUser(ctx context.Context, id string) (*models.User, error)
	ListUsers(ctx context.Context) ([]*models.User, error)
	UpdateUser(ctx context.Context, u *models.User) error
	AddAudit(ctx context.Context, e models.AuditEntry) error
	ListAudit(ctx context.Context) ([]models.AuditEntry, error)
}

type UserService struct {
	store UserAdminStore
	now   func() time.Time
	log   zerolog.Logger
}

func NewUserService(store UserAdminStore, log zerolog.Logger) *UserService {
	return &UserService{store: store, now: func() time.Time { return time.Now().UTC() }, log: log}
}

// Actor identifies the authenticated caller of a privileged operation.
type Actor struct {
	ID   string
	Role models.Role
}

func (s *UserService) List(ctx context.Context, actor Actor) ([]*models.User, error) {
	if !actor.Role.IsAdmin() {
		return nil, NewForbiddenError("forbidden")
	}
	return s.store.ListUsers(ctx)
}

// SetRole changes another user's role. ADMIN may move users between EMPLOYEE
// and HR; only SUPER_ADMIN may grant or revoke admin roles.
func (s *UserService) SetRole(ctx context.Context, actor Actor, userID string, role models.Role) (*models.User, error) {
	if !actor.Role.IsAdmin() {
		return nil, NewForbiddenError("forbidden")
	}
	if userID == actor.ID {
		return nil, NewInvalidError("cannot change own role")
	}
	target, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if target == nil {
		return nil, NewNotFoundError("user not found")
	}
	if actor.Role != models.RoleSuperAdmin && (role.IsAdmin() || target.Role.IsAdmin()) {
		return nil, NewForbiddenError("only SUPER_ADMIN may manage admins")
	}
	if target.Role == role {
		return target, nil
	}
	prev := target.Role
	target.Role = role
	if err := s.store.UpdateUser(ctx, target); err != nil {
		return nil, err
	}
	if err := s.store.AddAudit(ctx, models.AuditEntry{Time: s.now(), Actor: actor.ID, Action: "user.role", Target: target.ID, Note: string(prev) + "->" + string(role)}); err != nil {
		s.log.Error().Err(err).Str("user", target.ID).Msg("audit role change")
	}
	return target, nil
}

func (s *UserService) Audit(ctx context.Context, actor Actor) ([]models.AuditEntry, error) {
	if actor.Role != models.RoleSuperAdmin {
		return nil, NewForbiddenError("forbidden")
	}
	return s.store.ListAudit(ctx)
}
