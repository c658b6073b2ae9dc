package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/acbay/co2survey/internal/models"
)

type AuthStore interface {
	AddUser(ctx context.Context, u *models.User) error
	GetUser(ctx context.Context, id string) (*models.User, error)
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateUser(ctx context.Context, u *models.User) error
	CountUsersByRole(ctx context.Context, roles ...models.Role) (int, error)
}

type TokenSigner func(uid, email string, role models.Role, ttl time.Duration) (string, error)

type AuthOptions struct {
	TokenTTL           time.Duration
	SuperAdminEmail    string
	SuperAdminPassword string
}

type AuthService struct {
	store     AuthStore
	now       func() time.Time
	idGen     func() string
	signToken TokenSigner
	opts      AuthOptions
}

type AuthResult struct {
	Token  string      `json:"token"`
	UserID string      `json:"id"`
	Email  string      `json:"email"`
	Role   models.Role `json:"role"`
}

func NewAuthService(store AuthStore, signer TokenSigner, opts AuthOptions) *AuthService {
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = 7 * 24 * time.Hour
	}
	return &AuthService{
		store:     store,
		now:       func() time.Time { return time.Now().UTC() },
		idGen:     uuid.NewString,
		signToken: signer,
		opts:      opts,
	}
}

// Register creates an EMPLOYEE account, or the SUPER_ADMIN account when the
// email is the configured super admin address.
func (s *AuthService) Register(ctx context.Context, email, password, name string) (*AuthResult, error) {
	email = strings.TrimSpace(email)
	if email == "" || strings.TrimSpace(password) == "" {
		return nil, NewInvalidError("email/password required")
	}
	existing, err := s.store.FindUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, NewConflictError("email exists")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	role := models.RoleEmployee
	if s.opts.SuperAdminEmail != "" && strings.EqualFold(email, s.opts.SuperAdminEmail) {
		role = models.RoleSuperAdmin
	}
	u := &models.User{
		ID:        s.idGen(),
		Email:     email,
		Name:      strings.TrimSpace(name),
		PassHash:  hash,
		Role:      role,
		CreatedAt: s.now(),
	}
	if err := s.store.AddUser(ctx, u); err != nil {
		return nil, err
	}
	return s.issue(u)
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.TrimSpace(email)
	if email == "" || strings.TrimSpace(password) == "" {
		return nil, NewInvalidError("email/password required")
	}
	u, err := s.store.FindUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, NewUnauthorizedError("invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword(u.PassHash, []byte(password)); err != nil {
		return nil, NewUnauthorizedError("invalid credentials")
	}
	return s.issue(u)
}

// Me loads the account behind a token. A token for a deleted user is rejected.
func (s *AuthService) Me(ctx context.Context, uid string) (*models.User, error) {
	u, err := s.store.GetUser(ctx, uid)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, NewUnauthorizedError("invalid token")
	}
	return u, nil
}

// EnsureInitialAdmin bootstraps the super admin when no ADMIN or SUPER_ADMIN
// exists yet. An existing account with the super admin email is promoted; its
// password is replaced only when the stored one is not a bcrypt hash.
func (s *AuthService) EnsureInitialAdmin(ctx context.Context) (*models.User, error) {
	email := strings.TrimSpace(s.opts.SuperAdminEmail)
	if email == "" {
		return nil, NewInvalidError("super admin email not configured")
	}
	n, err := s.store.CountUsersByRole(ctx, models.RoleAdmin, models.RoleSuperAdmin)
	if err != nil {
		return nil, err
	}
	if n > 0 {
		return nil, nil
	}
	u, err := s.store.FindUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if u != nil {
		u.Role = models.RoleSuperAdmin
		if _, costErr := bcrypt.Cost(u.PassHash); costErr != nil {
			if u.PassHash, err = s.hashBootstrapPassword(); err != nil {
				return nil, err
			}
		}
		if err := s.store.UpdateUser(ctx, u); err != nil {
			return nil, err
		}
		return u, nil
	}
	hash, err := s.hashBootstrapPassword()
	if err != nil {
		return nil, err
	}
	u = &models.User{
		ID:        s.idGen(),
		Email:     email,
		Name:      "Bootstrap Admin",
		PassHash:  hash,
		Role:      models.RoleSuperAdmin,
		CreatedAt: s.now(),
	}
	if err := s.store.AddUser(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *AuthService) hashBootstrapPassword() ([]byte, error) {
	if strings.TrimSpace(s.opts.SuperAdminPassword) == "" {
		return nil, NewInvalidError("super admin password not configured")
	}
	return bcrypt.GenerateFromPassword([]byte(s.opts.SuperAdminPassword), bcrypt.DefaultCost)
}

func (s *AuthService) issue(u *models.User) (*AuthResult, error) {
	if s.signToken == nil {
		return nil, NewInvalidError("token signer not configured")
	}
	token, err := s.signToken(u.ID, u.Email, u.Role, s.opts.TokenTTL)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, UserID: u.ID, Email: u.Email, Role: u.Role}, nil
}
