package services

import (
	"context"
	"strconv"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/acbay/co2survey/internal/models"
)

func newTestAuthService(store AuthStore) *AuthService {
	svc := NewAuthService(store, func(uid, email string, role models.Role, ttl time.Duration) (string, error) {
		return "token:" + uid + ":" + string(role), nil
	}, AuthOptions{SuperAdminEmail: "import@localhost", SuperAdminPassword: "Admin123!"})
	svc.now = func() time.Time { return time.Unix(0, 0).UTC() }
	n := 0
	svc.idGen = func() string { n++; return "u" + strconv.Itoa(n) }
	return svc
}

func TestAuthRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	svc := newTestAuthService(newStubStore())

	res, err := svc.Register(ctx, "user@example.com", "Secret123", "User")
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if res.UserID == "" || res.Role != models.RoleEmployee {
		t.Fatalf("unexpected result: %+v", res)
	}
	if res.Token != "token:"+res.UserID+":EMPLOYEE" {
		t.Fatalf("unexpected token %q", res.Token)
	}

	_, err = svc.Register(ctx, "user@example.com", "Secret123", "User")
	if se, ok := AsServiceError(err); !ok || se.Code != ErrorConflict {
		t.Fatalf("expected conflict on duplicate registration, got %v", err)
	}

	loginRes, err := svc.Login(ctx, "user@example.com", "Secret123")
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	if loginRes.UserID != res.UserID {
		t.Fatalf("login returned another user: %+v", loginRes)
	}

	if _, err := svc.Login(ctx, "user@example.com", "wrong"); err == nil {
		t.Fatalf("expected error for wrong password")
	}
	_, err = svc.Login(ctx, "missing@example.com", "Secret123")
	if se, ok := AsServiceError(err); !ok || se.Code != ErrorUnauthorized {
		t.Fatalf("expected unauthorized for missing user, got %v", err)
	}
}

func TestAuthValidation(t *testing.T) {
	ctx := context.Background()
	svc := newTestAuthService(newStubStore())
	if _, err := svc.Register(ctx, "", "x", ""); err == nil {
		t.Fatalf("expected error for empty email")
	}
	if _, err := svc.Register(ctx, "a@b.c", "  ", ""); err == nil {
		t.Fatalf("expected error for blank password")
	}
	if _, err := svc.Login(ctx, "a@b.c", ""); err == nil {
		t.Fatalf("expected error for empty password")
	}
}

func TestAuthRegisterSuperAdminEmail(t *testing.T) {
	svc := newTestAuthService(newStubStore())
	res, err := svc.Register(context.Background(), "Import@Localhost", "pw", "")
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if res.Role != models.RoleSuperAdmin {
		t.Fatalf("expected SUPER_ADMIN, got %s", res.Role)
	}
}

func TestAuthMeRejectsUnknownUser(t *testing.T) {
	ctx := context.Background()
	svc := newTestAuthService(newStubStore())
	res, err := svc.Register(ctx, "me@example.com", "pw", "Me")
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	u, err := svc.Me(ctx, res.UserID)
	if err != nil || u.Email != "me@example.com" {
		t.Fatalf("Me = %+v, %v", u, err)
	}
	if _, err := svc.Me(ctx, "ghost"); err == nil {
		t.Fatalf("expected error for unknown user")
	}
}

func TestEnsureInitialAdminCreatesBootstrapAccount(t *testing.T) {
	ctx := context.Background()
	store := newStubStore()
	svc := newTestAuthService(store)

	u, err := svc.EnsureInitialAdmin(ctx)
	if err != nil {
		t.Fatalf("EnsureInitialAdmin returned error: %v", err)
	}
	if u == nil || u.Role != models.RoleSuperAdmin || u.Name != "Bootstrap Admin" {
		t.Fatalf("unexpected bootstrap user %+v", u)
	}
	if _, err := svc.Login(ctx, "import@localhost", "Admin123!"); err != nil {
		t.Fatalf("bootstrap login failed: %v", err)
	}

	again, err := svc.EnsureInitialAdmin(ctx)
	if err != nil || again != nil {
		t.Fatalf("second call should be a no-op, got %+v, %v", again, err)
	}
}

func TestEnsureInitialAdminPromotesExistingAccount(t *testing.T) {
	ctx := context.Background()
	store := newStubStore()
	svc := newTestAuthService(store)

	// plaintext leftover from an older seed
	if err := store.AddUser(ctx, &models.User{ID: "legacy", Email: "import@localhost", PassHash: []byte("plain"), Role: models.RoleEmployee}); err != nil {
		t.Fatal(err)
	}
	u, err := svc.EnsureInitialAdmin(ctx)
	if err != nil {
		t.Fatalf("EnsureInitialAdmin returned error: %v", err)
	}
	if u.ID != "legacy" || u.Role != models.RoleSuperAdmin {
		t.Fatalf("expected promoted legacy user, got %+v", u)
	}
	if _, err := bcrypt.Cost(u.PassHash); err != nil {
		t.Fatalf("password was not rehashed: %v", err)
	}

	// an existing bcrypt password is kept
	store2 := newStubStore()
	svc2 := newTestAuthService(store2)
	hash, _ := bcrypt.GenerateFromPassword([]byte("Mine"), bcrypt.MinCost)
	_ = store2.AddUser(ctx, &models.User{ID: "keep", Email: "import@localhost", PassHash: hash})
	if _, err := svc2.EnsureInitialAdmin(ctx); err != nil {
		t.Fatalf("EnsureInitialAdmin returned error: %v", err)
	}
	if _, err := svc2.Login(ctx, "import@localhost", "Mine"); err != nil {
		t.Fatalf("existing password should survive promotion: %v", err)
	}
}

func TestEnsureInitialAdminSkipsWhenAdminExists(t *testing.T) {
	ctx := context.Background()
	store := newStubStore()
	_ = store.AddUser(ctx, &models.User{ID: "a", Email: "admin@example.com", Role: models.RoleAdmin})
	svc := newTestAuthService(store)
	u, err := svc.EnsureInitialAdmin(ctx)
	if err != nil || u != nil {
		t.Fatalf("expected no-op, got %+v, %v", u, err)
	}
	if found, _ := store.FindUserByEmail(ctx, "import@localhost"); found != nil {
		t.Fatalf("bootstrap account should not be created")
	}
}
