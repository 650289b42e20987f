package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgAuth "github.com/greenloop/greenloop-backend/pkg/auth"
	"github.com/greenloop/greenloop-backend/pkg/config"
	"github.com/greenloop/greenloop-backend/pkg/db/models"
	"github.com/greenloop/greenloop-backend/pkg/enums"
	pkgerrors "github.com/greenloop/greenloop-backend/pkg/errors"
	"github.com/greenloop/greenloop-backend/pkg/security"
)

type fakeUserRepo struct {
	user      *models.User
	lastLogin time.Time
}

func (f *fakeUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if f.user == nil || f.user.Email != email {
		return nil, gorm.ErrRecordNotFound
	}
	return f.user, nil
}

func (f *fakeUserRepo) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	f.lastLogin = at
	return nil
}

type fakeRoles struct {
	role enums.AppRole
}

func (f *fakeRoles) Resolve(ctx context.Context, userID uuid.UUID) (enums.AppRole, error) {
	return f.role, nil
}

type fakeSessions struct {
	generated []string
}

func (f *fakeSessions) Generate(ctx context.Context, accessID string) (string, error) {
	f.generated = append(f.generated, accessID)
	return "refresh-" + accessID, nil
}

func testLoginJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "login-test-secret",
		Issuer:            "greenloop-test",
		ExpirationMinutes: 15,
	}
}

func newLoginHarness(t *testing.T, role enums.AppRole) (Service, *fakeUserRepo, *fakeSessions) {
	t.Helper()

	hash, err := security.HashPassword("open sesame", config.PasswordConfig{
		ArgonMemoryKB:    8,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     16,
		ArgonKeyLen:      32,
	})
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	repo := &fakeUserRepo{user: &models.User{
		ID:           uuid.New(),
		Email:        "pat@example.com",
		PasswordHash: hash,
		IsActive:     true,
	}}
	sessions := &fakeSessions{}
	svc, err := NewService(ServiceParams{
		UserRepo:       repo,
		RoleResolver:   &fakeRoles{role: role},
		SessionManager: sessions,
		JWTConfig:      testLoginJWTConfig(),
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc, repo, sessions
}

func TestLoginAcceptsAnyRole(t *testing.T) {
	for _, role := range []enums.AppRole{enums.AppRoleCustomer, enums.AppRoleDeliveryPartner, enums.AppRoleAdmin} {
		t.Run(string(role), func(t *testing.T) {
			svc, repo, sessions := newLoginHarness(t, role)

			resp, err := svc.Login(context.Background(), LoginRequest{Email: "pat@example.com", Password: "open sesame"})
			if err != nil {
				t.Fatalf("Login for %s: %v", role, err)
			}
			if resp.Role != role {
				t.Fatalf("expected role %s in response, got %s", role, resp.Role)
			}
			if resp.AccessToken == "" || resp.RefreshToken == "" {
				t.Fatal("expected a full session")
			}
			if len(sessions.generated) != 1 {
				t.Fatalf("expected one refresh session, got %d", len(sessions.generated))
			}
			if repo.lastLogin.IsZero() {
				t.Fatal("expected last login recorded")
			}

			claims, err := pkgAuth.ParseAccessToken(testLoginJWTConfig(), resp.AccessToken)
			if err != nil {
				t.Fatalf("parse minted token: %v", err)
			}
			if claims.Role != role {
				t.Fatalf("expected %s claim, got %s", role, claims.Role)
			}
		})
	}
}

func TestPartnerLoginRejectsOtherRoles(t *testing.T) {
	svc, _, sessions := newLoginHarness(t, enums.AppRoleCustomer)

	_, err := svc.PartnerLogin(context.Background(), LoginRequest{Email: "pat@example.com", Password: "open sesame"})
	if te := pkgerrors.As(err); te == nil || te.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	// The portal mismatch must leave no session state behind.
	if len(sessions.generated) != 0 {
		t.Fatalf("expected no refresh sessions, got %d", len(sessions.generated))
	}
}

func TestAdminLoginRejectsPartner(t *testing.T) {
	svc, _, _ := newLoginHarness(t, enums.AppRoleDeliveryPartner)

	_, err := svc.AdminLogin(context.Background(), LoginRequest{Email: "pat@example.com", Password: "open sesame"})
	if te := pkgerrors.As(err); te == nil || te.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestLoginRejectsBadPassword(t *testing.T) {
	svc, _, _ := newLoginHarness(t, enums.AppRoleCustomer)

	_, err := svc.Login(context.Background(), LoginRequest{Email: "pat@example.com", Password: "wrong"})
	if te := pkgerrors.As(err); te == nil || te.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestLoginRejectsInactiveUser(t *testing.T) {
	svc, repo, _ := newLoginHarness(t, enums.AppRoleCustomer)
	repo.user.IsActive = false

	_, err := svc.Login(context.Background(), LoginRequest{Email: "pat@example.com", Password: "open sesame"})
	if te := pkgerrors.As(err); te == nil || te.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}
