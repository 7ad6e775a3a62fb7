package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"gorm.io/gorm"

	"github.com/ainuod/DeliveryCOMPANY/internal/config"
	"github.com/ainuod/DeliveryCOMPANY/internal/entity"
	"github.com/ainuod/DeliveryCOMPANY/internal/repository"
	"github.com/ainuod/DeliveryCOMPANY/internal/testutil"
)

func setupAuthService(t *testing.T) (*AuthService, *gorm.DB) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)
	cfg := &config.Config{}
	cfg.JWT.Secret = testutil.JWTSecret
	cfg.JWT.Issuer = "delivery-backoffice"
	// Redis is only needed for the token lifecycle, not registration.
	svc := NewAuthService(db, repos.User, nil, cfg)
	return svc, db
}

func registerRequest(username, role string) *RegisterRequest {
	return &RegisterRequest{
		Username:    username,
		Email:       username + "@test.com",
		Password:    "s3cret-pass",
		Role:        role,
		CompanyName: strings.ToUpper(username) + " SARL",
	}
}

func TestRegisterClientCreatesBillingProfile(t *testing.T) {
	svc, db := setupAuthService(t)

	user, err := svc.Register(context.Background(), registerRequest("fennec", entity.RoleClient))
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if user.Profile == nil {
		t.Fatal("expected a billing profile on the registered client")
	}

	var profile entity.ClientProfile
	if err := db.Where("user_id = ?", user.ID).First(&profile).Error; err != nil {
		t.Fatalf("load profile: %v", err)
	}
	if !profile.Balance.IsZero() {
		t.Errorf("starting balance = %s, want 0", profile.Balance)
	}
}

func TestRegisterAgentHasNoProfile(t *testing.T) {
	svc, db := setupAuthService(t)

	user, err := svc.Register(context.Background(), registerRequest("dispatch", entity.RoleAgent))
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}

	var count int64
	db.Model(&entity.ClientProfile{}).Where("user_id = ?", user.ID).Count(&count)
	if count != 0 {
		t.Errorf("profile count = %d, want 0 for %s", count, user.Role)
	}
}

func TestRegisterRollsBackUserWhenProfileFails(t *testing.T) {
	svc, db := setupAuthService(t)

	// company_name is varchar(255); overflow makes the profile insert fail
	// after the user insert succeeded inside the same transaction.
	req := registerRequest("ghost", entity.RoleClient)
	req.CompanyName = strings.Repeat("x", 300)

	if _, err := svc.Register(context.Background(), req); err == nil {
		t.Fatal("expected Register to fail on the oversized profile")
	}

	var users int64
	db.Model(&entity.User{}).Where("username = ?", "ghost").Count(&users)
	if users != 0 {
		t.Errorf("user count = %d, want 0 after rollback", users)
	}
}

func TestRegisterRejectsDuplicateUsername(t *testing.T) {
	svc, _ := setupAuthService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, registerRequest("taken", entity.RoleClient)); err != nil {
		t.Fatalf("first Register returned error: %v", err)
	}

	_, err := svc.Register(ctx, registerRequest("taken", entity.RoleClient))
	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}
