package service

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/lavoroapp/marketplace-api/internal/core/domain"
	"github.com/lavoroapp/marketplace-api/internal/core/ports"
	"github.com/lavoroapp/marketplace-api/internal/core/stream"
)

type stubAccountRepo struct {
	accounts map[string]*domain.Account
}

func newStubAccountRepo() *stubAccountRepo {
	return &stubAccountRepo{accounts: make(map[string]*domain.Account)}
}

func cloneAccount(a *domain.Account) *domain.Account {
	if a == nil {
		return nil
	}
	clone := *a
	return &clone
}

func (r *stubAccountRepo) Create(_ context.Context, a *domain.Account) (*domain.Account, error) {
	if _, exists := r.accounts[a.Email]; exists {
		return nil, domain.ErrAccountExists
	}
	copy := cloneAccount(a)
	if copy.ID == "" {
		copy.ID = a.Email
	}
	r.accounts[copy.Email] = cloneAccount(copy)
	return cloneAccount(copy), nil
}

func (r *stubAccountRepo) FindByEmail(_ context.Context, email string) (*domain.Account, error) {
	a, ok := r.accounts[email]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	return cloneAccount(a), nil
}

type stubProfileRepo struct {
	profiles map[string]*domain.Profile
}

func newStubProfileRepo() *stubProfileRepo {
	return &stubProfileRepo{profiles: make(map[string]*domain.Profile)}
}

func (r *stubProfileRepo) FindByID(_ context.Context, id string) (*domain.Profile, error) {
	p, ok := r.profiles[id]
	if !ok {
		return nil, domain.ErrProfileNotFound
	}
	clone := *p
	return &clone, nil
}

func (r *stubProfileRepo) Create(_ context.Context, p *domain.Profile) error {
	clone := *p
	r.profiles[p.ID] = &clone
	return nil
}

func (r *stubProfileRepo) Watch(_ context.Context, _ string) (*stream.Subscription[domain.Profile], error) {
	return stream.NewSubscription[domain.Profile](nil), nil
}

func registerInput(email, role string) ports.RegisterInput {
	return ports.RegisterInput{
		Email:    email,
		Password: "s3cret",
		Role:     role,
		Name:     "Anna",
		Surname:  "Bianchi",
		City:     "Milano",
	}
}

func TestAuthService_Register_Success(t *testing.T) {
	accounts := newStubAccountRepo()
	profiles := newStubProfileRepo()
	svc := NewAuthService(accounts, profiles, "secret", time.Hour)

	res, err := svc.Register(context.Background(), registerInput("anna@example.com", domain.RoleWorker))
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if res.Token == "" || res.ProfileID == "" {
		t.Fatalf("incomplete result: %+v", res)
	}
	if res.Role != domain.RoleWorker {
		t.Fatalf("unexpected role: %s", res.Role)
	}

	// the profile document backs the account
	if _, err := profiles.FindByID(context.Background(), res.ProfileID); err != nil {
		t.Fatalf("profile not created: %v", err)
	}

	// password is stored hashed
	stored := accounts.accounts["anna@example.com"]
	if stored.PasswordHash == "s3cret" {
		t.Fatalf("expected password to be hashed")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("s3cret")); err != nil {
		t.Fatalf("stored hash does not match password: %v", err)
	}
}

func TestAuthService_Register_Validation(t *testing.T) {
	svc := NewAuthService(newStubAccountRepo(), newStubProfileRepo(), "secret", time.Hour)

	in := registerInput("", domain.RoleWorker)
	if _, err := svc.Register(context.Background(), in); err != domain.ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}

	in = registerInput("bob@example.com", "superuser")
	if _, err := svc.Register(context.Background(), in); err != domain.ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials for bad role, got %v", err)
	}
}

func TestAuthService_Register_Duplicate(t *testing.T) {
	svc := NewAuthService(newStubAccountRepo(), newStubProfileRepo(), "secret", time.Hour)

	_, _ = svc.Register(context.Background(), registerInput("bob@example.com", domain.RoleEmployer))
	if _, err := svc.Register(context.Background(), registerInput("bob@example.com", domain.RoleEmployer)); err != domain.ErrAccountExists {
		t.Fatalf("expected ErrAccountExists, got %v", err)
	}
}

func TestAuthService_Login_Success(t *testing.T) {
	svc := NewAuthService(newStubAccountRepo(), newStubProfileRepo(), "secret", time.Hour)

	reg, err := svc.Register(context.Background(), registerInput("carol@example.com", domain.RoleEmployer))
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	res, err := svc.Login(context.Background(), "carol@example.com", "s3cret")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if res.ProfileID != reg.ProfileID {
		t.Fatalf("login resolved a different profile: %s vs %s", res.ProfileID, reg.ProfileID)
	}

	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(res.Token, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte("secret"), nil
	})
	if err != nil || !parsed.Valid {
		t.Fatalf("token invalid: %v", err)
	}
	if claims["sub"] != reg.ProfileID {
		t.Fatalf("expected subject %s, got %v", reg.ProfileID, claims["sub"])
	}
	if claims["role"] != domain.RoleEmployer {
		t.Fatalf("expected role %s, got %v", domain.RoleEmployer, claims["role"])
	}
}

func TestAuthService_Login_InvalidPassword(t *testing.T) {
	svc := NewAuthService(newStubAccountRepo(), newStubProfileRepo(), "secret", time.Hour)

	_, _ = svc.Register(context.Background(), registerInput("dave@example.com", domain.RoleWorker))
	if _, err := svc.Login(context.Background(), "dave@example.com", "wrong"); err != domain.ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthService_Login_AccountNotFound(t *testing.T) {
	svc := NewAuthService(newStubAccountRepo(), newStubProfileRepo(), "secret", time.Hour)

	if _, err := svc.Login(context.Background(), "ghost@example.com", "pass"); err != domain.ErrAccountNotFound {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}
