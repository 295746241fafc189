package ports

import (
	"context"

	"github.com/lavoroapp/marketplace-api/internal/core/domain"
)

// RegisterInput carries everything needed to create an account and its
// profile document at onboarding.
type RegisterInput struct {
	Email    string
	Password string
	Role     string
	Name     string
	Surname  string
	Phone    string
	City     string
}

// AuthResult is returned on successful registration or login.
type AuthResult struct {
	Token     string
	ProfileID string
	Role      string
}

// AuthService is the identity-provider boundary: it issues the stable
// per-session user id (as a JWT subject) that the sync engine keys on.
type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*AuthResult, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)
}

// JobInput carries an employer's new job posting.
type JobInput struct {
	OwnerProfileID string
	Category       string
	CategoryDetail string
	Date           string
	StartTime      string
	EndTime        string
	Address        string
	HourlyRate     float64
	Description    string
	Location       *domain.Coordinates
}

// JobService creates job postings on behalf of employers.
type JobService interface {
	CreateJob(ctx context.Context, in JobInput) (*domain.Job, error)
}
