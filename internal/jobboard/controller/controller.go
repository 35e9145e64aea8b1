// Package controller implements the core business logic (service layer):
// account registration and login, mobile verification, and the company
// profile claim workflow.
package controller

import (
	"context"
	"time"

	"github.com/gartstein/jobboard/internal/jobboard/events"
	"github.com/gartstein/jobboard/internal/jobboard/models"
	"github.com/google/uuid"
)

type EventProducer interface {
	Produce(event events.Event)
}

// AccountRepository is the credential store.
type AccountRepository interface {
	CreateAccount(ctx context.Context, account *models.Account) error
	GetAccountByEmail(ctx context.Context, email string) (*models.Account, error)
	GetAccountByMobile(ctx context.Context, mobile string) (*models.Account, error)
	MarkMobileVerified(ctx context.Context, mobile string) (*models.Account, error)
	MarkMailVerified(ctx context.Context, email string) (*models.Account, error)
}

// ProfileRepository stores company profiles, at most one per owner.
type ProfileRepository interface {
	GetProfileByOwner(ctx context.Context, ownerID uuid.UUID) (*models.CompanyProfile, error)
	CreateProfile(ctx context.Context, profile *models.CompanyProfile) error
	UpdateProfile(ctx context.Context, ownerID uuid.UUID, mutate func(*models.CompanyProfile) error) (*models.CompanyProfile, error)
}

type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, digest string) bool
}

type TokenIssuer interface {
	Issue(accountID uuid.UUID, email string) (string, time.Time, error)
}
