package controller

import (
	"context"
	"sync"
	"time"

	"github.com/gartstein/jobboard/internal/jobboard/events"
	"github.com/gartstein/jobboard/internal/jobboard/models"
	"github.com/gartstein/jobboard/internal/jobboard/verification"
	"github.com/google/uuid"
)

// MockAccountRepository implements AccountRepository for testing
type MockAccountRepository struct {
	createAccount      func(context.Context, *models.Account) error
	getAccountByEmail  func(context.Context, string) (*models.Account, error)
	getAccountByMobile func(context.Context, string) (*models.Account, error)
	markMobileVerified func(context.Context, string) (*models.Account, error)
	markMailVerified   func(context.Context, string) (*models.Account, error)
}

func (m *MockAccountRepository) CreateAccount(ctx context.Context, a *models.Account) error {
	return m.createAccount(ctx, a)
}

func (m *MockAccountRepository) GetAccountByEmail(ctx context.Context, email string) (*models.Account, error) {
	return m.getAccountByEmail(ctx, email)
}

func (m *MockAccountRepository) GetAccountByMobile(ctx context.Context, mobile string) (*models.Account, error) {
	return m.getAccountByMobile(ctx, mobile)
}

func (m *MockAccountRepository) MarkMobileVerified(ctx context.Context, mobile string) (*models.Account, error) {
	return m.markMobileVerified(ctx, mobile)
}

func (m *MockAccountRepository) MarkMailVerified(ctx context.Context, email string) (*models.Account, error) {
	return m.markMailVerified(ctx, email)
}

// MockProfileRepository implements ProfileRepository for testing
type MockProfileRepository struct {
	getProfileByOwner func(context.Context, uuid.UUID) (*models.CompanyProfile, error)
	createProfile     func(context.Context, *models.CompanyProfile) error
	updateProfile     func(context.Context, uuid.UUID, func(*models.CompanyProfile) error) (*models.CompanyProfile, error)
}

func (m *MockProfileRepository) GetProfileByOwner(ctx context.Context, ownerID uuid.UUID) (*models.CompanyProfile, error) {
	return m.getProfileByOwner(ctx, ownerID)
}

func (m *MockProfileRepository) CreateProfile(ctx context.Context, p *models.CompanyProfile) error {
	return m.createProfile(ctx, p)
}

func (m *MockProfileRepository) UpdateProfile(ctx context.Context, ownerID uuid.UUID, mutate func(*models.CompanyProfile) error) (*models.CompanyProfile, error) {
	return m.updateProfile(ctx, ownerID, mutate)
}

// MockProducer records produced events.
type MockProducer struct {
	mu     sync.Mutex
	events []events.Event
}

func (m *MockProducer) Produce(event events.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
}

func (m *MockProducer) Types() []events.EventType {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]events.EventType, 0, len(m.events))
	for _, e := range m.events {
		out = append(out, e.Type)
	}
	return out
}

// MockHasher is a reversible stand-in for bcrypt.
type MockHasher struct {
	err error
}

func (m *MockHasher) Hash(password string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	return "hashed:" + password, nil
}

func (m *MockHasher) Verify(password, digest string) bool {
	return digest == "hashed:"+password
}

// MockTokenIssuer issues predictable tokens.
type MockTokenIssuer struct {
	err error
}

func (m *MockTokenIssuer) Issue(id uuid.UUID, _ string) (string, time.Time, error) {
	if m.err != nil {
		return "", time.Time{}, m.err
	}
	return "token-" + id.String(), time.Unix(1_700_000_000, 0), nil
}

// MockProvider answers on channels like a real provider.
type MockProvider struct {
	sendCode    func(context.Context, string) verification.SendResult
	confirmCode func(context.Context, string, string) verification.ConfirmResult
	block       bool
}

func (m *MockProvider) SendCode(ctx context.Context, target string) <-chan verification.SendResult {
	out := make(chan verification.SendResult, 1)
	if !m.block {
		out <- m.sendCode(ctx, target)
	}
	return out
}

func (m *MockProvider) ConfirmCode(ctx context.Context, id, code string) <-chan verification.ConfirmResult {
	out := make(chan verification.ConfirmResult, 1)
	if !m.block {
		out <- m.confirmCode(ctx, id, code)
	}
	return out
}
