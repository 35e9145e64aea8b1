package handlers

import (
	"context"
	"errors"
	"io"
	"sync"

	e "github.com/gartstein/jobboard/internal/jobboard/errors"
	"github.com/gartstein/jobboard/internal/jobboard/models"
	"github.com/gartstein/jobboard/internal/jobboard/storage"
	"github.com/google/uuid"
)

// MockAccountController implements AccountController for testing
type MockAccountController struct {
	register          func(context.Context, models.Registration) (*models.Account, error)
	login             func(context.Context, string, string) (*models.Session, error)
	sendMobileCode    func(context.Context, string) (string, error)
	confirmMobileCode func(context.Context, string, string) (*models.Account, error)
	sendEmailCode     func(context.Context, string) (string, error)
	confirmEmailCode  func(context.Context, string, string) (*models.Account, error)
}

func (m *MockAccountController) Register(ctx context.Context, reg models.Registration) (*models.Account, error) {
	return m.register(ctx, reg)
}

func (m *MockAccountController) Login(ctx context.Context, email, password string) (*models.Session, error) {
	return m.login(ctx, email, password)
}

func (m *MockAccountController) SendMobileCode(ctx context.Context, mobile string) (string, error) {
	return m.sendMobileCode(ctx, mobile)
}

func (m *MockAccountController) ConfirmMobileCode(ctx context.Context, challengeID, code string) (*models.Account, error) {
	return m.confirmMobileCode(ctx, challengeID, code)
}

func (m *MockAccountController) SendEmailCode(ctx context.Context, email string) (string, error) {
	return m.sendEmailCode(ctx, email)
}

func (m *MockAccountController) ConfirmEmailCode(ctx context.Context, challengeID, code string) (*models.Account, error) {
	return m.confirmEmailCode(ctx, challengeID, code)
}

// MockCompanyController implements CompanyController for testing
type MockCompanyController struct {
	getProfile      func(context.Context, uuid.UUID) (*models.CompanyProfile, error)
	upsertProfile   func(context.Context, uuid.UUID, models.CompanyProfileUpdate) (*models.CompanyProfile, error)
	registerProfile func(context.Context, uuid.UUID, models.CompanyProfile) (*models.CompanyProfile, error)
}

func (m *MockCompanyController) GetProfile(ctx context.Context, ownerID uuid.UUID) (*models.CompanyProfile, error) {
	return m.getProfile(ctx, ownerID)
}

func (m *MockCompanyController) UpsertProfile(ctx context.Context, ownerID uuid.UUID, update models.CompanyProfileUpdate) (*models.CompanyProfile, error) {
	return m.upsertProfile(ctx, ownerID, update)
}

func (m *MockCompanyController) RegisterProfile(ctx context.Context, ownerID uuid.UUID, input models.CompanyProfile) (*models.CompanyProfile, error) {
	return m.registerProfile(ctx, ownerID, input)
}

// MockAssetStore keeps uploaded bodies in memory. failKind makes uploads of
// one kind fail.
type MockAssetStore struct {
	mu        sync.Mutex
	assets    []storage.Asset
	bodies    [][]byte
	deleted   []string
	err       error
	failKind  storage.Kind
	deleteErr error
}

func (m *MockAssetStore) Put(_ context.Context, asset storage.Asset) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	if m.failKind != "" && asset.Kind == m.failKind {
		return "", errors.New("upload failed")
	}
	body, err := io.ReadAll(asset.Body)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.assets = append(m.assets, asset)
	m.bodies = append(m.bodies, body)
	return "https://cdn.test/" + string(asset.Kind) + "/" + asset.Filename, nil
}

func (m *MockAssetStore) Delete(_ context.Context, url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, url)
	return m.deleteErr
}

// MockVerifier accepts "good-token" for a fixed identity.
type MockVerifier struct {
	identity *models.Identity
}

func (m *MockVerifier) Verify(token string) (*models.Identity, error) {
	if token != "good-token" {
		return nil, e.ErrInvalidToken
	}
	return m.identity, nil
}

// MockPinger returns err from Ping.
type MockPinger struct {
	err error
}

func (m *MockPinger) Ping(context.Context) error {
	return m.err
}
