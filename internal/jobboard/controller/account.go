package controller

import (
	"context"
	"errors"
	"fmt"
	"strings"

	e "github.com/gartstein/jobboard/internal/jobboard/errors"
	"github.com/gartstein/jobboard/internal/jobboard/events"
	"github.com/gartstein/jobboard/internal/jobboard/models"
	"github.com/gartstein/jobboard/internal/jobboard/verification"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var validate = validator.New()

var passwordMessage = fmt.Sprintf("must be %d to %d bytes long", models.MinPasswordLength, models.MaxPasswordLength)

// AccountService registers accounts, logs them in and records mobile and
// email verification.
type AccountService struct {
	repo     AccountRepository
	hasher   PasswordHasher
	tokens   TokenIssuer
	otp      verification.Provider
	mail     verification.Provider
	producer EventProducer
	logger   *zap.Logger
}

// NewAccountService builds the service. otp verifies mobile numbers and mail
// verifies email addresses; mail may be nil to disable email verification.
func NewAccountService(
	repo AccountRepository,
	hasher PasswordHasher,
	tokens TokenIssuer,
	otp verification.Provider,
	mail verification.Provider,
	producer EventProducer,
	logger *zap.Logger,
) *AccountService {
	return &AccountService{
		repo:     repo,
		hasher:   hasher,
		tokens:   tokens,
		otp:      otp,
		mail:     mail,
		producer: producer,
		logger:   logger.Named("account_service"),
	}
}

// Register creates an unverified account. The returned account never carries
// the password hash.
func (s *AccountService) Register(ctx context.Context, reg models.Registration) (*models.Account, error) {
	reg.Email = models.NormalizeEmail(reg.Email)
	reg.Gender = models.NormalizeGender(string(reg.Gender))
	reg.FullName = strings.TrimSpace(reg.FullName)
	if reg.MobileNo != nil {
		reg.MobileNo = models.NormalizeMobile(*reg.MobileNo)
	}

	if err := validateRegistration(reg); err != nil {
		return nil, err
	}

	if _, err := s.repo.GetAccountByEmail(ctx, reg.Email); err == nil {
		return nil, e.ErrDuplicateEmail
	} else if !errors.Is(err, e.ErrNotFound) {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	if reg.MobileNo != nil {
		if _, err := s.repo.GetAccountByMobile(ctx, *reg.MobileNo); err == nil {
			return nil, e.ErrDuplicateMobile
		} else if !errors.Is(err, e.ErrNotFound) {
			return nil, fmt.Errorf("failed to check mobile: %w", err)
		}
	}

	digest, err := s.hasher.Hash(reg.Password)
	if err != nil {
		return nil, err
	}

	account := &models.Account{
		ID:           uuid.New(),
		Email:        reg.Email,
		PasswordHash: digest,
		FullName:     reg.FullName,
		Gender:       reg.Gender,
		MobileNo:     reg.MobileNo,
		SignupType:   reg.SignupType,
	}
	if err := s.repo.CreateAccount(ctx, account); err != nil {
		if errors.Is(err, e.ErrDuplicateIdentity) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	s.logger.Info("account registered", zap.String("account_id", account.ID.String()))
	s.producer.Produce(events.NewAccountEvent(events.AccountRegistered, account))

	return public(account), nil
}

func validateRegistration(reg models.Registration) error {
	var v e.ValidationError
	if reg.Email == "" {
		v.Add("email", "is required")
	} else if err := validate.Var(reg.Email, "email"); err != nil {
		v.Add("email", "must be a valid email address")
	}
	if !models.ValidPasswordLength(reg.Password) {
		v.Add("password", passwordMessage)
	}
	if reg.FullName == "" {
		v.Add("full_name", "is required")
	}
	if !reg.Gender.Valid() {
		v.Add("gender", "must be one of M, F, O")
	}
	if reg.MobileNo != nil && !models.ValidMobile(*reg.MobileNo) {
		v.Add("mobile_no", "must be a valid phone number")
	}
	if reg.SignupType != models.SignupTypeEmail {
		v.Add("signup_type", fmt.Sprintf("must be %q", models.SignupTypeEmail))
	}
	return v.Err()
}

// Login checks credentials and issues a session token. Unknown email and
// wrong password fail the same way.
func (s *AccountService) Login(ctx context.Context, email, password string) (*models.Session, error) {
	account, err := s.repo.GetAccountByEmail(ctx, models.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, e.ErrNotFound) {
			return nil, e.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to load account: %w", err)
	}

	if !s.hasher.Verify(password, account.PasswordHash) {
		return nil, e.ErrInvalidCredentials
	}

	token, expiresAt, err := s.tokens.Issue(account.ID, account.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	return &models.Session{Token: token, ExpiresAt: expiresAt, Account: public(account)}, nil
}

// SendMobileCode starts verification of a registered mobile number and
// returns the challenge id the code must be confirmed against.
func (s *AccountService) SendMobileCode(ctx context.Context, mobile string) (string, error) {
	normalized := models.NormalizeMobile(mobile)
	if normalized == nil || !models.ValidMobile(*normalized) {
		return "", e.NewValidationError("mobile_no", "must be a valid phone number")
	}

	if _, err := s.repo.GetAccountByMobile(ctx, *normalized); err != nil {
		if errors.Is(err, e.ErrNotFound) {
			return "", err
		}
		return "", fmt.Errorf("failed to load account: %w", err)
	}

	return sendCode(ctx, s.otp, *normalized)
}

// ConfirmMobileCode checks the code for a challenge and, on success, marks the
// mobile number of the owning account as verified.
func (s *AccountService) ConfirmMobileCode(ctx context.Context, challengeID, code string) (*models.Account, error) {
	mobile, err := confirmCode(ctx, s.otp, challengeID, code)
	if err != nil {
		return nil, err
	}

	account, err := s.repo.MarkMobileVerified(ctx, mobile)
	if err != nil {
		if errors.Is(err, e.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to record verification: %w", err)
	}

	s.logger.Info("mobile verified", zap.String("account_id", account.ID.String()))
	s.producer.Produce(events.NewAccountEvent(events.AccountMobileVerified, account))

	return public(account), nil
}

// SendEmailCode starts verification of a registered email address.
func (s *AccountService) SendEmailCode(ctx context.Context, email string) (string, error) {
	if s.mail == nil {
		return "", fmt.Errorf("%w: email verification is not configured", e.ErrProviderUnavailable)
	}
	email = models.NormalizeEmail(email)
	if err := validate.Var(email, "required,email"); err != nil {
		return "", e.NewValidationError("email", "must be a valid email address")
	}

	if _, err := s.repo.GetAccountByEmail(ctx, email); err != nil {
		if errors.Is(err, e.ErrNotFound) {
			return "", err
		}
		return "", fmt.Errorf("failed to load account: %w", err)
	}

	return sendCode(ctx, s.mail, email)
}

// ConfirmEmailCode checks the code for an email challenge and, on success,
// marks the address as verified.
func (s *AccountService) ConfirmEmailCode(ctx context.Context, challengeID, code string) (*models.Account, error) {
	if s.mail == nil {
		return nil, fmt.Errorf("%w: email verification is not configured", e.ErrProviderUnavailable)
	}
	email, err := confirmCode(ctx, s.mail, challengeID, code)
	if err != nil {
		return nil, err
	}

	account, err := s.repo.MarkMailVerified(ctx, email)
	if err != nil {
		if errors.Is(err, e.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to record verification: %w", err)
	}

	s.logger.Info("email verified", zap.String("account_id", account.ID.String()))
	s.producer.Produce(events.NewAccountEvent(events.AccountMailVerified, account))

	return public(account), nil
}

// sendCode waits for the provider to dispatch a code or for ctx to end.
func sendCode(ctx context.Context, provider verification.Provider, target string) (string, error) {
	select {
	case res := <-provider.SendCode(ctx, target):
		if res.Err != nil {
			return "", fmt.Errorf("failed to send code: %w", res.Err)
		}
		return res.ChallengeID, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// confirmCode returns the target of a challenge once its code is accepted.
func confirmCode(ctx context.Context, provider verification.Provider, challengeID, code string) (string, error) {
	var v e.ValidationError
	if strings.TrimSpace(challengeID) == "" {
		v.Add("challenge_id", "is required")
	}
	if strings.TrimSpace(code) == "" {
		v.Add("code", "is required")
	}
	if err := v.Err(); err != nil {
		return "", err
	}

	var res verification.ConfirmResult
	select {
	case res = <-provider.ConfirmCode(ctx, challengeID, strings.TrimSpace(code)):
	case <-ctx.Done():
		return "", ctx.Err()
	}

	if res.Err != nil {
		return "", fmt.Errorf("failed to confirm code: %w", res.Err)
	}
	if !res.Verified {
		return "", e.ErrCodeRejected
	}
	return res.Target, nil
}

// public returns a copy of a without the password hash.
func public(a *models.Account) *models.Account {
	out := *a
	out.PasswordHash = ""
	return &out
}
