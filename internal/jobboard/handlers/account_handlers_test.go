package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	e "github.com/gartstein/jobboard/internal/jobboard/errors"
	"github.com/gartstein/jobboard/internal/jobboard/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRegisterBody() map[string]interface{} {
	return map[string]interface{}{
		"email":       "Ann@Acme.io",
		"password":    "secret1",
		"full_name":   "Ann Doe",
		"gender":      "f",
		"mobile_no":   "+91 98765-43210",
		"signup_type": "e",
	}
}

func TestRegister(t *testing.T) {
	tr := newTestRouter(t)
	id := uuid.New()
	var got models.Registration
	tr.accounts.register = func(_ context.Context, reg models.Registration) (*models.Account, error) {
		got = reg
		return &models.Account{ID: id, Email: "ann@acme.io", FullName: reg.FullName}, nil
	}

	rec := tr.do(jsonRequest(t, http.MethodPost, "/auth/register", validRegisterBody()))

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "User registered successfully. Please verify email & mobile", body["message"])
	user := body["user"].(map[string]interface{})
	assert.Equal(t, id.String(), user["id"])
	assert.Equal(t, "ann@acme.io", user["email"])
	assert.NotContains(t, user, "password")

	assert.Equal(t, models.GenderFemale, got.Gender)
	require.NotNil(t, got.MobileNo)
	assert.Equal(t, "+919876543210", *got.MobileNo)
}

func TestRegisterValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(map[string]interface{})
		field  string
	}{
		{name: "missing email", mutate: func(b map[string]interface{}) { delete(b, "email") }, field: "email"},
		{name: "bad email", mutate: func(b map[string]interface{}) { b["email"] = "not-mail" }, field: "email"},
		{name: "short password", mutate: func(b map[string]interface{}) { b["password"] = "12345" }, field: "password"},
		{name: "password over 72 bytes", mutate: func(b map[string]interface{}) { b["password"] = strings.Repeat("é", 40) }, field: "password"},
		{name: "mobile with zero country code", mutate: func(b map[string]interface{}) { b["mobile_no"] = "+0123456789" }, field: "mobile_no"},
		{name: "bad gender", mutate: func(b map[string]interface{}) { b["gender"] = "x" }, field: "gender"},
		{name: "bad mobile", mutate: func(b map[string]interface{}) { b["mobile_no"] = "12" }, field: "mobile_no"},
		{name: "missing mobile", mutate: func(b map[string]interface{}) { delete(b, "mobile_no") }, field: "mobile_no"},
		{name: "signup type", mutate: func(b map[string]interface{}) { b["signup_type"] = "g" }, field: "signup_type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := newTestRouter(t)
			tr.accounts.register = func(context.Context, models.Registration) (*models.Account, error) {
				t.Fatal("controller must not be reached")
				return nil, nil
			}
			body := validRegisterBody()
			tt.mutate(body)

			rec := tr.do(jsonRequest(t, http.MethodPost, "/auth/register", body))

			require.Equal(t, http.StatusBadRequest, rec.Code)
			resp := decode(t, rec)
			assert.Equal(t, false, resp["success"])
			fields := resp["errors"].([]interface{})
			require.NotEmpty(t, fields)
			assert.Equal(t, tt.field, fields[0].(map[string]interface{})["field"])
		})
	}
}

func TestRegisterMalformedJSON(t *testing.T) {
	tr := newTestRouter(t)
	rec := tr.do(jsonRequest(t, http.MethodPost, "/auth/register", "{not json"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRegisterConflicts(t *testing.T) {
	tests := []struct {
		err     error
		message string
	}{
		{err: e.ErrDuplicateEmail, message: "Email already registered"},
		{err: e.ErrDuplicateMobile, message: "Mobile number already registered"},
	}
	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			tr := newTestRouter(t)
			tr.accounts.register = func(context.Context, models.Registration) (*models.Account, error) {
				return nil, tt.err
			}

			rec := tr.do(jsonRequest(t, http.MethodPost, "/auth/register", validRegisterBody()))

			assert.Equal(t, http.StatusConflict, rec.Code)
			assert.Equal(t, tt.message, decode(t, rec)["message"])
		})
	}
}

func TestRegisterInternalErrorHidesDetail(t *testing.T) {
	tr := newTestRouter(t)
	tr.accounts.register = func(context.Context, models.Registration) (*models.Account, error) {
		return nil, errors.New("pq: connection refused at 10.0.0.3")
	}

	rec := tr.do(jsonRequest(t, http.MethodPost, "/auth/register", validRegisterBody()))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Server error", decode(t, rec)["message"])
	assert.NotContains(t, rec.Body.String(), "10.0.0.3")
}

func TestLogin(t *testing.T) {
	account := &models.Account{
		ID:         uuid.New(),
		Email:      "ann@acme.io",
		FullName:   "Ann Doe",
		SignupType: models.SignupTypeEmail,
	}
	expires := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		path          string
		companyFields bool
	}{
		{path: "/auth/login", companyFields: false},
		{path: "/company/login", companyFields: true},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			tr := newTestRouter(t)
			tr.accounts.login = func(_ context.Context, email, password string) (*models.Session, error) {
				assert.Equal(t, "ann@acme.io", email)
				assert.Equal(t, "secret1", password)
				return &models.Session{Token: "tok", ExpiresAt: expires, Account: account}, nil
			}

			rec := tr.do(jsonRequest(t, http.MethodPost, tt.path, map[string]string{
				"email": "ann@acme.io", "password": "secret1",
			}))

			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			body := decode(t, rec)
			assert.Equal(t, "Login successful", body["message"])
			assert.Equal(t, "tok", body["token"])
			user := body["user"].(map[string]interface{})
			assert.Equal(t, account.ID.String(), user["id"])
			assert.Equal(t, "e", user["signup_type"])
			if tt.companyFields {
				assert.Contains(t, user, "is_mobile_verified")
			} else {
				assert.NotContains(t, user, "is_mobile_verified")
			}
		})
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	tr := newTestRouter(t)
	tr.accounts.login = func(context.Context, string, string) (*models.Session, error) {
		return nil, e.ErrInvalidCredentials
	}

	rec := tr.do(jsonRequest(t, http.MethodPost, "/auth/login", map[string]string{
		"email": "ann@acme.io", "password": "wrong",
	}))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid email or password", decode(t, rec)["message"])
}

func TestSendMobileCode(t *testing.T) {
	tr := newTestRouter(t)
	tr.accounts.sendMobileCode = func(_ context.Context, mobile string) (string, error) {
		assert.Equal(t, "+919876543210", mobile)
		return "challenge-1", nil
	}

	rec := tr.do(jsonRequest(t, http.MethodPost, "/auth/mobile/send-code", map[string]string{
		"mobile_no": "+919876543210",
	}))

	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "challenge-1", decode(t, rec)["challenge_id"])
}

func TestSendMobileCodeErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{name: "unknown mobile", err: e.ErrNotFound, status: http.StatusNotFound},
		{name: "provider down", err: e.ErrProviderUnavailable, status: http.StatusBadGateway},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := newTestRouter(t)
			tr.accounts.sendMobileCode = func(context.Context, string) (string, error) {
				return "", tt.err
			}

			rec := tr.do(jsonRequest(t, http.MethodPost, "/auth/mobile/send-code", map[string]string{
				"mobile_no": "+919876543210",
			}))

			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestVerifyMobileCode(t *testing.T) {
	tests := []struct {
		name   string
		code   string
		err    error
		status int
	}{
		{name: "verified", code: "123456", status: http.StatusOK},
		{name: "rejected", code: "123456", err: e.ErrCodeRejected, status: http.StatusUnauthorized},
		{name: "expired", code: "123456", err: e.ErrNotFound, status: http.StatusNotFound},
		{name: "not digits", code: "12ab56", status: http.StatusBadRequest},
		{name: "too short", code: "123", status: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := newTestRouter(t)
			tr.accounts.confirmMobileCode = func(_ context.Context, challengeID, code string) (*models.Account, error) {
				assert.Equal(t, "challenge-1", challengeID)
				if tt.err != nil {
					return nil, tt.err
				}
				return &models.Account{IsMobileVerified: true}, nil
			}

			rec := tr.do(jsonRequest(t, http.MethodPost, "/auth/mobile/verify", map[string]string{
				"challenge_id": "challenge-1", "code": tt.code,
			}))

			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
		})
	}
}

func TestEmailVerificationRoutes(t *testing.T) {
	tr := newTestRouter(t)
	tr.accounts.sendEmailCode = func(_ context.Context, email string) (string, error) {
		if email == "ghost@acme.io" {
			return "", e.ErrNotFound
		}
		return "mail-1", nil
	}
	tr.accounts.confirmEmailCode = func(_ context.Context, challengeID, code string) (*models.Account, error) {
		if code != "123456" {
			return nil, e.ErrCodeRejected
		}
		return &models.Account{IsMailVerified: true}, nil
	}

	rec := tr.do(jsonRequest(t, http.MethodPost, "/auth/email/send-code", map[string]string{"email": "ann@acme.io"}))
	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "mail-1", decode(t, rec)["challenge_id"])

	rec = tr.do(jsonRequest(t, http.MethodPost, "/auth/email/send-code", map[string]string{"email": "ghost@acme.io"}))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = tr.do(jsonRequest(t, http.MethodPost, "/auth/email/send-code", map[string]string{"email": "nope"}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = tr.do(jsonRequest(t, http.MethodPost, "/auth/email/verify", map[string]string{"challenge_id": "mail-1", "code": "000000"}))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = tr.do(jsonRequest(t, http.MethodPost, "/auth/email/verify", map[string]string{"challenge_id": "mail-1", "code": "123456"}))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Email verified successfully", decode(t, rec)["message"])
}
