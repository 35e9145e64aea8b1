package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gartstein/jobboard/internal/jobboard/models"
	"github.com/gartstein/jobboard/internal/pkg/utils"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AccountController is the account workflow the HTTP layer drives.
type AccountController interface {
	Register(ctx context.Context, reg models.Registration) (*models.Account, error)
	Login(ctx context.Context, email, password string) (*models.Session, error)
	SendMobileCode(ctx context.Context, mobile string) (string, error)
	ConfirmMobileCode(ctx context.Context, challengeID, code string) (*models.Account, error)
	SendEmailCode(ctx context.Context, email string) (string, error)
	ConfirmEmailCode(ctx context.Context, challengeID, code string) (*models.Account, error)
}

// AccountHandler serves registration, login and mobile verification.
type AccountHandler struct {
	accounts AccountController
	logger   *zap.Logger
}

func NewAccountHandler(accounts AccountController, logger *zap.Logger) *AccountHandler {
	registerValidators()
	return &AccountHandler{
		accounts: accounts,
		logger:   logger.Named("account_handler"),
	}
}

type registerRequest struct {
	Email      string `json:"email" binding:"required,email"`
	Password   string `json:"password" binding:"required,password"`
	FullName   string `json:"full_name" binding:"required"`
	Gender     string `json:"gender" binding:"required,gender"`
	MobileNo   string `json:"mobile_no" binding:"required,mobile"`
	SignupType string `json:"signup_type" binding:"required,eq=e"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type sendCodeRequest struct {
	MobileNo string `json:"mobile_no" binding:"required,mobile"`
}

type sendEmailCodeRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type verifyCodeRequest struct {
	ChallengeID string `json:"challenge_id" binding:"required"`
	Code        string `json:"code" binding:"required,len=6,numeric"`
}

type userBody struct {
	ID               uuid.UUID `json:"id"`
	Email            string    `json:"email"`
	FullName         string    `json:"full_name"`
	SignupType       string    `json:"signup_type,omitempty"`
	IsMobileVerified *bool     `json:"is_mobile_verified,omitempty"`
}

type registerResponse struct {
	Success bool     `json:"success"`
	Message string   `json:"message"`
	User    userBody `json:"user"`
}

type loginResponse struct {
	Success   bool      `json:"success"`
	Message   string    `json:"message"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      userBody  `json:"user"`
}

// Register handles POST /auth/register.
func (h *AccountHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := bindJSON(c, &req); err != nil {
		writeError(c, h.logger, err, "")
		return
	}

	account, err := h.accounts.Register(c.Request.Context(), models.Registration{
		Email:      req.Email,
		Password:   req.Password,
		FullName:   req.FullName,
		Gender:     models.NormalizeGender(req.Gender),
		MobileNo:   models.NormalizeMobile(req.MobileNo),
		SignupType: req.SignupType,
	})
	if err != nil {
		writeError(c, h.logger, err, "")
		return
	}

	c.JSON(http.StatusCreated, registerResponse{
		Success: true,
		Message: "User registered successfully. Please verify email & mobile",
		User: userBody{
			ID:       account.ID,
			Email:    account.Email,
			FullName: account.FullName,
		},
	})
}

// Login handles POST /auth/login and POST /company/login. The company route
// also reports whether the mobile number is verified.
func (h *AccountHandler) Login(withCompanyFields bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req loginRequest
		if err := bindJSON(c, &req); err != nil {
			writeError(c, h.logger, err, "")
			return
		}

		session, err := h.accounts.Login(c.Request.Context(), req.Email, req.Password)
		if err != nil {
			writeError(c, h.logger, err, "")
			return
		}

		user := userBody{
			ID:         session.Account.ID,
			Email:      session.Account.Email,
			FullName:   session.Account.FullName,
			SignupType: session.Account.SignupType,
		}
		if withCompanyFields {
			user.IsMobileVerified = utils.Ptr(session.Account.IsMobileVerified)
		}

		c.JSON(http.StatusOK, loginResponse{
			Success:   true,
			Message:   "Login successful",
			Token:     session.Token,
			ExpiresAt: session.ExpiresAt,
			User:      user,
		})
	}
}

// SendMobileCode handles POST /auth/mobile/send-code.
func (h *AccountHandler) SendMobileCode(c *gin.Context) {
	var req sendCodeRequest
	if err := bindJSON(c, &req); err != nil {
		writeError(c, h.logger, err, "")
		return
	}

	challengeID, err := h.accounts.SendMobileCode(c.Request.Context(), req.MobileNo)
	if err != nil {
		writeError(c, h.logger, err, "No account registered with this mobile number")
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"success":      true,
		"challenge_id": challengeID,
	})
}

// VerifyMobileCode handles POST /auth/mobile/verify.
func (h *AccountHandler) VerifyMobileCode(c *gin.Context) {
	var req verifyCodeRequest
	if err := bindJSON(c, &req); err != nil {
		writeError(c, h.logger, err, "")
		return
	}

	if _, err := h.accounts.ConfirmMobileCode(c.Request.Context(), req.ChallengeID, req.Code); err != nil {
		writeError(c, h.logger, err, "Verification code expired or unknown")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Mobile number verified successfully",
	})
}

// SendEmailCode handles POST /auth/email/send-code.
func (h *AccountHandler) SendEmailCode(c *gin.Context) {
	var req sendEmailCodeRequest
	if err := bindJSON(c, &req); err != nil {
		writeError(c, h.logger, err, "")
		return
	}

	challengeID, err := h.accounts.SendEmailCode(c.Request.Context(), req.Email)
	if err != nil {
		writeError(c, h.logger, err, "No account registered with this email")
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"success":      true,
		"challenge_id": challengeID,
	})
}

// VerifyEmailCode handles POST /auth/email/verify.
func (h *AccountHandler) VerifyEmailCode(c *gin.Context) {
	var req verifyCodeRequest
	if err := bindJSON(c, &req); err != nil {
		writeError(c, h.logger, err, "")
		return
	}

	if _, err := h.accounts.ConfirmEmailCode(c.Request.Context(), req.ChallengeID, req.Code); err != nil {
		writeError(c, h.logger, err, "Verification code expired or unknown")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Email verified successfully",
	})
}
