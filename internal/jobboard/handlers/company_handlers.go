package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gartstein/jobboard/internal/jobboard/auth"
	e "github.com/gartstein/jobboard/internal/jobboard/errors"
	"github.com/gartstein/jobboard/internal/jobboard/models"
	"github.com/gartstein/jobboard/internal/jobboard/storage"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	msgProfileNotFound = "Company profile not found"

	maxImageSize   = 5 << 20
	discardTimeout = 10 * time.Second
)

var validate = validator.New()

// CompanyController is the company profile workflow the HTTP layer drives.
type CompanyController interface {
	GetProfile(ctx context.Context, ownerID uuid.UUID) (*models.CompanyProfile, error)
	UpsertProfile(ctx context.Context, ownerID uuid.UUID, update models.CompanyProfileUpdate) (*models.CompanyProfile, error)
	RegisterProfile(ctx context.Context, ownerID uuid.UUID, input models.CompanyProfile) (*models.CompanyProfile, error)
}

// AssetStore persists uploaded images and returns the URL they are served
// from. Delete takes a URL returned by Put.
type AssetStore interface {
	Put(ctx context.Context, asset storage.Asset) (string, error)
	Delete(ctx context.Context, url string) error
}

// CompanyHandler serves the authenticated company profile routes.
type CompanyHandler struct {
	companies CompanyController
	assets    AssetStore
	logger    *zap.Logger
}

// NewCompanyHandler builds a CompanyHandler. assets may be nil, in which case
// image uploads are rejected.
func NewCompanyHandler(companies CompanyController, assets AssetStore, logger *zap.Logger) *CompanyHandler {
	registerValidators()
	return &CompanyHandler{
		companies: companies,
		assets:    assets,
		logger:    logger.Named("company_handler"),
	}
}

type registerCompanyRequest struct {
	CompanyName         string              `json:"company_name" binding:"required"`
	AboutCompany        string              `json:"about_company" binding:"required"`
	OrganizationsType   string              `json:"organizations_type" binding:"required"`
	IndustryType        string              `json:"industry_type" binding:"required"`
	TeamSize            string              `json:"team_size" binding:"required"`
	YearOfEstablishment string              `json:"year_of_establishment" binding:"required"`
	CompanyWebsite      string              `json:"company_website" binding:"required"`
	CompanyAppLink      string              `json:"company_app_link"`
	CompanyVision       string              `json:"company_vision"`
	HeadquarterPhoneNo  string              `json:"headquarter_phone_no" binding:"required"`
	HeadquarterMailID   string              `json:"headquarter_mail_id" binding:"required,email"`
	SocialLinks         []models.SocialLink `json:"social_links"`
	MapLocationURL      string              `json:"map_location_url"`
	CareersLink         string              `json:"careers_link"`
}

type profileUpdateRequest struct {
	CompanyName         models.Optional[string]              `json:"company_name"`
	AboutCompany        models.Optional[string]              `json:"about_company"`
	OrganizationsType   models.Optional[string]              `json:"organizations_type"`
	IndustryType        models.Optional[string]              `json:"industry_type"`
	TeamSize            models.Optional[string]              `json:"team_size"`
	YearOfEstablishment models.Optional[string]              `json:"year_of_establishment"`
	CompanyWebsite      models.Optional[string]              `json:"company_website"`
	CompanyAppLink      models.Optional[string]              `json:"company_app_link"`
	CompanyVision       models.Optional[string]              `json:"company_vision"`
	HeadquarterPhoneNo  models.Optional[string]              `json:"headquarter_phone_no"`
	HeadquarterMailID   models.Optional[string]              `json:"headquarter_mail_id"`
	SocialLinks         models.Optional[[]models.SocialLink] `json:"social_links"`
	MapLocationURL      models.Optional[string]              `json:"map_location_url"`
	CareersLink         models.Optional[string]              `json:"careers_link"`
	LogoURL             models.Optional[string]              `json:"company_logo_url"`
	BannerURL           models.Optional[string]              `json:"company_banner_url"`
	IsClaimed           models.Optional[bool]                `json:"is_claimed"`
}

func (r profileUpdateRequest) toDomain() models.CompanyProfileUpdate {
	return models.CompanyProfileUpdate{
		CompanyName:         r.CompanyName,
		AboutCompany:        r.AboutCompany,
		OrganizationsType:   r.OrganizationsType,
		IndustryType:        r.IndustryType,
		TeamSize:            r.TeamSize,
		YearOfEstablishment: r.YearOfEstablishment,
		CompanyWebsite:      r.CompanyWebsite,
		CompanyAppLink:      r.CompanyAppLink,
		CompanyVision:       r.CompanyVision,
		HeadquarterPhoneNo:  r.HeadquarterPhoneNo,
		HeadquarterMailID:   r.HeadquarterMailID,
		SocialLinks:         r.SocialLinks,
		MapLocationURL:      r.MapLocationURL,
		CareersLink:         r.CareersLink,
		LogoURL:             r.LogoURL,
		BannerURL:           r.BannerURL,
		IsClaimed:           r.IsClaimed,
	}
}

type profileBody struct {
	ID                  uuid.UUID           `json:"id"`
	OwnerID             uuid.UUID           `json:"owner_id"`
	CompanyName         string              `json:"company_name"`
	AboutCompany        string              `json:"about_company"`
	OrganizationsType   string              `json:"organizations_type"`
	IndustryType        string              `json:"industry_type"`
	TeamSize            string              `json:"team_size"`
	YearOfEstablishment string              `json:"year_of_establishment"`
	CompanyWebsite      string              `json:"company_website"`
	CompanyAppLink      string              `json:"company_app_link"`
	CompanyVision       string              `json:"company_vision"`
	HeadquarterPhoneNo  string              `json:"headquarter_phone_no"`
	HeadquarterMailID   string              `json:"headquarter_mail_id"`
	SocialLinks         []models.SocialLink `json:"social_links"`
	MapLocationURL      string              `json:"map_location_url"`
	CareersLink         string              `json:"careers_link"`
	LogoURL             string              `json:"company_logo_url"`
	BannerURL           string              `json:"company_banner_url"`
	IsClaimed           bool                `json:"is_claimed"`
	CreatedAt           time.Time           `json:"created_at"`
	UpdatedAt           time.Time           `json:"updated_at"`
}

type profileResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	profileBody
}

func newProfileBody(p *models.CompanyProfile) profileBody {
	links := p.SocialLinks
	if links == nil {
		links = []models.SocialLink{}
	}
	return profileBody{
		ID:                  p.ID,
		OwnerID:             p.OwnerID,
		CompanyName:         p.CompanyName,
		AboutCompany:        p.AboutCompany,
		OrganizationsType:   p.OrganizationsType,
		IndustryType:        p.IndustryType,
		TeamSize:            p.TeamSize,
		YearOfEstablishment: p.YearOfEstablishment,
		CompanyWebsite:      p.CompanyWebsite,
		CompanyAppLink:      p.CompanyAppLink,
		CompanyVision:       p.CompanyVision,
		HeadquarterPhoneNo:  p.HeadquarterPhoneNo,
		HeadquarterMailID:   p.HeadquarterMailID,
		SocialLinks:         links,
		MapLocationURL:      p.MapLocationURL,
		CareersLink:         p.CareersLink,
		LogoURL:             p.LogoURL,
		BannerURL:           p.BannerURL,
		IsClaimed:           p.IsClaimed,
		CreatedAt:           p.CreatedAt,
		UpdatedAt:           p.UpdatedAt,
	}
}

// RegisterCompany handles POST /company/register.
func (h *CompanyHandler) RegisterCompany(c *gin.Context) {
	ownerID, ok := h.owner(c)
	if !ok {
		return
	}

	var req registerCompanyRequest
	if err := bindJSON(c, &req); err != nil {
		writeError(c, h.logger, err, "")
		return
	}

	profile, err := h.companies.RegisterProfile(c.Request.Context(), ownerID, models.CompanyProfile{
		CompanyName:         req.CompanyName,
		AboutCompany:        req.AboutCompany,
		OrganizationsType:   req.OrganizationsType,
		IndustryType:        req.IndustryType,
		TeamSize:            req.TeamSize,
		YearOfEstablishment: req.YearOfEstablishment,
		CompanyWebsite:      req.CompanyWebsite,
		CompanyAppLink:      req.CompanyAppLink,
		CompanyVision:       req.CompanyVision,
		HeadquarterPhoneNo:  req.HeadquarterPhoneNo,
		HeadquarterMailID:   req.HeadquarterMailID,
		SocialLinks:         req.SocialLinks,
		MapLocationURL:      req.MapLocationURL,
		CareersLink:         req.CareersLink,
	})
	if err != nil {
		writeError(c, h.logger, err, "")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Company registered successfully",
		"company": gin.H{
			"id":           profile.ID,
			"company_name": profile.CompanyName,
			"owner_id":     profile.OwnerID,
		},
	})
}

// GetProfile handles GET /company/profile.
func (h *CompanyHandler) GetProfile(c *gin.Context) {
	ownerID, ok := h.owner(c)
	if !ok {
		return
	}

	profile, err := h.companies.GetProfile(c.Request.Context(), ownerID)
	if err != nil {
		writeError(c, h.logger, err, msgProfileNotFound)
		return
	}

	c.JSON(http.StatusOK, profileResponse{
		Success:     true,
		Message:     "Company profile retrieved successfully",
		profileBody: newProfileBody(profile),
	})
}

// UpdateProfile handles PUT /company/profile. The body is either JSON or a
// multipart form that may carry logo and banner images.
func (h *CompanyHandler) UpdateProfile(c *gin.Context) {
	ownerID, ok := h.owner(c)
	if !ok {
		return
	}

	var (
		update   models.CompanyProfileUpdate
		uploaded []string
		err      error
	)
	if c.ContentType() == gin.MIMEMultipartPOSTForm {
		update, uploaded, err = h.bindMultipartUpdate(c, ownerID)
	} else {
		update, err = bindJSONUpdate(c)
	}
	if err != nil {
		h.discard(c.Request.Context(), uploaded)
		writeError(c, h.logger, err, "")
		return
	}

	profile, err := h.companies.UpsertProfile(c.Request.Context(), ownerID, update)
	if err != nil {
		h.discard(c.Request.Context(), uploaded)
		writeError(c, h.logger, err, msgProfileNotFound)
		return
	}

	c.JSON(http.StatusOK, profileResponse{
		Success:     true,
		Message:     "Company profile updated successfully",
		profileBody: newProfileBody(profile),
	})
}

func (h *CompanyHandler) owner(c *gin.Context) (uuid.UUID, bool) {
	identity, ok := auth.IdentityFromContext(c.Request.Context())
	if !ok {
		writeError(c, h.logger, e.ErrMissingToken, "")
		return uuid.Nil, false
	}
	return identity.AccountID, true
}

func bindJSONUpdate(c *gin.Context) (models.CompanyProfileUpdate, error) {
	var req profileUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return models.CompanyProfileUpdate{}, toValidationError(err)
	}
	update := req.toDomain()
	return update, validateUpdate(update)
}

func validateUpdate(u models.CompanyProfileUpdate) error {
	var v e.ValidationError
	if name, ok := u.CompanyName.Get(); ok && strings.TrimSpace(name) == "" {
		v.Add("company_name", "must not be empty")
	}
	if mail, ok := u.HeadquarterMailID.Get(); ok && mail != "" {
		if err := validate.Var(mail, "email"); err != nil {
			v.Add("headquarter_mail_id", "must be a valid email address")
		}
	}
	return v.Err()
}

// multipartText lists the plain form fields of a multipart profile update.
func multipartText(u *models.CompanyProfileUpdate) map[string]*models.Optional[string] {
	return map[string]*models.Optional[string]{
		"company_name":          &u.CompanyName,
		"about_company":         &u.AboutCompany,
		"organizations_type":    &u.OrganizationsType,
		"industry_type":         &u.IndustryType,
		"team_size":             &u.TeamSize,
		"year_of_establishment": &u.YearOfEstablishment,
		"company_website":       &u.CompanyWebsite,
		"company_app_link":      &u.CompanyAppLink,
		"company_vision":        &u.CompanyVision,
		"headquarter_phone_no":  &u.HeadquarterPhoneNo,
		"headquarter_mail_id":   &u.HeadquarterMailID,
		"map_location_url":      &u.MapLocationURL,
		"careers_link":          &u.CareersLink,
		"company_logo_url":      &u.LogoURL,
		"company_banner_url":    &u.BannerURL,
	}
}

// bindMultipartUpdate reads a multipart profile update. Browsers serialise
// null as the literal "null", which is treated like an absent value.
// Any URLs already uploaded are returned even when a later step fails.
func (h *CompanyHandler) bindMultipartUpdate(c *gin.Context, ownerID uuid.UUID) (models.CompanyProfileUpdate, []string, error) {
	var u models.CompanyProfileUpdate

	form, err := c.MultipartForm()
	if err != nil {
		return u, nil, e.NewValidationError("body", "must be a valid multipart form")
	}

	for key, dst := range multipartText(&u) {
		if raw, ok := formValue(form, key); ok {
			*dst = models.Some(raw)
		}
	}

	var v e.ValidationError
	if raw, ok := formValue(form, "social_links"); ok {
		var links []models.SocialLink
		if err := json.Unmarshal([]byte(raw), &links); err != nil {
			v.Add("social_links", "must be a JSON array of {platform, url}")
		} else {
			u.SocialLinks = models.Some(links)
		}
	}
	if raw, ok := formValue(form, "is_claimed"); ok {
		claimed, err := strconv.ParseBool(raw)
		if err != nil {
			v.Add("is_claimed", "must be true or false")
		} else {
			u.IsClaimed = models.Some(claimed)
		}
	}

	logo := formFile(form, "company_logo_url", "company_logo")
	banner := formFile(form, "company_banner_url", "company_banner")
	for _, f := range []struct {
		field string
		file  *multipart.FileHeader
	}{{"company_logo", logo}, {"company_banner", banner}} {
		if f.file == nil {
			continue
		}
		if h.assets == nil {
			v.Add(f.field, "image uploads are not enabled")
		} else if msg := checkImage(f.file); msg != "" {
			v.Add(f.field, msg)
		}
	}

	if err := v.Err(); err != nil {
		return u, nil, err
	}
	if err := validateUpdate(u); err != nil {
		return u, nil, err
	}

	ctx := c.Request.Context()
	var uploaded []string
	if logo != nil {
		url, err := h.upload(ctx, ownerID, storage.KindLogo, logo)
		if err != nil {
			return u, uploaded, err
		}
		uploaded = append(uploaded, url)
		u.LogoURL = models.Some(url)
	}
	if banner != nil {
		url, err := h.upload(ctx, ownerID, storage.KindBanner, banner)
		if err != nil {
			return u, uploaded, err
		}
		uploaded = append(uploaded, url)
		u.BannerURL = models.Some(url)
	}
	return u, uploaded, nil
}

// discard removes uploads that no profile ended up referencing. Request
// cancellation does not stop it.
func (h *CompanyHandler) discard(ctx context.Context, urls []string) {
	if len(urls) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), discardTimeout)
	defer cancel()
	for _, url := range urls {
		if err := h.assets.Delete(ctx, url); err != nil {
			h.logger.Warn("Orphaned asset left in storage", zap.String("url", url), zap.Error(err))
		}
	}
}

func (h *CompanyHandler) upload(ctx context.Context, ownerID uuid.UUID, kind storage.Kind, fh *multipart.FileHeader) (string, error) {
	f, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open upload: %w", err)
	}
	defer f.Close()

	url, err := h.assets.Put(ctx, storage.Asset{
		OwnerID:     ownerID,
		Kind:        kind,
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Body:        f,
	})
	if err != nil {
		return "", fmt.Errorf("failed to store %s: %w", kind, err)
	}
	return url, nil
}

func formValue(form *multipart.Form, key string) (string, bool) {
	vals := form.Value[key]
	if len(vals) == 0 || vals[0] == "null" {
		return "", false
	}
	return vals[0], true
}

func formFile(form *multipart.Form, keys ...string) *multipart.FileHeader {
	for _, key := range keys {
		if files := form.File[key]; len(files) > 0 {
			return files[0]
		}
	}
	return nil
}

func checkImage(fh *multipart.FileHeader) string {
	if !strings.HasPrefix(fh.Header.Get("Content-Type"), "image/") {
		return "must be an image"
	}
	if fh.Size > maxImageSize {
		return "must be at most 5 MB"
	}
	return ""
}
