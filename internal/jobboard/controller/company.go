package controller

import (
	"context"
	"errors"
	"fmt"
	"strings"

	e "github.com/gartstein/jobboard/internal/jobboard/errors"
	"github.com/gartstein/jobboard/internal/jobboard/events"
	"github.com/gartstein/jobboard/internal/jobboard/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CompanyService manages the company profile owned by an authenticated
// account.
type CompanyService struct {
	repo     ProfileRepository
	producer EventProducer
	logger   *zap.Logger
}

func NewCompanyService(repo ProfileRepository, producer EventProducer, logger *zap.Logger) *CompanyService {
	return &CompanyService{
		repo:     repo,
		producer: producer,
		logger:   logger.Named("company_service"),
	}
}

// GetProfile returns the owner's profile or ErrNotFound.
func (s *CompanyService) GetProfile(ctx context.Context, ownerID uuid.UUID) (*models.CompanyProfile, error) {
	profile, err := s.repo.GetProfileByOwner(ctx, ownerID)
	if err != nil {
		if errors.Is(err, e.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return profile, nil
}

// UpsertProfile creates the owner's profile from the supplied fields or
// merges them into the existing one. Fields that were not sent, or were sent
// as null, keep their stored value.
func (s *CompanyService) UpsertProfile(ctx context.Context, ownerID uuid.UUID, update models.CompanyProfileUpdate) (*models.CompanyProfile, error) {
	if ownerID == uuid.Nil {
		return nil, fmt.Errorf("%w: invalid owner ID", e.ErrInvalidInput)
	}

	_, err := s.repo.GetProfileByOwner(ctx, ownerID)
	switch {
	case errors.Is(err, e.ErrNotFound):
		created, err := s.createFromUpdate(ctx, ownerID, update)
		if err == nil {
			return created, nil
		}
		if !errors.Is(err, e.ErrAlreadyClaimed) {
			return nil, err
		}
		// Lost a race with a concurrent create; merge into the winner.
		s.logger.Debug("profile created concurrently, merging", zap.String("owner_id", ownerID.String()))
	case err != nil:
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	updated, err := s.repo.UpdateProfile(ctx, ownerID, func(p *models.CompanyProfile) error {
		update.ApplyTo(p)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	s.producer.Produce(events.NewProfileEvent(events.ProfileUpdated, updated))
	return updated, nil
}

func (s *CompanyService) createFromUpdate(ctx context.Context, ownerID uuid.UUID, update models.CompanyProfileUpdate) (*models.CompanyProfile, error) {
	profile := &models.CompanyProfile{
		ID:          uuid.New(),
		OwnerID:     ownerID,
		SocialLinks: []models.SocialLink{},
	}
	update.ApplyTo(profile)

	if err := s.repo.CreateProfile(ctx, profile); err != nil {
		if errors.Is(err, e.ErrAlreadyClaimed) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create profile: %w", err)
	}

	s.logger.Info("company profile created", zap.String("owner_id", ownerID.String()))
	s.producer.Produce(events.NewProfileEvent(events.ProfileCreated, profile))
	return profile, nil
}

// RegisterProfile creates the owner's profile and fails with
// ErrAlreadyClaimed when one exists. New profiles start unclaimed.
func (s *CompanyService) RegisterProfile(ctx context.Context, ownerID uuid.UUID, input models.CompanyProfile) (*models.CompanyProfile, error) {
	if ownerID == uuid.Nil {
		return nil, fmt.Errorf("%w: invalid owner ID", e.ErrInvalidInput)
	}
	if err := validateCompanyRegistration(&input); err != nil {
		return nil, err
	}

	if _, err := s.repo.GetProfileByOwner(ctx, ownerID); err == nil {
		return nil, e.ErrAlreadyClaimed
	} else if !errors.Is(err, e.ErrNotFound) {
		return nil, fmt.Errorf("failed to check existing profile: %w", err)
	}

	profile := input
	profile.ID = uuid.New()
	profile.OwnerID = ownerID
	profile.IsClaimed = false
	if profile.SocialLinks == nil {
		profile.SocialLinks = []models.SocialLink{}
	}

	if err := s.repo.CreateProfile(ctx, &profile); err != nil {
		if errors.Is(err, e.ErrAlreadyClaimed) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create profile: %w", err)
	}

	s.logger.Info("company registered", zap.String("owner_id", ownerID.String()))
	s.producer.Produce(events.NewProfileEvent(events.ProfileCreated, &profile))
	return &profile, nil
}

// validateCompanyRegistration trims the fields a new profile must carry and
// reports every one that is blank.
func validateCompanyRegistration(p *models.CompanyProfile) error {
	required := []struct {
		field string
		value *string
	}{
		{"company_name", &p.CompanyName},
		{"about_company", &p.AboutCompany},
		{"organizations_type", &p.OrganizationsType},
		{"industry_type", &p.IndustryType},
		{"team_size", &p.TeamSize},
		{"year_of_establishment", &p.YearOfEstablishment},
		{"company_website", &p.CompanyWebsite},
		{"headquarter_phone_no", &p.HeadquarterPhoneNo},
		{"headquarter_mail_id", &p.HeadquarterMailID},
	}

	var v e.ValidationError
	for _, r := range required {
		*r.value = strings.TrimSpace(*r.value)
		if *r.value == "" {
			v.Add(r.field, "is required")
		}
	}
	if p.HeadquarterMailID != "" {
		if err := validate.Var(p.HeadquarterMailID, "email"); err != nil {
			v.Add("headquarter_mail_id", "must be a valid email address")
		}
	}
	return v.Err()
}
