package controller

import (
	"context"
	"errors"
	"testing"

	e "github.com/gartstein/jobboard/internal/jobboard/errors"
	"github.com/gartstein/jobboard/internal/jobboard/events"
	"github.com/gartstein/jobboard/internal/jobboard/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// memoryProfiles is a ProfileRepository backed by a map, wired through the
// function-field mock.
func memoryProfiles() (*MockProfileRepository, map[uuid.UUID]*models.CompanyProfile) {
	store := make(map[uuid.UUID]*models.CompanyProfile)
	repo := &MockProfileRepository{
		getProfileByOwner: func(_ context.Context, owner uuid.UUID) (*models.CompanyProfile, error) {
			p, ok := store[owner]
			if !ok {
				return nil, e.ErrNotFound
			}
			cp := *p
			return &cp, nil
		},
		createProfile: func(_ context.Context, p *models.CompanyProfile) error {
			if _, ok := store[p.OwnerID]; ok {
				return e.ErrAlreadyClaimed
			}
			cp := *p
			store[p.OwnerID] = &cp
			return nil
		},
		updateProfile: func(_ context.Context, owner uuid.UUID, mutate func(*models.CompanyProfile) error) (*models.CompanyProfile, error) {
			p, ok := store[owner]
			if !ok {
				return nil, e.ErrNotFound
			}
			cp := *p
			if err := mutate(&cp); err != nil {
				return nil, err
			}
			store[owner] = &cp
			out := cp
			return &out, nil
		},
	}
	return repo, store
}

func TestCompanyService_GetProfile(t *testing.T) {
	repo, store := memoryProfiles()
	svc := NewCompanyService(repo, &MockProducer{}, zaptest.NewLogger(t))
	owner := uuid.New()

	_, err := svc.GetProfile(context.Background(), owner)
	assert.ErrorIs(t, err, e.ErrNotFound)

	store[owner] = &models.CompanyProfile{OwnerID: owner, CompanyName: "Acme"}
	profile, err := svc.GetProfile(context.Background(), owner)
	require.NoError(t, err)
	assert.Equal(t, "Acme", profile.CompanyName)
}

func TestCompanyService_GetProfileFailure(t *testing.T) {
	repo := &MockProfileRepository{
		getProfileByOwner: func(context.Context, uuid.UUID) (*models.CompanyProfile, error) {
			return nil, errors.New("db down")
		},
	}
	svc := NewCompanyService(repo, &MockProducer{}, zaptest.NewLogger(t))

	_, err := svc.GetProfile(context.Background(), uuid.New())
	require.Error(t, err)
	assert.False(t, errors.Is(err, e.ErrNotFound))
}

func TestCompanyService_UpsertCreatesThenMerges(t *testing.T) {
	repo, _ := memoryProfiles()
	producer := &MockProducer{}
	svc := NewCompanyService(repo, producer, zaptest.NewLogger(t))
	ctx := context.Background()
	owner := uuid.New()

	created, err := svc.UpsertProfile(ctx, owner, models.CompanyProfileUpdate{
		CompanyName:  models.Some("Acme"),
		AboutCompany: models.Some("Widgets"),
	})
	require.NoError(t, err)
	assert.Equal(t, owner, created.OwnerID)
	assert.NotEqual(t, uuid.Nil, created.ID)
	assert.Equal(t, "Acme", created.CompanyName)
	assert.False(t, created.IsClaimed)
	assert.Equal(t, []models.SocialLink{}, created.SocialLinks)

	updated, err := svc.UpsertProfile(ctx, owner, models.CompanyProfileUpdate{
		IndustryType: models.Some("Manufacturing"),
		AboutCompany: models.Null[string](),
	})
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "Acme", updated.CompanyName, "unsent fields are kept")
	assert.Equal(t, "Widgets", updated.AboutCompany, "null fields are kept")
	assert.Equal(t, "Manufacturing", updated.IndustryType)

	assert.Equal(t, []events.EventType{events.ProfileCreated, events.ProfileUpdated}, producer.Types())
}

func TestCompanyService_UpsertMergesAfterLostRace(t *testing.T) {
	repo, store := memoryProfiles()
	owner := uuid.New()
	winner := &models.CompanyProfile{ID: uuid.New(), OwnerID: owner, CompanyName: "Winner", AboutCompany: "First"}

	// The profile appears between the existence check and the insert.
	repo.getProfileByOwner = func(context.Context, uuid.UUID) (*models.CompanyProfile, error) {
		return nil, e.ErrNotFound
	}
	repo.createProfile = func(context.Context, *models.CompanyProfile) error {
		store[owner] = winner
		return e.ErrAlreadyClaimed
	}

	producer := &MockProducer{}
	svc := NewCompanyService(repo, producer, zaptest.NewLogger(t))

	profile, err := svc.UpsertProfile(context.Background(), owner, models.CompanyProfileUpdate{
		CompanyName: models.Some("Loser"),
	})
	require.NoError(t, err)
	assert.Equal(t, winner.ID, profile.ID)
	assert.Equal(t, "Loser", profile.CompanyName)
	assert.Equal(t, "First", profile.AboutCompany)
	assert.Equal(t, []events.EventType{events.ProfileUpdated}, producer.Types())
}

func TestCompanyService_UpsertFailures(t *testing.T) {
	svc := NewCompanyService(&MockProfileRepository{}, &MockProducer{}, zaptest.NewLogger(t))
	_, err := svc.UpsertProfile(context.Background(), uuid.Nil, models.CompanyProfileUpdate{})
	assert.ErrorIs(t, err, e.ErrInvalidInput)

	repo, _ := memoryProfiles()
	repo.createProfile = func(context.Context, *models.CompanyProfile) error {
		return errors.New("disk full")
	}
	svc = NewCompanyService(repo, &MockProducer{}, zaptest.NewLogger(t))
	_, err = svc.UpsertProfile(context.Background(), uuid.New(), models.CompanyProfileUpdate{})
	assert.ErrorContains(t, err, "disk full")
}

func fullProfile(name string) models.CompanyProfile {
	return models.CompanyProfile{
		CompanyName:         name,
		AboutCompany:        "Widgets since 1990",
		OrganizationsType:   "Private",
		IndustryType:        "Manufacturing",
		TeamSize:            "50-100",
		YearOfEstablishment: "1990",
		CompanyWebsite:      "https://acme.example",
		HeadquarterPhoneNo:  "+15550001111",
		HeadquarterMailID:   "hq@acme.example",
	}
}

func TestCompanyService_RegisterProfileRequiresFullFieldSet(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*models.CompanyProfile)
		field  string
	}{
		{name: "blank name", mutate: func(p *models.CompanyProfile) { p.CompanyName = "  " }, field: "company_name"},
		{name: "about", mutate: func(p *models.CompanyProfile) { p.AboutCompany = "" }, field: "about_company"},
		{name: "organizations type", mutate: func(p *models.CompanyProfile) { p.OrganizationsType = "" }, field: "organizations_type"},
		{name: "industry type", mutate: func(p *models.CompanyProfile) { p.IndustryType = "" }, field: "industry_type"},
		{name: "team size", mutate: func(p *models.CompanyProfile) { p.TeamSize = "" }, field: "team_size"},
		{name: "year", mutate: func(p *models.CompanyProfile) { p.YearOfEstablishment = "" }, field: "year_of_establishment"},
		{name: "website", mutate: func(p *models.CompanyProfile) { p.CompanyWebsite = "" }, field: "company_website"},
		{name: "phone", mutate: func(p *models.CompanyProfile) { p.HeadquarterPhoneNo = "" }, field: "headquarter_phone_no"},
		{name: "mail", mutate: func(p *models.CompanyProfile) { p.HeadquarterMailID = "" }, field: "headquarter_mail_id"},
		{name: "bad mail", mutate: func(p *models.CompanyProfile) { p.HeadquarterMailID = "nope" }, field: "headquarter_mail_id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, _ := memoryProfiles()
			repo.createProfile = func(context.Context, *models.CompanyProfile) error {
				t.Fatal("store must not be reached")
				return nil
			}
			svc := NewCompanyService(repo, &MockProducer{}, zaptest.NewLogger(t))

			input := fullProfile("Acme")
			tt.mutate(&input)
			_, err := svc.RegisterProfile(context.Background(), uuid.New(), input)

			require.ErrorIs(t, err, e.ErrInvalidInput)
			var verr *e.ValidationError
			require.ErrorAs(t, err, &verr)
			require.Len(t, verr.Fields, 1)
			assert.Equal(t, tt.field, verr.Fields[0].Field)
		})
	}
}

func TestCompanyService_RegisterProfile(t *testing.T) {
	repo, _ := memoryProfiles()
	producer := &MockProducer{}
	svc := NewCompanyService(repo, producer, zaptest.NewLogger(t))
	ctx := context.Background()
	owner := uuid.New()

	_, err := svc.RegisterProfile(ctx, owner, models.CompanyProfile{CompanyName: "Acme"})
	assert.ErrorIs(t, err, e.ErrInvalidInput)

	input := fullProfile("  Acme ")
	input.IsClaimed = true
	input.OwnerID = uuid.New()
	profile, err := svc.RegisterProfile(ctx, owner, input)
	require.NoError(t, err)
	assert.Equal(t, "Acme", profile.CompanyName)
	assert.Equal(t, owner, profile.OwnerID, "owner comes from the caller identity")
	assert.False(t, profile.IsClaimed, "new profiles start unclaimed")
	assert.Equal(t, []models.SocialLink{}, profile.SocialLinks)

	_, err = svc.RegisterProfile(ctx, owner, fullProfile("Again"))
	assert.ErrorIs(t, err, e.ErrAlreadyClaimed)

	assert.Equal(t, []events.EventType{events.ProfileCreated}, producer.Types())
}

func TestCompanyService_RegisterProfileRace(t *testing.T) {
	repo, _ := memoryProfiles()
	repo.createProfile = func(context.Context, *models.CompanyProfile) error {
		return e.ErrAlreadyClaimed
	}
	svc := NewCompanyService(repo, &MockProducer{}, zaptest.NewLogger(t))

	_, err := svc.RegisterProfile(context.Background(), uuid.New(), fullProfile("Acme"))
	assert.ErrorIs(t, err, e.ErrAlreadyClaimed)
}
