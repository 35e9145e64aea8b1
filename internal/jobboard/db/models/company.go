package models

import (
	"encoding/json"
	"time"

	"github.com/gartstein/jobboard/internal/jobboard/models"
	"github.com/google/uuid"
)

// CompanyProfile is a row of the company_profiles table. SocialLinks holds
// the JSON encoding of the link list.
type CompanyProfile struct {
	ID                  uuid.UUID `gorm:"type:varchar(36);primaryKey"`
	OwnerID             uuid.UUID `gorm:"type:varchar(36)"`
	CompanyName         string
	AboutCompany        string
	OrganizationsType   string
	IndustryType        string
	TeamSize            string
	YearOfEstablishment string
	CompanyWebsite      string
	CompanyAppLink      string
	CompanyVision       string
	HeadquarterPhoneNo  string
	HeadquarterMailID   string `gorm:"column:headquarter_mail_id"`
	SocialLinks         string
	MapLocationURL      string `gorm:"column:map_location_url"`
	CareersLink         string
	LogoURL             string `gorm:"column:company_logo_url"`
	BannerURL           string `gorm:"column:company_banner_url"`
	IsClaimed           bool
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

func (CompanyProfile) TableName() string {
	return "company_profiles"
}

// CompanyProfileFromDomain converts a domain profile into its row.
func CompanyProfileFromDomain(p *models.CompanyProfile) (*CompanyProfile, error) {
	links := p.SocialLinks
	if links == nil {
		links = []models.SocialLink{}
	}
	encoded, err := json.Marshal(links)
	if err != nil {
		return nil, err
	}

	return &CompanyProfile{
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
		SocialLinks:         string(encoded),
		MapLocationURL:      p.MapLocationURL,
		CareersLink:         p.CareersLink,
		LogoURL:             p.LogoURL,
		BannerURL:           p.BannerURL,
		IsClaimed:           p.IsClaimed,
		CreatedAt:           p.CreatedAt,
		UpdatedAt:           p.UpdatedAt,
	}, nil
}

// ToDomain converts the row into a domain profile. Stored social links that
// fail to decode are read as an empty list.
func (p *CompanyProfile) ToDomain() *models.CompanyProfile {
	return &models.CompanyProfile{
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
		SocialLinks:         DecodeSocialLinks(p.SocialLinks),
		MapLocationURL:      p.MapLocationURL,
		CareersLink:         p.CareersLink,
		LogoURL:             p.LogoURL,
		BannerURL:           p.BannerURL,
		IsClaimed:           p.IsClaimed,
		CreatedAt:           p.CreatedAt,
		UpdatedAt:           p.UpdatedAt,
	}
}

// DecodeSocialLinks parses the stored JSON list, returning an empty list for
// blank or malformed input.
func DecodeSocialLinks(raw string) []models.SocialLink {
	links := []models.SocialLink{}
	if raw == "" {
		return links
	}
	if err := json.Unmarshal([]byte(raw), &links); err != nil || links == nil {
		return []models.SocialLink{}
	}
	return links
}
