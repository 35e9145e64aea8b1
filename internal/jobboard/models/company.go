package models

import (
	"time"

	"github.com/google/uuid"
)

// SocialLink is one entry of a company's social presence.
type SocialLink struct {
	Platform string `json:"platform"`
	URL      string `json:"url"`
}

// CompanyProfile is the business-entity record owned by exactly one account.
type CompanyProfile struct {
	// ID is the unique identifier for the profile.
	ID uuid.UUID
	// OwnerID references the owning account.
	OwnerID uuid.UUID
	// CompanyName is the company's name.
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
	HeadquarterMailID   string
	// SocialLinks keeps the order the owner entered them in.
	SocialLinks    []SocialLink
	MapLocationURL string
	CareersLink    string
	// LogoURL and BannerURL reference stored images.
	LogoURL   string
	BannerURL string
	// IsClaimed indicates whether the profile has been claimed.
	IsClaimed bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CompanyProfileUpdate represents a partial write to a CompanyProfile.
// Fields left absent or sent as null keep their stored value.
type CompanyProfileUpdate struct {
	CompanyName         Optional[string]
	AboutCompany        Optional[string]
	OrganizationsType   Optional[string]
	IndustryType        Optional[string]
	TeamSize            Optional[string]
	YearOfEstablishment Optional[string]
	CompanyWebsite      Optional[string]
	CompanyAppLink      Optional[string]
	CompanyVision       Optional[string]
	HeadquarterPhoneNo  Optional[string]
	HeadquarterMailID   Optional[string]
	SocialLinks         Optional[[]SocialLink]
	MapLocationURL      Optional[string]
	CareersLink         Optional[string]
	LogoURL             Optional[string]
	BannerURL           Optional[string]
	IsClaimed           Optional[bool]
}

// ApplyTo merges the supplied fields into p and reports whether anything
// was copied.
func (u *CompanyProfileUpdate) ApplyTo(p *CompanyProfile) bool {
	changed := false
	for _, merged := range []bool{
		u.CompanyName.MergeInto(&p.CompanyName),
		u.AboutCompany.MergeInto(&p.AboutCompany),
		u.OrganizationsType.MergeInto(&p.OrganizationsType),
		u.IndustryType.MergeInto(&p.IndustryType),
		u.TeamSize.MergeInto(&p.TeamSize),
		u.YearOfEstablishment.MergeInto(&p.YearOfEstablishment),
		u.CompanyWebsite.MergeInto(&p.CompanyWebsite),
		u.CompanyAppLink.MergeInto(&p.CompanyAppLink),
		u.CompanyVision.MergeInto(&p.CompanyVision),
		u.HeadquarterPhoneNo.MergeInto(&p.HeadquarterPhoneNo),
		u.HeadquarterMailID.MergeInto(&p.HeadquarterMailID),
		u.SocialLinks.MergeInto(&p.SocialLinks),
		u.MapLocationURL.MergeInto(&p.MapLocationURL),
		u.CareersLink.MergeInto(&p.CareersLink),
		u.LogoURL.MergeInto(&p.LogoURL),
		u.BannerURL.MergeInto(&p.BannerURL),
		u.IsClaimed.MergeInto(&p.IsClaimed),
	} {
		changed = changed || merged
	}
	return changed
}
