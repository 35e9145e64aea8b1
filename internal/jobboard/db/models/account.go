// Package models holds the GORM row types and their conversion to and from
// the domain models.
package models

import (
	"time"

	"github.com/gartstein/jobboard/internal/jobboard/models"
	"github.com/google/uuid"
)

// Account is a row of the accounts table.
type Account struct {
	ID               uuid.UUID `gorm:"type:varchar(36);primaryKey"`
	Email            string
	PasswordHash     string
	FullName         string
	Gender           string
	MobileNo         *string
	SignupType       string
	IsMailVerified   bool
	IsMobileVerified bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (Account) TableName() string {
	return "accounts"
}

// AccountFromDomain converts a domain account into its row.
func AccountFromDomain(a *models.Account) *Account {
	return &Account{
		ID:               a.ID,
		Email:            a.Email,
		PasswordHash:     a.PasswordHash,
		FullName:         a.FullName,
		Gender:           string(a.Gender),
		MobileNo:         a.MobileNo,
		SignupType:       a.SignupType,
		IsMailVerified:   a.IsMailVerified,
		IsMobileVerified: a.IsMobileVerified,
		CreatedAt:        a.CreatedAt,
		UpdatedAt:        a.UpdatedAt,
	}
}

// ToDomain converts the row into a domain account.
func (a *Account) ToDomain() *models.Account {
	return &models.Account{
		ID:               a.ID,
		Email:            a.Email,
		PasswordHash:     a.PasswordHash,
		FullName:         a.FullName,
		Gender:           models.Gender(a.Gender),
		MobileNo:         a.MobileNo,
		SignupType:       a.SignupType,
		IsMailVerified:   a.IsMailVerified,
		IsMobileVerified: a.IsMobileVerified,
		CreatedAt:        a.CreatedAt,
		UpdatedAt:        a.UpdatedAt,
	}
}
