// Package events publishes domain events about accounts and company profiles
// to Kafka.
package events

import (
	"time"

	"github.com/gartstein/jobboard/internal/jobboard/models"
	"github.com/google/uuid"
)

type EventType string

const (
	AccountRegistered     EventType = "account.registered"
	AccountMobileVerified EventType = "account.mobile_verified"
	AccountMailVerified   EventType = "account.mail_verified"
	ProfileCreated        EventType = "company.profile_created"
	ProfileUpdated        EventType = "company.profile_updated"
)

// Event is one message on the topic. Key is the id of the aggregate the event
// is about and becomes the Kafka message key.
type Event struct {
	Type       EventType   `json:"type"`
	Key        string      `json:"key"`
	OccurredAt time.Time   `json:"occurred_at"`
	Payload    interface{} `json:"payload"`
}

// AccountPayload is the public view of an account carried by account events.
type AccountPayload struct {
	ID               uuid.UUID `json:"id"`
	Email            string    `json:"email"`
	FullName         string    `json:"full_name"`
	MobileNo         *string   `json:"mobile_no,omitempty"`
	SignupType       string    `json:"signup_type"`
	IsMailVerified   bool      `json:"is_mail_verified"`
	IsMobileVerified bool      `json:"is_mobile_verified"`
}

// ProfilePayload summarises a company profile for profile events.
type ProfilePayload struct {
	ID          uuid.UUID `json:"id"`
	OwnerID     uuid.UUID `json:"owner_id"`
	CompanyName string    `json:"company_name"`
	IsClaimed   bool      `json:"is_claimed"`
}

// NewAccountEvent builds an account event. The password hash is never part of
// the payload.
func NewAccountEvent(eventType EventType, a *models.Account) Event {
	return Event{
		Type:       eventType,
		Key:        a.ID.String(),
		OccurredAt: time.Now().UTC(),
		Payload: AccountPayload{
			ID:               a.ID,
			Email:            a.Email,
			FullName:         a.FullName,
			MobileNo:         a.MobileNo,
			SignupType:       a.SignupType,
			IsMailVerified:   a.IsMailVerified,
			IsMobileVerified: a.IsMobileVerified,
		},
	}
}

func NewProfileEvent(eventType EventType, p *models.CompanyProfile) Event {
	return Event{
		Type:       eventType,
		Key:        p.ID.String(),
		OccurredAt: time.Now().UTC(),
		Payload: ProfilePayload{
			ID:          p.ID,
			OwnerID:     p.OwnerID,
			CompanyName: p.CompanyName,
			IsClaimed:   p.IsClaimed,
		},
	}
}
