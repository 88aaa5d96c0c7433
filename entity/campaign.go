package entity

import (
	"time"

	"github.com/sugils/Email-tracker-BE/pkg/goutil"
)

type CampaignStatus string

const (
	CampaignStatusDraft     CampaignStatus = "draft"
	CampaignStatusSending   CampaignStatus = "sending"
	CampaignStatusCompleted CampaignStatus = "completed"
)

type CampaignMode uint32

const (
	CampaignModeNormal CampaignMode = iota
	CampaignModeTest
)

type Campaign struct {
	ID           *string        `json:"id,omitempty"`
	UserID       *string        `json:"user_id,omitempty"`
	Name         *string        `json:"name,omitempty"`
	Subject      *string        `json:"subject,omitempty"`
	FromName     *string        `json:"from_name,omitempty"`
	FromEmail    *string        `json:"from_email,omitempty"`
	ReplyToEmail *string        `json:"reply_to_email,omitempty"`
	Status       CampaignStatus `json:"status,omitempty"`
	CompletedAt  *time.Time     `json:"completed_at,omitempty"`
	CreateTime   *uint64        `json:"create_time,omitempty"`
	UpdateTime   *uint64        `json:"update_time,omitempty"`
}

func (e *Campaign) Update(t *Campaign) bool {
	var hasChange bool

	if t.Status != "" && e.Status != t.Status {
		hasChange = true
		e.Status = t.Status
	}

	if t.CompletedAt != nil && e.CompletedAt == nil {
		hasChange = true
		e.CompletedAt = t.CompletedAt
	}

	if hasChange {
		e.UpdateTime = goutil.Uint64(uint64(time.Now().Unix()))
	}

	return hasChange
}

func (e *Campaign) GetID() string {
	if e != nil && e.ID != nil {
		return *e.ID
	}
	return ""
}

func (e *Campaign) GetUserID() string {
	if e != nil && e.UserID != nil {
		return *e.UserID
	}
	return ""
}

func (e *Campaign) GetName() string {
	if e != nil && e.Name != nil {
		return *e.Name
	}
	return ""
}

func (e *Campaign) GetSubject() string {
	if e != nil && e.Subject != nil {
		return *e.Subject
	}
	return ""
}

func (e *Campaign) GetFromName() string {
	if e != nil && e.FromName != nil {
		return *e.FromName
	}
	return ""
}

func (e *Campaign) GetFromEmail() string {
	if e != nil && e.FromEmail != nil {
		return *e.FromEmail
	}
	return ""
}

func (e *Campaign) GetReplyToEmail() string {
	if e != nil && e.ReplyToEmail != nil {
		return *e.ReplyToEmail
	}
	return ""
}

func (e *Campaign) GetStatus() CampaignStatus {
	if e != nil {
		return e.Status
	}
	return ""
}
