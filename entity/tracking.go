package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/sugils/Email-tracker-BE/pkg/goutil"
)

type TrackingStatus string

const (
	TrackingStatusPending TrackingStatus = "pending"
	TrackingStatusSending TrackingStatus = "sending"
	TrackingStatusSent    TrackingStatus = "sent"
	TrackingStatusOpened  TrackingStatus = "opened"
	TrackingStatusClicked TrackingStatus = "clicked"
	TrackingStatusReplied TrackingStatus = "replied"
	TrackingStatusFailed  TrackingStatus = "failed"
)

type TrackingRecord struct {
	ID          *string        `json:"id,omitempty"`
	CampaignID  *string        `json:"campaign_id,omitempty"`
	RecipientID *string        `json:"recipient_id,omitempty"`
	PixelToken  *string        `json:"pixel_token,omitempty"`
	Status      TrackingStatus `json:"status,omitempty"`
	SentAt      *time.Time     `json:"sent_at,omitempty"`
	OpenedAt    *time.Time     `json:"opened_at,omitempty"`
	ClickedAt   *time.Time     `json:"clicked_at,omitempty"`
	RepliedAt   *time.Time     `json:"replied_at,omitempty"`
	OpenCount   *uint64        `json:"open_count,omitempty"`
	ClickCount  *uint64        `json:"click_count,omitempty"`
	CreateTime  *uint64        `json:"create_time,omitempty"`
	UpdateTime  *uint64        `json:"update_time,omitempty"`
}

// NewTrackingRecord is created at the moment a message is handed to the
// outbound transport, hence the sending status.
func NewTrackingRecord(campaignID, recipientID string) *TrackingRecord {
	now := uint64(time.Now().Unix())

	return &TrackingRecord{
		CampaignID:  goutil.String(campaignID),
		RecipientID: goutil.String(recipientID),
		PixelToken:  goutil.String(uuid.NewString()),
		Status:      TrackingStatusSending,
		OpenCount:   goutil.Uint64(0),
		ClickCount:  goutil.Uint64(0),
		CreateTime:  goutil.Uint64(now),
		UpdateTime:  goutil.Uint64(now),
	}
}

// NewEphemeralTrackingRecord backs a test send. It carries a usable pixel
// token but is never persisted.
func NewEphemeralTrackingRecord(campaignID string) *TrackingRecord {
	r := NewTrackingRecord(campaignID, "")
	r.ID = goutil.String(uuid.NewString())
	return r
}

func (e *TrackingRecord) GetID() string {
	if e != nil && e.ID != nil {
		return *e.ID
	}
	return ""
}

func (e *TrackingRecord) GetCampaignID() string {
	if e != nil && e.CampaignID != nil {
		return *e.CampaignID
	}
	return ""
}

func (e *TrackingRecord) GetRecipientID() string {
	if e != nil && e.RecipientID != nil {
		return *e.RecipientID
	}
	return ""
}

func (e *TrackingRecord) GetPixelToken() string {
	if e != nil && e.PixelToken != nil {
		return *e.PixelToken
	}
	return ""
}

func (e *TrackingRecord) GetStatus() TrackingStatus {
	if e != nil {
		return e.Status
	}
	return ""
}

func (e *TrackingRecord) GetRepliedAt() *time.Time {
	if e != nil {
		return e.RepliedAt
	}
	return nil
}

func (e *TrackingRecord) GetOpenCount() uint64 {
	if e != nil && e.OpenCount != nil {
		return *e.OpenCount
	}
	return 0
}

func (e *TrackingRecord) GetClickCount() uint64 {
	if e != nil && e.ClickCount != nil {
		return *e.ClickCount
	}
	return 0
}
