package entity

import (
	"time"

	"github.com/sugils/Email-tracker-BE/pkg/goutil"
)

type LinkMapping struct {
	ID             *string    `json:"id,omitempty"`
	TrackingID     *string    `json:"tracking_id,omitempty"`
	OriginalURL    *string    `json:"original_url,omitempty"`
	TrackingURL    *string    `json:"tracking_url,omitempty"`
	ClickCount     *uint64    `json:"click_count,omitempty"`
	FirstClickedAt *time.Time `json:"first_clicked_at,omitempty"`
	LastClickedAt  *time.Time `json:"last_clicked_at,omitempty"`
	CreateTime     *uint64    `json:"create_time,omitempty"`
}

func NewLinkMapping(trackingID, originalURL string) *LinkMapping {
	return &LinkMapping{
		TrackingID:  goutil.String(trackingID),
		OriginalURL: goutil.String(originalURL),
		ClickCount:  goutil.Uint64(0),
		CreateTime:  goutil.Uint64(uint64(time.Now().Unix())),
	}
}

func (e *LinkMapping) GetID() string {
	if e != nil && e.ID != nil {
		return *e.ID
	}
	return ""
}

func (e *LinkMapping) GetTrackingID() string {
	if e != nil && e.TrackingID != nil {
		return *e.TrackingID
	}
	return ""
}

func (e *LinkMapping) GetOriginalURL() string {
	if e != nil && e.OriginalURL != nil {
		return *e.OriginalURL
	}
	return ""
}

func (e *LinkMapping) GetTrackingURL() string {
	if e != nil && e.TrackingURL != nil {
		return *e.TrackingURL
	}
	return ""
}

func (e *LinkMapping) GetClickCount() uint64 {
	if e != nil && e.ClickCount != nil {
		return *e.ClickCount
	}
	return 0
}
