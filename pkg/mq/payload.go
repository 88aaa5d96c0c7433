package mq

import "time"

type Payload uint32

const (
	PayloadUnknown Payload = iota
	PayloadEngagementEvent
)

var Payloads = map[Payload]string{
	PayloadEngagementEvent: "engagement_event",
}

const (
	EngagementEventOpen   = "open"
	EngagementEventClick  = "click"
	EngagementEventBeacon = "beacon"
	EngagementEventReply  = "reply"
)

// EngagementEvent is published best-effort whenever an inbound signal
// moves the tracking ledger. Downstream consumers are analytics-only;
// the ledger itself never depends on the event being delivered.
type EngagementEvent struct {
	TrackingID *string    `json:"tracking_id,omitempty"`
	CampaignID *string    `json:"campaign_id,omitempty"`
	Event      *string    `json:"event,omitempty"`
	OccurredAt *time.Time `json:"occurred_at,omitempty"`
}

func (m *EngagementEvent) GetTrackingID() string {
	if m != nil && m.TrackingID != nil {
		return *m.TrackingID
	}
	return ""
}

func (m *EngagementEvent) GetEvent() string {
	if m != nil && m.Event != nil {
		return *m.Event
	}
	return ""
}
