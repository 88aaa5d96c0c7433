package entity

type CampaignStats struct {
	Total   *int64 `json:"total,omitempty"`
	Sent    *int64 `json:"sent,omitempty"`
	Opened  *int64 `json:"opened,omitempty"`
	Clicked *int64 `json:"clicked,omitempty"`
	Replied *int64 `json:"replied,omitempty"`
	Failed  *int64 `json:"failed,omitempty"`
}

func (e *CampaignStats) GetTotal() int64 {
	if e != nil && e.Total != nil {
		return *e.Total
	}
	return 0
}

func (e *CampaignStats) GetSent() int64 {
	if e != nil && e.Sent != nil {
		return *e.Sent
	}
	return 0
}

func (e *CampaignStats) GetOpened() int64 {
	if e != nil && e.Opened != nil {
		return *e.Opened
	}
	return 0
}

func (e *CampaignStats) GetClicked() int64 {
	if e != nil && e.Clicked != nil {
		return *e.Clicked
	}
	return 0
}

func (e *CampaignStats) GetReplied() int64 {
	if e != nil && e.Replied != nil {
		return *e.Replied
	}
	return 0
}

func (e *CampaignStats) GetFailed() int64 {
	if e != nil && e.Failed != nil {
		return *e.Failed
	}
	return 0
}

// OpenRate is opened over sent, in percent.
func (e *CampaignStats) OpenRate() float64 {
	return rate(e.GetOpened(), e.GetSent())
}

func (e *CampaignStats) ClickRate() float64 {
	return rate(e.GetClicked(), e.GetSent())
}

func (e *CampaignStats) ReplyRate() float64 {
	return rate(e.GetReplied(), e.GetSent())
}

func rate(part, whole int64) float64 {
	if whole == 0 {
		return 0
	}
	return float64(part) / float64(whole) * 100
}
