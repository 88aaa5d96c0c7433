package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sugils/Email-tracker-BE/pkg/goutil"
)

func TestCampaignUpdate_Status(t *testing.T) {
	c := &Campaign{
		Status: CampaignStatusDraft,
	}

	hasChange := c.Update(&Campaign{Status: CampaignStatusSending})
	assert.True(t, hasChange)
	assert.Equal(t, CampaignStatusSending, c.Status)
	assert.NotNil(t, c.UpdateTime)

	hasChange = c.Update(&Campaign{Status: CampaignStatusSending})
	assert.False(t, hasChange)
}

func TestCampaignUpdate_CompletedAtFirstWriteWins(t *testing.T) {
	var (
		first  = time.Now().Add(-time.Hour)
		second = time.Now()
		c      = &Campaign{Status: CampaignStatusSending}
	)

	hasChange := c.Update(&Campaign{
		Status:      CampaignStatusCompleted,
		CompletedAt: goutil.Time(first),
	})
	assert.True(t, hasChange)
	assert.Equal(t, first, *c.CompletedAt)

	c.Update(&Campaign{CompletedAt: goutil.Time(second)})
	assert.Equal(t, first, *c.CompletedAt)
}
