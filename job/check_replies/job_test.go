package check_replies

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sugils/Email-tracker-BE/config"
	"github.com/sugils/Email-tracker-BE/dep"
	"github.com/sugils/Email-tracker-BE/entity"
	"github.com/sugils/Email-tracker-BE/pkg/goutil"
	"github.com/sugils/Email-tracker-BE/repo"
)

type fakeMailService struct {
	msgs  []*dep.InboundMessage
	since time.Time
}

func (s *fakeMailService) FetchRecentMessages(_ context.Context, since time.Time) ([]*dep.InboundMessage, error) {
	s.since = since
	return s.msgs, nil
}

type fakeCampaignRepo struct {
	completed []*entity.Campaign
	calls     int
}

func (r *fakeCampaignRepo) GetByID(_ context.Context, _ string) (*entity.Campaign, error) {
	return nil, repo.ErrCampaignNotFound
}

func (r *fakeCampaignRepo) GetByIDAndUserID(_ context.Context, _, _ string) (*entity.Campaign, error) {
	return nil, repo.ErrCampaignNotFound
}

func (r *fakeCampaignRepo) GetManyByStatus(_ context.Context, status entity.CampaignStatus) ([]*entity.Campaign, error) {
	r.calls++
	if status == entity.CampaignStatusCompleted {
		return r.completed, nil
	}
	return nil, nil
}

func (r *fakeCampaignRepo) Update(_ context.Context, _ *entity.Campaign) error {
	return nil
}

type fakeRecipientRepo struct {
	recipients map[string]*entity.Recipient // by email
}

func (r *fakeRecipientRepo) GetManyActiveByCampaignID(_ context.Context, _ string) ([]*entity.Recipient, error) {
	return nil, nil
}

func (r *fakeRecipientRepo) GetByCampaignIDAndEmail(_ context.Context, _, email string) (*entity.Recipient, error) {
	if recipient, ok := r.recipients[email]; ok {
		return recipient, nil
	}
	return nil, repo.ErrRecipientNotFound
}

type fakeTrackingRepo struct {
	records map[string]*entity.TrackingRecord // by recipient id
	replies [][2]string
}

func (r *fakeTrackingRepo) Create(_ context.Context, _ *entity.TrackingRecord) (string, error) {
	return "", nil
}

func (r *fakeTrackingRepo) GetByPixelToken(_ context.Context, _ string) (*entity.TrackingRecord, error) {
	return nil, repo.ErrTrackingNotFound
}

func (r *fakeTrackingRepo) GetByCampaignIDAndRecipientID(_ context.Context, _, recipientID string) (*entity.TrackingRecord, error) {
	if record, ok := r.records[recipientID]; ok {
		return record, nil
	}
	return nil, repo.ErrTrackingNotFound
}

func (r *fakeTrackingRepo) GetManyByCampaignID(_ context.Context, _ string, _ *repo.Pagination) ([]*entity.TrackingRecord, *entity.Pagination, error) {
	return nil, nil, nil
}

func (r *fakeTrackingRepo) RecordOpen(_ context.Context, _ string) error { return nil }

func (r *fakeTrackingRepo) RecordClick(_ context.Context, _ string) error { return nil }

func (r *fakeTrackingRepo) RecordReply(_ context.Context, campaignID, recipientID string) error {
	r.replies = append(r.replies, [2]string{campaignID, recipientID})
	return nil
}

func (r *fakeTrackingRepo) MarkSent(_ context.Context, _ string) error { return nil }

func (r *fakeTrackingRepo) MarkFailed(_ context.Context, _ string) error { return nil }

func (r *fakeTrackingRepo) GetCampaignStats(_ context.Context, _ string) (*entity.CampaignStats, error) {
	return nil, nil
}

func newTestJob(mailService dep.MailService, campaignRepo repo.CampaignRepo,
	recipientRepo repo.RecipientRepo, trackingRepo repo.TrackingRepo) *CheckReplies {
	job := New(config.ReplyCheck{
		LookbackHours:       24,
		SubjectCacheSeconds: 60,
	}, mailService, campaignRepo, recipientRepo, trackingRepo, nil)
	return job.(*CheckReplies)
}

func TestCheckReplies(t *testing.T) {
	var (
		campaignRepo = &fakeCampaignRepo{
			completed: []*entity.Campaign{
				{
					ID:      goutil.String("campaign-1"),
					Subject: goutil.String("Spring Launch"),
					Status:  entity.CampaignStatusCompleted,
				},
			},
		}
		recipientRepo = &fakeRecipientRepo{
			recipients: map[string]*entity.Recipient{
				"ada@example.com": {ID: goutil.String("recipient-1")},
			},
		}
		trackingRepo = &fakeTrackingRepo{
			records: map[string]*entity.TrackingRecord{
				"recipient-1": {ID: goutil.String("tracking-1")},
			},
		}
		mailService = &fakeMailService{
			msgs: []*dep.InboundMessage{
				{Subject: "Re: Spring Launch", FromEmail: "ada@example.com"},
			},
		}
	)

	h := newTestJob(mailService, campaignRepo, recipientRepo, trackingRepo)
	require.NoError(t, h.checkOnce(context.Background()))

	assert.Equal(t, [][2]string{{"campaign-1", "recipient-1"}}, trackingRepo.replies)
	assert.WithinDuration(t, time.Now().Add(-24*time.Hour), mailService.since, 5*time.Second)
}

func TestCheckReplies_SubjectMatchedCaseInsensitively(t *testing.T) {
	var (
		campaignRepo = &fakeCampaignRepo{
			completed: []*entity.Campaign{
				{ID: goutil.String("campaign-1"), Subject: goutil.String("Spring Launch")},
			},
		}
		recipientRepo = &fakeRecipientRepo{
			recipients: map[string]*entity.Recipient{
				"ada@example.com": {ID: goutil.String("recipient-1")},
			},
		}
		trackingRepo = &fakeTrackingRepo{
			records: map[string]*entity.TrackingRecord{
				"recipient-1": {ID: goutil.String("tracking-1")},
			},
		}
		mailService = &fakeMailService{
			msgs: []*dep.InboundMessage{
				{Subject: "Re: SPRING launch", FromEmail: "Ada <ada@example.com>"},
			},
		}
	)

	h := newTestJob(mailService, campaignRepo, recipientRepo, trackingRepo)
	require.NoError(t, h.checkOnce(context.Background()))

	assert.Len(t, trackingRepo.replies, 1)
}

func TestCheckReplies_SkipsNonReplies(t *testing.T) {
	var (
		campaignRepo = &fakeCampaignRepo{
			completed: []*entity.Campaign{
				{ID: goutil.String("campaign-1"), Subject: goutil.String("Spring Launch")},
			},
		}
		trackingRepo = &fakeTrackingRepo{records: map[string]*entity.TrackingRecord{}}
		mailService  = &fakeMailService{
			msgs: []*dep.InboundMessage{
				// the reply prefix is matched exactly, the subject is not
				{Subject: "re: Spring Launch", FromEmail: "ada@example.com"},
				{Subject: "Spring Launch", FromEmail: "ada@example.com"},
				{Subject: "Re: Unrelated", FromEmail: "ada@example.com"},
			},
		}
	)

	h := newTestJob(mailService, campaignRepo, &fakeRecipientRepo{}, trackingRepo)
	require.NoError(t, h.checkOnce(context.Background()))

	assert.Empty(t, trackingRepo.replies)
}

func TestCheckReplies_AlreadyRepliedIsNoOp(t *testing.T) {
	var (
		campaignRepo = &fakeCampaignRepo{
			completed: []*entity.Campaign{
				{ID: goutil.String("campaign-1"), Subject: goutil.String("Spring Launch")},
			},
		}
		recipientRepo = &fakeRecipientRepo{
			recipients: map[string]*entity.Recipient{
				"ada@example.com": {ID: goutil.String("recipient-1")},
			},
		}
		trackingRepo = &fakeTrackingRepo{
			records: map[string]*entity.TrackingRecord{
				"recipient-1": {
					ID:        goutil.String("tracking-1"),
					RepliedAt: goutil.Time(time.Now().Add(-time.Hour)),
				},
			},
		}
		mailService = &fakeMailService{
			msgs: []*dep.InboundMessage{
				{Subject: "Re: Spring Launch", FromEmail: "ada@example.com"},
			},
		}
	)

	h := newTestJob(mailService, campaignRepo, recipientRepo, trackingRepo)
	require.NoError(t, h.checkOnce(context.Background()))

	assert.Empty(t, trackingRepo.replies)
}

func TestCheckReplies_SubjectIndexCached(t *testing.T) {
	var (
		campaignRepo = &fakeCampaignRepo{
			completed: []*entity.Campaign{
				{ID: goutil.String("campaign-1"), Subject: goutil.String("Spring Launch")},
			},
		}
		mailService = &fakeMailService{}
	)

	h := newTestJob(mailService, campaignRepo, &fakeRecipientRepo{}, &fakeTrackingRepo{})

	require.NoError(t, h.checkOnce(context.Background()))
	require.NoError(t, h.checkOnce(context.Background()))

	assert.Equal(t, 1, campaignRepo.calls)
}
