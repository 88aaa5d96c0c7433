package check_replies

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog/log"

	"github.com/sugils/Email-tracker-BE/config"
	"github.com/sugils/Email-tracker-BE/dep"
	"github.com/sugils/Email-tracker-BE/entity"
	"github.com/sugils/Email-tracker-BE/pkg/goutil"
	"github.com/sugils/Email-tracker-BE/pkg/mq"
	"github.com/sugils/Email-tracker-BE/pkg/service"
	"github.com/sugils/Email-tracker-BE/repo"
)

const (
	replyPrefix      = "Re:"
	subjectsCacheKey = "completed_campaign_subjects"
)

type CheckReplies struct {
	cfg           config.ReplyCheck
	mailService   dep.MailService
	campaignRepo  repo.CampaignRepo
	recipientRepo repo.RecipientRepo
	trackingRepo  repo.TrackingRepo
	producer      *mq.Producer
	subjectCache  *cache.Cache
	inFlight      atomic.Bool
}

func New(cfg config.ReplyCheck, mailService dep.MailService, campaignRepo repo.CampaignRepo,
	recipientRepo repo.RecipientRepo, trackingRepo repo.TrackingRepo, producer *mq.Producer) service.Job {
	cacheTTL := time.Duration(cfg.SubjectCacheSeconds) * time.Second
	return &CheckReplies{
		cfg:           cfg,
		mailService:   mailService,
		campaignRepo:  campaignRepo,
		recipientRepo: recipientRepo,
		trackingRepo:  trackingRepo,
		producer:      producer,
		subjectCache:  cache.New(cacheTTL, 2*cacheTTL),
	}
}

func (h *CheckReplies) Init(_ context.Context) error {
	return nil
}

// Run polls the mailbox every interval until the context is cancelled.
// A non-positive interval means a single pass, for cron-style scheduling.
func (h *CheckReplies) Run(ctx context.Context) error {
	if h.cfg.IntervalSeconds <= 0 {
		return h.checkOnce(ctx)
	}

	ticker := time.NewTicker(time.Duration(h.cfg.IntervalSeconds) * time.Second)
	defer ticker.Stop()

	for {
		if err := h.checkOnce(ctx); err != nil {
			log.Ctx(ctx).Error().Msgf("check replies failed: %v", err)
		}

		select {
		case <-ticker.C:
		case <-ctx.Done():
			return nil
		}
	}
}

func (h *CheckReplies) CleanUp(_ context.Context) error {
	return nil
}

func (h *CheckReplies) checkOnce(ctx context.Context) error {
	// a slow mailbox fetch must not stack a second pass on top
	if !h.inFlight.CompareAndSwap(false, true) {
		log.Ctx(ctx).Warn().Msg("previous check still running, skipping")
		return nil
	}
	defer h.inFlight.Store(false)

	subjects, err := h.completedCampaignSubjects(ctx)
	if err != nil {
		return err
	}
	if len(subjects) == 0 {
		return nil
	}

	since := time.Now().Add(-time.Duration(h.cfg.LookbackHours) * time.Hour)
	msgs, err := h.mailService.FetchRecentMessages(ctx, since)
	if err != nil {
		return err
	}

	log.Ctx(ctx).Info().Msgf("checking messages for replies, messages: %d, campaigns: %d", len(msgs), len(subjects))

	for _, msg := range msgs {
		if err := h.reconcile(ctx, subjects, msg); err != nil {
			log.Ctx(ctx).Error().Msgf("reconcile reply failed, subject: %s, err: %v", msg.Subject, err)
		}
	}

	return nil
}

func (h *CheckReplies) reconcile(ctx context.Context, subjects map[string]*entity.Campaign, msg *dep.InboundMessage) error {
	if !strings.HasPrefix(msg.Subject, replyPrefix) {
		return nil
	}

	base := strings.TrimSpace(strings.TrimPrefix(msg.Subject, replyPrefix))
	campaign, ok := subjects[strings.ToLower(base)]
	if !ok {
		return nil
	}

	sender := goutil.ExtractEmailAddress(msg.FromEmail)

	recipient, err := h.recipientRepo.GetByCampaignIDAndEmail(ctx, campaign.GetID(), sender)
	if err != nil {
		if errors.Is(err, repo.ErrRecipientNotFound) {
			return nil
		}
		return err
	}

	record, err := h.trackingRepo.GetByCampaignIDAndRecipientID(ctx, campaign.GetID(), recipient.GetID())
	if err != nil {
		if errors.Is(err, repo.ErrTrackingNotFound) {
			return nil
		}
		return err
	}

	// first reply wins, later ones are no-ops
	if record.GetRepliedAt() != nil {
		return nil
	}

	if err := h.trackingRepo.RecordReply(ctx, campaign.GetID(), recipient.GetID()); err != nil {
		return err
	}

	log.Ctx(ctx).Info().Msgf("reply recorded, campaign_id: %s, recipient: %s", campaign.GetID(), sender)

	h.publish(ctx, record.GetID(), campaign.GetID())

	return nil
}

// completedCampaignSubjects returns completed campaigns keyed by lowercased
// subject. The index is cached briefly since the mailbox poll is far more
// frequent than campaign completion.
func (h *CheckReplies) completedCampaignSubjects(ctx context.Context) (map[string]*entity.Campaign, error) {
	if cached, ok := h.subjectCache.Get(subjectsCacheKey); ok {
		return cached.(map[string]*entity.Campaign), nil
	}

	campaigns, err := h.campaignRepo.GetManyByStatus(ctx, entity.CampaignStatusCompleted)
	if err != nil {
		return nil, err
	}

	subjects := make(map[string]*entity.Campaign, len(campaigns))
	for _, campaign := range campaigns {
		subjects[strings.ToLower(campaign.GetSubject())] = campaign
	}

	h.subjectCache.Set(subjectsCacheKey, subjects, cache.DefaultExpiration)

	return subjects, nil
}

func (h *CheckReplies) publish(ctx context.Context, trackingID, campaignID string) {
	err := h.producer.SendMessage(&mq.Message{
		Payload: mq.PayloadEngagementEvent,
		Key:     trackingID,
		Body: &mq.EngagementEvent{
			TrackingID: goutil.String(trackingID),
			CampaignID: goutil.String(campaignID),
			Event:      goutil.String(mq.EngagementEventReply),
			OccurredAt: goutil.Time(time.Now()),
		},
	})
	if err != nil {
		log.Ctx(ctx).Warn().Msgf("publish engagement event err: %v, tracking_id: %s", err, trackingID)
	}
}
