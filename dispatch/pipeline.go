package dispatch

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/sugils/Email-tracker-BE/dep"
	"github.com/sugils/Email-tracker-BE/entity"
	"github.com/sugils/Email-tracker-BE/pkg/goutil"
	"github.com/sugils/Email-tracker-BE/repo"
	"github.com/sugils/Email-tracker-BE/rewrite"
)

// Pipeline runs the full delivery of one campaign: recipient resolution,
// personalization, content instrumentation and SMTP handoff.
type Pipeline interface {
	SendCampaign(ctx context.Context, task *Task) error
}

type pipeline struct {
	campaignRepo  repo.CampaignRepo
	templateRepo  repo.TemplateRepo
	recipientRepo repo.RecipientRepo
	trackingRepo  repo.TrackingRepo
	emailService  dep.EmailService
	rewriter      rewrite.ContentRewriter
}

func NewPipeline(
	campaignRepo repo.CampaignRepo,
	templateRepo repo.TemplateRepo,
	recipientRepo repo.RecipientRepo,
	trackingRepo repo.TrackingRepo,
	emailService dep.EmailService,
	rewriter rewrite.ContentRewriter,
) Pipeline {
	return &pipeline{
		campaignRepo:  campaignRepo,
		templateRepo:  templateRepo,
		recipientRepo: recipientRepo,
		trackingRepo:  trackingRepo,
		emailService:  emailService,
		rewriter:      rewriter,
	}
}

func (p *pipeline) SendCampaign(ctx context.Context, task *Task) error {
	var (
		campaign = task.Campaign
		isTest   = task.Mode == entity.CampaignModeTest
	)

	// template, recipients and SMTP session must all be in hand before
	// the campaign moves to sending
	template, err := p.templateRepo.GetActiveByCampaignID(ctx, campaign.GetID())
	if err != nil {
		return fmt.Errorf("get template: %w", err)
	}

	recipients, err := p.resolveRecipients(ctx, task)
	if err != nil {
		return fmt.Errorf("resolve recipients: %w", err)
	}

	session, err := p.emailService.NewSession(ctx)
	if err != nil {
		return fmt.Errorf("new smtp session: %w", err)
	}
	defer func() {
		if err := session.Close(); err != nil {
			log.Ctx(ctx).Warn().Msgf("close smtp session failed, err: %v", err)
		}
	}()

	// a test send never advances the campaign lifecycle
	if !isTest {
		campaign.Update(&entity.Campaign{
			Status: entity.CampaignStatusSending,
		})
		if err := p.campaignRepo.Update(ctx, campaign); err != nil {
			return fmt.Errorf("set campaign to sending: %w", err)
		}
	}

	log.Ctx(ctx).Info().Msgf("sending campaign, campaign_id: %s, recipients: %d, is_test: %t",
		campaign.GetID(), len(recipients), isTest)

	for _, recipient := range recipients {
		if err := p.sendToRecipient(ctx, session, campaign, template, recipient, isTest); err != nil {
			log.Ctx(ctx).Error().Msgf("send to recipient failed, campaign_id: %s, recipient: %s, err: %v",
				campaign.GetID(), recipient.GetEmail(), err)
		}
	}

	if isTest {
		return nil
	}

	campaign.Update(&entity.Campaign{
		Status:      entity.CampaignStatusCompleted,
		CompletedAt: goutil.Time(time.Now()),
	})
	if err := p.campaignRepo.Update(ctx, campaign); err != nil {
		return fmt.Errorf("set campaign to completed: %w", err)
	}

	return nil
}

// resolveRecipients returns the active membership of the campaign, or a
// single synthetic recipient addressing the owner for a test send.
func (p *pipeline) resolveRecipients(ctx context.Context, task *Task) ([]*entity.Recipient, error) {
	if task.Mode == entity.CampaignModeTest {
		user := task.User
		return []*entity.Recipient{
			{
				Email:     goutil.String(user.GetEmail()),
				FirstName: goutil.String(user.GetFirstName()),
				LastName:  goutil.String(user.GetLastName()),
			},
		}, nil
	}
	return p.recipientRepo.GetManyActiveByCampaignID(ctx, task.Campaign.GetID())
}

func (p *pipeline) sendToRecipient(
	ctx context.Context,
	session dep.EmailSession,
	campaign *entity.Campaign,
	template *entity.Template,
	recipient *entity.Recipient,
	isTest bool,
) error {
	var (
		htmlContent = template.GetHtmlContent()
		textContent = template.GetTextContent()
		record      *entity.TrackingRecord
	)

	if isTest {
		// ephemeral record, never persisted: the pixel token is still
		// live so the owner can see the instrumentation working.
		record = entity.NewEphemeralTrackingRecord(campaign.GetID())
	} else {
		record = entity.NewTrackingRecord(campaign.GetID(), recipient.GetID())
		if _, err := p.trackingRepo.Create(ctx, record); err != nil {
			return fmt.Errorf("create tracking record: %w", err)
		}

		fields := recipient.PlaceholderFields()
		htmlContent = entity.RenderPlaceholders(htmlContent, fields)
		textContent = entity.RenderPlaceholders(textContent, fields)

		htmlContent = p.rewriter.Rewrite(ctx, htmlContent, record.GetID(), record.GetPixelToken())
	}

	htmlContent = p.rewriter.AppendPixel(htmlContent, record.GetPixelToken())

	email := &dep.Email{
		From:        campaign.GetFromEmail(),
		FromName:    campaign.GetFromName(),
		To:          recipient.GetEmail(),
		ReplyTo:     campaign.GetReplyToEmail(),
		Subject:     campaign.GetSubject(),
		TextContent: textContent,
		HtmlContent: htmlContent,
	}

	if err := session.Send(ctx, email); err != nil {
		if !isTest {
			if markErr := p.trackingRepo.MarkFailed(ctx, record.GetID()); markErr != nil {
				log.Ctx(ctx).Error().Msgf("mark tracking record failed errored, tracking_id: %s, err: %v",
					record.GetID(), markErr)
			}
		}
		return fmt.Errorf("smtp send: %w", err)
	}

	if !isTest {
		if err := p.trackingRepo.MarkSent(ctx, record.GetID()); err != nil {
			log.Ctx(ctx).Error().Msgf("mark tracking record sent errored, tracking_id: %s, err: %v",
				record.GetID(), err)
		}
	}

	return nil
}
