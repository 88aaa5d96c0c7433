package dispatch

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sugils/Email-tracker-BE/dep"
	"github.com/sugils/Email-tracker-BE/entity"
	"github.com/sugils/Email-tracker-BE/pkg/goutil"
	"github.com/sugils/Email-tracker-BE/repo"
)

type fakeCampaignRepo struct {
	updates []*entity.Campaign
}

func (r *fakeCampaignRepo) GetByID(_ context.Context, _ string) (*entity.Campaign, error) {
	return nil, repo.ErrCampaignNotFound
}

func (r *fakeCampaignRepo) GetByIDAndUserID(_ context.Context, _, _ string) (*entity.Campaign, error) {
	return nil, repo.ErrCampaignNotFound
}

func (r *fakeCampaignRepo) GetManyByStatus(_ context.Context, _ entity.CampaignStatus) ([]*entity.Campaign, error) {
	return nil, nil
}

func (r *fakeCampaignRepo) Update(_ context.Context, campaign *entity.Campaign) error {
	r.updates = append(r.updates, campaign)
	return nil
}

type fakeTemplateRepo struct {
	template *entity.Template
}

func (r *fakeTemplateRepo) GetActiveByCampaignID(_ context.Context, _ string) (*entity.Template, error) {
	if r.template == nil {
		return nil, repo.ErrTemplateNotFound
	}
	return r.template, nil
}

type fakeRecipientRepo struct {
	recipients []*entity.Recipient
	queried    bool
}

func (r *fakeRecipientRepo) GetManyActiveByCampaignID(_ context.Context, _ string) ([]*entity.Recipient, error) {
	r.queried = true
	return r.recipients, nil
}

func (r *fakeRecipientRepo) GetByCampaignIDAndEmail(_ context.Context, _, _ string) (*entity.Recipient, error) {
	return nil, repo.ErrRecipientNotFound
}

type fakeTrackingRepo struct {
	created    []*entity.TrackingRecord
	markedSent []string
	failed     []string
}

func (r *fakeTrackingRepo) Create(_ context.Context, record *entity.TrackingRecord) (string, error) {
	if record.GetID() == "" {
		record.ID = goutil.String("tracking-created")
	}
	r.created = append(r.created, record)
	return record.GetID(), nil
}

func (r *fakeTrackingRepo) GetByPixelToken(_ context.Context, _ string) (*entity.TrackingRecord, error) {
	return nil, repo.ErrTrackingNotFound
}

func (r *fakeTrackingRepo) GetByCampaignIDAndRecipientID(_ context.Context, _, _ string) (*entity.TrackingRecord, error) {
	return nil, repo.ErrTrackingNotFound
}

func (r *fakeTrackingRepo) GetManyByCampaignID(_ context.Context, _ string, _ *repo.Pagination) ([]*entity.TrackingRecord, *entity.Pagination, error) {
	return nil, nil, nil
}

func (r *fakeTrackingRepo) RecordOpen(_ context.Context, _ string) error { return nil }

func (r *fakeTrackingRepo) RecordClick(_ context.Context, _ string) error { return nil }

func (r *fakeTrackingRepo) RecordReply(_ context.Context, _, _ string) error { return nil }

func (r *fakeTrackingRepo) MarkSent(_ context.Context, id string) error {
	r.markedSent = append(r.markedSent, id)
	return nil
}

func (r *fakeTrackingRepo) MarkFailed(_ context.Context, id string) error {
	r.failed = append(r.failed, id)
	return nil
}

func (r *fakeTrackingRepo) GetCampaignStats(_ context.Context, _ string) (*entity.CampaignStats, error) {
	return nil, nil
}

type fakeEmailSession struct {
	sent    []*dep.Email
	sendErr error
	closed  bool
}

func (s *fakeEmailSession) Send(_ context.Context, email *dep.Email) error {
	if s.sendErr != nil {
		return s.sendErr
	}
	s.sent = append(s.sent, email)
	return nil
}

func (s *fakeEmailSession) Close() error {
	s.closed = true
	return nil
}

type fakeEmailService struct {
	session *fakeEmailSession
}

func (s *fakeEmailService) NewSession(_ context.Context) (dep.EmailSession, error) {
	return s.session, nil
}

type fakeRewriter struct {
	rewrites []string
	pixels   []string
}

func (r *fakeRewriter) Rewrite(_ context.Context, html, trackingID, _ string) string {
	r.rewrites = append(r.rewrites, trackingID)
	return html + "<!--links-->"
}

func (r *fakeRewriter) AppendPixel(html, pixelToken string) string {
	r.pixels = append(r.pixels, pixelToken)
	return html + "<!--pixel-->"
}

func newTestTask(mode entity.CampaignMode) *Task {
	return &Task{
		Campaign: &entity.Campaign{
			ID:           goutil.String("campaign-1"),
			Subject:      goutil.String("Spring launch"),
			FromName:     goutil.String("Acme"),
			FromEmail:    goutil.String("news@acme.test"),
			ReplyToEmail: goutil.String("reply@acme.test"),
			Status:       entity.CampaignStatusDraft,
		},
		User: &entity.User{
			Email:     goutil.String("owner@acme.test"),
			FirstName: goutil.String("Olive"),
		},
		Mode: mode,
	}
}

func TestSendCampaign(t *testing.T) {
	var (
		campaignRepo  = &fakeCampaignRepo{}
		trackingRepo  = &fakeTrackingRepo{}
		recipientRepo = &fakeRecipientRepo{
			recipients: []*entity.Recipient{
				{
					ID:        goutil.String("recipient-1"),
					Email:     goutil.String("ada@example.com"),
					FirstName: goutil.String("Ada"),
				},
			},
		}
		templateRepo = &fakeTemplateRepo{
			template: &entity.Template{
				HtmlContent: goutil.String("<p>Hi {{first_name}}</p>"),
				TextContent: goutil.String("Hi {{first_name}}"),
			},
		}
		session  = &fakeEmailSession{}
		rewriter = &fakeRewriter{}
		p        = NewPipeline(campaignRepo, templateRepo, recipientRepo, trackingRepo,
			&fakeEmailService{session: session}, rewriter)
	)

	task := newTestTask(entity.CampaignModeNormal)
	err := p.SendCampaign(context.Background(), task)
	require.NoError(t, err)

	require.Len(t, session.sent, 1)
	email := session.sent[0]
	assert.Equal(t, "ada@example.com", email.To)
	assert.Equal(t, "news@acme.test", email.From)
	assert.Equal(t, "reply@acme.test", email.ReplyTo)
	assert.Equal(t, "Spring launch", email.Subject)
	assert.Equal(t, "<p>Hi Ada</p><!--links--><!--pixel-->", email.HtmlContent)
	assert.Equal(t, "Hi Ada", email.TextContent)

	require.Len(t, trackingRepo.created, 1)
	assert.Equal(t, []string{trackingRepo.created[0].GetID()}, trackingRepo.markedSent)
	assert.Empty(t, trackingRepo.failed)

	assert.Equal(t, entity.CampaignStatusCompleted, task.Campaign.GetStatus())
	assert.NotNil(t, task.Campaign.CompletedAt)
	assert.True(t, session.closed)
}

func TestSendCampaign_SendFailureMarksRecordFailed(t *testing.T) {
	var (
		campaignRepo  = &fakeCampaignRepo{}
		trackingRepo  = &fakeTrackingRepo{}
		recipientRepo = &fakeRecipientRepo{
			recipients: []*entity.Recipient{
				{ID: goutil.String("recipient-1"), Email: goutil.String("ada@example.com")},
			},
		}
		templateRepo = &fakeTemplateRepo{
			template: &entity.Template{HtmlContent: goutil.String("<p>Hi</p>")},
		}
		session = &fakeEmailSession{sendErr: errors.New("smtp refused")}
		p       = NewPipeline(campaignRepo, templateRepo, recipientRepo, trackingRepo,
			&fakeEmailService{session: session}, &fakeRewriter{})
	)

	task := newTestTask(entity.CampaignModeNormal)
	err := p.SendCampaign(context.Background(), task)
	require.NoError(t, err)

	require.Len(t, trackingRepo.created, 1)
	assert.Equal(t, []string{trackingRepo.created[0].GetID()}, trackingRepo.failed)
	assert.Empty(t, trackingRepo.markedSent)

	// the campaign batch still finishes
	assert.Equal(t, entity.CampaignStatusCompleted, task.Campaign.GetStatus())
}

func TestSendCampaign_MissingTemplateLeavesStatusUntouched(t *testing.T) {
	var (
		campaignRepo  = &fakeCampaignRepo{}
		recipientRepo = &fakeRecipientRepo{}
		p             = NewPipeline(campaignRepo, &fakeTemplateRepo{}, recipientRepo,
			&fakeTrackingRepo{}, &fakeEmailService{session: &fakeEmailSession{}}, &fakeRewriter{})
	)

	task := newTestTask(entity.CampaignModeNormal)
	err := p.SendCampaign(context.Background(), task)
	require.ErrorIs(t, err, repo.ErrTemplateNotFound)

	// the campaign stays retryable, it never moved to sending
	assert.Equal(t, entity.CampaignStatusDraft, task.Campaign.GetStatus())
	assert.Empty(t, campaignRepo.updates)
	assert.False(t, recipientRepo.queried)
}

func TestSendCampaign_NoRecipientsStillCompletes(t *testing.T) {
	var (
		campaignRepo = &fakeCampaignRepo{}
		trackingRepo = &fakeTrackingRepo{}
		templateRepo = &fakeTemplateRepo{
			template: &entity.Template{HtmlContent: goutil.String("<p>Hi</p>")},
		}
		session = &fakeEmailSession{}
		p       = NewPipeline(campaignRepo, templateRepo, &fakeRecipientRepo{}, trackingRepo,
			&fakeEmailService{session: session}, &fakeRewriter{})
	)

	task := newTestTask(entity.CampaignModeNormal)
	err := p.SendCampaign(context.Background(), task)
	require.NoError(t, err)

	assert.Empty(t, session.sent)
	assert.Empty(t, trackingRepo.created)
	assert.Empty(t, trackingRepo.markedSent)

	assert.Equal(t, entity.CampaignStatusCompleted, task.Campaign.GetStatus())
	assert.NotNil(t, task.Campaign.CompletedAt)
}

func TestSendCampaign_TestMode(t *testing.T) {
	var (
		campaignRepo  = &fakeCampaignRepo{}
		trackingRepo  = &fakeTrackingRepo{}
		recipientRepo = &fakeRecipientRepo{}
		templateRepo  = &fakeTemplateRepo{
			template: &entity.Template{HtmlContent: goutil.String("<p>Hi {{first_name}}</p>")},
		}
		session  = &fakeEmailSession{}
		rewriter = &fakeRewriter{}
		p        = NewPipeline(campaignRepo, templateRepo, recipientRepo, trackingRepo,
			&fakeEmailService{session: session}, rewriter)
	)

	task := newTestTask(entity.CampaignModeTest)
	err := p.SendCampaign(context.Background(), task)
	require.NoError(t, err)

	// addressed to the owner, without touching the recipient list
	require.Len(t, session.sent, 1)
	assert.Equal(t, "owner@acme.test", session.sent[0].To)
	assert.False(t, recipientRepo.queried)

	// nothing persisted, links untouched, pixel still live
	assert.Empty(t, trackingRepo.created)
	assert.Empty(t, rewriter.rewrites)
	assert.Len(t, rewriter.pixels, 1)
	assert.NotEmpty(t, rewriter.pixels[0])

	// lifecycle untouched
	assert.Equal(t, entity.CampaignStatusDraft, task.Campaign.GetStatus())
	assert.Empty(t, campaignRepo.updates)
}
