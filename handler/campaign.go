package handler

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/sugils/Email-tracker-BE/dispatch"
	"github.com/sugils/Email-tracker-BE/entity"
	"github.com/sugils/Email-tracker-BE/pkg/errutil"
	"github.com/sugils/Email-tracker-BE/pkg/goutil"
	"github.com/sugils/Email-tracker-BE/pkg/router"
	"github.com/sugils/Email-tracker-BE/pkg/validator"
	"github.com/sugils/Email-tracker-BE/repo"
)

type CampaignHandler interface {
	SendCampaign(ctx context.Context, req *SendCampaignRequest, res *SendCampaignResponse) error
	GetCampaignStats(ctx context.Context, req *GetCampaignStatsRequest, res *GetCampaignStatsResponse) error
	GetCampaignTrackings(ctx context.Context, req *GetCampaignTrackingsRequest, res *GetCampaignTrackingsResponse) error
	MarkCampaignReplied(ctx context.Context, req *MarkCampaignRepliedRequest, res *MarkCampaignRepliedResponse) error
}

type campaignHandler struct {
	campaignRepo repo.CampaignRepo
	trackingRepo repo.TrackingRepo
	dispatcher   dispatch.Dispatcher
}

func NewCampaignHandler(campaignRepo repo.CampaignRepo, trackingRepo repo.TrackingRepo, dispatcher dispatch.Dispatcher) CampaignHandler {
	return &campaignHandler{
		campaignRepo,
		trackingRepo,
		dispatcher,
	}
}

type SendCampaignRequest struct {
	CampaignID *string `json:"campaign_id,omitempty"`
	IsTest     *bool   `json:"is_test,omitempty"`
}

func (r *SendCampaignRequest) GetCampaignID() string {
	if r != nil && r.CampaignID != nil {
		return *r.CampaignID
	}
	return ""
}

func (r *SendCampaignRequest) GetIsTest() bool {
	if r != nil && r.IsTest != nil {
		return *r.IsTest
	}
	return false
}

type SendCampaignResponse struct {
	Campaign *entity.Campaign `json:"campaign"`
}

var SendCampaignValidator = validator.MustForm(map[string]validator.Validator{
	"campaign_id": UUIDValidator(false),
	"is_test": &validator.Bool{
		Optional: true,
	},
})

func (h *campaignHandler) SendCampaign(ctx context.Context, req *SendCampaignRequest, res *SendCampaignResponse) error {
	if err := SendCampaignValidator.Validate(req); err != nil {
		return errutil.ValidationError(err)
	}

	user, campaign, err := h.getOwnedCampaign(ctx, req.GetCampaignID())
	if err != nil {
		return err
	}

	if campaign.GetStatus() == entity.CampaignStatusSending {
		return errutil.ValidationError(errors.New("campaign is already sending"))
	}

	mode := entity.CampaignModeNormal
	if req.GetIsTest() {
		mode = entity.CampaignModeTest
	}

	if err := h.dispatcher.Submit(ctx, &dispatch.Task{
		Campaign: campaign,
		User:     user,
		Mode:     mode,
	}); err != nil {
		log.Ctx(ctx).Error().Msgf("submit campaign err: %v, campaign_id: %s", err, campaign.GetID())
		if errors.Is(err, dispatch.ErrQueueFull) {
			return errutil.TooManyRequestsError(err)
		}
		return err
	}

	res.Campaign = campaign

	return nil
}

type GetCampaignStatsRequest struct {
	CampaignID *string `schema:"campaign_id" json:"campaign_id,omitempty"`
}

func (r *GetCampaignStatsRequest) GetCampaignID() string {
	if r != nil && r.CampaignID != nil {
		return *r.CampaignID
	}
	return ""
}

type GetCampaignStatsResponse struct {
	Stats     *entity.CampaignStats `json:"stats"`
	OpenRate  float64               `json:"open_rate"`
	ClickRate float64               `json:"click_rate"`
	ReplyRate float64               `json:"reply_rate"`
}

var GetCampaignStatsValidator = validator.MustForm(map[string]validator.Validator{
	"campaign_id": UUIDValidator(false),
})

func (h *campaignHandler) GetCampaignStats(ctx context.Context, req *GetCampaignStatsRequest, res *GetCampaignStatsResponse) error {
	if err := GetCampaignStatsValidator.Validate(req); err != nil {
		return errutil.ValidationError(err)
	}

	_, campaign, err := h.getOwnedCampaign(ctx, req.GetCampaignID())
	if err != nil {
		return err
	}

	stats, err := h.trackingRepo.GetCampaignStats(ctx, campaign.GetID())
	if err != nil {
		log.Ctx(ctx).Error().Msgf("get campaign stats err: %v, campaign_id: %s", err, campaign.GetID())
		return err
	}

	res.Stats = stats
	res.OpenRate = stats.OpenRate()
	res.ClickRate = stats.ClickRate()
	res.ReplyRate = stats.ReplyRate()

	return nil
}

type GetCampaignTrackingsRequest struct {
	CampaignID *string `schema:"campaign_id" json:"campaign_id,omitempty"`
	Page       *uint32 `schema:"page" json:"page,omitempty"`
	Limit      *uint32 `schema:"limit" json:"limit,omitempty"`
}

func (r *GetCampaignTrackingsRequest) GetCampaignID() string {
	if r != nil && r.CampaignID != nil {
		return *r.CampaignID
	}
	return ""
}

type GetCampaignTrackingsResponse struct {
	Trackings  []*entity.TrackingRecord `json:"trackings"`
	Pagination *entity.Pagination       `json:"pagination"`
}

var GetCampaignTrackingsValidator = validator.MustForm(map[string]validator.Validator{
	"campaign_id": UUIDValidator(false),
	"page": &validator.UInt32{
		Optional: true,
	},
	"limit": &validator.UInt32{
		Optional: true,
		Max:      goutil.Uint32(100),
	},
})

func (h *campaignHandler) GetCampaignTrackings(ctx context.Context, req *GetCampaignTrackingsRequest, res *GetCampaignTrackingsResponse) error {
	if err := GetCampaignTrackingsValidator.Validate(req); err != nil {
		return errutil.ValidationError(err)
	}

	_, campaign, err := h.getOwnedCampaign(ctx, req.GetCampaignID())
	if err != nil {
		return err
	}

	trackings, pagination, err := h.trackingRepo.GetManyByCampaignID(ctx, campaign.GetID(), &repo.Pagination{
		Page:  req.Page,
		Limit: req.Limit,
	})
	if err != nil {
		log.Ctx(ctx).Error().Msgf("get campaign trackings err: %v, campaign_id: %s", err, campaign.GetID())
		return err
	}

	res.Trackings = trackings
	res.Pagination = pagination

	return nil
}

type MarkCampaignRepliedRequest struct {
	CampaignID  *string `json:"campaign_id,omitempty"`
	RecipientID *string `json:"recipient_id,omitempty"`
}

func (r *MarkCampaignRepliedRequest) GetCampaignID() string {
	if r != nil && r.CampaignID != nil {
		return *r.CampaignID
	}
	return ""
}

func (r *MarkCampaignRepliedRequest) GetRecipientID() string {
	if r != nil && r.RecipientID != nil {
		return *r.RecipientID
	}
	return ""
}

type MarkCampaignRepliedResponse struct{}

var MarkCampaignRepliedValidator = validator.MustForm(map[string]validator.Validator{
	"campaign_id":  UUIDValidator(false),
	"recipient_id": UUIDValidator(false),
})

func (h *campaignHandler) MarkCampaignReplied(ctx context.Context, req *MarkCampaignRepliedRequest, res *MarkCampaignRepliedResponse) error {
	if err := MarkCampaignRepliedValidator.Validate(req); err != nil {
		return errutil.ValidationError(err)
	}

	_, campaign, err := h.getOwnedCampaign(ctx, req.GetCampaignID())
	if err != nil {
		return err
	}

	if err := h.trackingRepo.RecordReply(ctx, campaign.GetID(), req.GetRecipientID()); err != nil {
		if errors.Is(err, repo.ErrTrackingNotFound) {
			return errutil.NotFoundError(err)
		}
		log.Ctx(ctx).Error().Msgf("record reply err: %v, campaign_id: %s", err, campaign.GetID())
		return err
	}

	return nil
}

func (h *campaignHandler) getOwnedCampaign(ctx context.Context, campaignID string) (*entity.User, *entity.Campaign, error) {
	user, ok := router.GetUserFromContext(ctx)
	if !ok {
		return nil, nil, errutil.UnauthorizedError(errors.New("invalid credentials"))
	}

	campaign, err := h.campaignRepo.GetByIDAndUserID(ctx, campaignID, user.GetID())
	if err != nil {
		if errors.Is(err, repo.ErrCampaignNotFound) {
			return nil, nil, errutil.NotFoundError(err)
		}
		log.Ctx(ctx).Error().Msgf("get campaign err: %v, campaign_id: %s", err, campaignID)
		return nil, nil, err
	}

	return user, campaign, nil
}
