package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/sugils/Email-tracker-BE/entity"
)

var ErrCampaignNotFound = errors.New("campaign not found")

type Campaign struct {
	ID           *string
	UserID       *string
	Name         *string
	Subject      *string
	FromName     *string
	FromEmail    *string
	ReplyToEmail *string
	Status       *string
	CompletedAt  *time.Time
	CreateTime   *uint64
	UpdateTime   *uint64
}

func (m *Campaign) TableName() string {
	return "campaign_tab"
}

func (m *Campaign) GetID() string {
	if m != nil && m.ID != nil {
		return *m.ID
	}
	return ""
}

func (m *Campaign) GetStatus() string {
	if m != nil && m.Status != nil {
		return *m.Status
	}
	return ""
}

type CampaignRepo interface {
	GetByID(ctx context.Context, id string) (*entity.Campaign, error)
	GetByIDAndUserID(ctx context.Context, id, userID string) (*entity.Campaign, error)
	GetManyByStatus(ctx context.Context, status entity.CampaignStatus) ([]*entity.Campaign, error)
	Update(ctx context.Context, campaign *entity.Campaign) error
}

type campaignRepo struct {
	baseRepo BaseRepo
}

func NewCampaignRepo(_ context.Context, baseRepo BaseRepo) CampaignRepo {
	return &campaignRepo{
		baseRepo: baseRepo,
	}
}

func (r *campaignRepo) GetByID(ctx context.Context, id string) (*entity.Campaign, error) {
	return r.get(ctx, []*Condition{
		{
			Field: "id",
			Value: id,
			Op:    OpEq,
		},
	})
}

func (r *campaignRepo) GetByIDAndUserID(ctx context.Context, id, userID string) (*entity.Campaign, error) {
	return r.get(ctx, []*Condition{
		{
			Field:         "id",
			Value:         id,
			Op:            OpEq,
			NextLogicalOp: LogicalOpAnd,
		},
		{
			Field: "user_id",
			Value: userID,
			Op:    OpEq,
		},
	})
}

func (r *campaignRepo) GetManyByStatus(ctx context.Context, status entity.CampaignStatus) ([]*entity.Campaign, error) {
	res, _, err := r.baseRepo.GetMany(ctx, new(Campaign), &Filter{
		Conditions: []*Condition{
			{
				Field: "status",
				Value: string(status),
				Op:    OpEq,
			},
		},
	})
	if err != nil {
		return nil, err
	}

	campaigns := make([]*entity.Campaign, len(res))
	for i, m := range res {
		campaigns[i] = ToCampaign(m.(*Campaign))
	}
	return campaigns, nil
}

func (r *campaignRepo) Update(ctx context.Context, campaign *entity.Campaign) error {
	return r.baseRepo.Update(ctx, ToCampaignModel(campaign))
}

func (r *campaignRepo) get(ctx context.Context, conditions []*Condition) (*entity.Campaign, error) {
	campaign := new(Campaign)
	if err := r.baseRepo.Get(ctx, campaign, &Filter{Conditions: conditions}); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCampaignNotFound
		}
		return nil, err
	}
	return ToCampaign(campaign), nil
}

func ToCampaign(campaign *Campaign) *entity.Campaign {
	return &entity.Campaign{
		ID:           campaign.ID,
		UserID:       campaign.UserID,
		Name:         campaign.Name,
		Subject:      campaign.Subject,
		FromName:     campaign.FromName,
		FromEmail:    campaign.FromEmail,
		ReplyToEmail: campaign.ReplyToEmail,
		Status:       entity.CampaignStatus(campaign.GetStatus()),
		CompletedAt:  campaign.CompletedAt,
		CreateTime:   campaign.CreateTime,
		UpdateTime:   campaign.UpdateTime,
	}
}

func ToCampaignModel(campaign *entity.Campaign) *Campaign {
	var status *string
	if campaign.GetStatus() != "" {
		s := string(campaign.GetStatus())
		status = &s
	}

	return &Campaign{
		ID:           campaign.ID,
		UserID:       campaign.UserID,
		Name:         campaign.Name,
		Subject:      campaign.Subject,
		FromName:     campaign.FromName,
		FromEmail:    campaign.FromEmail,
		ReplyToEmail: campaign.ReplyToEmail,
		Status:       status,
		CompletedAt:  campaign.CompletedAt,
		CreateTime:   campaign.CreateTime,
		UpdateTime:   campaign.UpdateTime,
	}
}
