package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/sugils/Email-tracker-BE/entity"
)

var ErrTemplateNotFound = errors.New("template not found")

type Template struct {
	ID          *string
	CampaignID  *string
	HtmlContent *string
	TextContent *string
	IsActive    *bool
	CreateTime  *uint64
	UpdateTime  *uint64
}

func (m *Template) TableName() string {
	return "template_tab"
}

type TemplateRepo interface {
	GetActiveByCampaignID(ctx context.Context, campaignID string) (*entity.Template, error)
}

type templateRepo struct {
	baseRepo BaseRepo
}

func NewTemplateRepo(_ context.Context, baseRepo BaseRepo) TemplateRepo {
	return &templateRepo{
		baseRepo: baseRepo,
	}
}

func (r *templateRepo) GetActiveByCampaignID(ctx context.Context, campaignID string) (*entity.Template, error) {
	template := new(Template)
	f := &Filter{
		Conditions: []*Condition{
			{
				Field:         "campaign_id",
				Value:         campaignID,
				Op:            OpEq,
				NextLogicalOp: LogicalOpAnd,
			},
			{
				Field: "is_active",
				Value: true,
				Op:    OpEq,
			},
		},
	}
	if err := r.baseRepo.Get(ctx, template, f); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTemplateNotFound
		}
		return nil, err
	}
	return ToTemplate(template), nil
}

func ToTemplate(template *Template) *entity.Template {
	return &entity.Template{
		ID:          template.ID,
		CampaignID:  template.CampaignID,
		HtmlContent: template.HtmlContent,
		TextContent: template.TextContent,
		IsActive:    template.IsActive,
		CreateTime:  template.CreateTime,
		UpdateTime:  template.UpdateTime,
	}
}
