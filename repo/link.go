package repo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sugils/Email-tracker-BE/entity"
	"github.com/sugils/Email-tracker-BE/pkg/goutil"
)

var ErrLinkMappingNotFound = errors.New("link mapping not found")

type LinkMapping struct {
	ID             *string
	TrackingID     *string
	OriginalURL    *string `gorm:"column:original_url"`
	TrackingURL    *string `gorm:"column:tracking_url"`
	ClickCount     *uint64
	FirstClickedAt *time.Time
	LastClickedAt  *time.Time
	CreateTime     *uint64
}

func (m *LinkMapping) TableName() string {
	return "link_mapping_tab"
}

func (m *LinkMapping) GetID() string {
	if m != nil && m.ID != nil {
		return *m.ID
	}
	return ""
}

type LinkRepo interface {
	Create(ctx context.Context, mapping *entity.LinkMapping) (string, error)
	GetByIDAndTrackingID(ctx context.Context, id, trackingID string) (*entity.LinkMapping, error)
	RecordClick(ctx context.Context, id string) error
}

type linkRepo struct {
	baseRepo BaseRepo
}

func NewLinkRepo(_ context.Context, baseRepo BaseRepo) LinkRepo {
	return &linkRepo{
		baseRepo: baseRepo,
	}
}

func (r *linkRepo) Create(ctx context.Context, mapping *entity.LinkMapping) (string, error) {
	linkModel := ToLinkMappingModel(mapping)
	if linkModel.GetID() == "" {
		linkModel.ID = goutil.String(uuid.NewString())
	}

	if err := r.baseRepo.Create(ctx, linkModel); err != nil {
		return "", err
	}

	mapping.ID = linkModel.ID
	return linkModel.GetID(), nil
}

func (r *linkRepo) GetByIDAndTrackingID(ctx context.Context, id, trackingID string) (*entity.LinkMapping, error) {
	mapping := new(LinkMapping)
	f := &Filter{
		Conditions: []*Condition{
			{
				Field:         "id",
				Value:         id,
				Op:            OpEq,
				NextLogicalOp: LogicalOpAnd,
			},
			{
				Field: "tracking_id",
				Value: trackingID,
				Op:    OpEq,
			},
		},
	}
	if err := r.baseRepo.Get(ctx, mapping, f); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLinkMappingNotFound
		}
		return nil, err
	}
	return ToLinkMapping(mapping), nil
}

// RecordClick keeps the first-click timestamp stable and always refreshes
// the last-click timestamp.
func (r *linkRepo) RecordClick(ctx context.Context, id string) error {
	rows, err := r.baseRepo.UpdateWhere(ctx, new(LinkMapping), &Filter{
		Conditions: []*Condition{
			{
				Field: "id",
				Value: id,
				Op:    OpEq,
			},
		},
	}, map[string]interface{}{
		"click_count":      gorm.Expr("click_count + 1"),
		"first_clicked_at": gorm.Expr("COALESCE(first_clicked_at, NOW())"),
		"last_clicked_at":  gorm.Expr("NOW()"),
	})
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrLinkMappingNotFound
	}
	return nil
}

func ToLinkMapping(mapping *LinkMapping) *entity.LinkMapping {
	return &entity.LinkMapping{
		ID:             mapping.ID,
		TrackingID:     mapping.TrackingID,
		OriginalURL:    mapping.OriginalURL,
		TrackingURL:    mapping.TrackingURL,
		ClickCount:     mapping.ClickCount,
		FirstClickedAt: mapping.FirstClickedAt,
		LastClickedAt:  mapping.LastClickedAt,
		CreateTime:     mapping.CreateTime,
	}
}

func ToLinkMappingModel(mapping *entity.LinkMapping) *LinkMapping {
	return &LinkMapping{
		ID:             mapping.ID,
		TrackingID:     mapping.TrackingID,
		OriginalURL:    mapping.OriginalURL,
		TrackingURL:    mapping.TrackingURL,
		ClickCount:     mapping.ClickCount,
		FirstClickedAt: mapping.FirstClickedAt,
		LastClickedAt:  mapping.LastClickedAt,
		CreateTime:     mapping.CreateTime,
	}
}
