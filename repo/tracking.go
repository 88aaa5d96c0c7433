package repo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sugils/Email-tracker-BE/config"
	"github.com/sugils/Email-tracker-BE/entity"
	"github.com/sugils/Email-tracker-BE/pkg/goutil"
)

var ErrTrackingNotFound = errors.New("tracking record not found")

type Tracking struct {
	ID          *string
	CampaignID  *string
	RecipientID *string
	PixelToken  *string
	Status      *string
	SentAt      *time.Time
	OpenedAt    *time.Time
	ClickedAt   *time.Time
	RepliedAt   *time.Time
	OpenCount   *uint64
	ClickCount  *uint64
	CreateTime  *uint64
	UpdateTime  *uint64
}

func (m *Tracking) TableName() string {
	return "tracking_tab"
}

func (m *Tracking) GetID() string {
	if m != nil && m.ID != nil {
		return *m.ID
	}
	return ""
}

func (m *Tracking) GetStatus() string {
	if m != nil && m.Status != nil {
		return *m.Status
	}
	return ""
}

type trackingStats struct {
	Total   int64
	Sent    int64
	Opened  int64
	Clicked int64
	Replied int64
	Failed  int64
}

const statsSelectExpr = "COUNT(*) AS total, COUNT(sent_at) AS sent, COUNT(opened_at) AS opened, " +
	"COUNT(clicked_at) AS clicked, COUNT(replied_at) AS replied, " +
	"COUNT(*) FILTER (WHERE status = 'failed') AS failed"

type TrackingRepo interface {
	Create(ctx context.Context, record *entity.TrackingRecord) (string, error)
	GetByPixelToken(ctx context.Context, pixelToken string) (*entity.TrackingRecord, error)
	GetByCampaignIDAndRecipientID(ctx context.Context, campaignID, recipientID string) (*entity.TrackingRecord, error)
	GetManyByCampaignID(ctx context.Context, campaignID string, p *Pagination) ([]*entity.TrackingRecord, *entity.Pagination, error)
	RecordOpen(ctx context.Context, pixelToken string) error
	RecordClick(ctx context.Context, trackingID string) error
	RecordReply(ctx context.Context, campaignID, recipientID string) error
	MarkSent(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string) error
	GetCampaignStats(ctx context.Context, campaignID string) (*entity.CampaignStats, error)
}

type trackingRepo struct {
	baseRepo BaseRepo
	cfg      config.Tracking
}

func NewTrackingRepo(_ context.Context, baseRepo BaseRepo, cfg config.Tracking) TrackingRepo {
	return &trackingRepo{
		baseRepo: baseRepo,
		cfg:      cfg,
	}
}

func (r *trackingRepo) Create(ctx context.Context, record *entity.TrackingRecord) (string, error) {
	trackingModel := ToTrackingModel(record)
	if trackingModel.GetID() == "" {
		trackingModel.ID = goutil.String(uuid.NewString())
	}

	if err := r.baseRepo.Create(ctx, trackingModel); err != nil {
		return "", err
	}

	record.ID = trackingModel.ID
	return trackingModel.GetID(), nil
}

func (r *trackingRepo) GetByPixelToken(ctx context.Context, pixelToken string) (*entity.TrackingRecord, error) {
	return r.get(ctx, []*Condition{
		{
			Field: "pixel_token",
			Value: pixelToken,
			Op:    OpEq,
		},
	})
}

func (r *trackingRepo) GetByCampaignIDAndRecipientID(ctx context.Context, campaignID, recipientID string) (*entity.TrackingRecord, error) {
	return r.get(ctx, []*Condition{
		{
			Field:         "campaign_id",
			Value:         campaignID,
			Op:            OpEq,
			NextLogicalOp: LogicalOpAnd,
		},
		{
			Field: "recipient_id",
			Value: recipientID,
			Op:    OpEq,
		},
	})
}

func (r *trackingRepo) GetManyByCampaignID(ctx context.Context, campaignID string, p *Pagination) ([]*entity.TrackingRecord, *entity.Pagination, error) {
	res, pagination, err := r.baseRepo.GetMany(ctx, new(Tracking), &Filter{
		Conditions: []*Condition{
			{
				Field: "campaign_id",
				Value: campaignID,
				Op:    OpEq,
			},
		},
		Pagination: p,
	})
	if err != nil {
		return nil, nil, err
	}

	records := make([]*entity.TrackingRecord, len(res))
	for i, m := range res {
		records[i] = ToTrackingRecord(m.(*Tracking))
	}
	return records, pagination, nil
}

// RecordOpen advances the record to opened unless engagement already moved
// it further. The opened timestamp is first-write-wins; the counter always
// moves. One statement, safe under concurrent callers.
func (r *trackingRepo) RecordOpen(ctx context.Context, pixelToken string) error {
	rows, err := r.baseRepo.UpdateWhere(ctx, new(Tracking), &Filter{
		Conditions: []*Condition{
			{
				Field: "pixel_token",
				Value: pixelToken,
				Op:    OpEq,
			},
		},
	}, map[string]interface{}{
		"status":      gorm.Expr("CASE WHEN status IN ? THEN ? ELSE status END", r.openableStatuses(), string(entity.TrackingStatusOpened)),
		"opened_at":   gorm.Expr("COALESCE(opened_at, NOW())"),
		"open_count":  gorm.Expr("open_count + 1"),
		"update_time": uint64(time.Now().Unix()),
	})
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrTrackingNotFound
	}
	return nil
}

// RecordClick implies an open: opened_at is backfilled and open_count
// floored to 1. Status moves to clicked unless the record already replied
// (or failed, when failed records are configured to stay failed).
func (r *trackingRepo) RecordClick(ctx context.Context, trackingID string) error {
	rows, err := r.baseRepo.UpdateWhere(ctx, new(Tracking), &Filter{
		Conditions: []*Condition{
			{
				Field: "id",
				Value: trackingID,
				Op:    OpEq,
			},
		},
	}, map[string]interface{}{
		"status":      gorm.Expr("CASE WHEN status IN ? THEN status ELSE ? END", r.unclickableStatuses(), string(entity.TrackingStatusClicked)),
		"opened_at":   gorm.Expr("COALESCE(opened_at, NOW())"),
		"open_count":  gorm.Expr("CASE WHEN open_count = 0 THEN 1 ELSE open_count END"),
		"clicked_at":  gorm.Expr("COALESCE(clicked_at, NOW())"),
		"click_count": gorm.Expr("click_count + 1"),
		"update_time": uint64(time.Now().Unix()),
	})
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrTrackingNotFound
	}
	return nil
}

// RecordReply is keyed by (campaign, recipient); a missing record is a
// not-found no-op for the caller to report.
func (r *trackingRepo) RecordReply(ctx context.Context, campaignID, recipientID string) error {
	rows, err := r.baseRepo.UpdateWhere(ctx, new(Tracking), &Filter{
		Conditions: []*Condition{
			{
				Field:         "campaign_id",
				Value:         campaignID,
				Op:            OpEq,
				NextLogicalOp: LogicalOpAnd,
			},
			{
				Field: "recipient_id",
				Value: recipientID,
				Op:    OpEq,
			},
		},
	}, map[string]interface{}{
		"status":      string(entity.TrackingStatusReplied),
		"replied_at":  gorm.Expr("COALESCE(replied_at, NOW())"),
		"update_time": uint64(time.Now().Unix()),
	})
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrTrackingNotFound
	}
	return nil
}

func (r *trackingRepo) MarkSent(ctx context.Context, id string) error {
	rows, err := r.baseRepo.UpdateWhere(ctx, new(Tracking), &Filter{
		Conditions: []*Condition{
			{
				Field: "id",
				Value: id,
				Op:    OpEq,
			},
		},
	}, map[string]interface{}{
		"status":      string(entity.TrackingStatusSent),
		"sent_at":     gorm.Expr("COALESCE(sent_at, NOW())"),
		"update_time": uint64(time.Now().Unix()),
	})
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrTrackingNotFound
	}
	return nil
}

// MarkFailed only applies to records still in the transmit stages;
// engagement stages are never downgraded to failed.
func (r *trackingRepo) MarkFailed(ctx context.Context, id string) error {
	rows, err := r.baseRepo.UpdateWhere(ctx, new(Tracking), &Filter{
		Conditions: []*Condition{
			{
				Field:         "id",
				Value:         id,
				Op:            OpEq,
				NextLogicalOp: LogicalOpAnd,
			},
			{
				Field: "status",
				Value: []string{string(entity.TrackingStatusSending), string(entity.TrackingStatusSent)},
				Op:    OpIn,
			},
		},
	}, map[string]interface{}{
		"status":      string(entity.TrackingStatusFailed),
		"update_time": uint64(time.Now().Unix()),
	})
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrTrackingNotFound
	}
	return nil
}

func (r *trackingRepo) GetCampaignStats(ctx context.Context, campaignID string) (*entity.CampaignStats, error) {
	stats := new(trackingStats)
	err := r.baseRepo.Aggregate(ctx, new(Tracking), stats, statsSelectExpr, &Filter{
		Conditions: []*Condition{
			{
				Field: "campaign_id",
				Value: campaignID,
				Op:    OpEq,
			},
		},
	})
	if err != nil {
		return nil, err
	}

	return &entity.CampaignStats{
		Total:   goutil.Int64(stats.Total),
		Sent:    goutil.Int64(stats.Sent),
		Opened:  goutil.Int64(stats.Opened),
		Clicked: goutil.Int64(stats.Clicked),
		Replied: goutil.Int64(stats.Replied),
		Failed:  goutil.Int64(stats.Failed),
	}, nil
}

func (r *trackingRepo) get(ctx context.Context, conditions []*Condition) (*entity.TrackingRecord, error) {
	tracking := new(Tracking)
	if err := r.baseRepo.Get(ctx, tracking, &Filter{Conditions: conditions}); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTrackingNotFound
		}
		return nil, err
	}
	return ToTrackingRecord(tracking), nil
}

func (r *trackingRepo) openableStatuses() []string {
	statuses := []string{
		string(entity.TrackingStatusPending),
		string(entity.TrackingStatusSending),
		string(entity.TrackingStatusSent),
	}
	if r.cfg.AcceptEngagementAfterFailure {
		statuses = append(statuses, string(entity.TrackingStatusFailed))
	}
	return statuses
}

func (r *trackingRepo) unclickableStatuses() []string {
	statuses := []string{string(entity.TrackingStatusReplied)}
	if !r.cfg.AcceptEngagementAfterFailure {
		statuses = append(statuses, string(entity.TrackingStatusFailed))
	}
	return statuses
}

func ToTrackingRecord(tracking *Tracking) *entity.TrackingRecord {
	return &entity.TrackingRecord{
		ID:          tracking.ID,
		CampaignID:  tracking.CampaignID,
		RecipientID: tracking.RecipientID,
		PixelToken:  tracking.PixelToken,
		Status:      entity.TrackingStatus(tracking.GetStatus()),
		SentAt:      tracking.SentAt,
		OpenedAt:    tracking.OpenedAt,
		ClickedAt:   tracking.ClickedAt,
		RepliedAt:   tracking.RepliedAt,
		OpenCount:   tracking.OpenCount,
		ClickCount:  tracking.ClickCount,
		CreateTime:  tracking.CreateTime,
		UpdateTime:  tracking.UpdateTime,
	}
}

func ToTrackingModel(record *entity.TrackingRecord) *Tracking {
	var status *string
	if record.GetStatus() != "" {
		s := string(record.GetStatus())
		status = &s
	}

	return &Tracking{
		ID:          record.ID,
		CampaignID:  record.CampaignID,
		RecipientID: record.RecipientID,
		PixelToken:  record.PixelToken,
		Status:      status,
		SentAt:      record.SentAt,
		OpenedAt:    record.OpenedAt,
		ClickedAt:   record.ClickedAt,
		RepliedAt:   record.RepliedAt,
		OpenCount:   record.OpenCount,
		ClickCount:  record.ClickCount,
		CreateTime:  record.CreateTime,
		UpdateTime:  record.UpdateTime,
	}
}
