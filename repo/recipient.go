package repo

import (
	"context"
	"encoding/json"
	"errors"

	"gorm.io/gorm"

	"github.com/sugils/Email-tracker-BE/entity"
	"github.com/sugils/Email-tracker-BE/pkg/goutil"
)

var ErrRecipientNotFound = errors.New("recipient not found")

type Recipient struct {
	ID           *string
	UserID       *string
	Email        *string
	FirstName    *string
	LastName     *string
	CustomFields *string
	IsActive     *bool
	CreateTime   *uint64
	UpdateTime   *uint64
}

func (m *Recipient) TableName() string {
	return "recipient_tab"
}

func (m *Recipient) GetCustomFields() string {
	if m != nil && m.CustomFields != nil {
		return *m.CustomFields
	}
	return ""
}

// CampaignRecipient is the campaign membership link, soft-deletable
// independently of the recipient.
type CampaignRecipient struct {
	ID          *string
	CampaignID  *string
	RecipientID *string
	IsActive    *bool
	CreateTime  *uint64
}

func (m *CampaignRecipient) TableName() string {
	return "campaign_recipient_tab"
}

func (m *CampaignRecipient) GetRecipientID() string {
	if m != nil && m.RecipientID != nil {
		return *m.RecipientID
	}
	return ""
}

type RecipientRepo interface {
	GetManyActiveByCampaignID(ctx context.Context, campaignID string) ([]*entity.Recipient, error)
	GetByCampaignIDAndEmail(ctx context.Context, campaignID, email string) (*entity.Recipient, error)
}

type recipientRepo struct {
	baseRepo BaseRepo
}

func NewRecipientRepo(_ context.Context, baseRepo BaseRepo) RecipientRepo {
	return &recipientRepo{
		baseRepo: baseRepo,
	}
}

func (r *recipientRepo) GetManyActiveByCampaignID(ctx context.Context, campaignID string) ([]*entity.Recipient, error) {
	recipientIDs, err := r.getActiveMemberIDs(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	if len(recipientIDs) == 0 {
		return []*entity.Recipient{}, nil
	}

	res, _, err := r.baseRepo.GetMany(ctx, new(Recipient), &Filter{
		Conditions: []*Condition{
			{
				Field:         "id",
				Value:         recipientIDs,
				Op:            OpIn,
				NextLogicalOp: LogicalOpAnd,
			},
			{
				Field: "is_active",
				Value: true,
				Op:    OpEq,
			},
		},
	})
	if err != nil {
		return nil, err
	}

	recipients := make([]*entity.Recipient, 0, len(res))
	for _, m := range res {
		recipient, err := ToRecipient(m.(*Recipient))
		if err != nil {
			return nil, err
		}
		recipients = append(recipients, recipient)
	}
	return recipients, nil
}

func (r *recipientRepo) GetByCampaignIDAndEmail(ctx context.Context, campaignID, email string) (*entity.Recipient, error) {
	recipientIDs, err := r.getActiveMemberIDs(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	if len(recipientIDs) == 0 {
		return nil, ErrRecipientNotFound
	}

	recipient := new(Recipient)
	f := &Filter{
		Conditions: []*Condition{
			{
				Field:         "id",
				Value:         recipientIDs,
				Op:            OpIn,
				NextLogicalOp: LogicalOpAnd,
			},
			{
				Field: "email",
				Value: email,
				Op:    OpEq,
			},
		},
	}
	if err := r.baseRepo.Get(ctx, recipient, f); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecipientNotFound
		}
		return nil, err
	}
	return ToRecipient(recipient)
}

func (r *recipientRepo) getActiveMemberIDs(ctx context.Context, campaignID string) ([]string, error) {
	res, _, err := r.baseRepo.GetMany(ctx, new(CampaignRecipient), &Filter{
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
	})
	if err != nil {
		return nil, err
	}

	recipientIDs := make([]string, 0, len(res))
	for _, m := range res {
		recipientIDs = append(recipientIDs, m.(*CampaignRecipient).GetRecipientID())
	}
	return recipientIDs, nil
}

func ToRecipient(recipient *Recipient) (*entity.Recipient, error) {
	customFields := make(map[string]string)
	if recipient.GetCustomFields() != "" {
		if err := json.Unmarshal([]byte(recipient.GetCustomFields()), &customFields); err != nil {
			return nil, err
		}
	}

	return &entity.Recipient{
		ID:           recipient.ID,
		UserID:       recipient.UserID,
		Email:        recipient.Email,
		FirstName:    recipient.FirstName,
		LastName:     recipient.LastName,
		CustomFields: customFields,
		IsActive:     recipient.IsActive,
		CreateTime:   recipient.CreateTime,
		UpdateTime:   recipient.UpdateTime,
	}, nil
}

func ToRecipientModel(recipient *entity.Recipient) (*Recipient, error) {
	customFields, err := json.Marshal(recipient.CustomFields)
	if err != nil {
		return nil, err
	}

	return &Recipient{
		ID:           recipient.ID,
		UserID:       recipient.UserID,
		Email:        recipient.Email,
		FirstName:    recipient.FirstName,
		LastName:     recipient.LastName,
		CustomFields: goutil.String(string(customFields)),
		IsActive:     recipient.IsActive,
		CreateTime:   recipient.CreateTime,
		UpdateTime:   recipient.UpdateTime,
	}, nil
}
