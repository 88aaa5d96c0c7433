package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/sugils/Email-tracker-BE/entity"
)

var ErrUserNotFound = errors.New("user not found")

type User struct {
	ID         *string
	Email      *string
	FirstName  *string
	LastName   *string
	ApiKeyHash *string
	IsActive   *bool
	CreateTime *uint64
	UpdateTime *uint64
}

func (m *User) TableName() string {
	return "user_tab"
}

func (m *User) GetID() string {
	if m != nil && m.ID != nil {
		return *m.ID
	}
	return ""
}

type UserRepo interface {
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByAPIKeyHash(ctx context.Context, hash string) (*entity.User, error)
}

type userRepo struct {
	baseRepo BaseRepo
}

func NewUserRepo(_ context.Context, baseRepo BaseRepo) UserRepo {
	return &userRepo{
		baseRepo: baseRepo,
	}
}

func (r *userRepo) GetByID(ctx context.Context, id string) (*entity.User, error) {
	return r.get(ctx, []*Condition{
		{
			Field: "id",
			Value: id,
			Op:    OpEq,
		},
	})
}

func (r *userRepo) GetByAPIKeyHash(ctx context.Context, hash string) (*entity.User, error) {
	return r.get(ctx, []*Condition{
		{
			Field: "api_key_hash",
			Value: hash,
			Op:    OpEq,
		},
	})
}

func (r *userRepo) get(ctx context.Context, conditions []*Condition) (*entity.User, error) {
	user := new(User)
	if err := r.baseRepo.Get(ctx, user, &Filter{Conditions: conditions}); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return ToUser(user), nil
}

func ToUser(user *User) *entity.User {
	return &entity.User{
		ID:         user.ID,
		Email:      user.Email,
		FirstName:  user.FirstName,
		LastName:   user.LastName,
		IsActive:   user.IsActive,
		CreateTime: user.CreateTime,
		UpdateTime: user.UpdateTime,
	}
}
