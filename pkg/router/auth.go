package router

import (
	"context"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"
	"github.com/sugils/Email-tracker-BE/entity"
	"github.com/sugils/Email-tracker-BE/pkg/errutil"
	"github.com/sugils/Email-tracker-BE/pkg/goutil"
	"github.com/sugils/Email-tracker-BE/pkg/httputil"
	"github.com/sugils/Email-tracker-BE/repo"
)

type contextKey string

const userKey contextKey = "user"

type authMiddleware struct {
	userRepo repo.UserRepo
}

func NewAuthMiddleware(userRepo repo.UserRepo) Middleware {
	return &authMiddleware{
		userRepo: userRepo,
	}
}

func (m *authMiddleware) Handle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		apiKey := r.Header.Get("X-API-Key")
		if apiKey == "" {
			log.Ctx(ctx).Error().Msg("api key is empty")
			m.returnErr(w)
			return
		}

		user, err := m.userRepo.GetByAPIKeyHash(ctx, goutil.Sha256(apiKey))
		if err != nil {
			log.Ctx(ctx).Error().Msgf("get user error, err: %v", err)
			m.returnErr(w)
			return
		}

		if !user.GetIsActive() {
			log.Ctx(ctx).Error().Msgf("user is inactive, userID: %v", user.GetID())
			m.returnErr(w)
			return
		}

		next.ServeHTTP(w, r.WithContext(ContextWithUser(ctx, user)))
	})
}

func (m *authMiddleware) returnErr(w http.ResponseWriter) {
	// abstract all errors as invalid credentials
	httputil.ReturnServerResponse(w, nil, errutil.UnauthorizedError(errors.New("invalid credentials")))
}

func ContextWithUser(ctx context.Context, user *entity.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

func GetUserFromContext(ctx context.Context) (*entity.User, bool) {
	val := ctx.Value(userKey)
	if user, ok := val.(*entity.User); ok {
		return user, true
	}
	return nil, false
}
