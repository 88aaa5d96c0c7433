package middleware

import (
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

func Log(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Ctx(r.Context()).Info().Msgf("%s %s, duration: %v", r.Method, r.URL.Path, time.Since(start))
	})
}
