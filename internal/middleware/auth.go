package middleware

import (
	"context"
	"encoding/json"
	"net/http"

	"ayaocrm/internal/auth"
	"ayaocrm/internal/models"

	"github.com/rs/zerolog"
)

type contextKey string

const ActorContextKey contextKey = "actor"

type AuthMiddleware struct {
	sessions    *auth.SessionManager
	userService *auth.UserService
	logger      zerolog.Logger
}

func NewAuthMiddleware(sessions *auth.SessionManager, userService *auth.UserService, logger zerolog.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		sessions:    sessions,
		userService: userService,
		logger:      logger,
	}
}

// RequireAuth resolves the session cookie to a stored user. Role and
// language are read fresh on every request.
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		username, ok := m.sessions.GetUsername(r)
		if !ok {
			deny(w, http.StatusUnauthorized, "login required")
			return
		}

		user, err := m.userService.GetByUsername(r.Context(), username)
		if err != nil {
			m.logger.Debug().Err(err).Str("username", username).Msg("session user not loadable")
			m.sessions.Clear(w, r)
			deny(w, http.StatusUnauthorized, "login required")
			return
		}

		next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), models.ActorFor(user))))
	})
}

func (m *AuthMiddleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, ok := GetActor(r)
		if !ok || !actor.IsAdmin() {
			deny(w, http.StatusForbidden, "permission denied")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func WithActor(ctx context.Context, actor models.Actor) context.Context {
	return context.WithValue(ctx, ActorContextKey, actor)
}

func GetActor(r *http.Request) (models.Actor, bool) {
	actor, ok := r.Context().Value(ActorContextKey).(models.Actor)
	return actor, ok
}

func deny(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
