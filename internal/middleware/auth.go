package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mkovtun/study-tracker/internal/models"
	"github.com/mkovtun/study-tracker/internal/service"
	"github.com/mkovtun/study-tracker/pkg/jwt"
)

type contextKey string

const (
	userIDKey    contextKey = "user_id"
	sessionIDKey contextKey = "session_id"
	roleKey      contextKey = "role"
)

// Auth validates bearer access tokens and checks that the session behind the
// token is still alive before letting the request through.
type Auth struct {
	tokenManager *jwt.TokenManager
	authService  service.AuthService
	logger       zerolog.Logger
}

func NewAuth(tokenManager *jwt.TokenManager, authService service.AuthService, logger zerolog.Logger) *Auth {
	return &Auth{
		tokenManager: tokenManager,
		authService:  authService,
		logger:       logger.With().Str("component", "auth_middleware").Logger(),
	}
}

func (a *Auth) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			unauthorized(w)
			return
		}

		claims, err := a.tokenManager.ValidateAccessToken(token)
		if err != nil {
			unauthorized(w)
			return
		}

		if err := a.authService.ValidateSession(r.Context(), claims.SessionID.String()); err != nil {
			a.logger.Debug().Err(err).Str("user_id", claims.UserID.String()).Msg("session rejected")
			unauthorized(w)
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, claims.UserID)
		ctx = context.WithValue(ctx, sessionIDKey, claims.SessionID)
		ctx = context.WithValue(ctx, roleKey, claims.Role)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAdmin must run after Authenticate.
func (a *Auth) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if RoleFromContext(r.Context()) != string(models.RoleAdmin) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"success":false,"error":"admin access required"}`))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"success":false,"error":"unauthorized"}`))
}

func UserIDFromContext(ctx context.Context) uuid.UUID {
	if id, ok := ctx.Value(userIDKey).(uuid.UUID); ok {
		return id
	}
	return uuid.Nil
}

func SessionIDFromContext(ctx context.Context) uuid.UUID {
	if id, ok := ctx.Value(sessionIDKey).(uuid.UUID); ok {
		return id
	}
	return uuid.Nil
}

func RoleFromContext(ctx context.Context) string {
	if role, ok := ctx.Value(roleKey).(string); ok {
		return role
	}
	return ""
}
