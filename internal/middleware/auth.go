package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/medibook-api/internal/model"
	"github.com/jwalitptl/medibook-api/internal/repository"
	"github.com/jwalitptl/medibook-api/pkg/auth"
	apperrors "github.com/jwalitptl/medibook-api/pkg/errors"
	"github.com/jwalitptl/medibook-api/pkg/httputil"
)

const (
	ContextUserID = "userId"
	ContextRole   = "role"
)

type AuthMiddleware struct {
	jwtSvc   auth.JWTService
	sessions repository.SessionStore
}

func NewAuthMiddleware(jwtSvc auth.JWTService, sessions repository.SessionStore) *AuthMiddleware {
	return &AuthMiddleware{
		jwtSvc:   jwtSvc,
		sessions: sessions,
	}
}

// Authenticate verifies the bearer token and sets the caller's id and role
// in context.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			httputil.RespondWithError(c, apperrors.Unauthorized("No token, authorization denied", nil))
			return
		}

		claims, err := m.jwtSvc.ValidateToken(strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer ")))
		if err != nil {
			msg := "Token is invalid"
			if errors.Is(err, auth.ErrTokenExpired) {
				msg = "Token is expired"
			}
			httputil.RespondWithError(c, apperrors.Unauthorized(msg, err))
			return
		}

		if m.sessions != nil {
			revoked, err := m.sessions.IsRevoked(c.Request.Context(), claims.ID)
			if err != nil {
				log.Error().Err(err).Str("user_id", claims.ID).Msg("failed to check session revocation")
				httputil.RespondWithError(c, apperrors.Internal(err))
				return
			}
			if revoked {
				httputil.RespondWithError(c, apperrors.Unauthorized("Session has been revoked", nil))
				return
			}
		}

		c.Set(ContextUserID, claims.ID)
		c.Set(ContextRole, model.Role(claims.Role))
		c.Next()
	}
}

// RequireRoles rejects callers whose role is not listed. It must run after
// Authenticate.
func (m *AuthMiddleware) RequireRoles(roles ...model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := CurrentSession(c).Role
		for _, r := range roles {
			if r == role {
				c.Next()
				return
			}
		}
		httputil.RespondWithError(c, apperrors.Forbidden("You're not authorized"))
	}
}

// CurrentSession returns the authenticated caller, or a zero Session on
// public routes.
func CurrentSession(c *gin.Context) model.Session {
	role, _ := c.Get(ContextRole)
	r, _ := role.(model.Role)
	return model.Session{ID: c.GetString(ContextUserID), Role: r}
}
