package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/pkg/auth"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
)

const ContextActor = "actor"

type AuthMiddleware struct {
	jwtService auth.JWTService
}

func NewAuthMiddleware(jwtService auth.JWTService) *AuthMiddleware {
	return &AuthMiddleware{jwtService: jwtService}
}

// Authenticate verifies the bearer token and places the actor on the request context.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if header == "" || !ok || token == "" {
			_ = c.Error(apperrors.Unauthorized(nil))
			c.Abort()
			return
		}

		actor, err := m.jwtService.ValidateToken(token)
		if err != nil {
			_ = c.Error(apperrors.Unauthorized(err))
			c.Abort()
			return
		}

		ctx := model.WithActor(c.Request.Context(), actor)
		logger := zerolog.Ctx(ctx).With().Str("actor", actor.Subject).Logger()
		c.Request = c.Request.WithContext(logger.WithContext(ctx))
		c.Set(ContextActor, actor)
		c.Next()
	}
}

// RequireRole rejects actors whose role is not listed.
func (m *AuthMiddleware) RequireRole(roles ...model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := model.ActorFrom(c.Request.Context())
		if !ok {
			_ = c.Error(apperrors.Unauthorized(nil))
			c.Abort()
			return
		}
		for _, r := range roles {
			if actor.Role == r {
				c.Next()
				return
			}
		}
		_ = c.Error(apperrors.Forbidden("permission denied"))
		c.Abort()
	}
}
