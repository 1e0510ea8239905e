package middleware

import (
	"context"
	"errors"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/ucu-innovators/hub/backend/internal/services"
	"github.com/ucu-innovators/hub/backend/pkg/response"
)

const (
	ContextUserID = "user_id"
	ContextRole   = "role"
)

// IdentityResolver turns a bearer token into the caller's identity.
type IdentityResolver interface {
	Authenticate(ctx context.Context, token string) (*services.Identity, error)
}

// bearerToken extracts the token from "Bearer <token>".
func bearerToken(c *gin.Context) (string, bool) {
	parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || strings.TrimSpace(parts[1]) == "" {
		return "", false
	}
	return strings.TrimSpace(parts[1]), true
}

func setIdentity(c *gin.Context, id *services.Identity) {
	c.Set(ContextUserID, id.UserID)
	c.Set(ContextRole, id.Role)
}

// AuthRequired rejects requests without a valid token of an active user.
// An identity already attached by OptionalAuth is reused.
func AuthRequired(resolver IdentityResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		if IsAuthenticated(c) {
			c.Next()
			return
		}

		token, ok := bearerToken(c)
		if !ok {
			response.AbortWithError(c, services.ErrUnauthenticated)
			return
		}

		identity, err := resolver.Authenticate(c.Request.Context(), token)
		if err != nil {
			var appErr *response.AppError
			if !errors.As(err, &appErr) {
				err = services.ErrUnauthenticated
			}
			response.AbortWithError(c, err)
			return
		}

		setIdentity(c, identity)
		c.Next()
	}
}

// OptionalAuth attaches the identity when a valid token is present and lets
// anonymous requests through otherwise.
func OptionalAuth(resolver IdentityResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token, ok := bearerToken(c); ok {
			if identity, err := resolver.Authenticate(c.Request.Context(), token); err == nil {
				setIdentity(c, identity)
			}
		}
		c.Next()
	}
}

// RequireRoles must run after AuthRequired.
func RequireRoles(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !IsAuthenticated(c) {
			response.AbortWithError(c, services.ErrUnauthenticated)
			return
		}
		if !slices.Contains(roles, GetRole(c)) {
			response.AbortWithError(c, services.ErrForbiddenRole)
			return
		}
		c.Next()
	}
}

// AdminRequired is a middleware that checks for admin role
func AdminRequired() gin.HandlerFunc {
	return RequireRoles("admin")
}

// GetUserID gets the current user ID from context
func GetUserID(c *gin.Context) string {
	return c.GetString(ContextUserID)
}

// GetRole gets the current user role from context
func GetRole(c *gin.Context) string {
	return c.GetString(ContextRole)
}

func IsAuthenticated(c *gin.Context) bool {
	return GetUserID(c) != ""
}

// GetIdentity returns the caller, or nil for anonymous requests.
func GetIdentity(c *gin.Context) *services.Identity {
	if !IsAuthenticated(c) {
		return nil
	}
	return &services.Identity{UserID: GetUserID(c), Role: GetRole(c)}
}
