package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	iauth "github.com/hamzarao/carsaaz/internal/auth"
	"github.com/hamzarao/carsaaz/internal/models"
	"github.com/hamzarao/carsaaz/pkg/errors"
	"github.com/hamzarao/carsaaz/pkg/response"
)

const (
	CtxClaimsKey       = "authClaims"
	CtxUserIDKey       = "userID"
	CtxRoleKey         = "userRole"
	CtxDealershipIDKey = "dealershipID"
)

// Auth enforces JWT authentication using the supplied JWT service.
func Auth(jwt *iauth.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authz := c.GetHeader("Authorization")
		if len(authz) < 8 || !strings.EqualFold(authz[:7], "Bearer ") {
			response.Error(c, errors.ErrUnauthorized)
			c.Abort()
			return
		}

		token := strings.TrimSpace(authz[7:])
		claims, err := jwt.ValidateAccessToken(token)
		if err != nil {
			// Normalise all validation failures to 401
			c.Header("WWW-Authenticate", "Bearer")
			response.Error(c, errors.ErrUnauthorized)
			c.Abort()
			return
		}

		// Propagate identity into request context
		c.Set(CtxClaimsKey, claims)
		c.Set(CtxUserIDKey, claims.UserID)
		c.Set(CtxRoleKey, claims.Role)
		if claims.DealershipID != "" {
			c.Set(CtxDealershipIDKey, claims.DealershipID)
		}

		c.Next()
	}
}

// RequireRole rejects requests whose authenticated role is not in allowed.
// Admins always pass.
func RequireRole(allowed ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString(CtxRoleKey)
		if role == models.RoleAdmin {
			c.Next()
			return
		}
		for _, candidate := range allowed {
			if role == candidate {
				c.Next()
				return
			}
		}
		response.Error(c, errors.ErrForbidden)
		c.Abort()
	}
}
