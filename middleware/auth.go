package middleware

import (
	"strings"

	"github.com/BerniceZTT/feedback_end/models"
	"github.com/BerniceZTT/feedback_end/utils"

	"github.com/gin-gonic/gin"
)

// AuthMiddleware checks the Bearer token and stores the caller in the context.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")

		utils.Logger.Debug().
			Str("path", c.Request.URL.Path).
			Str("method", c.Request.Method).
			Str("authorization", utils.ShortAuthHeader(authHeader)).
			Msg("authenticating request")

		if !strings.HasPrefix(authHeader, "Bearer ") {
			utils.HandleError(c, utils.CreateUnauthorizedError("No token, authorization denied"))
			return
		}

		token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		if token == "" {
			utils.HandleError(c, utils.CreateUnauthorizedError("No token, authorization denied"))
			return
		}

		claims, err := utils.ParseToken(token)
		if err != nil {
			utils.Logger.Warn().Err(err).Msg("token rejected")
			utils.HandleError(c, utils.CreateUnauthorizedError("Token is not valid"))
			return
		}

		caller, err := utils.CallerFromClaims(claims)
		if err != nil {
			utils.Logger.Warn().Err(err).Msg("token payload incomplete")
			utils.HandleError(c, utils.CreateUnauthorizedError("Token is not valid"))
			return
		}

		c.Set(utils.UserContextKey, caller)
		c.Next()
	}
}

// RoleMiddleware lets the request through only when the caller holds one of
// roles. It must run after AuthMiddleware.
func RoleMiddleware(roles ...models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, err := utils.GetUser(c)
		if err != nil {
			utils.HandleError(c, err)
			return
		}

		if !caller.Role.In(roles...) {
			utils.Logger.Info().
				Str("userId", caller.ID).
				Str("role", string(caller.Role)).
				Str("path", c.Request.URL.Path).
				Msg("role not permitted")
			utils.HandleError(c, utils.CreateForbiddenError("Access denied"))
			return
		}

		c.Next()
	}
}
