package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/MukeshRawatMkR/Mukesh-Rawat-Web-Portfolio/models"
	"github.com/MukeshRawatMkR/Mukesh-Rawat-Web-Portfolio/utils"
)

// Gin context keys set by AuthRequired.
const (
	ContextUserIDKey   = "user_id"
	ContextUsernameKey = "username"
	ContextRoleKey     = "role"
)

// BearerToken returns the token of an "Authorization: Bearer <token>"
// header, or the empty string when the header is absent or malformed.
func BearerToken(ctx *gin.Context) string {
	scheme, token, found := strings.Cut(ctx.GetHeader("Authorization"), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// AuthRequired rejects requests without a valid, unrevoked JWT and stores
// the authenticated identity in the gin context.
func AuthRequired() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		header := ctx.GetHeader("Authorization")
		if header == "" {
			abortUnauthorized(ctx, 40101, "authorization header missing")
			return
		}

		scheme, token, found := strings.Cut(header, " ")
		if !found || !strings.EqualFold(scheme, "Bearer") {
			abortUnauthorized(ctx, 40102, "invalid authorization header format")
			return
		}
		token = strings.TrimSpace(token)
		if token == "" {
			abortUnauthorized(ctx, 40103, "empty bearer token")
			return
		}

		if utils.IsTokenBlacklisted(token) {
			abortUnauthorized(ctx, 40104, "token revoked")
			return
		}

		claims, err := utils.ParseToken(token)
		if err != nil {
			abortUnauthorized(ctx, 40105, "invalid token")
			return
		}

		ctx.Set(ContextUserIDKey, claims.UserID)
		ctx.Set(ContextUsernameKey, claims.Username)
		ctx.Set(ContextRoleKey, claims.Role)
		ctx.Next()
	}
}

// AdminRequired allows only admin accounts through. It must run after
// AuthRequired.
func AdminRequired() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		role, ok := ctx.Get(ContextRoleKey)
		if !ok || role != models.RoleAdmin {
			utils.Error(ctx, http.StatusForbidden, 40301, "admin access required")
			ctx.Abort()
			return
		}
		ctx.Next()
	}
}

func abortUnauthorized(ctx *gin.Context, code int, message string) {
	utils.Error(ctx, http.StatusUnauthorized, code, message)
	ctx.Abort()
}
