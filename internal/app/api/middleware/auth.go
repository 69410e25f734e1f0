package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt"
	"go.uber.org/zap"

	"github.com/fatflowers/examportal/internal/models"
	"github.com/fatflowers/examportal/pkg/logctx"
	"github.com/fatflowers/examportal/pkg/response"
)

// Claims carried by bearer tokens issued by the auth service.
type Claims struct {
	UserID string          `json:"user_id"`
	Role   models.UserRole `json:"role"`
	Name   string          `json:"name"`
	jwt.StandardClaims
}

var errMissingToken = errors.New("missing bearer token")

func parseToken(secret []byte, header string) (*Claims, error) {
	raw, ok := strings.CutPrefix(header, "Bearer ")
	raw = strings.TrimSpace(raw)
	if !ok || raw == "" {
		return nil, errMissingToken
	}
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return nil, err
	}
	if claims.UserID == "" {
		return nil, errors.New("token has no user_id")
	}
	return claims, nil
}

// Auth verifies the HS256 bearer token and exposes the caller to handlers.
func Auth(secret string, base *zap.SugaredLogger) gin.HandlerFunc {
	key := []byte(secret)
	return func(c *gin.Context) {
		claims, err := parseToken(key, c.GetHeader("Authorization"))
		if err != nil {
			logctx.FromGin(c, base).Debugw("rejected bearer token", "err", err)
			response.Abort(c, http.StatusUnauthorized, "Unauthorized")
			return
		}

		c.Set(logctx.GinUserIDKey, claims.UserID)
		c.Set(logctx.GinRoleKey, string(claims.Role))
		c.Set(logctx.GinUserName, claims.Name)

		ctx := logctx.WithUserID(c.Request.Context(), claims.UserID)
		c.Request = c.Request.WithContext(ctx)
		if l, ok := c.Get(logctx.GinLoggerKey); ok {
			if lg, ok := l.(*zap.SugaredLogger); ok && lg != nil {
				setLogger(c, lg.With("user_id", claims.UserID))
			}
		}
		c.Next()
	}
}

// AdminOnly must run after Auth.
func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !IsAdmin(c) {
			response.Abort(c, http.StatusForbidden, "Admin access required")
			return
		}
		c.Next()
	}
}

func CurrentUserID(c *gin.Context) string { return c.GetString(logctx.GinUserIDKey) }

func CurrentUserName(c *gin.Context) string { return c.GetString(logctx.GinUserName) }

func IsAdmin(c *gin.Context) bool {
	return c.GetString(logctx.GinRoleKey) == string(models.UserRoleAdmin)
}
