package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fatflowers/examportal/internal/models"
)

const testSecret = "test-secret"

func token(t *testing.T, userID string, role models.UserRole, secret string) string {
	t.Helper()
	claims := Claims{
		UserID:         userID,
		Role:           role,
		Name:           "name-" + userID,
		StandardClaims: jwt.StandardClaims{ExpiresAt: time.Now().Add(time.Hour).Unix()},
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return "Bearer " + s
}

type stubChecker struct {
	owned map[string]bool
	err   error
}

func (s *stubChecker) HasAccess(_ context.Context, userID, subjectID string) (bool, error) {
	return s.owned[userID+"/"+subjectID], s.err
}

func newRouter(checker AccessChecker) *gin.Engine {
	gin.SetMode(gin.TestMode)
	log := zap.NewNop().Sugar()
	r := gin.New()
	r.Use(TraceMiddleware(), RequestLoggerMiddleware(log))
	authed := r.Group("/", Auth(testSecret, log))
	authed.GET("/me", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": CurrentUserID(c), "name": CurrentUserName(c)})
	})
	authed.GET("/admin", AdminOnly(), func(c *gin.Context) { c.Status(http.StatusNoContent) })
	authed.GET("/subjects/:subject_id/access", RequirePurchase(checker, log), func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func do(r http.Handler, path, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuth(t *testing.T) {
	r := newRouter(&stubChecker{})

	w := do(r, "/me", token(t, "u1", models.UserRoleStudent, testSecret))
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"user_id":"u1","name":"name-u1"}`, w.Body.String())
	require.NotEmpty(t, w.Header().Get("X-Request-ID"))

	require.Equal(t, http.StatusUnauthorized, do(r, "/me", "").Code)
	require.Equal(t, http.StatusUnauthorized, do(r, "/me", token(t, "u1", models.UserRoleStudent, "other-secret")).Code)
	require.Equal(t, http.StatusUnauthorized, do(r, "/me", "Basic abc").Code)
}

func TestAdminOnly(t *testing.T) {
	r := newRouter(&stubChecker{})
	require.Equal(t, http.StatusForbidden, do(r, "/admin", token(t, "u1", models.UserRoleStudent, testSecret)).Code)
	require.Equal(t, http.StatusNoContent, do(r, "/admin", token(t, "root", models.UserRoleAdmin, testSecret)).Code)
}

func TestRequirePurchase(t *testing.T) {
	r := newRouter(&stubChecker{owned: map[string]bool{"u1/math": true}})

	require.Equal(t, http.StatusOK, do(r, "/subjects/math/access", token(t, "u1", models.UserRoleStudent, testSecret)).Code)

	w := do(r, "/subjects/physics/access", token(t, "u1", models.UserRoleStudent, testSecret))
	require.Equal(t, http.StatusForbidden, w.Code)
	var body lockedBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.True(t, body.Locked)

	require.Equal(t, http.StatusOK, do(r, "/subjects/physics/access", token(t, "root", models.UserRoleAdmin, testSecret)).Code)
}

func TestRequirePurchase_CheckerError(t *testing.T) {
	r := newRouter(&stubChecker{err: errors.New("db down")})
	require.Equal(t, http.StatusInternalServerError, do(r, "/subjects/math/access", token(t, "u1", models.UserRoleStudent, testSecret)).Code)
}
