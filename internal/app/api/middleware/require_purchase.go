package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fatflowers/examportal/pkg/logctx"
	"github.com/fatflowers/examportal/pkg/response"
)

const lockedMessage = "This content is locked. Please purchase the course to access."

type AccessChecker interface {
	HasAccess(ctx context.Context, userID, subjectID string) (bool, error)
}

type lockedBody struct {
	Locked  bool   `json:"locked"`
	Message string `json:"message"`
}

// RequirePurchase lets the request through only if the caller has unlocked
// the subject named by the :subject_id path parameter or subjectId query.
// Admins always pass. Must run after Auth.
func RequirePurchase(checker AccessChecker, base *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := CurrentUserID(c)
		if userID == "" {
			response.Abort(c, http.StatusUnauthorized, "Unauthorized")
			return
		}
		if IsAdmin(c) {
			c.Next()
			return
		}

		subjectID := c.Param("subject_id")
		if subjectID == "" {
			subjectID = c.Query("subjectId")
		}
		if subjectID == "" {
			response.Abort(c, http.StatusBadRequest, "Subject not found in request")
			return
		}

		ok, err := checker.HasAccess(c.Request.Context(), userID, subjectID)
		if err != nil {
			logctx.FromGin(c, base).Errorw("access check failed", "subject_id", subjectID, "err", err)
			response.Abort(c, http.StatusInternalServerError, "Server error")
			return
		}
		if !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, lockedBody{Locked: true, Message: lockedMessage})
			return
		}
		c.Next()
	}
}
