package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fatflowers/examportal/internal/app/api/middleware"
	"github.com/fatflowers/examportal/internal/app/service/reconciler"
	"github.com/fatflowers/examportal/internal/models"
	"github.com/fatflowers/examportal/pkg/response"
)

type MyPurchasesResponse struct {
	PurchasedSubjects []string           `json:"purchasedSubjects"`
	Purchases         []*models.Purchase `json:"purchases"`
}

type SubjectAccessResponse struct {
	SubjectID string `json:"subjectId"`
	Unlocked  bool   `json:"unlocked"`
}

// @Summary      My purchases
// @Description  Unlocked subjects and the purchase log of the caller.
// @Tags         User
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  handlers.RespMyPurchases
// @Router       /api/users/me/purchases [get]
func ApiMyPurchases(rec reconciler.Reconciler, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		userID := middleware.CurrentUserID(c)
		subjects, err := rec.PurchasedSubjects(ctx, userID)
		if err != nil {
			writeError(c, log, err, "Failed to load purchases")
			return
		}
		purchases, err := rec.ListPurchases(ctx, userID)
		if err != nil {
			writeError(c, log, err, "Failed to load purchases")
			return
		}
		if subjects == nil {
			subjects = []string{}
		}
		c.JSON(http.StatusOK, response.OKT(&MyPurchasesResponse{PurchasedSubjects: subjects, Purchases: purchases}))
	}
}

// @Summary      Subject access check
// @Description  200 when the caller may open the subject's gated content, 403 {locked:true} otherwise.
// @Tags         User
// @Produce      json
// @Security     BearerAuth
// @Param        subject_id path string true "Subject id"
// @Success      200  {object}  handlers.RespSubjectAccess
// @Failure      403  {object}  response.ErrorBody
// @Router       /api/subjects/{subject_id}/access [get]
func ApiSubjectAccess(c *gin.Context) {
	c.JSON(http.StatusOK, response.OKT(&SubjectAccessResponse{SubjectID: c.Param("subject_id"), Unlocked: true}))
}

// RegisterUserRoutes expects r to be guarded by Auth.
func RegisterUserRoutes(r gin.IRouter, rec reconciler.Reconciler, log *zap.SugaredLogger) {
	r.GET("/users/me/purchases", ApiMyPurchases(rec, log))
	r.GET("/subjects/:subject_id/access", middleware.RequirePurchase(rec, log), ApiSubjectAccess)
}
