package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/fatflowers/examportal/internal/app/api/middleware"
	"github.com/fatflowers/examportal/internal/app/service/ledger"
	"github.com/fatflowers/examportal/internal/app/service/reconciler"
	"github.com/fatflowers/examportal/pkg/response"
	"github.com/fatflowers/examportal/pkg/types"
)

type CourseAssignmentRequest struct {
	UserID    string `json:"userId" binding:"required"`
	SubjectID string `json:"subjectId" binding:"required"`
}

type ListTransactionRequest struct {
	Filters   []*types.CommonFilter `json:"filters"`
	From      int                   `json:"from"`
	Size      int                   `json:"size"`
	SortBy    string                `json:"sort_by"`
	SortOrder string                `json:"sort_order"`
}

type ListTransactionsResponse struct {
	Items []*TransactionItem `json:"items"`
	Total int64              `json:"total"`
}

// @Summary      Assign course (Admin)
// @Description  Unlocks a subject for a user without payment; recorded as a zero-amount transaction.
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body handlers.CourseAssignmentRequest true "User and subject"
// @Success      200  {object}  handlers.RespTransaction
// @Failure      404  {object}  response.ErrorBody
// @Router       /api/admin/assign-course [post]
func ApiAssignCourse(rec reconciler.Reconciler, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CourseAssignmentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, response.Error("userId and subjectId are required"))
			return
		}
		approver := lo.CoalesceOrEmpty(middleware.CurrentUserName(c), middleware.CurrentUserID(c))
		txn, err := rec.GrantManually(c.Request.Context(), req.UserID, req.SubjectID, approver)
		if errors.Is(err, reconciler.ErrAlreadyOwned) {
			c.JSON(http.StatusOK, &response.APIResponse[any]{Success: true, Message: "User already has this course"})
			return
		}
		if err != nil {
			writeError(c, log, err, "Failed to assign course")
			return
		}
		c.JSON(http.StatusOK, &response.APIResponse[*TransactionItem]{
			Success: true,
			Message: "Course assigned",
			Data:    toTransactionItem(txn, 0),
		})
	}
}

// @Summary      Remove course (Admin)
// @Description  Locks a subject again. Purchase history is kept.
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body handlers.CourseAssignmentRequest true "User and subject"
// @Success      200  {object}  handlers.RespOK
// @Router       /api/admin/remove-course [post]
func ApiRemoveCourse(rec reconciler.Reconciler, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CourseAssignmentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, response.Error("userId and subjectId are required"))
			return
		}
		removed, err := rec.RevokeAccess(c.Request.Context(), req.UserID, req.SubjectID)
		if err != nil {
			writeError(c, log, err, "Failed to remove course")
			return
		}
		msg := "Course removed"
		if !removed {
			msg = "User did not have this course"
		}
		c.JSON(http.StatusOK, &response.APIResponse[any]{Success: true, Message: msg})
	}
}

// @Summary      List transactions (Admin)
// @Description  Paginated, filterable list of all payment transactions.
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body handlers.ListTransactionRequest true "Filters, pagination and sorting"
// @Success      200  {object}  handlers.RespListTransactions
// @Failure      400  {object}  response.ErrorBody
// @Router       /api/admin/transactions [post]
func ApiListTransactions(l ledger.Ledger, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ListTransactionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, response.Error(err.Error()))
			return
		}
		res, err := l.ScanTransactions(c.Request.Context(), &ledger.ScanTransactionsRequest{
			Filters:   req.Filters,
			From:      req.From,
			Size:      req.Size,
			SortBy:    req.SortBy,
			SortOrder: req.SortOrder,
		})
		if err != nil {
			writeError(c, log, err, "Failed to list transactions")
			return
		}
		c.JSON(http.StatusOK, response.OKT(&ListTransactionsResponse{
			Items: lo.Map(res.Items, toTransactionItem),
			Total: res.Total,
		}))
	}
}

// RegisterAdminRoutes expects r to be guarded by Auth and AdminOnly.
func RegisterAdminRoutes(r gin.IRouter, rec reconciler.Reconciler, l ledger.Ledger, log *zap.SugaredLogger) {
	r.POST("/assign-course", ApiAssignCourse(rec, log))
	r.POST("/remove-course", ApiRemoveCourse(rec, log))
	r.POST("/transactions", ApiListTransactions(l, log))
}
