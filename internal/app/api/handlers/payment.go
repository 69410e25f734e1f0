package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/fatflowers/examportal/internal/app/api/middleware"
	"github.com/fatflowers/examportal/internal/app/service/ledger"
	"github.com/fatflowers/examportal/internal/app/service/payment"
	"github.com/fatflowers/examportal/internal/models"
	"github.com/fatflowers/examportal/internal/platform/phonepe"
	"github.com/fatflowers/examportal/pkg/response"
)

const headerVerify = "X-VERIFY"

type InitiatePaymentRequest struct {
	SubjectID string `json:"subjectId" binding:"required"`
}

type PaymentCallbackRequest struct {
	Response string `json:"response"`
}

type VerifyPaymentRequest struct {
	TransactionID string `json:"transactionId" binding:"required"`
}

// VerifyPaymentResponse carries the raw gateway answer in data.
type VerifyPaymentResponse struct {
	Success     bool                     `json:"success"`
	Status      models.TransactionStatus `json:"status"`
	Message     string                   `json:"message"`
	NeedsReview bool                     `json:"needsReview,omitempty"`
	Transaction *TransactionItem         `json:"transaction,omitempty"`
	Data        json.RawMessage          `json:"data" swaggertype:"object"`
}

// PaymentNotConfirmed is returned when the gateway could not be reached.
type PaymentNotConfirmed struct {
	Message string                   `json:"message"`
	Status  models.TransactionStatus `json:"status,omitempty"`
}

// @Summary      Initiate payment
// @Description  Creates a transaction for the subject and returns the gateway pay page.
// @Tags         Payment
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body handlers.InitiatePaymentRequest true "Subject to buy"
// @Success      200  {object}  payment.InitiateResult
// @Failure      400  {object}  response.ErrorBody
// @Failure      404  {object}  response.ErrorBody
// @Failure      500  {object}  response.ErrorBody
// @Router       /api/payment/initiate [post]
func ApiInitiatePayment(mgr payment.Manager, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req InitiatePaymentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, response.Error("subjectId is required"))
			return
		}
		res, err := mgr.Initiate(c.Request.Context(), middleware.CurrentUserID(c), req.SubjectID)
		if err != nil {
			writeError(c, log, err, "Payment initiation failed")
			return
		}
		c.JSON(http.StatusOK, res)
	}
}

// @Summary      Gateway callback
// @Description  Server-to-server notification from the payment gateway, signed with X-VERIFY.
// @Tags         Payment
// @Accept       json
// @Produce      json
// @Param        X-VERIFY header string true "Checksum"
// @Param        request body handlers.PaymentCallbackRequest true "Base64 payload"
// @Success      200  {object}  handlers.RespOK
// @Failure      400  {object}  response.ErrorBody
// @Failure      404  {object}  response.ErrorBody
// @Failure      500  {object}  response.ErrorBody
// @Router       /api/payment/callback [post]
func ApiPaymentCallback(mgr payment.Manager, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req PaymentCallbackRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, response.Error(payment.ErrInvalidCallback.Error()))
			return
		}
		if _, err := mgr.HandleCallback(c.Request.Context(), req.Response, c.GetHeader(headerVerify)); err != nil {
			writeError(c, log, err, "Callback processing failed")
			return
		}
		c.JSON(http.StatusOK, response.OKT[any](nil))
	}
}

// @Summary      Verify payment
// @Description  Polls the gateway for the caller's transaction and unlocks the subject on success.
// @Tags         Payment
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body handlers.VerifyPaymentRequest true "Merchant or system transaction id"
// @Success      200  {object}  handlers.VerifyPaymentResponse
// @Failure      404  {object}  response.ErrorBody
// @Failure      503  {object}  handlers.PaymentNotConfirmed
// @Router       /api/payment/verify [post]
func ApiVerifyPayment(mgr payment.Manager, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req VerifyPaymentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, response.Error("transactionId is required"))
			return
		}
		res, err := mgr.Verify(c.Request.Context(), middleware.CurrentUserID(c), req.TransactionID)
		if errors.Is(err, phonepe.ErrGatewayUnavailable) {
			out := PaymentNotConfirmed{Message: "payment not yet confirmed"}
			if res != nil {
				out.Status = res.Status
			}
			c.JSON(http.StatusServiceUnavailable, out)
			return
		}
		if err != nil {
			writeError(c, log, err, "Payment verification failed")
			return
		}
		out := VerifyPaymentResponse{
			Success:     true,
			Status:      res.Status,
			Message:     verifyMessage(res),
			NeedsReview: res.NeedsReview,
			Data:        res.Gateway,
		}
		if res.Transaction != nil {
			out.Transaction = toTransactionItem(res.Transaction, 0)
		}
		c.JSON(http.StatusOK, out)
	}
}

func verifyMessage(res *payment.VerifyResult) string {
	switch {
	case res.NeedsReview:
		return "Payment is under review"
	case res.Status == models.TransactionStatusSuccess:
		return "Payment successful"
	case res.Status == models.TransactionStatusPending:
		return "Payment pending"
	case res.Status == models.TransactionStatusFailed:
		return "Payment failed"
	default:
		return "Payment not yet confirmed"
	}
}

// TransactionItem is the public view of a transaction.
type TransactionItem struct {
	ID                    string                   `json:"id"`
	MerchantTransactionID string                   `json:"merchantTransactionId"`
	UserID                string                   `json:"userId"`
	SubjectID             string                   `json:"subjectId"`
	Amount                int64                    `json:"amount"`
	Status                models.TransactionStatus `json:"status"`
	NeedsReview           bool                     `json:"needsReview"`
	ApprovedBy            string                   `json:"approvedBy,omitempty"`
	CreatedAt             time.Time                `json:"createdAt"`
	UpdatedAt             time.Time                `json:"updatedAt"`
}

func toTransactionItem(m *models.Transaction, _ int) *TransactionItem {
	return &TransactionItem{
		ID:                    m.ID,
		MerchantTransactionID: m.MerchantTransactionID,
		UserID:                m.UserID,
		SubjectID:             m.SubjectID,
		Amount:                m.Amount,
		Status:                m.Status,
		NeedsReview:           m.NeedsReview,
		ApprovedBy:            m.ApprovedBy(),
		CreatedAt:             m.CreatedAt,
		UpdatedAt:             m.UpdatedAt,
	}
}

// @Summary      List my transactions
// @Tags         Payment
// @Produce      json
// @Security     BearerAuth
// @Param        from query int false "Offset"
// @Param        size query int false "Page size"
// @Success      200  {object}  handlers.RespUserTransactions
// @Router       /api/payment/transactions [get]
func ApiListMyTransactions(l ledger.Ledger, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		from, _ := strconv.Atoi(c.DefaultQuery("from", "0"))
		size, err := strconv.Atoi(c.DefaultQuery("size", "20"))
		if err != nil || size <= 0 {
			c.JSON(http.StatusBadRequest, response.Error("invalid size"))
			return
		}
		rows, err := l.ListUserTransactions(c.Request.Context(), middleware.CurrentUserID(c), from, size)
		if err != nil {
			writeError(c, log, err, "Failed to list transactions")
			return
		}
		c.JSON(http.StatusOK, response.OKT(lo.Map(rows, toTransactionItem)))
	}
}

// RegisterPaymentRoutes mounts the payment API; auth guards everything but the gateway callback.
func RegisterPaymentRoutes(r gin.IRouter, mgr payment.Manager, l ledger.Ledger, auth gin.HandlerFunc, log *zap.SugaredLogger) {
	r.POST("/callback", ApiPaymentCallback(mgr, log))
	r.POST("/initiate", auth, ApiInitiatePayment(mgr, log))
	r.POST("/verify", auth, ApiVerifyPayment(mgr, log))
	r.GET("/transactions", auth, ApiListMyTransactions(l, log))
}
