package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fatflowers/examportal/internal/app/service/catalog"
	"github.com/fatflowers/examportal/internal/app/service/ledger"
	"github.com/fatflowers/examportal/internal/app/service/payment"
	"github.com/fatflowers/examportal/pkg/logctx"
	"github.com/fatflowers/examportal/pkg/response"
)

func statusFor(err error) int {
	switch {
	case errors.Is(err, catalog.ErrSubjectNotFound),
		errors.Is(err, catalog.ErrUserNotFound),
		errors.Is(err, ledger.ErrTransactionNotFound):
		return http.StatusNotFound
	case errors.Is(err, payment.ErrInvalidPrice),
		errors.Is(err, payment.ErrAlreadyPurchased),
		errors.Is(err, payment.ErrInvalidCallback),
		errors.Is(err, payment.ErrInvalidSignature),
		errors.Is(err, ledger.ErrInvalidScanRequest):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// writeError maps err to a status. Server-side failures are logged and
// answered with fallback instead of the internal error text.
func writeError(c *gin.Context, log *zap.SugaredLogger, err error, fallback string) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logctx.FromGin(c, log).Errorw("request failed", "path", c.FullPath(), "err", err)
		c.JSON(status, response.Error(fallback))
		return
	}
	c.JSON(status, response.Error(err.Error()))
}
