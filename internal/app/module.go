package app

import (
	"time"

	"go.uber.org/fx"

	"github.com/fatflowers/examportal/internal/app/api/server"
	"github.com/fatflowers/examportal/internal/app/service/catalog"
	"github.com/fatflowers/examportal/internal/app/service/ledger"
	notificationlog "github.com/fatflowers/examportal/internal/app/service/notification_log"
	"github.com/fatflowers/examportal/internal/app/service/payment"
	"github.com/fatflowers/examportal/internal/app/service/reconciler"
	"github.com/fatflowers/examportal/internal/platform/db"
	"github.com/fatflowers/examportal/internal/platform/phonepe"
	"github.com/fatflowers/examportal/pkg/config"
	"github.com/fatflowers/examportal/pkg/logger"
)

const (
	DefaultStartTimeout = 15 * time.Second
	DefaultStopTimeout  = 10 * time.Second
)

var Module = fx.Options(
	logger.Module,
	config.Module,
	db.Module,
	phonepe.Module,
	catalog.Module,
	ledger.Module,
	reconciler.Module,
	notificationlog.Module,
	payment.Module,
	server.Module,
)
