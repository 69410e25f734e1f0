package gormlog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm"
)

func TestShortCaller(t *testing.T) {
	require.Equal(t, "internal/app/service/ledger/ledger.go:88", ShortCaller("/home/ci/examportal/internal/app/service/ledger/ledger.go:88"))
	require.Equal(t, "a/b/c.go:1", ShortCaller("/opt/a/b/c.go:1"))
	require.Equal(t, "", ShortCaller(""))
}

func TestTrace_SkipsRecordNotFound(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := New(zap.New(core).Sugar())

	l.Trace(context.Background(), time.Now(), func() (string, int64) { return "SELECT 1", 0 }, gorm.ErrRecordNotFound)
	require.Equal(t, 0, logs.Len())

	l.Trace(context.Background(), time.Now(), func() (string, int64) { return "SELECT 1", 0 }, errors.New("boom"))
	require.Equal(t, 1, logs.FilterMessage("gorm_error").Len())
}
