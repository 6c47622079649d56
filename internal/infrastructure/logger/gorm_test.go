package logger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	gormlogger "gorm.io/gorm/logger"
)

func newObservedGorm(level gormlogger.LogLevel, opts ...GormLoggerOption) (*GormLogger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return NewGormLogger(zap.New(core), level, opts...), logs
}

func query(sql string, rows int64) func() (string, int64) {
	return func() (string, int64) { return sql, rows }
}

func TestGormLogger_LogModeCopies(t *testing.T) {
	gl, _ := newObservedGorm(gormlogger.Info)
	other, ok := gl.LogMode(gormlogger.Warn).(*GormLogger)
	require.True(t, ok)

	assert.Equal(t, gormlogger.Info, gl.logLevel)
	assert.Equal(t, gormlogger.Warn, other.logLevel)
}

func TestGormLogger_TraceQueryWithContext(t *testing.T) {
	gl, logs := newObservedGorm(gormlogger.Info)
	ctx := WithTenantID(WithRequestID(context.Background(), "req-9"), "tenant-9")

	gl.Trace(ctx, time.Now(), query("SELECT 1", 1), nil)

	entries := logs.FilterMessage("SQL Query").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "SELECT 1", fields["sql"])
	assert.Equal(t, "req-9", fields["request_id"])
	assert.Equal(t, "tenant-9", fields["tenant_id"])
}

func TestGormLogger_TraceWithoutSQL(t *testing.T) {
	gl, logs := newObservedGorm(gormlogger.Info, WithSQL(false))

	gl.Trace(context.Background(), time.Now(), query("SELECT secret", 1), nil)

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.NotContains(t, entries[0].ContextMap(), "sql")
}

func TestGormLogger_TraceError(t *testing.T) {
	gl, logs := newObservedGorm(gormlogger.Error)

	gl.Trace(context.Background(), time.Now(), query("UPDATE x", 0), errors.New("deadlock"))
	gl.Trace(context.Background(), time.Now(), query("SELECT x", 0), gormlogger.ErrRecordNotFound)

	assert.Equal(t, 1, logs.FilterMessage("SQL Error").Len())
}

func TestGormLogger_TraceSlow(t *testing.T) {
	gl, logs := newObservedGorm(gormlogger.Warn, WithSlowThreshold(10*time.Millisecond))

	gl.Trace(context.Background(), time.Now().Add(-50*time.Millisecond), query("SELECT slow", 1), nil)
	gl.Trace(context.Background(), time.Now(), query("SELECT fast", 1), nil)

	assert.Equal(t, 1, logs.FilterMessage("Slow SQL").Len())
	assert.Equal(t, 1, logs.Len())
}

func TestGormLogger_Silent(t *testing.T) {
	gl, logs := newObservedGorm(gormlogger.Silent)

	gl.Trace(context.Background(), time.Now(), query("SELECT 1", 1), errors.New("ignored"))
	gl.Info(context.Background(), "hidden %d", 1)

	assert.Zero(t, logs.Len())
}

func TestMapGormLogLevel(t *testing.T) {
	assert.Equal(t, gormlogger.Silent, MapGormLogLevel("silent"))
	assert.Equal(t, gormlogger.Error, MapGormLogLevel("error"))
	assert.Equal(t, gormlogger.Info, MapGormLogLevel("debug"))
	assert.Equal(t, gormlogger.Warn, MapGormLogLevel("unknown"))
}

func TestGormLogger_FlagsRowLocks(t *testing.T) {
	gl, logs := newObservedGorm(gormlogger.Info, WithSQL(false))

	gl.Trace(context.Background(), time.Now(), query(`SELECT * FROM "inventory_balances" WHERE id = $1 FOR UPDATE`, 1), nil)
	gl.Trace(context.Background(), time.Now(), query(`SELECT * FROM "transfer_requests"`, 3), nil)

	entries := logs.FilterMessage("SQL Query").All()
	require.Len(t, entries, 2)
	assert.Equal(t, true, entries[0].ContextMap()["row_lock"])
	assert.NotContains(t, entries[1].ContextMap(), "row_lock")
}
