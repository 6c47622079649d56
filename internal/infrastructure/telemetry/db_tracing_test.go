package telemetry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestDBTracingPlugin_Register(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	disabled := NewDBTracingPlugin(DBTracingConfig{Enabled: false}, zaptest.NewLogger(t))
	require.NoError(t, disabled.Register(db))

	plugin := NewDBTracingPlugin(DBTracingConfig{Enabled: true, DBName: "stocktransfer"}, zaptest.NewLogger(t))
	assert.Equal(t, 200*time.Millisecond, plugin.config.SlowQueryThresh)
	require.NoError(t, plugin.Register(db))

	var n int
	require.NoError(t, db.Raw("SELECT 1").Scan(&n).Error)
	assert.Equal(t, 1, n)
}
