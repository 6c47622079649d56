package telemetry

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestSanitizeLabels(t *testing.T) {
	pairs := sanitizeLabels(map[string]string{
		"Operation":  OperationIssue,
		"tenant-id":  "t1",
		"request_id": "dropped",
		"empty":      "",
		"!!!":        "no key",
		"route":      strings.Repeat("x", MaxLabelValueLength+10),
	})

	require.Len(t, pairs, 6)
	assert.Equal(t, []string{"operation", OperationIssue}, pairs[0:2])
	assert.Equal(t, "route", pairs[2])
	assert.Len(t, pairs[3], MaxLabelValueLength)
	assert.Equal(t, []string{"tenant_id", "t1"}, pairs[4:6])
}

func TestOperationLabels(t *testing.T) {
	labels := OperationLabels(OperationReverse, map[string]string{ProfilingLabelTenantID: "t1"})
	assert.Equal(t, map[string]string{
		ProfilingLabelOperation: OperationReverse,
		ProfilingLabelTenantID:  "t1",
	}, labels)
}

func TestWithProfilingLabels_RunsFunction(t *testing.T) {
	ran := 0
	WithProfilingLabels(context.Background(), OperationLabels(OperationReceive, nil), func(context.Context) { ran++ })
	WithProfilingLabels(context.Background(), nil, func(context.Context) { ran++ })
	assert.Equal(t, 2, ran)
}

func TestNewProfiler(t *testing.T) {
	logger := zaptest.NewLogger(t)

	p, err := NewProfiler(ProfilerConfig{Enabled: false}, logger)
	require.NoError(t, err)
	assert.False(t, p.IsEnabled())
	assert.NoError(t, p.Stop())
	assert.NoError(t, p.Stop())

	missing, err := NewProfiler(ProfilerConfig{Enabled: true}, logger)
	assert.Error(t, err)
	assert.False(t, missing.IsEnabled())
	assert.NoError(t, missing.Stop())
}

func TestProfileTypes(t *testing.T) {
	assert.Len(t, profileTypes(ProfilerConfig{}), 2)
	assert.Len(t, profileTypes(ProfilerConfig{ProfileAlloc: true, ProfileGoroutines: true}), 5)
}
