package telemetry

import (
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const queryStartKey = "telemetry:query_start"

// DBTracingConfig controls the GORM tracing plugin
type DBTracingConfig struct {
	Enabled         bool
	LogFullSQL      bool
	SlowQueryThresh time.Duration
	DBName          string
}

// DBTracingPlugin registers otelgorm plus a slow query marker
type DBTracingPlugin struct {
	config DBTracingConfig
	logger *zap.Logger
}

// NewDBTracingPlugin creates the plugin
func NewDBTracingPlugin(cfg DBTracingConfig, logger *zap.Logger) *DBTracingPlugin {
	if cfg.SlowQueryThresh <= 0 {
		cfg.SlowQueryThresh = 200 * time.Millisecond
	}
	return &DBTracingPlugin{config: cfg, logger: logger}
}

// Register installs the plugin on db when enabled
func (p *DBTracingPlugin) Register(db *gorm.DB) error {
	if !p.config.Enabled {
		return nil
	}

	opts := []otelgorm.Option{otelgorm.WithDBName(p.config.DBName)}
	if !p.config.LogFullSQL {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return err
	}

	cb := db.Callback()
	registrations := []struct {
		before, after func(string) error
	}{
		{
			func(n string) error { return cb.Create().Before("gorm:create").Register(n, p.markStart) },
			func(n string) error { return cb.Create().After("gorm:create").Register(n, p.markSlow) },
		},
		{
			func(n string) error { return cb.Query().Before("gorm:query").Register(n, p.markStart) },
			func(n string) error { return cb.Query().After("gorm:query").Register(n, p.markSlow) },
		},
		{
			func(n string) error { return cb.Update().Before("gorm:update").Register(n, p.markStart) },
			func(n string) error { return cb.Update().After("gorm:update").Register(n, p.markSlow) },
		},
		{
			func(n string) error { return cb.Delete().Before("gorm:delete").Register(n, p.markStart) },
			func(n string) error { return cb.Delete().After("gorm:delete").Register(n, p.markSlow) },
		},
	}
	for _, r := range registrations {
		if err := r.before("telemetry:before"); err != nil {
			return err
		}
		if err := r.after("telemetry:slow_query"); err != nil {
			return err
		}
	}

	p.logger.Info("Database tracing enabled",
		zap.Bool("log_full_sql", p.config.LogFullSQL),
		zap.Duration("slow_query_threshold", p.config.SlowQueryThresh))
	return nil
}

func (p *DBTracingPlugin) markStart(db *gorm.DB) {
	db.InstanceSet(queryStartKey, time.Now())
}

func (p *DBTracingPlugin) markSlow(db *gorm.DB) {
	v, ok := db.InstanceGet(queryStartKey)
	if !ok {
		return
	}
	start, ok := v.(time.Time)
	if !ok {
		return
	}
	elapsed := time.Since(start)
	if elapsed < p.config.SlowQueryThresh {
		return
	}

	span := trace.SpanFromContext(db.Statement.Context)
	span.SetAttributes(
		attribute.Bool("db.slow_query", true),
		attribute.Int64("db.duration_ms", elapsed.Milliseconds()),
	)
	p.logger.Warn("Slow query",
		zap.String("table", db.Statement.Table),
		zap.Duration("elapsed", elapsed),
		zap.String("trace_id", GetTraceID(db.Statement.Context)))
}
