// Package integration runs the transfer workflow against a real PostgreSQL
// database started with testcontainers.
package integration

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/erp/stocktransfer/internal/infrastructure/migration"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap/zaptest"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// TestDB is a migrated database in its own container
type TestDB struct {
	DB        *gorm.DB
	SqlDB     *sql.DB
	Container testcontainers.Container
	DSN       string
	t         *testing.T
}

// NewTestDB starts a PostgreSQL container and applies the embedded migrations
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("stocktransfer_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("admin123"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "Failed to start PostgreSQL container")

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err, "Failed to get connection string")

	db, sqlDB := connectToDatabase(t, dsn)

	m, err := migration.New(sqlDB, zaptest.NewLogger(t))
	require.NoError(t, err, "Failed to create migrator")
	require.NoError(t, m.Up(), "Failed to run migrations")

	testDB := &TestDB{DB: db, SqlDB: sqlDB, Container: container, DSN: dsn, t: t}
	t.Cleanup(testDB.Close)
	return testDB
}

// Close closes the connection and terminates the container
func (tdb *TestDB) Close() {
	if tdb.SqlDB != nil {
		_ = tdb.SqlDB.Close()
	}
	if tdb.Container != nil {
		if err := tdb.Container.Terminate(context.Background()); err != nil {
			tdb.t.Logf("Warning: Failed to terminate container: %v", err)
		}
	}
}

func connectToDatabase(t *testing.T, dsn string) (*gorm.DB, *sql.DB) {
	t.Helper()

	gormConfig := &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
		TranslateError:         true,
	}
	if os.Getenv("TEST_DB_DEBUG") != "" {
		gormConfig.Logger = logger.Default.LogMode(logger.Info)
	}

	db, err := gorm.Open(gormpostgres.Open(dsn), gormConfig)
	require.NoError(t, err, "Failed to connect to database")

	sqlDB, err := db.DB()
	require.NoError(t, err, "Failed to get underlying SQL DB")
	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)
	return db, sqlDB
}

// CreateOpenPeriod inserts an accounting period covering today
func (tdb *TestDB) CreateOpenPeriod(tenantID uuid.UUID) {
	tdb.t.Helper()
	err := tdb.DB.Exec(`
		INSERT INTO accounting_periods (id, tenant_id, name, start_date, end_date, is_open)
		VALUES (?, ?, 'current', CURRENT_DATE - 30, CURRENT_DATE + 30, TRUE)
	`, uuid.New(), tenantID).Error
	require.NoError(tdb.t, err, "Failed to create accounting period")
}

// CreateTestProduct inserts an active product
func (tdb *TestDB) CreateTestProduct(tenantID, productID uuid.UUID) {
	tdb.t.Helper()
	code := fmt.Sprintf("PROD_%s", productID.String()[:8])
	err := tdb.DB.Exec(`
		INSERT INTO products (id, tenant_id, code, name, status, version)
		VALUES (?, ?, ?, ?, 'active', 1)
	`, productID, tenantID, code, "Test "+code).Error
	require.NoError(tdb.t, err, "Failed to create test product")
}

// SetTenantCurrency stores the tenant's default currency
func (tdb *TestDB) SetTenantCurrency(tenantID uuid.UUID, currency string) {
	tdb.t.Helper()
	err := tdb.DB.Exec(`
		INSERT INTO tenant_settings (tenant_id, default_currency) VALUES (?, ?)
	`, tenantID, currency).Error
	require.NoError(tdb.t, err, "Failed to set tenant currency")
}
