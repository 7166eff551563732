package splitlog

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupGormWithLogger(t *testing.T, router *Router, cfg GormConfig) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: NewGormLogger(router, cfg),
	})
	if err != nil {
		t.Fatalf("Failed to connect to database: %v", err)
	}
	require.NoError(t, db.AutoMigrate(&TestUser{}))
	return db
}

func TestGormLoggerTrace(t *testing.T) {
	t.Run("Writes statements to the SQL log", func(t *testing.T) {
		router, dir := newTestRouter(t, nil)
		db := setupGormWithLogger(t, router, GormConfig{Level: "info"})

		require.NoError(t, db.Create(&TestUser{Name: "jules"}).Error)

		sql := readLines(t, filepath.Join(dir, "sql.log"))
		require.NotEmpty(t, sql)
		assert.Contains(t, sql[len(sql)-1], "[ SQL ] INSERT INTO `test_users`")
		assert.Contains(t, sql[len(sql)-1], "[ RunTime:")
	})

	t.Run("Logs slow query when enabled", func(t *testing.T) {
		router, dir := newTestRouter(t, nil)
		gormLogger := NewGormLogger(router, GormConfig{SlowQueryThresholdMs: 1, Level: "warn"})

		begin := time.Now().Add(-10 * time.Millisecond)
		gormLogger.Trace(context.Background(), begin, func() (string, int64) {
			return "SELECT 1", 1
		}, nil)

		sql := readLines(t, filepath.Join(dir, "sql.log"))
		require.Len(t, sql, 1)
		assert.Contains(t, sql[0], "[ SQL ] SELECT 1")
		app := readLines(t, filepath.Join(dir, "app.log"))
		require.Len(t, app, 1)
		assert.Contains(t, app[0], "WARNING [ SQL ] slow query")
	})

	t.Run("Does not log fast query at warn level", func(t *testing.T) {
		router, dir := newTestRouter(t, nil)
		gormLogger := NewGormLogger(router, GormConfig{SlowQueryThresholdMs: 5000, Level: "warn"})

		gormLogger.Trace(context.Background(), time.Now(), func() (string, int64) {
			return "SELECT 1", 1
		}, nil)

		assert.NoFileExists(t, filepath.Join(dir, "sql.log"))
	})

	t.Run("Logs failures on both streams", func(t *testing.T) {
		router, dir := newTestRouter(t, nil)
		gormLogger := NewGormLogger(router, GormConfig{Level: "error"})

		gormLogger.Trace(context.Background(), time.Now(), func() (string, int64) {
			return "SELECT * FROM missing", 0
		}, errors.New("no such table: missing"))

		assert.Len(t, readLines(t, filepath.Join(dir, "sql.log")), 1)
		app := readLines(t, filepath.Join(dir, "app.log"))
		require.Len(t, app, 1)
		assert.Contains(t, app[0], "ERROR [ SQL ] SELECT * FROM missing failed: no such table: missing")
	})

	t.Run("Record not found is not an error", func(t *testing.T) {
		router, dir := newTestRouter(t, nil)
		gormLogger := NewGormLogger(router, GormConfig{Level: "error"})

		gormLogger.Trace(context.Background(), time.Now(), func() (string, int64) {
			return "SELECT * FROM users WHERE id = 9", 0
		}, gorm.ErrRecordNotFound)

		assert.NoFileExists(t, filepath.Join(dir, "app.log"))
	})

	t.Run("Silent level logs nothing", func(t *testing.T) {
		router, dir := newTestRouter(t, nil)
		gormLogger := NewGormLogger(router, GormConfig{}).LogMode(logger.Silent)

		gormLogger.Trace(context.Background(), time.Now(), func() (string, int64) {
			return "SELECT 1", 1
		}, nil)

		assert.NoFileExists(t, filepath.Join(dir, "sql.log"))
	})

	t.Run("Records into the request recorder", func(t *testing.T) {
		router, dir := newTestRouter(t, nil)
		gormLogger := NewGormLogger(router, GormConfig{Level: "info"})
		rec := NewRecorder()

		gormLogger.Trace(WithRecorder(context.Background(), rec), time.Now(), func() (string, int64) {
			return "SELECT 1", 1
		}, nil)

		assert.NoFileExists(t, filepath.Join(dir, "sql.log"))
		require.Len(t, rec.Batch()[TagSQL], 1)
		assert.Contains(t, rec.Batch()[TagSQL][0], "[ SQL ] SELECT 1")
	})

	t.Run("Uses default when threshold is zero", func(t *testing.T) {
		router, _ := newTestRouter(t, nil)
		gormLogger := NewGormLogger(router, GormConfig{SlowQueryThresholdMs: 0})
		assert.Equal(t, 200*time.Millisecond, gormLogger.SlowQueryThresholdMs)
	})
}

func TestGormLoggerMessages(t *testing.T) {
	router, dir := newTestRouter(t, nil)
	gormLogger := NewGormLogger(router, GormConfig{Level: "info"})
	ctx := context.Background()

	gormLogger.Info(ctx, "migrated %d tables", 2)
	gormLogger.Warn(ctx, "deprecated %s", "option")
	gormLogger.Error(ctx, "failed: %v", "boom")

	app := readLines(t, filepath.Join(dir, "app.log"))
	require.Len(t, app, 3)
	assert.Contains(t, app[0], "INFO migrated 2 tables")
	assert.Contains(t, app[1], "WARNING deprecated option")
	assert.Contains(t, app[2], "ERROR failed: boom")
}
