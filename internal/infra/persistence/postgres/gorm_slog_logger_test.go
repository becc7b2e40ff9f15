package postgres

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"school/config"
	deliverycontext "school/internal/delivery/context"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func newCapturingGormLogger(debug bool) (*gormSlogLogger, *bytes.Buffer) {
	var buf bytes.Buffer
	cfg := &config.Config{}
	cfg.Env.Debug = debug
	base := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	return newGormSlogLogger(base, cfg).(*gormSlogLogger), &buf
}

func TestGormSlogLogger_Trace(t *testing.T) {
	sqlFn := func() (string, int64) { return `SELECT * FROM "users" WHERE username = $1`, 1 }
	now := time.Now()

	t.Run("quiet below warn", func(t *testing.T) {
		l, buf := newCapturingGormLogger(false)
		l.Trace(context.Background(), now, sqlFn, nil)
		l.Trace(context.Background(), now, sqlFn, gorm.ErrRecordNotFound)
		l.Trace(context.Background(), now, sqlFn, &pgconn.PgError{Code: "23505", ConstraintName: constraintUsersUsername})
		assert.Empty(t, buf.String())
	})

	t.Run("failures logged with request logger", func(t *testing.T) {
		l, buf := newCapturingGormLogger(false)
		reqLogger := l.logger.With(slog.String("request_id", "req-1"))
		ctx := deliverycontext.WithLogger(context.Background(), reqLogger)

		l.Trace(ctx, now, sqlFn, errors.New("connection reset"))

		out := buf.String()
		assert.Contains(t, out, "GORM query failed")
		assert.Contains(t, out, `"request_id":"req-1"`)
		assert.Contains(t, out, `"component":"gorm"`)
	})

	t.Run("slow query", func(t *testing.T) {
		l, buf := newCapturingGormLogger(false)
		l.Trace(context.Background(), now.Add(-time.Second), sqlFn, nil)
		assert.Contains(t, buf.String(), "GORM slow query")
	})

	t.Run("debug logs every statement", func(t *testing.T) {
		l, buf := newCapturingGormLogger(true)
		l.Trace(context.Background(), now, sqlFn, nil)
		assert.Contains(t, buf.String(), "GORM query")
	})
}

func TestGormSlogLogger_ParamsFilter(t *testing.T) {
	l, _ := newCapturingGormLogger(true)

	sql, params := l.ParamsFilter(context.Background(), "UPDATE users SET password_hash = $1", "$2a$10$secret")

	assert.Equal(t, "UPDATE users SET password_hash = $1", sql)
	assert.Nil(t, params)
}
