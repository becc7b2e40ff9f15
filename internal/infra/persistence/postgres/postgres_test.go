package postgres

import (
	"database/sql"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPoolWait(t *testing.T) {
	prev := sql.DBStats{WaitCount: 3, WaitDuration: 10 * time.Millisecond}

	t.Run("no new waits", func(t *testing.T) {
		_, _, waited := poolWait(prev, prev)
		assert.False(t, waited)
	})

	t.Run("short waits log at debug", func(t *testing.T) {
		cur := sql.DBStats{WaitCount: 5, WaitDuration: 20 * time.Millisecond, InUse: 4}
		attrs, level, waited := poolWait(prev, cur)
		assert.True(t, waited)
		assert.Equal(t, slog.LevelDebug, level)
		assert.Equal(t, int64(2), attrs[0].Value.Int64())
		assert.Equal(t, 5*time.Millisecond, attrs[2].Value.Duration())
	})

	t.Run("long waits log at warn", func(t *testing.T) {
		cur := sql.DBStats{WaitCount: 4, WaitDuration: 10*time.Millisecond + dbPoolWarnDurationThreshold}
		_, level, waited := poolWait(prev, cur)
		assert.True(t, waited)
		assert.Equal(t, slog.LevelWarn, level)
	})
}
