package logger

import (
	"context"
	"errors"
	"testing"
	"time"

	obscontext "github.com/smallbiznis/seatwise/internal/observability/context"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	gormlogger "gorm.io/gorm/logger"
)

func TestDescribeSQL(t *testing.T) {
	cases := []struct {
		sql       string
		operation string
		table     string
	}{
		{`SELECT * FROM "licenses" WHERE org_id = $1`, "SELECT", "licenses"},
		{"INSERT INTO `insights` (`id`) VALUES (?)", "INSERT", "insights"},
		{`UPDATE public.efficiency_scores SET rank = 1`, "UPDATE", "efficiency_scores"},
		{`DELETE FROM departments WHERE id = 1`, "DELETE", "departments"},
		{`WITH recent AS (SELECT 1) SELECT * FROM usage_records`, "SELECT", "usage_records"},
		{``, "UNKNOWN", ""},
	}
	for _, tc := range cases {
		operation, table := describeSQL(tc.sql)
		assert.Equal(t, tc.operation, operation, tc.sql)
		assert.Equal(t, tc.table, table, tc.sql)
	}
}

func TestGormLoggerSkipsRecordNotFound(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	restore := zap.ReplaceGlobals(zap.New(core))
	defer restore()

	l := NewGormLogger(DefaultGormLoggerConfig())
	query := func() (string, int64) { return `SELECT * FROM "licenses"`, 0 }

	l.Trace(context.Background(), time.Now(), query, gormlogger.ErrRecordNotFound)
	assert.Zero(t, logs.Len())

	ctx := obscontext.WithRun(context.Background(), "impact", "01HZX")
	l.Trace(ctx, time.Now(), query, errors.New("connection reset"))

	entries := logs.FilterMessage(gormQueryMessage).All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "licenses", fields["table"])
	assert.Equal(t, "impact", fields["generator"])
	assert.Equal(t, "01HZX", fields["run_id"])
}
