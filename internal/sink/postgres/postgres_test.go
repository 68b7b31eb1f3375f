package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/statemetrics/internal/report"
	"github.com/leapstack-labs/statemetrics/internal/sink"
	"github.com/leapstack-labs/statemetrics/internal/testutil"
)

const dsnEnv = "STATEMETRICS_TEST_POSTGRES_DSN"

func TestSink_Registered(t *testing.T) {
	assert.Contains(t, sink.List(), Name)
}

func TestSink_WriteWithoutOpen(t *testing.T) {
	s := New(nil)
	err := s.Write(context.Background(), &report.Report{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not established")
	assert.NoError(t, s.Close())
}

func TestSink_OpenInvalidDSN(t *testing.T) {
	err := New(nil).Open(context.Background(), "postgres://user@host:notaport/db")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid postgres dsn")
}

func TestSink_Write(t *testing.T) {
	dsn := os.Getenv(dsnEnv)
	if dsn == "" {
		t.Skipf("%s not set", dsnEnv)
	}

	ctx := context.Background()
	s := New(testutil.NewTestLogger(t))
	require.NoError(t, s.Open(ctx, dsn))
	defer func() { _ = s.Close() }()

	rep := &report.Report{
		RunID: uuid.New().String(),
		Month: "March 2025",
		Rows: []report.Row{
			{KeyRow: "california", Population: report.Stat{Measure: report.Some(39538223), Rank: 1}},
			{KeyRow: "alabama"},
		},
	}
	require.NoError(t, s.Write(ctx, rep))

	var count int
	require.NoError(t, s.conn.QueryRow(ctx, "SELECT COUNT(*) FROM state_metrics WHERE run_id = $1", rep.RunID).Scan(&count))
	assert.Equal(t, 2, count)

	_, err := s.conn.Exec(ctx, "DELETE FROM state_metrics WHERE run_id = $1", rep.RunID)
	require.NoError(t, err)
}
