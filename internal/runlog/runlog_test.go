package runlog

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func TestRecordAndList(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	first, err := s.Record(ctx, Run{
		StartedAt:   time.Date(2026, 8, 28, 9, 0, 0, 0, time.UTC),
		WindowDays:  30,
		FilingsSeen: 240,
		FilingsKept: 18,
		OutputPath:  "exhibit_99_1_filings.csv",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, first.ID)

	second, err := s.Record(ctx, Run{
		StartedAt:   time.Date(2026, 8, 29, 9, 0, 0, 0, time.UTC),
		WindowDays:  7,
		FilingsSeen: 61,
		FilingsKept: 4,
		OutputPath:  "weekly.csv",
	})
	require.NoError(t, err)

	runs, err := s.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)

	// Newest first.
	assert.Equal(t, second.ID, runs[0].ID)
	assert.Equal(t, first.ID, runs[1].ID)
	assert.Equal(t, int64(240), runs[1].FilingsSeen)
	assert.Equal(t, int64(18), runs[1].FilingsKept)
	assert.Equal(t, 30, runs[1].WindowDays)
	assert.Equal(t, "exhibit_99_1_filings.csv", runs[1].OutputPath)
}

func TestList_Limit(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := s.Record(ctx, Run{
			StartedAt:  time.Date(2026, 8, 20+i, 0, 0, 0, 0, time.UTC),
			WindowDays: 30,
			OutputPath: "out.csv",
		})
		require.NoError(t, err)
	}

	runs, err := s.List(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, runs, 3)
}

func TestList_Empty(t *testing.T) {
	s := openTestStore(t)
	runs, err := s.List(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestRecord_PreservesExplicitID(t *testing.T) {
	s := openTestStore(t)

	run, err := s.Record(context.Background(), Run{ID: "run-1", OutputPath: "out.csv"})
	require.NoError(t, err)
	assert.Equal(t, "run-1", run.ID)
	assert.False(t, run.StartedAt.IsZero())
}
