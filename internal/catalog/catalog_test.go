// File path: internal/catalog/catalog_test.go
package catalog

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRecordRunRoundtrip(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	started := time.Now().Add(-time.Minute).UTC().Truncate(time.Second)
	finished := time.Now().UTC().Truncate(time.Second)
	run := Run{
		StartedAt:            started,
		FinishedAt:           finished,
		ExtractionsAttempted: 5,
		ExtractionsCompleted: 4,
		SummariesAttempted:   3,
		SummariesCompleted:   2,
	}
	failures := []Failure{
		{Stage: "extraction", Artifact: "shot-3.png", Message: "tesseract timed out"},
		{Stage: "summary", Artifact: "shot-1.png", Message: "model unavailable"},
	}
	runID, err := store.RecordRun(ctx, run, failures)
	require.NoError(t, err)
	require.Positive(t, runID)

	runs, err := store.RecentRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	require.Equal(t, runID, runs[0].ID)
	require.Equal(t, 5, runs[0].ExtractionsAttempted)
	require.Equal(t, 4, runs[0].ExtractionsCompleted)
	require.Equal(t, 3, runs[0].SummariesAttempted)
	require.Equal(t, 2, runs[0].SummariesCompleted)

	stored, err := store.FailuresForRun(ctx, runID)
	require.NoError(t, err)
	require.Len(t, stored, 2)
	require.Equal(t, "extraction", stored[0].Stage)
	require.Equal(t, "shot-3.png", stored[0].Artifact)
	require.Equal(t, "model unavailable", stored[1].Message)
}

func TestRecentRunsNewestFirst(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	now := time.Now().UTC()
	for i := 0; i < 3; i++ {
		_, err := store.RecordRun(ctx, Run{
			StartedAt:            now.Add(time.Duration(i) * time.Minute),
			FinishedAt:           now.Add(time.Duration(i)*time.Minute + 30*time.Second),
			ExtractionsAttempted: i,
		}, nil)
		require.NoError(t, err)
	}

	runs, err := store.RecentRuns(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	require.Greater(t, runs[0].ID, runs[1].ID)
	require.Equal(t, 2, runs[0].ExtractionsAttempted)
}

func TestOpenRejectsEmptyPath(t *testing.T) {
	_, err := Open("  ")
	require.Error(t, err)
}

func TestSchemaSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.db")
	first, err := Open(path)
	require.NoError(t, err)
	_, err = first.RecordRun(context.Background(), Run{StartedAt: time.Now(), FinishedAt: time.Now()}, nil)
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := Open(path)
	require.NoError(t, err)
	defer second.Close()
	runs, err := second.RecentRuns(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
}
