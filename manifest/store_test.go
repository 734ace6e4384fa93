package manifest_test

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Noofbiz/lickset/datasets"
	"github.com/Noofbiz/lickset/manifest"
)

func openStore(t *testing.T) *manifest.Store {
	t.Helper()
	store, err := manifest.Open(filepath.Join(t.TempDir(), "db", "manifest.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func sampleReport() *datasets.Report {
	return &datasets.Report{
		Root: "/data/licking",
		Experiments: []datasets.ExperimentSummary{
			{
				Name: "mouse1", Status: datasets.StatusLoaded,
				ImagesFound: 10, FramesIndexed: 10, KeypointsPresent: 7, KeypointsOccluded: 2,
				MasksFound: 4, Samples: 10, Original: datasets.Resolution{Width: 640, Height: 480},
			},
			{Name: "mouse2", Status: datasets.StatusSkipped, Reason: "no labels folder"},
		},
	}
}

func TestRecordRunAndList(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	first, err := store.RecordRun(ctx, sampleReport())
	require.NoError(t, err)
	second, err := store.RecordRun(ctx, &datasets.Report{Root: "/missing", RootError: "no such directory"})
	require.NoError(t, err)
	require.NotEqual(t, first, second)

	runs, err := store.Runs(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	require.Equal(t, second, runs[0].ID, "newest run first")
	require.Equal(t, "no such directory", runs[0].RootError)
	require.Equal(t, 2, runs[1].Experiments)
	require.Equal(t, 1, runs[1].Loaded)
	require.Equal(t, 1, runs[1].Skipped)
	require.Equal(t, 10, runs[1].Samples)

	exps, err := store.Experiments(ctx, first)
	require.NoError(t, err)
	require.Len(t, exps, 2)
	require.Equal(t, "mouse1", exps[0].Name)
	require.Equal(t, 7, exps[0].KeypointsPresent)
	require.Equal(t, datasets.Resolution{Width: 640, Height: 480}, exps[0].Original)
	require.Equal(t, "no labels folder", exps[1].Reason)
}

func TestExperimentsUnknownRun(t *testing.T) {
	store := openStore(t)
	_, err := store.Experiments(context.Background(), "nope")
	require.True(t, errors.Is(err, manifest.ErrRunNotFound), "got %v", err)
}

func TestReopenKeepsRuns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manifest.db")
	store, err := manifest.Open(path)
	require.NoError(t, err)
	_, err = store.RecordRun(context.Background(), sampleReport())
	require.NoError(t, err)
	require.NoError(t, store.Close())

	store, err = manifest.Open(path)
	require.NoError(t, err)
	defer store.Close()
	runs, err := store.Runs(context.Background())
	require.NoError(t, err)
	require.Len(t, runs, 1)
}

func TestOpenRejectsOtherSchemaVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manifest.db")
	store, err := manifest.Open(path)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	_, err = db.Exec("UPDATE schema_version SET version = 99")
	require.NoError(t, err)
	require.NoError(t, db.Close())

	_, err = manifest.Open(path)
	require.ErrorIs(t, err, manifest.ErrSchemaMismatch)
}
