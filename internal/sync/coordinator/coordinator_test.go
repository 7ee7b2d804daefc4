package coordinator

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/tvbox-mirror/feed-mirror/internal/config"
	"github.com/tvbox-mirror/feed-mirror/internal/feed"
	"github.com/tvbox-mirror/feed-mirror/internal/mirror"
	"github.com/tvbox-mirror/feed-mirror/internal/publisher"
	publishermocks "github.com/tvbox-mirror/feed-mirror/internal/publisher/mocks"
	"github.com/tvbox-mirror/feed-mirror/internal/status"
	statusmocks "github.com/tvbox-mirror/feed-mirror/internal/status/mocks"
	pkgsync "github.com/tvbox-mirror/feed-mirror/internal/sync"
	syncmocks "github.com/tvbox-mirror/feed-mirror/internal/sync/mocks"
)

const testMirrorBase = "https://m/repo"

func testConfig(t *testing.T, concurrency int, names ...string) *config.Config {
	t.Helper()
	cfg := &config.Config{
		MirrorBaseURL: testMirrorBase,
		OutputDir:     t.TempDir(),
		Concurrency:   concurrency,
	}
	for _, name := range names {
		cfg.Sources = append(cfg.Sources, config.SourceConfig{Name: name, URL: "http://x/" + name + ".json"})
	}
	return cfg
}

func entryFor(name string) *feed.IndexEntry {
	return &feed.IndexEntry{Name: name, URL: testMirrorBase + "/" + name + ".json"}
}

func successFor(name string) *pkgsync.Result {
	return &pkgsync.Result{Entry: entryFor(name)}
}

func readIndex(t *testing.T, fs afero.Fs, cfg *config.Config) []string {
	t.Helper()
	data, err := afero.ReadFile(fs, filepath.Join(cfg.OutputDir, publisher.IndexFileName))
	require.NoError(t, err)

	var index feed.Index
	require.NoError(t, json.Unmarshal(data, &index))
	names := make([]string, 0, len(index.URLs))
	for _, e := range index.URLs {
		names = append(names, e.Name)
	}
	return names
}

func newMemStorage(cfg *config.Config) (publisher.StorageManager, afero.Fs) {
	fs := afero.NewMemMapFs()
	return publisher.NewFileStorageManager(fs, cfg.OutputDir, cfg.MirrorBaseURL), fs
}

func TestCoordinator_Run_FailedSourceDoesNotAbortBatch(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t, 0, "a", "b", "c")
	storage, fs := newMemStorage(cfg)

	ctrl := gomock.NewController(t)
	manager := syncmocks.NewMockManager(ctrl)
	gomock.InOrder(
		manager.EXPECT().PerformSync(gomock.Any(), &cfg.Sources[0]).Return(successFor("a"), nil),
		manager.EXPECT().PerformSync(gomock.Any(), &cfg.Sources[1]).Return(nil, &pkgsync.Error{
			Err:     errors.New("HTTP 500"),
			Message: "Fetch failed: HTTP 500",
			Stage:   pkgsync.StageFetch,
			Reason:  pkgsync.ReasonNetworkError,
		}),
		manager.EXPECT().PerformSync(gomock.Any(), &cfg.Sources[2]).Return(successFor("c"), nil),
	)

	summary, err := New(manager, storage, cfg).Run(context.Background())
	require.NoError(t, err)

	assert.NotEmpty(t, summary.RunID)
	assert.Equal(t, []*feed.IndexEntry{entryFor("a"), entryFor("c")}, summary.Published)
	require.Len(t, summary.Failed, 1)
	assert.Equal(t, FailedSource{
		Name:    "b",
		Stage:   pkgsync.StageFetch,
		Reason:  pkgsync.ReasonNetworkError,
		Message: "Fetch failed: HTTP 500",
	}, summary.Failed[0])
	assert.True(t, summary.HasFailures())

	assert.Equal(t, []string{"a", "c"}, readIndex(t, fs, cfg))

	exists, err := afero.DirExists(fs, filepath.Join(cfg.OutputDir, publisher.AssetDir))
	require.NoError(t, err)
	assert.True(t, exists, "asset directory is created up front")
}

func TestCoordinator_Run_ConcurrentKeepsConfiguredOrder(t *testing.T) {
	t.Parallel()

	names := []string{"s0", "s1", "s2", "s3", "s4"}
	cfg := testConfig(t, 3, names...)
	storage, fs := newMemStorage(cfg)

	ctrl := gomock.NewController(t)
	manager := syncmocks.NewMockManager(ctrl)
	manager.EXPECT().
		PerformSync(gomock.Any(), gomock.Any()).
		Times(len(names)).
		DoAndReturn(func(_ context.Context, source *config.SourceConfig) (*pkgsync.Result, *pkgsync.Error) {
			// Earlier sources finish later
			for i, name := range names {
				if name == source.Name {
					time.Sleep(time.Duration(len(names)-i) * 5 * time.Millisecond)
				}
			}
			return successFor(source.Name), nil
		})

	summary, err := New(manager, storage, cfg).Run(context.Background())
	require.NoError(t, err)
	assert.False(t, summary.HasFailures())
	assert.Equal(t, names, readIndex(t, fs, cfg))
}

func TestCoordinator_Run_AllSourcesFail(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t, 1, "a")
	storage, fs := newMemStorage(cfg)

	ctrl := gomock.NewController(t)
	manager := syncmocks.NewMockManager(ctrl)
	manager.EXPECT().PerformSync(gomock.Any(), gomock.Any()).
		Return(nil, &pkgsync.Error{Message: "Fetch failed", Stage: pkgsync.StageFetch})

	summary, err := New(manager, storage, cfg).Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, summary.Published)

	data, err := afero.ReadFile(fs, filepath.Join(cfg.OutputDir, publisher.IndexFileName))
	require.NoError(t, err)
	assert.Equal(t, "{\n    \"urls\": []\n}", string(data))
}

func TestCoordinator_Run_LockHeld(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t, 1, "a")
	held := flock.New(filepath.Join(cfg.OutputDir, LockFileName))
	locked, err := held.TryLock()
	require.NoError(t, err)
	require.True(t, locked)
	t.Cleanup(func() { _ = held.Unlock() })

	ctrl := gomock.NewController(t)
	_, err = New(syncmocks.NewMockManager(ctrl), publishermocks.NewMockStorageManager(ctrl), cfg).
		Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrLocked)
}

func TestCoordinator_Run_ReleasesLock(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t, 1, "a")
	storage, _ := newMemStorage(cfg)

	ctrl := gomock.NewController(t)
	manager := syncmocks.NewMockManager(ctrl)
	manager.EXPECT().PerformSync(gomock.Any(), gomock.Any()).Return(successFor("a"), nil).Times(2)

	coord := New(manager, storage, cfg)
	_, err := coord.Run(context.Background())
	require.NoError(t, err)
	_, err = coord.Run(context.Background())
	require.NoError(t, err)
}

func TestCoordinator_Run_StorageFailures(t *testing.T) {
	t.Parallel()

	boom := errors.New("disk full")

	t.Run("prepare", func(t *testing.T) {
		t.Parallel()

		cfg := testConfig(t, 1, "a")
		ctrl := gomock.NewController(t)
		storage := publishermocks.NewMockStorageManager(ctrl)
		storage.EXPECT().Prepare(gomock.Any()).Return(boom)

		_, err := New(syncmocks.NewMockManager(ctrl), storage, cfg).Run(context.Background())
		require.Error(t, err)
		assert.ErrorIs(t, err, boom)
		assert.Contains(t, err.Error(), "failed to prepare output directory")
	})

	t.Run("index", func(t *testing.T) {
		t.Parallel()

		cfg := testConfig(t, 1, "a")
		ctrl := gomock.NewController(t)
		manager := syncmocks.NewMockManager(ctrl)
		manager.EXPECT().PerformSync(gomock.Any(), gomock.Any()).Return(successFor("a"), nil)
		storage := publishermocks.NewMockStorageManager(ctrl)
		storage.EXPECT().Prepare(gomock.Any()).Return(nil)
		storage.EXPECT().StoreIndex(gomock.Any(), &feed.Index{URLs: []feed.IndexEntry{*entryFor("a")}}).Return(boom)

		_, err := New(manager, storage, cfg).Run(context.Background())
		require.Error(t, err)
		assert.ErrorIs(t, err, boom)
		assert.Contains(t, err.Error(), "failed to publish index")
	})
}

func TestCoordinator_Run_Canceled(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t, 1, "a", "b")
	ctx, cancel := context.WithCancel(context.Background())

	ctrl := gomock.NewController(t)
	manager := syncmocks.NewMockManager(ctrl)
	manager.EXPECT().PerformSync(gomock.Any(), &cfg.Sources[0]).
		DoAndReturn(func(context.Context, *config.SourceConfig) (*pkgsync.Result, *pkgsync.Error) {
			cancel()
			return successFor("a"), nil
		})
	storage := publishermocks.NewMockStorageManager(ctrl)
	storage.EXPECT().Prepare(gomock.Any()).Return(nil)

	_, err := New(manager, storage, cfg).Run(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCoordinator_Run_GitCommit(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		commitHash string
		commitErr  error
		wantHash   string
		wantErr    bool
	}{
		{name: "committed", commitHash: "abc123", wantHash: "abc123"},
		{name: "nothing to commit", commitErr: publisher.ErrNothingToCommit},
		{name: "commit failure", commitErr: errors.New("not a repository"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := testConfig(t, 1, "a")
			storage, _ := newMemStorage(cfg)

			ctrl := gomock.NewController(t)
			manager := syncmocks.NewMockManager(ctrl)
			manager.EXPECT().PerformSync(gomock.Any(), gomock.Any()).Return(successFor("a"), nil)
			committer := publishermocks.NewMockGitCommitter(ctrl)
			committer.EXPECT().Commit(gomock.Any(), "Update mirrored feeds").Return(tt.commitHash, tt.commitErr)

			summary, err := New(manager, storage, cfg,
				WithGitCommitter(committer, "Update mirrored feeds")).Run(context.Background())
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "failed to commit output")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantHash, summary.CommitHash)
		})
	}
}

func TestCoordinator_Run_SavesStatus(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t, 1, "a", "b")
	storage, fs := newMemStorage(cfg)
	persistence := status.NewFileStatusPersistence(fs, cfg.OutputDir)

	ctrl := gomock.NewController(t)
	manager := syncmocks.NewMockManager(ctrl)
	gomock.InOrder(
		manager.EXPECT().PerformSync(gomock.Any(), &cfg.Sources[0]).Return(&pkgsync.Result{
			Entry:        entryFor("a"),
			Hash:         "deadbeef",
			SiteCount:    3,
			SitesRemoved: 1,
			Asset:        &mirror.Result{Original: "http://x/a.jar", URL: "https://m/repo/jar/a.jar"},
		}, nil),
		manager.EXPECT().PerformSync(gomock.Any(), &cfg.Sources[1]).Return(nil, &pkgsync.Error{
			Err:     errors.New("bad json"),
			Message: "Fetch failed: bad json",
			Stage:   pkgsync.StageFetch,
			Reason:  pkgsync.ReasonParseError,
		}),
	)

	coord := New(manager, storage, cfg, WithStatusPersistence(persistence))
	coord.(*defaultCoordinator).newRunID = func() string { return "run-42" }

	_, err := coord.Run(context.Background())
	require.NoError(t, err)

	report, err := persistence.LoadStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "run-42", report.RunID)
	assert.False(t, report.FinishedAt.Before(report.StartedAt))
	assert.Equal(t, []status.SourceStatus{
		{
			Name:          "a",
			Phase:         status.SourcePhasePublished,
			URL:           testMirrorBase + "/a.json",
			Hash:          "deadbeef",
			SiteCount:     3,
			SitesRemoved:  1,
			AssetMirrored: true,
		},
		{
			Name:    "b",
			Phase:   status.SourcePhaseFailed,
			Stage:   pkgsync.StageFetch,
			Reason:  pkgsync.ReasonParseError,
			Message: "Fetch failed: bad json",
		},
	}, report.Sources)
}

func TestCoordinator_Run_StatusFailureIsNonFatal(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t, 1, "a")
	storage, _ := newMemStorage(cfg)

	ctrl := gomock.NewController(t)
	manager := syncmocks.NewMockManager(ctrl)
	manager.EXPECT().PerformSync(gomock.Any(), gomock.Any()).Return(successFor("a"), nil)
	persistence := statusmocks.NewMockStatusPersistence(ctrl)
	persistence.EXPECT().LoadStatus(gomock.Any()).Return(nil, status.ErrNoStatus)
	persistence.EXPECT().SaveStatus(gomock.Any(), gomock.Any()).Return(errors.New("disk full"))

	summary, err := New(manager, storage, cfg, WithStatusPersistence(persistence)).Run(context.Background())
	require.NoError(t, err)
	assert.Len(t, summary.Published, 1)
}

func TestCoordinator_Run_PrunesRemovedSources(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t, 1, "a")
	storage, fs := newMemStorage(cfg)
	persistence := status.NewFileStatusPersistence(fs, cfg.OutputDir)
	require.NoError(t, persistence.SaveStatus(context.Background(), &status.RunStatus{
		RunID: "previous",
		Sources: []status.SourceStatus{
			{Name: "a", Phase: status.SourcePhasePublished},
			{Name: "gone", Phase: status.SourcePhasePublished},
			{Name: "broken", Phase: status.SourcePhaseFailed},
			{Name: "../escape", Phase: status.SourcePhasePublished},
		},
	}))

	ctrl := gomock.NewController(t)
	manager := syncmocks.NewMockManager(ctrl)
	manager.EXPECT().PerformSync(gomock.Any(), &cfg.Sources[0]).Return(successFor("a"), nil)
	manager.EXPECT().Delete(gomock.Any(), "gone").Return(nil)
	manager.EXPECT().Delete(gomock.Any(), "broken").Return(errors.New("permission denied"))

	summary, err := New(manager, storage, cfg, WithStatusPersistence(persistence)).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"gone"}, summary.Pruned)

	report, err := persistence.LoadStatus(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Sources, 1)
	assert.Equal(t, "a", report.Sources[0].Name)
}

func TestCoordinator_Run_PruneSkippedOnUnreadableStatus(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t, 1, "a")
	storage, _ := newMemStorage(cfg)

	ctrl := gomock.NewController(t)
	manager := syncmocks.NewMockManager(ctrl)
	manager.EXPECT().PerformSync(gomock.Any(), gomock.Any()).Return(successFor("a"), nil)
	persistence := statusmocks.NewMockStatusPersistence(ctrl)
	persistence.EXPECT().LoadStatus(gomock.Any()).Return(nil, errors.New("corrupt"))
	persistence.EXPECT().SaveStatus(gomock.Any(), gomock.Any()).Return(nil)

	summary, err := New(manager, storage, cfg, WithStatusPersistence(persistence)).Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, summary.Pruned)
}
