package scheduler

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/reperio/internal/common"
	"github.com/ternarybob/reperio/internal/models"
	"github.com/ternarybob/reperio/internal/storage/graph"
	"github.com/ternarybob/reperio/internal/storage/vectorstore"
)

func TestRegisterJobRejectsInvalidSchedule(t *testing.T) {
	svc := NewService(common.GetLogger())

	tests := []struct {
		name     string
		schedule string
	}{
		{"gibberish", "not a schedule"},
		{"every minute", "* * * * *"},
		{"sub five minute interval", "*/2 * * * *"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.RegisterJob("job", tt.schedule, func() error { return nil })
			assert.Error(t, err)
		})
	}
}

func TestRegisterJobRejectsDuplicate(t *testing.T) {
	svc := NewService(common.GetLogger())

	require.NoError(t, svc.RegisterJob("maintenance", "0 0 */6 * * *", func() error { return nil }))
	err := svc.RegisterJob("maintenance", "0 0 */6 * * *", func() error { return nil })
	assert.Error(t, err)
}

func TestStartStop(t *testing.T) {
	svc := NewService(common.GetLogger())
	require.NoError(t, svc.RegisterJob("maintenance", "0 0 */6 * * *", func() error { return nil }))

	assert.False(t, svc.IsRunning())
	require.NoError(t, svc.Start())
	assert.True(t, svc.IsRunning())

	// Starting twice is an error
	assert.Error(t, svc.Start())

	require.NoError(t, svc.Stop())
	assert.False(t, svc.IsRunning())

	// Stopping a stopped scheduler is a no-op
	assert.NoError(t, svc.Stop())
}

func TestJobStatusesTrackRuns(t *testing.T) {
	svc := NewService(common.GetLogger()).(*Service)
	require.NoError(t, svc.RegisterJob("failing", "0 0 */6 * * *", func() error {
		return errors.New("disk full")
	}))
	require.NoError(t, svc.RegisterJob("healthy", "0 30 */6 * * *", func() error { return nil }))

	svc.runJob(svc.jobs["failing"])
	svc.runJob(svc.jobs["healthy"])

	statuses := svc.GetAllJobStatuses()
	require.Len(t, statuses, 2)

	failing := statuses["failing"]
	require.NotNil(t, failing)
	assert.Equal(t, "disk full", failing.LastError)
	assert.NotNil(t, failing.LastRun)
	assert.False(t, failing.IsRunning)

	healthy := statuses["healthy"]
	require.NotNil(t, healthy)
	assert.Empty(t, healthy.LastError)
	assert.NotNil(t, healthy.LastRun)
}

func TestMaintenanceJobReportsStatsAndRunsGC(t *testing.T) {
	store, err := vectorstore.NewStore(t.TempDir(), common.GetLogger())
	require.NoError(t, err)

	db, err := graph.NewBadgerDB(common.GetLogger(), &common.BadgerConfig{
		Path: filepath.Join(t.TempDir(), "graph"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	graphStore := graph.NewStorage(db, common.GetLogger())

	require.NoError(t, store.StoreDocument(context.Background(), "doc-1", []models.DocumentChunk{
		{ID: "c1", Content: "content", Embedding: []float32{1, 0}},
	}, nil))

	gcCalls := 0
	job := NewMaintenanceJob(store, graphStore, func() error {
		gcCalls++
		return nil
	}, common.GetLogger())

	require.NoError(t, job())
	assert.Equal(t, 1, gcCalls)
}

func TestMaintenanceJobPropagatesGCFailure(t *testing.T) {
	store, err := vectorstore.NewStore(t.TempDir(), common.GetLogger())
	require.NoError(t, err)

	job := NewMaintenanceJob(store, nil, func() error {
		return errors.New("gc failed")
	}, common.GetLogger())

	assert.Error(t, job())
}
