package job

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GintGld/video-splitter/internal/models"
	"github.com/GintGld/video-splitter/internal/service"
	"github.com/GintGld/video-splitter/internal/storage"
)

// memStorage is an in-memory JobStorage. done is signalled on every
// CompleteJob/FailJob so tests can wait for background processing.
type memStorage struct {
	mu   sync.Mutex
	jobs map[string]models.Job
	done chan string
}

func newMemStorage() *memStorage {
	return &memStorage{
		jobs: make(map[string]models.Job),
		done: make(chan string, 16),
	}
}

func (m *memStorage) SaveJob(_ context.Context, job models.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.jobs[job.ID]; ok {
		return storage.ErrJobExists
	}
	m.jobs[job.ID] = job

	return nil
}

func (m *memStorage) CompleteJob(_ context.Context, id string, completedAt time.Time, segments []models.Segment) error {
	m.mu.Lock()
	job, ok := m.jobs[id]
	if !ok {
		m.mu.Unlock()
		return storage.ErrJobNotFound
	}
	job.Status = models.StatusCompleted
	job.CompletedAt = &completedAt
	job.Segments = segments
	m.jobs[id] = job
	m.mu.Unlock()

	m.done <- id

	return nil
}

func (m *memStorage) FailJob(_ context.Context, id string, message string, completedAt time.Time) error {
	m.mu.Lock()
	job, ok := m.jobs[id]
	if !ok {
		m.mu.Unlock()
		return storage.ErrJobNotFound
	}
	job.Status = models.StatusError
	job.Error = message
	job.CompletedAt = &completedAt
	m.jobs[id] = job
	m.mu.Unlock()

	m.done <- id

	return nil
}

func (m *memStorage) Job(_ context.Context, id string) (models.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	job, ok := m.jobs[id]
	if !ok {
		return models.Job{}, storage.ErrJobNotFound
	}

	return job, nil
}

func (m *memStorage) AllJobs(_ context.Context) ([]models.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	jobs := make([]models.Job, 0, len(m.jobs))
	for _, job := range m.jobs {
		jobs = append(jobs, job)
	}

	return jobs, nil
}

func (m *memStorage) DeleteJob(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.jobs[id]; !ok {
		return storage.ErrJobNotFound
	}
	delete(m.jobs, id)

	return nil
}

type fakeSplitter struct {
	segments []models.Segment
	err      error
}

func (f *fakeSplitter) Split(_ context.Context, _, outDir string, parts int) ([]models.Segment, error) {
	if f.err != nil {
		return nil, f.err
	}

	if err := os.MkdirAll(outDir, 0755); err != nil {
		return nil, err
	}

	return f.segments, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeUpload(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "upload.mp4")
	require.NoError(t, os.WriteFile(path, []byte("stub"), 0644))

	return path
}

func waitDone(t *testing.T, st *memStorage) {
	t.Helper()

	select {
	case <-st.done:
	case <-time.After(5 * time.Second):
		t.Fatal("job was not processed in time")
	}
}

func TestNewJobBadPartCount(t *testing.T) {
	st := newMemStorage()
	j := New(discardLogger(), st, &fakeSplitter{}, t.TempDir(), t.TempDir(), 1)
	defer j.Stop()

	for _, parts := range []int{0, 1, 5} {
		_, err := j.NewJob(context.Background(), writeUpload(t), "clip.mp4", parts, "sid")
		require.ErrorIs(t, err, service.ErrBadPartCount)
	}

	assert.Empty(t, st.jobs)
}

func TestJobCompletes(t *testing.T) {
	st := newMemStorage()
	uploadDir := t.TempDir()
	outputDir := t.TempDir()

	segments := []models.Segment{
		{Index: 0, Start: 0, End: 30, File: "clip_part1-of-2.mp4"},
		{Index: 1, Start: 30, End: 60, File: "clip_part2-of-2.mp4"},
	}

	j := New(discardLogger(), st, &fakeSplitter{segments: segments}, uploadDir, outputDir, 1)
	defer j.Stop()

	id, err := j.NewJob(context.Background(), writeUpload(t), "clip.mp4", 2, "sid")
	require.NoError(t, err)

	waitDone(t, st)

	got, err := j.Job(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, got.Status)
	assert.Equal(t, segments, got.Segments)
	require.NotNil(t, got.CompletedAt)

	// uploaded source is removed after processing
	assert.Eventually(t, func() bool {
		_, err := os.Stat(filepath.Join(uploadDir, id))
		return os.IsNotExist(err)
	}, 2*time.Second, 10*time.Millisecond)
}

func TestJobFails(t *testing.T) {
	st := newMemStorage()

	splitErr := fmt.Errorf("split: %w", &service.ExtractionError{
		Index:  1,
		Output: "corrupt frame",
		Err:    errors.New("tool failed"),
	})

	j := New(discardLogger(), st, &fakeSplitter{err: splitErr}, t.TempDir(), t.TempDir(), 1)
	defer j.Stop()

	id, err := j.NewJob(context.Background(), writeUpload(t), "clip.mp4", 2, "sid")
	require.NoError(t, err)

	waitDone(t, st)

	got, err := j.Job(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, models.StatusError, got.Status)
	assert.Equal(t, "failed to extract part 2: corrupt frame", got.Error)
}

func TestDeleteJobOwnership(t *testing.T) {
	st := newMemStorage()
	outputDir := t.TempDir()

	j := New(discardLogger(), st, &fakeSplitter{}, t.TempDir(), outputDir, 1)
	defer j.Stop()

	id, err := j.NewJob(context.Background(), writeUpload(t), "clip.mp4", 2, "owner-sid")
	require.NoError(t, err)

	waitDone(t, st)

	err = j.DeleteJob(context.Background(), id, "other-sid")
	require.ErrorIs(t, err, service.ErrNotJobOwner)

	require.NoError(t, j.DeleteJob(context.Background(), id, "owner-sid"))
	assert.NoDirExists(t, filepath.Join(outputDir, id))

	_, err = j.Job(context.Background(), id)
	require.ErrorIs(t, err, service.ErrJobNotFound)
}

func TestJobNotFound(t *testing.T) {
	st := newMemStorage()
	j := New(discardLogger(), st, &fakeSplitter{}, t.TempDir(), t.TempDir(), 1)
	defer j.Stop()

	_, err := j.Job(context.Background(), "no-such-job")
	require.ErrorIs(t, err, service.ErrJobNotFound)
}

func TestUserMessage(t *testing.T) {
	testCases := []struct {
		desc   string
		err    error
		expect string
	}{
		{
			desc: "extraction error with diagnostics",
			err: &service.ExtractionError{
				Index:  0,
				Output: "moov atom not found\n",
				Err:    errors.New("exit status 1"),
			},
			expect: "failed to extract part 1: moov atom not found",
		},
		{
			desc:   "probe error",
			err:    fmt.Errorf("op: %w", service.ErrProbe),
			expect: "cannot determine video duration",
		},
		{
			desc:   "bad part count",
			err:    service.ErrBadPartCount,
			expect: "part count must be between 2 and 4",
		},
		{
			desc:   "unknown error",
			err:    errors.New("boom"),
			expect: "unexpected error while processing the video",
		},
	}

	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			assert.Equal(t, tC.expect, userMessage(tC.err))
		})
	}
}
