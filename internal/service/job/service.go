package job

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/GintGld/video-splitter/internal/lib/logger/sl"
	"github.com/GintGld/video-splitter/internal/models"
	"github.com/GintGld/video-splitter/internal/service"
	"github.com/GintGld/video-splitter/internal/storage"
)

const taskQueueLen = 16

// Job owns the lifecycle of split jobs: it persists registry rows,
// runs splits on a bounded worker pool and serves job state.
type Job struct {
	log        *slog.Logger
	jobStorage JobStorage
	splitter   Splitter
	uploadDir  string
	outputDir  string

	tasks chan task
	wg    sync.WaitGroup
}

type JobStorage interface {
	SaveJob(ctx context.Context, job models.Job) error
	CompleteJob(ctx context.Context, id string, completedAt time.Time, segments []models.Segment) error
	FailJob(ctx context.Context, id string, message string, completedAt time.Time) error
	Job(ctx context.Context, id string) (models.Job, error)
	AllJobs(ctx context.Context) ([]models.Job, error)
	DeleteJob(ctx context.Context, id string) error
}

type Splitter interface {
	Split(ctx context.Context, inputPath, outDir string, parts int) ([]models.Segment, error)
}

type task struct {
	id    string
	src   string
	parts int
}

func New(
	log *slog.Logger,
	jobStorage JobStorage,
	splitter Splitter,
	uploadDir string,
	outputDir string,
	workers int,
) *Job {
	if workers < 1 {
		workers = 1
	}

	for _, dir := range []string{uploadDir, outputDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Error("failed to create storage dir", slog.String("dir", dir), sl.Err(err))
		}
	}

	j := &Job{
		log:        log,
		jobStorage: jobStorage,
		splitter:   splitter,
		uploadDir:  uploadDir,
		outputDir:  outputDir,
		tasks:      make(chan task, taskQueueLen),
	}

	for i := 0; i < workers; i++ {
		j.wg.Add(1)
		go j.worker()
	}

	return j
}

// Stop drains the task queue and waits for running jobs to finish.
func (j *Job) Stop() {
	close(j.tasks)
	j.wg.Wait()
}

// NewJob registers a new split job and queues it for processing.
// srcPath is a temporary file already saved by the caller; it is
// moved under the uploads root before this function returns.
func (j *Job) NewJob(ctx context.Context, srcPath, originalName string, parts int, owner string) (string, error) {
	const op = "Job.NewJob"

	log := j.log.With(
		slog.String("op", op),
		slog.String("name", originalName),
	)

	if parts < models.MinParts || parts > models.MaxParts {
		log.Warn("rejected part count", slog.Int("parts", parts))
		return "", fmt.Errorf("%s: %w", op, service.ErrBadPartCount)
	}

	id := uuid.NewString()

	name := filepath.Base(originalName)
	if name == "." || name == string(filepath.Separator) || name == "" {
		name = "video.mp4"
	}

	dstDir := filepath.Join(j.uploadDir, id)
	if err := os.MkdirAll(dstDir, 0755); err != nil {
		log.Error("failed to create upload dir", sl.Err(err))
		return "", fmt.Errorf("%s: %w", op, err)
	}

	dst := filepath.Join(dstDir, name)
	if err := copyFile(srcPath, dst); err != nil {
		log.Error("failed to save upload", sl.Err(err))
		return "", fmt.Errorf("%s: %w", op, err)
	}

	newJob := models.Job{
		ID:        id,
		Name:      name,
		Parts:     parts,
		Status:    models.StatusProcessing,
		Owner:     owner,
		CreatedAt: time.Now().UTC(),
	}

	if err := j.jobStorage.SaveJob(ctx, newJob); err != nil {
		log.Error("failed to save job", sl.Err(err))
		os.RemoveAll(dstDir)
		return "", fmt.Errorf("%s: %w", op, err)
	}

	j.tasks <- task{id: id, src: dst, parts: parts}

	log.Info("queued job", slog.String("id", id), slog.Int("parts", parts))

	return id, nil
}

// Job returns job state with its segments.
func (j *Job) Job(ctx context.Context, id string) (models.Job, error) {
	const op = "Job.Job"

	log := j.log.With(
		slog.String("op", op),
		slog.String("id", id),
	)

	job, err := j.jobStorage.Job(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrJobNotFound) {
			log.Warn("job not found")
			return models.Job{}, service.ErrJobNotFound
		}
		log.Error("failed to get job", sl.Err(err))
		return models.Job{}, fmt.Errorf("%s: %w", op, err)
	}

	return job, nil
}

// SearchJobs returns jobs filtered and ranked by filter criteria.
func (j *Job) SearchJobs(ctx context.Context, filter models.JobFilter) ([]models.Job, error) {
	const op = "Job.SearchJobs"

	log := j.log.With(
		slog.String("op", op),
	)

	jobs, err := j.jobStorage.AllJobs(ctx)
	if err != nil {
		log.Error("failed to get jobs", sl.Err(err))
		return []models.Job{}, fmt.Errorf("%s: %w", op, err)
	}

	if filter.Name != "" {
		ranked := filterRank(jobs, filter)
		jobs = make([]models.Job, 0, len(ranked))
		for _, r := range ranked {
			jobs = append(jobs, r.job)
		}
	}

	if filter.MaxRespLen > 0 && len(jobs) > filter.MaxRespLen {
		jobs = jobs[:filter.MaxRespLen]
	}

	return jobs, nil
}

// SegmentPath returns absolute path of one produced part.
func (j *Job) SegmentPath(ctx context.Context, id string, index int) (string, error) {
	const op = "Job.SegmentPath"

	job, err := j.Job(ctx, id)
	if err != nil {
		return "", err
	}

	for _, seg := range job.Segments {
		if seg.Index == index {
			return filepath.Join(j.outputDir, id, seg.File), nil
		}
	}

	return "", fmt.Errorf("%s: %w", op, service.ErrSegmentNotFound)
}

// DeleteJob removes job outputs and its registry row.
// Only the session that created the job may delete it.
func (j *Job) DeleteJob(ctx context.Context, id string, owner string) error {
	const op = "Job.DeleteJob"

	log := j.log.With(
		slog.String("op", op),
		slog.String("id", id),
	)

	job, err := j.Job(ctx, id)
	if err != nil {
		return err
	}

	if job.Owner != owner {
		log.Warn("delete rejected, owner mismatch")
		return service.ErrNotJobOwner
	}

	if err := os.RemoveAll(filepath.Join(j.outputDir, id)); err != nil {
		log.Error("failed to remove output dir", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := j.jobStorage.DeleteJob(ctx, id); err != nil {
		if errors.Is(err, storage.ErrJobNotFound) {
			return service.ErrJobNotFound
		}
		log.Error("failed to delete job", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	log.Info("deleted job")

	return nil
}

func (j *Job) worker() {
	defer j.wg.Done()

	for t := range j.tasks {
		j.process(context.Background(), t)
	}
}

func (j *Job) process(ctx context.Context, t task) {
	const op = "Job.process"

	log := j.log.With(
		slog.String("op", op),
		slog.String("id", t.id),
	)

	log.Info("processing job")

	outDir := filepath.Join(j.outputDir, t.id)

	segments, err := j.splitter.Split(ctx, t.src, outDir, t.parts)
	completedAt := time.Now().UTC()

	if err != nil {
		log.Error("job failed", sl.Err(err))
		if err := j.jobStorage.FailJob(ctx, t.id, userMessage(err), completedAt); err != nil {
			log.Error("failed to mark job as failed", sl.Err(err))
		}
	} else {
		if err := j.jobStorage.CompleteJob(ctx, t.id, completedAt, segments); err != nil {
			log.Error("failed to mark job as completed", sl.Err(err))
		} else {
			log.Info("job completed", slog.Int("segments", len(segments)))
		}
	}

	// uploaded source is not needed after processing
	if err := os.RemoveAll(filepath.Dir(t.src)); err != nil {
		log.Warn("failed to remove uploaded source", sl.Err(err))
	}
}

// userMessage maps internal errors to messages shown to the user.
func userMessage(err error) string {
	var extErr *service.ExtractionError

	switch {
	case errors.As(err, &extErr):
		msg := fmt.Sprintf("failed to extract part %d", extErr.Index+1)
		if out := strings.TrimSpace(extErr.Output); out != "" {
			msg += ": " + out
		}
		return msg
	case errors.Is(err, service.ErrProbe):
		return "cannot determine video duration"
	case errors.Is(err, service.ErrBadPartCount):
		return fmt.Sprintf("part count must be between %d and %d", models.MinParts, models.MaxParts)
	case errors.Is(err, service.ErrSourceNotFound):
		return "source file not found"
	default:
		return "unexpected error while processing the video"
	}
}

func copyFile(srcPath, dstPath string) error {
	src, err := os.Open(srcPath)
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.Create(dstPath)
	if err != nil {
		return err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return err
	}

	return nil
}
