package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"

	ptr "github.com/GintGld/video-splitter/internal/lib/utils/pointers"
	"github.com/GintGld/video-splitter/internal/models"
	"github.com/GintGld/video-splitter/internal/storage"
)

// SaveJob saves a new job in processing state.
func (s *Storage) SaveJob(ctx context.Context, job models.Job) error {
	const op = "storage.sqlite.SaveJob"

	stmt, err := s.db.Prepare(`
		INSERT INTO jobs(id, name, parts, status, error, owner, created_at)
		VALUES(?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer stmt.Close()

	_, err = stmt.ExecContext(ctx,
		job.ID, job.Name, job.Parts, job.Status, job.Error, job.Owner, job.CreatedAt.Unix(),
	)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey {
			return fmt.Errorf("%s: %w", op, storage.ErrJobExists)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// CompleteJob marks job as completed and saves its segments.
func (s *Storage) CompleteJob(ctx context.Context, id string, completedAt time.Time, segments []models.Segment) error {
	const op = "storage.sqlite.CompleteJob"

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE jobs SET status = ?, completed_at = ? WHERE id = ?
	`, models.StatusCompleted, completedAt.Unix(), id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	} else if n == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrJobNotFound)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO segments(job_id, idx, start, stop, file)
		VALUES(?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer stmt.Close()

	for _, seg := range segments {
		if _, err := stmt.ExecContext(ctx, id, seg.Index, seg.Start, seg.End, seg.File); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// FailJob marks job as failed with a user-facing message.
func (s *Storage) FailJob(ctx context.Context, id string, message string, completedAt time.Time) error {
	const op = "storage.sqlite.FailJob"

	stmt, err := s.db.Prepare(`
		UPDATE jobs SET status = ?, error = ?, completed_at = ? WHERE id = ?
	`)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer stmt.Close()

	res, err := stmt.ExecContext(ctx, models.StatusError, message, completedAt.Unix(), id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	} else if n == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrJobNotFound)
	}

	return nil
}

// Job returns job with its segments by id.
func (s *Storage) Job(ctx context.Context, id string) (models.Job, error) {
	const op = "storage.sqlite.Job"

	stmt, err := s.db.Prepare(`
		SELECT id, name, parts, status, error, owner, created_at, completed_at
		FROM jobs WHERE id = ?
	`)
	if err != nil {
		return models.Job{}, fmt.Errorf("%s: %w", op, err)
	}
	defer stmt.Close()

	row := stmt.QueryRowContext(ctx, id)

	job, err := scanJob(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Job{}, fmt.Errorf("%s: %w", op, storage.ErrJobNotFound)
		}

		return models.Job{}, fmt.Errorf("%s: %w", op, err)
	}

	segments, err := s.jobSegments(ctx, id)
	if err != nil {
		return models.Job{}, fmt.Errorf("%s: %w", op, err)
	}
	job.Segments = segments

	return job, nil
}

// AllJobs returns all registered jobs without segments.
func (s *Storage) AllJobs(ctx context.Context) ([]models.Job, error) {
	const op = "storage.sqlite.AllJobs"

	stmt, err := s.db.Prepare(`
		SELECT id, name, parts, status, error, owner, created_at, completed_at
		FROM jobs ORDER BY created_at DESC
	`)
	if err != nil {
		return []models.Job{}, fmt.Errorf("%s: %w", op, err)
	}
	defer stmt.Close()

	rows, err := stmt.QueryContext(ctx)
	if err != nil {
		return []models.Job{}, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	jobs := make([]models.Job, 0)
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return jobs, fmt.Errorf("%s: %w", op, err)
		}
		jobs = append(jobs, job)
	}

	return jobs, nil
}

// DeleteJob deletes job and its segments.
func (s *Storage) DeleteJob(ctx context.Context, id string) error {
	const op = "storage.sqlite.DeleteJob"

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM segments WHERE job_id = ?", id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	res, err := tx.ExecContext(ctx, "DELETE FROM jobs WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	} else if n == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrJobNotFound)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *Storage) jobSegments(ctx context.Context, id string) ([]models.Segment, error) {
	const op = "storage.sqlite.jobSegments"

	stmt, err := s.db.Prepare(`
		SELECT idx, start, stop, file
		FROM segments WHERE job_id = ? ORDER BY idx
	`)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer stmt.Close()

	rows, err := stmt.QueryContext(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	segments := make([]models.Segment, 0)
	var seg models.Segment
	for rows.Next() {
		if err := rows.Scan(&seg.Index, &seg.Start, &seg.End, &seg.File); err != nil {
			return segments, fmt.Errorf("%s: %w", op, err)
		}
		segments = append(segments, seg)
	}

	return segments, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (models.Job, error) {
	var (
		job         models.Job
		createdAt   int64
		completedAt sql.NullInt64
	)

	err := row.Scan(
		&job.ID, &job.Name, &job.Parts, &job.Status, &job.Error,
		&job.Owner, &createdAt, &completedAt,
	)
	if err != nil {
		return models.Job{}, err
	}

	job.CreatedAt = time.Unix(createdAt, 0).UTC()
	if completedAt.Valid {
		job.CompletedAt = ptr.Ptr(time.Unix(completedAt.Int64, 0).UTC())
	}

	return job, nil
}
