// internal/repository/job_repository.go
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"printer-service/internal/database"
	"printer-service/internal/model"
)

// jobRepository stores jobs in the print_jobs table
type jobRepository struct {
	db     *database.DB
	logger *zap.Logger
}

// NewJobRepository creates a Postgres backed repository
func NewJobRepository(db *database.DB, logger *zap.Logger) JobRepository {
	return &jobRepository{
		db:     db,
		logger: logger,
	}
}

const jobColumns = `id, printer_id, transport, order_id, order_reference, command_set,
	template, status, attempts, bytes_written, error_code, error_message,
	metadata, created_at, started_at, completed_at, duration_ms`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*model.PrintJob, error) {
	job := &model.PrintJob{}
	err := row.Scan(
		&job.ID, &job.PrinterID, &job.Transport, &job.OrderID, &job.OrderReference,
		&job.CommandSet, &job.Template, &job.Status, &job.Attempts, &job.BytesWritten,
		&job.ErrorCode, &job.ErrorMessage, &job.Metadata, &job.CreatedAt,
		&job.StartedAt, &job.CompletedAt, &job.DurationMs,
	)
	return job, err
}

// Create inserts a new job
func (r *jobRepository) Create(ctx context.Context, job *model.PrintJob) error {
	query := `
		INSERT INTO print_jobs (` + jobColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`

	_, err := r.db.ExecContext(ctx, query,
		job.ID, job.PrinterID, job.Transport, job.OrderID, job.OrderReference,
		job.CommandSet, job.Template, job.Status, job.Attempts, job.BytesWritten,
		job.ErrorCode, job.ErrorMessage, job.Metadata, job.CreatedAt,
		job.StartedAt, job.CompletedAt, job.DurationMs,
	)
	if err != nil {
		r.logger.Error("Failed to create print job", zap.Error(err))
		return fmt.Errorf("failed to create print job: %w", err)
	}
	return nil
}

// Update stores the job's mutable fields
func (r *jobRepository) Update(ctx context.Context, job *model.PrintJob) error {
	query := `
		UPDATE print_jobs SET
			printer_id = $2, status = $3, attempts = $4, bytes_written = $5,
			error_code = $6, error_message = $7, metadata = $8,
			started_at = $9, completed_at = $10, duration_ms = $11
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query,
		job.ID, job.PrinterID, job.Status, job.Attempts, job.BytesWritten,
		job.ErrorCode, job.ErrorMessage, job.Metadata,
		job.StartedAt, job.CompletedAt, job.DurationMs,
	)
	if err != nil {
		return fmt.Errorf("failed to update print job: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrJobNotFound, job.ID)
	}
	return nil
}

// GetByID loads one job
func (r *jobRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.PrintJob, error) {
	query := `SELECT ` + jobColumns + ` FROM print_jobs WHERE id = $1`

	job, err := scanJob(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrJobNotFound, id)
		}
		return nil, fmt.Errorf("failed to get print job: %w", err)
	}
	return job, nil
}

// List returns one page of jobs, newest first
func (r *jobRepository) List(ctx context.Context, filter *JobFilter) ([]*model.PrintJob, int, error) {
	f := JobFilter{}
	if filter != nil {
		f = *filter
	}
	f.normalize()

	where, args := f.whereClause()

	var total int
	countQuery := "SELECT COUNT(*) FROM print_jobs " + where
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count print jobs: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s FROM print_jobs %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, jobColumns, where, len(args)+1, len(args)+2)
	args = append(args, f.PerPage, f.offset())

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list print jobs: %w", err)
	}
	defer rows.Close()

	jobs := []*model.PrintJob{}
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			r.logger.Error("Failed to scan print job row", zap.Error(err))
			continue
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to read print jobs: %w", err)
	}

	return jobs, total, nil
}

// DeleteOlderThan removes completed jobs created before t
func (r *jobRepository) DeleteOlderThan(ctx context.Context, t time.Time) (int64, error) {
	query := `DELETE FROM print_jobs WHERE created_at < $1 AND status IN ($2, $3)`

	result, err := r.db.ExecContext(ctx, query, t, model.JobStatusSuccess, model.JobStatusFailed)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old print jobs: %w", err)
	}
	return result.RowsAffected()
}

// whereClause renders the filter as numbered Postgres placeholders
func (f *JobFilter) whereClause() (string, []any) {
	var conds []string
	var args []any

	if f.PrinterID != nil {
		args = append(args, *f.PrinterID)
		conds = append(conds, fmt.Sprintf("printer_id = $%d", len(args)))
	}
	if f.Status != nil {
		args = append(args, *f.Status)
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	if f.Since != nil {
		args = append(args, *f.Since)
		conds = append(conds, fmt.Sprintf("created_at >= $%d", len(args)))
	}

	if len(conds) == 0 {
		return "", nil
	}
	return "WHERE " + strings.Join(conds, " AND "), args
}
