// internal/repository/interfaces.go
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"printer-service/internal/model"
)

// ErrJobNotFound is returned when no job has the requested id
var ErrJobNotFound = errors.New("print job not found")

// JobRepository stores print job history
type JobRepository interface {
	Create(ctx context.Context, job *model.PrintJob) error
	Update(ctx context.Context, job *model.PrintJob) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.PrintJob, error)

	// List returns one page of jobs, newest first, and the total match count
	List(ctx context.Context, filter *JobFilter) ([]*model.PrintJob, int, error)

	// DeleteOlderThan removes completed jobs created before t
	DeleteOlderThan(ctx context.Context, t time.Time) (int64, error)
}

// JobFilter narrows a job listing
type JobFilter struct {
	PrinterID *string          `json:"printer_id,omitempty"`
	Status    *model.JobStatus `json:"status,omitempty"`
	Since     *time.Time       `json:"since,omitempty"`
	Page      int              `json:"page"`
	PerPage   int              `json:"per_page"`
}

const (
	defaultPerPage = 50
	maxPerPage     = 500
)

// normalize fills paging defaults
func (f *JobFilter) normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PerPage < 1 {
		f.PerPage = defaultPerPage
	}
	if f.PerPage > maxPerPage {
		f.PerPage = maxPerPage
	}
}

func (f *JobFilter) offset() int {
	return (f.Page - 1) * f.PerPage
}
