// internal/repository/memory_repository.go
package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"printer-service/internal/model"
)

// memoryJobRepository keeps job history in process memory
type memoryJobRepository struct {
	mu     sync.RWMutex
	jobs   map[uuid.UUID]*model.PrintJob
	logger *zap.Logger
}

// NewMemoryJobRepository creates an empty in-memory repository
func NewMemoryJobRepository(logger *zap.Logger) JobRepository {
	return &memoryJobRepository{
		jobs:   make(map[uuid.UUID]*model.PrintJob),
		logger: logger,
	}
}

func (r *memoryJobRepository) Create(ctx context.Context, job *model.PrintJob) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.jobs[job.ID]; exists {
		return fmt.Errorf("print job %s already exists", job.ID)
	}
	r.jobs[job.ID] = job.Clone()
	return nil
}

func (r *memoryJobRepository) Update(ctx context.Context, job *model.PrintJob) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.jobs[job.ID]; !exists {
		return fmt.Errorf("%w: %s", ErrJobNotFound, job.ID)
	}
	r.jobs[job.ID] = job.Clone()
	return nil
}

func (r *memoryJobRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.PrintJob, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	job, ok := r.jobs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}
	return job.Clone(), nil
}

func (r *memoryJobRepository) List(ctx context.Context, filter *JobFilter) ([]*model.PrintJob, int, error) {
	f := JobFilter{}
	if filter != nil {
		f = *filter
	}
	f.normalize()

	r.mu.RLock()
	matched := make([]*model.PrintJob, 0, len(r.jobs))
	for _, job := range r.jobs {
		if f.PrinterID != nil && job.PrinterID != *f.PrinterID {
			continue
		}
		if f.Status != nil && job.Status != *f.Status {
			continue
		}
		if f.Since != nil && job.CreatedAt.Before(*f.Since) {
			continue
		}
		matched = append(matched, job.Clone())
	}
	r.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := len(matched)
	start := min(f.offset(), total)
	end := min(start+f.PerPage, total)
	return matched[start:end], total, nil
}

func (r *memoryJobRepository) DeleteOlderThan(ctx context.Context, t time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for id, job := range r.jobs {
		if job.IsCompleted() && job.CreatedAt.Before(t) {
			delete(r.jobs, id)
			n++
		}
	}
	if n > 0 {
		r.logger.Debug("Deleted old print jobs", zap.Int64("count", n))
	}
	return n, nil
}
