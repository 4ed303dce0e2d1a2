// internal/model/job.go
package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// JobStatus represents the lifecycle state of a print job
type JobStatus string

const (
	JobStatusQueued   JobStatus = "QUEUED"
	JobStatusPrinting JobStatus = "PRINTING"
	JobStatusSuccess  JobStatus = "SUCCESS"
	JobStatusFailed   JobStatus = "FAILED"
)

// PrintJob records one receipt print request
type PrintJob struct {
	ID             uuid.UUID     `json:"id" db:"id"`
	PrinterID      string        `json:"printer_id" db:"printer_id"`
	Transport      TransportKind `json:"transport" db:"transport"`
	OrderID        string        `json:"order_id" db:"order_id"`
	OrderReference string        `json:"order_reference" db:"order_reference"`
	CommandSet     string        `json:"command_set" db:"command_set"`
	Template       Template      `json:"template" db:"template"`
	Status         JobStatus     `json:"status" db:"status"`
	Attempts       int           `json:"attempts" db:"attempts"`
	BytesWritten   int64         `json:"bytes_written" db:"bytes_written"`
	ErrorCode      *string       `json:"error_code,omitempty" db:"error_code"`
	ErrorMessage   *string       `json:"error_message,omitempty" db:"error_message"`
	Metadata       JSONObject    `json:"metadata,omitempty" db:"metadata"`
	CreatedAt      time.Time     `json:"created_at" db:"created_at"`
	StartedAt      *time.Time    `json:"started_at,omitempty" db:"started_at"`
	CompletedAt    *time.Time    `json:"completed_at,omitempty" db:"completed_at"`
	DurationMs     *int          `json:"duration_ms,omitempty" db:"duration_ms"`
}

// IsCompleted checks if the job reached a final state
func (j *PrintJob) IsCompleted() bool {
	return j.Status == JobStatusSuccess || j.Status == JobStatusFailed
}

// Clone returns a copy detached from the worker that owns the job
func (j *PrintJob) Clone() *PrintJob {
	cp := *j
	if j.Metadata != nil {
		cp.Metadata = make(JSONObject, len(j.Metadata))
		for k, v := range j.Metadata {
			cp.Metadata[k] = v
		}
	}
	return &cp
}

// JSONObject type for PostgreSQL JSONB objects
type JSONObject map[string]interface{}

func (j *JSONObject) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}

	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into JSONObject", value)
	}
	return json.Unmarshal(data, j)
}

func (j JSONObject) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}
