// internal/model/event.go
package model

import (
	"time"

	"github.com/google/uuid"
)

// EventType represents the type of event
type EventType string

const (
	EventPrinterConnected    EventType = "PRINTER_CONNECTED"
	EventPrinterDisconnected EventType = "PRINTER_DISCONNECTED"
	EventJobQueued           EventType = "JOB_QUEUED"
	EventJobStarted          EventType = "JOB_STARTED"
	EventJobCompleted        EventType = "JOB_COMPLETED"
	EventJobFailed           EventType = "JOB_FAILED"
)

// Event is published to websocket subscribers
type Event struct {
	ID        uuid.UUID  `json:"id"`
	Type      EventType  `json:"type"`
	PrinterID string     `json:"printer_id,omitempty"`
	JobID     *uuid.UUID `json:"job_id,omitempty"`
	Data      JSONObject `json:"data,omitempty"`
	Timestamp time.Time  `json:"timestamp"`
	Severity  string     `json:"severity"` // INFO, WARNING, ERROR
}

// NewEvent stamps a new event
func NewEvent(eventType EventType, printerID string, data JSONObject) Event {
	severity := "INFO"
	switch eventType {
	case EventJobFailed:
		severity = "ERROR"
	case EventPrinterDisconnected:
		severity = "WARNING"
	}

	return Event{
		ID:        uuid.New(),
		Type:      eventType,
		PrinterID: printerID,
		Data:      data,
		Timestamp: time.Now(),
		Severity:  severity,
	}
}
