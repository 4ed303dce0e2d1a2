// internal/service/errors.go
package service

import (
	"errors"

	"printer-service/internal/model"
)

var (
	ErrInvalidRequest  = errors.New("invalid request")
	ErrQueueFull       = errors.New("printer queue is full")
	ErrPrinterNotFound = errors.New("printer has no session")
	ErrServiceClosed   = errors.New("print service is shutting down")
)

// EventPublisher receives printer and job events
type EventPublisher interface {
	Publish(event model.Event)
}

type nopPublisher struct{}

func (nopPublisher) Publish(model.Event) {}
