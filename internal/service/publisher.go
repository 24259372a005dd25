// Package service holds the business rules behind each procedure.
package service

import (
	"context"

	"inkwell/internal/events"
	"inkwell/internal/models"
	"inkwell/internal/repository"
)

// EventPublisher receives domain events after their write commits.
type EventPublisher interface {
	Publish(ctx context.Context, e events.Event)
}

type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, events.Event) {}

func publisherOrNoop(p EventPublisher) EventPublisher {
	if p == nil {
		return noopPublisher{}
	}
	return p
}

// notFound converts a missing-row error into the given AppError and passes
// every other error through.
func notFound(err error, appErr *models.AppError) error {
	if repository.IsNotFound(err) {
		return appErr
	}
	return err
}

// conflict converts a unique violation into a conflict AppError.
func conflict(err error, message string) error {
	if repository.IsUniqueViolation(err) {
		return models.NewConflictError(message)
	}
	return err
}
