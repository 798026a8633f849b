// internal/notify/emitter.go
package notify

import (
	"context"

	"bidmarket/internal/domain"
	"bidmarket/internal/repository"
)

// Emitter delivers notification intents somewhere durable.
type Emitter interface {
	Emit(ctx context.Context, intents []domain.NotificationIntent) error
}

// StoreEmitter persists intents as notification rows.
type StoreEmitter struct {
	db   repository.DBExecutor
	repo repository.NotificationRepository
}

// NewStoreEmitter creates an emitter writing through repo on db.
func NewStoreEmitter(db repository.DBExecutor, repo repository.NotificationRepository) *StoreEmitter {
	return &StoreEmitter{db: db, repo: repo}
}

// Emit stores the intents. Intents already stored are skipped, so a retried Emit is harmless.
func (e *StoreEmitter) Emit(ctx context.Context, intents []domain.NotificationIntent) error {
	if len(intents) == 0 {
		return nil
	}
	return e.repo.InsertNotifications(ctx, e.db, intents)
}
