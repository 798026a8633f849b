// internal/repository/postgres/notification_pg.go
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"bidmarket/internal/domain"
	"bidmarket/internal/repository"
)

type notificationRow struct {
	ID           string    `db:"id"`
	UserID       uuid.UUID `db:"user_id"`
	Type         string    `db:"type"`
	Title        string    `db:"title"`
	Message      string    `db:"message"`
	RelatedID    uuid.UUID `db:"related_id"`
	RelatedModel string    `db:"related_model"`
	CreatedAt    time.Time `db:"created_at"`
}

// NotificationRepository implements repository.NotificationRepository for PostgreSQL.
type NotificationRepository struct{}

// NewNotificationRepository creates a new NotificationRepository.
func NewNotificationRepository(db *sqlx.DB) repository.NotificationRepository {
	return &NotificationRepository{}
}

// InsertNotifications stores each intent once. A redelivered intent hits the primary key and is skipped.
func (r *NotificationRepository) InsertNotifications(ctx context.Context, q repository.DBExecutor, intents []domain.NotificationIntent) error {
	query := `INSERT INTO notifications (id, user_id, type, title, message, related_id, related_model, created_at)
              VALUES (:id, :user_id, :type, :title, :message, :related_id, :related_model, :created_at)
              ON CONFLICT (id) DO NOTHING`
	for _, intent := range intents {
		row := notificationRow{
			ID:           intent.ID.String(),
			UserID:       intent.UserID,
			Type:         string(intent.Type),
			Title:        intent.Title,
			Message:      intent.Message,
			RelatedID:    intent.RelatedID,
			RelatedModel: intent.RelatedModel,
			CreatedAt:    intent.CreatedAt,
		}
		if _, err := q.NamedExecContext(ctx, query, row); err != nil {
			return fmt.Errorf("failed to insert notification %s: %w", row.ID, err)
		}
	}
	return nil
}
