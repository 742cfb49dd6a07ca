package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"schedule-agent/core/database"
	"schedule-agent/core/logger"
	"schedule-agent/modules/notification/entity"
)

type NotificationRepository struct {
	db  database.Database
	now func() time.Time
}

func NewNotificationRepository(db database.Database) *NotificationRepository {
	return &NotificationRepository{db: db, now: time.Now}
}

func (r *NotificationRepository) timestamp() string {
	return r.now().UTC().Format(time.RFC3339)
}

func (r *NotificationRepository) Create(ctx context.Context, n *entity.Notification) error {
	n.CreatedAt = r.timestamp()
	n.UpdatedAt = n.CreatedAt
	query := `
		INSERT INTO notifications (id, recipient, subject, body, status, attempts, last_error, created_at, updated_at)
		VALUES (:id, :recipient, :subject, :body, :status, :attempts, :last_error, :created_at, :updated_at)
	`
	if _, err := r.db.NamedExecContext(ctx, query, n); err != nil {
		logger.Error("NotificationRepository:Create:Error", "error", err)
		return err
	}
	return nil
}

// GetByID returns nil, nil when the notification does not exist.
func (r *NotificationRepository) GetByID(ctx context.Context, id string) (*entity.Notification, error) {
	var n entity.Notification
	err := r.db.GetContext(ctx, &n, r.db.Rebind(`SELECT * FROM notifications WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		logger.Error("NotificationRepository:GetByID:Error", "error", err)
		return nil, err
	}
	return &n, nil
}

func (r *NotificationRepository) ListByRecipient(ctx context.Context, recipient string, limit int) ([]entity.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	notifications := []entity.Notification{}
	query := r.db.Rebind(`
		SELECT * FROM notifications
		WHERE recipient = ?
		ORDER BY created_at DESC, id
		LIMIT ?
	`)
	if err := r.db.SelectContext(ctx, &notifications, query, recipient, limit); err != nil {
		logger.Error("NotificationRepository:ListByRecipient:Error", "error", err)
		return nil, err
	}
	return notifications, nil
}

// MarkAttempt records one delivery attempt and its outcome.
func (r *NotificationRepository) MarkAttempt(ctx context.Context, id string, status entity.NotificationStatus, lastError string) error {
	query := r.db.Rebind(`
		UPDATE notifications
		SET status = ?, attempts = attempts + 1, last_error = ?, updated_at = ?
		WHERE id = ?
	`)
	if err := r.db.ExecContext(ctx, query, status, lastError, r.timestamp(), id); err != nil {
		logger.Error("NotificationRepository:MarkAttempt:Error", "error", err)
		return err
	}
	return nil
}
