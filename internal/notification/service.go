package notification

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/fkhayef/groupledger/internal/apperr"
	"github.com/fkhayef/groupledger/internal/models"
	"github.com/fkhayef/groupledger/internal/storage"
)

// Common errors
var (
	ErrNotificationNotFound = apperr.NotFound("notification not found")
	ErrNotRecipient         = apperr.Authorization("not the recipient of this notification")
)

// Service handles notification business logic. Notifications are written by
// the ledger services inside their transactions; this service only reads and
// acknowledges them.
type Service struct {
	store storage.Store
}

// NewService creates a new notification service
func NewService(store storage.Store) *Service {
	return &Service{store: store}
}

// ListByRecipientID retrieves a page of a user's notifications, newest first,
// along with the total matching and the unread count.
func (s *Service) ListByRecipientID(ctx context.Context, recipientID uuid.UUID, page models.Page, unreadOnly bool) ([]*NotificationResponse, int, int, error) {
	notifications, total, err := s.store.ListNotifications(ctx, recipientID, unreadOnly, page)
	if err != nil {
		return nil, 0, 0, err
	}
	unread, err := s.store.UnreadNotificationCount(ctx, recipientID)
	if err != nil {
		return nil, 0, 0, err
	}

	out := make([]*NotificationResponse, len(notifications))
	for i := range notifications {
		out[i] = toResponse(&notifications[i])
	}
	return out, total, unread, nil
}

// MarkAsRead marks a notification as read. Only its recipient may do so.
func (s *Service) MarkAsRead(ctx context.Context, id, userID uuid.UUID) error {
	n, err := s.store.GetNotification(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrNotificationNotFound
		}
		return err
	}
	if n.RecipientID != userID {
		return ErrNotRecipient
	}
	if n.IsRead {
		return nil
	}
	return s.store.MarkNotificationRead(ctx, id)
}

// MarkAllAsRead marks all notifications as read for a user
func (s *Service) MarkAllAsRead(ctx context.Context, userID uuid.UUID) error {
	return s.store.MarkAllNotificationsRead(ctx, userID)
}

// GetUnreadCount returns the count of unread notifications
func (s *Service) GetUnreadCount(ctx context.Context, userID uuid.UUID) (int, error) {
	return s.store.UnreadNotificationCount(ctx, userID)
}
