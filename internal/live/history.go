package live

import (
	"context"
	"time"

	messages "frontdesk/internal/messages/repository"
	notifications "frontdesk/internal/notifications/repository"
	"frontdesk/pkg/model"
)

// History re-reads what a recipient was sent since a point in time.
type History interface {
	MessagesSince(ctx context.Context, recipientID string, since time.Time) ([]*model.Message, error)
	NotificationsSince(ctx context.Context, recipientID string, since time.Time) ([]*model.Notification, error)
}

type repositoryHistory struct {
	messages      messages.MessageRepository
	notifications notifications.NotificationRepository
}

func NewRepositoryHistory(messages messages.MessageRepository, notifications notifications.NotificationRepository) History {
	return &repositoryHistory{messages: messages, notifications: notifications}
}

func (h *repositoryHistory) MessagesSince(ctx context.Context, recipientID string, since time.Time) ([]*model.Message, error) {
	return h.messages.FindSince(ctx, recipientID, since)
}

func (h *repositoryHistory) NotificationsSince(ctx context.Context, recipientID string, since time.Time) ([]*model.Notification, error) {
	return h.notifications.FindSince(ctx, recipientID, since)
}
