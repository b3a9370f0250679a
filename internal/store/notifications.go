package store

import (
	"context"
	"fmt"

	"github.com/erazemk/igralnica/internal/docstore"
	"github.com/erazemk/igralnica/internal/model"
)

func unreadQuery() docstore.Query {
	return docstore.From(CollectionNotifications).
		Where("read", docstore.Eq, false).
		Order(docstore.Desc("createdAt"))
}

// ListUnread returns unread notifications, newest first.
func ListUnread(ctx context.Context, ds docstore.Store) ([]model.Notification, error) {
	return list[model.Notification](ctx, ds, unreadQuery())
}

// SubscribeUnread streams unread notifications, newest first.
func SubscribeUnread(ctx context.Context, ds docstore.Store) (*docstore.Subscription, error) {
	return ds.Subscribe(ctx, unreadQuery())
}

// GetNotification returns a notification by ID, or nil.
func GetNotification(ctx context.Context, ds docstore.Store, id string) (*model.Notification, error) {
	return get[model.Notification](ctx, ds, CollectionNotifications, id)
}

// MarkRead marks a notification read.
func MarkRead(ctx context.Context, ds docstore.Store, id string) error {
	err := ds.Update(ctx, CollectionNotifications, id, map[string]any{
		"read":   true,
		"readAt": model.Timestamp(now()),
	})
	if err != nil {
		return fmt.Errorf("marking notification read: %w", err)
	}
	return nil
}
