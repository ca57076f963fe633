package services

import (
	"context"
	"fmt"
	"net/url"

	"github.com/scribeworks/scribe/internal/api"
)

// NotificationService wraps the notification endpoints.
type NotificationService struct {
	client *api.Client
	root   string
}

// NewNotificationService creates a notification service rooted at the given
// endpoint prefix (e.g. "/notifications").
func NewNotificationService(client *api.Client, root string) *NotificationService {
	if root == "" {
		root = "/notifications"
	}
	return &NotificationService{client: client, root: root}
}

// List retrieves the user's notifications, unread first.
func (s *NotificationService) List(ctx context.Context) ([]Notification, error) {
	var notifications []Notification
	if err := s.client.Get(ctx, s.root+"/", &notifications); err != nil {
		return nil, err
	}
	return notifications, nil
}

// MarkRead marks one notification as read.
func (s *NotificationService) MarkRead(ctx context.Context, id string) error {
	endpoint := fmt.Sprintf("%s/%s/read/", s.root, url.PathEscape(id))
	return s.client.Put(ctx, endpoint, nil, nil)
}

// MarkAllRead marks every notification as read.
func (s *NotificationService) MarkAllRead(ctx context.Context) error {
	return s.client.Put(ctx, s.root+"/read_all/", nil, nil)
}
