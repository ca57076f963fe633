package main

import (
	"context"
	"fmt"

	"github.com/scribeworks/scribe/internal/services"
	"github.com/scribeworks/scribe/internal/shared"
	"github.com/urfave/cli/v3"
)

// NotificationsList lists notifications, optionally only the unread ones.
func (r *Runner) NotificationsList(ctx context.Context, cmd *cli.Command) error {
	notifications, err := r.notifications.List(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	if cmd.Bool("unread") {
		unread := make([]services.Notification, 0, len(notifications))
		for _, n := range notifications {
			if !n.Read {
				unread = append(unread, n)
			}
		}
		notifications = unread
	}

	if cmd.Bool("json") {
		return r.writeJSON(notifications, true)
	}

	if len(notifications) == 0 {
		return r.writePlain("No notifications\n")
	}

	for _, n := range notifications {
		marker := "•"
		if n.Read {
			marker = " "
		}
		r.writePlain("%s %s  %s\n", marker, n.ID, n.Message)
	}
	return nil
}

// NotificationsRead marks one notification as read.
func (r *Runner) NotificationsRead(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: notification id is required", shared.ErrMissingArgument)
	}

	if err := r.notifications.MarkRead(ctx, id); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	return r.writePlain("✓ Marked as read\n")
}

// NotificationsReadAll marks every notification as read.
func (r *Runner) NotificationsReadAll(ctx context.Context, cmd *cli.Command) error {
	if err := r.notifications.MarkAllRead(ctx); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	return r.writePlain("✓ All notifications marked as read\n")
}
