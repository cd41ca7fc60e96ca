package server

import (
	"context"
	"log/slog"

	"ratefolio/internal/featureflags"
	"ratefolio/internal/middleware"
	"ratefolio/internal/notifications"
	"ratefolio/internal/observability"
)

// eventPublisher delivers service events to the affected user. With Redis
// the event goes through pub/sub so every instance's hub receives it;
// without Redis it is broadcast to local sockets only.
type eventPublisher struct {
	hub      *notifications.Hub
	notifier *notifications.Notifier
	flags    *featureflags.Manager
}

func newEventPublisher(hub *notifications.Hub, notifier *notifications.Notifier, flags *featureflags.Manager) *eventPublisher {
	return &eventPublisher{hub: hub, notifier: notifier, flags: flags}
}

// PublishUserEvent never fails the calling operation; errors are logged.
func (p *eventPublisher) PublishUserEvent(ctx context.Context, userID uint, eventType string, payload any) {
	if !p.flags.Enabled(featureflags.RealtimeNotifications, userID) {
		return
	}

	message, err := notifications.Event{Type: eventType, Payload: payload}.Encode()
	if err != nil {
		middleware.Logger.WarnContext(ctx, "failed to encode notification",
			slog.String("event_type", eventType), slog.String("error", err.Error()))
		return
	}

	if p.notifier.Enabled() {
		if err := p.notifier.PublishUser(context.WithoutCancel(ctx), userID, message); err != nil {
			middleware.Logger.WarnContext(ctx, "failed to publish notification",
				slog.String("event_type", eventType),
				slog.Uint64("target_user_id", uint64(userID)),
				slog.String("error", err.Error()))
			return
		}
	} else if p.hub != nil {
		p.hub.Broadcast(userID, message)
	}
	observability.NotificationsPublished.WithLabelValues(eventType).Inc()
}
