package notification

import (
	"context"
	"errors"
	"strings"
)

var (
	ErrEmptyPinID  = errors.New("pinId is required")
	ErrEmptyUserID = errors.New("userId is required")
)

type eventHandler struct {
	notifier Notifier
}

func NewEventHandler(notifier Notifier) EventHandler {
	return &eventHandler{notifier: notifier}
}

func (h *eventHandler) HandleEvent(ctx context.Context, event PinEvent) error {
	if strings.TrimSpace(event.PinID) == "" {
		return ErrEmptyPinID
	}
	if strings.TrimSpace(event.UserID) == "" {
		return ErrEmptyUserID
	}
	if !event.NotifiesOwner() {
		return nil
	}

	return h.notifier.SendNotification(ctx, NewNotificationFromEvent(event))
}
