package notification

import (
	"fmt"
	"time"
)

// PinEvent mirrors the producer's payload in internal/pin/events.go.
type PinEvent struct {
	PinID       string    `json:"pinId"`
	UserID      string    `json:"userId"`
	Action      string    `json:"action"`
	Description string    `json:"description,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// Notification describes a message to deliver to a pin's owner.
type Notification struct {
	Type        string
	PinID       string
	UserID      string
	Message     string
	RecipientID string
	CreatedAt   time.Time
}

// NotifiesOwner reports whether the action is something a pin owner should
// hear about. Creations and unsaves are the actor's own business.
func (e PinEvent) NotifiesOwner() bool {
	return e.Action == "saved" || e.Action == "deleted"
}

func NewNotificationFromEvent(event PinEvent) Notification {
	var message string
	switch event.Action {
	case "saved":
		message = fmt.Sprintf("Your pin %q was saved by another user.", event.Description)
	case "deleted":
		message = fmt.Sprintf("Pin %q was deleted.", event.Description)
	default:
		message = fmt.Sprintf("Pin %q: %s.", event.Description, event.Action)
	}

	return Notification{
		Type:      "pin_" + event.Action,
		PinID:     event.PinID,
		UserID:    event.UserID,
		Message:   message,
		CreatedAt: time.Now(),
	}
}
