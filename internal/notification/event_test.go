package notification

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingNotifier struct {
	sent []Notification
}

func (r *recordingNotifier) SendNotification(ctx context.Context, n Notification) error {
	r.sent = append(r.sent, n)
	return nil
}

func TestNewNotificationFromEvent(t *testing.T) {
	n := NewNotificationFromEvent(PinEvent{
		PinID:       "pin-1",
		UserID:      "user-2",
		Action:      "saved",
		Description: "sunset drawing",
	})

	assert.Equal(t, "pin_saved", n.Type)
	assert.Equal(t, "pin-1", n.PinID)
	assert.Equal(t, "user-2", n.UserID)
	assert.Contains(t, n.Message, "sunset drawing")
	assert.False(t, n.CreatedAt.IsZero())
}

func TestHandleEvent_NotifiesOnSave(t *testing.T) {
	notifier := &recordingNotifier{}
	handler := NewEventHandler(notifier)

	err := handler.HandleEvent(context.Background(), PinEvent{
		PinID:  "pin-1",
		UserID: "user-2",
		Action: "saved",
	})
	require.NoError(t, err)
	require.Len(t, notifier.sent, 1)
	assert.Equal(t, "pin_saved", notifier.sent[0].Type)
}

func TestHandleEvent_IgnoresOwnActions(t *testing.T) {
	notifier := &recordingNotifier{}
	handler := NewEventHandler(notifier)

	for _, action := range []string{"created", "unsaved"} {
		err := handler.HandleEvent(context.Background(), PinEvent{
			PinID:  "pin-1",
			UserID: "user-2",
			Action: action,
		})
		require.NoError(t, err)
	}
	assert.Empty(t, notifier.sent)
}

func TestHandleEvent_RejectsIncompleteEvents(t *testing.T) {
	handler := NewEventHandler(&recordingNotifier{})

	err := handler.HandleEvent(context.Background(), PinEvent{UserID: "user-2", Action: "saved"})
	assert.ErrorIs(t, err, ErrEmptyPinID)

	err = handler.HandleEvent(context.Background(), PinEvent{PinID: "pin-1", Action: "saved"})
	assert.ErrorIs(t, err, ErrEmptyUserID)
}
