// Package notify records durable notification events as side effects of
// engine transitions. The dispatcher's responsibility ends at persistence;
// push, email, and real-time delivery consume the rows asynchronously.
package notify

import (
	apperrors "github.com/orbitlabs/commune/backend/internal/errors"
	"github.com/orbitlabs/commune/backend/internal/metrics"
	"github.com/orbitlabs/commune/backend/internal/models"
	"github.com/orbitlabs/commune/backend/internal/store"
	"go.uber.org/zap"
)

// Dispatcher appends notification events and manages their read state
type Dispatcher struct {
	store *store.Store
	log   *zap.Logger
}

// New creates a Dispatcher
func New(st *store.Store, log *zap.Logger) *Dispatcher {
	return &Dispatcher{store: st, log: log}
}

// Emit appends an unread notification event through st. Callers that need
// the event recorded atomically with their own writes pass a
// transaction-scoped store; everyone else passes the dispatcher's own via
// EmitDirect.
func (d *Dispatcher) Emit(st *store.Store, recipientID, sourceUserID string, typ models.NotificationType, payload *models.NotificationPayload) (*models.NotificationEvent, error) {
	event := &models.NotificationEvent{
		RecipientID:  recipientID,
		SourceUserID: sourceUserID,
		Type:         typ,
		Payload:      payload,
		IsRead:       false,
	}
	if err := st.CreateNotification(event); err != nil {
		return nil, err
	}
	metrics.Get().NotificationsEmittedTotal.WithLabelValues(string(typ)).Inc()

	d.log.Debug("notification emitted",
		zap.String("notification_id", event.ID),
		zap.String("recipient_id", recipientID),
		zap.String("type", string(typ)),
	)
	return event, nil
}

// EmitDirect appends outside any caller transaction
func (d *Dispatcher) EmitDirect(recipientID, sourceUserID string, typ models.NotificationType, payload *models.NotificationPayload) (*models.NotificationEvent, error) {
	return d.Emit(d.store, recipientID, sourceUserID, typ, payload)
}

// MarkRead flips a single notification to read. Only the recipient may do
// this; marking an already-read notification again is a no-op success.
func (d *Dispatcher) MarkRead(notificationID, actingUserID string) error {
	event, err := d.store.GetNotification(notificationID)
	if err != nil {
		return err
	}
	if event.RecipientID != actingUserID {
		return apperrors.Forbidden("only the recipient can mark a notification read")
	}
	if event.IsRead {
		return nil
	}
	return d.store.MarkNotificationRead(notificationID)
}

// MarkAllRead flips every unread notification for the user and returns the
// count affected, which may be zero
func (d *Dispatcher) MarkAllRead(userID string) (int64, error) {
	return d.store.MarkAllNotificationsRead(userID)
}

// List returns the user's notifications, newest first
func (d *Dispatcher) List(userID string, limit, offset int) ([]models.NotificationEvent, error) {
	return d.store.ListNotifications(userID, limit, offset)
}

// UnreadCount returns the number of unread notifications for badge display
func (d *Dispatcher) UnreadCount(userID string) (int64, error) {
	return d.store.CountUnreadNotifications(userID)
}
