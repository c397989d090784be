package models

import (
	"time"

	"gorm.io/gorm"
)

// NotificationType enumerates the event kinds an engine transition can emit
type NotificationType string

const (
	NotificationLocationRequest NotificationType = "location_request"
	NotificationLocationShared  NotificationType = "location_shared"
	NotificationLocationDenied  NotificationType = "location_denied"
	NotificationInviteRequest   NotificationType = "invite_request"
	NotificationInviteAccepted  NotificationType = "invite_accepted"
	NotificationInviteDenied    NotificationType = "invite_denied"
	NotificationMemberJoined    NotificationType = "member_joined"
)

// NotificationPayload carries the structured data for a notification.
// Which fields are set depends on the event type: workflow events carry
// RequestID + SubjectID, member_joined carries the collective fields.
// Stored as jsonb and decoded structurally, never parsed ad hoc.
type NotificationPayload struct {
	RequestID      string `json:"request_id,omitempty"`
	SubjectID      string `json:"subject_id,omitempty"`
	CollectiveID   string `json:"collective_id,omitempty"`
	CollectiveName string `json:"collective_name,omitempty"`
}

// NotificationEvent is a durable record of something that needs a
// recipient's attention. The engine only ever appends these and flips
// IsRead; delivery (push, email, real-time) is someone else's job.
type NotificationEvent struct {
	ID           string               `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	RecipientID  string               `gorm:"not null;index:idx_notifications_recipient_read" json:"recipient_id"`
	Recipient    User                 `gorm:"foreignKey:RecipientID" json:"-"`
	SourceUserID string               `gorm:"not null;index" json:"source_user_id"`
	SourceUser   User                 `gorm:"foreignKey:SourceUserID" json:"source_user,omitempty"`
	Type         NotificationType     `gorm:"not null" json:"type"`
	Payload      *NotificationPayload `gorm:"type:jsonb;serializer:json" json:"payload,omitempty"`
	IsRead       bool                 `gorm:"default:false;index:idx_notifications_recipient_read" json:"is_read"`

	CreatedAt time.Time `json:"created_at"`
}

func (NotificationEvent) TableName() string {
	return "notifications"
}

func (n *NotificationEvent) BeforeCreate(tx *gorm.DB) error {
	if n.ID == "" {
		n.ID = generateUUID()
	}
	return nil
}
