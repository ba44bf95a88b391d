package models

import "time"

// Notification types emitted by the follow and content paths.
const (
	NotificationTypeFollowRequest  = "follow_request"
	NotificationTypeFollowAccepted = "follow_accepted"
	NotificationTypeFollowRejected = "follow_rejected"
	NotificationTypeLike           = "like"
	NotificationTypeComment        = "comment"
	NotificationTypeReply          = "reply"
)

// Notification is a denormalized, derived record (PostgreSQL). TargetID is
// the correlating id: together with (recipient, sender, type) it forms the
// dedup key that keeps at most one unread duplicate per triggering entity.
type Notification struct {
	ID          uint       `json:"id" gorm:"primaryKey"`
	RecipientID uint       `json:"recipient_id" gorm:"index"`
	SenderID    uint       `json:"sender_id" gorm:"index"`
	Type        string     `json:"type" gorm:"size:30;index"`
	Title       string     `json:"title"`
	Message     string     `json:"message"`
	TargetID    string     `json:"target_id"`                  // post ID, comment ID, profile ID, etc.
	TargetType  string     `json:"target_type" gorm:"size:20"` // post, comment, reply, profile
	IsRead      bool       `json:"is_read" gorm:"default:false;index"`
	ReadAt      *time.Time `json:"read_at,omitempty"`
	IsDeleted   bool       `json:"is_deleted" gorm:"default:false;index"`
	CreatedAt   time.Time  `json:"created_at" gorm:"index"`
}

// MarkReadRequest bulk-marks the caller's notifications as read.
type MarkReadRequest struct {
	NotificationIDs []uint `json:"notification_ids" validate:"required,min=1"`
}
