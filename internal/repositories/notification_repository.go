package repositories

import (
	"time"

	"github.com/linkupapp/backend/internal/models"
	"gorm.io/gorm"
)

// NotificationRepository defines the interface for notification operations
type NotificationRepository interface {
	EmitUnlessDuplicate(notification *models.Notification) (bool, error)
	List(recipientID uint, page, limit int) ([]models.Notification, int64, error)
	MarkRead(recipientID uint, ids []uint) error
	SoftDelete(recipientID, id uint) error
	DeleteUnread(recipientID, senderID uint, notifType, targetID string) error
	UnreadCount(recipientID uint) (int64, error)
}

type postgresNotificationRepository struct {
	db *gorm.DB
}

func NewPostgresNotificationRepository(db *gorm.DB) NotificationRepository {
	return &postgresNotificationRepository{db: db}
}

// EmitUnlessDuplicate inserts the notification unless an unread one with the
// same (recipient, sender, type, target) already exists. This is an
// at-most-one-pending-duplicate policy enforced by a pre-check, not a hard
// constraint. Returns whether a row was inserted.
func (r *postgresNotificationRepository) EmitUnlessDuplicate(notification *models.Notification) (bool, error) {
	var count int64
	err := r.db.Model(&models.Notification{}).
		Where("recipient_id = ? AND sender_id = ? AND type = ? AND target_id = ? AND is_read = ?",
			notification.RecipientID, notification.SenderID, notification.Type,
			notification.TargetID, false).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}
	if err := r.db.Create(notification).Error; err != nil {
		return false, err
	}
	return true, nil
}

// List returns non-deleted notifications for the recipient, newest first.
func (r *postgresNotificationRepository) List(recipientID uint, page, limit int) ([]models.Notification, int64, error) {
	var notifications []models.Notification
	var total int64

	q := r.db.Model(&models.Notification{}).
		Where("recipient_id = ? AND is_deleted = ?", recipientID, false)
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := q.Order("created_at DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&notifications).Error
	return notifications, total, err
}

// MarkRead bulk-sets is_read for the recipient's notifications. IDs the
// recipient does not own are silently skipped.
func (r *postgresNotificationRepository) MarkRead(recipientID uint, ids []uint) error {
	now := time.Now()
	return r.db.Model(&models.Notification{}).
		Where("recipient_id = ? AND id IN ?", recipientID, ids).
		Updates(map[string]interface{}{"is_read": true, "read_at": now}).Error
}

// SoftDelete flags one of the recipient's notifications as deleted. Returns
// gorm.ErrRecordNotFound when no matching live notification exists.
func (r *postgresNotificationRepository) SoftDelete(recipientID, id uint) error {
	res := r.db.Model(&models.Notification{}).
		Where("id = ? AND recipient_id = ? AND is_deleted = ?", id, recipientID, false).
		Update("is_deleted", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteUnread removes a pending notification for an undone action (e.g. an
// unliked post). Deleting nothing is not an error.
func (r *postgresNotificationRepository) DeleteUnread(recipientID, senderID uint, notifType, targetID string) error {
	return r.db.
		Where("recipient_id = ? AND sender_id = ? AND type = ? AND target_id = ? AND is_read = ?",
			recipientID, senderID, notifType, targetID, false).
		Delete(&models.Notification{}).Error
}

func (r *postgresNotificationRepository) UnreadCount(recipientID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Notification{}).
		Where("recipient_id = ? AND is_read = ? AND is_deleted = ?", recipientID, false, false).
		Count(&count).Error
	return count, err
}
