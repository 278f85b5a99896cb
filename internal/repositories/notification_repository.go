package repositories

import (
	"time"

	"github.com/anonto42/prehome/backend/internal/models"
	"gorm.io/gorm"
)

const groupedNotificationLimit = 200

// NotificationRepository defines the interface for notification operations
type NotificationRepository interface {
	CreateNotification(notification *models.Notification) error
	GetByUserID(userID string, page, limit int) ([]models.Notification, int64, error)
	GetGrouped(userID string) (models.NotificationGroups, error)
	GetUnreadCount(userID string) (int64, error)
	MarkAsRead(notificationID uint, userID string) error
	MarkAllAsRead(userID string) error
}

type postgresNotificationRepository struct {
	db *gorm.DB
}

func NewPostgresNotificationRepository(db *gorm.DB) NotificationRepository {
	return &postgresNotificationRepository{db: db}
}

func (r *postgresNotificationRepository) CreateNotification(notification *models.Notification) error {
	return r.db.Create(notification).Error
}

func (r *postgresNotificationRepository) GetByUserID(userID string, page, limit int) ([]models.Notification, int64, error) {
	notifications := []models.Notification{}
	var total int64

	if err := r.db.Model(&models.Notification{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").Order("id DESC").
		Offset(offset).Limit(limit).
		Find(&notifications).Error

	return notifications, total, err
}

// GetGrouped buckets the user's most recent notifications by day
func (r *postgresNotificationRepository) GetGrouped(userID string) (models.NotificationGroups, error) {
	var recent []models.Notification
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").Order("id DESC").
		Limit(groupedNotificationLimit).
		Find(&recent).Error
	if err != nil {
		return models.NotificationGroups{}, err
	}
	return models.GroupNotifications(recent, time.Now()), nil
}

func (r *postgresNotificationRepository) GetUnreadCount(userID string) (int64, error) {
	var count int64
	err := r.db.Model(&models.Notification{}).Where("user_id = ? AND is_read = ?", userID, false).Count(&count).Error
	return count, err
}

// MarkAsRead only touches the notification if it belongs to userID.
func (r *postgresNotificationRepository) MarkAsRead(notificationID uint, userID string) error {
	res := r.db.Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", notificationID, userID).
		Update("is_read", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *postgresNotificationRepository) MarkAllAsRead(userID string) error {
	return r.db.Model(&models.Notification{}).Where("user_id = ? AND is_read = ?", userID, false).Update("is_read", true).Error
}
