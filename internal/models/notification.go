package models

import "time"

// Notification represents a user notification (PostgreSQL).
// UserID and PropertyID hold MongoDB ObjectIDs as hex strings.
type Notification struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	UserID     string    `json:"userId" gorm:"size:24;index"`
	PropertyID string    `json:"propertyId" gorm:"size:24"`
	Message    string    `json:"message"`
	IsRead     bool      `json:"isRead" gorm:"default:false;index"`
	CreatedAt  time.Time `json:"createdAt" gorm:"index"`
}

// NotificationGroups buckets a feed by age relative to the start of the current day
type NotificationGroups struct {
	Today     []Notification `json:"today"`
	Yesterday []Notification `json:"yesterday"`
	ThisWeek  []Notification `json:"thisWeek"`
	Older     []Notification `json:"older"`
}

// GroupNotifications buckets notifications, keeping their order within each bucket.
// "This week" is the six days before yesterday.
func GroupNotifications(notifications []Notification, now time.Time) NotificationGroups {
	todayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	yesterdayStart := todayStart.AddDate(0, 0, -1)
	weekStart := todayStart.AddDate(0, 0, -7)

	groups := NotificationGroups{
		Today:     []Notification{},
		Yesterday: []Notification{},
		ThisWeek:  []Notification{},
		Older:     []Notification{},
	}
	for _, n := range notifications {
		switch {
		case !n.CreatedAt.Before(todayStart):
			groups.Today = append(groups.Today, n)
		case !n.CreatedAt.Before(yesterdayStart):
			groups.Yesterday = append(groups.Yesterday, n)
		case !n.CreatedAt.Before(weekStart):
			groups.ThisWeek = append(groups.ThisWeek, n)
		default:
			groups.Older = append(groups.Older, n)
		}
	}
	return groups
}
