package models

// NotificationType classifies in-app notifications.
type NotificationType string

const (
	NotificationBudgetRequest  NotificationType = "BUDGET_REQUEST"
	NotificationBudgetDecision NotificationType = "BUDGET_DECISION"
)

// Notification is an in-app message for a single user.
type Notification struct {
	Base
	UserID  string           `gorm:"type:uuid;not null;index" json:"user_id"`
	Type    NotificationType `gorm:"size:32;not null" json:"type"`
	Title   string           `gorm:"not null" json:"title"`
	Message string           `gorm:"type:text" json:"message"`
	Link    string           `json:"link,omitempty"`
	IsRead  bool             `gorm:"default:false" json:"is_read"`
}
