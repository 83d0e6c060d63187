package services

import (
	"context"

	"gorm.io/gorm"

	"grantdesk/internal/logger"
	"grantdesk/internal/metrics"
	"grantdesk/internal/models"
)

// notificationService stores in-app notifications.
type notificationService struct {
	db    *gorm.DB
	users UserServicer
}

// NewNotificationService creates a new NotificationServicer. users resolves
// role-wide recipients.
func NewNotificationService(db *gorm.DB, users UserServicer) NotificationServicer {
	return &notificationService{db: db, users: users}
}

// Notify stores a notification for one user.
func (s *notificationService) Notify(ctx context.Context, userID string, kind models.NotificationType, title, message, link string) {
	n := &models.Notification{
		UserID:  userID,
		Type:    kind,
		Title:   title,
		Message: message,
		Link:    link,
	}
	if err := s.db.WithContext(ctx).Create(n).Error; err != nil {
		metrics.SideEffectFailures.WithLabelValues("notification").Inc()
		logger.Get().Errorw("failed to create notification", "error", err, "user_id", userID, "type", kind)
	}
}

// NotifyRole stores the same notification for every active user in role.
func (s *notificationService) NotifyRole(ctx context.Context, role models.UserRole, kind models.NotificationType, title, message, link string) {
	recipients, err := s.users.ListActiveByRole(ctx, role)
	if err != nil {
		metrics.SideEffectFailures.WithLabelValues("notification").Inc()
		logger.Get().Errorw("failed to resolve notification recipients", "error", err, "role", role)
		return
	}
	for _, user := range recipients {
		s.Notify(ctx, user.ID, kind, title, message, link)
	}
}
