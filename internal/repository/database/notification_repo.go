package database

import (
	"context"

	"Community_Portal/internal/model"

	"gorm.io/gorm"
)

// NotificationRepository 只追加，不修改
type NotificationRepository struct {
	DB *gorm.DB
}

func (r *NotificationRepository) Create(ctx context.Context, n *model.Notification) error {
	return r.DB.WithContext(ctx).Create(n).Error
}

func (r *NotificationRepository) ListByUser(ctx context.Context, userID uint64, unreadOnly bool, limit int) ([]model.Notification, error) {
	var list []model.Notification
	q := r.DB.WithContext(ctx).Where("user_id = ?", userID)
	if unreadOnly {
		q = q.Where("is_read = ?", false)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Order("created_at desc, id desc").Find(&list).Error
	return list, err
}

func (r *NotificationRepository) CountByUser(ctx context.Context, userID uint64) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&model.Notification{}).Where("user_id = ?", userID).Count(&n).Error
	return n, err
}
