package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"Community_Portal/internal/model"
	"Community_Portal/internal/pkg"
	"Community_Portal/internal/policy"
	"Community_Portal/internal/repository/database"
)

// NotificationEvent 发布到 kafka 的消息体
type NotificationEvent struct {
	NotificationID uint64    `json:"notification_id"`
	UserID         uint64    `json:"user_id"`
	Message        string    `json:"message"`
	ApprovedBy     *uint64   `json:"approved_by,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// NotificationService 通知日志。写入和业务变更在同一事务里由仓储完成，
// 这里负责提交后的外发（kafka、邮件）和读取。外发失败只记日志。
type NotificationService struct {
	repo      *database.NotificationRepository
	publisher pkg.Publisher
	mailer    pkg.Mailer
	metrics   *pkg.Metrics
	log       *slog.Logger
}

func NewNotificationService(d Deps) *NotificationService {
	d.defaults()
	return &NotificationService{
		repo:      &database.NotificationRepository{DB: d.DB},
		publisher: d.Publisher,
		mailer:    d.Mailer,
		metrics:   d.Metrics,
		log:       d.Log,
	}
}

// Dispatch 通知已落库后调用
func (s *NotificationService) Dispatch(ctx context.Context, recipient *model.User, n *model.Notification) {
	if n == nil {
		return
	}
	s.metrics.Notifications.Inc()

	payload, err := json.Marshal(NotificationEvent{
		NotificationID: n.ID,
		UserID:         n.UserID,
		Message:        n.Message,
		ApprovedBy:     n.ApprovedByID,
		CreatedAt:      n.CreatedAt,
	})
	if err == nil {
		err = s.publisher.Publish(ctx, pkg.MakeKeyFromID(n.UserID), payload)
	}
	if err != nil {
		s.log.WarnContext(ctx, "publish notification failed", "notification_id", n.ID, "error", err)
	}

	if recipient == nil || recipient.Email == "" {
		return
	}
	body := pkg.NotificationHTML(recipient.DisplayName(), n.Message)
	if err := s.mailer.Send(recipient.Email, "Community portal notification", body); err != nil {
		s.log.WarnContext(ctx, "send notification mail failed", "notification_id", n.ID, "error", err)
	}
}

func (s *NotificationService) List(ctx context.Context, actor *model.User, unreadOnly bool, limit int) ([]model.Notification, error) {
	if err := authorize(s.metrics, actor, policy.ViewGatedContent, policy.Resource{}); err != nil {
		return nil, err
	}
	return s.repo.ListByUser(ctx, actor.ID, unreadOnly, limit)
}
