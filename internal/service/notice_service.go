package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"Community_Portal/internal/model"
	"Community_Portal/internal/pkg"
	"Community_Portal/internal/policy"
	"Community_Portal/internal/repository/database"
)

// NoticeService 社区公告板，只有社区管理员可以发布
type NoticeService struct {
	repo    *database.NoticeRepository
	metrics *pkg.Metrics
	log     *slog.Logger
}

func NewNoticeService(d Deps) *NoticeService {
	d.defaults()
	return &NoticeService{
		repo:    &database.NoticeRepository{DB: d.DB},
		metrics: d.Metrics,
		log:     d.Log,
	}
}

func (s *NoticeService) List(ctx context.Context, actor *model.User) ([]model.NoticeBoard, error) {
	if err := authorize(s.metrics, actor, policy.ViewGatedContent, policy.Resource{}); err != nil {
		return nil, err
	}
	return s.repo.List(ctx)
}

func (s *NoticeService) Post(ctx context.Context, actor *model.User, title, content string, important bool) (*model.NoticeBoard, error) {
	if err := authorize(s.metrics, actor, policy.ModifyAnyContent, policy.Resource{}); err != nil {
		return nil, err
	}
	title, content = strings.TrimSpace(title), strings.TrimSpace(content)
	if title == "" || content == "" {
		return nil, fmt.Errorf("%w: title and content are required", pkg.ErrValidation)
	}

	n := &model.NoticeBoard{AdminID: actor.ID, Title: title, Content: content, IsImportant: important}
	if err := s.repo.Create(ctx, n); err != nil {
		return nil, err
	}
	s.log.InfoContext(ctx, "notice posted", "notice_id", n.ID, "admin_id", actor.ID)
	return n, nil
}
