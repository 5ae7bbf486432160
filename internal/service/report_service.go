package service

import (
	"context"
	"fmt"
	"log/slog"
	"mime/multipart"
	"strings"
	"time"

	"Community_Portal/internal/model"
	"Community_Portal/internal/pkg"
	"Community_Portal/internal/policy"
	"Community_Portal/internal/repository/database"
)

type ReportService struct {
	reports  *database.ReportRepository
	comments *database.CommentRepository
	users    *database.UserRepository
	files    *pkg.FileStorage
	notifier *NotificationService
	metrics  *pkg.Metrics
	log      *slog.Logger
	now      func() time.Time
}

func NewReportService(d Deps, notifier *NotificationService) *ReportService {
	d.defaults()
	return &ReportService{
		reports:  &database.ReportRepository{DB: d.DB},
		comments: &database.CommentRepository{DB: d.DB},
		users:    &database.UserRepository{DB: d.DB},
		files:    d.Files,
		notifier: notifier,
		metrics:  d.Metrics,
		log:      d.Log,
		now:      d.Now,
	}
}

func reportResource(r *model.Report) policy.Resource {
	return policy.Resource{OwnerID: r.CreatorID, Private: r.IsPrivate()}
}

// List 管理员看全部；其他人只看公开报告和自己的报告
func (s *ReportService) List(ctx context.Context, actor *model.User, status string) ([]model.Report, error) {
	if err := authorize(s.metrics, actor, policy.ViewGatedContent, policy.Resource{}); err != nil {
		return nil, err
	}
	if status != "" && !model.ValidReportStatus(status) {
		return nil, fmt.Errorf("%w: unknown report status %q", pkg.ErrValidation, status)
	}
	return s.reports.ListVisible(ctx, actor.ID, actor.IsCommunityAdmin(), status)
}

type CreateReportInput struct {
	Title       string
	Description string
	Type        string
	Location    string
	Photo       *multipart.FileHeader
	Video       *multipart.FileHeader
}

func (s *ReportService) Create(ctx context.Context, actor *model.User, in CreateReportInput) (*model.Report, error) {
	if err := authorize(s.metrics, actor, policy.CreateContent, policy.Resource{}); err != nil {
		return nil, err
	}
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	if in.Title == "" || in.Description == "" || in.Type == "" {
		return nil, fmt.Errorf("%w: title, description and type are required", pkg.ErrValidation)
	}
	if !model.ValidReportType(in.Type) {
		return nil, fmt.Errorf("%w: unknown report type %q", pkg.ErrValidation, in.Type)
	}

	r := &model.Report{
		Title:       in.Title,
		Description: in.Description,
		Type:        in.Type,
		Status:      model.ReportStatusPending,
		Location:    strings.TrimSpace(in.Location),
		CreatorID:   actor.ID,
	}
	if in.Photo != nil {
		ref, err := s.files.SavePhoto("report_photos", in.Photo)
		if err != nil {
			return nil, err
		}
		r.Photo = ref
	}
	if in.Video != nil {
		ref, err := s.files.SaveVideo("report_videos", in.Video)
		if err != nil {
			discardUploads(ctx, s.log, s.files, r.Photo)
			return nil, err
		}
		r.Video = ref
	}

	if err := s.reports.Create(ctx, r); err != nil {
		discardUploads(ctx, s.log, s.files, r.Photo, r.Video)
		return nil, storageErr(err)
	}
	s.log.InfoContext(ctx, "report created", "report_id", r.ID, "creator_id", actor.ID, "type", r.Type)
	return r, nil
}

type ReportDetail struct {
	Report     *model.Report         `json:"report"`
	Comments   []model.ReportComment `json:"comments"`
	CanResolve bool                  `json:"can_resolve"`
	CanDelete  bool                  `json:"can_delete"`
}

// load 审批闸门 → 读取 → 私有可见性；不可见的私有报告按不存在处理
func (s *ReportService) load(ctx context.Context, actor *model.User, id uint64) (*model.Report, error) {
	if err := authorize(s.metrics, actor, policy.ViewGatedContent, policy.Resource{}); err != nil {
		return nil, err
	}
	r, err := s.reports.FindByID(ctx, id)
	if err != nil {
		return nil, storageErr(err)
	}
	if err := authorize(s.metrics, actor, policy.ViewGatedContent, reportResource(r)); err != nil {
		return nil, err
	}
	return r, nil
}

func (s *ReportService) Detail(ctx context.Context, actor *model.User, id uint64) (*ReportDetail, error) {
	r, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	comments, err := s.comments.ListByReport(ctx, id)
	if err != nil {
		return nil, err
	}
	return &ReportDetail{
		Report:     r,
		Comments:   comments,
		CanResolve: policy.Check(actor, policy.ResolveReport, policy.Resource{}) == nil,
		CanDelete:  policy.Check(actor, policy.ModifyOwnContent, reportResource(r)) == nil,
	}, nil
}

func (s *ReportService) Comment(ctx context.Context, actor *model.User, id uint64, content string) (*model.ReportComment, error) {
	if _, err := s.load(ctx, actor, id); err != nil {
		return nil, err
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("%w: comment content is required", pkg.ErrValidation)
	}

	c := &model.ReportComment{ReportID: id, UserID: actor.ID, Content: content}
	if err := s.comments.Create(ctx, c); err != nil {
		return nil, err
	}
	c.User = actor
	return c, nil
}

// Resolve 每次处理都给提交人追加一条通知
func (s *ReportService) Resolve(ctx context.Context, actor *model.User, id uint64) (*model.Report, error) {
	if err := authorize(s.metrics, actor, policy.ResolveReport, policy.Resource{}); err != nil {
		return nil, err
	}
	r, err := s.reports.FindByID(ctx, id)
	if err != nil {
		return nil, storageErr(err)
	}

	msg := fmt.Sprintf("Your report %q has been marked as Resolved by %s", r.Title, actor.DisplayName())
	n, err := s.reports.Resolve(ctx, r, actor.ID, s.now().UTC(), msg)
	if err != nil {
		return nil, err
	}
	s.metrics.Resolutions.Inc()
	s.log.InfoContext(ctx, "report resolved", "report_id", r.ID, "resolved_by", actor.ID)

	if n != nil {
		owner, err := s.users.FindByID(ctx, r.CreatorID)
		if err != nil {
			s.log.WarnContext(ctx, "load report owner failed", "report_id", r.ID, "error", err)
			owner = nil
		}
		s.notifier.Dispatch(ctx, owner, n)
	}
	return r, nil
}

func (s *ReportService) Delete(ctx context.Context, actor *model.User, id uint64) error {
	r, err := s.load(ctx, actor, id)
	if err != nil {
		return err
	}
	if err := authorize(s.metrics, actor, policy.ModifyOwnContent, reportResource(r)); err != nil {
		return err
	}
	if err := s.reports.Delete(ctx, id); err != nil {
		return storageErr(err)
	}
	s.log.InfoContext(ctx, "report deleted", "report_id", id, "deleted_by", actor.ID)
	return nil
}
