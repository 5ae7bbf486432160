package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"Community_Portal/internal/model"
	"Community_Portal/internal/pkg"
	"Community_Portal/internal/policy"
	"Community_Portal/internal/repository/session"

	"gorm.io/gorm"
)

// Deps 各个 service 共享的基础设施
type Deps struct {
	DB               *gorm.DB
	Sessions         session.Store
	Tokens           *pkg.TokenIssuer
	Files            *pkg.FileStorage
	Publisher        pkg.Publisher
	Mailer           pkg.Mailer
	Metrics          *pkg.Metrics
	Log              *slog.Logger
	Now              func() time.Time
	AllowAdminSignup bool
}

func (d *Deps) defaults() {
	if d.Publisher == nil {
		d.Publisher = pkg.NopPublisher{}
	}
	if d.Mailer == nil {
		d.Mailer = pkg.NopMailer{}
	}
	if d.Metrics == nil {
		d.Metrics = pkg.NewMetrics()
	}
	if d.Log == nil {
		d.Log = slog.Default()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
}

type Services struct {
	Accounts      *AccountService
	Notifications *NotificationService
	Events        *EventService
	Reports       *ReportService
	Notices       *NoticeService
	Dashboards    *DashboardService
}

func New(d Deps) *Services {
	d.defaults()
	notifications := NewNotificationService(d)
	return &Services{
		Accounts:      NewAccountService(d, notifications),
		Notifications: notifications,
		Events:        NewEventService(d),
		Reports:       NewReportService(d, notifications),
		Notices:       NewNoticeService(d),
		Dashboards:    NewDashboardService(d),
	}
}

// authorize 调用授权策略，拒绝时按原因计数
func authorize(m *pkg.Metrics, actor *model.User, action policy.Action, res policy.Resource) error {
	v := policy.Decide(policy.SubjectOf(actor), action, res)
	if v.Allowed {
		return nil
	}
	m.PolicyDenials.WithLabelValues(denialLabel(v.Reason)).Inc()
	return v.Reason
}

func denialLabel(err error) string {
	switch {
	case errors.Is(err, pkg.ErrPendingApproval):
		return "pending_approval"
	case errors.Is(err, pkg.ErrNotFound):
		return "not_found"
	default:
		return "forbidden"
	}
}

// storageErr 把 gorm 的记录不存在/唯一键冲突转换成业务错误
func storageErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return pkg.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return pkg.ErrDuplicate
	}
	return err
}

// discardUploads 落库失败时清理已保存的上传文件
func discardUploads(ctx context.Context, log *slog.Logger, files *pkg.FileStorage, refs ...string) {
	for _, ref := range refs {
		if ref == "" {
			continue
		}
		if err := files.Remove(ref); err != nil {
			log.WarnContext(ctx, "remove orphaned upload failed", "ref", ref, "error", err)
		}
	}
}

func ownResource(u *model.User) policy.Resource {
	if u == nil {
		return policy.Resource{}
	}
	return policy.Resource{OwnerID: u.ID}
}
