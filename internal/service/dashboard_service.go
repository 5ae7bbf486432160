package service

import (
	"context"

	"Community_Portal/internal/model"
	"Community_Portal/internal/pkg"
	"Community_Portal/internal/policy"
	"Community_Portal/internal/repository/database"
)

const (
	landingRecentReports   = 3
	dashboardRecentItems   = 5
	dashboardNotifications = 5
)

// DashboardService 只读的汇总视图
type DashboardService struct {
	users         *database.UserRepository
	events        *database.EventRepository
	reports       *database.ReportRepository
	notifications *database.NotificationRepository
	metrics       *pkg.Metrics
}

func NewDashboardService(d Deps) *DashboardService {
	d.defaults()
	return &DashboardService{
		users:         &database.UserRepository{DB: d.DB},
		events:        &database.EventRepository{DB: d.DB},
		reports:       &database.ReportRepository{DB: d.DB},
		notifications: &database.NotificationRepository{DB: d.DB},
		metrics:       d.Metrics,
	}
}

type LandingStats struct {
	TotalMembers  int64          `json:"total_members"`
	TotalReports  int64          `json:"total_reports"`
	TotalEvents   int64          `json:"total_events"`
	RecentReports []model.Report `json:"recent_reports"`
}

// Landing 公开页面，不需要登录
func (s *DashboardService) Landing(ctx context.Context) (*LandingStats, error) {
	var (
		st  LandingStats
		err error
	)
	if st.TotalMembers, err = s.users.CountApprovedMembers(ctx); err != nil {
		return nil, err
	}
	if st.TotalReports, err = s.reports.CountPublic(ctx); err != nil {
		return nil, err
	}
	if st.TotalEvents, err = s.events.Count(ctx, 0); err != nil {
		return nil, err
	}
	if st.RecentReports, err = s.reports.ListPublic(ctx, landingRecentReports); err != nil {
		return nil, err
	}
	return &st, nil
}

type Dashboard struct {
	User          *model.User          `json:"user"`
	Reports       []model.Report       `json:"reports"`
	Events        []model.Event        `json:"events"`
	Notifications []model.Notification `json:"notifications"`
	TotalReports  int64                `json:"total_reports"`
	TotalEvents   int64                `json:"total_events"`
}

func (s *DashboardService) Dashboard(ctx context.Context, actor *model.User) (*Dashboard, error) {
	if err := authorize(s.metrics, actor, policy.ViewGatedContent, policy.Resource{}); err != nil {
		return nil, err
	}
	d := Dashboard{User: actor}
	var err error
	if d.Reports, err = s.reports.ListByCreator(ctx, actor.ID, dashboardRecentItems); err != nil {
		return nil, err
	}
	if d.Events, err = s.events.ListByCreator(ctx, actor.ID, dashboardRecentItems); err != nil {
		return nil, err
	}
	if d.Notifications, err = s.notifications.ListByUser(ctx, actor.ID, true, dashboardNotifications); err != nil {
		return nil, err
	}
	if d.TotalReports, err = s.reports.CountByCreator(ctx, actor.ID); err != nil {
		return nil, err
	}
	if d.TotalEvents, err = s.events.Count(ctx, actor.ID); err != nil {
		return nil, err
	}
	return &d, nil
}

type Profile struct {
	User         *model.User    `json:"user"`
	Reports      []model.Report `json:"reports"`
	Events       []model.Event  `json:"events"`
	ContactAdmin *model.User    `json:"contact_admin,omitempty"`
}

// Profile 自己的资料、内容和社区联系人（第一个已审批的管理员）
func (s *DashboardService) Profile(ctx context.Context, actor *model.User) (*Profile, error) {
	if err := authorize(s.metrics, actor, policy.ViewGatedContent, policy.Resource{}); err != nil {
		return nil, err
	}
	p := Profile{User: actor}
	var err error
	if p.Reports, err = s.reports.ListByCreator(ctx, actor.ID, 0); err != nil {
		return nil, err
	}
	if p.Events, err = s.events.ListByCreator(ctx, actor.ID, 0); err != nil {
		return nil, err
	}
	if p.ContactAdmin, err = s.users.FirstApprovedAdmin(ctx); err != nil {
		return nil, err
	}
	return &p, nil
}

type AdminDashboard struct {
	PendingUsers  []model.User   `json:"pending_users"`
	ApprovedUsers []model.User   `json:"approved_users"`
	Reports       []model.Report `json:"reports"`
	Events        []model.Event  `json:"events"`
	TotalPending  int            `json:"total_pending"`
	TotalApproved int            `json:"total_approved"`
	TotalReports  int            `json:"total_reports"`
	TotalEvents   int            `json:"total_events"`
}

func (s *DashboardService) AdminDashboard(ctx context.Context, actor *model.User) (*AdminDashboard, error) {
	if err := authorize(s.metrics, actor, policy.ApproveAccount, policy.Resource{}); err != nil {
		return nil, err
	}
	var (
		d   AdminDashboard
		err error
	)
	if d.PendingUsers, err = s.users.ListPending(ctx); err != nil {
		return nil, err
	}
	if d.ApprovedUsers, err = s.users.ListApprovedMembers(ctx); err != nil {
		return nil, err
	}
	if d.Reports, err = s.reports.ListAll(ctx); err != nil {
		return nil, err
	}
	if d.Events, err = s.events.ListAll(ctx); err != nil {
		return nil, err
	}
	d.TotalPending = len(d.PendingUsers)
	d.TotalApproved = len(d.ApprovedUsers)
	d.TotalReports = len(d.Reports)
	d.TotalEvents = len(d.Events)
	return &d, nil
}
