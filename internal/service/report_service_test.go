package service

import (
	"encoding/json"
	"time"

	"Community_Portal/internal/model"
	"Community_Portal/internal/pkg"
)

func (s *ServiceSuite) TestPrivateReportVisibility() {
	admin := s.newUser("boss", model.RoleAdmin, true)
	ann := s.newUser("ann", model.RoleMember, true)
	carl := s.newUser("carl", model.RoleMember, true)

	private, err := s.svc.Reports.Create(s.ctx, ann, CreateReportInput{Title: "Leak", Description: "basement", Type: model.ReportTypePrivate})
	s.Require().NoError(err)
	public, err := s.svc.Reports.Create(s.ctx, ann, CreateReportInput{Title: "Pothole", Description: "main st", Type: model.ReportTypePublic})
	s.Require().NoError(err)
	s.Equal(model.ReportStatusPending, private.Status)

	ids := func(u *model.User) []uint64 {
		list, err := s.svc.Reports.List(s.ctx, u, "")
		s.Require().NoError(err)
		out := make([]uint64, 0, len(list))
		for _, r := range list {
			out = append(out, r.ID)
		}
		return out
	}
	s.ElementsMatch([]uint64{public.ID}, ids(carl))
	s.ElementsMatch([]uint64{public.ID, private.ID}, ids(ann))
	s.ElementsMatch([]uint64{public.ID, private.ID}, ids(admin))

	_, err = s.svc.Reports.Detail(s.ctx, carl, private.ID)
	s.ErrorIs(err, pkg.ErrNotFound)
	_, err = s.svc.Reports.Comment(s.ctx, carl, private.ID, "hi")
	s.ErrorIs(err, pkg.ErrNotFound)

	_, err = s.svc.Reports.Comment(s.ctx, ann, private.ID, "first")
	s.Require().NoError(err)
	s.clock = s.clock.Add(time.Minute)

	detail, err := s.svc.Reports.Detail(s.ctx, admin, private.ID)
	s.Require().NoError(err)
	s.True(detail.CanResolve)
	before := len(detail.Comments)

	_, err = s.svc.Reports.Comment(s.ctx, admin, private.ID, "on it")
	s.Require().NoError(err)

	detail, err = s.svc.Reports.Detail(s.ctx, admin, private.ID)
	s.Require().NoError(err)
	s.Require().Len(detail.Comments, before+1)
	s.Equal("first", detail.Comments[0].Content)
	s.Equal("on it", detail.Comments[len(detail.Comments)-1].Content)
	s.Equal("boss", detail.Comments[1].User.Username)

	_, err = s.svc.Reports.Comment(s.ctx, admin, private.ID, "   ")
	s.ErrorIs(err, pkg.ErrValidation)
}

func (s *ServiceSuite) TestReportDetailHidesCommenterContact() {
	ann := s.newUser("ann", model.RoleMember, true)
	bob := s.newUser("bob", model.RoleMember, true)
	s.Require().NoError(s.db.Model(bob).Updates(map[string]any{"phone": "555-0100", "address": "12 Elm St"}).Error)
	r, err := s.svc.Reports.Create(s.ctx, ann, CreateReportInput{Title: "Pothole", Description: "main st", Type: model.ReportTypePublic})
	s.Require().NoError(err)
	_, err = s.svc.Reports.Comment(s.ctx, bob, r.ID, "saw it too")
	s.Require().NoError(err)

	detail, err := s.svc.Reports.Detail(s.ctx, ann, r.ID)
	s.Require().NoError(err)
	s.Require().Len(detail.Comments, 1)
	s.Equal("bob", detail.Comments[0].User.Username)

	body, err := json.Marshal(detail)
	s.Require().NoError(err)
	s.NotContains(string(body), "bob@example.com")
	s.NotContains(string(body), "555-0100")
	s.NotContains(string(body), "12 Elm St")
}

func (s *ServiceSuite) TestReportCreateRemovesUploadsOnFailure() {
	ann := s.newUser("ann", model.RoleMember, true)

	// 视频格式不对，已存的照片也要删掉
	_, err := s.svc.Reports.Create(s.ctx, ann, CreateReportInput{
		Title:       "Leak",
		Description: "basement",
		Type:        model.ReportTypePrivate,
		Photo:       s.upload("leak.jpg", []byte("jpg")),
		Video:       s.upload("leak.exe", []byte("exe")),
	})
	s.ErrorIs(err, pkg.ErrValidation)
	s.Empty(s.storedFiles())

	// 库里不存在的账号，外键约束让插入失败
	ghost := &model.User{ID: 999, Username: "ghost", Role: model.RoleMember, IsApproved: true}
	_, err = s.svc.Reports.Create(s.ctx, ghost, CreateReportInput{
		Title:       "Leak",
		Description: "basement",
		Type:        model.ReportTypePrivate,
		Photo:       s.upload("leak.jpg", []byte("jpg")),
		Video:       s.upload("leak.mp4", []byte("mp4")),
	})
	s.Require().Error(err)
	s.Empty(s.storedFiles())
	s.Zero(s.count(&model.Report{}, ""))
}

func (s *ServiceSuite) TestReportCreateValidation() {
	ann := s.newUser("ann", model.RoleMember, true)

	_, err := s.svc.Reports.Create(s.ctx, ann, CreateReportInput{Title: "t", Description: "d"})
	s.ErrorIs(err, pkg.ErrValidation)
	_, err = s.svc.Reports.Create(s.ctx, ann, CreateReportInput{Title: "t", Description: "d", Type: "secret"})
	s.ErrorIs(err, pkg.ErrValidation)
	_, err = s.svc.Reports.Create(s.ctx, ann, CreateReportInput{Description: "d", Type: model.ReportTypePublic})
	s.ErrorIs(err, pkg.ErrValidation)
	s.Zero(s.count(&model.Report{}, ""))
}

func (s *ServiceSuite) TestReportStatusFilter() {
	admin := s.newUser("boss", model.RoleAdmin, true)
	ann := s.newUser("ann", model.RoleMember, true)

	r1, err := s.svc.Reports.Create(s.ctx, ann, CreateReportInput{Title: "a", Description: "d", Type: model.ReportTypePublic})
	s.Require().NoError(err)
	_, err = s.svc.Reports.Create(s.ctx, ann, CreateReportInput{Title: "b", Description: "d", Type: model.ReportTypePublic})
	s.Require().NoError(err)
	_, err = s.svc.Reports.Resolve(s.ctx, admin, r1.ID)
	s.Require().NoError(err)

	resolved, err := s.svc.Reports.List(s.ctx, ann, model.ReportStatusResolved)
	s.Require().NoError(err)
	s.Require().Len(resolved, 1)
	s.Equal(r1.ID, resolved[0].ID)

	_, err = s.svc.Reports.List(s.ctx, ann, "closed")
	s.ErrorIs(err, pkg.ErrValidation)
}

func (s *ServiceSuite) TestResolve() {
	admin := s.newUser("boss", model.RoleAdmin, true)
	ann := s.newUser("ann", model.RoleMember, true)
	rep, err := s.svc.Reports.Create(s.ctx, ann, CreateReportInput{Title: "Broken light", Description: "corner", Type: model.ReportTypePrivate})
	s.Require().NoError(err)

	_, err = s.svc.Reports.Resolve(s.ctx, ann, rep.ID)
	s.ErrorIs(err, pkg.ErrForbidden)

	resolved, err := s.svc.Reports.Resolve(s.ctx, admin, rep.ID)
	s.Require().NoError(err)
	s.Equal(model.ReportStatusResolved, resolved.Status)

	var fresh model.Report
	s.Require().NoError(s.db.First(&fresh, rep.ID).Error)
	s.Equal(model.ReportStatusResolved, fresh.Status)
	s.Require().NotNil(fresh.ResolvedByID)
	s.Equal(admin.ID, *fresh.ResolvedByID)
	s.Require().NotNil(fresh.ResolvedAt)
	s.True(fresh.ResolvedAt.Equal(s.clock))

	var notes []model.Notification
	s.Require().NoError(s.db.Where("user_id = ?", ann.ID).Find(&notes).Error)
	s.Require().Len(notes, 1)
	s.Equal(`Your report "Broken light" has been marked as Resolved by boss`, notes[0].Message)
	s.Nil(notes[0].ApprovedByID)

	_, err = s.svc.Reports.Resolve(s.ctx, admin, 9999)
	s.ErrorIs(err, pkg.ErrNotFound)
}

func (s *ServiceSuite) TestReportDelete() {
	admin := s.newUser("boss", model.RoleAdmin, true)
	ann := s.newUser("ann", model.RoleMember, true)
	carl := s.newUser("carl", model.RoleMember, true)

	pub, err := s.svc.Reports.Create(s.ctx, ann, CreateReportInput{Title: "a", Description: "d", Type: model.ReportTypePublic})
	s.Require().NoError(err)
	_, err = s.svc.Reports.Comment(s.ctx, carl, pub.ID, "me too")
	s.Require().NoError(err)

	s.ErrorIs(s.svc.Reports.Delete(s.ctx, carl, pub.ID), pkg.ErrForbidden)
	s.Require().NoError(s.svc.Reports.Delete(s.ctx, ann, pub.ID))
	s.Zero(s.count(&model.ReportComment{}, "report_id = ?", pub.ID))

	priv, err := s.svc.Reports.Create(s.ctx, ann, CreateReportInput{Title: "b", Description: "d", Type: model.ReportTypePrivate})
	s.Require().NoError(err)
	s.ErrorIs(s.svc.Reports.Delete(s.ctx, carl, priv.ID), pkg.ErrNotFound)
	s.Require().NoError(s.svc.Reports.Delete(s.ctx, admin, priv.ID))
	s.Zero(s.count(&model.Report{}, ""))
}
