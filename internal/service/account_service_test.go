package service

import (
	"Community_Portal/internal/model"
	"Community_Portal/internal/pkg"
	"Community_Portal/internal/repository/session"
)

func (s *ServiceSuite) registerInput(username string) RegisterInput {
	return RegisterInput{
		Username:        username,
		Email:           username + "@example.com",
		Password:        testPassword,
		PasswordConfirm: testPassword,
		FirstName:       "Ann",
	}
}

func (s *ServiceSuite) TestRegister() {
	s.Run("fresh account starts pending", func() {
		u, err := s.svc.Accounts.Register(s.ctx, s.registerInput("ann"))
		s.Require().NoError(err)
		s.False(u.IsApproved)
		s.Equal(model.RoleMember, u.Role)
		s.NotEqual(testPassword, u.Password)
		s.False(s.reload(u).IsApproved)
	})

	s.Run("password mismatch creates nothing", func() {
		in := s.registerInput("bob")
		in.PasswordConfirm = "other"
		_, err := s.svc.Accounts.Register(s.ctx, in)
		s.ErrorIs(err, pkg.ErrPasswordMismatch)
		s.Zero(s.count(&model.User{}, "username = ?", "bob"))
	})

	s.Run("duplicate username", func() {
		in := s.registerInput("ann")
		in.Email = "another@example.com"
		_, err := s.svc.Accounts.Register(s.ctx, in)
		s.ErrorIs(err, pkg.ErrDuplicate)
		s.ErrorIs(err, pkg.ErrDuplicateUsername)
	})

	s.Run("duplicate email", func() {
		in := s.registerInput("carol")
		in.Email = "ANN@example.com"
		_, err := s.svc.Accounts.Register(s.ctx, in)
		s.ErrorIs(err, pkg.ErrDuplicateEmail)
		s.Zero(s.count(&model.User{}, "username = ?", "carol"))
	})

	s.Run("missing fields", func() {
		_, err := s.svc.Accounts.Register(s.ctx, RegisterInput{Username: "dave"})
		s.ErrorIs(err, pkg.ErrValidation)
	})

	s.Run("unknown role", func() {
		in := s.registerInput("erin")
		in.Role = "owner"
		_, err := s.svc.Accounts.Register(s.ctx, in)
		s.ErrorIs(err, pkg.ErrValidation)
	})

	s.Run("self declared admin is still pending", func() {
		in := s.registerInput("frank")
		in.Role = model.RoleAdmin
		u, err := s.svc.Accounts.Register(s.ctx, in)
		s.Require().NoError(err)
		s.Equal(model.RoleAdmin, u.Role)
		s.False(u.IsCommunityAdmin())
	})
}

func (s *ServiceSuite) TestRegisterAdminSignupDisabled() {
	d := s.deps()
	d.AllowAdminSignup = false
	accounts := New(d).Accounts

	in := s.registerInput("gina")
	in.Role = model.RoleAdmin
	_, err := accounts.Register(s.ctx, in)
	s.ErrorIs(err, pkg.ErrValidation)

	in.Role = model.RoleMember
	_, err = accounts.Register(s.ctx, in)
	s.NoError(err)
}

func (s *ServiceSuite) TestLogin() {
	pending := s.newUser("pending", model.RoleMember, false)
	approved := s.newUser("approved", model.RoleMember, true)

	s.Run("wrong password", func() {
		_, err := s.svc.Accounts.Login(s.ctx, "approved", "nope")
		s.ErrorIs(err, pkg.ErrInvalidCredentials)
	})

	s.Run("unknown user", func() {
		_, err := s.svc.Accounts.Login(s.ctx, "ghost", testPassword)
		s.ErrorIs(err, pkg.ErrInvalidCredentials)
	})

	s.Run("approved account gets a full session", func() {
		res, err := s.svc.Accounts.Login(s.ctx, "approved", testPassword)
		s.Require().NoError(err)
		s.False(res.Pending)
		stored, err := s.sessions.Get(s.ctx, approved.ID)
		s.Require().NoError(err)
		s.Equal(res.Tokens.AccessToken, stored)
	})

	s.Run("login by email", func() {
		_, err := s.svc.Accounts.Login(s.ctx, "approved@example.com", testPassword)
		s.NoError(err)
	})

	s.Run("pending account is flagged", func() {
		res, err := s.svc.Accounts.Login(s.ctx, "pending", testPassword)
		s.Require().NoError(err)
		s.True(res.Pending)

		ok, err := s.svc.Accounts.PendingNotice(s.ctx, pending)
		s.Require().NoError(err)
		s.False(ok)

		_, err = s.svc.Events.List(s.ctx, pending, "")
		s.ErrorIs(err, pkg.ErrPendingApproval)
	})
}

func (s *ServiceSuite) TestLogoutAndRefresh() {
	u := s.newUser("ann", model.RoleMember, true)
	res, err := s.svc.Accounts.Login(s.ctx, "ann", testPassword)
	s.Require().NoError(err)

	pair, err := s.svc.Accounts.Refresh(s.ctx, res.Tokens.RefreshToken)
	s.Require().NoError(err)
	stored, err := s.sessions.Get(s.ctx, u.ID)
	s.Require().NoError(err)
	s.Equal(pair.AccessToken, stored)

	_, err = s.svc.Accounts.Refresh(s.ctx, pair.AccessToken)
	s.ErrorIs(err, pkg.ErrInvalidCredentials, "access token is not a refresh token")

	s.Require().NoError(s.svc.Accounts.Logout(s.ctx, u))
	_, err = s.sessions.Get(s.ctx, u.ID)
	s.ErrorIs(err, session.ErrTokenNotFound)
}

func (s *ServiceSuite) TestApprove() {
	admin := s.newUser("boss", model.RoleAdmin, true)
	member := s.newUser("ann", model.RoleMember, false)

	s.Run("non admin is forbidden", func() {
		other := s.newUser("carl", model.RoleMember, true)
		_, _, err := s.svc.Accounts.Approve(s.ctx, other, member.ID)
		s.ErrorIs(err, pkg.ErrForbidden)
	})

	s.Run("unapproved admin is pending", func() {
		wannabe := s.newUser("wannabe", model.RoleAdmin, false)
		_, _, err := s.svc.Accounts.Approve(s.ctx, wannabe, member.ID)
		s.ErrorIs(err, pkg.ErrPendingApproval)
	})

	s.Run("approve appends exactly one notification", func() {
		target, changed, err := s.svc.Accounts.Approve(s.ctx, admin, member.ID)
		s.Require().NoError(err)
		s.True(changed)
		s.True(target.IsApproved)

		var notes []model.Notification
		s.Require().NoError(s.db.Where("user_id = ?", member.ID).Find(&notes).Error)
		s.Require().Len(notes, 1)
		s.Require().NotNil(notes[0].ApprovedByID)
		s.Equal(admin.ID, *notes[0].ApprovedByID)
		s.Equal("Your account has been approved by boss!", notes[0].Message)
	})

	s.Run("re-approve is a silent no-op", func() {
		_, changed, err := s.svc.Accounts.Approve(s.ctx, admin, member.ID)
		s.Require().NoError(err)
		s.False(changed)
		s.Equal(int64(1), s.count(&model.Notification{}, "user_id = ?", member.ID))
	})

	s.Run("missing target", func() {
		_, _, err := s.svc.Accounts.Approve(s.ctx, admin, 9999)
		s.ErrorIs(err, pkg.ErrNotFound)
	})
}

func (s *ServiceSuite) TestReject() {
	admin := s.newUser("boss", model.RoleAdmin, true)
	member := s.newUser("ann", model.RoleMember, false)
	s.Require().NoError(s.sessions.Save(s.ctx, member.ID, "tok"))

	_, err := s.svc.Accounts.Reject(s.ctx, admin, admin.ID)
	s.ErrorIs(err, pkg.ErrValidation)

	target, err := s.svc.Accounts.Reject(s.ctx, admin, member.ID)
	s.Require().NoError(err)
	s.Equal("ann", target.Username)
	s.Zero(s.count(&model.User{}, "id = ?", member.ID))
	_, err = s.sessions.Get(s.ctx, member.ID)
	s.ErrorIs(err, session.ErrTokenNotFound)

	_, err = s.svc.Accounts.Reject(s.ctx, admin, member.ID)
	s.ErrorIs(err, pkg.ErrNotFound)
}

func (s *ServiceSuite) TestBulkApproveAndReject() {
	admin := s.newUser("boss", model.RoleAdmin, true)
	a := s.newUser("a", model.RoleMember, false)
	b := s.newUser("b", model.RoleMember, false)
	c := s.newUser("c", model.RoleMember, true)

	n, err := s.svc.Accounts.BulkApprove(s.ctx, admin, []uint64{a.ID, b.ID, c.ID, 4242})
	s.Require().NoError(err)
	s.Equal(2, n)
	s.Zero(s.count(&model.Notification{}, "user_id = ?", c.ID), "already approved accounts are skipped")
	s.Equal(int64(2), s.count(&model.Notification{}, ""))

	_, err = s.svc.Accounts.BulkReject(s.ctx, admin, []uint64{a.ID, admin.ID})
	s.ErrorIs(err, pkg.ErrValidation)
	s.Equal(int64(1), s.count(&model.User{}, "id = ?", a.ID))

	n, err = s.svc.Accounts.BulkReject(s.ctx, admin, []uint64{a.ID, b.ID})
	s.Require().NoError(err)
	s.Equal(2, n)
	s.Zero(s.count(&model.User{}, "id IN ?", []uint64{a.ID, b.ID}))

	_, err = s.svc.Accounts.BulkApprove(s.ctx, c, []uint64{a.ID})
	s.ErrorIs(err, pkg.ErrForbidden)
}

func (s *ServiceSuite) TestChangePassword() {
	u := s.newUser("ann", model.RoleMember, true)
	s.Require().NoError(s.sessions.Save(s.ctx, u.ID, "tok"))

	err := s.svc.Accounts.ChangePassword(s.ctx, u, "wrong", "newpass1", "newpass1")
	s.ErrorIs(err, pkg.ErrInvalidCredentials)

	err = s.svc.Accounts.ChangePassword(s.ctx, u, testPassword, "newpass1", "newpass2")
	s.ErrorIs(err, pkg.ErrPasswordMismatch)

	s.Require().NoError(s.svc.Accounts.ChangePassword(s.ctx, u, testPassword, "newpass1", "newpass1"))

	_, err = s.svc.Accounts.Login(s.ctx, "ann", testPassword)
	s.ErrorIs(err, pkg.ErrInvalidCredentials)
	_, err = s.svc.Accounts.Login(s.ctx, "ann", "newpass1")
	s.NoError(err)
}

func (s *ServiceSuite) TestChangePasswordKeepsSession() {
	u := s.newUser("ann", model.RoleMember, true)
	s.Require().NoError(s.sessions.Save(s.ctx, u.ID, "tok"))
	s.Require().NoError(s.svc.Accounts.ChangePassword(s.ctx, u, testPassword, "newpass1", "newpass1"))

	got, err := s.sessions.Get(s.ctx, u.ID)
	s.Require().NoError(err)
	s.Equal("tok", got)
}

func (s *ServiceSuite) TestDeleteSelfCascades() {
	admin := s.newUser("boss", model.RoleAdmin, true)
	ann := s.newUser("ann", model.RoleMember, false)
	other := s.newUser("other", model.RoleMember, true)

	_, _, err := s.svc.Accounts.Approve(s.ctx, admin, ann.ID)
	s.Require().NoError(err)
	ann = s.reload(ann)

	ev, err := s.svc.Events.Create(s.ctx, ann, CreateEventInput{Title: "Picnic", Description: "Community picnic"})
	s.Require().NoError(err)
	_, err = s.svc.Events.Join(s.ctx, other, ev.ID)
	s.Require().NoError(err)

	rep, err := s.svc.Reports.Create(s.ctx, ann, CreateReportInput{Title: "Pothole", Description: "Main st", Type: model.ReportTypePublic})
	s.Require().NoError(err)
	_, err = s.svc.Reports.Comment(s.ctx, other, rep.ID, "seen it too")
	s.Require().NoError(err)

	otherRep, err := s.svc.Reports.Create(s.ctx, other, CreateReportInput{Title: "Noise", Description: "late", Type: model.ReportTypePublic})
	s.Require().NoError(err)
	_, err = s.svc.Reports.Comment(s.ctx, ann, otherRep.ID, "agree")
	s.Require().NoError(err)

	s.Require().NoError(s.svc.Accounts.DeleteSelf(s.ctx, ann))

	s.Zero(s.count(&model.User{}, "id = ?", ann.ID))
	s.Zero(s.count(&model.Event{}, "creator_id = ?", ann.ID))
	s.Zero(s.count(&model.EventAttendee{}, "event_id = ?", ev.ID))
	s.Zero(s.count(&model.Report{}, "creator_id = ?", ann.ID))
	s.Zero(s.count(&model.ReportComment{}, "user_id = ? OR report_id = ?", ann.ID, rep.ID))
	s.Zero(s.count(&model.Notification{}, "user_id = ?", ann.ID))
	s.Equal(int64(1), s.count(&model.Report{}, "id = ?", otherRep.ID))
}

func (s *ServiceSuite) TestDeletingApproverNullsReferences() {
	admin := s.newUser("boss", model.RoleAdmin, true)
	helper := s.newUser("helper", model.RoleAdmin, true)
	ann := s.newUser("ann", model.RoleMember, false)

	_, _, err := s.svc.Accounts.Approve(s.ctx, admin, ann.ID)
	s.Require().NoError(err)
	ann = s.reload(ann)
	rep, err := s.svc.Reports.Create(s.ctx, ann, CreateReportInput{Title: "Leak", Description: "water", Type: model.ReportTypePrivate})
	s.Require().NoError(err)
	_, err = s.svc.Reports.Resolve(s.ctx, admin, rep.ID)
	s.Require().NoError(err)

	_, err = s.svc.Accounts.Reject(s.ctx, helper, admin.ID)
	s.Require().NoError(err)

	var notes []model.Notification
	s.Require().NoError(s.db.Where("user_id = ?", ann.ID).Order("id asc").Find(&notes).Error)
	s.Require().Len(notes, 2, "history survives the approver's deletion")
	s.Nil(notes[0].ApprovedByID)

	var fresh model.Report
	s.Require().NoError(s.db.First(&fresh, rep.ID).Error)
	s.Nil(fresh.ResolvedByID)
	s.Equal(model.ReportStatusResolved, fresh.Status)
}

func (s *ServiceSuite) TestUpdateProfile() {
	u := s.newUser("ann", model.RoleMember, true)
	s.newUser("bob", model.RoleMember, true)

	bio := "  gardener "
	updated, err := s.svc.Accounts.UpdateProfile(s.ctx, u, ProfileInput{Bio: &bio})
	s.Require().NoError(err)
	s.Equal("gardener", updated.Bio)
	s.Equal("ann@example.com", updated.Email)

	taken := "bob@example.com"
	_, err = s.svc.Accounts.UpdateProfile(s.ctx, u, ProfileInput{Email: &taken})
	s.ErrorIs(err, pkg.ErrDuplicateEmail)

	same := "ann@example.com"
	_, err = s.svc.Accounts.UpdateProfile(s.ctx, u, ProfileInput{Email: &same})
	s.NoError(err)

	pending := s.newUser("newbie", model.RoleMember, false)
	_, err = s.svc.Accounts.UpdateProfile(s.ctx, pending, ProfileInput{Bio: &bio})
	s.ErrorIs(err, pkg.ErrPendingApproval)
}
