package service

import (
	"encoding/json"
	"time"

	"Community_Portal/internal/model"
	"Community_Portal/internal/pkg"
)

func (s *ServiceSuite) TestPendingMemberCanCreateEventAfterApproval() {
	admin := s.newUser("boss", model.RoleAdmin, true)
	ann := s.newUser("ann", model.RoleMember, false)
	in := CreateEventInput{Title: "Picnic", Description: "Community picnic"}

	_, err := s.svc.Events.Create(s.ctx, ann, in)
	s.ErrorIs(err, pkg.ErrPendingApproval)
	s.Zero(s.count(&model.Event{}, ""))

	_, _, err = s.svc.Accounts.Approve(s.ctx, admin, ann.ID)
	s.Require().NoError(err)
	ann = s.reload(ann)

	ev, err := s.svc.Events.Create(s.ctx, ann, in)
	s.Require().NoError(err)
	s.Equal(ann.ID, ev.CreatorID)

	all, err := s.svc.Events.List(s.ctx, ann, "all")
	s.Require().NoError(err)
	s.Require().Len(all, 1)
	s.Equal("Picnic", all[0].Title)
}

func (s *ServiceSuite) TestEventCreateValidation() {
	ann := s.newUser("ann", model.RoleMember, true)
	_, err := s.svc.Events.Create(s.ctx, ann, CreateEventInput{Title: "  ", Description: "x"})
	s.ErrorIs(err, pkg.ErrValidation)
	_, err = s.svc.Events.Create(s.ctx, ann, CreateEventInput{Title: "x"})
	s.ErrorIs(err, pkg.ErrValidation)
}

func (s *ServiceSuite) TestEventListFilters() {
	ann := s.newUser("ann", model.RoleMember, true)
	day := func(offset int) *time.Time {
		d := time.Date(2026, 10, 16+offset, 0, 0, 0, 0, time.UTC)
		return &d
	}
	for title, date := range map[string]*time.Time{
		"yesterday": day(-1),
		"today":     day(0),
		"tomorrow":  day(1),
		"undated":   nil,
	} {
		_, err := s.svc.Events.Create(s.ctx, ann, CreateEventInput{Title: title, Description: "d", EventDate: date})
		s.Require().NoError(err)
	}

	titles := func(filter string) []string {
		list, err := s.svc.Events.List(s.ctx, ann, filter)
		s.Require().NoError(err)
		out := make([]string, 0, len(list))
		for _, e := range list {
			out = append(out, e.Title)
		}
		return out
	}

	s.ElementsMatch([]string{"today", "tomorrow"}, titles(""))
	s.ElementsMatch([]string{"today", "tomorrow"}, titles("upcoming"))
	s.ElementsMatch([]string{"yesterday"}, titles("past"))
	s.ElementsMatch([]string{"yesterday", "today", "tomorrow", "undated"}, titles("all"))

	_, err := s.svc.Events.List(s.ctx, ann, "someday")
	s.ErrorIs(err, pkg.ErrValidation)
}

func (s *ServiceSuite) TestJoinLeave() {
	ann := s.newUser("ann", model.RoleMember, true)
	bob := s.newUser("bob", model.RoleMember, true)
	ev, err := s.svc.Events.Create(s.ctx, ann, CreateEventInput{Title: "Cleanup", Description: "park"})
	s.Require().NoError(err)

	joined, err := s.svc.Events.Join(s.ctx, bob, ev.ID)
	s.Require().NoError(err)
	s.True(joined)

	joined, err = s.svc.Events.Join(s.ctx, bob, ev.ID)
	s.Require().NoError(err)
	s.False(joined, "second join is a no-op")
	s.Equal(int64(1), s.count(&model.EventAttendee{}, "event_id = ? AND user_id = ?", ev.ID, bob.ID))

	detail, err := s.svc.Events.Detail(s.ctx, bob, ev.ID)
	s.Require().NoError(err)
	s.True(detail.IsAttending)
	s.Equal(1, detail.AttendeeCount)
	s.Require().NotNil(detail.Attendees[0].User)
	s.Equal("bob", detail.Attendees[0].User.Username)
	s.False(detail.CanDelete)

	left, err := s.svc.Events.Leave(s.ctx, bob, ev.ID)
	s.Require().NoError(err)
	s.True(left)

	left, err = s.svc.Events.Leave(s.ctx, bob, ev.ID)
	s.Require().NoError(err)
	s.False(left, "leaving when not attending is a no-op")

	_, err = s.svc.Events.Join(s.ctx, bob, 9999)
	s.ErrorIs(err, pkg.ErrNotFound)
}

func (s *ServiceSuite) TestEventDetailHidesAttendeeContact() {
	ann := s.newUser("ann", model.RoleMember, true)
	bob := s.newUser("bob", model.RoleMember, true)
	s.Require().NoError(s.db.Model(bob).Updates(map[string]any{"phone": "555-0100", "address": "12 Elm St"}).Error)
	ev, err := s.svc.Events.Create(s.ctx, ann, CreateEventInput{Title: "Cleanup", Description: "park"})
	s.Require().NoError(err)
	_, err = s.svc.Events.Join(s.ctx, bob, ev.ID)
	s.Require().NoError(err)

	detail, err := s.svc.Events.Detail(s.ctx, ann, ev.ID)
	s.Require().NoError(err)
	s.Require().Len(detail.Attendees, 1)
	s.Equal("bob", detail.Attendees[0].User.Username)

	body, err := json.Marshal(detail)
	s.Require().NoError(err)
	s.NotContains(string(body), "bob@example.com")
	s.NotContains(string(body), "555-0100")
	s.NotContains(string(body), "12 Elm St")
}

func (s *ServiceSuite) TestEventCreateRemovesPhotoWhenInsertFails() {
	// 库里不存在的账号，外键约束让插入失败
	ghost := &model.User{ID: 999, Username: "ghost", Role: model.RoleMember, IsApproved: true}
	_, err := s.svc.Events.Create(s.ctx, ghost, CreateEventInput{
		Title:       "Picnic",
		Description: "d",
		Photo:       s.upload("flyer.png", []byte("png")),
	})
	s.Require().Error(err)
	s.Empty(s.storedFiles())
	s.Zero(s.count(&model.Event{}, ""))

	ann := s.newUser("ann", model.RoleMember, true)
	ev, err := s.svc.Events.Create(s.ctx, ann, CreateEventInput{
		Title:       "Picnic",
		Description: "d",
		Photo:       s.upload("flyer.png", []byte("png")),
	})
	s.Require().NoError(err)
	s.Contains(ev.Photo, "/uploads/event_photos/")
	s.Len(s.storedFiles(), 1)
}

func (s *ServiceSuite) TestEventDetailPast() {
	ann := s.newUser("ann", model.RoleMember, true)
	past := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	ev, err := s.svc.Events.Create(s.ctx, ann, CreateEventInput{Title: "Old", Description: "d", EventDate: &past})
	s.Require().NoError(err)

	detail, err := s.svc.Events.Detail(s.ctx, ann, ev.ID)
	s.Require().NoError(err)
	s.True(detail.IsPast)
	s.True(detail.CanDelete)
}

func (s *ServiceSuite) TestEventDelete() {
	admin := s.newUser("boss", model.RoleAdmin, true)
	ann := s.newUser("ann", model.RoleMember, true)
	bob := s.newUser("bob", model.RoleMember, true)

	ev, err := s.svc.Events.Create(s.ctx, ann, CreateEventInput{Title: "Cleanup", Description: "park"})
	s.Require().NoError(err)
	_, err = s.svc.Events.Join(s.ctx, bob, ev.ID)
	s.Require().NoError(err)

	s.ErrorIs(s.svc.Events.Delete(s.ctx, bob, ev.ID), pkg.ErrForbidden)

	s.Require().NoError(s.svc.Events.Delete(s.ctx, admin, ev.ID))
	s.Zero(s.count(&model.Event{}, "id = ?", ev.ID))
	s.Zero(s.count(&model.EventAttendee{}, "event_id = ?", ev.ID))

	s.ErrorIs(s.svc.Events.Delete(s.ctx, ann, ev.ID), pkg.ErrNotFound)
}
