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

	"gorm.io/datatypes"
)

type EventService struct {
	events    *database.EventRepository
	attendees *database.AttendeeRepository
	files     *pkg.FileStorage
	metrics   *pkg.Metrics
	log       *slog.Logger
	now       func() time.Time
}

func NewEventService(d Deps) *EventService {
	d.defaults()
	return &EventService{
		events:    &database.EventRepository{DB: d.DB},
		attendees: &database.AttendeeRepository{DB: d.DB},
		files:     d.Files,
		metrics:   d.Metrics,
		log:       d.Log,
		now:       d.Now,
	}
}

func (s *EventService) today() time.Time {
	return s.now().UTC()
}

// List filter 为空时默认 upcoming
func (s *EventService) List(ctx context.Context, actor *model.User, filter string) ([]model.Event, error) {
	if err := authorize(s.metrics, actor, policy.ViewGatedContent, policy.Resource{}); err != nil {
		return nil, err
	}
	switch filter {
	case "":
		filter = database.EventFilterUpcoming
	case database.EventFilterAll, database.EventFilterUpcoming, database.EventFilterPast:
	default:
		return nil, fmt.Errorf("%w: unknown event filter %q", pkg.ErrValidation, filter)
	}
	return s.events.List(ctx, filter, s.today())
}

type CreateEventInput struct {
	Title       string
	Description string
	Location    string
	EventDate   *time.Time
	EventTime   *time.Duration
	Duration    string
	Photo       *multipart.FileHeader
}

func (s *EventService) Create(ctx context.Context, actor *model.User, in CreateEventInput) (*model.Event, error) {
	if err := authorize(s.metrics, actor, policy.CreateContent, policy.Resource{}); err != nil {
		return nil, err
	}
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	if in.Title == "" || in.Description == "" {
		return nil, fmt.Errorf("%w: title and description are required", pkg.ErrValidation)
	}

	e := &model.Event{
		Title:       in.Title,
		Description: in.Description,
		Location:    strings.TrimSpace(in.Location),
		Duration:    strings.TrimSpace(in.Duration),
		CreatorID:   actor.ID,
		IsActive:    true,
	}
	if in.EventDate != nil {
		d := datatypes.Date(*in.EventDate)
		e.EventDate = &d
	}
	if in.EventTime != nil {
		t := datatypes.Time(*in.EventTime)
		e.EventTime = &t
	}
	if in.Photo != nil {
		ref, err := s.files.SavePhoto("event_photos", in.Photo)
		if err != nil {
			return nil, err
		}
		e.Photo = ref
	}

	if err := s.events.Create(ctx, e); err != nil {
		discardUploads(ctx, s.log, s.files, e.Photo)
		return nil, storageErr(err)
	}
	s.log.InfoContext(ctx, "event created", "event_id", e.ID, "creator_id", actor.ID)
	return e, nil
}

type EventDetail struct {
	Event         *model.Event          `json:"event"`
	Attendees     []model.EventAttendee `json:"attendees"`
	AttendeeCount int                   `json:"attendee_count"`
	IsAttending   bool                  `json:"is_attending"`
	IsPast        bool                  `json:"is_past"`
	CanDelete     bool                  `json:"can_delete"`
}

func (s *EventService) Detail(ctx context.Context, actor *model.User, id uint64) (*EventDetail, error) {
	if err := authorize(s.metrics, actor, policy.ViewGatedContent, policy.Resource{}); err != nil {
		return nil, err
	}
	e, err := s.events.FindByID(ctx, id)
	if err != nil {
		return nil, storageErr(err)
	}
	attendees, err := s.attendees.ListByEvent(ctx, id)
	if err != nil {
		return nil, err
	}

	attending, err := s.attendees.IsAttending(ctx, id, actor.ID)
	if err != nil {
		return nil, err
	}

	return &EventDetail{
		Event:         e,
		Attendees:     attendees,
		AttendeeCount: len(attendees),
		IsAttending:   attending,
		IsPast:        e.IsPast(s.today()),
		CanDelete:     policy.Check(actor, policy.ModifyOwnContent, policy.Resource{OwnerID: e.CreatorID}) == nil,
	}, nil
}

// Join 已报名时 joined=false，不是错误
func (s *EventService) Join(ctx context.Context, actor *model.User, id uint64) (bool, error) {
	if err := authorize(s.metrics, actor, policy.ViewGatedContent, policy.Resource{}); err != nil {
		return false, err
	}
	if _, err := s.events.FindByID(ctx, id); err != nil {
		return false, storageErr(err)
	}
	joined, err := s.attendees.Join(ctx, id, actor.ID)
	if err != nil {
		return false, storageErr(err)
	}
	return joined, nil
}

// Leave 未报名时 left=false，不是错误
func (s *EventService) Leave(ctx context.Context, actor *model.User, id uint64) (bool, error) {
	if err := authorize(s.metrics, actor, policy.ViewGatedContent, policy.Resource{}); err != nil {
		return false, err
	}
	if _, err := s.events.FindByID(ctx, id); err != nil {
		return false, storageErr(err)
	}
	return s.attendees.Leave(ctx, id, actor.ID)
}

func (s *EventService) Delete(ctx context.Context, actor *model.User, id uint64) error {
	if err := authorize(s.metrics, actor, policy.ViewGatedContent, policy.Resource{}); err != nil {
		return err
	}
	e, err := s.events.FindByID(ctx, id)
	if err != nil {
		return storageErr(err)
	}
	if err := authorize(s.metrics, actor, policy.ModifyOwnContent, policy.Resource{OwnerID: e.CreatorID}); err != nil {
		return err
	}
	if err := s.events.Delete(ctx, id); err != nil {
		return storageErr(err)
	}
	s.log.InfoContext(ctx, "event deleted", "event_id", id, "deleted_by", actor.ID)
	return nil
}
