package database

import (
	"context"
	"time"

	"Community_Portal/internal/model"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	EventFilterAll      = "all"
	EventFilterUpcoming = "upcoming"
	EventFilterPast     = "past"
)

type EventRepository struct {
	DB *gorm.DB
}

func (r *EventRepository) Create(ctx context.Context, e *model.Event) error {
	return r.DB.WithContext(ctx).Create(e).Error
}

func (r *EventRepository) FindByID(ctx context.Context, id uint64) (*model.Event, error) {
	var e model.Event
	err := r.DB.WithContext(ctx).First(&e, id).Error
	return &e, err
}

// List upcoming: event_date >= today；past: event_date < today；无日期的活动只出现在 all 中
func (r *EventRepository) List(ctx context.Context, filter string, today time.Time) ([]model.Event, error) {
	var list []model.Event
	q := r.DB.WithContext(ctx).Model(&model.Event{})
	day := datatypes.Date(dateOnly(today))
	switch filter {
	case EventFilterUpcoming:
		q = q.Where("event_date >= ?", day)
	case EventFilterPast:
		q = q.Where("event_date < ?", day)
	}
	err := q.Order("created_at desc, id desc").Find(&list).Error
	return list, err
}

func (r *EventRepository) ListByCreator(ctx context.Context, userID uint64, limit int) ([]model.Event, error) {
	var list []model.Event
	q := r.DB.WithContext(ctx).Where("creator_id = ?", userID).Order("created_at desc, id desc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&list).Error
	return list, err
}

func (r *EventRepository) ListAll(ctx context.Context) ([]model.Event, error) {
	var list []model.Event
	err := r.DB.WithContext(ctx).Order("created_at desc, id desc").Find(&list).Error
	return list, err
}

func (r *EventRepository) Count(ctx context.Context, creatorID uint64) (int64, error) {
	var n int64
	q := r.DB.WithContext(ctx).Model(&model.Event{})
	if creatorID != 0 {
		q = q.Where("creator_id = ?", creatorID)
	}
	err := q.Count(&n).Error
	return n, err
}

// Delete 连同报名记录一起删除
func (r *EventRepository) Delete(ctx context.Context, id uint64) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("event_id = ?", id).Delete(&model.EventAttendee{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&model.Event{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

type AttendeeRepository struct {
	DB *gorm.DB
}

// Join 幂等插入：唯一键 (event_id, user_id) 冲突时不报错，joined=false
func (r *AttendeeRepository) Join(ctx context.Context, eventID, userID uint64) (bool, error) {
	res := r.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "event_id"}, {Name: "user_id"}},
		DoNothing: true,
	}).Create(&model.EventAttendee{EventID: eventID, UserID: userID})
	return res.RowsAffected > 0, res.Error
}

// Leave 未报名时影响 0 行，不视为错误
func (r *AttendeeRepository) Leave(ctx context.Context, eventID, userID uint64) (bool, error) {
	res := r.DB.WithContext(ctx).
		Where("event_id = ? AND user_id = ?", eventID, userID).
		Delete(&model.EventAttendee{})
	return res.RowsAffected > 0, res.Error
}

func (r *AttendeeRepository) IsAttending(ctx context.Context, eventID, userID uint64) (bool, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&model.EventAttendee{}).
		Where("event_id = ? AND user_id = ?", eventID, userID).
		Count(&count).Error
	return count > 0, err
}

func (r *AttendeeRepository) ListByEvent(ctx context.Context, eventID uint64) ([]model.EventAttendee, error) {
	var list []model.EventAttendee
	err := r.DB.WithContext(ctx).
		Preload("User", publicProfile).
		Where("event_id = ?", eventID).
		Order("joined_at asc, id asc").
		Find(&list).Error
	return list, err
}

// publicProfile 列表里嵌入的账号只带展示名，不带联系方式
func publicProfile(db *gorm.DB) *gorm.DB {
	return db.Select("id", "username", "first_name", "last_name", "profile_picture")
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
