package model

import (
	"time"

	"gorm.io/datatypes"
)

type Event struct {
	ID          uint64          `gorm:"primaryKey" json:"id"`
	Title       string          `gorm:"size:255;not null" json:"title"`
	Description string          `gorm:"type:text;not null" json:"description"`
	Location    string          `gorm:"size:255" json:"location,omitempty"`
	EventDate   *datatypes.Date `gorm:"index" json:"event_date,omitempty"`
	EventTime   *datatypes.Time `json:"event_time,omitempty"`
	Duration    string          `gorm:"size:100" json:"duration,omitempty"`
	Photo       string          `gorm:"size:255" json:"photo,omitempty"`
	CreatorID   uint64          `gorm:"not null;index" json:"created_by"`
	Creator     *User           `gorm:"foreignKey:CreatorID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	IsActive    bool            `gorm:"not null;default:true" json:"is_active"`
	CreatedAt   time.Time       `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// IsPast 无日期的活动不算过期
func (e *Event) IsPast(today time.Time) bool {
	if e.EventDate == nil {
		return false
	}
	y, m, d := today.Date()
	return time.Time(*e.EventDate).Before(time.Date(y, m, d, 0, 0, 0, 0, time.UTC))
}

// EventAttendee (event_id, user_id) is unique at the storage layer.
type EventAttendee struct {
	ID       uint64    `gorm:"primaryKey" json:"id"`
	EventID  uint64    `gorm:"not null;uniqueIndex:uk_event_user" json:"event_id"`
	Event    *Event    `gorm:"foreignKey:EventID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	UserID   uint64    `gorm:"not null;uniqueIndex:uk_event_user;index" json:"user_id"`
	User     *User     `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"user,omitempty"`
	JoinedAt time.Time `gorm:"autoCreateTime" json:"joined_at"`
}

func (EventAttendee) TableName() string {
	return "event_attendees"
}
