package model

import "time"

// Notification is an append-only message to an account about an approval or
// a resolved report. ApprovedByID is nulled when the approver is deleted.
type Notification struct {
	ID           uint64    `gorm:"primaryKey" json:"id"`
	UserID       uint64    `gorm:"not null;index" json:"user_id"`
	User         *User     `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Message      string    `gorm:"type:text;not null" json:"message"`
	IsRead       bool      `gorm:"not null;default:false;index" json:"is_read"`
	ApprovedByID *uint64   `gorm:"index" json:"approved_by,omitempty"`
	ApprovedBy   *User     `gorm:"foreignKey:ApprovedByID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL" json:"-"`
	CreatedAt    time.Time `gorm:"index" json:"created_at"`
}

type NoticeBoard struct {
	ID          uint64    `gorm:"primaryKey" json:"id"`
	AdminID     uint64    `gorm:"not null;index" json:"admin_id"`
	Admin       *User     `gorm:"foreignKey:AdminID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Title       string    `gorm:"size:255;not null" json:"title"`
	Content     string    `gorm:"type:text;not null" json:"content"`
	IsImportant bool      `gorm:"not null;default:false" json:"is_important"`
	CreatedAt   time.Time `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (NoticeBoard) TableName() string {
	return "notice_board"
}
