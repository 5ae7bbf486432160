package model

import "time"

const (
	ReportTypePrivate = "private"
	ReportTypePublic  = "public"

	ReportStatusPending    = "pending"
	ReportStatusInProgress = "in_progress"
	ReportStatusResolved   = "resolved"
)

type Report struct {
	ID           uint64     `gorm:"primaryKey" json:"id"`
	Title        string     `gorm:"size:255;not null" json:"title"`
	Description  string     `gorm:"type:text;not null" json:"description"`
	Type         string     `gorm:"size:10;not null;default:public;index" json:"report_type"`
	Status       string     `gorm:"size:20;not null;default:pending;index" json:"status"`
	Location     string     `gorm:"size:255" json:"location,omitempty"`
	Photo        string     `gorm:"size:255" json:"photo,omitempty"`
	Video        string     `gorm:"size:255" json:"video,omitempty"`
	CreatorID    uint64     `gorm:"not null;index" json:"created_by"`
	Creator      *User      `gorm:"foreignKey:CreatorID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	ResolvedByID *uint64    `gorm:"index" json:"resolved_by,omitempty"`
	ResolvedBy   *User      `gorm:"foreignKey:ResolvedByID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL" json:"-"`
	ResolvedAt   *time.Time `json:"resolved_at,omitempty"`
	CreatedAt    time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func (r *Report) IsPrivate() bool {
	return r.Type == ReportTypePrivate
}

func ValidReportType(t string) bool {
	return t == ReportTypePrivate || t == ReportTypePublic
}

func ValidReportStatus(s string) bool {
	switch s {
	case ReportStatusPending, ReportStatusInProgress, ReportStatusResolved:
		return true
	}
	return false
}

// ReportComment 按创建时间升序
type ReportComment struct {
	ID        uint64    `gorm:"primaryKey" json:"id"`
	ReportID  uint64    `gorm:"not null;index" json:"report_id"`
	Report    *Report   `gorm:"foreignKey:ReportID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	UserID    uint64    `gorm:"not null;index" json:"user_id"`
	User      *User     `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"user,omitempty"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

func (ReportComment) TableName() string {
	return "report_comments"
}
