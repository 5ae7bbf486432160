package model

import "time"

const (
	RoleMember = "member"
	RoleAdmin  = "admin"
)

// User is a registered community account. Role alone confers no authority,
// see IsCommunityAdmin.
type User struct {
	ID             uint64    `gorm:"primaryKey" json:"id"`
	Username       string    `gorm:"uniqueIndex;size:150;not null" json:"username"`
	Password       string    `gorm:"size:255;not null" json:"-"`
	Email          string    `gorm:"uniqueIndex;size:254;not null" json:"email"`
	FirstName      string    `gorm:"size:150" json:"first_name"`
	LastName       string    `gorm:"size:150" json:"last_name"`
	Role           string    `gorm:"size:10;not null;default:member" json:"role"`
	IsApproved     bool      `gorm:"not null;default:false;index" json:"is_approved"`
	Phone          string    `gorm:"size:15" json:"phone,omitempty"`
	Address        string    `gorm:"type:text" json:"address,omitempty"`
	ProfilePicture string    `gorm:"size:255" json:"profile_picture,omitempty"`
	CommunityName  string    `gorm:"size:255" json:"community_name,omitempty"`
	Bio            string    `gorm:"type:text" json:"bio,omitempty"`
	CreatedAt      time.Time `gorm:"index" json:"joined_date"`
	UpdatedAt      time.Time `json:"-"`
}

func (u *User) IsCommunityAdmin() bool {
	return u != nil && u.Role == RoleAdmin && u.IsApproved
}

// DisplayName 全名优先，缺省用户名
func (u *User) DisplayName() string {
	name := u.FirstName
	if u.LastName != "" {
		if name != "" {
			name += " "
		}
		name += u.LastName
	}
	if name == "" {
		return u.Username
	}
	return name
}

func ValidRole(role string) bool {
	return role == RoleMember || role == RoleAdmin
}
