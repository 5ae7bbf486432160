// Package policy decides whether an account may perform an action. It is pure:
// no storage access, no side effects. Every service operation asks it first.
package policy

import (
	"Community_Portal/internal/model"
	"Community_Portal/internal/pkg"
)

type Action int

const (
	// ViewPendingNotice is the only action an unapproved account may take.
	ViewPendingNotice Action = iota
	ViewGatedContent
	CreateContent
	ModifyOwnContent
	ModifyAnyContent
	ApproveAccount
	ResolveReport
)

var actionNames = map[Action]string{
	ViewPendingNotice: "view_pending_notice",
	ViewGatedContent:  "view_gated_content",
	CreateContent:     "create_content",
	ModifyOwnContent:  "modify_own_content",
	ModifyAnyContent:  "modify_any_content",
	ApproveAccount:    "approve_account",
	ResolveReport:     "resolve_report",
}

func (a Action) String() string {
	if n, ok := actionNames[a]; ok {
		return n
	}
	return "unknown"
}

// Subject 发起操作的账号
type Subject struct {
	ID         uint64
	Role       string
	IsApproved bool
}

func SubjectOf(u *model.User) Subject {
	if u == nil {
		return Subject{}
	}
	return Subject{ID: u.ID, Role: u.Role, IsApproved: u.IsApproved}
}

// IsCommunityAdmin role=admin 且已审批，两者缺一不可
func (s Subject) IsCommunityAdmin() bool {
	return s.Role == model.RoleAdmin && s.IsApproved
}

// Resource 被操作对象的归属信息；OwnerID 为 0 表示无归属（列表、创建）
type Resource struct {
	OwnerID uint64
	Private bool
}

// Verdict Allow 或 Deny(reason)，Reason 是 pkg 中的分类错误
type Verdict struct {
	Allowed bool
	Reason  error
}

func (v Verdict) Err() error {
	if v.Allowed {
		return nil
	}
	return v.Reason
}

var allow = Verdict{Allowed: true}

func deny(reason error) Verdict {
	return Verdict{Reason: reason}
}

// Decide 按优先级求值：审批闸门 → 管理员判定 → 归属 → 私有可见性
func Decide(s Subject, action Action, res Resource) Verdict {
	if s.ID == 0 {
		return deny(pkg.ErrForbidden)
	}
	if action == ViewPendingNotice {
		return allow
	}
	if !s.IsApproved {
		return deny(pkg.ErrPendingApproval)
	}

	admin := s.IsCommunityAdmin()
	switch action {
	case ViewGatedContent:
		// 私有内容对非所有者、非管理员表现为不存在
		if res.Private && res.OwnerID != s.ID && !admin {
			return deny(pkg.ErrNotFound)
		}
		return allow
	case CreateContent:
		return allow
	case ModifyOwnContent:
		if res.OwnerID == s.ID || admin {
			return allow
		}
		return deny(pkg.ErrForbidden)
	case ModifyAnyContent, ApproveAccount, ResolveReport:
		if admin {
			return allow
		}
		return deny(pkg.ErrForbidden)
	}
	return deny(pkg.ErrForbidden)
}

// Check 便捷封装，直接返回错误
func Check(u *model.User, action Action, res Resource) error {
	return Decide(SubjectOf(u), action, res).Err()
}
