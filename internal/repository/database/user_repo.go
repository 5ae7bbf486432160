package database

import (
	"context"
	"errors"

	"Community_Portal/internal/model"

	"gorm.io/gorm"
)

type UserRepository struct {
	DB *gorm.DB
}

func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	return r.DB.WithContext(ctx).Create(user).Error
}

// FindByUsername 用户名或邮箱均可登录
func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	var user model.User
	err := r.DB.WithContext(ctx).Where("username = ? OR email = ?", username, username).First(&user).Error
	return &user, err
}

func (r *UserRepository) FindByID(ctx context.Context, id uint64) (*model.User, error) {
	var user model.User
	err := r.DB.WithContext(ctx).First(&user, id).Error
	return &user, err
}

func (r *UserRepository) FindByIDs(ctx context.Context, ids []uint64) ([]model.User, error) {
	var list []model.User
	if len(ids) == 0 {
		return list, nil
	}
	err := r.DB.WithContext(ctx).Where("id IN ?", ids).Order("id asc").Find(&list).Error
	return list, err
}

func (r *UserRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&model.User{}).Where("username = ?", username).Count(&n).Error
	return n > 0, err
}

// EmailExists excludeID 非 0 时排除自身（修改资料）
func (r *UserRepository) EmailExists(ctx context.Context, email string, excludeID uint64) (bool, error) {
	var n int64
	q := r.DB.WithContext(ctx).Model(&model.User{}).Where("email = ?", email)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	err := q.Count(&n).Error
	return n > 0, err
}

func (r *UserRepository) UpdatePassword(ctx context.Context, user *model.User, newPassword string) error {
	return r.DB.WithContext(ctx).Model(user).Update("password", newPassword).Error
}

func (r *UserRepository) UpdateProfile(ctx context.Context, user *model.User, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	return r.DB.WithContext(ctx).Model(user).Updates(fields).Error
}

// Approve 原子地把 is_approved 从 false 置为 true 并追加一条通知。
// 已审批的账号返回 changed=false，不会重复通知。
func (r *UserRepository) Approve(ctx context.Context, userID, approverID uint64, message string) (*model.Notification, bool, error) {
	var (
		n       *model.Notification
		changed bool
	)
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.User{}).
			Where("id = ? AND is_approved = ?", userID, false).
			Update("is_approved", true)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			var count int64
			if err := tx.Model(&model.User{}).Where("id = ?", userID).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return gorm.ErrRecordNotFound
			}
			return nil
		}

		changed = true
		nRepo := &NotificationRepository{DB: tx}
		n = &model.Notification{UserID: userID, Message: message, ApprovedByID: &approverID}
		return nRepo.Create(ctx, n)
	})
	return n, changed, err
}

// Delete 硬删除账号并级联删除其名下内容；审批人/处理人引用置空
func (r *UserRepository) Delete(ctx context.Context, id uint64) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ownEvents := tx.Model(&model.Event{}).Select("id").Where("creator_id = ?", id)
		ownReports := tx.Model(&model.Report{}).Select("id").Where("creator_id = ?", id)

		steps := []func() *gorm.DB{
			func() *gorm.DB {
				return tx.Where("user_id = ? OR event_id IN (?)", id, ownEvents).Delete(&model.EventAttendee{})
			},
			func() *gorm.DB { return tx.Where("creator_id = ?", id).Delete(&model.Event{}) },
			func() *gorm.DB {
				return tx.Where("user_id = ? OR report_id IN (?)", id, ownReports).Delete(&model.ReportComment{})
			},
			func() *gorm.DB { return tx.Where("creator_id = ?", id).Delete(&model.Report{}) },
			func() *gorm.DB {
				return tx.Model(&model.Report{}).Where("resolved_by_id = ?", id).Update("resolved_by_id", nil)
			},
			func() *gorm.DB { return tx.Where("user_id = ?", id).Delete(&model.Notification{}) },
			func() *gorm.DB {
				return tx.Model(&model.Notification{}).Where("approved_by_id = ?", id).Update("approved_by_id", nil)
			},
			func() *gorm.DB { return tx.Where("admin_id = ?", id).Delete(&model.NoticeBoard{}) },
		}
		for _, step := range steps {
			if err := step().Error; err != nil {
				return err
			}
		}

		res := tx.Delete(&model.User{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func (r *UserRepository) ListPending(ctx context.Context) ([]model.User, error) {
	var list []model.User
	err := r.DB.WithContext(ctx).Where("is_approved = ?", false).Order("created_at desc, id desc").Find(&list).Error
	return list, err
}

func (r *UserRepository) ListApprovedMembers(ctx context.Context) ([]model.User, error) {
	var list []model.User
	err := r.DB.WithContext(ctx).
		Where("is_approved = ? AND role = ?", true, model.RoleMember).
		Order("created_at desc, id desc").
		Find(&list).Error
	return list, err
}

func (r *UserRepository) CountApprovedMembers(ctx context.Context) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&model.User{}).
		Where("is_approved = ? AND role = ?", true, model.RoleMember).
		Count(&n).Error
	return n, err
}

// FirstApprovedAdmin 社区联系人，没有时返回 nil
func (r *UserRepository) FirstApprovedAdmin(ctx context.Context) (*model.User, error) {
	var user model.User
	err := r.DB.WithContext(ctx).
		Where("role = ? AND is_approved = ?", model.RoleAdmin, true).
		Order("id asc").
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}
