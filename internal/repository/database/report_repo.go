package database

import (
	"context"
	"time"

	"Community_Portal/internal/model"

	"gorm.io/gorm"
)

type ReportRepository struct {
	DB *gorm.DB
}

func (r *ReportRepository) Create(ctx context.Context, report *model.Report) error {
	return r.DB.WithContext(ctx).Create(report).Error
}

func (r *ReportRepository) FindByID(ctx context.Context, id uint64) (*model.Report, error) {
	var report model.Report
	err := r.DB.WithContext(ctx).First(&report, id).Error
	return &report, err
}

// ListVisible 管理员看全部；其他人看公开的和自己的。status 为空不过滤
func (r *ReportRepository) ListVisible(ctx context.Context, viewerID uint64, admin bool, status string) ([]model.Report, error) {
	var list []model.Report
	q := r.DB.WithContext(ctx).Model(&model.Report{})
	if !admin {
		q = q.Where("(type = ? OR creator_id = ?)", model.ReportTypePublic, viewerID)
	}
	if status != "" {
		q = q.Where("status = ?", status)
	}
	err := q.Order("created_at desc, id desc").Find(&list).Error
	return list, err
}

func (r *ReportRepository) ListByCreator(ctx context.Context, userID uint64, limit int) ([]model.Report, error) {
	var list []model.Report
	q := r.DB.WithContext(ctx).Where("creator_id = ?", userID).Order("created_at desc, id desc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&list).Error
	return list, err
}

func (r *ReportRepository) ListPublic(ctx context.Context, limit int) ([]model.Report, error) {
	var list []model.Report
	q := r.DB.WithContext(ctx).Where("type = ?", model.ReportTypePublic).Order("created_at desc, id desc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&list).Error
	return list, err
}

func (r *ReportRepository) CountPublic(ctx context.Context) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&model.Report{}).Where("type = ?", model.ReportTypePublic).Count(&n).Error
	return n, err
}

func (r *ReportRepository) CountByCreator(ctx context.Context, userID uint64) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&model.Report{}).Where("creator_id = ?", userID).Count(&n).Error
	return n, err
}

func (r *ReportRepository) ListAll(ctx context.Context) ([]model.Report, error) {
	var list []model.Report
	err := r.DB.WithContext(ctx).Order("created_at desc, id desc").Find(&list).Error
	return list, err
}

// Resolve 标记已处理并给提交人追加一条通知，同一事务内完成
func (r *ReportRepository) Resolve(ctx context.Context, report *model.Report, resolverID uint64, at time.Time, message string) (*model.Notification, error) {
	var n *model.Notification
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.Report{}).Where("id = ?", report.ID).Updates(map[string]any{
			"status":         model.ReportStatusResolved,
			"resolved_by_id": resolverID,
			"resolved_at":    at,
		}).Error; err != nil {
			return err
		}
		if report.CreatorID == 0 {
			return nil
		}
		n = &model.Notification{UserID: report.CreatorID, Message: message}
		return (&NotificationRepository{DB: tx}).Create(ctx, n)
	})
	if err != nil {
		return nil, err
	}
	report.Status = model.ReportStatusResolved
	report.ResolvedByID = &resolverID
	report.ResolvedAt = &at
	return n, nil
}

// Delete 连同评论一起删除
func (r *ReportRepository) Delete(ctx context.Context, id uint64) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("report_id = ?", id).Delete(&model.ReportComment{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&model.Report{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

type CommentRepository struct {
	DB *gorm.DB
}

func (r *CommentRepository) Create(ctx context.Context, c *model.ReportComment) error {
	return r.DB.WithContext(ctx).Create(c).Error
}

func (r *CommentRepository) ListByReport(ctx context.Context, reportID uint64) ([]model.ReportComment, error) {
	var list []model.ReportComment
	err := r.DB.WithContext(ctx).
		Preload("User", publicProfile).
		Where("report_id = ?", reportID).
		Order("created_at asc, id asc").
		Find(&list).Error
	return list, err
}

type NoticeRepository struct {
	DB *gorm.DB
}

func (r *NoticeRepository) Create(ctx context.Context, n *model.NoticeBoard) error {
	return r.DB.WithContext(ctx).Create(n).Error
}

func (r *NoticeRepository) List(ctx context.Context) ([]model.NoticeBoard, error) {
	var list []model.NoticeBoard
	err := r.DB.WithContext(ctx).Order("created_at desc, id desc").Find(&list).Error
	return list, err
}
