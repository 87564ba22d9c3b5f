package repository

import (
	"context"
	"time"

	"github.com/DnyaneshwarWantace/rajdhani-trace-flow-sub000/internal/erp/entity"
	"gorm.io/gorm"
)

type NotificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) Create(ctx context.Context, n *entity.Notification) error {
	return r.db.WithContext(ctx).Create(n).Error
}

func (r *NotificationRepository) GetByID(ctx context.Context, id string) (*entity.Notification, error) {
	var n entity.Notification
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&n).Error; err != nil {
		return nil, notFound(err)
	}
	return &n, nil
}

func (r *NotificationRepository) SetStatus(ctx context.Context, id, status string) error {
	updates := map[string]interface{}{"status": status}
	if status == entity.NotifStatusRead {
		updates["read_at"] = time.Now()
	}
	res := r.db.WithContext(ctx).Model(&entity.Notification{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *NotificationRepository) MarkAllRead(ctx context.Context, module string) (int64, error) {
	query := r.db.WithContext(ctx).Model(&entity.Notification{}).Where("status = ?", entity.NotifStatusUnread)
	if module != "" {
		query = query.Where("module = ?", module)
	}
	res := query.Updates(map[string]interface{}{"status": entity.NotifStatusRead, "read_at": time.Now()})
	return res.RowsAffected, res.Error
}

// HasRecentUnread reports whether an unread notification of the given type
// about relatedID was created after since.
func (r *NotificationRepository) HasRecentUnread(ctx context.Context, notifType, relatedID string, since time.Time) (bool, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&entity.Notification{}).
		Where("type = ? AND related_id = ? AND status = ? AND created_at >= ?",
			notifType, relatedID, entity.NotifStatusUnread, since).
		Count(&total).Error
	return total > 0, err
}

func (r *NotificationRepository) CountUnread(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&entity.Notification{}).
		Where("status = ?", entity.NotifStatusUnread).Count(&total).Error
	return total, err
}

type NotificationListParams struct {
	Type   string
	Status string
	Module string
	Page   int
	Size   int
}

func (r *NotificationRepository) List(ctx context.Context, params NotificationListParams) ([]entity.Notification, int64, error) {
	query := r.db.WithContext(ctx).Model(&entity.Notification{})
	if params.Type != "" {
		query = query.Where("type = ?", params.Type)
	}
	if params.Status != "" {
		query = query.Where("status = ?", params.Status)
	} else {
		query = query.Where("status <> ?", entity.NotifStatusDismissed)
	}
	if params.Module != "" {
		query = query.Where("module = ?", params.Module)
	}
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var list []entity.Notification
	err := paginate(query.Order("created_at DESC"), params.Page, params.Size).Find(&list).Error
	return list, total, err
}
