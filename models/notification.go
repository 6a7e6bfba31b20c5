package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/mmdatafocus/garage_backend/config"
	"bitbucket.org/mmdatafocus/garage_backend/utils"
)

type Notification struct {
	ID            int                `gorm:"primary_key" json:"id"`
	Type          NotificationType   `gorm:"type:enum('booking','technician','alert','user');not null" json:"type"`
	Title         string             `gorm:"size:255;not null" json:"title"`
	Message       string             `gorm:"type:text;not null" json:"message"`
	Link          string             `gorm:"size:255;default:null" json:"link"`
	Priority      string             `gorm:"size:20;not null;default:normal" json:"priority"`
	CurrentStatus NotificationStatus `gorm:"type:enum('unread','read');not null;default:unread" json:"current_status"`
	RecipientId   int                `gorm:"index;default:null" json:"recipient_id"`
	CreatedAt     time.Time          `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time          `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewNotification struct {
	Type        NotificationType `json:"type"`
	Title       string           `json:"title" binding:"required"`
	Message     string           `json:"message" binding:"required"`
	Link        string           `json:"link"`
	Priority    string           `json:"priority"`
	RecipientId int              `json:"recipient_id"`
}

func CreateNotification(ctx context.Context, input *NewNotification) (*Notification, error) {
	db := config.GetDB()

	notificationType := input.Type
	if notificationType == "" {
		notificationType = NotificationTypeUser
	}
	priority := input.Priority
	if priority == "" {
		priority = "normal"
	}
	if input.RecipientId > 0 {
		if err := utils.ValidateResourceId[User](ctx, input.RecipientId); err != nil {
			return nil, errors.New("recipient not found")
		}
	}

	notification := Notification{
		Type:          notificationType,
		Title:         input.Title,
		Message:       input.Message,
		Link:          input.Link,
		Priority:      priority,
		CurrentStatus: NotificationStatusUnread,
		RecipientId:   input.RecipientId,
	}

	if err := db.WithContext(ctx).Create(&notification).Error; err != nil {
		return nil, err
	}
	return &notification, nil
}

func ListNotifications(ctx context.Context, notificationType *NotificationType, page int, pageSize int) ([]*Notification, *PageInfo, error) {
	db := config.GetDB()

	dbCtx := db.WithContext(ctx).Model(&Notification{})
	if notificationType != nil {
		dbCtx = dbCtx.Where("type = ?", *notificationType)
	}

	var totalCount int64
	if err := dbCtx.Count(&totalCount).Error; err != nil {
		return nil, nil, err
	}

	var notifications []*Notification
	err := dbCtx.Order("created_at DESC, id DESC").
		Scopes(Paginate(page, pageSize)).
		Find(&notifications).Error
	if err != nil {
		return nil, nil, err
	}
	return notifications, NewPageInfo(page, pageSize, totalCount), nil
}

func CountUnreadNotifications(ctx context.Context) (int64, error) {
	return utils.ResourceCountWhere[Notification](ctx, "current_status = ?", NotificationStatusUnread)
}

func MarkNotificationRead(ctx context.Context, id int) (*Notification, error) {
	db := config.GetDB()

	notification, err := utils.FetchModel[Notification](ctx, id)
	if err != nil {
		return nil, err
	}
	if err := db.WithContext(ctx).Model(notification).
		UpdateColumn("current_status", NotificationStatusRead).Error; err != nil {
		return nil, err
	}
	return notification, nil
}

func MarkAllNotificationsRead(ctx context.Context) (int64, error) {
	db := config.GetDB()

	result := db.WithContext(ctx).Model(&Notification{}).
		Where("current_status = ?", NotificationStatusUnread).
		UpdateColumn("current_status", NotificationStatusRead)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

func DeleteNotification(ctx context.Context, id int) (*Notification, error) {
	db := config.GetDB()

	notification, err := utils.FetchModel[Notification](ctx, id)
	if err != nil {
		return nil, err
	}
	if err := db.WithContext(ctx).Delete(notification).Error; err != nil {
		return nil, err
	}
	return notification, nil
}
