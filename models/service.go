package models

import (
	"context"
	"errors"
	"strings"
	"time"

	"bitbucket.org/mmdatafocus/garage_backend/config"
	"bitbucket.org/mmdatafocus/garage_backend/utils"
	"github.com/shopspring/decimal"
)

type Service struct {
	ID              int             `gorm:"primary_key" json:"id"`
	Code            string          `gorm:"size:50;not null;uniqueIndex" json:"code"`
	Name            string          `gorm:"size:255;not null" json:"name"`
	Description     string          `gorm:"type:text;default:null" json:"description"`
	Price           decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"price"`
	DurationMinutes int             `gorm:"not null;default:0" json:"duration_minutes"`
	IsActive        *bool           `gorm:"not null;default:true" json:"is_active"`
	CreatedAt       time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewService struct {
	Code            string          `json:"code" binding:"required"`
	Name            string          `json:"name" binding:"required"`
	Description     string          `json:"description"`
	Price           decimal.Decimal `json:"price"`
	DurationMinutes int             `json:"duration_minutes"`
	IsActive        *bool           `json:"is_active"`
}

func (input *NewService) validate(ctx context.Context, id int) error {
	if input.Price.LessThan(decimal.Zero) {
		return errors.New("price must not be negative")
	}
	if err := utils.ValidateUnique[Service](ctx, "code", input.Code, id); err != nil {
		return err
	}
	return nil
}

func CreateService(ctx context.Context, input *NewService) (*Service, error) {
	db := config.GetDB()

	if err := input.validate(ctx, 0); err != nil {
		return nil, err
	}

	service := Service{
		Code:            input.Code,
		Name:            input.Name,
		Description:     input.Description,
		Price:           input.Price,
		DurationMinutes: input.DurationMinutes,
		IsActive:        input.IsActive,
	}
	if service.IsActive == nil {
		service.IsActive = utils.NewTrue()
	}

	if err := db.WithContext(ctx).Create(&service).Error; err != nil {
		return nil, err
	}
	if err := utils.RemoveRedisList[Service](); err != nil {
		return nil, err
	}
	return &service, nil
}

func UpdateService(ctx context.Context, id int, input *NewService) (*Service, error) {
	db := config.GetDB()

	if err := input.validate(ctx, id); err != nil {
		return nil, err
	}

	service, err := utils.FetchModel[Service](ctx, id)
	if err != nil {
		return nil, err
	}

	err = db.WithContext(ctx).Model(service).Updates(map[string]interface{}{
		"Code":            input.Code,
		"Name":            input.Name,
		"Description":     input.Description,
		"Price":           input.Price,
		"DurationMinutes": input.DurationMinutes,
	}).Error
	if err != nil {
		return nil, err
	}

	// a price change cascades into derived package prices
	if err := RepriceServicePackagesForService(ctx, id); err != nil {
		return nil, err
	}

	if err := utils.RemoveRedisItem[Service](id); err != nil {
		return nil, err
	}
	if err := utils.RemoveRedisList[Service](); err != nil {
		return nil, err
	}
	return service, nil
}

func GetService(ctx context.Context, id int) (*Service, error) {
	return utils.FetchModel[Service](ctx, id)
}

func ListServices(ctx context.Context, searchText string, page int, pageSize int) ([]*Service, *PageInfo, error) {
	db := config.GetDB()

	dbCtx := db.WithContext(ctx).Model(&Service{})
	if search := strings.TrimSpace(searchText); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		dbCtx = dbCtx.Where("LOWER(name) LIKE ? OR LOWER(code) LIKE ?", pattern, pattern)
	}

	var totalCount int64
	if err := dbCtx.Count(&totalCount).Error; err != nil {
		return nil, nil, err
	}

	var services []*Service
	err := dbCtx.Order("code").Scopes(Paginate(page, pageSize)).Find(&services).Error
	if err != nil {
		return nil, nil, err
	}
	return services, NewPageInfo(page, pageSize, totalCount), nil
}

func DeleteService(ctx context.Context, id int) (*Service, error) {
	db := config.GetDB()
	service, err := utils.FetchModel[Service](ctx, id)
	if err != nil {
		return nil, err
	}

	var count int64
	if err := db.WithContext(ctx).Model(&ServicePackageLine{}).
		Where("service_id = ?", id).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, errors.New("used by service package")
	}

	if err := db.WithContext(ctx).Delete(service).Error; err != nil {
		return nil, err
	}
	if err := utils.RemoveRedisItem[Service](id); err != nil {
		return nil, err
	}
	if err := utils.RemoveRedisList[Service](); err != nil {
		return nil, err
	}
	return service, nil
}
