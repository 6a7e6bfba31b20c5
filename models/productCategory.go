package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/mmdatafocus/garage_backend/config"
	"bitbucket.org/mmdatafocus/garage_backend/utils"
)

type ProductCategory struct {
	ID        int       `gorm:"primary_key" json:"id"`
	Name      string    `gorm:"size:100;not null;uniqueIndex" json:"name"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewProductCategory struct {
	Name string `json:"name" binding:"required"`
}

func CreateProductCategory(ctx context.Context, input *NewProductCategory) (*ProductCategory, error) {
	db := config.GetDB()

	if err := utils.ValidateUnique[ProductCategory](ctx, "name", input.Name, 0); err != nil {
		return nil, err
	}

	category := ProductCategory{Name: input.Name}
	if err := db.WithContext(ctx).Create(&category).Error; err != nil {
		return nil, err
	}
	if err := utils.RemoveRedisList[ProductCategory](); err != nil {
		return nil, err
	}
	return &category, nil
}

func UpdateProductCategory(ctx context.Context, id int, input *NewProductCategory) (*ProductCategory, error) {
	db := config.GetDB()

	if err := utils.ValidateUnique[ProductCategory](ctx, "name", input.Name, id); err != nil {
		return nil, err
	}

	category, err := utils.FetchModel[ProductCategory](ctx, id)
	if err != nil {
		return nil, err
	}
	if err := db.WithContext(ctx).Model(category).
		Update("name", input.Name).Error; err != nil {
		return nil, err
	}
	if err := utils.RemoveRedisList[ProductCategory](); err != nil {
		return nil, err
	}
	return category, nil
}

func ListProductCategories(ctx context.Context) ([]*ProductCategory, error) {
	// small, hot list; serve from cache when possible
	cached, err := utils.RetrieveRedisList[ProductCategory]()
	if err != nil {
		return nil, err
	}
	if cached != nil {
		return cached, nil
	}

	db := config.GetDB()
	var categories []*ProductCategory
	if err := db.WithContext(ctx).Order("name").Find(&categories).Error; err != nil {
		return nil, err
	}

	if err := utils.StoreRedisList[ProductCategory](categories); err != nil {
		return nil, err
	}
	return categories, nil
}

func DeleteProductCategory(ctx context.Context, id int) (*ProductCategory, error) {
	db := config.GetDB()
	category, err := utils.FetchModel[ProductCategory](ctx, id)
	if err != nil {
		return nil, err
	}

	var count int64
	if err := db.WithContext(ctx).Model(&Product{}).
		Where("category_id = ?", id).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, errors.New("used by product")
	}

	if err := db.WithContext(ctx).Delete(category).Error; err != nil {
		return nil, err
	}
	if err := utils.RemoveRedisList[ProductCategory](); err != nil {
		return nil, err
	}
	return category, nil
}
