package models

import (
	"context"
	"errors"
	"strings"
	"time"

	"bitbucket.org/mmdatafocus/garage_backend/config"
	"bitbucket.org/mmdatafocus/garage_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Product struct {
	ID            int             `gorm:"primary_key" json:"id"`
	Name          string          `gorm:"size:255;not null" json:"name"`
	Description   string          `gorm:"type:text;default:null" json:"description"`
	CategoryId    int             `gorm:"index;default:null" json:"category_id"`
	SellingPrice  decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"selling_price"`
	UnitCost      decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"unit_cost"`
	StockQuantity int             `gorm:"not null;default:0" json:"stock_quantity"`
	IsActive      *bool           `gorm:"not null;default:true" json:"is_active"`
	CreatedAt     time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewProduct struct {
	Name          string          `json:"name" binding:"required"`
	Description   string          `json:"description"`
	CategoryId    int             `json:"category_id"`
	SellingPrice  decimal.Decimal `json:"selling_price"`
	UnitCost      decimal.Decimal `json:"unit_cost"`
	StockQuantity int             `json:"stock_quantity"`
	IsActive      *bool           `json:"is_active"`
}

func (input *NewProduct) validate(ctx context.Context, id int) error {
	if input.SellingPrice.LessThan(decimal.Zero) || input.UnitCost.LessThan(decimal.Zero) {
		return errors.New("prices must not be negative")
	}
	if input.StockQuantity < 0 {
		return errors.New("stock quantity must not be negative")
	}
	if err := utils.ValidateUnique[Product](ctx, "name", input.Name, id); err != nil {
		return err
	}
	if input.CategoryId > 0 {
		if err := utils.ValidateResourceId[ProductCategory](ctx, input.CategoryId); err != nil {
			return errors.New("product category not found")
		}
	}
	return nil
}

func CreateProduct(ctx context.Context, input *NewProduct) (*Product, error) {
	db := config.GetDB()

	if err := input.validate(ctx, 0); err != nil {
		return nil, err
	}

	product := Product{
		Name:          input.Name,
		Description:   input.Description,
		CategoryId:    input.CategoryId,
		SellingPrice:  input.SellingPrice,
		UnitCost:      input.UnitCost,
		StockQuantity: input.StockQuantity,
		IsActive:      input.IsActive,
	}
	if product.IsActive == nil {
		product.IsActive = utils.NewTrue()
	}

	if err := db.WithContext(ctx).Create(&product).Error; err != nil {
		return nil, err
	}
	if err := utils.RemoveRedisList[Product](); err != nil {
		return nil, err
	}
	return &product, nil
}

func UpdateProduct(ctx context.Context, id int, input *NewProduct) (*Product, error) {
	db := config.GetDB()

	if err := input.validate(ctx, id); err != nil {
		return nil, err
	}

	product, err := utils.FetchModel[Product](ctx, id)
	if err != nil {
		return nil, err
	}

	err = db.WithContext(ctx).Model(product).Updates(map[string]interface{}{
		"Name":          input.Name,
		"Description":   input.Description,
		"CategoryId":    input.CategoryId,
		"SellingPrice":  input.SellingPrice,
		"UnitCost":      input.UnitCost,
		"StockQuantity": input.StockQuantity,
	}).Error
	if err != nil {
		return nil, err
	}

	// a price change cascades into derived package prices
	if err := RepriceServicePackagesForProduct(ctx, id); err != nil {
		return nil, err
	}

	if err := utils.RemoveRedisItem[Product](id); err != nil {
		return nil, err
	}
	if err := utils.RemoveRedisList[Product](); err != nil {
		return nil, err
	}
	return product, nil
}

func GetProduct(ctx context.Context, id int) (*Product, error) {
	return utils.FetchModel[Product](ctx, id)
}

func ListProducts(ctx context.Context, searchText string, page int, pageSize int) ([]*Product, *PageInfo, error) {
	db := config.GetDB()

	dbCtx := db.WithContext(ctx).Model(&Product{})
	if search := strings.TrimSpace(searchText); search != "" {
		dbCtx = dbCtx.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(search)+"%")
	}

	var totalCount int64
	if err := dbCtx.Count(&totalCount).Error; err != nil {
		return nil, nil, err
	}

	var products []*Product
	err := dbCtx.Order("name").Scopes(Paginate(page, pageSize)).Find(&products).Error
	if err != nil {
		return nil, nil, err
	}
	return products, NewPageInfo(page, pageSize, totalCount), nil
}

// AdjustProductStock applies a signed delta to the stock counter under a
// row lock. Stock never goes below zero.
func AdjustProductStock(ctx context.Context, id int, delta int) (*Product, error) {
	db := config.GetDB()
	var product Product
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&product, id).Error; err != nil {
			return utils.ErrorRecordNotFound
		}
		next := product.StockQuantity + delta
		if next < 0 {
			return errors.New("insufficient stock")
		}
		product.StockQuantity = next
		return tx.Model(&product).
			UpdateColumn("stock_quantity", next).Error
	})
	if err != nil {
		return nil, err
	}

	if err := utils.RemoveRedisItem[Product](id); err != nil {
		return nil, err
	}
	if err := utils.RemoveRedisList[Product](); err != nil {
		return nil, err
	}
	return &product, nil
}

func DeleteProduct(ctx context.Context, id int) (*Product, error) {
	db := config.GetDB()
	product, err := utils.FetchModel[Product](ctx, id)
	if err != nil {
		return nil, err
	}

	// refuse while referenced by a service package
	var count int64
	if err := db.WithContext(ctx).Model(&ServicePackageLine{}).
		Where("product_id = ?", id).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, errors.New("used by service package")
	}

	if err := db.WithContext(ctx).Delete(product).Error; err != nil {
		return nil, err
	}
	if err := utils.RemoveRedisItem[Product](id); err != nil {
		return nil, err
	}
	if err := utils.RemoveRedisList[Product](); err != nil {
		return nil, err
	}
	return product, nil
}
