package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/mmdatafocus/garage_backend/config"
	"bitbucket.org/mmdatafocus/garage_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// A service package bundles catalog services and products at a derived
// price. Price follows the same discipline as invoice totals: never stored
// independently of its inputs, recomputed on every mutation of the package
// or of a referenced catalog entry.
type ServicePackage struct {
	ID          int                  `gorm:"primary_key" json:"id"`
	Name        string               `gorm:"size:255;not null;uniqueIndex" json:"name"`
	Description string               `gorm:"type:text;default:null" json:"description"`
	Price       decimal.Decimal      `gorm:"type:decimal(20,4);default:0" json:"price"`
	IsActive    *bool                `gorm:"not null;default:true" json:"is_active"`
	Lines       []ServicePackageLine `gorm:"foreignKey:PackageId" json:"lines"`
	CreatedAt   time.Time            `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time            `gorm:"autoUpdateTime" json:"updated_at"`
}

// A line references either a service or a product, never both.
type ServicePackageLine struct {
	ID        int `gorm:"primary_key" json:"id"`
	PackageId int `gorm:"index;not null" json:"package_id"`
	ServiceId int `gorm:"index;default:null" json:"service_id"`
	ProductId int `gorm:"index;default:null" json:"product_id"`
	Quantity  int `gorm:"not null;default:1" json:"quantity"`
}

type NewServicePackage struct {
	Name        string                  `json:"name" binding:"required"`
	Description string                  `json:"description"`
	IsActive    *bool                   `json:"is_active"`
	Lines       []NewServicePackageLine `json:"lines" binding:"required"`
}

type NewServicePackageLine struct {
	ServiceId int `json:"service_id"`
	ProductId int `json:"product_id"`
	Quantity  int `json:"quantity"`
}

// ComputePackagePrice derives the bundle price: each service once, each
// product at its quantity. Pure; prices are looked up from the maps.
func ComputePackagePrice(lines []ServicePackageLine, servicePrices map[int]decimal.Decimal, productPrices map[int]decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, line := range lines {
		if line.ServiceId > 0 {
			total = total.Add(servicePrices[line.ServiceId])
			continue
		}
		if line.ProductId > 0 {
			quantity := line.Quantity
			if quantity < 1 {
				quantity = 1
			}
			total = total.Add(utils.CalculateLineTotal(quantity, productPrices[line.ProductId]))
		}
	}
	return utils.RoundMoney(total)
}

func (input *NewServicePackage) validate(ctx context.Context, id int) error {
	if len(input.Lines) == 0 {
		return errors.New("package must have at least one line")
	}
	var serviceIds, productIds []int
	for i, line := range input.Lines {
		if line.ServiceId > 0 && line.ProductId > 0 {
			return errors.New("package line must reference a service or a product, not both")
		}
		if line.ServiceId <= 0 && line.ProductId <= 0 {
			return errors.New("package line must reference a service or a product")
		}
		if line.ServiceId > 0 {
			serviceIds = append(serviceIds, line.ServiceId)
		} else {
			productIds = append(productIds, line.ProductId)
		}
		if line.Quantity < 1 {
			input.Lines[i].Quantity = 1
		}
	}
	if len(serviceIds) > 0 {
		if err := utils.ValidateResourcesId[Service](ctx, serviceIds); err != nil {
			return errors.New("service not found")
		}
	}
	if len(productIds) > 0 {
		if err := utils.ValidateResourcesId[Product](ctx, productIds); err != nil {
			return errors.New("product not found")
		}
	}
	return utils.ValidateUnique[ServicePackage](ctx, "name", input.Name, id)
}

func loadPackagePrices(ctx context.Context, lines []ServicePackageLine) (map[int]decimal.Decimal, map[int]decimal.Decimal, error) {
	db := config.GetDB()
	var serviceIds, productIds []int
	for _, line := range lines {
		if line.ServiceId > 0 {
			serviceIds = append(serviceIds, line.ServiceId)
		}
		if line.ProductId > 0 {
			productIds = append(productIds, line.ProductId)
		}
	}

	servicePrices := make(map[int]decimal.Decimal)
	if len(serviceIds) > 0 {
		var services []Service
		if err := db.WithContext(ctx).Where("id IN ?", utils.UniqueSlice(serviceIds)).Find(&services).Error; err != nil {
			return nil, nil, err
		}
		for _, s := range services {
			servicePrices[s.ID] = s.Price
		}
	}

	productPrices := make(map[int]decimal.Decimal)
	if len(productIds) > 0 {
		var products []Product
		if err := db.WithContext(ctx).Where("id IN ?", utils.UniqueSlice(productIds)).Find(&products).Error; err != nil {
			return nil, nil, err
		}
		for _, p := range products {
			productPrices[p.ID] = p.SellingPrice
		}
	}
	return servicePrices, productPrices, nil
}

func mapPackageLines(input []NewServicePackageLine) []ServicePackageLine {
	lines := make([]ServicePackageLine, 0, len(input))
	for _, line := range input {
		lines = append(lines, ServicePackageLine{
			ServiceId: line.ServiceId,
			ProductId: line.ProductId,
			Quantity:  line.Quantity,
		})
	}
	return lines
}

func CreateServicePackage(ctx context.Context, input *NewServicePackage) (*ServicePackage, error) {
	db := config.GetDB()

	if err := input.validate(ctx, 0); err != nil {
		return nil, err
	}

	lines := mapPackageLines(input.Lines)
	servicePrices, productPrices, err := loadPackagePrices(ctx, lines)
	if err != nil {
		return nil, err
	}

	pkg := ServicePackage{
		Name:        input.Name,
		Description: input.Description,
		Price:       ComputePackagePrice(lines, servicePrices, productPrices),
		IsActive:    input.IsActive,
		Lines:       lines,
	}
	if pkg.IsActive == nil {
		pkg.IsActive = utils.NewTrue()
	}

	if err := db.WithContext(ctx).Create(&pkg).Error; err != nil {
		return nil, err
	}
	return &pkg, nil
}

func UpdateServicePackage(ctx context.Context, id int, input *NewServicePackage) (*ServicePackage, error) {
	db := config.GetDB()

	if err := input.validate(ctx, id); err != nil {
		return nil, err
	}

	pkg, err := utils.FetchModel[ServicePackage](ctx, id, "Lines")
	if err != nil {
		return nil, err
	}

	lines := mapPackageLines(input.Lines)
	for i := range lines {
		lines[i].PackageId = pkg.ID
	}
	servicePrices, productPrices, err := loadPackagePrices(ctx, lines)
	if err != nil {
		return nil, err
	}
	price := ComputePackagePrice(lines, servicePrices, productPrices)

	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(pkg).Updates(map[string]interface{}{
			"Name":        input.Name,
			"Description": input.Description,
			"Price":       price,
		}).Error; err != nil {
			return err
		}
		return tx.Model(pkg).
			Session(&gorm.Session{FullSaveAssociations: true}).
			Association("Lines").
			Unscoped().Replace(&lines)
	})
	if err != nil {
		return nil, err
	}
	return utils.FetchModel[ServicePackage](ctx, id, "Lines")
}

func GetServicePackage(ctx context.Context, id int) (*ServicePackage, error) {
	return utils.FetchModel[ServicePackage](ctx, id, "Lines")
}

func ListServicePackages(ctx context.Context) ([]*ServicePackage, error) {
	db := config.GetDB()
	var packages []*ServicePackage
	err := db.WithContext(ctx).Preload("Lines").Order("name").Find(&packages).Error
	if err != nil {
		return nil, err
	}
	return packages, nil
}

func DeleteServicePackage(ctx context.Context, id int) (*ServicePackage, error) {
	db := config.GetDB()
	pkg, err := utils.FetchModel[ServicePackage](ctx, id, "Lines")
	if err != nil {
		return nil, err
	}
	if err := db.WithContext(ctx).Select("Lines").Delete(pkg).Error; err != nil {
		return nil, err
	}
	return pkg, nil
}

// RepriceServicePackagesForService recomputes the derived price of all
// packages containing the given service.
func RepriceServicePackagesForService(ctx context.Context, serviceId int) error {
	return repricePackagesWhere(ctx, "service_id = ?", serviceId)
}

// RepriceServicePackagesForProduct recomputes the derived price of all
// packages containing the given product.
func RepriceServicePackagesForProduct(ctx context.Context, productId int) error {
	return repricePackagesWhere(ctx, "product_id = ?", productId)
}

func repricePackagesWhere(ctx context.Context, condition string, value interface{}) error {
	db := config.GetDB()

	var packageIds []int
	if err := db.WithContext(ctx).Model(&ServicePackageLine{}).
		Where(condition, value).
		Distinct("package_id").
		Pluck("package_id", &packageIds).Error; err != nil {
		return err
	}

	for _, packageId := range packageIds {
		var pkg ServicePackage
		if err := db.WithContext(ctx).Preload("Lines").First(&pkg, packageId).Error; err != nil {
			return err
		}
		servicePrices, productPrices, err := loadPackagePrices(ctx, pkg.Lines)
		if err != nil {
			return err
		}
		price := ComputePackagePrice(pkg.Lines, servicePrices, productPrices)
		if err := db.WithContext(ctx).Model(&pkg).
			UpdateColumn("price", price).Error; err != nil {
			return err
		}
	}
	return nil
}
