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
)

// Setting is a single-row table holding garage-wide configuration. The row
// is created with defaults on first access.
type Setting struct {
	ID int `gorm:"primary_key" json:"id"`

	// garage information
	GarageName    string `gorm:"size:255;not null" json:"garage_name"`
	GarageAddress string `gorm:"size:255;default:null" json:"garage_address"`
	GaragePhone   string `gorm:"size:100;default:null" json:"garage_phone"`
	GarageEmail   string `gorm:"size:255;default:null" json:"garage_email"`

	// invoice defaults
	InvoicePrefix      string          `gorm:"size:10;not null;default:INV" json:"invoice_prefix"`
	InvoiceStartNumber int             `gorm:"not null;default:1" json:"invoice_start_number"`
	DefaultTaxRate     decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"default_tax_rate"`
	Currency           string          `gorm:"size:10;not null;default:USD" json:"currency"`
	PaymentTermsDays   int             `gorm:"not null;default:30" json:"payment_terms_days"`

	// notification toggles
	EmailNotifications *bool `gorm:"not null;default:true" json:"email_notifications"`
	SmsNotifications   *bool `gorm:"not null;default:false" json:"sms_notifications"`
	BookingAlerts      *bool `gorm:"not null;default:true" json:"booking_alerts"`
	InvoiceAlerts      *bool `gorm:"not null;default:true" json:"invoice_alerts"`

	// advanced
	AutoApproveBookings *bool  `gorm:"not null;default:false" json:"auto_approve_bookings"`
	AllowGuestBookings  *bool  `gorm:"not null;default:true" json:"allow_guest_bookings"`
	MaintenanceMode     *bool  `gorm:"not null;default:false" json:"maintenance_mode"`
	Language            string `gorm:"size:10;not null;default:km" json:"language"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type UpdateSettingInput struct {
	GarageName    string `json:"garage_name" binding:"required"`
	GarageAddress string `json:"garage_address"`
	GaragePhone   string `json:"garage_phone"`
	GarageEmail   string `json:"garage_email"`

	InvoicePrefix      string          `json:"invoice_prefix" binding:"required"`
	InvoiceStartNumber int             `json:"invoice_start_number"`
	DefaultTaxRate     decimal.Decimal `json:"default_tax_rate"`
	Currency           string          `json:"currency" binding:"required"`
	PaymentTermsDays   int             `json:"payment_terms_days"`

	EmailNotifications *bool `json:"email_notifications"`
	SmsNotifications   *bool `json:"sms_notifications"`
	BookingAlerts      *bool `json:"booking_alerts"`
	InvoiceAlerts      *bool `json:"invoice_alerts"`

	AutoApproveBookings *bool  `json:"auto_approve_bookings"`
	AllowGuestBookings  *bool  `json:"allow_guest_bookings"`
	MaintenanceMode     *bool  `json:"maintenance_mode"`
	Language            string `json:"language"`
}

func defaultSetting() Setting {
	return Setting{
		GarageName:          "Garage",
		InvoicePrefix:       "INV",
		InvoiceStartNumber:  1,
		DefaultTaxRate:      decimal.Zero,
		Currency:            "USD",
		PaymentTermsDays:    30,
		EmailNotifications:  utils.NewTrue(),
		SmsNotifications:    utils.NewFalse(),
		BookingAlerts:       utils.NewTrue(),
		InvoiceAlerts:       utils.NewTrue(),
		AutoApproveBookings: utils.NewFalse(),
		AllowGuestBookings:  utils.NewTrue(),
		MaintenanceMode:     utils.NewFalse(),
		Language:            "km",
	}
}

func getSettingTx(tx *gorm.DB) (*Setting, error) {
	var setting Setting
	err := tx.First(&setting).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		setting = defaultSetting()
		if cerr := tx.Create(&setting).Error; cerr != nil {
			return nil, cerr
		}
		return &setting, nil
	}
	if err != nil {
		return nil, err
	}
	return &setting, nil
}

func GetSetting(ctx context.Context) (*Setting, error) {
	// settings are read on every invoice create; cache aggressively
	cached, err := utils.RetrieveRedis[Setting](1)
	if err != nil {
		return nil, err
	}
	if cached != nil {
		return cached, nil
	}

	db := config.GetDB()
	var setting *Setting
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var terr error
		setting, terr = getSettingTx(tx)
		return terr
	})
	if err != nil {
		return nil, err
	}

	if err := utils.StoreRedis[Setting](setting, 1); err != nil {
		return nil, err
	}
	return setting, nil
}

func UpdateSetting(ctx context.Context, input *UpdateSettingInput) (*Setting, error) {
	if input.GarageEmail != "" && !utils.IsValidEmail(input.GarageEmail) {
		return nil, errors.New("garage email is invalid")
	}
	if input.DefaultTaxRate.LessThan(decimal.Zero) || input.DefaultTaxRate.GreaterThan(decimal.NewFromInt(100)) {
		return nil, errors.New("default tax rate must be between 0 and 100")
	}
	if input.InvoiceStartNumber < 1 {
		return nil, errors.New("invoice start number must be at least 1")
	}
	if strings.TrimSpace(input.InvoicePrefix) == "" {
		return nil, errors.New("invoice prefix is required")
	}

	db := config.GetDB()
	var setting *Setting
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, terr := getSettingTx(tx)
		if terr != nil {
			return terr
		}

		current.GarageName = input.GarageName
		current.GarageAddress = input.GarageAddress
		current.GaragePhone = input.GaragePhone
		current.GarageEmail = input.GarageEmail
		current.InvoicePrefix = strings.TrimSpace(input.InvoicePrefix)
		current.InvoiceStartNumber = input.InvoiceStartNumber
		current.DefaultTaxRate = input.DefaultTaxRate
		current.Currency = input.Currency
		if input.PaymentTermsDays > 0 {
			current.PaymentTermsDays = input.PaymentTermsDays
		}
		if input.EmailNotifications != nil {
			current.EmailNotifications = input.EmailNotifications
		}
		if input.SmsNotifications != nil {
			current.SmsNotifications = input.SmsNotifications
		}
		if input.BookingAlerts != nil {
			current.BookingAlerts = input.BookingAlerts
		}
		if input.InvoiceAlerts != nil {
			current.InvoiceAlerts = input.InvoiceAlerts
		}
		if input.AutoApproveBookings != nil {
			current.AutoApproveBookings = input.AutoApproveBookings
		}
		if input.AllowGuestBookings != nil {
			current.AllowGuestBookings = input.AllowGuestBookings
		}
		if input.MaintenanceMode != nil {
			current.MaintenanceMode = input.MaintenanceMode
		}
		if input.Language != "" {
			current.Language = input.Language
		}

		setting = current
		return tx.Save(current).Error
	})
	if err != nil {
		return nil, err
	}

	// settings changed; drop the cached copy
	if err := utils.RemoveRedisItem[Setting](1); err != nil {
		return nil, err
	}
	return setting, nil
}
