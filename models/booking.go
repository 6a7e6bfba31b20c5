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

type Booking struct {
	ID              int             `gorm:"primary_key" json:"id"`
	CustomerName    string          `gorm:"size:255;not null" json:"customer_name"`
	CustomerPhone   string          `gorm:"size:100;default:null" json:"customer_phone"`
	Vehicle         string          `gorm:"size:255;default:null" json:"vehicle"`
	PlateNumber     string          `gorm:"size:50;default:null" json:"plate_number"`
	ServiceName     string          `gorm:"size:255;not null" json:"service_name"`
	ServiceCode     string          `gorm:"size:50;default:null" json:"service_code"`
	BookingDate     time.Time       `gorm:"not null" json:"booking_date"`
	BookingTime     string          `gorm:"size:20;default:null" json:"booking_time"`
	BookingType     BookingType     `gorm:"type:enum('service','package','product');not null;default:service" json:"booking_type"`
	CurrentStatus   BookingStatus   `gorm:"type:enum('pending','approved','rejected');not null;default:pending" json:"current_status"`
	ServicePrice    decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"service_price"`
	Description     string          `gorm:"type:text;default:null" json:"description"`
	AssignedUserId  int             `gorm:"index;default:null" json:"assigned_user_id"`
	Items           []BookingItem   `gorm:"foreignKey:BookingId" json:"items"`
	CreatedAt       time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// One booked line: a service, package or product by display name. Price is
// captured at booking time so later catalog edits don't rewrite bookings.
type BookingItem struct {
	ID        int             `gorm:"primary_key" json:"id"`
	BookingId int             `gorm:"index;not null" json:"booking_id"`
	Name      string          `gorm:"size:255;not null" json:"name"`
	Quantity  int             `gorm:"not null;default:1" json:"quantity"`
	Price     decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"price"`
}

type NewBooking struct {
	CustomerName   string           `json:"customer_name" binding:"required"`
	CustomerPhone  string           `json:"customer_phone"`
	Vehicle        string           `json:"vehicle"`
	PlateNumber    string           `json:"plate_number"`
	ServiceName    string           `json:"service_name" binding:"required"`
	ServiceCode    string           `json:"service_code"`
	BookingDate    time.Time        `json:"booking_date" binding:"required"`
	BookingTime    string           `json:"booking_time"`
	BookingType    BookingType      `json:"booking_type"`
	ServicePrice   decimal.Decimal  `json:"service_price"`
	Description    string           `json:"description"`
	AssignedUserId int              `json:"assigned_user_id"`
	Items          []NewBookingItem `json:"items"`
}

type NewBookingItem struct {
	Name     string          `json:"name" binding:"required"`
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

type BookingFilter struct {
	Status     *BookingStatus `json:"status"`
	SearchText string         `json:"search_text"`
}

type BookingStatusSummary struct {
	Pending  int64 `json:"pending"`
	Approved int64 `json:"approved"`
	Rejected int64 `json:"rejected"`
}

type PaginatedBookings struct {
	Bookings      []*Booking           `json:"bookings"`
	PageInfo      *PageInfo            `json:"pageInfo"`
	StatusSummary BookingStatusSummary `json:"statusSummary"`
}

/* state machine; unlike invoices, bookings are operationally reversible */

// Approve moves pending -> approved.
func (b *Booking) Approve() error {
	if b.CurrentStatus != BookingStatusPending {
		return utils.ErrorInvalidTransition
	}
	b.CurrentStatus = BookingStatusApproved
	return nil
}

// Reject moves pending -> rejected.
func (b *Booking) Reject() error {
	if b.CurrentStatus != BookingStatusPending {
		return utils.ErrorInvalidTransition
	}
	b.CurrentStatus = BookingStatusRejected
	return nil
}

// Reset returns an approved or rejected booking to pending. Staff can
// change their mind about a booking; invoices get no such operation.
func (b *Booking) Reset() error {
	if b.CurrentStatus == BookingStatusPending {
		return utils.ErrorInvalidTransition
	}
	b.CurrentStatus = BookingStatusPending
	return nil
}

func (input *NewBooking) validate(ctx context.Context) error {
	if input.BookingDate.IsZero() {
		return errors.New("booking date is required")
	}
	for i := range input.Items {
		if input.Items[i].Quantity < 1 {
			input.Items[i].Quantity = 1
		}
	}
	if input.AssignedUserId > 0 {
		if err := utils.ValidateResourceId[User](ctx, input.AssignedUserId); err != nil {
			return errors.New("assigned staff not found")
		}
	}
	return nil
}

func CreateBooking(ctx context.Context, input *NewBooking) (*Booking, error) {
	db := config.GetDB()

	if err := input.validate(ctx); err != nil {
		return nil, err
	}

	bookingType := input.BookingType
	if bookingType == "" {
		bookingType = BookingTypeService
	}

	status := BookingStatusPending
	setting, err := GetSetting(ctx)
	if err != nil {
		return nil, err
	}
	if utils.DereferencePtr(setting.AutoApproveBookings) {
		status = BookingStatusApproved
	}

	items := make([]BookingItem, 0, len(input.Items))
	for _, item := range input.Items {
		items = append(items, BookingItem{
			Name:     item.Name,
			Quantity: item.Quantity,
			Price:    item.Price,
		})
	}

	booking := Booking{
		CustomerName:   input.CustomerName,
		CustomerPhone:  input.CustomerPhone,
		Vehicle:        input.Vehicle,
		PlateNumber:    input.PlateNumber,
		ServiceName:    input.ServiceName,
		ServiceCode:    input.ServiceCode,
		BookingDate:    input.BookingDate,
		BookingTime:    input.BookingTime,
		BookingType:    bookingType,
		CurrentStatus:  status,
		ServicePrice:   input.ServicePrice,
		Description:    input.Description,
		AssignedUserId: input.AssignedUserId,
		Items:          items,
	}

	if err := db.WithContext(ctx).Create(&booking).Error; err != nil {
		return nil, err
	}
	return &booking, nil
}

func UpdateBooking(ctx context.Context, id int, input *NewBooking) (*Booking, error) {
	db := config.GetDB()

	if err := input.validate(ctx); err != nil {
		return nil, err
	}

	booking, err := utils.FetchModel[Booking](ctx, id, "Items")
	if err != nil {
		return nil, err
	}

	items := make([]BookingItem, 0, len(input.Items))
	for _, item := range input.Items {
		items = append(items, BookingItem{
			BookingId: booking.ID,
			Name:      item.Name,
			Quantity:  item.Quantity,
			Price:     item.Price,
		})
	}

	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(booking).Updates(map[string]interface{}{
			"CustomerName":   input.CustomerName,
			"CustomerPhone":  input.CustomerPhone,
			"Vehicle":        input.Vehicle,
			"PlateNumber":    input.PlateNumber,
			"ServiceName":    input.ServiceName,
			"ServiceCode":    input.ServiceCode,
			"BookingDate":    input.BookingDate,
			"BookingTime":    input.BookingTime,
			"ServicePrice":   input.ServicePrice,
			"Description":    input.Description,
			"AssignedUserId": input.AssignedUserId,
		}).Error; err != nil {
			return err
		}
		return tx.Model(booking).
			Session(&gorm.Session{FullSaveAssociations: true}).
			Association("Items").
			Unscoped().Replace(&items)
	})
	if err != nil {
		return nil, err
	}
	return utils.FetchModel[Booking](ctx, id, "Items")
}

func GetBooking(ctx context.Context, id int) (*Booking, error) {
	return utils.FetchModel[Booking](ctx, id, "Items")
}

func ListBookings(ctx context.Context, filter BookingFilter, page int, pageSize int) (*PaginatedBookings, error) {
	db := config.GetDB()

	dbCtx := db.WithContext(ctx).Model(&Booking{})
	if filter.Status != nil {
		dbCtx = dbCtx.Where("current_status = ?", *filter.Status)
	}
	if search := strings.TrimSpace(filter.SearchText); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		dbCtx = dbCtx.Where(
			"LOWER(customer_name) LIKE ? OR LOWER(vehicle) LIKE ? OR LOWER(plate_number) LIKE ? OR LOWER(service_name) LIKE ?",
			pattern, pattern, pattern, pattern,
		)
	}

	var totalCount int64
	if err := dbCtx.Count(&totalCount).Error; err != nil {
		return nil, err
	}

	var bookings []*Booking
	err := dbCtx.
		Preload("Items").
		Order("booking_date DESC, id DESC").
		Scopes(Paginate(page, pageSize)).
		Find(&bookings).Error
	if err != nil {
		return nil, err
	}

	summary, err := bookingStatusSummary(ctx)
	if err != nil {
		return nil, err
	}

	return &PaginatedBookings{
		Bookings:      bookings,
		PageInfo:      NewPageInfo(page, pageSize, totalCount),
		StatusSummary: summary,
	}, nil
}

func bookingStatusSummary(ctx context.Context) (BookingStatusSummary, error) {
	db := config.GetDB()
	var summary BookingStatusSummary
	rows := []struct {
		CurrentStatus BookingStatus
		Count         int64
	}{}
	err := db.WithContext(ctx).Model(&Booking{}).
		Select("current_status, COUNT(*) AS count").
		Group("current_status").
		Scan(&rows).Error
	if err != nil {
		return summary, err
	}
	for _, row := range rows {
		switch row.CurrentStatus {
		case BookingStatusPending:
			summary.Pending = row.Count
		case BookingStatusApproved:
			summary.Approved = row.Count
		case BookingStatusRejected:
			summary.Rejected = row.Count
		}
	}
	return summary, nil
}

func ApproveBooking(ctx context.Context, id int) (*Booking, error) {
	return transitionBooking(ctx, id, func(b *Booking) error { return b.Approve() })
}

func RejectBooking(ctx context.Context, id int) (*Booking, error) {
	return transitionBooking(ctx, id, func(b *Booking) error { return b.Reject() })
}

func ResetBooking(ctx context.Context, id int) (*Booking, error) {
	return transitionBooking(ctx, id, func(b *Booking) error { return b.Reset() })
}

func transitionBooking(ctx context.Context, id int, transition func(*Booking) error) (*Booking, error) {
	db := config.GetDB()
	var booking Booking
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&booking, id).Error; err != nil {
			return utils.ErrorRecordNotFound
		}
		if err := transition(&booking); err != nil {
			return err
		}
		return tx.Model(&booking).
			UpdateColumn("current_status", booking.CurrentStatus).Error
	})
	if err != nil {
		return nil, err
	}
	return utils.FetchModel[Booking](ctx, id, "Items")
}

// DeleteBooking removes a booking and its items. Bookings can be deleted
// from the page; invoices cannot.
func DeleteBooking(ctx context.Context, id int) (*Booking, error) {
	db := config.GetDB()
	booking, err := utils.FetchModel[Booking](ctx, id, "Items")
	if err != nil {
		return nil, err
	}
	if err := db.WithContext(ctx).Select("Items").Delete(booking).Error; err != nil {
		return nil, err
	}
	return booking, nil
}
