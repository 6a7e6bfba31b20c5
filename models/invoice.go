package models

import (
	"context"
	"strings"
	"time"

	"bitbucket.org/mmdatafocus/garage_backend/config"
	"bitbucket.org/mmdatafocus/garage_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Invoice struct {
	ID            int             `gorm:"primary_key" json:"id"`
	SequenceNo    int             `gorm:"not null" json:"sequence_no"`
	InvoiceNumber string          `gorm:"size:255;not null;uniqueIndex" json:"invoice_number"`
	BookingId     int             `gorm:"index;default:null" json:"booking_id"`
	CustomerName  string          `gorm:"size:255;not null" json:"customer_name"`
	CustomerEmail string          `gorm:"size:255;default:null" json:"customer_email"`
	CustomerPhone string          `gorm:"size:100;default:null" json:"customer_phone"`
	Vehicle       string          `gorm:"size:255;default:null" json:"vehicle"`
	PlateNumber   string          `gorm:"size:50;default:null" json:"plate_number"`
	IssueDate     time.Time       `gorm:"not null" json:"issue_date"`
	CurrentStatus InvoiceStatus   `gorm:"type:enum('draft','paid','cancelled');not null" json:"current_status"`
	Items         []InvoiceItem   `gorm:"foreignKey:InvoiceId" json:"items"`
	TaxRate       decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"tax_rate"`
	Discount      decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"discount"`
	Subtotal      decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"subtotal"`
	TaxAmount     decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"tax_amount"`
	Total         decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"total"`
	Notes         string          `gorm:"type:text;default:null" json:"notes"`
	CreatedAt     time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type InvoiceItem struct {
	ID          string          `gorm:"primaryKey;size:36" json:"id"`
	InvoiceId   int             `gorm:"index" json:"invoice_id"`
	Position    int             `gorm:"not null;default:0" json:"position"`
	Description string          `gorm:"size:255" json:"description"`
	Quantity    int             `gorm:"not null;default:1" json:"quantity"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"unit_price"`
	LineTotal   decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"line_total"`
}

type NewInvoice struct {
	BookingId     int              `json:"booking_id"`
	CustomerName  string           `json:"customer_name" binding:"required"`
	CustomerEmail string           `json:"customer_email"`
	CustomerPhone string           `json:"customer_phone"`
	Vehicle       string           `json:"vehicle"`
	PlateNumber   string           `json:"plate_number"`
	IssueDate     time.Time        `json:"issue_date"`
	Items         []NewInvoiceItem `json:"items" binding:"required"`
	TaxRate       decimal.Decimal  `json:"tax_rate"`
	Discount      decimal.Decimal  `json:"discount"`
	Notes         string           `json:"notes"`
}

type NewInvoiceItem struct {
	Description string           `json:"description" binding:"required"`
	Quantity    int              `json:"quantity" binding:"required"`
	UnitPrice   *decimal.Decimal `json:"unit_price"`
}

type InvoiceFilter struct {
	Status     *InvoiceStatus `json:"status"`
	SearchText string         `json:"search_text"`
}

type InvoiceStatusSummary struct {
	Draft     int64 `json:"draft"`
	Paid      int64 `json:"paid"`
	Cancelled int64 `json:"cancelled"`
}

type PaginatedInvoices struct {
	Invoices      []*Invoice           `json:"invoices"`
	PageInfo      *PageInfo            `json:"pageInfo"`
	StatusSummary InvoiceStatusSummary `json:"statusSummary"`
}

// CreateInvoice materializes a draft via the engine, assigns the next
// sequential invoice number inside the transaction and persists the record.
func CreateInvoice(ctx context.Context, input *NewInvoice, markAsPaid bool) (*Invoice, error) {
	db := config.GetDB()

	invoice, err := NewDraftInvoice(input)
	if err != nil {
		return nil, err
	}
	if input.BookingId > 0 {
		// weak back-reference only: no ownership, no cascading effects
		if err := utils.ValidateResourceId[Booking](ctx, input.BookingId); err != nil {
			return nil, err
		}
	}
	if err := invoice.Commit(markAsPaid); err != nil {
		return nil, err
	}

	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sequenceNo, invoiceNumber, err := NextInvoiceNumber(tx, invoice.IssueDate.Year())
		if err != nil {
			return err
		}
		invoice.SequenceNo = sequenceNo
		invoice.InvoiceNumber = invoiceNumber
		return tx.Create(invoice).Error
	})
	if err != nil {
		return nil, err
	}
	return invoice, nil
}

// UpdateInvoice replaces a draft's editable fields and items, then commits.
// The invoice number and sequence are immutable after creation.
func UpdateInvoice(ctx context.Context, id int, input *NewInvoice, markAsPaid bool) (*Invoice, error) {
	db := config.GetDB()

	existing, err := GetInvoice(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing.CurrentStatus != InvoiceStatusDraft {
		return nil, utils.ErrorInvalidState
	}

	replacement, err := NewDraftInvoice(input)
	if err != nil {
		return nil, err
	}
	replacement.ID = existing.ID
	replacement.SequenceNo = existing.SequenceNo
	replacement.InvoiceNumber = existing.InvoiceNumber
	replacement.CreatedAt = existing.CreatedAt
	for i := range replacement.Items {
		replacement.Items[i].InvoiceId = existing.ID
	}
	if err := replacement.Commit(markAsPaid); err != nil {
		return nil, err
	}

	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// re-check status under lock so concurrent commits cannot interleave
		var current Invoice
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&current, id).Error; err != nil {
			return utils.ErrorRecordNotFound
		}
		if current.CurrentStatus != InvoiceStatusDraft {
			return utils.ErrorInvalidState
		}
		if err := tx.Where("invoice_id = ?", id).Delete(&InvoiceItem{}).Error; err != nil {
			return err
		}
		return tx.Session(&gorm.Session{FullSaveAssociations: true}).Save(replacement).Error
	})
	if err != nil {
		return nil, err
	}
	return replacement, nil
}

func GetInvoice(ctx context.Context, id int) (*Invoice, error) {
	db := config.GetDB()
	var invoice Invoice
	err := db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("invoice_items.position")
		}).
		First(&invoice, id).Error
	if err != nil {
		return nil, utils.ErrorRecordNotFound
	}
	return &invoice, nil
}

// ListInvoices filters by status and free text (invoice number, customer
// name or plate number, case-insensitive) with offset pagination. Newest
// invoices first; ordering is stable across pages.
func ListInvoices(ctx context.Context, filter InvoiceFilter, page int, pageSize int) (*PaginatedInvoices, error) {
	db := config.GetDB()

	dbCtx := db.WithContext(ctx).Model(&Invoice{})
	if filter.Status != nil {
		dbCtx = dbCtx.Where("current_status = ?", *filter.Status)
	}
	if search := strings.TrimSpace(filter.SearchText); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		dbCtx = dbCtx.Where(
			"LOWER(invoice_number) LIKE ? OR LOWER(customer_name) LIKE ? OR LOWER(plate_number) LIKE ?",
			pattern, pattern, pattern,
		)
	}

	var totalCount int64
	if err := dbCtx.Count(&totalCount).Error; err != nil {
		return nil, err
	}

	var invoices []*Invoice
	err := dbCtx.
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("invoice_items.position")
		}).
		Order("issue_date DESC, id DESC").
		Scopes(Paginate(page, pageSize)).
		Find(&invoices).Error
	if err != nil {
		return nil, err
	}

	summary, err := invoiceStatusSummary(ctx)
	if err != nil {
		return nil, err
	}

	return &PaginatedInvoices{
		Invoices:      invoices,
		PageInfo:      NewPageInfo(page, pageSize, totalCount),
		StatusSummary: summary,
	}, nil
}

func invoiceStatusSummary(ctx context.Context) (InvoiceStatusSummary, error) {
	db := config.GetDB()
	var summary InvoiceStatusSummary
	rows := []struct {
		CurrentStatus InvoiceStatus
		Count         int64
	}{}
	err := db.WithContext(ctx).Model(&Invoice{}).
		Select("current_status, COUNT(*) AS count").
		Group("current_status").
		Scan(&rows).Error
	if err != nil {
		return summary, err
	}
	for _, row := range rows {
		switch row.CurrentStatus {
		case InvoiceStatusDraft:
			summary.Draft = row.Count
		case InvoiceStatusPaid:
			summary.Paid = row.Count
		case InvoiceStatusCancelled:
			summary.Cancelled = row.Count
		}
	}
	return summary, nil
}

// AddInvoiceItem appends a blank line to a draft. The stored invoice totals
// are untouched until the next recalculate or commit.
func AddInvoiceItem(ctx context.Context, id int) (*Invoice, error) {
	return mutateDraftItems(ctx, id, func(inv *Invoice) error {
		_, err := inv.AddItem()
		return err
	})
}

// RemoveInvoiceItem deletes one line from a draft. Removing the last
// remaining line is a silent no-op.
func RemoveInvoiceItem(ctx context.Context, id int, itemId string) (*Invoice, error) {
	return mutateDraftItems(ctx, id, func(inv *Invoice) error {
		return inv.RemoveItem(itemId)
	})
}

// UpdateInvoiceItem edits a single field of one draft line from its raw form
// value. Only the line's own total is restamped.
func UpdateInvoiceItem(ctx context.Context, id int, itemId string, field InvoiceItemField, value string) (*Invoice, error) {
	return mutateDraftItems(ctx, id, func(inv *Invoice) error {
		return inv.UpdateItem(itemId, field, value)
	})
}

// RecalculateInvoice rederives and persists the draft's totals from its
// current lines. Safe to call any number of times.
func RecalculateInvoice(ctx context.Context, id int) (*Invoice, error) {
	db := config.GetDB()
	var invoice *Invoice
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		locked, err := lockDraft(tx, id)
		if err != nil {
			return err
		}
		totals := locked.Recalculate()
		invoice = locked
		return tx.Model(locked).UpdateColumns(map[string]interface{}{
			"subtotal":   totals.Subtotal,
			"tax_amount": totals.TaxAmount,
			"total":      totals.Total,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return invoice, nil
}

func mutateDraftItems(ctx context.Context, id int, mutate func(*Invoice) error) (*Invoice, error) {
	db := config.GetDB()
	var invoice *Invoice
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		locked, err := lockDraft(tx, id)
		if err != nil {
			return err
		}
		if err := mutate(locked); err != nil {
			return err
		}
		if err := tx.Where("invoice_id = ?", id).Delete(&InvoiceItem{}).Error; err != nil {
			return err
		}
		for i := range locked.Items {
			locked.Items[i].InvoiceId = id
		}
		invoice = locked
		if len(locked.Items) == 0 {
			return nil
		}
		return tx.Create(&locked.Items).Error
	})
	if err != nil {
		return nil, err
	}
	return invoice, nil
}

// lockDraft loads an invoice with its lines under FOR UPDATE and rejects
// anything not in draft.
func lockDraft(tx *gorm.DB, id int) (*Invoice, error) {
	var invoice Invoice
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&invoice, id).Error; err != nil {
		return nil, utils.ErrorRecordNotFound
	}
	if invoice.CurrentStatus != InvoiceStatusDraft {
		return nil, utils.ErrorInvalidState
	}
	if err := tx.Where("invoice_id = ?", id).
		Order("position").
		Find(&invoice.Items).Error; err != nil {
		return nil, err
	}
	return &invoice, nil
}

// MarkInvoicePaid applies the draft -> paid transition under a row lock.
func MarkInvoicePaid(ctx context.Context, id int) (*Invoice, error) {
	return transitionInvoice(ctx, id, func(inv *Invoice) error {
		return inv.MarkPaid()
	})
}

// CancelInvoice applies the draft -> cancelled transition under a row lock.
// Cancelled invoices stay on record; the engine never deletes invoices.
func CancelInvoice(ctx context.Context, id int) (*Invoice, error) {
	return transitionInvoice(ctx, id, func(inv *Invoice) error {
		return inv.Cancel()
	})
}

func transitionInvoice(ctx context.Context, id int, transition func(*Invoice) error) (*Invoice, error) {
	db := config.GetDB()
	var invoice Invoice
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&invoice, id).Error; err != nil {
			return utils.ErrorRecordNotFound
		}
		if err := transition(&invoice); err != nil {
			return err
		}
		return tx.Model(&invoice).
			UpdateColumn("current_status", invoice.CurrentStatus).Error
	})
	if err != nil {
		return nil, err
	}
	if err := db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("invoice_items.position")
		}).
		First(&invoice, id).Error; err != nil {
		return nil, utils.ErrorRecordNotFound
	}
	return &invoice, nil
}
