package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"bitbucket.org/mmdatafocus/garage_backend/utils"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// The invoice engine is the DB-free core of this service. Every derived
// amount (line totals, subtotal, tax, grand total) is owned here; callers
// never compute money on their own. All operations either fully succeed or
// leave the invoice untouched.

type InvoiceTotals struct {
	Subtotal  decimal.Decimal `json:"subtotal"`
	TaxAmount decimal.Decimal `json:"tax_amount"`
	Total     decimal.Decimal `json:"total"`
}

var decimalHundred = decimal.NewFromInt(100)

// NewDraftInvoice validates input and materializes a draft invoice with all
// derived totals computed. Invoice number assignment is the store's job
// (see invoiceNumberSeries.go); the engine leaves it blank.
func NewDraftInvoice(input *NewInvoice) (*Invoice, error) {
	if input == nil {
		return nil, errors.New("invoice input is required")
	}
	if strings.TrimSpace(input.CustomerName) == "" {
		return nil, errors.New("customer name is required")
	}
	if len(input.Items) == 0 {
		return nil, errors.New("invoice must have at least one item")
	}
	if input.TaxRate.LessThan(decimal.Zero) || input.TaxRate.GreaterThan(decimalHundred) {
		return nil, errors.New("tax rate must be between 0 and 100")
	}
	if input.Discount.LessThan(decimal.Zero) {
		return nil, errors.New("discount must not be negative")
	}

	items := make([]InvoiceItem, 0, len(input.Items))
	for i, in := range input.Items {
		if strings.TrimSpace(in.Description) == "" {
			return nil, fmt.Errorf("items[%d]: description is required", i)
		}
		if in.Quantity < 1 {
			return nil, fmt.Errorf("items[%d]: quantity must be at least 1", i)
		}
		// unit price defaults to 0 when absent rather than failing
		unitPrice := decimal.Zero
		if in.UnitPrice != nil {
			if in.UnitPrice.LessThan(decimal.Zero) {
				return nil, fmt.Errorf("items[%d]: unit price must not be negative", i)
			}
			unitPrice = *in.UnitPrice
		}
		items = append(items, InvoiceItem{
			ID:          uuid.NewString(),
			Position:    i,
			Description: in.Description,
			Quantity:    in.Quantity,
			UnitPrice:   unitPrice,
			LineTotal:   utils.CalculateLineTotal(in.Quantity, unitPrice),
		})
	}

	issueDate := input.IssueDate
	if issueDate.IsZero() {
		issueDate = time.Now()
	}

	invoice := &Invoice{
		BookingId:     input.BookingId,
		CustomerName:  input.CustomerName,
		CustomerEmail: input.CustomerEmail,
		CustomerPhone: input.CustomerPhone,
		Vehicle:       input.Vehicle,
		PlateNumber:   input.PlateNumber,
		IssueDate:     issueDate,
		CurrentStatus: InvoiceStatusDraft,
		Items:         items,
		TaxRate:       input.TaxRate,
		Discount:      input.Discount,
		Notes:         input.Notes,
	}
	invoice.applyTotals(invoice.Recalculate())
	return invoice, nil
}

func (inv *Invoice) ensureDraft() error {
	if inv.CurrentStatus != InvoiceStatusDraft {
		return utils.ErrorInvalidState
	}
	return nil
}

func (inv *Invoice) findItem(itemId string) (*InvoiceItem, error) {
	for i := range inv.Items {
		if inv.Items[i].ID == itemId {
			return &inv.Items[i], nil
		}
	}
	return nil, utils.ErrorItemNotFound
}

// AddItem appends a blank item (quantity 1, price 0) and returns it.
func (inv *Invoice) AddItem() (*InvoiceItem, error) {
	if err := inv.ensureDraft(); err != nil {
		return nil, err
	}
	item := InvoiceItem{
		ID:        uuid.NewString(),
		InvoiceId: inv.ID,
		Position:  len(inv.Items),
		Quantity:  1,
		UnitPrice: decimal.Zero,
		LineTotal: decimal.Zero,
	}
	inv.Items = append(inv.Items, item)
	return &inv.Items[len(inv.Items)-1], nil
}

// RemoveItem deletes the item with the given id. An invoice keeps at least
// one item while editable: removal that would empty it is a no-op, matching
// the form behaviour of disabling the control instead of failing.
func (inv *Invoice) RemoveItem(itemId string) error {
	if err := inv.ensureDraft(); err != nil {
		return err
	}
	if len(inv.Items) <= 1 {
		return nil
	}
	if _, err := inv.findItem(itemId); err != nil {
		return err
	}
	items := make([]InvoiceItem, 0, len(inv.Items)-1)
	for _, item := range inv.Items {
		if item.ID == itemId {
			continue
		}
		item.Position = len(items)
		items = append(items, item)
	}
	inv.Items = items
	return nil
}

// UpdateItem edits one field of one item. Quantity and unit price edits
// recompute that item's line total immediately; invoice-level totals are
// only restamped at commit (the form shows a live projection meanwhile).
// Values arrive as form strings and are parsed per field.
func (inv *Invoice) UpdateItem(itemId string, field InvoiceItemField, value string) error {
	if err := inv.ensureDraft(); err != nil {
		return err
	}
	item, err := inv.findItem(itemId)
	if err != nil {
		return err
	}

	switch field {
	case InvoiceItemFieldDescription:
		// may stay empty mid-edit; required again at commit
		item.Description = value
	case InvoiceItemFieldQuantity:
		quantity, err := parseQuantity(value)
		if err != nil {
			return err
		}
		item.Quantity = quantity
		item.LineTotal = utils.CalculateLineTotal(item.Quantity, item.UnitPrice)
	case InvoiceItemFieldUnitPrice:
		unitPrice, err := parseUnitPrice(value)
		if err != nil {
			return err
		}
		item.UnitPrice = unitPrice
		item.LineTotal = utils.CalculateLineTotal(item.Quantity, item.UnitPrice)
	default:
		return fmt.Errorf("unknown invoice item field %q", field)
	}
	return nil
}

func parseQuantity(value string) (int, error) {
	d, err := utils.ParseDecimal(value)
	if err != nil {
		return 0, errors.New("quantity must be a number")
	}
	if !d.IsInteger() {
		return 0, errors.New("quantity must be a whole number")
	}
	quantity := int(d.IntPart())
	if quantity < 1 {
		return 0, errors.New("quantity must be at least 1")
	}
	return quantity, nil
}

func parseUnitPrice(value string) (decimal.Decimal, error) {
	// empty input defaults to 0 instead of failing
	d, err := utils.ParseDecimal(value)
	if err != nil {
		return decimal.Zero, errors.New("unit price must be a number")
	}
	if d.LessThan(decimal.Zero) {
		return decimal.Zero, errors.New("unit price must not be negative")
	}
	return d, nil
}

// Recalculate derives invoice totals from current items. Pure and
// idempotent: it never mutates the invoice.
//
// A discount larger than subtotal+tax yields a negative total on purpose;
// the engine surfaces it rather than clamping so over-discounting stays
// visible to the caller.
func (inv *Invoice) Recalculate() InvoiceTotals {
	subtotal := decimal.Zero
	for _, item := range inv.Items {
		subtotal = subtotal.Add(item.LineTotal)
	}
	taxAmount := utils.CalculateTaxAmount(subtotal, inv.TaxRate)
	total := utils.RoundMoney(subtotal.Add(taxAmount).Sub(inv.Discount))
	return InvoiceTotals{
		Subtotal:  utils.RoundMoney(subtotal),
		TaxAmount: taxAmount,
		Total:     total,
	}
}

func (inv *Invoice) applyTotals(totals InvoiceTotals) {
	inv.Subtotal = totals.Subtotal
	inv.TaxAmount = totals.TaxAmount
	inv.Total = totals.Total
}

// Commit validates items, restamps persisted totals and, when asked, forces
// the invoice straight to paid ("save and mark paid" combined action).
func (inv *Invoice) Commit(markAsPaid bool) error {
	if !markAsPaid {
		if err := inv.ensureDraft(); err != nil {
			return err
		}
	}
	if len(inv.Items) == 0 {
		return errors.New("invoice must have at least one item")
	}
	for i, item := range inv.Items {
		if strings.TrimSpace(item.Description) == "" {
			return fmt.Errorf("items[%d]: description is required", i)
		}
		if item.Quantity < 1 {
			return fmt.Errorf("items[%d]: quantity must be at least 1", i)
		}
	}
	inv.applyTotals(inv.Recalculate())
	if markAsPaid {
		inv.CurrentStatus = InvoiceStatusPaid
	}
	return nil
}

// MarkPaid transitions draft -> paid. Terminal states never change.
func (inv *Invoice) MarkPaid() error {
	if inv.CurrentStatus != InvoiceStatusDraft {
		return utils.ErrorInvalidTransition
	}
	inv.CurrentStatus = InvoiceStatusPaid
	return nil
}

// Cancel transitions draft -> cancelled. There is no reopen for invoices:
// unlike bookings they are accounting records, not working state.
func (inv *Invoice) Cancel() error {
	if inv.CurrentStatus != InvoiceStatusDraft {
		return utils.ErrorInvalidTransition
	}
	inv.CurrentStatus = InvoiceStatusCancelled
	return nil
}
