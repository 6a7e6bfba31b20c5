package reports

import (
	"context"
	"time"

	"bitbucket.org/mmdatafocus/garage_backend/config"
	"github.com/shopspring/decimal"
)

type InvoiceListResponse struct {
	InvoiceID     int             `json:"invoiceId"`
	InvoiceNumber string          `json:"invoiceNumber"`
	InvoiceStatus string          `json:"invoiceStatus"`
	IssueDate     time.Time       `json:"issueDate"`
	CustomerName  string          `json:"customerName"`
	PlateNumber   string          `json:"plateNumber"`
	Vehicle       string          `json:"vehicle"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	TaxAmount     decimal.Decimal `json:"taxAmount"`
	Discount      decimal.Decimal `json:"discount"`
	Total         decimal.Decimal `json:"total"`
	ItemCount     int             `json:"itemCount"`
}

// GetInvoiceListReport returns one row per invoice in the date range,
// newest first. Draft invoices are included; they carry their last
// committed totals.
func GetInvoiceListReport(ctx context.Context, fromDate time.Time, toDate time.Time) ([]*InvoiceListResponse, error) {

	sql := `
SELECT
    invoices.id AS invoice_id,
    invoices.invoice_number,
    invoices.current_status AS invoice_status,
    invoices.issue_date,
    invoices.customer_name,
    invoices.plate_number,
    invoices.vehicle,
    invoices.subtotal,
    invoices.tax_amount,
    invoices.discount,
    invoices.total,
    COUNT(invoice_items.id) AS item_count
FROM
    invoices
    LEFT JOIN invoice_items ON invoice_items.invoice_id = invoices.id
WHERE
    invoices.issue_date BETWEEN ? AND ?
GROUP BY
    invoices.id
ORDER BY
    invoices.issue_date DESC,
    invoices.id DESC;
`

	var records []*InvoiceListResponse
	db := config.GetDB()
	if err := db.WithContext(ctx).Raw(sql, fromDate, toDate).Scan(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

type InvoiceRevenueSummary struct {
	PaidTotal      decimal.Decimal `json:"paidTotal"`
	PaidCount      int64           `json:"paidCount"`
	DraftTotal     decimal.Decimal `json:"draftTotal"`
	DraftCount     int64           `json:"draftCount"`
	CancelledCount int64           `json:"cancelledCount"`
}

// GetInvoiceRevenueSummary aggregates totals for the dashboard cards.
// Only paid invoices contribute to revenue.
func GetInvoiceRevenueSummary(ctx context.Context, fromDate time.Time, toDate time.Time) (*InvoiceRevenueSummary, error) {

	sql := `
SELECT
    COALESCE(SUM(CASE WHEN current_status = 'paid' THEN total ELSE 0 END), 0) AS paid_total,
    SUM(current_status = 'paid') AS paid_count,
    COALESCE(SUM(CASE WHEN current_status = 'draft' THEN total ELSE 0 END), 0) AS draft_total,
    SUM(current_status = 'draft') AS draft_count,
    SUM(current_status = 'cancelled') AS cancelled_count
FROM
    invoices
WHERE
    issue_date BETWEEN ? AND ?;
`

	var summary InvoiceRevenueSummary
	db := config.GetDB()
	if err := db.WithContext(ctx).Raw(sql, fromDate, toDate).Scan(&summary).Error; err != nil {
		return nil, err
	}
	return &summary, nil
}
