package reports

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strconv"

	"bitbucket.org/mmdatafocus/garage_backend/models"
	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"
)

// ExportInvoicePdf renders a printable A4 invoice and writes it as a pdf
// attachment. Draft invoices get a DRAFT watermark line under the header.
func ExportInvoicePdf(ctx context.Context, w http.ResponseWriter, invoiceId int) error {
	invoice, err := models.GetInvoice(ctx, invoiceId)
	if err != nil {
		return err
	}
	setting, err := models.GetSetting(ctx)
	if err != nil {
		return err
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	// header
	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(120, 10, setting.GarageName)
	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(70, 10, "INVOICE", "", 1, "R", false, 0, "")

	pdf.SetFont("Arial", "", 10)
	if setting.GarageAddress != "" {
		pdf.CellFormat(190, 5, setting.GarageAddress, "", 1, "L", false, 0, "")
	}
	if setting.GaragePhone != "" {
		pdf.CellFormat(190, 5, setting.GaragePhone, "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(95, 6, "Invoice No: "+invoice.InvoiceNumber, "", 0, "L", false, 0, "")
	pdf.SetFont("Arial", "", 11)
	pdf.CellFormat(95, 6, "Date: "+invoice.IssueDate.Format("2006-01-02"), "", 1, "R", false, 0, "")
	if invoice.CurrentStatus != models.InvoiceStatusPaid {
		pdf.SetFont("Arial", "B", 11)
		pdf.CellFormat(190, 6, fmt.Sprintf("Status: %s", invoice.CurrentStatus), "", 1, "L", false, 0, "")
	}
	pdf.Ln(2)

	// bill to
	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(190, 6, "Bill To", "", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(190, 5, invoice.CustomerName, "", 1, "L", false, 0, "")
	if invoice.Vehicle != "" || invoice.PlateNumber != "" {
		pdf.CellFormat(190, 5, fmt.Sprintf("%s %s", invoice.Vehicle, invoice.PlateNumber), "", 1, "L", false, 0, "")
	}
	if invoice.CustomerPhone != "" {
		pdf.CellFormat(190, 5, invoice.CustomerPhone, "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	// items table
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(95, 7, "Description", "1", 0, "L", false, 0, "")
	pdf.CellFormat(20, 7, "Qty", "1", 0, "C", false, 0, "")
	pdf.CellFormat(35, 7, "Unit Price", "1", 0, "R", false, 0, "")
	pdf.CellFormat(40, 7, "Line Total", "1", 1, "R", false, 0, "")

	pdf.SetFont("Arial", "", 10)
	for _, item := range invoice.Items {
		pdf.CellFormat(95, 7, item.Description, "1", 0, "L", false, 0, "")
		pdf.CellFormat(20, 7, strconv.Itoa(item.Quantity), "1", 0, "C", false, 0, "")
		pdf.CellFormat(35, 7, money(item.UnitPrice, setting.Currency), "1", 0, "R", false, 0, "")
		pdf.CellFormat(40, 7, money(item.LineTotal, setting.Currency), "1", 1, "R", false, 0, "")
	}
	pdf.Ln(2)

	// totals block
	pdf.CellFormat(115, 6, "", "", 0, "L", false, 0, "")
	pdf.CellFormat(35, 6, "Subtotal", "", 0, "R", false, 0, "")
	pdf.CellFormat(40, 6, money(invoice.Subtotal, setting.Currency), "", 1, "R", false, 0, "")
	if !invoice.Discount.IsZero() {
		pdf.CellFormat(115, 6, "", "", 0, "L", false, 0, "")
		pdf.CellFormat(35, 6, "Discount", "", 0, "R", false, 0, "")
		pdf.CellFormat(40, 6, "-"+money(invoice.Discount, setting.Currency), "", 1, "R", false, 0, "")
	}
	pdf.CellFormat(115, 6, "", "", 0, "L", false, 0, "")
	pdf.CellFormat(35, 6, fmt.Sprintf("Tax (%s%%)", invoice.TaxRate.String()), "", 0, "R", false, 0, "")
	pdf.CellFormat(40, 6, money(invoice.TaxAmount, setting.Currency), "", 1, "R", false, 0, "")
	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(115, 7, "", "", 0, "L", false, 0, "")
	pdf.CellFormat(35, 7, "Total", "T", 0, "R", false, 0, "")
	pdf.CellFormat(40, 7, money(invoice.Total, setting.Currency), "T", 1, "R", false, 0, "")

	if invoice.Notes != "" {
		pdf.Ln(6)
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(190, 5, "Notes", "", 1, "L", false, 0, "")
		pdf.SetFont("Arial", "", 10)
		pdf.MultiCell(190, 5, invoice.Notes, "", "L", false)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return err
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.pdf"`, invoice.InvoiceNumber))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	_, err = w.Write(buf.Bytes())
	return err
}

func money(amount decimal.Decimal, currency string) string {
	return fmt.Sprintf("%s %s", amount.StringFixed(2), currency)
}
