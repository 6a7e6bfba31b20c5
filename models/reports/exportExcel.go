package reports

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"bitbucket.org/mmdatafocus/garage_backend/config"
	"bitbucket.org/mmdatafocus/garage_backend/utils"
	"github.com/xuri/excelize/v2"
)

// ExportInvoicesExcel writes the invoice list report for the date range
// as an xlsx attachment.
func ExportInvoicesExcel(ctx context.Context, w http.ResponseWriter, fromDate time.Time, toDate time.Time) error {
	log := config.GetLogger()

	records, err := GetInvoiceListReport(ctx, fromDate, toDate)
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			config.LogError(log, "exportExcel.go", "ExportInvoicesExcel", "Close", nil, err)
		}
	}()

	f.SetCellValue("Sheet1", "A1", "Invoice Number")
	f.SetCellValue("Sheet1", "B1", "Status")
	f.SetCellValue("Sheet1", "C1", "Issue Date")
	f.SetCellValue("Sheet1", "D1", "Customer")
	f.SetCellValue("Sheet1", "E1", "Vehicle")
	f.SetCellValue("Sheet1", "F1", "Plate Number")
	f.SetCellValue("Sheet1", "G1", "Items")
	f.SetCellValue("Sheet1", "H1", "Subtotal")
	f.SetCellValue("Sheet1", "I1", "Discount")
	f.SetCellValue("Sheet1", "J1", "Tax")
	f.SetCellValue("Sheet1", "K1", "Total")

	timezone := os.Getenv("TIMEZONE")
	for i, record := range records {
		row := i + 2
		f.SetCellValue("Sheet1", fmt.Sprintf("A%d", row), record.InvoiceNumber)
		f.SetCellValue("Sheet1", fmt.Sprintf("B%d", row), record.InvoiceStatus)
		f.SetCellValue("Sheet1", fmt.Sprintf("C%d", row), utils.ConvertToLocalTime(record.IssueDate, timezone).Format("2006-01-02"))
		f.SetCellValue("Sheet1", fmt.Sprintf("D%d", row), record.CustomerName)
		f.SetCellValue("Sheet1", fmt.Sprintf("E%d", row), record.Vehicle)
		f.SetCellValue("Sheet1", fmt.Sprintf("F%d", row), record.PlateNumber)
		f.SetCellValue("Sheet1", fmt.Sprintf("G%d", row), record.ItemCount)
		f.SetCellValue("Sheet1", fmt.Sprintf("H%d", row), record.Subtotal.InexactFloat64())
		f.SetCellValue("Sheet1", fmt.Sprintf("I%d", row), record.Discount.InexactFloat64())
		f.SetCellValue("Sheet1", fmt.Sprintf("J%d", row), record.TaxAmount.InexactFloat64())
		f.SetCellValue("Sheet1", fmt.Sprintf("K%d", row), record.Total.InexactFloat64())
	}

	fileName := fmt.Sprintf("invoices_%s_%s.xlsx", fromDate.Format("20060102"), toDate.Format("20060102"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, fileName))

	return f.Write(w)
}
