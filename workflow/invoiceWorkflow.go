package workflow

import (
	"context"
	"fmt"

	"bitbucket.org/mmdatafocus/garage_backend/config"
	"bitbucket.org/mmdatafocus/garage_backend/models"
)

// CreateInvoiceWorkflow persists a new invoice and raises an alert
// notification when invoice alerts are switched on in settings.
func CreateInvoiceWorkflow(ctx context.Context, input *models.NewInvoice, markAsPaid bool) (*models.Invoice, error) {
	invoice, err := models.CreateInvoice(ctx, input, markAsPaid)
	if err != nil {
		return nil, err
	}

	notifyInvoice(ctx, invoice, "New invoice",
		fmt.Sprintf("Invoice %s created for %s", invoice.InvoiceNumber, invoice.CustomerName))
	return invoice, nil
}

func UpdateInvoiceWorkflow(ctx context.Context, id int, input *models.NewInvoice, markAsPaid bool) (*models.Invoice, error) {
	return lockedInvoiceOp(ctx, id, func(ctx context.Context) (*models.Invoice, error) {
		return models.UpdateInvoice(ctx, id, input, markAsPaid)
	})
}

func AddInvoiceItemWorkflow(ctx context.Context, id int) (*models.Invoice, error) {
	return lockedInvoiceOp(ctx, id, func(ctx context.Context) (*models.Invoice, error) {
		return models.AddInvoiceItem(ctx, id)
	})
}

func RemoveInvoiceItemWorkflow(ctx context.Context, id int, itemId string) (*models.Invoice, error) {
	return lockedInvoiceOp(ctx, id, func(ctx context.Context) (*models.Invoice, error) {
		return models.RemoveInvoiceItem(ctx, id, itemId)
	})
}

func UpdateInvoiceItemWorkflow(ctx context.Context, id int, itemId string, field models.InvoiceItemField, value string) (*models.Invoice, error) {
	return lockedInvoiceOp(ctx, id, func(ctx context.Context) (*models.Invoice, error) {
		return models.UpdateInvoiceItem(ctx, id, itemId, field, value)
	})
}

func RecalculateInvoiceWorkflow(ctx context.Context, id int) (*models.Invoice, error) {
	return lockedInvoiceOp(ctx, id, func(ctx context.Context) (*models.Invoice, error) {
		return models.RecalculateInvoice(ctx, id)
	})
}

func lockedInvoiceOp(ctx context.Context, id int, op func(ctx context.Context) (*models.Invoice, error)) (*models.Invoice, error) {
	var invoice *models.Invoice
	err := withResourceLock(ctx, "Invoice", id, func(ctx context.Context) error {
		var werr error
		invoice, werr = op(ctx)
		return werr
	})
	if err != nil {
		return nil, err
	}
	return invoice, nil
}

func MarkInvoicePaidWorkflow(ctx context.Context, id int) (*models.Invoice, error) {
	invoice, err := lockedInvoiceOp(ctx, id, func(ctx context.Context) (*models.Invoice, error) {
		return models.MarkInvoicePaid(ctx, id)
	})
	if err != nil {
		return nil, err
	}

	notifyInvoice(ctx, invoice, "Invoice paid",
		fmt.Sprintf("Invoice %s has been marked as paid", invoice.InvoiceNumber))
	return invoice, nil
}

func CancelInvoiceWorkflow(ctx context.Context, id int) (*models.Invoice, error) {
	invoice, err := lockedInvoiceOp(ctx, id, func(ctx context.Context) (*models.Invoice, error) {
		return models.CancelInvoice(ctx, id)
	})
	if err != nil {
		return nil, err
	}

	notifyInvoice(ctx, invoice, "Invoice cancelled",
		fmt.Sprintf("Invoice %s has been cancelled", invoice.InvoiceNumber))
	return invoice, nil
}

// notifyInvoice is best effort; a failed notification never fails the
// invoice operation itself.
func notifyInvoice(ctx context.Context, invoice *models.Invoice, title string, message string) {
	logger := config.GetLogger()

	setting, err := models.GetSetting(ctx)
	if err != nil {
		config.LogError(logger, "invoiceWorkflow.go", "notifyInvoice", "GetSetting", invoice.ID, err)
		return
	}
	if setting.InvoiceAlerts == nil || !*setting.InvoiceAlerts {
		return
	}

	_, err = models.CreateNotification(ctx, &models.NewNotification{
		Type:    models.NotificationTypeAlert,
		Title:   title,
		Message: message,
		Link:    fmt.Sprintf("/invoices/%d", invoice.ID),
	})
	if err != nil {
		config.LogError(logger, "invoiceWorkflow.go", "notifyInvoice", "CreateNotification", invoice.ID, err)
	}
}
