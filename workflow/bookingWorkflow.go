package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bitbucket.org/mmdatafocus/garage_backend/config"
	"bitbucket.org/mmdatafocus/garage_backend/models"
	"github.com/shopspring/decimal"
)

var ErrorBookingNotApproved = errors.New("only approved bookings can be invoiced")

func CreateBookingWorkflow(ctx context.Context, input *models.NewBooking) (*models.Booking, error) {
	booking, err := models.CreateBooking(ctx, input)
	if err != nil {
		return nil, err
	}

	notifyBooking(ctx, booking, "New booking",
		fmt.Sprintf("%s booked %s on %s", booking.CustomerName, booking.ServiceName,
			booking.BookingDate.Format("2006-01-02")))
	return booking, nil
}

func ApproveBookingWorkflow(ctx context.Context, id int) (*models.Booking, error) {
	return transitionBookingWorkflow(ctx, id, models.ApproveBooking, "Booking approved")
}

func RejectBookingWorkflow(ctx context.Context, id int) (*models.Booking, error) {
	return transitionBookingWorkflow(ctx, id, models.RejectBooking, "Booking rejected")
}

func ResetBookingWorkflow(ctx context.Context, id int) (*models.Booking, error) {
	return transitionBookingWorkflow(ctx, id, models.ResetBooking, "Booking reset to pending")
}

func transitionBookingWorkflow(ctx context.Context, id int, transition func(context.Context, int) (*models.Booking, error), title string) (*models.Booking, error) {
	var booking *models.Booking
	err := withResourceLock(ctx, "Booking", id, func(ctx context.Context) error {
		var werr error
		booking, werr = transition(ctx, id)
		return werr
	})
	if err != nil {
		return nil, err
	}

	notifyBooking(ctx, booking, title,
		fmt.Sprintf("Booking #%d for %s is now %s", booking.ID, booking.CustomerName, booking.CurrentStatus))
	return booking, nil
}

// ConvertBookingToInvoice drafts an invoice from an approved booking. The
// booked lines become invoice items; a booking without lines falls back to a
// single line for the booked service. The default tax rate from settings
// applies; the caller adjusts afterwards through the normal invoice flow.
func ConvertBookingToInvoice(ctx context.Context, bookingId int, markAsPaid bool) (*models.Invoice, error) {
	booking, err := models.GetBooking(ctx, bookingId)
	if err != nil {
		return nil, err
	}
	if booking.CurrentStatus != models.BookingStatusApproved {
		return nil, ErrorBookingNotApproved
	}

	setting, err := models.GetSetting(ctx)
	if err != nil {
		return nil, err
	}

	input := &models.NewInvoice{
		BookingId:     booking.ID,
		CustomerName:  booking.CustomerName,
		CustomerPhone: booking.CustomerPhone,
		Vehicle:       booking.Vehicle,
		PlateNumber:   booking.PlateNumber,
		IssueDate:     time.Now(),
		TaxRate:       setting.DefaultTaxRate,
		Discount:      decimal.Zero,
	}
	for _, line := range booking.Items {
		price := line.Price
		input.Items = append(input.Items, models.NewInvoiceItem{
			Description: line.Name,
			Quantity:    line.Quantity,
			UnitPrice:   &price,
		})
	}
	if len(input.Items) == 0 {
		price := booking.ServicePrice
		input.Items = append(input.Items, models.NewInvoiceItem{
			Description: booking.ServiceName,
			Quantity:    1,
			UnitPrice:   &price,
		})
	}

	return CreateInvoiceWorkflow(ctx, input, markAsPaid)
}

func notifyBooking(ctx context.Context, booking *models.Booking, title string, message string) {
	logger := config.GetLogger()

	setting, err := models.GetSetting(ctx)
	if err != nil {
		config.LogError(logger, "bookingWorkflow.go", "notifyBooking", "GetSetting", booking.ID, err)
		return
	}
	if setting.BookingAlerts == nil || !*setting.BookingAlerts {
		return
	}

	notification := &models.NewNotification{
		Type:    models.NotificationTypeBooking,
		Title:   title,
		Message: message,
		Link:    fmt.Sprintf("/bookings/%d", booking.ID),
	}
	if booking.AssignedUserId > 0 {
		notification.RecipientId = booking.AssignedUserId
	}
	if _, err := models.CreateNotification(ctx, notification); err != nil {
		config.LogError(logger, "bookingWorkflow.go", "notifyBooking", "CreateNotification", booking.ID, err)
	}
}
