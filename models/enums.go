package models

import "errors"

type InvoiceStatus string

const (
	InvoiceStatusDraft     InvoiceStatus = "draft"
	InvoiceStatusPaid      InvoiceStatus = "paid"
	InvoiceStatusCancelled InvoiceStatus = "cancelled"
)

func ParseInvoiceStatus(s string) (InvoiceStatus, error) {
	switch s {
	case "draft":
		return InvoiceStatusDraft, nil
	case "paid":
		return InvoiceStatusPaid, nil
	case "cancelled":
		return InvoiceStatusCancelled, nil
	default:
		return "", errors.New("invalid invoice status")
	}
}

// paid and cancelled are terminal; only drafts may change.
func (s InvoiceStatus) IsTerminal() bool {
	return s == InvoiceStatusPaid || s == InvoiceStatusCancelled
}

type InvoiceItemField string

const (
	InvoiceItemFieldDescription InvoiceItemField = "description"
	InvoiceItemFieldQuantity    InvoiceItemField = "quantity"
	InvoiceItemFieldUnitPrice   InvoiceItemField = "unitPrice"
)

func ParseInvoiceItemField(s string) (InvoiceItemField, error) {
	switch s {
	case "description":
		return InvoiceItemFieldDescription, nil
	case "quantity":
		return InvoiceItemFieldQuantity, nil
	case "unitPrice":
		return InvoiceItemFieldUnitPrice, nil
	default:
		return "", errors.New("invalid invoice item field")
	}
}

type BookingStatus string

const (
	BookingStatusPending  BookingStatus = "pending"
	BookingStatusApproved BookingStatus = "approved"
	BookingStatusRejected BookingStatus = "rejected"
)

func ParseBookingStatus(s string) (BookingStatus, error) {
	switch s {
	case "pending":
		return BookingStatusPending, nil
	case "approved":
		return BookingStatusApproved, nil
	case "rejected":
		return BookingStatusRejected, nil
	default:
		return "", errors.New("invalid booking status")
	}
}

type BookingType string

const (
	BookingTypeService BookingType = "service"
	BookingTypePackage BookingType = "package"
	BookingTypeProduct BookingType = "product"
)

type UserRole string

const (
	UserRoleAdmin      UserRole = "admin"
	UserRoleManager    UserRole = "manager"
	UserRoleTechnician UserRole = "technician"
	UserRoleCashier    UserRole = "cashier"
)

type NotificationType string

const (
	NotificationTypeBooking    NotificationType = "booking"
	NotificationTypeTechnician NotificationType = "technician"
	NotificationTypeAlert      NotificationType = "alert"
	NotificationTypeUser       NotificationType = "user"
)

func ParseNotificationType(s string) (NotificationType, error) {
	switch s {
	case "booking":
		return NotificationTypeBooking, nil
	case "technician":
		return NotificationTypeTechnician, nil
	case "alert":
		return NotificationTypeAlert, nil
	case "user":
		return NotificationTypeUser, nil
	default:
		return "", errors.New("invalid notification type")
	}
}

type NotificationStatus string

const (
	NotificationStatusUnread NotificationStatus = "unread"
	NotificationStatusRead   NotificationStatus = "read"
)
