package models

import (
	"errors"
	"testing"

	"bitbucket.org/mmdatafocus/garage_backend/utils"
)

func TestBookingTransitions(t *testing.T) {
	b := &Booking{CurrentStatus: BookingStatusPending}
	if err := b.Approve(); err != nil {
		t.Fatalf("Approve error: %v", err)
	}
	if b.CurrentStatus != BookingStatusApproved {
		t.Fatalf("expected approved, got %s", b.CurrentStatus)
	}

	// approved cannot be approved or rejected again
	if err := b.Approve(); !errors.Is(err, utils.ErrorInvalidTransition) {
		t.Fatalf("expected ErrorInvalidTransition, got %v", err)
	}
	if err := b.Reject(); !errors.Is(err, utils.ErrorInvalidTransition) {
		t.Fatalf("expected ErrorInvalidTransition, got %v", err)
	}

	// but unlike invoices a decided booking can go back to pending
	if err := b.Reset(); err != nil {
		t.Fatalf("Reset error: %v", err)
	}
	if b.CurrentStatus != BookingStatusPending {
		t.Fatalf("expected pending after reset, got %s", b.CurrentStatus)
	}

	if err := b.Reject(); err != nil {
		t.Fatalf("Reject error: %v", err)
	}
	if b.CurrentStatus != BookingStatusRejected {
		t.Fatalf("expected rejected, got %s", b.CurrentStatus)
	}
	if err := b.Reset(); err != nil {
		t.Fatalf("Reset from rejected error: %v", err)
	}
}

func TestBookingReset_PendingIsInvalid(t *testing.T) {
	b := &Booking{CurrentStatus: BookingStatusPending}
	if err := b.Reset(); !errors.Is(err, utils.ErrorInvalidTransition) {
		t.Fatalf("expected ErrorInvalidTransition, got %v", err)
	}
}
