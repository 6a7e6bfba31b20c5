package models

import (
	"errors"
	"testing"

	"bitbucket.org/mmdatafocus/garage_backend/utils"
	"github.com/shopspring/decimal"
)

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("bad decimal literal %q: %v", s, err)
	}
	return d
}

func draftInput(t *testing.T) *NewInvoice {
	t.Helper()
	price := dec(t, "12.50")
	return &NewInvoice{
		CustomerName: "Sok Dara",
		Vehicle:      "Toyota Camry",
		PlateNumber:  "1AB-2345",
		TaxRate:      dec(t, "10"),
		Items: []NewInvoiceItem{
			{Description: "Oil change", Quantity: 2, UnitPrice: &price},
		},
	}
}

func TestNewDraftInvoice_DerivesTotals(t *testing.T) {
	inv, err := NewDraftInvoice(draftInput(t))
	if err != nil {
		t.Fatalf("NewDraftInvoice error: %v", err)
	}

	if inv.CurrentStatus != InvoiceStatusDraft {
		t.Fatalf("expected draft status, got %s", inv.CurrentStatus)
	}
	if got := inv.Items[0].LineTotal; !got.Equal(dec(t, "25.00")) {
		t.Fatalf("line total expected 25.00, got %s", got)
	}
	if !inv.Subtotal.Equal(dec(t, "25.00")) {
		t.Fatalf("subtotal expected 25.00, got %s", inv.Subtotal)
	}
	if !inv.TaxAmount.Equal(dec(t, "2.50")) {
		t.Fatalf("tax expected 2.50, got %s", inv.TaxAmount)
	}
	if !inv.Total.Equal(dec(t, "27.50")) {
		t.Fatalf("total expected 27.50, got %s", inv.Total)
	}
}

func TestNewDraftInvoice_Validation(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*NewInvoice)
	}{
		{"missing customer", func(in *NewInvoice) { in.CustomerName = "  " }},
		{"no items", func(in *NewInvoice) { in.Items = nil }},
		{"blank description", func(in *NewInvoice) { in.Items[0].Description = "" }},
		{"zero quantity", func(in *NewInvoice) { in.Items[0].Quantity = 0 }},
		{"tax rate over 100", func(in *NewInvoice) { in.TaxRate = decimal.NewFromInt(101) }},
		{"negative tax rate", func(in *NewInvoice) { in.TaxRate = decimal.NewFromInt(-1) }},
		{"negative discount", func(in *NewInvoice) { in.Discount = decimal.NewFromInt(-5) }},
	}
	for _, tc := range cases {
		input := draftInput(t)
		tc.mutate(input)
		if _, err := NewDraftInvoice(input); err == nil {
			t.Fatalf("%s: expected error, got none", tc.name)
		}
	}
}

func TestNewDraftInvoice_NilUnitPriceDefaultsToZero(t *testing.T) {
	input := draftInput(t)
	input.Items[0].UnitPrice = nil

	inv, err := NewDraftInvoice(input)
	if err != nil {
		t.Fatalf("NewDraftInvoice error: %v", err)
	}
	if !inv.Items[0].UnitPrice.IsZero() || !inv.Items[0].LineTotal.IsZero() {
		t.Fatalf("expected zero price and line total, got %s / %s",
			inv.Items[0].UnitPrice, inv.Items[0].LineTotal)
	}
}

func TestRecalculate_DiscountReducesTotal(t *testing.T) {
	input := draftInput(t)
	input.Discount = dec(t, "5")

	inv, err := NewDraftInvoice(input)
	if err != nil {
		t.Fatalf("NewDraftInvoice error: %v", err)
	}
	if !inv.Total.Equal(dec(t, "22.50")) {
		t.Fatalf("total expected 22.50, got %s", inv.Total)
	}
	// discount never reduces subtotal or tax
	if !inv.Subtotal.Equal(dec(t, "25.00")) || !inv.TaxAmount.Equal(dec(t, "2.50")) {
		t.Fatalf("subtotal/tax changed by discount: %s / %s", inv.Subtotal, inv.TaxAmount)
	}
}

func TestRecalculate_Rounding(t *testing.T) {
	price := dec(t, "24.10")
	inv, err := NewDraftInvoice(&NewInvoice{
		CustomerName: "Chan Thy",
		TaxRate:      dec(t, "7.5"),
		Items: []NewInvoiceItem{
			{Description: "Brake pads", Quantity: 1, UnitPrice: &price},
		},
	})
	if err != nil {
		t.Fatalf("NewDraftInvoice error: %v", err)
	}
	// 24.10 * 7.5% = 1.8075, rounds half away from zero to 1.81
	if !inv.TaxAmount.Equal(dec(t, "1.81")) {
		t.Fatalf("tax expected 1.81, got %s", inv.TaxAmount)
	}
	if !inv.Total.Equal(dec(t, "25.91")) {
		t.Fatalf("total expected 25.91, got %s", inv.Total)
	}
}

func TestRecalculate_Idempotent(t *testing.T) {
	input := draftInput(t)
	input.Discount = dec(t, "3.33")
	inv, err := NewDraftInvoice(input)
	if err != nil {
		t.Fatalf("NewDraftInvoice error: %v", err)
	}

	first := inv.Recalculate()
	inv.applyTotals(first)
	second := inv.Recalculate()

	if !first.Subtotal.Equal(second.Subtotal) ||
		!first.TaxAmount.Equal(second.TaxAmount) ||
		!first.Total.Equal(second.Total) {
		t.Fatalf("recalculate not idempotent: %+v vs %+v", first, second)
	}
}

func TestRecalculate_NegativeTotalAllowed(t *testing.T) {
	input := draftInput(t)
	input.Discount = dec(t, "100")

	inv, err := NewDraftInvoice(input)
	if err != nil {
		t.Fatalf("NewDraftInvoice error: %v", err)
	}
	// 25.00 + 2.50 - 100 = -72.50, surfaced rather than clamped
	if !inv.Total.Equal(dec(t, "-72.50")) {
		t.Fatalf("total expected -72.50, got %s", inv.Total)
	}
}

func TestAddItem_AppendsBlankLine(t *testing.T) {
	inv, err := NewDraftInvoice(draftInput(t))
	if err != nil {
		t.Fatalf("NewDraftInvoice error: %v", err)
	}

	item, err := inv.AddItem()
	if err != nil {
		t.Fatalf("AddItem error: %v", err)
	}
	if item.Quantity != 1 || !item.UnitPrice.IsZero() || !item.LineTotal.IsZero() {
		t.Fatalf("blank line expected qty 1 price 0, got %+v", item)
	}
	if item.Position != 1 {
		t.Fatalf("position expected 1, got %d", item.Position)
	}
	// stored totals are untouched until recalculate/commit
	if !inv.Subtotal.Equal(dec(t, "25.00")) {
		t.Fatalf("subtotal restamped prematurely: %s", inv.Subtotal)
	}
}

func TestRemoveItem_KeepsAtLeastOne(t *testing.T) {
	inv, err := NewDraftInvoice(draftInput(t))
	if err != nil {
		t.Fatalf("NewDraftInvoice error: %v", err)
	}

	// removing the only line is a silent no-op
	if err := inv.RemoveItem(inv.Items[0].ID); err != nil {
		t.Fatalf("RemoveItem error: %v", err)
	}
	if len(inv.Items) != 1 {
		t.Fatalf("expected 1 item after floor no-op, got %d", len(inv.Items))
	}

	added, _ := inv.AddItem()
	if err := inv.RemoveItem(added.ID); err != nil {
		t.Fatalf("RemoveItem error: %v", err)
	}
	if len(inv.Items) != 1 {
		t.Fatalf("expected 1 item after removal, got %d", len(inv.Items))
	}
	if inv.Items[0].Position != 0 {
		t.Fatalf("positions not compacted: %d", inv.Items[0].Position)
	}
}

func TestRemoveItem_UnknownId(t *testing.T) {
	inv, err := NewDraftInvoice(draftInput(t))
	if err != nil {
		t.Fatalf("NewDraftInvoice error: %v", err)
	}
	inv.AddItem()

	err = inv.RemoveItem("nope")
	if !errors.Is(err, utils.ErrorItemNotFound) {
		t.Fatalf("expected ErrorItemNotFound, got %v", err)
	}
}

func TestUpdateItem_RecomputesLineTotal(t *testing.T) {
	inv, err := NewDraftInvoice(draftInput(t))
	if err != nil {
		t.Fatalf("NewDraftInvoice error: %v", err)
	}
	itemId := inv.Items[0].ID

	if err := inv.UpdateItem(itemId, InvoiceItemFieldQuantity, "3"); err != nil {
		t.Fatalf("UpdateItem quantity error: %v", err)
	}
	if !inv.Items[0].LineTotal.Equal(dec(t, "37.50")) {
		t.Fatalf("line total expected 37.50, got %s", inv.Items[0].LineTotal)
	}

	if err := inv.UpdateItem(itemId, InvoiceItemFieldUnitPrice, "10"); err != nil {
		t.Fatalf("UpdateItem price error: %v", err)
	}
	if !inv.Items[0].LineTotal.Equal(dec(t, "30.00")) {
		t.Fatalf("line total expected 30.00, got %s", inv.Items[0].LineTotal)
	}

	// invoice totals only move at recalculate/commit
	if !inv.Subtotal.Equal(dec(t, "25.00")) {
		t.Fatalf("stored subtotal moved on item edit: %s", inv.Subtotal)
	}
	totals := inv.Recalculate()
	if !totals.Subtotal.Equal(dec(t, "30.00")) {
		t.Fatalf("recalculated subtotal expected 30.00, got %s", totals.Subtotal)
	}
}

func TestUpdateItem_ParsesFormStrings(t *testing.T) {
	inv, err := NewDraftInvoice(draftInput(t))
	if err != nil {
		t.Fatalf("NewDraftInvoice error: %v", err)
	}
	itemId := inv.Items[0].ID

	// empty price means zero, not an error
	if err := inv.UpdateItem(itemId, InvoiceItemFieldUnitPrice, ""); err != nil {
		t.Fatalf("empty price should default to zero: %v", err)
	}
	if !inv.Items[0].UnitPrice.IsZero() {
		t.Fatalf("price expected 0, got %s", inv.Items[0].UnitPrice)
	}

	bad := []struct {
		field InvoiceItemField
		value string
	}{
		{InvoiceItemFieldQuantity, "abc"},
		{InvoiceItemFieldQuantity, "1.5"},
		{InvoiceItemFieldQuantity, "0"},
		{InvoiceItemFieldUnitPrice, "abc"},
		{InvoiceItemFieldUnitPrice, "-1"},
	}
	for _, tc := range bad {
		if err := inv.UpdateItem(itemId, tc.field, tc.value); err == nil {
			t.Fatalf("%s=%q: expected error, got none", tc.field, tc.value)
		}
	}
}

func TestStatus_GatesMutation(t *testing.T) {
	for _, status := range []InvoiceStatus{InvoiceStatusPaid, InvoiceStatusCancelled} {
		inv, err := NewDraftInvoice(draftInput(t))
		if err != nil {
			t.Fatalf("NewDraftInvoice error: %v", err)
		}
		itemId := inv.Items[0].ID
		inv.CurrentStatus = status

		if _, err := inv.AddItem(); !errors.Is(err, utils.ErrorInvalidState) {
			t.Fatalf("%s AddItem: expected ErrorInvalidState, got %v", status, err)
		}
		if err := inv.RemoveItem(itemId); !errors.Is(err, utils.ErrorInvalidState) {
			t.Fatalf("%s RemoveItem: expected ErrorInvalidState, got %v", status, err)
		}
		if err := inv.UpdateItem(itemId, InvoiceItemFieldQuantity, "2"); !errors.Is(err, utils.ErrorInvalidState) {
			t.Fatalf("%s UpdateItem: expected ErrorInvalidState, got %v", status, err)
		}
		if err := inv.Commit(false); !errors.Is(err, utils.ErrorInvalidState) {
			t.Fatalf("%s Commit: expected ErrorInvalidState, got %v", status, err)
		}
	}
}

func TestTransitions_TerminalStatesImmutable(t *testing.T) {
	for _, status := range []InvoiceStatus{InvoiceStatusPaid, InvoiceStatusCancelled} {
		inv, err := NewDraftInvoice(draftInput(t))
		if err != nil {
			t.Fatalf("NewDraftInvoice error: %v", err)
		}
		inv.CurrentStatus = status

		if err := inv.MarkPaid(); !errors.Is(err, utils.ErrorInvalidTransition) {
			t.Fatalf("%s MarkPaid: expected ErrorInvalidTransition, got %v", status, err)
		}
		if err := inv.Cancel(); !errors.Is(err, utils.ErrorInvalidTransition) {
			t.Fatalf("%s Cancel: expected ErrorInvalidTransition, got %v", status, err)
		}
		if inv.CurrentStatus != status {
			t.Fatalf("terminal status changed to %s", inv.CurrentStatus)
		}
	}
}

func TestTransitions_FromDraft(t *testing.T) {
	inv, err := NewDraftInvoice(draftInput(t))
	if err != nil {
		t.Fatalf("NewDraftInvoice error: %v", err)
	}
	if err := inv.MarkPaid(); err != nil {
		t.Fatalf("MarkPaid error: %v", err)
	}
	if inv.CurrentStatus != InvoiceStatusPaid {
		t.Fatalf("expected paid, got %s", inv.CurrentStatus)
	}

	inv2, _ := NewDraftInvoice(draftInput(t))
	if err := inv2.Cancel(); err != nil {
		t.Fatalf("Cancel error: %v", err)
	}
	if inv2.CurrentStatus != InvoiceStatusCancelled {
		t.Fatalf("expected cancelled, got %s", inv2.CurrentStatus)
	}
}

func TestCommit_MarkAsPaidForcesPaid(t *testing.T) {
	inv, err := NewDraftInvoice(draftInput(t))
	if err != nil {
		t.Fatalf("NewDraftInvoice error: %v", err)
	}
	if err := inv.Commit(true); err != nil {
		t.Fatalf("Commit error: %v", err)
	}
	if inv.CurrentStatus != InvoiceStatusPaid {
		t.Fatalf("expected paid after commit(markAsPaid), got %s", inv.CurrentStatus)
	}

	// once paid, item mutation is rejected
	if _, err := inv.AddItem(); !errors.Is(err, utils.ErrorInvalidState) {
		t.Fatalf("expected ErrorInvalidState after paid commit, got %v", err)
	}
}

func TestCommit_RevalidatesItems(t *testing.T) {
	inv, err := NewDraftInvoice(draftInput(t))
	if err != nil {
		t.Fatalf("NewDraftInvoice error: %v", err)
	}
	// a blank added line may exist mid-edit but must fail commit
	inv.AddItem()
	if err := inv.Commit(false); err == nil {
		t.Fatal("expected commit to reject blank description")
	}
}

func TestCommit_RestampsTotals(t *testing.T) {
	inv, err := NewDraftInvoice(draftInput(t))
	if err != nil {
		t.Fatalf("NewDraftInvoice error: %v", err)
	}
	if err := inv.UpdateItem(inv.Items[0].ID, InvoiceItemFieldQuantity, "4"); err != nil {
		t.Fatalf("UpdateItem error: %v", err)
	}
	if err := inv.Commit(false); err != nil {
		t.Fatalf("Commit error: %v", err)
	}
	if !inv.Subtotal.Equal(dec(t, "50.00")) {
		t.Fatalf("subtotal expected 50.00, got %s", inv.Subtotal)
	}
	if !inv.TaxAmount.Equal(dec(t, "5.00")) {
		t.Fatalf("tax expected 5.00, got %s", inv.TaxAmount)
	}
	if !inv.Total.Equal(dec(t, "55.00")) {
		t.Fatalf("total expected 55.00, got %s", inv.Total)
	}
}
