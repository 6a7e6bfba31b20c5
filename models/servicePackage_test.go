package models

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestComputePackagePrice(t *testing.T) {
	servicePrices := map[int]decimal.Decimal{
		1: decimal.NewFromFloat(35.00),
		2: decimal.NewFromFloat(15.50),
	}
	productPrices := map[int]decimal.Decimal{
		7: decimal.NewFromFloat(8.25),
	}

	lines := []ServicePackageLine{
		{ServiceId: 1},
		{ServiceId: 2},
		{ProductId: 7, Quantity: 4},
	}

	// 35.00 + 15.50 + 4*8.25 = 83.50
	got := ComputePackagePrice(lines, servicePrices, productPrices)
	if !got.Equal(decimal.NewFromFloat(83.50)) {
		t.Fatalf("package price expected 83.50, got %s", got)
	}
}

func TestComputePackagePrice_DefaultsAndUnknowns(t *testing.T) {
	productPrices := map[int]decimal.Decimal{
		7: decimal.NewFromFloat(10.00),
	}

	// zero quantity counts as one; unknown ids price at zero
	lines := []ServicePackageLine{
		{ProductId: 7, Quantity: 0},
		{ServiceId: 99},
		{ProductId: 98, Quantity: 3},
	}
	got := ComputePackagePrice(lines, map[int]decimal.Decimal{}, productPrices)
	if !got.Equal(decimal.NewFromFloat(10.00)) {
		t.Fatalf("package price expected 10.00, got %s", got)
	}
}

func TestComputePackagePrice_Empty(t *testing.T) {
	got := ComputePackagePrice(nil, nil, nil)
	if !got.IsZero() {
		t.Fatalf("empty package expected 0, got %s", got)
	}
}
