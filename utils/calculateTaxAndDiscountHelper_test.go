package utils

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestRoundMoney_HalfAwayFromZero(t *testing.T) {
	cases := []struct {
		in       string
		expected string
	}{
		{"1.8075", "1.81"},
		{"1.804", "1.8"},
		{"2.005", "2.01"},
		{"-2.005", "-2.01"},
		{"27.50", "27.5"},
	}
	for _, tc := range cases {
		in, _ := decimal.NewFromString(tc.in)
		expected, _ := decimal.NewFromString(tc.expected)
		if got := RoundMoney(in); !got.Equal(expected) {
			t.Fatalf("RoundMoney(%s) expected %s, got %s", tc.in, tc.expected, got)
		}
	}
}

func TestCalculateLineTotal(t *testing.T) {
	price, _ := decimal.NewFromString("12.50")
	got := CalculateLineTotal(2, price)
	if !got.Equal(decimal.NewFromFloat(25.00)) {
		t.Fatalf("line total expected 25.00, got %s", got)
	}
}

func TestCalculateTaxAmount(t *testing.T) {
	cases := []struct {
		subtotal string
		rate     string
		expected string
	}{
		{"25.00", "10", "2.50"},
		{"24.10", "7.5", "1.81"},
		{"100", "0", "0"},
	}
	for _, tc := range cases {
		subtotal, _ := decimal.NewFromString(tc.subtotal)
		rate, _ := decimal.NewFromString(tc.rate)
		expected, _ := decimal.NewFromString(tc.expected)
		if got := CalculateTaxAmount(subtotal, rate); !got.Equal(expected) {
			t.Fatalf("CalculateTaxAmount(%s, %s) expected %s, got %s",
				tc.subtotal, tc.rate, tc.expected, got)
		}
	}
}

func TestCalculateDiscountAmount(t *testing.T) {
	subtotal, _ := decimal.NewFromString("200")
	percent, _ := decimal.NewFromString("7.5")

	if got := CalculateDiscountAmount(subtotal, percent, "P"); !got.Equal(decimal.NewFromInt(15)) {
		t.Fatalf("percent discount expected 15, got %s", got)
	}
	flat, _ := decimal.NewFromString("12.30")
	if got := CalculateDiscountAmount(subtotal, flat, ""); !got.Equal(flat) {
		t.Fatalf("flat discount expected 12.30, got %s", got)
	}
	if got := CalculateDiscountAmount(subtotal, decimal.Zero, "P"); !got.IsZero() {
		t.Fatalf("zero discount expected 0, got %s", got)
	}
}
