package models

import "testing"

func TestFormatInvoiceNumber(t *testing.T) {
	cases := []struct {
		prefix   string
		year     int
		sequence int
		expected string
	}{
		{"INV", 2025, 1, "INV-2025-001"},
		{"INV", 2025, 42, "INV-2025-042"},
		{"INV", 2025, 999, "INV-2025-999"},
		{"INV", 2025, 1000, "INV-2025-1000"},
		{"GRG", 2026, 7, "GRG-2026-007"},
		{"", 2025, 3, "INV-2025-003"},
	}
	for _, tc := range cases {
		got := FormatInvoiceNumber(tc.prefix, tc.year, tc.sequence)
		if got != tc.expected {
			t.Fatalf("FormatInvoiceNumber(%q, %d, %d) expected %s, got %s",
				tc.prefix, tc.year, tc.sequence, tc.expected, got)
		}
	}
}
