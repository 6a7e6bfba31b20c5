package utils

import "testing"

func TestParseDecimal(t *testing.T) {
	cases := []struct {
		in       string
		expected string
	}{
		{"20000", "20000"},
		{"20,000", "20000"},
		{"  1,234.50  ", "1234.5"},
		{"", "0"},
		{"  ", "0"},
		{"-12.30", "-12.3"},
	}
	for _, tc := range cases {
		d, err := ParseDecimal(tc.in)
		if err != nil {
			t.Fatalf("ParseDecimal(%q) error: %v", tc.in, err)
		}
		if d.String() != tc.expected {
			t.Fatalf("ParseDecimal(%q) expected %s, got %s", tc.in, tc.expected, d.String())
		}
	}

	if _, err := ParseDecimal("abc"); err == nil {
		t.Fatal("ParseDecimal(abc) expected error")
	}
}

func TestIsValidEmail(t *testing.T) {
	valid := []string{"garage@example.com", "first.last+tag@sub.domain.co"}
	invalid := []string{"", "not-an-email", "missing@tld", "@example.com"}

	for _, email := range valid {
		if !IsValidEmail(email) {
			t.Fatalf("expected %q to be valid", email)
		}
	}
	for _, email := range invalid {
		if IsValidEmail(email) {
			t.Fatalf("expected %q to be invalid", email)
		}
	}
}

func TestLowercaseFirst(t *testing.T) {
	cases := map[string]string{
		"CustomerName": "customerName",
		"x":            "x",
		"":             "",
	}
	for in, expected := range cases {
		if got := LowercaseFirst(in); got != expected {
			t.Fatalf("LowercaseFirst(%q) expected %q, got %q", in, expected, got)
		}
	}
}
