package utils

import (
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

func IsValidEmail(email string) bool {
	return emailRegex.MatchString(email)
}

// flatten gin binding errors into field -> message
func ProcessValidationErrors(err error) map[string]string {
	errorsMap := make(map[string]string)
	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		for _, fieldError := range validationErrors {
			errorsMap[LowercaseFirst(fieldError.Field())] = fieldError.Tag()
		}
	}
	return errorsMap
}

func NewTrue() *bool {
	b := true
	return &b
}

func NewFalse() *bool {
	b := false
	return &b
}

func UniqueSlice[T comparable](slice []T) []T {
	keys := make(map[T]bool)
	list := []T{}
	for _, entry := range slice {
		if _, value := keys[entry]; !value {
			keys[entry] = true
			list = append(list, entry)
		}
	}
	return list
}

// returns default value of T if ptr is nil
func DereferencePtr[T any](ptr *T, defaults ...T) T {
	if ptr == nil {
		if len(defaults) > 0 {
			return defaults[0]
		}
		var zero T
		return zero
	}
	return *ptr
}

func NilIfEmpty[T comparable](value T) *T {
	var zero T
	if value == zero {
		return nil
	}
	return &value
}

func LowercaseFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

// ParseDecimal accepts display-formatted amounts ("1,234.50", " 20 ").
func ParseDecimal(value string) (decimal.Decimal, error) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(value), ",", "")
	if cleaned == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(cleaned)
}

func ConvertToLocalTime(utcTime time.Time, timezone string) time.Time {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return utcTime
	}
	return utcTime.In(loc)
}
