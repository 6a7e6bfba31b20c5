package utils

import "errors"

var (
	ErrorRecordNotFound = errors.New("record not found")

	// invoice engine errors
	ErrorItemNotFound      = errors.New("invoice item not found")
	ErrorInvalidState      = errors.New("invoice is not editable in its current status")
	ErrorInvalidTransition = errors.New("invalid invoice status transition")
)

func ErrorPanic(err error) {
	if err != nil {
		panic(err)
	}
}
