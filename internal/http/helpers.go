package http

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"unicode/utf8"

	"panel/internal/core"
	"panel/internal/services"
)

// maxLabelLength bounds the label echoed back in snapshots.
const maxLabelLength = 80

// sanitizeInput removes control characters, trims whitespace and caps the
// length.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	result := strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
	if utf8.RuneCountInString(result) > maxLabelLength {
		result = string([]rune(result)[:maxLabelLength])
	}
	return result
}

// errorStatus maps service errors to HTTP status codes.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, ErrInvalidQuery),
		errors.Is(err, core.ErrEmptyRange),
		errors.Is(err, core.ErrInvalidRange),
		errors.Is(err, core.ErrInvalidDate):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrRangeTooLong):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrBodyTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		// client went away
		return 499
	default:
		return http.StatusBadGateway
	}
}
