// Package http provides the JSON API server and its handlers.
//
// This file implements utilities for parsing and validating request data:
// month and range query parameters and size-limited JSON bodies.

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"panel/internal/core"
)

// MaxBodyBytes caps request bodies for the compute endpoint.
const MaxBodyBytes = 5 << 20

var (
	ErrInvalidQuery = errors.New("invalid query parameter")
	ErrBodyTooLarge = errors.New("request body too large")
)

// MonthParams holds parsed year/month values from request parameters.
type MonthParams struct {
	Year  int
	Month int
}

// ParseMonthParams extracts year and month from query parameters, using
// now as the default. Out of range months are ignored.
func ParseMonthParams(query url.Values, now time.Time) MonthParams {
	params := MonthParams{
		Year:  now.Year(),
		Month: int(now.Month()),
	}

	if v := strings.TrimSpace(query.Get("year")); v != "" {
		if y, err := strconv.Atoi(v); err == nil && y > 0 {
			params.Year = y
		}
	}
	if v := strings.TrimSpace(query.Get("month")); v != "" {
		if m, err := strconv.Atoi(v); err == nil && m >= 1 && m <= 12 {
			params.Month = m
		}
	}

	return params
}

// RangeQuery is a parsed snapshot request.
type RangeQuery struct {
	Range   core.DateRange
	Compare bool
}

// ParseRangeQuery reads from, to, label and compare. Without from and to
// the range is the calendar month given by year and month, defaulting to
// the month of now. Dates accept every format records accept.
func ParseRangeQuery(query url.Values, dates core.DateParser, now time.Time) (RangeQuery, error) {
	var q RangeQuery

	compare, err := parseBool(query.Get("compare"))
	if err != nil {
		return q, fmt.Errorf("%w: compare: %v", ErrInvalidQuery, err)
	}
	q.Compare = compare

	label := sanitizeInput(query.Get("label"))
	fromStr := strings.TrimSpace(query.Get("from"))
	toStr := strings.TrimSpace(query.Get("to"))

	switch {
	case fromStr == "" && toStr == "":
		m := ParseMonthParams(query, now)
		q.Range = core.MonthRange(m.Year, m.Month, label)
	case fromStr == "" || toStr == "":
		return q, fmt.Errorf("%w: from and to must be given together", ErrInvalidQuery)
	default:
		from, ok := dates.Parse(fromStr)
		if !ok {
			return q, fmt.Errorf("%w: from %q is not a date", ErrInvalidQuery, fromStr)
		}
		to, ok := dates.Parse(toStr)
		if !ok {
			return q, fmt.Errorf("%w: to %q is not a date", ErrInvalidQuery, toStr)
		}
		q.Range = core.NewDateRange(from, to, label)
	}

	return q, nil
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "0", "false", "no", "off":
		return false, nil
	case "1", "true", "yes", "on":
		return true, nil
	}
	return false, fmt.Errorf("%q is not a boolean", s)
}

// DecodeJSONBody decodes a JSON request body of at most maxBytes into dst.
func DecodeJSONBody(w http.ResponseWriter, r *http.Request, dst any, maxBytes int64) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()

	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return fmt.Errorf("%w: limit %d bytes", ErrBodyTooLarge, maxErr.Limit)
		case errors.Is(err, io.EOF):
			return fmt.Errorf("request body is empty")
		default:
			return fmt.Errorf("malformed JSON body: %w", err)
		}
	}
	if dec.More() {
		return fmt.Errorf("request body must hold a single JSON value")
	}
	return nil
}

// RequireMethod checks if the request method matches the expected method(s).
// Returns an error response builder if the method doesn't match.
func RequireMethod(r *http.Request, methods ...string) *JSONResponseBuilder {
	for _, m := range methods {
		if r.Method == m {
			return nil
		}
	}
	return MethodNotAllowedError(strings.Join(methods, ", "))
}

// RequireGET is a convenience function for read-only handlers.
func RequireGET(r *http.Request) *JSONResponseBuilder {
	return RequireMethod(r, http.MethodGet, http.MethodHead)
}

// RequirePOST is a convenience function for POST-only handlers.
func RequirePOST(r *http.Request) *JSONResponseBuilder {
	return RequireMethod(r, http.MethodPost)
}
