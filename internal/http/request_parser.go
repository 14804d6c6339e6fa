// Package http provides HTTP server and handler implementations.
//
// This file implements utilities for parsing and validating HTTP request data:
// the UI session carried in query parameters and the appointment form body.

package http

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"workcal/internal/core"
)

// maxBodyBytes bounds form and backup uploads.
const maxBodyBytes = 8 << 20

// ParseDateParam reads a YYYY-MM-DD value, returning def when absent.
func ParseDateParam(query url.Values, key string, def core.Date) (core.Date, error) {
	v := strings.TrimSpace(query.Get(key))
	if v == "" {
		return def, nil
	}
	d, err := core.ParseDate(v)
	if err != nil {
		return core.Date{}, fmt.Errorf("parameter %s: %w", key, err)
	}
	return d, nil
}

// ParseRangeParams reads start and end. A missing endpoint takes the value of
// the other one, and both default to today.
func ParseRangeParams(query url.Values, today core.Date) (core.DateRange, error) {
	start, err := ParseDateParam(query, "start", core.Date{})
	if err != nil {
		return core.DateRange{}, err
	}
	end, err := ParseDateParam(query, "end", core.Date{})
	if err != nil {
		return core.DateRange{}, err
	}
	switch {
	case start.IsZero() && end.IsZero():
		start, end = today, today
	case start.IsZero():
		start = end
	case end.IsZero():
		end = start
	}
	return core.NewDateRange(start, end), nil
}

// ParseSession rebuilds the UI session from the query string: tab, date,
// start and end.
func ParseSession(query url.Values, today core.Date) (core.Session, error) {
	s := core.NewSession(today)

	screen, err := core.ParseScreen(strings.TrimSpace(query.Get("tab")))
	if err != nil {
		return s, err
	}
	s.Screen = screen

	date, err := ParseDateParam(query, "date", today)
	if err != nil {
		return s, err
	}
	s.SetDate(date)

	r, err := ParseRangeParams(query, today)
	if err != nil {
		return s, err
	}
	s.SetRange(r.Start, r.End)
	return s, nil
}

// ParseContact returns the contact handed over in the query string, or nil
// when none was picked.
func ParseContact(query url.Values) *core.Contact {
	name := sanitizeInput(query.Get("contactName"))
	phone := sanitizeInput(query.Get("contactPhone"))
	if name == "" && phone == "" {
		return nil
	}
	return &core.Contact{Name: name, Phone: phone}
}

// ParseAppointmentForm collects the form fields from a parsed body. The date
// comes from the body or falls back to def.
func ParseAppointmentForm(p *RequestBodyParser, def core.Date) (core.AppointmentForm, error) {
	form := core.AppointmentForm{
		ClientName:    p.Get(string(core.FieldClientName)),
		Phone:         p.Get(string(core.FieldPhone)),
		ProcedureName: p.Get(string(core.FieldProcedureName)),
		Duration:      p.Get(string(core.FieldDuration)),
		StartTime:     p.Get(string(core.FieldStartTime)),
		Cost:          p.Get(string(core.FieldCost)),
		Date:          def,
	}
	if v := p.Get(string(core.FieldDate)); v != "" {
		d, err := core.ParseDate(v)
		if err != nil {
			return form, core.FieldErrors{core.FieldDate: core.ErrInvalidDate}
		}
		form.Date = d
	}
	return form, nil
}

// RequestBodyParser handles different content types for request body parsing.
// It supports both JSON and form-encoded data, commonly used with HTMX.
type RequestBodyParser struct {
	body        []byte
	contentType string
	jsonData    map[string]interface{}
	formData    url.Values
	parsed      bool
	err         error
}

// NewRequestBodyParser reads the body once, up to maxBodyBytes.
func NewRequestBodyParser(r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{
		contentType: r.Header.Get("Content-Type"),
	}
	if r.Body == nil {
		return p
	}
	p.body, p.err = io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if p.err == nil && len(p.body) > maxBodyBytes {
		p.err = fmt.Errorf("request body exceeds %d bytes", maxBodyBytes)
	}
	return p
}

// Parse attempts to parse the body as JSON or form data.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		return p.err
	}

	if len(p.body) == 0 {
		p.formData = url.Values{}
		return nil
	}

	if p.body[0] == '{' || strings.HasPrefix(p.contentType, "application/json") {
		p.jsonData = make(map[string]interface{})
		if err := json.Unmarshal(p.body, &p.jsonData); err != nil {
			p.err = err
			return err
		}
		return nil
	}

	p.formData, p.err = url.ParseQuery(string(p.body))
	return p.err
}

// Get returns a sanitized string value from the parsed data (JSON or form).
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return sanitizeInput(stringValue(val))
		}
		return ""
	}
	if p.formData != nil {
		return sanitizeInput(p.formData.Get(key))
	}
	return ""
}

// GetRaw returns the raw body bytes.
func (p *RequestBodyParser) GetRaw() []byte {
	return p.body
}

// IsJSON returns true if the parsed content was JSON.
func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

func stringValue(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// RequireMethod checks if the request method matches the expected method(s).
// Returns an error response builder if the method doesn't match.
func RequireMethod(r *http.Request, methods ...string) *HTMXResponseBuilder {
	for _, m := range methods {
		if r.Method == m {
			return nil
		}
	}
	return MethodNotAllowedError(strings.Join(methods, ", "))
}

func RequirePOST(r *http.Request) *HTMXResponseBuilder {
	return RequireMethod(r, http.MethodPost)
}

func RequireGET(r *http.Request) *HTMXResponseBuilder {
	return RequireMethod(r, http.MethodGet, http.MethodHead)
}

// wantsJSON reports whether the client prefers a JSON reply.
func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json") && r.Header.Get("HX-Request") == ""
}
