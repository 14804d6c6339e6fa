// Package backup reads and writes the JSON backup format: an export timestamp
// plus every appointment.
package backup

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"workcal/internal/core"
)

// Payload is the top-level backup document.
type Payload struct {
	ExportedAt   time.Time          `json:"exportedAt"`
	Appointments []core.Appointment `json:"appointments"`
}

// ErrMissingField marks a required key that is absent or null.
var ErrMissingField = errors.New("missing field")

// ParseError describes why a backup document could not be read. Index is the
// position in the appointments array, or -1 for document-level problems.
type ParseError struct {
	Index int
	Field string
	Err   error
}

func (e *ParseError) Error() string {
	switch {
	case e.Index >= 0 && e.Field != "":
		return fmt.Sprintf("backup: appointments[%d].%s: %v", e.Index, e.Field, e.Err)
	case e.Index >= 0:
		return fmt.Sprintf("backup: appointments[%d]: %v", e.Index, e.Err)
	case e.Field != "":
		return fmt.Sprintf("backup: %s: %v", e.Field, e.Err)
	default:
		return fmt.Sprintf("backup: %v", e.Err)
	}
}

func (e *ParseError) Unwrap() error { return e.Err }

// Encode writes all with exportedAt = now as indented JSON.
func Encode(w io.Writer, all []core.Appointment, now time.Time) error {
	if all == nil {
		all = []core.Appointment{}
	}
	p := Payload{ExportedAt: now.UTC(), Appointments: all}
	b, err := json.MarshalIndent(p, "", "    ")
	if err != nil {
		return fmt.Errorf("encode backup: %w", err)
	}
	b = append(b, '\n')
	if _, err := w.Write(b); err != nil {
		return fmt.Errorf("write backup: %w", err)
	}
	return nil
}

// Decode reads a backup document and returns its appointments.
// Unknown keys are ignored. Failures are *ParseError.
func Decode(r io.Reader) ([]core.Appointment, error) {
	p, err := DecodePayload(r)
	if err != nil {
		return nil, err
	}
	return p.Appointments, nil
}

type wirePayload struct {
	ExportedAt   *string           `json:"exportedAt"`
	Appointments *[]wireAppointment `json:"appointments"`
}

type wireAppointment struct {
	ID              *string     `json:"id"`
	ClientName      *string     `json:"clientName"`
	Phone           *string     `json:"phone"`
	ProcedureName   *string     `json:"procedureName"`
	DurationMinutes *int        `json:"durationMinutes"`
	StartTime       *string     `json:"startTime"`
	Cost            *core.Money `json:"costRub"`
	Date            *core.Date  `json:"date"`
}

// DecodePayload is Decode keeping the export timestamp.
func DecodePayload(r io.Reader) (Payload, error) {
	dec := json.NewDecoder(r)
	var wire wirePayload
	if err := dec.Decode(&wire); err != nil {
		return Payload{}, &ParseError{Index: -1, Err: err}
	}
	if _, err := dec.Token(); err != io.EOF {
		return Payload{}, &ParseError{Index: -1, Err: errors.New("unexpected data after document")}
	}

	if wire.ExportedAt == nil {
		return Payload{}, &ParseError{Index: -1, Field: "exportedAt", Err: ErrMissingField}
	}
	exportedAt := parseInstant(*wire.ExportedAt)
	if wire.Appointments == nil {
		return Payload{}, &ParseError{Index: -1, Field: "appointments", Err: ErrMissingField}
	}

	out := make([]core.Appointment, 0, len(*wire.Appointments))
	for i, w := range *wire.Appointments {
		a, err := w.appointment()
		if err != nil {
			err.Index = i
			return Payload{}, err
		}
		out = append(out, a)
	}
	return Payload{ExportedAt: exportedAt, Appointments: out}, nil
}

// instantLayouts are the ISO-8601 shapes other exporters are known to write.
var instantLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999Z0700",
	"2006-01-02T15:04:05.999999999Z07",
	"2006-01-02T15:04:05.999999999",
}

// parseInstant reads the informational export timestamp. Text in none of
// the known layouts yields the zero time rather than failing the import.
func parseInstant(s string) time.Time {
	s = strings.TrimSpace(s)
	for _, layout := range instantLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

func (w wireAppointment) appointment() (core.Appointment, *ParseError) {
	missing := func(f core.Field) *ParseError {
		return &ParseError{Field: string(f), Err: ErrMissingField}
	}
	switch {
	case w.ID == nil:
		return core.Appointment{}, missing("id")
	case w.ClientName == nil:
		return core.Appointment{}, missing(core.FieldClientName)
	case w.Phone == nil:
		return core.Appointment{}, missing(core.FieldPhone)
	case w.ProcedureName == nil:
		return core.Appointment{}, missing(core.FieldProcedureName)
	case w.DurationMinutes == nil:
		return core.Appointment{}, missing(core.FieldDuration)
	case w.StartTime == nil:
		return core.Appointment{}, missing(core.FieldStartTime)
	case w.Cost == nil:
		return core.Appointment{}, missing(core.FieldCost)
	case w.Date == nil:
		return core.Appointment{}, missing(core.FieldDate)
	}
	return core.Appointment{
		ID:              *w.ID,
		ClientName:      *w.ClientName,
		Phone:           *w.Phone,
		ProcedureName:   *w.ProcedureName,
		DurationMinutes: *w.DurationMinutes,
		StartTime:       *w.StartTime,
		Cost:            *w.Cost,
		Date:            *w.Date,
	}, nil
}
