package core

import (
	"sort"
	"strconv"
	"strings"
)

// Field names a user-editable appointment field. Values match the JSON keys.
type Field string

const (
	FieldClientName    Field = "clientName"
	FieldPhone         Field = "phone"
	FieldProcedureName Field = "procedureName"
	FieldDuration      Field = "durationMinutes"
	FieldStartTime     Field = "startTime"
	FieldCost          Field = "costRub"
	FieldDate          Field = "date"
)

// FieldErrors maps each failing field to its reason.
type FieldErrors map[Field]error

func (fe FieldErrors) Error() string {
	fields := make([]string, 0, len(fe))
	for f := range fe {
		fields = append(fields, string(f))
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+": "+fe[Field(f)].Error())
	}
	return "invalid appointment: " + strings.Join(parts, "; ")
}

// Has reports whether f failed validation.
func (fe FieldErrors) Has(f Field) bool {
	_, ok := fe[f]
	return ok
}

// Contact is what a contact picker hands back.
type Contact struct {
	Name  string
	Phone string
}

// AppointmentForm holds raw user input for a new appointment on a given date.
type AppointmentForm struct {
	ClientName    string
	Phone         string
	ProcedureName string
	Duration      string
	StartTime     string
	Cost          string
	Date          Date
}

// ApplyContact fills name and phone from a picked contact. A nil contact
// (picker cancelled) leaves the form as it was.
func (f *AppointmentForm) ApplyContact(c *Contact) {
	if c == nil {
		return
	}
	f.ClientName = c.Name
	f.Phone = c.Phone
}

// Dirty reports whether the user typed anything.
func (f AppointmentForm) Dirty() bool {
	for _, v := range []string{f.ClientName, f.Phone, f.ProcedureName, f.Duration, f.StartTime, f.Cost} {
		if strings.TrimSpace(v) != "" {
			return true
		}
	}
	return false
}

// Parse trims and converts the input into an Appointment with a fresh id.
// On failure it returns FieldErrors covering every bad field.
func (f AppointmentForm) Parse() (Appointment, error) {
	a := Appointment{
		ID:            NewAppointmentID(),
		ClientName:    strings.TrimSpace(f.ClientName),
		Phone:         strings.TrimSpace(f.Phone),
		ProcedureName: strings.TrimSpace(f.ProcedureName),
		StartTime:     strings.TrimSpace(f.StartTime),
		Date:          f.Date,
	}

	parseErrs := FieldErrors{}
	if d, err := strconv.Atoi(strings.TrimSpace(f.Duration)); err == nil {
		a.DurationMinutes = d
	} else {
		parseErrs[FieldDuration] = ErrInvalidDuration
	}
	if k, err := ParseDecimalToKopecks(f.Cost); err == nil {
		a.Cost = Money{Kopecks: k}
	} else {
		parseErrs[FieldCost] = ErrInvalidAmount
	}

	if err := a.Validate(); err != nil {
		for field, reason := range err.(FieldErrors) {
			if !parseErrs.Has(field) {
				parseErrs[field] = reason
			}
		}
	}
	if len(parseErrs) > 0 {
		return Appointment{}, parseErrs
	}
	return a, nil
}
