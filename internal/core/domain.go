package core

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DateLayout is the wire and storage format of calendar dates.
const DateLayout = "2006-01-02"

type (
	// Date is a calendar day in UTC with no time component.
	Date struct {
		time.Time
	}

	// Money is an amount in roubles, held as kopecks.
	Money struct {
		Kopecks int64
	}

	// Appointment is one scheduled client visit.
	Appointment struct {
		ID              string `json:"id"`
		ClientName      string `json:"clientName"`
		Phone           string `json:"phone"`
		ProcedureName   string `json:"procedureName"`
		DurationMinutes int    `json:"durationMinutes"`
		StartTime       string `json:"startTime"` // HH:MM, 24-hour
		Cost            Money  `json:"costRub"`
		Date            Date   `json:"date"`
	}
)

var (
	ErrEmptyClientName = errors.New("empty client name")
	ErrEmptyPhone      = errors.New("empty phone")
	ErrInvalidPhone    = errors.New("invalid phone")
	ErrEmptyProcedure  = errors.New("empty procedure name")
	ErrInvalidDuration = errors.New("invalid duration")
	ErrInvalidTime     = errors.New("invalid start time")
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidDate     = errors.New("invalid date")
)

var (
	phonePattern = regexp.MustCompile(`^\+?\d{10,15}$`)
	clockPattern = regexp.MustCompile(`^([01]\d|2[0-3]):([0-5]\d)$`)
)

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// Today returns the calendar day of now in its own location.
func Today(now time.Time) Date {
	y, m, d := now.Date()
	return NewDate(y, int(m), d)
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return Date{Time: t}, nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// AddDays returns the date n days after d (n may be negative).
func (d Date) AddDays(n int) Date {
	return Date{Time: d.Time.AddDate(0, 0, n)}
}

// Compare returns -1, 0 or +1 like strings.Compare.
func (d Date) Compare(o Date) int {
	switch {
	case d.Before(o.Time):
		return -1
	case d.After(o.Time):
		return 1
	default:
		return 0
	}
}

// MarshalJSON overrides the promoted time.Time encoding.
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := string(b)
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return fmt.Errorf("%w: %s", ErrInvalidDate, s)
	}
	parsed, err := ParseDate(s[1 : len(s)-1])
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (m Money) Validate() error {
	if m.Kopecks <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// NewAppointmentID returns a fresh random identifier.
func NewAppointmentID() string {
	return uuid.NewString()
}

// Validate checks every business field and reports all failures at once.
// The returned error is a FieldErrors value, or nil.
func (a Appointment) Validate() error {
	fe := FieldErrors{}
	if strings.TrimSpace(a.ClientName) == "" {
		fe[FieldClientName] = ErrEmptyClientName
	}
	switch phone := strings.TrimSpace(a.Phone); {
	case phone == "":
		fe[FieldPhone] = ErrEmptyPhone
	case !phonePattern.MatchString(phone):
		fe[FieldPhone] = ErrInvalidPhone
	}
	if strings.TrimSpace(a.ProcedureName) == "" {
		fe[FieldProcedureName] = ErrEmptyProcedure
	}
	if a.DurationMinutes <= 0 {
		fe[FieldDuration] = ErrInvalidDuration
	}
	if !ValidClock(a.StartTime) {
		fe[FieldStartTime] = ErrInvalidTime
	}
	if err := a.Cost.Validate(); err != nil {
		fe[FieldCost] = err
	}
	if err := a.Date.Validate(); err != nil {
		fe[FieldDate] = err
	}
	if len(fe) == 0 {
		return nil
	}
	return fe
}

// EndTime returns the HH:MM at which the appointment finishes. It wraps past midnight.
func (a Appointment) EndTime() string {
	t, err := time.Parse("15:04", a.StartTime)
	if err != nil {
		return ""
	}
	return t.Add(time.Duration(a.DurationMinutes) * time.Minute).Format("15:04")
}

// ValidClock reports whether s is a 24-hour HH:MM time of day.
func ValidClock(s string) bool {
	return clockPattern.MatchString(strings.TrimSpace(s))
}

// SortAppointments orders by date, then start time, then id.
func SortAppointments(list []Appointment) {
	sort.SliceStable(list, func(i, j int) bool {
		if c := list[i].Date.Compare(list[j].Date); c != 0 {
			return c < 0
		}
		if list[i].StartTime != list[j].StartTime {
			return list[i].StartTime < list[j].StartTime
		}
		return list[i].ID < list[j].ID
	})
}
