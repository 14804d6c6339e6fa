package core

import "fmt"

// Screen is one of the top-level tabs.
type Screen string

const (
	ScreenHome     Screen = "home"
	ScreenEarnings Screen = "earnings"
	ScreenProfile  Screen = "profile"
)

// Screens lists the tabs in display order.
var Screens = []Screen{ScreenHome, ScreenEarnings, ScreenProfile}

// ParseScreen maps a tab name to a Screen. Empty selects home.
func ParseScreen(s string) (Screen, error) {
	switch Screen(s) {
	case "", ScreenHome:
		return ScreenHome, nil
	case ScreenEarnings, ScreenProfile:
		return Screen(s), nil
	}
	return "", fmt.Errorf("unknown screen %q", s)
}

// DateStripRadius is how many days either side of the selected date the
// home tab offers.
const DateStripRadius = 15

// Session is the per-user UI state: current tab, selected day and selected
// earnings range.
type Session struct {
	Screen       Screen
	SelectedDate Date
	Range        DateRange
}

// NewSession starts on the home tab with today selected and a today..today range.
func NewSession(today Date) Session {
	return Session{
		Screen:       ScreenHome,
		SelectedDate: today,
		Range:        DateRange{Start: today, End: today},
	}
}

func (s *Session) SetDate(d Date) {
	s.SelectedDate = d
}

// SetRange stores the range with its endpoints in order.
func (s *Session) SetRange(start, end Date) {
	s.Range = NewDateRange(start, end)
}

// DateStrip returns the selected date and DateStripRadius days either side.
func (s Session) DateStrip() []Date {
	days := make([]Date, 0, 2*DateStripRadius+1)
	for i := -DateStripRadius; i <= DateStripRadius; i++ {
		days = append(days, s.SelectedDate.AddDays(i))
	}
	return days
}

// Day filters all down to the selected date.
func (s Session) Day(all []Appointment) []Appointment {
	return DayAppointments(s.SelectedDate, all)
}

// Earnings aggregates all over the selected range.
func (s Session) Earnings(all []Appointment) EarningsReport {
	return Earnings(s.Range, all)
}
