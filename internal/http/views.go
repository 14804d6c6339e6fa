package http

import (
	"net/url"

	"workcal/internal/core"
)

type stripDay struct {
	Date     core.Date
	Selected bool
	Today    bool
}

type formView struct {
	Values core.AppointmentForm
	Errors map[string]string
}

// Error returns the message for one field, or "".
func (f formView) Error(field string) string {
	return f.Errors[field]
}

type dayView struct {
	Date         core.Date
	Appointments []core.Appointment
	Total        core.Money
}

func newDayView(d core.Date, list []core.Appointment) dayView {
	v := dayView{Date: d, Appointments: list}
	for _, a := range list {
		v.Total.Kopecks += a.Cost.Kopecks
	}
	return v
}

type earningsView struct {
	Range  core.DateRange
	Report core.EarningsReport
	Chart  []core.ChartBar
}

func newEarningsView(rep core.EarningsReport) earningsView {
	return earningsView{Range: rep.Range, Report: rep, Chart: rep.Chart()}
}

type pageData struct {
	Session  core.Session
	Screens  []core.Screen
	Today    core.Date
	Strip    []stripDay
	Day      dayView
	Form     formView
	Earnings earningsView
}

// TabURL links to another tab keeping the selected date and range.
func (p pageData) TabURL(screen core.Screen) string {
	return p.url(screen, p.Session.SelectedDate)
}

// DateURL selects another day on the home tab.
func (p pageData) DateURL(d core.Date) string {
	return p.url(core.ScreenHome, d)
}

func (p pageData) url(screen core.Screen, d core.Date) string {
	q := url.Values{}
	q.Set("tab", string(screen))
	q.Set("date", d.String())
	q.Set("start", p.Session.Range.Start.String())
	q.Set("end", p.Session.Range.End.String())
	return "/?" + q.Encode()
}

func newPageData(session core.Session, today core.Date, day []core.Appointment, form core.AppointmentForm, rep core.EarningsReport) pageData {
	strip := make([]stripDay, 0, 2*core.DateStripRadius+1)
	for _, d := range session.DateStrip() {
		strip = append(strip, stripDay{
			Date:     d,
			Selected: d.Compare(session.SelectedDate) == 0,
			Today:    d.Compare(today) == 0,
		})
	}
	return pageData{
		Session:  session,
		Screens:  core.Screens,
		Today:    today,
		Strip:    strip,
		Day:      newDayView(session.SelectedDate, day),
		Form:     formView{Values: form},
		Earnings: newEarningsView(rep),
	}
}

// Wire shapes for the JSON endpoints. Appointments use their own JSON tags.
type (
	dailyJSON struct {
		Date  core.Date  `json:"date"`
		Total core.Money `json:"totalRub"`
		Count int        `json:"count"`
	}

	earningsJSON struct {
		Start core.Date   `json:"start"`
		End   core.Date   `json:"end"`
		Total core.Money  `json:"totalRub"`
		Count int         `json:"count"`
		Days  []dailyJSON `json:"days"`
	}
)

func toEarningsJSON(rep core.EarningsReport) earningsJSON {
	out := earningsJSON{
		Start: rep.Range.Start,
		End:   rep.Range.End,
		Total: rep.Total,
		Count: rep.Count,
		Days:  make([]dailyJSON, 0, len(rep.Days)),
	}
	for _, d := range rep.Days {
		out.Days = append(out.Days, dailyJSON{Date: d.Date, Total: d.Total, Count: d.Count})
	}
	return out
}
