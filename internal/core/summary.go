package core

import "sort"

// DateRange is an inclusive span of days with Start <= End.
type DateRange struct {
	Start Date
	End   Date
}

// NewDateRange builds a range from two endpoints in any order.
func NewDateRange(a, b Date) DateRange {
	if a.After(b.Time) {
		a, b = b, a
	}
	return DateRange{Start: a, End: b}
}

// Contains reports whether d falls inside the range, endpoints included.
func (r DateRange) Contains(d Date) bool {
	return !d.Before(r.Start.Time) && !d.After(r.End.Time)
}

func (r DateRange) String() string {
	return r.Start.String() + ".." + r.End.String()
}

// DailyEarnings is the sum of one day's appointments.
type DailyEarnings struct {
	Date  Date
	Total Money
	Count int
}

// EarningsReport is a date-ordered per-day breakdown plus the grand total.
// Days without appointments are absent.
type EarningsReport struct {
	Range DateRange
	Days  []DailyEarnings
	Total Money
	Count int
}

// ChartBar is one day of the earnings chart; Height is a percentage of the tallest bar.
type ChartBar struct {
	Date   Date
	Amount Money
	Height int
}

// DayAppointments returns the appointments on d ordered by start time.
func DayAppointments(d Date, all []Appointment) []Appointment {
	out := make([]Appointment, 0)
	for _, a := range all {
		if a.Date.Equal(d.Time) {
			out = append(out, a)
		}
	}
	SortAppointments(out)
	return out
}

// Earnings sums costs per day for appointments inside r.
func Earnings(r DateRange, all []Appointment) EarningsReport {
	r = NewDateRange(r.Start, r.End)
	report := EarningsReport{Range: r}

	byDay := map[string]*DailyEarnings{}
	for _, a := range all {
		if !r.Contains(a.Date) {
			continue
		}
		key := a.Date.String()
		day, ok := byDay[key]
		if !ok {
			day = &DailyEarnings{Date: a.Date}
			byDay[key] = day
		}
		day.Total.Kopecks += a.Cost.Kopecks
		day.Count++
		report.Total.Kopecks += a.Cost.Kopecks
		report.Count++
	}

	report.Days = make([]DailyEarnings, 0, len(byDay))
	for _, day := range byDay {
		report.Days = append(report.Days, *day)
	}
	sortDays(report.Days)
	return report
}

// Chart scales each day against the best day. The scale never drops below
// one rouble so that tiny totals do not fill the chart.
func (r EarningsReport) Chart() []ChartBar {
	var maxKopecks int64 = 100
	for _, d := range r.Days {
		if d.Total.Kopecks > maxKopecks {
			maxKopecks = d.Total.Kopecks
		}
	}
	bars := make([]ChartBar, 0, len(r.Days))
	for _, d := range r.Days {
		height := 0
		if d.Total.Kopecks > 0 {
			height = int((d.Total.Kopecks*100 + maxKopecks/2) / maxKopecks)
			if height < 2 {
				height = 2
			}
			if height > 100 {
				height = 100
			}
		}
		bars = append(bars, ChartBar{Date: d.Date, Amount: d.Total, Height: height})
	}
	return bars
}

func sortDays(days []DailyEarnings) {
	sort.Slice(days, func(i, j int) bool {
		return days[i].Date.Before(days[j].Date.Time)
	})
}
