package storage

import "database/sql"

type Appointment struct {
	ID              string
	ClientName      string
	Phone           string
	ProcedureName   string
	DurationMinutes int64
	StartTime       string
	CostKopecks     int64
	Date            string
	CreatedAt       sql.NullTime
	UpdatedAt       sql.NullTime
}
