package storage

import (
	"context"
)

const countAppointments = `-- name: CountAppointments :one
SELECT COUNT(*) FROM appointments
`

func (q *Queries) CountAppointments(ctx context.Context) (int64, error) {
	row := q.db.QueryRowContext(ctx, countAppointments)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const deleteAllAppointments = `-- name: DeleteAllAppointments :exec
DELETE FROM appointments
`

func (q *Queries) DeleteAllAppointments(ctx context.Context) error {
	_, err := q.db.ExecContext(ctx, deleteAllAppointments)
	return err
}

const listAppointments = `-- name: ListAppointments :many
SELECT id, client_name, phone, procedure_name, duration_minutes, start_time, cost_kopecks, date, created_at, updated_at
FROM appointments
ORDER BY date ASC, start_time ASC, id ASC
`

func (q *Queries) ListAppointments(ctx context.Context) ([]Appointment, error) {
	rows, err := q.db.QueryContext(ctx, listAppointments)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Appointment
	for rows.Next() {
		var i Appointment
		if err := rows.Scan(
			&i.ID,
			&i.ClientName,
			&i.Phone,
			&i.ProcedureName,
			&i.DurationMinutes,
			&i.StartTime,
			&i.CostKopecks,
			&i.Date,
			&i.CreatedAt,
			&i.UpdatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const upsertAppointment = `-- name: UpsertAppointment :exec
INSERT INTO appointments (id, client_name, phone, procedure_name, duration_minutes, start_time, cost_kopecks, date)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET
    client_name = excluded.client_name,
    phone = excluded.phone,
    procedure_name = excluded.procedure_name,
    duration_minutes = excluded.duration_minutes,
    start_time = excluded.start_time,
    cost_kopecks = excluded.cost_kopecks,
    date = excluded.date,
    updated_at = CURRENT_TIMESTAMP
`

type UpsertAppointmentParams struct {
	ID              string
	ClientName      string
	Phone           string
	ProcedureName   string
	DurationMinutes int64
	StartTime       string
	CostKopecks     int64
	Date            string
}

func (q *Queries) UpsertAppointment(ctx context.Context, arg UpsertAppointmentParams) error {
	_, err := q.db.ExecContext(ctx, upsertAppointment,
		arg.ID,
		arg.ClientName,
		arg.Phone,
		arg.ProcedureName,
		arg.DurationMinutes,
		arg.StartTime,
		arg.CostKopecks,
		arg.Date,
	)
	return err
}
