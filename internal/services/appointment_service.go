package services

import (
	"context"
	"fmt"
	"log/slog"

	"workcal/internal/core"
)

// AppointmentWriter persists appointments.
type AppointmentWriter interface {
	Insert(ctx context.Context, a core.Appointment) error
}

// AppointmentService validates user input before it reaches the store.
type AppointmentService struct {
	store AppointmentWriter
}

func NewAppointmentService(store AppointmentWriter) *AppointmentService {
	return &AppointmentService{store: store}
}

// Create parses the form and saves the result. Validation failures are
// returned as core.FieldErrors and nothing is written.
func (s *AppointmentService) Create(ctx context.Context, form core.AppointmentForm) (core.Appointment, error) {
	a, err := form.Parse()
	if err != nil {
		return core.Appointment{}, err
	}
	if err := s.store.Insert(ctx, a); err != nil {
		return core.Appointment{}, fmt.Errorf("save appointment: %w", err)
	}
	slog.InfoContext(ctx, "Appointment created",
		"id", a.ID,
		"date", a.Date.String(),
		"start", a.StartTime,
		"cost_kopecks", a.Cost.Kopecks)
	return a, nil
}
