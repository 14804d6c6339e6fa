package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"workcal/internal/core"
	"workcal/internal/log"
)

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	NewHTMXResponse().BodyJSON(map[string]string{
		"status":    "ok",
		"timestamp": s.now().UTC().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
	}).Write(w)
}

// handleReady verifies templates and the storage backend.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]string)

	if s.templates == nil {
		checks["templates"] = "failed: templates not loaded"
		status, httpStatus = "not_ready", http.StatusServiceUnavailable
	} else {
		checks["templates"] = "ok"
	}

	switch {
	case s.ready == nil:
		checks["storage"] = "not_configured"
	default:
		if err := s.ready(ctx); err != nil {
			checks["storage"] = "failed: " + err.Error()
			status, httpStatus = "not_ready", http.StatusServiceUnavailable
		} else {
			checks["storage"] = "ok"
		}
	}

	NewHTMXResponse().Status(httpStatus).BodyJSON(map[string]any{
		"status":    status,
		"timestamp": s.now().UTC().Format(time.RFC3339),
		"checks":    checks,
	}).Write(w)
}

// handleMetrics reports counters in Prometheus text format.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
	w.WriteHeader(http.StatusOK)

	tm := s.tracer.GetMetrics()
	rl := s.limiter.GetMetrics()

	fmt.Fprintf(w, "# TYPE http_requests_total counter\nhttp_requests_total %d\n", tm.TotalRequests)
	fmt.Fprintf(w, "# TYPE http_response_time_avg_microseconds gauge\nhttp_response_time_avg_microseconds %d\n", tm.AverageResponseTime)
	fmt.Fprintf(w, "# TYPE rate_limit_hits_total counter\nrate_limit_hits_total %d\n", rl.TotalHits)
	fmt.Fprintf(w, "# TYPE rate_limit_clients gauge\nrate_limit_clients %d\n", rl.ClientCount)
	if s.cacheStats != nil {
		cs := s.cacheStats()
		fmt.Fprintf(w, "# TYPE earnings_cache_entries gauge\nearnings_cache_entries %d\n", cs.Size)
		fmt.Fprintf(w, "# TYPE earnings_cache_hits_total counter\nearnings_cache_hits_total %d\n", cs.Hits)
		fmt.Fprintf(w, "# TYPE earnings_cache_misses_total counter\nearnings_cache_misses_total %d\n", cs.Misses)
	}
	if s.observers != nil {
		fmt.Fprintf(w, "# TYPE store_observers gauge\nstore_observers %d\n", s.observers())
	}
	if s.stored != nil {
		if n, err := s.stored(r.Context()); err != nil {
			log.FromContext(r.Context()).WarnContext(r.Context(), "Count appointments failed", log.FieldError, err)
		} else {
			fmt.Fprintf(w, "# TYPE appointments_stored gauge\nappointments_stored %d\n", n)
		}
	}
	fmt.Fprintf(w, "# TYPE uptime_seconds gauge\nuptime_seconds %.0f\n", time.Since(s.started).Seconds())
}

// handleIndex renders the page for the tab, date and range in the query.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		NotFoundError("Page not found").Write(w)
		return
	}
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}

	today := s.today()
	session, err := ParseSession(r.URL.Query(), today)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	form := core.AppointmentForm{Date: session.SelectedDate}
	form.ApplyContact(ParseContact(r.URL.Query()))

	data := newPageData(session, today,
		s.calendar.Day(session.SelectedDate),
		form,
		s.calendar.Earnings(r.Context(), session.Range))
	s.render(w, r, http.StatusOK, "index.html", data)
}

// handleDay renders the appointment list of one day.
func (s *Server) handleDay(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}
	d, err := ParseDateParam(r.URL.Query(), "date", s.today())
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	s.render(w, r, http.StatusOK, "day_list", newDayView(d, s.calendar.Day(d)))
}

// handleEarnings renders the earnings report partial.
func (s *Server) handleEarnings(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}
	rng, err := ParseRangeParams(r.URL.Query(), s.today())
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	s.render(w, r, http.StatusOK, "earnings_report", newEarningsView(s.calendar.Earnings(r.Context(), rng)))
}

func (s *Server) handleEarningsJSON(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}
	rng, err := ParseRangeParams(r.URL.Query(), s.today())
	if err != nil {
		NewHTMXResponse().Status(http.StatusBadRequest).BodyJSON(map[string]string{"error": err.Error()}).Write(w)
		return
	}
	NewHTMXResponse().BodyJSON(toEarningsJSON(s.calendar.Earnings(r.Context(), rng))).Write(w)
}

// handleListAppointments returns all appointments, or one day's with ?date=.
func (s *Server) handleListAppointments(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}
	list := s.calendar.All()
	if r.URL.Query().Get("date") != "" {
		d, err := ParseDateParam(r.URL.Query(), "date", core.Date{})
		if err != nil {
			NewHTMXResponse().Status(http.StatusBadRequest).BodyJSON(map[string]string{"error": err.Error()}).Write(w)
			return
		}
		list = s.calendar.Day(d)
	}
	if list == nil {
		list = []core.Appointment{}
	}
	NewHTMXResponse().BodyJSON(list).Write(w)
}

// handleForm renders a blank form for the date, prefilled from a picked
// contact when one is given. Cancel swaps it in to discard typed input.
func (s *Server) handleForm(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}
	d, err := ParseDateParam(r.URL.Query(), "date", s.today())
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	form := core.AppointmentForm{Date: d}
	form.ApplyContact(ParseContact(r.URL.Query()))
	s.render(w, r, http.StatusOK, "appointment_form", formView{Values: form})
}

// handleCreateAppointment validates the form and stores the appointment.
// Field errors come back as 422 with every failing field.
func (s *Server) handleCreateAppointment(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}
	ctx := r.Context()

	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		log.FromContext(ctx).WarnContext(ctx, "Parse body error", log.FieldError, err, log.FieldPath, r.URL.Path)
		BadRequestError("Malformed request").Write(w)
		return
	}
	asJSON := p.IsJSON() || wantsJSON(r)

	form, err := ParseAppointmentForm(p, s.today())
	var a core.Appointment
	if err == nil {
		a, err = s.appointments.Create(ctx, form)
	}

	var fe core.FieldErrors
	switch {
	case errors.As(err, &fe):
		s.events.LogValidationFailed(ctx, fe)
		msgs := fieldErrorMessages(fe)
		if asJSON {
			NewHTMXResponse().
				Status(http.StatusUnprocessableEntity).
				BodyJSON(map[string]any{"errors": msgs}).
				Write(w)
			return
		}
		html, rerr := s.execute(ctx, "appointment_form", formView{Values: form, Errors: msgs})
		if rerr != nil {
			UnprocessableEntityError(fe.Error()).Write(w)
			return
		}
		NewHTMXResponse().
			Status(http.StatusUnprocessableEntity).
			TriggerErrorNotification("Check the highlighted fields").
			BodyHTML(html).
			Write(w)
		return

	case err != nil:
		s.events.LogError(ctx, "Failed to save appointment", err, log.ComponentStore, log.OpCreate, nil)
		if asJSON {
			NewHTMXResponse().Status(http.StatusInternalServerError).BodyJSON(map[string]string{"error": "could not save appointment"}).Write(w)
			return
		}
		InternalServerError("Could not save the appointment").Write(w)
		return
	}

	s.events.LogAppointmentCreated(ctx, a)
	if asJSON {
		NewHTMXResponse().Status(http.StatusCreated).BodyJSON(a).Write(w)
		return
	}

	resp := NewHTMXResponse().
		TriggerAppointmentCreated(a.Date.String()).
		TriggerFormReset().
		TriggerSuccessNotification(fmt.Sprintf("Saved %s at %s", a.ClientName, a.StartTime))
	html, err := s.execute(ctx, "appointment_form", formView{Values: core.AppointmentForm{Date: a.Date}})
	if err != nil {
		// Saved already; reload the page instead of swapping in a broken form.
		log.FromContext(ctx).ErrorContext(ctx, "Render fresh form failed",
			log.FieldError, err,
			log.FieldOperation, log.OpRender)
		resp.Header("HX-Refresh", "true").
			BodyHTML(`<div class="success">Saved</div>`).
			Write(w)
		return
	}
	resp.BodyHTML(html).Write(w)
}
