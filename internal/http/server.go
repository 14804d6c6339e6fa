package http

import (
	"bytes"
	"context"
	"errors"
	"html/template"
	"io"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"workcal/internal/cache"
	"workcal/internal/core"
	"workcal/internal/log"
	"workcal/internal/middleware/ratelimit"
	"workcal/internal/middleware/security"
	"workcal/internal/middleware/trace"
	appweb "workcal/web"
)

type (
	// AppointmentCreator validates and stores a new appointment.
	AppointmentCreator interface {
		Create(ctx context.Context, form core.AppointmentForm) (core.Appointment, error)
	}

	// Calendar answers read-side queries.
	Calendar interface {
		Day(d core.Date) []core.Appointment
		All() []core.Appointment
		Earnings(ctx context.Context, r core.DateRange) core.EarningsReport
	}

	// DayObserver streams the appointments of one day after every change.
	DayObserver interface {
		ObserveByDate(ctx context.Context, d core.Date) <-chan []core.Appointment
	}

	// BackupService exports and imports the whole collection.
	BackupService interface {
		Export(ctx context.Context, w io.Writer) (int, error)
		Import(ctx context.Context, r io.Reader) (int, error)
	}
)

// Deps are the collaborators the server needs. Ready is optional.
type Deps struct {
	Appointments AppointmentCreator
	Calendar     Calendar
	Observer     DayObserver
	Backups      BackupService
	Ready        func(ctx context.Context) error
	CacheStats   func() cache.Stats
	Observers    func() int
	Stored       func(ctx context.Context) (int64, error)
	Logger       *log.Logger
}

type Server struct {
	http.Server
	templates *template.Template

	appointments AppointmentCreator
	calendar     Calendar
	observer     DayObserver
	backups      BackupService
	ready        func(ctx context.Context) error
	cacheStats   func() cache.Stats
	observers    func() int
	stored       func(ctx context.Context) (int64, error)

	logger  *log.Logger
	events  *log.StructuredLogger
	limiter *ratelimit.Limiter
	tracer  *trace.Middleware

	now     func() time.Time
	started time.Time

	// closed on Shutdown so open event streams end.
	stopStreams  chan struct{}
	shutdownOnce sync.Once
}

var templateFuncs = template.FuncMap{
	"money":    func(m core.Money) string { return m.String() },
	"iso":      func(d core.Date) string { return d.String() },
	"weekday":  func(d core.Date) string { return d.Weekday().String()[:3] },
	"day":      func(d core.Date) int { return d.Day() },
	"longDate": func(d core.Date) string { return d.Format("Monday, 2 January 2006") },
}

// NewServer configures routes and templates, returning a ready-to-run http.Server.
func NewServer(addr string, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	s := &Server{
		appointments: deps.Appointments,
		calendar:     deps.Calendar,
		observer:     deps.Observer,
		backups:      deps.Backups,
		ready:        deps.Ready,
		cacheStats:   deps.CacheStats,
		observers:    deps.Observers,
		stored:       deps.Stored,
		logger:       logger,
		events:       log.NewStructuredLogger(logger),
		limiter:      ratelimit.NewLimiter(ratelimit.DefaultConfig()),
		tracer:       trace.NewMiddleware(logger, extractClientIP),
		now:          time.Now,
		started:      time.Now(),
		stopStreams:  make(chan struct{}),
	}

	t, err := template.New("").Funcs(templateFuncs).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		logger.Warn("Failed parsing templates", log.FieldError, err)
	}
	s.templates = t

	mux := http.NewServeMux()

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("/static/", security.StaticAssetMiddleware(3600)(static))
	} else {
		logger.Warn("Failed to mount embedded static FS", log.FieldError, err)
	}

	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)
	mux.HandleFunc("/metrics", s.handleMetrics)

	ui := http.NewServeMux()
	ui.HandleFunc("/", s.handleIndex)
	ui.HandleFunc("/ui/day", s.handleDay)
	ui.HandleFunc("/ui/day/stream", s.handleDayStream)
	ui.HandleFunc("/ui/earnings", s.handleEarnings)
	ui.HandleFunc("/ui/form", s.handleForm)
	ui.HandleFunc("/appointments", s.handleCreateAppointment)
	ui.HandleFunc("/api/appointments", s.handleListAppointments)
	ui.HandleFunc("/api/earnings", s.handleEarningsJSON)
	ui.HandleFunc("/backup/export", s.handleExport)
	ui.HandleFunc("/backup/import", s.handleImport)

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	var app http.Handler = ui
	app = security.NoStore(app)
	app = s.limiter.Middleware(extractClientIP)(app)
	app = headers.Middleware(app)
	mux.Handle("/", app)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.tracer.Middleware(mux),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Shutdown ends event streams, stops background work and shuts the server down.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		close(s.stopStreams)
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// today is the calendar day on the server's clock.
func (s *Server) today() core.Date {
	return core.Today(s.now())
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	if s.templates == nil {
		s.logger.ErrorContext(r.Context(), "Templates not loaded", log.FieldPath, r.URL.Path)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}
	html, err := s.execute(r.Context(), name, data)
	if err != nil {
		http.Error(w, "render error", http.StatusInternalServerError)
		return
	}
	NewHTMXResponse().Status(status).BodyHTML(html).Write(w)
}

// execute renders a template into memory.
func (s *Server) execute(ctx context.Context, name string, data any) (string, error) {
	if s.templates == nil {
		return "", errors.New("templates not loaded")
	}
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		log.FromContext(ctx).ErrorContext(ctx, "Template execution failed",
			log.FieldError, err,
			"template", name,
			log.FieldOperation, log.OpRender)
		return "", err
	}
	return buf.String(), nil
}
