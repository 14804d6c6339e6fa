package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"workcal/internal/core"
)

var today = core.NewDate(2024, 5, 10)

func TestParseRangeParams(t *testing.T) {
	tests := []struct {
		name      string
		query     url.Values
		wantStart string
		wantEnd   string
		wantErr   bool
	}{
		{name: "defaults to today", query: url.Values{}, wantStart: "2024-05-10", wantEnd: "2024-05-10"},
		{name: "both given", query: url.Values{"start": {"2024-05-01"}, "end": {"2024-05-03"}}, wantStart: "2024-05-01", wantEnd: "2024-05-03"},
		{name: "swapped endpoints are normalized", query: url.Values{"start": {"2024-05-03"}, "end": {"2024-05-01"}}, wantStart: "2024-05-01", wantEnd: "2024-05-03"},
		{name: "only start", query: url.Values{"start": {"2024-04-30"}}, wantStart: "2024-04-30", wantEnd: "2024-04-30"},
		{name: "only end", query: url.Values{"end": {"2024-06-01"}}, wantStart: "2024-06-01", wantEnd: "2024-06-01"},
		{name: "invalid date", query: url.Values{"start": {"01/05/2024"}}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := ParseRangeParams(tt.query, today)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseRangeParams() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				if !errors.Is(err, core.ErrInvalidDate) {
					t.Errorf("error %v should wrap ErrInvalidDate", err)
				}
				return
			}
			if r.Start.String() != tt.wantStart || r.End.String() != tt.wantEnd {
				t.Errorf("range = %s, want %s..%s", r, tt.wantStart, tt.wantEnd)
			}
		})
	}
}

func TestParseSession(t *testing.T) {
	s, err := ParseSession(url.Values{"tab": {"earnings"}, "date": {"2024-05-02"}, "start": {"2024-05-05"}, "end": {"2024-05-01"}}, today)
	if err != nil {
		t.Fatalf("ParseSession: %v", err)
	}
	if s.Screen != core.ScreenEarnings {
		t.Errorf("Screen = %v", s.Screen)
	}
	if s.SelectedDate.String() != "2024-05-02" {
		t.Errorf("SelectedDate = %v", s.SelectedDate)
	}
	if s.Range.String() != "2024-05-01..2024-05-05" {
		t.Errorf("Range = %v", s.Range)
	}

	s, err = ParseSession(url.Values{}, today)
	if err != nil || s.Screen != core.ScreenHome || s.SelectedDate != today {
		t.Errorf("empty query session = %+v, %v", s, err)
	}

	if _, err := ParseSession(url.Values{"tab": {"settings"}}, today); err == nil {
		t.Error("unknown tab should fail")
	}
}

func TestParseContact(t *testing.T) {
	if c := ParseContact(url.Values{}); c != nil {
		t.Errorf("no contact expected, got %+v", c)
	}
	c := ParseContact(url.Values{"contactName": {" Anna "}, "contactPhone": {"+79991234567"}})
	if c == nil || c.Name != "Anna" || c.Phone != "+79991234567" {
		t.Errorf("contact = %+v", c)
	}
}

func TestParseAppointmentForm(t *testing.T) {
	t.Run("form body", func(t *testing.T) {
		body := "clientName=Anna&phone=%2B79991234567&procedureName=Manicure&durationMinutes=90&startTime=10%3A00&costRub=1500%2C50"
		req := httptest.NewRequest(http.MethodPost, "/appointments", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		p := NewRequestBodyParser(req)
		if err := p.Parse(); err != nil {
			t.Fatalf("Parse: %v", err)
		}
		form, err := ParseAppointmentForm(p, today)
		if err != nil {
			t.Fatalf("ParseAppointmentForm: %v", err)
		}
		if form.Phone != "+79991234567" || form.Cost != "1500,50" || form.Date != today {
			t.Errorf("form = %+v", form)
		}
	})

	t.Run("json body with numbers", func(t *testing.T) {
		body := `{"clientName":"Anna","durationMinutes":90,"costRub":1500.5,"date":"2024-05-01"}`
		req := httptest.NewRequest(http.MethodPost, "/appointments", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		p := NewRequestBodyParser(req)
		if err := p.Parse(); err != nil {
			t.Fatalf("Parse: %v", err)
		}
		if !p.IsJSON() {
			t.Fatal("expected JSON body")
		}
		form, err := ParseAppointmentForm(p, today)
		if err != nil {
			t.Fatalf("ParseAppointmentForm: %v", err)
		}
		if form.Duration != "90" || form.Cost != "1500.5" || form.Date.String() != "2024-05-01" {
			t.Errorf("form = %+v", form)
		}
	})

	t.Run("bad date", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/appointments", strings.NewReader("date=tomorrow"))
		p := NewRequestBodyParser(req)
		_ = p.Parse()
		_, err := ParseAppointmentForm(p, today)
		var fe core.FieldErrors
		if !errors.As(err, &fe) || !fe.Has(core.FieldDate) {
			t.Errorf("expected date field error, got %v", err)
		}
	})
}

func TestRequestBodyParser_InvalidJSON(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"clientName":`))
	p := NewRequestBodyParser(req)
	if err := p.Parse(); err == nil {
		t.Fatal("expected JSON error")
	}
	if err := p.Parse(); err == nil {
		t.Fatal("error must be sticky")
	}
}

func TestRequestBodyParser_EmptyBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	p := NewRequestBodyParser(req)
	if err := p.Parse(); err != nil {
		t.Errorf("Parse() error = %v", err)
	}
	if p.Get("anything") != "" {
		t.Error("Get() on empty body should return empty string")
	}
}

func TestRequestBodyParser_SanitizesControlChars(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("clientName=An%00na%07"))
	p := NewRequestBodyParser(req)
	_ = p.Parse()
	if got := p.Get("clientName"); got != "Anna" {
		t.Errorf("Get() = %q, want Anna", got)
	}
}

func TestRequestBodyParser_TooLarge(t *testing.T) {
	big := strings.Repeat("a", maxBodyBytes+10)
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("clientName="+big))
	if err := NewRequestBodyParser(req).Parse(); err == nil {
		t.Fatal("expected size error")
	}
}

func TestRequireMethod(t *testing.T) {
	tests := []struct {
		name    string
		method  string
		allowed []string
		wantNil bool
	}{
		{"GET allowed", http.MethodGet, []string{http.MethodGet}, true},
		{"POST allowed", http.MethodPost, []string{http.MethodGet, http.MethodPost}, true},
		{"DELETE rejected", http.MethodDelete, []string{http.MethodGet, http.MethodPost}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/", nil)
			result := RequireMethod(req, tt.allowed...)
			if (result == nil) != tt.wantNil {
				t.Errorf("RequireMethod() nil = %v, want %v", result == nil, tt.wantNil)
			}
		})
	}
}

func TestExtractClientIP(t *testing.T) {
	tests := []struct {
		name   string
		remote string
		xff    string
		want   string
	}{
		{"direct peer", "203.0.113.5:1234", "", "203.0.113.5"},
		{"untrusted peer ignores forwarded header", "203.0.113.5:1234", "198.51.100.1", "203.0.113.5"},
		{"trusted proxy uses first forwarded address", "127.0.0.1:9000", "198.51.100.1, 10.0.0.2", "198.51.100.1"},
		{"garbage forwarded header", "127.0.0.1:9000", "not-an-ip", "127.0.0.1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			if got := extractClientIP(req); got != tt.want {
				t.Errorf("extractClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFieldErrorMessages(t *testing.T) {
	msgs := fieldErrorMessages(core.FieldErrors{
		core.FieldPhone: core.ErrInvalidPhone,
		core.FieldCost:  core.ErrInvalidAmount,
	})
	if len(msgs) != 2 || !strings.Contains(msgs["phone"], "10 to 15 digits") || msgs["costRub"] == "" {
		t.Errorf("messages = %v", msgs)
	}
}
