package backup

import (
	"bytes"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"workcal/internal/core"
)

func sampleAppointments() []core.Appointment {
	return []core.Appointment{
		{
			ID: "a1", ClientName: "Anna", Phone: "+79991234567", ProcedureName: "Manicure",
			DurationMinutes: 60, StartTime: "10:00", Cost: core.Money{Kopecks: 150000}, Date: core.NewDate(2024, 5, 1),
		},
		{
			ID: "a2", ClientName: "Olga", Phone: "89990001122", ProcedureName: "Pedicure",
			DurationMinutes: 90, StartTime: "12:30", Cost: core.Money{Kopecks: 200050}, Date: core.NewDate(2024, 5, 2),
		},
	}
}

const validDoc = `{
    "exportedAt": "2024-05-01T10:00:00.123Z",
    "appointments": [
        {
            "id": "a1",
            "clientName": "Anna",
            "phone": "+79991234567",
            "procedureName": "Manicure",
            "durationMinutes": 60,
            "startTime": "10:00",
            "costRub": 1500.0,
            "date": "2024-05-01",
            "notes": "ignored"
        }
    ],
    "version": 2
}`

func TestEncodeDecodeRoundTrip(t *testing.T) {
	in := sampleAppointments()
	var buf bytes.Buffer
	now := time.Date(2024, 5, 3, 8, 0, 0, 0, time.UTC)
	if err := Encode(&buf, in, now); err != nil {
		t.Fatalf("encode: %v", err)
	}

	p, err := DecodePayload(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !p.ExportedAt.Equal(now) {
		t.Errorf("exportedAt = %s, want %s", p.ExportedAt, now)
	}
	if !reflect.DeepEqual(p.Appointments, in) {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", p.Appointments, in)
	}
}

func TestRoundTripLargeCost(t *testing.T) {
	tests := []string{"90071992547409.93", "90071992547409.95", "92233720368547757,99", "0.01"}
	for _, cost := range tests {
		t.Run(cost, func(t *testing.T) {
			k, err := core.ParseDecimalToKopecks(cost)
			if err != nil {
				t.Fatalf("parse %q: %v", cost, err)
			}
			in := sampleAppointments()[:1]
			in[0].Cost = core.Money{Kopecks: k}

			var buf bytes.Buffer
			if err := Encode(&buf, in, time.Now()); err != nil {
				t.Fatalf("encode: %v", err)
			}
			out, err := Decode(&buf)
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if out[0].Cost != in[0].Cost {
				t.Errorf("cost = %d kopecks, want %d", out[0].Cost.Kopecks, k)
			}
		})
	}
}

func TestDecodeExportedAt(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want time.Time
	}{
		{"utc", "2024-05-01T10:00:00Z", time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)},
		{"colon offset", "2024-05-01T13:00:00+03:00", time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)},
		{"basic offset", "2024-05-01T13:00:00.5+0300", time.Date(2024, 5, 1, 10, 0, 0, 5e8, time.UTC)},
		{"hour offset", "2024-05-01T13:00:00+03", time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)},
		{"local", "2024-05-01T10:00:00", time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)},
		{"free text", "yesterday", time.Time{}},
		{"empty", "", time.Time{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := `{"exportedAt": "` + tt.raw + `", "appointments": []}`
			p, err := DecodePayload(strings.NewReader(doc))
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if !p.ExportedAt.Equal(tt.want) {
				t.Errorf("exportedAt = %s, want %s", p.ExportedAt, tt.want)
			}
		})
	}
}

func TestEncodeShape(t *testing.T) {
	var buf bytes.Buffer
	if err := Encode(&buf, nil, time.Date(2024, 5, 3, 8, 0, 0, 0, time.UTC)); err != nil {
		t.Fatalf("encode: %v", err)
	}
	out := buf.String()
	for _, want := range []string{`"exportedAt": "2024-05-03T08:00:00Z"`, `"appointments": []`, "\n    "} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestDecodeIgnoresUnknownFields(t *testing.T) {
	all, err := Decode(strings.NewReader(validDoc))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(all) != 1 || all[0].ID != "a1" || all[0].Cost.Kopecks != 150000 || all[0].Date.String() != "2024-05-01" {
		t.Fatalf("unexpected result %+v", all)
	}
}

func TestDecodeErrors(t *testing.T) {
	cases := []struct {
		name  string
		doc   string
		index int
		field string
	}{
		{"not json", `{"exportedAt": `, -1, ""},
		{"trailing data", `{"exportedAt":"2024-05-01T10:00:00Z","appointments":[]} {}`, -1, ""},
		{"missing exportedAt", `{"appointments": []}`, -1, "exportedAt"},
		{"missing appointments", `{"exportedAt": "2024-05-01T10:00:00Z"}`, -1, "appointments"},
		{"missing phone", strings.Replace(validDoc, `"phone": "+79991234567",`, "", 1), 0, "phone"},
		{"null cost", strings.Replace(validDoc, `"costRub": 1500.0`, `"costRub": null`, 1), 0, "costRub"},
		{"bad date", strings.Replace(validDoc, `"2024-05-01"`, `"01.05.2024"`, 1), -1, ""},
		{"string duration", strings.Replace(validDoc, `"durationMinutes": 60`, `"durationMinutes": "60"`, 1), -1, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tc.doc))
			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("expected *ParseError, got %v", err)
			}
			if pe.Index != tc.index || pe.Field != tc.field {
				t.Fatalf("got index=%d field=%q (%v), want index=%d field=%q", pe.Index, pe.Field, err, tc.index, tc.field)
			}
		})
	}
}

func TestParseErrorMissingFieldIsMatchable(t *testing.T) {
	_, err := Decode(strings.NewReader(`{"appointments": []}`))
	if !errors.Is(err, ErrMissingField) {
		t.Fatalf("expected ErrMissingField, got %v", err)
	}
}
