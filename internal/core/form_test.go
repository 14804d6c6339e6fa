package core

import (
	"errors"
	"strings"
	"testing"
)

func validForm() AppointmentForm {
	return AppointmentForm{
		ClientName:    " Anna ",
		Phone:         "+79991234567",
		ProcedureName: "Manicure",
		Duration:      "60",
		StartTime:     "10:00",
		Cost:          "1500,50",
		Date:          NewDate(2024, 5, 1),
	}
}

func TestAppointmentFormParse(t *testing.T) {
	a, err := validForm().Parse()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.ID == "" {
		t.Fatal("expected generated id")
	}
	if a.ClientName != "Anna" {
		t.Errorf("name not trimmed: %q", a.ClientName)
	}
	if a.Cost.Kopecks != 150050 || a.DurationMinutes != 60 {
		t.Errorf("got cost=%d duration=%d", a.Cost.Kopecks, a.DurationMinutes)
	}

	b, _ := validForm().Parse()
	if a.ID == b.ID {
		t.Error("ids must be unique per parse")
	}
}

func TestAppointmentFormParseErrors(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*AppointmentForm)
		fields []Field
	}{
		{"duration not a number", func(f *AppointmentForm) { f.Duration = "1h" }, []Field{FieldDuration}},
		{"negative duration", func(f *AppointmentForm) { f.Duration = "-5" }, []Field{FieldDuration}},
		{"cost with letters", func(f *AppointmentForm) { f.Cost = "15O0" }, []Field{FieldCost}},
		{"phone and time", func(f *AppointmentForm) { f.Phone = "abc"; f.StartTime = "7pm" }, []Field{FieldPhone, FieldStartTime}},
		{"everything empty", func(f *AppointmentForm) { *f = AppointmentForm{Date: f.Date} }, []Field{
			FieldClientName, FieldPhone, FieldProcedureName, FieldDuration, FieldStartTime, FieldCost,
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := validForm()
			tc.mutate(&f)
			_, err := f.Parse()
			var fe FieldErrors
			if !errors.As(err, &fe) {
				t.Fatalf("expected FieldErrors, got %v", err)
			}
			if len(fe) != len(tc.fields) {
				t.Fatalf("got %v, want fields %v", fe, tc.fields)
			}
			for _, field := range tc.fields {
				if !fe.Has(field) {
					t.Errorf("missing %s in %v", field, fe)
				}
			}
		})
	}
}

func TestFieldErrorsMessageIsSorted(t *testing.T) {
	fe := FieldErrors{FieldPhone: ErrInvalidPhone, FieldClientName: ErrEmptyClientName}
	msg := fe.Error()
	if strings.Index(msg, "clientName") > strings.Index(msg, "phone") {
		t.Fatalf("fields not sorted: %s", msg)
	}
}

func TestApplyContact(t *testing.T) {
	f := AppointmentForm{ProcedureName: "Pedicure"}
	f.ApplyContact(nil)
	if f.ClientName != "" || f.Phone != "" {
		t.Fatal("nil contact must not change the form")
	}
	f.ApplyContact(&Contact{Name: "Olga", Phone: "89990001122"})
	if f.ClientName != "Olga" || f.Phone != "89990001122" || f.ProcedureName != "Pedicure" {
		t.Fatalf("unexpected form %+v", f)
	}
}

func TestDirty(t *testing.T) {
	if (AppointmentForm{Date: NewDate(2024, 5, 1)}).Dirty() {
		t.Fatal("empty form reported dirty")
	}
	if !(AppointmentForm{Cost: "1"}).Dirty() {
		t.Fatal("form with input reported clean")
	}
}
