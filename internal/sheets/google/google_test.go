package google

import (
	"context"
	"strings"
	"testing"
	"time"

	"workcal/internal/core"
)

func TestNewFromEnv_MissingSpreadsheetID(t *testing.T) {
	t.Setenv("GOOGLE_SPREADSHEET_ID", "")

	_, err := NewFromEnv(context.Background())
	if err == nil {
		t.Fatal("expected error for missing GOOGLE_SPREADSHEET_ID")
	}
	if err.Error() != "missing GOOGLE_SPREADSHEET_ID" {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestNewFromEnv_MissingCredentials(t *testing.T) {
	t.Setenv("GOOGLE_SPREADSHEET_ID", "test-id")
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_JSON", "")
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_FILE", "")
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")

	_, err := NewFromEnv(context.Background())
	if err == nil || !strings.Contains(err.Error(), "missing service account credentials") {
		t.Fatalf("expected credentials error, got %v", err)
	}
}

func TestNewFromEnv_UnreadableCredentialsFile(t *testing.T) {
	t.Setenv("GOOGLE_SPREADSHEET_ID", "test-id")
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_JSON", "")
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_FILE", "/nonexistent/creds.json")

	_, err := NewFromEnv(context.Background())
	if err == nil || !strings.Contains(err.Error(), "read service account file") {
		t.Fatalf("expected read error, got %v", err)
	}
}

func TestMirrorAppointments_NotInitialized(t *testing.T) {
	c := &Client{spreadsheetID: "test", sheetName: defaultSheetName}
	err := c.MirrorAppointments(context.Background(), nil, time.Now())
	if err == nil || err.Error() != "sheets service not initialized" {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestAppointmentRows(t *testing.T) {
	all := []core.Appointment{{
		ID:              "a1",
		ClientName:      "Anna",
		Phone:           "+79991234567",
		ProcedureName:   "Manicure",
		DurationMinutes: 90,
		StartTime:       "10:00",
		Cost:            core.Money{Kopecks: 150050},
		Date:            core.NewDate(2024, 5, 1),
	}}
	at := time.Date(2024, 5, 2, 9, 30, 0, 0, time.UTC)

	rows := appointmentRows(all, at)
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want header + 1 + footer", len(rows))
	}
	if rows[0][0] != "Date" || len(rows[0]) != 9 {
		t.Errorf("unexpected header %v", rows[0])
	}
	row := rows[1]
	if row[0] != "2024-05-01" || row[2] != "11:30" || row[6] != 90 || row[7] != 1500.5 || row[8] != "a1" {
		t.Errorf("unexpected row %v", row)
	}
	if rows[2][1] != "2024-05-02T09:30:00Z" {
		t.Errorf("unexpected footer %v", rows[2])
	}
}
