package backup

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"workcal/internal/core"
)

type fakeStore struct {
	items      []core.Appointment
	replaceErr error
	replaced   int
}

func (f *fakeStore) ListAll(context.Context) ([]core.Appointment, error) {
	return append([]core.Appointment(nil), f.items...), nil
}

func (f *fakeStore) Replace(_ context.Context, as []core.Appointment) error {
	if f.replaceErr != nil {
		return f.replaceErr
	}
	f.replaced++
	f.items = append([]core.Appointment(nil), as...)
	return nil
}

func newTestService(store *fakeStore) *Service {
	s := NewService(store, store)
	s.now = func() time.Time { return time.Date(2024, 5, 3, 8, 0, 0, 0, time.UTC) }
	return s
}

func TestExportThenImport(t *testing.T) {
	ctx := context.Background()
	src := &fakeStore{items: sampleAppointments()}
	var buf bytes.Buffer
	n, err := newTestService(src).Export(ctx, &buf)
	if err != nil || n != 2 {
		t.Fatalf("export: n=%d err=%v", n, err)
	}

	dst := &fakeStore{items: []core.Appointment{{ID: "stale"}}}
	n, err = newTestService(dst).Import(ctx, &buf)
	if err != nil || n != 2 {
		t.Fatalf("import: n=%d err=%v", n, err)
	}
	if len(dst.items) != 2 || dst.items[0].ID != "a1" {
		t.Fatalf("store not replaced: %+v", dst.items)
	}
}

func TestImportNilReaderIsNoop(t *testing.T) {
	store := &fakeStore{items: sampleAppointments()}
	n, err := newTestService(store).Import(context.Background(), nil)
	if err != nil || n != 0 || store.replaced != 0 {
		t.Fatalf("n=%d err=%v replaced=%d", n, err, store.replaced)
	}
}

func TestImportMalformedLeavesStoreUntouched(t *testing.T) {
	store := &fakeStore{items: sampleAppointments()}
	_, err := newTestService(store).Import(context.Background(), strings.NewReader(`{"appointments": [`))

	var ie *ImportError
	if !errors.As(err, &ie) {
		t.Fatalf("expected *ImportError, got %v", err)
	}
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected wrapped *ParseError, got %v", err)
	}
	if store.replaced != 0 || len(store.items) != 2 {
		t.Fatalf("store modified: %+v", store.items)
	}
}

func TestImportStoreFailure(t *testing.T) {
	boom := errors.New("disk full")
	store := &fakeStore{replaceErr: boom}
	_, err := newTestService(store).Import(context.Background(), strings.NewReader(validDoc))
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped store error, got %v", err)
	}
	var ie *ImportError
	if errors.As(err, &ie) {
		t.Fatal("store failures are not import errors")
	}
}

func TestExportFileAndImportFile(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	svc := newTestService(&fakeStore{items: sampleAppointments()})

	path, err := svc.ExportFile(ctx, filepath.Join(dir, "backups"))
	if err != nil {
		t.Fatalf("export file: %v", err)
	}
	if filepath.Base(path) != "workcal-backup-20240503-080000.000.json" {
		t.Fatalf("unexpected name %s", path)
	}

	dst := &fakeStore{}
	n, err := newTestService(dst).ImportFile(ctx, path)
	if err != nil || n != 2 {
		t.Fatalf("import file: n=%d err=%v", n, err)
	}

	if n, err := newTestService(dst).ImportFile(ctx, ""); err != nil || n != 0 {
		t.Fatalf("empty path: n=%d err=%v", n, err)
	}
}

func TestPrune(t *testing.T) {
	dir := t.TempDir()
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		if _, err := WriteFile(dir, base.Add(time.Duration(i)*time.Hour), []byte("{}")); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write other: %v", err)
	}

	removed, err := Prune(dir, 2)
	if err != nil {
		t.Fatalf("prune: %v", err)
	}
	if len(removed) != 3 {
		t.Fatalf("removed %d files, want 3", len(removed))
	}
	entries, _ := os.ReadDir(dir)
	var left []string
	for _, e := range entries {
		left = append(left, e.Name())
	}
	want := []string{"notes.txt", FileName(base.Add(3 * time.Hour)), FileName(base.Add(4 * time.Hour))}
	if strings.Join(left, ",") != strings.Join(want, ",") {
		t.Fatalf("left %v, want %v", left, want)
	}

	if removed, err := Prune(dir, 0); err != nil || removed != nil {
		t.Fatalf("keep=0 must not remove: %v %v", removed, err)
	}
}
