package http

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"

	"workcal/internal/backup"
	"workcal/internal/log"
)

// handleExport downloads the whole collection as a backup file.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}
	ctx := r.Context()

	var buf bytes.Buffer
	n, err := s.backups.Export(ctx, &buf)
	if err != nil {
		s.events.LogError(ctx, "Backup export failed", err, log.ComponentBackup, log.OpExport, nil)
		InternalServerError("Export failed").Write(w)
		return
	}
	s.events.LogBackup(ctx, log.OpExport, n)

	disposition := mime.FormatMediaType("attachment", map[string]string{"filename": backup.FileName(s.now())})
	NewHTMXResponse().
		Header("Content-Type", "application/json; charset=utf-8").
		Header("Content-Disposition", disposition).
		Header("Content-Length", strconv.Itoa(buf.Len())).
		Body(buf.Bytes()).
		Write(w)
}

// handleImport replaces the collection with an uploaded backup. The file may
// come as the "file" part of a multipart form or as the raw body. Nothing
// uploaded is a no-op.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}
	ctx := r.Context()
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	src, closeSrc, err := importSource(r)
	if err != nil {
		BadRequestError("Could not read the uploaded file").Write(w)
		return
	}
	defer closeSrc()

	n, err := s.backups.Import(ctx, src)
	var ie *backup.ImportError
	switch {
	case errors.As(err, &ie):
		log.FromContext(ctx).WarnContext(ctx, "Backup rejected", log.FieldError, err, log.FieldOperation, log.OpImport)
		s.importReply(w, r, http.StatusUnprocessableEntity, 0, "The file is not a valid backup: "+ie.Err.Error())
		return
	case err != nil:
		s.events.LogError(ctx, "Backup import failed", err, log.ComponentBackup, log.OpImport, nil)
		s.importReply(w, r, http.StatusInternalServerError, 0, "Import failed, nothing was changed")
		return
	case src == nil:
		s.importReply(w, r, http.StatusOK, 0, "No file selected")
		return
	}

	s.events.LogBackup(ctx, log.OpImport, n)
	s.importReply(w, r, http.StatusOK, n, fmt.Sprintf("Imported %d appointments", n))
}

func (s *Server) importReply(w http.ResponseWriter, r *http.Request, status, n int, msg string) {
	if wantsJSON(r) {
		body := map[string]any{"imported": n}
		if status >= 400 {
			body = map[string]any{"error": msg}
		}
		NewHTMXResponse().Status(status).BodyJSON(body).Write(w)
		return
	}
	if status >= 400 {
		ErrorResponse(status, msg).TriggerErrorNotification(msg).Write(w)
		return
	}
	b := NewHTMXResponse().Status(status).BodyHTML(`<div class="success">` + msg + `</div>`)
	if n > 0 {
		b.TriggerBackupImported(n).TriggerSuccessNotification(msg)
	} else {
		b.TriggerNotification(NotificationInfo, msg, 3000)
	}
	b.Write(w)
}

// importSource picks the uploaded file, or returns a nil reader when the
// request carries nothing.
func importSource(r *http.Request) (io.Reader, func(), error) {
	noop := func() {}
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		f, hdr, err := r.FormFile("file")
		if errors.Is(err, http.ErrMissingFile) {
			return nil, noop, nil
		}
		if err != nil {
			return nil, noop, err
		}
		if hdr.Size == 0 {
			f.Close()
			return nil, noop, nil
		}
		return f, func() { f.Close() }, nil
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, noop, err
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, noop, nil
	}
	return bytes.NewReader(body), noop, nil
}
