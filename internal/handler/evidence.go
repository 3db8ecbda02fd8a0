package handler

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/ludmila-omlopes/grok-report/internal/ctxkeys"
	"github.com/ludmila-omlopes/grok-report/internal/repository"
	"github.com/ludmila-omlopes/grok-report/internal/service"
	"github.com/ludmila-omlopes/grok-report/internal/validation"
)

type EvidenceHandler struct {
	evidence *service.EvidenceService
}

func NewEvidenceHandler(evidence *service.EvidenceService) *EvidenceHandler {
	return &EvidenceHandler{evidence: evidence}
}

// Upload attaches one additional evidence file to an authorized case.
func (h *EvidenceHandler) Upload(w http.ResponseWriter, r *http.Request) {
	caseID := ctxkeys.CaseID(r.Context())

	err := r.ParseMultipartForm(32 << 20)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to parse form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file")
		return
	}
	defer func() { _ = file.Close() }()

	ev, err := h.evidence.Upload(r.Context(), caseID, header, r.UserAgent())
	if err != nil {
		switch {
		case errors.Is(err, validation.ErrUnsupportedType):
			writeError(w, http.StatusUnsupportedMediaType, err.Error())
		case errors.Is(err, validation.ErrFileTooLarge), errors.Is(err, validation.ErrFileEmpty):
			writeError(w, http.StatusRequestEntityTooLarge, err.Error())
		case errors.Is(err, service.ErrCustodyUnavailable):
			slog.Error("evidence upload failed", "error", err, "case_id", caseID)
			writeError(w, http.StatusBadGateway, "upload failed")
		default:
			slog.Error("evidence upload failed", "error", err, "case_id", caseID)
			writeError(w, http.StatusInternalServerError, "upload failed")
		}
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"ok":         true,
		"evidenceId": ev.ID,
		"sha256":     ev.SHA256,
	})
}

// Show streams one evidence file back to the holder of the case secret.
// The intent flag only changes the disposition hint, never authorization.
func (h *EvidenceHandler) Show(w http.ResponseWriter, r *http.Request) {
	caseID := ctxkeys.CaseID(r.Context())
	evidenceID := r.PathValue("evidenceId")
	download := r.URL.Query().Get("download") == "1"

	stream, err := h.evidence.Read(r.Context(), caseID, evidenceID, download, r.UserAgent())
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrEvidenceNotFound):
			writeError(w, http.StatusNotFound, "evidence not found")
		case errors.Is(err, service.ErrCustodyUnavailable):
			slog.Error("evidence fetch failed", "error", err, "case_id", caseID)
			writeError(w, http.StatusBadGateway, "failed to fetch stored evidence")
		default:
			slog.Error("evidence read failed", "error", err, "case_id", caseID)
			writeError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}
	defer func() { _ = stream.Body.Close() }()

	disposition := "inline"
	if download {
		disposition = "attachment"
	}

	w.Header().Set("Content-Type", stream.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("%s; filename=%q", disposition, stream.Filename))
	w.Header().Set("Cache-Control", "no-store")
	if stream.ContentLength >= 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(stream.ContentLength, 10))
	}

	_, err = io.Copy(w, stream.Body)
	if err != nil {
		// Client disconnects land here; the audit entry is already written.
		slog.Debug("evidence stream interrupted", "error", err, "case_id", caseID)
	}
}
