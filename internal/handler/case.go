package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/ludmila-omlopes/grok-report/internal/ctxkeys"
	"github.com/ludmila-omlopes/grok-report/internal/model"
	"github.com/ludmila-omlopes/grok-report/internal/repository"
	"github.com/ludmila-omlopes/grok-report/internal/service"
	"github.com/ludmila-omlopes/grok-report/internal/validation"
)

type CaseHandler struct {
	intake *service.IntakeService
	cases  *service.CaseService
}

func NewCaseHandler(intake *service.IntakeService, cases *service.CaseService) *CaseHandler {
	return &CaseHandler{intake: intake, cases: cases}
}

// Create registers a case without attachments.
func (h *CaseHandler) Create(w http.ResponseWriter, r *http.Request) {
	var sub service.CaseSubmission
	err := json.NewDecoder(r.Body).Decode(&sub)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.intake.CreateCase(r.Context(), sub)
	if err != nil {
		writeIntakeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"ok":          true,
		"caseId":      result.CaseID,
		"accessToken": result.AccessToken,
	})
}

// Submit runs the multipart intake saga: a JSON payload part plus zero or
// more evidence files.
func (h *CaseHandler) Submit(w http.ResponseWriter, r *http.Request) {
	err := r.ParseMultipartForm(32 << 20)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to parse form")
		return
	}

	payload := r.FormValue("payload")
	if payload == "" {
		writeError(w, http.StatusBadRequest, "missing payload")
		return
	}

	var sub service.CaseSubmission
	err = json.Unmarshal([]byte(payload), &sub)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}

	files := r.MultipartForm.File["files"]

	result, err := h.intake.Submit(r.Context(), sub, files, r.UserAgent())
	if err != nil {
		writeIntakeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"ok":            true,
		"caseId":        result.CaseID,
		"accessToken":   result.AccessToken,
		"uploadedCount": result.UploadedCount,
	})
}

type caseResponse struct {
	ID                            string     `json:"id"`
	CreatedAt                     time.Time  `json:"createdAt"`
	UpdatedAt                     time.Time  `json:"updatedAt"`
	VictimType                    string     `json:"victimType"`
	VictimHandle                  *string    `json:"victimHandle"`
	InfractorHandle               *string    `json:"infractorHandle"`
	PostURL                       *string    `json:"postUrl"`
	Notes                         *string    `json:"notes"`
	InvolvesNudityOrSexualization string     `json:"involvesNudityOrSexualization"`
	SuspectedMinor                string     `json:"suspectedMinor"`
	PublicOptIn                   bool       `json:"publicOptIn"`
	PublicOptInAt                 *time.Time `json:"publicOptInAt"`
}

type evidenceResponse struct {
	ID               string    `json:"id"`
	CreatedAt        time.Time `json:"createdAt"`
	OriginalFilename string    `json:"originalFilename"`
	MimeType         string    `json:"mimeType"`
	SizeBytes        int64     `json:"sizeBytes"`
	SHA256           string    `json:"sha256"`
}

// Show returns the case together with its evidence metadata. The verifier
// hash and the storage keys never appear in the response.
func (h *CaseHandler) Show(w http.ResponseWriter, r *http.Request) {
	caseID := ctxkeys.CaseID(r.Context())

	c, files, err := h.cases.Read(r.Context(), caseID)
	if err != nil {
		if errors.Is(err, repository.ErrCaseNotFound) {
			writeError(w, http.StatusNotFound, "case not found")
			return
		}
		slog.Error("failed to read case", "error", err, "case_id", caseID)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	evidence := make([]evidenceResponse, 0, len(files))
	for _, ev := range files {
		evidence = append(evidence, evidenceResponse{
			ID:               ev.ID,
			CreatedAt:        ev.CreatedAt,
			OriginalFilename: ev.OriginalFilename,
			MimeType:         ev.MimeType,
			SizeBytes:        ev.SizeBytes,
			SHA256:           ev.SHA256,
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"ok": true,
		"case": caseResponse{
			ID:                            c.ID,
			CreatedAt:                     c.CreatedAt,
			UpdatedAt:                     c.UpdatedAt,
			VictimType:                    c.VictimType,
			VictimHandle:                  c.VictimHandle,
			InfractorHandle:               c.InfractorHandle,
			PostURL:                       c.PostURL,
			Notes:                         c.Notes,
			InvolvesNudityOrSexualization: c.InvolvesNudityOrSexualization,
			SuspectedMinor:                c.SuspectedMinor,
			PublicOptIn:                   c.PublicOptIn,
			PublicOptInAt:                 c.PublicOptInAt,
		},
		"evidence": evidence,
	})
}

type patchRequest struct {
	VictimHandle                  *string `json:"victimHandle"`
	InfractorHandle               *string `json:"infractorHandle"`
	PostURL                       *string `json:"postUrl"`
	Notes                         *string `json:"notes"`
	InvolvesNudityOrSexualization *string `json:"involvesNudityOrSexualization"`
	SuspectedMinor                *string `json:"suspectedMinor"`
	PublicOptIn                   *bool   `json:"publicOptIn"`
}

// Patch updates the allow-listed field set. Unknown fields are ignored;
// tri-state flags with invalid values are dropped rather than errored; the
// public opt-in can only be flipped on, never off.
func (h *CaseHandler) Patch(w http.ResponseWriter, r *http.Request) {
	caseID := ctxkeys.CaseID(r.Context())

	var req patchRequest
	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var patch repository.CasePatch
	if req.VictimHandle != nil {
		trimmed := strings.TrimSpace(*req.VictimHandle)
		patch.VictimHandle = &trimmed
	}
	if req.InfractorHandle != nil {
		trimmed := strings.TrimSpace(*req.InfractorHandle)
		patch.InfractorHandle = &trimmed
	}
	if req.PostURL != nil {
		trimmed := strings.TrimSpace(*req.PostURL)
		patch.PostURL = &trimmed
	}
	if req.Notes != nil {
		patch.Notes = req.Notes
	}
	if req.InvolvesNudityOrSexualization != nil && model.ValidFlag(*req.InvolvesNudityOrSexualization) {
		patch.InvolvesNudityOrSexualization = req.InvolvesNudityOrSexualization
	}
	if req.SuspectedMinor != nil && model.ValidFlag(*req.SuspectedMinor) {
		patch.SuspectedMinor = req.SuspectedMinor
	}
	if req.PublicOptIn != nil && *req.PublicOptIn {
		patch.PublicOptIn = true
	}

	err = h.cases.Patch(r.Context(), caseID, patch)
	if err != nil {
		var dup *repository.DuplicatePostURLError
		switch {
		case errors.Is(err, repository.ErrNoFieldsToUpdate):
			writeError(w, http.StatusBadRequest, "no valid fields to update")
		case errors.As(err, &dup):
			writeDuplicate(w, dup.ExistingCaseID)
		case errors.Is(err, repository.ErrCaseNotFound):
			writeError(w, http.StatusNotFound, "case not found")
		default:
			slog.Error("failed to patch case", "error", err, "case_id", caseID)
			writeError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// writeIntakeError maps create/submit failures onto the wire taxonomy.
// Validation failures are specific and client-facing; storage and database
// faults stay generic with detail only in the logs.
func writeIntakeError(w http.ResponseWriter, err error) {
	var dup *repository.DuplicatePostURLError
	switch {
	case errors.As(err, &dup):
		writeDuplicate(w, dup.ExistingCaseID)
	case errors.Is(err, service.ErrMissingConsent):
		writeError(w, http.StatusBadRequest, "missing consent")
	case errors.Is(err, service.ErrPostURLRequired):
		writeError(w, http.StatusBadRequest, "postUrl is required")
	case errors.Is(err, validation.ErrUnsupportedType):
		writeError(w, http.StatusUnsupportedMediaType, err.Error())
	case errors.Is(err, validation.ErrFileTooLarge), errors.Is(err, validation.ErrFileEmpty):
		writeError(w, http.StatusRequestEntityTooLarge, err.Error())
	default:
		slog.Error("case intake failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create case")
	}
}
