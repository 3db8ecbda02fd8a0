package routes

import (
	"net/http"

	"github.com/ludmila-omlopes/grok-report/internal/app"
	"github.com/ludmila-omlopes/grok-report/internal/handler"
	"github.com/ludmila-omlopes/grok-report/internal/middleware"
)

func SetupRoutes(app *app.App) http.Handler {
	// Handlers
	cases := handler.NewCaseHandler(app.IntakeService, app.CaseService)
	evidence := handler.NewEvidenceHandler(app.EvidenceService)

	mux := http.NewServeMux()

	// Intake (unauthenticated, rate limited per IP)
	rateLimiter := middleware.RateLimitIntake()

	mux.HandleFunc("POST /api/cases", rateLimiter(cases.Create))
	mux.HandleFunc("POST /api/cases/submit", rateLimiter(cases.Submit))

	// Case routes require the case secret in the X-Case-Token header.
	withCase := middleware.CaseAuth(app.Guard)

	mux.HandleFunc("GET /api/cases/{caseId}", withCase(cases.Show))
	mux.HandleFunc("PATCH /api/cases/{caseId}", withCase(cases.Patch))
	mux.HandleFunc("POST /api/cases/{caseId}/evidence", withCase(evidence.Upload))
	mux.HandleFunc("GET /api/cases/{caseId}/evidence/{evidenceId}", withCase(evidence.Show))

	// Global middleware - executed in order (top to bottom)
	return middleware.Chain(
		mux,
		middleware.SecurityHeaders,
		middleware.RequestLogging,
	)
}
