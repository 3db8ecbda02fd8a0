package app

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/ludmila-omlopes/grok-report/internal/caseauth"
	"github.com/ludmila-omlopes/grok-report/internal/config"
	"github.com/ludmila-omlopes/grok-report/internal/db"
	"github.com/ludmila-omlopes/grok-report/internal/repository"
	"github.com/ludmila-omlopes/grok-report/internal/service"
	"github.com/ludmila-omlopes/grok-report/internal/storage"
	"github.com/ludmila-omlopes/grok-report/internal/validation"
)

type App struct {
	Cfg             *config.Config
	DB              *sqlx.DB
	Guard           *caseauth.Guard
	IntakeService   *service.IntakeService
	CaseService     *service.CaseService
	EvidenceService *service.EvidenceService
}

func New(cfg *config.Config) (*App, error) {
	// Initialize database
	database, err := db.Init(cfg.DBDriver, cfg.DBConnection)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %v", err)
	}

	// Run database migrations
	err = db.RunMigrations(database.DB, cfg.DBDriver)
	if err != nil {
		return nil, fmt.Errorf("failed to run migrations: %v", err)
	}

	// Repositories
	caseRepository := repository.NewCaseRepository(database)
	evidenceRepository := repository.NewEvidenceRepository(database)
	consentRepository := repository.NewConsentRepository(database)
	auditRepository := repository.NewAuditRepository(database)

	// Storage
	evidenceStorage, err := storage.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %v", err)
	}

	// Services
	constraints := validation.EvidenceConstraints(cfg.MaxEvidenceBytes)
	intakeService := service.NewIntakeService(caseRepository, consentRepository, evidenceStorage, constraints)
	caseService := service.NewCaseService(caseRepository, evidenceRepository)
	evidenceService := service.NewEvidenceService(evidenceRepository, auditRepository, evidenceStorage, constraints)

	return &App{
		Cfg:             cfg,
		DB:              database,
		Guard:           caseauth.NewGuard(caseRepository),
		IntakeService:   intakeService,
		CaseService:     caseService,
		EvidenceService: evidenceService,
	}, nil
}

func (a *App) Close() error {
	return db.Close(a.DB)
}
