package api

import (
	"github.com/gorilla/mux"

	"github.com/garnizeh/a11ymon/internal/cases"
	"github.com/garnizeh/a11ymon/internal/clock"
	"github.com/garnizeh/a11ymon/internal/config"
	"github.com/garnizeh/a11ymon/internal/db"
	"github.com/garnizeh/a11ymon/internal/export"
	"github.com/garnizeh/a11ymon/internal/overdue"
	"github.com/garnizeh/a11ymon/internal/repository/sqlite"
	"github.com/garnizeh/a11ymon/internal/schedule"
)

// NewService wires the case service from configuration.
func NewService(cfg *config.Config, d *db.DB) *cases.Service {
	repo := sqlite.New(d, logger)
	return cases.New(
		repo,
		schedule.New(cfg.Correspondence.Offsets),
		export.NewGate(cfg.Export.Columns),
		clock.System{Location: cfg.Location()},
		logger,
	).WithOverdueGrace(cfg.Correspondence.OverdueGrace)
}

func SetupRoutes(cfg *config.Config, version, buildTime string, d *db.DB) *mux.Router {
	svc := NewService(cfg, d)
	link := overdue.BaseLink(cfg.BaseURL)
	queues := svc.Queues(overdue.New(link, cfg.Correspondence.OverdueGrace), link)
	return Router(cfg.JWTSecret, version, buildTime, d, svc, queues)
}

// Router mounts every endpoint on a new router.
func Router(secret, version, buildTime string, pinger Pinger, svc *cases.Service, queues *cases.Queues) *mux.Router {
	r := mux.NewRouter()

	// Middleware chain
	r.Use(LoggingMiddleware)
	r.Use(CORSMiddleware)
	r.Use(RecoveryMiddleware)

	systemHandler := &SystemHandler{DB: pinger}
	casesHandler := NewCasesHandler(svc)
	queuesHandler := NewQueuesHandler(svc, queues)

	// Open endpoints
	r.HandleFunc("/version", systemHandler.VersionHandler(version, buildTime)).Methods("GET")
	r.HandleFunc("/health", systemHandler.HealthHandler).Methods("GET")

	// API v1 Protected routes
	apiV1 := r.PathPrefix("/v1").Subrouter()
	apiV1.Use(JWTAuthMiddlewareWithSecret(secret, svc))

	// Cases
	apiV1.HandleFunc("/cases", casesHandler.CreateCase).Methods("POST")
	apiV1.HandleFunc("/cases", casesHandler.ListCases).Methods("GET")
	apiV1.HandleFunc("/cases/{id:[0-9]+}", casesHandler.GetCase).Methods("GET")
	apiV1.HandleFunc("/cases/{id:[0-9]+}", casesHandler.UpdateCase).Methods("PATCH")
	apiV1.HandleFunc("/cases/{id:[0-9]+}/compliance", casesHandler.UpdateCompliance).Methods("PUT")
	apiV1.HandleFunc("/cases/{id:[0-9]+}/next-action", casesHandler.NextAction).Methods("GET")
	apiV1.HandleFunc("/cases/{id:[0-9]+}/history", casesHandler.History).Methods("GET")
	apiV1.HandleFunc("/cases/{id:[0-9]+}/export-readiness", casesHandler.ExportReadiness).Methods("GET")
	apiV1.HandleFunc("/export/cases.csv", casesHandler.ExportCSV).Methods("GET")

	// Case children
	apiV1.HandleFunc("/cases/{id:[0-9]+}/contacts", casesHandler.ListContacts).Methods("GET")
	apiV1.HandleFunc("/cases/{id:[0-9]+}/contacts", casesHandler.CreateContact).Methods("POST")
	apiV1.HandleFunc("/cases/{id:[0-9]+}/contacts/{cid:[0-9]+}", casesHandler.UpdateContact).Methods("PATCH")
	apiV1.HandleFunc("/cases/{id:[0-9]+}/equality-body-correspondence", casesHandler.ListCorrespondence).Methods("GET")
	apiV1.HandleFunc("/cases/{id:[0-9]+}/equality-body-correspondence", casesHandler.CreateCorrespondence).Methods("POST")
	apiV1.HandleFunc("/cases/{id:[0-9]+}/equality-body-correspondence/{cid:[0-9]+}", casesHandler.UpdateCorrespondence).Methods("PATCH")
	apiV1.HandleFunc("/cases/{id:[0-9]+}/retests", casesHandler.ListRetests).Methods("GET")
	apiV1.HandleFunc("/cases/{id:[0-9]+}/retests", casesHandler.CreateRetest).Methods("POST")
	apiV1.HandleFunc("/cases/{id:[0-9]+}/retests/{rid:[0-9]+}", casesHandler.UpdateRetest).Methods("PATCH")
	apiV1.HandleFunc("/cases/{id:[0-9]+}/reminder", casesHandler.GetReminder).Methods("GET")
	apiV1.HandleFunc("/cases/{id:[0-9]+}/reminder", casesHandler.SetReminder).Methods("PUT")
	apiV1.HandleFunc("/cases/{id:[0-9]+}/reminder", casesHandler.ClearReminder).Methods("DELETE")

	// Queues
	apiV1.HandleFunc("/overdue", queuesHandler.Overdue).Methods("GET")
	apiV1.HandleFunc("/tasks", queuesHandler.Tasks).Methods("GET")
	apiV1.HandleFunc("/tasks/{id:[0-9]+}/read", queuesHandler.MarkTaskRead).Methods("POST")
	apiV1.HandleFunc("/qa-queue", queuesHandler.QAQueue).Methods("GET")
	apiV1.HandleFunc("/settings", queuesHandler.GetSettings).Methods("GET")
	apiV1.HandleFunc("/settings", queuesHandler.UpdateSettings).Methods("PUT")
	apiV1.HandleFunc("/users", queuesHandler.ListUsers).Methods("GET")
	apiV1.HandleFunc("/users", queuesHandler.CreateUser).Methods("POST")

	return r
}
