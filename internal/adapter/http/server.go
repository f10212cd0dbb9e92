package adapthttp

import (
	"context"
	"net/http"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"

	"nutriportal/internal/app"
)

// OIDCConfig holds the SSO provider and client settings.
type OIDCConfig struct {
	Enabled      bool
	Provider     *oidc.Provider
	OAuth2Config oauth2.Config
}

// HealthCheck reports whether a backing service is reachable.
type HealthCheck func(ctx context.Context) error

// Server is the driving HTTP adapter that routes requests to application
// services.
type Server struct {
	measurements *app.MeasurementService
	grocery      *app.GroceryService
	reminders    *app.ReminderService
	authSvc      *app.AuthService
	oidcConfig   OIDCConfig
	log          logrus.FieldLogger
	checks       map[string]HealthCheck
	disableAuth  bool
}

// New creates a Server wired to the given application services.
func New(ms *app.MeasurementService, gs *app.GroceryService, rs *app.ReminderService, authSvc *app.AuthService) *Server {
	return &Server{
		measurements: ms,
		grocery:      gs,
		reminders:    rs,
		authSvc:      authSvc,
		log:          logrus.StandardLogger(),
		checks:       map[string]HealthCheck{},
	}
}

// WithoutAuth disables authentication. Every request may reach every user
// record. Only meant for tests and local development.
func (s *Server) WithoutAuth() *Server {
	s.disableAuth = true
	return s
}

// WithOIDC enables single sign-on.
func (s *Server) WithOIDC(cfg OIDCConfig) *Server {
	s.oidcConfig = cfg
	return s
}

// WithLogger sets the request logger.
func (s *Server) WithLogger(log logrus.FieldLogger) *Server {
	s.log = log
	return s
}

// WithHealthCheck adds a named dependency check to /api/health.
func (s *Server) WithHealthCheck(name string, check HealthCheck) *Server {
	s.checks[name] = check
	return s
}

// Handler returns the root http.Handler for the application.
func (s *Server) Handler() http.Handler {
	rtr := mux.NewRouter()
	rtr.Use(s.metricsMiddleware)
	rtr.Path("/metrics").Handler(promhttp.Handler())

	api := rtr.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	api.HandleFunc("/auth/login", s.handleLogin).Methods(http.MethodPost)
	api.HandleFunc("/auth/logout", s.handleLogout).Methods(http.MethodPost)
	api.HandleFunc("/auth/setup", s.handleSetup).Methods(http.MethodPost)
	api.HandleFunc("/auth/config", s.handleConfig).Methods(http.MethodGet)
	api.HandleFunc("/auth/sso/login", s.handleSSOLogin).Methods(http.MethodGet)
	api.HandleFunc("/auth/sso/callback", s.handleSSOCallback).Methods(http.MethodGet)

	authed := api.NewRoute().Subrouter()
	authed.Use(s.authMiddleware)
	authed.HandleFunc("/accounts", s.handleCreateAccount).Methods(http.MethodPost)
	authed.HandleFunc("/grocery-list", s.handleGroceryPreview).Methods(http.MethodPost)

	users := authed.PathPrefix("/users/{userID}").Subrouter()
	users.Use(s.accessMiddleware)
	users.HandleFunc("/measurements", s.handleListMeasurements).Methods(http.MethodGet)
	users.HandleFunc("/measurements", s.handleAppendMeasurement).Methods(http.MethodPost)
	users.HandleFunc("/measurements/{index:[0-9]+}", s.handleEditMeasurement).Methods(http.MethodPut)
	users.HandleFunc("/measurements/{index:[0-9]+}", s.handleDeleteMeasurement).Methods(http.MethodDelete)

	users.HandleFunc("/grocery-list", s.handleGroceryList).Methods(http.MethodGet)
	users.HandleFunc("/menu", s.handlePutMenu).Methods(http.MethodPut)

	users.HandleFunc("/reminders/{itemID}", s.handleGetReminder).Methods(http.MethodGet)
	users.HandleFunc("/reminders/{itemID}", s.handleDismissReminder).Methods(http.MethodPost)
	users.HandleFunc("/reminders/{itemID}", s.handleRestoreReminder).Methods(http.MethodDelete)

	users.HandleFunc("/drafts/{itemID}", s.handleGetDraft).Methods(http.MethodGet)
	users.HandleFunc("/drafts/{itemID}", s.handlePutDraft).Methods(http.MethodPut)
	users.HandleFunc("/drafts/{itemID}", s.handleDeleteDraft).Methods(http.MethodDelete)

	return handlers.CompressHandler(s.loggingMiddleware(withNoCache(rtr)))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	failed := map[string]string{}
	for name, check := range s.checks {
		if err := check(r.Context()); err != nil {
			status = http.StatusServiceUnavailable
			failed[name] = err.Error()
		}
	}
	body := map[string]any{"ok": status == http.StatusOK}
	if len(failed) > 0 {
		body["failed"] = failed
	}
	writeJSON(w, status, body)
}
