package ui

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"goanova/app"
	"goanova/ports"
)

// App is the HTTP surface of the analysis service. It speaks JSON only:
// tables in, artifacts out.
type App struct {
	router  *chi.Mux
	service *app.AnalysisService
	store   ports.TableStore
	logger  *zap.Logger
}

// NewApp wires the router against an analysis service and its table store
func NewApp(service *app.AnalysisService, store ports.TableStore, logger *zap.Logger) *App {
	a := &App{
		router:  chi.NewRouter(),
		service: service,
		store:   store,
		logger:  logger,
	}

	a.setupMiddleware()
	a.setupRoutes()

	return a
}

// setupMiddleware configures HTTP middleware
func (a *App) setupMiddleware() {
	a.router.Use(middleware.Logger)
	a.router.Use(middleware.Recoverer)
	a.router.Use(middleware.Compress(5))
}

// setupRoutes configures the application routes
func (a *App) setupRoutes() {
	a.router.Get("/health", a.handleHealth)

	// Table registry
	a.router.Post("/api/tables", a.handleRegisterTable)
	a.router.Get("/api/tables", a.handleListTables)
	a.router.Get("/api/tables/{tableID}", a.handleGetTable)
	a.router.Delete("/api/tables/{tableID}", a.handleDeleteTable)

	// Analysis operations
	a.router.Post("/api/tables/{tableID}/derive", a.handleDerive)
	a.router.Post("/api/tables/{tableID}/analyze", a.handleAnalyze)
}

// ServeHTTP makes the app an http.Handler
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.router.ServeHTTP(w, r)
}

// Start starts the HTTP server on the given port
func (a *App) Start(port string) error {
	addr := ":" + port
	a.logger.Info("starting http server", zap.String("addr", addr))
	return http.ListenAndServe(addr, a.router)
}
