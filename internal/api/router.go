package api

import (
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/acbay/co2survey/internal/logging"
	"github.com/acbay/co2survey/internal/middleware"
	"github.com/acbay/co2survey/internal/models"
	"github.com/acbay/co2survey/internal/services"
	"github.com/acbay/co2survey/internal/utils"
)

// Services bundles the domain services behind the HTTP handlers and the CLI.
type Services struct {
	Auth    *services.AuthService
	Users   *services.UserService
	Factors *services.FactorService
	Surveys *services.SurveyService
	Stats   *services.StatsService
	Imports *services.ImportService
	Exports *services.ExportService
}

// NewServices wires every service to store. Imported surveys belong to
// importOwner when that account exists.
func NewServices(store Store, authn *middleware.Authenticator, opts services.AuthOptions, importOwner string, log zerolog.Logger) *Services {
	factors := services.NewFactorService(store, logging.Component(log, "factors"))
	surveys := services.NewSurveyService(store, store, logging.Component(log, "surveys"))
	return &Services{
		Auth:    services.NewAuthService(store, authn.SignToken, opts),
		Users:   services.NewUserService(store, logging.Component(log, "users")),
		Factors: factors,
		Surveys: surveys,
		Stats:   services.NewStatsService(store),
		Imports: services.NewImportService(store, factors, surveys, importOwner, logging.Component(log, "import")),
		Exports: services.NewExportService(store, logging.Component(log, "export")),
	}
}

type Options struct {
	Version     string
	StaticDir   string
	CORSOrigins []string
	// MaxUploadBytes caps multipart imports. Zero means 32 MiB.
	MaxUploadBytes int64
}

type Router struct {
	store Store
	authn *middleware.Authenticator
	svc   *Services
	log   zerolog.Logger
	opts  Options
}

func NewRouter(store Store, authn *middleware.Authenticator, svc *Services, log zerolog.Logger, opts Options) *Router {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 32 << 20
	}
	if opts.Version == "" {
		opts.Version = "dev"
	}
	return &Router{store: store, authn: authn, svc: svc, log: logging.Component(log, "http"), opts: opts}
}

var admins = middleware.RequireRole(models.RoleAdmin, models.RoleSuperAdmin)

func (rt *Router) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID, chimw.RealIP, logging.AccessLog(rt.log), chimw.Recoverer)
	r.Use(middleware.CORS(rt.opts.CORSOrigins), middleware.SecureHeaders, middleware.LocaleMiddleware, rt.authn.WithAuth,
		middleware.ReloadUser(rt.store.GetUser))

	r.Get("/health", rt.handleHealth)
	r.Get("/version", rt.handleVersion)

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.NoStore)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", rt.handleLogin)
			r.Post("/register", rt.handleRegister)
			r.With(middleware.RequireAuth).Get("/me", rt.handleMe)
			r.Post("/login-hx", rt.handleLoginHx)
			r.Post("/register-hx", rt.handleRegisterHx)
		})

		r.Route("/stats", func(r chi.Router) {
			r.Get("/public", rt.handlePublicSurveys)
			r.Get("/emission-factors", rt.handleEmissionFactors)
			r.Get("/aggregations", rt.handlePublicAggregations)
			r.With(middleware.RequireAuth).Get("/", rt.handleViewerSurveys)
			r.With(middleware.RequireRole(models.RoleEmployee)).Get("/me", rt.handleMySurveys)
			r.With(middleware.RequireRole(models.RoleHR, models.RoleAdmin, models.RoleSuperAdmin)).
				Get("/hr/aggregations", rt.handleHRAggregations)
		})

		r.Route("/partials", func(r chi.Router) {
			r.Get("/summary/public", rt.handlePublicSummaryPartial)
			r.Get("/surveys/public", rt.handlePublicSurveysPartial)
			r.With(middleware.RequireAuth).Get("/summary/private", rt.handlePrivateSummaryPartial)
			r.With(middleware.RequireAuth).Get("/surveys/private", rt.handlePrivateSurveysPartial)
		})

		r.With(middleware.RequireAuth).Post("/surveys", rt.handleSubmitSurvey)
		r.With(admins).Post("/surveys/recompute", rt.handleRecompute)

		r.Route("/import", func(r chi.Router) {
			r.Use(admins)
			r.Post("/factors", rt.handleImportFactors)
			r.Post("/surveys", rt.handleImportSurveys)
		})

		r.With(admins).Get("/users", rt.handleListUsers)
		r.With(admins).Put("/users/{id}/role", rt.handleSetRole)
		r.With(middleware.RequireRole(models.RoleSuperAdmin)).Get("/audit", rt.handleAudit)
		r.With(admins).Get("/export/surveys.csv", rt.handleExportCSV)
		r.With(admins).Get("/factors", rt.handleListFactors)
	})

	if dir := rt.opts.StaticDir; dir != "" {
		if st, err := os.Stat(dir); err == nil && st.IsDir() {
			r.Handle("/*", http.FileServer(http.Dir(dir)))
		}
	}
	return r
}

func (rt *Router) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := rt.store.Ping(r.Context()); err != nil {
		rt.log.Warn().Err(err).Msg("health check failed")
		writeError(w, http.StatusServiceUnavailable, "store unavailable")
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(utils.T(middleware.LocaleFromContext(r.Context()), "health.ok")))
}

func (rt *Router) handleVersion(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"version": rt.opts.Version})
}
