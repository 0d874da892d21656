package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/qrgenpro/qrgen-backend/api/controllers"
	qrcodecontrollers "github.com/qrgenpro/qrgen-backend/api/controllers/qrcodes"
	subscriptioncontrollers "github.com/qrgenpro/qrgen-backend/api/controllers/subscriptions"
	"github.com/qrgenpro/qrgen-backend/api/middleware"
	"github.com/qrgenpro/qrgen-backend/internal/auth"
	"github.com/qrgenpro/qrgen-backend/internal/qrcodes"
	"github.com/qrgenpro/qrgen-backend/internal/scans"
	"github.com/qrgenpro/qrgen-backend/internal/subscriptions"
	"github.com/qrgenpro/qrgen-backend/internal/usage"
	"github.com/qrgenpro/qrgen-backend/pkg/auth/session"
	"github.com/qrgenpro/qrgen-backend/pkg/config"
	"github.com/qrgenpro/qrgen-backend/pkg/logger"
)

// Dependencies is everything the HTTP surface needs. Nil stores disable
// rate limiting and idempotency replay.
type Dependencies struct {
	Config           *config.Config
	Logger           *logger.Logger
	ReadyChecks      []controllers.ReadyCheck
	Sessions         session.AccessSessionChecker
	RateLimitStore   middleware.RateLimitStore
	IdempotencyStore middleware.IdempotencyStore

	Auth          auth.Service
	Subscriptions subscriptions.Service
	Usage         usage.Gate
	UsageTracker  usage.Tracker
	QRCodes       qrcodes.Service
	Scans         scans.Service
}

func NewRouter(deps Dependencies) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Recoverer(logg),
		middleware.CORS(cfg.App.AllowedOrigins()),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	// Upgrade replays are kept for a week, everything else for a day.
	replayRequired := middleware.Idempotency(deps.IdempotencyStore, middleware.IdempotencyPolicy{TTL: 24 * time.Hour}, logg)
	replayUpgrade := middleware.Idempotency(deps.IdempotencyStore, middleware.IdempotencyPolicy{TTL: 7 * 24 * time.Hour}, logg)
	replayOptional := middleware.Idempotency(deps.IdempotencyStore, middleware.IdempotencyPolicy{TTL: 24 * time.Hour, Optional: true}, logg)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.ReadyChecks...))
	})

	r.Get("/r/{shortCode}", controllers.Redirect(deps.QRCodes, deps.Scans, logg))

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/plans", controllers.PlansCatalog())

		r.Route("/auth", func(r chi.Router) {
			r.With(middleware.AuthRateLimit(loginPolicy, deps.RateLimitStore, logg)).Post("/login", controllers.AuthLogin(deps.Auth, logg))
			r.With(middleware.AuthRateLimit(registerPolicy, deps.RateLimitStore, logg), replayOptional).Post("/register", controllers.AuthRegister(deps.Auth, logg))
			r.Post("/refresh", controllers.AuthRefresh(deps.Auth, logg))
			r.Post("/logout", controllers.AuthLogout(deps.Auth, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, deps.Sessions, logg))
			r.Use(middleware.APIUsage(deps.Usage, deps.UsageTracker, logg))

			r.Route("/subscription", func(r chi.Router) {
				r.Get("/", subscriptioncontrollers.Fetch(deps.Subscriptions, logg))
				r.With(replayUpgrade).Post("/upgrade", subscriptioncontrollers.Upgrade(deps.Subscriptions, logg))
				r.With(replayRequired).Post("/cancel", subscriptioncontrollers.Cancel(deps.Subscriptions, logg))
			})

			r.Route("/usage", func(r chi.Router) {
				r.Get("/", controllers.UsageSummary(deps.Usage, logg))
				r.Get("/check", controllers.UsageCheck(deps.Usage, logg))
			})

			r.Post("/qr/generate", qrcodecontrollers.Generate(deps.QRCodes, logg))

			r.Route("/qr-codes", func(r chi.Router) {
				r.With(replayOptional).Post("/", qrcodecontrollers.Create(deps.QRCodes, logg))
				r.Get("/", qrcodecontrollers.List(deps.QRCodes, logg))
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", qrcodecontrollers.Detail(deps.QRCodes, logg))
					r.Patch("/", qrcodecontrollers.Update(deps.QRCodes, logg))
					r.Delete("/", qrcodecontrollers.Delete(deps.QRCodes, logg))
					r.Post("/deactivate", qrcodecontrollers.Deactivate(deps.QRCodes, logg))
					r.Get("/image", qrcodecontrollers.Image(deps.QRCodes, logg))
					r.Get("/stats", qrcodecontrollers.Stats(deps.Scans, logg))
				})
			})
		})
	})

	return r
}
