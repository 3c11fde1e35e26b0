package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/time/rate"

	"github.com/AlexanderKamenka/QuickLine-back/internal/application/identity"
	"github.com/AlexanderKamenka/QuickLine-back/internal/application/verification"
	"github.com/AlexanderKamenka/QuickLine-back/internal/config"
	"github.com/AlexanderKamenka/QuickLine-back/internal/domain"
	jwtinfra "github.com/AlexanderKamenka/QuickLine-back/internal/infrastructure/jwt"
	"github.com/AlexanderKamenka/QuickLine-back/internal/transport/http/handler"
	appmiddleware "github.com/AlexanderKamenka/QuickLine-back/internal/transport/http/middleware"
)

// Deps holds all infrastructure dependencies for the router.
type Deps struct {
	UserRepo    UserRepository
	Notifier    Notifier // primary delivery channel
	Fallback    Notifier // operator console, used when primary delivery fails
	JWTProvider *jwtinfra.Provider
}

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// 5 requests/second, burst of 10 — applied to the public verification endpoints.
	sensitiveRL := appmiddleware.NewRateLimiter(rate.Limit(5), 10)

	store := verification.NewStore(verification.StoreConfig{
		CodeTTL:        cfg.VerificationCodeTTL,
		ResendCooldown: cfg.VerificationResendCooldown,
		MaxAttempts:    cfg.VerificationMaxAttempts,
	})
	identitySvc := identity.NewService(deps.UserRepo)
	verificationSvc := verification.NewService(verification.ServiceDeps{
		Store:    store,
		Notifier: deps.Notifier,
		Fallback: deps.Fallback,
		Resolver: identitySvc,
		Signer:   deps.JWTProvider,
	})

	healthH := handler.NewHealthHandler()
	verificationH := handler.NewVerificationHandler(verificationSvc)
	userH := handler.NewUserHandler(identitySvc)

	r.Route("/v1", func(r chi.Router) {
		// ── Public routes (no auth) ──────────────────────────────────────────
		r.Get("/health-check/ping", healthH.Ping)
		r.With(sensitiveRL.Limit).Post("/verification/send", verificationH.Send)
		r.With(sensitiveRL.Limit).Post("/verification/verify", verificationH.Verify)
		r.With(sensitiveRL.Limit).Post("/verification/verify-and-login", verificationH.VerifyAndLogin)

		// ── Authenticated routes ─────────────────────────────────────────────
		r.Group(func(r chi.Router) {
			r.Use(appmiddleware.Auth(deps.JWTProvider))

			r.Get("/users/me", userH.Me)

			// Admin-only routes
			r.Group(func(r chi.Router) {
				r.Use(appmiddleware.RequireRole(domain.RoleAdmin))

				r.Get("/verification/status", verificationH.Status)
			})
		})
	})

	return r
}
