package app

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sideline/platform/internal/auth"
	"github.com/sideline/platform/internal/guard"
	"github.com/sideline/platform/internal/handler"
	adminhandler "github.com/sideline/platform/internal/handler/admin"
	"github.com/sideline/platform/internal/metrics"
)

// RouterDeps holds all dependencies needed by NewRouter.
type RouterDeps struct {
	Services    *Services
	JWTMgr      *auth.JWTManager
	CronSecret  string
	CORSOrigins string
	// BetLimiter throttles POST /bets per user. Nil disables throttling.
	BetLimiter *guard.RateLimiter
	Metrics    *metrics.Metrics
	Health     func(ctx context.Context) error
	Logger     *slog.Logger
}

// NewRouter assembles the chi.Router with all routes and middleware.
func NewRouter(deps RouterDeps) chi.Router {
	svc := deps.Services
	jwtMgr := deps.JWTMgr
	logger := deps.Logger

	// Handlers
	authHandler := handler.NewAuthHandler(svc.Auth)
	betHandler := handler.NewBetHandler(svc.Betting)
	walletHandler := handler.NewWalletHandler(svc.Wallet)
	oddsHandler := handler.NewOddsHandler(svc.Odds, svc.Leaderboard)
	cronHandler := handler.NewCronHandler(svc.Settlement, svc.Ingest, logger)

	// Admin handlers
	eventsAdmin := adminhandler.NewEventsHandler(svc.Events)
	oddsAdmin := adminhandler.NewOddsHandler(svc.Odds)
	walletsAdmin := adminhandler.NewWalletsHandler(svc.Wallet)

	// Router
	r := chi.NewRouter()

	// Global middleware (order matters)
	r.Use(handler.Recovery(logger))
	r.Use(handler.RequestID)
	r.Use(handler.RequestLogger(logger))
	r.Use(handler.Instrument(deps.Metrics))
	r.Use(handler.CORSWithOrigins(deps.CORSOrigins))

	// Prometheus exposition keeps its own content type.
	r.Handle("/metrics", deps.Metrics.Handler())

	r.Group(func(r chi.Router) {
		r.Use(handler.JSONContentType)

		// Public
		r.Get("/health", handler.HealthHandler(deps.Health))
		r.Get("/odds", oddsHandler.Board)
		r.Get("/leaderboard", oddsHandler.Leaderboard)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
		})
		r.Post("/admin/auth/login", authHandler.AdminLogin)

		// Player-authenticated routes
		r.Group(func(r chi.Router) {
			r.Use(auth.AuthenticatePlayer(jwtMgr))

			r.Route("/bets", func(r chi.Router) {
				r.With(limitBets(deps.BetLimiter)).Post("/", betHandler.PlaceBet)
				r.Get("/me", betHandler.MyBets)
			})

			r.Route("/wallet", func(r chi.Router) {
				r.Get("/", walletHandler.Get)
				r.Get("/ledger", walletHandler.Ledger)
				r.Post("/reset", walletHandler.Reset)
			})
		})

		// Machine routes behind the shared bearer secret
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireSharedSecret(deps.CronSecret))

			r.Post("/settle/run", cronHandler.Settle)
			r.Post("/odds/pull", cronHandler.PullOdds)
			r.Post("/scores/pull", cronHandler.PullScores)
			r.Post("/admin/odds/override", oddsAdmin.Override)
			r.Delete("/admin/odds/override", oddsAdmin.ClearOverride)
			r.Post("/admin/wallets/reset", walletsAdmin.Reset)
		})

		// Admin-authenticated routes
		r.Group(func(r chi.Router) {
			r.Use(auth.AuthenticateAdmin(jwtMgr))

			r.Get("/admin/events", eventsAdmin.List)
			r.Get("/admin/wallets/{userID}/audit", walletsAdmin.Audit)

			r.Group(func(r chi.Router) {
				r.Use(auth.RequireRole(auth.EventWriteRoles()...))
				r.Post("/admin/events", eventsAdmin.Create)
				r.Patch("/admin/events/{id}/status", eventsAdmin.UpdateStatus)
			})
		})
	})

	return r
}

func limitBets(limiter *guard.RateLimiter) func(http.Handler) http.Handler {
	if limiter == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return handler.RateLimitBySubject(limiter)
}
