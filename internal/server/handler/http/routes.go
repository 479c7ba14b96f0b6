package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/atinyakov/FlashVocab/internal/middleware"
)

// NewRouter constructs and returns an HTTP handler that serves
// the FlashVocab API.
//
// Routes:
//
//	POST   /api/auth/register       → authHandler.Register
//	POST   /api/auth/login          → authHandler.Login
//	POST   /api/auth/logout         → authHandler.Logout
//	GET    /api/words               → wordHandler.List        (bearer)
//	POST   /api/words               → wordHandler.Create      (bearer)
//	PATCH  /api/words/{id}          → wordHandler.Patch       (bearer)
//	DELETE /api/words/{id}          → wordHandler.Delete      (bearer)
//	GET    /api/telegram/config     → telegramHandler.GetConfig  (bearer)
//	POST   /api/telegram/config     → telegramHandler.SaveConfig (bearer)
//	GET    /api/telegram/status     → telegramHandler.Status     (bearer)
//	POST   /api/telegram/test-send  → telegramHandler.TestSend   (bearer)
//	POST   /api/telegram/detect     → telegramHandler.Detect
//	POST   /api/telegram/send       → telegramHandler.Send
//	GET    /api/translate           → lookupHandler.Translate
//	GET    /api/example             → lookupHandler.Example
//	GET    /metrics                 → Prometheus exposition
//
// Middleware chain (applied in order):
//  1. Recoverer
//  2. Metrics.Instrument
//  3. WithRequestLogging(logger)
//  4. AllowContentType("application/json") for requests with a body
func NewRouter(
	authHandler *AuthHandler,
	wordHandler *WordHandler,
	telegramHandler *TelegramHandler,
	lookupHandler *LookupHandler,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.NewMetrics().Instrument)
	r.Use(middleware.WithRequestLogging(logger))
	r.Use(chiMiddleware.AllowContentType("application/json"))

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.Post("/logout", authHandler.Logout)
		})

		r.Get("/translate", lookupHandler.Translate)
		r.Get("/example", lookupHandler.Example)
		r.Post("/telegram/detect", telegramHandler.Detect)
		r.Post("/telegram/send", telegramHandler.Send)

		// Protected group: requires a valid session token
		r.Group(func(r chi.Router) {
			r.Use(middleware.BearerAuth(authHandler.AuthService))

			r.Get("/words", wordHandler.List)
			r.Post("/words", wordHandler.Create)
			r.Patch("/words/{id}", wordHandler.Patch)
			r.Delete("/words/{id}", wordHandler.Delete)

			r.Get("/telegram/config", telegramHandler.GetConfig)
			r.Post("/telegram/config", telegramHandler.SaveConfig)
			r.Get("/telegram/status", telegramHandler.Status)
			r.Post("/telegram/test-send", telegramHandler.TestSend)
		})
	})

	return r
}
