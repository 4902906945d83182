package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

type Handlers struct {
	Auth     *AuthenticationHandler
	User     *UserHandler
	Document *DocumentHandler
	Share    *ShareHandler
	Health   *HealthHandler
}

// RegisterRoutes : монтирует REST API, authMiddleware закрывает маршруты владельца
func RegisterRoutes(r chi.Router, h Handlers, authMiddleware func(http.Handler) http.Handler) {
	r.Get("/healthz", h.Health.Health)

	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/register", h.User.RegisterUser)
		r.Post("/login", h.Auth.Login)
		// access токен может быть просрочен, его проверяет сервис
		r.Post("/refresh", h.Auth.RefreshToken)

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware)
			r.Post("/logout", h.Auth.Logout)
			r.Get("/me", h.User.GetCurrentUser)
		})
	})

	r.Route("/api/docs", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Get("/", h.Document.ListDocuments)
		r.Post("/upload", h.Document.UploadDocument)

		r.Route("/{doc_id}", func(r chi.Router) {
			r.Get("/", h.Document.GetDocument)
			r.Delete("/", h.Document.DeleteDocument)
			r.Get("/shares", h.Share.ListShares)
			r.Get("/signatures", h.Document.ListSignatures)
		})
	})

	r.Route("/api/share/{"+shareParam+"}", func(r chi.Router) {
		r.With(authMiddleware).Post("/", h.Share.CreateShareLink)

		r.Get("/", h.Share.ResolveShare)
		r.Post("/sign", h.Share.SignDocument)
		r.Post("/reject", h.Share.RejectDocument)
	})
}
