/**
 * @description
 * This file sets up the HTTP router for the merchant service using the
 * go-chi/chi router. It registers the public auth endpoints, the
 * bearer-protected product and upload endpoints, static serving of stored
 * images, and the standard middleware stack.
 *
 * @dependencies
 * - github.com/go-chi/chi/v5: A lightweight and idiomatic router for Go.
 * - github.com/go-chi/cors: CORS middleware.
 */

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/productr/merchant-service/internal/token"
)

// NewRouter creates the Chi router and registers every route of the service.
func NewRouter(auth *AuthHandlers, products *ProductHandlers, uploads *UploadHandlers, issuer *token.Issuer, uploadDir string) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/api/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"message": "Backend is running"})
	})

	// Public auth endpoints.
	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/signup", auth.SignupHandler)
		r.Post("/verify-otp", auth.VerifyOTPHandler)
		r.Post("/login", auth.LoginHandler)
	})

	// Protected product-management endpoints.
	r.Group(func(r chi.Router) {
		r.Use(BearerAuthMiddleware(issuer))

		r.Route("/api/products", func(r chi.Router) {
			r.Post("/", products.CreateProductHandler)
			r.Get("/", products.ListProductsHandler)
			r.Get("/{id}", products.GetProductHandler)
			r.Put("/{id}", products.UpdateProductHandler)
			r.Delete("/{id}", products.DeleteProductHandler)
			r.Patch("/{id}/toggle-status", products.ToggleStatusHandler)
		})

		r.Route("/api/upload", func(r chi.Router) {
			r.Post("/upload", uploads.UploadImagesHandler)
			r.Delete("/delete/{filename}", uploads.DeleteImageHandler)
		})
	})

	// Stored images are public once uploaded, matching the catalog UI.
	r.Handle("/uploads/*", http.StripPrefix("/uploads/", http.FileServer(http.Dir(uploadDir))))

	return r
}
