package api

import (
	"net/http"

	"github.com/erazemk/katalog/internal/catalog"
	"github.com/erazemk/katalog/internal/model"
)

// NewRouter creates the API router with all endpoints registered.
func NewRouter(svc *catalog.Service) http.Handler {
	mux := http.NewServeMux()

	authHandler := &AuthHandler{Svc: svc}
	itemsHandler := &ItemsHandler{Svc: svc}
	usersHandler := &UsersHandler{Svc: svc}

	authMW := AuthMiddleware(svc)
	admin := func(h http.HandlerFunc) http.Handler { return authMW(RequireAdmin(h)) }
	user := func(h http.HandlerFunc) http.Handler { return authMW(h) }

	// Public.
	mux.HandleFunc("GET /api/health", func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Ping(r.Context()); err != nil {
			writeError(w, r, err)
			return
		}
		jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.HandleFunc("GET /api/categories", func(w http.ResponseWriter, r *http.Request) {
		jsonResponse(w, http.StatusOK, model.Categories)
	})
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)
	mux.HandleFunc("GET /api/items", itemsHandler.List)
	mux.HandleFunc("GET /api/items/{id}", itemsHandler.Get)
	mux.HandleFunc("GET /api/items/{id}/image", itemsHandler.GetImage)

	// Session.
	mux.Handle("POST /api/auth/logout", user(authHandler.Logout))
	mux.Handle("PUT /api/auth/password", user(authHandler.ChangePassword))

	// Feedback.
	mux.Handle("POST /api/items/{id}", user(itemsHandler.Rate))
	mux.Handle("DELETE /api/items/{id}/reviews", user(itemsHandler.DeleteReview))

	// Item administration.
	mux.Handle("POST /api/items", admin(itemsHandler.Create))
	mux.Handle("DELETE /api/items/{id}", admin(itemsHandler.Delete))
	mux.Handle("PUT /api/items/{id}/image", admin(itemsHandler.UploadImage))

	// Users.
	mux.Handle("GET /api/users/me", user(usersHandler.Me))
	mux.Handle("GET /api/users/{username}", user(usersHandler.Get))
	mux.Handle("GET /api/users", admin(usersHandler.List))
	mux.Handle("POST /api/users", admin(usersHandler.Create))
	mux.Handle("DELETE /api/users/{username}", admin(usersHandler.Delete))

	return mux
}
