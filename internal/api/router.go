package api

import (
	"database/sql"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter creates the API router with all endpoints registered.
func NewRouter(db *sql.DB, jwtSecret string) http.Handler {
	mux := http.NewServeMux()

	authHandler := &AuthHandler{DB: db, JWTSecret: jwtSecret}
	usersHandler := &UsersHandler{DB: db}
	itemsHandler := &ItemsHandler{DB: db}
	swapsHandler := &SwapsHandler{DB: db}

	authMW := AuthMiddleware(jwtSecret, db)
	authed := func(h http.HandlerFunc) http.Handler { return authMW(h) }
	admin := func(h http.HandlerFunc) http.Handler { return authMW(RequireAdmin(h)) }

	// Public.
	mux.HandleFunc("POST /api/auth/register", authHandler.Register)
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)
	mux.HandleFunc("GET /api/healthz", handleHealth(db))
	mux.Handle("GET /metrics", promhttp.Handler())

	// Session management.
	mux.Handle("POST /api/auth/logout", authed(authHandler.Logout))
	mux.Handle("PUT /api/auth/password", authed(authHandler.ChangePassword))

	// Profile and points.
	mux.Handle("GET /api/users/me", authed(usersHandler.Me))
	mux.Handle("PUT /api/users/me", authed(usersHandler.UpdateMe))
	mux.Handle("GET /api/users/me/points", authed(usersHandler.Points))

	// User administration.
	mux.Handle("GET /api/users", admin(usersHandler.List))
	mux.Handle("PUT /api/users/{id}/admin", admin(usersHandler.SetAdmin))
	mux.Handle("DELETE /api/users/{id}", admin(usersHandler.Delete))

	// Item catalog. Moderation (approve/remove) is admin only.
	mux.Handle("GET /api/items", authed(itemsHandler.List))
	mux.Handle("POST /api/items", authed(itemsHandler.Create))
	mux.Handle("GET /api/items/{id}", authed(itemsHandler.Get))
	mux.Handle("POST /api/items/{id}/approve", admin(itemsHandler.Approve))
	mux.Handle("POST /api/items/{id}/remove", admin(itemsHandler.Remove))
	mux.Handle("PUT /api/items/{id}/image", authed(itemsHandler.UploadImage))
	mux.Handle("GET /api/items/{id}/image", authed(itemsHandler.GetImage))
	mux.Handle("PUT /api/items/{id}/tags", authed(itemsHandler.SetTags))

	// Swap requests. The literal swap_requests segment wins over the
	// {id} wildcard, so these routes do not collide.
	mux.Handle("POST /api/items/{id}/swap_request", authed(swapsHandler.Create))
	mux.Handle("GET /api/items/swap_requests", authed(swapsHandler.List))
	mux.Handle("POST /api/items/swap_requests/{id}/update_status", authed(swapsHandler.UpdateStatus))

	return MetricsMiddleware(mux)(mux)
}

// handleHealth reports readiness by pinging the database.
func handleHealth(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			jsonError(w, http.StatusServiceUnavailable, "database unavailable")
			return
		}
		jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
