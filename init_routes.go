// Package main, HTTP route kaydı.
package main

import (
	"net/http"
	"strings"

	"github.com/akinalp/dmline/handlers"
	"github.com/akinalp/dmline/middleware"
	"github.com/akinalp/dmline/repository"
	"github.com/akinalp/dmline/services"
)

// initRoutes, endpoint'leri mux'a bağlar.
//
// Websocket auth middleware'dan geçmez: tarayıcı upgrade isteğine header
// ekleyemediği için token ?token= ile gelir ve ws.Handler kendisi doğrular.
func initRoutes(
	mux *http.ServeMux,
	h *Handlers,
	svcs *Services,
	userRepo repository.UserRepository,
	uploadDir string,
) {
	authMw := middleware.NewAuthMiddleware(svcs.Auth, userRepo)
	auth := func(handler http.HandlerFunc) http.Handler {
		return authMw.Require(handler)
	}

	mux.HandleFunc("GET /api/health", handlers.HealthHandler(svcs.Registry))

	// Auth
	mux.HandleFunc("POST /api/auth/register", h.Auth.Register)
	mux.HandleFunc("POST /api/auth/login", h.Auth.Login)
	mux.Handle("GET /api/users/me", auth(h.Auth.Me))

	// Conversations + messages
	mux.Handle("GET /api/conversations", auth(h.Conversation.List))
	mux.Handle("GET /api/messages/{peerId}", auth(h.Message.List))
	mux.Handle("POST /api/messages/{peerId}", auth(h.Message.Send))
	mux.Handle("POST /api/upload", auth(h.Upload.Upload))

	// Yüklenen dosyalar: sadece düz dosya isimleri, alt dizin yok.
	files := http.FileServer(http.Dir(uploadDir))
	mux.Handle("GET "+services.UploadURLPrefix, http.StripPrefix(services.UploadURLPrefix,
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "" || strings.ContainsAny(r.URL.Path, `/\`) {
				http.NotFound(w, r)
				return
			}
			files.ServeHTTP(w, r)
		})))

	mux.HandleFunc("GET /ws", h.WS.HandleConnection)
}
