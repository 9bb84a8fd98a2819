package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/rs/cors"

	"github.com/akinalp/dmline/config"
	"github.com/akinalp/dmline/database"
)

// App, birbirine bağlanmış tüm katmanlar. main ve uçtan uca testler aynı wire-up'ı kullanır.
type App struct {
	db       *database.DB
	repos    *Repositories
	services *Services
	handlers *Handlers
	handler  http.Handler
}

// newApp: database → repository → service → handler → route → CORS.
func newApp(cfg *config.Config) (*App, error) {
	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	repos, err := initRepositories(context.Background(), db.Conn)
	if err != nil {
		db.Close()
		return nil, err
	}

	svcs, err := initServices(repos, cfg)
	if err != nil {
		db.Close()
		return nil, err
	}

	h := initHandlers(svcs, cfg)

	mux := http.NewServeMux()
	initRoutes(mux, h, svcs, repos.User, cfg.Upload.Dir)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.Server.Origins(),
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Retry-After"},
		AllowCredentials: true,
	})

	return &App{
		db:       db,
		repos:    repos,
		services: svcs,
		handlers: h,
		handler:  corsHandler.Handler(mux),
	}, nil
}

// Handler, CORS ile sarılmış root handler.
func (a *App) Handler() http.Handler {
	return a.handler
}

// Close, önce websocket bağlantılarını kapatır, sonra arka plan goroutine'lerini ve DB'yi.
func (a *App) Close() {
	a.services.Registry.Shutdown()
	a.handlers.Close()
	a.services.PeerCache.Close()
	if err := a.db.Close(); err != nil {
		log.Printf("[main] failed to close database: %v", err)
	}
}
