// Package main, dmline sunucusunun giriş noktası.
//
// main sadece wire-up yapar:
//  1. Config'i yükle
//  2. Tracing'i kur (endpoint varsa)
//  3. App'i oluştur (database, repository, service, handler, route)
//  4. HTTP server'ı başlat
//  5. Sinyal gelince graceful shutdown
//
// Global değişken yok; her şey newApp içinde oluşturulup birbirine bağlanır.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/akinalp/dmline/config"
	"github.com/akinalp/dmline/pkg/telemetry"
)

func main() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.Println("[main] dmline server starting...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[main] failed to load config: %v", err)
	}
	log.Printf("[main] config loaded (port=%d)", cfg.Server.Port)

	shutdownTracing, err := telemetry.Setup(context.Background(), cfg.Telemetry.Endpoint, cfg.Telemetry.ServiceName)
	if err != nil {
		log.Fatalf("[main] failed to set up tracing: %v", err)
	}

	app, err := newApp(cfg)
	if err != nil {
		log.Fatalf("[main] %v", err)
	}

	// WriteTimeout yok: /ws bağlantısı hijack edilir, diğer yanıtlar küçük JSON.
	srv := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           app.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("[main] server listening on %s", cfg.Server.Addr())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("[main] server error: %v", err)
		}
	}()

	<-done
	log.Println("[main] shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("[main] forced shutdown: %v", err)
	}
	app.Close()

	if err := shutdownTracing(ctx); err != nil {
		log.Printf("[main] failed to flush traces: %v", err)
	}

	log.Println("[main] server stopped gracefully")
}
