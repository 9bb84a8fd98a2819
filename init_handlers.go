// Package main, handler katmanı başlatma.
package main

import (
	"github.com/akinalp/dmline/config"
	"github.com/akinalp/dmline/handlers"
	"github.com/akinalp/dmline/pkg/ratelimit"
	"github.com/akinalp/dmline/ws"
)

// Handlers, HTTP handler instance'larını taşıyan container.
type Handlers struct {
	Auth         *handlers.AuthHandler
	Conversation *handlers.ConversationHandler
	Message      *handlers.MessageHandler
	Upload       *handlers.UploadHandler
	WS           *ws.Handler

	loginLimiter *ratelimit.Limiter
	sendLimiter  *ratelimit.Limiter
}

// initHandlers, rate limiter'ları oluşturur ve handler'lara bağlar.
func initHandlers(svcs *Services, cfg *config.Config) *Handlers {
	rl := cfg.RateLimit
	loginLimiter := ratelimit.New(rl.LoginMaxAttempts, rl.LoginWindow, rl.LoginLockout)
	sendLimiter := ratelimit.New(rl.MessagesPerBurst, rl.MessageWindow, rl.MessageCooldown)

	return &Handlers{
		Auth:         handlers.NewAuthHandler(svcs.Auth, loginLimiter),
		Conversation: handlers.NewConversationHandler(svcs.Conversation),
		Message:      handlers.NewMessageHandler(svcs.Message, svcs.Upload, sendLimiter, cfg.Upload.MaxSize),
		Upload:       handlers.NewUploadHandler(svcs.Upload, cfg.Upload.MaxSize),
		WS:           ws.NewHandler(svcs.Registry, svcs.Auth, cfg.WS.SendBuffer, cfg.Server.Origins()),
		loginLimiter: loginLimiter,
		sendLimiter:  sendLimiter,
	}
}

// Close, limiter'ların temizleme goroutine'lerini durdurur.
func (h *Handlers) Close() {
	h.loginLimiter.Close()
	h.sendLimiter.Close()
}
