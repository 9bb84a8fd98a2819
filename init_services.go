// Package main, service katmanı ve push altyapısı başlatma.
package main

import (
	"fmt"
	"time"

	"github.com/akinalp/dmline/config"
	"github.com/akinalp/dmline/models"
	"github.com/akinalp/dmline/pkg/cache"
	"github.com/akinalp/dmline/services"
	"github.com/akinalp/dmline/ws"
)

// peerCacheTTL, peer varlık kontrolünün cache süresi. Sayaçlar cache'lenmez.
const peerCacheTTL = time.Minute

// Services, service instance'larını taşıyan container.
type Services struct {
	Auth         services.AuthService
	Message      services.MessageService
	Conversation services.ConversationService
	Upload       services.UploadService

	Registry   *ws.Registry
	Dispatcher *ws.Dispatcher
	PeerCache  *cache.TTLCache[string, *models.User]
}

// initServices, registry + dispatcher'ı kurar ve service'leri bunlara bağlar.
func initServices(repos *Repositories, cfg *config.Config) (*Services, error) {
	registry := ws.NewRegistry()
	dispatcher := ws.NewDispatcher(registry)
	peerCache := cache.New[string, *models.User](peerCacheTTL, 5*peerCacheTTL)

	uploadService, err := services.NewUploadService(cfg.Upload.Dir, cfg.Upload.MaxSize)
	if err != nil {
		peerCache.Close()
		return nil, fmt.Errorf("failed to init upload service: %w", err)
	}

	return &Services{
		Auth:         services.NewAuthService(repos.User, cfg.JWT.Secret, cfg.JWT.AccessTokenExpiry),
		Message:      services.NewMessageService(repos.Message, repos.User, dispatcher, peerCache),
		Conversation: services.NewConversationService(repos.Message, repos.User),
		Upload:       uploadService,
		Registry:     registry,
		Dispatcher:   dispatcher,
		PeerCache:    peerCache,
	}, nil
}
