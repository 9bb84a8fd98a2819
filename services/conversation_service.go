package services

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/akinalp/dmline/models"
	"github.com/akinalp/dmline/repository"
)

// ConversationService, okunmamış sayıları ve son aktiviteyi her istekte
// message log'dan türetir. Hiçbir sayaç saklanmaz ya da cache'lenmez.
type ConversationService interface {
	UnreadCounts(ctx context.Context, viewerID string) (map[string]int, error)
	LastActivity(ctx context.Context, viewerID string) (map[string]time.Time, error)
	// Sidebar, viewer dışındaki her kullanıcı için bir satır döner,
	// son aktiviteye göre azalan sırada (mesajsızlar sonda).
	Sidebar(ctx context.Context, viewerID string) ([]models.ConversationSummary, error)
}

type conversationService struct {
	messageRepo repository.MessageRepository
	userRepo    repository.UserRepository
}

// NewConversationService, constructor.
func NewConversationService(messageRepo repository.MessageRepository, userRepo repository.UserRepository) ConversationService {
	return &conversationService{messageRepo: messageRepo, userRepo: userRepo}
}

func (s *conversationService) UnreadCounts(ctx context.Context, viewerID string) (map[string]int, error) {
	return s.messageRepo.UnreadBySender(ctx, viewerID)
}

func (s *conversationService) LastActivity(ctx context.Context, viewerID string) (map[string]time.Time, error) {
	return s.messageRepo.LastActivityByPeer(ctx, viewerID)
}

func (s *conversationService) Sidebar(ctx context.Context, viewerID string) ([]models.ConversationSummary, error) {
	ctx, span := tracer.Start(ctx, "ConversationService.Sidebar")
	defer span.End()

	users, err := s.userRepo.ListExcept(ctx, viewerID)
	if err != nil {
		return nil, err
	}

	stats, err := s.messageRepo.Stats(ctx, viewerID)
	if err != nil {
		return nil, err
	}

	sidebar := BuildSidebar(users, stats)
	span.SetAttributes(attribute.Int("dm.conversations", len(sidebar)))
	return sidebar, nil
}

// BuildSidebar, kullanıcı listesini istatistiklerle left-join eder ve sıralar.
// Kaydı olmayan peer için unread 0, last_message_at nil olur. Kullanıcı
// listesinde olmayan peer'ler (ör. silinmiş hesap) atlanır.
func BuildSidebar(users []models.User, stats *repository.ConversationStats) []models.ConversationSummary {
	out := make([]models.ConversationSummary, 0, len(users))
	for _, u := range users {
		entry := models.ConversationSummary{
			PeerID:      u.ID,
			Username:    u.Username,
			DisplayName: u.DisplayName,
			AvatarURL:   u.AvatarURL,
		}
		if stats != nil {
			entry.UnreadCount = stats.Unread[u.ID]
			if last, ok := stats.LastActivity[u.ID]; ok {
				entry.LastMessageAt = &last
			}
		}
		out = append(out, entry)
	}
	models.SortConversations(out)
	return out
}
