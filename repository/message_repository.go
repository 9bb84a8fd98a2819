//go:generate go run go.uber.org/mock/mockgen -source=message_repository.go -destination=../mocks/mock_message_repository.go -package=mocks
package repository

import (
	"context"
	"time"

	"github.com/akinalp/dmline/models"
)

// ConversationStats, bir viewer için message log'dan türetilen iki harita.
// İkisi aynı okuma snapshot'ından hesaplanır.
type ConversationStats struct {
	// Unread: peer → peer'in viewer'a gönderdiği okunmamış mesaj sayısı.
	// Okunmamış mesajı olmayan peer haritada yer almaz.
	Unread map[string]int
	// LastActivity: peer → iki yönden herhangi birindeki en yeni created_at.
	LastActivity map[string]time.Time
}

// MessageRepository, message log. Append-only; tek mutasyon read bayrağı.
type MessageRepository interface {
	// Append, mesaja ID ve kesin artan CreatedAt atar ve kaydeder.
	Append(ctx context.Context, msg *models.Message) error
	// ListBetween, a ile b arasındaki tüm mesajları (iki yön) created_at artan sırada döner.
	ListBetween(ctx context.Context, a, b string) ([]models.Message, error)
	// MarkReadFromPeer, peer → viewer okunmamış mesajları okundu yapar,
	// etkilenen satır sayısını döner. Tekrar çağrılırsa 0 döner.
	MarkReadFromPeer(ctx context.Context, viewer, peer string, at time.Time) (int, error)
	UnreadBySender(ctx context.Context, viewer string) (map[string]int, error)
	LastActivityByPeer(ctx context.Context, viewer string) (map[string]time.Time, error)
	// Stats, UnreadBySender ve LastActivityByPeer'i tek transaction içinde çalıştırır.
	Stats(ctx context.Context, viewer string) (*ConversationStats, error)
}
