package models

import (
	"slices"
	"time"
)

// ConversationSummary, sidebar'daki bir satır: karşı taraf + okunmamış sayısı +
// son aktivite. Her istekte message log'dan türetilir, saklanmaz.
// Client tarafındaki konuşma listesi de aynı şekli kullanır.
type ConversationSummary struct {
	PeerID        string     `json:"peer_id"`
	Username      string     `json:"username"`
	DisplayName   *string    `json:"display_name"`
	AvatarURL     *string    `json:"avatar_url"`
	UnreadCount   int        `json:"unread_count"`
	LastMessageAt *time.Time `json:"last_message_at"` // Hiç mesaj yoksa nil
}

// SortConversations, listeyi son aktiviteye göre azalan sırada dizer.
// Hiç mesajı olmayanlar sona gider; eşitlerde mevcut sıra korunur (stable).
// Server sidebar'ı ve client reconciler aynı fonksiyonu kullanır.
func SortConversations(list []ConversationSummary) {
	slices.SortStableFunc(list, func(a, b ConversationSummary) int {
		return CompareActivity(a.LastMessageAt, b.LastMessageAt)
	})
}

// CompareActivity, iki son-aktivite değerini sıralama için karşılaştırır:
// yeni olan önce, nil en sonda.
func CompareActivity(a, b *time.Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	default:
		return b.Compare(*a)
	}
}
