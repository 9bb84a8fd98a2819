//go:generate go run go.uber.org/mock/mockgen -source=user_repository.go -destination=../mocks/mock_user_repository.go -package=mocks

// Package repository, veritabanı erişim katmanını tanımlar.
//
// Service katmanı doğrudan SQL yazmaz, bu interface'ler üzerinden çalışır.
// Testlerde gerçek SQLite (temp dir) ya da mocks paketindeki gomock
// implementasyonları kullanılır.
package repository

import (
	"context"

	"github.com/akinalp/dmline/models"
)

// UserRepository, kimlik dizini. Mesajlaşma çekirdeği kullanıcıları sadece
// ID ile tanır; sidebar için profil alanları da buradan gelir.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	// ListExcept, excludeID dışındaki tüm kullanıcıları username sırasıyla döner.
	ListExcept(ctx context.Context, excludeID string) ([]models.User, error)
}
