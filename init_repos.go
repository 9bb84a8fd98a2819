// Package main, repository katmanı başlatma.
package main

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/akinalp/dmline/pkg/clock"
	"github.com/akinalp/dmline/repository"
)

// Repositories, repository instance'larını taşıyan container.
type Repositories struct {
	User    repository.UserRepository
	Message repository.MessageRepository
}

// initRepositories, tüm repository'leri aynı connection pool üzerinde oluşturur.
// Message log'un created_at değerleri süreç genelinde tek bir monotonic saatten gelir;
// saat log'daki en yeni kayıttan başlar, sistem saati geri gitse de sıra korunur.
func initRepositories(ctx context.Context, conn *sqlx.DB) (*Repositories, error) {
	latest, err := repository.LatestMessageTime(ctx, conn)
	if err != nil {
		return nil, fmt.Errorf("failed to seed message clock: %w", err)
	}
	clk := clock.NewMonotonic(nil)
	clk.Seed(latest)

	return &Repositories{
		User:    repository.NewSQLiteUserRepo(conn),
		Message: repository.NewSQLiteMessageRepo(conn, clk),
	}, nil
}
