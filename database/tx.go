// Package database: Transaction yönetimi.
//
// WithTx, birden fazla DB operasyonunun atomik (all-or-nothing) çalışmasını sağlar:
// fn nil dönerse COMMIT, error dönerse ya da panic atarsa ROLLBACK.
//
//	err := database.WithTx(ctx, db.Conn, nil, func(tx *sqlx.Tx) error {
//	    if _, err := tx.ExecContext(ctx, "UPDATE ...", ...); err != nil {
//	        return err // ROLLBACK
//	    }
//	    return nil // COMMIT
//	})
//
// Sadece SELECT içeren bir transaction da anlamlıdır: SQLite WAL modunda
// deferred transaction ilk okumada bir snapshot açar, sonraki SELECT'ler aynı
// snapshot'ı görür (ör. sidebar istatistikleri).
package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// TxQuerier, hem *sqlx.DB hem *sqlx.Tx tarafından karşılanan interface.
// Repository fonksiyonları bunu alırsa aynı kod transaction içinde ve dışında çalışır.
type TxQuerier interface {
	sqlx.ExtContext
	GetContext(ctx context.Context, dest any, query string, args ...any) error
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
}

// WithTx, verilen fonksiyonu bir SQL transaction içinde çalıştırır.
// Panic durumunda rollback yapılır ve panic tekrar fırlatılır, transaction açık kalmaz.
func WithTx(ctx context.Context, db *sqlx.DB, opts *sql.TxOptions, fn func(tx *sqlx.Tx) error) (err error) {
	tx, err := db.BeginTxx(ctx, opts)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}

		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				err = fmt.Errorf("%w (rollback also failed: %v)", err, rbErr)
			}
			return
		}

		if commitErr := tx.Commit(); commitErr != nil {
			err = fmt.Errorf("failed to commit transaction: %w", commitErr)
		}
	}()

	err = fn(tx)
	return
}
