package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/akinalp/dmline/database"
	"github.com/akinalp/dmline/models"
	"github.com/akinalp/dmline/pkg"
)

// userRow, users tablosunun satır karşılığı. created_at unix nanosaniye tutulur.
type userRow struct {
	ID           string  `db:"id"`
	Username     string  `db:"username"`
	DisplayName  *string `db:"display_name"`
	AvatarURL    *string `db:"avatar_url"`
	PasswordHash string  `db:"password_hash"`
	CreatedAt    int64   `db:"created_at"`
}

func (r userRow) toModel() models.User {
	return models.User{
		ID:           r.ID,
		Username:     r.Username,
		DisplayName:  r.DisplayName,
		AvatarURL:    r.AvatarURL,
		PasswordHash: r.PasswordHash,
		CreatedAt:    time.Unix(0, r.CreatedAt).UTC(),
	}
}

const userColumns = "id, username, display_name, avatar_url, password_hash, created_at"

// sqliteUserRepo, UserRepository interface'inin SQLite implementasyonu.
type sqliteUserRepo struct {
	db database.TxQuerier
}

// NewSQLiteUserRepo, constructor. UserRepository interface'i döner.
func NewSQLiteUserRepo(db database.TxQuerier) UserRepository {
	return &sqliteUserRepo{db: db}
}

func (r *sqliteUserRepo) Create(ctx context.Context, user *models.User) error {
	user.ID = uuid.NewString()
	user.CreatedAt = time.Now().UTC()

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		user.ID, user.Username, user.DisplayName, user.AvatarURL, user.PasswordHash, user.CreatedAt.UnixNano(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: username already taken", pkg.ErrAlreadyExists)
		}
		return fmt.Errorf("%w: failed to create user: %w", pkg.ErrStoreFailure, err)
	}
	return nil
}

func (r *sqliteUserRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
}

func (r *sqliteUserRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	// username kolonu COLLATE NOCASE, büyük/küçük harf farkı gözetilmez.
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE username = ?`, username)
}

func (r *sqliteUserRepo) getOne(ctx context.Context, query string, arg any) (*models.User, error) {
	var row userRow
	err := r.db.GetContext(ctx, &row, query, arg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, pkg.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get user: %w", pkg.ErrStoreFailure, err)
	}
	user := row.toModel()
	return &user, nil
}

func (r *sqliteUserRepo) ListExcept(ctx context.Context, excludeID string) ([]models.User, error) {
	var rows []userRow
	if err := r.db.SelectContext(ctx, &rows,
		`SELECT `+userColumns+` FROM users WHERE id <> ? ORDER BY username`, excludeID,
	); err != nil {
		return nil, fmt.Errorf("%w: failed to list users: %w", pkg.ErrStoreFailure, err)
	}
	return lo.Map(rows, func(row userRow, _ int) models.User { return row.toModel() }), nil
}

// isUniqueViolation, SQLite UNIQUE constraint hatasını tanır.
// modernc driver'ı typed error yerine mesaj döndüğü için string kontrolü yapılır.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
