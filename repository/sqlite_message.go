package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/samber/lo"

	"github.com/akinalp/dmline/database"
	"github.com/akinalp/dmline/models"
	"github.com/akinalp/dmline/pkg"
	"github.com/akinalp/dmline/pkg/clock"
)

// messageRow, messages tablosunun satır karşılığı.
type messageRow struct {
	ID            string  `db:"id"`
	SenderID      string  `db:"sender_id"`
	ReceiverID    string  `db:"receiver_id"`
	Text          *string `db:"text"`
	AttachmentURL *string `db:"attachment_url"`
	CreatedAt     int64   `db:"created_at"`
	Read          bool    `db:"read"`
	ReadAt        *int64  `db:"read_at"`
}

func (r messageRow) toModel() models.Message {
	msg := models.Message{
		ID:            r.ID,
		SenderID:      r.SenderID,
		ReceiverID:    r.ReceiverID,
		Text:          r.Text,
		AttachmentURL: r.AttachmentURL,
		CreatedAt:     time.Unix(0, r.CreatedAt).UTC(),
		Read:          r.Read,
	}
	if r.ReadAt != nil {
		msg.ReadAt = lo.ToPtr(time.Unix(0, *r.ReadAt).UTC())
	}
	return msg
}

const messageColumns = "id, sender_id, receiver_id, text, attachment_url, created_at, read, read_at"

type sqliteMessageRepo struct {
	db    *sqlx.DB
	clock *clock.Monotonic
}

// NewSQLiteMessageRepo, constructor. clk process genelinde tek olmalı;
// aynı log'a yazan her repo aynı saati paylaşır.
func NewSQLiteMessageRepo(db *sqlx.DB, clk *clock.Monotonic) MessageRepository {
	return &sqliteMessageRepo{db: db, clock: clk}
}

// LatestMessageTime, log'daki en yeni created_at'i döner; log boşsa sıfır zaman.
// Süreç başında monotonic saati tohumlamak için kullanılır.
func LatestMessageTime(ctx context.Context, db *sqlx.DB) (time.Time, error) {
	var latest *int64
	if err := db.GetContext(ctx, &latest, `SELECT MAX(created_at) FROM messages`); err != nil {
		return time.Time{}, fmt.Errorf("%w: failed to read latest message time: %w", pkg.ErrStoreFailure, err)
	}
	if latest == nil {
		return time.Time{}, nil
	}
	return time.Unix(0, *latest).UTC(), nil
}

func (r *sqliteMessageRepo) Append(ctx context.Context, msg *models.Message) error {
	msg.ID = uuid.NewString()
	msg.CreatedAt = r.clock.Next()
	msg.Read = false
	msg.ReadAt = nil

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO messages (`+messageColumns+`) VALUES (?, ?, ?, ?, ?, ?, 0, NULL)`,
		msg.ID, msg.SenderID, msg.ReceiverID, msg.Text, msg.AttachmentURL, msg.CreatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("%w: failed to append message: %w", pkg.ErrStoreFailure, err)
	}
	return nil
}

func (r *sqliteMessageRepo) ListBetween(ctx context.Context, a, b string) ([]models.Message, error) {
	var rows []messageRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT `+messageColumns+`
		FROM messages
		WHERE (sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)
		ORDER BY created_at ASC, id ASC`,
		a, b, b, a,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list messages: %w", pkg.ErrStoreFailure, err)
	}
	return lo.Map(rows, func(row messageRow, _ int) models.Message { return row.toModel() }), nil
}

func (r *sqliteMessageRepo) MarkReadFromPeer(ctx context.Context, viewer, peer string, at time.Time) (int, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE messages SET read = 1, read_at = ?
		WHERE receiver_id = ? AND sender_id = ? AND read = 0`,
		at.UTC().UnixNano(), viewer, peer,
	)
	if err != nil {
		return 0, fmt.Errorf("%w: failed to mark messages read: %w", pkg.ErrStoreFailure, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: failed to read affected rows: %w", pkg.ErrStoreFailure, err)
	}
	return int(n), nil
}

func (r *sqliteMessageRepo) UnreadBySender(ctx context.Context, viewer string) (map[string]int, error) {
	return unreadBySender(ctx, r.db, viewer)
}

func (r *sqliteMessageRepo) LastActivityByPeer(ctx context.Context, viewer string) (map[string]time.Time, error) {
	return lastActivityByPeer(ctx, r.db, viewer)
}

func (r *sqliteMessageRepo) Stats(ctx context.Context, viewer string) (*ConversationStats, error) {
	stats := &ConversationStats{}
	err := database.WithTx(ctx, r.db, nil, func(tx *sqlx.Tx) error {
		var err error
		if stats.Unread, err = unreadBySender(ctx, tx, viewer); err != nil {
			return err
		}
		stats.LastActivity, err = lastActivityByPeer(ctx, tx, viewer)
		return err
	})
	if err != nil {
		return nil, err
	}
	return stats, nil
}

func unreadBySender(ctx context.Context, q database.TxQuerier, viewer string) (map[string]int, error) {
	var rows []struct {
		PeerID string `db:"peer_id"`
		Count  int    `db:"unread"`
	}
	if err := q.SelectContext(ctx, &rows, `
		SELECT sender_id AS peer_id, COUNT(*) AS unread
		FROM messages
		WHERE receiver_id = ? AND read = 0
		GROUP BY sender_id`, viewer,
	); err != nil {
		return nil, fmt.Errorf("%w: failed to count unread: %w", pkg.ErrStoreFailure, err)
	}

	out := make(map[string]int, len(rows))
	for _, row := range rows {
		out[row.PeerID] = row.Count
	}
	return out, nil
}

func lastActivityByPeer(ctx context.Context, q database.TxQuerier, viewer string) (map[string]time.Time, error) {
	var rows []struct {
		PeerID string `db:"peer_id"`
		Last   int64  `db:"last_at"`
	}
	if err := q.SelectContext(ctx, &rows, `
		SELECT CASE WHEN sender_id = ? THEN receiver_id ELSE sender_id END AS peer_id,
		       MAX(created_at) AS last_at
		FROM messages
		WHERE sender_id = ? OR receiver_id = ?
		GROUP BY peer_id`, viewer, viewer, viewer,
	); err != nil {
		return nil, fmt.Errorf("%w: failed to load last activity: %w", pkg.ErrStoreFailure, err)
	}

	out := make(map[string]time.Time, len(rows))
	for _, row := range rows {
		out[row.PeerID] = time.Unix(0, row.Last).UTC()
	}
	return out, nil
}
