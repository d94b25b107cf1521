package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"go.uber.org/zap"

	database "github.com/FACorreiaa/go-dogwalks/internal/db"
)

var (
	_ Store  = (*PostgresStore)(nil)
	_ Reaper = (*PostgresStore)(nil)
)

// PostgresStore keeps sessions in the sessions table so they survive restarts.
type PostgresStore struct {
	db           database.DBTX
	logger       *zap.Logger
	queryTimeout time.Duration
	now          func() time.Time
}

func NewPostgresStore(db database.DBTX, logger *zap.Logger, queryTimeout time.Duration) *PostgresStore {
	return &PostgresStore{
		db:           db,
		logger:       logger,
		queryTimeout: queryTimeout,
		now:          time.Now,
	}
}

func (p *PostgresStore) Save(ctx context.Context, s *Session) error {
	ctx, cancel := database.WithQueryTimeout(ctx, p.queryTimeout)
	defer cancel()

	payload, err := json.Marshal(s.User)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	query, args, err := database.Builder.
		Insert("sessions").
		Columns("session_id", "user_id", "data", "created_at", "expires_at").
		Values(s.ID, s.User.UserID, string(payload), s.CreatedAt, s.ExpiresAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build session insert: %w", err)
	}

	if _, err := p.db.Exec(ctx, query, args...); err != nil {
		p.logger.Error("Failed to store session", zap.Int64("user_id", s.User.UserID), zap.Error(err))
		return fmt.Errorf("database error storing session: %w", err)
	}
	return nil
}

func (p *PostgresStore) Get(ctx context.Context, id string) (*Session, error) {
	ctx, cancel := database.WithQueryTimeout(ctx, p.queryTimeout)
	defer cancel()

	query, args, err := database.Builder.
		Select("data", "created_at", "expires_at").
		From("sessions").
		Where(sq.Eq{"session_id": id}).
		Where(sq.Gt{"expires_at": p.now()}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build session select: %w", err)
	}

	var (
		payload []byte
		s       = Session{ID: id}
	)
	err = p.db.QueryRow(ctx, query, args...).Scan(&payload, &s.CreatedAt, &s.ExpiresAt)
	if err != nil {
		if database.IsNoRows(err) {
			return nil, ErrNotFound
		}
		p.logger.Error("Failed to load session", zap.Error(err))
		return nil, fmt.Errorf("database error loading session: %w", err)
	}

	if err := json.Unmarshal(payload, &s.User); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &s, nil
}

func (p *PostgresStore) Delete(ctx context.Context, id string) error {
	ctx, cancel := database.WithQueryTimeout(ctx, p.queryTimeout)
	defer cancel()

	query, args, err := database.Builder.
		Delete("sessions").
		Where(sq.Eq{"session_id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build session delete: %w", err)
	}

	if _, err := p.db.Exec(ctx, query, args...); err != nil {
		p.logger.Error("Failed to delete session", zap.Error(err))
		return fmt.Errorf("database error deleting session: %w", err)
	}
	return nil
}

func (p *PostgresStore) DeleteExpired(ctx context.Context) (int64, error) {
	ctx, cancel := database.WithQueryTimeout(ctx, p.queryTimeout)
	defer cancel()

	query, args, err := database.Builder.
		Delete("sessions").
		Where(sq.LtOrEq{"expires_at": p.now()}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build session purge: %w", err)
	}

	tag, err := p.db.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("database error purging sessions: %w", err)
	}
	return tag.RowsAffected(), nil
}
