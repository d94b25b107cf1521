package auth

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/FACorreiaa/go-dogwalks/internal/app/models"
	database "github.com/FACorreiaa/go-dogwalks/internal/db"
)

var _ AuthRepo = (*PostgresAuthRepo)(nil)

type AuthRepo interface {
	// GetCredentialByUsername fetches the stored hash and identity for a login.
	GetCredentialByUsername(ctx context.Context, username string) (*models.UserCredential, error)
	// CreateUser stores a new user with a HASHED password. Returns the new user ID.
	CreateUser(ctx context.Context, username, email, hashedPassword string, role models.Role) (int64, error)
}

type PostgresAuthRepo struct {
	logger       *zap.Logger
	db           database.DBTX
	queryTimeout time.Duration
}

func NewPostgresAuthRepo(db database.DBTX, logger *zap.Logger, queryTimeout time.Duration) *PostgresAuthRepo {
	return &PostgresAuthRepo{
		logger:       logger,
		db:           db,
		queryTimeout: queryTimeout,
	}
}

// GetCredentialByUsername implements auth.AuthRepo.
func (r *PostgresAuthRepo) GetCredentialByUsername(ctx context.Context, username string) (*models.UserCredential, error) {
	ctx, cancel := database.WithQueryTimeout(ctx, r.queryTimeout)
	defer cancel()

	query, args, err := database.Builder.
		Select("user_id", "username", "email", "role", "password_hash").
		From("users").
		Where(sq.Eq{"username": username}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build credential query: %w", err)
	}

	var (
		cred models.UserCredential
		role string
	)
	err = r.db.QueryRow(ctx, query, args...).Scan(&cred.ID, &cred.Username, &cred.Email, &role, &cred.PasswordHash)
	if err != nil {
		if database.IsNoRows(err) {
			return nil, fmt.Errorf("user %s not found: %w", username, models.ErrNotFound)
		}
		r.logger.Error("Error fetching credential", zap.String("username", username), zap.Error(err))
		return nil, fmt.Errorf("database error fetching user: %w", err)
	}
	cred.Role = models.Role(role)
	return &cred, nil
}

// CreateUser implements auth.AuthRepo. Expects a HASHED password.
func (r *PostgresAuthRepo) CreateUser(ctx context.Context, username, email, hashedPassword string, role models.Role) (int64, error) {
	ctx, span := otel.Tracer("dogwalks").Start(ctx, "PostgresAuthRepo.CreateUser", trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.statement", "INSERT INTO users ..."),
	))
	defer span.End()

	ctx, cancel := database.WithQueryTimeout(ctx, r.queryTimeout)
	defer cancel()

	query, args, err := database.Builder.
		Insert("users").
		Columns("username", "email", "password_hash", "role").
		Values(username, email, hashedPassword, string(role)).
		Suffix("RETURNING user_id").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build user insert: %w", err)
	}

	var userID int64
	if err := r.db.QueryRow(ctx, query, args...).Scan(&userID); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Database error")
		if database.IsUniqueViolation(err) {
			return 0, models.NewError(models.ErrConflict, "Username or email already exists")
		}
		r.logger.Error("Error inserting user", zap.String("username", username), zap.Error(err))
		return 0, fmt.Errorf("database error registering user: %w", err)
	}

	span.SetAttributes(attribute.Int64("user.id", userID))
	span.SetStatus(codes.Ok, "User created")
	return userID, nil
}
