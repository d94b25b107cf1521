package dogs

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/FACorreiaa/go-dogwalks/internal/app/models"
	database "github.com/FACorreiaa/go-dogwalks/internal/db"
)

var _ Repository = (*RepositoryImpl)(nil)

type Repository interface {
	ListAll(ctx context.Context) ([]models.DogListing, error)
	ListByOwner(ctx context.Context, ownerID int64) ([]models.OwnedDog, error)
	Create(ctx context.Context, params models.CreateDogParams) (int64, error)
}

type RepositoryImpl struct {
	logger       *zap.Logger
	db           database.DBTX
	queryTimeout time.Duration
}

func NewRepository(db database.DBTX, logger *zap.Logger, queryTimeout time.Duration) *RepositoryImpl {
	return &RepositoryImpl{logger: logger, db: db, queryTimeout: queryTimeout}
}

// ListAll returns the public dog directory ordered by dog name.
func (r *RepositoryImpl) ListAll(ctx context.Context) ([]models.DogListing, error) {
	ctx, cancel := database.WithQueryTimeout(ctx, r.queryTimeout)
	defer cancel()

	query, args, err := database.Builder.
		Select("d.name", "d.size", "u.username").
		From("dogs d").
		Join("users u ON u.user_id = d.owner_id").
		OrderBy("d.name ASC", "d.dog_id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build dogs query: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list dogs", zap.Error(err))
		return nil, fmt.Errorf("database error listing dogs: %w", err)
	}

	dogs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.DogListing, error) {
		var (
			d    models.DogListing
			size string
		)
		err := row.Scan(&d.DogName, &size, &d.OwnerUsername)
		d.Size = models.DogSize(size)
		return d, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan dogs: %w", err)
	}
	return dogs, nil
}

func (r *RepositoryImpl) ListByOwner(ctx context.Context, ownerID int64) ([]models.OwnedDog, error) {
	ctx, cancel := database.WithQueryTimeout(ctx, r.queryTimeout)
	defer cancel()

	query, args, err := database.Builder.
		Select("dog_id", "name", "size").
		From("dogs").
		Where(sq.Eq{"owner_id": ownerID}).
		OrderBy("name ASC", "dog_id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build owner dogs query: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list owner dogs", zap.Int64("owner_id", ownerID), zap.Error(err))
		return nil, fmt.Errorf("database error listing owner dogs: %w", err)
	}

	dogs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.OwnedDog, error) {
		var (
			d    models.OwnedDog
			size string
		)
		err := row.Scan(&d.ID, &d.Name, &size)
		d.Size = models.DogSize(size)
		return d, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan owner dogs: %w", err)
	}
	return dogs, nil
}

func (r *RepositoryImpl) Create(ctx context.Context, params models.CreateDogParams) (int64, error) {
	ctx, cancel := database.WithQueryTimeout(ctx, r.queryTimeout)
	defer cancel()

	query, args, err := database.Builder.
		Insert("dogs").
		Columns("owner_id", "name", "size").
		Values(params.OwnerID, params.Name, string(params.Size)).
		Suffix("RETURNING dog_id").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build dog insert: %w", err)
	}

	var id int64
	if err := r.db.QueryRow(ctx, query, args...).Scan(&id); err != nil {
		r.logger.Error("Failed to insert dog", zap.Int64("owner_id", params.OwnerID), zap.Error(err))
		return 0, fmt.Errorf("database error creating dog: %w", err)
	}
	return id, nil
}
