package walks

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/FACorreiaa/go-dogwalks/internal/app/models"
	database "github.com/FACorreiaa/go-dogwalks/internal/db"
)

var _ Repository = (*RepositoryImpl)(nil)

type Repository interface {
	ListOpen(ctx context.Context) ([]models.OpenWalkRequest, error)
	WalkerSummaries(ctx context.Context) ([]models.WalkerSummary, error)
	CreateRequest(ctx context.Context, params models.CreateWalkRequestParams) (int64, error)
	Apply(ctx context.Context, requestID, walkerID int64) (int64, error)
	ListApplications(ctx context.Context, requestID, ownerID int64) ([]models.WalkApplication, error)
	AcceptApplication(ctx context.Context, applicationID, ownerID int64) error
	Complete(ctx context.Context, requestID, ownerID int64) error
	CreateRating(ctx context.Context, params models.CreateRatingParams) (int64, error)
}

const (
	walkerSummaryQuery = `
SELECT u.username,
       COUNT(DISTINCT rt.rating_id)                                        AS total_ratings,
       ROUND(AVG(rt.rating)::numeric, 1)::float8                           AS average_rating,
       COUNT(DISTINCT wr.request_id) FILTER (WHERE wr.status = 'completed') AS completed_walks
FROM users u
LEFT JOIN walk_applications wa ON wa.walker_id = u.user_id AND wa.status = 'accepted'
LEFT JOIN walk_requests wr ON wr.request_id = wa.request_id
LEFT JOIN walk_ratings rt ON rt.request_id = wa.request_id AND rt.walker_id = u.user_id
WHERE u.role = 'walker'
GROUP BY u.user_id, u.username
ORDER BY u.username`

	// Inserts only when the dog belongs to the owner.
	createRequestQuery = `
INSERT INTO walk_requests (dog_id, requested_time, duration_minutes, location)
SELECT d.dog_id, $1::timestamptz, $2::int, $3::varchar
FROM dogs d
WHERE d.dog_id = $4 AND d.owner_id = $5
RETURNING request_id`

	lockRequestQuery = `
SELECT wr.status, d.owner_id
FROM walk_requests wr
JOIN dogs d ON d.dog_id = wr.dog_id
WHERE wr.request_id = $1
FOR UPDATE OF wr`
)

type RepositoryImpl struct {
	logger       *zap.Logger
	db           database.DBTX
	queryTimeout time.Duration
}

func NewRepository(db database.DBTX, logger *zap.Logger, queryTimeout time.Duration) *RepositoryImpl {
	return &RepositoryImpl{logger: logger, db: db, queryTimeout: queryTimeout}
}

func (r *RepositoryImpl) ListOpen(ctx context.Context) ([]models.OpenWalkRequest, error) {
	ctx, cancel := database.WithQueryTimeout(ctx, r.queryTimeout)
	defer cancel()

	query, args, err := database.Builder.
		Select("wr.request_id", "d.name", "wr.requested_time", "wr.duration_minutes", "wr.location", "u.username").
		From("walk_requests wr").
		Join("dogs d ON d.dog_id = wr.dog_id").
		Join("users u ON u.user_id = d.owner_id").
		Where(sq.Eq{"wr.status": string(models.WalkStatusOpen)}).
		OrderBy("wr.requested_time ASC", "wr.request_id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build open requests query: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list open walk requests", zap.Error(err))
		return nil, fmt.Errorf("database error listing open requests: %w", err)
	}

	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.OpenWalkRequest, error) {
		var w models.OpenWalkRequest
		err := row.Scan(&w.RequestID, &w.DogName, &w.RequestedTime, &w.DurationMinutes, &w.Location, &w.OwnerUsername)
		return w, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan open requests: %w", err)
	}
	return out, nil
}

// WalkerSummaries reports every walker, including those with no activity.
func (r *RepositoryImpl) WalkerSummaries(ctx context.Context) ([]models.WalkerSummary, error) {
	ctx, cancel := database.WithQueryTimeout(ctx, r.queryTimeout)
	defer cancel()

	rows, err := r.db.Query(ctx, walkerSummaryQuery)
	if err != nil {
		r.logger.Error("Failed to summarise walkers", zap.Error(err))
		return nil, fmt.Errorf("database error summarising walkers: %w", err)
	}

	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.WalkerSummary, error) {
		var s models.WalkerSummary
		err := row.Scan(&s.WalkerUsername, &s.TotalRatings, &s.AverageRating, &s.CompletedWalks)
		return s, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan walker summaries: %w", err)
	}
	return out, nil
}

func (r *RepositoryImpl) CreateRequest(ctx context.Context, p models.CreateWalkRequestParams) (int64, error) {
	ctx, cancel := database.WithQueryTimeout(ctx, r.queryTimeout)
	defer cancel()

	var id int64
	err := r.db.QueryRow(ctx, createRequestQuery, p.RequestedTime, p.DurationMinutes, p.Location, p.DogID, p.OwnerID).Scan(&id)
	if err != nil {
		if database.IsNoRows(err) {
			return 0, models.NewError(models.ErrNotFound, "Dog not found")
		}
		r.logger.Error("Failed to create walk request", zap.Int64("dog_id", p.DogID), zap.Error(err))
		return 0, fmt.Errorf("database error creating walk request: %w", err)
	}
	return id, nil
}

// lockRequest locks the request row for the rest of tx and returns its status
// and the owner of its dog.
func lockRequest(ctx context.Context, tx pgx.Tx, requestID int64) (models.WalkStatus, int64, error) {
	var (
		status  string
		ownerID int64
	)
	if err := tx.QueryRow(ctx, lockRequestQuery, requestID).Scan(&status, &ownerID); err != nil {
		if database.IsNoRows(err) {
			return "", 0, models.NewError(models.ErrNotFound, "Walk request not found")
		}
		return "", 0, fmt.Errorf("lock walk request: %w", err)
	}
	return models.WalkStatus(status), ownerID, nil
}

func (r *RepositoryImpl) Apply(ctx context.Context, requestID, walkerID int64) (int64, error) {
	ctx, cancel := database.WithQueryTimeout(ctx, r.queryTimeout)
	defer cancel()

	var id int64
	err := database.InTx(ctx, r.db, func(tx pgx.Tx) error {
		status, _, err := lockRequest(ctx, tx, requestID)
		if err != nil {
			return err
		}
		if status != models.WalkStatusOpen {
			return models.NewError(models.ErrConflict, "Walk request is not open")
		}

		query, args, err := database.Builder.
			Insert("walk_applications").
			Columns("request_id", "walker_id").
			Values(requestID, walkerID).
			Suffix("RETURNING application_id").
			ToSql()
		if err != nil {
			return fmt.Errorf("build application insert: %w", err)
		}
		if err := tx.QueryRow(ctx, query, args...).Scan(&id); err != nil {
			if database.IsUniqueViolation(err) {
				return models.NewError(models.ErrConflict, "Already applied to this walk")
			}
			return fmt.Errorf("insert application: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (r *RepositoryImpl) ListApplications(ctx context.Context, requestID, ownerID int64) ([]models.WalkApplication, error) {
	ctx, cancel := database.WithQueryTimeout(ctx, r.queryTimeout)
	defer cancel()

	ownerQuery, ownerArgs, err := database.Builder.
		Select("d.owner_id").
		From("walk_requests wr").
		Join("dogs d ON d.dog_id = wr.dog_id").
		Where(sq.Eq{"wr.request_id": requestID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build owner query: %w", err)
	}
	var actualOwner int64
	if err := r.db.QueryRow(ctx, ownerQuery, ownerArgs...).Scan(&actualOwner); err != nil {
		if database.IsNoRows(err) {
			return nil, models.NewError(models.ErrNotFound, "Walk request not found")
		}
		return nil, fmt.Errorf("database error fetching request owner: %w", err)
	}
	if actualOwner != ownerID {
		return nil, models.NewError(models.ErrForbidden, "Forbidden")
	}

	query, args, err := database.Builder.
		Select("wa.application_id", "wa.request_id", "wa.walker_id", "u.username", "wa.applied_at", "wa.status").
		From("walk_applications wa").
		Join("users u ON u.user_id = wa.walker_id").
		Where(sq.Eq{"wa.request_id": requestID}).
		OrderBy("wa.applied_at ASC", "wa.application_id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build applications query: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list applications", zap.Int64("request_id", requestID), zap.Error(err))
		return nil, fmt.Errorf("database error listing applications: %w", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.WalkApplication, error) {
		var (
			a      models.WalkApplication
			status string
		)
		err := row.Scan(&a.ID, &a.RequestID, &a.WalkerID, &a.WalkerUsername, &a.AppliedAt, &status)
		a.Status = models.ApplicationStatus(status)
		return a, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan applications: %w", err)
	}
	return out, nil
}

// AcceptApplication accepts one application, rejects its siblings and moves
// the request to accepted, all in one transaction holding the request row lock.
func (r *RepositoryImpl) AcceptApplication(ctx context.Context, applicationID, ownerID int64) error {
	ctx, span := otel.Tracer("dogwalks").Start(ctx, "WalksRepository.AcceptApplication", trace.WithAttributes(
		attribute.Int64("application.id", applicationID),
	))
	defer span.End()

	ctx, cancel := database.WithQueryTimeout(ctx, r.queryTimeout)
	defer cancel()

	err := database.InTx(ctx, r.db, func(tx pgx.Tx) error {
		appQuery, appArgs, err := database.Builder.
			Select("request_id").
			From("walk_applications").
			Where(sq.Eq{"application_id": applicationID}).
			ToSql()
		if err != nil {
			return fmt.Errorf("build application query: %w", err)
		}
		var requestID int64
		if err := tx.QueryRow(ctx, appQuery, appArgs...).Scan(&requestID); err != nil {
			if database.IsNoRows(err) {
				return models.NewError(models.ErrNotFound, "Application not found")
			}
			return fmt.Errorf("fetch application: %w", err)
		}

		status, actualOwner, err := lockRequest(ctx, tx, requestID)
		if err != nil {
			return err
		}
		if actualOwner != ownerID {
			return models.NewError(models.ErrForbidden, "Forbidden")
		}
		if status != models.WalkStatusOpen {
			return models.NewError(models.ErrConflict, "Walk request is not open")
		}

		steps := []sq.UpdateBuilder{
			database.Builder.Update("walk_applications").
				Set("status", string(models.ApplicationAccepted)).
				Where(sq.Eq{"application_id": applicationID}),
			database.Builder.Update("walk_applications").
				Set("status", string(models.ApplicationRejected)).
				Where(sq.Eq{"request_id": requestID}).
				Where(sq.NotEq{"application_id": applicationID}),
			database.Builder.Update("walk_requests").
				Set("status", string(models.WalkStatusAccepted)).
				Where(sq.Eq{"request_id": requestID}),
		}
		for _, step := range steps {
			query, args, err := step.ToSql()
			if err != nil {
				return fmt.Errorf("build accept update: %w", err)
			}
			if _, err := tx.Exec(ctx, query, args...); err != nil {
				return fmt.Errorf("accept application: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Accept failed")
		return err
	}
	span.SetStatus(codes.Ok, "Application accepted")
	return nil
}

func (r *RepositoryImpl) Complete(ctx context.Context, requestID, ownerID int64) error {
	ctx, cancel := database.WithQueryTimeout(ctx, r.queryTimeout)
	defer cancel()

	return database.InTx(ctx, r.db, func(tx pgx.Tx) error {
		status, actualOwner, err := lockRequest(ctx, tx, requestID)
		if err != nil {
			return err
		}
		if actualOwner != ownerID {
			return models.NewError(models.ErrForbidden, "Forbidden")
		}
		if status != models.WalkStatusAccepted {
			return models.NewError(models.ErrConflict, "Only accepted walks can be completed")
		}

		query, args, err := database.Builder.
			Update("walk_requests").
			Set("status", string(models.WalkStatusCompleted)).
			Where(sq.Eq{"request_id": requestID}).
			ToSql()
		if err != nil {
			return fmt.Errorf("build complete update: %w", err)
		}
		if _, err := tx.Exec(ctx, query, args...); err != nil {
			return fmt.Errorf("complete walk request: %w", err)
		}
		return nil
	})
}

// CreateRating rates the accepted walker of a completed request.
func (r *RepositoryImpl) CreateRating(ctx context.Context, p models.CreateRatingParams) (int64, error) {
	ctx, cancel := database.WithQueryTimeout(ctx, r.queryTimeout)
	defer cancel()

	var id int64
	err := database.InTx(ctx, r.db, func(tx pgx.Tx) error {
		status, actualOwner, err := lockRequest(ctx, tx, p.RequestID)
		if err != nil {
			return err
		}
		if actualOwner != p.OwnerID {
			return models.NewError(models.ErrForbidden, "Forbidden")
		}
		if status != models.WalkStatusCompleted {
			return models.NewError(models.ErrConflict, "Only completed walks can be rated")
		}

		walkerQuery, walkerArgs, err := database.Builder.
			Select("walker_id").
			From("walk_applications").
			Where(sq.Eq{"request_id": p.RequestID, "status": string(models.ApplicationAccepted)}).
			ToSql()
		if err != nil {
			return fmt.Errorf("build walker query: %w", err)
		}
		var walkerID int64
		if err := tx.QueryRow(ctx, walkerQuery, walkerArgs...).Scan(&walkerID); err != nil {
			if database.IsNoRows(err) {
				return models.NewError(models.ErrConflict, "Walk has no accepted walker")
			}
			return fmt.Errorf("fetch accepted walker: %w", err)
		}

		query, args, err := database.Builder.
			Insert("walk_ratings").
			Columns("request_id", "walker_id", "owner_id", "rating", "comments").
			Values(p.RequestID, walkerID, p.OwnerID, p.Rating, p.Comments).
			Suffix("RETURNING rating_id").
			ToSql()
		if err != nil {
			return fmt.Errorf("build rating insert: %w", err)
		}
		if err := tx.QueryRow(ctx, query, args...).Scan(&id); err != nil {
			if database.IsUniqueViolation(err) {
				return models.NewError(models.ErrConflict, "Walk already rated")
			}
			return fmt.Errorf("insert rating: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}
