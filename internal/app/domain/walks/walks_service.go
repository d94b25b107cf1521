package walks

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/FACorreiaa/go-dogwalks/internal/app/models"
)

const (
	maxLocationLength = 255
	maxDurationMins   = 24 * 60
)

var _ Service = (*ServiceImpl)(nil)

type Service interface {
	ListOpen(ctx context.Context) ([]models.OpenWalkRequest, error)
	WalkerSummaries(ctx context.Context) ([]models.WalkerSummary, error)
	CreateRequest(ctx context.Context, params models.CreateWalkRequestParams) (int64, error)
	Apply(ctx context.Context, requestID, walkerID int64) (int64, error)
	ListApplications(ctx context.Context, requestID, ownerID int64) ([]models.WalkApplication, error)
	AcceptApplication(ctx context.Context, applicationID, ownerID int64) error
	Complete(ctx context.Context, requestID, ownerID int64) error
	Rate(ctx context.Context, params models.CreateRatingParams) (int64, error)
}

type ServiceImpl struct {
	logger *zap.Logger
	repo   Repository
}

func NewService(repo Repository, logger *zap.Logger) *ServiceImpl {
	return &ServiceImpl{logger: logger, repo: repo}
}

func (s *ServiceImpl) ListOpen(ctx context.Context) ([]models.OpenWalkRequest, error) {
	out, err := s.repo.ListOpen(ctx)
	if out == nil {
		out = []models.OpenWalkRequest{}
	}
	return out, err
}

func (s *ServiceImpl) WalkerSummaries(ctx context.Context) ([]models.WalkerSummary, error) {
	out, err := s.repo.WalkerSummaries(ctx)
	if out == nil {
		out = []models.WalkerSummary{}
	}
	return out, err
}

func (s *ServiceImpl) CreateRequest(ctx context.Context, p models.CreateWalkRequestParams) (int64, error) {
	p.Location = strings.TrimSpace(p.Location)
	switch {
	case p.DogID <= 0:
		return 0, models.NewError(models.ErrValidation, "dog_id is required")
	case p.RequestedTime.IsZero():
		return 0, models.NewError(models.ErrValidation, "requested_time is required")
	case p.DurationMinutes <= 0 || p.DurationMinutes > maxDurationMins:
		return 0, models.NewError(models.ErrValidation, "duration_minutes must be between 1 and 1440")
	case p.Location == "" || len(p.Location) > maxLocationLength:
		return 0, models.NewError(models.ErrValidation, "location is required and must be at most 255 characters")
	}
	p.RequestedTime = p.RequestedTime.UTC().Truncate(time.Second)

	id, err := s.repo.CreateRequest(ctx, p)
	if err != nil {
		return 0, err
	}
	s.logger.Info("Walk request created", zap.Int64("request_id", id), zap.Int64("dog_id", p.DogID))
	return id, nil
}

func (s *ServiceImpl) Apply(ctx context.Context, requestID, walkerID int64) (int64, error) {
	return s.repo.Apply(ctx, requestID, walkerID)
}

func (s *ServiceImpl) ListApplications(ctx context.Context, requestID, ownerID int64) ([]models.WalkApplication, error) {
	out, err := s.repo.ListApplications(ctx, requestID, ownerID)
	if out == nil {
		out = []models.WalkApplication{}
	}
	return out, err
}

func (s *ServiceImpl) AcceptApplication(ctx context.Context, applicationID, ownerID int64) error {
	if err := s.repo.AcceptApplication(ctx, applicationID, ownerID); err != nil {
		return err
	}
	s.logger.Info("Application accepted", zap.Int64("application_id", applicationID), zap.Int64("owner_id", ownerID))
	return nil
}

func (s *ServiceImpl) Complete(ctx context.Context, requestID, ownerID int64) error {
	return s.repo.Complete(ctx, requestID, ownerID)
}

func (s *ServiceImpl) Rate(ctx context.Context, p models.CreateRatingParams) (int64, error) {
	if p.Rating < 1 || p.Rating > 5 {
		return 0, models.NewError(models.ErrValidation, "rating must be between 1 and 5")
	}
	p.Comments = strings.TrimSpace(p.Comments)
	return s.repo.CreateRating(ctx, p)
}
