package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/FACorreiaa/go-dogwalks/internal/app/models"
)

const MinPasswordLength = 8

// dummyHash is compared against when the username is unknown so that a miss
// costs the same bcrypt work as a wrong password.
var dummyHash = mustHash("dogwalks-timing-equaliser")

func mustHash(pw string) []byte {
	h, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	if err != nil {
		panic(err)
	}
	return h
}

var _ AuthService = (*AuthServiceImpl)(nil)

// AuthService defines the business logic contract.
type AuthService interface {
	Register(ctx context.Context, params models.RegisterUserParams) (int64, error)
	VerifyCredential(ctx context.Context, username, password string) (*models.SessionUser, error)
}

type AuthServiceImpl struct {
	logger *zap.Logger
	repo   AuthRepo
	cost   int
}

func NewAuthService(repo AuthRepo, logger *zap.Logger) *AuthServiceImpl {
	return &AuthServiceImpl{logger: logger, repo: repo, cost: bcrypt.DefaultCost}
}

// ValidateRegistration checks the registration payload before any hashing.
func ValidateRegistration(p models.RegisterUserParams) error {
	if strings.TrimSpace(p.Username) == "" || strings.TrimSpace(p.Email) == "" || p.Password == "" || p.Role == "" {
		return models.NewError(models.ErrValidation, "Username, email, password and role are required")
	}
	if addr, err := mail.ParseAddress(p.Email); err != nil || addr.Address != p.Email {
		return models.NewError(models.ErrValidation, "Invalid email address")
	}
	if len(p.Password) < MinPasswordLength {
		return models.NewError(models.ErrValidation, fmt.Sprintf("Password must be at least %d characters", MinPasswordLength))
	}
	if !p.Role.Valid() {
		return models.NewError(models.ErrValidation, "Role must be owner or walker")
	}
	return nil
}

func (s *AuthServiceImpl) Register(ctx context.Context, params models.RegisterUserParams) (int64, error) {
	l := s.logger.With(zap.String("method", "Register"), zap.String("username", params.Username))

	ctx, span := otel.Tracer("dogwalks").Start(ctx, "AuthService.Register", trace.WithAttributes(
		attribute.String("username", params.Username),
		attribute.String("role", string(params.Role)),
	))
	defer span.End()

	if err := ValidateRegistration(params); err != nil {
		span.SetStatus(codes.Error, "Invalid registration")
		return 0, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(params.Password), s.cost)
	if err != nil {
		l.Error("Failed to hash password", zap.Error(err))
		span.RecordError(err)
		return 0, fmt.Errorf("hash password: %w", err)
	}

	userID, err := s.repo.CreateUser(ctx, params.Username, params.Email, string(hashed), params.Role)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Registration failed")
		return 0, err
	}

	l.Info("User registered", zap.Int64("user_id", userID))
	span.SetStatus(codes.Ok, "User registered")
	return userID, nil
}

// VerifyCredential returns the session identity for valid credentials.
// Unknown users and wrong passwords both yield models.ErrInvalidCredentials.
func (s *AuthServiceImpl) VerifyCredential(ctx context.Context, username, password string) (*models.SessionUser, error) {
	l := s.logger.With(zap.String("method", "VerifyCredential"), zap.String("username", username))

	cred, err := s.repo.GetCredentialByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
			l.Warn("Login for unknown user")
			return nil, models.ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(password)); err != nil {
		l.Warn("Password comparison failed", zap.Int64("user_id", cred.ID))
		return nil, models.ErrInvalidCredentials
	}

	return &models.SessionUser{
		UserID:   cred.ID,
		Username: cred.Username,
		Email:    cred.Email,
		Role:     cred.Role,
	}, nil
}
