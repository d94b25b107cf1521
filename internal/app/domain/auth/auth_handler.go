package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/FACorreiaa/go-dogwalks/internal/app/domain"
	"github.com/FACorreiaa/go-dogwalks/internal/app/models"
	"github.com/FACorreiaa/go-dogwalks/internal/app/observability/metrics"
	"github.com/FACorreiaa/go-dogwalks/internal/app/session"
)

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type AuthHandlers struct {
	*domain.BaseHandler
	authService AuthService
	sessions    *session.Manager
}

func NewAuthHandlers(authService AuthService, sessions *session.Manager, logger *zap.Logger) *AuthHandlers {
	return &AuthHandlers{
		BaseHandler: domain.NewBaseHandler(logger),
		authService: authService,
		sessions:    sessions,
	}
}

func recordAttempt(c *gin.Context, outcome string) {
	metrics.Get().AuthAttemptsTotal.Add(c.Request.Context(), 1,
		metric.WithAttributes(attribute.String("outcome", outcome)))
}

// Register handles POST /api/users/register.
func (h *AuthHandlers) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body")
		return
	}

	userID, err := h.authService.Register(c.Request.Context(), models.RegisterUserParams{
		Username: strings.TrimSpace(req.Username),
		Email:    strings.TrimSpace(req.Email),
		Password: req.Password,
		Role:     models.Role(req.Role),
	})
	if err != nil {
		h.RespondError(c, err, "Registration failed")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "User registered successfully",
		"user_id": userID,
	})
}

// Login handles POST /api/users/login. A cookie is only set on success.
func (h *AuthHandlers) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Username == "" || req.Password == "" {
		recordAttempt(c, "invalid_request")
		h.BadRequest(c, "Username and password are required")
		return
	}

	user, err := h.authService.VerifyCredential(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if domain.StatusFor(err) == http.StatusUnauthorized {
			recordAttempt(c, "rejected")
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
			return
		}
		recordAttempt(c, "error")
		h.RespondError(c, err, "Login failed")
		return
	}

	if _, err := h.sessions.Create(c, *user); err != nil {
		recordAttempt(c, "error")
		h.RespondError(c, err, "Login failed")
		return
	}
	recordAttempt(c, "success")

	h.Logger.Info("Successful login", zap.Int64("user_id", user.UserID), zap.String("role", string(user.Role)))
	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"user": gin.H{
			"username": user.Username,
			"role":     user.Role,
		},
	})
}

// Logout handles POST /api/users/logout. It succeeds without a session too.
func (h *AuthHandlers) Logout(c *gin.Context) {
	if err := h.sessions.Destroy(c); err != nil {
		h.Logger.Error("Failed to destroy session", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Logout failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}

// Me handles GET /api/users/me. Mount behind session.RequireAuth.
func (h *AuthHandlers) Me(c *gin.Context) {
	user, ok := session.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}
	c.JSON(http.StatusOK, user)
}
