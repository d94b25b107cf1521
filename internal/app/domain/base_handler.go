package domain

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/FACorreiaa/go-dogwalks/internal/app/middleware"
	"github.com/FACorreiaa/go-dogwalks/internal/app/models"
	"github.com/FACorreiaa/go-dogwalks/internal/app/observability/metrics"
)

// BaseHandler carries what every JSON handler needs to answer errors uniformly.
type BaseHandler struct {
	Logger *zap.Logger
}

func NewBaseHandler(logger *zap.Logger) *BaseHandler {
	return &BaseHandler{Logger: logger}
}

// StatusFor maps a domain error to its HTTP status.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrInvalidCredentials), errors.Is(err, models.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, models.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// RespondError writes {"error": ...}. Client errors carrying a *models.Error
// echo its message; anything unclassified is logged and answered with publicMsg.
func (h *BaseHandler) RespondError(c *gin.Context, err error, publicMsg string) {
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		h.Logger.Error(publicMsg,
			zap.String("route", c.FullPath()),
			zap.String("request_id", middleware.GetRequestID(c)),
			zap.Error(err),
		)
		metrics.Get().DBQueryErrorsTotal.Add(c.Request.Context(), 1,
			metric.WithAttributes(attribute.String("route", c.FullPath())))
		c.JSON(status, gin.H{"error": publicMsg})
		return
	}

	var public *models.Error
	if errors.As(err, &public) {
		c.JSON(status, gin.H{"error": public.Msg})
		return
	}
	c.JSON(status, gin.H{"error": publicMsg})
}

// BadRequest answers 400 with msg.
func (h *BaseHandler) BadRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}

// ParamID parses a positive integer path parameter.
func ParamID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
