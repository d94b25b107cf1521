package walks

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/FACorreiaa/go-dogwalks/internal/app/domain"
	"github.com/FACorreiaa/go-dogwalks/internal/app/models"
	"github.com/FACorreiaa/go-dogwalks/internal/app/session"
)

type CreateRequestBody struct {
	DogID           int64     `json:"dog_id"`
	RequestedTime   time.Time `json:"requested_time"`
	DurationMinutes int       `json:"duration_minutes"`
	Location        string    `json:"location"`
}

type RatingBody struct {
	Rating   int    `json:"rating"`
	Comments string `json:"comments"`
}

type Handler struct {
	*domain.BaseHandler
	service Service
}

func NewHandler(service Service, logger *zap.Logger) *Handler {
	return &Handler{BaseHandler: domain.NewBaseHandler(logger), service: service}
}

// ListOpen handles GET /api/walkrequests/open.
func (h *Handler) ListOpen(c *gin.Context) {
	out, err := h.service.ListOpen(c.Request.Context())
	if err != nil {
		h.RespondError(c, err, "Failed to fetch walk requests")
		return
	}
	c.JSON(http.StatusOK, out)
}

// WalkerSummary handles GET /api/walkers/summary.
func (h *Handler) WalkerSummary(c *gin.Context) {
	out, err := h.service.WalkerSummaries(c.Request.Context())
	if err != nil {
		h.RespondError(c, err, "Failed to fetch walker summary")
		return
	}
	c.JSON(http.StatusOK, out)
}

// CreateRequest handles POST /api/walks.
func (h *Handler) CreateRequest(c *gin.Context) {
	var body CreateRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		h.BadRequest(c, "Invalid request body")
		return
	}
	user, _ := session.CurrentUser(c)

	id, err := h.service.CreateRequest(c.Request.Context(), models.CreateWalkRequestParams{
		OwnerID:         user.UserID,
		DogID:           body.DogID,
		RequestedTime:   body.RequestedTime,
		DurationMinutes: body.DurationMinutes,
		Location:        body.Location,
	})
	if err != nil {
		h.RespondError(c, err, "Failed to create walk request")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Walk request created", "request_id": id})
}

// Apply handles POST /api/walks/:id/apply.
func (h *Handler) Apply(c *gin.Context) {
	requestID, ok := domain.ParamID(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid walk request id")
		return
	}
	user, _ := session.CurrentUser(c)

	id, err := h.service.Apply(c.Request.Context(), requestID, user.UserID)
	if err != nil {
		h.RespondError(c, err, "Failed to apply")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Application submitted", "application_id": id})
}

// Applications handles GET /api/walks/:id/applications.
func (h *Handler) Applications(c *gin.Context) {
	requestID, ok := domain.ParamID(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid walk request id")
		return
	}
	user, _ := session.CurrentUser(c)

	out, err := h.service.ListApplications(c.Request.Context(), requestID, user.UserID)
	if err != nil {
		h.RespondError(c, err, "Failed to fetch applications")
		return
	}
	c.JSON(http.StatusOK, out)
}

// Accept handles POST /api/walks/applications/:id/accept.
func (h *Handler) Accept(c *gin.Context) {
	applicationID, ok := domain.ParamID(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid application id")
		return
	}
	user, _ := session.CurrentUser(c)

	if err := h.service.AcceptApplication(c.Request.Context(), applicationID, user.UserID); err != nil {
		h.RespondError(c, err, "Failed to accept application")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Application accepted"})
}

// Complete handles POST /api/walks/:id/complete.
func (h *Handler) Complete(c *gin.Context) {
	requestID, ok := domain.ParamID(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid walk request id")
		return
	}
	user, _ := session.CurrentUser(c)

	if err := h.service.Complete(c.Request.Context(), requestID, user.UserID); err != nil {
		h.RespondError(c, err, "Failed to complete walk")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Walk completed"})
}

// Rate handles POST /api/walks/:id/rating.
func (h *Handler) Rate(c *gin.Context) {
	requestID, ok := domain.ParamID(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid walk request id")
		return
	}
	var body RatingBody
	if err := c.ShouldBindJSON(&body); err != nil {
		h.BadRequest(c, "Invalid request body")
		return
	}
	user, _ := session.CurrentUser(c)

	id, err := h.service.Rate(c.Request.Context(), models.CreateRatingParams{
		RequestID: requestID,
		OwnerID:   user.UserID,
		Rating:    body.Rating,
		Comments:  body.Comments,
	})
	if err != nil {
		h.RespondError(c, err, "Failed to submit rating")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Rating submitted", "rating_id": id})
}
