package dogs

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/FACorreiaa/go-dogwalks/internal/app/domain"
	"github.com/FACorreiaa/go-dogwalks/internal/app/models"
	"github.com/FACorreiaa/go-dogwalks/internal/app/session"
)

const maxDogNameLength = 50

type CreateDogRequest struct {
	Name string `json:"name"`
	Size string `json:"size"`
}

type Handler struct {
	*domain.BaseHandler
	repo Repository
}

func NewHandler(repo Repository, logger *zap.Logger) *Handler {
	return &Handler{BaseHandler: domain.NewBaseHandler(logger), repo: repo}
}

// List handles GET /api/dogs.
func (h *Handler) List(c *gin.Context) {
	dogs, err := h.repo.ListAll(c.Request.Context())
	if err != nil {
		h.RespondError(c, err, "Failed to fetch dogs")
		return
	}
	if dogs == nil {
		dogs = []models.DogListing{}
	}
	c.JSON(http.StatusOK, dogs)
}

// MyDogs handles GET /api/users/my-dogs.
func (h *Handler) MyDogs(c *gin.Context) {
	user, _ := session.CurrentUser(c)
	dogs, err := h.repo.ListByOwner(c.Request.Context(), user.UserID)
	if err != nil {
		h.RespondError(c, err, "Failed to fetch dogs")
		return
	}
	if dogs == nil {
		dogs = []models.OwnedDog{}
	}
	c.JSON(http.StatusOK, dogs)
}

// Create handles POST /api/dogs for owners.
func (h *Handler) Create(c *gin.Context) {
	var req CreateDogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body")
		return
	}
	name := strings.TrimSpace(req.Name)
	size := models.DogSize(req.Size)
	if name == "" || len(name) > maxDogNameLength {
		h.BadRequest(c, "Dog name is required and must be at most 50 characters")
		return
	}
	if !size.Valid() {
		h.BadRequest(c, "Size must be small, medium or large")
		return
	}

	user, _ := session.CurrentUser(c)
	id, err := h.repo.Create(c.Request.Context(), models.CreateDogParams{OwnerID: user.UserID, Name: name, Size: size})
	if err != nil {
		h.RespondError(c, err, "Failed to create dog")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Dog created", "dog_id": id})
}
