package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/FACorreiaa/go-dogwalks/internal/app/domain/auth"
	"github.com/FACorreiaa/go-dogwalks/internal/app/domain/dogs"
	"github.com/FACorreiaa/go-dogwalks/internal/app/domain/walks"
	"github.com/FACorreiaa/go-dogwalks/internal/app/middleware"
	"github.com/FACorreiaa/go-dogwalks/internal/app/models"
	"github.com/FACorreiaa/go-dogwalks/internal/app/session"
	database "github.com/FACorreiaa/go-dogwalks/internal/db"
)

// Pinger is the health check a database pool satisfies.
type Pinger interface {
	Ping(ctx context.Context) error
}

type AppHandlers struct {
	Auth  *auth.AuthHandlers
	Dogs  *dogs.Handler
	Walks *walks.Handler
}

// Deps are the shared resources the handlers are built from.
type Deps struct {
	DB           database.DBTX
	Pinger       Pinger
	Sessions     *session.Manager
	LoginLimiter *middleware.LoginLimiter
	QueryTimeout time.Duration
	Logger       *zap.Logger
}

func NewAppHandlers(deps Deps) *AppHandlers {
	authRepo := auth.NewPostgresAuthRepo(deps.DB, deps.Logger, deps.QueryTimeout)
	authService := auth.NewAuthService(authRepo, deps.Logger)

	dogsRepo := dogs.NewRepository(deps.DB, deps.Logger, deps.QueryTimeout)

	walksRepo := walks.NewRepository(deps.DB, deps.Logger, deps.QueryTimeout)
	walksService := walks.NewService(walksRepo, deps.Logger)

	return &AppHandlers{
		Auth:  auth.NewAuthHandlers(authService, deps.Sessions, deps.Logger),
		Dogs:  dogs.NewHandler(dogsRepo, deps.Logger),
		Walks: walks.NewHandler(walksService, deps.Logger),
	}
}

// Setup mounts every route. Sessions are resolved once per request by the
// manager's middleware; guards only inspect the resolved session.
func Setup(r *gin.Engine, deps Deps) {
	h := NewAppHandlers(deps)
	Mount(r, h, deps)
}

func Mount(r *gin.Engine, h *AppHandlers, deps Deps) {
	r.GET("/healthz", healthz(deps.Pinger))

	api := r.Group("/api")
	api.Use(deps.Sessions.LoadSession())

	ownerOnly := session.RequireRole(models.RoleOwner)
	walkerOnly := session.RequireRole(models.RoleWalker)

	// Public directory
	api.GET("/dogs", h.Dogs.List)
	api.GET("/walkrequests/open", h.Walks.ListOpen)
	api.GET("/walkers/summary", h.Walks.WalkerSummary)

	users := api.Group("/users")
	{
		users.POST("/register", h.Auth.Register)
		users.POST("/login", deps.LoginLimiter.Middleware(), h.Auth.Login)
		users.POST("/logout", h.Auth.Logout)
		users.GET("/me", session.RequireAuth(), h.Auth.Me)
		users.GET("/my-dogs", session.RequireAuth(), h.Dogs.MyDogs)
	}

	api.POST("/dogs", ownerOnly, h.Dogs.Create)

	walkRoutes := api.Group("/walks")
	{
		walkRoutes.POST("", ownerOnly, h.Walks.CreateRequest)
		walkRoutes.POST("/:id/apply", walkerOnly, h.Walks.Apply)
		walkRoutes.GET("/:id/applications", ownerOnly, h.Walks.Applications)
		walkRoutes.POST("/applications/:id/accept", ownerOnly, h.Walks.Accept)
		walkRoutes.POST("/:id/complete", ownerOnly, h.Walks.Complete)
		walkRoutes.POST("/:id/rating", ownerOnly, h.Walks.Rate)
	}
}

func healthz(p Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := p.Ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
