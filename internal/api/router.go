package api

import (
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/nekogravitycat/campus-scheduler/internal/auth"
	"github.com/nekogravitycat/campus-scheduler/internal/pkg/validation"
	"github.com/nekogravitycat/campus-scheduler/internal/reservation"
	reservationHttp "github.com/nekogravitycat/campus-scheduler/internal/reservation/http"
	"github.com/nekogravitycat/campus-scheduler/internal/resource"
	resourceHttp "github.com/nekogravitycat/campus-scheduler/internal/resource/http"
	"github.com/nekogravitycat/campus-scheduler/internal/timeline"
	timelineHttp "github.com/nekogravitycat/campus-scheduler/internal/timeline/http"
	"github.com/nekogravitycat/campus-scheduler/internal/user"
	userHttp "github.com/nekogravitycat/campus-scheduler/internal/user/http"
)

// Config carries the services and settings the router is assembled from.
type Config struct {
	IsProduction bool
	ProdOrigins  string

	UserService        user.Service
	ResourceService    resource.Service
	ReservationService reservation.Service
	TimelineService    timeline.Service
	JWTManager         *auth.JWTManager

	// BookingsRequireApproval makes student and lecturer bookings start as pending.
	BookingsRequireApproval bool
}

// NewRouter initializes the HTTP router engine.
// It is responsible for assembling middleware (CORS, Logger, Auth) and registering routes for various modules.
func NewRouter(cfg Config) *gin.Engine {
	validation.MustRegister()

	r := gin.New()

	// Global Middleware:
	// - Logger: Logs request information to the console.
	// - Recovery: Captures panics to prevent server crashes and returns a 500 error.
	r.Use(gin.Logger(), gin.Recovery())

	// Configure CORS (Cross-Origin Resource Sharing).
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = allowedOrigins(cfg.IsProduction, cfg.ProdOrigins)
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization"}
	r.Use(cors.New(corsConfig))

	// authMiddleware: Validates if the request contains a valid JWT.
	authMiddleware := auth.AuthRequired(cfg.JWTManager)
	staffMiddleware := RequireRole(cfg.UserService, auth.RoleStaff, auth.RoleAdmin)
	adminMiddleware := RequireRole(cfg.UserService, auth.RoleAdmin)
	// roleMiddleware: Replaces the token's role with the stored one.
	roleMiddleware := RefreshRole(cfg.UserService)

	userHandler := userHttp.NewHandler(cfg.UserService, cfg.JWTManager)
	resourceHandler := resourceHttp.NewHandler(cfg.ResourceService)
	reservationHandler := reservationHttp.NewHandler(cfg.ReservationService, cfg.BookingsRequireApproval)
	timelineHandler := timelineHttp.NewHandler(cfg.TimelineService)

	// Register API routes under /v1
	v1 := r.Group("/v1")
	{
		userHttp.RegisterRoutes(v1, userHandler, authMiddleware, adminMiddleware)
		resourceHttp.RegisterRoutes(v1, resourceHandler, authMiddleware, staffMiddleware)
		reservationHttp.RegisterRoutes(v1, reservationHandler, authMiddleware, roleMiddleware, staffMiddleware)
		timelineHttp.RegisterRoutes(v1, timelineHandler, authMiddleware)
	}

	return r
}

// allowedOrigins returns the configured production origins, or the local
// development front ends outside production.
func allowedOrigins(isProduction bool, prodOrigins string) []string {
	if !isProduction {
		return []string{
			"http://localhost:3000", // Web client
			"http://localhost:8081", // Swagger
		}
	}

	var origins []string
	for _, o := range strings.Split(prodOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}
