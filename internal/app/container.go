package app

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nekogravitycat/campus-scheduler/internal/api"
	"github.com/nekogravitycat/campus-scheduler/internal/auth"
	"github.com/nekogravitycat/campus-scheduler/internal/reservation"
	"github.com/nekogravitycat/campus-scheduler/internal/resource"
	"github.com/nekogravitycat/campus-scheduler/internal/timeline"
	"github.com/nekogravitycat/campus-scheduler/internal/user"
)

// Config holds the dependencies and settings required to start the application.
type Config struct {
	IsProduction bool
	ProdOrigins  string
	// DBPool selects the postgres stores. When nil every store is in memory.
	DBPool     *pgxpool.Pool
	JWTSecret  string
	JWTTTL     time.Duration
	BcryptCost int

	BookingRequiresApproval bool
	MaxReservationSpan      time.Duration

	TimelineStartHour int
	TimelineEndHour   int
	TimelineOptions   timeline.Options
}

// Container holds the initialized components that are needed externally.
type Container struct {
	Router             *gin.Engine
	JWTManager         *auth.JWTManager
	UserService        user.Service
	ResourceService    resource.Service
	ReservationService reservation.Service
	TimelineService    timeline.Service
}

type repositories struct {
	users        user.Repository
	resources    resource.Repository
	reservations reservation.Repository
}

func newRepositories(pool *pgxpool.Pool) repositories {
	if pool == nil {
		return repositories{
			users:        user.NewMemoryRepository(),
			resources:    resource.NewMemoryRepository(),
			reservations: reservation.NewMemoryRepository(),
		}
	}
	return repositories{
		users:        user.NewPgxRepository(pool),
		resources:    resource.NewPgxRepository(pool),
		reservations: reservation.NewPgxRepository(pool),
	}
}

// NewContainer initializes all modules and returns the container.
func NewContainer(cfg Config) *Container {
	// Init Components
	passwordHasher := auth.NewBcryptPasswordHasher(cfg.BcryptCost)
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTTTL)
	repos := newRepositories(cfg.DBPool)

	// User Module
	userService := user.NewService(repos.users, passwordHasher)

	// Resource Module
	resourceService := resource.NewService(repos.resources)

	// Reservation Module
	reservationService := reservation.NewService(repos.reservations, resourceService, reservation.Options{
		MaxSpan: cfg.MaxReservationSpan,
	})

	// Timeline Module
	timelineService := timeline.NewService(resourceService, reservationService, timeline.Config{
		StartHour: cfg.TimelineStartHour,
		EndHour:   cfg.TimelineEndHour,
		Options:   cfg.TimelineOptions,
	})

	router := api.NewRouter(api.Config{
		IsProduction:            cfg.IsProduction,
		ProdOrigins:             cfg.ProdOrigins,
		UserService:             userService,
		ResourceService:         resourceService,
		ReservationService:      reservationService,
		TimelineService:         timelineService,
		JWTManager:              jwtManager,
		BookingsRequireApproval: cfg.BookingRequiresApproval,
	})

	return &Container{
		Router:             router,
		JWTManager:         jwtManager,
		UserService:        userService,
		ResourceService:    resourceService,
		ReservationService: reservationService,
		TimelineService:    timelineService,
	}
}
