package app

import (
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/roomhub/meeting-room-backend/internal/api"
	"github.com/roomhub/meeting-room-backend/internal/audit"
	"github.com/roomhub/meeting-room-backend/internal/auth"
	"github.com/roomhub/meeting-room-backend/internal/notify"
	"github.com/roomhub/meeting-room-backend/internal/pkg/clock"
	"github.com/roomhub/meeting-room-backend/internal/pkg/storage"
	"github.com/roomhub/meeting-room-backend/internal/reservation"
	"github.com/roomhub/meeting-room-backend/internal/room"
	"github.com/roomhub/meeting-room-backend/internal/user"
)

// Config holds the dependencies and settings required to start the application.
type Config struct {
	IsProduction bool
	ProdOrigins  string
	DBPool       *pgxpool.Pool
	JWTSecret    string
	JWTTTL       time.Duration
	BcryptCost   int
	StoragePath  string
	Notifier     notify.Notifier
}

// Container holds the initialized components that are needed externally.
type Container struct {
	Router     *gin.Engine
	JWTManager *auth.JWTManager
}

// NewContainer initializes all modules and returns the container.
func NewContainer(cfg Config) (*Container, error) {
	// Init Components
	passwordHasher := auth.NewBcryptPasswordHasherWithCost(cfg.BcryptCost)
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTTTL)
	systemClock := clock.System{}

	fileStorage, err := storage.NewLocalStorage(cfg.StoragePath)
	if err != nil {
		return nil, err
	}

	notifier := cfg.Notifier
	if notifier == nil {
		log.Println("no notifier configured, falling back to log notifier")
		notifier = notify.NewLogNotifier()
	}
	auditRecorder := audit.NewPgxRecorder(cfg.DBPool)

	// User Module
	userRepo := user.NewPgxRepository(cfg.DBPool)
	userService := user.NewService(userRepo, passwordHasher)

	// Room Module
	roomRepo := room.NewPgxRepository(cfg.DBPool)
	roomService := room.NewService(roomRepo, fileStorage)

	// Reservation Module
	reservationRepo := reservation.NewPgxRepository(cfg.DBPool)
	reservationService := reservation.NewService(reservationRepo, roomService, systemClock, notifier, auditRecorder)

	// API Router Config
	routerParams := api.Config{
		IsProduction:       cfg.IsProduction,
		ProdOrigins:        cfg.ProdOrigins,
		UserService:        userService,
		RoomService:        roomService,
		ReservationService: reservationService,
		JWTManager:         jwtManager,
	}

	// Router
	router := api.NewRouter(routerParams)

	return &Container{
		Router:     router,
		JWTManager: jwtManager,
	}, nil
}
