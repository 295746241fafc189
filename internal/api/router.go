package api

import (
	"time"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/lavoroapp/marketplace-api/internal/api/handler"
	"github.com/lavoroapp/marketplace-api/internal/api/metrics"
	"github.com/lavoroapp/marketplace-api/internal/api/middleware"
	"github.com/lavoroapp/marketplace-api/internal/core/service"
	"github.com/lavoroapp/marketplace-api/internal/core/sync"
	mongorepo "github.com/lavoroapp/marketplace-api/internal/infrastructure/db/mongo"
	redisinfra "github.com/lavoroapp/marketplace-api/internal/infrastructure/db/redis"
)

// NewRouter builds the Echo instance with all routes registered and returns
// it together with the session manager, which the caller owns for shutdown.
func NewRouter(db *mongo.Database, rdb *redis.Client, jwtSecret string, log zerolog.Logger) (*echo.Echo, *sync.Manager) {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("marketplace"))

	// --- Store-facing dependencies ---
	profiles := mongorepo.NewProfileRepository(db, log)
	jobs := mongorepo.NewJobRepository(db, log)
	applications := mongorepo.NewApplicationRepository(db, log)
	hires := mongorepo.NewHireRepository(db, log)
	conversations := mongorepo.NewConversationRepository(db, log)
	messages := mongorepo.NewMessageRepository(db, log)
	accounts := mongorepo.NewAccountRepository(db)
	guard := redisinfra.NewOperationGuard(rdb)

	repos := sync.Repos{
		Profiles:      profiles,
		Jobs:          jobs,
		Applications:  applications,
		Hires:         hires,
		Conversations: conversations,
		Messages:      messages,
	}

	// --- Engine and services ---
	sessions := sync.NewManager(repos, guard, log)
	cascade := sync.NewCascadingDeleteCoordinator(applications, hires, conversations, messages, jobs, guard, log)
	resolver := sync.NewChatSessionResolver(conversations, log)
	authService := service.NewAuthService(accounts, profiles, jwtSecret, 24*time.Hour)
	jobService := service.NewJobService(jobs, log)

	// --- Handlers ---
	authHandler := handler.NewAuthHandler(authService)
	sessionHandler := handler.NewSessionHandler(sessions)
	jobHandler := handler.NewJobHandler(jobService, jobs, sessions, cascade)
	chatHandler := handler.NewChatHandler(resolver, sessions)
	streamHandler := handler.NewStreamHandler(sessions, log)

	authMiddleware := middleware.Auth(jwtSecret)
	employerOnly := middleware.RBAC("employer")
	workerOnly := middleware.RBAC("worker")

	// --- Auth routes ---
	e.POST("/auth/register", authHandler.Register)
	e.POST("/auth/login", authHandler.Login)

	// --- Session routes ---
	v1 := e.Group("/v1", authMiddleware)
	v1.GET("/profile", sessionHandler.Profile)
	v1.POST("/logout", sessionHandler.Logout)
	v1.GET("/stream", streamHandler.Stream)

	// --- Job routes ---
	v1.GET("/jobs", sessionHandler.Jobs)
	v1.GET("/jobs/next", sessionHandler.NextJob)
	v1.POST("/jobs/refresh", sessionHandler.RefreshJobs)
	v1.POST("/jobs", jobHandler.Create, employerOnly)
	v1.DELETE("/jobs/:id", jobHandler.Delete, employerOnly)
	v1.POST("/jobs/:id/apply", jobHandler.Apply, workerOnly)
	v1.GET("/hires", sessionHandler.Hires, workerOnly)

	// --- Chat routes ---
	v1.POST("/chats/resolve", chatHandler.Resolve)
	v1.GET("/chats/unread", chatHandler.Unread)
	v1.POST("/chats/:id/read", chatHandler.MarkRead)

	// --- Health probes (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(db, rdb)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?

	// --- Observability and docs ---
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	metrics.RegisterSessionGauge(sessions.Count)

	return e, sessions
}
