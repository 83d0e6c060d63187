// Package server assembles the HTTP API: services, handlers, middleware
// and routes.
package server

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	"grantdesk/internal/config"
	_ "grantdesk/internal/docs" // Register swagger docs
	"grantdesk/internal/handlers"
	"grantdesk/internal/idempotency"
	"grantdesk/internal/logger"
	"grantdesk/internal/mailer"
	"grantdesk/internal/middleware"
	"grantdesk/internal/policy"
	"grantdesk/internal/services"
)

// Options carries the collaborators the API is built from.
type Options struct {
	DB     *gorm.DB
	Config *config.Config
	Policy *policy.Table
	Mailer mailer.Mailer
	// Idempotency is optional; without it Idempotency-Key is ignored.
	Idempotency idempotency.Store
	// Now overrides the clock used for fiscal year defaults.
	Now func() time.Time
}

// New builds the gin engine serving the API.
func New(opts Options) *gin.Engine {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	cfg := opts.Config
	db := opts.DB

	// Services
	authz := policy.NewAuthorizer(opts.Policy, services.NewMembership(db))
	auditService := services.NewAuditService(db)
	notificationService := services.NewNotificationService(db, services.NewUserService(db))
	ledgerService := services.NewLedgerService(db, authz, auditService, services.LedgerOptions{
		AllowOverrun: cfg.LedgerAllowOverrun,
	})
	requestService := services.NewRequestService(db, authz, auditService, notificationService, opts.Mailer, services.RequestOptions{
		MailFrom:  cfg.MailFrom,
		PortalURL: cfg.PortalURL,
		Now:       opts.Now,
	})
	transferService := services.NewTransferService(db, authz, auditService, opts.Now)
	archiveService := services.NewArchiveService(db, authz, auditService)
	projectService := services.NewProjectService(db, authz, auditService)

	// Handlers
	budgetHandler := handlers.NewBudgetHandler(ledgerService)
	requestHandler := handlers.NewRequestHandler(requestService)
	transferHandler := handlers.NewTransferHandler(transferService)
	archiveHandler := handlers.NewArchiveHandler(archiveService)
	projectHandler := handlers.NewProjectHandler(projectService)
	pipelineHandler := handlers.NewPipelineHandler(ledgerService)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.Metrics())
	router.Use(middleware.ErrorHandler())
	if corsHandler := newCORS(cfg); corsHandler != nil {
		router.Use(corsHandler)
	}

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Prometheus scrape endpoint
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Health check endpoint
	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")

	// Expense pipeline, authenticated with X-API-Key
	pipeline := v1.Group("/pipeline")
	pipeline.Use(middleware.PipelineAuthMiddleware(cfg.PipelineAPIKey))
	pipeline.Use(middleware.Idempotency(opts.Idempotency, cfg.IdempotencyTTL))
	pipeline.POST("/expenses", pipelineHandler.RecordExpense)

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware())

	budget := protected.Group("/budget")
	budget.Use(middleware.Idempotency(opts.Idempotency, cfg.IdempotencyTTL))
	budget.POST("/allocations", budgetHandler.Allocate)
	budget.GET("/entries", budgetHandler.ListEntries)
	budget.GET("/entries/:id", budgetHandler.GetEntry)
	budget.GET("/summary", budgetHandler.Summary)

	budget.POST("/requests", requestHandler.RequestBudget)
	budget.GET("/requests", requestHandler.ListRequests)
	budget.GET("/requests/:id", requestHandler.GetRequest)
	budget.POST("/requests/:id/decision", requestHandler.DecideRequest)

	budget.POST("/transfers", transferHandler.TransferBudget)
	budget.GET("/transfers", transferHandler.ListTransfers)

	budget.POST("/archives", archiveHandler.ArchiveYearEnd)
	budget.GET("/archives", archiveHandler.ListArchives)

	projects := protected.Group("/projects")
	projects.POST("", projectHandler.CreateProject)
	projects.GET("/:id", projectHandler.GetProject)
	projects.POST("/:id/members", projectHandler.AddMember)

	return router
}

// newCORS allows every origin outside production. In production only the
// configured origins are allowed, and with none configured the middleware
// is left out so browsers fall back to same-origin.
func newCORS(cfg *config.Config) gin.HandlerFunc {
	corsConfig := cors.DefaultConfig()
	if cfg.IsProduction() {
		if len(cfg.CORSAllowedOrigins) == 0 {
			logger.Get().Warn("CORS_ALLOWED_ORIGINS is empty; cross-origin requests are disabled")
			return nil
		}
		corsConfig.AllowOrigins = cfg.CORSAllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AddAllowHeaders("Authorization", middleware.IdempotencyKeyHeader, middleware.APIKeyHeader, "X-Request-ID")
	corsConfig.AddExposeHeaders("X-Request-ID", middleware.IdempotencyReplayedHeader)
	return cors.New(corsConfig)
}
