package api

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/paulaPelizer/DocScriptum/internal/api/handlers"
	"github.com/paulaPelizer/DocScriptum/internal/api/middleware"
	"github.com/paulaPelizer/DocScriptum/internal/services"
	"github.com/paulaPelizer/DocScriptum/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type Router struct {
	engine         *gin.Engine
	logger         *zap.Logger
	metrics        *metrics.Collector
	authHandler    *handlers.AuthHandler
	docHandler     *handlers.DocumentHandler
	requestHandler *handlers.RequestHandler
	grdHandler      *handlers.GRDHandler
	projectHandler  *handlers.ProjectHandler
	orgHandler      *handlers.OrganizationHandler
	resourceHandler *handlers.ResourceHandler
	lookupHandler   *handlers.LookupHandler
	authMiddleware  *middleware.AuthMiddleware
	reqMiddleware   *middleware.RequestMiddleware
}

// accessRules is consulted top to bottom; the first match wins and
// anything unmatched requires authentication.
func accessRules() []middleware.RouteRule {
	return []middleware.RouteRule{
		// /auth/me answers per caller, so identity must be attached when a
		// valid token arrives even though the route never rejects.
		{Method: "GET", PathPrefix: "/api/v1/auth/me", Require: middleware.Optional},
		{PathPrefix: "/api/v1/auth/", Require: middleware.Public},
		{PathPrefix: "/api/v1/health", Require: middleware.Public},
		{PathPrefix: "/health", Require: middleware.Public},
		{PathPrefix: "/metrics", Require: middleware.Public},
		{Method: "GET", PathPrefix: "/api/v1/projects", Require: middleware.Public},
		{Method: "GET", PathPrefix: "/api/v1/organizations", Require: middleware.Public},
		{Method: "DELETE", PathPrefix: "/api/v1/", Require: middleware.Authenticated, Roles: []string{"ROLE_ADMIN", "ROLE_DBA"}},
		{PathPrefix: "/api/v1/", Require: middleware.Authenticated},
	}
}

func NewRouter(
	logger *zap.Logger,
	collector *metrics.Collector,
	tokenService *services.TokenService,
	authService *services.AuthService,
	docService *services.DocumentService,
	requestService *services.RequestService,
	grdService *services.GRDService,
	projectService *services.ProjectService,
	orgService *services.OrganizationService,
	resourceService *services.ResourceService,
	lookupService *services.LookupService,
) *Router {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	reqMiddleware := middleware.NewRequestMiddleware(logger, collector)
	authMiddleware := middleware.NewAuthMiddleware(tokenService, authService, accessRules(), logger)

	engine.Use(reqMiddleware.ProcessRequest())
	engine.Use(reqMiddleware.RecoverPanic())
	engine.Use(reqMiddleware.LoginAttemptMiddleware())

	engine.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000", "http://localhost:5173"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Authorization", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	engine.Use(authMiddleware.Authenticate())
	engine.Use(authMiddleware.Authorize())

	return &Router{
		engine:          engine,
		logger:          logger,
		metrics:         collector,
		authHandler:     handlers.NewAuthHandler(authService, logger),
		docHandler:      handlers.NewDocumentHandler(docService, logger),
		requestHandler:  handlers.NewRequestHandler(requestService, logger),
		grdHandler:      handlers.NewGRDHandler(grdService, logger),
		projectHandler:  handlers.NewProjectHandler(projectService, logger),
		orgHandler:      handlers.NewOrganizationHandler(orgService, logger),
		resourceHandler: handlers.NewResourceHandler(resourceService, logger),
		lookupHandler:   handlers.NewLookupHandler(lookupService, logger),
		authMiddleware:  authMiddleware,
		reqMiddleware:   reqMiddleware,
	}
}

func (r *Router) SetupRoutes() {
	r.engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "up", "name": "docscriptum"})
	})

	r.engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(
		r.metrics.Registry(),
		promhttp.HandlerOpts{},
	)))

	v1 := r.engine.Group("/api/v1")
	v1.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "up"})
	})

	auth := v1.Group("/auth")
	{
		auth.POST("/login", r.authHandler.Login)
		auth.GET("/me", r.authHandler.Me)
		auth.POST("/register", r.authHandler.Register)
		auth.POST("/forgot-password", r.authHandler.ForgotPassword)
		auth.POST("/reset-password", r.authHandler.ResetPassword)
	}

	projects := v1.Group("/projects")
	{
		projects.GET("", r.projectHandler.List)
		projects.GET("/:id", r.projectHandler.Get)
		projects.POST("", r.projectHandler.Create)
		projects.PUT("/:id", r.projectHandler.Update)
		projects.DELETE("/:id", r.projectHandler.Delete)
		projects.GET("/:id/disciplines", r.lookupHandler.Disciplines)
		projects.PUT("/:id/disciplines", r.lookupHandler.SetDisciplines)
	}

	resources := v1.Group("/resources")
	{
		resources.GET("", r.resourceHandler.List)
		resources.GET("/:id", r.resourceHandler.Get)
		resources.POST("", r.resourceHandler.Create)
		resources.PUT("/:id", r.resourceHandler.Update)
	}

	organizations := v1.Group("/organizations")
	{
		organizations.GET("", r.orgHandler.List)
		organizations.GET("/:id", r.orgHandler.Get)
		organizations.POST("", r.orgHandler.Create)
		organizations.PUT("/:id", r.orgHandler.Update)
		organizations.DELETE("/:id", r.orgHandler.Delete)
	}

	documents := v1.Group("/documents")
	{
		documents.GET("", r.docHandler.List)
		documents.GET("/form-data", r.lookupHandler.FormData)
		documents.GET("/:id", r.docHandler.Get)
		documents.GET("/by-hash/:hash", r.docHandler.GetByHash)
		documents.POST("", r.docHandler.Create)
		documents.PUT("/:id", r.docHandler.Update)
		documents.DELETE("/:id", r.docHandler.Delete)
	}

	requests := v1.Group("/requests")
	{
		requests.GET("", r.requestHandler.List)
		requests.GET("/:id", r.requestHandler.Get)
		requests.POST("", r.requestHandler.Create)
		requests.PUT("/:id", r.requestHandler.Update)
		requests.PATCH("/:id/status", r.requestHandler.UpdateStatus)
		requests.POST("/:id/protocol", r.requestHandler.EnsureProtocol)
		requests.POST("/:id/finalize", r.requestHandler.Finalize)
		requests.POST("/:id/notify", r.requestHandler.Notify)
	}

	grds := v1.Group("/grds")
	{
		grds.GET("", r.grdHandler.List)
		grds.GET("/:id", r.grdHandler.Get)
		grds.GET("/by-protocol/:protocol", r.grdHandler.GetByProtocol)
		grds.POST("", r.grdHandler.Create)
	}
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}
