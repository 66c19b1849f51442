package server

import (
	"github.com/aslanbek/filevault/internal/auth"
	"github.com/aslanbek/filevault/internal/config"
	"github.com/aslanbek/filevault/internal/file"
	"github.com/aslanbek/filevault/internal/metrics"
	"github.com/aslanbek/filevault/internal/share"
	"github.com/aslanbek/filevault/internal/storage"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Dependencies groups the services required by the HTTP router.
type Dependencies struct {
	Config       config.Config
	DB           *pgxpool.Pool
	ObjectStore  storage.ObjectStore
	AuthService  *auth.Service
	FileService  *file.Service
	ShareService *share.Service
}

// NewRouter builds a Gin engine with foundational middleware and routes.
func NewRouter(deps Dependencies) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(gin.Logger())

	metrics.InitMetrics()
	router.Use(metrics.Middleware())

	registerHealthRoutes(router, deps)
	metrics.Register(router, deps.Config.Metrics.PrometheusPath)

	if deps.ShareService != nil {
		share.RegisterPublicRoutes(router, deps.ShareService)
	}

	api := router.Group("/v1")
	if deps.AuthService != nil {
		auth.RegisterRoutes(api, deps.AuthService)

		protected := api.Group("/")
		protected.Use(auth.Middleware(deps.AuthService))

		if deps.FileService != nil {
			file.RegisterRoutes(protected, deps.FileService)
		}
		if deps.ShareService != nil {
			share.RegisterRoutes(protected, deps.ShareService)
		}
	}

	return router
}
