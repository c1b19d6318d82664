package httpapi

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

type RouterConfig struct {
	Handlers   *Handlers
	BearerAuth *BearerAuth

	AllowOrigins []string
}

// NewRouter wires the reasoning engine's four read-only JSON operations
// behind request correlation, CORS, and bearer auth.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	router.Use(otelgin.Middleware("reasoner"))
	router.Use(RequestCorrelation())

	origins := cfg.AllowOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", headerRequestID},
		AllowCredentials: true,
	}))

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/v1")
	v1.Use(cfg.BearerAuth.RequireAuth())
	{
		v1.POST("/traverse", cfg.Handlers.Traverse)
		v1.POST("/paths", cfg.Handlers.Paths)
		v1.POST("/ground", cfg.Handlers.Ground)
		v1.POST("/parent-cover", cfg.Handlers.ParentCover)
	}

	return router
}
