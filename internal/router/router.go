package router

import (
	"net/http"
	"os"
	"strconv"
	"strings"

	"go-intents/internal/config"
	"go-intents/internal/handlers"
	"go-intents/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

const corsMaxAge = 3600

// corsMiddleware CORS middleware
// Priority: Environment Variable > YAML Config > Default (*)
func corsMiddleware() gin.HandlerFunc {
	allowedOrigins := corsOrigins()
	allowAll := len(allowedOrigins) == 1 && allowedOrigins[0] == "*"

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		switch {
		case allowAll:
			c.Header("Access-Control-Allow-Origin", "*")
		case origin != "" && containsOrigin(allowedOrigins, origin):
			c.Header("Access-Control-Allow-Origin", origin)
		case origin != "":
			logrus.WithFields(logrus.Fields{
				"request_origin":  origin,
				"allowed_origins": allowedOrigins,
				"path":            c.Request.URL.Path,
				"remote_addr":     c.ClientIP(),
			}).Warn("CORS: Origin not in whitelist")
		}

		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Content-Length, Accept-Encoding, Authorization, Cache-Control, Accept")
		c.Header("Access-Control-Max-Age", strconv.Itoa(corsMaxAge))

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Header("Access-Control-Expose-Headers", "Content-Length, Content-Type")
		c.Next()
	}
}

func corsOrigins() []string {
	if env := os.Getenv("CORS_ALLOWED_ORIGINS"); env != "" {
		var origins []string
		for _, o := range strings.Split(env, ",") {
			if trimmed := strings.TrimSpace(o); trimmed != "" {
				origins = append(origins, trimmed)
			}
		}
		if len(origins) > 0 {
			return origins
		}
	}
	if config.AppConfig != nil && len(config.AppConfig.Server.CORSAllowedOrigins) > 0 {
		return config.AppConfig.Server.CORSAllowedOrigins
	}
	return []string{"*"}
}

func containsOrigin(allowed []string, origin string) bool {
	for _, o := range allowed {
		if strings.TrimSpace(o) == origin {
			return true
		}
	}
	return false
}

// SetupRouter wires the intent API. Submission routes require an operator
// token; /metrics is limited to loopback and the configured allowlist.
func SetupRouter(intentHandler *handlers.IntentHandler, auth *middleware.AuthMiddleware, localhostOnly *middleware.LocalhostOnly) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	r.Use(corsMiddleware())

	// ============ Check ============
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	r.GET("/health", intentHandler.Health)

	// ============ Prometheus Metrics ============
	r.GET("/metrics", localhostOnly.Restrict(), gin.WrapH(promhttp.Handler()))

	// ============ API Routes ============
	api := r.Group("/api")
	{
		api.GET("/health", intentHandler.Health)
		api.POST("/intents/encode", intentHandler.EncodeIntent)
		api.GET("/solutions", intentHandler.ListSubmissions)
		api.GET("/solutions/:id", intentHandler.GetSubmission)
	}

	operator := api.Group("")
	operator.Use(auth.RequireAuth())
	{
		operator.POST("/solutions/submit", intentHandler.SubmitSolution)
		operator.POST("/scenarios/transfer-eth", intentHandler.TransferEth)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"message": "API endpoint not found",
			"path":    c.Request.URL.Path,
		})
	})

	return r
}
