package http

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/sujalbistaa/blushbox/internal/config"
	"github.com/sujalbistaa/blushbox/internal/ws"
)

const (
	limiterSweepInterval = 10 * time.Minute
	limiterIdleTimeout   = 10 * time.Minute
)

// SetupRoutes configures all application routes and middleware. ctx bounds
// the background limiter sweeper.
func SetupRoutes(ctx context.Context, router *gin.Engine, env *Env, cfg *config.Config) {
	registerValidators()

	// --- Middleware ---
	router.Use(RequestIDMiddleware())
	router.Use(RequestLoggerMiddleware())
	router.Use(gin.Recovery())
	router.Use(MetricsMiddleware(env.Metrics))
	router.Use(SecurityHeadersMiddleware())
	router.Use(cors.New(corsConfig(cfg.CORSOrigin)))

	// --- Rate Limiter Setup ---
	var limiter *IPRateLimiter
	if cfg.Limits.RateLimitRPS > 0 {
		limiter = NewIPRateLimiter(rate.Limit(cfg.Limits.RateLimitRPS), cfg.Limits.RateLimitBurst)
		go limiter.Cleanup(ctx, limiterSweepInterval, limiterIdleTimeout)
	}
	writeLimit := RateLimitMiddleware(limiter)

	router.GET("/healthz", env.Health)
	if env.Metrics != nil {
		router.GET("/metrics", gin.WrapH(env.Metrics.Handler()))
	}

	// --- API Routes ---
	api := router.Group("/api")
	{
		api.GET("/confessions", env.GetConfessions)
		api.GET("/confessions/daily", env.GetDailyConfession)
		api.GET("/confessions/random", env.GetRandomConfession)
		api.POST("/confessions", writeLimit, env.CreateConfession)
		api.POST("/confessions/:id/react", env.ReactToConfession)
		api.POST("/confessions/:id/report", env.ReportConfession)
		api.GET("/confessions/:id/comments", env.GetComments)
		api.POST("/confessions/:id/comments", writeLimit, env.CreateComment)
	}

	if cfg.Admin.Token != "" {
		admin := api.Group("/admin", AdminAuthMiddleware(cfg.Admin.Token))
		admin.GET("/reports", env.GetReportedConfessions)
	} else {
		slog.Warn("X_ADMIN_TOKEN not set, admin routes disabled")
	}

	// --- WebSocket Route ---
	if env.Hub != nil {
		router.GET("/ws", func(c *gin.Context) {
			ws.ServeWs(env.Hub, c.Writer, c.Request)
		})
	}

	// --- Serve Frontend ---
	router.NoRoute(frontend(cfg.StaticDir))
}

func corsConfig(origin string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "X-Admin-Token", requestIDHeader},
		ExposeHeaders: []string{"Content-Length", requestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	// Browsers reject credentials on a wildcard origin.
	if origin == "" || origin == "*" {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = []string{origin}
	cfg.AllowCredentials = true
	return cfg
}

// frontend serves files from dir and falls back to index.html so client-side
// routes resolve. API paths and an empty dir get a JSON 404.
func frontend(dir string) gin.HandlerFunc {
	notFound := func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	}
	if dir == "" {
		return notFound
	}
	index := filepath.Join(dir, "index.html")
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if c.Request.Method != http.MethodGet || strings.HasPrefix(path, "/api/") {
			notFound(c)
			return
		}
		file := filepath.Join(dir, filepath.Clean("/"+path))
		if info, err := os.Stat(file); err == nil && !info.IsDir() {
			c.File(file)
			return
		}
		c.File(index)
	}
}
