package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/Gusta765/RUPTURAS/internal/api/handlers"
	"github.com/Gusta765/RUPTURAS/internal/api/middleware"
	"github.com/Gusta765/RUPTURAS/internal/config"
	"github.com/Gusta765/RUPTURAS/internal/service"
)

// NewRouter wires the ruptura endpoints. The analysis itself is stateless:
// every request carries its own input files.
func NewRouter(svc *service.AnalysisService, cfg *config.Config) *gin.Engine {
	router := gin.New()

	router.Use(
		middleware.Logger(),
		middleware.Recovery(),
	)

	corsConfig := cors.Config{
		AllowOrigins:     []string{"http://localhost:3000", "http://127.0.0.1:3000"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if normalized, allowAll := normalizeAllowedOrigins(cfg.Server.AllowedOrigins); allowAll {
		corsConfig.AllowOrigins = nil
		corsConfig.AllowOriginFunc = func(origin string) bool { return true }
	} else if len(normalized) > 0 {
		corsConfig.AllowOrigins = normalized
	}
	router.Use(cors.New(corsConfig))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	rupturaHandler := handlers.NewRupturaHandler(svc, cfg.App.UploadDir, cfg.Analysis.DefaultWindowDays)
	rupturaGroup := router.Group("/api/v1/ruptura")
	{
		rupturaGroup.POST("/analyze", rupturaHandler.Analyze)
		rupturaGroup.POST("/export", rupturaHandler.Export)
	}

	return router
}

func normalizeAllowedOrigins(origins []string) ([]string, bool) {
	var (
		parsed   []string
		allowAll bool
	)
	for _, origin := range origins {
		for _, part := range strings.Split(origin, ",") {
			trimmed := strings.TrimSpace(part)
			if trimmed == "" {
				continue
			}
			if trimmed == "*" {
				allowAll = true
				continue
			}
			parsed = append(parsed, trimmed)
		}
	}
	return parsed, allowAll
}
