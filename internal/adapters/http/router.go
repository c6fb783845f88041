package http

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/ProximityVoice/internal/adapters/signal"
	"github.com/dkeye/ProximityVoice/internal/app"
	"github.com/dkeye/ProximityVoice/internal/config"
)

func SetupRouter(ctx context.Context, cfg *config.Config, orch *app.Orchestrator) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	if cfg.StaticPath != "" {
		r.Static("/static", cfg.StaticPath)
		r.GET("/", func(c *gin.Context) {
			c.File(cfg.StaticPath + "/index.html")
		})
	}

	r.GET("/health", func(c *gin.Context) {
		c.String(200, "ok")
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	log.Info().Str("module", "adapters.http").Str("static", cfg.StaticPath).Msg("router setup")

	ctrl := signal.NewVoiceWSController(orch, cfg.ReadLimit, cfg.PingPeriod)
	world := &WorldHandlers{Orch: orch, VoiceBaseURL: cfg.VoiceBaseURL}

	api := r.Group("/api")

	api.GET("/ws/voice", func(c *gin.Context) {
		ctrl.HandleVoice(ctx, c)
	})

	w := api.Group("/world")
	w.POST("/players", world.PostPlayer)
	w.DELETE("/players/:playerId", world.DeletePlayer)
	w.PUT("/positions", world.PutPositions)

	return r
}
