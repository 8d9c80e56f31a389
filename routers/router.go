package routers

import (
	"strings"
	"time"

	"mathvideo-server/logger"
	"mathvideo-server/routers/api"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// InitRouter 注册所有路由。frontendURL 为空时允许任意来源
func InitRouter(h *api.Handler, frontendURL string, log *logger.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLogger(log))
	r.Use(cors.New(corsConfig(frontendURL)))

	r.GET("/health", h.Health)

	v1 := r.Group("/api")
	{
		v1.POST("/prompts", h.CreatePrompt)
		v1.GET("/prompts/:prompt_id", h.GetPrompt)
		v1.GET("/users/:user_id/videos", h.ListUserVideos)

		v1.POST("/generated-script", h.GenerateScript)
		v1.POST("/generate-audio", h.GenerateAudio)
		v1.POST("/generate-video", h.GenerateVideo)
		v1.GET("/generate-video/ws", h.VideoProgressWebSocket)
	}
	return r
}

func corsConfig(frontendURL string) cors.Config {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	var origins []string
	for _, o := range strings.Split(frontendURL, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
		cfg.AllowCredentials = false
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}

// RequestLogger 每个请求一条 zap 日志
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		kv := []interface{}{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
		}
		switch {
		case c.Writer.Status() >= 500:
			log.Error("request", kv...)
		case c.Writer.Status() >= 400:
			log.Warn("request", kv...)
		default:
			log.Info("request", kv...)
		}
	}
}
