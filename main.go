package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"time"

	"mathvideo-server/config"
	"mathvideo-server/logger"
	"mathvideo-server/models"
	"mathvideo-server/routers"
	"mathvideo-server/routers/api"
	"mathvideo-server/service"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func main() {
	defaultPath := config.DefaultPath
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		defaultPath = p
	}
	configPath := flag.String("config", defaultPath, "path to config yaml")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}

	zl, err := logger.New(cfg.Log.Mode)
	if err != nil {
		log.Fatalf("初始化日志失败: %v", err)
	}
	defer zl.Sync()

	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}

	db, err := models.InitDB(cfg)
	if err != nil {
		zl.Fatal("Database init failed", "error", err)
	}
	zl.Info("Database initialized")
	repo := models.NewRepo(db)

	ctx := context.Background()
	gemini, err := service.NewGeminiClient(ctx, cfg.Gemini, zl)
	if err != nil {
		zl.Fatal("Gemini client init failed", "error", err)
	}
	tts, err := service.NewGoogleTTS(ctx, cfg.TTS, zl)
	if err != nil {
		zl.Fatal("Text-to-Speech client init failed", "error", err)
	}
	defer tts.Close()
	objects, err := service.NewMinioStore(cfg.MinIO, zl)
	if err != nil {
		zl.Fatal("MinIO init failed", "error", err)
	}
	zl.Info("MinIO initialized", "endpoint", cfg.MinIO.Endpoint)
	renderer := service.NewProcessRenderer(cfg.Render, zl)

	h := &api.Handler{
		Scripts: service.NewScriptGenerator(repo, gemini, zl),
		Audio: service.NewAudioSynthesizer(repo, tts, objects,
			cfg.MinIO.AudioBucket, cfg.Server.ScratchDir, cfg.TTS.MaxChunkBytes, zl),
		Video: service.NewVideoCompositor(repo, renderer, objects,
			&http.Client{Timeout: 5 * time.Minute}, cfg.MinIO.VideoBucket, cfg.Server.ScratchDir, zl),
		Prompts: repo,
		Ping:    pinger(db),
		Log:     zl,
	}

	r := routers.InitRouter(h, cfg.Server.FrontendURL, zl)
	zl.Info("Server starting", "port", cfg.Server.Port)
	if err := r.Run(cfg.Server.Port); err != nil {
		zl.Fatal("Server stopped", "error", err)
	}
}

func pinger(db *gorm.DB) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		return models.Ping(db.WithContext(ctx))
	}
}
