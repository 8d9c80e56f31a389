package api

import (
	"context"
	"encoding/json"
	"strings"

	"mathvideo-server/logger"
	"mathvideo-server/models"
	"mathvideo-server/service"

	"github.com/gin-gonic/gin"
)

type ScriptStage interface {
	Generate(ctx context.Context, promptID string) (*service.ScriptResult, error)
}

type AudioStage interface {
	Generate(ctx context.Context, promptID string) (*service.AudioResult, error)
}

type VideoStage interface {
	Compose(ctx context.Context, promptID string, observe service.StageObserver) (*service.VideoResult, error)
}

// PromptStore prompt 查询与"我的视频"列表，models.Repo 实现
type PromptStore interface {
	CreatePrompt(ctx context.Context, p *models.Prompt) error
	GetPrompt(ctx context.Context, id string) (*models.Prompt, error)
	LatestScript(ctx context.Context, promptID string) (*models.Script, error)
	LatestAudio(ctx context.Context, scriptID string) (*models.Audio, error)
	LatestVideoForPrompt(ctx context.Context, promptID string) (*models.Video, error)
	UserVideos(ctx context.Context, userID string) ([]models.UserVideo, error)
}

// Handler 持有各阶段服务，由 main.go 构造后注册到路由
type Handler struct {
	Scripts ScriptStage
	Audio   AudioStage
	Video   VideoStage
	Prompts PromptStore
	Ping    func(ctx context.Context) error
	Log     *logger.Logger
}

type stageRequest struct {
	PromptID any `json:"promptId"`
}

// bindPromptID promptId 可能是字符串也可能是数字；缺失、为 0 或请求体非法时返回空串，由各阶段报 400。
// 数字按原文保留，大整数不经 float64 转换。
func bindPromptID(c *gin.Context) string {
	if c.Request.Body == nil {
		return ""
	}
	var req stageRequest
	dec := json.NewDecoder(c.Request.Body)
	dec.UseNumber()
	if err := dec.Decode(&req); err != nil {
		return ""
	}
	switch v := req.PromptID.(type) {
	case string:
		return strings.TrimSpace(v)
	case json.Number:
		if f, err := v.Float64(); err == nil && f == 0 {
			return ""
		}
		return v.String()
	default:
		return ""
	}
}

// fail 把阶段错误写成 {error, details?}
func (h *Handler) fail(c *gin.Context, err error, fallbackMsg string) {
	e := service.AsError(err, fallbackMsg)
	status := service.StatusOf(e)
	h.Log.Error("Request failed",
		"path", c.FullPath(),
		"status", status,
		"kind", e.Kind.String(),
		"error", err.Error(),
	)
	body := gin.H{"error": e.Msg}
	if e.Details != "" {
		body["details"] = e.Details
	}
	c.JSON(status, body)
}

// detached 客户端断开后服务端任务继续执行直到完成或失败
func detached(c *gin.Context) context.Context {
	return context.WithoutCancel(c.Request.Context())
}
