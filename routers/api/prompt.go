package api

import (
	"net/http"
	"strings"

	"mathvideo-server/models"

	"github.com/gin-gonic/gin"
)

// 创建 prompt：POST /api/prompts
func (h *Handler) CreatePrompt(c *gin.Context) {
	var req struct {
		PromptText string `json:"promptText"`
		UserID     string `json:"userId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}
	req.PromptText = strings.TrimSpace(req.PromptText)
	if req.PromptText == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Prompt text is required"})
		return
	}

	prompt := models.Prompt{PromptText: req.PromptText, UserID: req.UserID}
	if err := h.Prompts.CreatePrompt(c.Request.Context(), &prompt); err != nil {
		h.Log.Error("Create prompt failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create prompt", "details": err.Error()})
		return
	}
	h.Log.Info("Prompt created", "prompt_id", prompt.ID, "user_id", prompt.UserID)
	c.JSON(http.StatusCreated, gin.H{"prompt": prompt})
}

// 查询 prompt 及其最新的脚本/音频/视频：GET /api/prompts/:prompt_id
func (h *Handler) GetPrompt(c *gin.Context) {
	ctx := c.Request.Context()
	promptID := c.Param("prompt_id")

	prompt, err := h.Prompts.GetPrompt(ctx, promptID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal Server Error", "details": err.Error()})
		return
	}
	if prompt == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Prompt not found"})
		return
	}

	body := gin.H{"prompt": prompt}
	script, err := h.Prompts.LatestScript(ctx, promptID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal Server Error", "details": err.Error()})
		return
	}
	if script != nil {
		body["script"] = script
		audio, err := h.Prompts.LatestAudio(ctx, script.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal Server Error", "details": err.Error()})
			return
		}
		if audio != nil {
			body["audio"] = audio
		}
	}
	video, err := h.Prompts.LatestVideoForPrompt(ctx, promptID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal Server Error", "details": err.Error()})
		return
	}
	if video != nil {
		body["video"] = video
	}
	c.JSON(http.StatusOK, body)
}

// 我的视频：GET /api/users/:user_id/videos
func (h *Handler) ListUserVideos(c *gin.Context) {
	userID := c.Param("user_id")
	videos, err := h.Prompts.UserVideos(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load videos", "details": err.Error()})
		return
	}
	if videos == nil {
		videos = []models.UserVideo{}
	}
	c.JSON(http.StatusOK, gin.H{"videos": videos})
}

// 健康检查：GET /health
func (h *Handler) Health(c *gin.Context) {
	if h.Ping != nil {
		if err := h.Ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
