package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// 生成脚本：POST /api/generated-script
func (h *Handler) GenerateScript(c *gin.Context) {
	promptID := bindPromptID(c)
	res, err := h.Scripts.Generate(detached(c), promptID)
	if err != nil {
		h.fail(c, err, "Internal Server Error")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"script":      res.Script,
		"savedScript": res.Saved,
	})
}

// 生成音频：POST /api/generate-audio
func (h *Handler) GenerateAudio(c *gin.Context) {
	promptID := bindPromptID(c)
	res, err := h.Audio.Generate(detached(c), promptID)
	if err != nil {
		h.fail(c, err, "Failed to generate audio")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":  "Audio generated successfully",
		"audioUrl": res.AudioURL,
		"audioId":  res.AudioID,
	})
}

// 生成视频：POST /api/generate-video，已存在时直接返回 cached
func (h *Handler) GenerateVideo(c *gin.Context) {
	promptID := bindPromptID(c)
	res, err := h.Video.Compose(detached(c), promptID, nil)
	if err != nil {
		h.fail(c, err, "Failed to generate video")
		return
	}
	if res.Cached {
		c.JSON(http.StatusOK, gin.H{
			"message":  "Video already exists",
			"videoUrl": res.VideoURL,
			"videoId":  res.VideoID,
			"cached":   true,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":  "Video generated successfully",
		"videoUrl": res.VideoURL,
		"videoId":  res.VideoID,
	})
}
