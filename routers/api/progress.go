package api

import (
	"net/http"
	"strings"
	"time"

	"mathvideo-server/service"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type progressEvent struct {
	PromptID string `json:"promptId"`
	Stage    string `json:"stage"`
	Detail   string `json:"detail,omitempty"`
	VideoURL string `json:"videoUrl,omitempty"`
	VideoID  string `json:"videoId,omitempty"`
	Cached   bool   `json:"cached,omitempty"`
	Error    string `json:"error,omitempty"`
	Done     bool   `json:"done"`
}

// 视频生成进度 WebSocket：GET /api/generate-video/ws?promptId=
// 在连接内同步执行合成，每次状态迁移推送一条事件，最后推送结果并关闭。
// 连接断开不会中止渲染。
func (h *Handler) VideoProgressWebSocket(c *gin.Context) {
	promptID := strings.TrimSpace(c.Query("promptId"))
	if promptID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Prompt ID is required"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.Log.Warn("WebSocket upgrade failed", "prompt_id", promptID, "error", err)
		return
	}
	defer conn.Close()

	connected := true
	send := func(ev progressEvent) {
		if !connected {
			return
		}
		_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
		if err := conn.WriteJSON(ev); err != nil {
			h.Log.Warn("WebSocket write failed, continuing without client", "prompt_id", promptID, "error", err)
			connected = false
		}
	}

	send(progressEvent{PromptID: promptID, Stage: string(service.StageNoVideo)})
	res, err := h.Video.Compose(detached(c), promptID, func(stage service.VideoStage, detail string) {
		if stage == service.StageFailed || stage == service.StageCached {
			return
		}
		send(progressEvent{PromptID: promptID, Stage: string(stage), Detail: detail})
	})
	if err != nil {
		e := service.AsError(err, "Failed to generate video")
		send(progressEvent{PromptID: promptID, Stage: string(service.StageFailed), Error: e.Msg, Detail: e.Details, Done: true})
		return
	}
	send(progressEvent{
		PromptID: promptID,
		Stage:    string(res.Stage),
		VideoURL: res.VideoURL,
		VideoID:  res.VideoID,
		Cached:   res.Cached,
		Done:     true,
	})
	_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}
