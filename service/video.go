package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"mathvideo-server/logger"
)

type VideoStage string

const (
	StageNoVideo   VideoStage = "no_video"
	StageCached    VideoStage = "cached"
	StageRendering VideoStage = "rendering"
	StageUploaded  VideoStage = "uploaded"
	StagePersisted VideoStage = "persisted"
	StageFailed    VideoStage = "failed"
)

// StageObserver 每次状态迁移时回调，detail 为该阶段的附加信息（URL、错误信息等）
type StageObserver func(stage VideoStage, detail string)

type VideoResult struct {
	VideoURL string
	VideoID  string
	Cached   bool
	Stage    VideoStage
}

// VideoCompositor 下载音频、调用渲染进程、上传并记录视频
type VideoCompositor struct {
	store      Store
	renderer   RenderRunner
	objects    ObjectStore
	httpClient *http.Client
	bucket     string
	scratchDir string
	log        *logger.Logger
}

func NewVideoCompositor(store Store, renderer RenderRunner, objects ObjectStore, httpClient *http.Client, bucket, scratchDir string, log *logger.Logger) *VideoCompositor {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 5 * time.Minute}
	}
	return &VideoCompositor{
		store:      store,
		renderer:   renderer,
		objects:    objects,
		httpClient: httpClient,
		bucket:     bucket,
		scratchDir: scratchDir,
		log:        log.With("service", "VideoCompositor"),
	}
}

// Compose NoVideo -> Rendering -> Uploaded -> Persisted；已有视频时直接返回 Cached。
// 任一步失败进入 Failed，不做局部重试。
func (v *VideoCompositor) Compose(ctx context.Context, promptID string, observe StageObserver) (res *VideoResult, err error) {
	if observe == nil {
		observe = func(VideoStage, string) {}
	}
	if promptID == "" {
		return nil, newError(KindValidation, "Prompt ID is required", nil)
	}

	existing, err := v.store.LatestVideoForPrompt(ctx, promptID)
	if err != nil {
		return nil, newError(KindInternal, "Failed to generate video", err).withDetails()
	}
	if existing != nil {
		v.log.Info("Video already exists", "prompt_id", promptID, "video_id", existing.ID)
		observe(StageCached, existing.VideoURL)
		return &VideoResult{VideoURL: existing.VideoURL, VideoID: existing.ID, Cached: true, Stage: StageCached}, nil
	}

	defer func() {
		if err != nil {
			observe(StageFailed, err.Error())
		}
	}()

	script, err := v.store.LatestScript(ctx, promptID)
	if err != nil {
		return nil, newError(KindInternal, "Failed to generate video", err).withDetails()
	}
	if script == nil {
		return nil, newError(KindNotFound, "Script not found for the given prompt ID", nil)
	}
	audio, err := v.store.LatestAudio(ctx, script.ID)
	if err != nil {
		return nil, newError(KindInternal, "Failed to generate video", err).withDetails()
	}
	if audio == nil {
		return nil, newError(KindNotFound, "Audio not found for the script", nil)
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, []byte(script.ScriptText), "", "  "); err != nil {
		return nil, newError(KindParse, "Invalid script format", err).withDetails().withStatus(http.StatusBadRequest)
	}

	scratch := NewScratch(v.scratchDir, v.log)
	defer scratch.Cleanup()

	audioPath, err := v.downloadAudio(ctx, scratch, promptID, audio.AudioURL)
	if err != nil {
		return nil, newError(KindUpload, "Failed to download audio file", err).withDetails()
	}
	scriptPath, err := scratch.Write(fmt.Sprintf("script-%s.json", promptID), pretty.Bytes())
	if err != nil {
		return nil, newError(KindInternal, "Failed to generate video", err).withDetails()
	}
	outputPath := scratch.Path(fmt.Sprintf("video-%s.mp4", promptID))

	observe(StageRendering, "")
	v.log.Info("Rendering video", "prompt_id", promptID, "script_id", script.ID, "audio_id", audio.ID)
	if _, err := v.renderer.Render(ctx, RenderRequest{
		ScriptPath: scriptPath,
		AudioPath:  audioPath,
		OutputPath: outputPath,
	}); err != nil {
		e := AsError(err, "Failed to generate video with render process")
		if e.Kind == KindInternal {
			e.Kind = KindRender
		}
		return nil, e.withDetails()
	}

	data, err := os.ReadFile(outputPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, newError(KindRender, "Video file was not created", nil)
		}
		return nil, newError(KindRender, "Video file was not created", err).withDetails()
	}

	key := fmt.Sprintf("video_%s_%d.mp4", promptID, time.Now().UnixMilli())
	url, err := v.objects.Upload(ctx, v.bucket, key, data, "video/mp4")
	if err != nil {
		v.log.Error("Video upload failed", "prompt_id", promptID, "key", key, "error", err)
		return nil, newError(KindUpload, "Failed to upload video file", err).withDetails()
	}
	observe(StageUploaded, url)

	saved, err := v.store.SaveVideo(ctx, audio.ID, url)
	if err != nil {
		return nil, newError(KindInternal, "Failed to generate video", err).withDetails()
	}
	observe(StagePersisted, saved.ID)
	v.log.Info("Video saved", "prompt_id", promptID, "video_id", saved.ID, "url", url)

	return &VideoResult{VideoURL: url, VideoID: saved.ID, Stage: StagePersisted}, nil
}

func (v *VideoCompositor) downloadAudio(ctx context.Context, scratch *Scratch, promptID, audioURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, audioURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := v.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("download audio: status %d", resp.StatusCode)
	}

	path := scratch.Path(fmt.Sprintf("render-audio-%s.mp3", promptID))
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		return "", err
	}
	return path, f.Close()
}
