package models

import (
	"context"

	"gorm.io/gorm"
)

// Repo 为流水线各阶段提供带 context 的行读写
type Repo struct {
	DB *gorm.DB
}

func NewRepo(db *gorm.DB) *Repo {
	return &Repo{DB: db}
}

func (r *Repo) CreatePrompt(ctx context.Context, p *Prompt) error {
	return CreatePrompt(r.DB.WithContext(ctx), p)
}

func (r *Repo) GetPrompt(ctx context.Context, id string) (*Prompt, error) {
	return GetPromptByID(r.DB.WithContext(ctx), id)
}

func (r *Repo) SaveScript(ctx context.Context, promptID, scriptText string) (*Script, error) {
	return CreateScript(r.DB.WithContext(ctx), promptID, scriptText)
}

func (r *Repo) LatestScript(ctx context.Context, promptID string) (*Script, error) {
	return GetLatestScriptByPromptID(r.DB.WithContext(ctx), promptID)
}

func (r *Repo) SaveAudio(ctx context.Context, scriptID, audioURL string) (*Audio, error) {
	return CreateAudio(r.DB.WithContext(ctx), scriptID, audioURL)
}

func (r *Repo) LatestAudio(ctx context.Context, scriptID string) (*Audio, error) {
	return GetLatestAudioByScriptID(r.DB.WithContext(ctx), scriptID)
}

func (r *Repo) SaveVideo(ctx context.Context, audioID, videoURL string) (*Video, error) {
	return CreateVideo(r.DB.WithContext(ctx), audioID, videoURL)
}

func (r *Repo) LatestVideoForPrompt(ctx context.Context, promptID string) (*Video, error) {
	return GetLatestVideoByPromptID(r.DB.WithContext(ctx), promptID)
}

func (r *Repo) UserVideos(ctx context.Context, userID string) ([]UserVideo, error) {
	return ListVideosByUserID(r.DB.WithContext(ctx), userID)
}
