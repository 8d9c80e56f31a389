package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Video struct {
	ID        string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	AudioID   string    `gorm:"type:varchar(64);index" json:"audio_id"`
	VideoURL  string    `gorm:"type:text" json:"video_url"`
	CreatedAt time.Time `gorm:"precision:6;index" json:"created_at"`
}

func (Video) TableName() string {
	return "videos"
}

// UserVideo 我的视频列表的一行
type UserVideo struct {
	VideoID    string    `json:"videoId"`
	VideoURL   string    `json:"videoUrl"`
	PromptID   string    `json:"promptId"`
	PromptText string    `json:"promptText"`
	CreatedAt  time.Time `json:"createdAt"`
}

func CreateVideo(db *gorm.DB, audioID, videoURL string) (*Video, error) {
	v := &Video{
		ID:        uuid.NewString(),
		AudioID:   audioID,
		VideoURL:  videoURL,
		CreatedAt: time.Now(),
	}
	if err := db.Create(v).Error; err != nil {
		return nil, err
	}
	return v, nil
}

// GetLatestVideoByPromptID 通过 video -> audio -> script -> prompt 链路查找，任一脚本/音频下的视频都算
func GetLatestVideoByPromptID(db *gorm.DB, promptID string) (*Video, error) {
	var rows []Video
	err := db.Model(&Video{}).
		Select("videos.*").
		Joins("JOIN audios ON audios.id = videos.audio_id").
		Joins("JOIN scripts ON scripts.id = audios.script_id").
		Where("scripts.prompt_id = ?", promptID).
		Order("videos.created_at DESC").
		Limit(1).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

func ListVideosByUserID(db *gorm.DB, userID string) ([]UserVideo, error) {
	var out []UserVideo
	err := db.Model(&Video{}).
		Select("videos.id AS video_id, videos.video_url AS video_url, prompts.id AS prompt_id, prompts.prompt_text AS prompt_text, videos.created_at AS created_at").
		Joins("JOIN audios ON audios.id = videos.audio_id").
		Joins("JOIN scripts ON scripts.id = audios.script_id").
		Joins("JOIN prompts ON prompts.id = scripts.prompt_id").
		Where("prompts.user_id = ?", userID).
		Order("videos.created_at DESC").
		Scan(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}
