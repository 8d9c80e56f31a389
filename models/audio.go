package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Audio struct {
	ID        string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	ScriptID  string    `gorm:"type:varchar(64);index" json:"script_id"`
	AudioURL  string    `gorm:"type:text" json:"audio_url"`
	CreatedAt time.Time `gorm:"precision:6;index" json:"created_at"`
}

func (Audio) TableName() string {
	return "audios"
}

func CreateAudio(db *gorm.DB, scriptID, audioURL string) (*Audio, error) {
	a := &Audio{
		ID:        uuid.NewString(),
		ScriptID:  scriptID,
		AudioURL:  audioURL,
		CreatedAt: time.Now(),
	}
	if err := db.Create(a).Error; err != nil {
		return nil, err
	}
	return a, nil
}

func GetLatestAudioByScriptID(db *gorm.DB, scriptID string) (*Audio, error) {
	var rows []Audio
	err := db.Where("script_id = ?", scriptID).
		Order("created_at DESC").
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
