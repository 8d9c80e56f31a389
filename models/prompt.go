package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Prompt 用户提交的视频主题
type Prompt struct {
	ID         string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	PromptText string    `gorm:"type:text" json:"prompt_text"`
	UserID     string    `gorm:"type:varchar(64);index" json:"user_id"`
	CreatedAt  time.Time `gorm:"precision:6" json:"created_at"`
}

func (Prompt) TableName() string {
	return "prompts"
}

func CreatePrompt(db *gorm.DB, p *Prompt) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	return db.Create(p).Error
}

// GetPromptByID 不存在时返回 (nil, nil)
func GetPromptByID(db *gorm.DB, id string) (*Prompt, error) {
	var rows []Prompt
	if err := db.Where("id = ?", id).Limit(1).Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}
