package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Script 由脚本生成阶段写入；ScriptText 为序列化后的 JSON（历史上有多种结构）
type Script struct {
	ID         string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	PromptID   string    `gorm:"type:varchar(64);index" json:"prompt_id"`
	ScriptText string    `gorm:"type:longtext" json:"script_text"`
	CreatedAt  time.Time `gorm:"precision:6;index" json:"created_at"`
}

func (Script) TableName() string {
	return "scripts"
}

func CreateScript(db *gorm.DB, promptID, scriptText string) (*Script, error) {
	s := &Script{
		ID:         uuid.NewString(),
		PromptID:   promptID,
		ScriptText: scriptText,
		CreatedAt:  time.Now(),
	}
	if err := db.Create(s).Error; err != nil {
		return nil, err
	}
	return s, nil
}

// GetLatestScriptByPromptID 同一 prompt 可能有多条脚本，取最新一条
func GetLatestScriptByPromptID(db *gorm.DB, promptID string) (*Script, error) {
	var rows []Script
	err := db.Where("prompt_id = ?", promptID).
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
