package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"mathvideo-server/logger"
	"mathvideo-server/models"
)

const scriptPromptTemplate = `
You are a math video generation assistant.
Given a user prompt "%s", generate a JSON with the following structure:

{
  "title": "SceneTitleNoSpaces",
  "steps": [
    {
      "text": "Brief explanation text",
      "math": "LaTeX math expression"
    }
  ],
  "narration": "Full 2-3 minute educational narration script that explains the concept thoroughly, suitable for voice-over"
}

IMPORTANT REQUIREMENTS:
- title: Use PascalCase, no spaces or special characters (suitable as Python class name)
- steps: Array of objects with "text" and "math" fields
- math: LaTeX expressions compatible with Manim (use double backslashes for LaTeX commands)
- narration: Complete educational script (200-400 words) that thoroughly explains the concept

Output ONLY valid JSON. No explanations or markdown.
Ensure the "narration" field contains the full educational content.
Make narration engaging, clear, and beginner-friendly.
`

// Store 流水线依赖的持久化操作，models.Repo 实现
type Store interface {
	GetPrompt(ctx context.Context, id string) (*models.Prompt, error)
	SaveScript(ctx context.Context, promptID, scriptText string) (*models.Script, error)
	LatestScript(ctx context.Context, promptID string) (*models.Script, error)
	SaveAudio(ctx context.Context, scriptID, audioURL string) (*models.Audio, error)
	LatestAudio(ctx context.Context, scriptID string) (*models.Audio, error)
	SaveVideo(ctx context.Context, audioID, videoURL string) (*models.Video, error)
	LatestVideoForPrompt(ctx context.Context, promptID string) (*models.Video, error)
}

// ScriptFallback 模型输出无法解析为 JSON 时保存的结构
type ScriptFallback struct {
	Error   string `json:"error"`
	RawText string `json:"rawText"`
	Format  string `json:"format"`
}

type ScriptResult struct {
	Script json.RawMessage
	Saved  *models.Script
	Parsed bool
}

type ScriptGenerator struct {
	store Store
	llm   TextGenerator
	log   *logger.Logger
}

func NewScriptGenerator(store Store, llm TextGenerator, log *logger.Logger) *ScriptGenerator {
	return &ScriptGenerator{store: store, llm: llm, log: log.With("service", "ScriptGenerator")}
}

func BuildScriptPrompt(promptText string) string {
	return fmt.Sprintf(scriptPromptTemplate, promptText)
}

// Generate 调用模型生成脚本并写入 scripts 表
func (g *ScriptGenerator) Generate(ctx context.Context, promptID string) (*ScriptResult, error) {
	if promptID == "" {
		return nil, newError(KindValidation, "Missing promptId", nil)
	}

	prompt, err := g.store.GetPrompt(ctx, promptID)
	if err != nil {
		return nil, newError(KindInternal, "Internal Server Error", err).withDetails()
	}
	if prompt == nil {
		return nil, newError(KindNotFound, "Prompt not found", nil)
	}
	g.log.Info("Generating script", "prompt_id", promptID)

	raw, err := g.llm.GenerateText(ctx, BuildScriptPrompt(prompt.PromptText))
	if err != nil {
		e := AsError(err, "Failed to generate script")
		if e.Kind == KindInternal {
			e.Kind = KindGeneration
		}
		return nil, e.withDetails()
	}

	script, parsed := ParseScriptResponse(raw)
	if !parsed {
		g.log.Warn("Script response is not valid JSON, saving fallback", "prompt_id", promptID, "preview", preview(raw, 200))
	}

	saved, err := g.store.SaveScript(ctx, promptID, string(script))
	if err != nil {
		return nil, newError(KindInternal, "Internal Server Error", err).withDetails()
	}
	g.log.Info("Script saved", "prompt_id", promptID, "script_id", saved.ID, "parsed", parsed)

	return &ScriptResult{Script: script, Saved: saved, Parsed: parsed}, nil
}

// ParseScriptResponse 去掉可选的 markdown 代码块后解析 JSON；
// 失败时返回 ScriptFallback 而不是报错，由调用方决定如何处理
func ParseScriptResponse(raw string) (json.RawMessage, bool) {
	cleaned := StripCodeFence(raw)
	var buf bytes.Buffer
	if cleaned != "" && json.Valid([]byte(cleaned)) {
		if err := json.Compact(&buf, []byte(cleaned)); err == nil {
			return json.RawMessage(buf.Bytes()), true
		}
	}
	fallback, _ := json.Marshal(ScriptFallback{
		Error:   "Failed to parse JSON response",
		RawText: raw,
		Format:  "text",
	})
	return fallback, false
}

func StripCodeFence(text string) string {
	text = strings.TrimSpace(text)
	switch {
	case strings.HasPrefix(text, "```json"):
		text = strings.TrimPrefix(text, "```json")
	case strings.HasPrefix(text, "```"):
		text = strings.TrimPrefix(text, "```")
	default:
		return text
	}
	text = strings.TrimSpace(text)
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}
