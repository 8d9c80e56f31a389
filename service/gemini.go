package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"mathvideo-server/config"
	"mathvideo-server/logger"

	"google.golang.org/genai"
)

// TextGenerator 生成式文本服务：prompt 进，文本出
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

type GeminiClient struct {
	client *genai.Client
	model  string
	log    *logger.Logger
}

func NewGeminiClient(ctx context.Context, cfg config.GeminiConfig, log *logger.Logger) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	return &GeminiClient{
		client: client,
		model:  cfg.Model,
		log:    log.With("service", "GeminiClient"),
	}, nil
}

// GenerateText 取第一个候选的第一段文本；没有候选视为生成失败
func (g *GeminiClient) GenerateText(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
	if err != nil {
		return "", newError(KindGeneration, "Failed to generate script", err).withDetails()
	}
	if resp == nil || len(resp.Candidates) == 0 {
		return "", newError(KindGeneration, "Failed to generate script", errors.New("no response received")).withDetails()
	}

	cand := resp.Candidates[0]
	if cand.Content == nil || len(cand.Content.Parts) == 0 || cand.Content.Parts[0] == nil {
		g.log.Warn("Gemini candidate has no text part", "model", g.model, "finish_reason", cand.FinishReason)
		return "", nil
	}
	text := cand.Content.Parts[0].Text
	g.log.Debug("Gemini response", "model", g.model, "chars", len(text), "preview", preview(text, 200))
	return text, nil
}

func preview(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
