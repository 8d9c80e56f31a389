package service

import (
	"encoding/json"
	"fmt"
	"strings"
)

// NarrationSource 标记旁白取自哪一代脚本结构
type NarrationSource int

const (
	SourceFullNarration NarrationSource = iota
	SourceLegacyNarration
	SourceSections
	SourceTTSFullScript
	SourceTTSSegments
	SourceRemotionScenes
	SourceScenes
	SourceSteps
	SourcePlainText
)

func (s NarrationSource) String() string {
	switch s {
	case SourceFullNarration:
		return "fullNarration"
	case SourceLegacyNarration:
		return "narration"
	case SourceSections:
		return "sections"
	case SourceTTSFullScript:
		return "ttsNarration.fullScript"
	case SourceTTSSegments:
		return "ttsNarration.segments"
	case SourceRemotionScenes:
		return "remotionScript.scenes"
	case SourceScenes:
		return "scenes"
	case SourceSteps:
		return "steps"
	default:
		return "plain_text"
	}
}

type Narration struct {
	Source NarrationSource
	Text   string
}

type scriptDoc map[string]any

type narrationRule struct {
	source  NarrationSource
	extract func(doc scriptDoc) (string, bool)
}

// 顺序即优先级，先命中者生效
var narrationRules = []narrationRule{
	{SourceFullNarration, func(d scriptDoc) (string, bool) { return nonEmptyString(d["fullNarration"]) }},
	{SourceLegacyNarration, func(d scriptDoc) (string, bool) { return nonEmptyString(d["narration"]) }},
	{SourceSections, func(d scriptDoc) (string, bool) {
		items, ok := d["sections"].([]any)
		if !ok {
			return "", false
		}
		parts := make([]string, 0, len(items))
		for _, item := range items {
			if s := fieldText(item, "narration"); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, " "), true
	}},
	{SourceTTSFullScript, func(d scriptDoc) (string, bool) {
		tts, ok := d["ttsNarration"].(map[string]any)
		if !ok {
			return "", false
		}
		return nonEmptyString(tts["fullScript"])
	}},
	{SourceTTSSegments, func(d scriptDoc) (string, bool) {
		tts, ok := d["ttsNarration"].(map[string]any)
		if !ok {
			return "", false
		}
		return joinTexts(tts["segments"], false)
	}},
	{SourceRemotionScenes, func(d scriptDoc) (string, bool) {
		rs, ok := d["remotionScript"].(map[string]any)
		if !ok {
			return "", false
		}
		return joinTexts(rs["scenes"], false)
	}},
	{SourceScenes, func(d scriptDoc) (string, bool) { return joinTexts(d["scenes"], false) }},
	{SourceSteps, func(d scriptDoc) (string, bool) { return joinTexts(d["steps"], true) }},
}

// ExtractNarration 从持久化的脚本文本中取出一段完整旁白。
// 非 JSON 或没有任何已知结构时原样当作纯文本。
func ExtractNarration(scriptText string) Narration {
	var raw any
	if err := json.Unmarshal([]byte(scriptText), &raw); err != nil {
		return Narration{Source: SourcePlainText, Text: scriptText}
	}
	doc, ok := raw.(map[string]any)
	if !ok {
		return Narration{Source: SourcePlainText, Text: scriptText}
	}
	for _, rule := range narrationRules {
		if text, ok := rule.extract(doc); ok {
			return Narration{Source: rule.source, Text: text}
		}
	}
	return Narration{Source: SourcePlainText, Text: scriptText}
}

func nonEmptyString(v any) (string, bool) {
	s, ok := v.(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}

// joinTexts 取数组元素的 text 字段，以 ". " 连接
func joinTexts(v any, skipBlank bool) (string, bool) {
	items, ok := v.([]any)
	if !ok {
		return "", false
	}
	parts := make([]string, 0, len(items))
	for _, item := range items {
		s := fieldText(item, "text")
		if skipBlank && strings.TrimSpace(s) == "" {
			continue
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, ". "), true
}

func fieldText(item any, key string) string {
	obj, ok := item.(map[string]any)
	if !ok {
		return ""
	}
	switch v := obj[key].(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}
