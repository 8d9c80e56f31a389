package service

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// DefaultMaxChunkBytes 单次 TTS 请求上限 5000 字节，留出余量
const DefaultMaxChunkBytes = 4500

// MinNarrationChars 清洗后少于该长度视为没有可用旁白
const MinNarrationChars = 10

var (
	escapedControlRe = regexp.MustCompile(`\\[nrt]`)
	slashRe          = regexp.MustCompile(`[\\/]+`)
	jsonSyntaxRe     = regexp.MustCompile(`[{}\[\]"]`)
	whitespaceRe     = regexp.MustCompile(`[\s\v\p{Z}\x{FEFF}]+`)
	repeatedDotsRe   = regexp.MustCompile(`\.{2,}`)
	repeatedPunctRe  = regexp.MustCompile(`[,;:]{2,}`)
	sentenceEndRe    = regexp.MustCompile(`[.!?]+[\s\v\p{Z}\x{FEFF}]+`)
)

// CleanNarration 去掉 TTS 会读出来的转义符、斜杠和 JSON 符号。顺序不可调换。
func CleanNarration(text string) string {
	text = escapedControlRe.ReplaceAllString(text, " ")
	text = slashRe.ReplaceAllString(text, "")
	text = jsonSyntaxRe.ReplaceAllString(text, "")
	text = whitespaceRe.ReplaceAllString(text, " ")
	text = repeatedDotsRe.ReplaceAllString(text, ".")
	text = repeatedPunctRe.ReplaceAllString(text, ",")
	return strings.TrimSpace(text)
}

// ValidNarration 按字符数（非字节）判断
func ValidNarration(text string) bool {
	return utf8.RuneCountInString(strings.TrimSpace(text)) >= MinNarrationChars
}

// SplitSentences 按 . ! ? 加空白（含 NBSP 等 Unicode 空白）切句，丢弃空句
func SplitSentences(text string) []string {
	raw := sentenceEndRe.Split(text, -1)
	out := make([]string, 0, len(raw))
	for _, s := range raw {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// SplitIntoChunks 文本不超过 maxBytes 时原样返回一块；否则按句贪心装箱，
// 句间以 ". " 连接。单句本身超限时保留整句，不再拆分。
func SplitIntoChunks(text string, maxBytes int) []string {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxChunkBytes
	}
	if len(text) <= maxBytes {
		return []string{text}
	}

	var chunks []string
	current := ""
	for _, sentence := range SplitSentences(text) {
		candidate := sentence
		if current != "" {
			candidate = current + ". " + sentence
		}
		if len(candidate) > maxBytes && current != "" {
			chunks = append(chunks, current)
			current = sentence
			continue
		}
		current = candidate
	}
	if current != "" {
		chunks = append(chunks, current)
	}
	return chunks
}
