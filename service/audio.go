package service

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"mathvideo-server/logger"
)

const noNarrationMsg = "No valid narration text found in script. Please ensure the script has a 'narration' field or proper text content."

type AudioResult struct {
	AudioURL string
	AudioID  string
}

// AudioSynthesizer 从脚本提取旁白，分块合成并拼接为一个 MP3 上传
type AudioSynthesizer struct {
	store         Store
	tts           SpeechClient
	objects       ObjectStore
	bucket        string
	scratchDir    string
	maxChunkBytes int
	log           *logger.Logger
}

func NewAudioSynthesizer(store Store, tts SpeechClient, objects ObjectStore, bucket, scratchDir string, maxChunkBytes int, log *logger.Logger) *AudioSynthesizer {
	if maxChunkBytes <= 0 {
		maxChunkBytes = DefaultMaxChunkBytes
	}
	return &AudioSynthesizer{
		store:         store,
		tts:           tts,
		objects:       objects,
		bucket:        bucket,
		scratchDir:    scratchDir,
		maxChunkBytes: maxChunkBytes,
		log:           log.With("service", "AudioSynthesizer"),
	}
}

func (a *AudioSynthesizer) Generate(ctx context.Context, promptID string) (*AudioResult, error) {
	if promptID == "" {
		return nil, newError(KindValidation, "Prompt ID is required", nil)
	}
	if a.tts == nil {
		return nil, newError(KindInternal, "Text-to-Speech service not available", nil)
	}

	script, err := a.store.LatestScript(ctx, promptID)
	if err != nil {
		return nil, newError(KindInternal, "Failed to generate audio", err).withDetails()
	}
	if script == nil {
		return nil, newError(KindNotFound, "Script not found for the given prompt ID", nil)
	}

	narration := ExtractNarration(script.ScriptText)
	text := CleanNarration(narration.Text)
	if !ValidNarration(text) {
		a.log.Warn("No usable narration", "prompt_id", promptID, "source", narration.Source.String())
		return nil, newError(KindValidation, noNarrationMsg, nil)
	}
	a.log.Info("Narration extracted", "prompt_id", promptID, "source", narration.Source.String(), "bytes", len(text))

	scratch := NewScratch(a.scratchDir, a.log)
	defer scratch.Cleanup()

	audio, err := a.synthesize(ctx, scratch, promptID, text)
	if err != nil {
		return nil, err
	}

	combined, err := scratch.Write(fmt.Sprintf("audio-%s.mp3", promptID), audio)
	if err != nil {
		return nil, newError(KindInternal, "Failed to generate audio", err).withDetails()
	}
	data, err := os.ReadFile(combined)
	if err != nil {
		return nil, newError(KindInternal, "Failed to generate audio", err).withDetails()
	}

	url, err := a.objects.Upload(ctx, a.bucket, promptID+".mp3", data, "audio/mpeg")
	if err != nil {
		a.log.Error("Audio upload failed", "prompt_id", promptID, "error", err)
		return nil, newError(KindUpload, "Failed to upload audio file", err).withDetails()
	}

	saved, err := a.store.SaveAudio(ctx, script.ID, url)
	if err != nil {
		return nil, newError(KindInternal, "Failed to generate audio", err).withDetails()
	}
	a.log.Info("Audio saved", "prompt_id", promptID, "audio_id", saved.ID, "url", url)
	return &AudioResult{AudioURL: url, AudioID: saved.ID}, nil
}

// synthesize 逐块顺序调用，前一块写盘并读回后才开始下一块
func (a *AudioSynthesizer) synthesize(ctx context.Context, scratch *Scratch, promptID, text string) ([]byte, error) {
	chunks := SplitIntoChunks(text, a.maxChunkBytes)
	a.log.Info("Synthesizing narration", "prompt_id", promptID, "chunks", len(chunks))

	var buf bytes.Buffer
	for i, chunk := range chunks {
		audio, err := a.tts.Synthesize(ctx, chunk)
		if err != nil {
			a.log.Error("Speech synthesis failed", "prompt_id", promptID, "chunk", i, "error", err)
			return nil, classifySpeechError(err)
		}
		p, err := scratch.Write(fmt.Sprintf("audio-chunk-%s-%d.mp3", promptID, i), audio)
		if err != nil {
			return nil, newError(KindInternal, "Failed to generate audio", err).withDetails()
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, newError(KindInternal, "Failed to generate audio", err).withDetails()
		}
		buf.Write(data)
	}
	return buf.Bytes(), nil
}
