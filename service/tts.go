package service

import (
	"context"
	"fmt"
	"os"
	"strings"

	"mathvideo-server/config"
	"mathvideo-server/logger"

	texttospeech "cloud.google.com/go/texttospeech/apiv1"
	"cloud.google.com/go/texttospeech/apiv1/texttospeechpb"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const authFailedMsg = "Google Cloud authentication failed. Please check your service account credentials."

// SpeechClient 文本转语音：一段文本进，一段 MP3 字节出
type SpeechClient interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

type GoogleTTS struct {
	client       *texttospeech.Client
	languageCode string
	voiceName    string
	log          *logger.Logger
}

// NewGoogleTTS 优先使用凭据文件，文件不存在时退回 ADC；都失败则作为启动错误返回
func NewGoogleTTS(ctx context.Context, cfg config.TTSConfig, log *logger.Logger) (*GoogleTTS, error) {
	slog := log.With("service", "GoogleTTS")

	var opts []option.ClientOption
	if creds := strings.TrimSpace(cfg.CredentialsFile); creds != "" {
		if _, err := os.Stat(creds); err == nil {
			opts = append(opts, option.WithCredentialsFile(creds))
			slog.Info("Using credentials file", "path", creds)
		} else {
			slog.Warn("Credentials file not found, falling back to application default credentials", "path", creds)
		}
	}

	client, err := texttospeech.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("texttospeech client: %w", err)
	}
	return &GoogleTTS{
		client:       client,
		languageCode: cfg.LanguageCode,
		voiceName:    cfg.VoiceName,
		log:          slog,
	}, nil
}

func (g *GoogleTTS) Synthesize(ctx context.Context, text string) ([]byte, error) {
	resp, err := g.client.SynthesizeSpeech(ctx, &texttospeechpb.SynthesizeSpeechRequest{
		Input: &texttospeechpb.SynthesisInput{
			InputSource: &texttospeechpb.SynthesisInput_Text{Text: text},
		},
		Voice: &texttospeechpb.VoiceSelectionParams{
			LanguageCode: g.languageCode,
			Name:         g.voiceName,
		},
		AudioConfig: &texttospeechpb.AudioConfig{
			AudioEncoding: texttospeechpb.AudioEncoding_MP3,
		},
	})
	if err != nil {
		return nil, err
	}
	return resp.GetAudioContent(), nil
}

func (g *GoogleTTS) Close() error {
	if g == nil || g.client == nil {
		return nil
	}
	return g.client.Close()
}

// classifySpeechError Unauthenticated (gRPC code 16) 单独报告，其余统一为合成失败
func classifySpeechError(err error) *Error {
	if status.Code(err) == codes.Unauthenticated {
		return newError(KindAuth, authFailedMsg, err)
	}
	return newError(KindSynthesis, "Failed to generate audio", err)
}
