package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

const DefaultPath = "config/config.yaml"

type Config struct {
	Server struct {
		Port        string `yaml:"port"`
		Mode        string `yaml:"mode"`
		FrontendURL string `yaml:"frontend_url"`
		ScratchDir  string `yaml:"scratch_dir"`
	} `yaml:"server"`
	MySQL struct {
		// 以 "sqlite:" 开头的 DSN 使用本地 sqlite 文件，便于开发调试
		DSN          string `yaml:"dsn"`
		MaxOpenConns int    `yaml:"max_open_conns"`
		MaxIdleConns int    `yaml:"max_idle_conns"`
	} `yaml:"mysql"`
	Gemini GeminiConfig `yaml:"gemini"`
	TTS    TTSConfig    `yaml:"tts"`
	MinIO  MinIOConfig  `yaml:"minio"`
	Render RenderConfig `yaml:"render"`
	Log    struct {
		Mode string `yaml:"mode"`
	} `yaml:"log"`
}

type GeminiConfig struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"`
}

type TTSConfig struct {
	CredentialsFile string `yaml:"credentials_file"`
	LanguageCode    string `yaml:"language_code"`
	VoiceName       string `yaml:"voice_name"`
	MaxChunkBytes   int    `yaml:"max_chunk_bytes"`
}

type MinIOConfig struct {
	Endpoint    string `yaml:"endpoint"`
	AccessKey   string `yaml:"access_key"`
	SecretKey   string `yaml:"secret_key"`
	UseSSL      bool   `yaml:"use_ssl"`
	Domain      string `yaml:"domain"`
	AudioBucket string `yaml:"audio_bucket"`
	VideoBucket string `yaml:"video_bucket"`
}

// RenderConfig 描述外部渲染进程：Command Args... --json <p> --output <p> --audio <p>
type RenderConfig struct {
	Command string        `yaml:"command"`
	Args    []string      `yaml:"args"`
	WorkDir string        `yaml:"work_dir"`
	Timeout time.Duration `yaml:"timeout"`
}

// Load 读取 yaml 配置文件，叠加 .env / 环境变量后校验
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath
	}
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	cfg := &Config{}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("配置文件读取失败: %w", err)
	}
	defer f.Close()
	if err := yaml.NewDecoder(f).Decode(cfg); err != nil {
		return nil, fmt.Errorf("配置文件解析失败: %w", err)
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	override := func(dst *string, name string) {
		if v := strings.TrimSpace(os.Getenv(name)); v != "" {
			*dst = v
		}
	}
	override(&c.MySQL.DSN, "MYSQL_DSN")
	override(&c.Gemini.APIKey, "GEMINI_API_KEY")
	override(&c.TTS.CredentialsFile, "GOOGLE_APPLICATION_CREDENTIALS")
	override(&c.MinIO.AccessKey, "MINIO_ACCESS_KEY")
	override(&c.MinIO.SecretKey, "MINIO_SECRET_KEY")
	if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
		c.Server.Port = ":" + strings.TrimPrefix(port, ":")
	}
}

func (c *Config) applyDefaults() {
	if c.Server.Port == "" {
		c.Server.Port = ":8080"
	}
	if c.Server.Mode == "" {
		c.Server.Mode = "debug"
	}
	if c.Server.ScratchDir == "" {
		c.Server.ScratchDir = os.TempDir()
	}
	if c.MySQL.MaxOpenConns == 0 {
		c.MySQL.MaxOpenConns = 25
	}
	if c.MySQL.MaxIdleConns == 0 {
		c.MySQL.MaxIdleConns = 5
	}
	if c.Gemini.Model == "" {
		c.Gemini.Model = "gemini-2.0-flash"
	}
	if c.TTS.LanguageCode == "" {
		c.TTS.LanguageCode = "en-IN"
	}
	if c.TTS.VoiceName == "" {
		c.TTS.VoiceName = "en-IN-Chirp3-HD-Achernar"
	}
	if c.TTS.MaxChunkBytes == 0 {
		c.TTS.MaxChunkBytes = 4500
	}
	if c.MinIO.AudioBucket == "" {
		c.MinIO.AudioBucket = "audio-files"
	}
	if c.MinIO.VideoBucket == "" {
		c.MinIO.VideoBucket = "video-files"
	}
	if c.Render.Command == "" {
		c.Render.Command = "python"
		if len(c.Render.Args) == 0 {
			c.Render.Args = []string{"manim_renderer/manim_generator.py"}
		}
	}
	if c.Render.Timeout == 0 {
		c.Render.Timeout = 15 * time.Minute
	}
	if c.Log.Mode == "" {
		c.Log.Mode = "dev"
	}
}

// Validate 启动时检查必填项，缺失即视为配置错误
func (c *Config) Validate() error {
	var errs []error
	if c.MySQL.DSN == "" {
		errs = append(errs, errors.New("mysql.dsn is required"))
	}
	if c.Gemini.APIKey == "" {
		errs = append(errs, errors.New("gemini.api_key is required (or GEMINI_API_KEY)"))
	}
	if c.MinIO.Endpoint == "" {
		errs = append(errs, errors.New("minio.endpoint is required"))
	}
	if c.TTS.MaxChunkBytes < 0 || c.TTS.MaxChunkBytes > 5000 {
		errs = append(errs, fmt.Errorf("tts.max_chunk_bytes must be within (0, 5000], got %d", c.TTS.MaxChunkBytes))
	}
	if c.Render.Timeout < 0 {
		errs = append(errs, errors.New("render.timeout must be positive"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}
