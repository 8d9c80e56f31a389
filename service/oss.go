package service

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"mathvideo-server/config"
	"mathvideo-server/logger"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ObjectStore 上传字节并返回公开访问 URL
type ObjectStore interface {
	Upload(ctx context.Context, bucket, key string, data []byte, contentType string) (string, error)
}

type MinioStore struct {
	client   *minio.Client
	endpoint string
	useSSL   bool
	domain   string
	log      *logger.Logger

	mu    sync.Mutex
	ready map[string]bool
}

// NewMinioStore 初始化连接，在 main.go 中调用
func NewMinioStore(cfg config.MinIOConfig, log *logger.Logger) (*MinioStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("MinIO 初始化失败: %w", err)
	}
	return &MinioStore{
		client:   client,
		endpoint: cfg.Endpoint,
		useSSL:   cfg.UseSSL,
		domain:   cfg.Domain,
		log:      log.With("service", "MinioStore"),
		ready:    make(map[string]bool),
	}, nil
}

// Upload 同名对象直接覆盖
func (m *MinioStore) Upload(ctx context.Context, bucket, key string, data []byte, contentType string) (string, error) {
	if err := m.ensureBucket(ctx, bucket); err != nil {
		return "", err
	}
	if contentType == "" {
		contentType = ContentTypeFor(key)
	}
	_, err := m.client.PutObject(ctx, bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("上传到 MinIO 失败: %w", err)
	}
	m.log.Info("文件已上传", "bucket", bucket, "key", key, "bytes", len(data))
	return m.PublicURL(bucket, key), nil
}

// ensureBucket 自动创建 Bucket 并开放匿名读，保证返回的 URL 可直接访问
func (m *MinioStore) ensureBucket(ctx context.Context, bucket string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ready[bucket] {
		return nil
	}

	exists, err := m.client.BucketExists(ctx, bucket)
	if err != nil {
		return fmt.Errorf("检查 Bucket 失败: %w", err)
	}
	if !exists {
		if err := m.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("创建 Bucket 失败: %w", err)
		}
		if err := m.client.SetBucketPolicy(ctx, bucket, publicReadPolicy(bucket)); err != nil {
			return fmt.Errorf("设置 Bucket 策略失败: %w", err)
		}
		m.log.Info("Bucket 已创建", "bucket", bucket)
	}
	m.ready[bucket] = true
	return nil
}

func (m *MinioStore) PublicURL(bucket, key string) string {
	base := strings.TrimRight(m.domain, "/")
	if base == "" {
		scheme := "http"
		if m.useSSL {
			scheme = "https"
		}
		base = scheme + "://" + m.endpoint
	}
	return base + "/" + bucket + "/" + key
}

func publicReadPolicy(bucket string) string {
	return fmt.Sprintf(`{"Version":"2012-10-17","Statement":[{"Effect":"Allow","Principal":{"AWS":["*"]},"Action":["s3:GetObject"],"Resource":["arn:aws:s3:::%s/*"]}]}`, bucket)
}

// ContentTypeFor 根据文件扩展名确定 ContentType
func ContentTypeFor(objectName string) string {
	switch strings.ToLower(filepath.Ext(objectName)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".mp4":
		return "video/mp4"
	case ".mp3":
		return "audio/mpeg"
	case ".wav":
		return "audio/wav"
	case ".json":
		return "application/json"
	default:
		return "application/octet-stream"
	}
}
