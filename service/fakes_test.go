package service

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"mathvideo-server/models"
)

func newTestRepo(t *testing.T) *models.Repo {
	t.Helper()
	db, err := models.Open("sqlite:"+filepath.Join(t.TempDir(), "test.db"), 0, 0)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := models.Migrate(db); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	return models.NewRepo(db)
}

func seedPrompt(t *testing.T, repo *models.Repo, id, text string) {
	t.Helper()
	if err := repo.CreatePrompt(context.Background(), &models.Prompt{ID: id, PromptText: text, UserID: "u1"}); err != nil {
		t.Fatalf("CreatePrompt: %v", err)
	}
}

func seedScript(t *testing.T, repo *models.Repo, promptID, text string) *models.Script {
	t.Helper()
	s, err := repo.SaveScript(context.Background(), promptID, text)
	if err != nil {
		t.Fatalf("SaveScript: %v", err)
	}
	return s
}

type fakeLLM struct {
	text string
	err  error
	got  []string
}

func (f *fakeLLM) GenerateText(_ context.Context, prompt string) (string, error) {
	f.got = append(f.got, prompt)
	return f.text, f.err
}

// fakeTTS 每块返回 "[text]"，便于断言拼接顺序
type fakeTTS struct {
	mu     sync.Mutex
	chunks []string
	err    error
}

func (f *fakeTTS) Synthesize(_ context.Context, text string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.chunks = append(f.chunks, text)
	return []byte("[" + text + "]"), nil
}

type upload struct {
	bucket, key, contentType string
	data                    []byte
}

type fakeObjects struct {
	mu      sync.Mutex
	uploads []upload
	err     error
}

func (f *fakeObjects) Upload(_ context.Context, bucket, key string, data []byte, contentType string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.uploads = append(f.uploads, upload{bucket: bucket, key: key, contentType: contentType, data: append([]byte(nil), data...)})
	return "http://objects.test/" + bucket + "/" + key, nil
}
