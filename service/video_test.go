package service

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"

	"mathvideo-server/logger"
	"mathvideo-server/models"
)

// fakeRenderer 记录调用次数，按需写出输出文件
type fakeRenderer struct {
	mu        sync.Mutex
	calls     int
	skipWrite bool
	err       error
	lastReq   RenderRequest
}

func (f *fakeRenderer) Render(_ context.Context, req RenderRequest) (*RenderResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.lastReq = req
	if f.err != nil {
		return &RenderResult{ExitCode: 1}, f.err
	}
	if !f.skipWrite {
		if err := os.WriteFile(req.OutputPath, []byte("mp4"), 0o644); err != nil {
			return nil, err
		}
	}
	return &RenderResult{ExitCode: 0}, nil
}

type videoFixture struct {
	comp     *VideoCompositor
	repo     *models.Repo
	renderer *fakeRenderer
	objects  *fakeObjects
	dir      string
	stages   []VideoStage
}

func newVideoFixture(t *testing.T, scriptText string) *videoFixture {
	t.Helper()
	audioSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/audio-files/p1.mp3" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte("mp3-bytes"))
	}))
	t.Cleanup(audioSrv.Close)

	f := &videoFixture{
		repo:     newTestRepo(t),
		renderer: &fakeRenderer{},
		objects:  &fakeObjects{},
		dir:      t.TempDir(),
	}
	ctx := context.Background()
	seedPrompt(t, f.repo, "p1", "pythagoras")
	if scriptText != "" {
		s := seedScript(t, f.repo, "p1", scriptText)
		if _, err := f.repo.SaveAudio(ctx, s.ID, audioSrv.URL+"/audio-files/p1.mp3"); err != nil {
			t.Fatalf("SaveAudio: %v", err)
		}
	}
	f.comp = NewVideoCompositor(f.repo, f.renderer, f.objects, audioSrv.Client(), "video-files", f.dir, logger.NewNop())
	return f
}

func (f *videoFixture) observe(stage VideoStage, _ string) {
	f.stages = append(f.stages, stage)
}

func TestComposeRendersThenCaches(t *testing.T) {
	f := newVideoFixture(t, `{"title":"Pythagoras","steps":[{"text":"a","math":"a^2"}]}`)
	ctx := context.Background()

	first, err := f.comp.Compose(ctx, "p1", f.observe)
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	if first.Cached {
		t.Fatalf("first call should not be cached")
	}
	if len(f.objects.uploads) != 1 {
		t.Fatalf("uploads: want=1 got=%d", len(f.objects.uploads))
	}
	up := f.objects.uploads[0]
	if up.bucket != "video-files" || !strings.HasPrefix(up.key, "video_p1_") || !strings.HasSuffix(up.key, ".mp4") {
		t.Fatalf("unexpected upload: %+v", up)
	}
	if up.contentType != "video/mp4" {
		t.Fatalf("content type: %q", up.contentType)
	}
	wantStages := []VideoStage{StageRendering, StageUploaded, StagePersisted}
	if strings.Join(stageNames(f.stages), ",") != strings.Join(stageNames(wantStages), ",") {
		t.Fatalf("stages: want=%v got=%v", wantStages, f.stages)
	}
	assertDirEmpty(t, f.dir)

	f.stages = nil
	second, err := f.comp.Compose(ctx, "p1", f.observe)
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	if !second.Cached || second.VideoURL != first.VideoURL || second.VideoID != first.VideoID {
		t.Fatalf("second call should return cached video: first=%+v second=%+v", first, second)
	}
	if f.renderer.calls != 1 {
		t.Fatalf("render calls: want=1 got=%d", f.renderer.calls)
	}
	if len(f.stages) != 1 || f.stages[0] != StageCached {
		t.Fatalf("stages: %v", f.stages)
	}
}

func TestComposeMissingRows(t *testing.T) {
	t.Run("script", func(t *testing.T) {
		f := newVideoFixture(t, "")
		_, err := f.comp.Compose(context.Background(), "p1", nil)
		if StatusOf(err) != http.StatusNotFound {
			t.Fatalf("want 404, got %v", err)
		}
	})
	t.Run("audio", func(t *testing.T) {
		f := newVideoFixture(t, "")
		seedScript(t, f.repo, "p1", `{"title":"T"}`)
		_, err := f.comp.Compose(context.Background(), "p1", nil)
		var e *Error
		if !errors.As(err, &e) || e.Status != http.StatusNotFound || e.Msg != "Audio not found for the script" {
			t.Fatalf("unexpected error: %v", err)
		}
	})
	t.Run("prompt id", func(t *testing.T) {
		f := newVideoFixture(t, "")
		_, err := f.comp.Compose(context.Background(), "", nil)
		if StatusOf(err) != http.StatusBadRequest {
			t.Fatalf("want 400, got %v", err)
		}
	})
}

func TestComposeInvalidScript(t *testing.T) {
	f := newVideoFixture(t, "plain narration, not json")
	_, err := f.comp.Compose(context.Background(), "p1", f.observe)
	if KindOf(err) != KindParse || StatusOf(err) != http.StatusBadRequest {
		t.Fatalf("want parse error with 400, got %v", err)
	}
	if f.renderer.calls != 0 {
		t.Fatalf("renderer should not run")
	}
	if len(f.stages) != 1 || f.stages[0] != StageFailed {
		t.Fatalf("stages: %v", f.stages)
	}
}

func TestComposeRenderFailures(t *testing.T) {
	t.Run("process error", func(t *testing.T) {
		f := newVideoFixture(t, `{"title":"T"}`)
		f.renderer.err = errors.New("exit status 1")
		_, err := f.comp.Compose(context.Background(), "p1", nil)
		if KindOf(err) != KindRender {
			t.Fatalf("want render error, got %v", err)
		}
		assertDirEmpty(t, f.dir)
	})
	t.Run("missing output", func(t *testing.T) {
		f := newVideoFixture(t, `{"title":"T"}`)
		f.renderer.skipWrite = true
		_, err := f.comp.Compose(context.Background(), "p1", nil)
		var e *Error
		if !errors.As(err, &e) || e.Kind != KindRender || e.Msg != "Video file was not created" {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(f.objects.uploads) != 0 {
			t.Fatalf("nothing should be uploaded")
		}
		assertDirEmpty(t, f.dir)
	})
	t.Run("upload", func(t *testing.T) {
		f := newVideoFixture(t, `{"title":"T"}`)
		f.objects.err = errors.New("bucket gone")
		_, err := f.comp.Compose(context.Background(), "p1", nil)
		if KindOf(err) != KindUpload {
			t.Fatalf("want upload error, got %v", err)
		}
		assertDirEmpty(t, f.dir)
	})
}

func TestComposeAudioDownloadFailure(t *testing.T) {
	f := newVideoFixture(t, "")
	s := seedScript(t, f.repo, "p1", `{"title":"T"}`)
	if _, err := f.repo.SaveAudio(context.Background(), s.ID, "http://127.0.0.1:1/missing.mp3"); err != nil {
		t.Fatalf("SaveAudio: %v", err)
	}
	_, err := f.comp.Compose(context.Background(), "p1", nil)
	var e *Error
	if !errors.As(err, &e) || e.Msg != "Failed to download audio file" {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.renderer.calls != 0 {
		t.Fatalf("renderer should not run")
	}
	assertDirEmpty(t, f.dir)
}

func TestComposeWritesPrettyScriptForRenderer(t *testing.T) {
	f := newVideoFixture(t, `{"title":"T","steps":[]}`)
	var seen string
	comp := f.comp
	comp.renderer = renderFunc(func(req RenderRequest) error {
		data, err := os.ReadFile(req.ScriptPath)
		if err != nil {
			return err
		}
		seen = string(data)
		return os.WriteFile(req.OutputPath, []byte("mp4"), 0o644)
	})
	if _, err := comp.Compose(context.Background(), "p1", nil); err != nil {
		t.Fatalf("Compose: %v", err)
	}
	if !strings.Contains(seen, "\n  \"title\": \"T\"") {
		t.Fatalf("script file not indented: %q", seen)
	}
}

type renderFunc func(req RenderRequest) error

func (fn renderFunc) Render(_ context.Context, req RenderRequest) (*RenderResult, error) {
	if err := fn(req); err != nil {
		return nil, err
	}
	return &RenderResult{}, nil
}

func stageNames(stages []VideoStage) []string {
	out := make([]string, len(stages))
	for i, s := range stages {
		out[i] = string(s)
	}
	return out
}
