package service

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"mathvideo-server/config"
	"mathvideo-server/logger"
)

// shRenderer 用 sh -c 模拟渲染脚本；$0 为 "render"，后续参数为 --json/--output/--audio
func shRenderer(t *testing.T, script string, timeout time.Duration) *ProcessRenderer {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	return NewProcessRenderer(config.RenderConfig{
		Command: "sh",
		Args:    []string{"-c", script, "render"},
		Timeout: timeout,
	}, logger.NewNop())
}

func TestProcessRendererWritesOutput(t *testing.T) {
	dir := t.TempDir()
	// 参数位置：$1=--json $2=script $3=--output $4=out $5=--audio $6=audio
	r := shRenderer(t, `echo "rendering $2"; printf video > "$4"`, 10*time.Second)

	req := RenderRequest{
		ScriptPath: filepath.Join(dir, "script.json"),
		AudioPath:  filepath.Join(dir, "audio.mp3"),
		OutputPath: filepath.Join(dir, "video.mp4"),
	}
	res, err := r.Render(context.Background(), req)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if res.ExitCode != 0 {
		t.Fatalf("exit code: want=0 got=%d", res.ExitCode)
	}
	if !strings.Contains(res.Stdout, "rendering "+req.ScriptPath) {
		t.Fatalf("stdout not captured: %q", res.Stdout)
	}
	data, err := os.ReadFile(req.OutputPath)
	if err != nil {
		t.Fatalf("output not written: %v", err)
	}
	if string(data) != "video" {
		t.Fatalf("output content: %q", data)
	}
}

func TestProcessRendererNonZeroExit(t *testing.T) {
	r := shRenderer(t, `echo "boom" >&2; exit 3`, 10*time.Second)

	res, err := r.Render(context.Background(), RenderRequest{ScriptPath: "s", AudioPath: "a", OutputPath: "o"})
	if err == nil {
		t.Fatalf("expected error")
	}
	if KindOf(err) != KindRender {
		t.Fatalf("kind: want=render got=%s", KindOf(err))
	}
	if res.ExitCode != 3 {
		t.Fatalf("exit code: want=3 got=%d", res.ExitCode)
	}
	if !strings.Contains(res.Stderr, "boom") {
		t.Fatalf("stderr not captured: %q", res.Stderr)
	}
}

func TestProcessRendererTimeout(t *testing.T) {
	r := shRenderer(t, `exec sleep 5`, 200*time.Millisecond)

	start := time.Now()
	_, err := r.Render(context.Background(), RenderRequest{ScriptPath: "s", AudioPath: "a", OutputPath: "o"})
	if err == nil {
		t.Fatalf("expected timeout error")
	}
	if KindOf(err) != KindRender {
		t.Fatalf("kind: want=render got=%s", KindOf(err))
	}
	if !strings.Contains(err.Error(), "timed out") {
		t.Fatalf("error should mention timeout: %v", err)
	}
	if time.Since(start) > 4*time.Second {
		t.Fatalf("process was not killed on timeout")
	}
}

func TestLineLoggerSplitsPartialWrites(t *testing.T) {
	l := newLineLogger(logger.NewNop(), "stdout")
	_, _ = l.Write([]byte("first li"))
	_, _ = l.Write([]byte("ne\nsecond"))
	l.Flush()
	if l.String() != "first line\nsecond" {
		t.Fatalf("buffer: %q", l.String())
	}
	if len(l.pending) != 0 {
		t.Fatalf("pending should be flushed")
	}
}
