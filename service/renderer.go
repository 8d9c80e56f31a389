package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
	"time"

	"mathvideo-server/config"
	"mathvideo-server/logger"
)

// RenderRequest 渲染进程的输入：脚本 JSON、音频、输出路径
type RenderRequest struct {
	ScriptPath string
	AudioPath  string
	OutputPath string
}

type RenderResult struct {
	ExitCode int
	Stdout   string
	Stderr   string
	Duration time.Duration
}

// RenderRunner 同步调用外部渲染进程，非零退出即失败
type RenderRunner interface {
	Render(ctx context.Context, req RenderRequest) (*RenderResult, error)
}

type ProcessRenderer struct {
	command string
	args    []string
	workDir string
	timeout time.Duration
	log     *logger.Logger
}

func NewProcessRenderer(cfg config.RenderConfig, log *logger.Logger) *ProcessRenderer {
	return &ProcessRenderer{
		command: cfg.Command,
		args:    append([]string(nil), cfg.Args...),
		workDir: cfg.WorkDir,
		timeout: cfg.Timeout,
		log:     log.With("service", "ProcessRenderer"),
	}
}

func (r *ProcessRenderer) argv(req RenderRequest) []string {
	args := append([]string(nil), r.args...)
	return append(args,
		"--json", req.ScriptPath,
		"--output", req.OutputPath,
		"--audio", req.AudioPath,
	)
}

// Render 超时或 ctx 取消时终止子进程
func (r *ProcessRenderer) Render(ctx context.Context, req RenderRequest) (*RenderResult, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	args := r.argv(req)
	cmd := exec.CommandContext(ctx, r.command, args...)
	cmd.Dir = r.workDir
	cmd.WaitDelay = 5 * time.Second

	stdout := newLineLogger(r.log, "stdout")
	stderr := newLineLogger(r.log, "stderr")
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	r.log.Info("Executing render process", "command", r.command, "args", strings.Join(args, " "))
	start := time.Now()
	runErr := cmd.Run()
	stdout.Flush()
	stderr.Flush()

	res := &RenderResult{
		ExitCode: -1,
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}
	if cmd.ProcessState != nil {
		res.ExitCode = cmd.ProcessState.ExitCode()
	}
	r.log.Info("Render process exited", "exit_code", res.ExitCode, "duration_ms", res.Duration.Milliseconds())

	if runErr != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return res, newError(KindRender, "Failed to generate video with render process",
				fmt.Errorf("render timed out after %s", r.timeout)).withDetails()
		}
		if ctx.Err() != nil {
			return res, newError(KindRender, "Failed to generate video with render process", ctx.Err()).withDetails()
		}
		r.log.Error("Render process failed", "stderr", preview(res.Stderr, 2000))
		return res, newError(KindRender, "Failed to generate video with render process", runErr).withDetails()
	}
	return res, nil
}

// lineLogger 逐行记录子进程输出，同时保留完整内容
type lineLogger struct {
	log    *logger.Logger
	stream string

	mu      sync.Mutex
	all     bytes.Buffer
	pending []byte
}

func newLineLogger(log *logger.Logger, stream string) *lineLogger {
	return &lineLogger{log: log, stream: stream}
}

func (l *lineLogger) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.all.Write(p)
	l.pending = append(l.pending, p...)
	for {
		i := bytes.IndexByte(l.pending, '\n')
		if i < 0 {
			break
		}
		l.emit(string(l.pending[:i]))
		l.pending = l.pending[i+1:]
	}
	return len(p), nil
}

func (l *lineLogger) Flush() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.pending) > 0 {
		l.emit(string(l.pending))
		l.pending = nil
	}
}

func (l *lineLogger) emit(line string) {
	line = strings.TrimRight(line, "\r")
	if line == "" {
		return
	}
	if l.stream == "stderr" {
		l.log.Warn("render output", "stream", l.stream, "line", line)
		return
	}
	l.log.Info("render output", "stream", l.stream, "line", line)
}

func (l *lineLogger) String() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.all.String()
}

var _ io.Writer = (*lineLogger)(nil)

