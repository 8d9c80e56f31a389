package service

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"mathvideo-server/logger"
)

// Scratch 记录单次请求创建的临时文件，Cleanup 在所有退出路径上执行。
// 文件名按 promptId 区分，同一 prompt 的并发请求会共用路径。
type Scratch struct {
	dir string
	log *logger.Logger

	mu    sync.Mutex
	paths []string
}

func NewScratch(dir string, log *logger.Logger) *Scratch {
	if dir == "" {
		dir = os.TempDir()
	}
	return &Scratch{dir: dir, log: log}
}

// Path 返回临时文件路径并登记，必须在创建文件之前调用
func (s *Scratch) Path(name string) string {
	p := filepath.Join(s.dir, filepath.Base(name))
	s.mu.Lock()
	s.paths = append(s.paths, p)
	s.mu.Unlock()
	return p
}

// Write 登记并写入
func (s *Scratch) Write(name string, data []byte) (string, error) {
	p := s.Path(name)
	if err := os.WriteFile(p, data, 0o644); err != nil {
		return p, err
	}
	return p, nil
}

func (s *Scratch) Paths() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.paths...)
}

// Cleanup 尽力删除，失败只记日志
func (s *Scratch) Cleanup() {
	for _, p := range s.Paths() {
		if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			s.log.Warn("Failed to delete temporary file", "path", p, "error", err)
		}
	}
	s.mu.Lock()
	s.paths = nil
	s.mu.Unlock()
}
