package utils

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
)

const colorReset = "\033[0m"

const (
	ColorCyan   = "\033[36m"
	ColorGreen  = "\033[32m"
	ColorYellow = "\033[33m"
)

// AuditLogger is a component-scoped logger: every entry goes to stdout
// (colored), to logs/<component>.log, and into a bounded in-memory ring
// that can be read back for diagnostics.
type AuditLogger struct {
	*log.Logger
	file  *os.File
	mu    sync.RWMutex
	buf   []string
	cap   int
	start int
	size  int
}

type colorWriter struct {
	w     io.Writer
	color string
}

func (cw colorWriter) Write(p []byte) (int, error) {
	if cw.color == "" {
		return cw.w.Write(p)
	}
	colored := append([]byte(cw.color), p...)
	colored = append(colored, []byte(colorReset)...)
	return cw.w.Write(colored)
}

func NewAuditLogger(component, color string, capacity int) (*AuditLogger, error) {
	if capacity <= 0 {
		capacity = 1
	}
	if err := os.MkdirAll("logs", 0o755); err != nil {
		return nil, err
	}
	file, err := os.OpenFile(filepath.Join("logs", fmt.Sprintf("%s.log", component)),
		os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	cw := colorWriter{w: os.Stdout, color: color}
	mw := io.MultiWriter(cw, file)
	return &AuditLogger{
		Logger: log.New(mw, fmt.Sprintf("[%s] ", component), log.LstdFlags),
		file:   file,
		buf:    make([]string, capacity),
		cap:    capacity,
	}, nil
}

func (a *AuditLogger) Close() error {
	if a.file != nil {
		return a.file.Close()
	}
	return nil
}

func (a *AuditLogger) push(s string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.size < a.cap {
		pos := (a.start + a.size) % a.cap
		a.buf[pos] = s
		a.size++
		return
	}
	a.buf[a.start] = s
	a.start = (a.start + 1) % a.cap
}

func (a *AuditLogger) Printf(format string, v ...any) {
	text := fmt.Sprintf(format, v...)
	a.push(text)
	a.Logger.Print(text)
}

func (a *AuditLogger) Print(v ...any) {
	text := fmt.Sprint(v...)
	a.push(text)
	a.Logger.Print(text)
}

// GetLastLogs returns up to n of the most recent entries, oldest first.
func (a *AuditLogger) GetLastLogs(n int) []string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if n > a.size {
		n = a.size
	}
	out := make([]string, 0, n)
	for i := a.size - n; i < a.size; i++ {
		pos := (a.start + i) % a.cap
		out = append(out, a.buf[pos])
	}
	return out
}
