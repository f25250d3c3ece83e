package utils

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	slogmulti "github.com/samber/slog-multi"
)

const scriptLogLayout = "2006-01-02 15:04"

// ScriptLog appends human readable lines to one stage log file. The file is
// opened and closed for every line so earlier runs are never truncated.
type ScriptLog struct {
	Path string
	Now  func() time.Time
}

func NewScriptLog(path string) *ScriptLog {
	return &ScriptLog{Path: path, Now: time.Now}
}

// Log writes "YYYY-MM-DD HH:MM | line".
func (s *ScriptLog) Log(line string) error {
	if s == nil || s.Path == "" {
		return nil
	}
	if _, err := EnsureDir(filepath.Dir(s.Path)); err != nil {
		return err
	}
	f, err := os.OpenFile(s.Path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	_, err = fmt.Fprintf(f, "%s | %s\n", now().Format(scriptLogLayout), line)
	return err
}

func (s *ScriptLog) Logf(format string, args ...any) error {
	return s.Log(fmt.Sprintf(format, args...))
}

// NewLogger builds the run logger: text on stderr, JSON appended to
// jsonPath. The returned closer closes the JSON file.
func NewLogger(jsonPath string, stderr io.Writer, level slog.Level) (*slog.Logger, io.Closer, error) {
	opts := &slog.HandlerOptions{Level: level}
	textHandler := slog.NewTextHandler(stderr, opts)
	if jsonPath == "" {
		return slog.New(textHandler), io.NopCloser(nil), nil
	}

	if _, err := EnsureDir(filepath.Dir(jsonPath)); err != nil {
		return nil, nil, err
	}
	logFile, err := os.OpenFile(jsonPath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}
	jsonHandler := slog.NewJSONHandler(logFile, &slog.HandlerOptions{Level: slog.LevelDebug})

	return slog.New(slogmulti.Fanout(textHandler, jsonHandler)), logFile, nil
}

type LogEntry struct {
	Timestamp string `json:"time"`
	Level     string `json:"level"`
	Tool      string `json:"msg"`
	Program   string `json:"PROGRAM"`
	Sample    string `json:"SAMPLE"`
	Status    string `json:"STATUS"`
	Cmd       string `json:"CMD"`
}

// ParseLogFile reads a JSON run log. Lines that do not decode are skipped and
// a missing file yields no entries.
func ParseLogFile(path string) []LogEntry {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	var entries []LogEntry
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		var entry LogEntry
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			continue
		}
		entries = append(entries, entry)
	}
	return entries
}

// StageHasCompleted reports whether program/sample has a COMPLETED entry that
// is not followed by a later STARTED entry for the same pair.
func StageHasCompleted(entries []LogEntry, program, sample string) bool {
	done := false
	for _, e := range entries {
		if e.Program != program || e.Sample != sample {
			continue
		}
		switch e.Status {
		case "COMPLETED":
			done = true
		case "STARTED":
			done = false
		}
	}
	return done
}
