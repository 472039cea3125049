package utils

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
)

var (
	debugOnce   sync.Once
	debugMu     sync.Mutex
	debugFile   *os.File
	debugLogger *log.Logger
	enableDebug bool

	// Order matters: specific patterns run before generic ones.
	sensitivePatterns = []struct {
		pattern     *regexp.Regexp
		replacement string
	}{
		{regexp.MustCompile(`\beyJ[a-zA-Z0-9_-]+\.eyJ[a-zA-Z0-9_-]+\.[a-zA-Z0-9_-]+`), "[REDACTED-JWT]"},
		{regexp.MustCompile(`\b(sk|pk|sess)-[a-zA-Z0-9\-_]{20,}`), "[REDACTED-KEY]"},
		{regexp.MustCompile(`(?i)(authorization[=:\s]+['"]?)(Basic|Bearer|Digest)\s+[a-zA-Z0-9\-_\.=]+`), "${1}${2} [REDACTED]"},
		{regexp.MustCompile(`(?i)(bearer\s+)[a-zA-Z0-9\-_\.]+`), "${1}[REDACTED]"},
		{regexp.MustCompile(`(?i)(api[_-]?key[=:\s]+['"]?)[a-zA-Z0-9\-_]{16,}`), "${1}[REDACTED]"},
		{regexp.MustCompile(`(?i)(password[=:\s]+['"]?)[^\s&'"]+`), "${1}[REDACTED]"},
		{regexp.MustCompile(`(?i)(token[=:\s]+['"]?)[a-zA-Z0-9\-_\.]{16,}`), "${1}[REDACTED]"},
		{regexp.MustCompile(`(?i)(cookie[=:\s]+['"]?)[^;\n]+`), "${1}[REDACTED]"},
	}
)

// InitDebugLogger opens the shared debug log and wires Bubble Tea's logging
// to it. An empty path resolves to debug.log in the data directory. Safe to
// call multiple times; only the first call opens a file.
func InitDebugLogger(path string, debug bool) error {
	enableDebug = debug
	var initErr error
	debugOnce.Do(func() {
		if path == "" {
			path = defaultLogPath()
		}
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				initErr = err
				return
			}
		}
		if debug {
			abs, err := filepath.Abs(path)
			if err != nil {
				abs = path
			}
			fmt.Fprintf(os.Stderr, "[DEBUG] Logging to: %s\n", abs)
		}

		f, err := tea.LogToFile(path, "debug")
		if err != nil {
			initErr = err
			return
		}
		debugMu.Lock()
		debugFile = f
		debugLogger = log.New(f, "", log.LstdFlags)
		debugMu.Unlock()
	})
	return initErr
}

func defaultLogPath() string {
	if dir, err := GetDataDir(); err == nil {
		return filepath.Join(dir, "logs", "debug.log")
	}
	return filepath.Join(GetEffectiveCWD(), "debug.log")
}

// CloseDebugLogger flushes and closes the debug log file if it was opened.
func CloseDebugLogger() {
	debugMu.Lock()
	defer debugMu.Unlock()
	if debugFile != nil {
		_ = debugFile.Sync()
		_ = debugFile.Close()
	}
}

// ResetDebugLoggerForTesting lets tests reinitialize the logger with a
// different path. Tests only.
func ResetDebugLoggerForTesting() {
	CloseDebugLogger()
	debugMu.Lock()
	debugOnce = sync.Once{}
	debugFile = nil
	debugLogger = nil
	debugMu.Unlock()
}

func sanitizeLogMessage(msg string) string {
	for _, sp := range sensitivePatterns {
		msg = sp.pattern.ReplaceAllString(msg, sp.replacement)
	}
	return msg
}

// LogDebug writes a sanitized line to the debug log and, with --debug, echoes
// it through the output manager.
func LogDebug(msg string) {
	debugMu.Lock()
	ready := debugLogger != nil
	debugMu.Unlock()
	if !ready {
		if err := InitDebugLogger("", enableDebug); err != nil {
			OutputError("failed to initialize debug logger: %v\n", err)
		}
	}

	debugMu.Lock()
	logger := debugLogger
	debugMu.Unlock()
	if logger == nil {
		return
	}

	sanitized := sanitizeLogMessage(msg)
	logger.Println(sanitized)
	if enableDebug {
		sendMessage(DebugMessage, "%s\n", sanitized)
	}
}

// LogDebugf is LogDebug with formatting.
func LogDebugf(format string, args ...interface{}) {
	LogDebug(fmt.Sprintf(format, args...))
}
