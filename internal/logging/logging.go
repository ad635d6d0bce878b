// Package logging builds the run logger from the log section of the configuration.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/temirov/llm-prompter/internal/config"
)

const (
	// RewriteFileName is the single log file truncated by every REWRITE run.
	RewriteFileName = "llm-prompter.log"
	// appendFileNameFormat receives a YYYYMMDD-HHMMSS stamp.
	appendFileNameFormat = "llm-prompter.%s.log"
	appendStampLayout    = "20060102-150405"

	runIDFieldName = "run_id"

	parseLevelErrorFormat  = "parse log level %q: %w"
	openLogFileErrorFormat = "open log file %s: %w"
	logDirErrorFormat      = "create log directory %s: %w"
)

// FileName returns the log file name for mode at the given start time.
func FileName(mode string, startedAt time.Time) string {
	if strings.EqualFold(mode, config.LogModeAppend) {
		return fmt.Sprintf(appendFileNameFormat, startedAt.Format(appendStampLayout))
	}
	return RewriteFileName
}

// New returns a logger writing console output to stderr and, when settings.Dir
// is set, JSON lines to a log file. The returned close function releases the file.
func New(settings config.Log, runID string, startedAt time.Time) (*zap.Logger, func() error, error) {
	level, levelErr := zapcore.ParseLevel(strings.TrimSpace(settings.Level))
	if levelErr != nil {
		return nil, nil, fmt.Errorf(parseLevelErrorFormat, settings.Level, levelErr)
	}

	consoleConfig := zap.NewDevelopmentEncoderConfig()
	consoleConfig.EncodeTime = zapcore.TimeEncoderOfLayout(time.DateTime)
	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(consoleConfig), zapcore.Lock(os.Stderr), level),
	}
	closeFile := func() error { return nil }

	if dir := strings.TrimSpace(settings.Dir); dir != "" {
		if mkdirErr := os.MkdirAll(dir, 0o755); mkdirErr != nil {
			return nil, nil, fmt.Errorf(logDirErrorFormat, dir, mkdirErr)
		}
		path := filepath.Join(dir, FileName(settings.Mode, startedAt))
		file, openErr := os.OpenFile(path, fileFlags(settings.Mode), 0o644)
		if openErr != nil {
			return nil, nil, fmt.Errorf(openLogFileErrorFormat, path, openErr)
		}
		fileConfig := zap.NewProductionEncoderConfig()
		fileConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(fileConfig), zapcore.AddSync(file), level))
		closeFile = file.Close
	}

	logger := zap.New(zapcore.NewTee(cores...))
	if runID != "" {
		logger = logger.With(zap.String(runIDFieldName, runID))
	}
	return logger, closeFile, nil
}

func fileFlags(mode string) int {
	if strings.EqualFold(mode, config.LogModeAppend) {
		return os.O_CREATE | os.O_WRONLY | os.O_APPEND
	}
	return os.O_CREATE | os.O_WRONLY | os.O_TRUNC
}
