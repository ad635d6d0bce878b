package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/llm-prompter/internal/fsops"
	"github.com/temirov/llm-prompter/internal/hashstore"
)

const (
	listPayloadsErrorFormat = "list payload directory %s: %w"
	readPayloadErrorFormat  = "read payload: %w"
)

// ErrEmptyPayload rejects a payload file without content.
var ErrEmptyPayload = errors.New("empty payload")

// RunStatistics counts payload outcomes for one Run.
type RunStatistics struct {
	Processed int
	Succeeded int
	Skipped   int
	Errored   int
}

func (s RunStatistics) String() string {
	return fmt.Sprintf("processed=%d succeeded=%d skipped=%d errored=%d", s.Processed, s.Succeeded, s.Skipped, s.Errored)
}

type outcome int

const (
	outcomeSucceeded outcome = iota
	outcomeSkipped
	outcomeErrored
)

// Driver walks the payload directory and hands each changed file to the orchestrator.
type Driver struct {
	Ops          fsops.Ops
	Hashes       hashstore.Store
	Orchestrator Orchestrator
	PayloadDir   string
	AnswerDir    string
	// Force ignores stored hashes; fresh hashes are still written.
	Force  bool
	Logger *zap.Logger
}

// Run processes every payload file in order. Only a failure to enumerate the
// payload directory is returned; per-file failures are counted as errored.
func (d Driver) Run(ctx context.Context) (RunStatistics, error) {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	var stats RunStatistics

	names, listErr := d.Ops.ListFiles(d.PayloadDir)
	if listErr != nil {
		return stats, fmt.Errorf(listPayloadsErrorFormat, d.PayloadDir, listErr)
	}
	logger.Info("prompt mode selected",
		zap.String("mode", d.Orchestrator.Mode().String()),
		zap.Int("payload_files", len(names)),
		zap.Bool("hash_skip", d.Hashes.Enabled() && !d.Force),
	)

	for index, name := range names {
		fileLogger := logger.With(
			zap.String("payload", name),
			zap.String("progress", progress(index+1, len(names))),
		)
		stats.Processed++
		fileErr := d.processFile(ctx, name, fileLogger)
		switch classify(fileErr) {
		case outcomeSkipped:
			stats.Skipped++
			fileLogger.Info("payload unchanged, skipped")
		case outcomeErrored:
			stats.Errored++
			fileLogger.Error("payload failed", zap.Error(fileErr))
		default:
			stats.Succeeded++
			fileLogger.Info("payload processed")
		}
	}

	logger.Info("FILES STATISTICS",
		zap.Int("processed", stats.Processed),
		zap.Int("succeeded", stats.Succeeded),
		zap.Int("skipped", stats.Skipped),
		zap.Int("errored", stats.Errored),
	)
	return stats, nil
}

var errSkipped = errors.New("skipped")

func classify(err error) outcome {
	switch {
	case err == nil:
		return outcomeSucceeded
	case errors.Is(err, errSkipped):
		return outcomeSkipped
	default:
		return outcomeErrored
	}
}

func (d Driver) processFile(ctx context.Context, name string, logger *zap.Logger) error {
	text, readErr := d.Ops.ReadText(filepath.Join(d.PayloadDir, name))
	if readErr != nil {
		return fmt.Errorf(readPayloadErrorFormat, readErr)
	}
	digest := hashstore.Digest(text)

	if d.Hashes.Enabled() && !d.Force {
		changed, hashErr := d.Hashes.Changed(name, digest)
		if hashErr != nil {
			return hashErr
		}
		if !changed {
			return errSkipped
		}
	}
	if strings.TrimSpace(text) == "" {
		return ErrEmptyPayload
	}

	artifacts, executeErr := d.Orchestrator.Execute(ctx, Payload{Name: name, Text: text})
	d.persist(artifacts, logger)
	if updateErr := d.Hashes.Update(name, digest); updateErr != nil {
		logger.Warn("hash update failed", zap.Error(updateErr))
	}
	return executeErr
}

// persist writes artifacts; failures are logged and do not change the file outcome.
func (d Driver) persist(artifacts []Artifact, logger *zap.Logger) {
	for _, artifact := range artifacts {
		target := filepath.Join(d.AnswerDir, filepath.FromSlash(artifact.RelativePath))
		if writeErr := d.Ops.WriteText(target, artifact.Content); writeErr != nil {
			logger.Warn("answer write failed", zap.String("answer", target), zap.Error(writeErr))
			continue
		}
		logger.Debug("answer written", zap.String("answer", target))
	}
}

func progress(done, total int) string {
	if total == 0 {
		return "100%"
	}
	return fmt.Sprintf("%d%%", done*100/total)
}
