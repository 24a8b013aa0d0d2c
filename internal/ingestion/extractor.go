// Package ingestion turns uploaded claim documents into raw text.
//
// Extraction is deliberately forgiving: a document the pipeline cannot read
// is still a claim, it just fails the quality gate downstream.  Every
// extractor therefore degrades to empty text instead of surfacing transport
// or tooling errors to the caller.
package ingestion

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/fraudlens/fraudlens/internal/config"
	"github.com/fraudlens/fraudlens/internal/infrastructure/monitoring/logging"
)

// TextExtractor converts a stored document into raw text.  filename is the
// client-supplied name; its extension selects the extraction strategy.
type TextExtractor interface {
	Extract(ctx context.Context, filename string, data []byte) string
}

// ─────────────────────────────────────────────────────────────────────────────
// Upload validation
// ─────────────────────────────────────────────────────────────────────────────

// Validator checks uploads against the configured allowlist and size cap
// before any bytes reach an extractor.
type Validator struct {
	allowed map[string]struct{}
	maxSize int64
}

// NewValidator builds a Validator from the ingestion configuration.
// Extensions are matched case-insensitively.
func NewValidator(cfg config.IngestionConfig) *Validator {
	allowed := make(map[string]struct{}, len(cfg.AllowedExtensions))
	for _, ext := range cfg.AllowedExtensions {
		allowed[strings.ToLower(ext)] = struct{}{}
	}
	return &Validator{allowed: allowed, maxSize: cfg.MaxUploadSize}
}

// ValidateUpload returns a rejection reason for metrics labelling and an
// error describing the problem, or ("", nil) when the upload is acceptable.
func (v *Validator) ValidateUpload(filename string, size int64) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		return "missing_extension", fmt.Errorf("ingestion: file %q has no extension", filename)
	}
	if _, ok := v.allowed[ext]; !ok {
		return "extension", fmt.Errorf("ingestion: file type %s is not allowed", ext)
	}
	if v.maxSize > 0 && size > v.maxSize {
		return "size", fmt.Errorf("ingestion: file exceeds %d byte limit", v.maxSize)
	}
	return "", nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Command-backed extractor
// ─────────────────────────────────────────────────────────────────────────────

// CommandExtractor shells out to external tooling for OCR and PDF text
// extraction.  Inputs are written to a temp file because both tesseract and
// pdftotext take a path, not a stream.
type CommandExtractor struct {
	ocrCommand     string
	pdfTextCommand string
	timeout        time.Duration
	logger         logging.Logger

	// runCommand is swappable in tests.
	runCommand func(ctx context.Context, name string, args ...string) ([]byte, error)
}

// NewCommandExtractor builds the production extractor from configuration.
func NewCommandExtractor(cfg config.IngestionConfig, logger logging.Logger) *CommandExtractor {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &CommandExtractor{
		ocrCommand:     cfg.OCRCommand,
		pdfTextCommand: cfg.PDFTextCommand,
		timeout:        cfg.ExtractTimeout,
		logger:         logger.Named("ingestion"),
		runCommand:     runExternal,
	}
}

// Extract dispatches on file extension.  Any failure, including a missing
// binary or a timeout, yields empty text.
func (e *CommandExtractor) Extract(ctx context.Context, filename string, data []byte) string {
	ext := strings.ToLower(filepath.Ext(filename))

	switch ext {
	case ".txt":
		return string(data)
	case ".pdf":
		return e.runOn(ctx, e.pdfTextCommand, ext, data, func(path string) []string {
			// pdftotext <input> - writes the text to stdout
			return []string{path, "-"}
		})
	case ".png", ".jpg", ".jpeg", ".tiff", ".bmp":
		return e.runOn(ctx, e.ocrCommand, ext, data, func(path string) []string {
			// tesseract <input> stdout
			return []string{path, "stdout"}
		})
	default:
		e.logger.Warn("no extraction strategy for file type", logging.String("extension", ext))
		return ""
	}
}

func (e *CommandExtractor) runOn(ctx context.Context, command, ext string, data []byte, args func(path string) []string) string {
	if command == "" {
		e.logger.Warn("extraction command not configured", logging.String("extension", ext))
		return ""
	}

	tmp, err := os.CreateTemp("", "fraudlens-*"+ext)
	if err != nil {
		e.logger.Error("failed to stage document", logging.Err(err))
		return ""
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		e.logger.Error("failed to stage document", logging.Err(err))
		return ""
	}
	if err := tmp.Close(); err != nil {
		e.logger.Error("failed to stage document", logging.Err(err))
		return ""
	}

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	out, err := e.runCommand(ctx, command, args(tmp.Name())...)
	if err != nil {
		e.logger.Warn("text extraction failed",
			logging.String("command", command),
			logging.String("extension", ext),
			logging.Err(err))
		return ""
	}
	return string(out)
}

func runExternal(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%s: %w: %s", name, err, msg)
		}
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return stdout.Bytes(), nil
}
