package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/satriahrh/suara/domain"
	"github.com/satriahrh/suara/domain/entities"
)

// Transcoder converts a compressed container to a WAV file.
type Transcoder interface {
	Transcode(ctx context.Context, data []byte, from entities.Container) ([]byte, error)
}

var (
	ErrFFmpegNotFound = errors.New("ffmpeg not found")
	ErrFFmpegTimeout  = errors.New("ffmpeg execution timed out")
)

// FFmpegConfig holds configuration for the ffmpeg transcoder
type FFmpegConfig struct {
	Path    string
	Timeout time.Duration
}

// DefaultFFmpegConfig returns the default configuration
func DefaultFFmpegConfig() FFmpegConfig {
	return FFmpegConfig{
		Path:    "ffmpeg",
		Timeout: 30 * time.Second,
	}
}

// FFmpegTranscoder shells out to ffmpeg, staging input and output in a
// temporary directory that is removed before returning.
type FFmpegTranscoder struct {
	config FFmpegConfig
	logger *zap.Logger
}

var _ Transcoder = (*FFmpegTranscoder)(nil)

// NewFFmpegTranscoder creates a new ffmpeg transcoder
func NewFFmpegTranscoder(config FFmpegConfig, logger *zap.Logger) *FFmpegTranscoder {
	if config.Path == "" {
		config.Path = DefaultFFmpegConfig().Path
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultFFmpegConfig().Timeout
	}
	return &FFmpegTranscoder{config: config, logger: logger}
}

// Transcode decodes data to 16 kHz mono 16-bit WAV.
func (t *FFmpegTranscoder) Transcode(ctx context.Context, data []byte, from entities.Container) ([]byte, error) {
	tempDir, err := os.MkdirTemp("", "suara-transcode-")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}
	defer func() {
		if removeErr := os.RemoveAll(tempDir); removeErr != nil {
			t.logger.Warn("Failed to remove temp directory", zap.String("path", tempDir), zap.Error(removeErr))
		}
	}()

	ext := string(from)
	if ext == "" {
		ext = "bin"
	}
	inputPath := filepath.Join(tempDir, "input."+ext)
	outputPath := filepath.Join(tempDir, "output.wav")

	if err := os.WriteFile(inputPath, data, 0o600); err != nil {
		return nil, fmt.Errorf("failed to write input file: %w", err)
	}

	args := []string{
		"-y",
		"-i", inputPath,
		"-vn",
		"-ar", strconv.Itoa(entities.CanonicalSampleRate),
		"-ac", strconv.Itoa(entities.CanonicalChannels),
		"-acodec", "pcm_s16le",
		outputPath,
	}
	if err := t.run(ctx, args); err != nil {
		return nil, err
	}

	output, err := os.ReadFile(outputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read output file: %w", err)
	}
	return output, nil
}

func (t *FFmpegTranscoder) run(ctx context.Context, args []string) error {
	runCtx, cancel := context.WithTimeout(ctx, t.config.Timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, t.config.Path, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	t.logger.Debug("Running ffmpeg", zap.Strings("args", args))

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			return domain.NewBackendError("ffmpeg", "timeout", ErrFFmpegTimeout.Error(), ErrFFmpegTimeout, true)
		}
		var execErr *exec.Error
		if (errors.As(err, &execErr) && errors.Is(execErr.Err, exec.ErrNotFound)) || errors.Is(err, fs.ErrNotExist) {
			return domain.NewBackendError("ffmpeg", "not_found", t.config.Path, ErrFFmpegNotFound, false)
		}
		// ffmpeg ran and rejected the input.
		return fmt.Errorf("%w: ffmpeg: %v: %s", domain.ErrDecode, err, lastLine(stderr.Bytes()))
	}
	return nil
}

func lastLine(b []byte) string {
	b = bytes.TrimSpace(b)
	if i := bytes.LastIndexByte(b, '\n'); i >= 0 {
		b = b[i+1:]
	}
	return string(b)
}
