// Package ffmpeg drives the external ffmpeg binary for the audio conversions
// the desk needs. No audio is decoded in-process.
package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/zeusync/desksim/internal/core/observability/log"
)

var (
	ErrNotFound = errors.New("ffmpeg not found")
	ErrFailed   = errors.New("ffmpeg failed")
)

// stderrTail is how much of ffmpeg's stderr ends up in an error.
const stderrTail = 500

const (
	sampleRate = "44100"
	mp3Bitrate = "192k"
)

type Options struct {
	Binary      string
	MaxDuration time.Duration
	Timeout     time.Duration
	// TempDir defaults to os.TempDir().
	TempDir string
}

func DefaultOptions() Options {
	return Options{
		Binary:      "ffmpeg",
		MaxDuration: 10 * time.Second,
		Timeout:     2 * time.Minute,
	}
}

type Transcoder struct {
	opts   Options
	logger log.Log
}

func New(opts Options, logger log.Log) *Transcoder {
	def := DefaultOptions()
	if opts.Binary == "" {
		opts.Binary = def.Binary
	}
	if opts.MaxDuration <= 0 {
		opts.MaxDuration = def.MaxDuration
	}
	if opts.Timeout <= 0 {
		opts.Timeout = def.Timeout
	}
	if opts.TempDir == "" {
		opts.TempDir = os.TempDir()
	}
	return &Transcoder{opts: opts, logger: logger.With(log.String("component", "ffmpeg"))}
}

// Available reports whether the binary can be found.
func (t *Transcoder) Available() bool {
	_, err := exec.LookPath(t.opts.Binary)
	return err == nil
}

// TranscodeArgs converts anything ffmpeg reads into 16-bit PCM mono WAV,
// cut to maxDuration.
func TranscodeArgs(in, out string, maxDuration time.Duration) []string {
	return []string{
		"-i", in,
		"-t", strconv.FormatFloat(maxDuration.Seconds(), 'f', -1, 64),
		"-acodec", "pcm_s16le",
		"-ar", sampleRate,
		"-ac", "1",
		"-y",
		out,
	}
}

// WAVArgs converts to 16-bit PCM stereo WAV.
func WAVArgs(in, out string) []string {
	return []string{
		"-i", in,
		"-acodec", "pcm_s16le",
		"-ar", sampleRate,
		"-ac", "2",
		"-y",
		out,
	}
}

// MP3Args converts to 192 kbps stereo MP3.
func MP3Args(in, out string) []string {
	return []string{
		"-i", in,
		"-acodec", "libmp3lame",
		"-b:a", mp3Bitrate,
		"-ar", sampleRate,
		"-ac", "2",
		"-y",
		out,
	}
}

// TranscodeFile writes a mono WAV of at most MaxDuration to out.
func (t *Transcoder) TranscodeFile(ctx context.Context, in, out string) error {
	return t.run(ctx, TranscodeArgs(in, out, t.opts.MaxDuration))
}

// ConvertToWAV writes a stereo WAV of in to out.
func (t *Transcoder) ConvertToWAV(ctx context.Context, in, out string) error {
	return t.run(ctx, WAVArgs(in, out))
}

// ConvertToMP3 writes an MP3 of in to out.
func (t *Transcoder) ConvertToMP3(ctx context.Context, in, out string) error {
	return t.run(ctx, MP3Args(in, out))
}

// Transcode converts an in-memory file to mono WAV. fileName only supplies
// the extension ffmpeg uses to pick a demuxer.
func (t *Transcoder) Transcode(ctx context.Context, data []byte, fileName string) ([]byte, error) {
	ext := filepath.Ext(fileName)
	if ext == "" {
		ext = ".audio"
	}
	in, err := t.writeTemp("audio-input", ext, data)
	if err != nil {
		return nil, err
	}
	defer t.remove(in)

	out := t.tempPath("audio-output", ".wav")
	defer t.remove(out)

	if err := t.TranscodeFile(ctx, in, out); err != nil {
		return nil, err
	}
	wav, err := os.ReadFile(out)
	if err != nil {
		return nil, fmt.Errorf("ffmpeg: read output: %w", err)
	}
	t.logger.Debug("Transcoded audio",
		log.String("file", fileName),
		log.Int("in_bytes", len(data)),
		log.Int("out_bytes", len(wav)),
	)
	return wav, nil
}

// EncodeMP3 converts in-memory WAV data to an MP3 file at out.
func (t *Transcoder) EncodeMP3(ctx context.Context, wav []byte, out string) error {
	in, err := t.writeTemp("recording-input", ".wav", wav)
	if err != nil {
		return err
	}
	defer t.remove(in)
	return t.ConvertToMP3(ctx, in, out)
}

func (t *Transcoder) run(ctx context.Context, args []string) error {
	bin, err := exec.LookPath(t.opts.Binary)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrNotFound, t.opts.Binary)
	}

	execCtx, cancel := context.WithTimeout(ctx, t.opts.Timeout)
	defer cancel()

	stderr := &tailWriter{max: stderrTail}
	cmd := exec.CommandContext(execCtx, bin, args...)
	cmd.Stderr = stderr

	t.logger.Debug("Running ffmpeg", log.String("args", strings.Join(args, " ")))
	start := time.Now()
	err = cmd.Run()
	if err == nil {
		t.logger.Debug("ffmpeg finished", log.Duration("took", time.Since(start)))
		return nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		t.logger.Warn("ffmpeg exited with error",
			log.Int("code", exitErr.ExitCode()),
			log.String("stderr", stderr.String()),
		)
		return fmt.Errorf("%w with code %d: %s", ErrFailed, exitErr.ExitCode(), stderr.String())
	}
	return fmt.Errorf("%w: failed to start: %w", ErrFailed, err)
}

func (t *Transcoder) tempPath(prefix, ext string) string {
	return filepath.Join(t.opts.TempDir, prefix+"-"+uuid.NewString()+ext)
}

func (t *Transcoder) writeTemp(prefix, ext string, data []byte) (string, error) {
	path := t.tempPath(prefix, ext)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", fmt.Errorf("ffmpeg: write temp input: %w", err)
	}
	return path, nil
}

func (t *Transcoder) remove(path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		t.logger.Warn("Failed to clean up temp file", log.String("path", path), log.Error(err))
	}
}

// tailWriter keeps the last max bytes written to it.
type tailWriter struct {
	max int
	buf []byte
}

func (w *tailWriter) Write(p []byte) (int, error) {
	w.buf = append(w.buf, p...)
	if over := len(w.buf) - w.max; over > 0 {
		w.buf = append(w.buf[:0], w.buf[over:]...)
	}
	return len(p), nil
}

func (w *tailWriter) String() string { return string(w.buf) }
