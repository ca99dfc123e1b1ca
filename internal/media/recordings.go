package media

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"

	"github.com/zeusync/desksim/internal/core/observability/log"
)

const DefaultRecordingPrefix = "Запись"

type Format string

const (
	FormatWAV Format = "wav"
	FormatMP3 Format = "mp3"
)

// MP3FallbackMessage accompanies a WAV saved in place of a requested MP3.
const MP3FallbackMessage = "Saved as WAV. Install FFmpeg for MP3 format."

var ErrInvalidRecording = errors.New("invalid recording")

// MP3Encoder turns WAV data into an MP3 file.
type MP3Encoder interface {
	Available() bool
	EncodeMP3(ctx context.Context, wav []byte, out string) error
}

type SavedRecording struct {
	FilePath     string `json:"filePath"`
	FileName     string `json:"fileName"`
	ActualFormat Format `json:"actualFormat"`
	Message      string `json:"message,omitempty"`
}

// Recorder names and stores dictaphone recordings as "<prefix> <N>.<ext>".
type Recorder struct {
	prefix  string
	pattern *regexp.Regexp
	encoder MP3Encoder
	logger  log.Log
}

// NewRecorder uses DefaultRecordingPrefix when prefix is empty. encoder may
// be nil, in which case MP3 requests are saved as WAV.
func NewRecorder(prefix string, encoder MP3Encoder, logger log.Log) *Recorder {
	if prefix == "" {
		prefix = DefaultRecordingPrefix
	}
	return &Recorder{
		prefix:  prefix,
		pattern: regexp.MustCompile(`^` + regexp.QuoteMeta(prefix) + ` (\d+)\.(wav|mp3|webm)$`),
		encoder: encoder,
		logger:  logger.With(log.String("component", "recorder")),
	}
}

// FileName returns the name of recording number n in format f.
func (r *Recorder) FileName(n int, f Format) string {
	return r.prefix + " " + strconv.Itoa(n) + "." + string(f)
}

// NextNumber returns one more than the highest recording number in folder.
func (r *Recorder) NextNumber(folder string) (int, error) {
	entries, err := os.ReadDir(folder)
	if err != nil {
		return 0, fmt.Errorf("%w: %s", ErrFolderNotFound, folder)
	}
	highest := 0
	for _, e := range entries {
		m := r.pattern.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		if n, err := strconv.Atoi(m[1]); err == nil && n > highest {
			highest = n
		}
	}
	return highest + 1, nil
}

// Save writes a WAV recording into folder, converting to MP3 when asked and
// an encoder is available. Without one the WAV is kept and the result
// carries MP3FallbackMessage.
func (r *Recorder) Save(ctx context.Context, folder string, number int, wav []byte, format Format) (SavedRecording, error) {
	if info, err := os.Stat(folder); err != nil || !info.IsDir() {
		return SavedRecording{}, fmt.Errorf("%w: %s", ErrFolderNotFound, folder)
	}
	if number <= 0 {
		return SavedRecording{}, fmt.Errorf("%w: number %d", ErrInvalidRecording, number)
	}
	if len(wav) == 0 {
		return SavedRecording{}, fmt.Errorf("%w: no audio data", ErrInvalidRecording)
	}

	if format == FormatMP3 {
		if r.encoder != nil && r.encoder.Available() {
			name := r.FileName(number, FormatMP3)
			path := filepath.Join(folder, name)
			if err := r.encoder.EncodeMP3(ctx, wav, path); err != nil {
				return SavedRecording{}, err
			}
			r.logger.Info("Recording saved", log.String("path", path), log.String("format", string(FormatMP3)))
			return SavedRecording{FilePath: path, FileName: name, ActualFormat: FormatMP3}, nil
		}
		saved, err := r.saveWAV(folder, number, wav)
		if err != nil {
			return SavedRecording{}, err
		}
		saved.Message = MP3FallbackMessage
		return saved, nil
	}
	return r.saveWAV(folder, number, wav)
}

func (r *Recorder) saveWAV(folder string, number int, wav []byte) (SavedRecording, error) {
	name := r.FileName(number, FormatWAV)
	path := filepath.Join(folder, name)
	if err := os.WriteFile(path, wav, 0o644); err != nil {
		return SavedRecording{}, fmt.Errorf("write recording: %w", err)
	}
	r.logger.Info("Recording saved", log.String("path", path), log.String("format", string(FormatWAV)))
	return SavedRecording{FilePath: path, FileName: name, ActualFormat: FormatWAV}, nil
}
