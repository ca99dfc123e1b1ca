package ffmpeg

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/desksim/internal/core/observability/log"
)

func TestArgs(t *testing.T) {
	assert.Equal(t,
		[]string{"-i", "in.mp3", "-t", "10", "-acodec", "pcm_s16le", "-ar", "44100", "-ac", "1", "-y", "out.wav"},
		TranscodeArgs("in.mp3", "out.wav", 10*time.Second))
	assert.Equal(t, "2.5", TranscodeArgs("a", "b", 2500*time.Millisecond)[3])

	assert.Equal(t,
		[]string{"-i", "in.webm", "-acodec", "pcm_s16le", "-ar", "44100", "-ac", "2", "-y", "out.wav"},
		WAVArgs("in.webm", "out.wav"))

	assert.Equal(t,
		[]string{"-i", "in.wav", "-acodec", "libmp3lame", "-b:a", "192k", "-ar", "44100", "-ac", "2", "-y", "out.mp3"},
		MP3Args("in.wav", "out.mp3"))
}

func TestMissingBinary(t *testing.T) {
	tmp := t.TempDir()
	tr := New(Options{Binary: "desksim-no-such-ffmpeg", TempDir: tmp}, log.NewNop())
	assert.False(t, tr.Available())

	_, err := tr.Transcode(context.Background(), []byte("abc"), "song.flac")
	assert.ErrorIs(t, err, ErrNotFound)

	entries, err := os.ReadDir(tmp)
	require.NoError(t, err)
	assert.Empty(t, entries, "temp files are removed")
}

func TestTailWriter(t *testing.T) {
	w := &tailWriter{max: 5}
	n, err := w.Write([]byte("abc"))
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	_, _ = w.Write([]byte("defgh"))
	assert.Equal(t, "defgh", w.String())
	_, _ = w.Write([]byte("ij"))
	assert.Equal(t, "fghij", w.String())
}

// fakeFFmpeg writes a shell script standing in for ffmpeg.
func fakeFFmpeg(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script stand-in needs a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "ffmpeg")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755))
	return path
}

func TestTranscodeWithStandIn(t *testing.T) {
	// copies the input (-i <in>) to the last argument
	bin := fakeFFmpeg(t, `for last; do :; done; cp "$2" "$last"`)
	tmp := t.TempDir()
	tr := New(Options{Binary: bin, TempDir: tmp}, log.NewNop())
	assert.True(t, tr.Available())

	out, err := tr.Transcode(context.Background(), []byte("RIFF...."), "clip.ogg")
	require.NoError(t, err)
	assert.Equal(t, "RIFF....", string(out))

	entries, err := os.ReadDir(tmp)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestEncodeMP3WithStandIn(t *testing.T) {
	bin := fakeFFmpeg(t, `for last; do :; done; cp "$2" "$last"`)
	tr := New(Options{Binary: bin, TempDir: t.TempDir()}, log.NewNop())

	out := filepath.Join(t.TempDir(), "Запись 1.mp3")
	require.NoError(t, tr.EncodeMP3(context.Background(), []byte("wavdata"), out))
	got, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "wavdata", string(got))
}

func TestFailureCarriesStderrTail(t *testing.T) {
	bin := fakeFFmpeg(t, `i=0; while [ $i -lt 100 ]; do printf 'noise-noise-' >&2; i=$((i+1)); done; echo 'Invalid data found' >&2; exit 3`)
	tr := New(Options{Binary: bin, TempDir: t.TempDir()}, log.NewNop())

	_, err := tr.Transcode(context.Background(), []byte("x"), "bad.mp3")
	require.ErrorIs(t, err, ErrFailed)
	msg := err.Error()
	assert.Contains(t, msg, "code 3")
	assert.Contains(t, msg, "Invalid data found")

	tail := msg[strings.Index(msg, ": ")+2:]
	assert.LessOrEqual(t, len(tail), stderrTail)
}
