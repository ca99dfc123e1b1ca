package server

import "errors"

// Server-specific errors
var (
	ErrServerClosed         = errors.New("server is closed")
	ErrServerNotRunning     = errors.New("server is not running")
	ErrServerAlreadyRunning = errors.New("server is already running")
	ErrMaxClientsReached    = errors.New("maximum clients reached")
	ErrUnauthorized         = errors.New("unauthorized")
	ErrUnknownChannel       = errors.New("unknown channel")
	ErrInvalidMessage       = errors.New("invalid message")
	ErrInvalidArgs          = errors.New("invalid arguments")
	ErrInvalidConfig        = errors.New("invalid server configuration")
	ErrListenerFailed       = errors.New("failed to create listener")
)

var ErrFFmpegMissing = errors.New("FFmpeg not found. Please install FFmpeg to enable audio transcoding. " +
	"Alternatively, convert your audio file to WAV (16-bit PCM) or MP3 format manually.")

// HandlerError is a failure that still carries response data.
type HandlerError struct {
	Err  error
	Data any
}

func (e *HandlerError) Error() string { return e.Err.Error() }
func (e *HandlerError) Unwrap() error { return e.Err }
