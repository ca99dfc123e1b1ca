// Package config loads the desksim configuration from YAML.
package config

import (
	"errors"
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/zeusync/desksim/internal/core/observability/log"
)

var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds all desksim configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Logging LoggingConfig `yaml:"logging"`
	Canvas  CanvasConfig  `yaml:"canvas"`
	FFmpeg  FFmpegConfig  `yaml:"ffmpeg"`
	Media   MediaConfig   `yaml:"media"`
}

// ServerConfig configures the IPC listener.
type ServerConfig struct {
	ListenAddr string `yaml:"listen_addr"`
	// AuthToken, when set, must be passed as ?token= by every client.
	AuthToken      string        `yaml:"auth_token"`
	MaxClients     int           `yaml:"max_clients"`
	MaxMessageSize int64         `yaml:"max_message_size"`
	SendBuffer     int           `yaml:"send_buffer"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	// ClientTimeout closes connections that sent nothing for this long.
	ClientTimeout       time.Duration `yaml:"client_timeout"`
	HealthCheckInterval time.Duration `yaml:"health_check_interval"`
	ShutdownTimeout     time.Duration `yaml:"shutdown_timeout"`
}

type StorageConfig struct {
	DataDir string `yaml:"data_dir"`
}

type LoggingConfig struct {
	Level log.Level `yaml:"level"`
}

// CanvasConfig configures drawable surfaces. Colours are #rrggbb.
type CanvasConfig struct {
	Resolution  int    `yaml:"resolution"`
	Background  string `yaml:"background"`
	BrushColor  string `yaml:"brush_color"`
	BrushRadius int    `yaml:"brush_radius"`
	Parallelism int    `yaml:"parallelism"`
}

type FFmpegConfig struct {
	Binary string `yaml:"binary"`
	// MaxDuration caps transcoded clips.
	MaxDuration time.Duration `yaml:"max_duration"`
	Timeout     time.Duration `yaml:"timeout"`
}

type MediaConfig struct {
	MusicFolder     string        `yaml:"music_folder"`
	Recursive       bool          `yaml:"recursive"`
	Watch           bool          `yaml:"watch"`
	WatchDebounce   time.Duration `yaml:"watch_debounce"`
	RecordingPrefix string        `yaml:"recording_prefix"`
	// NotesDir defaults to <data_dir>/notes.
	NotesDir string `yaml:"notes_dir"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			ListenAddr:          "127.0.0.1:8765",
			MaxClients:          16,
			MaxMessageSize:      64 * 1024 * 1024, // recordings travel base64-encoded
			SendBuffer:          256,
			WriteTimeout:        10 * time.Second,
			ClientTimeout:       5 * time.Minute,
			HealthCheckInterval: 30 * time.Second,
			ShutdownTimeout:     5 * time.Second,
		},
		Storage: StorageConfig{
			DataDir: defaultDataDir(),
		},
		Logging: LoggingConfig{
			Level: log.LevelInfo,
		},
		Canvas: CanvasConfig{
			Resolution:  512,
			Background:  "#ffffff",
			BrushColor:  "#1a1a2e",
			BrushRadius: 1,
			Parallelism: 4,
		},
		FFmpeg: FFmpegConfig{
			Binary:      "ffmpeg",
			MaxDuration: 10 * time.Second,
			Timeout:     2 * time.Minute,
		},
		Media: MediaConfig{
			Recursive:       true,
			Watch:           true,
			WatchDebounce:   500 * time.Millisecond,
			RecordingPrefix: "Запись",
		},
	}
}

func defaultDataDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "desksim")
	}
	return ".desksim"
}

// Load reads path over the defaults. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
		case err != nil:
			return nil, fmt.Errorf("failed to read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration as YAML.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("DESKSIM_LISTEN_ADDR"); v != "" {
		c.Server.ListenAddr = v
	}
	if v := os.Getenv("DESKSIM_DATA_DIR"); v != "" {
		c.Storage.DataDir = v
	}
	if v := os.Getenv("DESKSIM_AUTH_TOKEN"); v != "" {
		c.Server.AuthToken = v
	}
	if v := os.Getenv("DESKSIM_LOG_LEVEL"); v != "" {
		if lvl, err := log.ParseLevel(v); err == nil {
			c.Logging.Level = lvl
		}
	}
	if v := os.Getenv("DESKSIM_FFMPEG"); v != "" {
		c.FFmpeg.Binary = v
	}
	if v := os.Getenv("DESKSIM_MUSIC_FOLDER"); v != "" {
		c.Media.MusicFolder = v
	}
}

// Validate checks ranges and colour formats.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.ListenAddr == "" {
		errs = append(errs, errors.New("server.listen_addr is empty"))
	}
	if c.Server.MaxClients <= 0 {
		errs = append(errs, errors.New("server.max_clients must be positive"))
	}
	if c.Server.MaxMessageSize <= 0 {
		errs = append(errs, errors.New("server.max_message_size must be positive"))
	}
	if c.Server.SendBuffer <= 0 {
		errs = append(errs, errors.New("server.send_buffer must be positive"))
	}
	if c.Storage.DataDir == "" {
		errs = append(errs, errors.New("storage.data_dir is empty"))
	}
	if c.Canvas.Resolution <= 0 {
		errs = append(errs, errors.New("canvas.resolution must be positive"))
	}
	if c.Canvas.BrushRadius < 0 {
		errs = append(errs, errors.New("canvas.brush_radius must not be negative"))
	}
	if _, err := ParseColor(c.Canvas.Background); err != nil {
		errs = append(errs, fmt.Errorf("canvas.background: %w", err))
	}
	if _, err := ParseColor(c.Canvas.BrushColor); err != nil {
		errs = append(errs, fmt.Errorf("canvas.brush_color: %w", err))
	}
	if c.FFmpeg.Binary == "" {
		errs = append(errs, errors.New("ffmpeg.binary is empty"))
	}
	if c.FFmpeg.MaxDuration <= 0 {
		errs = append(errs, errors.New("ffmpeg.max_duration must be positive"))
	}
	if strings.TrimSpace(c.Media.RecordingPrefix) == "" {
		errs = append(errs, errors.New("media.recording_prefix is empty"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

// NotesDir resolves the notes folder.
func (c *Config) NotesDir() string {
	if c.Media.NotesDir != "" {
		return c.Media.NotesDir
	}
	return filepath.Join(c.Storage.DataDir, "notes")
}

// ParseColor parses #rrggbb or #rrggbbaa.
func ParseColor(s string) (color.NRGBA, error) {
	hex := strings.TrimPrefix(s, "#")
	if len(hex) != 6 && len(hex) != 8 {
		return color.NRGBA{}, fmt.Errorf("bad colour %q", s)
	}
	if len(hex) == 6 {
		hex += "ff"
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("bad colour %q", s)
	}
	return color.NRGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}
