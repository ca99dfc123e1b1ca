package injector

import (
	"fmt"

	"github.com/google/wire"

	"github.com/zeusync/desksim/internal/config"
	"github.com/zeusync/desksim/internal/core/desk"
	"github.com/zeusync/desksim/internal/core/events/bus"
	"github.com/zeusync/desksim/internal/core/observability/log"
	"github.com/zeusync/desksim/internal/core/storage"
	"github.com/zeusync/desksim/internal/media"
	"github.com/zeusync/desksim/internal/media/ffmpeg"
	"github.com/zeusync/desksim/internal/server"
)

// App is the fully wired desksim process.
type App struct {
	Config  *config.Config
	Logger  *log.Logger
	Events  bus.EventBus
	Store   *storage.FileStore
	Desk    *desk.Desk
	FFmpeg  *ffmpeg.Transcoder
	Server  *server.Server
	Watcher *media.Watcher // nil unless a music folder is watched
}

var ProviderSet = wire.NewSet(
	ProvideLogger,
	wire.Bind(new(log.Log), new(*log.Logger)),
	ProvideEventBus,
	ProvideStore,
	wire.Bind(new(storage.Storage), new(*storage.FileStore)),
	ProvideDeskOptions,
	ProvideDesk,
	ProvideFFmpeg,
	ProvideRecorder,
	ProvideNotes,
	ProvideServices,
	ProvideServerConfig,
	ProvideServer,
	ProvideWatcher,
	wire.Struct(new(App), "*"),
)

func ProvideLogger(cfg *config.Config) (*log.Logger, func()) {
	logger := log.New(cfg.Logging.Level)
	return logger, func() { _ = logger.Sync() }
}

func ProvideEventBus() bus.EventBus {
	return bus.New()
}

func ProvideStore(cfg *config.Config, logger log.Log) (*storage.FileStore, error) {
	return storage.NewFileStore(cfg.Storage.DataDir, logger)
}

func ProvideDeskOptions(cfg *config.Config) (desk.Options, error) {
	opts := desk.DefaultOptions()
	background, err := config.ParseColor(cfg.Canvas.Background)
	if err != nil {
		return desk.Options{}, fmt.Errorf("canvas.background: %w", err)
	}
	brushColor, err := config.ParseColor(cfg.Canvas.BrushColor)
	if err != nil {
		return desk.Options{}, fmt.Errorf("canvas.brush_color: %w", err)
	}
	opts.Resolution = cfg.Canvas.Resolution
	opts.Background = background
	opts.Brush.Color = brushColor
	opts.Brush.Radius = cfg.Canvas.BrushRadius
	opts.Parallelism = cfg.Canvas.Parallelism
	return opts, nil
}

func ProvideDesk(opts desk.Options, events bus.EventBus, store storage.Storage, logger log.Log) *desk.Desk {
	return desk.New(opts, events, store, logger)
}

func ProvideFFmpeg(cfg *config.Config, logger log.Log) *ffmpeg.Transcoder {
	return ffmpeg.New(ffmpeg.Options{
		Binary:      cfg.FFmpeg.Binary,
		MaxDuration: cfg.FFmpeg.MaxDuration,
		Timeout:     cfg.FFmpeg.Timeout,
	}, logger)
}

func ProvideRecorder(cfg *config.Config, enc *ffmpeg.Transcoder, logger log.Log) *media.Recorder {
	return media.NewRecorder(cfg.Media.RecordingPrefix, enc, logger)
}

func ProvideNotes(cfg *config.Config) *media.Notes {
	return media.NewNotes(cfg.NotesDir())
}

func ProvideServices(d *desk.Desk, store storage.Storage, enc *ffmpeg.Transcoder, rec *media.Recorder, notes *media.Notes) server.Services {
	return server.Services{
		Desk:       d,
		Store:      store,
		Transcoder: enc,
		Recorder:   rec,
		Notes:      notes,
	}
}

func ProvideServerConfig(cfg *config.Config) server.Config {
	sc := cfg.Server
	return server.Config{
		ListenAddr:          sc.ListenAddr,
		AuthToken:           sc.AuthToken,
		MaxClients:          sc.MaxClients,
		MaxMessageSize:      sc.MaxMessageSize,
		SendBuffer:          sc.SendBuffer,
		WriteTimeout:        sc.WriteTimeout,
		HealthCheckInterval: sc.HealthCheckInterval,
		ClientTimeout:       sc.ClientTimeout,
		ShutdownTimeout:     sc.ShutdownTimeout,
	}
}

func ProvideServer(sc server.Config, svc server.Services, events bus.EventBus, logger log.Log) (*server.Server, func()) {
	srv := server.NewServer(sc, svc, events, logger)
	return srv, func() { _ = srv.Close() }
}

// ProvideWatcher watches the configured music folder and republishes library
// changes on the bus. It returns nil when watching is off.
func ProvideWatcher(cfg *config.Config, events bus.EventBus, logger log.Log) (*media.Watcher, error) {
	if cfg.Media.MusicFolder == "" || !cfg.Media.Watch {
		return nil, nil
	}
	onChange := func(change media.LibraryChange) {
		if err := events.Publish(bus.NewEvent(media.EventLibraryChanged, "music", change)); err != nil {
			logger.Warn("Library change handler failed", log.Error(err))
		}
	}
	return media.NewWatcher(cfg.Media.MusicFolder, cfg.Media.Recursive, cfg.Media.WatchDebounce, onChange, logger)
}
