package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/zeusync/desksim/internal/core/observability/log"
	"github.com/zeusync/desksim/internal/core/surface"
	"github.com/zeusync/desksim/internal/core/systems/physics"
	"github.com/zeusync/desksim/internal/media"
	"github.com/zeusync/desksim/internal/media/ffmpeg"
	"github.com/zeusync/desksim/sdk/go/client"
)

var (
	scanFlat bool

	mapWidth      float64
	mapDepth      float64
	mapPosition   string
	mapYaw        float64
	mapResolution int

	thicknessPages int

	callURL string
)

// scanCmd lists the audio files of a folder
var scanCmd = &cobra.Command{
	Use:   "scan [folder]",
	Short: "List the audio files in a music folder",
	Long: `Scans a folder for audio files and prints them as JSON, sorted by
display name. Subfolders are included unless --flat is given. Without an
argument the configured music folder is scanned.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		folder := cfg.Media.MusicFolder
		if len(args) == 1 {
			folder = args[0]
		}
		if folder == "" {
			return fmt.Errorf("no folder given and media.music_folder is not set")
		}
		files, err := media.Scan(folder, !scanFlat)
		if err != nil {
			return err
		}
		if files == nil {
			files = []media.AudioFile{}
		}
		return printJSON(cmd, files)
	},
}

// mapCmd maps a world point onto a surface pixel
var mapCmd = &cobra.Command{
	Use:   "map x,y,z",
	Short: "Map a world point to a surface pixel",
	Long: `Maps a world-space contact point to the pixel it hits on a drawable
surface with the given pose and size. Row 0 is the far (-depth/2) edge.

Example:
  desksim map 0,0.75,0.1 --width 0.4 --depth 0.4 --resolution 512`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		point, err := parseVec3(args[0])
		if err != nil {
			return err
		}
		position, err := parseVec3(mapPosition)
		if err != nil {
			return fmt.Errorf("--position: %w", err)
		}
		s, err := surface.New(position, mapYaw, mapWidth, mapDepth, mapResolution)
		if err != nil {
			return err
		}
		u, v := surface.Normalized(point, s)
		return printJSON(cmd, map[string]any{
			"pixel":    surface.MapToPixel(point, s),
			"u":        u,
			"v":        v,
			"contains": surface.Contains(point, s),
		})
	},
}

// thicknessCmd prints the stacking thickness of an object type
var thicknessCmd = &cobra.Command{
	Use:   "thickness [type]",
	Short: "Print the thickness of a desk object",
	Long: `Prints the thickness used when stacking on top of an object. Books
and magazines grow with --pages; other types use their physics height.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		objType := args[0]
		if !physics.Known(objType) {
			return fmt.Errorf("unknown object type %q", objType)
		}
		return printJSON(cmd, map[string]any{
			"type":      objType,
			"pages":     thicknessPages,
			"thickness": physics.Thickness(objType, thicknessPages),
			"stackable": physics.CanStackOn(objType),
		})
	},
}

// transcodeCmd converts an audio file to WAV with FFmpeg
var transcodeCmd = &cobra.Command{
	Use:   "transcode [input] [output]",
	Short: "Convert an audio file to 16-bit PCM WAV",
	Long: `Converts input to mono 44.1 kHz PCM WAV with FFmpeg, truncated to
ffmpeg.max_duration, the same way uploaded audio is converted.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		enc := ffmpeg.New(ffmpeg.Options{
			Binary:      cfg.FFmpeg.Binary,
			MaxDuration: cfg.FFmpeg.MaxDuration,
			Timeout:     cfg.FFmpeg.Timeout,
		}, log.New(cfg.Logging.Level))
		if !enc.Available() {
			return ffmpeg.ErrNotFound
		}
		if err := enc.TranscodeFile(cmd.Context(), args[0], args[1]); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), args[1])
		return nil
	},
}

// callCmd sends one request to a running server
var callCmd = &cobra.Command{
	Use:   "call [channel] [json-args]",
	Short: "Call an IPC channel on a running server",
	Long: `Connects to a running desksim server, calls one channel and prints the
response data as JSON. The server address and token come from the config
unless --url is given.

Example:
  desksim call place-object '{"type":"paper","position":[0,0.75,0]}'`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		var callArgs json.RawMessage
		if len(args) == 2 {
			callArgs = json.RawMessage(args[1])
			if !json.Valid(callArgs) {
				return fmt.Errorf("arguments are not valid JSON")
			}
		}

		ccfg := client.DefaultClientConfig()
		ccfg.ServerURL = callURL
		if ccfg.ServerURL == "" {
			ccfg.ServerURL = "ws://" + cfg.Server.ListenAddr + "/ipc"
		}
		ccfg.Token = cfg.Server.AuthToken

		c := client.NewClient(ccfg, nil)
		if err := c.Connect(cmd.Context()); err != nil {
			return err
		}
		defer c.Close()

		var out json.RawMessage
		if err := c.Call(cmd.Context(), args[0], callArgs, &out); err != nil {
			return err
		}
		if len(out) == 0 {
			out = json.RawMessage("null")
		}
		return printJSON(cmd, out)
	},
}

// configCmd prints or writes the effective configuration
var configCmd = &cobra.Command{
	Use:   "config [path]",
	Short: "Print the effective configuration, or write it to path",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 1 {
			return cfg.Save(args[0])
		}
		data, err := yaml.Marshal(cfg)
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

func init() {
	scanCmd.Flags().BoolVar(&scanFlat, "flat", false, "do not descend into subfolders")

	mapCmd.Flags().Float64Var(&mapWidth, "width", 0.28, "surface width in world units")
	mapCmd.Flags().Float64Var(&mapDepth, "depth", 0.4, "surface depth in world units")
	mapCmd.Flags().StringVar(&mapPosition, "position", "0,0,0", "surface centre as x,y,z")
	mapCmd.Flags().Float64Var(&mapYaw, "yaw", 0, "surface yaw in radians")
	mapCmd.Flags().IntVar(&mapResolution, "resolution", 512, "canvas resolution in pixels")

	thicknessCmd.Flags().IntVar(&thicknessPages, "pages", 0, "page count for books and magazines")

	callCmd.Flags().StringVar(&callURL, "url", "", "websocket endpoint, defaults to the configured listen address")
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func parseVec3(s string) (mgl64.Vec3, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return mgl64.Vec3{}, fmt.Errorf("want x,y,z, got %q", s)
	}
	var v mgl64.Vec3
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return mgl64.Vec3{}, fmt.Errorf("bad coordinate %q: %w", p, err)
		}
		v[i] = f
	}
	return v, nil
}
