// Package media provides the host side of the desk's audio and note
// objects: the cassette player's music library, dictaphone recordings and
// markdown notes.
package media

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

var (
	ErrFolderNotFound = errors.New("folder not found")
	ErrFileNotFound   = errors.New("file not found")
)

// AudioExtensions lists the file extensions the cassette player can play.
var AudioExtensions = []string{".mp3", ".wav", ".ogg", ".flac", ".aac", ".m4a", ".webm", ".opus"}

var mimeTypes = map[string]string{
	".mp3":  "audio/mpeg",
	".wav":  "audio/wav",
	".ogg":  "audio/ogg",
	".flac": "audio/flac",
	".aac":  "audio/aac",
	".m4a":  "audio/mp4",
	".webm": "audio/webm",
	".opus": "audio/opus",
}

const defaultMIMEType = "audio/mpeg"

// AudioFile is one playable file. Name is the display name: the base name
// without extension, prefixed by its folder relative to the scan root.
type AudioFile struct {
	Name     string `json:"name"`
	FullName string `json:"fullName"`
	Path     string `json:"path"`
}

// IsAudio reports whether name has a supported extension (case-insensitive).
func IsAudio(name string) bool {
	return slices.Contains(AudioExtensions, strings.ToLower(filepath.Ext(name)))
}

// MIMEType returns the MIME type for path, audio/mpeg when unknown.
func MIMEType(path string) string {
	if t, ok := mimeTypes[strings.ToLower(filepath.Ext(path))]; ok {
		return t
	}
	return defaultMIMEType
}

// Scan lists the audio files in folder sorted by display name. With
// recursive set, subfolders are included and unreadable subfolders skipped.
func Scan(folder string, recursive bool) ([]AudioFile, error) {
	info, err := os.Stat(folder)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrFolderNotFound, folder)
	}

	var files []AudioFile
	if recursive {
		files, err = scanRecursive(folder)
	} else {
		files, err = scanFlat(folder)
	}
	if err != nil {
		return nil, err
	}

	c := collate.New(language.Und)
	slices.SortStableFunc(files, func(a, b AudioFile) int {
		return c.CompareString(a.Name, b.Name)
	})
	return files, nil
}

func scanFlat(folder string) ([]AudioFile, error) {
	entries, err := os.ReadDir(folder)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", folder, err)
	}
	files := make([]AudioFile, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !IsAudio(e.Name()) {
			continue
		}
		files = append(files, newAudioFile(folder, "", e.Name()))
	}
	return files, nil
}

func scanRecursive(root string) ([]AudioFile, error) {
	var files []AudioFile
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() || !d.Type().IsRegular() || !IsAudio(d.Name()) {
			return nil
		}
		dir := filepath.Dir(path)
		rel, err := filepath.Rel(root, dir)
		if err != nil || rel == "." {
			rel = ""
		}
		files = append(files, newAudioFile(dir, filepath.ToSlash(rel), d.Name()))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}
	return files, nil
}

func newAudioFile(dir, rel, fullName string) AudioFile {
	name := strings.TrimSuffix(fullName, filepath.Ext(fullName))
	if rel != "" {
		name = rel + "/" + name
	}
	return AudioFile{Name: name, FullName: fullName, Path: filepath.Join(dir, fullName)}
}

// ReadDataURL reads an audio file as a base64 data URL.
func ReadDataURL(path string) (string, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("%w: %s", ErrFileNotFound, path)
	}
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return "data:" + MIMEType(path) + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}
