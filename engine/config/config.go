package config

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Carmen-Shannon/oxy-graph/engine/log"
	"github.com/fsnotify/fsnotify"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// ErrUnsupportedFormat is returned for a path whose extension is not .toml, .yaml or .yml.
var ErrUnsupportedFormat = errors.New("config: unsupported format")

var logger = log.New("config")

// Format is a settings file encoding.
type Format int

const (
	FormatTOML Format = iota
	FormatYAML
)

// FormatOf picks the encoding from the file extension.
//
// Parameters:
//   - path: the settings file path
//
// Returns:
//   - Format: the encoding
//   - error: ErrUnsupportedFormat for an unknown extension
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// Decode decodes data into out. Keys missing from data leave the matching fields of out
// untouched, so out is usually pre-filled with defaults.
func Decode(data []byte, format Format, out any) error {
	switch format {
	case FormatTOML:
		return toml.Unmarshal(data, out)
	case FormatYAML:
		return yaml.Unmarshal(data, out)
	default:
		return ErrUnsupportedFormat
	}
}

// Encode encodes in with the given format.
func Encode(in any, format Format) ([]byte, error) {
	switch format {
	case FormatTOML:
		var buf bytes.Buffer
		enc := toml.NewEncoder(&buf)
		enc.SetIndentTables(true)
		if err := enc.Encode(in); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(in); err != nil {
			return nil, err
		}
		if err := enc.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	default:
		return nil, ErrUnsupportedFormat
	}
}

// Load reads path and decodes it into out, choosing the decoder by extension.
//
// Parameters:
//   - path: a .toml, .yaml or .yml file
//   - out: pointer to the value to fill
//
// Returns:
//   - error: read, format or decode failure
func Load(path string, out any) error {
	format, err := FormatOf(path)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := Decode(data, format, out); err != nil {
		return fmt.Errorf("config: decode %s: %w", path, err)
	}
	return nil
}

// Save encodes in and writes it to path, choosing the encoder by extension.
func Save(path string, in any) error {
	format, err := FormatOf(path)
	if err != nil {
		return err
	}
	data, err := Encode(in, format)
	if err != nil {
		return fmt.Errorf("config: encode %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}

// Watch calls onChange every time path is written or re-created, until ctx is cancelled.
// The parent directory is watched so that editors replacing the file are seen too.
//
// Parameters:
//   - ctx: stops the watcher when done
//   - path: the file to watch
//   - onChange: called from the watcher goroutine; an error is logged and the watch continues
//
// Returns:
//   - error: watcher setup failure
func Watch(ctx context.Context, path string, onChange func() error) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("config: watch %s: %w", path, err)
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("config: watch %s: %w", path, err)
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		watcher.Close()
		return fmt.Errorf("config: watch %s: %w", path, err)
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != abs {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				if err := onChange(); err != nil {
					logger.Warningf("reload %s: %v", path, err)
					continue
				}
				logger.Infof("reloaded %s", path)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warningf("watch %s: %v", path, err)
			}
		}
	}()
	return nil
}
