package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and manifest location configuration.
type Paths struct {
	SourceDir       string `toml:"source_dir"`
	PublishDir      string `toml:"publish_dir"`
	PublicManifest  string `toml:"public_manifest"`
	PrivateManifest string `toml:"private_manifest"`
	LogDir          string `toml:"log_dir"`
	HistoryDB       string `toml:"history_db"`
}

// Images contains the rendition matrix and external command settings.
type Images struct {
	Extensions         []string          `toml:"extensions"`
	Widths             []int             `toml:"widths"`
	Quality            int               `toml:"quality"`
	RetinaQuality      int               `toml:"retina_quality"`
	Retina             bool              `toml:"retina"`
	Filters            []string          `toml:"filters"`
	FilterFlags        map[string]string `toml:"filter_flags"`
	CommandTemplate    string            `toml:"command_template"`
	PNGCompressCommand string            `toml:"png_compress_command"`
	Force              bool              `toml:"force"`
	Concurrency        int               `toml:"concurrency"`
	TaskTimeout        int               `toml:"task_timeout"`
	KillOnTimeout      bool              `toml:"kill_on_timeout"`
}

// Dependency names an external binary the pipeline requires before it will
// run, with an optional operator-facing message shown when it is missing.
type Dependency struct {
	Name         string `toml:"name"`
	ErrorMessage string `toml:"error_message"`
}

// Plugin binds an external command to a pipeline lifecycle hook.
type Plugin struct {
	Hook string `toml:"hook"`
	Task string `toml:"task"`
}

// Doc contains configuration for the Google Doc fetch task.
type Doc struct {
	DocumentID string `toml:"document_id"`
	ExportURL  string `toml:"export_url"`
	OutputPath string `toml:"output_path"`
	Timeout    int    `toml:"timeout"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for imagemill.
//
// Configuration sections by subsystem:
//   - Paths: source/publish directories, manifest files, history database
//   - Images: rendition widths, qualities, filters, external command templates
//   - Dependencies: required external binaries
//   - Plugins: external commands bound to lifecycle hooks
//   - Doc: Google Doc download and conversion
//   - Logging: log format and level
type Config struct {
	Paths        Paths        `toml:"paths"`
	Images       Images       `toml:"images"`
	Dependencies []Dependency `toml:"dependencies"`
	Plugins      []Plugin     `toml:"plugins"`
	Doc          Doc          `toml:"doc"`
	Logging      Logging      `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/imagemill/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized. A missing file yields
// repository defaults.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("imagemill.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories a run writes into.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.PublishDir, c.Paths.LogDir}
	for _, target := range []string{c.Paths.PublicManifest, c.Paths.PrivateManifest, c.Paths.HistoryDB, c.Doc.OutputPath} {
		if strings.TrimSpace(target) != "" {
			dirs = append(dirs, filepath.Dir(target))
		}
	}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
