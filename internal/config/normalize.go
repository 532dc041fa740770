package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeImages()
	c.normalizeDependencies()
	if err := c.normalizeDoc(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.SourceDir, err = expandPath(c.Paths.SourceDir); err != nil {
		return fmt.Errorf("paths.source_dir: %w", err)
	}
	if c.Paths.PublishDir, err = expandPath(c.Paths.PublishDir); err != nil {
		return fmt.Errorf("paths.publish_dir: %w", err)
	}
	if c.Paths.PublicManifest, err = expandPath(c.Paths.PublicManifest); err != nil {
		return fmt.Errorf("paths.public_manifest: %w", err)
	}
	if c.Paths.PrivateManifest, err = expandPath(c.Paths.PrivateManifest); err != nil {
		return fmt.Errorf("paths.private_manifest: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.HistoryDB) == "" {
		c.Paths.HistoryDB = defaultHistoryDB
	}
	if c.Paths.HistoryDB, err = expandPath(c.Paths.HistoryDB); err != nil {
		return fmt.Errorf("paths.history_db: %w", err)
	}
	return nil
}

func (c *Config) normalizeImages() {
	cleaned := make([]string, 0, len(c.Images.Extensions))
	for _, ext := range c.Images.Extensions {
		ext = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(ext, ".")))
		if ext == "" {
			continue
		}
		cleaned = append(cleaned, ext)
	}
	if len(cleaned) > 0 {
		c.Images.Extensions = cleaned
	} else {
		c.Images.Extensions = []string{"jpg", "jpeg", "png"}
	}

	if c.Images.Quality <= 0 {
		c.Images.Quality = defaultQuality
	}
	if c.Images.RetinaQuality <= 0 {
		c.Images.RetinaQuality = defaultRetinaQuality
	}
	if c.Images.Concurrency <= 0 {
		c.Images.Concurrency = defaultConcurrency
	}
	if c.Images.TaskTimeout <= 0 {
		c.Images.TaskTimeout = defaultTaskTimeout
	}
	if strings.TrimSpace(c.Images.CommandTemplate) == "" {
		c.Images.CommandTemplate = defaultCommandTemplate
	}
	if strings.TrimSpace(c.Images.PNGCompressCommand) == "" {
		c.Images.PNGCompressCommand = defaultPNGCompress
	}
	if c.Images.FilterFlags == nil {
		c.Images.FilterFlags = defaultFilterFlags()
	}
}

func (c *Config) normalizeDependencies() {
	cleaned := make([]Dependency, 0, len(c.Dependencies))
	for _, dep := range c.Dependencies {
		dep.Name = strings.TrimSpace(dep.Name)
		dep.ErrorMessage = strings.TrimSpace(dep.ErrorMessage)
		if dep.Name == "" {
			continue
		}
		cleaned = append(cleaned, dep)
	}
	c.Dependencies = cleaned
}

func (c *Config) normalizeDoc() error {
	c.Doc.DocumentID = strings.TrimSpace(c.Doc.DocumentID)
	c.Doc.ExportURL = strings.TrimSpace(c.Doc.ExportURL)
	if c.Doc.Timeout <= 0 {
		c.Doc.Timeout = defaultDocTimeout
	}
	if strings.TrimSpace(c.Doc.OutputPath) == "" {
		c.Doc.OutputPath = defaultDocOutputPath
	}
	var err error
	if c.Doc.OutputPath, err = expandPath(c.Doc.OutputPath); err != nil {
		return fmt.Errorf("doc.output_path: %w", err)
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
