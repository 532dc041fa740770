package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateImages(); err != nil {
		return err
	}
	if err := c.validateDoc(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.SourceDir) == "" {
		return errors.New("paths.source_dir must be set")
	}
	if strings.TrimSpace(c.Paths.PublishDir) == "" {
		return errors.New("paths.publish_dir must be set")
	}
	if strings.TrimSpace(c.Paths.PublicManifest) == "" {
		return errors.New("paths.public_manifest must be set")
	}
	if strings.TrimSpace(c.Paths.PrivateManifest) == "" {
		return errors.New("paths.private_manifest must be set")
	}
	if c.Paths.PublicManifest == c.Paths.PrivateManifest {
		return errors.New("paths.public_manifest and paths.private_manifest must differ")
	}
	return nil
}

func (c *Config) validateImages() error {
	if len(c.Images.Widths) == 0 {
		return errors.New("images.widths must list at least one width")
	}
	for _, width := range c.Images.Widths {
		if width <= 0 {
			return fmt.Errorf("images.widths entries must be positive, got %d", width)
		}
	}
	if c.Images.Quality > 100 {
		return fmt.Errorf("images.quality must be at most 100, got %d", c.Images.Quality)
	}
	if c.Images.RetinaQuality > 100 {
		return fmt.Errorf("images.retina_quality must be at most 100, got %d", c.Images.RetinaQuality)
	}
	for _, name := range c.Images.Filters {
		if _, ok := c.Images.FilterFlags[name]; !ok {
			return fmt.Errorf("images.filters references unknown filter %q", name)
		}
	}
	if !strings.Contains(c.Images.CommandTemplate, "{in}") || !strings.Contains(c.Images.CommandTemplate, "{out}") {
		return errors.New("images.command_template must contain {in} and {out} placeholders")
	}
	return nil
}

func (c *Config) validateDoc() error {
	if c.Doc.DocumentID != "" && c.Doc.ExportURL != "" {
		return errors.New("set only one of doc.document_id and doc.export_url")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}
