// Package renditions expands the configured width/retina matrix into
// concrete output files and renders the external command strings that
// produce them.
package renditions

import (
	"fmt"
	"strconv"
	"strings"

	"imagemill/internal/config"
)

// Rendition is one cell of the output matrix: a display width, whether it
// is the retina (2x) variant, and the quality the encoder should use.
type Rendition struct {
	Width   int
	Retina  bool
	Quality int
}

// PixelWidth is the actual raster width: doubled for retina variants.
func (r Rendition) PixelWidth() int {
	if r.Retina {
		return r.Width * 2
	}
	return r.Width
}

// OutputName returns the published file name, e.g. "hero-640.jpg" or
// "hero-640@2x.jpg".
func (r Rendition) OutputName(slug, ext string) string {
	if r.Retina {
		return fmt.Sprintf("%s-%d@2x.%s", slug, r.Width, ext)
	}
	return fmt.Sprintf("%s-%d.%s", slug, r.Width, ext)
}

// Matrix expands the configured widths into renditions, adding a retina
// variant per width when enabled. Order is widths ascending as configured,
// standard before retina within each width.
func Matrix(images config.Images) []Rendition {
	out := make([]Rendition, 0, len(images.Widths)*2)
	for _, width := range images.Widths {
		out = append(out, Rendition{Width: width, Quality: images.Quality})
		if images.Retina {
			out = append(out, Rendition{Width: width, Retina: true, Quality: images.RetinaQuality})
		}
	}
	return out
}

// Builder renders command strings from the configured templates.
type Builder struct {
	images config.Images
}

// NewBuilder constructs a Builder over the image settings.
func NewBuilder(images config.Images) Builder {
	return Builder{images: images}
}

// FilterFlags resolves the requested filter names through the filter table
// and space-joins the flag strings. Unknown names fail; validation should
// have caught them at load time.
func (b Builder) FilterFlags() (string, error) {
	flags := make([]string, 0, len(b.images.Filters))
	for _, name := range b.images.Filters {
		flag, ok := b.images.FilterFlags[name]
		if !ok {
			return "", fmt.Errorf("unknown filter %q", name)
		}
		flags = append(flags, flag)
	}
	return strings.Join(flags, " "), nil
}

// ResizeCommand renders the main command template for one rendition.
func (b Builder) ResizeCommand(inPath, outPath string, r Rendition) (string, error) {
	filters, err := b.FilterFlags()
	if err != nil {
		return "", err
	}
	cmd := b.images.CommandTemplate
	cmd = strings.ReplaceAll(cmd, "{width}", strconv.Itoa(r.PixelWidth()))
	cmd = strings.ReplaceAll(cmd, "{quality}", strconv.Itoa(r.Quality))
	cmd = strings.ReplaceAll(cmd, "{filters}", filters)
	// Collapse template whitespace (an empty {filters} leaves a gap) before
	// paths are substituted, so whitespace inside quoted paths survives.
	cmd = strings.Join(strings.Fields(cmd), " ")
	cmd = strings.ReplaceAll(cmd, "{in}", quoteArg(inPath))
	cmd = strings.ReplaceAll(cmd, "{out}", quoteArg(outPath))
	return cmd, nil
}

// CompressCommand renders the lossy-PNG compressor template against an
// already-written rendition, which it rewrites in place.
func (b Builder) CompressCommand(path string) string {
	cmd := strings.Join(strings.Fields(b.images.PNGCompressCommand), " ")
	cmd = strings.ReplaceAll(cmd, "{in}", quoteArg(path))
	cmd = strings.ReplaceAll(cmd, "{out}", quoteArg(path))
	return cmd
}

// CropMetadata reports the crop flag string when a filter named "crop" is
// requested, empty otherwise. Published in the public manifest.
func (b Builder) CropMetadata() string {
	for _, name := range b.images.Filters {
		if name == "crop" {
			return b.images.FilterFlags[name]
		}
	}
	return ""
}

func quoteArg(path string) string {
	if strings.ContainsAny(path, " \t'\"") {
		return strconv.Quote(path)
	}
	return path
}
