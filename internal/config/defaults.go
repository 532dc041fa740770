package config

const (
	defaultSourceDir       = "~/site/assets/images"
	defaultPublishDir      = "~/site/public/images"
	defaultPublicManifest  = "~/site/data/images.json"
	defaultPrivateManifest = "~/site/data/images-private.json"
	defaultLogDir          = "~/.local/share/imagemill/logs"
	defaultHistoryDB       = "~/.local/share/imagemill/history.db"
	defaultQuality         = 82
	defaultRetinaQuality   = 55
	defaultConcurrency     = 4
	defaultTaskTimeout     = 600
	defaultCommandTemplate = "magick {in} -resize {width} -quality {quality} {filters} {out}"
	defaultPNGCompress     = "pngquant --force --skip-if-larger --output {out} {in}"
	defaultDocOutputPath   = "~/site/data/doc.json"
	defaultDocTimeout      = 60
	defaultLogFormat       = "console"
	defaultLogLevel        = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			SourceDir:       defaultSourceDir,
			PublishDir:      defaultPublishDir,
			PublicManifest:  defaultPublicManifest,
			PrivateManifest: defaultPrivateManifest,
			LogDir:          defaultLogDir,
			HistoryDB:       defaultHistoryDB,
		},
		Images: Images{
			Extensions:         []string{"jpg", "jpeg", "png"},
			Widths:             []int{320, 640, 1024, 1600},
			Quality:            defaultQuality,
			RetinaQuality:      defaultRetinaQuality,
			Retina:             true,
			Filters:            []string{"strip"},
			FilterFlags:        defaultFilterFlags(),
			CommandTemplate:    defaultCommandTemplate,
			PNGCompressCommand: defaultPNGCompress,
			Concurrency:        defaultConcurrency,
			TaskTimeout:        defaultTaskTimeout,
			KillOnTimeout:      true,
		},
		Dependencies: []Dependency{
			{Name: "magick", ErrorMessage: "install ImageMagick 7 from https://imagemagick.org"},
			{Name: "pngquant"},
		},
		Doc: Doc{
			OutputPath: defaultDocOutputPath,
			Timeout:    defaultDocTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}

func defaultFilterFlags() map[string]string {
	return map[string]string{
		"strip":     "-strip",
		"interlace": "-interlace Plane",
		"sharpen":   "-unsharp 0x0.75+0.75+0.008",
	}
}
