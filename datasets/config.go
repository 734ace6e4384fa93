package datasets

import (
	"errors"
	"fmt"
	"strings"
)

// Resolution is an image size in pixels.
type Resolution struct {
	Width  int `toml:"width"`
	Height int `toml:"height"`
}

// Pixels returns Width*Height.
func (r Resolution) Pixels() int { return r.Width * r.Height }

func (r Resolution) String() string { return fmt.Sprintf("%dx%d", r.Width, r.Height) }

// Sigma is the per-axis spread of the jaw heatmap, in target pixels.
type Sigma struct {
	X float64 `toml:"x"`
	Y float64 `toml:"y"`
}

// Config holds every tunable of the loader. Start from DefaultConfig and
// override what you need; zero values are filled with defaults by the loader.
type Config struct {
	// Target is the size every image, mask and heatmap is resized to.
	Target Resolution `toml:"target_resolution"`

	// Original is only a hint for the recording resolution. The size of the
	// first decoded image of each experiment takes precedence.
	Original Resolution `toml:"original_resolution"`

	// Delimiter used for keypoint tables when the first data line contains
	// none of ',', ' ' or '\t'. Accepts a literal character or one of
	// "comma", "space", "tab".
	Delimiter string `toml:"csv_delimiter"`

	// HasHeader skips the first line of every keypoint table.
	HasHeader bool `toml:"csv_has_header"`

	// Sigma of the Gaussian heatmap.
	Sigma Sigma `toml:"gaussian_sigma"`

	// Extensions accepted for image files, matched case-insensitively.
	Extensions []string `toml:"image_extensions"`

	ImagesDir  string `toml:"images_dir"`
	LabelsDir  string `toml:"labels_dir"`
	TongueDir  string `toml:"tongue_dir"`
	JawDir     string `toml:"jaw_dir"`

	// SceneToken is stripped from the front of image stems. An empty token
	// is replaced by the default, so every loader run strips "scene" unless
	// another token is configured.
	SceneToken string `toml:"scene_token"`

	// OcclusionMarkers are coordinate values meaning "annotated but occluded".
	OcclusionMarkers []string `toml:"occlusion_markers"`

	// ReturnDense stacks the samples into a DenseBatch after loading.
	ReturnDense bool `toml:"return_dense"`

	// LoadAllImages emits every indexed frame, padding missing labels. When
	// false only frames with a keypoint row (present or occluded) are emitted.
	LoadAllImages bool `toml:"load_all_images"`
}

// DefaultConfig returns the configuration the lab recordings were made for.
func DefaultConfig() Config {
	return Config{
		Target:           Resolution{Width: 256, Height: 256},
		Original:         Resolution{Width: 640, Height: 480},
		Delimiter:        " ",
		HasHeader:        true,
		Sigma:            Sigma{X: 25, Y: 25},
		Extensions:       []string{".png", ".jpg", ".jpeg"},
		ImagesDir:        "images",
		LabelsDir:        "labels",
		TongueDir:        "tongue",
		JawDir:           "jaw",
		SceneToken:       "scene",
		OcclusionMarkers: []string{"nan", "NaN", "NAN", "None", ""},
		ReturnDense:      true,
		LoadAllImages:    true,
	}
}

// Normalize fills zero values with defaults and cleans up extensions.
func (c *Config) Normalize() {
	def := DefaultConfig()
	if c.Target.Width == 0 && c.Target.Height == 0 {
		c.Target = def.Target
	}
	if c.Original.Width == 0 && c.Original.Height == 0 {
		c.Original = def.Original
	}
	if c.Delimiter == "" {
		c.Delimiter = def.Delimiter
	}
	if c.Sigma.X == 0 && c.Sigma.Y == 0 {
		c.Sigma = def.Sigma
	}
	if len(c.Extensions) == 0 {
		c.Extensions = def.Extensions
	}
	if c.ImagesDir == "" {
		c.ImagesDir = def.ImagesDir
	}
	if c.LabelsDir == "" {
		c.LabelsDir = def.LabelsDir
	}
	if c.TongueDir == "" {
		c.TongueDir = def.TongueDir
	}
	if c.JawDir == "" {
		c.JawDir = def.JawDir
	}
	if c.SceneToken == "" {
		c.SceneToken = def.SceneToken
	}
	if c.OcclusionMarkers == nil {
		c.OcclusionMarkers = def.OcclusionMarkers
	}

	exts := make([]string, 0, len(c.Extensions))
	for _, ext := range c.Extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		exts = append(exts, ext)
	}
	c.Extensions = exts
}

// Validate reports configuration values the loader cannot work with.
func (c Config) Validate() error {
	var errs []error
	if c.Target.Width <= 0 || c.Target.Height <= 0 {
		errs = append(errs, fmt.Errorf("target resolution must be positive, got %s", c.Target))
	}
	if c.Original.Width <= 0 || c.Original.Height <= 0 {
		errs = append(errs, fmt.Errorf("original resolution must be positive, got %s", c.Original))
	}
	if c.Sigma.X <= 0 || c.Sigma.Y <= 0 {
		errs = append(errs, fmt.Errorf("gaussian sigma must be positive, got (%g, %g)", c.Sigma.X, c.Sigma.Y))
	}
	if len(c.Extensions) == 0 {
		errs = append(errs, errors.New("at least one image extension is required"))
	}
	if _, err := ParseDelimiter(c.Delimiter); err != nil {
		errs = append(errs, err)
	}
	dirs := []struct{ name, value string }{
		{"images_dir", c.ImagesDir},
		{"labels_dir", c.LabelsDir},
		{"tongue_dir", c.TongueDir},
		{"jaw_dir", c.JawDir},
	}
	for _, d := range dirs {
		if strings.TrimSpace(d.value) == "" {
			errs = append(errs, fmt.Errorf("%s must not be empty", d.name))
		}
	}
	return errors.Join(errs...)
}

func (c Config) keypointOptions() KeypointOptions {
	delim, _ := ParseDelimiter(c.Delimiter)
	return KeypointOptions{
		Default:          delim,
		HasHeader:        c.HasHeader,
		OcclusionMarkers: c.OcclusionMarkers,
	}
}
