package profile

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/affirmpost-backend/internal/pkg/logger"
)

// DurationMode controls how row timing is derived for a video profile.
type DurationMode string

const (
	// DurationHold keeps every phrase on screen for the full clip; the clip
	// length follows the background video (or audio, whichever is probed).
	DurationHold DurationMode = "hold"
	// DurationSlot gives each phrase its own fixed slot and the clip runs
	// slot_seconds * phrase_count.
	DurationSlot DurationMode = "slot"
)

// PostFormat selects the publish path.
type PostFormat string

const (
	FormatReel     PostFormat = "reel"
	FormatCarousel PostFormat = "carousel"
)

// Profile describes one end-to-end pipeline variant: what background it
// composes over, how long the clip runs, how many phrases it asks for and
// how it ships them out.
type Profile struct {
	Name           string       `yaml:"name"`
	BackgroundKind string       `yaml:"background_kind"` // "image" or "video"
	BackgroundPath string       `yaml:"background_path"`
	AudioPath      string       `yaml:"audio_path"`
	CanvasWidth    int          `yaml:"canvas_width"`
	CanvasHeight   int          `yaml:"canvas_height"`
	DurationMode   DurationMode `yaml:"duration_mode"`
	SlotSeconds    float64      `yaml:"slot_seconds"`
	PhraseCount    int          `yaml:"phrase_count"`
	// MaxPhraseLength trims over-long phrases before layout; zero disables.
	MaxPhraseLength int        `yaml:"max_phrase_length"`
	BandFraction    float64    `yaml:"band_fraction"`
	PostFormat      PostFormat `yaml:"post_format"`
	// FrameSplit carves phrases into carousel frames; the last frame takes
	// any remainder. Ignored for reels.
	FrameSplit []int   `yaml:"frame_split"`
	FontPath   string  `yaml:"font_path"`
	FontSize   float64 `yaml:"font_size"`
	FontColor  string  `yaml:"font_color"` // "white" or "black"
}

// Validate checks the fields the composer and publisher depend on.
func (p Profile) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("profile has no name")
	}
	if p.BackgroundKind != "image" && p.BackgroundKind != "video" {
		return fmt.Errorf("profile %q: background_kind must be image or video, got %q", p.Name, p.BackgroundKind)
	}
	if p.BackgroundPath == "" {
		return fmt.Errorf("profile %q: background_path is required", p.Name)
	}
	if p.CanvasWidth <= 0 || p.CanvasHeight <= 0 {
		return fmt.Errorf("profile %q: canvas %dx%d is invalid", p.Name, p.CanvasWidth, p.CanvasHeight)
	}
	if p.PhraseCount <= 0 {
		return fmt.Errorf("profile %q: phrase_count must be positive", p.Name)
	}
	if p.BandFraction <= 0 || p.BandFraction > 1 {
		return fmt.Errorf("profile %q: band_fraction %f outside (0,1]", p.Name, p.BandFraction)
	}
	switch p.PostFormat {
	case FormatReel:
		switch p.DurationMode {
		case DurationHold:
		case DurationSlot:
			if p.SlotSeconds <= 0 {
				return fmt.Errorf("profile %q: slot mode needs positive slot_seconds", p.Name)
			}
		default:
			return fmt.Errorf("profile %q: unknown duration_mode %q", p.Name, p.DurationMode)
		}
	case FormatCarousel:
		if len(p.FrameSplit) == 0 {
			return fmt.Errorf("profile %q: carousel needs frame_split", p.Name)
		}
		total := 0
		for _, n := range p.FrameSplit {
			if n <= 0 {
				return fmt.Errorf("profile %q: frame_split entries must be positive", p.Name)
			}
			total += n
		}
		if total > p.PhraseCount {
			return fmt.Errorf("profile %q: frame_split wants %d phrases, profile generates %d", p.Name, total, p.PhraseCount)
		}
	default:
		return fmt.Errorf("profile %q: unknown post_format %q", p.Name, p.PostFormat)
	}
	return nil
}

// SplitFrames partitions phrases per FrameSplit. The last frame absorbs any
// phrases left over after the declared splits.
func (p Profile) SplitFrames(phrases []string) [][]string {
	frames := make([][]string, 0, len(p.FrameSplit))
	idx := 0
	for i, n := range p.FrameSplit {
		if idx >= len(phrases) {
			break
		}
		end := idx + n
		if end > len(phrases) || i == len(p.FrameSplit)-1 {
			end = len(phrases)
		}
		frames = append(frames, phrases[idx:end])
		idx = end
	}
	return frames
}

const (
	defaultFontVariable = "assets/fonts/Playfair_Display/PlayfairDisplay-VariableFont_wght.ttf"
	defaultFontRegular  = "assets/fonts/Playfair_Display/static/PlayfairDisplay-Regular.ttf"
)

// Builtins returns the shipped profiles. Each one reproduces a pipeline
// variant that used to be its own script.
func Builtins() map[string]Profile {
	profiles := []Profile{
		{
			Name:           "classic",
			BackgroundKind: "image",
			BackgroundPath: "assets/Iphone_Affirmation_Background.jpg",
			AudioPath:      "assets/background_music_ambient.mp3",
			CanvasWidth:    1080,
			CanvasHeight:   1920,
			DurationMode:   DurationSlot,
			SlotSeconds:    6,
			PhraseCount:    5,
			BandFraction:   0.7,
			PostFormat:     FormatReel,
			FontPath:       defaultFontVariable,
			FontSize:       75,
			FontColor:      "white",
		},
		{
			Name:            "overlay",
			BackgroundKind:  "video",
			BackgroundPath:  "assets/dark_sunrise.mov",
			AudioPath:       "assets/background_music_ambient.mp3",
			CanvasWidth:     1080,
			CanvasHeight:    1920,
			DurationMode:    DurationHold,
			PhraseCount:     5,
			MaxPhraseLength: 30,
			BandFraction:    0.7,
			PostFormat:      FormatReel,
			FontPath:        defaultFontRegular,
			FontSize:        65,
			FontColor:       "white",
		},
		{
			Name:            "sunset",
			BackgroundKind:  "video",
			BackgroundPath:  "assets/12-sec_sunset_dark.mov",
			AudioPath:       "assets/relaxing_pads-12sec.mp3",
			CanvasWidth:     1080,
			CanvasHeight:    1920,
			DurationMode:    DurationHold,
			PhraseCount:     5,
			MaxPhraseLength: 35,
			BandFraction:    0.7,
			PostFormat:      FormatReel,
			FontPath:        defaultFontRegular,
			FontSize:        65,
			FontColor:       "white",
		},
		{
			Name:            "dark-sunset-12s",
			BackgroundKind:  "video",
			BackgroundPath:  "assets/12-sec_sunset_dark.mov",
			AudioPath:       "assets/relaxing_pads-12sec.mp3",
			CanvasWidth:     1080,
			CanvasHeight:    1920,
			DurationMode:    DurationHold,
			PhraseCount:     5,
			MaxPhraseLength: 30,
			BandFraction:    0.7,
			PostFormat:      FormatReel,
			FontPath:        defaultFontRegular,
			FontSize:        65,
			FontColor:       "white",
		},
		{
			Name:            "dark-sunset-5s",
			BackgroundKind:  "video",
			BackgroundPath:  "assets/dark_sunrise.mov",
			AudioPath:       "assets/background_music_ambient.mp3",
			CanvasWidth:     1080,
			CanvasHeight:    1920,
			DurationMode:    DurationHold,
			PhraseCount:     5,
			MaxPhraseLength: 30,
			BandFraction:    0.7,
			PostFormat:      FormatReel,
			FontPath:        defaultFontRegular,
			FontSize:        65,
			FontColor:       "white",
		},
		{
			Name:            "swipeable",
			BackgroundKind:  "image",
			BackgroundPath:  "assets/iphone_affirmation_background.jpg",
			CanvasWidth:     1080,
			CanvasHeight:    1350,
			PhraseCount:     6,
			MaxPhraseLength: 30,
			BandFraction:    0.8,
			PostFormat:      FormatCarousel,
			FrameSplit:      []int{3, 3},
			FontPath:        defaultFontRegular,
			FontSize:        65,
			FontColor:       "black",
		},
	}

	out := make(map[string]Profile, len(profiles))
	for _, p := range profiles {
		out[p.Name] = p
	}
	return out
}

// Registry resolves profile names for the pipeline. It starts from the
// builtins and optionally merges overrides from a YAML file.
type Registry interface {
	Get(name string) (Profile, error)
	Names() []string
}

type registry struct {
	log      *logger.Logger
	profiles map[string]Profile
}

// NewRegistry builds the profile registry. When PROFILES_PATH is set the
// file's profiles are loaded on top of the builtins, so a profile with a
// builtin name replaces it wholesale.
func NewRegistry(log *logger.Logger) (Registry, error) {
	log = log.With("service", "profile_registry")
	profiles := Builtins()

	if path := os.Getenv("PROFILES_PATH"); path != "" {
		loaded, err := LoadFile(path)
		if err != nil {
			return nil, fmt.Errorf("load profiles from %s: %w", path, err)
		}
		for name, p := range loaded {
			profiles[name] = p
		}
		log.Info("loaded profile overrides", "path", path, "count", len(loaded))
	}

	for name, p := range profiles {
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("profile %s: %w", name, err)
		}
	}
	return &registry{log: log, profiles: profiles}, nil
}

func (r *registry) Get(name string) (Profile, error) {
	p, ok := r.profiles[name]
	if !ok {
		return Profile{}, fmt.Errorf("unknown profile %q", name)
	}
	return p, nil
}

func (r *registry) Names() []string {
	names := make([]string, 0, len(r.profiles))
	for name := range r.profiles {
		names = append(names, name)
	}
	return names
}

// LoadFile reads profiles from a YAML document of the form:
//
//	profiles:
//	  - name: my-variant
//	    background_kind: video
//	    ...
func LoadFile(path string) (map[string]Profile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profiles file: %w", err)
	}
	var doc struct {
		Profiles []Profile `yaml:"profiles"`
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse profiles file: %w", err)
	}
	out := make(map[string]Profile, len(doc.Profiles))
	for _, p := range doc.Profiles {
		if p.Name == "" {
			return nil, fmt.Errorf("profiles file %s: entry without a name", path)
		}
		out[p.Name] = p
	}
	return out, nil
}
