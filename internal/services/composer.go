package services

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/yungbote/affirmpost-backend/internal/domain"
	"github.com/yungbote/affirmpost-backend/internal/media"
	"github.com/yungbote/affirmpost-backend/internal/pkg/ctxutil"
	"github.com/yungbote/affirmpost-backend/internal/pkg/logger"
	"github.com/yungbote/affirmpost-backend/internal/profile"
)

// Background music is ducked under the text, not featured.
const musicVolume = 0.3

// Publish floor and fallback clip length when a slotless profile has no
// probeable background duration.
const (
	minReelSeconds     = 3.0
	defaultHoldSeconds = 12.0
)

// ComposerService turns a phrase set plus a profile into publishable media:
// one reel video, or a stack of carousel frames.
type ComposerService interface {
	ComposeReel(ctx context.Context, set domain.AffirmationSet, prof profile.Profile, outDir string) (domain.RenderedMedia, error)
	ComposeCarousel(ctx context.Context, set domain.AffirmationSet, prof profile.Profile, outDir string) ([]string, error)
}

type composerService struct {
	log      *logger.Logger
	renderer media.Renderer
}

func NewComposerService(log *logger.Logger, renderer media.Renderer) (ComposerService, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if renderer == nil {
		return nil, fmt.Errorf("renderer required")
	}
	return &composerService{
		log:      log.With("service", "ComposerService"),
		renderer: renderer,
	}, nil
}

func (s *composerService) ComposeReel(ctx context.Context, set domain.AffirmationSet, prof profile.Profile, outDir string) (domain.RenderedMedia, error) {
	ctx = ctxutil.Default(ctx)

	plan, err := s.buildPlan(ctx, set.Phrases, prof)
	if err != nil {
		return domain.RenderedMedia{}, err
	}

	outPath := filepath.Join(outDir, mediaFileName(set.Theme, prof.Name, ".mp4"))
	req := media.VideoRequest{
		BackgroundPath: prof.BackgroundPath,
		BackgroundKind: media.BackgroundKind(prof.BackgroundKind),
		AudioPath:      prof.AudioPath,
		MusicVolume:    musicVolume,
		Plan:           plan,
		Style:          styleFor(prof),
		OutPath:        outPath,
	}
	rendered, err := s.renderer.ComposeVideo(ctx, req)
	if err != nil {
		return domain.RenderedMedia{}, fmt.Errorf("compose video: %w", err)
	}

	// Publish requirements: at least three seconds, an audio track, and the
	// exact profile canvas. Each guard is a no-op when already satisfied.
	path := rendered.Path
	if path, err = s.renderer.EnsureMinDuration(ctx, path, minReelSeconds); err != nil {
		return domain.RenderedMedia{}, fmt.Errorf("enforce minimum duration: %w", err)
	}
	if path, err = s.renderer.EnsureAudioTrack(ctx, path); err != nil {
		return domain.RenderedMedia{}, fmt.Errorf("enforce audio track: %w", err)
	}
	if path, err = s.renderer.EnsureCanvas(ctx, path, prof.CanvasWidth, prof.CanvasHeight); err != nil {
		return domain.RenderedMedia{}, fmt.Errorf("enforce canvas: %w", err)
	}

	final, err := s.renderer.Probe(ctx, path)
	if err != nil {
		return domain.RenderedMedia{}, fmt.Errorf("probe final video: %w", err)
	}
	s.log.Info("reel composed",
		"profile", prof.Name,
		"path", final.Path,
		"duration_s", final.DurationSeconds,
		"canvas", fmt.Sprintf("%dx%d", final.Width, final.Height))
	return final, nil
}

func (s *composerService) ComposeCarousel(ctx context.Context, set domain.AffirmationSet, prof profile.Profile, outDir string) ([]string, error) {
	ctx = ctxutil.Default(ctx)

	frames := prof.SplitFrames(set.Phrases)
	if len(frames) < 2 {
		return nil, fmt.Errorf("carousel needs at least 2 frames, profile %q split %d phrases into %d", prof.Name, len(set.Phrases), len(frames))
	}

	paths := make([]string, 0, len(frames))
	for i, phrases := range frames {
		plan := media.BuildLayout(phrases, prof.CanvasWidth, prof.CanvasHeight, prof.BandFraction)
		outPath := filepath.Join(outDir, mediaFileName(set.Theme, fmt.Sprintf("%s_%d", prof.Name, i+1), ".jpg"))
		path, err := s.renderer.ComposeImage(ctx, media.ImageRequest{
			BackgroundPath: prof.BackgroundPath,
			Plan:           plan,
			Style:          styleFor(prof),
			OutPath:        outPath,
		})
		if err != nil {
			return nil, fmt.Errorf("compose frame %d: %w", i+1, err)
		}
		paths = append(paths, path)
	}
	s.log.Info("carousel composed", "profile", prof.Name, "frames", len(paths))
	return paths, nil
}

// buildPlan derives row positions and timing from the profile. Slot profiles
// run phrases one at a time with cross-fades; hold profiles pin every phrase
// for the whole clip, sized to the background video.
func (s *composerService) buildPlan(ctx context.Context, phrases []string, prof profile.Profile) (domain.LayoutPlan, error) {
	if prof.DurationMode == profile.DurationSlot {
		return media.BuildSlotTimeline(phrases, prof.CanvasWidth, prof.CanvasHeight, prof.SlotSeconds), nil
	}

	total := defaultHoldSeconds
	if prof.BackgroundKind == "video" {
		info, err := s.renderer.Probe(ctx, prof.BackgroundPath)
		if err != nil {
			return domain.LayoutPlan{}, fmt.Errorf("probe background: %w", err)
		}
		if info.DurationSeconds > 0 {
			total = info.DurationSeconds
		}
	}
	plan := media.BuildLayout(phrases, prof.CanvasWidth, prof.CanvasHeight, prof.BandFraction)
	return media.WithHoldTiming(plan, total), nil
}

func styleFor(prof profile.Profile) media.TextStyle {
	return media.TextStyle{
		FontPath: prof.FontPath,
		FontSize: prof.FontSize,
		Color:    prof.FontColor,
	}
}

func mediaFileName(theme string, variant string, ext string) string {
	slug := strings.ToLower(strings.ReplaceAll(theme, " ", "-"))
	return fmt.Sprintf("%s_%s_%s%s", slug, variant, time.Now().Format("2006-01-02"), ext)
}
