package media

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/yungbote/affirmpost-backend/internal/domain"
	"github.com/yungbote/affirmpost-backend/internal/pkg/ctxutil"
	"github.com/yungbote/affirmpost-backend/internal/pkg/logger"
)

// BackgroundKind distinguishes still-image from video backgrounds; they go
// through different scale paths.
type BackgroundKind string

const (
	BackgroundImage BackgroundKind = "image"
	BackgroundVideo BackgroundKind = "video"
)

// TextStyle is the drawtext/gg styling shared by video and image renders.
type TextStyle struct {
	FontPath string
	FontSize float64
	Color    string // "white" or "black"
}

// VideoRequest describes one video composition.
type VideoRequest struct {
	BackgroundPath string
	BackgroundKind BackgroundKind
	AudioPath      string // empty means silent track
	MusicVolume    float64
	Plan           domain.LayoutPlan
	Style          TextStyle
	OutPath        string
}

// ImageRequest describes one still-image composition (carousel frame).
type ImageRequest struct {
	BackgroundPath string
	Plan           domain.LayoutPlan
	Style          TextStyle
	OutPath        string
}

// Renderer is the glue around ffmpeg/ffprobe plus the in-process image
// compositor. Synchronous and deterministic; call it from the pipeline, not
// from request handlers.
//
// REQUIRED BINARIES in runtime: ffmpeg, ffprobe.
type Renderer interface {
	AssertReady(ctx context.Context) error

	ComposeVideo(ctx context.Context, req VideoRequest) (domain.RenderedMedia, error)
	ComposeImage(ctx context.Context, req ImageRequest) (string, error)
	Probe(ctx context.Context, path string) (domain.RenderedMedia, error)

	// Post-render invariant guards. Each returns the path of the fixed file
	// (which may be the input path when nothing needed fixing).
	EnsureMinDuration(ctx context.Context, path string, minSeconds float64) (string, error)
	EnsureAudioTrack(ctx context.Context, path string) (string, error)
	EnsureCanvas(ctx context.Context, path string, width, height int) (string, error)
}

type renderer struct {
	log *logger.Logger

	ffmpegPath  string
	ffprobePath string
	workRoot    string

	defaultTimeout time.Duration
}

func NewRenderer(log *logger.Logger) Renderer {
	return &renderer{
		log:            log.With("service", "Renderer"),
		ffmpegPath:     "ffmpeg",
		ffprobePath:    "ffprobe",
		workRoot:       "/tmp/affirmpost-media",
		defaultTimeout: 10 * time.Minute,
	}
}

func (r *renderer) AssertReady(ctx context.Context) error {
	ctx = ctxutil.Default(ctx)
	for _, bin := range []string{r.ffmpegPath, r.ffprobePath} {
		if _, err := exec.LookPath(bin); err != nil {
			return fmt.Errorf("missing required binary %q in PATH: %w", bin, err)
		}
	}
	if err := os.MkdirAll(r.workRoot, 0o755); err != nil {
		return fmt.Errorf("create workRoot: %w", err)
	}
	return nil
}

func (r *renderer) runFFmpeg(ctx context.Context, args []string) error {
	ctx, cancel := context.WithTimeout(ctx, r.defaultTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, r.ffmpegPath, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("ffmpeg failed: %w; out=%s", err, tail(string(out), 2000))
	}
	return nil
}

// tail keeps ffmpeg error output readable in wrapped errors.
func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return "..." + s[len(s)-n:]
}

func (r *renderer) tempPath(suffix string) string {
	return filepath.Join(r.workRoot, fmt.Sprintf("work_%d%s", time.Now().UnixNano(), suffix))
}
