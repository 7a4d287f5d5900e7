package media

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/yungbote/affirmpost-backend/internal/domain"
	"github.com/yungbote/affirmpost-backend/internal/pkg/ctxutil"
)

// Instagram Reels encode settings: H.264 main/4.0, 30fps CFR, AAC-LC stereo,
// faststart for streaming.
func reelsEncodeArgs() []string {
	return []string{
		"-c:v", "libx264",
		"-preset", "medium",
		"-profile:v", "main",
		"-level:v", "4.0",
		"-b:v", "4M",
		"-maxrate", "5M",
		"-bufsize", "5M",
		"-r", "30",
		"-fps_mode", "cfr",
		"-c:a", "aac",
		"-b:a", "128k",
		"-ar", "44100",
		"-ac", "2",
		"-pix_fmt", "yuv420p",
		"-movflags", "+faststart",
	}
}

func (r *renderer) ComposeVideo(ctx context.Context, req VideoRequest) (domain.RenderedMedia, error) {
	ctx = ctxutil.Default(ctx)
	if err := r.AssertReady(ctx); err != nil {
		return domain.RenderedMedia{}, err
	}
	if _, err := os.Stat(req.BackgroundPath); err != nil {
		return domain.RenderedMedia{}, fmt.Errorf("background asset not found at %s: %w", req.BackgroundPath, err)
	}
	if len(req.Plan.Rows) == 0 {
		return domain.RenderedMedia{}, fmt.Errorf("layout plan has no rows")
	}
	if req.Plan.TotalSeconds <= 0 {
		return domain.RenderedMedia{}, fmt.Errorf("layout plan has no duration")
	}
	if req.OutPath == "" {
		return domain.RenderedMedia{}, fmt.Errorf("outPath required")
	}
	if err := os.MkdirAll(filepath.Dir(req.OutPath), 0o755); err != nil {
		return domain.RenderedMedia{}, fmt.Errorf("mkdir outPath dir: %w", err)
	}

	w := req.Plan.CanvasWidth
	h := req.Plan.CanvasHeight
	total := req.Plan.TotalSeconds

	args := []string{"-y"}

	switch req.BackgroundKind {
	case BackgroundImage:
		args = append(args, "-loop", "1", "-t", formatNum(total), "-i", req.BackgroundPath)
	case BackgroundVideo:
		args = append(args, "-i", req.BackgroundPath)
	default:
		return domain.RenderedMedia{}, fmt.Errorf("unknown background kind: %s", req.BackgroundKind)
	}

	hasMusic := strings.TrimSpace(req.AudioPath) != ""
	if hasMusic {
		args = append(args, "-i", req.AudioPath)
	} else {
		args = append(args, "-f", "lavfi", "-t", formatNum(total),
			"-i", "anullsrc=channel_layout=stereo:sample_rate=44100")
	}

	var vf strings.Builder
	vf.WriteString("[0:v]")
	if req.BackgroundKind == BackgroundImage {
		// Still images are stretched to the exact canvas.
		fmt.Fprintf(&vf, "scale=%d:%d:flags=lanczos", w, h)
	} else {
		// Scale to cover, then center-crop. The order matters: cropping first
		// would letterbox.
		fmt.Fprintf(&vf, "scale=%d:%d:force_original_aspect_ratio=increase,crop=%d:%d", w, h, w, h)
	}
	for _, row := range req.Plan.Rows {
		vf.WriteString(",")
		vf.WriteString(drawtextFilter(row, req.Style, total))
	}
	vf.WriteString("[v]")

	volume := req.MusicVolume
	if volume <= 0 {
		volume = 1.0
	}
	audioFilter := fmt.Sprintf("[1:a]volume=%s[aud]", formatNum(volume))

	args = append(args,
		"-filter_complex", vf.String()+";"+audioFilter,
		"-map", "[v]",
		"-map", "[aud]",
		"-t", formatNum(total),
	)
	args = append(args, reelsEncodeArgs()...)
	args = append(args, req.OutPath)

	r.log.Info("Composing video",
		"background", req.BackgroundPath,
		"kind", string(req.BackgroundKind),
		"rows", len(req.Plan.Rows),
		"duration", total,
	)
	if err := r.runFFmpeg(ctx, args); err != nil {
		return domain.RenderedMedia{}, err
	}

	return r.Probe(ctx, req.OutPath)
}

// drawtextFilter renders one layout row as an ffmpeg drawtext filter. The
// text block is centered horizontally and centered vertically on the row
// anchor.
func drawtextFilter(row domain.LayoutRow, style TextStyle, totalSeconds float64) string {
	var b strings.Builder
	b.WriteString("drawtext=")
	if style.FontPath != "" {
		fmt.Fprintf(&b, "fontfile='%s':", escapeDrawtext(style.FontPath))
	}
	color := style.Color
	if color == "" {
		color = "white"
	}
	size := style.FontSize
	if size <= 0 {
		size = 65
	}
	fmt.Fprintf(&b, "text='%s':fontsize=%d:fontcolor=%s", escapeDrawtext(row.Text), int(size), color)
	fmt.Fprintf(&b, ":x=(w-text_w)/2:y=%s-text_h/2", formatNum(row.Y))

	start := row.StartSeconds
	end := row.StartSeconds + row.DurationSeconds
	partial := row.DurationSeconds > 0 && (start > 0 || end < totalSeconds)
	if partial {
		fmt.Fprintf(&b, ":enable='between(t,%s,%s)'", formatNum(start), formatNum(end))
	}
	if alpha := fadeAlphaExpr(row); alpha != "" {
		fmt.Fprintf(&b, ":alpha='%s'", alpha)
	}
	return b.String()
}

// fadeAlphaExpr builds the one-second linear fade expression for a row.
func fadeAlphaExpr(row domain.LayoutRow) string {
	if !row.FadeIn && !row.FadeOut {
		return ""
	}
	start := row.StartSeconds
	end := row.StartSeconds + row.DurationSeconds

	in := "1"
	if row.FadeIn {
		in = fmt.Sprintf("if(lt(t,%s),(t-%s)/%s,1)",
			formatNum(start+fadeSeconds), formatNum(start), formatNum(fadeSeconds))
	}
	if !row.FadeOut {
		return in
	}
	return fmt.Sprintf("if(gt(t,%s),(%s-t)/%s,%s)",
		formatNum(end-fadeSeconds), formatNum(end), formatNum(fadeSeconds), in)
}

func escapeDrawtext(s string) string {
	r := strings.NewReplacer(
		`\`, `\\`,
		`'`, `\\\'`,
		`:`, `\:`,
		`%`, `\%`,
	)
	return r.Replace(s)
}

func formatNum(v float64) string {
	s := fmt.Sprintf("%.3f", v)
	s = strings.TrimRight(s, "0")
	return strings.TrimRight(s, ".")
}

func (r *renderer) EnsureMinDuration(ctx context.Context, path string, minSeconds float64) (string, error) {
	ctx = ctxutil.Default(ctx)
	info, err := r.Probe(ctx, path)
	if err != nil {
		return "", err
	}
	if info.DurationSeconds >= minSeconds-0.01 {
		return path, nil
	}

	r.log.Warn("Video shorter than platform minimum, extending",
		"path", path, "duration", info.DurationSeconds, "min", minSeconds)

	pad := minSeconds - info.DurationSeconds
	out := r.tempPath(".mp4")
	args := []string{
		"-y", "-i", path,
		"-vf", fmt.Sprintf("tpad=stop_mode=clone:stop_duration=%s", formatNum(pad)),
		"-af", fmt.Sprintf("apad=pad_dur=%s", formatNum(pad)),
		"-t", formatNum(minSeconds),
	}
	args = append(args, reelsEncodeArgs()...)
	args = append(args, out)
	if err := r.runFFmpeg(ctx, args); err != nil {
		return "", err
	}
	return out, nil
}

func (r *renderer) EnsureAudioTrack(ctx context.Context, path string) (string, error) {
	ctx = ctxutil.Default(ctx)
	info, err := r.Probe(ctx, path)
	if err != nil {
		return "", err
	}
	if info.HasAudio {
		return path, nil
	}

	r.log.Warn("Video has no audio, attaching silent track", "path", path)

	out := r.tempPath(".mp4")
	args := []string{
		"-y", "-i", path,
		"-f", "lavfi", "-t", formatNum(info.DurationSeconds),
		"-i", "anullsrc=channel_layout=stereo:sample_rate=44100",
		"-c:v", "copy",
		"-c:a", "aac", "-b:a", "128k",
		"-shortest",
		out,
	}
	if err := r.runFFmpeg(ctx, args); err != nil {
		return "", err
	}
	return out, nil
}

func (r *renderer) EnsureCanvas(ctx context.Context, path string, width, height int) (string, error) {
	ctx = ctxutil.Default(ctx)
	info, err := r.Probe(ctx, path)
	if err != nil {
		return "", err
	}
	if info.Width == width && info.Height == height {
		return path, nil
	}

	r.log.Warn("Video canvas mismatch, resizing",
		"path", path, "got_w", info.Width, "got_h", info.Height, "want_w", width, "want_h", height)

	out := r.tempPath(".mp4")
	args := []string{
		"-y", "-i", path,
		"-vf", fmt.Sprintf("scale=%d:%d", width, height),
	}
	args = append(args, reelsEncodeArgs()...)
	args = append(args, out)
	if err := r.runFFmpeg(ctx, args); err != nil {
		return "", err
	}
	return out, nil
}
