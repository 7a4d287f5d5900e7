package media

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/yungbote/affirmpost-backend/internal/pkg/logger"
)

func newRendererForTest(t *testing.T) *renderer {
	t.Helper()
	for _, bin := range []string{"ffmpeg", "ffprobe"} {
		if _, err := exec.LookPath(bin); err != nil {
			t.Skipf("%s not in PATH", bin)
		}
	}
	log, err := logger.New("dev")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	r := NewRenderer(log).(*renderer)
	r.workRoot = t.TempDir()
	return r
}

// makeClip renders a black test clip of the given length, with or without an
// audio track.
func makeClip(t *testing.T, dir string, seconds float64, withAudio bool) string {
	t.Helper()
	out := filepath.Join(dir, fmt.Sprintf("clip_%ss_%t.mp4", formatNum(seconds), withAudio))
	args := []string{
		"-y",
		"-f", "lavfi", "-i", fmt.Sprintf("color=c=black:s=320x240:d=%s:r=30", formatNum(seconds)),
	}
	if withAudio {
		args = append(args,
			"-f", "lavfi", "-t", formatNum(seconds),
			"-i", "anullsrc=channel_layout=stereo:sample_rate=44100",
			"-c:a", "aac",
		)
	}
	args = append(args,
		"-c:v", "libx264", "-pix_fmt", "yuv420p",
		"-t", formatNum(seconds),
		out,
	)
	if raw, err := exec.Command("ffmpeg", args...).CombinedOutput(); err != nil {
		t.Fatalf("ffmpeg test clip: %v; out=%s", err, tail(string(raw), 1000))
	}
	return out
}

func TestEnsureMinDurationPadsShortClip(t *testing.T) {
	r := newRendererForTest(t)
	clip := makeClip(t, t.TempDir(), 1, true)

	out, err := r.EnsureMinDuration(context.Background(), clip, 3.0)
	if err != nil {
		t.Fatalf("ensure min duration: %v", err)
	}
	if out == clip {
		t.Fatal("short clip should be rewritten, not returned as-is")
	}
	info, err := r.Probe(context.Background(), out)
	if err != nil {
		t.Fatalf("probe: %v", err)
	}
	if info.DurationSeconds < 2.9 || info.DurationSeconds > 3.3 {
		t.Fatalf("padded duration: want ~3s got %.3f", info.DurationSeconds)
	}
}

func TestEnsureMinDurationKeepsLongClip(t *testing.T) {
	r := newRendererForTest(t)
	clip := makeClip(t, t.TempDir(), 4, true)

	out, err := r.EnsureMinDuration(context.Background(), clip, 3.0)
	if err != nil {
		t.Fatalf("ensure min duration: %v", err)
	}
	if out != clip {
		t.Fatalf("long clip should pass through unchanged, got %s", out)
	}
}

func TestEnsureAudioTrackAttachesSilence(t *testing.T) {
	r := newRendererForTest(t)
	clip := makeClip(t, t.TempDir(), 2, false)

	before, err := r.Probe(context.Background(), clip)
	if err != nil {
		t.Fatalf("probe source: %v", err)
	}
	if before.HasAudio {
		t.Fatal("test clip unexpectedly has audio")
	}

	out, err := r.EnsureAudioTrack(context.Background(), clip)
	if err != nil {
		t.Fatalf("ensure audio track: %v", err)
	}
	if out == clip {
		t.Fatal("soundless clip should be rewritten, not returned as-is")
	}
	after, err := r.Probe(context.Background(), out)
	if err != nil {
		t.Fatalf("probe: %v", err)
	}
	if !after.HasAudio {
		t.Fatal("rewritten clip still has no audio track")
	}
	if after.DurationSeconds < 1.8 || after.DurationSeconds > 2.3 {
		t.Fatalf("duration drifted: want ~2s got %.3f", after.DurationSeconds)
	}
}

func TestEnsureAudioTrackKeepsExistingAudio(t *testing.T) {
	r := newRendererForTest(t)
	clip := makeClip(t, t.TempDir(), 2, true)

	out, err := r.EnsureAudioTrack(context.Background(), clip)
	if err != nil {
		t.Fatalf("ensure audio track: %v", err)
	}
	if out != clip {
		t.Fatalf("clip with audio should pass through unchanged, got %s", out)
	}
}
