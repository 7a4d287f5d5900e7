package media

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/yungbote/affirmpost-backend/internal/domain"
	"github.com/yungbote/affirmpost-backend/internal/pkg/ctxutil"
)

type ffprobeOutput struct {
	Streams []struct {
		CodecType string `json:"codec_type"`
		Width     int    `json:"width"`
		Height    int    `json:"height"`
	} `json:"streams"`
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

func (r *renderer) Probe(ctx context.Context, path string) (domain.RenderedMedia, error) {
	ctx = ctxutil.Default(ctx)
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, r.ffprobePath,
		"-v", "error",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return domain.RenderedMedia{}, fmt.Errorf("ffprobe failed for %s: %w; out=%s", path, err, tail(string(out), 1000))
	}

	var probed ffprobeOutput
	if err := json.Unmarshal(out, &probed); err != nil {
		return domain.RenderedMedia{}, fmt.Errorf("ffprobe decode error: %w", err)
	}

	info := domain.RenderedMedia{Path: path}
	for _, s := range probed.Streams {
		switch s.CodecType {
		case "video":
			if s.Width > 0 {
				info.Width = s.Width
				info.Height = s.Height
			}
		case "audio":
			info.HasAudio = true
		}
	}
	if d := strings.TrimSpace(probed.Format.Duration); d != "" {
		if secs, perr := strconv.ParseFloat(d, 64); perr == nil {
			info.DurationSeconds = secs
		}
	}
	return info, nil
}
