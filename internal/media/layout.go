package media

import (
	"github.com/yungbote/affirmpost-backend/internal/domain"
)

// fade duration for staggered rows, in seconds.
const fadeSeconds = 1.0

// BuildLayout distributes phrases over a vertical band covering bandFrac of
// the canvas height. The band is split into len(phrases)+1 equal gaps and
// each phrase is anchored at a gap boundary; renderers center the text block
// on the anchor. Rows carry no timing: they stay on screen for the whole
// clip.
func BuildLayout(phrases []string, canvasW, canvasH int, bandFrac float64) domain.LayoutPlan {
	band := float64(canvasH) * bandFrac
	spacing := band / float64(len(phrases)+1)
	startY := (float64(canvasH) - band) / 2

	rows := make([]domain.LayoutRow, 0, len(phrases))
	for i, text := range phrases {
		rows = append(rows, domain.LayoutRow{
			Text: text,
			Y:    startY + spacing*float64(i+1),
		})
	}
	return domain.LayoutPlan{
		CanvasWidth:  canvasW,
		CanvasHeight: canvasH,
		Rows:         rows,
	}
}

// WithHoldTiming pins every row to the full clip duration.
func WithHoldTiming(plan domain.LayoutPlan, totalSeconds float64) domain.LayoutPlan {
	for i := range plan.Rows {
		plan.Rows[i].StartSeconds = 0
		plan.Rows[i].DurationSeconds = totalSeconds
	}
	plan.TotalSeconds = totalSeconds
	return plan
}

// BuildSlotTimeline builds the slideshow-style plan: each phrase is centered
// on the canvas and visible only during its own slot, cross-fading over one
// second. The first phrase skips the fade-in so the video does not open on an
// empty frame.
func BuildSlotTimeline(phrases []string, canvasW, canvasH int, slotSeconds float64) domain.LayoutPlan {
	rows := make([]domain.LayoutRow, 0, len(phrases))
	for i, text := range phrases {
		rows = append(rows, domain.LayoutRow{
			Text:            text,
			Y:               float64(canvasH) / 2,
			StartSeconds:    float64(i) * slotSeconds,
			DurationSeconds: slotSeconds,
			FadeIn:          i != 0,
			FadeOut:         true,
		})
	}
	return domain.LayoutPlan{
		CanvasWidth:  canvasW,
		CanvasHeight: canvasH,
		Rows:         rows,
		TotalSeconds: slotSeconds * float64(len(phrases)),
	}
}
