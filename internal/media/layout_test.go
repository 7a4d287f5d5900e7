package media

import (
	"math"
	"testing"
)

func TestBuildLayoutDistributesEvenly(t *testing.T) {
	phrases := []string{"one", "two", "three", "four", "five"}
	plan := BuildLayout(phrases, 1080, 1920, 0.7)

	if len(plan.Rows) != len(phrases) {
		t.Fatalf("rows: want=%d got=%d", len(phrases), len(plan.Rows))
	}
	for i, row := range plan.Rows {
		if row.Text != phrases[i] {
			t.Fatalf("row %d text: want=%q got=%q", i, phrases[i], row.Text)
		}
	}

	lo := 1920.0 * 0.1
	hi := 1920.0 * 0.9
	var prev float64
	for i, row := range plan.Rows {
		if row.Y < lo || row.Y > hi {
			t.Fatalf("row %d anchor %f outside [%f,%f]", i, row.Y, lo, hi)
		}
		if i > 0 && row.Y <= prev {
			t.Fatalf("row %d anchor %f not strictly below previous %f", i, row.Y, prev)
		}
		prev = row.Y
	}

	spacing := plan.Rows[1].Y - plan.Rows[0].Y
	for i := 2; i < len(plan.Rows); i++ {
		got := plan.Rows[i].Y - plan.Rows[i-1].Y
		if math.Abs(got-spacing) > 1.0 {
			t.Fatalf("spacing between rows %d and %d: want=%f got=%f", i-1, i, spacing, got)
		}
	}

	// band = 0.7*1920 = 1344, spacing = 1344/6 = 224, first anchor at 288+224.
	if math.Abs(plan.Rows[0].Y-512) > 0.001 {
		t.Fatalf("first anchor: want=512 got=%f", plan.Rows[0].Y)
	}
}

func TestBuildLayoutSingleRowCenters(t *testing.T) {
	plan := BuildLayout([]string{"solo"}, 1080, 1350, 0.8)
	if len(plan.Rows) != 1 {
		t.Fatalf("rows: want=1 got=%d", len(plan.Rows))
	}
	if math.Abs(plan.Rows[0].Y-675) > 0.001 {
		t.Fatalf("single row anchor: want=675 got=%f", plan.Rows[0].Y)
	}
}

func TestWithHoldTimingPinsRows(t *testing.T) {
	plan := BuildLayout([]string{"a", "b", "c"}, 1080, 1920, 0.7)
	plan = WithHoldTiming(plan, 12.5)

	if plan.TotalSeconds != 12.5 {
		t.Fatalf("total: want=12.5 got=%f", plan.TotalSeconds)
	}
	for i, row := range plan.Rows {
		if row.StartSeconds != 0 || row.DurationSeconds != 12.5 {
			t.Fatalf("row %d timing: start=%f dur=%f", i, row.StartSeconds, row.DurationSeconds)
		}
		if row.FadeIn || row.FadeOut {
			t.Fatalf("row %d should not fade", i)
		}
	}
}

func TestBuildSlotTimelineStaggersRows(t *testing.T) {
	phrases := []string{"a", "b", "c", "d", "e"}
	plan := BuildSlotTimeline(phrases, 1080, 1920, 6)

	if plan.TotalSeconds != 30 {
		t.Fatalf("total: want=30 got=%f", plan.TotalSeconds)
	}
	for i, row := range plan.Rows {
		wantStart := float64(i) * 6
		if row.StartSeconds != wantStart {
			t.Fatalf("row %d start: want=%f got=%f", i, wantStart, row.StartSeconds)
		}
		if row.DurationSeconds != 6 {
			t.Fatalf("row %d duration: want=6 got=%f", i, row.DurationSeconds)
		}
		if row.FadeIn != (i != 0) {
			t.Fatalf("row %d fadeIn: want=%v got=%v", i, i != 0, row.FadeIn)
		}
		if !row.FadeOut {
			t.Fatalf("row %d should fade out", i)
		}
		if row.Y != 960 {
			t.Fatalf("row %d anchor: want=960 got=%f", i, row.Y)
		}
	}
}

func TestEscapeDrawtext(t *testing.T) {
	got := escapeDrawtext(`I'm 100% ready: go`)
	want := `I\\\'m 100\% ready\: go`
	if got != want {
		t.Fatalf("escape: want=%q got=%q", want, got)
	}
}
