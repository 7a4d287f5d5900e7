package domain

// AffirmationSet is the generated content for one pipeline run. It is built
// once by the content generator and read-only afterwards.
type AffirmationSet struct {
	Theme   string
	Phrases []string
	Caption string
}

// LayoutRow places one phrase on the canvas. The rendered text block is
// centered on Y; timing fields are zero for rows that stay on screen for the
// whole clip.
type LayoutRow struct {
	Text            string
	Y               float64
	StartSeconds    float64
	DurationSeconds float64
	FadeIn          bool
	FadeOut         bool
}

// LayoutPlan is the deterministic placement and timing plan for a render.
type LayoutPlan struct {
	CanvasWidth  int
	CanvasHeight int
	Rows         []LayoutRow
	TotalSeconds float64
}

// RenderedMedia describes a finished local media file.
type RenderedMedia struct {
	Path            string
	Width           int
	Height          int
	DurationSeconds float64
	HasAudio        bool
}

// StagedAsset is a rendered file that has been uploaded to object storage so
// the Graph API can fetch it by URL.
type StagedAsset struct {
	Key         string
	PublicURL   string
	ContentType string
}

// PublishState is the terminal state of one publish attempt.
type PublishState string

const (
	PublishStatePublished PublishState = "PUBLISHED"
	PublishStateFailed    PublishState = "FAILED"
	PublishStateTimedOut  PublishState = "TIMED_OUT"
)

// FailureKind tells callers which part of the publish flow broke, instead of
// collapsing everything into one boolean.
type FailureKind string

const (
	FailureKindNone    FailureKind = ""
	FailureKindStaging FailureKind = "staging"
	FailureKindAPI     FailureKind = "api"
	FailureKindTimeout FailureKind = "timeout"
)

// PublishOutcome is the result of publishing one asset to one platform.
// TIMED_OUT is deliberately kept distinct from an API-reported ERROR.
type PublishOutcome struct {
	State  PublishState
	Kind   FailureKind
	PostID string
	Err    error
}

func (o PublishOutcome) OK() bool {
	return o.State == PublishStatePublished
}
