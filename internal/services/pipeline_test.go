package services

import (
	"context"
	"testing"

	"github.com/yungbote/affirmpost-backend/internal/domain"
	"github.com/yungbote/affirmpost-backend/internal/pkg/logger"
	"github.com/yungbote/affirmpost-backend/internal/profile"
)

type fakeContent struct{}

func (fakeContent) ChooseTheme(ctx context.Context) string { return "Growth" }

func (fakeContent) GenerateAffirmations(ctx context.Context, theme string, count, maxLen int) []string {
	out := make([]string, count)
	for i := range out {
		out[i] = "I am enough"
	}
	return out
}

func (fakeContent) GenerateCaption(ctx context.Context, theme string, phrases []string) string {
	return "caption"
}

type fakeComposer struct {
	reels     int
	carousels int
}

func (f *fakeComposer) ComposeReel(ctx context.Context, set domain.AffirmationSet, prof profile.Profile, outDir string) (domain.RenderedMedia, error) {
	f.reels++
	return domain.RenderedMedia{Path: outDir + "/reel.mp4", Width: 1080, Height: 1920, DurationSeconds: 30, HasAudio: true}, nil
}

func (f *fakeComposer) ComposeCarousel(ctx context.Context, set domain.AffirmationSet, prof profile.Profile, outDir string) ([]string, error) {
	f.carousels++
	return []string{outDir + "/1.jpg", outDir + "/2.jpg"}, nil
}

type fakePublisher struct {
	fb        int
	reel      int
	carousel  int
	igOutcome domain.PublishOutcome
	fbOutcome domain.PublishOutcome
}

func (f *fakePublisher) PublishVideoToFacebook(ctx context.Context, videoPath, caption string) domain.PublishOutcome {
	f.fb++
	return f.fbOutcome
}

func (f *fakePublisher) PublishReelToInstagram(ctx context.Context, videoPath, caption string) domain.PublishOutcome {
	f.reel++
	return f.igOutcome
}

func (f *fakePublisher) PublishCarouselToInstagram(ctx context.Context, imagePaths []string, caption string) domain.PublishOutcome {
	f.carousel++
	return f.igOutcome
}

func newPipelineForTest(t *testing.T, comp *fakeComposer, pub *fakePublisher) PipelineService {
	t.Helper()
	log, err := logger.New("dev")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	reg, err := profile.NewRegistry(log)
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	p, err := NewPipelineService(log, reg, fakeContent{}, comp, pub, nil)
	if err != nil {
		t.Fatalf("pipeline: %v", err)
	}
	return p
}

func TestPipelineReelPublishesBothPlatforms(t *testing.T) {
	comp := &fakeComposer{}
	pub := &fakePublisher{
		igOutcome: domain.PublishOutcome{State: domain.PublishStatePublished, PostID: "ig-1"},
		fbOutcome: domain.PublishOutcome{State: domain.PublishStatePublished, PostID: "fb-1"},
	}
	p := newPipelineForTest(t, comp, pub)

	result, err := p.Run(context.Background(), "classic")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if comp.reels != 1 || comp.carousels != 0 {
		t.Fatalf("compose calls: reels=%d carousels=%d", comp.reels, comp.carousels)
	}
	if pub.fb != 1 || pub.reel != 1 || pub.carousel != 0 {
		t.Fatalf("publish calls: fb=%d reel=%d carousel=%d", pub.fb, pub.reel, pub.carousel)
	}
	if !result.Success() {
		t.Fatalf("result should be success: %+v", result)
	}
	if result.Facebook == nil || result.Facebook.PostID != "fb-1" {
		t.Fatalf("facebook outcome: %+v", result.Facebook)
	}
	if result.Theme != "Growth" || len(result.Phrases) != 5 {
		t.Fatalf("content: theme=%q phrases=%d", result.Theme, len(result.Phrases))
	}
}

func TestPipelineCarouselSkipsFacebook(t *testing.T) {
	comp := &fakeComposer{}
	pub := &fakePublisher{
		igOutcome: domain.PublishOutcome{State: domain.PublishStatePublished, PostID: "ig-2"},
	}
	p := newPipelineForTest(t, comp, pub)

	result, err := p.Run(context.Background(), "swipeable")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if comp.carousels != 1 || comp.reels != 0 {
		t.Fatalf("compose calls: reels=%d carousels=%d", comp.reels, comp.carousels)
	}
	if pub.fb != 0 || pub.carousel != 1 {
		t.Fatalf("publish calls: fb=%d carousel=%d", pub.fb, pub.carousel)
	}
	if result.Facebook != nil {
		t.Fatalf("carousel run should not touch facebook: %+v", result.Facebook)
	}
	if !result.Success() {
		t.Fatalf("result should be success: %+v", result)
	}
}

func TestPipelinePartialFailureIsNotSuccess(t *testing.T) {
	comp := &fakeComposer{}
	pub := &fakePublisher{
		igOutcome: domain.PublishOutcome{State: domain.PublishStatePublished, PostID: "ig-3"},
		fbOutcome: domain.PublishOutcome{State: domain.PublishStateFailed, Kind: domain.FailureKindAPI},
	}
	p := newPipelineForTest(t, comp, pub)

	result, err := p.Run(context.Background(), "overlay")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.Success() {
		t.Fatalf("one failed platform should fail the run: %+v", result)
	}
	// the instagram attempt still happens after the facebook failure
	if pub.reel != 1 {
		t.Fatalf("instagram attempts: want=1 got=%d", pub.reel)
	}
}

func TestPipelineUnknownProfile(t *testing.T) {
	p := newPipelineForTest(t, &fakeComposer{}, &fakePublisher{})
	if _, err := p.Run(context.Background(), "nope"); err == nil {
		t.Fatal("unknown profile should error")
	}
}
