package services

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/yungbote/affirmpost-backend/internal/data/repos"
	"github.com/yungbote/affirmpost-backend/internal/domain"
	"github.com/yungbote/affirmpost-backend/internal/observability"
	"github.com/yungbote/affirmpost-backend/internal/pkg/ctxutil"
	"github.com/yungbote/affirmpost-backend/internal/pkg/logger"
	"github.com/yungbote/affirmpost-backend/internal/profile"
)

// PipelineResult is the aggregate outcome of one run: the generated content
// plus one publish outcome per attempted platform.
type PipelineResult struct {
	Profile   string
	Theme     string
	Caption   string
	Phrases   []string
	Facebook  *domain.PublishOutcome // nil when the profile never posts to Facebook
	Instagram domain.PublishOutcome
}

// Success reports whether every attempted platform published.
func (r PipelineResult) Success() bool {
	if r.Facebook != nil && !r.Facebook.OK() {
		return false
	}
	return r.Instagram.OK()
}

// PipelineService sequences the four stages: generate content, compose
// media, publish, record history. Stages run synchronously; each one fully
// completes before the next starts.
type PipelineService interface {
	Run(ctx context.Context, profileName string) (PipelineResult, error)
}

type pipelineService struct {
	log       *logger.Logger
	profiles  profile.Registry
	content   ContentService
	composer  ComposerService
	publisher PublisherService
	history   repos.PostRecordRepo // nil disables history
}

func NewPipelineService(
	log *logger.Logger,
	profiles profile.Registry,
	content ContentService,
	composer ComposerService,
	publisher PublisherService,
	history repos.PostRecordRepo,
) (PipelineService, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if profiles == nil || content == nil || composer == nil || publisher == nil {
		return nil, fmt.Errorf("profiles, content, composer and publisher are all required")
	}
	return &pipelineService{
		log:       log.With("service", "PipelineService"),
		profiles:  profiles,
		content:   content,
		composer:  composer,
		publisher: publisher,
		history:   history,
	}, nil
}

func (s *pipelineService) Run(ctx context.Context, profileName string) (PipelineResult, error) {
	ctx = ctxutil.Default(ctx)

	prof, err := s.profiles.Get(profileName)
	if err != nil {
		return PipelineResult{}, err
	}
	s.log.Info("pipeline run starting", "profile", prof.Name, "format", string(prof.PostFormat))

	done := observability.StageTimer(s.log, "generate", "profile", prof.Name)
	set := BuildSet(ctx, s.content, prof.PhraseCount, prof.MaxPhraseLength)
	done(nil)

	workDir, err := os.MkdirTemp("", "affirmpost-run-*")
	if err != nil {
		return PipelineResult{}, fmt.Errorf("create work dir: %w", err)
	}
	defer func() {
		if rmErr := os.RemoveAll(workDir); rmErr != nil {
			s.log.Warn("work dir cleanup failed", "dir", workDir, "error", rmErr)
		}
	}()

	result := PipelineResult{
		Profile: prof.Name,
		Theme:   set.Theme,
		Caption: set.Caption,
		Phrases: set.Phrases,
	}

	switch prof.PostFormat {
	case profile.FormatCarousel:
		done = observability.StageTimer(s.log, "compose", "profile", prof.Name)
		framePaths, err := s.composer.ComposeCarousel(ctx, set, prof, workDir)
		done(err)
		if err != nil {
			return result, fmt.Errorf("compose carousel: %w", err)
		}

		done = observability.StageTimer(s.log, "publish_instagram", "profile", prof.Name)
		result.Instagram = s.publisher.PublishCarouselToInstagram(ctx, framePaths, set.Caption)
		done(result.Instagram.Err)
		s.record(ctx, prof.Name, set, "instagram", result.Instagram)

	case profile.FormatReel:
		done = observability.StageTimer(s.log, "compose", "profile", prof.Name)
		rendered, err := s.composer.ComposeReel(ctx, set, prof, workDir)
		done(err)
		if err != nil {
			return result, fmt.Errorf("compose reel: %w", err)
		}

		done = observability.StageTimer(s.log, "publish_facebook", "profile", prof.Name)
		fb := s.publisher.PublishVideoToFacebook(ctx, rendered.Path, set.Caption)
		done(fb.Err)
		result.Facebook = &fb
		s.record(ctx, prof.Name, set, "facebook", fb)

		done = observability.StageTimer(s.log, "publish_instagram", "profile", prof.Name)
		result.Instagram = s.publisher.PublishReelToInstagram(ctx, rendered.Path, set.Caption)
		done(result.Instagram.Err)
		s.record(ctx, prof.Name, set, "instagram", result.Instagram)

	default:
		return result, fmt.Errorf("profile %q has unsupported post format %q", prof.Name, prof.PostFormat)
	}

	s.log.Info("pipeline run finished",
		"profile", prof.Name,
		"theme", set.Theme,
		"success", result.Success())
	return result, nil
}

// record writes one post-history row. Best effort: failures are logged and
// swallowed so a dead database never fails a publish that already happened.
func (s *pipelineService) record(ctx context.Context, profileName string, set domain.AffirmationSet, platform string, outcome domain.PublishOutcome) {
	if s.history == nil {
		return
	}
	phrases, err := json.Marshal(set.Phrases)
	if err != nil {
		phrases = []byte("[]")
	}
	rec := &domain.PostRecord{
		Profile:     profileName,
		Theme:       set.Theme,
		Caption:     set.Caption,
		PhrasesJSON: string(phrases),
		Platform:    platform,
		State:       string(outcome.State),
		FailureKind: string(outcome.Kind),
		PostID:      outcome.PostID,
	}
	if _, err := s.history.Create(ctx, rec); err != nil {
		s.log.Warn("post history write failed", "platform", platform, "error", err)
	}
}
