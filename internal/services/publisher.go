package services

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/yungbote/affirmpost-backend/internal/clients/graph"
	"github.com/yungbote/affirmpost-backend/internal/clients/s3"
	"github.com/yungbote/affirmpost-backend/internal/domain"
	"github.com/yungbote/affirmpost-backend/internal/pkg/ctxutil"
	"github.com/yungbote/affirmpost-backend/internal/pkg/logger"
)

// Poll budgets. Timeout is attempt-count based, so the effective wall-clock
// bound is attempts * interval (160s for reels, 150s per carousel child).
const (
	reelPollAttempts  = 20
	reelPollInterval  = 8 * time.Second
	childPollAttempts = 30
	childPollInterval = 5 * time.Second
)

// PublisherService drives the asynchronous publish protocol: stage the local
// file in object storage, create a media container, poll it to completion and
// publish it. Facebook video posts are synchronous and skip the poll.
//
// Outcomes are terminal states, never retried here. Re-running the publisher
// against the same media creates a duplicate post; there is no dedup key.
type PublisherService interface {
	PublishVideoToFacebook(ctx context.Context, videoPath string, caption string) domain.PublishOutcome
	PublishReelToInstagram(ctx context.Context, videoPath string, caption string) domain.PublishOutcome
	PublishCarouselToInstagram(ctx context.Context, imagePaths []string, caption string) domain.PublishOutcome
}

type publisherService struct {
	log    *logger.Logger
	graph  graph.Client
	bucket s3.BucketService

	pageID string

	// swapped out in tests so poll loops do not sleep for real
	sleep func(ctx context.Context, d time.Duration) error
}

func NewPublisherService(log *logger.Logger, gc graph.Client, bucket s3.BucketService) (PublisherService, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if gc == nil {
		return nil, fmt.Errorf("graph client required")
	}
	if bucket == nil {
		return nil, fmt.Errorf("bucket service required")
	}
	pageID := os.Getenv("FACEBOOK_PAGE_ID")
	if pageID == "" {
		return nil, fmt.Errorf("FACEBOOK_PAGE_ID is required")
	}
	return &publisherService{
		log:    log.With("service", "PublisherService"),
		graph:  gc,
		bucket: bucket,
		pageID: pageID,
		sleep:  sleepCtx,
	}, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func failed(kind domain.FailureKind, err error) domain.PublishOutcome {
	state := domain.PublishStateFailed
	if kind == domain.FailureKindTimeout {
		state = domain.PublishStateTimedOut
	}
	return domain.PublishOutcome{State: state, Kind: kind, Err: err}
}

func published(postID string) domain.PublishOutcome {
	return domain.PublishOutcome{State: domain.PublishStatePublished, PostID: postID}
}

// PublishVideoToFacebook uploads the file directly to the page's /videos
// edge with the page access token. The Graph API processes page video
// uploads synchronously from the caller's point of view, so there is no
// container or poll step.
func (s *publisherService) PublishVideoToFacebook(ctx context.Context, videoPath string, caption string) domain.PublishOutcome {
	ctx = ctxutil.Default(ctx)

	pageToken, err := s.graph.PageAccessToken(ctx, s.pageID)
	if err != nil {
		s.log.Error("page access token lookup failed", "error", err)
		return failed(domain.FailureKindAPI, fmt.Errorf("page access token: %w", err))
	}
	postID, err := s.graph.UploadVideo(ctx, s.pageID, pageToken, videoPath, caption)
	if err != nil {
		s.log.Error("facebook video upload failed", "error", err)
		return failed(domain.FailureKindAPI, fmt.Errorf("facebook upload: %w", err))
	}
	s.log.Info("published to facebook", "post_id", postID)
	return published(postID)
}

func (s *publisherService) PublishReelToInstagram(ctx context.Context, videoPath string, caption string) domain.PublishOutcome {
	ctx = ctxutil.Default(ctx)

	igID, err := s.graph.InstagramAccountID(ctx, s.pageID)
	if err != nil {
		s.log.Error("instagram account lookup failed", "error", err)
		return failed(domain.FailureKindAPI, fmt.Errorf("instagram account id: %w", err))
	}

	staged, err := s.bucket.StageFile(ctx, videoPath)
	if err != nil {
		s.log.Error("staging video failed", "path", videoPath, "error", err)
		return failed(domain.FailureKindStaging, fmt.Errorf("stage video: %w", err))
	}
	s.log.Info("video staged", "url", staged.PublicURL)

	creationID, err := s.graph.CreateContainer(ctx, igID, graph.ContainerParams{
		MediaType:   "REELS",
		VideoURL:    staged.PublicURL,
		Caption:     caption,
		ShareToFeed: true,
	})
	if err != nil {
		s.log.Error("reel container creation failed", "error", err)
		return failed(domain.FailureKindAPI, fmt.Errorf("create container: %w", err))
	}

	if outcome := s.pollContainer(ctx, creationID, reelPollAttempts, reelPollInterval); !outcome.OK() {
		return outcome
	}
	return s.publishContainer(ctx, igID, creationID)
}

func (s *publisherService) PublishCarouselToInstagram(ctx context.Context, imagePaths []string, caption string) domain.PublishOutcome {
	ctx = ctxutil.Default(ctx)

	if len(imagePaths) < 2 {
		return failed(domain.FailureKindAPI, fmt.Errorf("carousel needs at least 2 images, got %d", len(imagePaths)))
	}

	igID, err := s.graph.InstagramAccountID(ctx, s.pageID)
	if err != nil {
		s.log.Error("instagram account lookup failed", "error", err)
		return failed(domain.FailureKindAPI, fmt.Errorf("instagram account id: %w", err))
	}

	children := make([]string, 0, len(imagePaths))
	for i, path := range imagePaths {
		staged, err := s.bucket.StageFile(ctx, path)
		if err != nil {
			s.log.Error("staging image failed", "path", path, "error", err)
			return failed(domain.FailureKindStaging, fmt.Errorf("stage image %d: %w", i+1, err))
		}

		// Caption rides on the first child and on the aggregate container.
		childCaption := ""
		if i == 0 {
			childCaption = caption
		}
		childID, err := s.graph.CreateContainer(ctx, igID, graph.ContainerParams{
			MediaType:      "IMAGE",
			ImageURL:       staged.PublicURL,
			Caption:        childCaption,
			IsCarouselItem: true,
		})
		if err != nil {
			s.log.Error("carousel item container creation failed", "index", i, "error", err)
			return failed(domain.FailureKindAPI, fmt.Errorf("create item container %d: %w", i+1, err))
		}
		if outcome := s.pollContainer(ctx, childID, childPollAttempts, childPollInterval); !outcome.OK() {
			return outcome
		}
		children = append(children, childID)
	}

	carouselID, err := s.graph.CreateContainer(ctx, igID, graph.ContainerParams{
		MediaType: "CAROUSEL",
		Children:  children,
		Caption:   caption,
	})
	if err != nil {
		s.log.Error("carousel container creation failed", "error", err)
		return failed(domain.FailureKindAPI, fmt.Errorf("create carousel container: %w", err))
	}
	// The aggregate container is publishable as soon as its children are
	// FINISHED; it gets no poll of its own.
	return s.publishContainer(ctx, igID, carouselID)
}

// pollContainer drives the POLL state: FINISHED advances, ERROR is terminal,
// anything else (including a missing status_code) consumes one attempt.
func (s *publisherService) pollContainer(ctx context.Context, creationID string, maxAttempts int, interval time.Duration) domain.PublishOutcome {
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		status, err := s.graph.GetContainerStatus(ctx, creationID)
		if err != nil {
			s.log.Error("container status check failed", "creation_id", creationID, "attempt", attempt, "error", err)
			return failed(domain.FailureKindAPI, fmt.Errorf("container status: %w", err))
		}
		switch status.StatusCode {
		case "FINISHED":
			s.log.Info("container processing finished", "creation_id", creationID, "attempts", attempt)
			return published("")
		case "ERROR":
			s.log.Error("container processing errored", "creation_id", creationID, "status", status.Status)
			return failed(domain.FailureKindAPI, fmt.Errorf("container %s reported ERROR: %s", creationID, status.Status))
		}
		s.log.Info("container still processing", "creation_id", creationID, "attempt", attempt, "max_attempts", maxAttempts, "status_code", status.StatusCode)
		if attempt < maxAttempts {
			if err := s.sleep(ctx, interval); err != nil {
				return failed(domain.FailureKindAPI, fmt.Errorf("poll interrupted: %w", err))
			}
		}
	}
	return failed(domain.FailureKindTimeout, fmt.Errorf("container %s not finished after %d attempts", creationID, maxAttempts))
}

func (s *publisherService) publishContainer(ctx context.Context, igID, creationID string) domain.PublishOutcome {
	postID, err := s.graph.PublishContainer(ctx, igID, creationID)
	if err != nil {
		s.log.Error("container publish failed", "creation_id", creationID, "error", err)
		return failed(domain.FailureKindAPI, fmt.Errorf("publish container: %w", err))
	}
	s.log.Info("published to instagram", "post_id", postID)
	return published(postID)
}
