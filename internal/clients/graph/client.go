package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/yungbote/affirmpost-backend/internal/pkg/ctxutil"
	"github.com/yungbote/affirmpost-backend/internal/pkg/logger"
)

const defaultBaseURL = "https://graph.facebook.com/v18.0"

// ContainerParams are the fields for a POST /{ig-account}/media call. Empty
// fields are omitted from the request.
type ContainerParams struct {
	MediaType      string // REELS | IMAGE | CAROUSEL
	VideoURL       string
	ImageURL       string
	Caption        string
	IsCarouselItem bool
	Children       []string // creation ids, joined with ","
	ShareToFeed    bool
}

// ContainerStatus is the processing state reported for a media container.
type ContainerStatus struct {
	StatusCode string `json:"status_code"`
	Status     string `json:"status"`
}

// Client wraps the handful of Graph API calls the publisher needs. All calls
// are single-shot; the publisher owns polling and retry policy.
type Client interface {
	PageAccessToken(ctx context.Context, pageID string) (string, error)
	InstagramAccountID(ctx context.Context, pageID string) (string, error)
	UploadVideo(ctx context.Context, pageID, pageToken, localPath, description string) (string, error)
	CreateContainer(ctx context.Context, igAccountID string, params ContainerParams) (string, error)
	GetContainerStatus(ctx context.Context, creationID string) (ContainerStatus, error)
	PublishContainer(ctx context.Context, igAccountID, creationID string) (string, error)
}

type client struct {
	log         *logger.Logger
	baseURL     string
	accessToken string
	httpClient  *http.Client
}

func NewClient(log *logger.Logger) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}

	accessToken := strings.TrimSpace(os.Getenv("FACEBOOK_ACCESS_TOKEN"))
	if accessToken == "" {
		return nil, fmt.Errorf("missing FACEBOOK_ACCESS_TOKEN")
	}

	baseURL := strings.TrimSpace(os.Getenv("GRAPH_API_BASE_URL"))
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	baseURL = strings.TrimRight(baseURL, "/")

	return &client{
		log:         log.With("service", "GraphClient"),
		baseURL:     baseURL,
		accessToken: accessToken,
		// Video uploads of tens of MB need generous headroom.
		httpClient: &http.Client{Timeout: 5 * time.Minute},
	}, nil
}

type graphHTTPError struct {
	StatusCode int
	Body       string
}

func (e *graphHTTPError) Error() string {
	return fmt.Sprintf("graph http %d: %s", e.StatusCode, e.Body)
}

func (e *graphHTTPError) HTTPStatusCode() int {
	if e == nil {
		return 0
	}
	return e.StatusCode
}

func (c *client) doRequest(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	raw, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return readErr
	}
	if resp.StatusCode != http.StatusOK {
		return &graphHTTPError{StatusCode: resp.StatusCode, Body: string(raw)}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("graph decode error: %w; raw=%s", err, string(raw))
	}
	return nil
}

func (c *client) get(ctx context.Context, path string, params url.Values, out any) error {
	ctx = ctxutil.Default(ctx)
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return err
	}
	return c.doRequest(req, out)
}

func (c *client) postForm(ctx context.Context, path string, form url.Values, out any) error {
	ctx = ctxutil.Default(ctx)
	ctx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.doRequest(req, out)
}

func (c *client) PageAccessToken(ctx context.Context, pageID string) (string, error) {
	params := url.Values{}
	params.Set("fields", "access_token")
	params.Set("access_token", c.accessToken)

	var resp struct {
		AccessToken string `json:"access_token"`
	}
	if err := c.get(ctx, "/"+pageID, params, &resp); err != nil {
		return "", fmt.Errorf("failed to get page access token: %w", err)
	}
	if resp.AccessToken == "" {
		return "", fmt.Errorf("no page access token in response")
	}
	return resp.AccessToken, nil
}

func (c *client) InstagramAccountID(ctx context.Context, pageID string) (string, error) {
	params := url.Values{}
	params.Set("fields", "instagram_business_account")
	params.Set("access_token", c.accessToken)

	var resp struct {
		InstagramBusinessAccount struct {
			ID string `json:"id"`
		} `json:"instagram_business_account"`
	}
	if err := c.get(ctx, "/"+pageID, params, &resp); err != nil {
		return "", fmt.Errorf("failed to get instagram business account: %w", err)
	}
	if resp.InstagramBusinessAccount.ID == "" {
		return "", fmt.Errorf("no instagram business account linked to page %s", pageID)
	}
	return resp.InstagramBusinessAccount.ID, nil
}

func (c *client) UploadVideo(ctx context.Context, pageID, pageToken, localPath, description string) (string, error) {
	ctx = ctxutil.Default(ctx)

	f, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("failed to open video %s: %w", localPath, err)
	}
	defer f.Close()

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		var werr error
		defer func() { pw.CloseWithError(werr) }()

		if werr = mw.WriteField("access_token", pageToken); werr != nil {
			return
		}
		if werr = mw.WriteField("description", description); werr != nil {
			return
		}
		if werr = mw.WriteField("published", "true"); werr != nil {
			return
		}
		part, perr := mw.CreateFormFile("source", filepath.Base(localPath))
		if perr != nil {
			werr = perr
			return
		}
		if _, werr = io.Copy(part, f); werr != nil {
			return
		}
		werr = mw.Close()
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+pageID+"/videos", pr)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var resp struct {
		ID string `json:"id"`
	}
	if err := c.doRequest(req, &resp); err != nil {
		return "", fmt.Errorf("facebook video upload failed: %w", err)
	}
	if resp.ID == "" {
		return "", fmt.Errorf("no post id in facebook response")
	}
	return resp.ID, nil
}

func (c *client) CreateContainer(ctx context.Context, igAccountID string, params ContainerParams) (string, error) {
	form := url.Values{}
	form.Set("access_token", c.accessToken)
	form.Set("media_type", params.MediaType)
	if params.VideoURL != "" {
		form.Set("video_url", params.VideoURL)
	}
	if params.ImageURL != "" {
		form.Set("image_url", params.ImageURL)
	}
	if params.Caption != "" {
		form.Set("caption", params.Caption)
	}
	if params.IsCarouselItem {
		form.Set("is_carousel_item", "true")
	}
	if len(params.Children) > 0 {
		form.Set("children", strings.Join(params.Children, ","))
	}
	if params.ShareToFeed {
		form.Set("share_to_feed", "true")
	}

	var resp struct {
		ID string `json:"id"`
	}
	if err := c.postForm(ctx, "/"+igAccountID+"/media", form, &resp); err != nil {
		return "", fmt.Errorf("failed to create media container: %w", err)
	}
	if resp.ID == "" {
		return "", fmt.Errorf("no creation id in container response")
	}
	return resp.ID, nil
}

func (c *client) GetContainerStatus(ctx context.Context, creationID string) (ContainerStatus, error) {
	params := url.Values{}
	params.Set("fields", "status_code,status")
	params.Set("access_token", c.accessToken)

	var status ContainerStatus
	if err := c.get(ctx, "/"+creationID, params, &status); err != nil {
		return ContainerStatus{}, fmt.Errorf("failed to check container status: %w", err)
	}
	return status, nil
}

func (c *client) PublishContainer(ctx context.Context, igAccountID, creationID string) (string, error) {
	form := url.Values{}
	form.Set("access_token", c.accessToken)
	form.Set("creation_id", creationID)

	var resp struct {
		ID string `json:"id"`
	}
	if err := c.postForm(ctx, "/"+igAccountID+"/media_publish", form, &resp); err != nil {
		return "", fmt.Errorf("failed to publish container: %w", err)
	}
	if resp.ID == "" {
		return "", fmt.Errorf("no post id in publish response")
	}
	return resp.ID, nil
}
