package graph

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/yungbote/affirmpost-backend/internal/pkg/logger"
)

func newClientForTest(t *testing.T, ts *httptest.Server) Client {
	t.Helper()
	t.Setenv("FACEBOOK_ACCESS_TOKEN", "user-token")
	t.Setenv("GRAPH_API_BASE_URL", ts.URL)
	log, err := logger.New("dev")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	c, err := NewClient(log)
	if err != nil {
		t.Fatalf("client: %v", err)
	}
	return c
}

func TestCreateContainerReelFields(t *testing.T) {
	var form map[string][]string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/ig-1/media" {
			t.Errorf("path: %s", r.URL.Path)
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		form = r.PostForm
		w.Write([]byte(`{"id":"creation-1"}`))
	}))
	defer ts.Close()

	c := newClientForTest(t, ts)
	id, err := c.CreateContainer(context.Background(), "ig-1", ContainerParams{
		MediaType: "REELS",
		VideoURL:  "https://bucket/video.mp4",
		Caption:   "hello",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if id != "creation-1" {
		t.Fatalf("id: %q", id)
	}
	if got := form["media_type"]; len(got) != 1 || got[0] != "REELS" {
		t.Fatalf("media_type: %v", got)
	}
	if got := form["video_url"]; len(got) != 1 || got[0] != "https://bucket/video.mp4" {
		t.Fatalf("video_url: %v", got)
	}
	if got := form["access_token"]; len(got) != 1 || got[0] != "user-token" {
		t.Fatalf("access_token: %v", got)
	}
	if _, present := form["is_carousel_item"]; present {
		t.Fatal("is_carousel_item should be omitted for reels")
	}
}

func TestCreateContainerCarouselChildrenJoined(t *testing.T) {
	var children string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		children = r.PostForm.Get("children")
		w.Write([]byte(`{"id":"agg-1"}`))
	}))
	defer ts.Close()

	c := newClientForTest(t, ts)
	_, err := c.CreateContainer(context.Background(), "ig-1", ContainerParams{
		MediaType: "CAROUSEL",
		Children:  []string{"c1", "c2", "c3"},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if children != "c1,c2,c3" {
		t.Fatalf("children: %q", children)
	}
}

func TestCreateContainerMissingID(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer ts.Close()

	c := newClientForTest(t, ts)
	if _, err := c.CreateContainer(context.Background(), "ig-1", ContainerParams{MediaType: "REELS"}); err == nil {
		t.Fatal("missing id should error")
	}
}

func TestGetContainerStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/creation-9" {
			t.Errorf("path: %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("fields"); got != "status_code,status" {
			t.Errorf("fields: %q", got)
		}
		w.Write([]byte(`{"status_code":"IN_PROGRESS","status":"still working"}`))
	}))
	defer ts.Close()

	c := newClientForTest(t, ts)
	status, err := c.GetContainerStatus(context.Background(), "creation-9")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if status.StatusCode != "IN_PROGRESS" || status.Status != "still working" {
		t.Fatalf("status: %+v", status)
	}
}

func TestUploadVideoMultipart(t *testing.T) {
	dir := t.TempDir()
	videoPath := filepath.Join(dir, "reel.mp4")
	if err := os.WriteFile(videoPath, []byte("not really a video"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/page-1/videos" {
			t.Errorf("path: %s", r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
		}
		if got := r.FormValue("access_token"); got != "page-token" {
			t.Errorf("access_token: %q", got)
		}
		if got := r.FormValue("description"); got != "the caption" {
			t.Errorf("description: %q", got)
		}
		if got := r.FormValue("published"); got != "true" {
			t.Errorf("published: %q", got)
		}
		file, header, err := r.FormFile("source")
		if err != nil {
			t.Errorf("source file: %v", err)
		} else {
			file.Close()
			if header.Filename != "reel.mp4" {
				t.Errorf("filename: %q", header.Filename)
			}
		}
		w.Write([]byte(`{"id":"fb-77"}`))
	}))
	defer ts.Close()

	c := newClientForTest(t, ts)
	id, err := c.UploadVideo(context.Background(), "page-1", "page-token", videoPath, "the caption")
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if id != "fb-77" {
		t.Fatalf("id: %q", id)
	}
}

func TestPublishContainerErrorStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"message":"invalid creation id"}}`))
	}))
	defer ts.Close()

	c := newClientForTest(t, ts)
	if _, err := c.PublishContainer(context.Background(), "ig-1", "bogus"); err == nil {
		t.Fatal("400 should error")
	}
}
