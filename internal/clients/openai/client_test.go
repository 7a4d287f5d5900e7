package openai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/yungbote/affirmpost-backend/internal/pkg/logger"
)

func newClientForTest(t *testing.T, ts *httptest.Server) Client {
	t.Helper()
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("OPENAI_BASE_URL", ts.URL)
	t.Setenv("OPENAI_MAX_RETRIES", "2")
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

func outputTextBody(text string) string {
	resp := map[string]any{
		"output": []map[string]any{
			{
				"type": "message",
				"role": "assistant",
				"content": []map[string]any{
					{"type": "output_text", "text": text},
				},
			},
		},
	}
	raw, _ := json.Marshal(resp)
	return string(raw)
}

func TestGenerateJSONParsesStructuredOutput(t *testing.T) {
	var gotReq map[string]any
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/responses" {
			t.Errorf("path: %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("authorization: %q", got)
		}
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &gotReq)
		w.Write([]byte(outputTextBody(`{"affirmations":["I am enough"]}`)))
	}))
	defer ts.Close()

	c := newClientForTest(t, ts)
	out, err := c.GenerateJSON(context.Background(), "system", "user", "affirmation_set", map[string]any{"type": "object"})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	arr, ok := out["affirmations"].([]any)
	if !ok || len(arr) != 1 || arr[0] != "I am enough" {
		t.Fatalf("parsed output: %+v", out)
	}

	text, ok := gotReq["text"].(map[string]any)
	if !ok {
		t.Fatalf("request missing text block: %+v", gotReq)
	}
	format, _ := text["format"].(map[string]any)
	if format["type"] != "json_schema" || format["name"] != "affirmation_set" || format["strict"] != true {
		t.Fatalf("format block: %+v", format)
	}
}

func TestGenerateTextOmitsFormatBlock(t *testing.T) {
	var gotReq map[string]any
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &gotReq)
		w.Write([]byte(outputTextBody("Serenity")))
	}))
	defer ts.Close()

	c := newClientForTest(t, ts)
	out, err := c.GenerateText(context.Background(), "system", "user")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if out != "Serenity" {
		t.Fatalf("output: %q", out)
	}
	if _, present := gotReq["text"]; present {
		t.Fatalf("plain text request should not carry a text block: %+v", gotReq["text"])
	}
}

func TestGenerateTextRetriesOn429(t *testing.T) {
	calls := 0
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"error":{"message":"rate limited"}}`))
			return
		}
		w.Write([]byte(outputTextBody("a calm caption")))
	}))
	defer ts.Close()

	c := newClientForTest(t, ts)
	text, err := c.GenerateText(context.Background(), "system", "user")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if text != "a calm caption" {
		t.Fatalf("text: %q", text)
	}
	if calls != 2 {
		t.Fatalf("calls: want=2 got=%d", calls)
	}
}

func TestGenerateTextGivesUpAfterMaxRetries(t *testing.T) {
	calls := 0
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Retry-After", "0")
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	c := newClientForTest(t, ts)
	if _, err := c.GenerateText(context.Background(), "system", "user"); err == nil {
		t.Fatal("exhausted retries should error")
	}
	if calls != 3 { // initial attempt plus two retries
		t.Fatalf("calls: want=3 got=%d", calls)
	}
}

func TestGenerateJSONRejectsMalformedModelOutput(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(outputTextBody("not json at all")))
	}))
	defer ts.Close()

	c := newClientForTest(t, ts)
	if _, err := c.GenerateJSON(context.Background(), "system", "user", "s", map[string]any{"type": "object"}); err == nil {
		t.Fatal("malformed JSON should error")
	}
}
