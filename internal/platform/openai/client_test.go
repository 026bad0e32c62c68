package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/yungbote/memberhub-backend/internal/platform/logger"
)

func newTestClient(t *testing.T, h http.HandlerFunc) Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	temp := 0.2
	c, err := New(logger.Nop(), Config{
		APIKey:      "sk-test",
		BaseURL:     srv.URL,
		Model:       "gpt-test",
		EmbedModel:  "embed-test",
		SpeechModel: "tts-test",
		SpeechVoice: "alloy",
		MaxRetries:  0,
		Temperature: &temp,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestNewRequiresLoggerAndKey(t *testing.T) {
	if _, err := New(nil, Config{APIKey: "x"}); err == nil {
		t.Fatal("expected error for nil logger")
	}
	if _, err := New(logger.Nop(), Config{}); err == nil {
		t.Fatal("expected error for missing api key")
	}
}

func TestEmbedOrdersByIndex(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/embeddings" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("authorization=%q", got)
		}
		_, _ = io.WriteString(w, `{"data":[{"embedding":[2,2],"index":1},{"embedding":[1,1],"index":0}]}`)
	})
	vecs, err := c.Embed(context.Background(), []string{"a", "b"})
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(vecs) != 2 || vecs[0][0] != 1 || vecs[1][0] != 2 {
		t.Fatalf("unexpected vectors: %v", vecs)
	}
}

func TestEmbedMissingIndex(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"data":[{"embedding":[1],"index":0}]}`)
	})
	if _, err := c.Embed(context.Background(), []string{"a", "b"}); err == nil {
		t.Fatal("expected error for short embeddings response")
	}
}

func TestGenerateTextDropsUnsupportedTemperature(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		if _, ok := body["temperature"]; ok {
			if n != 1 {
				t.Errorf("temperature sent on retry")
			}
			w.WriteHeader(http.StatusBadRequest)
			_, _ = io.WriteString(w, `{"error":{"message":"Unsupported parameter: 'temperature'"}}`)
			return
		}
		_, _ = io.WriteString(w, `{"output":[{"type":"message","role":"assistant","content":[{"type":"output_text","text":"hi there"}]}]}`)
	})
	got, err := c.GenerateText(context.Background(), "sys", "hello")
	if err != nil {
		t.Fatalf("GenerateText: %v", err)
	}
	if got != "hi there" {
		t.Fatalf("got %q", got)
	}
	if atomic.LoadInt32(&calls) != 2 {
		t.Fatalf("expected 2 calls, got %d", calls)
	}
}

func TestStreamChatForwardsDeltas(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Accept") != "text/event-stream" {
			t.Errorf("accept=%q", r.Header.Get("Accept"))
		}
		var body struct {
			Input []Message `json:"input"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if len(body.Input) != 3 || body.Input[0].Role != "system" || body.Input[2].Content != "and now?" {
			t.Errorf("unexpected input: %+v", body.Input)
		}
		w.Header().Set("Content-Type", "text/event-stream")
		for _, d := range []string{"Hel", "lo"} {
			fmt.Fprintf(w, "event: response.output_text.delta\ndata: {\"type\":\"response.output_text.delta\",\"delta\":%q}\n\n", d)
		}
		fmt.Fprint(w, "event: response.completed\ndata: {\"type\":\"response.completed\"}\n\n")
	})
	var deltas []string
	full, err := c.StreamChat(context.Background(), "be nice", []Message{
		{Role: "user", Content: "hi"},
		{Role: "user", Content: "and now?"},
	}, func(d string) { deltas = append(deltas, d) })
	if err != nil {
		t.Fatalf("StreamChat: %v", err)
	}
	if full != "Hello" || strings.Join(deltas, ",") != "Hel,lo" {
		t.Fatalf("full=%q deltas=%v", full, deltas)
	}
}

func TestStreamChatUpstreamError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"error":{"message":"bad key"}}`)
	})
	if _, err := c.StreamChat(context.Background(), "", []Message{{Role: "user", Content: "x"}}, nil); err == nil {
		t.Fatal("expected error")
	}
}

func TestSpeech(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body speechRequest
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body.Voice != "nova" || body.Model != "tts-test" || body.ResponseFormat != "mp3" {
			t.Errorf("unexpected body: %+v", body)
		}
		w.Header().Set("Content-Type", "audio/mpeg")
		_, _ = w.Write([]byte("ID3"))
	})
	res, err := c.Speech(context.Background(), SpeechRequest{Text: "hello", Voice: "nova"})
	if err != nil {
		t.Fatalf("Speech: %v", err)
	}
	if string(res.Audio) != "ID3" || res.MimeType != "audio/mpeg" {
		t.Fatalf("unexpected result: %+v", res)
	}
	if _, err := c.Speech(context.Background(), SpeechRequest{Text: "  "}); err == nil {
		t.Fatal("expected error for empty text")
	}
}
