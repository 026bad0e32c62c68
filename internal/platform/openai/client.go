package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/yungbote/memberhub-backend/internal/platform/ctxutil"
	"github.com/yungbote/memberhub-backend/internal/platform/envutil"
	"github.com/yungbote/memberhub-backend/internal/platform/httpx"
	"github.com/yungbote/memberhub-backend/internal/platform/logger"
)

// Message is one turn of a conversation forwarded to the model.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type SpeechRequest struct {
	Text   string
	Voice  string
	Format string // mp3 | opus | aac | flac | wav
}

type SpeechResult struct {
	Audio    []byte
	MimeType string
}

// Client is the OpenAI API surface used by the backend.
type Client interface {
	Embed(ctx context.Context, inputs []string) ([][]float32, error)

	// Plain text (no schema)
	GenerateText(ctx context.Context, system string, user string) (string, error)

	// Stream output_text deltas for system + history. Returns the full text.
	StreamChat(ctx context.Context, system string, history []Message, onDelta func(delta string)) (string, error)

	// Text-to-speech.
	Speech(ctx context.Context, req SpeechRequest) (*SpeechResult, error)
}

type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	EmbedModel  string
	SpeechModel string
	SpeechVoice string
	Timeout     time.Duration
	MaxRetries  int
	Temperature *float64
}

func ConfigFromEnv() Config {
	cfg := Config{
		APIKey:      strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
		BaseURL:     envutil.String("OPENAI_BASE_URL", "https://api.openai.com"),
		Model:       envutil.String("OPENAI_MODEL", "gpt-4o-mini"),
		EmbedModel:  envutil.String("OPENAI_EMBED_MODEL", "text-embedding-3-small"),
		SpeechModel: envutil.String("OPENAI_SPEECH_MODEL", "gpt-4o-mini-tts"),
		SpeechVoice: envutil.String("OPENAI_SPEECH_VOICE", "alloy"),
		Timeout:     envutil.Seconds("OPENAI_TIMEOUT_SECONDS", 180*time.Second),
		MaxRetries:  envutil.Int("OPENAI_MAX_RETRIES", 4),
	}
	if !envutil.Bool("OPENAI_DISABLE_TEMPERATURE", false) {
		temp := 0.2
		if v := strings.TrimSpace(os.Getenv("OPENAI_TEMPERATURE")); v != "" {
			var f float64
			if _, err := fmt.Sscanf(v, "%g", &f); err == nil {
				temp = f
			}
		}
		cfg.Temperature = &temp
	}
	return cfg
}

func NewFromEnv(log *logger.Logger) (Client, error) {
	return New(log, ConfigFromEnv())
}

func New(log *logger.Logger, cfg Config) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("missing OPENAI_API_KEY")
	}
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 180 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	return &client{
		log:        log.With("client", "OpenAIClient"),
		cfg:        cfg,
		model:      cfg.Model,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		noTempSeen: map[string]bool{},
	}, nil
}

// WithModel returns a client that uses model for generation calls. Embeddings and speech
// keep their configured models.
func WithModel(base Client, model string) Client {
	model = strings.TrimSpace(model)
	c, ok := base.(*client)
	if !ok || model == "" || model == c.model {
		return base
	}
	return &client{
		log:        c.log,
		cfg:        c.cfg,
		model:      model,
		httpClient: c.httpClient,
		noTempSeen: c.snapshotNoTemp(),
	}
}

type client struct {
	log        *logger.Logger
	cfg        Config
	model      string
	httpClient *http.Client

	// Models that rejected the temperature parameter; it is omitted for them afterwards.
	noTempMu   sync.RWMutex
	noTempSeen map[string]bool
}

func (c *client) snapshotNoTemp() map[string]bool {
	c.noTempMu.RLock()
	defer c.noTempMu.RUnlock()
	out := make(map[string]bool, len(c.noTempSeen))
	for k, v := range c.noTempSeen {
		out[k] = v
	}
	return out
}

func (c *client) temperatureFor(model string) *float64 {
	if c.cfg.Temperature == nil {
		return nil
	}
	c.noTempMu.RLock()
	skip := c.noTempSeen[strings.ToLower(model)]
	c.noTempMu.RUnlock()
	if skip {
		return nil
	}
	return c.cfg.Temperature
}

func (c *client) noteNoTemp(model string) {
	c.noTempMu.Lock()
	c.noTempSeen[strings.ToLower(model)] = true
	c.noTempMu.Unlock()
}

func isUnsupportedTemperature(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	if !strings.Contains(msg, "temperature") {
		return false
	}
	for _, needle := range []string{"unsupported", "unknown parameter", "not supported", "does not support", "only the default"} {
		if strings.Contains(msg, needle) {
			return true
		}
	}
	return false
}

func (c *client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, err
		}
	}
	req, err := http.NewRequestWithContext(ctxutil.Default(ctx), method, c.cfg.BaseURL+path, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

// doRaw performs a JSON request with retries and returns the successful body.
func (c *client) doRaw(ctx context.Context, method, path string, body any) ([]byte, http.Header, error) {
	var (
		raw    []byte
		header http.Header
	)
	err := httpx.Retry(ctx, c.cfg.MaxRetries, time.Second, func(ctx context.Context) (*http.Response, error) {
		req, err := c.newRequest(ctx, method, path, body)
		if err != nil {
			return nil, err
		}
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		b, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if readErr != nil {
			return resp, readErr
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return resp, &httpx.StatusError{Service: "openai", StatusCode: resp.StatusCode, Body: string(b)}
		}
		raw = b
		header = resp.Header
		return resp, nil
	}, func(attempt int, sleep time.Duration, err error) {
		c.log.Warn("OpenAI request retrying",
			"path", path,
			"attempt", attempt,
			"max_retries", c.cfg.MaxRetries,
			"sleep", sleep.String(),
			"error", err.Error(),
		)
	})
	return raw, header, err
}

func (c *client) do(ctx context.Context, method, path string, body any, out any) error {
	raw, _, err := c.doRaw(ctx, method, path, body)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("openai decode error: %w", err)
	}
	return nil
}

// -------------------- Embeddings --------------------

type embeddingsRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embeddingsResponse struct {
	Data []struct {
		Embedding []float64 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
}

func (c *client) Embed(ctx context.Context, inputs []string) ([][]float32, error) {
	if len(inputs) == 0 {
		return [][]float32{}, nil
	}
	clean := make([]string, len(inputs))
	for i := range inputs {
		s := strings.TrimSpace(inputs[i])
		if s == "" {
			s = " "
		}
		clean[i] = s
	}

	var resp embeddingsResponse
	if err := c.do(ctx, http.MethodPost, "/v1/embeddings", embeddingsRequest{Model: c.cfg.EmbedModel, Input: clean}, &resp); err != nil {
		return nil, err
	}

	out := make([][]float32, len(clean))
	for pos, d := range resp.Data {
		idx := d.Index
		if idx < 0 || idx >= len(out) || out[idx] != nil {
			idx = pos
		}
		if idx >= len(out) {
			continue
		}
		vec := make([]float32, len(d.Embedding))
		for i, f := range d.Embedding {
			vec[i] = float32(f)
		}
		out[idx] = vec
	}
	for i := range out {
		if out[i] == nil {
			return nil, fmt.Errorf("openai embeddings missing index %d: requested=%d returned=%d model=%s", i, len(clean), len(resp.Data), c.cfg.EmbedModel)
		}
	}
	return out, nil
}

// -------------------- Responses API --------------------

type inputItem struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type responsesRequest struct {
	Model        string      `json:"model"`
	Instructions string      `json:"instructions,omitempty"`
	Input        []inputItem `json:"input"`
	Temperature  *float64    `json:"temperature,omitempty"`
	Stream       bool        `json:"stream,omitempty"`
}

type responsesResponse struct {
	Output []struct {
		Type    string `json:"type"`
		Role    string `json:"role,omitempty"`
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text,omitempty"`
		} `json:"content,omitempty"`
	} `json:"output"`
	Refusal string `json:"refusal,omitempty"`
}

func extractOutputText(resp responsesResponse) string {
	var out strings.Builder
	for _, item := range resp.Output {
		if item.Type != "message" || item.Role != "assistant" {
			continue
		}
		for _, part := range item.Content {
			if part.Type == "output_text" && part.Text != "" {
				out.WriteString(part.Text)
			}
		}
	}
	return out.String()
}

func (c *client) buildRequest(system string, history []Message, stream bool) *responsesRequest {
	req := &responsesRequest{
		Model:       c.model,
		Input:       make([]inputItem, 0, len(history)+1),
		Temperature: c.temperatureFor(c.model),
		Stream:      stream,
	}
	if s := strings.TrimSpace(system); s != "" {
		req.Input = append(req.Input, inputItem{Role: "system", Content: s})
	}
	for _, m := range history {
		req.Input = append(req.Input, inputItem{Role: m.Role, Content: m.Content})
	}
	return req
}

func (c *client) GenerateText(ctx context.Context, system string, user string) (string, error) {
	req := c.buildRequest(system, []Message{{Role: "user", Content: user}}, false)

	var resp responsesResponse
	err := c.do(ctx, http.MethodPost, "/v1/responses", req, &resp)
	if err != nil && req.Temperature != nil && isUnsupportedTemperature(err) {
		c.noteNoTemp(req.Model)
		req.Temperature = nil
		err = c.do(ctx, http.MethodPost, "/v1/responses", req, &resp)
	}
	if err != nil {
		return "", err
	}
	if resp.Refusal != "" {
		return "", fmt.Errorf("model refused: %s", resp.Refusal)
	}
	text := extractOutputText(resp)
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("no output_text found in response")
	}
	return text, nil
}

// StreamChat streams output_text deltas from the Responses API. Every non-empty delta is
// forwarded to onDelta and accumulated into the returned text. Streams are not retried.
func (c *client) StreamChat(ctx context.Context, system string, history []Message, onDelta func(delta string)) (string, error) {
	reqBody := c.buildRequest(system, history, true)

	open := func(body *responsesRequest) (*http.Response, error) {
		req, err := c.newRequest(ctx, http.MethodPost, "/v1/responses", body)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "text/event-stream")
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return resp, nil
		}
		raw, _ := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		return nil, &httpx.StatusError{Service: "openai", StatusCode: resp.StatusCode, Body: string(raw)}
	}

	resp, err := open(reqBody)
	if err != nil && reqBody.Temperature != nil && isUnsupportedTemperature(err) {
		c.noteNoTemp(reqBody.Model)
		reqBody.Temperature = nil
		resp, err = open(reqBody)
	}
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var full strings.Builder
	err = streamSSE(resp.Body, func(event string, data string) error {
		data = strings.TrimSpace(data)
		if data == "" || data == "[DONE]" {
			return nil
		}
		var obj map[string]any
		if err := json.Unmarshal([]byte(data), &obj); err != nil {
			return nil
		}
		evt := strings.TrimSpace(event)
		if t, ok := obj["type"].(string); ok && strings.TrimSpace(t) != "" {
			evt = strings.TrimSpace(t)
		}
		if r, ok := obj["refusal"].(string); ok && strings.TrimSpace(r) != "" {
			return fmt.Errorf("model refused: %s", r)
		}
		if eAny, ok := obj["error"]; ok && eAny != nil {
			b, _ := json.Marshal(eAny)
			return fmt.Errorf("openai stream error: %s", string(b))
		}
		d, ok := obj["delta"].(string)
		if !ok || !strings.Contains(evt, "output_text.delta") {
			return nil
		}
		d = strings.TrimRight(d, "\u0000")
		if d == "" {
			return nil
		}
		full.WriteString(d)
		if onDelta != nil {
			onDelta(d)
		}
		return nil
	})
	if err != nil {
		return full.String(), err
	}
	return full.String(), nil
}

// -------------------- Speech --------------------

type speechRequest struct {
	Model          string `json:"model"`
	Input          string `json:"input"`
	Voice          string `json:"voice"`
	ResponseFormat string `json:"response_format,omitempty"`
}

var speechMimeTypes = map[string]string{
	"mp3":  "audio/mpeg",
	"opus": "audio/opus",
	"aac":  "audio/aac",
	"flac": "audio/flac",
	"wav":  "audio/wav",
}

func (c *client) Speech(ctx context.Context, req SpeechRequest) (*SpeechResult, error) {
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return nil, errors.New("speech text required")
	}
	voice := strings.TrimSpace(req.Voice)
	if voice == "" {
		voice = c.cfg.SpeechVoice
	}
	format := strings.ToLower(strings.TrimSpace(req.Format))
	mime, ok := speechMimeTypes[format]
	if !ok {
		format, mime = "mp3", "audio/mpeg"
	}
	raw, header, err := c.doRaw(ctx, http.MethodPost, "/v1/audio/speech", speechRequest{
		Model:          c.cfg.SpeechModel,
		Input:          text,
		Voice:          voice,
		ResponseFormat: format,
	})
	if err != nil {
		return nil, err
	}
	if ct := strings.TrimSpace(header.Get("Content-Type")); strings.HasPrefix(ct, "audio/") {
		mime = ct
	}
	return &SpeechResult{Audio: raw, MimeType: mime}, nil
}
