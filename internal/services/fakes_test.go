package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/yungbote/memberhub-backend/internal/platform/ctxutil"
	"github.com/yungbote/memberhub-backend/internal/platform/openai"
	"github.com/yungbote/memberhub-backend/internal/platform/sendgrid"
	"github.com/yungbote/memberhub-backend/internal/platform/vectorstore"

	"github.com/google/uuid"
)

// fakeAI embeds text into a 3-d vector keyed on a few words and records chat calls.
type fakeAI struct {
	mu sync.Mutex

	failEmbedContaining string
	embedCalls          int

	generated string
	genSystem string

	lastSystem  string
	lastHistory []openai.Message
	streamParts []string
	streamErr   error

	speechReq openai.SpeechRequest
}

func (f *fakeAI) Embed(ctx context.Context, inputs []string) ([][]float32, error) {
	f.mu.Lock()
	f.embedCalls++
	f.mu.Unlock()
	out := make([][]float32, 0, len(inputs))
	for _, in := range inputs {
		if f.failEmbedContaining != "" && strings.Contains(in, f.failEmbedContaining) {
			return nil, errors.New("embedding upstream failed")
		}
		out = append(out, embedWords(in))
	}
	return out, nil
}

func embedWords(s string) []float32 {
	s = strings.ToLower(s)
	v := []float32{0.01, 0.01, 0.01}
	if strings.Contains(s, "refund") {
		v[0] = 1
	}
	if strings.Contains(s, "certificate") {
		v[1] = 1
	}
	if strings.Contains(s, "schedule") {
		v[2] = 1
	}
	return v
}

func (f *fakeAI) GenerateText(ctx context.Context, system, user string) (string, error) {
	f.genSystem = system
	return f.generated, nil
}

func (f *fakeAI) StreamChat(ctx context.Context, system string, history []openai.Message, onDelta func(string)) (string, error) {
	f.lastSystem = system
	f.lastHistory = history
	if f.streamErr != nil {
		return "", f.streamErr
	}
	var full strings.Builder
	for _, p := range f.streamParts {
		full.WriteString(p)
		if onDelta != nil {
			onDelta(p)
		}
	}
	return full.String(), nil
}

func (f *fakeAI) Speech(ctx context.Context, req openai.SpeechRequest) (*openai.SpeechResult, error) {
	f.speechReq = req
	return &openai.SpeechResult{Audio: []byte("ID3"), MimeType: "audio/mpeg"}, nil
}

type fakeVectors struct {
	upserted map[string]vectorstore.Vector
	deleted  []string
	queryErr error
}

func newFakeVectors() *fakeVectors {
	return &fakeVectors{upserted: map[string]vectorstore.Vector{}}
}

func (f *fakeVectors) Upsert(ctx context.Context, ns string, vecs []vectorstore.Vector) error {
	for _, v := range vecs {
		f.upserted[ns+"/"+v.ID] = v
	}
	return nil
}

func (f *fakeVectors) Query(ctx context.Context, ns string, q []float32, topK int) ([]vectorstore.Match, error) {
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	var out []vectorstore.Match
	for key, v := range f.upserted {
		if !strings.HasPrefix(key, ns+"/") {
			continue
		}
		out = append(out, vectorstore.Match{ID: v.ID, Score: CosineSimilarity(q, v.Values)})
	}
	return out, nil
}

func (f *fakeVectors) Delete(ctx context.Context, ns string, ids []string) error {
	for _, id := range ids {
		delete(f.upserted, ns+"/"+id)
		f.deleted = append(f.deleted, id)
	}
	return nil
}

type fakeMailer struct {
	sent []sendgrid.SendEmailRequest
}

func (f *fakeMailer) Send(ctx context.Context, req sendgrid.SendEmailRequest) (*sendgrid.SendEmailResult, error) {
	f.sent = append(f.sent, req)
	return &sendgrid.SendEmailResult{StatusCode: 202}, nil
}

type fakeLocker struct {
	held map[string]bool
}

func (f *fakeLocker) Acquire(ctx context.Context, name string, ttl time.Duration) (string, bool, error) {
	if f.held == nil {
		f.held = map[string]bool{}
	}
	if f.held[name] {
		return "", false, nil
	}
	f.held[name] = true
	return "token-" + name, true, nil
}

func (f *fakeLocker) Release(ctx context.Context, name, token string) error {
	if token != "token-"+name {
		return nil
	}
	delete(f.held, name)
	return nil
}

func asUser(id uuid.UUID, role string) context.Context {
	return ctxutil.WithRequestData(context.Background(), &ctxutil.RequestData{UserID: id, Email: "member@example.com", Role: role})
}
