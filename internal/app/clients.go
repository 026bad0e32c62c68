package app

import (
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/memberhub-backend/internal/platform/gcp"
	"github.com/yungbote/memberhub-backend/internal/platform/logger"
	"github.com/yungbote/memberhub-backend/internal/platform/openai"
	"github.com/yungbote/memberhub-backend/internal/platform/redisx"
	"github.com/yungbote/memberhub-backend/internal/platform/sendgrid"
	"github.com/yungbote/memberhub-backend/internal/platform/vectorstore"
)

// Clients holds the external API clients. Everything except OpenAI is optional and left
// nil when not configured.
type Clients struct {
	OpenAI      openai.Client
	SendGrid    sendgrid.Client
	Redis       *goredis.Client
	Vectors     vectorstore.Store
	GcpDocument gcp.Document
}

func wireClients(log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")

	ai, err := openai.NewFromEnv(log)
	if err != nil {
		return Clients{}, fmt.Errorf("init openai client: %w", err)
	}
	out := Clients{OpenAI: ai}

	if sendgrid.ConfigFromEnv().APIKey != "" {
		sg, err := sendgrid.NewFromEnv(log)
		if err != nil {
			return Clients{}, fmt.Errorf("init sendgrid client: %w", err)
		}
		out.SendGrid = sg
	} else {
		log.Warn("SENDGRID_API_KEY not set; welcome emails disabled")
	}

	rdb, err := redisx.New(log, redisx.ConfigFromEnv())
	if err != nil {
		return Clients{}, fmt.Errorf("init redis: %w", err)
	}
	out.Redis = rdb

	vs, err := resolveVectorStore(log, cfg.VectorProvider)
	if err != nil {
		out.Close()
		return Clients{}, err
	}
	out.Vectors = vs

	if dcfg := gcp.DocumentConfigFromEnv(); dcfg.Enabled() {
		doc, err := gcp.NewDocument(log, dcfg)
		if err != nil {
			out.Close()
			return Clients{}, fmt.Errorf("init document ai client: %w", err)
		}
		out.GcpDocument = doc
	} else {
		log.Info("Document AI not configured; scanned PDFs will not be OCRed")
	}

	return out, nil
}

func (c *Clients) Close() {
	if c == nil {
		return
	}
	if c.Redis != nil {
		_ = c.Redis.Close()
	}
	if c.GcpDocument != nil {
		_ = c.GcpDocument.Close()
	}
}
