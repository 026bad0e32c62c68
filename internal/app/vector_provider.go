package app

import (
	"errors"
	"fmt"
	"net"
	neturl "net/url"
	"strings"

	"github.com/yungbote/memberhub-backend/internal/platform/logger"
	"github.com/yungbote/memberhub-backend/internal/platform/pinecone"
	"github.com/yungbote/memberhub-backend/internal/platform/qdrant"
	"github.com/yungbote/memberhub-backend/internal/platform/vectorstore"
)

var (
	newPineconeClient      = pinecone.New
	newPineconeVectorStore = pinecone.NewVectorStore
	newQdrantVectorStore   = qdrant.NewVectorStore
	resolveQdrantConfig    = qdrant.ResolveConfigFromEnv
	pineconeConfigFromEnv  = pinecone.ConfigFromEnv
)

type VectorProvider string

const (
	VectorProviderNone     VectorProvider = ""
	VectorProviderPinecone VectorProvider = "pinecone"
	VectorProviderQdrant   VectorProvider = "qdrant"
)

type VectorProviderBootstrapErrorCode string

const (
	VectorProviderBootstrapErrorInvalidProvider     VectorProviderBootstrapErrorCode = "invalid_provider"
	VectorProviderBootstrapErrorMissingQdrantURL    VectorProviderBootstrapErrorCode = "missing_qdrant_url"
	VectorProviderBootstrapErrorInvalidQdrantURL    VectorProviderBootstrapErrorCode = "invalid_qdrant_url"
	VectorProviderBootstrapErrorMissingQdrantColl   VectorProviderBootstrapErrorCode = "missing_qdrant_collection"
	VectorProviderBootstrapErrorMissingQdrantVector VectorProviderBootstrapErrorCode = "missing_qdrant_vector_dim"
	VectorProviderBootstrapErrorInvalidQdrantVector VectorProviderBootstrapErrorCode = "invalid_qdrant_vector_dim"
	VectorProviderBootstrapErrorQdrantConfigFailed  VectorProviderBootstrapErrorCode = "qdrant_config_failed"
	VectorProviderBootstrapErrorConnectFailed       VectorProviderBootstrapErrorCode = "connect_failed"
	VectorProviderBootstrapErrorProviderInitFailed  VectorProviderBootstrapErrorCode = "provider_init_failed"
)

type VectorProviderBootstrapError struct {
	Code     VectorProviderBootstrapErrorCode
	Provider string
	Cause    error
}

func (e *VectorProviderBootstrapError) Error() string {
	if e == nil {
		return "vector provider bootstrap failed"
	}
	return fmt.Sprintf("vector provider bootstrap failed (code=%s provider=%q): %v", e.Code, e.Provider, e.Cause)
}

func (e *VectorProviderBootstrapError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// resolveVectorStore builds the configured vector index. No provider, or pinecone without
// an api key, returns a nil store: knowledge search then scans embeddings in the database.
func resolveVectorStore(log *logger.Logger, provider string) (vectorstore.Store, error) {
	provider = strings.TrimSpace(strings.ToLower(provider))

	switch VectorProvider(provider) {
	case VectorProviderNone:
		log.Info("No vector provider configured; knowledge search uses the database scan")
		return nil, nil

	case VectorProviderQdrant:
		qcfg, err := resolveQdrantConfig()
		if err != nil {
			return nil, bootstrapFailed(log, provider, err)
		}
		log.Info("Selecting vector store provider",
			"provider", provider,
			"qdrant_url", qcfg.URL,
			"qdrant_collection", qcfg.Collection,
			"qdrant_namespace_prefix", qcfg.NamespacePrefix,
			"qdrant_vector_dim", qcfg.VectorDim,
		)
		vs, err := newQdrantVectorStore(log, qcfg)
		if err != nil {
			return nil, bootstrapFailed(log, provider, err)
		}
		return traceVectorStore(provider, vs), nil

	case VectorProviderPinecone:
		pcfg := pineconeConfigFromEnv()
		if strings.TrimSpace(pcfg.APIKey) == "" {
			log.Warn("PINECONE_API_KEY not set; knowledge search uses the database scan")
			return nil, nil
		}
		log.Info("Selecting vector store provider", "provider", provider, "index", pcfg.IndexName)
		pc, err := newPineconeClient(log, pcfg)
		if err != nil {
			return nil, bootstrapFailed(log, provider, err)
		}
		vs, err := newPineconeVectorStore(log, pc, pcfg)
		if err != nil {
			return nil, bootstrapFailed(log, provider, err)
		}
		return traceVectorStore(provider, vs), nil

	default:
		err := &VectorProviderBootstrapError{
			Code:     VectorProviderBootstrapErrorInvalidProvider,
			Provider: provider,
			Cause:    fmt.Errorf("unsupported vector provider %q", provider),
		}
		log.Error("Vector store provider selection failed", "provider", provider, "error_code", err.Code, "error", err)
		return nil, err
	}
}

func bootstrapFailed(log *logger.Logger, provider string, err error) error {
	classified := classifyVectorProviderBootstrapError(provider, err)
	log.Error("Vector store provider bootstrap failed",
		"provider", provider,
		"error_code", vectorProviderBootstrapErrorCode(classified),
		"error", classified,
	)
	return classified
}

func classifyVectorProviderBootstrapError(provider string, err error) error {
	wrap := func(code VectorProviderBootstrapErrorCode) error {
		return &VectorProviderBootstrapError{Code: code, Provider: provider, Cause: err}
	}

	var urlErr *neturl.Error
	if errors.As(err, &urlErr) {
		return wrap(VectorProviderBootstrapErrorConnectFailed)
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return wrap(VectorProviderBootstrapErrorConnectFailed)
	}
	errLower := strings.ToLower(err.Error())
	if strings.Contains(errLower, "ready check failed") || strings.Contains(errLower, "connection refused") {
		return wrap(VectorProviderBootstrapErrorConnectFailed)
	}

	var cfgErr *qdrant.ConfigError
	if errors.As(err, &cfgErr) {
		switch cfgErr.Code {
		case qdrant.ConfigErrorMissingURL:
			return wrap(VectorProviderBootstrapErrorMissingQdrantURL)
		case qdrant.ConfigErrorInvalidURL:
			return wrap(VectorProviderBootstrapErrorInvalidQdrantURL)
		case qdrant.ConfigErrorMissingCollection:
			return wrap(VectorProviderBootstrapErrorMissingQdrantColl)
		case qdrant.ConfigErrorMissingVectorDim:
			return wrap(VectorProviderBootstrapErrorMissingQdrantVector)
		case qdrant.ConfigErrorInvalidVectorDim:
			return wrap(VectorProviderBootstrapErrorInvalidQdrantVector)
		default:
			return wrap(VectorProviderBootstrapErrorQdrantConfigFailed)
		}
	}
	return wrap(VectorProviderBootstrapErrorProviderInitFailed)
}

func vectorProviderBootstrapErrorCode(err error) VectorProviderBootstrapErrorCode {
	var bootstrapErr *VectorProviderBootstrapError
	if errors.As(err, &bootstrapErr) && bootstrapErr.Code != "" {
		return bootstrapErr.Code
	}
	return VectorProviderBootstrapErrorConnectFailed
}
