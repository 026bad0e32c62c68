package qdrant

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/yungbote/memberhub-backend/internal/platform/envutil"
)

const (
	DefaultCollection      = "memberhub_knowledge"
	DefaultNamespacePrefix = "mh"
)

// Config addresses one collection. Knowledge chunks are the only thing indexed, so a
// collection and namespace default are enough for most deployments; VectorDim must match
// the embedding model and has no default.
type Config struct {
	URL             string
	APIKey          string
	Collection      string
	NamespacePrefix string
	VectorDim       int
	Timeout         time.Duration
}

type ConfigErrorCode string

const (
	ConfigErrorMissingURL        ConfigErrorCode = "missing_url"
	ConfigErrorInvalidURL        ConfigErrorCode = "invalid_url"
	ConfigErrorMissingCollection ConfigErrorCode = "missing_collection"
	ConfigErrorMissingVectorDim  ConfigErrorCode = "missing_vector_dim"
	ConfigErrorInvalidVectorDim  ConfigErrorCode = "invalid_vector_dim"
)

var configErrorText = map[ConfigErrorCode]string{
	ConfigErrorMissingURL:        "QDRANT_URL is required when VECTOR_PROVIDER=qdrant",
	ConfigErrorInvalidURL:        "QDRANT_URL must be absolute, e.g. http://qdrant:6333",
	ConfigErrorMissingCollection: "qdrant collection name is empty",
	ConfigErrorMissingVectorDim:  "QDRANT_VECTOR_DIM is required (the embedding size, e.g. 1536)",
	ConfigErrorInvalidVectorDim:  "QDRANT_VECTOR_DIM must be a positive integer",
}

type ConfigError struct {
	Code  ConfigErrorCode
	Value string
	Cause error
}

func (e *ConfigError) Error() string {
	if e == nil {
		return "invalid qdrant config"
	}
	msg, ok := configErrorText[e.Code]
	if !ok {
		msg = "invalid qdrant config"
	}
	if e.Value != "" {
		return fmt.Sprintf("%s (got %q)", msg, e.Value)
	}
	return msg
}

func (e *ConfigError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func ResolveConfigFromEnv() (Config, error) {
	cfg := Config{
		URL:             strings.TrimSpace(os.Getenv("QDRANT_URL")),
		APIKey:          strings.TrimSpace(os.Getenv("QDRANT_API_KEY")),
		Collection:      envutil.String("QDRANT_COLLECTION", DefaultCollection),
		NamespacePrefix: envutil.String("QDRANT_NAMESPACE_PREFIX", DefaultNamespacePrefix),
		Timeout:         envutil.Seconds("QDRANT_TIMEOUT_SECONDS", 10*time.Second),
	}

	rawDim := strings.TrimSpace(os.Getenv("QDRANT_VECTOR_DIM"))
	if rawDim == "" {
		if err := cfg.validateAddress(); err != nil {
			return Config{}, err
		}
		return Config{}, &ConfigError{Code: ConfigErrorMissingVectorDim}
	}
	dim, err := strconv.Atoi(rawDim)
	if err != nil {
		return Config{}, &ConfigError{Code: ConfigErrorInvalidVectorDim, Value: rawDim, Cause: err}
	}
	cfg.VectorDim = dim

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if err := c.validateAddress(); err != nil {
		return err
	}
	if c.VectorDim <= 0 {
		return &ConfigError{Code: ConfigErrorInvalidVectorDim, Value: strconv.Itoa(c.VectorDim)}
	}
	return nil
}

func (c Config) validateAddress() error {
	if c.URL == "" {
		return &ConfigError{Code: ConfigErrorMissingURL}
	}
	u, err := url.Parse(c.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return &ConfigError{Code: ConfigErrorInvalidURL, Value: c.URL, Cause: err}
	}
	if strings.TrimSpace(c.Collection) == "" {
		return &ConfigError{Code: ConfigErrorMissingCollection}
	}
	return nil
}
