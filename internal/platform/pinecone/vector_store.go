package pinecone

import (
	"context"
	"fmt"
	"strings"

	"github.com/yungbote/memberhub-backend/internal/platform/logger"
	"github.com/yungbote/memberhub-backend/internal/platform/vectorstore"
)

type vectorStore struct {
	log       *logger.Logger
	pc        Client
	indexHost string
	nsPrefix  string
}

func NewVectorStore(log *logger.Logger, pc Client, cfg Config) (vectorstore.Store, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if pc == nil {
		return nil, fmt.Errorf("pinecone client required")
	}
	host := strings.TrimSpace(cfg.IndexHost)
	if host == "" {
		if strings.TrimSpace(cfg.IndexName) == "" {
			return nil, fmt.Errorf("missing PINECONE_INDEX_NAME")
		}
		// Resolving the host at boot costs a control-plane call; set PINECONE_INDEX_HOST in production.
		desc, err := pc.DescribeIndex(context.Background(), cfg.IndexName)
		if err != nil {
			return nil, fmt.Errorf("pinecone describe_index failed: %w", err)
		}
		host = strings.TrimSpace(desc.Host)
		log.Warn("PINECONE_INDEX_HOST not set; resolved via describe_index",
			"index_name", cfg.IndexName,
			"index_host", host,
		)
	}
	return &vectorStore{
		log:       log.With("service", "PineconeVectorStore"),
		pc:        pc,
		indexHost: host,
		nsPrefix:  strings.TrimSpace(cfg.NamespacePrefix),
	}, nil
}

func (s *vectorStore) Upsert(ctx context.Context, namespace string, vectors []vectorstore.Vector) error {
	if len(vectors) == 0 {
		return nil
	}
	_, err := s.pc.UpsertVectors(ctx, s.indexHost, UpsertRequest{
		Namespace: vectorstore.QualifyNamespace(s.nsPrefix, strings.TrimSpace(namespace)),
		Vectors:   vectors,
	})
	return err
}

func (s *vectorStore) Query(ctx context.Context, namespace string, q []float32, topK int) ([]vectorstore.Match, error) {
	resp, err := s.pc.Query(ctx, s.indexHost, QueryRequest{
		Namespace: vectorstore.QualifyNamespace(s.nsPrefix, strings.TrimSpace(namespace)),
		Vector:    q,
		TopK:      topK,
	})
	if err != nil {
		return nil, err
	}
	out := make([]vectorstore.Match, 0, len(resp.Matches))
	for _, m := range resp.Matches {
		if strings.TrimSpace(m.ID) == "" {
			continue
		}
		out = append(out, vectorstore.Match{ID: m.ID, Score: m.Score})
	}
	return out, nil
}

func (s *vectorStore) Delete(ctx context.Context, namespace string, ids []string) error {
	return s.pc.DeleteVectors(ctx, s.indexHost, DeleteRequest{
		Namespace: vectorstore.QualifyNamespace(s.nsPrefix, strings.TrimSpace(namespace)),
		IDs:       ids,
	})
}
