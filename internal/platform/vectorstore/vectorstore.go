// Package vectorstore defines the contract shared by the external vector index adapters.
package vectorstore

import "context"

type Vector struct {
	ID       string         `json:"id"`
	Values   []float32      `json:"values"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

type Match struct {
	ID    string
	Score float64
}

// Store is an external nearest-neighbour index partitioned by namespace.
type Store interface {
	Upsert(ctx context.Context, namespace string, vectors []Vector) error
	// Query returns ids with their similarity scores (higher is better), best first.
	Query(ctx context.Context, namespace string, q []float32, topK int) ([]Match, error)
	Delete(ctx context.Context, namespace string, ids []string) error
}

// QualifyNamespace prefixes ns so several deployments can share one index.
func QualifyNamespace(prefix, ns string) string {
	if ns == "" {
		return prefix
	}
	if prefix == "" {
		return ns
	}
	return prefix + ":" + ns
}
