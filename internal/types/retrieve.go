package types

// SourceType names which retrieve engine produced a Hit, so fusion and
// logging can attribute results without re-deriving it from the registry.
type SourceType string

const (
	SourceDense  SourceType = "dense"
	SourceBM25   SourceType = "bm25"
	SourceHybrid SourceType = "hybrid"
)

// MatchType records whether a Hit matched on the original query or on an
// expansion of it (HyDE, multi-query).
type MatchType string

const (
	MatchDirect    MatchType = "direct"
	MatchHyDE      MatchType = "hyde"
	MatchMultiExpn MatchType = "multi_query"
)

// RetrieveParams is the input to a single retrieve engine's Retrieve call.
type RetrieveParams struct {
	TenantID         string
	KnowledgeBaseIDs []string
	Query            string
	QueryVector      []float32
	TopK             int
	Threshold        float64
	// Identity gates push-down ACL filtering; HasIdentity false means no
	// identity is available (internal/system calls) and no ACL predicate
	// should be pushed down.
	Identity    Identity
	HasIdentity bool
	// ChildOnly restricts a dense/bm25 search to child-type chunks, used by
	// the parent_child retriever to search only retrievable leaves.
	ChildOnly bool
	// EmbeddingModelID selects which configured Embedder the dense retriever
	// (and hyde/multi_query, which embed on its behalf) should call. Set by
	// the Query Orchestrator after validating every scoped KB shares one
	// embedding config.
	EmbeddingModelID string
}

// Hit is one candidate result from a retrieve engine, before fusion,
// dedupe, parent-expansion, rerank, or ACL trimming.
type Hit struct {
	ChunkID    string
	DocumentID string
	Text       string
	Score      float64
	Source     SourceType
	Match      MatchType
	DocACL     DocumentACL
	Metadata   map[string]any
}

// QueryResult is the final, post-processed output of the Query
// Orchestrator: the hits a caller is both relevant to and permitted to
// see, plus the attribution block spec.md §4.6 step 6 requires.
type QueryResult struct {
	Hits            []Hit
	TotalCandidates int
	Retrieval       RetrievalInfo
}

// ModelInfo describes a configured embedding, chat, or rerank model for
// catalog/listing endpoints and retrieval/answer attribution.
type ModelInfo struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Kind       string `json:"kind"` // embedding, chat, rerank
	Dimensions int    `json:"dimensions,omitempty"`
}

// RetrievalInfo attributes a QueryResult to the models and retriever that
// produced it (spec.md §4.6's "ModelInfo block").
type RetrievalInfo struct {
	Retriever string     `json:"retriever"`
	Embedding ModelInfo  `json:"embedding"`
	Rerank    *ModelInfo `json:"rerank,omitempty"`
}

// Answer is the output of the RAG Orchestrator: a generated response plus
// the chunks it was grounded on (spec.md §4.7 step 4).
type Answer struct {
	Text           string        `json:"text"`
	Sources        []Hit         `json:"sources"`
	Retrieval      RetrievalInfo `json:"retrieval"`
	Chat           ModelInfo     `json:"chat"`
	RetrievalCount int           `json:"retrieval_count"`
}
