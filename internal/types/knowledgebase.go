package types

import (
	"time"

	"gorm.io/gorm"
)

// ChunkerConfig selects and parameterizes the chunker used when ingesting
// documents into this knowledge base.
type ChunkerConfig struct {
	Type         string `json:"type"` // simple, sliding_window, recursive, markdown, code, parent_child
	ChunkSize    int    `json:"chunk_size,omitempty"`
	ChunkOverlap int    `json:"chunk_overlap,omitempty"`
	ParentSize   int    `json:"parent_size,omitempty"`
	Language     string `json:"language,omitempty"`
	Separator    string `json:"separator,omitempty"`    // simple chunker's split separator, default "\n\n"
	ParentMode   string `json:"parent_mode,omitempty"` // parent_child: "fixed" (default) or "paragraph"
}

// RetrieverConfig selects which retrieve engines are active for this
// knowledge base and how their results are fused.
type RetrieverConfig struct {
	Engines     []string `json:"engines"` // e.g. ["dense", "bm25"]
	FusionMode  string   `json:"fusion_mode,omitempty"`  // rrf, weighted
	TopK        int      `json:"top_k,omitempty"`
	RRFK        int      `json:"rrf_k,omitempty"`
	HyDE        bool     `json:"hyde,omitempty"`
	MultiQuery  bool     `json:"multi_query,omitempty"`
}

// EmbeddingConfig selects the embedding model this knowledge base's dense
// store was built with. It cannot change after the first document is
// indexed without a full re-index.
type EmbeddingConfig struct {
	ModelID    string `json:"model_id"`
	Dimensions int    `json:"dimensions"`
}

// KnowledgeBase groups documents under a shared chunking/retrieval/embedding
// configuration. Belongs to exactly one Tenant.
type KnowledgeBase struct {
	ID              string         `json:"id" gorm:"type:varchar(36);primaryKey"`
	TenantID        string         `json:"tenant_id" gorm:"index"`
	Name            string         `json:"name"`
	Description     string         `json:"description"`
	ChunkerConfig   JSON           `json:"chunker_config" gorm:"type:json"`
	RetrieverConfig JSON           `json:"retriever_config" gorm:"type:json"`
	EmbeddingConfig JSON           `json:"embedding_config" gorm:"type:json"`
	DocumentCount   int64          `json:"document_count" gorm:"default:0"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `json:"-" gorm:"index"`
}

// Chunker returns the parsed ChunkerConfig, defaulting to a simple chunker
// when the knowledge base has none configured.
func (kb *KnowledgeBase) Chunker() ChunkerConfig {
	cfg := ChunkerConfig{Type: "simple", ChunkSize: 512, ChunkOverlap: 64}
	if kb.ChunkerConfig == nil {
		return cfg
	}
	if v, ok := kb.ChunkerConfig["type"].(string); ok {
		cfg.Type = v
	}
	if v, ok := kb.ChunkerConfig["chunk_size"].(float64); ok {
		cfg.ChunkSize = int(v)
	}
	if v, ok := kb.ChunkerConfig["chunk_overlap"].(float64); ok {
		cfg.ChunkOverlap = int(v)
	}
	if v, ok := kb.ChunkerConfig["parent_size"].(float64); ok {
		cfg.ParentSize = int(v)
	}
	if v, ok := kb.ChunkerConfig["language"].(string); ok {
		cfg.Language = v
	}
	if v, ok := kb.ChunkerConfig["separator"].(string); ok {
		cfg.Separator = v
	}
	if v, ok := kb.ChunkerConfig["parent_mode"].(string); ok {
		cfg.ParentMode = v
	}
	return cfg
}

// Retriever returns the parsed RetrieverConfig, defaulting to a single
// dense engine when the knowledge base has none configured.
func (kb *KnowledgeBase) Retriever() RetrieverConfig {
	cfg := RetrieverConfig{Engines: []string{"dense"}, FusionMode: "rrf", TopK: 10, RRFK: 60}
	if kb.RetrieverConfig == nil {
		return cfg
	}
	if v, ok := kb.RetrieverConfig["engines"].([]any); ok {
		engines := make([]string, 0, len(v))
		for _, e := range v {
			if s, ok := e.(string); ok {
				engines = append(engines, s)
			}
		}
		if len(engines) > 0 {
			cfg.Engines = engines
		}
	}
	if v, ok := kb.RetrieverConfig["fusion_mode"].(string); ok {
		cfg.FusionMode = v
	}
	if v, ok := kb.RetrieverConfig["top_k"].(float64); ok {
		cfg.TopK = int(v)
	}
	if v, ok := kb.RetrieverConfig["rrf_k"].(float64); ok {
		cfg.RRFK = int(v)
	}
	if v, ok := kb.RetrieverConfig["hyde"].(bool); ok {
		cfg.HyDE = v
	}
	if v, ok := kb.RetrieverConfig["multi_query"].(bool); ok {
		cfg.MultiQuery = v
	}
	return cfg
}

// Embedding returns the parsed EmbeddingConfig.
func (kb *KnowledgeBase) Embedding() EmbeddingConfig {
	var cfg EmbeddingConfig
	if kb.EmbeddingConfig == nil {
		return cfg
	}
	if v, ok := kb.EmbeddingConfig["model_id"].(string); ok {
		cfg.ModelID = v
	}
	if v, ok := kb.EmbeddingConfig["dimensions"].(float64); ok {
		cfg.Dimensions = int(v)
	}
	return cfg
}
