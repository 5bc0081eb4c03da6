// Package sparse implements the Sparse Store Adapter: a BM25-style
// keyword index backed by bleve, document-per-chunk, with the same
// tenant/kb/ACL filter push-down the dense store provides. There is no
// teacher analogue for this (WeKnora's "keywords" retriever sits on
// Postgres full-text search); index construction and query shape are
// grounded on the Aman-CERP-amanmcp BM25 store instead.
package sparse

import (
	"context"
	"fmt"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
	"github.com/kbvault/kbvault/internal/types"
	"github.com/kbvault/kbvault/internal/types/interfaces"
)

// doc is the bleve document shape for one chunk. Fields used in filter
// push-down (tenant_id, knowledge_base_id, sensitivity, the ACL lists, the
// has_*_acl flags, is_child) are explicitly mapped as keyword/numeric
// fields; text is the only analyzed, scored field.
type doc struct {
	Text            string   `json:"text"`
	TenantID        string   `json:"tenant_id"`
	KnowledgeBaseID string   `json:"knowledge_base_id"`
	DocumentID      string   `json:"document_id"`
	Sensitivity     float64  `json:"sensitivity"`
	AllowUsers      []string `json:"allow_users"`
	AllowRoles      []string `json:"allow_roles"`
	AllowGroups     []string `json:"allow_groups"`
	HasUserACL      bool     `json:"has_user_acl"`
	HasRoleACL      bool     `json:"has_role_acl"`
	HasGroupACL     bool     `json:"has_group_acl"`
	IsChild         bool     `json:"is_child"`
	ParentChunkID   string   `json:"parent_chunk_id"`
	Metadata        types.JSON `json:"metadata"`
}

// Store is the bleve-backed SparseStore adapter. Both the in-memory
// (path=="") and the on-disk variant are guarded by the same RWMutex:
// writes and deletes take the write lock, searches the read lock.
type Store struct {
	mu    sync.RWMutex
	index bleve.Index
}

// New opens (or creates) a bleve index at path. An empty path creates an
// in-memory index, used for the "memory" sparse-store backend.
func New(path string) (*Store, error) {
	m := buildMapping()

	var idx bleve.Index
	var err error
	if path == "" {
		idx, err = bleve.NewMemOnly(m)
	} else {
		idx, err = bleve.Open(path)
		if err == bleve.ErrorIndexPathDoesNotExist {
			idx, err = bleve.New(path, m)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("open sparse index: %w", err)
	}
	return &Store{index: idx}, nil
}

func buildMapping() *bleve.IndexMapping {
	textField := bleve.NewTextFieldMapping()
	keywordField := bleve.NewKeywordFieldMapping()
	numField := bleve.NewNumericFieldMapping()
	boolField := bleve.NewBooleanFieldMapping()

	docMapping := bleve.NewDocumentMapping()
	docMapping.AddFieldMappingsAt("text", textField)
	docMapping.AddFieldMappingsAt("tenant_id", keywordField)
	docMapping.AddFieldMappingsAt("knowledge_base_id", keywordField)
	docMapping.AddFieldMappingsAt("document_id", keywordField)
	docMapping.AddFieldMappingsAt("sensitivity", numField)
	docMapping.AddFieldMappingsAt("allow_users", keywordField)
	docMapping.AddFieldMappingsAt("allow_roles", keywordField)
	docMapping.AddFieldMappingsAt("allow_groups", keywordField)
	docMapping.AddFieldMappingsAt("has_user_acl", boolField)
	docMapping.AddFieldMappingsAt("has_role_acl", boolField)
	docMapping.AddFieldMappingsAt("has_group_acl", boolField)
	docMapping.AddFieldMappingsAt("is_child", boolField)
	docMapping.AddFieldMappingsAt("parent_chunk_id", keywordField)

	m := bleve.NewIndexMapping()
	m.DefaultMapping = docMapping
	return m
}

func toDoc(text string, meta map[string]any) doc {
	d := doc{Text: text}
	if v, ok := meta["tenant_id"].(string); ok {
		d.TenantID = v
	}
	if v, ok := meta["kb_id"].(string); ok {
		d.KnowledgeBaseID = v
	}
	if v, ok := meta["doc_id"].(string); ok {
		d.DocumentID = v
	}
	if v, ok := meta["sensitivity_level"].(int); ok {
		d.Sensitivity = float64(v)
	}
	if v, ok := meta["acl_allow_users"].(types.StringList); ok {
		d.AllowUsers = v
		d.HasUserACL = len(v) > 0
	}
	if v, ok := meta["acl_allow_roles"].(types.StringList); ok {
		d.AllowRoles = v
		d.HasRoleACL = len(v) > 0
	}
	if v, ok := meta["acl_allow_groups"].(types.StringList); ok {
		d.AllowGroups = v
		d.HasGroupACL = len(v) > 0
	}
	if v, ok := meta["child"].(bool); ok {
		d.IsChild = v
	}
	if v, ok := meta["parent_id"].(string); ok {
		d.ParentChunkID = v
	}
	extra := types.JSON{}
	for k, v := range meta {
		if _, reserved := reservedKeys[k]; reserved {
			continue
		}
		extra[k] = v
	}
	d.Metadata = extra
	return d
}

var reservedKeys = map[string]struct{}{
	"tenant_id": {}, "kb_id": {}, "doc_id": {}, "sensitivity_level": {},
	"acl_allow_users": {}, "acl_allow_roles": {}, "acl_allow_groups": {},
	"child": {}, "parent_id": {},
}

func (s *Store) Upsert(ctx context.Context, chunkID, text string, meta map[string]any) error {
	return s.BatchUpsert(ctx, []string{chunkID}, []string{text}, []map[string]any{meta})
}

func (s *Store) BatchUpsert(ctx context.Context, chunkIDs []string, texts []string, metas []map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	batch := s.index.NewBatch()
	for i, id := range chunkIDs {
		if err := batch.Index(id, toDoc(texts[i], metas[i])); err != nil {
			return fmt.Errorf("sparse batch index %s: %w", id, err)
		}
	}
	return s.index.Batch(batch)
}

func (s *Store) DeleteByChunkIDs(ctx context.Context, chunkIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	batch := s.index.NewBatch()
	for _, id := range chunkIDs {
		batch.Delete(id)
	}
	return s.index.Batch(batch)
}

func (s *Store) DeleteByDocumentID(ctx context.Context, documentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	q := bleve.NewTermQuery(documentID)
	q.SetField("document_id")
	req := bleve.NewSearchRequest(q)
	req.Size = 10000
	res, err := s.index.Search(req)
	if err != nil {
		return fmt.Errorf("sparse lookup for delete: %w", err)
	}
	if len(res.Hits) == 0 {
		return nil
	}
	batch := s.index.NewBatch()
	for _, hit := range res.Hits {
		batch.Delete(hit.ID)
	}
	return s.index.Batch(batch)
}

// Search runs a BM25 match query with tenant/kb/ACL filter push-down per
// spec.md §4.5, returning raw (unnormalized) bleve scores; the bm25
// retriever applies min-max normalization on top.
func (s *Store) Search(ctx context.Context, q string, topK int, filter interfaces.StoreFilter) ([]types.Hit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	conjunct := []query.Query{}

	match := bleve.NewMatchQuery(q)
	match.SetField("text")
	conjunct = append(conjunct, match)

	tenantQ := bleve.NewTermQuery(filter.TenantID)
	tenantQ.SetField("tenant_id")
	conjunct = append(conjunct, tenantQ)

	if len(filter.KnowledgeBaseIDs) > 0 {
		kbDisjunct := make([]query.Query, len(filter.KnowledgeBaseIDs))
		for i, kb := range filter.KnowledgeBaseIDs {
			tq := bleve.NewTermQuery(kb)
			tq.SetField("knowledge_base_id")
			kbDisjunct[i] = tq
		}
		conjunct = append(conjunct, bleve.NewDisjunctionQuery(kbDisjunct...))
	}

	if filter.ChildOnly {
		childQ := bleve.NewBoolFieldQuery(true)
		childQ.SetField("is_child")
		conjunct = append(conjunct, childQ)
	}

	if filter.HasIdentity {
		conjunct = append(conjunct, aclClause(filter))
	}

	searchQuery := bleve.NewConjunctionQuery(conjunct...)
	req := bleve.NewSearchRequest(searchQuery)
	req.Size = topK
	req.Fields = []string{"*"}

	res, err := s.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("sparse search: %w", err)
	}

	hits := make([]types.Hit, 0, len(res.Hits))
	for _, h := range res.Hits {
		hits = append(hits, hitFromFields(h.ID, h.Score, h.Fields))
	}
	return hits, nil
}

// aclClause builds the sensitivity + allow-list predicate as a bleve
// query, equivalent to internal/acl.matches.
func aclClause(filter interfaces.StoreFilter) query.Query {
	and := []query.Query{}

	inclusive := true
	sens := bleve.NewNumericRangeInclusiveQuery(nil, floatPtr(float64(filter.IdentityClearance)), nil, &inclusive)
	sens.SetField("sensitivity")
	and = append(and, sens)

	and = append(and, aclDimension("has_user_acl", "allow_users", []string{filter.IdentityUser}))
	and = append(and, aclDimension("has_role_acl", "allow_roles", filter.IdentityRoles))
	and = append(and, aclDimension("has_group_acl", "allow_groups", filter.IdentityGroups))

	return bleve.NewConjunctionQuery(and...)
}

// aclDimension builds "has_<x>_acl is false OR <field> matches one of values".
func aclDimension(hasFlagField, listField string, values []string) query.Query {
	noRestriction := bleve.NewBoolFieldQuery(false)
	noRestriction.SetField(hasFlagField)

	or := []query.Query{noRestriction}
	for _, v := range values {
		if v == "" {
			continue
		}
		tq := bleve.NewTermQuery(v)
		tq.SetField(listField)
		or = append(or, tq)
	}
	return bleve.NewDisjunctionQuery(or...)
}

func floatPtr(f float64) *float64 { return &f }

func hitFromFields(id string, score float64, fields map[string]any) types.Hit {
	sensitivity := types.ClearancePublic
	if v, ok := fields["sensitivity"].(float64); ok {
		sensitivity = types.Clearance(int(v))
	}
	meta := map[string]any{}
	if v, ok := fields["is_child"].(bool); ok {
		meta["child"] = v
	}
	if v, ok := fields["parent_chunk_id"].(string); ok && v != "" {
		meta["parent_id"] = v
	}
	return types.Hit{
		ChunkID:    id,
		DocumentID: stringField(fields, "document_id"),
		Text:       stringField(fields, "text"),
		Score:      score,
		Source:     types.SourceBM25,
		Match:      types.MatchDirect,
		DocACL: types.DocumentACL{
			Sensitivity: sensitivity,
			AllowUsers:  stringListField(fields, "allow_users"),
			AllowRoles:  stringListField(fields, "allow_roles"),
			AllowGroups: stringListField(fields, "allow_groups"),
		},
		Metadata: meta,
	}
}

func stringField(fields map[string]any, key string) string {
	if v, ok := fields[key].(string); ok {
		return v
	}
	return ""
}

func stringListField(fields map[string]any, key string) types.StringList {
	switch v := fields[key].(type) {
	case string:
		if v == "" {
			return nil
		}
		return types.StringList{v}
	case []interface{}:
		out := make(types.StringList, 0, len(v))
		for _, e := range v {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// Close releases the underlying bleve index.
func (s *Store) Close() error {
	return s.index.Close()
}

var _ interfaces.SparseStore = (*Store)(nil)
