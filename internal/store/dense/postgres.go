// Package dense implements the Dense Store Adapter over pgvector, adapted
// from the teacher's postgres retriever repository: halfvec columns, the
// cosine (<=>) operator, and clause.Expr filter push-down — generalized
// here to carry ACL fields directly on the row so tenant/kb/ACL filtering
// all happens in one query instead of a separate join.
package dense

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/kbvault/kbvault/internal/logger"
	"github.com/kbvault/kbvault/internal/types"
	"github.com/kbvault/kbvault/internal/types/interfaces"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// row is the pgvector-backed table storing one embedding per chunk.
type row struct {
	ID              uint      `gorm:"primarykey"`
	ChunkID         string    `gorm:"column:chunk_id;uniqueIndex"`
	TenantID        string    `gorm:"column:tenant_id;index"`
	KnowledgeBaseID string    `gorm:"column:knowledge_base_id;index"`
	DocumentID      string    `gorm:"column:document_id;index"`
	Text            string    `gorm:"column:text"`
	Dimension       int       `gorm:"column:dimension"`
	Embedding       pgvector.HalfVector `gorm:"column:embedding"`
	Sensitivity     int       `gorm:"column:sensitivity"`
	AllowUsers      types.StringList `gorm:"column:allow_users;type:json"`
	AllowRoles      types.StringList `gorm:"column:allow_roles;type:json"`
	AllowGroups     types.StringList `gorm:"column:allow_groups;type:json"`
	IsChild         bool      `gorm:"column:is_child"`
	ParentChunkID   string    `gorm:"column:parent_chunk_id;index"`
	Metadata        types.JSON `gorm:"column:metadata;type:json"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (row) TableName() string { return "dense_chunks" }

type rowWithScore struct {
	row
	Score float64 `gorm:"column:score"`
}

func (rowWithScore) TableName() string { return "dense_chunks" }

// Store is the gorm+pgvector-backed DenseStore adapter.
type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// AutoMigrate creates/updates the dense_chunks table, grounded on the
// teacher's reliance on gorm.AutoMigrate at startup rather than a separate
// migration tool for this table.
func (s *Store) AutoMigrate(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(&row{})
}

func toRow(chunkID string, vector []float32, meta map[string]any) row {
	r := row{
		ChunkID:   chunkID,
		Dimension: len(vector),
		Embedding: pgvector.NewHalfVector(vector),
	}
	if v, ok := meta["tenant_id"].(string); ok {
		r.TenantID = v
	}
	if v, ok := meta["kb_id"].(string); ok {
		r.KnowledgeBaseID = v
	}
	if v, ok := meta["doc_id"].(string); ok {
		r.DocumentID = v
	}
	if v, ok := meta["text"].(string); ok {
		r.Text = v
	}
	if v, ok := meta["sensitivity_level"].(int); ok {
		r.Sensitivity = v
	}
	if v, ok := meta["acl_allow_users"].(types.StringList); ok {
		r.AllowUsers = v
	}
	if v, ok := meta["acl_allow_roles"].(types.StringList); ok {
		r.AllowRoles = v
	}
	if v, ok := meta["acl_allow_groups"].(types.StringList); ok {
		r.AllowGroups = v
	}
	if v, ok := meta["child"].(bool); ok {
		r.IsChild = v
	}
	if v, ok := meta["parent_id"].(string); ok {
		r.ParentChunkID = v
	}
	extra := types.JSON{}
	for k, v := range meta {
		if _, reserved := reservedMetaKeys[k]; reserved {
			continue
		}
		extra[k] = v
	}
	r.Metadata = extra
	return r
}

var reservedMetaKeys = map[string]struct{}{
	"tenant_id": {}, "kb_id": {}, "doc_id": {}, "text": {},
	"sensitivity_level": {}, "acl_allow_users": {}, "acl_allow_roles": {},
	"acl_allow_groups": {}, "child": {}, "parent_id": {},
}

func (s *Store) Upsert(ctx context.Context, chunkID string, vector []float32, meta map[string]any) error {
	return s.BatchUpsert(ctx, []string{chunkID}, [][]float32{vector}, []map[string]any{meta})
}

func (s *Store) BatchUpsert(ctx context.Context, chunkIDs []string, vectors [][]float32, metas []map[string]any) error {
	rows := make([]row, len(chunkIDs))
	for i, id := range chunkIDs {
		rows[i] = toRow(id, vectors[i], metas[i])
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "chunk_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"tenant_id", "knowledge_base_id", "document_id", "text", "dimension",
			"embedding", "sensitivity", "allow_users", "allow_roles", "allow_groups",
			"is_child", "parent_chunk_id", "metadata", "updated_at",
		}),
	}).Create(&rows).Error
	if err != nil {
		logger.Errorf(ctx, "[dense] batch upsert failed: %v", err)
	}
	return err
}

func (s *Store) DeleteByChunkIDs(ctx context.Context, chunkIDs []string) error {
	if len(chunkIDs) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Where("chunk_id IN ?", chunkIDs).Delete(&row{}).Error
}

func (s *Store) DeleteByDocumentID(ctx context.Context, documentID string) error {
	return s.db.WithContext(ctx).Where("document_id = ?", documentID).Delete(&row{}).Error
}

// Search performs pgvector cosine similarity search with tenant/kb/ACL
// filter push-down, grounded on the teacher's VectorRetrieve.
func (s *Store) Search(ctx context.Context, vector []float32, topK int, filter interfaces.StoreFilter) ([]types.Hit, error) {
	dimension := len(vector)
	conds := aclConds(filter)
	conds = append(conds, clause.Expr{SQL: "dimension = ?", Vars: []interface{}{dimension}})

	var rowsWithScore []rowWithScore
	err := s.db.WithContext(ctx).Clauses(conds...).
		Select(fmt.Sprintf(
			"*, (1 - (embedding::halfvec(%d) <=> ?::halfvec)) as score", dimension,
		), pgvector.NewHalfVector(vector)).
		Clauses(clause.OrderBy{Expression: clause.Expr{
			SQL:  fmt.Sprintf("embedding::halfvec(%d) <=> ?::halfvec", dimension),
			Vars: []interface{}{pgvector.NewHalfVector(vector)},
		}}).
		Limit(topK).
		Find(&rowsWithScore).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("dense search: %w", err)
	}

	hits := make([]types.Hit, len(rowsWithScore))
	for i, r := range rowsWithScore {
		hits[i] = rowToHit(r.row, r.Score)
	}
	return hits, nil
}

func rowToHit(r row, score float64) types.Hit {
	meta := map[string]any{}
	for k, v := range r.Metadata {
		meta[k] = v
	}
	meta["child"] = r.IsChild
	if r.ParentChunkID != "" {
		meta["parent_id"] = r.ParentChunkID
	}
	return types.Hit{
		ChunkID:    r.ChunkID,
		DocumentID: r.DocumentID,
		Text:       r.Text,
		Score:      score,
		Source:     types.SourceDense,
		Match:      types.MatchDirect,
		DocACL: types.DocumentACL{
			Sensitivity: types.Clearance(r.Sensitivity),
			AllowUsers:  r.AllowUsers,
			AllowRoles:  r.AllowRoles,
			AllowGroups: r.AllowGroups,
		},
		Metadata: meta,
	}
}

// aclConds builds the tenant/kb/ACL predicate shared by dense and (by
// equivalent bleve construction) sparse search, implementing spec.md
// §4.5's store_filter as Postgres JSON-containment clauses.
func aclConds(filter interfaces.StoreFilter) []clause.Expression {
	conds := []clause.Expression{
		clause.Expr{SQL: "tenant_id = ?", Vars: []interface{}{filter.TenantID}},
	}
	if len(filter.KnowledgeBaseIDs) > 0 {
		conds = append(conds, clause.IN{Column: "knowledge_base_id", Values: toInterfaceSlice(filter.KnowledgeBaseIDs)})
	}
	if filter.ChildOnly {
		conds = append(conds, clause.Expr{SQL: "is_child = true"})
	}
	if !filter.HasIdentity {
		return conds
	}
	conds = append(conds, clause.Expr{SQL: "sensitivity <= ?", Vars: []interface{}{int(filter.IdentityClearance)}})
	conds = append(conds, clause.Expr{
		SQL:  "(allow_users::jsonb = '[]'::jsonb OR allow_users::jsonb @> ?::jsonb)",
		Vars: []interface{}{fmt.Sprintf(`["%s"]`, filter.IdentityUser)},
	})
	if len(filter.IdentityRoles) > 0 {
		conds = append(conds, clause.Expr{
			SQL: fmt.Sprintf("(allow_roles::jsonb = '[]'::jsonb OR allow_roles::jsonb ?| %s)", pqArray(filter.IdentityRoles)),
		})
	} else {
		conds = append(conds, clause.Expr{SQL: "allow_roles::jsonb = '[]'::jsonb"})
	}
	if len(filter.IdentityGroups) > 0 {
		conds = append(conds, clause.Expr{
			SQL: fmt.Sprintf("(allow_groups::jsonb = '[]'::jsonb OR allow_groups::jsonb ?| %s)", pqArray(filter.IdentityGroups)),
		})
	} else {
		conds = append(conds, clause.Expr{SQL: "allow_groups::jsonb = '[]'::jsonb"})
	}
	return conds
}

func toInterfaceSlice[T any](in []T) []interface{} {
	out := make([]interface{}, len(in))
	for i, v := range in {
		out[i] = v
	}
	return out
}

// pqArray renders a Go string slice as a Postgres text[] array literal for
// the ?| "any keys exist" operator. Single quotes in values are escaped
// since this string is inlined directly into the query, the same pattern
// the teacher's KeywordsRetrieve uses for its knowledge_base_id IN (...)
// clause rather than a bound parameter.
func pqArray(ss []string) string {
	out := "'{"
	for i, s := range ss {
		if i > 0 {
			out += ","
		}
		out += `"` + strings.ReplaceAll(strings.ReplaceAll(s, `'`, `''`), `"`, `\"`) + `"`
	}
	return out + "}'::text[]"
}

var _ interfaces.DenseStore = (*Store)(nil)
