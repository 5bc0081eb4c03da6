package types

import (
	"time"

	"gorm.io/gorm"
)

// Document is a single ingested source (file, URL, or raw text) within a
// knowledge base. ACL fields gate which identities may retrieve chunks
// belonging to it.
type Document struct {
	ID               string         `json:"id" gorm:"type:varchar(36);primaryKey"`
	TenantID         string         `json:"tenant_id" gorm:"index"`
	KnowledgeBaseID  string         `json:"knowledge_base_id" gorm:"index"`
	Title            string         `json:"title"`
	SourceURI        string         `json:"source_uri"`
	Content          string         `json:"content,omitempty" gorm:"type:text"`
	ContentHash      string         `json:"content_hash" gorm:"type:varchar(64);index"`
	SizeBytes        int64          `json:"size_bytes"`
	Sensitivity      Clearance      `json:"sensitivity"`
	AllowUsers       StringList     `json:"allow_users" gorm:"type:json"`
	AllowRoles       StringList     `json:"allow_roles" gorm:"type:json"`
	AllowGroups      StringList     `json:"allow_groups" gorm:"type:json"`
	Metadata         JSON           `json:"metadata" gorm:"type:json"`
	Summary          string         `json:"summary"`
	SummaryStatus    SummaryStatus  `json:"summary_status" gorm:"type:varchar(10);default:'none'"`
	ChunkCount       int            `json:"chunk_count" gorm:"default:0"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	DeletedAt        gorm.DeletedAt `json:"-" gorm:"index"`
}

// ACL returns the document's access-control record as used by the ACL
// evaluator, independent of gorm column representation.
func (d *Document) ACL() DocumentACL {
	return DocumentACL{
		Sensitivity: d.Sensitivity,
		AllowUsers:  d.AllowUsers,
		AllowRoles:  d.AllowRoles,
		AllowGroups: d.AllowGroups,
	}
}

// DocumentACL is the minimal access-control shape the ACL evaluator needs;
// it is carried alongside Chunk search hits so trimming never has to
// refetch the parent Document.
type DocumentACL struct {
	Sensitivity Clearance  `json:"sensitivity"`
	AllowUsers  StringList `json:"allow_users"`
	AllowRoles  StringList `json:"allow_roles"`
	AllowGroups StringList `json:"allow_groups"`
}
