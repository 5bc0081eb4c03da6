package handler

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	apperrors "github.com/kbvault/kbvault/internal/errors"
	"github.com/kbvault/kbvault/internal/middleware"
	"github.com/kbvault/kbvault/internal/types"
	"github.com/kbvault/kbvault/internal/types/interfaces"
)

// DocumentHandler ingests documents into a knowledge base (JSON body with
// raw content, or multipart file upload) and drives them synchronously
// through the Ingestion Orchestrator.
type DocumentHandler struct {
	docs    interfaces.DocumentRepository
	kbs     interfaces.KnowledgeBaseRepository
	tenants interfaces.TenantRepository
	ingest  interfaces.Ingestor
}

func NewDocumentHandler(
	docs interfaces.DocumentRepository,
	kbs interfaces.KnowledgeBaseRepository,
	tenants interfaces.TenantRepository,
	ingest interfaces.Ingestor,
) *DocumentHandler {
	return &DocumentHandler{docs: docs, kbs: kbs, tenants: tenants, ingest: ingest}
}

type createDocumentRequest struct {
	Title       string         `json:"title" binding:"required"`
	Content     string         `json:"content" binding:"required"`
	SourceURI   string         `json:"source_uri"`
	Sensitivity string         `json:"sensitivity"`
	AllowUsers  []string       `json:"allow_users"`
	AllowRoles  []string       `json:"allow_roles"`
	AllowGroups []string       `json:"allow_groups"`
	Metadata    map[string]any `json:"metadata"`
}

// Create ingests a document, accepting either a JSON body (content
// inline) or a multipart/form-data upload (file field "file", metadata
// fields alongside it as plain form values).
func (h *DocumentHandler) Create(c *gin.Context) {
	rc := middleware.RequestContextFrom(c)

	kb, err := h.loadScopedKB(c, rc.TenantID)
	if err != nil {
		c.Error(err)
		return
	}

	doc, err := h.buildDocument(c, kb)
	if err != nil {
		c.Error(err)
		return
	}

	if existing, err := h.docs.GetByContentHash(c.Request.Context(), kb.ID, doc.ContentHash); err == nil {
		c.JSON(http.StatusOK, gin.H{"document": existing, "deduplicated": true})
		return
	}

	if err := h.docs.Create(c.Request.Context(), doc); err != nil {
		c.Error(asAppError(err, "create document"))
		return
	}

	result, ingestErr := h.ingest.Ingest(c.Request.Context(), interfaces.IngestRequest{DocumentID: doc.ID})
	if ingestErr != nil {
		c.Error(asAppError(ingestErr, "ingest document"))
		return
	}
	c.JSON(http.StatusCreated, gin.H{"document": doc, "chunk_count": len(result.Pieces)})
}

// buildDocument reads either the JSON or multipart request body into a
// persistable Document, scoped to kb and the caller's tenant, and enforces
// the tenant's doc_quota.
func (h *DocumentHandler) buildDocument(c *gin.Context, kb *types.KnowledgeBase) (*types.Document, error) {
	rc := middleware.RequestContextFrom(c)

	var (
		title, content, sourceURI, sensitivity string
		allowUsers, allowRoles, allowGroups     types.StringList
		metadata                                map[string]any
	)

	if strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		file, header, err := c.Request.FormFile("file")
		if err != nil {
			return nil, apperrors.NewValidationError("missing multipart file field \"file\"")
		}
		defer file.Close()
		raw, err := io.ReadAll(file)
		if err != nil {
			return nil, apperrors.NewValidationError("read uploaded file").WithDetails(err.Error())
		}
		content = string(raw)
		title = c.Request.FormValue("title")
		if title == "" {
			title = header.Filename
		}
		sourceURI = c.Request.FormValue("source_uri")
		sensitivity = c.Request.FormValue("sensitivity")
		allowUsers = splitFormList(c.Request.FormValue("allow_users"))
		allowRoles = splitFormList(c.Request.FormValue("allow_roles"))
		allowGroups = splitFormList(c.Request.FormValue("allow_groups"))
	} else {
		var req createDocumentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			return nil, apperrors.NewValidationError("invalid request body").WithDetails(err.Error())
		}
		title = req.Title
		content = req.Content
		sourceURI = req.SourceURI
		sensitivity = req.Sensitivity
		allowUsers = req.AllowUsers
		allowRoles = req.AllowRoles
		allowGroups = req.AllowGroups
		metadata = req.Metadata
	}

	if content == "" {
		return nil, apperrors.NewValidationError("document content must not be empty")
	}

	if err := h.enforceDocQuota(c, rc.TenantID, kb.ID); err != nil {
		return nil, err
	}

	sum := sha256.Sum256([]byte(content))
	return &types.Document{
		ID:              uuid.New().String(),
		TenantID:        rc.TenantID,
		KnowledgeBaseID: kb.ID,
		Title:           title,
		SourceURI:       sourceURI,
		Content:         content,
		ContentHash:     hex.EncodeToString(sum[:]),
		SizeBytes:       int64(len(content)),
		Sensitivity:     types.ParseClearance(sensitivity),
		AllowUsers:      allowUsers,
		AllowRoles:      allowRoles,
		AllowGroups:     allowGroups,
		Metadata:        types.JSON(metadata),
		SummaryStatus:   types.SummaryNone,
	}, nil
}

// enforceDocQuota rejects ingestion once the knowledge base's document
// count reaches the tenant's doc_quota. The repository only counts per
// knowledge base, so a multi-KB tenant's quota is effectively enforced
// per KB rather than summed across KBs; see DESIGN.md.
func (h *DocumentHandler) enforceDocQuota(c *gin.Context, tenantID, kbID string) error {
	tenant, err := h.tenants.GetByID(c.Request.Context(), tenantID)
	if err != nil {
		return asAppError(err, "load tenant")
	}
	if tenant.DocQuota == types.Unlimited {
		return nil
	}
	count, err := h.docs.CountByKnowledgeBase(c.Request.Context(), kbID)
	if err != nil {
		return asAppError(err, "count documents")
	}
	if count >= tenant.DocQuota {
		return apperrors.NewQuotaExceededError("document quota exceeded for tenant")
	}
	return nil
}

// Get returns a single document, scoped to the caller's tenant.
func (h *DocumentHandler) Get(c *gin.Context) {
	doc, err := h.scopedGet(c)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

// List paginates documents within a knowledge base.
func (h *DocumentHandler) List(c *gin.Context) {
	rc := middleware.RequestContextFrom(c)
	if _, err := h.loadScopedKB(c, rc.TenantID); err != nil {
		c.Error(err)
		return
	}
	offset, limit := parseOffsetLimit(c)
	list, total, err := h.docs.ListByKnowledgeBase(c.Request.Context(), c.Param("kb_id"), offset, limit)
	if err != nil {
		c.Error(asAppError(err, "list documents"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"documents": list, "total": total})
}

// Delete removes a document and its chunks (the Ingestion Orchestrator's
// delete-then-reingest path covers store cleanup; this call only needs to
// clear the relational rows since there's nothing left to reingest).
func (h *DocumentHandler) Delete(c *gin.Context) {
	doc, err := h.scopedGet(c)
	if err != nil {
		c.Error(err)
		return
	}
	if err := h.docs.Delete(c.Request.Context(), doc.ID); err != nil {
		c.Error(asAppError(err, "delete document"))
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *DocumentHandler) loadScopedKB(c *gin.Context, tenantID string) (*types.KnowledgeBase, error) {
	kb, err := h.kbs.GetByID(c.Request.Context(), c.Param("kb_id"))
	if err != nil {
		return nil, asAppError(err, "load knowledge base")
	}
	if kb.TenantID != tenantID {
		return nil, apperrors.NewNotFoundError("knowledge base not found")
	}
	return kb, nil
}

func (h *DocumentHandler) scopedGet(c *gin.Context) (*types.Document, error) {
	rc := middleware.RequestContextFrom(c)
	doc, err := h.docs.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		return nil, asAppError(err, "load document")
	}
	if doc.TenantID != rc.TenantID {
		return nil, apperrors.NewNotFoundError("document not found")
	}
	return doc, nil
}

func splitFormList(v string) types.StringList {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make(types.StringList, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
