package handlers

import (
	"github.com/gin-gonic/gin"

	"mise/internal/infrastructure/storage/postgres"
)

// entityHistoryLimit caps one history page; the trail for a busy
// document can grow without bound.
const entityHistoryLimit = 100

// AuditHandler exposes the audit trail of a single entity.
type AuditHandler struct {
	*BaseHandler
	audit *postgres.AuditService
}

// NewAuditHandler creates a new audit handler.
func NewAuditHandler(base *BaseHandler, audit *postgres.AuditService) *AuditHandler {
	return &AuditHandler{BaseHandler: base, audit: audit}
}

// EntityHistory returns the audit entries for one entity, newest first.
func (h *AuditHandler) EntityHistory(c *gin.Context) {
	act, ok := h.Actor(c)
	if !ok {
		return
	}
	entityID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	limit := h.ParseIntQuery(c, "limit", entityHistoryLimit)
	if limit <= 0 || limit > entityHistoryLimit {
		limit = entityHistoryLimit
	}

	entries, err := h.audit.GetEntityHistory(c.Request.Context(), act.TenantID, c.Param("entityType"), entityID, limit)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, entries)
}
