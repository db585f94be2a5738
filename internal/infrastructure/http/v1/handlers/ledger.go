package handlers

import (
	"github.com/gin-gonic/gin"

	"mise/internal/core/apperror"
	"mise/internal/core/id"
	"mise/internal/domain/ledger"
	"mise/internal/infrastructure/http/v1/dto"
)

// LedgerHandler exposes read-only stock balance and history endpoints.
type LedgerHandler struct {
	*BaseHandler
	service *ledger.Service
}

// NewLedgerHandler creates a new ledger handler.
func NewLedgerHandler(base *BaseHandler, service *ledger.Service) *LedgerHandler {
	return &LedgerHandler{BaseHandler: base, service: service}
}

// OnHand returns current balances for the requested products at one location.
func (h *LedgerHandler) OnHand(c *gin.Context) {
	act, ok := h.Actor(c)
	if !ok {
		return
	}
	var q dto.OnHandQuery
	if !h.BindQuery(c, &q) {
		return
	}

	locID, err := id.Parse(q.LocationID)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid location id"))
		return
	}

	productIDs := make([]id.ID, 0, len(q.ProductIDs))
	for _, raw := range q.ProductIDs {
		productID, err := id.Parse(raw)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid product id").WithDetail("value", raw))
			return
		}
		productIDs = append(productIDs, productID)
	}

	balances, err := h.service.OnHandByProducts(c.Request.Context(), act.TenantID, locID, productIDs)
	if err != nil {
		h.Error(c, err)
		return
	}

	// Products with no ledger entries come back as explicit zeros.
	resp := make([]dto.OnHandResponse, 0, len(productIDs))
	for _, productID := range productIDs {
		resp = append(resp, dto.OnHandResponse{
			ProductID: productID.String(),
			OnHand:    balances[productID],
		})
	}
	h.OK(c, resp)
}

// History returns ledger entries for one product at one location, newest first.
func (h *LedgerHandler) History(c *gin.Context) {
	act, ok := h.Actor(c)
	if !ok {
		return
	}
	var q dto.LedgerHistoryQuery
	if !h.BindQuery(c, &q) {
		return
	}

	locID, err := id.Parse(q.LocationID)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid location id"))
		return
	}
	productID, err := id.Parse(q.ProductID)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid product id"))
		return
	}

	filter := ledger.HistoryFilter{
		FromDate: q.FromDate,
		ToDate:   q.ToDate,
		Limit:    q.Limit,
		Offset:   q.Offset,
	}
	if q.Type != nil {
		entryType := ledger.EntryType(*q.Type)
		filter.Type = &entryType
	}

	key := ledger.Key{
		TenantID:   act.TenantID,
		LocationID: locID,
		ProductID:  productID,
	}
	if q.LotID != nil {
		lotID, err := id.Parse(*q.LotID)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid lot id"))
			return
		}
		key.LotID = &lotID
	}

	entries, err := h.service.History(c.Request.Context(), key, filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, entries)
}
