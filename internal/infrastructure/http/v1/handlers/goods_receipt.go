package handlers

import (
	"github.com/gin-gonic/gin"

	"mise/internal/core/apperror"
	"mise/internal/core/id"
	"mise/internal/core/workflow"
	"mise/internal/domain/documents/goodsreceipt"
	"mise/internal/infrastructure/http/v1/dto"
)

// GoodsReceiptHandler handles goods receipt endpoints.
type GoodsReceiptHandler struct {
	*BaseHandler
	service *goodsreceipt.Service
}

// NewGoodsReceiptHandler creates a new goods receipt handler.
func NewGoodsReceiptHandler(base *BaseHandler, service *goodsreceipt.Service) *GoodsReceiptHandler {
	return &GoodsReceiptHandler{BaseHandler: base, service: service}
}

func (h *GoodsReceiptHandler) List(c *gin.Context) {
	act, ok := h.Actor(c)
	if !ok {
		return
	}
	var q dto.DocumentListQuery
	if !h.BindQuery(c, &q) {
		return
	}

	filter := goodsreceipt.ListFilter{ListFilter: q.ToFilter()}
	filter.DateFrom = q.DateFrom
	filter.DateTo = q.DateTo
	if q.LocationID != nil {
		locID, err := id.Parse(*q.LocationID)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid location id"))
			return
		}
		filter.LocationID = &locID
	}
	if q.Status != nil {
		status := workflow.Status(*q.Status)
		filter.Status = &status
	}

	result, err := h.service.List(c.Request.Context(), act, filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromListResult(result))
}

func (h *GoodsReceiptHandler) Get(c *gin.Context) {
	act, ok := h.Actor(c)
	if !ok {
		return
	}
	docID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	doc, err := h.service.GetByID(c.Request.Context(), act, docID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, doc)
}

func (h *GoodsReceiptHandler) Create(c *gin.Context) {
	act, ok := h.Actor(c)
	if !ok {
		return
	}
	var req dto.CreateReceiptRequest
	if !h.BindJSON(c, &req) {
		return
	}

	locID, err := id.Parse(req.LocationID)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid location id"))
		return
	}

	doc := goodsreceipt.New(act.TenantID, locID)
	doc.SupplierRef = req.SupplierRef
	doc.Note = req.Note

	if err := h.service.Create(c.Request.Context(), act, doc); err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, doc)
}

func (h *GoodsReceiptHandler) AddLine(c *gin.Context) {
	act, ok := h.Actor(c)
	if !ok {
		return
	}
	docID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req dto.AddReceiptLineRequest
	if !h.BindJSON(c, &req) {
		return
	}

	productID, err := id.Parse(req.ProductID)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid product id"))
		return
	}

	var lotID *id.ID
	if req.LotID != nil {
		parsed, err := id.Parse(*req.LotID)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid lot id"))
			return
		}
		lotID = &parsed
	}

	doc, err := h.service.AddLine(c.Request.Context(), act, docID, productID, req.Qty, req.UnitCost, lotID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, doc)
}

func (h *GoodsReceiptHandler) Post(c *gin.Context) {
	act, ok := h.Actor(c)
	if !ok {
		return
	}
	docID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	doc, err := h.service.Post(c.Request.Context(), act, docID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, doc)
}
