package handlers

import (
	"github.com/gin-gonic/gin"

	"mise/internal/core/apperror"
	"mise/internal/core/id"
	"mise/internal/core/workflow"
	"mise/internal/domain/documents/stockcount"
	"mise/internal/infrastructure/http/v1/dto"
)

// StockCountHandler handles stock count document endpoints.
type StockCountHandler struct {
	*BaseHandler
	service *stockcount.Service
}

// NewStockCountHandler creates a new stock count handler.
func NewStockCountHandler(base *BaseHandler, service *stockcount.Service) *StockCountHandler {
	return &StockCountHandler{BaseHandler: base, service: service}
}

func (h *StockCountHandler) List(c *gin.Context) {
	act, ok := h.Actor(c)
	if !ok {
		return
	}
	var q dto.DocumentListQuery
	if !h.BindQuery(c, &q) {
		return
	}

	filter := stockcount.ListFilter{ListFilter: q.ToFilter()}
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

func (h *StockCountHandler) Get(c *gin.Context) {
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

func (h *StockCountHandler) Create(c *gin.Context) {
	act, ok := h.Actor(c)
	if !ok {
		return
	}
	var req dto.CreateStockCountRequest
	if !h.BindJSON(c, &req) {
		return
	}

	locID, err := id.Parse(req.LocationID)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid location id"))
		return
	}

	doc := stockcount.New(act.TenantID, locID)
	if req.Date != nil {
		doc.Date = *req.Date
	}
	doc.Note = req.Note

	if err := h.service.Create(c.Request.Context(), act, doc); err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, doc)
}

func (h *StockCountHandler) AddLine(c *gin.Context) {
	act, ok := h.Actor(c)
	if !ok {
		return
	}
	docID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req dto.AddCountLineRequest
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

	doc, err := h.service.AddLine(c.Request.Context(), act, docID, productID, lotID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, doc)
}

func (h *StockCountHandler) RecordCount(c *gin.Context) {
	act, ok := h.Actor(c)
	if !ok {
		return
	}
	docID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req dto.RecordCountRequest
	if !h.BindJSON(c, &req) {
		return
	}

	doc, err := h.service.RecordCount(c.Request.Context(), act, docID, req.LineNo, req.Qty)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, doc)
}

func (h *StockCountHandler) SubmitForReview(c *gin.Context) {
	act, ok := h.Actor(c)
	if !ok {
		return
	}
	docID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	doc, err := h.service.SubmitForReview(c.Request.Context(), act, docID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, doc)
}

func (h *StockCountHandler) Post(c *gin.Context) {
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
