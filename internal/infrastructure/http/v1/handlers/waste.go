package handlers

import (
	"github.com/gin-gonic/gin"

	"mise/internal/core/apperror"
	"mise/internal/core/id"
	"mise/internal/core/workflow"
	"mise/internal/domain/documents/waste"
	"mise/internal/infrastructure/http/v1/dto"
)

// WasteHandler handles waste record endpoints.
type WasteHandler struct {
	*BaseHandler
	service *waste.Service
}

// NewWasteHandler creates a new waste handler.
func NewWasteHandler(base *BaseHandler, service *waste.Service) *WasteHandler {
	return &WasteHandler{BaseHandler: base, service: service}
}

func (h *WasteHandler) List(c *gin.Context) {
	act, ok := h.Actor(c)
	if !ok {
		return
	}
	var q dto.DocumentListQuery
	if !h.BindQuery(c, &q) {
		return
	}

	filter := waste.ListFilter{ListFilter: q.ToFilter()}
	filter.DateFrom = q.DateFrom
	filter.DateTo = q.DateTo
	filter.Reason = c.Query("reason")
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

func (h *WasteHandler) Get(c *gin.Context) {
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

func (h *WasteHandler) Create(c *gin.Context) {
	act, ok := h.Actor(c)
	if !ok {
		return
	}
	var req dto.CreateWasteRequest
	if !h.BindJSON(c, &req) {
		return
	}

	locID, err := id.Parse(req.LocationID)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid location id"))
		return
	}

	doc := waste.New(act.TenantID, locID, req.Reason)
	doc.Note = req.Note

	if err := h.service.Create(c.Request.Context(), act, doc); err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, doc)
}

func (h *WasteHandler) AddLine(c *gin.Context) {
	act, ok := h.Actor(c)
	if !ok {
		return
	}
	docID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req dto.AddWasteLineRequest
	if !h.BindJSON(c, &req) {
		return
	}

	productID, err := id.Parse(req.ProductID)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid product id"))
		return
	}

	doc, err := h.service.AddLine(c.Request.Context(), act, docID, productID, req.Qty, req.Note)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, doc)
}

func (h *WasteHandler) Approve(c *gin.Context) {
	act, ok := h.Actor(c)
	if !ok {
		return
	}
	docID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	doc, err := h.service.Approve(c.Request.Context(), act, docID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, doc)
}

func (h *WasteHandler) Post(c *gin.Context) {
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
