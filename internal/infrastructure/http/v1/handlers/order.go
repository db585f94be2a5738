package handlers

import (
	"github.com/gin-gonic/gin"

	"mise/internal/core/apperror"
	"mise/internal/core/id"
	"mise/internal/core/workflow"
	"mise/internal/domain/documents/order"
	"mise/internal/infrastructure/http/v1/dto"
)

// OrderHandler handles POS order endpoints.
type OrderHandler struct {
	*BaseHandler
	service *order.Service
}

// NewOrderHandler creates a new order handler.
func NewOrderHandler(base *BaseHandler, service *order.Service) *OrderHandler {
	return &OrderHandler{BaseHandler: base, service: service}
}

func (h *OrderHandler) List(c *gin.Context) {
	act, ok := h.Actor(c)
	if !ok {
		return
	}
	var q dto.DocumentListQuery
	if !h.BindQuery(c, &q) {
		return
	}

	filter := order.ListFilter{ListFilter: q.ToFilter()}
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
	if prep := c.Query("prepStatus"); prep != "" {
		prepStatus := workflow.PrepStatus(prep)
		filter.PrepStatus = &prepStatus
	}

	result, err := h.service.List(c.Request.Context(), act, filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromListResult(result))
}

func (h *OrderHandler) Get(c *gin.Context) {
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

func (h *OrderHandler) Create(c *gin.Context) {
	act, ok := h.Actor(c)
	if !ok {
		return
	}
	var req dto.CreateOrderRequest
	if !h.BindJSON(c, &req) {
		return
	}

	locID, err := id.Parse(req.LocationID)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid location id"))
		return
	}

	doc := order.New(act.TenantID, locID)
	doc.Note = req.Note

	if err := h.service.Create(c.Request.Context(), act, doc); err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, doc)
}

func (h *OrderHandler) AddItem(c *gin.Context) {
	act, ok := h.Actor(c)
	if !ok {
		return
	}
	docID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req dto.AddOrderItemRequest
	if !h.BindJSON(c, &req) {
		return
	}

	productID, err := id.Parse(req.ProductID)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid product id"))
		return
	}

	doc, err := h.service.AddItem(c.Request.Context(), act, docID, productID, req.Qty, req.UnitPrice)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, doc)
}

func (h *OrderHandler) SetItemStatus(c *gin.Context) {
	act, ok := h.Actor(c)
	if !ok {
		return
	}
	docID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req dto.SetItemPrepStatusRequest
	if !h.BindJSON(c, &req) {
		return
	}

	doc, err := h.service.SetItemStatus(c.Request.Context(), act, docID, req.LineNo, workflow.ItemPrepStatus(req.Status))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, doc)
}

func (h *OrderHandler) Post(c *gin.Context) {
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

func (h *OrderHandler) Void(c *gin.Context) {
	act, ok := h.Actor(c)
	if !ok {
		return
	}
	docID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	doc, err := h.service.Void(c.Request.Context(), act, docID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, doc)
}
