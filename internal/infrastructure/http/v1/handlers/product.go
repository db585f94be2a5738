package handlers

import (
	"github.com/gin-gonic/gin"

	"mise/internal/domain/catalogs/product"
	"mise/internal/infrastructure/http/v1/dto"
)

// ProductHandler handles product catalog endpoints.
type ProductHandler struct {
	*BaseHandler
	service *product.Service
}

// NewProductHandler creates a new product handler.
func NewProductHandler(base *BaseHandler, service *product.Service) *ProductHandler {
	return &ProductHandler{BaseHandler: base, service: service}
}

func (h *ProductHandler) List(c *gin.Context) {
	act, ok := h.Actor(c)
	if !ok {
		return
	}
	var q dto.ListQuery
	if !h.BindQuery(c, &q) {
		return
	}

	result, err := h.service.List(c.Request.Context(), act, q.ToFilter())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromListResult(result))
}

func (h *ProductHandler) Get(c *gin.Context) {
	act, ok := h.Actor(c)
	if !ok {
		return
	}
	productID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	p, err := h.service.GetByID(c.Request.Context(), act, productID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, p)
}

func (h *ProductHandler) GetByBarcode(c *gin.Context) {
	act, ok := h.Actor(c)
	if !ok {
		return
	}

	p, err := h.service.GetByBarcode(c.Request.Context(), act, c.Param("barcode"))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, p)
}

func (h *ProductHandler) Create(c *gin.Context) {
	act, ok := h.Actor(c)
	if !ok {
		return
	}
	var req dto.CreateProductRequest
	if !h.BindJSON(c, &req) {
		return
	}

	p := product.NewProduct(act.TenantID, req.Code, req.Name, product.ProductType(req.Type))
	p.SKU = req.SKU
	p.Barcode = req.Barcode
	if req.Unit != "" {
		p.Unit = req.Unit
	}
	p.TrackLots = req.TrackLots

	if err := h.service.Create(c.Request.Context(), act, p); err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, dto.NewIDResponse(p.ID))
}

func (h *ProductHandler) Update(c *gin.Context) {
	act, ok := h.Actor(c)
	if !ok {
		return
	}
	productID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateProductRequest
	if !h.BindJSON(c, &req) {
		return
	}

	p, err := h.service.GetByID(c.Request.Context(), act, productID)
	if err != nil {
		h.Error(c, err)
		return
	}

	p.Version = req.Version
	if req.Name != nil {
		p.Name = *req.Name
	}
	if req.Type != nil {
		p.Type = product.ProductType(*req.Type)
	}
	if req.SKU != nil {
		p.SKU = req.SKU
	}
	if req.Barcode != nil {
		p.Barcode = req.Barcode
	}
	if req.Unit != nil {
		p.Unit = *req.Unit
	}
	if req.TrackLots != nil {
		p.TrackLots = *req.TrackLots
	}
	if req.IsActive != nil {
		p.IsActive = *req.IsActive
	}

	if err := h.service.Update(c.Request.Context(), act, p); err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, p)
}

func (h *ProductHandler) SetDeletionMark(c *gin.Context) {
	act, ok := h.Actor(c)
	if !ok {
		return
	}
	productID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req dto.SetDeletionMarkRequest
	if !h.BindJSON(c, &req) {
		return
	}

	if err := h.service.SetDeletionMark(c.Request.Context(), act, productID, req.Marked); err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.SuccessResponse{Success: true})
}
