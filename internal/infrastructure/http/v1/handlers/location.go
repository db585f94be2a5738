package handlers

import (
	"github.com/gin-gonic/gin"

	"mise/internal/domain/catalogs/location"
	"mise/internal/infrastructure/http/v1/dto"
)

// LocationHandler handles location catalog endpoints.
type LocationHandler struct {
	*BaseHandler
	service *location.Service
}

// NewLocationHandler creates a new location handler.
func NewLocationHandler(base *BaseHandler, service *location.Service) *LocationHandler {
	return &LocationHandler{BaseHandler: base, service: service}
}

func (h *LocationHandler) List(c *gin.Context) {
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

func (h *LocationHandler) Get(c *gin.Context) {
	act, ok := h.Actor(c)
	if !ok {
		return
	}
	locID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	loc, err := h.service.GetByID(c.Request.Context(), act, locID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, loc)
}

func (h *LocationHandler) Create(c *gin.Context) {
	act, ok := h.Actor(c)
	if !ok {
		return
	}
	var req dto.CreateLocationRequest
	if !h.BindJSON(c, &req) {
		return
	}

	loc := location.NewLocation(act.TenantID, req.Code, req.Name, location.LocationType(req.Type))
	if req.Address != "" {
		loc.Address = &req.Address
	}
	if req.Timezone != "" {
		loc.Timezone = req.Timezone
	}

	if err := h.service.Create(c.Request.Context(), act, loc); err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, dto.NewIDResponse(loc.ID))
}

func (h *LocationHandler) Update(c *gin.Context) {
	act, ok := h.Actor(c)
	if !ok {
		return
	}
	locID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateLocationRequest
	if !h.BindJSON(c, &req) {
		return
	}

	loc, err := h.service.GetByID(c.Request.Context(), act, locID)
	if err != nil {
		h.Error(c, err)
		return
	}

	loc.Version = req.Version
	if req.Name != nil {
		loc.Name = *req.Name
	}
	if req.Type != nil {
		loc.Type = location.LocationType(*req.Type)
	}
	if req.Address != nil {
		loc.Address = req.Address
	}
	if req.Timezone != nil {
		loc.Timezone = *req.Timezone
	}
	if req.IsActive != nil {
		loc.IsActive = *req.IsActive
	}

	if err := h.service.Update(c.Request.Context(), act, loc); err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, loc)
}

func (h *LocationHandler) SetDeletionMark(c *gin.Context) {
	act, ok := h.Actor(c)
	if !ok {
		return
	}
	locID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req dto.SetDeletionMarkRequest
	if !h.BindJSON(c, &req) {
		return
	}

	if err := h.service.SetDeletionMark(c.Request.Context(), act, locID, req.Marked); err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.SuccessResponse{Success: true})
}
