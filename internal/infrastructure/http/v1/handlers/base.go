// Package handlers contains the HTTP request handlers for the v1 API.
package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"mise/internal/core/actor"
	"mise/internal/core/apperror"
	"mise/internal/core/id"
	"mise/internal/infrastructure/http/v1/middleware"
)

// BaseHandler carries the request plumbing every concrete handler embeds:
// binding, id and actor extraction, and the error/response conventions.
type BaseHandler struct{}

func NewBaseHandler() *BaseHandler {
	return &BaseHandler{}
}

// BindJSON decodes the request body into obj. On failure it aborts the
// request with a validation error and returns false.
func (h *BaseHandler) BindJSON(c *gin.Context, obj any) bool {
	return h.bind(c, c.ShouldBindJSON(obj), "invalid request body")
}

// BindQuery decodes query parameters into obj, aborting on failure.
func (h *BaseHandler) BindQuery(c *gin.Context, obj any) bool {
	return h.bind(c, c.ShouldBindQuery(obj), "invalid query parameters")
}

func (h *BaseHandler) bind(c *gin.Context, err error, msg string) bool {
	if err != nil {
		h.Error(c, apperror.NewValidation(msg).WithDetail("error", err.Error()))
		return false
	}
	return true
}

// Error records err on the gin context and aborts. The JSON body is
// rendered once, by middleware.ErrorHandler.
func (h *BaseHandler) Error(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

// Actor returns the authenticated actor placed on the context by the auth
// middleware. Handlers on protected routes call this first; a missing
// actor aborts with 401.
func (h *BaseHandler) Actor(c *gin.Context) (actor.Actor, bool) {
	act, ok := middleware.GetActor(c)
	if !ok {
		h.Error(c, apperror.NewUnauthorized("authentication required"))
		return actor.Actor{}, false
	}
	return act, true
}

// ParseID reads a path parameter as an ID, aborting with 400 when it is
// not a valid UUID.
func (h *BaseHandler) ParseID(c *gin.Context, param string) (id.ID, bool) {
	parsed, err := id.Parse(c.Param(param))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format").WithDetail("param", param))
		return id.ID{}, false
	}
	return parsed, true
}

// ParseIntQuery reads an integer query parameter, falling back to
// defaultVal when the parameter is absent or malformed.
func (h *BaseHandler) ParseIntQuery(c *gin.Context, key string, defaultVal int) int {
	raw := c.Query(key)
	if raw == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return defaultVal
	}
	return n
}

// OK writes a 200 response with the given body.
func (h *BaseHandler) OK(c *gin.Context, body any) {
	c.JSON(http.StatusOK, body)
}

// Created writes a 201 response with the given body.
func (h *BaseHandler) Created(c *gin.Context, body any) {
	c.JSON(http.StatusCreated, body)
}
