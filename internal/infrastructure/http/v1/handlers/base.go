// Package handlers implements the v1 HTTP API.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"storesync/internal/core/apperror"
	"storesync/internal/core/id"
	"storesync/internal/infrastructure/http/v1/dto"
)

// BaseHandler provides common handler utilities.
type BaseHandler struct{}

// NewBaseHandler creates a new base handler.
func NewBaseHandler() *BaseHandler {
	return &BaseHandler{}
}

// BindJSON binds and validates a JSON request body.
func (h *BaseHandler) BindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		h.Error(c, apperror.NewValidation("invalid request body").WithDetail("error", err.Error()))
		return false
	}
	return true
}

// BindQuery binds and validates query parameters.
func (h *BaseHandler) BindQuery(c *gin.Context, obj any) bool {
	if err := c.ShouldBindQuery(obj); err != nil {
		h.Error(c, apperror.NewValidation("invalid query parameters").WithDetail("error", err.Error()))
		return false
	}
	return true
}

// Error registers the error on the gin context and aborts. The JSON body is
// produced by middleware.ErrorHandler, the single source of truth.
func (h *BaseHandler) Error(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

// OK writes a 200 response.
func (h *BaseHandler) OK(c *gin.Context, body any) {
	c.JSON(http.StatusOK, body)
}

// Created writes a 201 response.
func (h *BaseHandler) Created(c *gin.Context, body any) {
	c.JSON(http.StatusCreated, body)
}

// Success writes a plain success envelope.
func (h *BaseHandler) Success(c *gin.Context, message string) {
	c.JSON(http.StatusOK, dto.SuccessResponse{Success: true, Message: message})
}

// ParseID parses a UUID string, reporting a field validation error on failure.
func (h *BaseHandler) ParseID(c *gin.Context, value, field string) (id.ID, bool) {
	parsed, err := id.Parse(value)
	if err != nil {
		h.Error(c, apperror.NewValidationField(field, "must be a valid UUID"))
		return id.Nil(), false
	}
	return parsed, true
}

// ParseOptionalID parses an optional UUID string pointer.
func (h *BaseHandler) ParseOptionalID(c *gin.Context, value *string, field string) (*id.ID, bool) {
	if value == nil || *value == "" {
		return nil, true
	}
	parsed, ok := h.ParseID(c, *value, field)
	if !ok {
		return nil, false
	}
	return &parsed, true
}
