package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"storesync/internal/core/apperror"
	"storesync/internal/core/id"
	"storesync/internal/domain/catalogs/store"
	"storesync/internal/domain/webhooks"
	"storesync/internal/infrastructure/http/v1/dto"
)

// WebhookHandler receives deliveries from external platforms. It writes its
// own responses: the platform only ever sees the success flag, a generic
// message and a status code, regardless of what failed inside.
type WebhookHandler struct {
	*BaseHandler
	gateway *webhooks.Gateway
}

// NewWebhookHandler creates a new webhook handler.
func NewWebhookHandler(base *BaseHandler, gateway *webhooks.Gateway) *WebhookHandler {
	return &WebhookHandler{BaseHandler: base, gateway: gateway}
}

// Receive handles POST /webhooks/:platform/:storeID.
func (h *WebhookHandler) Receive(c *gin.Context) {
	platform := store.Platform(c.Param("platform"))
	if !platform.IsValid() {
		h.ack(c, http.StatusNotFound, false, "unknown platform")
		return
	}

	storeID, err := id.Parse(c.Param("storeID"))
	if err != nil {
		h.ack(c, http.StatusNotFound, false, "unknown store")
		return
	}

	// The raw body is used verbatim for signature verification; it must not
	// be re-serialized or re-encoded on the way in.
	body, err := c.GetRawData()
	if err != nil {
		h.ack(c, http.StatusBadRequest, false, "unreadable request body")
		return
	}

	result, err := h.gateway.Handle(c.Request.Context(), webhooks.Request{
		StoreID:  storeID,
		Platform: platform,
		Body:     body,
		Header:   c.Request.Header,
	})
	if err != nil {
		status := apperror.GetHTTPStatus(err)
		message := "processing failed"
		if appErr, ok := apperror.AsAppError(err); ok && status < http.StatusInternalServerError {
			message = appErr.Message
		}
		h.ack(c, status, false, message)
		return
	}

	switch result.Status {
	case webhooks.StatusDuplicate:
		h.ack(c, http.StatusOK, true, "delivery already processed")
	case webhooks.StatusSkipped:
		h.ack(c, http.StatusOK, true, "delivery filtered")
	default:
		h.ack(c, http.StatusOK, true, "delivery processed")
	}
}

func (h *WebhookHandler) ack(c *gin.Context, status int, success bool, message string) {
	c.JSON(status, dto.WebhookAck{Success: success, Message: message})
}
