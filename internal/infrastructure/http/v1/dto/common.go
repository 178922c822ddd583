// Package dto defines request and response shapes for the v1 HTTP API.
package dto

// SuccessResponse for operations without data.
type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// ErrorResponse for error details.
type ErrorResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// WebhookAck is the envelope returned to external platforms. It carries no
// internal detail in either direction.
type WebhookAck struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// HealthResponse reports service health.
type HealthResponse struct {
	Status string `json:"status"`
}
