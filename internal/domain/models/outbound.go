package models

// OutboundMessageRequest represents requests to send a message manually via the API.
type OutboundMessageRequest struct {
	To         string `json:"to" binding:"required"`
	Message    string `json:"message" binding:"required"`
	PreviewURL bool   `json:"preview_url"`
}

// StartTimeRequest updates the configured daily monitoring start time.
type StartTimeRequest struct {
	StartTime string `json:"start_time" binding:"required"`
}
