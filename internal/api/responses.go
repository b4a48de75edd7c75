package api

import (
	"github.com/wardenhq/warden/internal/domain"
)

// StartRequest is the optional body for POST /start
type StartRequest struct {
	// Path overrides the configured launch script for this start
	Path string `json:"path,omitempty"`
}

// StatusResponse represents the response for GET /status
type StatusResponse struct {
	Status        string `json:"status"`
	Message       string `json:"message"`
	PID           int    `json:"pid,omitempty"`
	Path          string `json:"path,omitempty"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	APIVersion    string `json:"api_version"`
}

// SuccessResponse represents a simple success response
type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// ToStatusResponse converts a domain status snapshot into the wire shape.
// The message field carries the phrasing console frontends display verbatim.
func ToStatusResponse(st domain.ServerStatus) StatusResponse {
	resp := StatusResponse{
		Status:     string(st.State),
		APIVersion: "v1",
	}

	if st.State.IsRunning() {
		resp.Message = "game server is running"
		resp.PID = st.PID
		resp.Path = st.Path
		resp.UptimeSeconds = st.UptimeSeconds()
	} else {
		resp.Message = "game server is not running"
	}

	return resp
}
