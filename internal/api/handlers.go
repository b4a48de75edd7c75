package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/wardenhq/warden/internal/domain"
)

// Controller is the slice of the supervisor the API drives
type Controller interface {
	Start(ctx context.Context, path string) error
	Stop(ctx context.Context) error
	Status() domain.ServerStatus
}

// Handlers contains all HTTP handlers
type Handlers struct {
	controller Controller
	console    http.Handler
	shutdownFn func()
}

// NewHandlers creates new HTTP handlers. console serves the websocket
// console endpoint; shutdownFn, when set, stops the whole daemon.
func NewHandlers(ctrl Controller, console http.Handler, shutdownFn func()) *Handlers {
	return &Handlers{
		controller: ctrl,
		console:    console,
		shutdownFn: shutdownFn,
	}
}

// GetStatus handles GET /status
func (h *Handlers) GetStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, ToStatusResponse(h.controller.Status()))
}

// StartServer handles POST /start. The body is optional; when present it
// may carry a launch path overriding the configured one.
func (h *Handlers) StartServer(w http.ResponseWriter, r *http.Request) {
	var req StartRequest
	if err := decodeOptionalBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error: "invalid request body: " + err.Error(),
			Code:  "BAD_REQUEST",
		})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	if err := h.controller.Start(ctx, req.Path); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, SuccessResponse{Success: true, Message: "game server starting"})
}

// StopServer handles POST /stop
func (h *Handlers) StopServer(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 60*time.Second)
	defer cancel()

	if err := h.controller.Stop(ctx); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, SuccessResponse{Success: true, Message: "game server stopped"})
}

// Console handles GET /console by upgrading to a websocket session
func (h *Handlers) Console(w http.ResponseWriter, r *http.Request) {
	h.console.ServeHTTP(w, r)
}

// Shutdown handles POST /shutdown
func (h *Handlers) Shutdown(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, SuccessResponse{Success: true})

	// Trigger shutdown asynchronously so the response completes first
	go func() {
		time.Sleep(100 * time.Millisecond)
		if h.shutdownFn != nil {
			h.shutdownFn()
		}
	}()
}

// decodeOptionalBody decodes a JSON body when one is present; an empty
// body leaves v untouched.
func decodeOptionalBody(r *http.Request, v interface{}) error {
	if r.Body == nil {
		return nil
	}
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// writeJSON writes a JSON response
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error encoding JSON response: %v", err)
	}
}

// writeError writes an error response
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	message := "an internal error occurred"

	switch {
	case errors.Is(err, domain.ErrAlreadyRunning):
		status = http.StatusConflict
		message = err.Error()
	case errors.Is(err, domain.ErrNotRunning):
		status = http.StatusConflict
		message = err.Error()
	case errors.Is(err, domain.ErrSpawnFailed):
		status = http.StatusInternalServerError
		message = err.Error()
	case errors.Is(err, domain.ErrInputClosed):
		status = http.StatusInternalServerError
		message = err.Error()
	default:
		// Log the real error but return a sanitized message to avoid
		// leaking filesystem paths
		log.Printf("Internal error: %v", err)
	}

	writeJSON(w, status, ErrorResponse{
		Error: message,
		Code:  domain.ErrorCode(err),
	})
}
