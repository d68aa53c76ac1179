// ABOUTME: JSON API handlers for single sends, uploads, and broadcasts.
// ABOUTME: Validation failures return 422 with a structured status/message body.

package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kirimwa/kirim-gateway/internal/message"
	"github.com/kirimwa/kirim-gateway/internal/session"
)

// maxUploadBytes caps the multipart memory budget for /upload.
const maxUploadBytes = 32 << 20

// SendRequest is the body for /send-message and /send-media.
type SendRequest struct {
	Sender  string `json:"sender"`
	Number  string `json:"number"`
	Message string `json:"message,omitempty"`
	Caption string `json:"caption,omitempty"`
	File    string `json:"file,omitempty"`
}

// BroadcastRequest is the body for /broadcast. Numbers is a
// comma-separated list and Delay is in seconds.
type BroadcastRequest struct {
	Sender  string `json:"sender"`
	Numbers string `json:"numbers"`
	Message string `json:"message"`
	File    string `json:"file,omitempty"`
	Delay   *int   `json:"delay,omitempty"`
}

// sendJSONError writes the structured error body every endpoint uses.
func (g *Gateway) sendJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"status": false, "message": msg})
}

// sendFailure writes a 500 with the platform failure in the response field.
func (g *Gateway) sendFailure(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)
	_ = json.NewEncoder(w).Encode(map[string]any{"status": false, "response": err.Error()})
}

func (g *Gateway) sendJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// resolveSender validates the sender field and looks up its live
// worker. Writes a 422 and returns false when either step fails.
func (g *Gateway) resolveSender(w http.ResponseWriter, sender string) (*session.Worker, bool) {
	if sender == "" {
		g.sendJSONError(w, http.StatusUnprocessableEntity, "sender is required")
		return nil, false
	}
	worker, ok := g.registry.Find(sender)
	if !ok {
		g.sendJSONError(w, http.StatusUnprocessableEntity, fmt.Sprintf("session %s not found", sender))
		return nil, false
	}
	return worker, true
}

// checkRecipient normalizes and verifies one recipient for the
// single-send endpoints. A failed lookup is a 500, an unregistered
// number a 422.
func (g *Gateway) checkRecipient(w http.ResponseWriter, r *http.Request, worker *session.Worker, number string) (string, bool) {
	if number == "" {
		g.sendJSONError(w, http.StatusUnprocessableEntity, "number is required")
		return "", false
	}

	addr := g.service.Normalize(number)
	registered, err := g.service.IsRegistered(r.Context(), worker, addr)
	if err != nil {
		g.logger.Error("recipient check failed", "recipient", addr, "error", err)
		g.sendFailure(w, err)
		return "", false
	}
	if !registered {
		g.sendJSONError(w, http.StatusUnprocessableEntity, message.ResultUnregistered)
		return "", false
	}
	return addr, true
}

func (g *Gateway) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	var req SendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		g.sendJSONError(w, http.StatusUnprocessableEntity, "invalid JSON body")
		return
	}
	if req.Message == "" {
		g.sendJSONError(w, http.StatusUnprocessableEntity, "message is required")
		return
	}

	worker, ok := g.resolveSender(w, req.Sender)
	if !ok {
		return
	}
	addr, ok := g.checkRecipient(w, r, worker, req.Number)
	if !ok {
		return
	}

	receipt, err := g.service.SendText(r.Context(), worker, addr, req.Message)
	if err != nil {
		g.logger.Error("send failed", "recipient", addr, "error", err)
		g.sendFailure(w, err)
		return
	}

	g.sendJSON(w, http.StatusOK, map[string]any{"status": true, "response": receipt})
}

func (g *Gateway) handleSendMedia(w http.ResponseWriter, r *http.Request) {
	var req SendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		g.sendJSONError(w, http.StatusUnprocessableEntity, "invalid JSON body")
		return
	}
	if req.File == "" {
		g.sendJSONError(w, http.StatusUnprocessableEntity, "file is required")
		return
	}

	worker, ok := g.resolveSender(w, req.Sender)
	if !ok {
		return
	}
	addr, ok := g.checkRecipient(w, r, worker, req.Number)
	if !ok {
		return
	}

	receipt, err := g.service.SendMedia(r.Context(), worker, addr, req.File, req.Caption)
	if err != nil {
		var fetchErr *message.MediaFetchError
		if errors.As(err, &fetchErr) {
			g.logger.Error("media fetch failed", "url", req.File, "error", err)
		} else {
			g.logger.Error("media send failed", "recipient", addr, "error", err)
		}
		g.sendFailure(w, err)
		return
	}

	g.sendJSON(w, http.StatusOK, map[string]any{"status": true, "response": receipt})
}

// handleUpload stores a multipart file under the uploads directory with
// a uuid-prefixed name and returns its public URL.
func (g *Gateway) handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		g.sendJSONError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		g.sendJSONError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	name := uuid.New().String() + "-" + filepath.Base(header.Filename)
	dstPath := filepath.Join(g.config.Uploads.Dir, name)

	dst, err := os.Create(dstPath)
	if err != nil {
		g.logger.Error("failed to create upload file", "path", dstPath, "error", err)
		g.sendJSONError(w, http.StatusInternalServerError, "failed to store file")
		return
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		g.logger.Error("failed to write upload file", "path", dstPath, "error", err)
		g.sendJSONError(w, http.StatusInternalServerError, "failed to store file")
		return
	}

	url := strings.TrimSuffix(g.config.Server.BaseURL, "/") + "/assets/uploads/" + name
	g.logger.Info("file uploaded", "name", name)
	g.sendJSON(w, http.StatusOK, map[string]any{"status": true, "url": url})
}

// handleBroadcast runs a whole batch synchronously and returns the
// ordered per-recipient results.
func (g *Gateway) handleBroadcast(w http.ResponseWriter, r *http.Request) {
	var req BroadcastRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		g.sendJSONError(w, http.StatusUnprocessableEntity, "invalid JSON body")
		return
	}
	if req.Numbers == "" {
		g.sendJSONError(w, http.StatusUnprocessableEntity, "numbers is required")
		return
	}
	if req.Message == "" {
		g.sendJSONError(w, http.StatusUnprocessableEntity, "message is required")
		return
	}

	worker, ok := g.resolveSender(w, req.Sender)
	if !ok {
		return
	}

	job := message.Job{
		Recipients: splitNumbers(req.Numbers),
		Message:    req.Message,
		FileURL:    req.File,
		Delay:      g.broadcastDelay(req.Delay),
	}

	g.logger.Info("broadcast started", "session_id", req.Sender, "recipients", len(job.Recipients), "delay", job.Delay)
	results := g.pipeline.Run(r.Context(), worker, job)

	g.sendJSON(w, http.StatusOK, map[string]any{"status": true, "results": results})
}

// broadcastDelay resolves the pacing delay: caller seconds if given,
// the configured default otherwise, floored at one second.
func (g *Gateway) broadcastDelay(seconds *int) time.Duration {
	if seconds == nil {
		return g.config.Messaging.BroadcastDelay
	}
	d := time.Duration(*seconds) * time.Second
	if d < time.Second {
		d = time.Second
	}
	return d
}

// splitNumbers parses the comma-separated numbers field, dropping empty
// entries.
func splitNumbers(csv string) []string {
	parts := strings.Split(csv, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
