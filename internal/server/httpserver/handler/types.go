package handler

import (
	"time"

	"github.com/yndnr/tokguard-go/internal/core/service"
	"github.com/yndnr/tokguard-go/internal/infra/buildinfo"
)

// CodeOK is the envelope code of successful responses.
const CodeOK = "OK"

// Response is the JSON envelope of every non-HTML response except
// /metrics.
type Response struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id"`
	Timestamp int64  `json:"timestamp"`
	Data      any    `json:"data,omitempty"`
	Details   any    `json:"details,omitempty"`
}

// NewResponse creates a success response.
func NewResponse(requestID string, data any) *Response {
	return &Response{
		Code:      CodeOK,
		Message:   "Success",
		RequestID: requestID,
		Timestamp: time.Now().UnixMilli(),
		Data:      data,
	}
}

// NewErrorResponse creates an error response.
func NewErrorResponse(requestID, code, message string, details any) *Response {
	return &Response{
		Code:      code,
		Message:   message,
		RequestID: requestID,
		Timestamp: time.Now().UnixMilli(),
		Details:   details,
	}
}

// StatusResponse is the body of GET /admin/v1/status.
type StatusResponse struct {
	Status         string         `json:"status"`
	Build          buildinfo.Info `json:"build"`
	Backend        string         `json:"backend"`
	ActiveSessions int            `json:"active_sessions"`
	UptimeSeconds  int64          `json:"uptime_seconds"`
	LogLevel       string         `json:"log_level"`
}

// SessionResponse is the operator view of a session.
type SessionResponse = service.SessionInfo

// GenerateTokenResponse is the body of POST /admin/v1/tokens/generate.
type GenerateTokenResponse struct {
	Token       string `json:"token"`
	Fingerprint string `json:"fingerprint"`
}

// HealthResponse is the body of /health and /ready.
type HealthResponse struct {
	Status string `json:"status"`
	Time   string `json:"time"`
	Reason string `json:"reason,omitempty"`
}
