// Package handlers provides HTTP handler implementations for the public API.
//
// This file holds the response helpers every endpoint shares. Room clients
// are thin (TV dashboards, phone web views) and switch behavior on the error
// code alone, so failures always go out as an ErrorResponse with a stable
// `code`. fail() centralizes that formatting and logs 5xx responses with the
// request-scoped logger; ok() and noContent() round out the success shapes.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/qshare/go-queue-backend/internal/http/middleware"
)

// ErrorResponse is the error envelope returned by every endpoint.
type ErrorResponse struct {
	// Correlates server logs and client errors
	RequestID string `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
	// Stable, machine-readable code (see errors.go constants)
	Code string `json:"code" example:"room_full"`
	// Human-readable message (safe to show to users)
	Message string `json:"message" example:"room is at capacity"`
}

// fail aborts the request with the standard envelope at the given status.
// Server errors (>=500) are additionally logged with the request-scoped
// logger; client errors are the caller's problem and stay quiet.
func fail(c *gin.Context, status int, code, msg string) {
	reqID := c.Writer.Header().Get("X-Request-ID")
	resp := ErrorResponse{
		RequestID: reqID,
		Code:      code,
		Message:   msg,
	}

	if status >= http.StatusInternalServerError {
		lg := middleware.LoggerFrom(c)
		lg.Error().
			Int("status", status).
			Str("code", code).
			Str("message", msg).
			Msg("api error")
	}

	c.AbortWithStatusJSON(status, resp)
}

// Fail is the exported variant of fail() for the router's own responses
// (404, 405) so they share the envelope.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

// ok writes a success JSON response.
func ok(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}

// noContent writes an HTTP 204 No Content response.
func noContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
