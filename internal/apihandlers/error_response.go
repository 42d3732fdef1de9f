package apihandlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// APIError defines standard error response
// Example: { "error": { "code": "bad_request", "message": "Invalid URL" } }
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	// Kind carries the terminal failure taxonomy on inference failures.
	Kind string `json:"kind,omitempty"`
	// CostUSD is reported even on failure: callers bill for failed
	// attempts too.
	CostUSD  *float64 `json:"cost_usd,omitempty"`
	Attempts int      `json:"attempts,omitempty"`
}

type errorResponse struct {
	Error APIError `json:"error"`
}

// JSONError sends a structured error response
func JSONError(ctx *gin.Context, status int, code, msg string) {
	ctx.JSON(status, errorResponse{Error: APIError{Code: code, Message: msg}})
}

// Convenience wrappers
func BadRequest(ctx *gin.Context, msg string) {
	JSONError(ctx, http.StatusBadRequest, "bad_request", msg)
}

func UnprocessableEntity(ctx *gin.Context, msg string) {
	JSONError(ctx, http.StatusUnprocessableEntity, "unprocessable", msg)
}

func Internal(ctx *gin.Context, msg string) {
	JSONError(ctx, http.StatusInternalServerError, "internal_error", msg)
}
